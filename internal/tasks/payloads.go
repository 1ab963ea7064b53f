package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"resumekit/internal/resume"
)

// Task type constants shared by the queue producer and consumer.
const (
	TypeResumeExport = "resume:export"
)

// Export modes: raster-backed PDF download or a print-subsystem job.
const (
	ModePDF   = "pdf"
	ModePrint = "print"
)

// ResumeExportPayload carries the full document snapshot taken when the
// export was requested. The worker renders from this snapshot, so edits
// landing after enqueue never reach an in-flight export.
type ResumeExportPayload struct {
	ResumeID      uint            `json:"resume_id"`
	Mode          string          `json:"mode"`
	CorrelationID string          `json:"correlation_id"`
	Document      resume.Document `json:"document"`
}

// NewResumeExportTask builds an export task around a document snapshot.
func NewResumeExportTask(doc resume.Document, mode, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeExportPayload{
		ResumeID:      doc.ID,
		Mode:          mode,
		CorrelationID: correlationID,
		Document:      doc,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeExport, payload), nil
}
