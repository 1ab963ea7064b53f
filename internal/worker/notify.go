package worker

// ExportNotifyMessage is the WebSocket payload forwarded to clients
// over Redis pub/sub. Field names match what the frontend parses.
type ExportNotifyMessage struct {
	Status        string `json:"status"`
	ResumeID      uint   `json:"resume_id"`
	Mode          string `json:"mode"`
	Filename      string `json:"filename,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}
