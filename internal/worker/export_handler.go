package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/database"
	"resumekit/internal/errcode"
	"resumekit/internal/export"
	"resumekit/internal/render"
	"resumekit/internal/storage"
	"resumekit/internal/tasks"
)

const exportGuardKeyPrefix = "export:inflight:"

// ExportTaskHandler consumes resume export tasks: render, capture,
// package, upload, notify.
type ExportTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	renderer    *render.Renderer
	pipeline    *export.Pipeline
	logger      *slog.Logger
}

// NewExportTaskHandler creates the handler.
func NewExportTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	renderer *render.Renderer,
	pipeline *export.Pipeline,
	logger *slog.Logger,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		renderer:    renderer,
		pipeline:    pipeline,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler. The outcome settles exactly
// once: either a completed notification with the artifact name, or an
// error notification on the final attempt. The in-flight guard is
// released when the task settles.
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
		slog.String("mode", payload.Mode),
	)
	log.Info("starting resume export task")

	var model database.Resume
	if err := h.db.WithContext(ctx).First(&model, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			h.releaseGuard(ctx, payload.ResumeID, log)
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(model.UserID)))

	defer func() {
		if retErr == nil {
			h.releaseGuard(ctx, model.ID, log)
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		h.releaseGuard(ctx, model.ID, log)
		if err := h.db.WithContext(ctx).Model(&model).Update("status", "failed").Error; err != nil {
			log.Error("mark resume failed", slog.Any("error", err))
		}
		notify := ExportNotifyMessage{
			Status:        "error",
			ResumeID:      model.ID,
			Mode:          payload.Mode,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, model.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	// Render from the snapshot embedded at enqueue time, not from the
	// current row: edits made after the export was requested must not
	// leak into the artifact.
	visual, err := h.renderer.Render(payload.Document)
	if err != nil {
		log.Error("render visual document failed", slog.Any("error", err))
		return err
	}

	var result export.Result
	switch payload.Mode {
	case tasks.ModePrint:
		result, err = h.pipeline.Print(ctx, visual)
	default:
		result, err = h.pipeline.ExportPDF(ctx, visual)
	}
	if errors.Is(err, export.ErrNoRenderSource) {
		// Nothing to capture; retrying cannot help. Settle as an error
		// without producing an artifact.
		log.Warn("export aborted: no render source")
		notify := ExportNotifyMessage{
			Status:        "error",
			ResumeID:      model.ID,
			Mode:          payload.Mode,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.RenderMissing,
			ErrorMessage:  err.Error(),
		}
		if pubErr := h.publishNotify(ctx, model.UserID, notify); pubErr != nil {
			log.Error("publish export error notification failed", slog.Any("error", pubErr))
		}
		return nil
	}
	if err != nil {
		log.Error("export pipeline failed", slog.Any("error", err))
		return err
	}

	objectKey := fmt.Sprintf("exports/%d/%s/%s", model.UserID, uuid.NewString(), result.Filename)
	reader := bytes.NewReader(result.Data)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, int64(len(result.Data)), result.ContentType); err != nil {
		log.Error("upload export artifact failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"export_key": objectKey,
		"status":     "completed",
	}
	if err := h.db.WithContext(ctx).Model(&model).Updates(update).Error; err != nil {
		log.Error("update resume failed", slog.Any("error", err))
		return err
	}

	if model.ExportKey != "" && model.ExportKey != objectKey {
		if err := h.storage.DeleteObject(ctx, model.ExportKey); err != nil {
			log.Warn("delete superseded export artifact failed",
				slog.String("object_key", model.ExportKey),
				slog.Any("error", err),
			)
		}
	}

	notify := ExportNotifyMessage{
		Status:        "completed",
		ResumeID:      model.ID,
		Mode:          payload.Mode,
		Filename:      result.Filename,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishNotify(ctx, model.UserID, notify); err != nil {
		log.Error("publish export notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume export task completed", slog.String("object_key", objectKey))
	return nil
}

func (h *ExportTaskHandler) publishNotify(ctx context.Context, userID uint, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func (h *ExportTaskHandler) releaseGuard(ctx context.Context, resumeID uint, log *slog.Logger) {
	key := exportGuardKeyPrefix + strconv.FormatUint(uint64(resumeID), 10)
	if err := h.redisClient.Del(ctx, key).Err(); err != nil {
		log.Warn("release export guard failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
