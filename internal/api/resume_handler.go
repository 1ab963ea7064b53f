package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumekit/internal/api/middleware"
	"resumekit/internal/database"
	"resumekit/internal/errcode"
	"resumekit/internal/export"
	"resumekit/internal/render"
	"resumekit/internal/resume"
	"resumekit/internal/storage"
	"resumekit/internal/tasks"
)

// exportGuardKeyPrefix marks resumes with an export in flight; the
// worker clears the key when the task settles.
const exportGuardKeyPrefix = "export:inflight:"

// ObjectStore is the storage surface the handler depends on.
type ObjectStore interface {
	GenerateDownloadURL(ctx context.Context, objectKey string, duration time.Duration, filename string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// TaskEnqueuer is the queue surface the handler depends on.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// exportGuard is the narrow Redis surface used for the in-flight check.
type exportGuard interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ResumeHandler serves resume CRUD, sharing, rendering and export.
type ResumeHandler struct {
	db          *gorm.DB
	asynqClient TaskEnqueuer
	storage     ObjectStore
	redis       exportGuard
	renderer    *render.Renderer
	guardTTL    time.Duration
	downloadTTL time.Duration
	maxRetry    int
}

// NewResumeHandler constructs the handler.
func NewResumeHandler(
	db *gorm.DB,
	asynqClient TaskEnqueuer,
	storageClient *storage.Client,
	redisClient exportGuard,
	renderer *render.Renderer,
	guardTTL time.Duration,
	downloadTTL time.Duration,
	maxRetry int,
) *ResumeHandler {
	var store ObjectStore
	if storageClient != nil {
		store = storageClient
	}
	return &ResumeHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     store,
		redis:       redisClient,
		renderer:    renderer,
		guardTTL:    guardTTL,
		downloadTTL: downloadTTL,
		maxRetry:    maxRetry,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type saveResumeRequest struct {
	Title    string          `json:"title"`
	Template resume.Template `json:"template"`
	Content  resume.Content  `json:"content"`
}

// normalized resolves a save request into the document state to persist:
// an absent body becomes a fresh draft, blank titles get the default, and
// skills are trimmed with blanks dropped.
func (r saveResumeRequest) normalized() (string, resume.Content) {
	title := strings.TrimSpace(r.Title)
	if emptyContent(r.Content) {
		draft := resume.NewDraft(title)
		return draft.Title, draft.Content
	}
	if title == "" {
		title = resume.DefaultTitle
	}
	return title, r.Content.WithSkills(r.Content.Skills)
}

func emptyContent(c resume.Content) bool {
	return c.PersonalInfo == (resume.PersonalInfo{}) &&
		strings.TrimSpace(c.Summary) == "" &&
		len(c.Experience) == 0 &&
		len(c.Education) == 0 &&
		len(c.Skills) == 0
}

type resumeListItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Template  string    `json:"template"`
	Shared    bool      `json:"shared"`
	UpdatedAt time.Time `json:"updated_at"`
}

type resumeResponse struct {
	ID         uint            `json:"id"`
	Title      string          `json:"title"`
	Template   resume.Template `json:"template"`
	Content    resume.Content  `json:"content"`
	ShareToken string          `json:"share_token,omitempty"`
	Status     string          `json:"status,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateResume saves a new resume document.
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	title, content := req.normalized()
	contentJSON, err := marshalContent(content)
	if err != nil {
		Internal(c, "failed to encode resume content")
		return
	}

	model := database.Resume{
		Title:    title,
		Template: string(req.Template.Normalize()),
		Content:  contentJSON,
		UserID:   userID,
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&model).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(model))
}

// ListResumes lists all of the user's resumes for the dashboard.
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var resumes []database.Resume
	if err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&resumes).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, resumeListItem{
			ID:        r.ID,
			Title:     r.Title,
			Template:  r.Template,
			Shared:    r.ShareToken != nil,
			UpdatedAt: r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume returns the document for its owner.
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*model))
}

// UpdateResume replaces a resume's title, template and content.
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	title, content := req.normalized()
	contentJSON, err := marshalContent(content)
	if err != nil {
		Internal(c, "failed to encode resume content")
		return
	}

	ctx := c.Request.Context()
	updates := map[string]any{
		"title":    title,
		"template": string(req.Template.Normalize()),
		"content":  contentJSON,
	}
	if err := h.db.WithContext(ctx).Model(model).Updates(updates).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}

	if err := h.db.WithContext(ctx).First(model, model.ID).Error; err != nil {
		Internal(c, "failed to reload resume")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*model))
}

// DeleteResume removes a resume and its stored export artifact.
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.Resume{}, model.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	if model.ExportKey != "" {
		if err := h.storage.DeleteObject(ctx, model.ExportKey); err != nil {
			middleware.LoggerFromContext(c).Warn("delete export artifact failed",
				slog.String("object_key", model.ExportKey),
				slog.Any("error", err),
			)
		}
	}

	c.Status(http.StatusNoContent)
}

// ShareResume issues (or returns the existing) opaque share token.
func (h *ResumeHandler) ShareResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	if model.ShareToken == nil {
		token := uuid.NewString()
		ctx := c.Request.Context()
		if err := h.db.WithContext(ctx).Model(model).Update("share_token", token).Error; err != nil {
			Internal(c, "failed to issue share link")
			return
		}
		model.ShareToken = &token
	}

	c.JSON(http.StatusOK, gin.H{"token": *model.ShareToken})
}

// RevokeShare removes the share token; existing links stop resolving.
func (h *ResumeHandler) RevokeShare(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(model).Update("share_token", nil).Error; err != nil {
		Internal(c, "failed to revoke share link")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSharedResume returns a resume by its opaque share token. Read-only;
// no identity required.
func (h *ResumeHandler) GetSharedResume(c *gin.Context) {
	model, err := h.getResumeByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	resp := newResumeResponse(*model)
	resp.ShareToken = ""
	resp.Status = ""
	c.JSON(http.StatusOK, resp)
}

// ViewResume renders the owner's resume as the visual document page.
// Preview, rasterization and print all consume these same bytes.
func (h *ResumeHandler) ViewResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	h.renderResumePage(c, *model)
}

// ViewSharedResume renders a shared resume through the identical path
// used for owned resumes.
func (h *ResumeHandler) ViewSharedResume(c *gin.Context) {
	model, err := h.getResumeByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	h.renderResumePage(c, *model)
}

func (h *ResumeHandler) renderResumePage(c *gin.Context, model database.Resume) {
	doc, err := model.Document()
	if err != nil {
		Internal(c, "failed to decode resume content")
		return
	}

	visual, err := h.renderer.Render(doc)
	if err != nil {
		Internal(c, "failed to render resume")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(visual.HTML))
}

type exportRequest struct {
	Mode string `json:"mode"`
}

// ExportResume enqueues an export task and returns 202. At most one
// export per resume is in flight; duplicates are rejected with 409.
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = tasks.ModePDF
	}
	if mode != tasks.ModePDF && mode != tasks.ModePrint {
		BadRequest(c, "invalid export mode")
		return
	}

	doc, err := model.Document()
	if err != nil {
		Internal(c, "failed to decode resume content")
		return
	}

	ctx := c.Request.Context()
	guardKey := exportGuardKeyPrefix + strconv.FormatUint(uint64(model.ID), 10)
	acquired, err := h.redis.SetNX(ctx, guardKey, mode, h.guardTTL).Result()
	if err != nil {
		Internal(c, "failed to check export state")
		return
	}
	if !acquired {
		c.JSON(http.StatusConflict, gin.H{
			"error": "export already in progress",
			"code":  errcode.ExportInFlight,
		})
		return
	}

	// The task carries the document as of this moment; edits made while
	// the export is in flight do not reach it.
	snapshot := resume.NewSession(doc).Snapshot()
	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewResumeExportTask(snapshot, mode, correlationID)
	if err != nil {
		h.redis.Del(ctx, guardKey)
		Internal(c, "failed to create export task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(h.maxRetry))
	if err != nil {
		h.redis.Del(ctx, guardKey)
		Internal(c, "failed to enqueue export")
		return
	}

	if err := h.db.WithContext(ctx).Model(model).Update("status", "exporting").Error; err != nil {
		middleware.LoggerFromContext(c).Warn("failed to mark resume exporting")
	}

	Accepted(c, gin.H{
		"message": "export request accepted",
		"task_id": info.ID,
	})
}

// GetExportLink returns a presigned download URL for the latest export
// artifact, with the derived filename in the content disposition.
func (h *ResumeHandler) GetExportLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	model, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondResumeError(c, err)
		return
	}

	if model.ExportKey == "" {
		Conflict(c, "export not ready")
		return
	}

	filename := export.Filename(model.Title)
	signedURL, err := h.storage.GenerateDownloadURL(c.Request.Context(), model.ExportKey, h.downloadTTL, filename)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL, "filename": filename})
}

func (h *ResumeHandler) respondResumeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidResumeID):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "resume not available")
	default:
		Internal(c, "failed to query resume")
	}
}

func (h *ResumeHandler) getResumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	resumeID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidResumeID
	}

	var model database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(resumeID), userID).
		First(&model).Error; err != nil {
		return nil, err
	}

	return &model, nil
}

func (h *ResumeHandler) getResumeByToken(ctx context.Context, token string) (*database.Resume, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errInvalidResumeID
	}

	var model database.Resume
	if err := h.db.WithContext(ctx).
		Where("share_token = ?", token).
		First(&model).Error; err != nil {
		return nil, err
	}

	return &model, nil
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

func marshalContent(content resume.Content) (datatypes.JSON, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func newResumeResponse(model database.Resume) resumeResponse {
	doc, err := model.Document()
	if err != nil {
		doc = resume.Document{Title: model.Title, Template: resume.Template(model.Template).Normalize()}
	}
	resp := resumeResponse{
		ID:        model.ID,
		Title:     model.Title,
		Template:  doc.Template,
		Content:   doc.Content,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.ShareToken != nil {
		resp.ShareToken = *model.ShareToken
	}
	return resp
}
