package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumekit/internal/database"
	"resumekit/internal/render"
	"resumekit/internal/resume"
	"resumekit/internal/tasks"
	"resumekit/internal/template"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

type fakeGuard struct {
	allow   bool
	setKeys []string
	delKeys []string
}

func (f *fakeGuard) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	if f.allow {
		f.setKeys = append(f.setKeys, key)
	}
	return redis.NewBoolResult(f.allow, nil)
}

func (f *fakeGuard) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.delKeys = append(f.delKeys, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

type fakeObjectStore struct {
	lastKey      string
	lastFilename string
	deleted      []string
}

func (f *fakeObjectStore) GenerateDownloadURL(_ context.Context, objectKey string, _ time.Duration, filename string) (string, error) {
	f.lastKey = objectKey
	f.lastFilename = filename
	return "https://example.invalid/" + objectKey, nil
}

func (f *fakeObjectStore) DeleteObject(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func newResumeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.Resume{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestHandler(t *testing.T, db *gorm.DB, guard *fakeGuard, enqueuer *fakeEnqueuer, store *fakeObjectStore) *ResumeHandler {
	t.Helper()
	return &ResumeHandler{
		db:          db,
		asynqClient: enqueuer,
		storage:     store,
		redis:       guard,
		renderer:    render.NewRenderer(template.NewRegistry()),
		guardTTL:    time.Minute,
		downloadTTL: 5 * time.Minute,
		maxRetry:    3,
	}
}

// stubAuth injects a fixed user identity the way the real middleware does.
func stubAuth(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func newTestRouter(h *ResumeHandler, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	owned := router.Group("/v1/resumes")
	owned.Use(stubAuth(userID))
	{
		owned.POST("", h.CreateResume)
		owned.GET("", h.ListResumes)
		owned.GET("/:id", h.GetResume)
		owned.PUT("/:id", h.UpdateResume)
		owned.DELETE("/:id", h.DeleteResume)
		owned.GET("/:id/view", h.ViewResume)
		owned.POST("/:id/share", h.ShareResume)
		owned.DELETE("/:id/share", h.RevokeShare)
		owned.POST("/:id/export", h.ExportResume)
		owned.GET("/:id/export/link", h.GetExportLink)
	}

	shared := router.Group("/v1/shared")
	{
		shared.GET("/:token", h.GetSharedResume)
		shared.GET("/:token/view", h.ViewSharedResume)
	}

	return router
}

func seedUser(t *testing.T, db *gorm.DB, username string) database.User {
	t.Helper()
	user := database.User{Username: username, PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedResume(t *testing.T, db *gorm.DB, userID uint, title string, content resume.Content) database.Resume {
	t.Helper()
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	model := database.Resume{
		Title:    title,
		Template: string(resume.TemplateProfessional),
		Content:  data,
		UserID:   userID,
	}
	if err := db.Create(&model).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return model
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateResumeNormalizesTemplate(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "creator")
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/v1/resumes", map[string]any{
		"title":    "Backend Role",
		"template": "no-such-layout",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp resumeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Template != resume.TemplateProfessional {
		t.Errorf("template = %q, want professional fallback", resp.Template)
	}
	if resp.Title != "Backend Role" {
		t.Errorf("title = %q", resp.Title)
	}
}

func TestCreateResumeEmptyBodyStartsDraft(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "drafter")
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/v1/resumes", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp resumeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != resume.DefaultTitle {
		t.Errorf("title = %q, want %q", resp.Title, resume.DefaultTitle)
	}
	if len(resp.Content.Experience) != 1 || len(resp.Content.Education) != 1 {
		t.Errorf("draft sections = %d experience, %d education, want one blank entry each",
			len(resp.Content.Experience), len(resp.Content.Education))
	}
}

func TestCreateResumeNormalizesSkills(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "skills")
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, "/v1/resumes", map[string]any{
		"title": "Backend Role",
		"content": map[string]any{
			"skills": []string{"  Go  ", "", "PostgreSQL", "   "},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp resumeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Go", "PostgreSQL"}
	if len(resp.Content.Skills) != len(want) {
		t.Fatalf("skills = %v, want %v", resp.Content.Skills, want)
	}
	for i, s := range want {
		if resp.Content.Skills[i] != s {
			t.Errorf("skills[%d] = %q, want %q", i, resp.Content.Skills[i], s)
		}
	}
}

func TestSharedReadMatchesOwnerRead(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "owner")
	content := resume.Content{
		PersonalInfo: resume.PersonalInfo{Name: "Ada Lovelace"},
		Skills:       []string{"Go", "PostgreSQL"},
	}
	model := seedResume(t, db, user.ID, "Shared Role", content)
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/share", model.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("share status = %d", rec.Code)
	}
	var shareResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &shareResp); err != nil {
		t.Fatalf("decode share: %v", err)
	}
	if shareResp.Token == "" {
		t.Fatal("empty share token")
	}

	ownerRec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/resumes/%d", model.ID), nil)
	sharedRec := doJSON(t, router, http.MethodGet, "/v1/shared/"+shareResp.Token, nil)
	if sharedRec.Code != http.StatusOK {
		t.Fatalf("shared status = %d", sharedRec.Code)
	}

	var ownerResp, sharedResp resumeResponse
	if err := json.Unmarshal(ownerRec.Body.Bytes(), &ownerResp); err != nil {
		t.Fatalf("decode owner: %v", err)
	}
	if err := json.Unmarshal(sharedRec.Body.Bytes(), &sharedResp); err != nil {
		t.Fatalf("decode shared: %v", err)
	}
	if sharedResp.Title != ownerResp.Title ||
		sharedResp.Content.PersonalInfo.Name != ownerResp.Content.PersonalInfo.Name ||
		len(sharedResp.Content.Skills) != len(ownerResp.Content.Skills) {
		t.Errorf("shared read diverges from owner read")
	}
	if sharedResp.ShareToken != "" {
		t.Errorf("share token leaked through the public read")
	}
}

func TestRevokedTokenStopsResolving(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "revoker")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/share", model.ID), nil)
	var shareResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &shareResp); err != nil {
		t.Fatalf("decode share: %v", err)
	}

	if rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/resumes/%d/share", model.ID), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("revoke status = %d", rec.Code)
	}

	if rec := doJSON(t, router, http.MethodGet, "/v1/shared/"+shareResp.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("revoked token status = %d, want 404", rec.Code)
	}
}

func TestExportRejectsConcurrentRequests(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "exporter")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})

	enqueuer := &fakeEnqueuer{}
	guard := &fakeGuard{allow: false}
	h := newTestHandler(t, db, guard, enqueuer, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/export", model.ID), map[string]any{"mode": "pdf"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(enqueuer.tasks) != 0 {
		t.Errorf("task enqueued despite in-flight export")
	}
}

func TestExportEnqueuesTask(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "enqueue")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})

	enqueuer := &fakeEnqueuer{}
	guard := &fakeGuard{allow: true}
	h := newTestHandler(t, db, guard, enqueuer, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/export", model.ID), map[string]any{"mode": "print"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(enqueuer.tasks) != 1 {
		t.Fatalf("tasks enqueued = %d", len(enqueuer.tasks))
	}
	if len(guard.setKeys) != 1 {
		t.Errorf("guard not acquired")
	}

	var payload struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(enqueuer.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Mode != "print" {
		t.Errorf("mode = %q", payload.Mode)
	}
}

func TestExportPayloadCarriesDocumentSnapshot(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "snapshot")
	model := seedResume(t, db, user.ID, "Before Edit", resume.Content{
		PersonalInfo: resume.PersonalInfo{Name: "Ada Lovelace"},
	})

	enqueuer := &fakeEnqueuer{}
	h := newTestHandler(t, db, &fakeGuard{allow: true}, enqueuer, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/export", model.ID), map[string]any{"mode": "pdf"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("export status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Edit the resume after the export was accepted. The queued task must
	// keep rendering the document as it stood at enqueue time.
	update := doJSON(t, router, http.MethodPut, fmt.Sprintf("/v1/resumes/%d", model.ID), map[string]any{
		"title": "After Edit",
		"content": map[string]any{
			"personalInfo": map[string]any{"name": "Changed Name"},
		},
	})
	if update.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", update.Code, update.Body.String())
	}

	if len(enqueuer.tasks) != 1 {
		t.Fatalf("tasks enqueued = %d", len(enqueuer.tasks))
	}
	var payload tasks.ResumeExportPayload
	if err := json.Unmarshal(enqueuer.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Document.Title != "Before Edit" {
		t.Errorf("payload title = %q, want the pre-edit title", payload.Document.Title)
	}
	if payload.Document.Content.PersonalInfo.Name != "Ada Lovelace" {
		t.Errorf("payload name = %q, want the pre-edit name", payload.Document.Content.PersonalInfo.Name)
	}
}

func TestDeleteResumeRemovesExportArtifact(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "cleaner")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})
	if err := db.Model(&model).Update("export_key", "exports/1/abc/file.pdf").Error; err != nil {
		t.Fatalf("set export key: %v", err)
	}

	store := &fakeObjectStore{}
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, store)
	router := newTestRouter(h, user.ID)

	if rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/resumes/%d", model.ID), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "exports/1/abc/file.pdf" {
		t.Errorf("deleted objects = %v, want the export artifact", store.deleted)
	}
}

func TestDeleteResumeWithoutArtifactSkipsStorage(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "cleaner-empty")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})

	store := &fakeObjectStore{}
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, store)
	router := newTestRouter(h, user.ID)

	if rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/resumes/%d", model.ID), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(store.deleted) != 0 {
		t.Errorf("deleted objects = %v, want none", store.deleted)
	}
}

func TestExportRejectsUnknownMode(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "badmode")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/export", model.ID), map[string]any{"mode": "docx"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExportLinkCarriesDerivedFilename(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "downloader")
	model := seedResume(t, db, user.ID, "Senior  Backend   Engineer", resume.Content{})
	if err := db.Model(&model).Update("export_key", "exports/1/abc/file.pdf").Error; err != nil {
		t.Fatalf("set export key: %v", err)
	}

	store := &fakeObjectStore{}
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, store)
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/resumes/%d/export/link", model.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.lastFilename != "Senior_Backend_Engineer_resume.pdf" {
		t.Errorf("filename = %q", store.lastFilename)
	}
}

func TestExportLinkBeforeArtifactExists(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "early")
	model := seedResume(t, db, user.ID, "Role", resume.Content{})
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/resumes/%d/export/link", model.ID), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestViewEndpointsShareOneRenderPath(t *testing.T) {
	db := newResumeTestDB(t)
	user := seedUser(t, db, "viewer")
	content := resume.Content{
		PersonalInfo: resume.PersonalInfo{Name: "Ada Lovelace"},
		Summary:      "Engineer.",
	}
	model := seedResume(t, db, user.ID, "View Role", content)
	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, user.ID)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/share", model.ID), nil)
	var shareResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &shareResp); err != nil {
		t.Fatalf("decode share: %v", err)
	}

	ownerView := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/resumes/%d/view", model.ID), nil)
	sharedView := doJSON(t, router, http.MethodGet, "/v1/shared/"+shareResp.Token+"/view", nil)
	if ownerView.Code != http.StatusOK || sharedView.Code != http.StatusOK {
		t.Fatalf("view statuses = %d, %d", ownerView.Code, sharedView.Code)
	}
	if ownerView.Body.String() != sharedView.Body.String() {
		t.Errorf("owner and shared views rendered differently")
	}
	if !strings.Contains(ownerView.Body.String(), "Ada Lovelace") {
		t.Errorf("rendered page missing content")
	}
}

func TestResumeOwnershipIsEnforced(t *testing.T) {
	db := newResumeTestDB(t)
	owner := seedUser(t, db, "isolation-owner")
	intruder := seedUser(t, db, "isolation-intruder")
	model := seedResume(t, db, owner.ID, "Private", resume.Content{})

	h := newTestHandler(t, db, &fakeGuard{allow: true}, &fakeEnqueuer{}, &fakeObjectStore{})
	router := newTestRouter(h, intruder.ID)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/resumes/%d", model.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
