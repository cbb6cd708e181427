package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/coordinator"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
	"github.com/ErlanBelekov/http-run-scheduler/internal/transport/http/handler"
	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
	"github.com/gin-gonic/gin"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeTargets struct {
	mu      sync.Mutex
	targets map[string]*domain.Target
}

func newFakeTargets() *fakeTargets { return &fakeTargets{targets: map[string]*domain.Target{}} }

func (f *fakeTargets) Create(_ context.Context, t *domain.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = "tgt-1"
	f.targets[t.ID] = t
	return nil
}
func (f *fakeTargets) GetByID(_ context.Context, id string) (*domain.Target, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.targets[id]
	if !ok {
		return nil, domain.ErrTargetNotFound
	}
	cp := *t
	return &cp, nil
}
func (f *fakeTargets) List(_ context.Context) ([]*domain.Target, error) { return nil, nil }
func (f *fakeTargets) Update(_ context.Context, t *domain.Target) error { return nil }
func (f *fakeTargets) Delete(_ context.Context, id string) error       { return nil }
func (f *fakeTargets) Count(_ context.Context) (int, error)            { return len(f.targets), nil }

var _ repository.TargetRepository = (*fakeTargets)(nil)

type fakeSchedules struct {
	mu        sync.Mutex
	schedules map[string]*domain.Schedule
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{schedules: map[string]*domain.Schedule{}}
}

func (f *fakeSchedules) Create(_ context.Context, s *domain.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = "sch-1"
	}
	cp := *s
	f.schedules[s.ID] = &cp
	return nil
}
func (f *fakeSchedules) GetByID(_ context.Context, id string) (*domain.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}
func (f *fakeSchedules) List(_ context.Context, _ repository.ListSchedulesInput) ([]*domain.Schedule, error) {
	return nil, nil
}
func (f *fakeSchedules) ListActive(_ context.Context) ([]*domain.Schedule, error) { return nil, nil }
func (f *fakeSchedules) Update(_ context.Context, s *domain.Schedule) error       { return nil }
func (f *fakeSchedules) SetStatus(_ context.Context, id string, status domain.ScheduleStatus, next *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	s.Status = status
	s.NextRunAt = next
	return nil
}
func (f *fakeSchedules) RecordFire(_ context.Context, id string, runCount int, lastRunAt time.Time, next *time.Time) error {
	return nil
}
func (f *fakeSchedules) ExpireDue(_ context.Context, now time.Time) ([]string, error) { return nil, nil }
func (f *fakeSchedules) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.schedules, id)
	return nil
}
func (f *fakeSchedules) CountByStatus(_ context.Context) (map[domain.ScheduleStatus]int, error) {
	return nil, nil
}

var _ repository.ScheduleRepository = (*fakeSchedules)(nil)

func newTestScheduleHandler(t *testing.T) (*handler.ScheduleHandler, *fakeSchedules, *fakeTargets) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	targets := newFakeTargets()
	schedules := newFakeSchedules()
	_ = targets.Create(context.Background(), &domain.Target{Name: "t1", URL: "http://example.invalid", Method: domain.MethodGET})
	coord := coordinator.NewControlPlane(schedules, targets, time.UTC, testLogger())
	uc := usecase.NewScheduleUsecase(schedules, targets, coord)
	return handler.NewScheduleHandler(uc, testLogger()), schedules, targets
}

func doRequest(h gin.HandlerFunc, method, path string, body []byte, params gin.Params) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx.Request = req
	ctx.Params = params
	h(ctx)
	return w
}

func TestScheduleHandler_CreateAndPauseResumeLifecycle(t *testing.T) {
	h, schedules, _ := newTestScheduleHandler(t)

	body, _ := json.Marshal(map[string]any{
		"name": "s1", "target_id": "tgt-1", "kind": "INTERVAL", "interval_seconds": 30,
	})
	w := doRequest(h.Create, http.MethodPost, "/schedules", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created domain.Schedule
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Status != domain.ScheduleActive {
		t.Fatalf("expected ACTIVE, got %s", created.Status)
	}

	params := gin.Params{{Key: "id", Value: created.ID}}

	// Pause once: succeeds.
	w = doRequest(h.Pause, http.MethodPost, "/schedules/x/pause", nil, params)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	// Pausing an already-PAUSED schedule must be rejected with 400, not 409.
	w = doRequest(h.Pause, http.MethodPost, "/schedules/x/pause", nil, params)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on double pause, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(h.Resume, http.MethodPost, "/schedules/x/resume", nil, params)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on resume, got %d: %s", w.Code, w.Body.String())
	}

	got, err := schedules.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if got.Status != domain.ScheduleActive {
		t.Fatalf("expected ACTIVE after resume, got %s", got.Status)
	}

	// Resuming an already-ACTIVE schedule must be rejected with 400.
	w = doRequest(h.Resume, http.MethodPost, "/schedules/x/resume", nil, params)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on double resume, got %d: %s", w.Code, w.Body.String())
	}
}

func TestScheduleHandler_CreateRejectsUnknownTarget(t *testing.T) {
	h, _, _ := newTestScheduleHandler(t)

	body, _ := json.Marshal(map[string]any{
		"name": "s1", "target_id": "missing", "kind": "INTERVAL", "interval_seconds": 30,
	})
	w := doRequest(h.Create, http.MethodPost, "/schedules", body, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown target, got %d: %s", w.Code, w.Body.String())
	}
}

func TestScheduleHandler_CreateRejectsMalformedCronExpr(t *testing.T) {
	h, _, _ := newTestScheduleHandler(t)

	body, _ := json.Marshal(map[string]any{
		"name": "s1", "target_id": "tgt-1", "kind": "CRON", "cron_expr": "not a cron expression",
	})
	w := doRequest(h.Create, http.MethodPost, "/schedules", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed cron_expr, got %d: %s", w.Code, w.Body.String())
	}
}

func TestScheduleHandler_GetByIDNotFound(t *testing.T) {
	h, _, _ := newTestScheduleHandler(t)
	w := doRequest(h.GetByID, http.MethodGet, "/schedules/nope", nil, gin.Params{{Key: "id", Value: "nope"}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestTargetHandler_CreateDefaultsMethodAndUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	targets := newFakeTargets()
	uc := usecase.NewTargetUsecase(targets, 30, 120)
	h := handler.NewTargetHandler(uc, testLogger())

	body, _ := json.Marshal(map[string]any{"name": "t1", "url": "http://example.invalid/hook"})
	w := doRequest(h.Create, http.MethodPost, "/targets", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created domain.Target
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Method != domain.MethodGET {
		t.Fatalf("expected default method GET, got %s", created.Method)
	}

	update, _ := json.Marshal(map[string]any{"timeout_seconds": 45})
	w = doRequest(h.Update, http.MethodPatch, "/targets/x", update, gin.Params{{Key: "id", Value: created.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated domain.Target
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.TimeoutSeconds != 45 {
		t.Fatalf("expected timeout 45, got %v", updated.TimeoutSeconds)
	}
	if updated.Name != "t1" {
		t.Fatalf("expected unchanged name t1, got %s", updated.Name)
	}
}

func TestTargetHandler_GetByIDNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	targets := newFakeTargets()
	uc := usecase.NewTargetUsecase(targets, 30, 120)
	h := handler.NewTargetHandler(uc, testLogger())

	w := doRequest(h.GetByID, http.MethodGet, "/targets/nope", nil, gin.Params{{Key: "id", Value: "nope"}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestTargetHandler_CreateRejectsNonHTTPURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	targets := newFakeTargets()
	uc := usecase.NewTargetUsecase(targets, 30, 120)
	h := handler.NewTargetHandler(uc, testLogger())

	body, _ := json.Marshal(map[string]any{"name": "t1", "url": "ftp://example.invalid/hook"})
	w := doRequest(h.Create, http.MethodPost, "/targets", body, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for non-http(s) url, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTargetHandler_CreateRejectsTimeoutOutOfRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	targets := newFakeTargets()
	uc := usecase.NewTargetUsecase(targets, 30, 120)
	h := handler.NewTargetHandler(uc, testLogger())

	body, _ := json.Marshal(map[string]any{
		"name": "t1", "url": "http://example.invalid/hook", "timeout_seconds": 121,
	})
	w := doRequest(h.Create, http.MethodPost, "/targets", body, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for timeout > 120, got %d: %s", w.Code, w.Body.String())
	}
}
