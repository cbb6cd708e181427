package coordinator_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/coordinator"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/executor"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTargets struct {
	mu      sync.Mutex
	targets map[string]*domain.Target
}

func newFakeTargets() *fakeTargets { return &fakeTargets{targets: map[string]*domain.Target{}} }

func (f *fakeTargets) Create(_ context.Context, t *domain.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = time.Now().Format("150405.000000000")
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

func newFakeSchedules() *fakeSchedules { return &fakeSchedules{schedules: map[string]*domain.Schedule{}} }

func (f *fakeSchedules) Create(_ context.Context, s *domain.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = time.Now().Format("150405.000000000")
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
func (f *fakeSchedules) ListActive(_ context.Context) ([]*domain.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Schedule
	for _, s := range f.schedules {
		if s.Status == domain.ScheduleActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (f *fakeSchedules) Update(_ context.Context, s *domain.Schedule) error { return nil }
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
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	s.RunCount = runCount
	s.LastRunAt = &lastRunAt
	s.NextRunAt = next
	return nil
}
func (f *fakeSchedules) ExpireDue(_ context.Context, now time.Time) ([]string, error) { return nil, nil }
func (f *fakeSchedules) Delete(_ context.Context, id string) error                    { return nil }
func (f *fakeSchedules) CountByStatus(_ context.Context) (map[domain.ScheduleStatus]int, error) {
	return nil, nil
}

var _ repository.ScheduleRepository = (*fakeSchedules)(nil)

type fakeRuns struct {
	mu   sync.Mutex
	runs map[string]*domain.Run
	keys map[string]bool
}

func newFakeRuns() *fakeRuns { return &fakeRuns{runs: map[string]*domain.Run{}, keys: map[string]bool{}} }

func (f *fakeRuns) Create(_ context.Context, r *domain.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[r.IdempotencyKey] {
		return domain.ErrDuplicateRun
	}
	f.keys[r.IdempotencyKey] = true
	r.ID = time.Now().Format("150405.000000000")
	cp := *r
	f.runs[r.ID] = &cp
	return nil
}
func (f *fakeRuns) GetByID(_ context.Context, id string) (*domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	cp := *r
	return &cp, nil
}
func (f *fakeRuns) ExistsByIdempotencyKey(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], nil
}
func (f *fakeRuns) List(_ context.Context, _ repository.ListRunsInput) ([]*domain.Run, error) {
	return nil, nil
}
func (f *fakeRuns) Count(_ context.Context, _ repository.ListRunsInput) (int, error) { return 0, nil }
func (f *fakeRuns) Update(_ context.Context, r *domain.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.runs[r.ID] = &cp
	return nil
}
func (f *fakeRuns) FailOrphaned(_ context.Context, msg string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.runs {
		if r.Status == domain.RunPending || r.Status == domain.RunRunning {
			r.Status = domain.RunFailed
			n++
		}
	}
	return n, nil
}
func (f *fakeRuns) CountByStatus(_ context.Context) (map[domain.RunStatus]int, error) { return nil, nil }
func (f *fakeRuns) CountByStatusSince(_ context.Context, _ time.Time) (map[domain.RunStatus]int, error) {
	return nil, nil
}
func (f *fakeRuns) AverageLatencyMSSince(_ context.Context, _ time.Time) (float64, error) {
	return 0, nil
}
func (f *fakeRuns) CountErrorsByKindSince(_ context.Context, _ time.Time) (map[domain.ErrorKind]int, error) {
	return nil, nil
}

var _ repository.RunRepository = (*fakeRuns)(nil)

type fakeAttempts struct {
	mu       sync.Mutex
	attempts map[string]*domain.Attempt
}

func newFakeAttempts() *fakeAttempts { return &fakeAttempts{attempts: map[string]*domain.Attempt{}} }

func (f *fakeAttempts) Create(_ context.Context, a *domain.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = time.Now().Format("150405.000000000.") + a.RunID
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}
func (f *fakeAttempts) Complete(_ context.Context, a *domain.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}
func (f *fakeAttempts) ListByRunID(_ context.Context, runID string) ([]domain.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Attempt
	for _, a := range f.attempts {
		if a.RunID == runID {
			out = append(out, *a)
		}
	}
	return out, nil
}

var _ repository.AttemptRepository = (*fakeAttempts)(nil)

func TestCoordinator_FireCreatesSuccessfulRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	targets := newFakeTargets()
	schedules := newFakeSchedules()
	runs := newFakeRuns()
	attempts := newFakeAttempts()

	target := &domain.Target{Name: "t1", URL: srv.URL, Method: domain.MethodGET, TimeoutSeconds: 5}
	_ = targets.Create(context.Background(), target)

	exec := executor.New(testLogger(), runs, attempts, 3, 10*time.Millisecond, true)
	c := coordinator.New(schedules, targets, runs, exec, time.UTC, testLogger())

	interval := 1
	max := 1
	sched := &domain.Schedule{
		Name: "s1", TargetID: target.ID, Kind: domain.KindInterval, IntervalSeconds: &interval,
		MaxRuns: &max, Status: domain.ScheduleActive, StartedAt: time.Now().UTC(),
	}
	_ = schedules.Create(context.Background(), sched)
	next := time.Now().UTC().Add(5 * time.Millisecond)
	sched.NextRunAt = &next

	if err := c.AddSchedule(sched); err != nil {
		t.Fatalf("add schedule: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	c.Shutdown()

	got, err := schedules.GetByID(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if got.RunCount < 1 {
		t.Fatalf("expected at least 1 run, got %d", got.RunCount)
	}
}

func TestCoordinator_PauseRejectsNonActive(t *testing.T) {
	targets := newFakeTargets()
	schedules := newFakeSchedules()
	runs := newFakeRuns()
	attempts := newFakeAttempts()
	exec := executor.New(testLogger(), runs, attempts, 3, time.Millisecond, true)
	c := coordinator.New(schedules, targets, runs, exec, time.UTC, testLogger())

	sched := &domain.Schedule{Name: "s1", Status: domain.SchedulePaused}
	_ = schedules.Create(context.Background(), sched)

	if err := c.Pause(context.Background(), sched.ID); err != domain.ErrScheduleNotActive {
		t.Fatalf("expected ErrScheduleNotActive, got %v", err)
	}
}
