package coordinator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/coordinator"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/executor"
)

// TestReconciler_PicksUpScheduleRegisteredElsewhere simulates the
// control-plane process writing a new ACTIVE schedule straight to the
// repository (as cmd/server's passive Coordinator would) without ever
// calling AddSchedule on this process's Coordinator. The Reconciler
// must discover and register it on its own.
func TestReconciler_PicksUpScheduleRegisteredElsewhere(t *testing.T) {
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

	// Written directly to the repository, as if by a sibling process's
	// control plane — c.AddSchedule is never called for it.
	interval := 1
	max := 1
	next := time.Now().UTC().Add(5 * time.Millisecond)
	sched := &domain.Schedule{
		Name: "s1", TargetID: target.ID, Kind: domain.KindInterval, IntervalSeconds: &interval,
		MaxRuns: &max, Status: domain.ScheduleActive, StartedAt: time.Now().UTC(), NextRunAt: &next,
	}
	_ = schedules.Create(context.Background(), sched)

	r := coordinator.NewReconciler(c, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Start(ctx)

	time.Sleep(300 * time.Millisecond)
	cancel()
	c.Shutdown()

	got, err := schedules.GetByID(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if got.RunCount < 1 {
		t.Fatalf("expected reconciler to register and fire the schedule, got RunCount=%d", got.RunCount)
	}
}

// TestReconciler_DeregistersOnceNoLongerActive runs the reconcile pass
// that follows a schedule dropping out of ListActive (paused/deleted
// by another process). The Engine's registrations are not visible from
// this package, so the test only checks that this pass and the
// following Shutdown complete; it does not observe the deregistration
// itself.
func TestReconciler_DeregistersOnceNoLongerActive(t *testing.T) {
	targets := newFakeTargets()
	schedules := newFakeSchedules()
	runs := newFakeRuns()
	attempts := newFakeAttempts()
	exec := executor.New(testLogger(), runs, attempts, 3, time.Millisecond, true)
	c := coordinator.New(schedules, targets, runs, exec, time.UTC, testLogger())

	target := &domain.Target{Name: "t1", URL: "http://example.invalid", Method: domain.MethodGET, TimeoutSeconds: 5}
	_ = targets.Create(context.Background(), target)

	interval := 1
	next := time.Now().UTC().Add(time.Hour)
	sched := &domain.Schedule{
		Name: "s1", TargetID: target.ID, Kind: domain.KindInterval, IntervalSeconds: &interval,
		Status: domain.ScheduleActive, StartedAt: time.Now().UTC(), NextRunAt: &next,
	}
	_ = schedules.Create(context.Background(), sched)

	r := coordinator.NewReconciler(c, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	// Flip the schedule's status directly, as Pause() called in a
	// sibling process would leave it persisted.
	_ = schedules.SetStatus(context.Background(), sched.ID, domain.SchedulePaused, nil)

	time.Sleep(50 * time.Millisecond)
	c.Shutdown()
}
