// Package coordinator owns Schedule lifecycle: registering and
// deregistering triggers with the Engine, firing Runs through the
// Executor while guaranteeing at most one in-flight Run per Schedule,
// enforcing window/max-run expiry, and recovering from a crash.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/engine"
	"github.com/ErlanBelekov/http-run-scheduler/internal/executor"
	"github.com/ErlanBelekov/http-run-scheduler/internal/metrics"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
)

// Coordinator is the process-wide owner of Schedule lifecycle.
type Coordinator struct {
	schedules repository.ScheduleRepository
	targets   repository.TargetRepository
	runs      repository.RunRepository

	engine   *engine.Engine
	executor *executor.Executor
	location *time.Location
	logger   *slog.Logger

	// passive marks a Coordinator that persists Schedule lifecycle
	// transitions but never registers a live Engine trigger. Used by
	// the control-plane process so that creating, pausing or resuming
	// a schedule through the API never starts a second, competing fire
	// loop outside the process a Reconciler keeps authoritative.
	passive bool

	tokens sync.Map // scheduleID -> *sync.Mutex
}

func New(
	schedules repository.ScheduleRepository,
	targets repository.TargetRepository,
	runs repository.RunRepository,
	exec *executor.Executor,
	location *time.Location,
	logger *slog.Logger,
) *Coordinator {
	c := &Coordinator{
		schedules: schedules,
		targets:   targets,
		runs:      runs,
		executor:  exec,
		location:  location,
		logger:    logger.With("component", "coordinator"),
	}
	c.engine = engine.New(logger, c.onFire)
	return c
}

// NewControlPlane builds a Coordinator for the control-plane process:
// it validates schedules, computes next-run times and persists
// lifecycle transitions (create/pause/resume/delete), but AddSchedule
// is a no-op so it never starts a live fire loop. Registration with
// the Engine that actually fires Runs is owned exclusively by the
// process running a Reconciler against the same database.
func NewControlPlane(
	schedules repository.ScheduleRepository,
	targets repository.TargetRepository,
	location *time.Location,
	logger *slog.Logger,
) *Coordinator {
	c := &Coordinator{
		schedules: schedules,
		targets:   targets,
		location:  location,
		logger:    logger.With("component", "coordinator"),
		passive:   true,
	}
	c.engine = engine.New(logger, c.onFire)
	return c
}

// buildTrigger constructs the in-memory Trigger for a Schedule's
// configured cadence.
func (c *Coordinator) buildTrigger(s *domain.Schedule) (engine.Trigger, error) {
	switch s.Kind {
	case domain.KindInterval:
		if s.IntervalSeconds == nil {
			return nil, domain.ErrInvalidScheduleKind
		}
		return engine.IntervalTrigger{Interval: time.Duration(*s.IntervalSeconds) * time.Second}, nil
	case domain.KindCron:
		if s.CronExpr == nil {
			return nil, domain.ErrInvalidScheduleKind
		}
		return engine.NewCronTrigger(*s.CronExpr, c.location)
	default:
		return nil, domain.ErrInvalidScheduleKind
	}
}

// ComputeNextRunAt computes the next fire instant for a schedule
// relative to now, used both at creation time and by callers that
// need to preview a cadence.
func (c *Coordinator) ComputeNextRunAt(s *domain.Schedule, now time.Time) (time.Time, error) {
	trig, err := c.buildTrigger(s)
	if err != nil {
		return time.Time{}, err
	}
	return trig.NextAfter(now), nil
}

// AddSchedule registers a newly created, ACTIVE schedule's trigger
// with the Engine. The schedule's NextRunAt must already be set.
func (c *Coordinator) AddSchedule(s *domain.Schedule) error {
	if c.passive || s.Status != domain.ScheduleActive || s.NextRunAt == nil {
		return nil
	}
	trig, err := c.buildTrigger(s)
	if err != nil {
		return err
	}
	c.engine.Register(s.ID, trig, *s.NextRunAt)
	return nil
}

// RemoveSchedule stops a schedule's trigger without touching its
// persisted state.
func (c *Coordinator) RemoveSchedule(scheduleID string) {
	c.engine.Deregister(scheduleID)
}

// Shutdown stops every registered trigger.
func (c *Coordinator) Shutdown() {
	c.engine.DeregisterAll()
}

func (c *Coordinator) lockFor(scheduleID string) *sync.Mutex {
	v, _ := c.tokens.LoadOrStore(scheduleID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// onFire is the Engine's fire callback: the per-schedule exclusion,
// eligibility checks, Run creation, execution and bookkeeping
// described by the scheduler's fire-handler contract.
func (c *Coordinator) onFire(ctx context.Context, scheduleID string) {
	lock := c.lockFor(scheduleID)
	if !lock.TryLock() {
		c.logger.Warn("fire skipped, schedule already in flight", "schedule_id", scheduleID)
		return
	}
	defer lock.Unlock()

	s, err := c.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		c.logger.Error("fire: load schedule failed", "schedule_id", scheduleID, "error", err)
		return
	}
	if s.Status != domain.ScheduleActive {
		return
	}

	now := time.Now().UTC()

	if s.Expired(now) {
		c.expireSchedule(ctx, s)
		return
	}

	target, err := c.targets.GetByID(ctx, s.TargetID)
	if err != nil {
		c.logger.Error("fire: load target failed", "schedule_id", scheduleID, "error", err)
		return
	}

	idempotencyKey := fmt.Sprintf("%s:%s", s.ID, now.Format("20060102150405"))

	exists, err := c.runs.ExistsByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		c.logger.Error("fire: check idempotency key failed", "schedule_id", scheduleID, "error", err)
		return
	}
	if exists {
		c.logger.Warn("duplicate fire suppressed", "schedule_id", scheduleID, "idempotency_key", idempotencyKey)
		metrics.FiresSkippedTotal.WithLabelValues("duplicate").Inc()
		return
	}

	run := &domain.Run{
		ScheduleID:     s.ID,
		IdempotencyKey: idempotencyKey,
		Status:         domain.RunPending,
		ScheduledAt:    now,
		FinalErrorKind: domain.ErrorNone,
	}
	if err := c.runs.Create(ctx, run); err != nil {
		if errors.Is(err, domain.ErrDuplicateRun) {
			c.logger.Warn("duplicate fire suppressed", "schedule_id", scheduleID, "idempotency_key", idempotencyKey)
			metrics.FiresSkippedTotal.WithLabelValues("duplicate").Inc()
		} else {
			c.logger.Error("fire: create run failed", "schedule_id", scheduleID, "error", err)
		}
		return
	}

	if err := c.executor.Execute(ctx, run, target); err != nil {
		c.logger.Error("fire: execute run failed", "run_id", run.ID, "error", err)
	}

	s.RunCount++
	s.LastRunAt = &now
	next, err := c.ComputeNextRunAt(s, now)
	var nextPtr *time.Time
	if err == nil {
		nextPtr = &next
	}

	if err := c.schedules.RecordFire(ctx, s.ID, s.RunCount, now, nextPtr); err != nil {
		c.logger.Error("fire: record fire failed", "schedule_id", scheduleID, "error", err)
		return
	}

	if s.Expired(now) || nextPtr == nil {
		c.expireSchedule(ctx, s)
	}
}

func (c *Coordinator) expireSchedule(ctx context.Context, s *domain.Schedule) {
	if err := c.schedules.SetStatus(ctx, s.ID, domain.ScheduleExpired, nil); err != nil {
		c.logger.Error("expire schedule failed", "schedule_id", s.ID, "error", err)
	}
	c.engine.Deregister(s.ID)
}
