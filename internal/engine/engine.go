package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/metrics"
)

// FireFunc is invoked when a registered trigger comes due.
type FireFunc func(ctx context.Context, scheduleID string)

type registration struct {
	trigger Trigger
	cancel  context.CancelFunc
	busy    atomic.Bool
}

// Engine owns the in-memory set of registered triggers and the
// goroutine that sleeps until each is next due.
type Engine struct {
	mu     sync.Mutex
	regs   map[string]*registration
	fire   FireFunc
	logger *slog.Logger
}

func New(logger *slog.Logger, fire FireFunc) *Engine {
	return &Engine{
		regs:   make(map[string]*registration),
		fire:   fire,
		logger: logger.With("component", "engine"),
	}
}

// Register starts a firing loop for scheduleID using trigger,
// beginning from nextRunAt (the instant already computed and
// persisted for this schedule). If the schedule is already
// registered, its old loop is stopped first.
func (e *Engine) Register(scheduleID string, trigger Trigger, nextRunAt time.Time) {
	e.Deregister(scheduleID)

	ctx, cancel := context.WithCancel(context.Background())
	reg := &registration{trigger: trigger, cancel: cancel}

	e.mu.Lock()
	e.regs[scheduleID] = reg
	e.mu.Unlock()

	go e.loop(ctx, scheduleID, reg, nextRunAt)
}

// Deregister stops the firing loop for scheduleID, if any.
func (e *Engine) Deregister(scheduleID string) {
	e.mu.Lock()
	reg, ok := e.regs[scheduleID]
	if ok {
		delete(e.regs, scheduleID)
	}
	e.mu.Unlock()

	if ok {
		reg.cancel()
	}
}

// DeregisterAll stops every firing loop, used during shutdown.
func (e *Engine) DeregisterAll() {
	e.mu.Lock()
	regs := e.regs
	e.regs = make(map[string]*registration)
	e.mu.Unlock()

	for _, reg := range regs {
		reg.cancel()
	}
}

func (e *Engine) loop(ctx context.Context, scheduleID string, reg *registration, next time.Time) {
	for {
		d := time.Until(next)
		if d < 0 {
			d = 0
		}
		timer := time.NewTimer(d)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		metrics.FireLatency.Observe(time.Since(next).Seconds())

		if !reg.busy.CompareAndSwap(false, true) {
			// Previous firing of this schedule is still in flight
			// (max_instances=1). Skip this slot; don't drift.
			e.logger.Warn("skipping overlapping fire", "schedule_id", scheduleID)
			metrics.FiresSkippedTotal.WithLabelValues("overlap").Inc()
		} else {
			go func() {
				defer reg.busy.Store(false)
				e.fire(ctx, scheduleID)
			}()
		}

		// Coalesce: always compute the next slot from wall-clock now
		// rather than replaying any slots missed while busy.
		next = reg.trigger.NextAfter(time.Now().UTC())
	}
}
