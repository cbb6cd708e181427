package coordinator

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler periodically registers ACTIVE schedules that this
// process's Engine doesn't yet know about, and deregisters ones that
// are no longer ACTIVE. This is how a schedule created, paused or
// resumed through the control API (a separate process sharing the
// same database) is picked up by the process that actually fires it.
// Grounded on the teacher's ticker-based Dispatcher polling idiom.
type Reconciler struct {
	coordinator *Coordinator
	interval    time.Duration
	logger      *slog.Logger

	known map[string]struct{}
}

func NewReconciler(c *Coordinator, interval time.Duration) *Reconciler {
	return &Reconciler{
		coordinator: c,
		interval:    interval,
		logger:      c.logger,
		known:       make(map[string]struct{}),
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	r.reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	schedules, err := r.coordinator.schedules.ListActive(ctx)
	if err != nil {
		r.logger.Error("reconcile: list active schedules failed", "error", err)
		return
	}

	seen := make(map[string]struct{}, len(schedules))
	for _, s := range schedules {
		seen[s.ID] = struct{}{}
		if _, ok := r.known[s.ID]; ok {
			continue
		}
		if err := r.coordinator.AddSchedule(s); err != nil {
			r.logger.Error("reconcile: register schedule failed", "schedule_id", s.ID, "error", err)
			continue
		}
		r.known[s.ID] = struct{}{}
	}

	for id := range r.known {
		if _, ok := seen[id]; !ok {
			r.coordinator.RemoveSchedule(id)
			delete(r.known, id)
		}
	}
}
