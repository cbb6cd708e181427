package coordinator

import (
	"context"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/metrics"
)

// Sweeper periodically expires ACTIVE schedules whose window has
// elapsed between fires, grounded on the teacher's ticker-based
// Reaper loop.
type Sweeper struct {
	coordinator *Coordinator
	interval    time.Duration
}

func NewSweeper(c *Coordinator, interval time.Duration) *Sweeper {
	return &Sweeper{coordinator: c, interval: interval}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.SweepCycleDuration.Observe(time.Since(start).Seconds()) }()

	ids, err := s.coordinator.schedules.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		s.coordinator.logger.Error("window sweep failed", "error", err)
		return
	}
	for _, id := range ids {
		s.coordinator.engine.Deregister(id)
	}
	if len(ids) > 0 {
		metrics.SweepExpiredTotal.WithLabelValues("window_elapsed").Add(float64(len(ids)))
		s.coordinator.logger.Info("window sweep expired schedules", "count", len(ids))
	}
}
