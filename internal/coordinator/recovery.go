package coordinator

import (
	"context"
	"time"
)

const orphanedRunMessage = "Server restarted while run was in progress"

// Recover runs once at startup: it fails any Run left PENDING/RUNNING
// by a prior process, then re-registers triggers for every Schedule
// that is still ACTIVE and not already expired.
func (c *Coordinator) Recover(ctx context.Context) error {
	n, err := c.runs.FailOrphaned(ctx, orphanedRunMessage)
	if err != nil {
		return err
	}
	if n > 0 {
		c.logger.Warn("recovered orphaned runs", "count", n)
	}

	schedules, err := c.schedules.ListActive(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, s := range schedules {
		if s.Expired(now) {
			c.expireSchedule(ctx, s)
			continue
		}
		if err := c.AddSchedule(s); err != nil {
			c.logger.Error("recover: failed to register schedule", "schedule_id", s.ID, "error", err)
			continue
		}
	}
	return nil
}
