package coordinator

import (
	"context"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

// Pause stops firing a schedule. It must currently be ACTIVE.
func (c *Coordinator) Pause(ctx context.Context, scheduleID string) error {
	s, err := c.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if s.Status != domain.ScheduleActive {
		return domain.ErrScheduleNotActive
	}
	c.engine.Deregister(scheduleID)
	return c.schedules.SetStatus(ctx, scheduleID, domain.SchedulePaused, nil)
}

// Resume restarts firing a paused schedule. It returns
// ErrScheduleNotPaused unless the schedule is currently PAUSED. A
// schedule already past its window/run cap is set EXPIRED instead of
// ACTIVE, is not registered, and Resume returns nil.
func (c *Coordinator) Resume(ctx context.Context, scheduleID string) error {
	s, err := c.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if s.Status != domain.SchedulePaused {
		return domain.ErrScheduleNotPaused
	}

	now := time.Now().UTC()
	if s.Expired(now) {
		c.expireSchedule(ctx, s)
		return nil
	}

	next, err := c.ComputeNextRunAt(s, now)
	if err != nil {
		return err
	}
	if err := c.schedules.SetStatus(ctx, scheduleID, domain.ScheduleActive, &next); err != nil {
		return err
	}
	s.Status = domain.ScheduleActive
	s.NextRunAt = &next
	return c.AddSchedule(s)
}

// Delete stops a schedule's trigger; the caller is responsible for
// removing the persisted row (and its cascaded Runs/Attempts).
func (c *Coordinator) Delete(scheduleID string) {
	c.engine.Deregister(scheduleID)
}
