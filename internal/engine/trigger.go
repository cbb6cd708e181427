// Package engine computes next-fire times for Schedules and drives
// the goroutine-per-trigger firing loop.
package engine

import (
	"fmt"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/robfig/cron/v3"
)

// Trigger computes the next fire instant after a given instant.
type Trigger interface {
	NextAfter(after time.Time) time.Time
}

// IntervalTrigger fires every fixed duration after the previous fire.
type IntervalTrigger struct {
	Interval time.Duration
}

func (t IntervalTrigger) NextAfter(after time.Time) time.Time {
	return after.Add(t.Interval)
}

// CronTrigger evaluates a standard five-field cron expression in a
// configured time zone.
type CronTrigger struct {
	schedule cron.Schedule
	location *time.Location
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NewCronTrigger parses a standard five-field cron expression.
// Evaluation happens in loc; "after" instants passed to NextAfter are
// converted into loc before being handed to the cron schedule.
func NewCronTrigger(expr string, loc *time.Location) (*CronTrigger, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", domain.ErrInvalidCronExpr, expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronTrigger{schedule: sched, location: loc}, nil
}

func (t *CronTrigger) NextAfter(after time.Time) time.Time {
	return t.schedule.Next(after.In(t.location)).UTC()
}
