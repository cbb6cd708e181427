package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

// ListSchedulesInput filters the Schedule listing.
type ListSchedulesInput struct {
	Status *domain.ScheduleStatus
}

// ScheduleRepository persists Schedule definitions and lifecycle state.
type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) error
	GetByID(ctx context.Context, id string) (*domain.Schedule, error)
	List(ctx context.Context, in ListSchedulesInput) ([]*domain.Schedule, error)
	ListActive(ctx context.Context) ([]*domain.Schedule, error)
	Update(ctx context.Context, s *domain.Schedule) error
	// SetStatus transitions a schedule's status, optionally setting a
	// new NextRunAt (nil clears it, e.g. on pause/expire).
	SetStatus(ctx context.Context, id string, status domain.ScheduleStatus, nextRunAt *time.Time) error
	// RecordFire advances run bookkeeping after a fire completes.
	RecordFire(ctx context.Context, id string, runCount int, lastRunAt time.Time, nextRunAt *time.Time) error
	// ExpireDue marks ACTIVE schedules whose window has elapsed as
	// EXPIRED and returns their ids.
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[domain.ScheduleStatus]int, error)
}
