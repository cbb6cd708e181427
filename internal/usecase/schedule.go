package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/coordinator"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
)

// ScheduleUsecase validates Schedule requests, persists them, and
// keeps the Coordinator's in-memory triggers in sync with persisted
// state.
type ScheduleUsecase struct {
	repo        repository.ScheduleRepository
	targets     repository.TargetRepository
	coordinator *coordinator.Coordinator
}

func NewScheduleUsecase(repo repository.ScheduleRepository, targets repository.TargetRepository, c *coordinator.Coordinator) *ScheduleUsecase {
	return &ScheduleUsecase{repo: repo, targets: targets, coordinator: c}
}

type CreateScheduleInput struct {
	Name            string
	TargetID        string
	Kind            domain.ScheduleKind
	IntervalSeconds *int
	CronExpr        *string
	DurationSeconds *int
	MaxRuns         *int
}

func validateScheduleKind(in CreateScheduleInput) error {
	switch in.Kind {
	case domain.KindInterval:
		if in.IntervalSeconds == nil || *in.IntervalSeconds <= 0 {
			return fmt.Errorf("%w: interval_seconds is required for INTERVAL schedules", domain.ErrInvalidScheduleKind)
		}
		if in.CronExpr != nil {
			return fmt.Errorf("%w: cron_expr must not be set for INTERVAL schedules", domain.ErrInvalidScheduleKind)
		}
	case domain.KindCron:
		if in.CronExpr == nil || *in.CronExpr == "" {
			return fmt.Errorf("%w: cron_expr is required for CRON schedules", domain.ErrInvalidScheduleKind)
		}
		if in.IntervalSeconds != nil {
			return fmt.Errorf("%w: interval_seconds must not be set for CRON schedules", domain.ErrInvalidScheduleKind)
		}
	default:
		return fmt.Errorf("%w: kind must be INTERVAL or CRON", domain.ErrInvalidScheduleKind)
	}
	return nil
}

// CreateSchedule validates the cadence, verifies the target exists,
// persists the schedule as ACTIVE with its first NextRunAt computed,
// then registers it with the Coordinator.
func (u *ScheduleUsecase) CreateSchedule(ctx context.Context, in CreateScheduleInput) (*domain.Schedule, error) {
	if err := validateScheduleKind(in); err != nil {
		return nil, err
	}
	if _, err := u.targets.GetByID(ctx, in.TargetID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &domain.Schedule{
		Name:            in.Name,
		TargetID:        in.TargetID,
		Kind:            in.Kind,
		IntervalSeconds: in.IntervalSeconds,
		CronExpr:        in.CronExpr,
		DurationSeconds: in.DurationSeconds,
		MaxRuns:         in.MaxRuns,
		Status:          domain.ScheduleActive,
		StartedAt:       now,
	}
	if in.DurationSeconds != nil {
		expires := now.Add(time.Duration(*in.DurationSeconds) * time.Second)
		s.ExpiresAt = &expires
	}

	next, err := u.coordinator.ComputeNextRunAt(s, now)
	if err != nil {
		return nil, err
	}
	s.NextRunAt = &next

	if err := u.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	if err := u.coordinator.AddSchedule(s); err != nil {
		return nil, fmt.Errorf("register schedule: %w", err)
	}
	return s, nil
}

func (u *ScheduleUsecase) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	return u.repo.GetByID(ctx, id)
}

type ListSchedulesInput struct {
	Status *domain.ScheduleStatus
}

func (u *ScheduleUsecase) ListSchedules(ctx context.Context, in ListSchedulesInput) ([]*domain.Schedule, error) {
	return u.repo.List(ctx, repository.ListSchedulesInput{Status: in.Status})
}

func (u *ScheduleUsecase) PauseSchedule(ctx context.Context, id string) error {
	return u.coordinator.Pause(ctx, id)
}

func (u *ScheduleUsecase) ResumeSchedule(ctx context.Context, id string) error {
	return u.coordinator.Resume(ctx, id)
}

func (u *ScheduleUsecase) DeleteSchedule(ctx context.Context, id string) error {
	if _, err := u.repo.GetByID(ctx, id); err != nil {
		return err
	}
	u.coordinator.Delete(id)
	return u.repo.Delete(ctx, id)
}
