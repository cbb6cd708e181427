package usecase

import (
	"context"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
)

// RunUsecase serves Run/Attempt read paths. Runs are never created
// through the API; they are only ever produced by the Coordinator.
type RunUsecase struct {
	runs repository.RunRepository
}

func NewRunUsecase(runs repository.RunRepository) *RunUsecase {
	return &RunUsecase{runs: runs}
}

type ListRunsInput struct {
	ScheduleID *string
	Status     *domain.RunStatus
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Offset     int
}

const (
	defaultRunListLimit = 100
	maxRunListLimit     = 1000
)

func (u *RunUsecase) toRepoInput(in ListRunsInput) repository.ListRunsInput {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}
	return repository.ListRunsInput{
		ScheduleID: in.ScheduleID,
		Status:     in.Status,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Limit:      limit,
		Offset:     in.Offset,
	}
}

func (u *RunUsecase) ListRuns(ctx context.Context, in ListRunsInput) ([]*domain.Run, error) {
	return u.runs.List(ctx, u.toRepoInput(in))
}

func (u *RunUsecase) CountRuns(ctx context.Context, in ListRunsInput) (int, error) {
	return u.runs.Count(ctx, u.toRepoInput(in))
}

func (u *RunUsecase) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return u.runs.GetByID(ctx, id)
}

func (u *RunUsecase) ListAttempts(ctx context.Context, runID string) ([]domain.Attempt, error) {
	run, err := u.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return run.Attempts, nil
}
