package usecase

import (
	"context"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
)

// MetricsUsecase aggregates live counts across Targets, Schedules and
// Runs for the operational dashboard and Prometheus exposition.
type MetricsUsecase struct {
	targets   repository.TargetRepository
	schedules repository.ScheduleRepository
	runs      repository.RunRepository
}

func NewMetricsUsecase(targets repository.TargetRepository, schedules repository.ScheduleRepository, runs repository.RunRepository) *MetricsUsecase {
	return &MetricsUsecase{targets: targets, schedules: schedules, runs: runs}
}

type ScheduleBreakdown struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Status    domain.ScheduleStatus `json:"status"`
	RunCount  int                   `json:"runCount"`
	LastRunAt *time.Time            `json:"lastRunAt,omitempty"`
	NextRunAt *time.Time            `json:"nextRunAt,omitempty"`
}

// Aggregate is the full snapshot backing both the JSON /metrics
// endpoint and the Prometheus exposition.
type Aggregate struct {
	TargetsTotal         int
	SchedulesByStatus    map[domain.ScheduleStatus]int
	RunsByStatus         map[domain.RunStatus]int
	RunsLastHourByStatus map[domain.RunStatus]int
	RunsLast24h          int
	SuccessRate24h       float64
	AverageLatencyMS24h  float64
	ErrorsByKind24h      map[domain.ErrorKind]int
	ScheduleBreakdown    []ScheduleBreakdown
}

func (u *MetricsUsecase) Aggregate(ctx context.Context) (*Aggregate, error) {
	now := time.Now().UTC()

	targetsTotal, err := u.targets.Count(ctx)
	if err != nil {
		return nil, err
	}

	schedulesByStatus, err := u.schedules.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	runsByStatus, err := u.runs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	runsLastHour, err := u.runs.CountByStatusSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return nil, err
	}

	runsLast24hByStatus, err := u.runs.CountByStatusSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	var runsLast24h int
	for _, n := range runsLast24hByStatus {
		runsLast24h += n
	}
	var successRate24h float64
	if runsLast24h > 0 {
		successRate24h = float64(runsLast24hByStatus[domain.RunSuccess]) / float64(runsLast24h) * 100
	}

	avgLatency, err := u.runs.AverageLatencyMSSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	errorsByKind, err := u.runs.CountErrorsByKindSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	active := domain.ScheduleActive
	paused := domain.SchedulePaused
	activeSchedules, err := u.schedules.List(ctx, repository.ListSchedulesInput{Status: &active})
	if err != nil {
		return nil, err
	}
	pausedSchedules, err := u.schedules.List(ctx, repository.ListSchedulesInput{Status: &paused})
	if err != nil {
		return nil, err
	}

	breakdown := make([]ScheduleBreakdown, 0, len(activeSchedules)+len(pausedSchedules))
	for _, s := range append(activeSchedules, pausedSchedules...) {
		breakdown = append(breakdown, ScheduleBreakdown{
			ID:        s.ID,
			Name:      s.Name,
			Status:    s.Status,
			RunCount:  s.RunCount,
			LastRunAt: s.LastRunAt,
			NextRunAt: s.NextRunAt,
		})
	}

	return &Aggregate{
		TargetsTotal:         targetsTotal,
		SchedulesByStatus:    schedulesByStatus,
		RunsByStatus:         runsByStatus,
		RunsLastHourByStatus: runsLastHour,
		RunsLast24h:          runsLast24h,
		SuccessRate24h:       successRate24h,
		AverageLatencyMS24h:  avgLatency,
		ErrorsByKind24h:      errorsByKind,
		ScheduleBreakdown:    breakdown,
	}, nil
}
