package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleRepository persists Schedule definitions and lifecycle state.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

const scheduleColumns = `
	id, name, target_id, kind, interval_seconds, cron_expr,
	duration_seconds, max_runs, status, started_at, expires_at,
	run_count, last_run_at, next_run_at, created_at, updated_at`

func (r *ScheduleRepository) Create(ctx context.Context, s *domain.Schedule) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (
			name, target_id, kind, interval_seconds, cron_expr,
			duration_seconds, max_runs, status, started_at, expires_at,
			run_count, last_run_at, next_run_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING `+scheduleColumns,
		s.Name, s.TargetID, s.Kind, s.IntervalSeconds, s.CronExpr,
		s.DurationSeconds, s.MaxRuns, s.Status, s.StartedAt, s.ExpiresAt,
		s.RunCount, s.LastRunAt, s.NextRunAt,
	)
	created, err := scanSchedule(row)
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

func (r *ScheduleRepository) List(ctx context.Context, in repository.ListSchedulesInput) ([]*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	var args []any
	if in.Status != nil {
		args = append(args, *in.Status)
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepository) ListActive(ctx context.Context) ([]*domain.Schedule, error) {
	active := domain.ScheduleActive
	return r.List(ctx, repository.ListSchedulesInput{Status: &active})
}

func (r *ScheduleRepository) Update(ctx context.Context, s *domain.Schedule) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE schedules
		SET name = $2, target_id = $3, kind = $4, interval_seconds = $5,
		    cron_expr = $6, duration_seconds = $7, max_runs = $8,
		    status = $9, expires_at = $10, next_run_at = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING `+scheduleColumns,
		s.ID, s.Name, s.TargetID, s.Kind, s.IntervalSeconds, s.CronExpr,
		s.DurationSeconds, s.MaxRuns, s.Status, s.ExpiresAt, s.NextRunAt,
	)
	updated, err := scanSchedule(row)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

func (r *ScheduleRepository) SetStatus(ctx context.Context, id string, status domain.ScheduleStatus, nextRunAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedules SET status = $2, next_run_at = $3, updated_at = NOW()
		WHERE id = $1`,
		id, status, nextRunAt,
	)
	if err != nil {
		return fmt.Errorf("set schedule status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) RecordFire(ctx context.Context, id string, runCount int, lastRunAt time.Time, nextRunAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedules
		SET run_count = $2, last_run_at = $3, next_run_at = $4, updated_at = NOW()
		WHERE id = $1`,
		id, runCount, lastRunAt, nextRunAt,
	)
	if err != nil {
		return fmt.Errorf("record fire: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE schedules
		SET status = 'EXPIRED', next_run_at = NULL, updated_at = NOW()
		WHERE status = 'ACTIVE' AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING id`, now)
	if err != nil {
		return nil, fmt.Errorf("expire due schedules: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) CountByStatus(ctx context.Context) (map[domain.ScheduleStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM schedules GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count schedules by status: %w", err)
	}
	defer rows.Close()

	out := map[domain.ScheduleStatus]int{}
	for rows.Next() {
		var status domain.ScheduleStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	err := row.Scan(
		&s.ID, &s.Name, &s.TargetID, &s.Kind, &s.IntervalSeconds, &s.CronExpr,
		&s.DurationSeconds, &s.MaxRuns, &s.Status, &s.StartedAt, &s.ExpiresAt,
		&s.RunCount, &s.LastRunAt, &s.NextRunAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return &s, nil
}
