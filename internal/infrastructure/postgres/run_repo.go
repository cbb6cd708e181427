package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepository persists Run rows.
type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

const runColumns = `
	id, schedule_id, idempotency_key, status, scheduled_at, started_at,
	completed_at, attempt_count, final_status_code, final_error_kind, final_error_text`

func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO runs (
			schedule_id, idempotency_key, status, scheduled_at,
			attempt_count, final_error_kind
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+runColumns,
		run.ScheduleID, run.IdempotencyKey, run.Status, run.ScheduledAt,
		run.AttemptCount, run.FinalErrorKind,
	)
	created, err := scanRun(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateRun
		}
		return err
	}
	*run = *created
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	attempts, err := NewAttemptRepository(r.pool).ListByRunID(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Attempts = attempts
	return run, nil
}

func (r *RunRepository) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM runs WHERE idempotency_key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return exists, nil
}

func (r *RunRepository) buildFilter(in repository.ListRunsInput) ([]string, []any) {
	var where []string
	var args []any
	if in.ScheduleID != nil {
		args = append(args, *in.ScheduleID)
		where = append(where, fmt.Sprintf("schedule_id = $%d", len(args)))
	}
	if in.Status != nil {
		args = append(args, *in.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if in.StartTime != nil {
		args = append(args, *in.StartTime)
		where = append(where, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if in.EndTime != nil {
		args = append(args, *in.EndTime)
		where = append(where, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}
	return where, args
}

func (r *RunRepository) List(ctx context.Context, in repository.ListRunsInput) ([]*domain.Run, error) {
	where, args := r.buildFilter(in)

	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *RunRepository) Count(ctx context.Context, in repository.ListRunsInput) (int, error) {
	where, args := r.buildFilter(in)
	query := `SELECT count(*) FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

func (r *RunRepository) Update(ctx context.Context, run *domain.Run) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET status = $2, started_at = $3, completed_at = $4, attempt_count = $5,
		    final_status_code = $6, final_error_kind = $7, final_error_text = $8
		WHERE id = $1`,
		run.ID, run.Status, run.StartedAt, run.CompletedAt, run.AttemptCount,
		run.FinalStatusCode, run.FinalErrorKind, run.FinalErrorText,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *RunRepository) FailOrphaned(ctx context.Context, message string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET status = 'FAILED', completed_at = NOW(), final_error_kind = 'UNKNOWN', final_error_text = $1
		WHERE status IN ('PENDING', 'RUNNING')`, message)
	if err != nil {
		return 0, fmt.Errorf("fail orphaned runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *RunRepository) CountByStatus(ctx context.Context) (map[domain.RunStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count runs by status: %w", err)
	}
	defer rows.Close()

	out := map[domain.RunStatus]int{}
	for rows.Next() {
		var status domain.RunStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *RunRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[domain.RunStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*) FROM runs WHERE scheduled_at >= $1 GROUP BY status`, since)
	if err != nil {
		return nil, fmt.Errorf("count runs by status since: %w", err)
	}
	defer rows.Close()

	out := map[domain.RunStatus]int{}
	for rows.Next() {
		var status domain.RunStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *RunRepository) AverageLatencyMSSince(ctx context.Context, since time.Time) (float64, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx, `
		SELECT avg(a.latency_ms)
		FROM attempts a
		JOIN runs r ON r.id = a.run_id
		WHERE r.completed_at >= $1`, since).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average latency: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *RunRepository) CountErrorsByKindSince(ctx context.Context, since time.Time) (map[domain.ErrorKind]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT final_error_kind, count(*)
		FROM runs
		WHERE completed_at >= $1 AND final_error_kind != 'NONE'
		GROUP BY final_error_kind`, since)
	if err != nil {
		return nil, fmt.Errorf("count errors by kind: %w", err)
	}
	defer rows.Close()

	out := map[domain.ErrorKind]int{}
	for rows.Next() {
		var kind domain.ErrorKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	err := row.Scan(
		&run.ID, &run.ScheduleID, &run.IdempotencyKey, &run.Status, &run.ScheduledAt,
		&run.StartedAt, &run.CompletedAt, &run.AttemptCount,
		&run.FinalStatusCode, &run.FinalErrorKind, &run.FinalErrorText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &run, nil
}
