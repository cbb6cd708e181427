package postgres

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository persists per-Run HTTP attempts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) Create(ctx context.Context, a *domain.Attempt) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO attempts (
			run_id, attempt_number, request_url, request_method,
			request_headers, request_body, started_at, error_kind
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		a.RunID, a.AttemptNumber, a.RequestURL, a.RequestMethod,
		a.RequestHeaders, a.RequestBody, a.StartedAt, a.ErrorKind,
	)
	return row.Scan(&a.ID)
}

func (r *AttemptRepository) Complete(ctx context.Context, a *domain.Attempt) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE attempts
		SET completed_at = $2, latency_ms = $3, response_status_code = $4,
		    response_headers = $5, response_body = $6, response_size_bytes = $7,
		    error_kind = $8, error_text = $9
		WHERE id = $1`,
		a.ID, a.CompletedAt, a.LatencyMS, a.ResponseStatusCode,
		a.ResponseHeaders, a.ResponseBody, a.ResponseSizeBytes,
		a.ErrorKind, a.ErrorText,
	)
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ListByRunID(ctx context.Context, runID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, attempt_number, request_url, request_method,
		       request_headers, request_body, started_at, completed_at, latency_ms,
		       response_status_code, response_headers, response_body, response_size_bytes,
		       error_kind, error_text
		FROM attempts
		WHERE run_id = $1
		ORDER BY attempt_number ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		err := rows.Scan(
			&a.ID, &a.RunID, &a.AttemptNumber, &a.RequestURL, &a.RequestMethod,
			&a.RequestHeaders, &a.RequestBody, &a.StartedAt, &a.CompletedAt, &a.LatencyMS,
			&a.ResponseStatusCode, &a.ResponseHeaders, &a.ResponseBody, &a.ResponseSizeBytes,
			&a.ErrorKind, &a.ErrorText,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
