package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TargetRepository persists Target definitions.
type TargetRepository struct {
	pool *pgxpool.Pool
}

func NewTargetRepository(pool *pgxpool.Pool) *TargetRepository {
	return &TargetRepository{pool: pool}
}

func (r *TargetRepository) Create(ctx context.Context, t *domain.Target) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO targets (name, url, method, headers, body, timeout_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, url, method, headers, body, timeout_seconds, created_at, updated_at`,
		t.Name, t.URL, t.Method, t.Headers, t.Body, t.TimeoutSeconds,
	)
	created, err := scanTarget(row)
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

func (r *TargetRepository) GetByID(ctx context.Context, id string) (*domain.Target, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, url, method, headers, body, timeout_seconds, created_at, updated_at
		FROM targets WHERE id = $1`, id)
	return scanTarget(row)
}

func (r *TargetRepository) List(ctx context.Context) ([]*domain.Target, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, url, method, headers, body, timeout_seconds, created_at, updated_at
		FROM targets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []*domain.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (r *TargetRepository) Update(ctx context.Context, t *domain.Target) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE targets
		SET name = $2, url = $3, method = $4, headers = $5, body = $6,
		    timeout_seconds = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, url, method, headers, body, timeout_seconds, created_at, updated_at`,
		t.ID, t.Name, t.URL, t.Method, t.Headers, t.Body, t.TimeoutSeconds,
	)
	updated, err := scanTarget(row)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

func (r *TargetRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTargetNotFound
	}
	return nil
}

func (r *TargetRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM targets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count targets: %w", err)
	}
	return n, nil
}

func scanTarget(row rowScanner) (*domain.Target, error) {
	var t domain.Target
	err := row.Scan(
		&t.ID, &t.Name, &t.URL, &t.Method, &t.Headers, &t.Body,
		&t.TimeoutSeconds, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTargetNotFound
		}
		return nil, fmt.Errorf("scan target: %w", err)
	}
	return &t, nil
}
