package repository

import (
	"context"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

// AttemptRepository persists per-Run HTTP attempts.
type AttemptRepository interface {
	// Create inserts an open attempt record at the moment the request
	// is issued. The attempt's ID is assigned by the store and written
	// back into a.ID.
	Create(ctx context.Context, a *domain.Attempt) error

	// Complete closes an attempt record with its outcome.
	Complete(ctx context.Context, a *domain.Attempt) error

	// ListByRunID returns all attempts for a run, ordered by
	// attempt_number ascending.
	ListByRunID(ctx context.Context, runID string) ([]domain.Attempt, error)
}
