package repository

import (
	"context"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

// TargetRepository persists Target definitions.
type TargetRepository interface {
	Create(ctx context.Context, t *domain.Target) error
	GetByID(ctx context.Context, id string) (*domain.Target, error)
	List(ctx context.Context) ([]*domain.Target, error)
	Update(ctx context.Context, t *domain.Target) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
