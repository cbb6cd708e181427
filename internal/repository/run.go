package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

// ListRunsInput filters and paginates the Run listing.
type ListRunsInput struct {
	ScheduleID *string
	Status     *domain.RunStatus
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Offset     int
}

// RunRepository persists Run rows.
type RunRepository interface {
	// Create inserts a PENDING run. Returns ErrDuplicateRun (via
	// errors.Is) if the idempotency key already exists.
	Create(ctx context.Context, r *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, in ListRunsInput) ([]*domain.Run, error)
	Count(ctx context.Context, in ListRunsInput) (int, error)

	// Update persists status/timing/final-error fields of a run in
	// progress or at completion.
	Update(ctx context.Context, r *domain.Run) error

	// FailOrphaned marks every PENDING/RUNNING run as FAILED with the
	// given message, used during crash recovery. Returns the count
	// affected.
	FailOrphaned(ctx context.Context, message string) (int, error)

	// CountByStatus returns total counts per RunStatus.
	CountByStatus(ctx context.Context) (map[domain.RunStatus]int, error)
	// CountByStatusSince returns counts per RunStatus for runs
	// scheduled at or after since.
	CountByStatusSince(ctx context.Context, since time.Time) (map[domain.RunStatus]int, error)
	// AverageLatencyMSSince returns the average Attempt latency for
	// runs completed at or after since.
	AverageLatencyMSSince(ctx context.Context, since time.Time) (float64, error)
	// CountErrorsByKindSince returns counts of final error kinds for
	// runs completed at or after since.
	CountErrorsByKindSince(ctx context.Context, since time.Time) (map[domain.ErrorKind]int, error)
}
