package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
)

// minTimeoutSeconds is the spec-fixed floor; the ceiling is operator
// configurable via MAX_TIMEOUT_SECONDS.
const minTimeoutSeconds float64 = 1

// TargetUsecase validates and orchestrates Target CRUD on behalf of
// the control API.
type TargetUsecase struct {
	repo                  repository.TargetRepository
	defaultTimeoutSeconds float64
	maxTimeoutSeconds     float64
}

func NewTargetUsecase(repo repository.TargetRepository, defaultTimeoutSeconds, maxTimeoutSeconds float64) *TargetUsecase {
	return &TargetUsecase{repo: repo, defaultTimeoutSeconds: defaultTimeoutSeconds, maxTimeoutSeconds: maxTimeoutSeconds}
}

func validTargetURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (u *TargetUsecase) validTimeout(seconds float64) bool {
	return seconds >= minTimeoutSeconds && seconds <= u.maxTimeoutSeconds
}

type CreateTargetInput struct {
	Name           string
	URL            string
	Method         domain.HTTPMethod
	Headers        map[string]string
	Body           *string
	TimeoutSeconds float64
}

func (u *TargetUsecase) CreateTarget(ctx context.Context, in CreateTargetInput) (*domain.Target, error) {
	if !validTargetURL(in.URL) {
		return nil, domain.ErrInvalidTargetURL
	}
	if in.Headers == nil {
		in.Headers = map[string]string{}
	}
	if in.TimeoutSeconds == 0 {
		in.TimeoutSeconds = u.defaultTimeoutSeconds
	}
	if !u.validTimeout(in.TimeoutSeconds) {
		return nil, fmt.Errorf("%w: must be between %g and %g", domain.ErrInvalidTimeout, minTimeoutSeconds, u.maxTimeoutSeconds)
	}

	t := &domain.Target{
		Name:           in.Name,
		URL:            in.URL,
		Method:         in.Method,
		Headers:        in.Headers,
		Body:           in.Body,
		TimeoutSeconds: in.TimeoutSeconds,
	}
	if err := u.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return t, nil
}

func (u *TargetUsecase) GetTarget(ctx context.Context, id string) (*domain.Target, error) {
	return u.repo.GetByID(ctx, id)
}

func (u *TargetUsecase) ListTargets(ctx context.Context) ([]*domain.Target, error) {
	return u.repo.List(ctx)
}

type UpdateTargetInput struct {
	Name           *string
	URL            *string
	Method         *domain.HTTPMethod
	Headers        map[string]string
	Body           *string
	TimeoutSeconds *float64
}

func (u *TargetUsecase) UpdateTarget(ctx context.Context, id string, in UpdateTargetInput) (*domain.Target, error) {
	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.URL != nil {
		if !validTargetURL(*in.URL) {
			return nil, domain.ErrInvalidTargetURL
		}
		t.URL = *in.URL
	}
	if in.TimeoutSeconds != nil {
		if !u.validTimeout(*in.TimeoutSeconds) {
			return nil, fmt.Errorf("%w: must be between %g and %g", domain.ErrInvalidTimeout, minTimeoutSeconds, u.maxTimeoutSeconds)
		}
		t.TimeoutSeconds = *in.TimeoutSeconds
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Method != nil {
		t.Method = *in.Method
	}
	if in.Headers != nil {
		t.Headers = in.Headers
	}
	if in.Body != nil {
		t.Body = in.Body
	}
	if err := u.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update target: %w", err)
	}
	return t, nil
}

func (u *TargetUsecase) DeleteTarget(ctx context.Context, id string) error {
	return u.repo.Delete(ctx, id)
}
