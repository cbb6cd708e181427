// Package executor performs HTTP attempts against Targets and drives
// the retry loop for a Run.
package executor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/classifier"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/metrics"
	"github.com/ErlanBelekov/http-run-scheduler/internal/repository"
	"github.com/ErlanBelekov/http-run-scheduler/internal/requestid"
)

const (
	truncateMarkerSuffix = "\n[...truncated...]"
	maxRedirects         = 10
)

// Executor owns the pooled HTTP client used for every Target request.
type Executor struct {
	client     *http.Client
	logger     *slog.Logger
	runs       repository.RunRepository
	attempts   repository.AttemptRepository
	maxRetries int
	baseDelay  time.Duration
}

// New builds an Executor. verifySSL disables TLS certificate
// verification when false (matching the spec's default-off posture).
func New(logger *slog.Logger, runs repository.RunRepository, attempts repository.AttemptRepository, maxRetries int, baseDelay time.Duration, verifySSL bool) *Executor {
	return &Executor{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: !verifySSL,
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		logger:     logger.With("component", "executor"),
		runs:       runs,
		attempts:   attempts,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Execute advances a PENDING Run through its retry loop to a terminal
// state, persisting each Attempt and the Run's progress along the way.
func (e *Executor) Execute(ctx context.Context, run *domain.Run, target *domain.Target) error {
	now := time.Now().UTC()
	run.Status = domain.RunRunning
	run.StartedAt = &now
	if err := e.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()
	execStart := time.Now()

	maxRetries := e.maxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var last domain.Attempt
	for attemptNum := 1; attemptNum <= maxRetries; attemptNum++ {
		attempt := e.buildAttempt(run, target, attemptNum)
		if err := e.attempts.Create(ctx, &attempt); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}

		e.perform(ctx, target, &attempt)

		if err := e.attempts.Complete(ctx, &attempt); err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}

		run.AttemptCount = attemptNum
		last = attempt

		if attempt.ErrorKind == domain.ErrorNone {
			run.Status = domain.RunSuccess
			break
		}
		if attempt.ErrorKind == domain.ErrorClient {
			run.Status = domain.RunFailed
			break
		}
		if attemptNum == maxRetries {
			if attempt.ErrorKind == domain.ErrorTimeout {
				run.Status = domain.RunTimeout
			} else {
				run.Status = domain.RunFailed
			}
			break
		}

		delay := classifier.Backoff(attemptNum, e.baseDelay)
		select {
		case <-ctx.Done():
			run.Status = domain.RunFailed
			last.ErrorKind = domain.ErrorUnknown
			last.ErrorText = strPtr(ctx.Err().Error())
		case <-time.After(delay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	run.FinalStatusCode = last.ResponseStatusCode
	run.FinalErrorKind = last.ErrorKind
	run.FinalErrorText = last.ErrorText
	completed := time.Now().UTC()
	run.CompletedAt = &completed

	metrics.RunExecutionDuration.WithLabelValues(string(run.Status)).Observe(time.Since(execStart).Seconds())
	metrics.RunsCompletedTotal.WithLabelValues(string(run.Status)).Inc()

	return e.runs.Update(ctx, run)
}

func (e *Executor) buildAttempt(run *domain.Run, target *domain.Target, attemptNum int) domain.Attempt {
	return domain.Attempt{
		RunID:          run.ID,
		AttemptNumber:  attemptNum,
		RequestURL:     target.URL,
		RequestMethod:  string(target.Method),
		RequestHeaders: target.Headers,
		RequestBody:    prepareBody(target.Body),
		StartedAt:      time.Now().UTC(),
		ErrorKind:      domain.ErrorNone,
	}
}

// prepareBody substitutes {{timestamp}} with the current UTC instant
// in RFC3339 form. This is the only templating feature supported.
func prepareBody(body *string) *string {
	if body == nil {
		return nil
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	rendered := strings.ReplaceAll(*body, "{{timestamp}}", ts)
	return &rendered
}

func (e *Executor) perform(ctx context.Context, target *domain.Target, attempt *domain.Attempt) {
	timeout := time.Duration(target.TimeoutSeconds * float64(time.Second))
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if attempt.RequestBody != nil {
		bodyReader = strings.NewReader(*attempt.RequestBody)
	}

	req, err := http.NewRequestWithContext(reqCtx, attempt.RequestMethod, attempt.RequestURL, bodyReader)
	if err != nil {
		e.finishWithError(attempt, err)
		return
	}
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	reqID := requestid.New()
	req.Header.Set("X-Request-ID", reqID)
	reqCtx = requestid.WithRequestID(reqCtx, reqID)

	e.logger.InfoContext(reqCtx, "sending request",
		"run_id", attempt.RunID, "attempt", attempt.AttemptNumber,
		"method", attempt.RequestMethod, "url", attempt.RequestURL,
	)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.WarnContext(reqCtx, "request failed", "run_id", attempt.RunID, "error", err)
		e.finishWithError(attempt, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	completed := time.Now().UTC()
	latency := completed.Sub(attempt.StartedAt).Milliseconds()
	attempt.CompletedAt = &completed
	attempt.LatencyMS = &latency

	statusCode := resp.StatusCode
	attempt.ResponseStatusCode = &statusCode
	attempt.ResponseHeaders = flattenHeader(resp.Header)
	attempt.ErrorKind = classifier.ClassifyStatus(statusCode)

	body, size := readResponseBody(resp)
	attempt.ResponseBody = &body
	attempt.ResponseSizeBytes = &size

	e.logger.InfoContext(reqCtx, "received response",
		"run_id", attempt.RunID, "status", statusCode, "latency_ms", latency,
	)
}

func (e *Executor) finishWithError(attempt *domain.Attempt, err error) {
	completed := time.Now().UTC()
	latency := completed.Sub(attempt.StartedAt).Milliseconds()
	attempt.CompletedAt = &completed
	attempt.LatencyMS = &latency
	kind, text := classifier.ClassifyError(err)
	attempt.ErrorKind = kind
	attempt.ErrorText = &text
}

// readResponseBody reads and truncates a response body per the
// 100 KiB cap: if Content-Length alone exceeds the cap the body is
// never read; otherwise it is read up to the cap plus one byte to
// detect overflow when Content-Length is absent or understated.
func readResponseBody(resp *http.Response) (string, int64) {
	limit := classifier.ResponseTruncateBytes()

	if resp.ContentLength > limit {
		return fmt.Sprintf("[Response truncated - size %d bytes exceeds limit]", resp.ContentLength), resp.ContentLength
	}

	limited := io.LimitReader(resp.Body, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return "", 0
	}
	if int64(len(data)) > limit {
		return string(data[:limit]) + truncateMarkerSuffix, int64(len(data))
	}
	return string(data), int64(len(data))
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func strPtr(s string) *string { return &s }
