package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/classifier"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		code int
		want domain.ErrorKind
	}{
		{200, domain.ErrorNone},
		{204, domain.ErrorNone},
		{301, domain.ErrorNone},
		{399, domain.ErrorNone},
		{400, domain.ErrorClient},
		{404, domain.ErrorClient},
		{499, domain.ErrorClient},
		{500, domain.ErrorServer},
		{503, domain.ErrorServer},
		{599, domain.ErrorServer},
		{100, domain.ErrorUnknown},
		{700, domain.ErrorUnknown},
	}
	for _, c := range cases {
		if got := classifier.ClassifyStatus(c.code); got != c.want {
			t.Errorf("ClassifyStatus(%d) = %s, want %s", c.code, got, c.want)
		}
	}
}

func TestClassifyError_Timeout(t *testing.T) {
	kind, _ := classifier.ClassifyError(context.DeadlineExceeded)
	if kind != domain.ErrorTimeout {
		t.Fatalf("got %s, want TIMEOUT", kind)
	}
}

func TestClassifyError_DNS(t *testing.T) {
	kind, _ := classifier.ClassifyError(errors.New("dial tcp: lookup foo: no such host"))
	if kind != domain.ErrorDNS {
		t.Fatalf("got %s, want DNS", kind)
	}
}

func TestClassifyError_SSL(t *testing.T) {
	kind, _ := classifier.ClassifyError(errors.New("x509: certificate signed by unknown authority"))
	if kind != domain.ErrorSSL {
		t.Fatalf("got %s, want SSL", kind)
	}
}

func TestClassifyError_Unknown(t *testing.T) {
	kind, _ := classifier.ClassifyError(errors.New("something weird happened"))
	if kind != domain.ErrorUnknown {
		t.Fatalf("got %s, want UNKNOWN", kind)
	}
}

func TestRetryable(t *testing.T) {
	retryable := []domain.ErrorKind{
		domain.ErrorTimeout, domain.ErrorDNS, domain.ErrorConnection,
		domain.ErrorSSL, domain.ErrorServer, domain.ErrorUnknown,
	}
	for _, k := range retryable {
		if !classifier.Retryable(k) {
			t.Errorf("expected %s to be retryable", k)
		}
	}
	nonRetryable := []domain.ErrorKind{domain.ErrorNone, domain.ErrorClient}
	for _, k := range nonRetryable {
		if classifier.Retryable(k) {
			t.Errorf("expected %s to be non-retryable", k)
		}
	}
}

func TestBackoff_ExactFormula(t *testing.T) {
	base := time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // 32s capped at 30s
		{7, 30 * time.Second},
	}
	for _, c := range cases {
		got := classifier.Backoff(c.attempt, base)
		if got != c.want {
			t.Errorf("Backoff(%d, 1s) = %s, want %s", c.attempt, got, c.want)
		}
	}
}
