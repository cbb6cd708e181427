// Package classifier maps transport-level failures and HTTP status
// codes onto the error taxonomy used to decide retry behavior and to
// label Attempts/Runs for observability.
package classifier

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
)

const (
	responseTruncateBytes = 100 * 1024
)

// ResponseTruncateBytes is the maximum number of response body bytes
// persisted per Attempt before truncation.
func ResponseTruncateBytes() int64 { return responseTruncateBytes }

// ClassifyError maps a transport-level error (from an HTTP round trip
// that never produced a usable response) to an ErrorKind and a short
// human-readable description.
func ClassifyError(err error) (domain.ErrorKind, string) {
	if err == nil {
		return domain.ErrorNone, ""
	}

	msg := strings.ToLower(err.Error())

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorTimeout, err.Error()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorTimeout, err.Error()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || strings.Contains(msg, "name or service not known") || strings.Contains(msg, "no such host") || strings.Contains(msg, "dns") {
		return domain.ErrorDNS, err.Error()
	}

	if strings.Contains(msg, "ssl") || strings.Contains(msg, "certificate") || strings.Contains(msg, "x509") {
		return domain.ErrorSSL, err.Error()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.ErrorConnection, err.Error()
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") {
		return domain.ErrorConnection, err.Error()
	}

	return domain.ErrorUnknown, err.Error()
}

// ClassifyStatus maps an HTTP response status code to an ErrorKind.
func ClassifyStatus(code int) domain.ErrorKind {
	switch {
	case code >= 200 && code < 400:
		return domain.ErrorNone
	case code >= 400 && code < 500:
		return domain.ErrorClient
	case code >= 500 && code < 600:
		return domain.ErrorServer
	default:
		return domain.ErrorUnknown
	}
}

// Retryable reports whether an Attempt classified with the given kind
// should be retried.
func Retryable(kind domain.ErrorKind) bool {
	switch kind {
	case domain.ErrorNone, domain.ErrorClient:
		return false
	default:
		return true
	}
}
