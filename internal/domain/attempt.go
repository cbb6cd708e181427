package domain

import "time"

// Attempt is one HTTP request issued while executing a Run.
type Attempt struct {
	ID            string            `json:"id"`
	RunID         string            `json:"runId"`
	AttemptNumber int               `json:"attemptNumber"`

	RequestURL     string            `json:"requestUrl"`
	RequestMethod  string            `json:"requestMethod"`
	RequestHeaders map[string]string `json:"requestHeaders"`
	RequestBody    *string           `json:"requestBody,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	LatencyMS   *int64     `json:"latencyMs,omitempty"`

	ResponseStatusCode *int              `json:"responseStatusCode,omitempty"`
	ResponseHeaders    map[string]string `json:"responseHeaders,omitempty"`
	ResponseBody       *string           `json:"responseBody,omitempty"`
	ResponseSizeBytes  *int64            `json:"responseSizeBytes,omitempty"`

	ErrorKind ErrorKind `json:"errorKind"`
	ErrorText *string   `json:"errorText,omitempty"`
}
