package domain

import "time"

// HTTPMethod enumerates the methods a Target may be invoked with.
type HTTPMethod string

const (
	MethodGET    HTTPMethod = "GET"
	MethodPOST   HTTPMethod = "POST"
	MethodPUT    HTTPMethod = "PUT"
	MethodPATCH  HTTPMethod = "PATCH"
	MethodDELETE HTTPMethod = "DELETE"
	MethodHEAD   HTTPMethod = "HEAD"
)

// Target is a reusable HTTP endpoint definition that one or more
// Schedules fire requests against.
type Target struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	URL            string            `json:"url"`
	Method         HTTPMethod        `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           *string           `json:"body,omitempty"`
	TimeoutSeconds float64           `json:"timeoutSeconds"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}
