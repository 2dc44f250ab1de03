package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	reqhttp "github.com/randalmurphal/reqflow/http"
)

// Configuration errors.
var (
	ErrConfigURLRequired       = errors.New("jira url is required")
	ErrConfigAuthTypeInvalid   = errors.New("jira auth type must be sso, api_token, pat, basic, or oauth2")
	ErrConfigAPIVersionInvalid = errors.New("api_version must be auto, v2, or v3")
)

// Authentication errors.
var (
	// ErrAllAuthFailed is returned once every candidate authentication
	// method has either failed validation or been rejected.
	ErrAllAuthFailed = errors.New("All authentication methods failed")
)

// Issue errors.
var (
	ErrIssueNotFound        = errors.New("jira issue not found")
	ErrIssueKeyRequired     = errors.New("issue key is required")
	ErrIssueKeyInvalid      = errors.New("invalid issue key format")
	ErrTransitionNotFound   = errors.New("transition not found for issue")
	ErrTransitionIDRequired = errors.New("transition id is required")
)

// APIError represents an error response from the Jira API.
type APIError struct {
	StatusCode    int               `json:"-"`
	ErrorMessages []string          `json:"errorMessages,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	Endpoint      string            `json:"-"`
	RequestID     string            `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.ErrorMessages) > 0 {
		return fmt.Sprintf("jira api error (%d): %s", e.StatusCode, e.ErrorMessages[0])
	}
	if len(e.Errors) > 0 {
		for field, msg := range e.Errors {
			return fmt.Sprintf("jira api error (%d): %s: %s", e.StatusCode, field, msg)
		}
	}
	if e.RequestID != "" {
		return fmt.Sprintf("jira api error (%d) at %s [%s]", e.StatusCode, e.Endpoint, e.RequestID)
	}
	return fmt.Sprintf("jira api error (%d)", e.StatusCode)
}

// HTTPStatus returns the status code carried by the error. The retry
// executor uses this to decide whether the failure is transient.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Unwrap returns the underlying sentinel error based on status code.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return reqhttp.ErrBadRequest
	case http.StatusUnauthorized:
		return reqhttp.ErrUnauthorized
	case http.StatusForbidden:
		return reqhttp.ErrForbidden
	case http.StatusNotFound:
		return reqhttp.ErrNotFound
	case http.StatusTooManyRequests:
		return reqhttp.ErrRateLimited
	default:
		if e.StatusCode >= 500 {
			return reqhttp.ErrServerError
		}
		return nil
	}
}

// parseAPIError parses an error response from the Jira API. A 429 becomes
// a RateLimitError carrying the Retry-After wait so the retry executor can
// honor it.
func parseAPIError(resp *http.Response, endpoint string) error {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &reqhttp.RateLimitError{
			Service:    "jira",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}

	// Try to parse the Jira error response format.
	if json.Unmarshal(body, apiErr) != nil {
		apiErr.ErrorMessages = []string{http.StatusText(resp.StatusCode)}
	}
	if len(apiErr.ErrorMessages) == 0 && len(apiErr.Errors) == 0 {
		apiErr.ErrorMessages = []string{http.StatusText(resp.StatusCode)}
	}

	return apiErr
}

// parseRetryAfter reads a Retry-After header value: delay seconds or an
// HTTP date. Missing or malformed values yield zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

// IsNotFound reports whether the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, reqhttp.ErrNotFound) || errors.Is(err, ErrIssueNotFound)
}

// IsUnauthorized reports whether the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, reqhttp.ErrUnauthorized)
}

// IsForbidden reports whether the error indicates permission was denied.
func IsForbidden(err error) bool {
	return errors.Is(err, reqhttp.ErrForbidden)
}

// IsRateLimited reports whether the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, reqhttp.ErrRateLimited)
}
