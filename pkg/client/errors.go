package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during a
	// backoff or rate-limit wait.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorKind classifies an API failure.
type ErrorKind string

const (
	// KindUnauthorized represents a 401 response (invalid or missing credential).
	KindUnauthorized ErrorKind = "unauthorized"

	// KindNotFound represents a 404 response.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited represents a 429, or a 403 with exhausted quota.
	KindRateLimited ErrorKind = "rate_limited"

	// KindTransientExhausted represents repeated network/5xx failures beyond
	// the retry budget.
	KindTransientExhausted ErrorKind = "transient_exhausted"

	// KindAPI represents any other non-2xx response.
	KindAPI ErrorKind = "api"
)

// APIError is a classified GitHub API failure. The request id and response
// body are preserved verbatim so failures can be matched against GitHub's
// server-side logs.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       json.RawMessage
	RequestID  string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("github %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf(" [request id %s]", e.RequestID)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimitError is an APIError carrying the epoch at which the rate-limit
// window resets, so callers can decide to wait or abort.
type RateLimitError struct {
	APIError
	ResetEpoch int64
}

// Unwrap exposes the embedded APIError so errors.As can classify the failure.
func (e *RateLimitError) Unwrap() error {
	return &e.APIError
}

// kindOf extracts the ErrorKind of err, or "" if err is not an APIError.
func kindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 failure.
func IsUnauthorized(err error) bool { return kindOf(err) == KindUnauthorized }

// IsNotFound reports whether err is a 404 failure.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool { return kindOf(err) == KindRateLimited }

// IsTransientExhausted reports whether err exhausted the retry budget.
func IsTransientExhausted(err error) bool { return kindOf(err) == KindTransientExhausted }
