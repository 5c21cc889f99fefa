// Package cache provides a Redis-backed response cache with ETag support for
// conditional GitHub API requests. Revalidated 304 responses do not consume
// rate-limit quota.
package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is how long an entry may be served before revalidation.
// GitHub sends no Expires header, so freshness is a local policy.
const DefaultTTL = 60 * time.Second

// Entry represents a cached API response.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match).
	ETag string `json:"etag"`

	// StatusCode is the HTTP status code of the cached response.
	StatusCode int `json:"status_code"`

	// Headers are the response headers.
	Headers http.Header `json:"headers"`

	// CachedAt is when we cached this response.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an Entry from a response body and headers.
func NewEntry(body []byte, headers http.Header, statusCode int) *Entry {
	return &Entry{
		Data:       body,
		ETag:       headers.Get("ETag"),
		StatusCode: statusCode,
		Headers:    headers.Clone(),
		CachedAt:   time.Now(),
	}
}

// Age returns how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
