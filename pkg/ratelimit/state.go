// Package ratelimit tracks GitHub's primary rate-limit window and gates
// requests before quota runs out. It monitors the X-RateLimit-Remaining and
// X-RateLimit-Reset headers; state is shared across processes via Redis so a
// fleet of workers draws down one budget coherently.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining  = "ghas:rate_limit:remaining"
	RedisKeyReset      = "ghas:rate_limit:reset"
	RedisKeyLastUpdate = "ghas:rate_limit:last_update"
)

// Thresholds for rate limit decisions, in requests remaining. GitHub's core
// limit is 5000 per hour for authenticated users.
const (
	// ThresholdCritical blocks all requests when remaining quota falls below
	// this value, keeping headroom for interactive callers.
	ThresholdCritical = 10

	// ThresholdWarning applies throttling when remaining quota falls below
	// this value.
	ThresholdWarning = 100

	// ThresholdHealthy indicates normal operation.
	ThresholdHealthy = 500
)

// State represents the current primary rate-limit window.
type State struct {
	// Remaining is the request quota left in the current window, from the
	// X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets, from the X-RateLimit-Reset header
	// (an absolute unix epoch).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field from the current Remaining value.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
