package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	ghasRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghas_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"kind"})

	ghasRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghas_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	ghasRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghas_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error kind",
	}, []string{"kind"})
)

// maxRateLimitWait bounds the in-call cooldown for a rate-limited response.
// A reset further out is surfaced to the caller instead of slept through.
const maxRateLimitWait = 15 * time.Second

// backoffDuration computes the delay before retry number attempt (0-based):
// base * 2^attempt, capped at max. Deterministic so the retry schedule is
// independently testable.
func backoffDuration(attempt int, base, max time.Duration) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	d := base << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d
}

// retryState tracks one logical call's retry budget. attempt counts tries
// already performed; it never exceeds maxAttempts.
type retryState struct {
	attempt     int
	maxAttempts int
	lastErr     error
}

// exhausted reports whether the retry budget is spent.
func (s *retryState) exhausted() bool {
	return s.attempt >= s.maxAttempts
}

// record consumes one attempt slot and remembers the failure.
func (s *retryState) record(err error) {
	s.attempt++
	s.lastErr = err
}

// sleep suspends the calling goroutine for d, honoring context cancellation.
// Only this call waits; the process keeps serving other requests.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := c.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// rateLimitWait computes the cooldown until a rate-limit window resets.
// GitHub resets are absolute unix epochs; one extra second absorbs clock skew.
func rateLimitWait(resetEpoch int64, now time.Time) time.Duration {
	wait := time.Duration(resetEpoch-now.Unix()) * time.Second
	if wait < 0 {
		wait = 0
	}
	return wait + time.Second
}
