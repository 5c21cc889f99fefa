// Package client provides the resilient GitHub REST transport with retry,
// rate-limit handling, typed error classification, and Link-header pagination.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/auth"
	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/cache"
	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/ratelimit"
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for request execution.
var (
	ghasRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghas_requests_total",
		Help: "Total GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	ghasRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghas_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	ghasErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghas_errors_total",
		Help: "Total GitHub API errors by kind",
	}, []string{"kind"})
)

// Config holds the client configuration. It is read once at construction and
// never mutated afterwards, so one client may be shared across goroutines
// without locking.
type Config struct {
	// Token supplies the bearer credential for each request.
	Token auth.TokenProvider

	// BaseURL is the API endpoint (default https://api.github.com).
	BaseURL string

	// APIVersion is sent as X-GitHub-Api-Version.
	APIVersion string

	// UserAgent identifies this client to GitHub.
	UserAgent string

	// MaxRetries is the total attempt budget per call (initial try included).
	MaxRetries int

	// BaseBackoff is the delay before the first retry; subsequent retries
	// double it up to MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// Timeout bounds each individual attempt, not the whole retry sequence.
	Timeout time.Duration

	// Limiter optionally paces outgoing attempts to stay clear of GitHub's
	// secondary rate limits.
	Limiter *rate.Limiter

	// Cache optionally enables ETag conditional requests for GETs.
	Cache *cache.Manager

	// RateLimits optionally shares primary rate-limit state across processes.
	RateLimits *ratelimit.Tracker

	// HTTPClient overrides the underlying HTTP client (for testing).
	HTTPClient *http.Client

	// Clock overrides the time source (for testing).
	Clock clock.Clock
}

// DefaultConfig returns a configuration matching GitHub's documented limits.
func DefaultConfig(token auth.TokenProvider) Config {
	return Config{
		Token:       token,
		BaseURL:     "https://api.github.com",
		APIVersion:  "2022-11-28",
		UserAgent:   "ghas-code-scanning-toolkit/1.0",
		MaxRetries:  4,
		BaseBackoff: 800 * time.Millisecond,
		MaxBackoff:  10 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// Client executes GitHub API requests with retry, rate-limit cooldown, and
// typed error classification.
type Client struct {
	httpClient *http.Client
	config     Config
	clock      clock.Clock
	logger     zerolog.Logger
}

// New creates a new GitHub API client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2022-11-28"
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 800 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	logger := log.With().Str("component", "ghas-client").Logger()

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		clock:      clk,
		logger:     logger,
	}, nil
}

// Do executes one API request, retrying transient failures with exponential
// backoff and waiting out short rate-limit windows. The caller is responsible
// for only passing operations that are safe to repeat; the transport retries
// without inspecting verb semantics.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := metricEndpoint(req.Path)

	startTime := time.Now()
	defer func() {
		ghasRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Cache lookup happens once; the entry drives conditional headers on
	// every attempt of this call.
	var cached *cache.Entry
	var cacheKey cache.Key
	if c.config.Cache != nil && req.Method == http.MethodGet {
		cacheKey = cache.Key{Method: req.Method, Path: req.Path, Query: req.Query}
		entry, err := c.config.Cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cached = entry
	}

	state := retryState{maxAttempts: c.config.MaxRetries}

	for {
		// Gate on shared rate-limit state before spending quota.
		if c.config.RateLimits != nil {
			allowed, resetAt, err := c.config.RateLimits.ShouldAllowRequest(ctx)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Rate limit state check failed")
			} else if !allowed {
				ghasErrorsTotal.WithLabelValues(string(KindRateLimited)).Inc()
				return nil, &RateLimitError{
					APIError: APIError{
						Kind:    KindRateLimited,
						Message: "blocked by shared rate-limit state",
					},
					ResetEpoch: resetAt.Unix(),
				}
			}
		}

		if c.config.Limiter != nil {
			if err := c.config.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		resp, err := c.attempt(ctx, req, cached)
		if err != nil {
			// Network-level failure: transient.
			state.record(err)
			ghasErrorsTotal.WithLabelValues("network").Inc()
			ghasRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()

			if state.exhausted() {
				ghasRetryExhaustedTotal.WithLabelValues("network").Inc()
				return nil, &APIError{
					Kind:    KindTransientExhausted,
					Message: "request failed",
					Err:     fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, state.attempt, err),
				}
			}
			if err := c.backoff(ctx, &state, "network"); err != nil {
				return nil, err
			}
			continue
		}

		if c.config.RateLimits != nil {
			if err := c.config.RateLimits.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit state from headers")
			}
		}

		status := resp.StatusCode
		requestID := resp.RequestID()

		switch {
		case status >= 200 && status < 300:
			ghasRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
			if state.attempt > 0 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", state.attempt+1).
					Msg("Request succeeded after retry")
			}
			if c.config.Cache != nil && req.Method == http.MethodGet && status == http.StatusOK {
				c.storeInCache(ctx, cacheKey, resp)
			}
			return resp, nil

		case status == http.StatusNotModified && cached != nil:
			ghasRequestsTotal.WithLabelValues(endpoint, "304").Inc()
			cache.NotModifiedResponses.Inc()
			if err := c.config.Cache.Refresh(ctx, cacheKey); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to refresh cache TTL")
			}
			return cachedResponse(cached), nil

		case status == http.StatusTooManyRequests,
			status == http.StatusForbidden && isRateLimitedResponse(resp):
			ghasErrorsTotal.WithLabelValues(string(KindRateLimited)).Inc()
			ghasRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()

			reset, hasReset := resp.RateLimitReset()
			rlErr := &RateLimitError{
				APIError: APIError{
					Kind:       KindRateLimited,
					StatusCode: status,
					Message:    fmt.Sprintf("rate limit exceeded (%d)", status),
					Body:       resp.Body,
					RequestID:  requestID,
				},
				ResetEpoch: reset,
			}

			if !hasReset {
				return nil, rlErr
			}
			wait := time.Duration(reset-c.clock.Now().Unix()) * time.Second
			if wait > maxRateLimitWait {
				c.logger.Warn().
					Str("endpoint", endpoint).
					Int64("reset_epoch", reset).
					Dur("wait", wait).
					Str("request_id", requestID).
					Msg("Rate limit reset too far out, surfacing")
				return nil, rlErr
			}

			state.record(rlErr)
			if state.exhausted() {
				ghasRetryExhaustedTotal.WithLabelValues(string(KindRateLimited)).Inc()
				return nil, rlErr
			}
			ghasRetriesTotal.WithLabelValues(string(KindRateLimited)).Inc()
			cooldown := rateLimitWait(reset, c.clock.Now())
			ghasRetryBackoffSeconds.WithLabelValues(string(KindRateLimited)).Observe(cooldown.Seconds())
			c.logger.Warn().
				Str("endpoint", endpoint).
				Dur("cooldown", cooldown).
				Int("attempt", state.attempt).
				Msg("Rate limited, waiting for window reset")
			if err := c.sleep(ctx, cooldown); err != nil {
				return nil, err
			}
			continue

		case status == http.StatusUnauthorized:
			ghasErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
			ghasRequestsTotal.WithLabelValues(endpoint, "401").Inc()
			return nil, &APIError{
				Kind:       KindUnauthorized,
				StatusCode: status,
				Message:    messageFromBody(resp.Body, "Unauthorized"),
				Body:       resp.Body,
				RequestID:  requestID,
			}

		case status == http.StatusNotFound:
			ghasErrorsTotal.WithLabelValues(string(KindNotFound)).Inc()
			ghasRequestsTotal.WithLabelValues(endpoint, "404").Inc()
			return nil, &APIError{
				Kind:       KindNotFound,
				StatusCode: status,
				Message:    messageFromBody(resp.Body, "Not Found"),
				Body:       resp.Body,
				RequestID:  requestID,
			}

		case status >= 500:
			ghasErrorsTotal.WithLabelValues("server").Inc()
			ghasRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()

			srvErr := &APIError{
				Kind:       KindAPI,
				StatusCode: status,
				Message:    messageFromBody(resp.Body, "server error"),
				Body:       resp.Body,
				RequestID:  requestID,
			}
			state.record(srvErr)
			if state.exhausted() {
				ghasRetryExhaustedTotal.WithLabelValues("server").Inc()
				return nil, &APIError{
					Kind:       KindTransientExhausted,
					StatusCode: status,
					Message:    fmt.Sprintf("server error persisted across %d attempts", state.attempt),
					Body:       resp.Body,
					RequestID:  requestID,
					Err:        fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, state.attempt, srvErr),
				}
			}
			if err := c.backoff(ctx, &state, "server"); err != nil {
				return nil, err
			}
			continue

		default:
			// Remaining 4xx: not retried.
			ghasErrorsTotal.WithLabelValues(string(KindAPI)).Inc()
			ghasRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
			return nil, &APIError{
				Kind:       KindAPI,
				StatusCode: status,
				Message:    messageFromBody(resp.Body, "request failed"),
				Body:       resp.Body,
				RequestID:  requestID,
			}
		}
	}
}

// attempt performs a single HTTP exchange and reads the full response body.
func (c *Client) attempt(ctx context.Context, req Request, cached *cache.Entry) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, buildURL(c.config.BaseURL, req), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	token, err := c.config.Token.Token(attemptCtx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-GitHub-Api-Version", c.config.APIVersion)
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if cached != nil && cached.ETag != "" {
		httpReq.Header.Set("If-None-Match", cached.ETag)
		cache.ConditionalRequestsSent.Inc()
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Header:     httpResp.Header.Clone(),
	}, nil
}

// backoff sleeps before the next attempt using the deterministic exponential
// schedule. state.attempt has already been incremented for the failed try.
func (c *Client) backoff(ctx context.Context, state *retryState, kind string) error {
	delay := backoffDuration(state.attempt-1, c.config.BaseBackoff, c.config.MaxBackoff)
	ghasRetriesTotal.WithLabelValues(kind).Inc()
	ghasRetryBackoffSeconds.WithLabelValues(kind).Observe(delay.Seconds())
	c.logger.Debug().
		Str("kind", kind).
		Int("attempt", state.attempt).
		Dur("backoff", delay).
		Msg("Retrying request after backoff")
	return c.sleep(ctx, delay)
}

// storeInCache persists a successful GET response for later revalidation.
func (c *Client) storeInCache(ctx context.Context, key cache.Key, resp *Response) {
	entry := cache.NewEntry(resp.Body, resp.Header, resp.StatusCode)
	if entry.ETag == "" {
		return
	}
	if err := c.config.Cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
	}
}

// cachedResponse rebuilds a response envelope from a cache entry.
func cachedResponse(entry *cache.Entry) *Response {
	return &Response{
		StatusCode: entry.StatusCode,
		Body:       entry.Data,
		Header:     entry.Headers.Clone(),
	}
}

// isRateLimitedResponse reports whether a 403 carries rate-limit semantics:
// zero remaining quota, or a rate-limit message in the body.
func isRateLimitedResponse(resp *Response) bool {
	if remaining, ok := resp.RateLimitRemaining(); ok && remaining == 0 {
		return true
	}
	return strings.Contains(strings.ToLower(messageFromBody(resp.Body, "")), "rate limit")
}

// messageFromBody extracts the "message" field GitHub puts in error payloads,
// falling back to a truncated body and then to fallback.
func messageFromBody(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text != "" && text != "null" {
		return text
	}
	return fallback
}

// metricEndpoint normalizes a path for metric labels, stripping scheme and
// host from absolute pagination URLs.
func metricEndpoint(path string) string {
	if !isAbsoluteURL(path) {
		return path
	}
	if idx := strings.Index(path, "://"); idx >= 0 {
		rest := path[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			p := rest[slash:]
			if q := strings.Index(p, "?"); q >= 0 {
				p = p[:q]
			}
			return p
		}
	}
	return path
}
