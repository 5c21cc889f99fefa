package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/auth"
)

// newTestClient creates a client pointed at a test server with fast backoff.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig(auth.StaticToken("test-token"))
	cfg.BaseURL = baseURL
	cfg.MaxRetries = 4
	cfg.BaseBackoff = 1 * time.Millisecond
	cfg.MaxBackoff = 10 * time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func writeHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Github-Request-Id", "ABCD:1234:TEST")
	w.Header().Set("X-RateLimit-Remaining", "4999")
	w.Header().Set("X-RateLimit-Reset", "4102444800")
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeHeaders(w)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	start := time.Now()
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/rate_limit"})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if got := resp.RequestID(); got != "ABCD:1234:TEST" {
		t.Errorf("RequestID() = %q, want ABCD:1234:TEST", got)
	}
	// No backoff sleeps on the happy path.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("first-attempt success took %v, expected no backoff", elapsed)
	}
}

func TestDo_SendsFixedHeaders(t *testing.T) {
	var header http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		writeHeaders(w)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"Accept", "application/vnd.github+json"},
		{"Authorization", "Bearer test-token"},
		{"X-GitHub-Api-Version", "2022-11-28"},
		{"User-Agent", "ghas-code-scanning-toolkit/1.0"},
	}
	for _, tt := range tests {
		if got := header.Get(tt.name); got != tt.want {
			t.Errorf("header %s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDo_RetriesServerErrorsThenSucceeds(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeHeaders(w)
		if requests < 3 {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message":"bad gateway"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

func TestDo_TransientExhausted(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeHeaders(w)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"message":"unavailable"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsTransientExhausted(err) {
		t.Errorf("IsTransientExhausted = false for %v", err)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("errors.Is(err, ErrRetryExhausted) = false for %v", err)
	}
	// Exactly the configured attempt budget, not one more.
	if requests != 4 {
		t.Errorf("requests = %d, want 4", requests)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
	if apiErr.RequestID != "ABCD:1234:TEST" {
		t.Errorf("RequestID = %q, want ABCD:1234:TEST", apiErr.RequestID)
	}
}

func TestDo_NetworkErrorExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsTransientExhausted(err) {
		t.Errorf("IsTransientExhausted = false for %v", err)
	}
}

func TestDo_UnauthorizedNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeHeaders(w)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	start := time.Now()
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized = false for %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("401 took %v, expected no backoff sleep", elapsed)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.Message != "Bad credentials" {
		t.Errorf("Message = %q, want Bad credentials", apiErr.Message)
	}
}

func TestDo_NotFoundNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeHeaders(w)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/missing"})
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound = false for %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}

func TestDo_GenericAPIErrorNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeHeaders(w)
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Validation Failed"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodPatch, Path: "/x", Body: map[string]any{"state": "open"}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.Kind != KindAPI {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindAPI)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Message != "Validation Failed" {
		t.Errorf("Message = %q, want Validation Failed", apiErr.Message)
	}
	if apiErr.RequestID != "ABCD:1234:TEST" {
		t.Errorf("RequestID = %q, want ABCD:1234:TEST", apiErr.RequestID)
	}
}

func TestDo_RateLimitNearResetRetries(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("X-Github-Request-Id", "RL:1")
		if requests == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Unix()))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
			return
		}
		writeHeaders(w)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	start := time.Now()
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (exactly one retry)", requests)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	// The cooldown sleeps until the reset plus one second of skew slack.
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("elapsed = %v, expected ~1s rate-limit cooldown", elapsed)
	}
}

func TestDo_RateLimitFarResetFailsImmediately(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("X-Github-Request-Id", "RL:2")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset))
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if !IsRateLimited(err) {
		t.Fatalf("IsRateLimited = false for %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}

	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("error is not *RateLimitError: %v", err)
	}
	if rlErr.ResetEpoch != reset {
		t.Errorf("ResetEpoch = %d, want %d", rlErr.ResetEpoch, reset)
	}
	if rlErr.RequestID != "RL:2" {
		t.Errorf("RequestID = %q, want RL:2", rlErr.RequestID)
	}
}

func TestDo_ForbiddenWithZeroQuotaIsRateLimited(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded for user"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if !IsRateLimited(err) {
		t.Fatalf("IsRateLimited = false for %v", err)
	}
}

func TestDo_ForbiddenWithoutQuotaSignalIsGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeHeaders(w)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Resource not accessible by integration"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if IsRateLimited(err) {
		t.Fatalf("plain 403 misclassified as rate limited: %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %v", err)
	}
	if apiErr.Kind != KindAPI {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindAPI)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeHeaders(w)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultConfig(auth.StaticToken("test-token"))
	cfg.BaseURL = server.URL
	cfg.BaseBackoff = 5 * time.Second
	cfg.MaxBackoff = 10 * time.Second
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Do(ctx, Request{Method: http.MethodGet, Path: "/x"})
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("errors.Is(err, ErrContextCancelled) = false for %v", err)
	}
}
