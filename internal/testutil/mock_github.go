// Package testutil provides testing utilities for the code scanning toolkit.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockGitHub is a configurable mock GitHub API server for testing.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockGitHub creates a new mock GitHub API server.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// Requests returns the number of requests served so far.
func (m *MockGitHub) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Handle registers a handler for an exact request path.
func (m *MockGitHub) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// HandleJSON registers a handler that replies with a fixed status and JSON
// body plus standard GitHub headers.
func (m *MockGitHub) HandleJSON(path string, status int, body string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteGitHubHeaders(w)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

// defaultHandler serves an empty JSON object with healthy headers.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	WriteGitHubHeaders(w)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "{}")
}

// WriteGitHubHeaders sets the response headers GitHub includes on every
// API response: a correlation id and healthy rate-limit quota.
func WriteGitHubHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Github-Request-Id", "ABCD:1234:TEST")
	w.Header().Set("X-RateLimit-Remaining", "4999")
	w.Header().Set("X-RateLimit-Reset", "4102444800")
}

// LinkHeader renders a Link header with the given rel -> url pairs in a
// stable order.
func LinkHeader(rels ...[2]string) string {
	link := ""
	for i, rel := range rels {
		if i > 0 {
			link += ", "
		}
		link += fmt.Sprintf(`<%s>; rel="%s"`, rel[1], rel[0])
	}
	return link
}
