package client

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Request describes one GitHub API call. Path is relative to the configured
// base URL unless it is already an absolute URL (the pagination driver
// follows absolute next-page links). A Request is constructed per call and
// never mutated by the transport.
type Request struct {
	// Method is the HTTP verb (GET, POST, PATCH, PUT, DELETE).
	Method string

	// Path is the endpoint path, e.g. "/repos/{owner}/{repo}/code-scanning/alerts",
	// or a full URL when following pagination links.
	Path string

	// Query holds optional query parameters.
	Query url.Values

	// Body is JSON-encoded into the request body when non-nil.
	Body any
}

// Response is the envelope for one completed API call. It holds the raw body
// plus the header subset downstream code consumes. A fresh envelope is
// produced per call and is safe to retain.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// RequestID returns the X-Github-Request-Id correlation header, or "".
func (r *Response) RequestID() string {
	return r.Header.Get("X-Github-Request-Id")
}

// Link returns the raw Link header, or "".
func (r *Response) Link() string {
	return r.Header.Get("Link")
}

// RateLimitRemaining returns the X-RateLimit-Remaining header value.
// The second return is false when the header is absent or malformed.
func (r *Response) RateLimitRemaining() (int, bool) {
	return headerInt(r.Header, "X-RateLimit-Remaining")
}

// RateLimitReset returns the X-RateLimit-Reset header as a unix epoch.
// The second return is false when the header is absent or malformed.
func (r *Response) RateLimitReset() (int64, bool) {
	v, ok := headerInt(r.Header, "X-RateLimit-Reset")
	return int64(v), ok
}

func headerInt(h http.Header, name string) (int, bool) {
	s := h.Get(name)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isAbsoluteURL reports whether s carries its own scheme and host.
func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// buildURL resolves a request path against the base URL and attaches query
// parameters. Absolute URLs (pagination links) are used as-is: the server has
// already encoded the query it wants.
func buildURL(baseURL string, req Request) string {
	u := req.Path
	if !isAbsoluteURL(u) {
		u = strings.TrimRight(baseURL, "/") + u
	}
	if len(req.Query) > 0 && !isAbsoluteURL(req.Path) {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + req.Query.Encode()
	}
	return u
}
