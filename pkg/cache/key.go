package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached API response.
type Key struct {
	// Method is the HTTP verb (only GET responses are cached).
	Method string

	// Path is the endpoint path, e.g. "/repos/octocat/hello/code-scanning/alerts".
	Path string

	// Query holds the request's query parameters.
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: ghas:METHOD:path:query1=val1:query2=val2
func (k Key) String() string {
	parts := []string{"ghas", strings.ToUpper(k.Method), strings.Trim(k.Path, "/")}

	// Query params sorted for determinism.
	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for _, value := range k.Query[name] {
				parts = append(parts, fmt.Sprintf("%s=%s", name, value))
			}
		}
	}

	return strings.Join(parts, ":")
}
