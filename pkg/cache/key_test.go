package cache

import (
	"net/url"
	"testing"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "path only",
			key:  Key{Method: "GET", Path: "/repos/octocat/hello/code-scanning/alerts"},
			want: "ghas:GET:repos/octocat/hello/code-scanning/alerts",
		},
		{
			name: "method uppercased",
			key:  Key{Method: "get", Path: "/repos/o/r/code-scanning/alerts"},
			want: "ghas:GET:repos/o/r/code-scanning/alerts",
		},
		{
			name: "query params sorted",
			key: Key{
				Method: "GET",
				Path:   "/repos/o/r/code-scanning/alerts",
				Query:  url.Values{"state": {"open"}, "per_page": {"100"}},
			},
			want: "ghas:GET:repos/o/r/code-scanning/alerts:per_page=100:state=open",
		},
		{
			name: "repeated param keeps both values",
			key: Key{
				Method: "GET",
				Path:   "/repos/o/r/code-scanning/alerts",
				Query:  url.Values{"severity": {"critical", "high"}},
			},
			want: "ghas:GET:repos/o/r/code-scanning/alerts:severity=critical:severity=high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyString_Deterministic(t *testing.T) {
	key := Key{
		Method: "GET",
		Path:   "/repos/o/r/code-scanning/alerts",
		Query:  url.Values{"tool_name": {"CodeQL"}, "ref": {"refs/heads/main"}, "state": {"open"}},
	}

	first := key.String()
	for i := 0; i < 50; i++ {
		if got := key.String(); got != first {
			t.Fatalf("Key.String() not deterministic: %q vs %q", got, first)
		}
	}
}
