// Package codescanning exposes the GitHub Code Scanning API as typed
// operations over the resilient transport in pkg/client. Each method is an
// endpoint-shaped wrapper; retry, rate-limit, and pagination behavior comes
// entirely from the transport.
package codescanning

import (
	"encoding/json"
	"fmt"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
)

// Client wraps the resilient transport with code scanning operations.
type Client struct {
	gh *client.Client
}

// NewClient creates a code scanning client over an existing transport.
func NewClient(gh *client.Client) *Client {
	return &Client{gh: gh}
}

// repoPath validates owner/repo and returns "/repos/{owner}/{repo}" + suffix.
func repoPath(owner, repo, suffix string) (string, error) {
	if owner == "" || repo == "" {
		return "", fmt.Errorf("owner and repo are required")
	}
	return fmt.Sprintf("/repos/%s/%s%s", owner, repo, suffix), nil
}

// decodeItems unmarshals a page accumulator result into typed values.
func decodeItems[T any](raw []json.RawMessage) ([]*T, error) {
	items := make([]*T, 0, len(raw))
	for _, msg := range raw {
		var item T
		if err := json.Unmarshal(msg, &item); err != nil {
			return nil, fmt.Errorf("decode list item: %w", err)
		}
		items = append(items, &item)
	}
	return items, nil
}

// clampPerPage bounds per_page to GitHub's accepted 1..100 range, defaulting
// to the maximum.
func clampPerPage(perPage int) int {
	if perPage <= 0 {
		return 100
	}
	if perPage > 100 {
		return 100
	}
	return perPage
}
