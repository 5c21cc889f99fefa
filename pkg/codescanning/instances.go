package codescanning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
)

// ListInstancesOptions filters an alert's instance listing.
type ListInstancesOptions struct {
	// Ref restricts results to a git ref.
	Ref string

	// PR restricts results to a pull request (0 = unset).
	PR int

	// PerPage is the page size, clamped to 1..100 (default 100).
	PerPage int
}

// ListInstances returns every instance of an alert, paginating to completion.
func (c *Client) ListInstances(ctx context.Context, owner, repo string, number int, opts ListInstancesOptions) ([]*Instance, error) {
	path, err := repoPath(owner, repo, fmt.Sprintf("/code-scanning/alerts/%d/instances", number))
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(clampPerPage(opts.PerPage)))
	if opts.Ref != "" {
		q.Set("ref", opts.Ref)
	}
	if opts.PR != 0 {
		q.Set("pr", strconv.Itoa(opts.PR))
	}

	raw, err := c.gh.DoPaginated(ctx, client.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  q,
	})
	if err != nil {
		return nil, err
	}
	return decodeItems[Instance](raw)
}
