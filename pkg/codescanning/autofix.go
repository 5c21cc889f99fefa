package codescanning

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
)

// GetAutofixStatus returns the autofix state for an alert.
func (c *Client) GetAutofixStatus(ctx context.Context, owner, repo string, number int) (*Autofix, error) {
	path, err := repoPath(owner, repo, fmt.Sprintf("/code-scanning/alerts/%d/autofix", number))
	if err != nil {
		return nil, err
	}

	resp, err := c.gh.Do(ctx, client.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	var fix Autofix
	if err := resp.JSON(&fix); err != nil {
		return nil, fmt.Errorf("decode autofix: %w", err)
	}
	return &fix, nil
}

// CreateAutofix asks GitHub to generate a fix for an alert. Generation is
// asynchronous; poll GetAutofixStatus or use WaitForAutofix.
func (c *Client) CreateAutofix(ctx context.Context, owner, repo string, number int) (*Autofix, error) {
	path, err := repoPath(owner, repo, fmt.Sprintf("/code-scanning/alerts/%d/autofix", number))
	if err != nil {
		return nil, err
	}

	resp, err := c.gh.Do(ctx, client.Request{Method: http.MethodPost, Path: path})
	if err != nil {
		return nil, err
	}

	var fix Autofix
	if err := resp.JSON(&fix); err != nil {
		return nil, fmt.Errorf("decode autofix: %w", err)
	}
	return &fix, nil
}

// CommitAutofix commits a generated fix to target ref. message overrides the
// default commit message when non-empty.
func (c *Client) CommitAutofix(ctx context.Context, owner, repo string, number int, targetRef, message string) (*AutofixCommit, error) {
	path, err := repoPath(owner, repo, fmt.Sprintf("/code-scanning/alerts/%d/autofix/commits", number))
	if err != nil {
		return nil, err
	}
	if targetRef == "" {
		return nil, fmt.Errorf("target_ref is required")
	}

	body := map[string]any{"target_ref": targetRef}
	if message != "" {
		body["message"] = message
	}

	resp, err := c.gh.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var commit AutofixCommit
	if err := resp.JSON(&commit); err != nil {
		return nil, fmt.Errorf("decode autofix commit: %w", err)
	}
	return &commit, nil
}

// WaitForAutofix polls an alert's autofix status every interval until it
// leaves the pending state or the context expires.
func (c *Client) WaitForAutofix(ctx context.Context, owner, repo string, number int, interval time.Duration) (*Autofix, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		fix, err := c.GetAutofixStatus(ctx, owner, repo, number)
		if err != nil {
			return nil, err
		}
		if fix.Status != AutofixPending {
			return fix, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
