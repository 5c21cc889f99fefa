package codescanning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
)

// ListAlertsOptions filters a repository alert listing.
type ListAlertsOptions struct {
	// State filters by alert state (default open).
	State AlertState

	// Severity filters by rule severity.
	Severity Severity

	// ToolName and ToolGUID select the producing tool. GitHub disallows
	// specifying both.
	ToolName string
	ToolGUID string

	// Ref restricts results to a git ref.
	Ref string

	// PR restricts results to alerts on a pull request (0 = unset).
	PR int

	// Assignees filters by assignee login ("*" for any, "none" for none).
	Assignees string

	// Sort and Direction order the results (default created desc).
	Sort      SortField
	Direction Direction

	// PerPage is the page size, clamped to 1..100 (default 100).
	PerPage int
}

// query renders the options as URL query parameters.
func (o ListAlertsOptions) query() (url.Values, error) {
	if o.ToolName != "" && o.ToolGUID != "" {
		return nil, fmt.Errorf("specify only one of ToolName or ToolGUID (GitHub disallows both)")
	}

	state := o.State
	if state == "" {
		state = AlertStateOpen
	}
	sort := o.Sort
	if sort == "" {
		sort = SortCreated
	}
	direction := o.Direction
	if direction == "" {
		direction = DirectionDesc
	}

	q := url.Values{}
	q.Set("state", string(state))
	q.Set("sort", string(sort))
	q.Set("direction", string(direction))
	q.Set("per_page", strconv.Itoa(clampPerPage(o.PerPage)))

	if o.Severity != "" {
		q.Set("severity", string(o.Severity))
	}
	if o.ToolName != "" {
		q.Set("tool_name", o.ToolName)
	}
	if o.ToolGUID != "" {
		q.Set("tool_guid", o.ToolGUID)
	}
	if o.Ref != "" {
		q.Set("ref", o.Ref)
	}
	if o.PR != 0 {
		q.Set("pr", strconv.Itoa(o.PR))
	}
	if o.Assignees != "" {
		q.Set("assignees", o.Assignees)
	}
	return q, nil
}

// ListAlerts returns every code scanning alert for a repository matching the
// options, paginating to completion in server order.
func (c *Client) ListAlerts(ctx context.Context, owner, repo string, opts ListAlertsOptions) ([]*Alert, error) {
	path, err := repoPath(owner, repo, "/code-scanning/alerts")
	if err != nil {
		return nil, err
	}
	query, err := opts.query()
	if err != nil {
		return nil, err
	}

	raw, err := c.gh.DoPaginated(ctx, client.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return decodeItems[Alert](raw)
}

// GetAlert returns a single alert by number.
func (c *Client) GetAlert(ctx context.Context, owner, repo string, number int) (*Alert, error) {
	path, err := repoPath(owner, repo, fmt.Sprintf("/code-scanning/alerts/%d", number))
	if err != nil {
		return nil, err
	}

	resp, err := c.gh.Do(ctx, client.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	var alert Alert
	if err := resp.JSON(&alert); err != nil {
		return nil, fmt.Errorf("decode alert: %w", err)
	}
	return &alert, nil
}

// UpdateAlertOptions sets an alert's target state. The PATCH is fully
// specified, so repeating it is safe and the transport may retry it.
type UpdateAlertOptions struct {
	// State is the target state (required).
	State UpdateAlertState

	// DismissedReason is required when State is dismissed.
	DismissedReason DismissedReason

	// DismissedComment optionally explains the dismissal.
	DismissedComment string

	// CreateRequest, when set, asks for a dismissal review instead of
	// dismissing directly.
	CreateRequest *bool

	// Assignees, when non-nil, replaces the alert's assignee list.
	// An empty slice clears it.
	Assignees []string
}

// UpdateAlert changes an alert's state and/or assignees.
func (c *Client) UpdateAlert(ctx context.Context, owner, repo string, number int, opts UpdateAlertOptions) (*Alert, error) {
	path, err := repoPath(owner, repo, fmt.Sprintf("/code-scanning/alerts/%d", number))
	if err != nil {
		return nil, err
	}
	if opts.State != UpdateStateOpen && opts.State != UpdateStateDismissed {
		return nil, fmt.Errorf("invalid alert state %q", opts.State)
	}

	body := map[string]any{"state": opts.State}

	if opts.State == UpdateStateDismissed {
		if opts.DismissedReason == "" {
			return nil, fmt.Errorf("dismissed_reason is required when state is dismissed")
		}
		body["dismissed_reason"] = opts.DismissedReason
		if opts.DismissedComment != "" {
			body["dismissed_comment"] = opts.DismissedComment
		}
	}
	if opts.CreateRequest != nil {
		body["create_request"] = *opts.CreateRequest
	}
	if opts.Assignees != nil {
		body["assignees"] = opts.Assignees
	}

	resp, err := c.gh.Do(ctx, client.Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var alert Alert
	if err := resp.JSON(&alert); err != nil {
		return nil, fmt.Errorf("decode alert: %w", err)
	}
	return &alert, nil
}

// DismissAlert dismisses an alert with a reason and comment.
func (c *Client) DismissAlert(ctx context.Context, owner, repo string, number int, reason DismissedReason, comment string) (*Alert, error) {
	return c.UpdateAlert(ctx, owner, repo, number, UpdateAlertOptions{
		State:            UpdateStateDismissed,
		DismissedReason:  reason,
		DismissedComment: comment,
	})
}

// ReopenAlert reopens a dismissed alert.
func (c *Client) ReopenAlert(ctx context.Context, owner, repo string, number int) (*Alert, error) {
	return c.UpdateAlert(ctx, owner, repo, number, UpdateAlertOptions{State: UpdateStateOpen})
}

// AssignAlert replaces an alert's assignee list, leaving it open.
func (c *Client) AssignAlert(ctx context.Context, owner, repo string, number int, assignees []string) (*Alert, error) {
	if assignees == nil {
		assignees = []string{}
	}
	return c.UpdateAlert(ctx, owner, repo, number, UpdateAlertOptions{
		State:     UpdateStateOpen,
		Assignees: assignees,
	})
}
