package codescanning

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
)

// QuerySuite selects the CodeQL query pack for default setup.
type QuerySuite string

const (
	QuerySuiteDefault  QuerySuite = "default"
	QuerySuiteExtended QuerySuite = "extended"
)

// ThreatModel selects which sources are considered tainted.
type ThreatModel string

const (
	ThreatModelRemote         ThreatModel = "remote"
	ThreatModelRemoteAndLocal ThreatModel = "remote_and_local"
)

// RunnerType selects where default setup analyses run.
type RunnerType string

const (
	RunnerStandard   RunnerType = "standard"
	RunnerSelfHosted RunnerType = "self_hosted"
)

// DefaultSetup is the default CodeQL setup configuration of a repository.
type DefaultSetup struct {
	State       string      `json:"state"`
	Languages   []string    `json:"languages"`
	QuerySuite  QuerySuite  `json:"query_suite"`
	ThreatModel ThreatModel `json:"threat_model"`
	RunnerType  RunnerType  `json:"runner_type"`
	RunnerLabel string      `json:"runner_label"`
	UpdatedAt   string      `json:"updated_at"`
	Schedule    string      `json:"schedule"`
}

// GetDefaultSetup returns the repository's default setup configuration.
func (c *Client) GetDefaultSetup(ctx context.Context, owner, repo string) (*DefaultSetup, error) {
	path, err := repoPath(owner, repo, "/code-scanning/default-setup")
	if err != nil {
		return nil, err
	}

	resp, err := c.gh.Do(ctx, client.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	var setup DefaultSetup
	if err := resp.JSON(&setup); err != nil {
		return nil, fmt.Errorf("decode default setup: %w", err)
	}
	return &setup, nil
}

// ConfigureDefaultSetupOptions tunes default CodeQL setup.
type ConfigureDefaultSetupOptions struct {
	// QuerySuite defaults to "default".
	QuerySuite QuerySuite

	// ThreatModel defaults to "remote_and_local".
	ThreatModel ThreatModel

	// RunnerType defaults to "standard".
	RunnerType RunnerType

	// RunnerLabel names the self-hosted runner label (self_hosted only).
	RunnerLabel string

	// Languages restricts analysis to these languages.
	Languages []string
}

// ConfigureDefaultSetup enables default CodeQL setup for a repository.
func (c *Client) ConfigureDefaultSetup(ctx context.Context, owner, repo string, opts ConfigureDefaultSetupOptions) (*DefaultSetup, error) {
	path, err := repoPath(owner, repo, "/code-scanning/default-setup")
	if err != nil {
		return nil, err
	}

	if opts.QuerySuite == "" {
		opts.QuerySuite = QuerySuiteDefault
	}
	if opts.ThreatModel == "" {
		opts.ThreatModel = ThreatModelRemoteAndLocal
	}
	if opts.RunnerType == "" {
		opts.RunnerType = RunnerStandard
	}

	body := map[string]any{
		"state":        "configured",
		"query_suite":  opts.QuerySuite,
		"threat_model": opts.ThreatModel,
		"runner_type":  opts.RunnerType,
	}
	if opts.RunnerLabel != "" {
		body["runner_label"] = opts.RunnerLabel
	}
	if len(opts.Languages) > 0 {
		body["languages"] = opts.Languages
	}

	return c.patchDefaultSetup(ctx, path, body)
}

// DisableDefaultSetup turns default CodeQL setup off.
func (c *Client) DisableDefaultSetup(ctx context.Context, owner, repo string) (*DefaultSetup, error) {
	path, err := repoPath(owner, repo, "/code-scanning/default-setup")
	if err != nil {
		return nil, err
	}
	return c.patchDefaultSetup(ctx, path, map[string]any{"state": "disabled"})
}

func (c *Client) patchDefaultSetup(ctx context.Context, path string, body map[string]any) (*DefaultSetup, error) {
	resp, err := c.gh.Do(ctx, client.Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var setup DefaultSetup
	if len(resp.Body) > 0 {
		if err := resp.JSON(&setup); err != nil {
			return nil, fmt.Errorf("decode default setup: %w", err)
		}
	}
	return &setup, nil
}
