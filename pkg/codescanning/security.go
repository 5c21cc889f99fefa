package codescanning

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
)

// FeatureStatus toggles a security feature.
type FeatureStatus string

const (
	FeatureEnabled  FeatureStatus = "enabled"
	FeatureDisabled FeatureStatus = "disabled"
)

// SecurityAndAnalysisOptions selects which security features to change.
// Nil fields are left untouched.
type SecurityAndAnalysisOptions struct {
	AdvancedSecurity             *FeatureStatus
	CodeSecurity                 *FeatureStatus
	SecretScanning               *FeatureStatus
	SecretScanningPushProtection *FeatureStatus
}

// SetSecurityAndAnalysis updates a repository's security_and_analysis block.
func (c *Client) SetSecurityAndAnalysis(ctx context.Context, owner, repo string, opts SecurityAndAnalysisOptions) error {
	path, err := repoPath(owner, repo, "")
	if err != nil {
		return err
	}

	features := map[string]any{}
	add := func(name string, status *FeatureStatus) {
		if status != nil {
			features[name] = map[string]any{"status": *status}
		}
	}
	add("advanced_security", opts.AdvancedSecurity)
	add("code_security", opts.CodeSecurity)
	add("secret_scanning", opts.SecretScanning)
	add("secret_scanning_push_protection", opts.SecretScanningPushProtection)

	if len(features) == 0 {
		return fmt.Errorf("no security features selected")
	}

	_, err = c.gh.Do(ctx, client.Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   map[string]any{"security_and_analysis": features},
	})
	return err
}
