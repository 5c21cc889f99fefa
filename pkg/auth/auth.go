// Package auth supplies bearer credentials to the transport. The transport
// only ever sees a resolved token string; where it came from is the
// provider's business.
package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider resolves the credential attached to each request. Providers
// must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed personal access or installation token.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("empty token")
	}
	return string(t), nil
}

// appJWTLifetime is the lifetime GitHub allows for App JWTs (10 minutes max).
const appJWTLifetime = 10 * time.Minute

// appJWTClockDrift backdates the issued-at claim to tolerate clock skew
// between us and GitHub.
const appJWTClockDrift = 60 * time.Second

// AppToken mints short-lived GitHub App JWTs signed with the App's private
// key. Tokens are reused until shortly before expiry.
type AppToken struct {
	appID string
	key   *rsa.PrivateKey
	clock clock.Clock

	mu      sync.Mutex
	current string
	expires time.Time
}

// NewAppToken creates an App JWT provider from a PEM-encoded RSA private key.
func NewAppToken(appID string, privateKeyPEM []byte) (*AppToken, error) {
	if appID == "" {
		return nil, fmt.Errorf("app id is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse app private key: %w", err)
	}
	return &AppToken{
		appID: appID,
		key:   key,
		clock: clock.New(),
	}, nil
}

// Token implements TokenProvider, minting a fresh JWT when the cached one is
// within a minute of expiring.
func (a *AppToken) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if a.current != "" && now.Before(a.expires.Add(-time.Minute)) {
		return a.current, nil
	}

	expires := now.Add(appJWTLifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    a.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-appJWTClockDrift)),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("sign app jwt: %w", err)
	}

	a.current = signed
	a.expires = expires
	return signed, nil
}
