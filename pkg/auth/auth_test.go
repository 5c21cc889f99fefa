package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("ghp_test123").Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "ghp_test123" {
		t.Errorf("Token() = %q, want ghp_test123", token)
	}
}

func TestStaticToken_Empty(t *testing.T) {
	if _, err := StaticToken("").Token(context.Background()); err == nil {
		t.Error("Token() with empty token should fail")
	}
}

func testKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return pemBytes, key
}

func TestNewAppToken_Validation(t *testing.T) {
	pemBytes, _ := testKeyPEM(t)

	if _, err := NewAppToken("", pemBytes); err == nil {
		t.Error("NewAppToken with empty app id should fail")
	}
	if _, err := NewAppToken("12345", []byte("not a key")); err == nil {
		t.Error("NewAppToken with invalid PEM should fail")
	}
}

func TestAppToken_MintsVerifiableJWT(t *testing.T) {
	pemBytes, key := testKeyPEM(t)

	provider, err := NewAppToken("12345", pemBytes)
	if err != nil {
		t.Fatalf("NewAppToken() error = %v", err)
	}

	signed, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		t.Fatalf("parse signed token: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("token not valid")
	}

	if claims.Issuer != "12345" {
		t.Errorf("iss = %q, want 12345", claims.Issuer)
	}

	now := time.Now()
	if claims.IssuedAt == nil || claims.IssuedAt.After(now.Add(-30*time.Second)) {
		t.Errorf("iat = %v, want backdated for clock drift", claims.IssuedAt)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("exp missing")
	}
	lifetime := claims.ExpiresAt.Sub(now)
	if lifetime > appJWTLifetime || lifetime < appJWTLifetime-time.Minute {
		t.Errorf("exp-now = %v, want ~%v", lifetime, appJWTLifetime)
	}
}

func TestAppToken_ReusesUntilNearExpiry(t *testing.T) {
	pemBytes, _ := testKeyPEM(t)

	provider, err := NewAppToken("12345", pemBytes)
	if err != nil {
		t.Fatalf("NewAppToken() error = %v", err)
	}

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	provider.clock = mock

	ctx := context.Background()

	first, err := provider.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	// Well inside the lifetime: cached token is reused.
	mock.Add(5 * time.Minute)
	second, err := provider.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if second != first {
		t.Error("expected cached token to be reused")
	}

	// Within a minute of expiry: a fresh token is minted.
	mock.Add(4*time.Minute + 30*time.Second)
	third, err := provider.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if third == first {
		t.Error("expected a fresh token near expiry")
	}
}
