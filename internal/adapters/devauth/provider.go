// Package devauth provides a config-driven identity provider for local
// development, so the delegated login path works without a real authority.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// Config controls the dev identity provider. ExternalID and Email are
// required; the rest may be empty.
type Config struct {
	ExternalID  string
	Email       string
	DisplayName string
	LoginHandle string
	AvatarURL   string
}

// Provider implements ports.IdentityProvider for local development. It
// short-circuits the OAuth flow by redirecting straight back to our own
// callback with locally generated state and nonce; Exchange ignores the
// code and returns the configured profile.
type Provider struct {
	profile domainauth.ExternalProfile
}

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ExternalID == "" {
		return nil, errors.New("dev auth: ExternalID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	return &Provider{
		profile: domainauth.ExternalProfile{
			ExternalID:  cfg.ExternalID,
			Email:       cfg.Email,
			DisplayName: cfg.DisplayName,
			LoginHandle: cfg.LoginHandle,
			AvatarURL:   cfg.AvatarURL,
		},
	}, nil
}

var _ ports.IdentityProvider = (*Provider)(nil)

// Begin returns a local callback URL and cryptographically secure state
// and nonce. The standard handler expects GET /auth/callback?code=...&state=...
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation is handled by
// the callback handler) and returns the configured profile.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.ExternalProfile, error) {
	return p.profile, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
