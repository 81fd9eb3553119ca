package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/registrylabs/registry-ui-api/config"
	"github.com/registrylabs/registry-ui-api/internal/adapters/devauth"
	"github.com/registrylabs/registry-ui-api/internal/adapters/oidc"
	"github.com/registrylabs/registry-ui-api/internal/ports"
	"github.com/registrylabs/registry-ui-api/internal/session"
)

// BuildIssuer creates the session token issuer from config.
// A missing secret is a hard startup failure.
func BuildIssuer(cfg config.SessionConfig) (*session.Issuer, error) {
	issuer, err := session.NewIssuer([]byte(cfg.Secret), session.WithTTL(cfg.TTL))
	if err != nil {
		return nil, fmt.Errorf("build session issuer: %w", err)
	}
	return issuer, nil
}

// BuildIdentityProvider creates the delegated identity provider for the
// configured auth mode. Returns nil (and no error) when delegated login
// is disabled; local username/password login is always served.
//
//nolint:ireturn // the provider is consumed through the port.
func BuildIdentityProvider(cfg config.AuthConfig, logger *slog.Logger) (ports.IdentityProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			ExternalID:  cfg.DevAuth.ExternalID,
			Email:       cfg.DevAuth.Email,
			DisplayName: cfg.DevAuth.DisplayName,
			LoginHandle: cfg.DevAuth.LoginHandle,
			AvatarURL:   cfg.DevAuth.AvatarURL,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev identity provider: %w", err)
		}
		if logger != nil {
			logger.Warn("delegated login using mock identity provider; do not use in production")
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			return nil, errors.New("AuthModeOAuth requires discovery URL, client ID, and client secret")
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			ClaimMap: oidc.ClaimMap{
				ExternalID:  oauth.ClaimExternalID,
				Email:       oauth.ClaimEmail,
				DisplayName: oauth.ClaimDisplayName,
				LoginHandle: oauth.ClaimLoginHandle,
				AvatarURL:   oauth.ClaimAvatarURL,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("build OIDC provider: %w", err)
		}
		return prov, nil

	default:
		if logger != nil {
			logger.Info("delegated login disabled", "mode", cfg.Mode)
		}
		return nil, nil
	}
}
