package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the delegated authentication mode for the
// application.
type AuthMode string

const (
	// AuthModeOAuth uses a real OAuth/OIDC authority for delegated login.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses the dev identity provider (for development only).
	AuthModeMock AuthMode = "mock"
	// AuthModeDisabled turns the delegated login path off; only local
	// username/password login is served.
	AuthModeDisabled AuthMode = "disabled"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock", "disabled":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock, disabled)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration for the delegated
// provider.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"registry"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"registry"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// Claim mapping overrides (JMESPath). Empty values fall back to the
	// built-in defaults, which handle plain OIDC and GitHub-shaped claim
	// sets.
	ClaimExternalID  string `env:"CLAIM_EXTERNAL_ID"`
	ClaimEmail       string `env:"CLAIM_EMAIL"`
	ClaimDisplayName string `env:"CLAIM_DISPLAY_NAME"`
	ClaimLoginHandle string `env:"CLAIM_LOGIN_HANDLE"`
	ClaimAvatarURL   string `env:"CLAIM_AVATAR_URL"`
}

// DevAuthConfig controls the mock/dev delegated identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	ExternalID  string `env:"EXTERNAL_ID"  envDefault:"dev-external-1"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`
	LoginHandle string `env:"LOGIN_HANDLE" envDefault:"dev"`
	AvatarURL   string `env:"AVATAR_URL"   envDefault:""`
}

// SessionConfig controls the stateless session token.
type SessionConfig struct {
	// Secret signs session tokens. The service refuses to start without
	// one; an unsigned session would be forgeable.
	Secret string `env:"SECRET,required"`

	// TTL is the token validity window. Matches the 30-day sessions of
	// the system this replaces.
	TTL time.Duration `env:"TTL" envDefault:"720h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which delegated identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"disabled"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Session token configuration.
	Session SessionConfig `envPrefix:"SESSION_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.Session.TTL <= 0 {
		a.Session.TTL = 720 * time.Hour
	}
}
