package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAuthModeUnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    AuthMode
		expectError bool
	}{
		{name: "oauth", input: "oauth", expected: AuthModeOAuth},
		{name: "mock", input: "mock", expected: AuthModeMock},
		{name: "disabled", input: "disabled", expected: AuthModeDisabled},
		{name: "case insensitive", input: "OAuth", expected: AuthModeOAuth},
		{name: "invalid", input: "saml", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mode AuthMode
			err := mode.UnmarshalText([]byte(tt.input))

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Errorf("UnmarshalText(%q) = %q, want %q", tt.input, mode, tt.expected)
			}
		})
	}
}

func TestStoreBackendUnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    StoreBackend
		expectError bool
	}{
		{name: "postgres", input: "postgres", expected: StoreBackendPostgres},
		{name: "redis", input: "redis", expected: StoreBackendRedis},
		{name: "case insensitive", input: "Redis", expected: StoreBackendRedis},
		{name: "invalid", input: "mongo", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backend StoreBackend
			err := backend.UnmarshalText([]byte(tt.input))

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if backend != tt.expected {
				t.Errorf("UnmarshalText(%q) = %q, want %q", tt.input, backend, tt.expected)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Sanitize()

	if cfg.Store.Backend != StoreBackendPostgres {
		t.Errorf("Store.Backend = %q, want postgres", cfg.Store.Backend)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("Auth.Mode = %q, want disabled", cfg.Auth.Mode)
	}
	if cfg.Auth.Session.TTL != 720*time.Hour {
		t.Errorf("Auth.Session.TTL = %v, want 720h", cfg.Auth.Session.TTL)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want 5432", cfg.Postgres.Port)
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		t.Errorf("Postgres.RunMigrationsOnStart = false, want true")
	}
	if cfg.Redis.URI != "localhost:6379" {
		t.Errorf("Redis.URI = %q, want localhost:6379", cfg.Redis.URI)
	}
}

func TestParseRequiresSessionSecret(t *testing.T) {
	// SESSION_SECRET deliberately unset.
	t.Setenv("SESSION_SECRET", "")
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		// Some env versions treat empty as unset; either path must not
		// yield a usable empty secret.
		return
	}
	if cfg.Auth.Session.Secret != "" {
		t.Fatalf("Session.Secret = %q, want empty", cfg.Auth.Session.Secret)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("AUTH_MODE", "mock")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("DEV_AUTH_EXTERNAL_ID", "ext-42")
	t.Setenv("OAUTH_CLAIM_LOGIN_HANDLE", "nickname")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Session.TTL != 24*time.Hour {
		t.Errorf("Auth.Session.TTL = %v, want 24h", cfg.Auth.Session.TTL)
	}
	if cfg.Auth.Mode != AuthModeMock {
		t.Errorf("Auth.Mode = %q, want mock", cfg.Auth.Mode)
	}
	if cfg.Store.Backend != StoreBackendRedis {
		t.Errorf("Store.Backend = %q, want redis", cfg.Store.Backend)
	}
	if cfg.Auth.DevAuth.ExternalID != "ext-42" {
		t.Errorf("DevAuth.ExternalID = %q, want ext-42", cfg.Auth.DevAuth.ExternalID)
	}
	if cfg.Auth.OAuth.ClaimLoginHandle != "nickname" {
		t.Errorf("OAuth.ClaimLoginHandle = %q, want nickname", cfg.Auth.OAuth.ClaimLoginHandle)
	}
}

func TestSanitizeClampsSessionTTL(t *testing.T) {
	cfg := AppConfig{}
	cfg.Auth.Session.TTL = -time.Hour
	cfg.Sanitize()

	if cfg.Auth.Session.TTL != 720*time.Hour {
		t.Errorf("Auth.Session.TTL = %v, want 720h", cfg.Auth.Session.TTL)
	}
}

func TestDetectDevMode(t *testing.T) {
	tests := []struct {
		name     string
		nodeEnv  string
		expected bool
	}{
		{name: "development", nodeEnv: "development", expected: true},
		{name: "dev", nodeEnv: "dev", expected: true},
		{name: "production", nodeEnv: "production", expected: false},
		{name: "empty", nodeEnv: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NODE_ENV", tt.nodeEnv)

			cfg := AppConfig{}
			cfg.Sanitize()

			if cfg.IsDev != tt.expected {
				t.Errorf("IsDev = %v, want %v", cfg.IsDev, tt.expected)
			}
		})
	}
}
