package bootstrap

import (
	"testing"

	"github.com/registrylabs/registry-ui-api/config"
)

func TestNewServicesRequiresConfig(t *testing.T) {
	if _, err := NewServices(nil); err == nil {
		t.Fatalf("NewServices(nil) error = nil, want error")
	}
	if _, err := NewServices(&ServiceDeps{}); err == nil {
		t.Fatalf("NewServices(empty deps) error = nil, want error")
	}
}

func TestNewServicesRequiresSelectedBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend config.StoreBackend
	}{
		{name: "postgres backend without db", backend: config.StoreBackendPostgres},
		{name: "redis backend without client", backend: config.StoreBackendRedis},
		{name: "unknown backend", backend: config.StoreBackend("mongo")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.AppConfig{}
			cfg.Store.Backend = tt.backend
			cfg.Auth.Session.Secret = "0123456789abcdef0123456789abcdef"

			if _, err := NewServices(&ServiceDeps{Config: cfg}); err == nil {
				t.Fatalf("NewServices() error = nil, want error")
			}
		})
	}
}
