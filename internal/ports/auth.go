package ports

// Package ports defines interfaces (hexagonal ports) for the registry's
// collaborators. Implementations live in internal/adapters and internal/data;
// orchestration in internal/service.

import (
	"context"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
)

// BeginInput carries inputs for initiating a delegated auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// IdentityProvider initiates and completes a delegated authentication flow
// against an external IdP, producing the external profile descriptor that
// identity reconciliation maps onto a user record.
type IdentityProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and
	// returns the asserted external profile.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.ExternalProfile, error)
}
