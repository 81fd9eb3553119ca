package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// IdentityServiceOptions groups dependencies for IdentityService.
type IdentityServiceOptions struct {
	Store    ports.UserStore
	Provider ports.IdentityProvider
	Now      func() time.Time // optional, defaults to time.Now
}

// IdentityService reconciles both login protocols onto the single user
// record: local username/password and the delegated OAuth flow.
type IdentityService struct {
	store    ports.UserStore
	provider ports.IdentityProvider
	now      func() time.Time
}

// NewIdentityService constructs a new IdentityService.
func NewIdentityService(opts IdentityServiceOptions) *IdentityService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &IdentityService{
		store:    opts.Store,
		provider: opts.Provider,
		now:      now,
	}
}

// LocalLoginInput groups credentials for the local protocol.
type LocalLoginInput struct {
	Username string
	Password string
}

// LoginResult is the outcome of either login protocol.
type LoginResult struct {
	User  *model.UserRecord
	IsNew bool
}

// LocalLogin authenticates a username/password pair. An unknown username
// silently creates the account and signs it in (preserved observable
// behavior of the system this replaces); a known username with the wrong
// password fails without touching the record.
func (s *IdentityService) LocalLogin(ctx context.Context, in LocalLoginInput) (*LoginResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, apperrors.InvalidCredentials("Invalid username or password")
	}

	rec, err := s.store.FindOne(ctx, ports.UserFilter{Username: in.Username})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	if rec == nil {
		rec = &model.UserRecord{
			ID:        uuid.NewString(),
			Username:  in.Username,
			Password:  in.Password,
			Provider:  domainauth.ProviderLocal,
			CreatedAt: s.now().UTC(),
		}
		if insertErr := s.store.InsertOne(ctx, rec); insertErr != nil {
			return nil, apperrors.MapDBError(insertErr)
		}
		return &LoginResult{User: rec, IsNew: true}, nil
	}

	// Stored as supplied, compared as supplied.
	if rec.Password != in.Password {
		return nil, apperrors.InvalidCredentials("Invalid username or password")
	}
	return &LoginResult{User: rec, IsNew: false}, nil
}

// BeginDelegatedResult contains the redirect the handler must issue plus
// the state and nonce it must stash for the callback.
type BeginDelegatedResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginDelegated starts the delegated flow and returns the provider auth
// URL with state and nonce.
func (s *IdentityService) BeginDelegated(ctx context.Context, redirectURL string) (*BeginDelegatedResult, error) {
	if s.provider == nil {
		return nil, errors.New("no delegated identity provider configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin delegated flow: %w", err)
	}
	return &BeginDelegatedResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteDelegated exchanges the callback code for an external profile
// and reconciles it onto a user record.
func (s *IdentityService) CompleteDelegated(ctx context.Context, in ports.ExchangeInput) (*LoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("no delegated identity provider configured")
	}

	profile, err := s.provider.Exchange(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return s.ReconcileDelegated(ctx, profile)
}

// ReconcileDelegated maps an external profile to the user record keyed by
// the provider's stable id, creating the record on first login. Calling it
// N times for the same external id yields the same record.
func (s *IdentityService) ReconcileDelegated(ctx context.Context, profile domainauth.ExternalProfile) (*LoginResult, error) {
	if profile.ExternalID == "" {
		return nil, errors.New("external profile has no id")
	}

	rec, err := s.store.FindOne(ctx, ports.UserFilter{DelegatedID: profile.ExternalID})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if rec != nil {
		return &LoginResult{User: rec, IsNew: false}, nil
	}

	rec = &model.UserRecord{
		ID:          uuid.NewString(),
		Username:    profile.LoginHandle,
		FullName:    profile.DisplayName,
		Email:       profile.Email,
		Provider:    domainauth.ProviderDelegated,
		DelegatedID: profile.ExternalID,
		Avatar:      profile.AvatarURL,
		CreatedAt:   s.now().UTC(),
	}
	if insertErr := s.store.InsertOne(ctx, rec); insertErr != nil {
		return nil, apperrors.MapDBError(insertErr)
	}
	return &LoginResult{User: rec, IsNew: true}, nil
}
