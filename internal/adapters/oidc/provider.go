// Package oidc implements the delegated identity provider against any
// OIDC/OAuth2 authority.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// ClaimMap holds JMESPath expressions that map the provider's claim set
// onto an ExternalProfile. The defaults cover plain OIDC providers and the
// GitHub-shaped claim set (login, avatar_url) in one table, so deployments
// only override what their authority names differently.
type ClaimMap struct {
	ExternalID  string
	Email       string
	DisplayName string
	LoginHandle string
	AvatarURL   string
}

// DefaultClaimMap returns the claim mapping used when no overrides are
// configured.
func DefaultClaimMap() ClaimMap {
	return ClaimMap{
		ExternalID:  "sub",
		Email:       "email || mail",
		DisplayName: "name",
		LoginHandle: "preferred_username || login",
		AvatarURL:   "picture || avatar_url",
	}
}

// merged fills empty expressions from the defaults.
func (m ClaimMap) merged() ClaimMap {
	d := DefaultClaimMap()
	if m.ExternalID == "" {
		m.ExternalID = d.ExternalID
	}
	if m.Email == "" {
		m.Email = d.Email
	}
	if m.DisplayName == "" {
		m.DisplayName = d.DisplayName
	}
	if m.LoginHandle == "" {
		m.LoginHandle = d.LoginHandle
	}
	if m.AvatarURL == "" {
		m.AvatarURL = d.AvatarURL
	}
	return m
}

// Validate compiles every expression so a bad mapping fails at startup,
// not on the first login.
func (m ClaimMap) Validate() error {
	for name, expr := range map[string]string{
		"external_id":  m.ExternalID,
		"email":        m.Email,
		"display_name": m.DisplayName,
		"login_handle": m.LoginHandle,
		"avatar_url":   m.AvatarURL,
	} {
		if expr == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("claim map %s: %w", name, err)
		}
	}
	return nil
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	ClaimMap     ClaimMap
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client
}

// Provider implements ports.IdentityProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	claimMap   ClaimMap
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider creates a new OIDC provider. Discovery is fetched once, at
// construction.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	claimMap := config.ClaimMap.merged()
	if err := claimMap.Validate(); err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		claimMap:   claimMap,
		httpClient: httpClient,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// Begin starts the authorization code flow and returns the auth URL plus
// the state and nonce the callback must verify.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the authorization code and maps the resulting claims to
// an ExternalProfile via the claim map.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalProfile, error) {
	if in.Code == "" {
		return domainauth.ExternalProfile{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.ExternalProfile{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.ExternalProfile{}, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.ExternalProfile{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.claimsFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.ExternalProfile{}, fmt.Errorf("extract id_token: %w", err)
	}

	profile := mapClaims(p.claimMap, claims)
	if profile.ExternalID == "" || profile.Email == "" {
		filled, uiErr := p.fillFromUserInfo(ctx, token.AccessToken, claims)
		if uiErr != nil {
			return domainauth.ExternalProfile{}, fmt.Errorf("get user info: %w", uiErr)
		}
		profile = mapClaims(p.claimMap, filled)
	}
	if profile.ExternalID == "" {
		return domainauth.ExternalProfile{}, errors.New("provider returned no subject identifier")
	}

	return profile, nil
}

// claimsFromIDToken verifies the id_token (when openid is in scope) and
// returns its claims as a generic map for JMESPath evaluation.
func (p *Provider) claimsFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, error) {
	claims := map[string]any{}
	if !p.hasOpenIDScope() {
		return claims, nil
	}

	rawID, err := idTokenFromToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	if expectedNonce != "" {
		nonce, _ := claims["nonce"].(string)
		if nonce != expectedNonce {
			return nil, errors.New("invalid nonce")
		}
	}
	return claims, nil
}

// fillFromUserInfo overlays the userinfo claims under the id_token claims,
// keeping id_token values on conflict.
func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, claims map[string]any) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	var uiClaims map[string]any
	if err := ui.Claims(&uiClaims); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	merged := make(map[string]any, len(claims)+len(uiClaims))
	for k, v := range uiClaims {
		merged[k] = v
	}
	for k, v := range claims {
		merged[k] = v
	}
	return merged, nil
}

// mapClaims evaluates the claim map against a claim set. Expressions that
// fail or match nothing yield empty fields; only the caller decides which
// fields are mandatory.
func mapClaims(m ClaimMap, claims map[string]any) domainauth.ExternalProfile {
	return domainauth.ExternalProfile{
		ExternalID:  evalString(m.ExternalID, claims),
		Email:       evalString(m.Email, claims),
		DisplayName: evalString(m.DisplayName, claims),
		LoginHandle: evalString(m.LoginHandle, claims),
		AvatarURL:   evalString(m.AvatarURL, claims),
	}
}

// evalString evaluates a JMESPath expression and coerces the result to a
// string. Numeric ids (GitHub's integer "id") are rendered without an
// exponent.
func evalString(expr string, claims map[string]any) string {
	if expr == "" {
		return ""
	}
	out, err := jmespath.Search(expr, claims)
	if err != nil || out == nil {
		return ""
	}
	switch v := out.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// generateRandomString generates a cryptographically secure URL-safe
// random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

func (p *Provider) hasOpenIDScope() bool {
	for _, sc := range p.config.Scopes {
		if sc == "openid" {
			return true
		}
	}
	return false
}

func idTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
