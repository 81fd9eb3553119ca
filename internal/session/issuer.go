package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
)

// DefaultTTL is the session token validity window.
const DefaultTTL = 30 * 24 * time.Hour

// newState tracks the one-shot isNew flag inside the token itself, so the
// flag survives statelessness: a freshly signed-up user carries a minted
// token, and the first reconstruction consumes it by handing back a rotated
// token with the state advanced.
type newState string

const (
	stateMinted   newState = "minted"
	stateConsumed newState = "consumed"
)

const issuerName = "registry-ui-api"

// claims is the JWT payload for a session token. Subject carries the user
// id.
type claims struct {
	Username string        `json:"username"`
	Provider auth.Provider `json:"provider"`
	NewState newState      `json:"newState"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies stateless HS256 session tokens. There is no
// server-side session state and no revocation list; sign-out is the client
// dropping the token.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL overrides the default 30-day token validity.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer signing with the given secret.
func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	i := &Issuer{
		secret: secret,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Mint signs a session token for the user. isNew marks the token as
// freshly signed up; the flag is surfaced exactly once by Reconstruct.
func (i *Issuer) Mint(rec *model.UserRecord, isNew bool) (string, error) {
	state := stateConsumed
	if isNew {
		state = stateMinted
	}
	now := i.now()
	return i.sign(claims{
		Username: rec.Username,
		Provider: rec.Provider,
		NewState: state,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   rec.ID,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
}

// Reconstruct verifies a token and rebuilds the Session it carries.
// Anything wrong with the token (missing, malformed, bad signature,
// expired, wrong issuer) yields ok=false; callers treat that as
// unauthenticated, never as an error.
//
// A minted token surfaces IsNew=true and returns a rotated replacement
// token with the state consumed and the original expiry preserved. The
// HTTP layer must re-set the rotated token as the session cookie;
// reconstructing the rotated token shows IsNew=false.
func (i *Issuer) Reconstruct(token string) (auth.Session, string, bool) {
	if token == "" {
		return auth.Session{}, "", false
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return auth.Session{}, "", false
	}
	if !c.Provider.Valid() {
		return auth.Session{}, "", false
	}

	sess := auth.Session{
		ID:       c.Subject,
		Username: c.Username,
		Provider: c.Provider,
		IsNew:    c.NewState == stateMinted,
	}

	var rotated string
	if c.NewState == stateMinted {
		next := c
		next.NewState = stateConsumed
		next.ID = uuid.NewString()
		next.IssuedAt = jwt.NewNumericDate(i.now())
		rotated, err = i.sign(next)
		if err != nil {
			// Keep the request authenticated; the flag will surface again
			// next time instead of being lost.
			return sess, "", true
		}
	}
	return sess, rotated, true
}

// TTL returns the configured token validity, for cookie max-age.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) sign(c claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
