package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

// Provider identifies which login path owns a user record.
// A record's provider never changes after creation.
type Provider string

const (
	// ProviderLocal is username/password authentication owned by this system.
	ProviderLocal Provider = "local"
	// ProviderDelegated is authentication asserted by an external OAuth-style service.
	ProviderDelegated Provider = "delegated"
)

// Valid reports whether p is a known provider value.
func (p Provider) Valid() bool {
	return p == ProviderLocal || p == ProviderDelegated
}

// ExternalProfile is the profile descriptor returned by a delegated identity
// provider. Adapters map provider-specific claims into this shape.
type ExternalProfile struct {
	ExternalID  string // stable identifier at the provider (e.g., sub or numeric id)
	Email       string
	DisplayName string
	LoginHandle string // provider login name, used as the record's username
	AvatarURL   string
}

// Session is the user-facing view reconstructed from a signed token on each
// request. It is never stored server-side.
type Session struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Provider Provider `json:"provider"`
	// IsNew is true only on the request immediately following account
	// creation; the issuer clears it on the next reconstruction.
	IsNew bool `json:"isNew"`
}

// IsLocal reports whether the session belongs to a local-provider account.
func (s Session) IsLocal() bool { return s.Provider == ProviderLocal }
