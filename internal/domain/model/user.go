package model

import (
	"strings"
	"time"

	"github.com/registrylabs/registry-ui-api/internal/domain/auth"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
)

// UserRecord is the persistent user entity. One record covers both login
// paths; Provider decides which fields are meaningful.
//
// Password holds the value exactly as the user supplied it. Storing and
// returning it unhashed is a documented flaw of the system this replaces and
// is preserved as observable behavior, not an oversight.
type UserRecord struct {
	ID       string `json:"id"                 db:"id"`
	Username string `json:"username"           db:"username"`
	Password string `json:"password,omitempty" db:"password"`
	FullName string `json:"fullName,omitempty" db:"full_name"`
	Email    string `json:"email,omitempty"    db:"email"`
	// DOB is a date string as entered by the user (no parsing on this side).
	DOB         string        `json:"dob,omitempty"         db:"dob"`
	Provider    auth.Provider `json:"provider"              db:"provider"`
	DelegatedID string        `json:"delegatedId,omitempty" db:"delegated_id"`
	Avatar      string        `json:"avatar,omitempty"      db:"avatar"`
	CreatedAt   time.Time     `json:"createdAt"             db:"created_at"`
}

// View returns a copy of the record filtered through the provider policy.
// Currently the only field ever hidden is the password.
func (u UserRecord) View(policy auth.AccountPolicy) UserRecord {
	out := u
	if !policy.CanView(auth.FieldPassword) {
		out.Password = ""
	}
	return out
}

// UpdateUserRequest is a partial profile update. Nil fields are left
// untouched; the guard drops fields the provider policy marks immutable.
type UpdateUserRequest struct {
	FullName *string `json:"fullName,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Email    *string `json:"email,omitempty"`
	DOB      *string `json:"dob,omitempty"`
}

// IsEmpty reports whether no fields are present in the request.
func (r UpdateUserRequest) IsEmpty() bool {
	return r.FullName == nil && r.Username == nil && r.Password == nil &&
		r.Email == nil && r.DOB == nil
}

// Validate checks the request fields that have hard constraints.
func (r UpdateUserRequest) Validate() error {
	if r.Username != nil && strings.TrimSpace(*r.Username) == "" {
		return apperrors.ValidationField("username", "username must not be blank")
	}
	return nil
}
