package ports

import (
	"context"

	"github.com/registrylabs/registry-ui-api/internal/domain/model"
)

// UserFilter selects at most one user record. Set fields combine with AND;
// the zero filter matches nothing.
type UserFilter struct {
	ID          string
	Username    string
	DelegatedID string
}

// IsZero reports whether no filter fields are set.
func (f UserFilter) IsZero() bool {
	return f.ID == "" && f.Username == "" && f.DelegatedID == ""
}

// UserUpdate is a partial update applied to a matched record. Nil fields are
// left untouched. Provider, delegated id, and creation time are never
// updatable through the store contract.
type UserUpdate struct {
	FullName *string
	Username *string
	Password *string
	Email    *string
	DOB      *string
}

// IsZero reports whether the update sets no fields.
func (u UserUpdate) IsZero() bool {
	return u.FullName == nil && u.Username == nil && u.Password == nil &&
		u.Email == nil && u.DOB == nil
}

// UserStore is the keyed-record persistence collaborator. Single-document
// operations only; each is atomic at the store and reports no-match as
// (nil, nil) or (false, nil) rather than an error. Errors indicate the store
// itself failed and are mapped to StoreUnavailable at the service boundary.
type UserStore interface {
	// FindOne returns the record matching the filter, or nil when no record matches.
	FindOne(ctx context.Context, filter UserFilter) (*model.UserRecord, error)

	// InsertOne persists a new record as given (the caller assigns the id).
	InsertOne(ctx context.Context, rec *model.UserRecord) error

	// UpdateOne applies the partial update to the record matching the filter.
	// Returns false when no record matched. An empty update still reports
	// whether a record matched.
	UpdateOne(ctx context.Context, filter UserFilter, update UserUpdate) (bool, error)

	// DeleteOne removes the record matching the filter, reporting whether a
	// record was deleted.
	DeleteOne(ctx context.Context, filter UserFilter) (bool, error)
}
