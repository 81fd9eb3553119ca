package service

import (
	"context"
	"strings"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Store ports.UserStore
}

// ProfileService guards the profile record behind the per-provider field
// policy. Every operation takes the Session explicitly; nothing is read
// from ambient state.
type ProfileService struct {
	store ports.UserStore
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	return &ProfileService{store: opts.Store}
}

// Load returns the session owner's record filtered through the provider
// policy. Delegated accounts never see the password field.
func (s *ProfileService) Load(ctx context.Context, sess domainauth.Session) (*model.UserRecord, error) {
	rec, err := s.store.FindOne(ctx, ports.UserFilter{Username: sess.Username})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if rec == nil {
		return nil, apperrors.NotFound("User not found")
	}

	view := rec.View(domainauth.PolicyFor(sess.Provider))
	return &view, nil
}

// UpdateResult carries the policy-filtered record plus, for local
// accounts, the raw username and password the handler needs to re-mint the
// session after a username change.
type UpdateResult struct {
	User            model.UserRecord
	Username        string
	Password        string
	UsernameChanged bool
}

// Update applies a partial update to the session owner's record. Fields
// the provider policy marks immutable are silently dropped, not rejected:
// a delegated account sending username/password changes gets its
// fullName/email/dob applied and the rest ignored.
func (s *ProfileService) Update(ctx context.Context, sess domainauth.Session, req model.UpdateUserRequest) (*UpdateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	policy := domainauth.PolicyFor(sess.Provider)
	update := buildPolicyUpdate(policy, req)

	matched, err := s.store.UpdateOne(ctx, ports.UserFilter{Username: sess.Username}, update)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if !matched {
		return nil, apperrors.NotFound("User not found")
	}

	// Re-fetch under the username the record now lives at.
	lookup := sess.Username
	usernameChanged := update.Username != nil && *update.Username != sess.Username
	if usernameChanged {
		lookup = *update.Username
	}
	rec, err := s.store.FindOne(ctx, ports.UserFilter{Username: lookup})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if rec == nil {
		return nil, apperrors.NotFound("User not found after update")
	}

	out := &UpdateResult{
		User:            rec.View(policy),
		UsernameChanged: usernameChanged,
	}
	if sess.IsLocal() {
		out.Username = rec.Username
		out.Password = rec.Password
	}
	return out, nil
}

// Delete removes the session owner's record. A second call finds nothing
// and reports NotFound with no side effects.
func (s *ProfileService) Delete(ctx context.Context, sess domainauth.Session) error {
	deleted, err := s.store.DeleteOne(ctx, ports.UserFilter{Username: sess.Username})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if !deleted {
		return apperrors.NotFound("User not found")
	}
	return nil
}

// buildPolicyUpdate keeps only the requested fields the policy allows the
// owner to change. The username is normalized here, before the store sees
// it, so the post-update re-fetch key and the persisted value agree.
func buildPolicyUpdate(policy domainauth.AccountPolicy, req model.UpdateUserRequest) ports.UserUpdate {
	var update ports.UserUpdate
	if req.FullName != nil && policy.CanMutate(domainauth.FieldFullName) {
		update.FullName = req.FullName
	}
	if req.Username != nil && policy.CanMutate(domainauth.FieldUsername) {
		trimmed := strings.TrimSpace(*req.Username)
		update.Username = &trimmed
	}
	if req.Password != nil && policy.CanMutate(domainauth.FieldPassword) {
		update.Password = req.Password
	}
	if req.Email != nil && policy.CanMutate(domainauth.FieldEmail) {
		update.Email = req.Email
	}
	if req.DOB != nil && policy.CanMutate(domainauth.FieldDOB) {
		update.DOB = req.DOB
	}
	return update
}
