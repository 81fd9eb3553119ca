package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
	mockauth "github.com/registrylabs/registry-ui-api/internal/mocks/auth"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

func seedLocalUser(store *mockauth.MemoryUserStore) model.UserRecord {
	rec := model.UserRecord{
		ID:        "u-local-1",
		Username:  "alice",
		Password:  "s3cret",
		FullName:  "Alice A",
		Email:     "alice@example.com",
		Provider:  domainauth.ProviderLocal,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	store.Seed(rec)
	return rec
}

func seedDelegatedUser(store *mockauth.MemoryUserStore) model.UserRecord {
	rec := model.UserRecord{
		ID:          "u-delegated-1",
		Username:    "bob",
		FullName:    "Bob B",
		Email:       "bob@example.com",
		Provider:    domainauth.ProviderDelegated,
		DelegatedID: "9042",
		Avatar:      "https://avatars.example/bob",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	store.Seed(rec)
	return rec
}

func localSession() domainauth.Session {
	return domainauth.Session{ID: "u-local-1", Username: "alice", Provider: domainauth.ProviderLocal}
}

func delegatedSession() domainauth.Session {
	return domainauth.Session{ID: "u-delegated-1", Username: "bob", Provider: domainauth.ProviderDelegated}
}

func TestProfileLoad_LocalSeesPassword(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})

	rec, err := svc.Load(context.Background(), localSession())
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Username)
	assert.Equal(t, "s3cret", rec.Password)
}

func TestProfileLoad_DelegatedNeverSeesPassword(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	rec := seedDelegatedUser(store)
	rec.Password = "should-never-appear"
	store.Seed(rec)
	svc := NewProfileService(ProfileServiceOptions{Store: store})

	got, err := svc.Load(context.Background(), delegatedSession())
	require.NoError(t, err)
	assert.Empty(t, got.Password)
	assert.Equal(t, "https://avatars.example/bob", got.Avatar)
}

func TestProfileLoad_MissingRecord(t *testing.T) {
	svc := NewProfileService(ProfileServiceOptions{Store: mockauth.NewMemoryUserStore()})

	_, err := svc.Load(context.Background(), localSession())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "User not found", err.(*apperrors.AppError).Message)
}

func TestProfileUpdate_LocalChangesEverything(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})

	newName := "Alice Anderson"
	newPassword := "newpw"
	newDOB := "1990-04-01"
	res, err := svc.Update(context.Background(), localSession(), model.UpdateUserRequest{
		FullName: &newName,
		Password: &newPassword,
		DOB:      &newDOB,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Anderson", res.User.FullName)
	assert.Equal(t, "newpw", res.User.Password)
	assert.Equal(t, "1990-04-01", res.User.DOB)
	assert.False(t, res.UsernameChanged)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, "newpw", res.Password)
}

func TestProfileUpdate_DelegatedIgnoresUsernameAndPassword(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedDelegatedUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})

	hijack := "hijacked"
	newEmail := "bob.new@example.com"
	res, err := svc.Update(context.Background(), delegatedSession(), model.UpdateUserRequest{
		Username: &hijack,
		Password: &hijack,
		Email:    &newEmail,
	})
	require.NoError(t, err)

	// Allowed field applied, immutable fields silently dropped.
	assert.Equal(t, "bob.new@example.com", res.User.Email)
	assert.Equal(t, "bob", res.User.Username)
	assert.Empty(t, res.User.Password)
	assert.False(t, res.UsernameChanged)
	assert.Empty(t, res.Username, "raw credentials only surface for local accounts")

	rec, err := store.FindOne(context.Background(), ports.UserFilter{Username: "bob"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Password)
}

func TestProfileUpdate_UsernameChangeMovesRecord(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})
	ctx := context.Background()

	newUsername := "alice2"
	res, err := svc.Update(ctx, localSession(), model.UpdateUserRequest{Username: &newUsername})
	require.NoError(t, err)
	assert.True(t, res.UsernameChanged)
	assert.Equal(t, "alice2", res.Username)
	assert.Equal(t, "s3cret", res.Password)

	// The record now lives under the new username only.
	old, err := store.FindOne(ctx, ports.UserFilter{Username: "alice"})
	require.NoError(t, err)
	assert.Nil(t, old)

	moved, err := store.FindOne(ctx, ports.UserFilter{Username: "alice2"})
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, "u-local-1", moved.ID)

	// A session still bound to the old username no longer resolves.
	_, err = svc.Load(ctx, localSession())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProfileUpdate_PaddedUsernameIsNormalized(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})
	ctx := context.Background()

	padded := "  bob "
	res, err := svc.Update(ctx, localSession(), model.UpdateUserRequest{Username: &padded})
	require.NoError(t, err)
	assert.True(t, res.UsernameChanged)
	assert.Equal(t, "bob", res.Username, "re-mint uses the trimmed username")
	assert.Equal(t, "bob", res.User.Username)

	// The record is found under the trimmed username, never the padded one.
	moved, err := store.FindOne(ctx, ports.UserFilter{Username: "bob"})
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, "u-local-1", moved.ID)

	padded2, err := store.FindOne(ctx, ports.UserFilter{Username: "  bob "})
	require.NoError(t, err)
	assert.Nil(t, padded2)
}

func TestProfileUpdate_BlankUsernameRejected(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})

	blank := "   "
	_, err := svc.Update(context.Background(), localSession(), model.UpdateUserRequest{Username: &blank})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProfileUpdate_MissingRecord(t *testing.T) {
	svc := NewProfileService(ProfileServiceOptions{Store: mockauth.NewMemoryUserStore()})

	name := "x"
	_, err := svc.Update(context.Background(), localSession(), model.UpdateUserRequest{FullName: &name})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "User not found", err.(*apperrors.AppError).Message)
}

func TestProfileUpdate_StoreFailure(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	store.FailWith = errors.New("connection reset")
	svc := NewProfileService(ProfileServiceOptions{Store: store})

	name := "x"
	_, err := svc.Update(context.Background(), localSession(), model.UpdateUserRequest{FullName: &name})
	assert.True(t, apperrors.IsStoreUnavailable(err))
}

func TestProfileDelete_TwiceIsNotFound(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	seedLocalUser(store)
	svc := NewProfileService(ProfileServiceOptions{Store: store})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, localSession()))
	assert.Equal(t, 0, store.Len())

	err := svc.Delete(ctx, localSession())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 0, store.Len(), "second delete has no side effects")
}
