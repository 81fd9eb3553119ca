package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrylabs/registry-ui-api/internal/domain/auth"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
)

func TestUserRecord_View_LocalKeepsPassword(t *testing.T) {
	u := UserRecord{Username: "alice", Password: "p1", Provider: auth.ProviderLocal}

	out := u.View(auth.PolicyFor(auth.ProviderLocal))

	assert.Equal(t, "p1", out.Password)
	assert.Equal(t, "alice", out.Username)
}

func TestUserRecord_View_DelegatedStripsPassword(t *testing.T) {
	u := UserRecord{Username: "octocat", Password: "should-not-leak", Provider: auth.ProviderDelegated}

	out := u.View(auth.PolicyFor(auth.ProviderDelegated))

	assert.Empty(t, out.Password)
	// Original record is untouched.
	assert.Equal(t, "should-not-leak", u.Password)
}

func TestUpdateUserRequest_IsEmpty(t *testing.T) {
	assert.True(t, UpdateUserRequest{}.IsEmpty())

	email := "a@x.com"
	assert.False(t, UpdateUserRequest{Email: &email}.IsEmpty())
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	ok := "bob"
	require.NoError(t, UpdateUserRequest{Username: &ok}.Validate())

	blank := "   "
	err := UpdateUserRequest{Username: &blank}.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
