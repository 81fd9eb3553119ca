package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFor_Local(t *testing.T) {
	p := PolicyFor(ProviderLocal)

	assert.True(t, p.CanMutate(FieldUsername))
	assert.True(t, p.CanMutate(FieldPassword))
	assert.True(t, p.CanMutate(FieldFullName))
	assert.True(t, p.CanMutate(FieldEmail))
	assert.True(t, p.CanMutate(FieldDOB))
	assert.False(t, p.CanMutate(FieldAvatar))

	// Local reads include the stored password (retained behavior).
	assert.True(t, p.CanView(FieldPassword))
}

func TestPolicyFor_Delegated(t *testing.T) {
	p := PolicyFor(ProviderDelegated)

	// Identity fields belong to the external provider.
	assert.False(t, p.CanMutate(FieldUsername))
	assert.False(t, p.CanMutate(FieldPassword))
	assert.False(t, p.CanView(FieldPassword))

	// Profile fields stay owner-mutable regardless of provider.
	assert.True(t, p.CanMutate(FieldFullName))
	assert.True(t, p.CanMutate(FieldEmail))
	assert.True(t, p.CanMutate(FieldDOB))
}

func TestPolicyFor_UnknownProviderIsRestrictive(t *testing.T) {
	p := PolicyFor(Provider("github"))

	assert.False(t, p.CanMutate(FieldPassword))
	assert.False(t, p.CanView(FieldPassword))
}

func TestProviderValid(t *testing.T) {
	assert.True(t, ProviderLocal.Valid())
	assert.True(t, ProviderDelegated.Valid())
	assert.False(t, Provider("").Valid())
	assert.False(t, Provider("github").Valid())
}

func TestSessionIsLocal(t *testing.T) {
	assert.True(t, Session{Provider: ProviderLocal}.IsLocal())
	assert.False(t, Session{Provider: ProviderDelegated}.IsLocal())
}
