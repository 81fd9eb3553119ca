package devseed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	mockauth "github.com/registrylabs/registry-ui-api/internal/mocks/auth"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

func TestSeedCreatesDefaultUser(t *testing.T) {
	store := mockauth.NewMemoryUserStore()

	require.NoError(t, Seed(context.Background(), store, Options{}))

	rec, err := store.FindOne(context.Background(), ports.UserFilter{Username: "dev"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "dev", rec.Password)
	assert.Equal(t, domainauth.ProviderLocal, rec.Provider)
	assert.NotEmpty(t, rec.ID)
}

func TestSeedIsIdempotent(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store, Options{Username: "alice", Password: "pw"}))
	require.NoError(t, Seed(ctx, store, Options{Username: "alice", Password: "pw"}))
	assert.Equal(t, 1, store.Len())
}

func TestSeedSurfacesStoreErrors(t *testing.T) {
	store := mockauth.NewMemoryUserStore()
	store.FailWith = errors.New("connection refused")

	assert.Error(t, Seed(context.Background(), store, Options{}))
}
