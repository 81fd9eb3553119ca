// Package devseed populates the user store with a known local account so
// a fresh development environment is immediately sign-in-able.
package devseed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// Options controls the seeded account. Zero values fall back to the
// defaults below.
type Options struct {
	Username string
	Password string
	FullName string
	Email    string
	Logger   *slog.Logger
}

const (
	defaultUsername = "dev"
	defaultPassword = "dev"
)

// Seed ensures the dev account exists. Re-running against a store that
// already has the account is a no-op, so restarts are safe.
func Seed(ctx context.Context, store ports.UserStore, opts Options) error {
	username := opts.Username
	if username == "" {
		username = defaultUsername
	}
	password := opts.Password
	if password == "" {
		password = defaultPassword
	}

	existing, err := store.FindOne(ctx, ports.UserFilter{Username: username})
	if err != nil {
		return fmt.Errorf("look up dev user: %w", err)
	}
	if existing != nil {
		if opts.Logger != nil {
			opts.Logger.InfoContext(ctx, "dev user already present", "username", username)
		}
		return nil
	}

	rec := &model.UserRecord{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  password,
		FullName:  opts.FullName,
		Email:     opts.Email,
		Provider:  domainauth.ProviderLocal,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert dev user: %w", err)
	}

	if opts.Logger != nil {
		opts.Logger.InfoContext(ctx, "seeded dev user", "username", username)
	}
	return nil
}
