package data

import (
	"context"
	"database/sql"

	"github.com/registrylabs/registry-ui-api/internal/migrate"
)

// RunMigrations sets up the users schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
