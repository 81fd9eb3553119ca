package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/registrylabs/registry-ui-api/internal/data/pgxutil"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// userColumns is the standard column list for user queries, matching the
// db tags on model.UserRecord.
const userColumns = `id, username, password, full_name, email, dob, provider, delegated_id, avatar, created_at`

// PGUserStore implements ports.UserStore on PostgreSQL through the pgx
// stdlib bridge. No-match lookups return (nil, nil) and no-match writes
// return false; errors are reserved for the store itself failing.
type PGUserStore struct {
	DB *sql.DB
}

// NewPGUserStore creates a new PGUserStore.
func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{DB: db}
}

var _ ports.UserStore = (*PGUserStore)(nil)

// FindOne retrieves the single user matching the filter, or nil when no
// user matches.
func (s *PGUserStore) FindOne(ctx context.Context, filter ports.UserFilter) (*model.UserRecord, error) {
	if filter.IsZero() {
		return nil, errors.New("user filter is required")
	}

	where, args := buildUserWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var out model.UserRecord
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &out, nil
}

// InsertOne inserts a new user record. The caller assigns the ID and
// CreatedAt before calling.
func (s *PGUserStore) InsertOne(ctx context.Context, rec *model.UserRecord) error {
	if rec == nil {
		return errors.New("user record is required")
	}

	return pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO users (
				`+userColumns+`
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
			)`,
			rec.ID,
			rec.Username,
			rec.Password,
			rec.FullName,
			rec.Email,
			rec.DOB,
			rec.Provider,
			rec.DelegatedID,
			rec.Avatar,
			rec.CreatedAt,
		)
		return err
	})
}

// UpdateOne applies the non-nil fields of update to the user matching the
// filter. It reports whether a user matched; an empty update still reports
// a match when the user exists.
func (s *PGUserStore) UpdateOne(ctx context.Context, filter ports.UserFilter, update ports.UserUpdate) (bool, error) {
	if filter.IsZero() {
		return false, errors.New("user filter is required")
	}

	where, whereArgs := buildUserWhere(filter)

	var matched bool
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		setClause, args := buildUserSetClause(update)
		if setClause == "" {
			// Nothing to change; matching semantics still apply.
			row := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE `+where+`)`, whereArgs...)
			return row.Scan(&matched)
		}

		// Renumber the WHERE placeholders to follow the SET args.
		offsetWhere, allArgs := shiftPlaceholders(where, whereArgs, len(args))
		ct, err := conn.Exec(ctx, `UPDATE users SET `+setClause+` WHERE `+offsetWhere, append(args, allArgs...)...)
		if err != nil {
			return err
		}
		matched = ct.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	return matched, nil
}

// DeleteOne removes the user matching the filter and reports whether a
// user was deleted.
func (s *PGUserStore) DeleteOne(ctx context.Context, filter ports.UserFilter) (bool, error) {
	if filter.IsZero() {
		return false, errors.New("user filter is required")
	}

	where, args := buildUserWhere(filter)

	var rows int64
	err := pgxutil.WithPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM users WHERE `+where, args...)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return rows > 0, nil
}

// buildUserWhere builds the WHERE clause for a filter. Multiple set fields
// are combined with AND.
func buildUserWhere(filter ports.UserFilter) (string, []any) {
	parts := make([]string, 0, 3)
	args := make([]any, 0, 3)
	nextIdx := func() int { return len(args) + 1 }

	if filter.ID != "" {
		parts = append(parts, fmt.Sprintf("id = $%d", nextIdx()))
		args = append(args, filter.ID)
	}
	if filter.Username != "" {
		parts = append(parts, fmt.Sprintf("username = $%d", nextIdx()))
		args = append(args, filter.Username)
	}
	if filter.DelegatedID != "" {
		parts = append(parts, fmt.Sprintf("delegated_id = $%d", nextIdx()))
		args = append(args, filter.DelegatedID)
	}
	return strings.Join(parts, " AND "), args
}

// buildUserSetClause builds the SQL SET clause and args for a partial
// update based on the non-nil fields of the update.
func buildUserSetClause(update ports.UserUpdate) (string, []any) {
	setParts := make([]string, 0, 5)
	args := make([]any, 0, 5)
	nextIdx := func() int { return len(args) + 1 }

	if update.FullName != nil {
		setParts = append(setParts, fmt.Sprintf("full_name = $%d", nextIdx()))
		args = append(args, *update.FullName)
	}
	if update.Username != nil {
		setParts = append(setParts, fmt.Sprintf("username = $%d", nextIdx()))
		args = append(args, *update.Username)
	}
	if update.Password != nil {
		setParts = append(setParts, fmt.Sprintf("password = $%d", nextIdx()))
		args = append(args, *update.Password)
	}
	if update.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", nextIdx()))
		args = append(args, *update.Email)
	}
	if update.DOB != nil {
		setParts = append(setParts, fmt.Sprintf("dob = $%d", nextIdx()))
		args = append(args, *update.DOB)
	}

	if len(setParts) == 0 {
		return "", nil
	}
	return strings.Join(setParts, ", "), args
}

// shiftPlaceholders renumbers $N placeholders in a WHERE clause so they
// follow offset preceding args.
func shiftPlaceholders(where string, args []any, offset int) (string, []any) {
	// Placeholders were generated as $1..$len(args) in order; rewrite
	// highest-first so $1 does not clobber $10.
	for i := len(args); i >= 1; i-- {
		where = strings.ReplaceAll(where, "$"+strconv.Itoa(i), "$"+strconv.Itoa(i+offset))
	}
	return where, args
}
