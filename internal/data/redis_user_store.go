package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// Redis key layout. The record itself lives under the id key as a JSON
// document; username and delegated-id lookups go through index keys that
// hold the id.
const (
	redisUserKeyPrefix      = "registry:user:"
	redisUsernameKeyPrefix  = "registry:user:by-username:"
	redisDelegatedKeyPrefix = "registry:user:by-delegated:"
)

// RedisUserStore implements ports.UserStore on Redis for light deployments
// that do not warrant a PostgreSQL instance. Records are JSON documents
// keyed by id, with secondary index keys for username and delegated id.
// Uniqueness of both is enforced with SETNX on the index keys.
type RedisUserStore struct {
	client redis.UniversalClient
}

// NewRedisUserStore creates a new RedisUserStore with the given client.
func NewRedisUserStore(client redis.UniversalClient) *RedisUserStore {
	return &RedisUserStore{client: client}
}

var _ ports.UserStore = (*RedisUserStore)(nil)

// FindOne retrieves the single user matching the filter, or nil when no
// user matches.
func (s *RedisUserStore) FindOne(ctx context.Context, filter ports.UserFilter) (*model.UserRecord, error) {
	if filter.IsZero() {
		return nil, errors.New("user filter is required")
	}

	rec, err := s.fetch(ctx, filter)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// InsertOne inserts a new user record. The caller assigns the ID and
// CreatedAt before calling.
func (s *RedisUserStore) InsertOne(ctx context.Context, rec *model.UserRecord) error {
	if rec == nil {
		return errors.New("user record is required")
	}

	for i, idx := range insertIndexKeys(rec) {
		ok, err := s.client.SetNX(ctx, idx.key, rec.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("redis set %s index: %w", idx.field, err)
		}
		if !ok {
			// Roll back only the indexes this insert reserved, so a
			// retry can succeed.
			for _, prev := range insertIndexKeys(rec)[:i] {
				_ = s.client.Del(ctx, prev.key).Err()
			}
			return apperrors.ConflictField(idx.field, "This value already exists. Please choose a different one.")
		}
	}

	return s.writeDoc(ctx, rec)
}

// UpdateOne applies the non-nil fields of update to the user matching the
// filter. It reports whether a user matched; an empty update still reports
// a match when the user exists.
func (s *RedisUserStore) UpdateOne(ctx context.Context, filter ports.UserFilter, update ports.UserUpdate) (bool, error) {
	if filter.IsZero() {
		return false, errors.New("user filter is required")
	}

	rec, err := s.fetch(ctx, filter)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	if update.IsZero() {
		return true, nil
	}

	oldUsername := rec.Username
	applyUserUpdate(rec, update)

	if rec.Username != oldUsername {
		ok, err := s.client.SetNX(ctx, usernameKey(rec.Username), rec.ID, 0).Result()
		if err != nil {
			return false, fmt.Errorf("redis move username index: %w", err)
		}
		if !ok {
			return false, apperrors.ConflictField("username", "This value already exists. Please choose a different one.")
		}
		if err := s.client.Del(ctx, usernameKey(oldUsername)).Err(); err != nil {
			return false, fmt.Errorf("redis drop old username index: %w", err)
		}
	}

	if err := s.writeDoc(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOne removes the user matching the filter and reports whether a
// user was deleted.
func (s *RedisUserStore) DeleteOne(ctx context.Context, filter ports.UserFilter) (bool, error) {
	if filter.IsZero() {
		return false, errors.New("user filter is required")
	}

	rec, err := s.fetch(ctx, filter)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	keys := []string{userKey(rec.ID)}
	if rec.Username != "" {
		keys = append(keys, usernameKey(rec.Username))
	}
	if rec.DelegatedID != "" {
		keys = append(keys, delegatedKey(rec.DelegatedID))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return false, fmt.Errorf("redis delete user: %w", err)
	}
	return true, nil
}

// fetch resolves the filter to a record, or nil when nothing matches. A
// filter with several fields set must match on all of them.
func (s *RedisUserStore) fetch(ctx context.Context, filter ports.UserFilter) (*model.UserRecord, error) {
	id, err := s.resolveID(ctx, filter)
	if err != nil || id == "" {
		return nil, err
	}

	raw, err := s.client.Get(ctx, userKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get user: %w", err)
	}

	var rec model.UserRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode user document: %w", err)
	}
	if !matchesFilter(&rec, filter) {
		return nil, nil
	}
	return &rec, nil
}

// resolveID maps the filter to a record id via the index keys.
func (s *RedisUserStore) resolveID(ctx context.Context, filter ports.UserFilter) (string, error) {
	if filter.ID != "" {
		return filter.ID, nil
	}

	var key string
	switch {
	case filter.Username != "":
		key = usernameKey(filter.Username)
	case filter.DelegatedID != "":
		key = delegatedKey(filter.DelegatedID)
	default:
		return "", nil
	}

	id, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis resolve user id: %w", err)
	}
	return id, nil
}

func (s *RedisUserStore) writeDoc(ctx context.Context, rec *model.UserRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode user document: %w", err)
	}
	if err := s.client.Set(ctx, userKey(rec.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set user: %w", err)
	}
	return nil
}

func matchesFilter(rec *model.UserRecord, filter ports.UserFilter) bool {
	if filter.ID != "" && rec.ID != filter.ID {
		return false
	}
	if filter.Username != "" && rec.Username != filter.Username {
		return false
	}
	if filter.DelegatedID != "" && rec.DelegatedID != filter.DelegatedID {
		return false
	}
	return true
}

// userIndexKey pairs an index key with the field it guards, for conflict
// reporting.
type userIndexKey struct {
	field string
	key   string
}

// insertIndexKeys lists the index keys an insert must reserve for the
// record. Empty fields reserve nothing.
func insertIndexKeys(rec *model.UserRecord) []userIndexKey {
	keys := make([]userIndexKey, 0, 2)
	if rec.Username != "" {
		keys = append(keys, userIndexKey{field: "username", key: usernameKey(rec.Username)})
	}
	if rec.DelegatedID != "" {
		keys = append(keys, userIndexKey{field: "delegated_id", key: delegatedKey(rec.DelegatedID)})
	}
	return keys
}

// applyUserUpdate writes the non-nil fields of update onto the record.
func applyUserUpdate(rec *model.UserRecord, update ports.UserUpdate) {
	if update.FullName != nil {
		rec.FullName = *update.FullName
	}
	if update.Username != nil {
		rec.Username = *update.Username
	}
	if update.Password != nil {
		rec.Password = *update.Password
	}
	if update.Email != nil {
		rec.Email = *update.Email
	}
	if update.DOB != nil {
		rec.DOB = *update.DOB
	}
}

func userKey(id string) string               { return redisUserKeyPrefix + id }
func usernameKey(username string) string     { return redisUsernameKeyPrefix + username }
func delegatedKey(delegatedID string) string { return redisDelegatedKeyPrefix + delegatedID }
