// Package auth contains simple hand-written test doubles for the auth and
// store ports. These are lightweight and suitable for unit tests without
// codegen.
package auth

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	"github.com/registrylabs/registry-ui-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.UserStore        = (*MemoryUserStore)(nil)
)

// MockIdentityProvider simulates an IdP for tests with deterministic
// state/nonce handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalProfile, error)

	AuthURL        string
	StatePrefix    string
	NoncePrefix    string
	DefaultProfile domainauth.ExternalProfile

	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible
// defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultProfile: domainauth.ExternalProfile{
			ExternalID:  "mock-external-1",
			Email:       "mock.user@example.com",
			DisplayName: "Mock User",
			LoginHandle: "mockuser",
			AvatarURL:   "https://mock-idp/avatar.png",
		},
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.callCount++
	state := fmt.Sprintf("%s-%d", m.StatePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", m.NoncePrefix, m.callCount)
	return m.AuthURL + "?state=" + state, state, nonce, nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalProfile, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	return m.DefaultProfile, nil
}

// MemoryUserStore is an in-memory ports.UserStore for tests. It mirrors
// the no-match semantics of the real adapters: nil/false rather than an
// error. FailWith forces every call to return that error, for exercising
// store-failure paths.
type MemoryUserStore struct {
	mu       sync.Mutex
	records  map[string]*model.UserRecord // keyed by id
	FailWith error
}

// NewMemoryUserStore creates an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{records: map[string]*model.UserRecord{}}
}

// Seed inserts a record directly, bypassing error injection.
func (s *MemoryUserStore) Seed(rec model.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := rec
	s.records[rec.ID] = &cp
}

// Len reports the number of stored records.
func (s *MemoryUserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryUserStore) FindOne(_ context.Context, filter ports.UserFilter) (*model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	rec := s.match(filter)
	if rec == nil {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryUserStore) InsertOne(_ context.Context, rec *model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *MemoryUserStore) UpdateOne(_ context.Context, filter ports.UserFilter, update ports.UserUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}
	rec := s.match(filter)
	if rec == nil {
		return false, nil
	}
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
	return true, nil
}

func (s *MemoryUserStore) DeleteOne(_ context.Context, filter ports.UserFilter) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}
	rec := s.match(filter)
	if rec == nil {
		return false, nil
	}
	delete(s.records, rec.ID)
	return true, nil
}

// match returns the stored record matching every set filter field, or nil.
func (s *MemoryUserStore) match(filter ports.UserFilter) *model.UserRecord {
	if filter.IsZero() {
		return nil
	}
	for _, rec := range s.records {
		if filter.ID != "" && rec.ID != filter.ID {
			continue
		}
		if filter.Username != "" && rec.Username != filter.Username {
			continue
		}
		if filter.DelegatedID != "" && rec.DelegatedID != filter.DelegatedID {
			continue
		}
		return rec
	}
	return nil
}
