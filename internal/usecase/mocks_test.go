package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cradle-gate/internal/domain"
)

// mockValidator implements domain.SessionValidator for testing.
type mockValidator struct {
	identity *domain.Identity
	err      error
	called   bool
	cookie   string
}

func (m *mockValidator) ValidateSession(_ context.Context, cookie string) (*domain.Identity, error) {
	m.called = true
	m.cookie = cookie
	if m.err != nil {
		return nil, m.err
	}
	identity := *m.identity
	return &identity, nil
}

// mockCache implements domain.SessionCache for testing.
type mockCache struct {
	entries map[string]domain.CachedSession
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]domain.CachedSession)}
}

func (m *mockCache) Get(sessionID string) (*domain.CachedSession, bool) {
	entry, found := m.entries[sessionID]
	if !found {
		return nil, false
	}
	return &entry, true
}

func (m *mockCache) Set(sessionID string, session domain.CachedSession) {
	m.entries[sessionID] = session
}

// fakeRoleStore implements domain.RoleStore with an atomic conditional write.
type fakeRoleStore struct {
	mu         sync.Mutex
	roles      map[string]domain.Role
	getErr     error
	setErr     error
	gets       int
	block      bool
	panicOnGet bool
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: make(map[string]domain.Role)}
}

func (f *fakeRoleStore) GetRole(ctx context.Context, identityID string) (domain.Role, error) {
	if f.panicOnGet {
		panic("role store exploded")
	}
	if f.block {
		<-ctx.Done()
		return domain.RoleNone, fmt.Errorf("%w: %w", domain.ErrRoleStoreUnavailable, ctx.Err())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return domain.RoleNone, f.getErr
	}
	return f.roles[identityID], nil
}

func (f *fakeRoleStore) SetRoleIfAbsent(_ context.Context, identityID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.roles[identityID] != domain.RoleNone {
		return domain.ErrRoleAlreadySet
	}
	f.roles[identityID] = role
	return nil
}

func (f *fakeRoleStore) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

// mockClaimsReader implements domain.ClaimsReader over a fixed token table.
type mockClaimsReader struct {
	tokens map[string]*domain.SessionClaims
}

func (m *mockClaimsReader) ReadClaims(token string) (*domain.SessionClaims, error) {
	claims, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidClaims
	}
	return claims, nil
}

// mockIssuer implements domain.ClaimsIssuer for testing.
type mockIssuer struct {
	token    string
	err      error
	lastRole domain.Role
}

func (m *mockIssuer) IssueClaims(_ *domain.Identity, role domain.Role) (string, time.Time, error) {
	m.lastRole = role
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return m.token, time.Unix(1_900_000_000, 0), nil
}

// mockRouteCache implements domain.RouteCache and records invalidations.
type mockRouteCache struct {
	mu          sync.Mutex
	invalidated map[string][]string
	err         error
}

func newMockRouteCache() *mockRouteCache {
	return &mockRouteCache{invalidated: make(map[string][]string)}
}

func (m *mockRouteCache) Get(context.Context, string, string) (*domain.CachedRoute, bool) {
	return nil, false
}

func (m *mockRouteCache) Set(context.Context, string, string, domain.CachedRoute) {}

func (m *mockRouteCache) Invalidate(_ context.Context, identityID string, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated[identityID] = append(m.invalidated[identityID], paths...)
	return m.err
}

// mockCSRFGenerator implements domain.CSRFTokenGenerator for testing.
type mockCSRFGenerator struct {
	token string
	err   error
}

func (m *mockCSRFGenerator) Generate(_ string) (string, error) {
	return m.token, m.err
}

func (m *mockCSRFGenerator) Verify(_ string, token string) error {
	if token != m.token {
		return domain.ErrCSRFMismatch
	}
	return nil
}
