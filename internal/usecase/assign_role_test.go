package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"cradle-gate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssignRole(store domain.RoleStore, cache domain.RouteCache) *AssignRole {
	return NewAssignRole(store, cache, domain.DefaultRouteTable(), slog.New(slog.DiscardHandler))
}

func TestAssignRole_Success(t *testing.T) {
	store := newFakeRoleStore()
	cache := newMockRouteCache()
	uc := newAssignRole(store, cache)

	role, err := uc.Execute(context.Background(), &domain.Identity{UserID: testUserID}, "retail")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleRetail, role)
	assert.Equal(t, domain.RoleRetail, store.roles[testUserID])
	assert.ElementsMatch(t, []string{"/", "/select-role", "/trade"}, cache.invalidated[testUserID])
}

func TestAssignRole_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		identity  *domain.Identity
		requested string
		wantErr   error
	}{
		{name: "no session", identity: nil, requested: "retail", wantErr: domain.ErrNoSession},
		{name: "empty identity", identity: &domain.Identity{}, requested: "retail", wantErr: domain.ErrNoSession},
		{name: "unknown role", identity: &domain.Identity{UserID: testUserID}, requested: "admin", wantErr: domain.ErrInvalidRole},
		{name: "empty role", identity: &domain.Identity{UserID: testUserID}, requested: "", wantErr: domain.ErrInvalidRole},
		{name: "legacy spelling", identity: &domain.Identity{UserID: testUserID}, requested: "institution", wantErr: domain.ErrInvalidRole},
		{name: "wrong case", identity: &domain.Identity{UserID: testUserID}, requested: "Retail", wantErr: domain.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeRoleStore()
			cache := newMockRouteCache()
			uc := newAssignRole(store, cache)

			role, err := uc.Execute(context.Background(), tt.identity, tt.requested)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.RoleNone, role)
			assert.Empty(t, store.roles)
			assert.Empty(t, cache.invalidated)
		})
	}
}

func TestAssignRole_SecondAssignmentRejected(t *testing.T) {
	store := newFakeRoleStore()
	uc := newAssignRole(store, nil)
	identity := &domain.Identity{UserID: testUserID}

	_, err := uc.Execute(context.Background(), identity, "institutional")
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), identity, "retail")
	assert.ErrorIs(t, err, domain.ErrRoleAlreadySet)
	assert.Equal(t, domain.RoleInstitutional, store.roles[testUserID])

	_, err = uc.Execute(context.Background(), identity, "institutional")
	assert.ErrorIs(t, err, domain.ErrRoleAlreadySet)
}

func TestAssignRole_ConcurrentAssignmentsSingleWinner(t *testing.T) {
	store := newFakeRoleStore()
	uc := newAssignRole(store, newMockRouteCache())
	identity := &domain.Identity{UserID: testUserID}

	requests := []string{"institutional", "retail", "institutional", "retail", "retail", "institutional", "retail", "institutional"}
	errs := make([]error, len(requests))
	roles := make([]domain.Role, len(requests))

	var wg sync.WaitGroup
	for i, requested := range requests {
		wg.Add(1)
		go func(i int, requested string) {
			defer wg.Done()
			roles[i], errs[i] = uc.Execute(context.Background(), identity, requested)
		}(i, requested)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		if err == nil {
			winners++
			assert.Equal(t, store.roles[testUserID], roles[i])
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRoleAlreadySet)
	}
	assert.Equal(t, 1, winners)
}

func TestAssignRole_StoreFailure(t *testing.T) {
	store := newFakeRoleStore()
	store.setErr = errors.Join(domain.ErrRoleStoreUnavailable, errors.New("503 from admin API"))
	cache := newMockRouteCache()
	uc := newAssignRole(store, cache)

	_, err := uc.Execute(context.Background(), &domain.Identity{UserID: testUserID}, "retail")

	assert.ErrorIs(t, err, domain.ErrRoleStoreUnavailable)
	assert.Empty(t, cache.invalidated)
}

func TestAssignRole_InvalidationFailureDoesNotFail(t *testing.T) {
	store := newFakeRoleStore()
	cache := newMockRouteCache()
	cache.err = errors.New("redis down")
	uc := newAssignRole(store, cache)

	role, err := uc.Execute(context.Background(), &domain.Identity{UserID: testUserID}, "retail")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleRetail, role)
}

func TestAssignRole_RoundTripThroughProfile(t *testing.T) {
	store := newFakeRoleStore()
	logger := slog.New(slog.DiscardHandler)
	identity := &domain.Identity{UserID: testUserID, Email: "trader@example.com"}

	_, err := newAssignRole(store, nil).Execute(context.Background(), identity, "institutional")
	require.NoError(t, err)

	profile, err := NewGetProfile(NewRoleResolver(store, 0, logger), nil, logger).Execute(context.Background(), identity, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstitutional, profile.Role)
	assert.Equal(t, domain.RoleNone, profile.SessionRole)
}
