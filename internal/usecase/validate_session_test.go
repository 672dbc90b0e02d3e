package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"cradle-gate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSession(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		cookie     string
		cached     *domain.CachedSession
		validator  *mockValidator
		wantUser   string
		wantErr    error
		wantKratos bool
		wantCached bool
	}{
		{
			name:       "cache hit skips kratos",
			cookie:     "session-abc",
			cached:     &domain.CachedSession{UserID: "user-123", Email: "test@example.com", CreatedAt: created},
			validator:  &mockValidator{},
			wantUser:   "user-123",
			wantCached: true,
		},
		{
			name:   "cache miss asks kratos",
			cookie: "session-xyz",
			validator: &mockValidator{identity: &domain.Identity{
				UserID: "user-456", Email: "new@example.com", CreatedAt: created,
			}},
			wantUser:   "user-456",
			wantKratos: true,
			wantCached: true,
		},
		{
			name:      "empty cookie",
			validator: &mockValidator{},
			wantErr:   domain.ErrSessionNotFound,
		},
		{
			name:       "kratos rejects",
			cookie:     "bad-session",
			validator:  &mockValidator{err: domain.ErrAuthFailed},
			wantErr:    domain.ErrAuthFailed,
			wantKratos: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMockCache()
			if tt.cached != nil {
				cache.Set(sessionKey(tt.cookie), *tt.cached)
			}
			uc := NewValidateSession(tt.validator, cache, slog.Default())

			identity, err := uc.Execute(context.Background(), tt.cookie)

			assert.Equal(t, tt.wantKratos, tt.validator.called)
			_, cached := cache.Get(sessionKey(tt.cookie))
			assert.Equal(t, tt.wantCached, cached)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, identity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, identity.UserID)
			assert.Equal(t, tt.cookie, identity.SessionID)
			assert.Equal(t, created, identity.CreatedAt)
		})
	}
}

func TestValidateSession_SendsKratosCookie(t *testing.T) {
	validator := &mockValidator{identity: &domain.Identity{UserID: "user-1"}}
	uc := NewValidateSession(validator, newMockCache(), slog.Default())

	_, err := uc.Execute(context.Background(), "session-xyz")
	require.NoError(t, err)
	assert.Equal(t, "ory_kratos_session=session-xyz", validator.cookie)
}

func TestSessionKey(t *testing.T) {
	key := sessionKey("session-abc")
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "session-abc")
	assert.Equal(t, key, sessionKey("session-abc"))
	assert.NotEqual(t, key, sessionKey("session-abd"))
}
