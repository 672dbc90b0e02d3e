package token

import (
	"errors"
	"testing"

	"cradle-gate/internal/domain"

	"github.com/stretchr/testify/assert"
)

const testCSRFSecret = "this-is-a-valid-csrf-secret-that-is-at-least-32-chars"

func TestCSRFSigner_Generate(t *testing.T) {
	gen := NewCSRFSigner(testCSRFSecret)

	token, err := gen.Generate("session-123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, gen.Enabled())
}

func TestCSRFSigner_Deterministic(t *testing.T) {
	gen := NewCSRFSigner(testCSRFSecret)

	token1, _ := gen.Generate("session-123")
	token2, _ := gen.Generate("session-123")
	assert.Equal(t, token1, token2)
}

func TestCSRFSigner_DifferentSessions(t *testing.T) {
	gen := NewCSRFSigner(testCSRFSecret)

	token1, _ := gen.Generate("session-1")
	token2, _ := gen.Generate("session-2")
	assert.NotEqual(t, token1, token2)
}

func TestCSRFSigner_EmptySecret(t *testing.T) {
	gen := NewCSRFSigner("")

	token, err := gen.Generate("session-123")
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, domain.ErrCSRFSecretMissing))
	assert.False(t, gen.Enabled())
	assert.ErrorIs(t, gen.Verify("session-123", "anything"), domain.ErrCSRFSecretMissing)
}

func TestCSRFSigner_Verify(t *testing.T) {
	gen := NewCSRFSigner(testCSRFSecret)
	token, err := gen.Generate("session-1")
	assert.NoError(t, err)

	tests := []struct {
		name      string
		sessionID string
		token     string
		wantErr   error
	}{
		{name: "matching token", sessionID: "session-1", token: token},
		{name: "other session", sessionID: "session-2", token: token, wantErr: domain.ErrCSRFMismatch},
		{name: "tampered token", sessionID: "session-1", token: token[:len(token)-3] + "AAA", wantErr: domain.ErrCSRFMismatch},
		{name: "not base64", sessionID: "session-1", token: "%%%", wantErr: domain.ErrCSRFMismatch},
		{name: "empty token", sessionID: "session-1", token: "", wantErr: domain.ErrCSRFMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gen.Verify(tt.sessionID, tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
