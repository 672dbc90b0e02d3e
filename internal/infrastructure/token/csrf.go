package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"cradle-gate/internal/domain"
)

// csrfPurpose separates CSRF MACs from any other use of the same secret.
const csrfPurpose = "cradle-gate/csrf/v1\x00"

// CSRFSigner derives the CSRF token of a session as an HMAC-SHA256 of its
// cookie value. Tokens need no storage and die with the session.
type CSRFSigner struct {
	key []byte
}

func NewCSRFSigner(secret string) *CSRFSigner {
	return &CSRFSigner{key: []byte(secret)}
}

// Enabled is false when no secret is configured.
func (s *CSRFSigner) Enabled() bool { return len(s.key) > 0 }

func (s *CSRFSigner) Generate(sessionID string) (string, error) {
	if !s.Enabled() {
		return "", domain.ErrCSRFSecretMissing
	}
	return base64.RawURLEncoding.EncodeToString(s.mac(sessionID)), nil
}

// Verify compares in constant time.
func (s *CSRFSigner) Verify(sessionID, token string) error {
	if !s.Enabled() {
		return domain.ErrCSRFSecretMissing
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || !hmac.Equal(raw, s.mac(sessionID)) {
		return domain.ErrCSRFMismatch
	}
	return nil
}

func (s *CSRFSigner) mac(sessionID string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(csrfPurpose))
	h.Write([]byte(sessionID))
	return h.Sum(nil)
}
