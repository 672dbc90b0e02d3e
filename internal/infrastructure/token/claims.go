package token

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"cradle-gate/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsCookieName carries the signed session claims to the browser.
const ClaimsCookieName = "cradle_claims"

// ClaimsConfig holds session claims signing configuration.
type ClaimsConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// sessionClaims is the JWT body of a session token.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Sid   string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsCodec signs and verifies session claims tokens with HS256.
// Implements domain.ClaimsIssuer and domain.ClaimsReader.
type ClaimsCodec struct {
	cfg    ClaimsConfig
	parser *jwt.Parser
}

// NewClaimsCodec creates a new claims codec.
func NewClaimsCodec(cfg ClaimsConfig) *ClaimsCodec {
	return &ClaimsCodec{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// IssueClaims signs a token carrying role for identity.
func (c *ClaimsCodec) IssueClaims(identity *domain.Identity, role domain.Role) (string, time.Time, error) {
	if identity == nil || identity.UserID == "" {
		return "", time.Time{}, domain.ErrMissingIdentity
	}
	if role != domain.RoleNone && !role.Valid() {
		return "", time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	now := time.Now()
	expiresAt := now.Add(c.cfg.TTL)
	claims := sessionClaims{
		Email: identity.Email,
		Role:  role.String(),
		Sid:   fingerprint(identity.SessionID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ReadClaims verifies tokenString and returns its claims. Tokens carrying a
// role outside the canonical enumeration are rejected.
func (c *ClaimsCodec) ReadClaims(tokenString string) (*domain.SessionClaims, error) {
	var claims sessionClaims
	_, err := c.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(c.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidClaims, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidClaims)
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleNone && !role.Valid() {
		return nil, errors.Join(domain.ErrInvalidClaims, fmt.Errorf("%w: %q", domain.ErrInvalidRole, claims.Role))
	}

	out := &domain.SessionClaims{
		Subject:   claims.Subject,
		Role:      role,
		SessionID: claims.Sid,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// fingerprint keeps the raw session cookie out of the token.
func fingerprint(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}
