package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cradle-gate/internal/domain"
)

// SessionResult holds the data returned by GetSession.
type SessionResult struct {
	UserID    string
	Email     string
	Role      domain.Role
	SessionID string
	CreatedAt time.Time
	Token     string
	ExpiresAt time.Time
}

// GetSession validates the Kratos session and issues fresh session claims
// carrying the role currently in the role store.
type GetSession struct {
	sessions *ValidateSession
	resolver *RoleResolver
	issuer   domain.ClaimsIssuer
	logger   *slog.Logger
}

// NewGetSession creates a new GetSession usecase.
func NewGetSession(s *ValidateSession, r *RoleResolver, t domain.ClaimsIssuer, l *slog.Logger) *GetSession {
	return &GetSession{sessions: s, resolver: r, issuer: t, logger: l}
}

// Execute validates the session and signs new claims for it.
func (uc *GetSession) Execute(ctx context.Context, cookieValue string) (*SessionResult, error) {
	identity, err := uc.sessions.Execute(ctx, cookieValue)
	if err != nil {
		return nil, err
	}

	role, err := uc.resolver.Lookup(ctx, identity.UserID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to read role for session refresh", "user_id", identity.UserID, "error", err)
		return nil, err
	}

	token, expiresAt, err := uc.issuer.IssueClaims(identity, role)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to issue session claims", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}

	return &SessionResult{
		UserID:    identity.UserID,
		Email:     identity.Email,
		Role:      role,
		SessionID: identity.SessionID,
		CreatedAt: identity.CreatedAt,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
