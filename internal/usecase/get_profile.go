package usecase

import (
	"context"
	"log/slog"

	"cradle-gate/internal/domain"
)

// Profile is the role view of the current identity.
type Profile struct {
	UserID      string
	Email       string
	Role        domain.Role
	SessionRole domain.Role
}

// GetProfile reads the stored role of the caller alongside the role carried
// by the caller's session token.
type GetProfile struct {
	resolver *RoleResolver
	claims   domain.ClaimsReader
	logger   *slog.Logger
}

// NewGetProfile creates a new GetProfile usecase.
func NewGetProfile(r *RoleResolver, c domain.ClaimsReader, l *slog.Logger) *GetProfile {
	return &GetProfile{resolver: r, claims: c, logger: l}
}

// Execute returns the profile of identity.
func (uc *GetProfile) Execute(ctx context.Context, identity *domain.Identity, claimsToken string) (*Profile, error) {
	if identity == nil || identity.UserID == "" {
		return nil, domain.ErrNoSession
	}

	role, err := uc.resolver.Lookup(ctx, identity.UserID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to read stored role", "user_id", identity.UserID, "error", err)
		return nil, err
	}

	return &Profile{
		UserID:      identity.UserID,
		Email:       identity.Email,
		Role:        role,
		SessionRole: sessionRole(ctx, uc.claims, claimsToken, identity, uc.logger),
	}, nil
}
