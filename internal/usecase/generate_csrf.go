package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"cradle-gate/internal/domain"
)

// GenerateCSRF issues and checks CSRF tokens bound to a Kratos session.
type GenerateCSRF struct {
	sessions *ValidateSession
	csrf     domain.CSRFTokenGenerator
	logger   *slog.Logger
}

// NewGenerateCSRF creates a new GenerateCSRF usecase.
func NewGenerateCSRF(s *ValidateSession, csrf domain.CSRFTokenGenerator, l *slog.Logger) *GenerateCSRF {
	return &GenerateCSRF{sessions: s, csrf: csrf, logger: l}
}

// Execute validates the session cookie and generates a CSRF token for it.
func (uc *GenerateCSRF) Execute(ctx context.Context, cookieValue string) (string, error) {
	if cookieValue == "" {
		return "", domain.ErrSessionNotFound
	}

	if _, err := uc.sessions.Execute(ctx, cookieValue); err != nil {
		return "", err
	}

	token, err := uc.csrf.Generate(cookieValue)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to generate CSRF token", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	uc.logger.DebugContext(ctx, "csrf token issued")
	return token, nil
}

// Verify checks token against the session it was issued for.
func (uc *GenerateCSRF) Verify(cookieValue, token string) error {
	return uc.csrf.Verify(cookieValue, token)
}
