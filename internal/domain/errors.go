package domain

import (
	"errors"
	"fmt"
)

// Authentication errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrSessionInactive = errors.New("session is not active")
	ErrMissingIdentity = errors.New("missing identity in session")
	ErrNoSession       = errors.New("no authenticated session")
)

// Role errors.
var (
	ErrInvalidRole         = errors.New("invalid role")
	ErrRoleAlreadySet      = errors.New("role already set")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrConfirmationTimeout = errors.New("role confirmation timed out")
)

// Token errors.
var (
	ErrTokenGeneration   = errors.New("token generation failed")
	ErrInvalidClaims     = errors.New("invalid session claims")
	ErrCSRFSecretMissing = errors.New("CSRF secret not configured")
	ErrCSRFMismatch      = errors.New("CSRF token mismatch")
)

// External service errors.
var (
	ErrKratosUnavailable    = errors.New("identity provider unavailable")
	ErrRoleStoreUnavailable = errors.New("role store unavailable")
	ErrAdminNotConfigured   = errors.New("admin API not configured")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// IsCollaboratorUnavailable reports whether err comes from a transient
// identity provider or role store failure.
func IsCollaboratorUnavailable(err error) bool {
	return errors.Is(err, ErrKratosUnavailable) || errors.Is(err, ErrRoleStoreUnavailable)
}

// GateErrorKind classifies failures raised while evaluating the gate.
type GateErrorKind string

const (
	GateErrCollaboratorUnavailable GateErrorKind = "collaborator_unavailable"
	GateErrInternal                GateErrorKind = "internal"
)

// GateError is returned by gate evaluation. Every kind currently resolves
// to a Continue decision; see usecase.AuthorizeRequest.failOpen.
type GateError struct {
	Kind GateErrorKind
	Err  error
}

// NewGateError classifies err into a GateError.
func NewGateError(err error) *GateError {
	kind := GateErrInternal
	if IsCollaboratorUnavailable(err) {
		kind = GateErrCollaboratorUnavailable
	}
	return &GateError{Kind: kind, Err: err}
}

func (e *GateError) Error() string {
	return fmt.Sprintf("gate %s: %v", e.Kind, e.Err)
}

func (e *GateError) Unwrap() error {
	return e.Err
}
