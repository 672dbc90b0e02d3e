package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cradle-gate/internal/domain"
	"cradle-gate/metrics"
)

// GateRequest carries what the gate needs from an inbound request.
type GateRequest struct {
	Path          string
	SessionCookie string
	ClaimsToken   string
}

// GateResult is the gate decision plus what was learned on the way.
// Identity is nil for unauthenticated callers or when it was not needed.
type GateResult struct {
	Decision domain.Decision
	Identity *domain.Identity
	Role     domain.Role
}

// AuthorizeRequest is the per-request authorization gate.
type AuthorizeRequest struct {
	sessions *ValidateSession
	claims   domain.ClaimsReader
	resolver *RoleResolver
	routes   *domain.RouteTable
	logger   *slog.Logger
}

// NewAuthorizeRequest creates a new AuthorizeRequest usecase.
func NewAuthorizeRequest(s *ValidateSession, c domain.ClaimsReader, r *RoleResolver, routes *domain.RouteTable, l *slog.Logger) *AuthorizeRequest {
	return &AuthorizeRequest{sessions: s, claims: c, resolver: r, routes: routes, logger: l}
}

// Authorize evaluates req and never fails: evaluation errors and panics are
// routed through failOpen.
func (uc *AuthorizeRequest) Authorize(ctx context.Context, req GateRequest) (res GateResult) {
	defer func() {
		if p := recover(); p != nil {
			res = uc.failOpen(ctx, req, domain.NewGateError(fmt.Errorf("panic during evaluation: %v", p)))
		}
		metrics.RecordGateDecision(res.Decision.Outcome.String())
	}()

	var err error
	res, err = uc.Evaluate(ctx, req)
	if err != nil {
		var gateErr *domain.GateError
		if !errors.As(err, &gateErr) {
			gateErr = domain.NewGateError(err)
		}
		return uc.failOpen(ctx, req, gateErr)
	}
	return res
}

// failOpen decides what a failed evaluation resolves to. Every GateError kind
// currently continues so a collaborator outage does not lock users out.
// Changing a branch here changes the gate's failure policy.
func (uc *AuthorizeRequest) failOpen(ctx context.Context, req GateRequest, gateErr *domain.GateError) GateResult {
	uc.logger.WarnContext(ctx, "gate evaluation failed, failing open",
		"path", req.Path,
		"kind", string(gateErr.Kind),
		"error", gateErr.Err)
	metrics.RecordGateFailOpen(string(gateErr.Kind))

	switch gateErr.Kind {
	case domain.GateErrCollaboratorUnavailable:
		return GateResult{Decision: domain.Continue("fail open: collaborator unavailable")}
	case domain.GateErrInternal:
		return GateResult{Decision: domain.Continue("fail open: internal error")}
	default:
		return GateResult{Decision: domain.Continue("fail open: " + string(gateErr.Kind))}
	}
}

// Evaluate runs the gate rules in order; the first match wins.
func (uc *AuthorizeRequest) Evaluate(ctx context.Context, req GateRequest) (GateResult, error) {
	path := domain.NormalizePath(req.Path)
	targets := uc.routes.Targets

	if path == "/" {
		identity, err := uc.authenticate(ctx, req.SessionCookie)
		if err != nil {
			return GateResult{}, err
		}
		if identity == nil {
			return GateResult{Decision: domain.Continue("public landing")}, nil
		}
		role := uc.resolve(ctx, req, identity)
		if role.Valid() {
			return GateResult{
				Decision: domain.RedirectTo(domain.OutcomeLanding, targets, "role resolved on root"),
				Identity: identity,
				Role:     role,
			}, nil
		}
		return GateResult{
			Decision: domain.RedirectTo(domain.OutcomeRoleSelection, targets, "no role on root"),
			Identity: identity,
		}, nil
	}

	rule := uc.routes.Classify(path)
	if rule.Class == domain.ClassPublic {
		return GateResult{Decision: domain.Continue("public route")}, nil
	}

	identity, err := uc.authenticate(ctx, req.SessionCookie)
	if err != nil {
		return GateResult{}, err
	}
	if identity == nil {
		return GateResult{Decision: domain.RedirectTo(domain.OutcomeSignIn, targets, "not authenticated")}, nil
	}

	role := uc.resolve(ctx, req, identity)
	result := GateResult{Identity: identity, Role: role}

	switch {
	case rule.Class == domain.ClassRoleSelection && role.Valid():
		result.Decision = domain.RedirectTo(domain.OutcomeLanding, targets, "role already selected")
	case !role.Valid() && rule.Class != domain.ClassRoleSelection:
		result.Decision = domain.RedirectTo(domain.OutcomeRoleSelection, targets, "no role")
	case rule.Class == domain.ClassShared:
		if domain.ContainsRole(rule.AllowedRoles(), role) {
			result.Decision = domain.Continue("shared route")
		} else {
			result.Decision = domain.RedirectTo(domain.OutcomeAccessDenied, targets, "role not allowed on shared route")
		}
	case rule.Class == domain.ClassRoleSpecific:
		if len(rule.Roles) == 1 && role == rule.Roles[0] {
			result.Decision = domain.Continue("role-specific route")
		} else {
			result.Decision = domain.RedirectTo(domain.OutcomeAccessDenied, targets, "role mismatch")
		}
	default:
		result.Decision = domain.Continue("default")
	}
	return result, nil
}

// authenticate returns the caller's identity, or nil when the caller has no
// valid session. Only identity provider outages are returned as errors.
func (uc *AuthorizeRequest) authenticate(ctx context.Context, cookieValue string) (*domain.Identity, error) {
	if cookieValue == "" {
		return nil, nil
	}

	identity, err := uc.sessions.Execute(ctx, cookieValue)
	if err == nil {
		return identity, nil
	}
	if domain.IsCollaboratorUnavailable(err) {
		return nil, domain.NewGateError(err)
	}

	uc.logger.DebugContext(ctx, "session rejected", "error", err)
	return nil, nil
}

func (uc *AuthorizeRequest) resolve(ctx context.Context, req GateRequest, identity *domain.Identity) domain.Role {
	claimsRole := sessionRole(ctx, uc.claims, req.ClaimsToken, identity, uc.logger)
	return uc.resolver.Resolve(ctx, identity.UserID, claimsRole)
}
