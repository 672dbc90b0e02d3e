package domain

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// RouteClass partitions the application route space.
type RouteClass int

const (
	ClassUnclassified RouteClass = iota
	ClassPublic
	ClassRoleSelection
	ClassShared
	ClassRoleSpecific
)

var routeClassNames = map[RouteClass]string{
	ClassUnclassified:  "unclassified",
	ClassPublic:        "public",
	ClassRoleSelection: "role_selection",
	ClassShared:        "shared",
	ClassRoleSpecific:  "role_specific",
}

func (c RouteClass) String() string {
	if name, ok := routeClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RouteClass(%d)", int(c))
}

// ParseRouteClass parses the configuration name of a route class.
func ParseRouteClass(s string) (RouteClass, error) {
	for class, name := range routeClassNames {
		if class != ClassUnclassified && name == s {
			return class, nil
		}
	}
	return ClassUnclassified, fmt.Errorf("unknown route class %q", s)
}

// RouteRule classifies every path matching Pattern.
// Roles lists the allowed roles for shared routes (empty means all valid
// roles) and the single required role for role-specific routes.
type RouteRule struct {
	Pattern string
	Class   RouteClass
	Roles   []Role
}

// Matches reports whether path falls under the rule.
func (r RouteRule) Matches(path string) bool {
	return MatchPattern(r.Pattern, path)
}

// AllowedRoles returns the roles permitted on the route.
func (r RouteRule) AllowedRoles() []Role {
	if r.Class == ClassShared && len(r.Roles) == 0 {
		return ValidRoles()
	}
	return r.Roles
}

// GuardRule re-checks the role of a path independently of the gate.
type GuardRule struct {
	Pattern  string
	Allowed  []Role
	Fallback string
}

// RedirectTargets are the fixed paths the gate redirects to.
type RedirectTargets struct {
	SignIn        string
	RoleSelection string
	AccessDenied  string
	Landing       string
}

// RouteTable is the static route classification consulted by the gate.
// Rules are evaluated in order and the first match wins.
type RouteTable struct {
	Rules   []RouteRule
	Guards  []GuardRule
	Targets RedirectTargets
}

// Classify returns the first rule matching path. Unmatched paths yield a
// rule with ClassUnclassified.
func (t *RouteTable) Classify(path string) RouteRule {
	path = NormalizePath(path)
	for _, rule := range t.Rules {
		if rule.Matches(path) {
			return rule
		}
	}
	return RouteRule{Pattern: path, Class: ClassUnclassified}
}

// GuardFor returns the guard protecting path, if any.
func (t *RouteTable) GuardFor(path string) (GuardRule, bool) {
	path = NormalizePath(path)
	for _, g := range t.Guards {
		if MatchPattern(g.Pattern, path) {
			return g, true
		}
	}
	return GuardRule{}, false
}

// RoleDependent reports whether the content served at path varies with the
// caller's role.
func (t *RouteTable) RoleDependent(path string) bool {
	path = NormalizePath(path)
	if path == "/" {
		return true
	}
	switch t.Classify(path).Class {
	case ClassRoleSelection, ClassShared, ClassRoleSpecific:
		return true
	}
	return false
}

// Validate checks the table for rules the gate cannot evaluate.
func (t *RouteTable) Validate() error {
	var errs []error
	for i, rule := range t.Rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			errs = append(errs, fmt.Errorf("rule %d: pattern %q must start with /", i, rule.Pattern))
		}
		if rule.Class == ClassUnclassified {
			errs = append(errs, fmt.Errorf("rule %d: missing class", i))
		}
		if rule.Class == ClassRoleSpecific && len(rule.Roles) != 1 {
			errs = append(errs, fmt.Errorf("rule %d: role_specific route %q needs exactly one role", i, rule.Pattern))
		}
		for _, r := range rule.Roles {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("rule %d: %w: %q", i, ErrInvalidRole, r))
			}
		}
	}
	for i, g := range t.Guards {
		if len(g.Allowed) == 0 {
			errs = append(errs, fmt.Errorf("guard %d: no allowed roles", i))
		}
		if g.Fallback == "" {
			errs = append(errs, fmt.Errorf("guard %d: missing fallback", i))
		}
	}
	targets := map[string]string{
		"sign_in":        t.Targets.SignIn,
		"role_selection": t.Targets.RoleSelection,
		"access_denied":  t.Targets.AccessDenied,
		"landing":        t.Targets.Landing,
	}
	for name, p := range targets {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("target %s: %q must be an absolute path", name, p))
		}
	}
	return errors.Join(errs...)
}

// MatchPattern matches path against an exact pattern or a prefix pattern
// ending in "*".
func MatchPattern(pattern, path string) bool {
	path = NormalizePath(path)
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return NormalizePath(pattern) == path
}

// CanonicalPath resolves dot segments and repeated slashes the way browsers
// and upstream servers do, keeping a trailing slash. Every routing decision
// and the proxied request must use the same canonical path.
func CanonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	c := path.Clean(p)
	if c != "/" && strings.HasSuffix(p, "/") {
		c += "/"
	}
	return c
}

// NormalizePath strips the query, canonicalizes, and drops any trailing
// slash except on the root.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = CanonicalPath(p)
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// DefaultRouteTable returns the built-in classification of the trading app.
func DefaultRouteTable() *RouteTable {
	both := []Role{RoleInstitutional, RoleRetail}
	return &RouteTable{
		Rules: []RouteRule{
			{Pattern: "/sign-in*", Class: ClassPublic},
			{Pattern: "/sign-up*", Class: ClassPublic},
			{Pattern: "/access-denied", Class: ClassPublic},
			{Pattern: "/about*", Class: ClassPublic},
			{Pattern: "/api/webhooks*", Class: ClassPublic},
			{Pattern: "/select-role*", Class: ClassRoleSelection},
			{Pattern: "/institutional*", Class: ClassRoleSpecific, Roles: []Role{RoleInstitutional}},
			{Pattern: "/listings/new*", Class: ClassRoleSpecific, Roles: []Role{RoleInstitutional}},
			{Pattern: "/retail*", Class: ClassRoleSpecific, Roles: []Role{RoleRetail}},
			{Pattern: "/trade*", Class: ClassShared, Roles: both},
			{Pattern: "/portfolio*", Class: ClassShared, Roles: both},
			{Pattern: "/markets*", Class: ClassShared, Roles: both},
			{Pattern: "/lend*", Class: ClassShared, Roles: both},
			{Pattern: "/faucet*", Class: ClassShared, Roles: both},
		},
		Guards: []GuardRule{
			{Pattern: "/institutional*", Allowed: []Role{RoleInstitutional}, Fallback: "/access-denied"},
			{Pattern: "/retail*", Allowed: []Role{RoleRetail}, Fallback: "/access-denied"},
		},
		Targets: RedirectTargets{
			SignIn:        "/sign-in",
			RoleSelection: "/select-role",
			AccessDenied:  "/access-denied",
			Landing:       "/trade",
		},
	}
}
