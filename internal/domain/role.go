package domain

import (
	"fmt"
	"slices"
)

// Role is the single account classification that controls route access.
type Role string

const (
	// RoleNone means the identity has not selected a role yet.
	RoleNone          Role = ""
	RoleInstitutional Role = "institutional"
	RoleRetail        Role = "retail"
)

// legacyInstitution is an older spelling of RoleInstitutional still present
// in identities created before the enumeration was fixed.
const legacyInstitution = "institution"

var validRoles = []Role{RoleInstitutional, RoleRetail}

// ValidRoles returns the canonical role enumeration.
func ValidRoles() []Role {
	return slices.Clone(validRoles)
}

// Valid reports whether r is a canonical role.
func (r Role) Valid() bool {
	return slices.Contains(validRoles, r)
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role supplied by a caller. Only canonical spellings
// are accepted.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// ParseStoredRole parses a role read back from a store or a session token.
// An empty value yields RoleNone. The legacy spelling is mapped to
// RoleInstitutional and migrated is set so the caller can log it.
func ParseStoredRole(s string) (role Role, migrated bool, err error) {
	switch s {
	case "":
		return RoleNone, false, nil
	case legacyInstitution:
		return RoleInstitutional, true, nil
	}
	r, err := ParseRole(s)
	if err != nil {
		return RoleNone, false, err
	}
	return r, false, nil
}

// ContainsRole reports whether role is one of allowed.
func ContainsRole(allowed []Role, role Role) bool {
	if !role.Valid() {
		return false
	}
	return slices.Contains(allowed, role)
}
