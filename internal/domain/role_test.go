package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{"institutional", "institutional", RoleInstitutional, false},
		{"retail", "retail", RoleRetail, false},
		{"empty", "", RoleNone, true},
		{"legacy spelling rejected", "institution", RoleNone, true},
		{"uppercase rejected", "RETAIL", RoleNone, true},
		{"unknown", "admin", RoleNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidRole))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseStoredRole(t *testing.T) {
	role, migrated, err := ParseStoredRole("")
	assert.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, RoleNone, role)

	role, migrated, err = ParseStoredRole("institution")
	assert.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, RoleInstitutional, role)

	role, migrated, err = ParseStoredRole("retail")
	assert.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, RoleRetail, role)

	_, _, err = ParseStoredRole("broker")
	assert.True(t, errors.Is(err, ErrInvalidRole))
}

func TestContainsRole(t *testing.T) {
	allowed := []Role{RoleInstitutional, RoleRetail}

	assert.True(t, ContainsRole(allowed, RoleRetail))
	assert.False(t, ContainsRole(allowed, RoleNone))
	assert.False(t, ContainsRole([]Role{RoleRetail}, RoleInstitutional))
	assert.False(t, ContainsRole([]Role{RoleNone}, RoleNone))
}

func TestValidRoles_ReturnsCopy(t *testing.T) {
	roles := ValidRoles()
	roles[0] = "tampered"

	assert.Equal(t, []Role{RoleInstitutional, RoleRetail}, ValidRoles())
}
