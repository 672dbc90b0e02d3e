package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/trade*", "/trade", true},
		{"/trade*", "/trade/orders/42", true},
		{"/trade*", "/portfolio", false},
		{"/access-denied", "/access-denied", true},
		{"/access-denied", "/access-denied/", true},
		{"/access-denied", "/access-denied/more", false},
		{"/select-role*", "/select-role?next=/trade", true},
		{"/", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPattern(tt.pattern, tt.path))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", NormalizePath(""))
	assert.Equal(t, "/", NormalizePath("/"))
	assert.Equal(t, "/", NormalizePath("//"))
	assert.Equal(t, "/trade", NormalizePath("/trade/"))
	assert.Equal(t, "/trade", NormalizePath("/trade?pair=ETH"))
	assert.Equal(t, "/institutional/desk", NormalizePath("/trade/../institutional/desk"))
	assert.Equal(t, "/institutional/desk", NormalizePath("//institutional//desk/"))
	assert.Equal(t, "/institutional/desk", NormalizePath("/./institutional/./desk"))
	assert.Equal(t, "/", NormalizePath("/../.."))
}

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"":                              "/",
		"/":                             "/",
		"trade":                         "/trade",
		"/trade/":                       "/trade/",
		"/trade/../institutional/":      "/institutional/",
		"//institutional/desk":          "/institutional/desk",
		"/retail/./orders":              "/retail/orders",
		"/retail/orders/../../listings": "/listings",
		"/a/..//":                       "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalPath(in), "CanonicalPath(%q)", in)
	}
}

func TestRouteTable_NonCanonicalPaths(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		path      string
		class     RouteClass
		wantGuard bool
	}{
		{"/trade/../institutional/desk", ClassRoleSpecific, true},
		{"//institutional/desk", ClassRoleSpecific, true},
		{"/sign-in/../retail/orders", ClassRoleSpecific, true},
		{"/trade/./../retail//orders", ClassRoleSpecific, true},
		{"/institutional/../trade", ClassShared, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.class, table.Classify(tt.path).Class)
			_, guarded := table.GuardFor(tt.path)
			assert.Equal(t, tt.wantGuard, guarded)
		})
	}
}

func TestRouteTable_Classify(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		path  string
		class RouteClass
	}{
		{"/sign-in", ClassPublic},
		{"/sign-in/factor-two", ClassPublic},
		{"/access-denied", ClassPublic},
		{"/select-role", ClassRoleSelection},
		{"/trade", ClassShared},
		{"/markets/ETH-USD", ClassShared},
		{"/institutional/listings", ClassRoleSpecific},
		{"/listings/new", ClassRoleSpecific},
		{"/retail", ClassRoleSpecific},
		{"/settings", ClassUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.class, table.Classify(tt.path).Class)
		})
	}
}

func TestRouteTable_RoleDependent(t *testing.T) {
	table := DefaultRouteTable()

	assert.True(t, table.RoleDependent("/"))
	assert.True(t, table.RoleDependent("/select-role"))
	assert.True(t, table.RoleDependent("/trade"))
	assert.True(t, table.RoleDependent("/retail/offers"))
	assert.False(t, table.RoleDependent("/sign-in"))
	assert.False(t, table.RoleDependent("/settings"))
}

func TestRouteTable_GuardFor(t *testing.T) {
	table := DefaultRouteTable()

	g, ok := table.GuardFor("/institutional/desk")
	require.True(t, ok)
	assert.Equal(t, []Role{RoleInstitutional}, g.Allowed)
	assert.Equal(t, "/access-denied", g.Fallback)

	_, ok = table.GuardFor("/trade")
	assert.False(t, ok)
}

func TestRouteRule_AllowedRoles_SharedDefaultsToAll(t *testing.T) {
	rule := RouteRule{Pattern: "/trade*", Class: ClassShared}
	assert.Equal(t, ValidRoles(), rule.AllowedRoles())
}

func TestRouteTable_Validate(t *testing.T) {
	require.NoError(t, DefaultRouteTable().Validate())

	bad := &RouteTable{
		Rules: []RouteRule{
			{Pattern: "trade", Class: ClassShared},
			{Pattern: "/desk*", Class: ClassRoleSpecific, Roles: []Role{RoleInstitutional, RoleRetail}},
			{Pattern: "/x", Class: ClassShared, Roles: []Role{"institution"}},
		},
		Guards: []GuardRule{{Pattern: "/desk*"}},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with /")
	assert.Contains(t, err.Error(), "exactly one role")
	assert.Contains(t, err.Error(), "invalid role")
	assert.Contains(t, err.Error(), "no allowed roles")
	assert.Contains(t, err.Error(), "target sign_in")
}

func TestParseRouteClass(t *testing.T) {
	c, err := ParseRouteClass("role_specific")
	require.NoError(t, err)
	assert.Equal(t, ClassRoleSpecific, c)

	_, err = ParseRouteClass("unclassified")
	assert.Error(t, err)

	_, err = ParseRouteClass("admin")
	assert.Error(t, err)
}

func TestRedirectTo(t *testing.T) {
	targets := DefaultRouteTable().Targets

	d := RedirectTo(OutcomeAccessDenied, targets, "role mismatch")
	assert.True(t, d.IsRedirect())
	assert.Equal(t, "/access-denied", d.Location)

	d = RedirectTo(OutcomeContinue, targets, "noop")
	assert.False(t, d.IsRedirect())
	assert.Empty(t, d.Location)
}
