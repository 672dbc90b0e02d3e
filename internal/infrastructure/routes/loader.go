// Package routes loads the route classification table from YAML.
package routes

import (
	"fmt"
	"os"

	"cradle-gate/internal/domain"

	"gopkg.in/yaml.v3"
)

type fileTable struct {
	Targets fileTargets `yaml:"targets"`
	Routes  []fileRoute `yaml:"routes"`
	Guards  []fileGuard `yaml:"guards"`
}

type fileTargets struct {
	SignIn        string `yaml:"sign_in"`
	RoleSelection string `yaml:"role_selection"`
	AccessDenied  string `yaml:"access_denied"`
	Landing       string `yaml:"landing"`
}

type fileRoute struct {
	Pattern string   `yaml:"pattern"`
	Class   string   `yaml:"class"`
	Roles   []string `yaml:"roles"`
}

type fileGuard struct {
	Pattern  string   `yaml:"pattern"`
	Allowed  []string `yaml:"allowed"`
	Fallback string   `yaml:"fallback"`
}

// Load reads a route table from path. An empty path returns the built-in table.
func Load(path string) (*domain.RouteTable, error) {
	if path == "" {
		return domain.DefaultRouteTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("route table %s: %w", path, err)
	}
	return table, nil
}

// Parse decodes and validates a YAML route table. Redirect targets left out
// of the document keep their built-in values.
func Parse(data []byte) (*domain.RouteTable, error) {
	var doc fileTable
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(doc.Routes) == 0 {
		return nil, fmt.Errorf("no routes defined")
	}

	table := &domain.RouteTable{Targets: domain.DefaultRouteTable().Targets}
	overrideTarget(&table.Targets.SignIn, doc.Targets.SignIn)
	overrideTarget(&table.Targets.RoleSelection, doc.Targets.RoleSelection)
	overrideTarget(&table.Targets.AccessDenied, doc.Targets.AccessDenied)
	overrideTarget(&table.Targets.Landing, doc.Targets.Landing)

	for i, r := range doc.Routes {
		class, err := domain.ParseRouteClass(r.Class)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		roles, err := parseRoles(r.Roles)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		table.Rules = append(table.Rules, domain.RouteRule{Pattern: r.Pattern, Class: class, Roles: roles})
	}

	for i, g := range doc.Guards {
		allowed, err := parseRoles(g.Allowed)
		if err != nil {
			return nil, fmt.Errorf("guard %d: %w", i, err)
		}
		fallback := g.Fallback
		if fallback == "" {
			fallback = table.Targets.AccessDenied
		}
		table.Guards = append(table.Guards, domain.GuardRule{Pattern: g.Pattern, Allowed: allowed, Fallback: fallback})
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func parseRoles(names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	roles := make([]domain.Role, 0, len(names))
	for _, n := range names {
		r, err := domain.ParseRole(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func overrideTarget(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
