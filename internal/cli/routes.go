package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/infrastructure/routes"
	"cradle-gate/internal/output"
)

func newRoutesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show the route classification table",
		Long: `Render the route table the gate classifies paths with. Without --file the
routes_file setting is used, and without either the built-in table.

Examples:
  cradlectl routes
  cradlectl routes --file deploy/routes.yaml
  cradlectl routes --check /institutional/orders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			check, _ := cmd.Flags().GetString("check")

			table, err := a.routeTable(file)
			if err != nil {
				return err
			}

			if check != "" {
				return a.classify(table, check)
			}
			return a.renderTable(table)
		},
	}
	cmd.Flags().String("file", "", "YAML route table (default: built-in table)")
	cmd.Flags().String("check", "", "classify a single path")
	return cmd
}

// routeTable loads file, falling back to the routes_file setting and then
// to the built-in table.
func (a *app) routeTable(file string) (*domain.RouteTable, error) {
	if file == "" {
		file = a.cfg.RoutesFile
	}
	table, err := routes.Load(file)
	if err != nil {
		return nil, &output.CLIError{
			Summary:  "could not load route table",
			Detail:   err.Error(),
			ExitCode: output.ExitConfig,
			Err:      err,
		}
	}
	return table, nil
}

func (a *app) renderTable(table *domain.RouteTable) error {
	out := a.printer.Out()

	rules := output.NewTable(out, "pattern", "class", "roles")
	for _, r := range table.Rules {
		rules.AddRow(r.Pattern, r.Class.String(), joinRoles(r.AllowedRoles()))
	}
	if err := rules.Render(); err != nil {
		return err
	}

	if len(table.Guards) > 0 {
		a.printer.Print("")
		guards := output.NewTable(out, "guard", "allowed", "fallback")
		for _, g := range table.Guards {
			guards.AddRow(g.Pattern, joinRoles(g.Allowed), g.Fallback)
		}
		if err := guards.Render(); err != nil {
			return err
		}
	}

	a.printer.Print("")
	a.printer.Field("Sign in", table.Targets.SignIn)
	a.printer.Field("Role select", table.Targets.RoleSelection)
	a.printer.Field("Denied", table.Targets.AccessDenied)
	a.printer.Field("Landing", table.Targets.Landing)
	return nil
}

func (a *app) classify(table *domain.RouteTable, path string) error {
	rule := table.Classify(path)
	a.printer.Field("Path", domain.NormalizePath(path))
	a.printer.Field("Class", rule.Class.String())
	if rule.Class != domain.ClassUnclassified {
		a.printer.Field("Rule", rule.Pattern)
		a.printer.Field("Roles", joinRoles(rule.AllowedRoles()))
	}
	if g, ok := table.GuardFor(path); ok {
		a.printer.Field("Guard", g.Pattern+" -> "+g.Fallback)
	}
	return nil
}

func joinRoles(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ",")
}
