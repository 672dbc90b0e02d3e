package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cradle-gate/internal/confirm"
	"cradle-gate/internal/domain"
	"cradle-gate/internal/output"
)

func newSelectRoleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select-role <institutional|retail>",
		Short: "Choose the account role and wait until it is active",
		Long: `Assign a role to the signed-in identity, then refresh the session until
its claims carry the new role. When the role is visible, or after the
configured number of checks, the landing URL is printed. The landing path
comes from routes_file when one is configured.

A role can be chosen only once.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.RoleInstitutional), string(domain.RoleRetail)},
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(args[0])
			if err != nil {
				return &output.CLIError{
					Summary:    fmt.Sprintf("unknown role %q", args[0]),
					Suggestion: "Choose institutional or retail",
					ExitCode:   output.ExitUsageError,
					Err:        err,
				}
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			table, err := a.routeTable("")
			if err != nil {
				return err
			}
			landing := c.URL(table.Targets.Landing)
			poller := confirm.NewPoller(c, landing,
				func(url string) { a.printer.Print("Landing: %s", url) },
				confirm.WithPolicy(a.cfg.Poll.Policy()),
				confirm.WithLogger(a.logger),
				confirm.WithStateListener(func(s confirm.State) {
					a.logger.Debug("role selection state", "state", s.String())
				}),
			)

			res, err := poller.Run(cmd.Context(), role)
			if err != nil {
				if res.State == confirm.StateCanceled {
					return &output.CLIError{Summary: "role selection canceled", ExitCode: output.ExitGeneral, Err: err}
				}
				return gateError("role assignment failed", err)
			}

			switch res.State {
			case confirm.StateConfirmed:
				a.printer.Success("role %s is active after %d attempt(s)", a.printer.Role(res.Role.String()), res.Attempts)
			case confirm.StateTimedOut:
				a.printer.Warning("role %s assigned but not yet in the session after %d attempt(s); continuing",
					res.Role, res.Attempts)
			}
			return nil
		},
	}
}
