package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newWhoamiCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity and its roles",
		Long: `Show the identity behind the session cookie, the role stored for it
and the role carried by the current session claims.

The session claims are refreshed first, so both roles reflect the gate's
current view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")

			c, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.RefreshSession(ctx); err != nil {
				return gateError("could not refresh session", err)
			}
			p, err := c.Me(ctx)
			if err != nil {
				return gateError("could not load profile", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(a.printer.Out())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			a.printer.Field("Identity", p.ID)
			a.printer.Field("Email", p.Email)
			a.printer.Field("Role", a.printer.Role(p.Role))
			a.printer.Field("Session role", a.printer.Role(p.SessionRole))
			if p.Role == "" {
				a.printer.Print("")
				a.printer.Print("No role selected yet. Run 'cradlectl select-role <institutional|retail>'.")
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
