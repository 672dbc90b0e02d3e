package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo is stamped at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Built   string
}

func newVersionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			short, _ := cmd.Flags().GetBool("short")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			w := cmd.OutOrStdout()

			if short {
				fmt.Fprintln(w, a.version.Version)
				return nil
			}
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"version":   a.version.Version,
					"commit":    a.version.Commit,
					"built":     a.version.Built,
					"goVersion": runtime.Version(),
					"platform":  runtime.GOOS + "/" + runtime.GOARCH,
				})
			}

			fmt.Fprintf(w, "cradlectl version %s\n", a.version.Version)
			fmt.Fprintf(w, "  commit:     %s\n", a.version.Commit)
			fmt.Fprintf(w, "  built:      %s\n", a.version.Built)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().Bool("short", false, "print version string only")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
