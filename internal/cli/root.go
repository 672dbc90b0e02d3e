// Package cli implements the cradlectl commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cradle-gate/internal/client"
	"cradle-gate/internal/output"
)

// app carries state shared by the commands of one invocation.
type app struct {
	cfgFile   string
	gateURL   string
	colorMode string
	verbose   bool

	version BuildInfo

	cfg     *Config
	logger  *slog.Logger
	printer *output.Printer
}

// NewRootCommand builds the cradlectl command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	a := &app{version: info}

	root := &cobra.Command{
		Use:   "cradlectl",
		Short: "Client for the cradle role gate",
		Long: `cradlectl talks to cradle-gate as a signed-in user.

It reads the Kratos session cookie from .cradlectl.yaml or
CRADLECTL_SESSION_COOKIE and drives the role selection flow.

Example usage:
  cradlectl whoami                 # Show identity, stored role and session role
  cradlectl select-role retail     # Choose a role and wait until it is active
  cradlectl routes                 # Show the route classification table`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .cradlectl.yaml)")
	flags.StringVar(&a.gateURL, "gate-url", "", "cradle-gate base URL (overrides gate_url)")
	flags.StringVar(&a.colorMode, "color", "auto", "color output: auto, always, or never")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newWhoamiCommand(a),
		newSelectRoleCommand(a),
		newRoutesCommand(a),
		newVersionCommand(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	mode, err := output.ParseColorMode(a.colorMode)
	if err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
	}

	cfg, err := LoadConfig(a.cfgFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "could not load configuration",
			Detail:     err.Error(),
			Suggestion: "Check .cradlectl.yaml syntax or use --config flag",
			ExitCode:   output.ExitConfig,
			Err:        err,
		}
	}
	if a.gateURL != "" {
		cfg.GateURL = a.gateURL
	}
	a.cfg = cfg

	level := slog.LevelInfo
	switch {
	case a.verbose || cfg.Logging.Level == "debug":
		level = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		level = slog.LevelWarn
	case cfg.Logging.Level == "error":
		level = slog.LevelError
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode, cfg.Output.Colors))

	a.logger.Debug("configuration loaded",
		"gate_url", cfg.GateURL,
		"poll_interval", cfg.Poll.Interval,
		"poll_max_attempts", cfg.Poll.MaxAttempts,
	)
	return nil
}

func (a *app) client() (*client.Client, error) {
	if a.cfg.SessionCookie == "" {
		return nil, &output.CLIError{
			Summary:    "no session cookie configured",
			Suggestion: "Sign in through the browser and set session_cookie in .cradlectl.yaml or CRADLECTL_SESSION_COOKIE",
			ExitCode:   output.ExitAuthError,
		}
	}
	c, err := client.New(a.cfg.GateURL, a.cfg.SessionCookie, client.WithLogger(a.logger))
	if err != nil {
		return nil, &output.CLIError{
			Summary:  fmt.Sprintf("invalid gate url %q", a.cfg.GateURL),
			Detail:   err.Error(),
			ExitCode: output.ExitConfig,
			Err:      err,
		}
	}
	return c, nil
}
