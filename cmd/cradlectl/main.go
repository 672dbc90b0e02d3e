// Command cradlectl drives the cradle-gate role selection flow from a terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cradle-gate/internal/cli"
	"cradle-gate/internal/output"
)

// Set at build time via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.BuildInfo{Version: version, Commit: commit, Built: buildTime})
	if err := root.ExecuteContext(ctx); err != nil {
		output.NewPrinter(os.Stdout, os.Stderr, output.ResolveColors(output.ColorAuto, true)).FormatError(err)
		stop()
		os.Exit(output.ExitCode(err))
	}
}
