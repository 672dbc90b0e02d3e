package output

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsageError = 2
	ExitAuthError  = 3
	ExitConfig     = 4
	ExitGateError  = 5
)

// CLIError is an error with a hint for the user and a process exit code.
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
	Err        error
}

func (e *CLIError) Error() string {
	return e.Summary
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ExitCode returns the code for err; errors that are not CLIErrors exit 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return ExitGeneral
}

// FormatError prints err with its cause and suggestion when present.
func (p *Printer) FormatError(err error) {
	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		p.Error("%s", err.Error())
		return
	}

	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", cliErr.Summary)
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", cliErr.Summary)
	}
	if cliErr.Detail != "" {
		fmt.Fprintf(p.err, "  Cause: %s\n", cliErr.Detail)
	}
	if cliErr.Suggestion != "" {
		if p.useColors {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", cliErr.Suggestion)
		} else {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", cliErr.Suggestion)
		}
	}
}
