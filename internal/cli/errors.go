package cli

import (
	"errors"

	"cradle-gate/internal/domain"
	"cradle-gate/internal/output"
)

// gateError turns a gate call failure into a CLIError with a hint.
func gateError(summary string, err error) error {
	cliErr := &output.CLIError{
		Summary:  summary,
		Detail:   err.Error(),
		ExitCode: output.ExitGateError,
		Err:      err,
	}
	switch {
	case errors.Is(err, domain.ErrNoSession):
		cliErr.ExitCode = output.ExitAuthError
		cliErr.Suggestion = "The session cookie is missing or expired; sign in again and update session_cookie"
	case errors.Is(err, domain.ErrRoleAlreadySet):
		cliErr.Suggestion = "A role can only be chosen once. Run 'cradlectl whoami' to see it"
	case errors.Is(err, domain.ErrInvalidRole):
		cliErr.ExitCode = output.ExitUsageError
		cliErr.Suggestion = "Choose institutional or retail"
	case errors.Is(err, domain.ErrCSRFMismatch):
		cliErr.Suggestion = "The gate rejected the CSRF token; retry the command"
	case errors.Is(err, domain.ErrKratosUnavailable), errors.Is(err, domain.ErrRoleStoreUnavailable):
		cliErr.Suggestion = "The gate could not reach its backing services; try again shortly"
	case errors.Is(err, domain.ErrRateLimited):
		cliErr.Suggestion = "Too many requests; wait a minute and retry"
	}
	return cliErr
}
