package pgkeeper

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios. Callers distinguish error
// classes with errors.Is().
var (
	// ErrInvalidConfig indicates a missing or malformed connection
	// parameter or environment variable. Never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrQueryNotFound indicates a named query could not be located in the
	// query source. Never retried.
	ErrQueryNotFound = errors.New("query not found")

	// ErrConnectionFailed indicates the database connection could not be
	// established or was lost.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrCredential indicates dynamic credential resolution failed.
	// Resolution itself is not retried; the outer retry loop re-invokes it
	// on the next connect attempt if the failure is classified transient.
	ErrCredential = errors.New("credential resolution failed")

	// ErrTunnelNotActive indicates a tunnel endpoint was requested before
	// the tunnel was started.
	ErrTunnelNotActive = errors.New("tunnel not active")
)

// ExitCodeForError maps an error to a CLI exit code. Returns ExitSuccess
// for nil and ExitGeneralError for anything unclassified.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrQueryNotFound):
		return ExitQueryError
	case errors.Is(err, ErrCredential):
		return ExitCredentialError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
