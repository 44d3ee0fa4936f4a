package clicommand

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries the process exit code out of a command action. The
// wrapped error is what gets printed; a silent ExitError prints nothing.
type ExitError struct {
	code   int
	inner  error
	silent bool
}

// NewExitError fails the command with code, reporting err.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{code: code, inner: err}
}

// NewSilentExitError exits with code without printing anything, for when
// the command has already told the user what went wrong (help output, say).
func NewSilentExitError(code int) *ExitError {
	return &ExitError{code: code, silent: true}
}

func (e *ExitError) Code() int { return e.code }

func (e *ExitError) Error() string {
	if e.inner == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.inner.Error()
}

func (e *ExitError) Unwrap() error { return e.inner }

// Is matches another ExitError with the same code and silence, so tests can
// compare against NewExitError(1, nil) whatever was wrapped.
func (e *ExitError) Is(target error) bool {
	terr, ok := target.(*ExitError)
	return ok && e.code == terr.code && e.silent == terr.silent
}

// PrintMessageAndReturnExitCode prints err to stderr as
// "jenkins-provisioner: fatal: <message>" and returns the exit code for it.
func PrintMessageAndReturnExitCode(err error) int {
	return printMessageAndReturnExitCode(os.Stderr, err)
}

// printMessageAndReturnExitCode returns 0 for nil, the code of the first
// ExitError in err's chain, and 1 otherwise.
func printMessageAndReturnExitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var eerr *ExitError
	hasCode := errors.As(err, &eerr)
	if hasCode && eerr.silent {
		return eerr.code
	}

	fmt.Fprintf(w, "jenkins-provisioner: fatal: %s\n", err) //nolint:errcheck // nowhere else to report it

	if hasCode {
		return eerr.code
	}
	return 1
}
