// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
)

// ErrNonZeroExit is the sentinel error wrapped by ExitStatusError.
var ErrNonZeroExit = errors.New("script exited with non-zero status")

type (
	// ExitCode represents a process exit status code. The zero value means
	// success.
	ExitCode int

	// ExitStatusError reports a script that finished with a non-zero exit
	// status. It wraps ErrNonZeroExit for errors.Is() compatibility.
	ExitStatusError struct {
		Task string
		Code ExitCode
	}
)

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("task %s: exit status %d", e.Task, e.Code)
}

// Unwrap returns ErrNonZeroExit.
func (e *ExitStatusError) Unwrap() error { return ErrNonZeroExit }

// ExitCode returns the status as an int, for callers that propagate it to
// the process.
func (e *ExitStatusError) ExitCode() int { return int(e.Code) }
