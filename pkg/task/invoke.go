// SPDX-License-Identifier: MPL-2.0

package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/shovel-run/shovel/pkg/params"
)

// ErrPanic is the sentinel error wrapped by PanicError.
var ErrPanic = errors.New("task panicked")

type (
	// Error reports a failure to bind arguments for a task.
	Error struct {
		Task string
		Err  error
	}

	// PanicError reports a panic raised by a unit. It wraps ErrPanic.
	PanicError struct {
		Value any
		Stack []byte
	}

	// Captured holds the output of a captured invocation.
	Captured struct {
		Stdout string
		Stderr string
		// Return is the textual form of the unit's return value.
		Return string
		// Exception is the failure detail when the invocation failed.
		Exception string
		Err       error
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

// Unwrap returns the underlying binding error.
func (e *Error) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPanic, e.Value)
}

// Unwrap returns ErrPanic for errors.Is() compatibility.
func (e *PanicError) Unwrap() error { return ErrPanic }

// Bind binds positional and named values to the task's signature.
func (t *Task) Bind(positional []string, named params.Named) (params.Binding, error) {
	b, err := params.Bind(t.sig, positional, named)
	if err != nil {
		return params.Binding{}, &Error{Task: t.fullName, Err: err}
	}
	return b, nil
}

// Invoke binds the arguments and runs the unit. Failures raised by the unit
// are logged with the task name and a stack trace, then returned unchanged.
// An error carrying an exit status is the unit's own verdict; it is logged
// as a warning with the status and no stack.
func (t *Task) Invoke(ctx context.Context, stdio Stdio, positional []string, named params.Named) (any, error) {
	b, err := t.Bind(positional, named)
	if err != nil {
		return nil, err
	}

	call := &Call{
		Task:    t,
		Binding: b,
		Stdin:   stdio.Stdin,
		Stdout:  writerOrDiscard(stdio.Stdout),
		Stderr:  writerOrDiscard(stdio.Stderr),
	}

	result, err := t.run(ctx, call)
	var exited interface{ ExitCode() int }
	if errors.As(err, &exited) {
		slog.Warn("task exited with non-zero status", "task", t.fullName, "status", exited.ExitCode())
		return nil, err
	}
	if err != nil {
		stack := debug.Stack()
		var pe *PanicError
		if errors.As(err, &pe) {
			stack = pe.Stack
		}
		slog.Error("failed running task", "task", t.fullName, "error", err, "stack", string(stack))
		return nil, err
	}
	return result, nil
}

func (t *Task) run(ctx context.Context, call *Call) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return t.unit.Run(ctx, call)
}

// Capture runs the task with its output written to buffers and returns
// what it printed along with its return value or failure. The buffers only
// live for this call; no process-wide stream is touched.
func (t *Task) Capture(ctx context.Context, positional []string, named params.Named) Captured {
	var stdout, stderr bytes.Buffer
	result, err := t.Invoke(ctx, Stdio{Stdout: &stdout, Stderr: &stderr}, positional, named)

	c := Captured{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}
	if err != nil {
		c.Exception = err.Error()
	} else if result != nil {
		c.Return = fmt.Sprint(result)
	}
	return c
}

// Explain describes the invocation that would happen for the given
// arguments without running the unit.
func (t *Task) Explain(positional []string, named params.Named) (string, error) {
	b, err := t.Bind(positional, named)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	out.WriteString("Would have executed:\n")
	out.WriteString(t.fullName)
	for _, line := range b.Explain(t.sig) {
		out.WriteString("\n\t")
		out.WriteString(line)
	}
	return out.String(), nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
