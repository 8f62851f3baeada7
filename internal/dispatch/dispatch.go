// SPDX-License-Identifier: MPL-2.0

// Package dispatch resolves a task specifier against a namespace tree and
// either runs the single match or explains why it cannot.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shovel-run/shovel/internal/namespace"
	"github.com/shovel-run/shovel/pkg/params"
	"github.com/shovel-run/shovel/pkg/task"
)

const (
	// ExitNotFound is the exit code when no task matches the specifier.
	ExitNotFound = 1
	// ExitAmbiguous is the exit code when the specifier names a namespace
	// holding more than one task.
	ExitAmbiguous = 2
)

var (
	// ErrTaskNotFound is returned when nothing matches the specifier.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAmbiguous is returned when the specifier matches several tasks.
	ErrAmbiguous = errors.New("specifier matches multiple tasks")
)

type (
	// Request is a single dispatch.
	Request struct {
		Name       string
		Positional []string
		Named      params.Named
		DryRun     bool
	}

	// Dispatcher resolves and runs tasks from a tree.
	Dispatcher struct {
		tree  *namespace.Tree
		stdio task.Stdio
	}

	// Error is a dispatch failure that has already been reported to the
	// user. Code is the process exit code to use.
	Error struct {
		Name    string
		Code    int
		Err     error
		Matches []string
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Name)
}

// Unwrap returns the sentinel describing the failure.
func (e *Error) Unwrap() error { return e.Err }

// New creates a Dispatcher. Reports go to stdio.Stdout and stdio.Stderr and
// invoked tasks receive stdio.
func New(tree *namespace.Tree, stdio task.Stdio) *Dispatcher {
	return &Dispatcher{tree: tree, stdio: stdio}
}

// Dispatch resolves req.Name. An unknown name or one matching several tasks
// is reported on stderr and returned as *Error without running anything. A
// single match is explained on stdout for a dry run and invoked otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	if req.Name == "" {
		fmt.Fprintf(d.stdio.Stderr, "Could not find task %q\n", req.Name)
		return &Error{Name: req.Name, Code: ExitNotFound, Err: ErrTaskNotFound}
	}

	tasks, err := d.tree.Resolve(req.Name)
	if err != nil || len(tasks) == 0 {
		fmt.Fprintf(d.stdio.Stderr, "Could not find task %q\n", req.Name)
		return &Error{Name: req.Name, Code: ExitNotFound, Err: ErrTaskNotFound}
	}

	if len(tasks) > 1 {
		matches := make([]string, 0, len(tasks))
		var b strings.Builder
		fmt.Fprintf(&b, "Specifier %q matches multiple tasks:\n", req.Name)
		for _, tk := range tasks {
			matches = append(matches, tk.FullName())
			fmt.Fprintf(&b, "\t%s\n", tk.FullName())
		}
		io.WriteString(d.stdio.Stderr, b.String()) //nolint:errcheck // best-effort report
		return &Error{Name: req.Name, Code: ExitAmbiguous, Err: ErrAmbiguous, Matches: matches}
	}

	tk := tasks[0]
	if req.DryRun {
		out, err := tk.Explain(req.Positional, req.Named)
		if err != nil {
			return err
		}
		fmt.Fprintln(d.stdio.Stdout, out)
		return nil
	}

	_, err = tk.Invoke(ctx, d.stdio, req.Positional, req.Named)
	return err
}
