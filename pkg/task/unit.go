// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"io"

	"github.com/shovel-run/shovel/pkg/params"
)

type (
	// Unit is the callable behind a task.
	Unit interface {
		Run(ctx context.Context, call *Call) (any, error)
	}

	// UnitFunc adapts a plain function to Unit.
	UnitFunc func(ctx context.Context, call *Call) (any, error)

	// Stdio holds the streams a unit reads from and prints to.
	Stdio struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Call is a single invocation of a unit: the bound arguments and the
	// streams to use. Stdin may be nil.
	Call struct {
		Task    *Task
		Binding params.Binding
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// Run calls f.
func (f UnitFunc) Run(ctx context.Context, call *Call) (any, error) {
	return f(ctx, call)
}

// Arg returns the value bound to a declared parameter, or "" when the task
// declares no such parameter.
func (c *Call) Arg(name string) string {
	v, _ := c.Binding.Lookup(name)
	return v.String()
}

// Variadic returns the extra positional values.
func (c *Call) Variadic() []string {
	return c.Binding.Variadic
}

// Keywords returns the extra named values.
func (c *Call) Keywords() params.Named {
	return c.Binding.Keywords
}
