// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/shovel-run/shovel/pkg/params"
)

var (
	// ErrInvalidName is returned when a task or namespace name is malformed.
	ErrInvalidName = errors.New("invalid task name")
	// ErrNotCallable is returned when a task is declared without a unit.
	ErrNotCallable = errors.New("task is not callable")
	// ErrNotInstantiable is returned when a task type cannot be constructed
	// without arguments.
	ErrNotInstantiable = errors.New("task types must take no arguments")
	// ErrParameterOrder is returned when a required parameter is declared
	// after a parameter with a default.
	ErrParameterOrder = errors.New("required parameter follows parameter with default")
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

type (
	// Builder declares a task. Methods record the declaration and Build
	// validates it.
	Builder struct {
		name      string
		namespace []string
		doc       string
		sig       params.Signature
		file      string
		line      int
		context   string
		unit      Unit
		ctor      func() (Unit, error)
		errs      []error
	}

	// RegistrationError reports a task declaration that could not be built.
	RegistrationError struct {
		Name string
		File string
		Line int
		Err  error
	}
)

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("register task %s (%s:%d): %v", e.Name, e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("register task %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RegistrationError) Unwrap() error { return e.Err }

// Define starts the declaration of a task named name. The caller's file and
// line are recorded as the task's source location.
func Define(name string) *Builder {
	b := &Builder{name: name}
	if _, file, line, ok := runtime.Caller(1); ok {
		b.file, b.line = file, line
	}
	return b
}

// Doc sets the documentation string.
func (b *Builder) Doc(doc string) *Builder {
	b.doc = doc
	return b
}

// Param declares required parameters.
func (b *Builder) Param(names ...string) *Builder {
	if len(b.sig.Defaults) > 0 && len(names) > 0 {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrParameterOrder, names[0]))
		return b
	}
	b.sig.Required = append(b.sig.Required, names...)
	return b
}

// Default declares a parameter with a default value.
func (b *Builder) Default(name, value string) *Builder {
	b.sig.Defaults = append(b.sig.Defaults, params.Default{Name: name, Value: value})
	return b
}

// Variadic names the slot that collects extra positional values.
func (b *Builder) Variadic(name string) *Builder {
	b.sig.Variadic = name
	return b
}

// Keywords names the slot that collects extra named values.
func (b *Builder) Keywords(name string) *Builder {
	b.sig.Keywords = name
	return b
}

// In places the task under the given namespace segments.
func (b *Builder) In(namespace ...string) *Builder {
	b.namespace = append(b.namespace, namespace...)
	return b
}

// At overrides the recorded source location.
func (b *Builder) At(file string, line int) *Builder {
	b.file, b.line = file, line
	return b
}

// From records the module the task was declared in.
func (b *Builder) From(context string) *Builder {
	b.context = context
	return b
}

// Does sets the unit to a plain function.
func (b *Builder) Does(fn func(ctx context.Context, call *Call) (any, error)) *Builder {
	if fn == nil {
		b.unit = nil
		return b
	}
	b.unit = UnitFunc(fn)
	return b
}

// Unit sets the unit.
func (b *Builder) Unit(u Unit) *Builder {
	b.unit = u
	return b
}

// Type sets a constructor for the unit. The constructor runs once, when the
// task is built.
func (b *Builder) Type(ctor func() (Unit, error)) *Builder {
	b.ctor = ctor
	return b
}

// Fail records an error found while preparing the declaration, such as a
// script that does not parse. Build reports it.
func (b *Builder) Fail(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Name returns the declared name.
func (b *Builder) Name() string { return b.name }

// Build validates the declaration and returns the task.
func (b *Builder) Build() (*Task, error) {
	fail := func(err error) (*Task, error) {
		return nil, &RegistrationError{Name: b.qualified(), File: b.file, Line: b.line, Err: err}
	}

	if err := errors.Join(b.errs...); err != nil {
		return fail(err)
	}
	if !namePattern.MatchString(b.name) {
		return fail(fmt.Errorf("%w: %q", ErrInvalidName, b.name))
	}
	for _, seg := range b.namespace {
		if seg == "" || strings.Contains(seg, ".") {
			return fail(fmt.Errorf("%w: namespace segment %q", ErrInvalidName, seg))
		}
	}
	if err := b.sig.Validate(); err != nil {
		return fail(err)
	}

	unit := b.unit
	if b.ctor != nil {
		u, err := b.ctor()
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrNotInstantiable, err))
		}
		unit = u
	}
	if unit == nil {
		return fail(ErrNotCallable)
	}

	return &Task{
		name:      b.name,
		fullName:  b.qualified(),
		doc:       b.doc,
		sig:       b.sig,
		file:      b.file,
		line:      b.line,
		context:   b.context,
		unit:      unit,
		overrides: NoRef,
	}, nil
}

func (b *Builder) qualified() string {
	if len(b.namespace) == 0 {
		return b.name
	}
	return strings.Join(b.namespace, ".") + "." + b.name
}
