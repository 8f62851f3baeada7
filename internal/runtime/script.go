// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shovel-run/shovel/pkg/task"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyScript is returned when a script has no content.
var ErrEmptyScript = errors.New("script has no content to execute")

// Script is a task unit backed by a shell script.
type Script struct {
	// Dir is the working directory the script runs in. Empty means the
	// process working directory.
	Dir string

	name string
	body string
	prog *syntax.File
}

// Compile parses body so syntax errors surface when the task is declared
// rather than when it runs. name labels parser errors.
func Compile(name, body, dir string) (*Script, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyScript
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(body), name)
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return &Script{Dir: dir, name: name, body: body, prog: prog}, nil
}

// Body returns the script source.
func (s *Script) Body() string { return s.body }

// Run executes the script with the call's bound arguments. A non-zero exit
// status is returned as *ExitStatusError.
func (s *Script) Run(ctx context.Context, call *task.Call) (any, error) {
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(envSlice(buildEnv(call))...)),
		interp.StdIO(call.Stdin, call.Stdout, call.Stderr),
	}
	if s.Dir != "" {
		opts = append(opts, interp.Dir(s.Dir))
	}

	// "--" keeps values such as "-v" from being read as shell options.
	if len(call.Binding.Variadic) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, call.Binding.Variadic...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, s.prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return nil, &ExitStatusError{Task: call.Task.FullName(), Code: ExitCode(exitStatus)}
		}
		return nil, fmt.Errorf("script execution failed: %w", err)
	}
	return nil, nil
}
