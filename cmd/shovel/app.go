// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shovel-run/shovel/internal/config"
	"github.com/shovel-run/shovel/internal/namespace"
	"github.com/shovel-run/shovel/internal/source"
	"github.com/shovel-run/shovel/pkg/task"

	"golang.org/x/term"
)

type (
	// App wires the CLI to its services. Every invocation builds a fresh
	// registry from the directories it was given.
	App struct {
		Config   config.Provider
		WorkDir  string
		HomeDir  string
		Builtins []*task.Task

		stdin         io.Reader
		stdout        io.Writer
		stderr        io.Writer
		terminalWidth func() (int, bool)
	}

	// Dependencies defines the injection points for building an App. Zero
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// WorkDir is the project directory. Defaults to the working
		// directory.
		WorkDir string
		// HomeDir holds the user's task sources. Defaults to the user's home
		// directory.
		HomeDir string
		// Builtins are tasks defined in Go, registered before any source
		// file is read.
		Builtins []*task.Task

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// TerminalWidth reports the width of the terminal on Stdout, if any.
		TerminalWidth func() (int, bool)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		deps.WorkDir = wd
	}
	if deps.HomeDir == "" {
		// A missing home directory only disables user task sources.
		deps.HomeDir, _ = os.UserHomeDir()
	}
	if deps.TerminalWidth == nil {
		deps.TerminalWidth = stdoutWidth(deps.Stdout)
	}

	return &App{
		Config:        deps.Config,
		WorkDir:       deps.WorkDir,
		HomeDir:       deps.HomeDir,
		Builtins:      deps.Builtins,
		stdin:         deps.Stdin,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		terminalWidth: deps.TerminalWidth,
	}, nil
}

// stdio returns the streams handed to tasks.
func (a *App) stdio() task.Stdio {
	return task.Stdio{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr}
}

// buildTree loads the registry with the options in cfg.
func (a *App) buildTree(ctx context.Context, loader *source.Loader, cfg *config.Config) (*namespace.Tree, error) {
	return loader.Build(ctx, source.BuildOptions{
		WorkDir:     a.WorkDir,
		HomeDir:     a.HomeDir,
		IncludeHome: cfg.Sources.IncludeHome,
		Builtins:    a.Builtins,
	})
}

// listWidth is the width `tasks` fits its rows into: the terminal's when
// stdout is one, the configured fallback otherwise.
func (a *App) listWidth(cfg *config.Config) int {
	if w, ok := a.terminalWidth(); ok && w > 0 {
		return w
	}
	return cfg.Tasks.Width
}

func stdoutWidth(w io.Writer) func() (int, bool) {
	return func() (int, bool) {
		f, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return 0, false
		}
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			return 0, false
		}
		return width, true
	}
}
