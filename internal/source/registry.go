// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/shovel-run/shovel/internal/namespace"
	"github.com/shovel-run/shovel/pkg/task"
)

type (
	// BuildOptions selects what goes into a registry.
	BuildOptions struct {
		// WorkDir is the project directory holding shovel.<ext> or shovel/.
		WorkDir string
		// HomeDir holds the user's ~/.shovel.<ext> or ~/.shovel/.
		HomeDir string
		// IncludeHome loads the user's task sources before the project's.
		IncludeHome bool
		// Builtins are tasks registered in code; they are inserted first.
		Builtins []*task.Task
	}

	// Location is a task source and the base its names are relative to.
	Location struct {
		Path string
		Base string
	}
)

// Locations returns the task sources that exist for opts, in load order:
// user sources, then project sources, so project tasks shadow user tasks
// of the same name.
func Locations(opts BuildOptions) []Location {
	var out []Location
	if opts.IncludeHome && opts.HomeDir != "" {
		out = append(out, existing(opts.HomeDir, ".shovel")...)
	}
	if opts.WorkDir != "" {
		out = append(out, existing(opts.WorkDir, "shovel")...)
	}
	return out
}

// Build creates a tree holding opts.Builtins and every task found in the
// locations of opts.
func (l *Loader) Build(ctx context.Context, opts BuildOptions) (*namespace.Tree, error) {
	tree := namespace.New()
	tree.Extend(opts.Builtins)

	for _, loc := range Locations(opts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.Populate(ctx, tree, loc.Path, loc.Base); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.fail(loc.Path, err)
		}
	}
	return tree, nil
}

// existing lists dir/<stem><ext> for each supported extension, then the
// dir/<stem> directory, keeping only paths that exist.
func existing(dir, stem string) []Location {
	var out []Location
	for _, ext := range Extensions {
		p := filepath.Join(dir, stem+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			out = append(out, Location{Path: p, Base: dir})
		}
	}
	p := filepath.Join(dir, stem)
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		out = append(out, Location{Path: p, Base: dir})
	}
	return out
}
