// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shovel-run/shovel/internal/source"
	"github.com/shovel-run/shovel/internal/watch"
)

// sourcePatterns selects the project files whose changes rerun a watched
// task: the project's task sources.
func sourcePatterns() []string {
	exts := make([]string, len(source.Extensions))
	for i, ext := range source.Extensions {
		exts[i] = strings.TrimPrefix(ext, ".")
	}
	alt := "{" + strings.Join(exts, ",") + "}"
	return []string{"shovel." + alt, "shovel/" + source.Pattern}
}

// watch reruns the invocation whenever a task source in the project changes,
// until ctx is done. Each rerun rebuilds the registry.
func (inv *invocation) watch(ctx context.Context) error {
	debounce, err := inv.cfg.DebounceDuration()
	if err != nil {
		return err
	}
	w, err := watch.New(watch.Config{
		Dir:      inv.app.WorkDir,
		Patterns: sourcePatterns(),
		Ignore:   inv.cfg.Watch.Ignore,
		Debounce: debounce,
		Stdout:   inv.app.stdout,
		Rerun: func(ctx context.Context, changed []string) error {
			slog.Info("rerunning task", "task", inv.req.Name, "changed", changed)
			if code := inv.once(ctx); code != 0 {
				return fmt.Errorf("%s exited with status %d", inv.req.Name, code)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(inv.app.stderr, VerboseStyle.Render("Watching "+w.Dir()+" for task source changes"))
	return w.Run(ctx)
}
