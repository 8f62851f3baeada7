// SPDX-License-Identifier: MPL-2.0

// Package watch reruns a task when files under a project directory change.
//
// Events are coalesced: a rerun starts once no matching event has arrived
// for the debounce period, and receives every path that changed since the
// previous rerun. Only one rerun is in flight at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores are never watched: VCS metadata, dependency caches, editor
// swap files and OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// RerunFunc runs the watched task. changed holds slash-separated paths
	// relative to Config.Dir, sorted.
	RerunFunc func(ctx context.Context, changed []string) error

	// Config configures a Watcher.
	Config struct {
		// Dir is the watched tree. Empty means the working directory.
		Dir string
		// Patterns select the files whose changes trigger a rerun. Empty
		// means every file that is not ignored.
		Patterns []string
		// Ignore adds to the built-in ignore patterns.
		Ignore []string
		// Debounce is the quiet period before a rerun.
		Debounce time.Duration
		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// rerun.
		ClearScreen bool
		// Rerun is called for each batch of changes.
		Rerun RerunFunc
		// Stdout receives the clear sequence. nil means os.Stdout.
		Stdout io.Writer
		// Logger receives diagnostics. nil means slog.Default().
		Logger *slog.Logger
	}

	// Watcher watches one directory tree.
	Watcher struct {
		cfg     Config
		dir     string
		ignores []string
		stdout  io.Writer
		log     *slog.Logger
		fsw     *fsnotify.Watcher
		started atomic.Bool
	}
)

// New validates cfg and registers every directory under cfg.Dir that is not
// ignored.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns("watch", cfg.Patterns); err != nil {
		return nil, err
	}
	if err := validatePatterns("ignore", cfg.Ignore); err != nil {
		return nil, err
	}

	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	w := &Watcher{
		cfg:     cfg,
		dir:     abs,
		ignores: append(DefaultIgnores(), cfg.Ignore...),
		stdout:  cfg.Stdout,
		log:     cfg.Logger,
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.log == nil {
		w.log = slog.Default()
	}

	if w.fsw, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := w.addTree(w.dir); err != nil {
		_ = w.fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Run processes events until ctx is done, then returns nil once any rerun in
// progress has finished. A watcher that can no longer deliver events is an
// error.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("closing file watcher", "error", err)
		}
	}()

	b := newBatcher(ctx, w.cfg.Debounce, w.rerun)
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, ok := w.relative(evt.Name)
			if !ok || matchAny(w.ignores, rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.addNewDir(evt.Name)
			}
			if len(w.cfg.Patterns) > 0 && !matchAny(w.cfg.Patterns, rel) {
				continue
			}
			w.log.Debug("file changed", "path", rel, "op", evt.Op.String())
			b.add(rel)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) rerun(ctx context.Context, changed []string) {
	if w.cfg.ClearScreen {
		fmt.Fprint(w.stdout, "\033[2J\033[H")
	}
	if w.cfg.Rerun == nil {
		return
	}
	if err := w.cfg.Rerun(ctx, changed); err != nil {
		w.log.Warn("rerun failed", "changed", changed, "error", err)
	}
}

// relative returns name as a slash path relative to the watched directory.
func (w *Watcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(w.dir, name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) skipDir(path string) bool {
	rel, ok := w.relative(path)
	if !ok {
		return true
	}
	return rel != "." && (matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/"))
}

// addTree registers root and every directory below it that is not ignored.
// Unreadable directories are logged and skipped.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("not watching inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}
	return nil
}

func (w *Watcher) addNewDir(path string) {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.log.Warn("not watching new directory", "path", path, "error", err)
	}
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(label string, patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
