// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shovel-run/shovel/internal/issue"
	"github.com/shovel-run/shovel/internal/namespace"
	"github.com/shovel-run/shovel/internal/runtime"
	"github.com/shovel-run/shovel/pkg/task"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Pattern selects task source files inside a task directory.
	Pattern = "**/*.{cue,toml,yaml,yml}"
	// DefaultCacheSize bounds the number of parsed files kept in memory.
	DefaultCacheSize = 256
)

// Extensions lists the supported task source extensions.
var Extensions = []string{".cue", ".toml", ".yaml", ".yml"}

type (
	// Config configures a Loader.
	Config struct {
		// WorkDir is where scripts run.
		WorkDir string
		// Exclude lists doublestar patterns, relative to a task directory,
		// of files to skip.
		Exclude []string
		// CacheSize bounds the parsed-file cache. Zero means
		// DefaultCacheSize.
		CacheSize int
	}

	// Loader reads task source files. Parsed files are cached and reused
	// until the file changes on disk.
	Loader struct {
		workDir  string
		exclude  []string
		cache    *lru.Cache[string, cachedFile]
		failures []error
	}

	cachedFile struct {
		modTime time.Time
		size    int64
		defs    []definition
	}
)

// NewLoader creates a Loader.
func NewLoader(cfg Config) (*Loader, error) {
	for _, pat := range cfg.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedFile](size)
	if err != nil {
		return nil, fmt.Errorf("create source cache: %w", err)
	}
	return &Loader{workDir: cfg.WorkDir, exclude: cfg.Exclude, cache: cache}, nil
}

// LoadFile registers every task declared in path into c. Names are
// qualified with the namespace derived from path relative to base. A task
// that fails to build is dropped by the collector; a file that cannot be
// read or decoded is an error.
func (l *Loader) LoadFile(path, base string, c *task.Collector) error {
	slog.Debug("loading task source", "path", path)

	defs, err := l.definitions(path)
	if err != nil {
		return err
	}

	ns := Namespace(path, base)
	module := Module(path, base)
	for _, def := range defs {
		b := task.Define(def.Name).
			In(ns...).
			Doc(def.Doc).
			At(path, def.line).
			From(module).
			Variadic(def.Args).
			Keywords(def.Kwargs)
		for _, p := range def.Params {
			if p.Default == nil {
				b.Param(p.Name)
				continue
			}
			b.Default(p.Name, defaultText(p.Default))
		}

		script, err := runtime.Compile(path+":"+def.Name, def.Script, l.workDir)
		if err != nil {
			b.Fail(err)
		} else {
			b.Unit(script)
		}

		if t := c.Register(b); t != nil {
			slog.Debug("found task", "task", t.FullName(), "module", module)
		}
	}
	return nil
}

// Populate loads path into tree. A file is loaded directly; a directory is
// walked in lexical order and every task source in it loaded. Each file is
// loaded into its own collector, drained into tree before the next file.
// Files that fail are logged, remembered in Failures and skipped.
func (l *Loader) Populate(ctx context.Context, tree *namespace.Tree, path, base string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat task source: %w", err)
	}

	if !info.IsDir() {
		l.loadInto(tree, path, base)
		return nil
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			l.fail(p, walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return nil //nolint:nilerr // unreachable for paths produced by the walk
		}
		rel = filepath.ToSlash(rel)
		if matched, _ := doublestar.Match(Pattern, rel); !matched || l.excluded(rel) {
			return nil
		}
		l.loadInto(tree, p, base)
		return nil
	})
}

// Failures returns the errors of files skipped so far.
func (l *Loader) Failures() []error {
	return slices.Clone(l.failures)
}

func (l *Loader) loadInto(tree *namespace.Tree, path, base string) {
	c := task.NewCollector()
	if err := l.LoadFile(path, base, c); err != nil {
		l.fail(path, err)
		return
	}
	tree.Extend(c.Drain())
}

func (l *Loader) fail(path string, err error) {
	ae := issue.NewErrorContext().
		WithOperation("load task source").
		WithResource(path).
		WithSuggestion("Check the file against the task source format described in 'shovel help'").
		WithSuggestion("Run with --verbose to see every file that is loaded").
		Wrap(err).
		Build()
	slog.Error("skipping task source", "path", path, "error", ae.Format(false))
	l.failures = append(l.failures, ae)
}

func (l *Loader) excluded(rel string) bool {
	for _, pat := range l.exclude {
		if matched, _ := doublestar.Match(pat, rel); matched {
			return true
		}
	}
	return false
}

// definitions returns the parsed definitions of path, from the cache when
// the file is unchanged since it was last parsed.
func (l *Loader) definitions(path string) ([]definition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if cached, ok := l.cache.Get(abs); ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.defs, nil
	}

	if !slices.Contains(Extensions, strings.ToLower(extension(path))) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	defs, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	l.cache.Add(abs, cachedFile{modTime: info.ModTime(), size: info.Size(), defs: defs})
	return defs, nil
}
