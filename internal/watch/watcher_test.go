// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shovel-run/shovel/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// recorder collects rerun batches.
type recorder struct {
	mu      sync.Mutex
	batches [][]string
	signal  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 16)}
}

func (r *recorder) rerun(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.batches = append(r.batches, changed)
	r.mu.Unlock()
	r.signal <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a rerun")
	}
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.batches)
}

func start(t *testing.T, cfg Config) (cancel func()) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quiet
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	return func() {
		stop()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}
}

func TestWatcherCoalescesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	stop := start(t, Config{Dir: dir, Debounce: 150 * time.Millisecond, Rerun: rec.rerun})

	for _, name := range []string{"c.cue", "a.cue", "b.cue"} {
		testutil.MustWriteFile(t, filepath.Join(dir, name), "data")
		time.Sleep(10 * time.Millisecond)
	}
	rec.wait(t)
	stop()

	batches := rec.snapshot()
	if len(batches) != 1 {
		t.Fatalf("got %d reruns, want 1: %v", len(batches), batches)
	}
	if want := []string{"a.cue", "b.cue", "c.cue"}; !slices.Equal(batches[0], want) {
		t.Errorf("changed = %v, want %v", batches[0], want)
	}
}

func TestWatcherPatternsAndIgnores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	stop := start(t, Config{
		Dir:      dir,
		Patterns: []string{"shovel/**", "shovel.*"},
		Ignore:   []string{"shovel/tmp/**"},
		Debounce: 100 * time.Millisecond,
		Rerun:    rec.rerun,
	})
	defer stop()

	testutil.MustWriteFile(t, filepath.Join(dir, "README.md"), "data")
	testutil.MustWriteFile(t, filepath.Join(dir, ".git", "HEAD"), "data")
	testutil.MustWriteFile(t, filepath.Join(dir, "shovel.cue"), "data")
	rec.wait(t)

	if got := rec.snapshot()[0]; !slices.Equal(got, []string{"shovel.cue"}) {
		t.Errorf("changed = %v, want [shovel.cue]", got)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	stop := start(t, Config{Dir: dir, Patterns: []string{"**/*.toml"}, Debounce: 100 * time.Millisecond, Rerun: rec.rerun})
	defer stop()

	sub := filepath.Join(dir, "shovel", "deploy")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directories.
	time.Sleep(200 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(sub, "web.toml"), "data")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-rec.signal:
			for _, b := range rec.snapshot() {
				if slices.Contains(b, "shovel/deploy/web.toml") {
					return
				}
			}
		case <-deadline:
			t.Fatalf("no rerun for the new file, got %v", rec.snapshot())
		}
	}
}

func TestWatcherNeverOverlaps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		calls   int
	)
	done := make(chan struct{}, 4)
	stop := start(t, Config{
		Dir:      dir,
		Debounce: 30 * time.Millisecond,
		Rerun: func(context.Context, []string) error {
			mu.Lock()
			active++
			calls++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(200 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			done <- struct{}{}
			return nil
		},
	})

	testutil.MustWriteFile(t, filepath.Join(dir, "one"), "data")
	time.Sleep(80 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(dir, "two"), "data")

	for range 2 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for reruns")
		}
	}
	stop()

	mu.Lock()
	defer mu.Unlock()
	if maxSeen != 1 {
		t.Errorf("%d reruns overlapped", maxSeen)
	}
	if calls != 2 {
		t.Errorf("got %d reruns, want 2 (the busy batch is retried)", calls)
	}
}

func TestWatcherClearScreen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var (
		mu  sync.Mutex
		out bytes.Buffer
	)
	ran := make(chan string, 1)
	stop := start(t, Config{
		Dir:         dir,
		Debounce:    50 * time.Millisecond,
		ClearScreen: true,
		Stdout:      writerFunc(func(p []byte) (int, error) { mu.Lock(); defer mu.Unlock(); return out.Write(p) }),
		Rerun: func(context.Context, []string) error {
			mu.Lock()
			defer mu.Unlock()
			ran <- out.String()
			return nil
		},
	})
	defer stop()

	testutil.MustWriteFile(t, filepath.Join(dir, "x"), "data")
	select {
	case got := <-ran:
		if !strings.HasPrefix(got, "\033[2J\033[H") {
			t.Errorf("stdout before rerun = %q, want the clear sequence", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a rerun")
	}
}

func TestWatcherLogsRerunErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var logs syncBuffer
	ran := make(chan struct{}, 1)
	stop := start(t, Config{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		Rerun: func(context.Context, []string) error {
			defer func() { ran <- struct{}{} }()
			return errors.New("exit status 3")
		},
	})

	testutil.MustWriteFile(t, filepath.Join(dir, "x"), "data")
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a rerun")
	}
	stop()

	if !strings.Contains(logs.String(), "rerun failed") || !strings.Contains(logs.String(), "exit status 3") {
		t.Errorf("logs = %q", logs.String())
	}
}

func TestWatcherWaitsForRerunOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	w, err := New(Config{
		Dir:      dir,
		Debounce: 20 * time.Millisecond,
		Logger:   quiet,
		Rerun: func(context.Context, []string) error {
			close(started)
			<-release
			finished.Store(true)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	testutil.MustWriteFile(t, filepath.Join(dir, "shovel.cue"), "data")
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a rerun")
	}
	cancel()

	select {
	case err := <-errCh:
		t.Fatalf("Run() returned %v while a rerun was in progress", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Run() returned before the rerun finished")
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dir: t.TempDir(), Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestNewRejectsInvalidPatterns(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{
		{Dir: t.TempDir(), Patterns: []string{"[oops"}},
		{Dir: t.TempDir(), Ignore: []string{"{a,b"}},
	} {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) should fail", cfg)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(Config{Dir: dir, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	defer w.fsw.Close()

	if w.cfg.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %v, want %v", w.cfg.Debounce, DefaultDebounce)
	}
	if w.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", w.Dir(), dir)
	}
	if w.stdout != os.Stdout {
		t.Error("nil Stdout should default to os.Stdout")
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{".git/HEAD", true},
		{"web/node_modules/x/index.js", true},
		{"shovel/.deploy.toml.swp", true},
		{"shovel.cue~", true},
		{".DS_Store", true},
		{"shovel/deploy.toml", false},
		{"shovel.cue", false},
	}
	ignores := DefaultIgnores()
	for _, tt := range tests {
		if got := matchAny(ignores, tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	ignores[0] = "changed"
	if DefaultIgnores()[0] == "changed" {
		t.Error("DefaultIgnores() should return a copy")
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
