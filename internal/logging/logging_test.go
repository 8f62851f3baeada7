// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shovel-run/shovel/internal/testutil"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, slog.LevelWarn); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// Setup replaces the slog default, so these tests do not run in parallel.

func TestSetupConsoleLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stderr bytes.Buffer
	logger, closer := Setup(Options{Level: "warn", Stderr: &stderr})
	defer testutil.DeferClose(t, closer)()

	logger.Info("hidden")
	slog.Warn("skipping task source", "path", "shovel.cue")

	out := stderr.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "skipping task source") || !strings.Contains(out, "shovel.cue") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestSetupVerbose(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stderr bytes.Buffer
	_, closer := Setup(Options{Level: "error", Verbose: true, Stderr: &stderr})
	defer testutil.DeferClose(t, closer)()

	slog.Debug("loading task source", "path", "shovel/a.toml")
	if !strings.Contains(stderr.String(), "loading task source") {
		t.Errorf("verbose should enable debug records, got %q", stderr.String())
	}
}

func TestSetupFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "shovel.log")
	var stderr bytes.Buffer
	logger, closer := Setup(Options{Level: "info", Stderr: &stderr, File: path, MaxSize: 1})

	logger.With("task", "deploy.web").Info("found task")
	testutil.MustClose(t, closer)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"level=INFO", `msg="found task"`, "task=deploy.web"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q in %q", want, data)
		}
	}
	if !strings.Contains(stderr.String(), "found task") {
		t.Errorf("console missing record: %q", stderr.String())
	}
}

type recorder struct {
	level   slog.Level
	records []slog.Record
	attrs   []slog.Attr
	group   string
}

func (r *recorder) Enabled(_ context.Context, l slog.Level) bool { return l >= r.level }

func (r *recorder) Handle(_ context.Context, rec slog.Record) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *r
	c.attrs = append(append([]slog.Attr(nil), r.attrs...), attrs...)
	return &c
}

func (r *recorder) WithGroup(name string) slog.Handler {
	c := *r
	c.group = name
	return &c
}

func TestFanout(t *testing.T) {
	t.Parallel()

	debug := &recorder{level: slog.LevelDebug}
	errorsOnly := &recorder{level: slog.LevelError}
	h := Fanout(debug, errorsOnly)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(debug) should be true when any handler accepts it")
	}

	logger := slog.New(h)
	logger.Debug("a")
	logger.Error("b")
	if len(debug.records) != 2 || len(errorsOnly.records) != 1 {
		t.Errorf("records = %d/%d, want 2/1", len(debug.records), len(errorsOnly.records))
	}

	derived := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("g").(fanout)
	for i, d := range derived {
		rec := d.(*recorder)
		if len(rec.attrs) != 1 || rec.group != "g" {
			t.Errorf("derived[%d] = %+v", i, rec)
		}
	}
}
