// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shovel-run/shovel/internal/config"
	"github.com/shovel-run/shovel/internal/testutil"
	"github.com/shovel-run/shovel/pkg/task"
)

// The CLI installs the process-wide slog logger, so these tests run
// serially.

const projectSource = `tasks: [
	{
		name: "bar"
		doc:  "Dummy function"
		script: "echo bar"
	},
	{
		name: "greet"
		doc:  "Say hello"
		params: [{name: "who"}, {name: "greeting", default: "Hello"}]
		args:   "rest"
		kwargs: "opts"
		script: "echo \"$greeting, $who\""
	},
	{
		name: "fail"
		script: "echo failing >&2; exit 3"
	},
]
`

type fixture struct {
	work   string
	home   string
	cfg    *config.Config
	stdin  string
	extras []*task.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{work: t.TempDir(), home: t.TempDir(), cfg: config.DefaultConfig()}
	testutil.MustWriteFile(t, filepath.Join(f.work, "shovel.cue"), projectSource)
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, Dependencies{
		Config:        config.Static(f.cfg),
		WorkDir:       f.work,
		HomeDir:       f.home,
		Builtins:      f.extras,
		Stdin:         strings.NewReader(f.stdin),
		Stdout:        &out,
		Stderr:        &errOut,
		TerminalWidth: func() (int, bool) { return 0, false },
	})
	return code, out.String(), errOut.String()
}

func TestRunTask(t *testing.T) {
	f := newFixture(t)

	code, stdout, stderr := f.run(t, "bar")
	if code != 0 || stdout != "bar\n" {
		t.Errorf("bar = %d %q (stderr %q)", code, stdout, stderr)
	}

	code, stdout, _ = f.run(t, "greet", "world", "--greeting", "Hi")
	if code != 0 || stdout != "Hi, world\n" {
		t.Errorf("greet = %d %q", code, stdout)
	}

	code, stdout, _ = f.run(t, "greet", "--", "world")
	if code != 0 || stdout != "Hello, world\n" {
		t.Errorf("greet -- world = %d %q, want the value after -- bound positionally", code, stdout)
	}
}

func TestGlobalFlagsAnywhere(t *testing.T) {
	f := newFixture(t)

	code, stdout, stderr := f.run(t, "greet", "--dry-run", "world", "--verbose", "--extra", "1")
	if code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	want := "Would have executed:\ngreet\n\twho = world\n\tgreeting = Hello (default)\n\trest = []\n\topts = {extra=1}\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if !strings.Contains(stderr, "loading task source") {
		t.Errorf("--verbose should log source loading, stderr %q", stderr)
	}
}

func TestExitCodes(t *testing.T) {
	f := newFixture(t)
	testutil.MustWriteFile(t, filepath.Join(f.work, "shovel", "widget.yaml"), "tasks:\n  - name: one\n    script: echo one\n  - name: two\n    script: echo two\n")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
		// logged lists substrings stderr must contain besides wantStderr.
		logged []string
	}{
		{name: "not found", args: []string{"nope"}, wantCode: 1, wantStderr: "Could not find task \"nope\"\n"},
		{name: "ambiguous", args: []string{"widget"}, wantCode: 2, wantStderr: "Specifier \"widget\" matches multiple tasks:\n\twidget.one\n\twidget.two\n"},
		{name: "namespaced", args: []string{"widget.two"}, wantCode: 0, wantStdout: "two\n"},
		{name: "script status", args: []string{"fail"}, wantCode: 3, logged: []string{"failing\n", "task exited with non-zero status", "status=3"}},
		{name: "missing argument", args: []string{"greet"}, wantCode: 1},
		{name: "no command", args: nil, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := f.run(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && stdout != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && stderr != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr, tt.wantStderr)
			}
			for _, want := range tt.logged {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr = %q, want it to contain %q", stderr, want)
				}
			}
		})
	}
}

func TestBindingErrorReported(t *testing.T) {
	f := newFixture(t)

	code, _, stderr := f.run(t, "greet")
	if code != 1 || !strings.Contains(stderr, "who") {
		t.Errorf("exit = %d, stderr %q, want the missing parameter named", code, stderr)
	}
}

func TestVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "1.4.0"

	f := newFixture(t)
	code, stdout, _ := f.run(t, "bar", "--version")
	if code != 0 || stdout != "Shovel v 1.4.0\n" {
		t.Errorf("--version = %d %q", code, stdout)
	}
}

func TestTasksAndHelp(t *testing.T) {
	f := newFixture(t)

	_, stdout, _ := f.run(t, "tasks")
	want := "bar   # Dummy function\nfail  #\ngreet # Say hello\n"
	if stdout != want {
		t.Errorf("tasks = %q, want %q", stdout, want)
	}

	_, stdout, _ = f.run(t, "help")
	want = "  bar => Dummy function\n fail => (No docstring)\ngreet => Say hello\n"
	if stdout != want {
		t.Errorf("help = %q, want %q", stdout, want)
	}

	_, stdout, _ = f.run(t, "help", "bar")
	for _, line := range []string{"bar", "Dummy function", "From " + filepath.Join(f.work, "shovel.cue") + " on line 2", "bar()"} {
		if !strings.Contains(stdout, line+"\n") {
			t.Errorf("help bar missing %q in %q", line, stdout)
		}
	}

	code, _, stderr := f.run(t, "help", "nope")
	if code != 1 || stderr != "Could not find task \"nope\"\n" {
		t.Errorf("help nope = %d %q", code, stderr)
	}
}

func TestEmptyRegistry(t *testing.T) {
	f := &fixture{work: t.TempDir(), home: t.TempDir(), cfg: config.DefaultConfig()}

	_, stdout, _ := f.run(t, "tasks")
	if stdout != "No tasks found!\n" {
		t.Errorf("tasks = %q", stdout)
	}
	_, stdout, _ = f.run(t, "help")
	if stdout != "No tasks found!\n" {
		t.Errorf("help = %q", stdout)
	}
}

func TestUserTasksOverridden(t *testing.T) {
	f := newFixture(t)
	testutil.MustWriteFile(t, filepath.Join(f.home, ".shovel.yaml"), "tasks:\n  - name: bar\n    doc: user bar\n    script: echo user\n  - name: mine\n    script: echo mine\n")

	_, stdout, _ := f.run(t, "bar")
	if stdout != "bar\n" {
		t.Errorf("bar = %q, want the project task", stdout)
	}
	_, stdout, _ = f.run(t, "mine")
	if stdout != "mine\n" {
		t.Errorf("mine = %q, want the user task", stdout)
	}
	_, stdout, _ = f.run(t, "help", "bar")
	if !strings.Contains(stdout, "Overrides "+filepath.Join(f.home, ".shovel.yaml")+" on line 2\n") {
		t.Errorf("help bar = %q, want the overridden user task", stdout)
	}

	f.cfg.Sources.IncludeHome = false
	code, _, _ := f.run(t, "mine")
	if code != 1 {
		t.Errorf("mine without home sources = %d, want 1", code)
	}
}

func TestBuiltinTask(t *testing.T) {
	f := newFixture(t)
	b, err := task.Define("echo").
		In("sys").
		Doc("Print stdin").
		Variadic("words").
		Does(func(_ context.Context, c *task.Call) (any, error) {
			data, err := readAll(c)
			if err != nil {
				return nil, err
			}
			_, err = c.Stdout.Write(append(data, []byte(strings.Join(c.Variadic(), " "))...))
			return nil, err
		}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	f.extras = []*task.Task{b}
	f.stdin = "in:"

	code, stdout, _ := f.run(t, "sys.echo", "a", "b")
	if code != 0 || stdout != "in:a b" {
		t.Errorf("echo = %d %q", code, stdout)
	}
}

func TestMarkdownDocs(t *testing.T) {
	f := newFixture(t)
	f.cfg.UI.MarkdownDocs = true

	code, stdout, stderr := f.run(t, "help", "bar")
	if code != 0 || !strings.Contains(stdout, "Dummy function") {
		t.Errorf("help bar = %d %q (stderr %q)", code, stdout, stderr)
	}
}

func TestVerboseGuidance(t *testing.T) {
	f := newFixture(t)

	_, _, stderr := f.run(t, "-v", "nope")
	if !strings.Contains(stderr, "Task not found") || !strings.Contains(stderr, "shovel tasks") {
		t.Errorf("stderr = %q, want guidance", stderr)
	}
}

func TestBadConfigFile(t *testing.T) {
	f := newFixture(t)
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--config", filepath.Join(f.work, "missing.cue"), "bar"}, Dependencies{
		WorkDir: f.work,
		HomeDir: f.home,
		Stdout:  &out,
		Stderr:  &errOut,
	})
	if code != 1 || !strings.Contains(errOut.String(), "config file not found") {
		t.Errorf("exit = %d, stderr %q", code, errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("nothing should run, stdout %q", out.String())
	}
}

func readAll(c *task.Call) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(c.Stdin)
	return buf.Bytes(), err
}
