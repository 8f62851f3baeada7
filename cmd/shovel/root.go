// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shovel-run/shovel/internal/config"
	"github.com/shovel-run/shovel/internal/dispatch"
	"github.com/shovel-run/shovel/internal/help"
	"github.com/shovel-run/shovel/internal/issue"
	"github.com/shovel-run/shovel/internal/logging"
	"github.com/shovel-run/shovel/internal/namespace"
	"github.com/shovel-run/shovel/internal/source"
	"github.com/shovel-run/shovel/pkg/argv"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const (
	// HelpCommand and TasksCommand are reserved and never dispatched.
	HelpCommand  = "help"
	TasksCommand = "tasks"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns the version shown by fang's help.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand builds the root command. Flag parsing is disabled so that
// global flags are picked out of the arguments wherever they appear and
// every other token reaches the task untouched.
func newRootCommand(app *App) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "shovel [flags] <task|help|tasks> [args...] [--name value...]",
		Short: "Run tasks declared in shovel files",
		Long: TitleStyle.Render("shovel") + SubtitleStyle.Render(" - a task runner with namespaced tasks") + `

Tasks are declared in shovel.cue, shovel.toml or shovel.yaml, or in any
such file below a shovel/ directory, where the file's path becomes the
task's namespace. Tasks in ~/.shovel.<ext> and ~/.shovel/ are loaded first
and can be overridden by the project.

` + SubtitleStyle.Render("Examples:") + `
  ` + CmdStyle.Render("shovel tasks") + `                      List every task
  ` + CmdStyle.Render("shovel help deploy") + `                Show the deploy namespace
  ` + CmdStyle.Render("shovel deploy.web eu --force") + `      Run deploy.web with region=eu, force=true
  ` + CmdStyle.Render("shovel --dry-run deploy.web eu") + `    Show how the arguments bind`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, g, args)
		},
	}
	root.SetIn(app.stdin)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)
	registerFlags(root.Flags(), g)
	return root
}

// run is the body of the root command.
func (a *App) run(cmd *cobra.Command, g *globals, args []string) error {
	known, rest := splitArgs(cmd.Flags(), args)
	if err := cmd.Flags().Parse(known); err != nil {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
		return &ExitError{Code: 1}
	}
	if help, _ := cmd.Flags().GetBool("help"); help {
		return cmd.Help()
	}
	if g.version {
		fmt.Fprintf(a.stdout, "Shovel v %s\n", Version)
		return nil
	}

	ctx := cmd.Context()
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: g.config})
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, g.verbose))
		if g.config != "" {
			return &ExitError{Code: 1}
		}
		cfg = config.DefaultConfig()
	}
	verbose := g.verbose || cfg.UI.Verbose

	_, closer := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Verbose:    verbose,
		Stderr:     a.stderr,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	defer closer.Close()

	if len(rest) == 0 {
		cmd.SetOut(a.stderr)
		if err := cmd.Usage(); err != nil {
			return err
		}
		return &ExitError{Code: 1}
	}

	loader, err := source.NewLoader(source.Config{WorkDir: a.WorkDir, Exclude: cfg.Sources.Exclude})
	if err != nil {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
		return &ExitError{Code: 1}
	}

	inv := invocation{
		app:     a,
		cfg:     cfg,
		loader:  loader,
		verbose: verbose,
		req: dispatch.Request{
			Name:   rest[0],
			DryRun: g.dryRun,
		},
	}
	inv.req.Positional, inv.req.Named = argv.Parse(rest[1:])

	code := inv.once(ctx)
	if g.watch && inv.req.Name != HelpCommand && inv.req.Name != TasksCommand {
		if err := inv.watch(ctx); err != nil {
			fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1}
		}
		return nil
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// invocation is one parsed command line.
type invocation struct {
	app     *App
	cfg     *config.Config
	loader  *source.Loader
	verbose bool
	req     dispatch.Request
}

// once builds the registry and runs the command, returning the exit code.
// Failures are reported on stderr.
func (inv *invocation) once(ctx context.Context) int {
	a := inv.app
	tree, err := a.buildTree(ctx, inv.loader, inv.cfg)
	if err != nil {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
		return 1
	}

	switch inv.req.Name {
	case HelpCommand:
		return inv.help(tree)
	case TasksCommand:
		fmt.Fprintln(a.stdout, help.Tasks(tree, a.listWidth(inv.cfg)))
		if tree.Len() == 0 {
			inv.guide(issue.NoTasksId)
		}
		return 0
	}

	err = dispatch.New(tree, a.stdio()).Dispatch(ctx, inv.req)
	return inv.exitCode(err)
}

func (inv *invocation) help(tree *namespace.Tree) int {
	a := inv.app
	opts := help.Options{DocWidth: inv.cfg.Help.DocWidth}
	if inv.cfg.UI.MarkdownDocs {
		opts.RenderDoc = markdownRenderer(inv.cfg.UI.Style, a.listWidth(inv.cfg))
	}

	out, err := help.Help(tree, inv.req.Positional, opts)
	if err != nil {
		var nf *namespace.NotFoundError
		if errors.As(err, &nf) {
			fmt.Fprintf(a.stderr, "Could not find task %q\n", nf.Name)
			inv.guide(issue.TaskNotFoundId)
			return dispatch.ExitNotFound
		}
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
		return 1
	}
	if out == "" {
		out = help.NoTasks
	}
	fmt.Fprintln(a.stdout, out)
	return 0
}

// exitCode maps a dispatch result to the process exit code, reporting what
// has not been reported yet.
func (inv *invocation) exitCode(err error) int {
	if err == nil {
		return 0
	}

	var de *dispatch.Error
	if errors.As(err, &de) {
		if errors.Is(err, dispatch.ErrAmbiguous) {
			inv.guide(issue.AmbiguousTaskId)
		} else {
			inv.guide(issue.TaskNotFoundId)
		}
		return de.Code
	}

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		inv.guide(issue.ScriptFailedId)
		return coded.ExitCode()
	}

	if errors.Is(err, context.Canceled) {
		return 130
	}
	fmt.Fprintln(inv.app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, inv.verbose))
	return 1
}

// guide prints the Markdown guidance for id in verbose mode.
func (inv *invocation) guide(id issue.Id) {
	if !inv.verbose {
		return
	}
	is := issue.Get(id)
	if is == nil {
		return
	}
	out, err := is.Render(inv.cfg.UI.Style, inv.app.listWidth(inv.cfg))
	if err != nil {
		slog.Debug("rendering guidance", "error", err)
		return
	}
	fmt.Fprintln(inv.app.stderr, VerboseStyle.Render(out))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// markdownRenderer returns a RenderDoc hook rendering documentation with
// glamour. Documentation that fails to render is shown as written.
func markdownRenderer(style string, width int) func(string) string {
	return func(doc string) string {
		out, err := issue.RenderMarkdown(doc, style, width)
		if err != nil {
			slog.Debug("rendering documentation", "error", err)
			return doc
		}
		return out
	}
}

// errorHandler prints errors fang receives, except exits already reported.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// run executes the command line args with deps and returns the exit code.
func run(ctx context.Context, args []string, deps Dependencies) int {
	app, err := NewApp(deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return 1
	}
	root := newRootCommand(app)
	root.SetArgs(args)

	if err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
		fang.WithErrorHandler(errorHandler),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// Main runs shovel with the process arguments and returns the exit code.
func Main() int {
	return run(context.Background(), os.Args[1:], Dependencies{})
}

// Execute runs shovel and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}
