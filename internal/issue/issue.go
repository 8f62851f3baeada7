// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a kind of problem shovel can explain.
type Id int

const (
	TaskNotFoundId Id = iota + 1
	AmbiguousTaskId
	NoTasksId
	SourceInvalidId
	ScriptFailedId
	ConfigLoadFailedId
)

// DefaultStyle is the glamour style used when none is given.
const DefaultStyle = "notty"

type (
	// MarkdownMsg is guidance written in Markdown.
	MarkdownMsg string

	// Issue is the guidance for one Id.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// Id returns the issue's identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the guidance with the glamour style, wrapped at width
// columns. A width of zero disables wrapping.
func (i *Issue) Render(style string, width int) (string, error) {
	return render(string(i.mdMsg), style, width)
}

// RenderMarkdown renders arbitrary Markdown the way issues are rendered.
func RenderMarkdown(md, style string, width int) (string, error) {
	return render(md, style, width)
}

var render = func(in, style string, width int) (string, error) {
	if style == "" {
		style = DefaultStyle
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(in)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

var (
	taskNotFoundIssue = &Issue{
		id: TaskNotFoundId,
		mdMsg: `
# Task not found

No task matches the name you gave.

## Things you can try
- List every task and its docstring:
~~~
$ shovel tasks
~~~
- Use a longer, dotted name such as ` + "`deploy.web`" + `
- Check that ` + "`shovel/`" + ` or ` + "`shovel.cue`" + ` is in the current directory`,
	}

	ambiguousTaskIssue = &Issue{
		id: AmbiguousTaskId,
		mdMsg: `
# Ambiguous task name

The name refers to a namespace holding more than one task.

## Things you can try
- Run one of the tasks listed above by its full name
- Show the namespace as a tree:
~~~
$ shovel help <namespace>
~~~`,
	}

	noTasksIssue = &Issue{
		id: NoTasksId,
		mdMsg: `
# No tasks found

Shovel looks for tasks in, in order:

1. ` + "`~/.shovel.<ext>`" + ` and ` + "`~/.shovel/`" + `
2. ` + "`shovel.<ext>`" + ` and ` + "`shovel/`" + ` in the current directory

where ` + "`<ext>`" + ` is one of cue, toml, yaml or yml.

## Example shovel.cue
~~~cue
tasks: [{
	name:   "hello"
	doc:    "Say hello"
	params: [{name: "who", default: "world"}]
	script: "echo hello $who"
}]
~~~`,
	}

	sourceInvalidIssue = &Issue{
		id: SourceInvalidId,
		mdMsg: `
# Invalid task source

A task file could not be decoded and was skipped.

## Common causes
- A task without a ` + "`name`" + ` or ` + "`script`" + `
- Unknown fields, which are rejected in every format
- A parameter without a default declared after one with a default
- A script the shell parser rejects`,
	}

	scriptFailedIssue = &Issue{
		id: ScriptFailedId,
		mdMsg: `
# Task failed

The task's script exited with a non-zero status.

## Things you can try
- Show how the arguments would be bound without running anything:
~~~
$ shovel --dry-run <task> [args...]
~~~
- Parameters are available to the script as ` + "`$name`" + ` and ` + "`$SHOVEL_ARG_NAME`",
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file exists but does not match the schema.

## Things you can try
- Point shovel at another file with ` + "`--config`" + `
- Override single keys with ` + "`SHOVEL_`" + ` environment variables, e.g. ` + "`SHOVEL_HELP_DOC_WIDTH=72`",
	}

	issues = map[Id]*Issue{
		taskNotFoundIssue.Id():     taskNotFoundIssue,
		ambiguousTaskIssue.Id():    ambiguousTaskIssue,
		noTasksIssue.Id():          noTasksIssue,
		sourceInvalidIssue.Id():    sourceInvalidIssue,
		scriptFailedIssue.Id():     scriptFailedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
