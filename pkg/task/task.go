// SPDX-License-Identifier: MPL-2.0

package task

import (
	"fmt"
	"strings"

	"github.com/shovel-run/shovel/pkg/params"
)

// NoRef marks a task or namespace that shadows nothing.
const NoRef Ref = -1

const (
	describeRule    = 50
	describeSubRule = 30
)

type (
	// Ref indexes the arena of a namespace tree. Each task records the entry
	// it replaced so the chain of shadowed definitions can be walked.
	Ref int

	// Origin describes one shadowed definition in a task's lineage.
	Origin struct {
		// Namespace is set when the shadowed entry was a whole namespace.
		Namespace bool
		// Name is the fully qualified name of the shadowed entry.
		Name string
		File string
		Line int
	}

	// Task is a named callable with a declared signature.
	Task struct {
		name      string
		fullName  string
		doc       string
		sig       params.Signature
		file      string
		line      int
		context   string
		unit      Unit
		overrides Ref
	}
)

// Name returns the last segment of the task's name.
func (t *Task) Name() string { return t.name }

// FullName returns the dotted, fully qualified name.
func (t *Task) FullName() string { return t.fullName }

// Doc returns the documentation string.
func (t *Task) Doc() string { return t.doc }

// Signature returns the declared parameter signature.
func (t *Task) Signature() params.Signature { return t.sig }

// File returns the file the task was declared in.
func (t *Task) File() string { return t.file }

// Line returns the line the task was declared on.
func (t *Task) Line() int { return t.line }

// Context identifies the module the task was declared in.
func (t *Task) Context() string { return t.context }

// Overrides returns the arena entry this task shadowed, or NoRef.
func (t *Task) Overrides() Ref { return t.overrides }

// SetOverrides records the arena entry this task shadows. A namespace tree
// sets it once while inserting the task.
func (t *Task) SetOverrides(r Ref) { t.overrides = r }

// String returns the fully qualified name.
func (t *Task) String() string { return t.fullName }

// Describe renders the detailed help for the task. lineage lists the
// definitions it shadows, nearest first.
func (t *Task) Describe(lineage []Origin) string {
	return t.DescribeWith(lineage, nil)
}

// DescribeWith is Describe with the documentation passed through render,
// when render is not nil.
func (t *Task) DescribeWith(lineage []Origin, render func(string) string) string {
	var b strings.Builder
	rule := strings.Repeat("=", describeRule)
	sub := strings.Repeat("=", describeSubRule)

	b.WriteString(rule + "\n")
	b.WriteString(t.name + "\n")
	if t.doc != "" {
		b.WriteString(sub + "\n")
		doc := strings.TrimSpace(t.doc)
		if render != nil {
			doc = strings.TrimSpace(render(doc))
		}
		b.WriteString(doc + "\n")
	}
	for _, o := range lineage {
		b.WriteString(o.overridesLine() + "\n")
	}
	b.WriteString(sub + "\n")
	fmt.Fprintf(&b, "From %s on line %s\n", orUnknown(t.file, "file"), lineText(t.line))
	b.WriteString(sub + "\n")
	b.WriteString(t.name + t.sig.String())
	return b.String()
}

func (o Origin) overridesLine() string {
	if o.Namespace {
		return "Overrides module " + o.Name
	}
	return fmt.Sprintf("Overrides %s on line %s", orUnknown(o.File, "file"), lineText(o.Line))
}

func orUnknown(s, what string) string {
	if s == "" {
		return "unknown " + what
	}
	return s
}

func lineText(n int) string {
	if n <= 0 {
		return "unknown line"
	}
	return fmt.Sprint(n)
}
