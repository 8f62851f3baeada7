// SPDX-License-Identifier: MPL-2.0

// Package help renders task listings and task descriptions.
package help

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shovel-run/shovel/internal/namespace"
)

const (
	// DefaultDocWidth is the documentation budget of a group listing row.
	DefaultDocWidth = 50
	// MissingDoc stands in for an empty documentation string.
	MissingDoc = "(No docstring)"
	// NoTasks is printed by Tasks when the tree is empty.
	NoTasks = "No tasks found!"

	indent   = "    "
	ellipsis = "..."
	// minDocWidth keeps some documentation visible on narrow terminals.
	minDocWidth = 10
)

var whitespace = regexp.MustCompile(`\s+`)

type (
	// Options tunes rendering.
	Options struct {
		// DocWidth is the documentation budget of a group listing row.
		// Zero means DefaultDocWidth.
		DocWidth int
		// RenderDoc, when set, rewrites a task's documentation in its
		// description, e.g. to render markdown.
		RenderDoc func(string) string
	}

	row struct {
		name  string
		doc   string
		level int
		group bool
	}
)

// Help renders help for names. Without names it lists every task; each
// name renders as a group listing for a namespace or a description for a
// task. Results for several names are separated by a blank line.
func Help(tree *namespace.Tree, names []string, opts Options) (string, error) {
	if len(names) == 0 {
		return Group(tree, opts), nil
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		e, err := tree.Lookup(name)
		if err != nil {
			return "", err
		}
		if e.Tree != nil {
			parts = append(parts, Group(e.Tree, opts))
			continue
		}
		parts = append(parts, e.Task.DescribeWith(tree.Lineage(e.Task), opts.RenderDoc))
	}
	return strings.Join(parts, "\n\n"), nil
}

// Group renders the hierarchical listing of every task under tree. Each
// namespace gets a "path/" header indented by its depth, emitted once before
// its members; task rows are right-aligned names followed by their
// documentation, truncated to the doc budget.
func Group(tree *namespace.Tree, opts Options) string {
	rows := collect(tree, tree.Prefix(), 0, nil)
	if len(rows) == 0 {
		return ""
	}

	width := opts.DocWidth
	if width <= 0 {
		width = DefaultDocWidth
	}

	longest := 0
	for _, r := range rows {
		longest = max(longest, utf8.RuneCountInString(r.name)+len(indent)*r.level)
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.group {
			lines = append(lines, strings.Repeat(indent, r.level)+r.name+"/")
			continue
		}
		doc := Truncate(Collapse(r.doc), width)
		lines = append(lines, strings.TrimRight(fmt.Sprintf("%*s => %-*s", longest, r.name, width, doc), " "))
	}
	return strings.Join(lines, "\n")
}

// Tasks renders the flat task listing: one "<name> # <doc>" row per task,
// with names padded to the longest one and documentation truncated so rows
// fit in width columns. A width of zero disables truncation.
func Tasks(tree *namespace.Tree, width int) string {
	pairs := tree.Entries()
	if len(pairs) == 0 {
		return NoTasks
	}

	longest := 0
	for _, p := range pairs {
		longest = max(longest, utf8.RuneCountInString(p.Task.FullName()))
	}

	budget := 0
	if width > 0 {
		budget = max(width-longest-len(" # "), minDocWidth)
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		doc := Collapse(p.Task.Doc())
		if budget > 0 {
			doc = Truncate(doc, budget)
		}
		lines = append(lines, strings.TrimRight(fmt.Sprintf("%-*s # %s", longest, p.Task.FullName(), doc), " "))
	}
	return strings.Join(lines, "\n")
}

// Collapse replaces every run of whitespace with a single space and trims
// the ends.
func Collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	keep := max(n-len(ellipsis), 0)
	return string(r[:keep]) + ellipsis
}

func collect(tree *namespace.Tree, prefix string, level int, out []row) []row {
	for _, c := range tree.Children() {
		name := c.Segment
		if prefix != "" {
			name = prefix + namespace.Separator + c.Segment
		}
		if c.Tree != nil {
			out = append(out, row{name: name, level: level, group: true})
			out = collect(c.Tree, name, level+1, out)
			continue
		}
		doc := c.Task.Doc()
		if strings.TrimSpace(doc) == "" {
			doc = MissingDoc
		}
		out = append(out, row{name: name, doc: doc, level: level})
	}
	return out
}
