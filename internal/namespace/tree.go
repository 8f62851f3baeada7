// SPDX-License-Identifier: MPL-2.0

// Package namespace organises tasks into a tree addressed by dotted names.
//
// Every task and every namespace that gets replaced is kept in an arena
// shared by the whole tree, and each entry records the arena index of the
// entry it shadowed. Walking those indices gives the override lineage shown
// in task help.
package namespace

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shovel-run/shovel/pkg/task"
)

// Separator joins the segments of a fully qualified name.
const Separator = "."

// ErrNotFound is the sentinel error wrapped by NotFoundError.
var ErrNotFound = errors.New("task or namespace not found")

type (
	// Tree is a namespace: a mapping from segment to a task or a nested Tree.
	Tree struct {
		arena     *arena
		prefix    string
		children  map[string]node
		overrides task.Ref
	}

	// Entry is the result of a lookup: exactly one of Task and Tree is set.
	Entry struct {
		Task *task.Task
		Tree *Tree
	}

	// Pair is a task with its name relative to the tree it was listed from.
	Pair struct {
		Key  string
		Task *task.Task
	}

	// Child is a direct member of a namespace.
	Child struct {
		Segment string
		Task    *task.Task
		Tree    *Tree
	}

	// Shadow records a definition replaced during insertion.
	Shadow struct {
		// Name is the fully qualified name that was replaced.
		Name string
		// Namespace is set when the replaced entry was a namespace.
		Namespace bool
		// Demoted is set when a task was replaced by a namespace.
		Demoted bool
		// By is the task whose insertion caused the replacement.
		By *task.Task
	}

	// NotFoundError reports a name with no matching entry.
	// It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		Name string
	}

	// node is a tree member. For a task, overrides is the arena entry it
	// shadowed when inserted; it is fixed once the node is in the arena and
	// always lower than the node's own ref.
	node struct {
		task      *task.Task
		tree      *Tree
		ref       task.Ref
		overrides task.Ref
	}

	arena struct {
		entries []node
		shadows []Shadow
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", ErrNotFound, e.Name)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// New creates an empty root namespace.
func New() *Tree {
	return &Tree{
		arena:     &arena{},
		children:  make(map[string]node),
		overrides: task.NoRef,
	}
}

// Prefix returns the fully qualified name of the namespace, "" for the root.
func (t *Tree) Prefix() string { return t.prefix }

// Overrides returns the arena entry this namespace shadowed, or task.NoRef.
func (t *Tree) Overrides() task.Ref { return t.overrides }

// Extend inserts tasks in order.
func (t *Tree) Extend(tasks []*task.Task) {
	for _, tk := range tasks {
		t.Insert(tk)
	}
}

// Insert places tk at its fully qualified name. A task standing where an
// intermediate namespace is needed is demoted into the new namespace's
// lineage, and whatever occupied the final segment becomes tk's lineage.
func (t *Tree) Insert(tk *task.Task) {
	segments := strings.Split(tk.FullName(), Separator)
	cur := t
	for _, seg := range segments[:len(segments)-1] {
		child, ok := cur.children[seg]
		switch {
		case ok && child.tree != nil:
			cur = child.tree
			continue
		case ok && child.task != nil:
			slog.Warn("overriding task with a namespace", "task", child.task.FullName(), "by", tk.FullName())
			t.arena.shadows = append(t.arena.shadows, Shadow{Name: child.task.FullName(), Demoted: true, By: tk})
		}
		sub := &Tree{
			arena:     t.arena,
			prefix:    cur.join(seg),
			children:  make(map[string]node),
			overrides: task.NoRef,
		}
		if ok {
			sub.overrides = child.ref
		}
		cur.children[seg] = node{tree: sub, ref: task.NoRef, overrides: task.NoRef}
		cur = sub
	}

	last := segments[len(segments)-1]
	prev, ok := cur.children[last]
	shadowed := task.NoRef
	switch {
	case ok && prev.task == tk:
		return
	case ok:
		name := cur.join(last)
		slog.Warn("overriding definition", "name", name, "previous", prev.describe(), "by", tk.File())
		t.arena.shadows = append(t.arena.shadows, Shadow{Name: name, Namespace: prev.tree != nil, By: tk})
		if prev.ref == task.NoRef {
			prev.ref = t.arena.add(prev)
		}
		shadowed = prev.ref
	}
	tk.SetOverrides(shadowed)
	n := node{task: tk, overrides: shadowed}
	n.ref = t.arena.add(n)
	cur.children[last] = n
}

// Lookup walks name segment by segment. The empty name resolves to t.
func (t *Tree) Lookup(name string) (Entry, error) {
	if name == "" {
		return Entry{Tree: t}, nil
	}
	cur := t
	segments := strings.Split(name, Separator)
	for i, seg := range segments {
		child, ok := cur.children[seg]
		if !ok {
			return Entry{}, &NotFoundError{Name: name}
		}
		if i == len(segments)-1 {
			return Entry{Task: child.task, Tree: child.tree}, nil
		}
		if child.tree == nil {
			return Entry{}, &NotFoundError{Name: name}
		}
		cur = child.tree
	}
	return Entry{}, &NotFoundError{Name: name}
}

// Contains reports whether name resolves to a task or namespace.
func (t *Tree) Contains(name string) bool {
	_, err := t.Lookup(name)
	return err == nil
}

// Resolve returns the task at name, or every task under the namespace at
// name sorted by fully qualified name.
func (t *Tree) Resolve(name string) ([]*task.Task, error) {
	e, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if e.Task != nil {
		return []*task.Task{e.Task}, nil
	}
	pairs := e.Tree.Entries()
	tasks := make([]*task.Task, 0, len(pairs))
	for _, p := range pairs {
		tasks = append(tasks, p.Task)
	}
	slices.SortFunc(tasks, func(a, b *task.Task) int {
		return strings.Compare(a.FullName(), b.FullName())
	})
	return tasks, nil
}

// Entries lists every task under t, keyed by its name relative to t, sorted
// by key.
func (t *Tree) Entries() []Pair {
	var out []Pair
	t.collect("", &out)
	slices.SortFunc(out, func(a, b Pair) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Keys lists the relative names of every task under t, sorted.
func (t *Tree) Keys() []string {
	pairs := t.Entries()
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.Key)
	}
	return keys
}

// Children returns the direct members of t sorted by segment.
func (t *Tree) Children() []Child {
	out := make([]Child, 0, len(t.children))
	for seg, child := range t.children {
		out = append(out, Child{Segment: seg, Task: child.task, Tree: child.tree})
	}
	slices.SortFunc(out, func(a, b Child) int { return strings.Compare(a.Segment, b.Segment) })
	return out
}

// Len returns the number of tasks under t.
func (t *Tree) Len() int {
	n := 0
	for _, child := range t.children {
		if child.task != nil {
			n++
			continue
		}
		n += child.tree.Len()
	}
	return n
}

// Lineage returns the definitions tk shadows, nearest first.
func (t *Tree) Lineage(tk *task.Task) []task.Origin {
	var out []task.Origin
	for ref := tk.Overrides(); ref != task.NoRef; {
		n := t.arena.get(ref)
		if n.task != nil {
			out = append(out, task.Origin{Name: n.task.FullName(), File: n.task.File(), Line: n.task.Line()})
			ref = n.overrides
			continue
		}
		out = append(out, task.Origin{Namespace: true, Name: n.tree.prefix})
		ref = n.tree.overrides
	}
	return out
}

// Shadows returns every replacement recorded while building the tree.
func (t *Tree) Shadows() []Shadow {
	return slices.Clone(t.arena.shadows)
}

func (t *Tree) collect(prefix string, out *[]Pair) {
	for seg, child := range t.children {
		key := seg
		if prefix != "" {
			key = prefix + Separator + seg
		}
		if child.task != nil {
			*out = append(*out, Pair{Key: key, Task: child.task})
			continue
		}
		child.tree.collect(key, out)
	}
}

func (t *Tree) join(seg string) string {
	if t.prefix == "" {
		return seg
	}
	return t.prefix + Separator + seg
}

func (n node) describe() string {
	if n.tree != nil {
		return "namespace " + n.tree.prefix
	}
	return fmt.Sprintf("%s:%d", n.task.File(), n.task.Line())
}

func (a *arena) add(n node) task.Ref {
	a.entries = append(a.entries, n)
	return task.Ref(len(a.entries) - 1)
}

func (a *arena) get(r task.Ref) node {
	return a.entries[r]
}
