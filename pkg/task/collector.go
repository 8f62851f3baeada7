// SPDX-License-Identifier: MPL-2.0

package task

import "log/slog"

// Collector gathers tasks declared while loading one source. The loader
// registers into it and the caller drains it.
type Collector struct {
	tasks []*Task
	errs  []error
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Register builds the declaration and keeps the task. A declaration that
// fails to build is logged and dropped; the error stays available through
// Errors.
func (c *Collector) Register(b *Builder) *Task {
	t, err := b.Build()
	if err != nil {
		slog.Error("dropping task", "task", b.qualified(), "file", b.file, "line", b.line, "error", err)
		c.errs = append(c.errs, err)
		return nil
	}
	c.tasks = append(c.tasks, t)
	return t
}

// Add keeps an already built task.
func (c *Collector) Add(t *Task) {
	c.tasks = append(c.tasks, t)
}

// Drain returns the collected tasks in registration order and empties the
// collector.
func (c *Collector) Drain() []*Task {
	out := c.tasks
	c.tasks = nil
	return out
}

// Errors returns the registration errors seen so far.
func (c *Collector) Errors() []error {
	return c.errs
}

// Len returns the number of tasks waiting to be drained.
func (c *Collector) Len() int {
	return len(c.tasks)
}
