// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"slices"
	"sync"
	"time"
)

// batcher collects changed paths and hands them to run once the debounce
// period passes without a new path. If run is still busy when the period
// ends, the batch waits for another period. stop waits for a run already in
// progress.
type batcher struct {
	ctx      context.Context
	debounce time.Duration
	run      func(ctx context.Context, changed []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	busy    bool
	stopped bool
	running sync.WaitGroup
}

func newBatcher(ctx context.Context, debounce time.Duration, run func(context.Context, []string)) *batcher {
	return &batcher{ctx: ctx, debounce: debounce, run: run, pending: make(map[string]struct{})}
}

func (b *batcher) add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.pending[path] = struct{}{}
	b.arm()
}

// arm (re)starts the timer. b.mu must be held.
func (b *batcher) arm() {
	if b.timer == nil {
		b.timer = time.AfterFunc(b.debounce, b.fire)
		return
	}
	b.timer.Reset(b.debounce)
}

func (b *batcher) fire() {
	b.mu.Lock()
	if b.stopped || b.ctx.Err() != nil || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	if b.busy {
		b.arm()
		b.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(b.pending))
	for p := range b.pending {
		changed = append(changed, p)
	}
	clear(b.pending)
	b.busy = true
	b.running.Add(1)
	b.mu.Unlock()
	defer b.running.Done()

	slices.Sort(changed)
	b.run(b.ctx, changed)

	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

func (b *batcher) stop() {
	b.mu.Lock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.running.Wait()
}
