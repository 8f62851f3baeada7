// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"testing"
	"time"
)

func TestBatcherStopWaitsForRun(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	b := newBatcher(context.Background(), 10*time.Millisecond, func(context.Context, []string) {
		close(started)
		<-release
	})
	b.add("shovel.cue")

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not start")
	}

	stopped := make(chan struct{})
	go func() {
		b.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop() returned while a run was in progress")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop() did not return after the run finished")
	}
}

func TestBatcherStopWithoutRun(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)
	b := newBatcher(context.Background(), time.Hour, func(context.Context, []string) { ran <- struct{}{} })
	b.add("shovel.cue")
	b.stop()
	b.add("shovel.toml")

	select {
	case <-ran:
		t.Error("run called after stop()")
	default:
	}
}
