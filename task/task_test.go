// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/efficios/lttv-go/merge"
	"github.com/efficios/lttv-go/trace"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	sched, err := merge.New(&trace.Traceset{})
	if err != nil {
		t.Fatalf("merge.New: %v", err)
	}
	return NewRunner(sched)
}

func TestStepOnEmptyQueueReturnsFalse(t *testing.T) {
	r := newTestRunner(t)
	if r.Step() {
		t.Fatal("Step on an empty queue must return false")
	}
}

func TestEnqueueAndStepRunsToCompletion(t *testing.T) {
	r := newTestRunner(t)
	var notified bool
	p := r.Enqueue(Key{Trace: "t1"}, merge.NewRequest("owner"), nil, nil, func(*Pass) {
		notified = true
	})
	if p.State != StateQueued {
		t.Fatalf("new pass state = %v, want StateQueued", p.State)
	}

	if !r.Step() {
		t.Fatal("Step should process the queued pass")
	}
	if !notified {
		t.Fatal("OnNotify should have fired once the pass completed")
	}
	// compact() removes done-ready passes, so the queue should now be
	// empty and a further Step should report no work.
	if r.Step() {
		t.Fatal("queue should be empty after the completed pass was compacted away")
	}
}

func TestTraceLockExcludesConcurrentPassOnSameTrace(t *testing.T) {
	r := newTestRunner(t)
	var hookAdds int
	addHooks := func(*merge.Request) { hookAdds++ }

	r.Enqueue(Key{Trace: "shared"}, merge.NewRequest("a"), addHooks, nil, nil)
	r.Enqueue(Key{Trace: "shared"}, merge.NewRequest("b"), addHooks, nil, nil)

	// An empty traceset completes each pass in a single Step, so after
	// the first Step the first pass is done and the trace lock
	// released; a second Step should then pick up the second pass
	// rather than being blocked indefinitely.
	r.Step()
	r.Step()
	if hookAdds != 2 {
		t.Fatalf("both passes should eventually run their addHooks, got %d calls", hookAdds)
	}
}

func TestEnqueueUpdatesQueueDepthMetric(t *testing.T) {
	r := newTestRunner(t)
	before := testutil.ToFloat64(queueDepth)
	r.Enqueue(Key{Trace: "t"}, merge.NewRequest("x"), nil, nil, nil)
	after := testutil.ToFloat64(queueDepth)
	if after <= before {
		t.Fatalf("queueDepth should increase on Enqueue: before=%v after=%v", before, after)
	}
}
