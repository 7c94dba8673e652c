// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package task implements the cooperative background scheduler: a
// queue of long-running passes, keyed by (trace, module), run in
// chunked slices against the merge scheduler so that interactive
// requests are never blocked for long.
//
// Metrics are typed Prometheus collectors registered once against
// the default registerer and updated from the scheduler's own chunk
// loop.
package task

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/efficios/lttv-go/merge"
)

// State is a queued pass's position in its lifecycle.
type State int

const (
	StateQueued State = iota
	StateCurrent
	StateDoneReady
)

// Key identifies one (trace, module) pair: only one pass may hold the
// trace-level lock for a given trace at a time.
type Key struct {
	Trace  string
	Module string
}

// Notify is called when a Pass reaches a requested time/position or
// completes.
type Notify func(*Pass)

// Pass is one long-running request queued against the scheduler.
type Pass struct {
	Key     Key
	Req     *merge.Request
	State   State
	OnNotify Notify

	addHooks    func(*merge.Request)
	removeHooks func(*merge.Request)
}

var (
	metricsOnce sync.Once

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lttv",
		Subsystem: "task",
		Name:      "queue_depth",
		Help:      "Number of passes currently queued or running.",
	})

	chunksProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lttv",
		Subsystem: "task",
		Name:      "chunks_processed_total",
		Help:      "Total number of chunk-sized slices of event processing completed.",
	})

	eventsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lttv",
		Subsystem: "task",
		Name:      "events_processed_total",
		Help:      "Total number of events dispatched across all passes.",
	})
)

// registerMetrics is idempotent: repeated calls register the
// collectors exactly once.
func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(queueDepth, chunksProcessed, eventsProcessed)
	})
}

// Runner is the scheduler itself: a per-trace advisory lock plus a
// queue of passes serviced chunk-by-chunk against a merge.Scheduler.
type Runner struct {
	sched *merge.Scheduler

	mu     sync.Mutex
	locked map[string]bool
	queue  []*Pass

	// ChunkSize bounds how many events one call to Step dispatches per
	// pass before yielding.
	ChunkSize int
}

// DefaultChunkSize is the ChunkSize NewRunner sets: merge.DefaultChunkSize,
// the number of events dispatched between cooperative yield points.
const DefaultChunkSize = merge.DefaultChunkSize

// NewRunner creates a Runner driving sched.
func NewRunner(sched *merge.Scheduler) *Runner {
	registerMetrics()
	return &Runner{
		sched:     sched,
		locked:    make(map[string]bool),
		ChunkSize: DefaultChunkSize,
	}
}

// Enqueue adds req as a new queued pass for key, splicing addHooks'
// output into req for the duration of the pass.
func (r *Runner) Enqueue(key Key, req *merge.Request, addHooks, removeHooks func(*merge.Request), onNotify Notify) *Pass {
	p := &Pass{Key: key, Req: req, State: StateQueued, OnNotify: onNotify, addHooks: addHooks, removeHooks: removeHooks}
	r.mu.Lock()
	r.queue = append(r.queue, p)
	queueDepth.Set(float64(len(r.queue)))
	r.mu.Unlock()
	return p
}

// Step advances the queue by one chunk: it picks the first queued or
// current pass whose trace is not already locked by another pass,
// promotes it to current, runs one chunk of its merge.Request, and
// either re-queues it or marks it done-ready.
func (r *Runner) Step() bool {
	r.mu.Lock()
	var p *Pass
	for _, cand := range r.queue {
		if cand.State == StateDoneReady {
			continue
		}
		if r.locked[cand.Key.Trace] && cand.State != StateCurrent {
			continue
		}
		p = cand
		break
	}
	if p == nil {
		r.mu.Unlock()
		return false
	}
	if p.State == StateQueued {
		p.State = StateCurrent
		r.locked[p.Key.Trace] = true
		if p.addHooks != nil {
			p.addHooks(p.Req)
		}
	}
	r.mu.Unlock()

	before := p.Req.Delivered()
	reason := r.sched.Process(p.Req, r.ChunkSize)
	chunksProcessed.Inc()
	eventsProcessed.Add(float64(p.Req.Delivered() - before))

	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Req.Done() {
		p.State = StateDoneReady
		delete(r.locked, p.Key.Trace)
		if p.removeHooks != nil {
			p.removeHooks(p.Req)
		}
		if p.OnNotify != nil {
			p.OnNotify(p)
		}
		r.compact()
		return true
	}

	_ = reason // ReasonMaxEvents: chunk boundary reached, yield and revisit next Step.
	if p.OnNotify != nil {
		p.OnNotify(p)
	}
	return true
}

// compact removes done-ready passes from the queue; callers that want
// to inspect a finished Pass should do so from the Notify callback,
// since Step may drop it immediately after.
func (r *Runner) compact() {
	kept := r.queue[:0]
	for _, p := range r.queue {
		if p.State != StateDoneReady {
			kept = append(kept, p)
		}
	}
	r.queue = kept
	queueDepth.Set(float64(len(r.queue)))
}

// Run drives Step in a loop until the queue is empty, yielding between
// chunks via the given yield function (e.g. runtime.Gosched, or a
// channel receive honoring a cancellation context from the caller).
func (r *Runner) Run(yield func()) {
	for r.Step() {
		if yield != nil {
			yield()
		}
	}
}
