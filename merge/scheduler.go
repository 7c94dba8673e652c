// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package merge implements the merge scheduler: it
// presents every tracefile of a Traceset as one globally time-ordered
// event stream via a lookahead-1 cursor per tracefile kept in a binary
// min-heap, and dispatches a priority-ordered set of hooks around each
// event and each chunk boundary so that multiple consumers (state
// inference, filters, reporters) can share a single pass over the
// data.
//
// The heap is a genuine container/heap.Interface, rather than a sort
// pass, because the merge is re-used across many Process calls rather
// than built once and discarded.
package merge

import (
	"container/heap"
	"errors"

	"github.com/efficios/lttv-go/trace"
	"github.com/efficios/lttv-go/ttime"
)

// DefaultChunkSize is the number of events processed between
// cooperative yield points when a caller drives Process via the
// background task runner.
const DefaultChunkSize = 10000

// Scheduler merges every tracefile of a Traceset into one time-ordered
// stream.
type Scheduler struct {
	ts *trace.Traceset
	h  cursorHeap
}

// New builds a Scheduler over every tracefile in ts, positioned at the
// start of each.
func New(ts *trace.Traceset) (*Scheduler, error) {
	s := &Scheduler{ts: ts}
	if err := s.Seek(ts.TimeSpan.Start); err != nil && err != trace.EndOfStream {
		return nil, err
	}
	return s, nil
}

// Seek repositions every tracefile's cursor to the earliest event with
// time >= t and rebuilds the heap.
func (s *Scheduler) Seek(t ttime.Timestamp) error {
	s.h = s.h[:0]
	for ti, tr := range s.ts.Traces {
		for fi, tf := range tr.Tracefiles {
			if err := tf.SeekTime(t); err == trace.EndOfStream {
				continue
			} else if err != nil {
				return err
			}
			ev, err := tf.Read()
			if err == trace.EndOfStream {
				continue
			}
			if err != nil {
				return err
			}
			s.h = append(s.h, &cursor{trace: tr, traceIndex: ti, tf: tf, tfIndex: fi, next: ev})
		}
	}
	heap.Init(&s.h)
	return nil
}

// NextEvent returns the chronologically next event across every
// tracefile without consuming it from its owner for a specific
// Request — it is the primitive both Process and callers wanting raw
// iteration build on.
func (s *Scheduler) NextEvent() (*trace.Event, *trace.Trace, *trace.Tracefile, bool) {
	if len(s.h) == 0 {
		return nil, nil, nil, false
	}
	top := s.h[0]
	ev, tr, tf := top.next, top.trace, top.tf

	next, err := refill(tf)
	if err != nil {
		heap.Pop(&s.h)
	} else {
		top.next = next
		heap.Fix(&s.h, 0)
	}
	return ev, tr, tf, true
}

// refill reads the next event off tf, silently retrying past any
// recoverable *trace.DecodeError rather than treating it as a reason
// to drop tf from the merge: Read has already counted the corruption
// and advanced past the damaged block or event by the time it
// returns one.
func refill(tf *trace.Tracefile) (*trace.Event, error) {
	next, err := tf.Read()
	var de *trace.DecodeError
	for errors.As(err, &de) {
		next, err = tf.Read()
	}
	return next, err
}

// Process drives req to completion (or to its chunk limit), running
// before_request/before_chunk_*/event/after_chunk_*/after_request hooks
// as it goes. maxChunk bounds how many events are
// dispatched before Process returns control to the caller even if req
// is not yet done, so that a background task runner can cooperatively
// yield; pass 0 for no limit. An event hook that returns true ends the
// current chunk: its after_chunk_* hooks run and Process returns
// ReasonStopped without marking req done.
func (s *Scheduler) Process(req *Request, maxChunk int) Reason {
	ctx := &Context{Request: req}

	if !req.started {
		req.started = true
		s.h.runBeforeRequest(ctx)
	}

	var lastTrace *trace.Trace
	var lastTf *trace.Tracefile
	chunkCount := 0

	for {
		if req.StopFlag {
			s.closeChunk(ctx, lastTrace, lastTf)
			return ReasonStopped
		}
		if len(s.h) == 0 {
			s.closeChunk(ctx, lastTrace, lastTf)
			req.done = true
			req.hooks.run(AfterRequest, ctx)
			return ReasonEmpty
		}

		top := s.h[0]
		ev := top.next

		if reason, done := req.reachedEnd(ev.Time); done {
			s.closeChunk(ctx, lastTrace, lastTf)
			req.done = true
			req.hooks.run(AfterRequest, ctx)
			return reason
		}

		if top.tf != lastTf {
			s.closeChunk(ctx, lastTrace, lastTf)
			ctx.Trace, ctx.Tracefile = top.trace, top.tf
			if top.trace != lastTrace {
				req.hooks.run(BeforeChunkTrace, ctx)
			}
			req.hooks.run(BeforeChunkTracefile, ctx)
			lastTrace, lastTf = top.trace, top.tf
		}

		stop := false
		if req.inWindow(ev.Time) {
			ctx.Event = ev
			ctx.Trace, ctx.Tracefile = top.trace, top.tf
			stop = req.hooks.runEvent(ctx)
			req.delivered++
			ctx.Event = nil
		}

		next, err := refill(top.tf)
		if err != nil {
			heap.Pop(&s.h)
		} else {
			top.next = next
			heap.Fix(&s.h, 0)
		}

		if stop {
			s.closeChunk(ctx, lastTrace, lastTf)
			return ReasonStopped
		}
		chunkCount++
		if maxChunk > 0 && chunkCount >= maxChunk {
			return ReasonMaxEvents
		}
	}
}

func (s *Scheduler) closeChunk(ctx *Context, tr *trace.Trace, tf *trace.Tracefile) {
	if tf == nil {
		return
	}
	ctx.Trace, ctx.Tracefile = tr, tf
	ctx.Request.hooks.run(AfterChunkTracefile, ctx)
	ctx.Request.hooks.run(AfterChunkTrace, ctx)
}

// runBeforeRequest dispatches BeforeRequest without needing a live
// cursor; it is a cursorHeap method only so Scheduler.Process can keep
// its hook dispatch uniform with the rest of the pass.
func (h cursorHeap) runBeforeRequest(ctx *Context) {
	ctx.Request.hooks.run(BeforeRequest, ctx)
	ctx.Request.hooks.run(BeforeChunkTraceset, ctx)
}

// ProcessMany merges several concurrent requests into a single pass
// over the traceset: each request keeps its own window and hook set,
// but the scheduler advances the shared heap once per event rather
// than once per request.
func (s *Scheduler) ProcessMany(reqs []*Request) []Reason {
	reasons := make([]Reason, len(reqs))
	active := make([]bool, len(reqs))
	for i, r := range reqs {
		active[i] = true
		if !r.started {
			r.started = true
			ctx := &Context{Request: r}
			s.h.runBeforeRequest(ctx)
		}
	}

	lastTf := make([]*trace.Tracefile, len(reqs))
	lastTrace := make([]*trace.Trace, len(reqs))

	for {
		anyActive := false
		for _, a := range active {
			anyActive = anyActive || a
		}
		if !anyActive {
			return reasons
		}
		if len(s.h) == 0 {
			for i, r := range reqs {
				if !active[i] {
					continue
				}
				ctx := &Context{Request: r}
				s.closeChunk(ctx, lastTrace[i], lastTf[i])
				r.done = true
				r.hooks.run(AfterRequest, ctx)
				reasons[i] = ReasonEmpty
				active[i] = false
			}
			continue
		}

		top := s.h[0]
		ev := top.next

		for i, r := range reqs {
			if !active[i] {
				continue
			}
			if reason, done := r.reachedEnd(ev.Time); done {
				ctx := &Context{Request: r}
				s.closeChunk(ctx, lastTrace[i], lastTf[i])
				r.done = true
				r.hooks.run(AfterRequest, ctx)
				reasons[i] = reason
				active[i] = false
				continue
			}
			ctx := &Context{Request: r, Trace: top.trace, Tracefile: top.tf}
			if top.tf != lastTf[i] {
				s.closeChunk(ctx, lastTrace[i], lastTf[i])
				if top.trace != lastTrace[i] {
					r.hooks.run(BeforeChunkTrace, ctx)
				}
				r.hooks.run(BeforeChunkTracefile, ctx)
				lastTrace[i], lastTf[i] = top.trace, top.tf
			}
			if r.inWindow(ev.Time) {
				ctx.Event = ev
				r.hooks.runEvent(ctx)
				r.delivered++
			}
		}

		next, err := refill(top.tf)
		if err != nil {
			heap.Pop(&s.h)
		} else {
			top.next = next
			heap.Fix(&s.h, 0)
		}
	}
}
