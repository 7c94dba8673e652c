// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import "github.com/efficios/lttv-go/ttime"

// Reason explains why Scheduler.Process stopped delivering events.
type Reason int

const (
	ReasonEndTime Reason = iota
	ReasonMaxEvents
	ReasonEndPosition
	ReasonEmpty
	ReasonStopped
)

// Request is one client's declared interest in a slice of the merged
// event stream.
type Request struct {
	Owner string

	StartTime    ttime.Timestamp
	HasStartTime bool

	EndTime    ttime.Timestamp
	HasEndTime bool

	MaxEvents int // 0 means unbounded

	hooks *hookSet

	// StopFlag may be set by any hook; the scheduler observes it
	// between hook invocations and at chunk boundaries.
	StopFlag bool

	delivered int
	started   bool
	done      bool
}

// NewRequest creates a Request with an empty hook set.
func NewRequest(owner string) *Request {
	return &Request{Owner: owner, hooks: newHookSet()}
}

// AddHook registers h at point for this request.
func (r *Request) AddHook(point Point, h Hook) { r.hooks.Add(point, h) }

// AddHookByIDChannel registers h to run only for events named name on
// channel (empty channel matches any).
func (r *Request) AddHookByIDChannel(channel, name string, h Hook) {
	r.hooks.AddByIDChannel(channel, name, h)
}

// Delivered returns the number of events dispatched to this request
// so far.
func (r *Request) Delivered() int { return r.delivered }

// Done reports whether the request has reached one of its end
// conditions.
func (r *Request) Done() bool { return r.done }

func (r *Request) inWindow(t ttime.Timestamp) bool {
	if r.HasStartTime && t.Less(r.StartTime) {
		return false
	}
	if r.HasEndTime && r.EndTime.Less(t) {
		return false
	}
	return true
}

func (r *Request) reachedEnd(t ttime.Timestamp) (Reason, bool) {
	if r.StopFlag {
		return ReasonStopped, true
	}
	if r.MaxEvents > 0 && r.delivered >= r.MaxEvents {
		return ReasonMaxEvents, true
	}
	if r.HasEndTime && r.EndTime.Less(t) {
		return ReasonEndTime, true
	}
	return 0, false
}
