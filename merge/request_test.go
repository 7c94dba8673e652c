// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"testing"

	"github.com/efficios/lttv-go/ttime"
)

func TestRequestInWindow(t *testing.T) {
	r := NewRequest("test")
	r.HasStartTime = true
	r.StartTime = ttime.Timestamp{Secs: 10}
	r.HasEndTime = true
	r.EndTime = ttime.Timestamp{Secs: 20}

	if r.inWindow(ttime.Timestamp{Secs: 5}) {
		t.Fatal("time before start should be out of window")
	}
	if !r.inWindow(ttime.Timestamp{Secs: 10}) {
		t.Fatal("time at start (inclusive) should be in window")
	}
	if !r.inWindow(ttime.Timestamp{Secs: 20}) {
		t.Fatal("time at end (inclusive) should be in window")
	}
	if r.inWindow(ttime.Timestamp{Secs: 21}) {
		t.Fatal("time after end should be out of window")
	}
}

func TestRequestReachedEndMaxEvents(t *testing.T) {
	r := NewRequest("test")
	r.MaxEvents = 2
	r.delivered = 2
	reason, done := r.reachedEnd(ttime.Timestamp{})
	if !done || reason != ReasonMaxEvents {
		t.Fatalf("got (%v, %v), want (ReasonMaxEvents, true)", reason, done)
	}
}

func TestRequestReachedEndStopFlag(t *testing.T) {
	r := NewRequest("test")
	r.StopFlag = true
	reason, done := r.reachedEnd(ttime.Timestamp{})
	if !done || reason != ReasonStopped {
		t.Fatalf("got (%v, %v), want (ReasonStopped, true)", reason, done)
	}
}

func TestRequestReachedEndTime(t *testing.T) {
	r := NewRequest("test")
	r.HasEndTime = true
	r.EndTime = ttime.Timestamp{Secs: 10}
	reason, done := r.reachedEnd(ttime.Timestamp{Secs: 11})
	if !done || reason != ReasonEndTime {
		t.Fatalf("got (%v, %v), want (ReasonEndTime, true)", reason, done)
	}
	if _, done := r.reachedEnd(ttime.Timestamp{Secs: 10}); done {
		t.Fatal("reaching exactly EndTime should not itself end the request (inclusive window)")
	}
}

func TestRequestNotDoneUntilFlagged(t *testing.T) {
	r := NewRequest("test")
	if r.Done() {
		t.Fatal("new request must not be done")
	}
}
