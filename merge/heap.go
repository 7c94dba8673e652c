// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"container/heap"

	"github.com/efficios/lttv-go/trace"
)

// cursor is one tracefile's position in the merge: it holds the next
// event already read from that tracefile (a lookahead of 1), so the
// heap can always compare by time without re-reading.
type cursor struct {
	trace      *trace.Trace
	traceIndex int
	tf         *trace.Tracefile
	tfIndex    int
	next       *trace.Event
}

// cursorHeap is a container/heap.Interface ordering cursors by
// (event time, trace index, tracefile index). It is expressed as a
// genuine priority queue, rather than a sort pass, since the merge is
// long-lived across many Next calls.
type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	c := a.next.Time.Compare(b.next.Time)
	if c != 0 {
		return c < 0
	}
	if a.traceIndex != b.traceIndex {
		return a.traceIndex < b.traceIndex
	}
	return a.tfIndex < b.tfIndex
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(*cursor))
}

func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

var _ = heap.Interface(&cursorHeap{})
