// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import "github.com/efficios/lttv-go/ttime"

// Traceset is an ordered set of Traces plus their combined time span.
type Traceset struct {
	Traces   []*Trace
	TimeSpan TimeSpan
}

// TimeSpan is an inclusive-start, inclusive-end time range.
type TimeSpan struct {
	Start, End ttime.Timestamp
}

// NewTraceset computes a Traceset over the given traces, deriving
// TimeSpan from the minimum start and maximum end across every
// tracefile.
func NewTraceset(traces []*Trace) *Traceset {
	ts := &Traceset{Traces: traces}
	first := true
	for _, tr := range traces {
		for _, tf := range tr.Tracefiles {
			start := tr.Factor.Apply(tf.clock.StartTimeFromTSC)
			end := start
			if tf.NumBlocks > 0 {
				if hdr, err := tf.readBlockHeaderAt(tf.NumBlocks - 1); err == nil {
					end = tr.Factor.Apply(tf.clock.Time(hdr.EndTSC))
				}
			}
			if first {
				ts.TimeSpan = TimeSpan{start, end}
				first = false
				continue
			}
			if start.Less(ts.TimeSpan.Start) {
				ts.TimeSpan.Start = start
			}
			if ts.TimeSpan.End.Less(end) {
				ts.TimeSpan.End = end
			}
		}
	}
	return ts
}
