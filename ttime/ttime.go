// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ttime implements the cycle-counter-to-wall-clock arithmetic
// shared by every trace in a traceset: fixed-point conversion from a
// 64-bit monotonic cycle count to a (seconds, nanoseconds) timestamp,
// and the handful of timestamp operations the rest of the core needs
// (comparison, addition, subtraction, normalisation).
package ttime

import "math"

const nsPerSec = 1_000_000_000

// A Timestamp is a (seconds, nanoseconds) pair with Nanos always in
// [0, 1e9).
type Timestamp struct {
	Secs  uint64
	Nanos uint32
}

// normalize returns t with Nanos folded into Secs so that
// 0 <= Nanos < 1e9.
func (t Timestamp) normalize() Timestamp {
	if t.Nanos >= nsPerSec {
		t.Secs += uint64(t.Nanos / nsPerSec)
		t.Nanos = t.Nanos % nsPerSec
	}
	return t
}

// Add returns t + d, normalised.
func (t Timestamp) Add(d Timestamp) Timestamp {
	secs := t.Secs + d.Secs
	nanos := uint64(t.Nanos) + uint64(d.Nanos)
	return Timestamp{secs, 0}.normalize().addNanos(nanos)
}

func (t Timestamp) addNanos(n uint64) Timestamp {
	t.Secs += n / nsPerSec
	t.Nanos += uint32(n % nsPerSec)
	return t.normalize()
}

// Sub returns t - d. It panics if d > t.
func (t Timestamp) Sub(d Timestamp) Timestamp {
	if d.Compare(t) > 0 {
		panic("ttime: Sub underflow")
	}
	secs, nanos := t.Secs, int64(t.Nanos)-int64(d.Nanos)
	if nanos < 0 {
		nanos += nsPerSec
		secs--
	}
	secs -= d.Secs
	return Timestamp{secs, uint32(nanos)}
}

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater
// than u, comparing lexicographically on (Secs, Nanos).
func (t Timestamp) Compare(u Timestamp) int {
	switch {
	case t.Secs != u.Secs:
		if t.Secs < u.Secs {
			return -1
		}
		return 1
	case t.Nanos != u.Nanos:
		if t.Nanos < u.Nanos {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less reports whether t < u.
func (t Timestamp) Less(u Timestamp) bool { return t.Compare(u) < 0 }

// Nanoseconds returns t as a single nanosecond count. This is lossy
// for very large Secs relative to an int64 and is intended only for
// display and for arithmetic local to a short span (e.g. distances
// within a single traceset).
func (t Timestamp) Nanoseconds() int64 {
	return int64(t.Secs)*nsPerSec + int64(t.Nanos)
}

// FromNanoseconds builds a Timestamp from a nanosecond count.
func FromNanoseconds(ns int64) Timestamp {
	if ns < 0 {
		panic("ttime: negative timestamp")
	}
	return Timestamp{uint64(ns) / nsPerSec, uint32(uint64(ns) % nsPerSec)}
}

// ClockParams are the per-trace frequency and epoch parameters needed
// to reconstruct wall-clock time from a raw cycle count.
type ClockParams struct {
	StartFreq         uint64    // cycles per second of the tracing clock
	FreqScale         float64   // corrective scale factor applied to StartFreq
	StartTSC          uint64    // cycle count at trace start
	StartMonotonic    uint64    // CLOCK_MONOTONIC at trace start, in ns
	StartTime         Timestamp // wall time at trace start
	StartTimeFromTSC  Timestamp // wall time at trace start, as derived from StartTSC
}

// CyclesToNS converts a cycle delta into a nanosecond duration using
// this trace's frequency and scale:
//
//	ns = round(cycles * 1e9 * FreqScale / StartFreq)
//
// The computation is carried out in float64, matching the precision
// of the original tracer's own conversion; callers passing cycle
// deltas that remain within a few hours of wall time at GHz-class
// frequencies see no observable rounding error.
func (c ClockParams) CyclesToNS(cycles uint64) uint64 {
	if c.StartFreq == 0 {
		return 0
	}
	ns := float64(cycles) * float64(nsPerSec) * c.FreqScale / float64(c.StartFreq)
	return uint64(math.Round(ns))
}

// Time reconstructs the wall-clock Timestamp corresponding to the
// full 64-bit cycle count tsc, relative to StartTSC/StartTimeFromTSC.
func (c ClockParams) Time(tsc uint64) Timestamp {
	delta := tsc - c.StartTSC
	return c.StartTimeFromTSC.addNanos(c.CyclesToNS(delta))
}

// Factor is the affine clock correction fitted by the synchroniser:
// reported_ns = drift*raw_ns + offset_ns.
type Factor struct {
	Drift  float64
	Offset float64 // nanoseconds
}

// Identity is the no-op correction factor used for unsynchronised
// traces and for the reference trace of each connected component.
var Identity = Factor{Drift: 1, Offset: 0}

// Apply shifts t by this factor, operating on the nanosecond
// representation (sufficient precision for the magnitude of
// corrections the synchroniser produces).
func (f Factor) Apply(t Timestamp) Timestamp {
	ns := float64(t.Nanoseconds())*f.Drift + f.Offset
	if ns < 0 {
		ns = 0
	}
	return FromNanoseconds(int64(math.Round(ns)))
}

// Compose combines a child factor (relative to its parent) with the
// parent's own factor relative to the ultimate reference, following
// shortest-path propagation through the synchronisation graph:
//
//	drift(j)  = drift(parent) * (1 + x)
//	offset(j) = drift(parent) * d0 + offset(parent)
func Compose(parent Factor, x, d0 float64) Factor {
	return Factor{
		Drift:  parent.Drift * (1 + x),
		Offset: parent.Drift*d0 + parent.Offset,
	}
}
