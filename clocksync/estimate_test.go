// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clocksync

import (
	"math"
	"testing"
)

func TestAccumulatorFinalizePerfectFit(t *testing.T) {
	// d = 2*t + 100 exactly: the fit must recover x=2 (the slope of d
	// against t), d0=100, and a near-zero residual.
	var a accumulator
	ts := []float64{0, 1, 2, 3, 4}
	ds := make([]float64, len(ts))
	const slope, intercept = 2.0, 100.0
	for i, tv := range ts {
		ds[i] = slope*tv + intercept
		a.add(tv, ds[i])
	}
	x, d0, e := a.finalize(ts, ds)
	if math.Abs(x-slope) > 1e-6 {
		t.Errorf("x = %v, want %v", x, slope)
	}
	if math.Abs(d0-intercept) > 1e-6 {
		t.Errorf("d0 = %v, want %v", d0, intercept)
	}
	if e > 1e-6 {
		t.Errorf("residual stddev = %v, want ~0 for an exact fit", e)
	}
}

func TestAccumulatorFinalizeInsufficientData(t *testing.T) {
	var a accumulator
	a.add(1, 1)
	_, _, e := a.finalize([]float64{1}, []float64{1})
	if !math.IsInf(e, 1) {
		t.Fatalf("a single-point fit must report infinite error, got %v", e)
	}
}

func TestBuildExchangesByPairGroupsByDirection(t *testing.T) {
	exchanges := []exchange{
		{i: 0, j: 1, outI: ts(0), inJ: ts(1), outJ: ts(2), inI: ts(3)},
		{i: 0, j: 1, outI: ts(10), inJ: ts(11), outJ: ts(12), inI: ts(13)},
	}
	byPair := buildExchangesByPair(exchanges)
	p, ok := byPair[[2]TraceIndex{1, 0}]
	if !ok {
		t.Fatalf("expected a [j=1][i=0] pair, got keys %v", keysOf(byPair))
	}
	if p.N != 2 {
		t.Fatalf("N = %d, want 2", p.N)
	}
	if p.I != 0 || p.J != 1 {
		t.Fatalf("Pair.I/J = %d/%d, want 0/1", p.I, p.J)
	}
}

func keysOf(m map[[2]TraceIndex]*Pair) [][2]TraceIndex {
	out := make([][2]TraceIndex, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
