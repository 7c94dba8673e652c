// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders statistics out of an attribute.Tree and a
// clock-synchronisation Result into the textual tables external
// consumers of the analysis core expect.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/efficios/lttv-go/attribute"
	"github.com/efficios/lttv-go/scale"
)

// Bucket is one histogram bar: the value range [Lo, Hi) and the
// number of samples that fell in it. The last bucket also holds
// samples equal to its Hi.
type Bucket struct {
	Lo, Hi float64
	Count  int
}

// Histogram buckets a set of float64 samples using the local
// axis-scaling package: NewLog for data spanning orders of magnitude
// (the common case for cpu_time/elapsed_time in nanoseconds), NewLinear
// otherwise.
type Histogram struct {
	Buckets []Bucket
}

// NewHistogram buckets samples into n buckets. If every sample is
// positive and the ratio max/min is large, a logarithmic scale is
// used so that both microsecond and second-scale durations get
// legible buckets; otherwise a linear scale is used.
func NewHistogram(samples []float64, n int) Histogram {
	if len(samples) == 0 || n <= 0 {
		return Histogram{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	useLog := sorted[0] > 0 && sorted[len(sorted)-1]/sorted[0] > 100

	var edges []float64
	if useLog {
		edges = edgesFromScale(scale.NewLog(sorted, 10), n)
	} else {
		lin := scale.NewLinear(sorted)
		edges = edgesFromScale(lin, n)
	}

	buckets := make([]Bucket, len(edges)-1)
	for i := range buckets {
		buckets[i] = Bucket{Lo: edges[i], Hi: edges[i+1]}
	}
	for _, v := range sorted {
		idx := sort.Search(len(buckets), func(i int) bool { return edges[i+1] > v })
		if idx >= len(buckets) {
			idx = len(buckets) - 1
		}
		buckets[idx].Count++
	}
	return Histogram{Buckets: buckets}
}

// invertibleScale is the subset of scale.Interface's counterpart
// (Linear and Log both satisfy it) needed to place bucket edges:
// given a uniform output fraction, recover the data-space position.
type invertibleScale interface {
	Invert(frac float64) float64
}

// edgesFromScale places n+1 bucket edges by inverting s at n+1
// evenly-spaced output fractions, so the edges fall wherever s's own
// domain (linear or logarithmic) says they should.
func edgesFromScale(s invertibleScale, n int) []float64 {
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = s.Invert(float64(i) / float64(n))
	}
	return edges
}

// WriteText renders h as a simple fixed-width bar chart.
func (h Histogram) WriteText(w io.Writer, barWidth int) error {
	max := 0
	for _, b := range h.Buckets {
		if b.Count > max {
			max = b.Count
		}
	}
	for _, b := range h.Buckets {
		bars := 0
		if max > 0 {
			bars = b.Count * barWidth / max
		}
		if _, err := fmt.Fprintf(w, "[%12.0f, %12.0f) %6d %s\n", b.Lo, b.Hi, b.Count, barString(bars)); err != nil {
			return err
		}
	}
	return nil
}

func barString(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = '#'
	}
	return string(buf)
}

// CPUTimeSamples walks attrs for every processes/.../cpu/.../mode_types/.../submodes/.../cpu_time
// leaf and returns the raw nanosecond values, the input NewHistogram
// expects.
func CPUTimeSamples(attrs *attribute.Tree) []float64 {
	var out []float64
	attrs.Walk(func(path []string, l attribute.Leaf) {
		if len(path) == 0 || path[len(path)-1] != "cpu_time" {
			return
		}
		if l.Kind != attribute.LeafUint64 {
			return
		}
		out = append(out, float64(l.Uint64()))
	})
	return out
}
