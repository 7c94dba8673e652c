// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/efficios/lttv-go/attribute"
)

func TestNewHistogramEmpty(t *testing.T) {
	h := NewHistogram(nil, 10)
	if len(h.Buckets) != 0 {
		t.Fatalf("expected no buckets for empty samples, got %d", len(h.Buckets))
	}
}

func TestNewHistogramBucketsAllSamples(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h := NewHistogram(samples, 5)
	if len(h.Buckets) != 5 {
		t.Fatalf("got %d buckets, want 5", len(h.Buckets))
	}
	total := 0
	for _, b := range h.Buckets {
		total += b.Count
	}
	if total != len(samples) {
		t.Fatalf("bucket counts sum to %d, want %d", total, len(samples))
	}
}

func TestNewHistogramUsesLogScaleForWideRange(t *testing.T) {
	// max/min > 100 selects the log branch: the first bucket's upper
	// edge is 10^(5/4) ≈ 17.8, where a linear split would put it near
	// 25000. Every sample must still land in some bucket.
	samples := []float64{1, 10, 100, 1000, 100000}
	h := NewHistogram(samples, 4)
	if len(h.Buckets) != 4 || h.Buckets[0].Hi >= 100 {
		t.Fatalf("buckets = %+v, want 4 log-spaced buckets with a first upper edge below 100", h.Buckets)
	}
	total := 0
	for _, b := range h.Buckets {
		total += b.Count
	}
	if total != len(samples) {
		t.Fatalf("bucket counts sum to %d, want %d", total, len(samples))
	}
}

func TestHistogramWriteText(t *testing.T) {
	h := NewHistogram([]float64{1, 1, 1, 2}, 2)
	var buf bytes.Buffer
	if err := h.WriteText(&buf, 10); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "#") {
		t.Fatal("expected at least one bar character in the rendered histogram")
	}
}

func TestCPUTimeSamplesWalksTree(t *testing.T) {
	var attrs attribute.Tree
	attrs.FindSubdir("processes", "1", "cpu", "0").SetUint64("cpu_time", 1000)
	attrs.FindSubdir("processes", "2", "cpu", "0").SetUint64("cpu_time", 2000)
	attrs.FindSubdir("processes", "2", "cpu", "0").SetUint64("elapsed_time", 5000)

	samples := CPUTimeSamples(&attrs)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2 (elapsed_time must be excluded)", len(samples))
	}
	sum := samples[0] + samples[1]
	if sum != 3000 {
		t.Fatalf("sum of samples = %v, want 3000", sum)
	}
}
