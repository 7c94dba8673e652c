// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/efficios/lttv-go/clocksync"
)

// WriteSyncStats renders the per-trace-pair diagnostic table that
// backs the --sync-stats CLI flag: sample count, fitted drift, fitted
// offset, and residual standard deviation for every pair with at
// least one completed exchange.
func WriteSyncStats(w io.Writer, result clocksync.Result) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "I\tJ\tN\tDRIFT\tOFFSET(ns)\tSTDDEV(ns)")

	pairs := append([]*clocksync.Pair(nil), result.Pairs...)
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})

	for _, p := range pairs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.9f\t%.3f\t%.3f\n", p.I, p.J, p.N, 1+p.X, p.D0, p.E)
	}
	return tw.Flush()
}

// WriteFactors renders the final per-trace correction factors applied
// to the traceset.
func WriteFactors(w io.Writer, result clocksync.Result) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRACE\tDRIFT\tOFFSET(ns)")
	for i, f := range result.Factors {
		fmt.Fprintf(tw, "%d\t%.9f\t%.3f\n", i, f.Drift, f.Offset)
	}
	return tw.Flush()
}
