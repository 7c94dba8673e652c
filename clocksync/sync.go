// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clocksync

import (
	"math"

	"github.com/efficios/lttv-go/ttime"
)

// Result is the per-trace outcome of a Synchronize run: a Factor for
// every trace index from 0 to n-1 (Identity for traces that shared no
// exchange with anything), plus the fitted pairwise statistics for
// diagnostics (report's --sync-stats).
type Result struct {
	Factors []ttime.Factor
	Pairs   []*Pair
}

// synchronize runs the full synchronisation pipeline over n traces
// given every completed exchange observed between them (typically the
// output of a Matcher fed by a merge pass over the traceset's TCP
// events): match statistics are already folded into exchanges, here
// we fit, build the graph, and compose factors per component. The
// exported entry point is Matcher.Synchronize, which keeps the
// exchange type itself private to the package.
func synchronize(n int, exchanges []exchange) Result {
	byPair := buildExchangesByPair(exchanges)
	g := buildGraph(n, byPair)

	factors := make([]ttime.Factor, n)
	for i := range factors {
		factors[i] = ttime.Identity
	}

	for _, comp := range components(g) {
		if len(comp) < 2 {
			continue
		}
		ref := chooseReference(g, comp)
		compFactors := factorsForComponent(g, comp, ref)
		for _, idx := range comp {
			if f, ok := compFactors[idx]; ok {
				factors[idx] = f
			}
		}
	}

	translateToNonnegative(factors)

	pairs := make([]*Pair, 0, len(byPair))
	for _, p := range byPair {
		pairs = append(pairs, p)
	}

	return Result{Factors: factors, Pairs: pairs}
}

// translateToNonnegative shifts every factor's offset so the minimum
// across all traces is exactly zero, preserving nonnegative wall
// times.
func translateToNonnegative(factors []ttime.Factor) {
	if len(factors) == 0 {
		return
	}
	min := math.Inf(1)
	for _, f := range factors {
		if f.Offset < min {
			min = f.Offset
		}
	}
	if min == 0 || math.IsInf(min, 1) {
		return
	}
	for i := range factors {
		factors[i].Offset -= min
	}
}
