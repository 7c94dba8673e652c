// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clocksync

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// accumulator holds the six running sums the OLS estimator needs
// for trace pair (j, i): n, Σt, Σt², Σd, Σd², Σtd.
type accumulator struct {
	n                        int
	sumT, sumT2              float64
	sumD, sumD2              float64
	sumTD                    float64
	residuals                []float64 // unused: finalize computes the per-exchange residuals in a local slice
}

func (a *accumulator) add(t, d float64) {
	a.n++
	a.sumT += t
	a.sumT2 += t * t
	a.sumD += d
	a.sumD2 += d * d
	a.sumTD += t * d
}

// Pair is a fitted drift/offset/error estimate between two traces,
// directed j-from-i: t_j ≈ (1+X)·t_i + D0.
type Pair struct {
	I, J TraceIndex
	N    int
	X    float64 // relative drift
	D0   float64 // offset, ns
	E    float64 // residual standard deviation, ns
}

// finalize solves the ordinary-least-squares fit for one accumulator
// and reports the residual standard deviation using go-moremath's
// sample statistics rather than a hand-rolled variance sum.
func (a *accumulator) finalize(ts, ds []float64) (x, d0, e float64) {
	n := float64(a.n)
	denom := n*a.sumT2 - a.sumT*a.sumT
	if denom == 0 || a.n < 2 {
		return 0, 0, math.Inf(1)
	}
	x = (n*a.sumTD - a.sumT*a.sumD) / denom
	d0 = (a.sumT2*a.sumD - a.sumT*a.sumTD) / denom

	residuals := make([]float64, len(ts))
	for i := range ts {
		fitted := x*ts[i] + d0
		residuals[i] = ds[i] - fitted
	}
	sample := stats.Sample{Xs: residuals}
	return x, d0, sample.StdDev()
}

// buildExchangesByPair groups exchanges by (j, i) and accumulates each
// into its own running sums plus the raw (t_moy, d_ji) series needed
// for the residual pass.
func buildExchangesByPair(exchanges []exchange) map[[2]TraceIndex]*Pair {
	type raw struct {
		acc    accumulator
		ts, ds []float64
	}
	byPair := make(map[[2]TraceIndex]*raw)

	for _, ex := range exchanges {
		tMoy := avgNS(ex.outI, ex.inI)
		d := (nsBetween(ex.outI, ex.inJ) + nsBetween(ex.inI, ex.outJ)) / 2
		key := [2]TraceIndex{ex.j, ex.i} // cell [j][i]: estimating trace j relative to i
		r, ok := byPair[key]
		if !ok {
			r = &raw{}
			byPair[key] = r
		}
		r.acc.add(tMoy, d)
		r.ts = append(r.ts, tMoy)
		r.ds = append(r.ds, d)
	}

	out := make(map[[2]TraceIndex]*Pair, len(byPair))
	for key, r := range byPair {
		x, d0, e := r.acc.finalize(r.ts, r.ds)
		out[key] = &Pair{I: key[1], J: key[0], N: r.acc.n, X: x, D0: d0, E: e}
	}
	return out
}

func avgNS(a, b interface{ Nanoseconds() int64 }) float64 {
	return float64(a.Nanoseconds()+b.Nanoseconds()) / 2
}

func nsBetween(a, b interface{ Nanoseconds() int64 }) float64 {
	return float64(b.Nanoseconds() - a.Nanoseconds())
}
