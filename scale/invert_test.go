// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"math"
	"testing"
)

func TestLinearInvertIsInverseOfOf(t *testing.T) {
	lin := NewLinear([]float64{10, 20, 50})
	for _, x := range []float64{10, 30, 50} {
		frac := lin.Of(x)
		if got := lin.Invert(frac); math.Abs(got-x) > 1e-9 {
			t.Fatalf("Invert(Of(%v)) = %v, want %v", x, got, x)
		}
	}
}

func TestLogInvertIsInverseOfOf(t *testing.T) {
	ls := NewLog([]float64{1, 10, 1000}, 10)
	for _, x := range []float64{1, 10, 1000} {
		frac := ls.Of(x)
		if got := ls.Invert(frac); math.Abs(got-x) > 1e-6 {
			t.Fatalf("Invert(Of(%v)) = %v, want %v", x, got, x)
		}
	}
}
