// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/efficios/lttv-go/clocksync"
	"github.com/efficios/lttv-go/ttime"
)

func TestWriteSyncStatsOrdersByPair(t *testing.T) {
	result := clocksync.Result{
		Pairs: []*clocksync.Pair{
			{I: 1, J: 2, N: 3, X: 0.0001, D0: 500, E: 2.5},
			{I: 0, J: 1, N: 5, X: 0, D0: 100, E: 1.0},
		},
	}
	var buf bytes.Buffer
	if err := WriteSyncStats(&buf, result); err != nil {
		t.Fatalf("WriteSyncStats: %v", err)
	}
	out := buf.String()
	iFirst := strings.Index(out, "0  1  5")
	iSecond := strings.Index(out, "1  2  3")
	if iFirst < 0 || iSecond < 0 || iFirst > iSecond {
		t.Fatalf("pairs not sorted by (I, J):\n%s", out)
	}
}

func TestWriteFactorsRendersEveryTrace(t *testing.T) {
	result := clocksync.Result{
		Factors: []ttime.Factor{
			{Drift: 1, Offset: 0},
			{Drift: 1.0000001, Offset: 250.5},
		},
	}
	var buf bytes.Buffer
	if err := WriteFactors(&buf, result); err != nil {
		t.Fatalf("WriteFactors: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") < 3 { // header + 2 trace rows
		t.Fatalf("expected a header row plus one row per trace, got:\n%s", out)
	}
}
