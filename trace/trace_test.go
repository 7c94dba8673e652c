// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import "testing"

func TestFilterCPUsKeepsOnlyMembersAndControlFiles(t *testing.T) {
	tr := &Trace{Tracefiles: []*Tracefile{
		{ShortName: "cpu0", CPU: 0},
		{ShortName: "cpu1", CPU: 1},
		{ShortName: "cpu2", CPU: 2},
		{ShortName: "control", CPU: -1},
	}}
	cpus, err := ParseCPUSet("0,2")
	if err != nil {
		t.Fatalf("ParseCPUSet: %v", err)
	}
	tr.FilterCPUs(cpus)

	var names []string
	for _, tf := range tr.Tracefiles {
		names = append(names, tf.ShortName)
	}
	want := []string{"cpu0", "cpu2", "control"}
	if len(names) != len(want) {
		t.Fatalf("Tracefiles = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("Tracefiles = %v, want %v", names, want)
		}
	}
}

func TestFilterCPUsNoopOnEmptySet(t *testing.T) {
	tr := &Trace{Tracefiles: []*Tracefile{{ShortName: "cpu0", CPU: 0}}}
	tr.FilterCPUs(nil)
	if len(tr.Tracefiles) != 1 {
		t.Fatalf("FilterCPUs(nil) must be a no-op, got %d tracefiles", len(tr.Tracefiles))
	}
}
