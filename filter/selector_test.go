// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"testing"

	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/trace"
)

func TestResolveFieldNamespaces(t *testing.T) {
	cases := []struct {
		path []string
		sel  Selector
	}{
		{[]string{"trace", "name"}, SelTraceName},
		{[]string{"tracefile", "name"}, SelTracefileName},
		{[]string{"channel", "name"}, SelTracefileName},
		{[]string{"state", "pid"}, SelStatePID},
		{[]string{"state", "ppid"}, SelStatePPID},
		{[]string{"state", "cpu"}, SelStateCPU},
		{[]string{"event", "name"}, SelEventName},
		{[]string{"event", "time"}, SelEventTime},
		{[]string{"event", "tsc"}, SelEventTSC},
	}
	for _, c := range cases {
		sel, _, err := resolveField(c.path)
		if err != nil {
			t.Errorf("resolveField(%v): %v", c.path, err)
			continue
		}
		if sel != c.sel {
			t.Errorf("resolveField(%v) = %v, want %v", c.path, sel, c.sel)
		}
	}
}

func TestResolveFieldEventFieldSubpath(t *testing.T) {
	sel, sub, err := resolveField([]string{"event", "field", "skbaddr"})
	if err != nil {
		t.Fatalf("resolveField: %v", err)
	}
	if sel != SelEventField {
		t.Fatalf("got selector %v, want SelEventField", sel)
	}
	if sub != "skbaddr" {
		t.Fatalf("got subpath %q, want %q", sub, "skbaddr")
	}
}

func TestResolveFieldNestedEventField(t *testing.T) {
	_, sub, err := resolveField([]string{"event", "field", "a", "b"})
	if err != nil {
		t.Fatalf("resolveField: %v", err)
	}
	if sub != "a.b" {
		t.Fatalf("got subpath %q, want %q", sub, "a.b")
	}
}

func TestResolveFieldRejectsUnknown(t *testing.T) {
	if _, _, err := resolveField([]string{"state", "bogus"}); err == nil {
		t.Fatal("expected error for unknown state field")
	}
	if _, _, err := resolveField([]string{"nonsense", "x"}); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

func TestRelAllowed(t *testing.T) {
	if relAllowed(kindString, RelLT) {
		t.Fatal("ordering should not be allowed on string selectors")
	}
	if !relAllowed(kindString, RelEQ) {
		t.Fatal("equality must be allowed on string selectors")
	}
	if !relAllowed(kindInt, RelLT) {
		t.Fatal("ordering must be allowed on int selectors")
	}
	if relAllowed(kindEventName, RelLT) {
		t.Fatal("ordering should not be allowed on event-name selector")
	}
}

func TestParseTimeLiteral(t *testing.T) {
	ts, err := parseTimeLiteral("10.5")
	if err != nil {
		t.Fatalf("parseTimeLiteral: %v", err)
	}
	if ts.Secs != 10 || ts.Nanos != 500000000 {
		t.Fatalf("got %+v, want {10 500000000}", ts)
	}

	ts, err = parseTimeLiteral("7")
	if err != nil {
		t.Fatalf("parseTimeLiteral: %v", err)
	}
	if ts.Secs != 7 || ts.Nanos != 0 {
		t.Fatalf("got %+v, want {7 0}", ts)
	}
}

func TestParseTimeLiteralBadInput(t *testing.T) {
	if _, err := parseTimeLiteral("abc"); err == nil {
		t.Fatal("expected error for non-numeric seconds")
	}
}

func TestSplitEventName(t *testing.T) {
	ch, name := splitEventName("kernel.syscall_entry")
	if ch != "kernel" || name != "syscall_entry" {
		t.Fatalf("got (%q, %q), want (\"kernel\", \"syscall_entry\")", ch, name)
	}
	ch, name = splitEventName("syscall_entry")
	if ch != "" || name != "syscall_entry" {
		t.Fatalf("got (%q, %q), want (\"\", \"syscall_entry\")", ch, name)
	}
}

func TestCompareFieldValue(t *testing.T) {
	v := trace.FieldValue{Kind: marker.FieldSignedInt, Int: -5}
	if !compareFieldValue(v, RelLT, ValueNumber, "0") {
		t.Fatal("expected -5 < 0")
	}

	v = trace.FieldValue{Kind: marker.FieldUnsignedInt, UInt: 100}
	if !compareFieldValue(v, RelGE, ValueNumber, "100") {
		t.Fatal("expected 100 >= 100")
	}

	v = trace.FieldValue{Kind: marker.FieldString, Str: "eth0"}
	if !compareFieldValue(v, RelEQ, ValueString, "eth0") {
		t.Fatal("expected string equality to match")
	}
	if compareFieldValue(v, RelEQ, ValueString, "eth1") {
		t.Fatal("expected mismatched strings not to compare equal")
	}
}

func TestCompareOrdering(t *testing.T) {
	if !compareInt64(1, 2, RelLT) || compareInt64(2, 1, RelLT) {
		t.Fatal("compareInt64 RelLT broken")
	}
	if !compareUint64(5, 5, RelGE) {
		t.Fatal("compareUint64 RelGE broken for equal values")
	}
	if !compareStrings("a", "b", RelNE) {
		t.Fatal("compareStrings RelNE broken")
	}
}
