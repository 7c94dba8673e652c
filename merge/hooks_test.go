// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"testing"

	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/trace"
)

func TestHookSetRunsInPriorityOrder(t *testing.T) {
	s := newHookSet()
	var order []string
	s.Add(Event, Hook{Name: "b", Priority: 5, Fn: func(ctx *Context) bool {
		order = append(order, "b")
		return false
	}})
	s.Add(Event, Hook{Name: "a", Priority: 1, Fn: func(ctx *Context) bool {
		order = append(order, "a")
		return false
	}})
	s.Add(Event, Hook{Name: "c", Priority: 5, Fn: func(ctx *Context) bool {
		order = append(order, "c")
		return false
	}})

	s.run(Event, &Context{})

	want := []string{"a", "b", "c"} // a by priority, b before c by insertion order (stable tie-break)
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHookSetStopsOnFirstTrue(t *testing.T) {
	s := newHookSet()
	var ran []string
	s.Add(Event, Hook{Priority: 0, Fn: func(ctx *Context) bool {
		ran = append(ran, "first")
		return true
	}})
	s.Add(Event, Hook{Priority: 1, Fn: func(ctx *Context) bool {
		ran = append(ran, "second")
		return false
	}})

	if stopped := s.run(Event, &Context{}); !stopped {
		t.Fatal("run should report true when a hook returns true")
	}
	if len(ran) != 1 || ran[0] != "first" {
		t.Fatalf("ran = %v, want only [first]", ran)
	}
}

func TestRunEventDispatchesByIDChannel(t *testing.T) {
	s := newHookSet()
	var matched []string
	s.AddByIDChannel("kernel", "syscall_entry", Hook{Fn: func(ctx *Context) bool {
		matched = append(matched, "specific")
		return false
	}})
	s.AddByIDChannel("", "syscall_entry", Hook{Fn: func(ctx *Context) bool {
		matched = append(matched, "wildcard")
		return false
	}})

	tf := &trace.Tracefile{ShortName: "kernel"}
	ctx := &Context{
		Tracefile: tf,
		Event:     &trace.Event{Tracefile: tf, Marker: &marker.Marker{Name: "syscall_entry"}},
	}
	s.runEvent(ctx)

	if len(matched) != 2 {
		t.Fatalf("matched = %v, want both the channel-specific and wildcard hooks to run", matched)
	}
}

func TestRunEventSkipsByIDChannelForOtherChannel(t *testing.T) {
	s := newHookSet()
	var ran bool
	s.AddByIDChannel("net", "tcp_receive", Hook{Fn: func(ctx *Context) bool {
		ran = true
		return false
	}})

	tf := &trace.Tracefile{ShortName: "kernel"}
	ctx := &Context{
		Tracefile: tf,
		Event:     &trace.Event{Tracefile: tf, Marker: &marker.Marker{Name: "tcp_receive"}},
	}
	s.runEvent(ctx)

	if ran {
		t.Fatal("hook scoped to the \"net\" channel must not run for a \"kernel\" event")
	}
}

func TestRunEventNilMarkerSkipsByIDChannel(t *testing.T) {
	s := newHookSet()
	var ran bool
	s.AddByIDChannel("", "x", Hook{Fn: func(ctx *Context) bool {
		ran = true
		return false
	}})
	ctx := &Context{Event: &trace.Event{Marker: nil}}
	s.runEvent(ctx)
	if ran {
		t.Fatal("an event with no resolved marker cannot match any by-id-channel hook")
	}
}
