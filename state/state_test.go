// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import (
	"testing"

	"github.com/efficios/lttv-go/attribute"
	"github.com/efficios/lttv-go/ttime"
)

type fakeDiag struct {
	warnings []string
}

func (d *fakeDiag) Warn(component, msg string, kv ...interface{}) {
	d.warnings = append(d.warnings, msg)
}

func tsec(s uint64) ttime.Timestamp { return ttime.Timestamp{Secs: s} }

func TestEnsureProcessWarnsOnFirstSight(t *testing.T) {
	diag := &fakeDiag{}
	e := New(&attribute.Tree{}, diag)
	e.SyscallEntry(0, 7, "read", tsec(1))
	if len(diag.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1 (process seen with no prior fork)", len(diag.warnings))
	}
}

func TestSchedScheduleSwitchesRunningProcess(t *testing.T) {
	e := New(&attribute.Tree{}, nil)
	e.SchedSchedule(0, 1, 2, StatusWait, tsec(1))

	running, ok := e.Running(0)
	if !ok || running.Key.PID != 2 {
		t.Fatalf("Running(0) = (%+v, %v), want pid 2", running, ok)
	}
	prev, ok := e.Process(1)
	if !ok || prev.TopFrame().Status != StatusWait {
		t.Fatalf("prev process status = %v, want StatusWait", prev.TopFrame().Status)
	}
}

func TestSyscallEntryExitPushesAndPopsFrame(t *testing.T) {
	e := New(&attribute.Tree{}, nil)
	e.SchedSchedule(0, 0, 1, StatusWait, tsec(0))
	e.SyscallEntry(0, 1, "read", tsec(1))

	p, _ := e.Process(1)
	if p.TopFrame().Mode != ModeSyscall {
		t.Fatalf("top frame mode = %v, want ModeSyscall", p.TopFrame().Mode)
	}

	e.SyscallExit(0, 1, tsec(2))
	if p.TopFrame().Mode == ModeSyscall {
		t.Fatal("syscall frame should have been popped")
	}
}

func TestSyscallExitWithoutEntryWarnsAndNoops(t *testing.T) {
	diag := &fakeDiag{}
	e := New(&attribute.Tree{}, diag)
	e.SchedSchedule(0, 0, 1, StatusWait, tsec(0))
	depth := len(func() []Frame { p, _ := e.Process(1); return p.Stack }())

	e.SyscallExit(0, 1, tsec(1))

	p, _ := e.Process(1)
	if len(p.Stack) != depth {
		t.Fatal("stack depth must not change on a syscall_exit with no matching entry")
	}
	if len(diag.warnings) == 0 {
		t.Fatal("expected a missing-precursor warning")
	}
}

func TestPopFrameUnderflowWarns(t *testing.T) {
	diag := &fakeDiag{}
	e := New(&attribute.Tree{}, diag)
	e.ProcessFork(0, 1, 1, tsec(0))
	p, _ := e.Process(1)
	base := len(p.Stack)
	before := len(diag.warnings) // the fork itself warns about the unknown parent 0

	e.popFrame(p, 0, tsec(1))
	if len(p.Stack) != base {
		t.Fatal("popping the base frame must not remove it")
	}
	if len(diag.warnings) != before+1 {
		t.Fatalf("got %d new warnings, want 1 stack-underflow warning", len(diag.warnings)-before)
	}
}

func TestIRQNestingTracksDepth(t *testing.T) {
	e := New(&attribute.Tree{}, nil)
	e.SchedSchedule(0, 0, 1, StatusWait, tsec(0))
	e.IRQEntry(0, 1, "timer", tsec(1))
	if e.irqDepth[0] != 1 {
		t.Fatalf("irqDepth = %d, want 1", e.irqDepth[0])
	}
	e.IRQExit(0, 1, tsec(2))
	if e.irqDepth[0] != 0 {
		t.Fatalf("irqDepth = %d, want 0 after exit", e.irqDepth[0])
	}
}

func TestProcessForkSetsParentAndCreationTime(t *testing.T) {
	e := New(&attribute.Tree{}, nil)
	e.ProcessFork(1, 2, 2, tsec(5))
	child, ok := e.Process(2)
	if !ok {
		t.Fatal("expected forked child to be findable by pid")
	}
	if child.PPID != 1 || child.Key.CreationTime.Secs != 5 {
		t.Fatalf("child = %+v, want PPID=1 CreationTime.Secs=5", child)
	}
}

func TestPIDReuseKeepsDistinctKeys(t *testing.T) {
	e := New(&attribute.Tree{}, nil)
	e.ProcessFork(0, 42, 42, tsec(1))
	first, _ := e.Process(42)
	firstKey := first.Key

	e.ProcessExit(0, 42, tsec(2))
	e.ProcessFree(42, tsec(3))

	e.ProcessFork(0, 42, 42, tsec(10))
	second, _ := e.Process(42)

	if second.Key == firstKey {
		t.Fatal("a reused pid must get a distinct Key via creation time")
	}
	if second.Key.CreationTime.Secs != 10 {
		t.Fatalf("second.Key.CreationTime.Secs = %d, want 10", second.Key.CreationTime.Secs)
	}
}

func TestProcessExitAndFreeTransitions(t *testing.T) {
	e := New(&attribute.Tree{}, nil)
	e.SchedSchedule(0, 0, 1, StatusWait, tsec(0))
	e.ProcessExit(0, 1, tsec(5))
	p, _ := e.Process(1)
	if p.TopFrame().Status != StatusExit {
		t.Fatalf("status after exit = %v, want StatusExit", p.TopFrame().Status)
	}
	e.ProcessFree(1, tsec(6))
	if p.TopFrame().Status != StatusDead {
		t.Fatalf("status after free = %v, want StatusDead", p.TopFrame().Status)
	}
}

func TestCloseAtEndOfTraceAccumulatesCPUTime(t *testing.T) {
	attrs := &attribute.Tree{}
	e := New(attrs, nil)
	e.SchedSchedule(0, 0, 1, StatusWait, tsec(0)) // pid 1 starts running at t=0
	e.CloseAtEndOfTrace(tsec(10))

	p, _ := e.Process(1)
	dir := attrs.FindSubdir(attrPath(p.Key, 0, ModeUnknown, "unknown")...)
	l, ok := dir.Leaf("cpu_time")
	if !ok || l.Uint64() != 10_000_000_000 {
		t.Fatalf("cpu_time = (%v, %v), want (10s in ns, true)", l.Uint64(), ok)
	}
}

func TestCloseAtEndOfTraceSkipsExitedProcesses(t *testing.T) {
	attrs := &attribute.Tree{}
	e := New(attrs, nil)
	e.SchedSchedule(0, 0, 1, StatusWait, tsec(0))
	e.ProcessExit(0, 1, tsec(5))
	e.ProcessFree(1, tsec(5))

	// Should not panic or double-count a dead process's final frame.
	e.CloseAtEndOfTrace(tsec(100))
}
