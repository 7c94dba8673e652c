// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/state"
	"github.com/efficios/lttv-go/trace"
)

// driveStateEngine recognises the kernel marker vocabulary this build
// expects (channel "kernel") and dispatches each event to the Engine
// hook it corresponds to. Events from markers outside this vocabulary
// are ignored, leaving the state model unchanged.
func driveStateEngine(e *state.Engine, ev *trace.Event, cpu int) {
	if ev == nil || ev.Marker == nil {
		return
	}

	switch ev.Marker.Name {
	case "sched_schedule":
		prevPID, _ := fieldInt(ev, "prev_pid")
		nextPID, _ := fieldInt(ev, "next_pid")
		prevState, _ := fieldInt(ev, "prev_state")
		e.SchedSchedule(cpu, prevPID, nextPID, state.Status(prevState), ev.Time)
	case "syscall_entry":
		pid, _ := fieldInt(ev, "pid")
		submode, _ := fieldString(ev, "syscall_id")
		e.SyscallEntry(cpu, pid, submode, ev.Time)
	case "syscall_exit":
		pid, _ := fieldInt(ev, "pid")
		e.SyscallExit(cpu, pid, ev.Time)
	case "trap_entry":
		pid, _ := fieldInt(ev, "pid")
		submode, _ := fieldString(ev, "trap_id")
		e.TrapEntry(cpu, pid, submode, ev.Time)
	case "trap_exit":
		pid, _ := fieldInt(ev, "pid")
		e.TrapExit(cpu, pid, ev.Time)
	case "irq_entry":
		pid, _ := fieldInt(ev, "pid")
		submode, _ := fieldString(ev, "irq_id")
		e.IRQEntry(cpu, pid, submode, ev.Time)
	case "irq_exit":
		pid, _ := fieldInt(ev, "pid")
		e.IRQExit(cpu, pid, ev.Time)
	case "softirq_entry":
		pid, _ := fieldInt(ev, "pid")
		submode, _ := fieldString(ev, "softirq_id")
		e.SoftirqEntry(cpu, pid, submode, ev.Time)
	case "softirq_exit":
		pid, _ := fieldInt(ev, "pid")
		e.SoftirqExit(cpu, pid, ev.Time)
	case "process_fork":
		parent, _ := fieldInt(ev, "parent_pid")
		child, _ := fieldInt(ev, "child_pid")
		tgid, _ := fieldInt(ev, "child_tgid")
		e.ProcessFork(parent, child, tgid, ev.Time)
	case "process_exit":
		pid, _ := fieldInt(ev, "pid")
		e.ProcessExit(cpu, pid, ev.Time)
	case "process_free":
		pid, _ := fieldInt(ev, "pid")
		e.ProcessFree(pid, ev.Time)
	}
}

func fieldInt(ev *trace.Event, name string) (int, bool) {
	fv, err := ev.Field(name)
	if err != nil {
		return 0, false
	}
	if fv.Kind == marker.FieldSignedInt {
		return int(fv.Int), true
	}
	return int(fv.UInt), true
}

func fieldString(ev *trace.Event, name string) (string, bool) {
	fv, err := ev.Field(name)
	if err != nil {
		return "", false
	}
	if fv.Kind == marker.FieldString {
		return fv.Str, true
	}
	return "", false
}
