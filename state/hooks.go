// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import "github.com/efficios/lttv-go/ttime"

// SchedSchedule implements the sched_schedule hook:
// finalise prev's last mode frame, set its status from prevState,
// switch the running pointer to next (creating a stub if unknown),
// and open a new change point for the incoming process.
func (e *Engine) SchedSchedule(cpu, prevPID, nextPID int, prevState Status, at ttime.Timestamp) {
	prev := e.ensureProcess(prevPID, at)
	top := prev.TopFrame()
	e.closeFrame(prev, *top, cpu, at)
	top.Status = prevState
	top.LastChange = at
	if prevState != StatusRun {
		prev.CPU = 0
	}

	next := e.ensureProcess(nextPID, at)
	ntop := next.TopFrame()
	ntop.Status = StatusRun
	ntop.LastChange = at
	next.CPU = cpu

	e.running[cpu] = next
}

// SyscallEntry pushes a syscall frame on the running process.
func (e *Engine) SyscallEntry(cpu, pid int, submode string, at ttime.Timestamp) {
	p := e.ensureProcess(pid, at)
	e.pushFrame(p, ModeSyscall, submode, cpu, at)
}

// SyscallExit pops the syscall frame. An exit with no matching entry
// is tolerated: it is recorded as a diagnostic and
// ignored.
func (e *Engine) SyscallExit(cpu, pid int, at ttime.Timestamp) {
	p := e.ensureProcess(pid, at)
	if p.TopFrame().Mode != ModeSyscall {
		e.warn("missing-precursor", p.Key, "syscall_exit with no matching syscall_entry", at)
		return
	}
	e.popFrame(p, cpu, at)
}

func (e *Engine) entry(mode Mode, cpu, pid int, submode string, at ttime.Timestamp) {
	p := e.ensureProcess(pid, at)
	e.pushFrame(p, mode, submode, cpu, at)
}

func (e *Engine) exit(mode Mode, cpu, pid int, at ttime.Timestamp) {
	p := e.ensureProcess(pid, at)
	if p.TopFrame().Mode != mode {
		e.warn("missing-precursor", p.Key, mode.String()+"_exit with no matching entry", at)
		return
	}
	e.popFrame(p, cpu, at)
}

// TrapEntry/TrapExit push and pop a trap frame. Nesting is allowed
// and tracked via trapDepth for diagnostic purposes.
func (e *Engine) TrapEntry(cpu, pid int, submode string, at ttime.Timestamp) {
	e.trapDepth[cpu]++
	e.entry(ModeTrap, cpu, pid, submode, at)
}

func (e *Engine) TrapExit(cpu, pid int, at ttime.Timestamp) {
	if e.trapDepth[cpu] > 0 {
		e.trapDepth[cpu]--
	}
	e.exit(ModeTrap, cpu, pid, at)
}

// IRQEntry/IRQExit push and pop an irq frame.
func (e *Engine) IRQEntry(cpu, pid int, submode string, at ttime.Timestamp) {
	e.irqDepth[cpu]++
	e.entry(ModeIRQ, cpu, pid, submode, at)
}

func (e *Engine) IRQExit(cpu, pid int, at ttime.Timestamp) {
	if e.irqDepth[cpu] > 0 {
		e.irqDepth[cpu]--
	}
	e.exit(ModeIRQ, cpu, pid, at)
}

// SoftirqEntry/SoftirqExit push and pop a softirq frame.
func (e *Engine) SoftirqEntry(cpu, pid int, submode string, at ttime.Timestamp) {
	e.softirqDepth[cpu]++
	e.entry(ModeSoftIRQ, cpu, pid, submode, at)
}

func (e *Engine) SoftirqExit(cpu, pid int, at ttime.Timestamp) {
	if e.softirqDepth[cpu] > 0 {
		e.softirqDepth[cpu]--
	}
	e.exit(ModeSoftIRQ, cpu, pid, at)
}

// ProcessFork creates a child record; its creation_time is the event
// time and its ppid is set from the parent.
func (e *Engine) ProcessFork(parentPID, childPID, childTGID int, at ttime.Timestamp) {
	parent := e.ensureProcess(parentPID, at)

	key := Key{PID: childPID, CreationTime: at}
	child := &Process{
		Key:           key,
		PPID:          parentPID,
		InsertionTime: at,
		Name:          parent.Name,
		FreeForm:      make(map[string]string),
		Stack:         []Frame{{Mode: ModeUser, Submode: "", Entry: at, LastChange: at, Status: StatusWaitFork}},
	}
	_ = childTGID // the thread-group id is not recorded; processes are identified by (pid, creation time) only.
	e.processes[key] = child
	e.byPID[childPID] = child
}

// ProcessExit transitions pid to the exit status, closing its
// remaining frames.
func (e *Engine) ProcessExit(cpu, pid int, at ttime.Timestamp) {
	p := e.ensureProcess(pid, at)
	for len(p.Stack) > 1 {
		e.popFrame(p, cpu, at)
	}
	top := p.TopFrame()
	e.closeFrame(p, *top, cpu, at)
	top.Status = StatusExit
	top.LastChange = at
}

// ProcessFree transitions pid to dead. The record is retained (for
// later queries) until traceset teardown.
func (e *Engine) ProcessFree(pid int, at ttime.Timestamp) {
	p := e.ensureProcess(pid, at)
	p.TopFrame().Status = StatusDead
	p.TopFrame().LastChange = at
}

// CloseAtEndOfTrace implicitly closes the final frame of every live
// process, as if by an exit hook, so their statistics account for
// time up to end.
func (e *Engine) CloseAtEndOfTrace(end ttime.Timestamp) {
	for _, p := range e.processes {
		top := p.TopFrame()
		if top.Status == StatusDead || top.Status == StatusExit {
			continue
		}
		e.closeFrame(p, *top, p.CPU, end)
	}
}
