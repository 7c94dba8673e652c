// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package state implements the event-driven state inference engine: a
// model of every process, its execution-mode stack, and each CPU's
// running process, kept current by a canonical set of hooks attached
// to the merge scheduler.
//
// Engine/Process generalise a flat per-pid map into a
// process-keyed, mode-stacked model so every process carries its own
// execution-mode stack.
package state

import (
	"fmt"

	"github.com/efficios/lttv-go/attribute"
	"github.com/efficios/lttv-go/ttime"
)

// Mode is the execution context of a process at the top of its mode
// stack.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeUser
	ModeSyscall
	ModeTrap
	ModeIRQ
	ModeSoftIRQ
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "user"
	case ModeSyscall:
		return "syscall"
	case ModeTrap:
		return "trap"
	case ModeIRQ:
		return "irq"
	case ModeSoftIRQ:
		return "softirq"
	default:
		return "unknown"
	}
}

// Status is a process's scheduling status.
type Status int

const (
	StatusUnnamed Status = iota
	StatusWaitFork
	StatusWaitCPU
	StatusWait
	StatusRun
	StatusZombie
	StatusDead
	StatusExit
)

func (s Status) String() string {
	switch s {
	case StatusWaitFork:
		return "wait-fork"
	case StatusWaitCPU:
		return "wait-cpu"
	case StatusWait:
		return "wait"
	case StatusRun:
		return "run"
	case StatusZombie:
		return "zombie"
	case StatusDead:
		return "dead"
	case StatusExit:
		return "exit"
	default:
		return "unnamed"
	}
}

// Frame is one element of a process's execution-mode stack.
type Frame struct {
	Mode       Mode
	Submode    string
	Entry      ttime.Timestamp
	LastChange ttime.Timestamp
	Status     Status
}

// Key identifies a Process: (pid, creation-time) uniquely identifies
// a process even across pid reuse.
type Key struct {
	PID          int
	CreationTime ttime.Timestamp
}

// Process is the live state of one process.
type Process struct {
	Key
	PPID           int
	InsertionTime  ttime.Timestamp
	Name           string
	Brand          string
	FreeForm       map[string]string
	CPU            int // only meaningful while Status == StatusRun
	Stack          []Frame
}

// TopFrame returns the frame at the top of the process's mode stack.
// It panics if the stack is empty, which should not happen for a live
// process.
func (p *Process) TopFrame() *Frame {
	return &p.Stack[len(p.Stack)-1]
}

// Warning reports a tolerated inconsistency in the observed event
// stream.
type Warning struct {
	Kind string // "stack-underflow" | "missing-precursor"
	Key  Key
	Msg  string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("state: %s (pid %d, ctime %v): %s", w.Kind, w.Key.PID, w.Key.CreationTime, w.Msg)
}

type diagSink interface {
	Warn(component, msg string, kv ...interface{})
}

// Engine is the per-trace state model: every process, the per-CPU
// running-process pointers, and IRQ/trap/softirq nesting counters.
type Engine struct {
	processes map[Key]*Process
	byPID     map[int]*Process // most recently seen process for this pid

	running map[int]*Process // cpu -> running process

	irqDepth, trapDepth, softirqDepth map[int]int

	Attrs *attribute.Tree

	diag diagSink
}

// New creates an empty Engine backed by the given attribute tree,
// shared with external reporters.
func New(attrs *attribute.Tree, diag diagSink) *Engine {
	return &Engine{
		processes:  make(map[Key]*Process),
		byPID:      make(map[int]*Process),
		running:    make(map[int]*Process),
		irqDepth:   make(map[int]int),
		trapDepth:  make(map[int]int),
		softirqDepth: make(map[int]int),
		Attrs:      attrs,
		diag:       diag,
	}
}

func (e *Engine) warn(kind string, key Key, msg string, at ttime.Timestamp) {
	if e.diag != nil {
		e.diag.Warn("state", msg, "kind", kind, "pid", key.PID, "time", at)
	}
}

// ensureProcess returns the process last known under pid, creating an
// "unknown" stub if none exists.
func (e *Engine) ensureProcess(pid int, at ttime.Timestamp) *Process {
	if p, ok := e.byPID[pid]; ok {
		return p
	}
	key := Key{PID: pid, CreationTime: at}
	p := &Process{
		Key:           key,
		InsertionTime: at,
		FreeForm:      make(map[string]string),
		Stack:         []Frame{{Mode: ModeUnknown, Submode: "unknown", Entry: at, LastChange: at, Status: StatusUnnamed}},
	}
	e.processes[key] = p
	e.byPID[pid] = p
	e.warn("missing-precursor", key, "process referenced before fork/exec seen", at)
	return p
}

// Process looks up the live process record for pid, if any.
func (e *Engine) Process(pid int) (*Process, bool) {
	p, ok := e.byPID[pid]
	return p, ok
}

// Running returns the process currently running on cpu, if the
// per-CPU pointer has been defined.
func (e *Engine) Running(cpu int) (*Process, bool) {
	p, ok := e.running[cpu]
	return p, ok
}

// attrPath returns the per-(process, cpu, mode, submode) statistics
// path: processes/<pid,ctime>/cpu/<cpu>/mode_types/<mode>/submodes/<submode>.
func attrPath(key Key, cpu int, mode Mode, submode string) []string {
	return []string{
		"processes",
		fmt.Sprintf("%d,%d.%09d", key.PID, key.CreationTime.Secs, key.CreationTime.Nanos),
		"cpu", fmt.Sprintf("%d", cpu),
		"mode_types", mode.String(),
		"submodes", submode,
	}
}

// closeFrame finalises f (popped or about to be replaced), crediting
// cpu_time and elapsed_time to the attribute tree.
func (e *Engine) closeFrame(p *Process, f Frame, cpu int, at ttime.Timestamp) {
	dir := e.Attrs.FindSubdir(attrPath(p.Key, cpu, f.Mode, f.Submode)...)
	elapsed := at.Sub(f.Entry).Nanoseconds()
	dir.AddUint64("elapsed_time", uint64(elapsed))
	if f.Status == StatusRun {
		cpuTime := at.Sub(f.LastChange).Nanoseconds()
		dir.AddUint64("cpu_time", uint64(cpuTime))
	}
}

// countEvent increments the per-type event counter for the process
// currently occupying the top of its mode stack.
func (e *Engine) countEvent(p *Process, cpu int, name string) {
	f := p.TopFrame()
	dir := e.Attrs.FindSubdir(attrPath(p.Key, cpu, f.Mode, f.Submode)...)
	sub := dir.FindSubdir("event_types", name)
	sub.AddUint64("count", 1)
}

// pushFrame pushes a new mode frame onto p's stack.
func (e *Engine) pushFrame(p *Process, mode Mode, submode string, cpu int, at ttime.Timestamp) {
	top := p.TopFrame()
	if top.Status == StatusRun {
		e.closeFrame(p, *top, cpu, at)
		top.LastChange = at
	}
	p.Stack = append(p.Stack, Frame{Mode: mode, Submode: submode, Entry: at, LastChange: at, Status: top.Status})
}

// popFrame pops the top mode frame, or records a StackUnderflow
// warning and does nothing if only the base frame remains.
func (e *Engine) popFrame(p *Process, cpu int, at ttime.Timestamp) {
	if len(p.Stack) <= 1 {
		e.warn("stack-underflow", p.Key, "exit with empty mode stack", at)
		return
	}
	top := p.Stack[len(p.Stack)-1]
	e.closeFrame(p, top, cpu, at)
	p.Stack = p.Stack[:len(p.Stack)-1]
	p.TopFrame().LastChange = at
}
