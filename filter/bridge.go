// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"github.com/efficios/lttv-go/merge"
	"github.com/efficios/lttv-go/state"
)

// Filter pairs a compiled Node with the state engine (if any) used to
// resolve state.* selectors, and exposes an AsHook for splicing a
// filter into the merge scheduler as an ordinary event hook.
type Filter struct {
	Root   Node
	Engine *state.Engine // nil if state.* selectors are never evaluated
}

// CompileWithEngine parses expr and binds it to engine, which may be nil if the
// filter references no state.* field.
func CompileWithEngine(expr string, engine *state.Engine) (*Filter, error) {
	root, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Filter{Root: root, Engine: engine}, nil
}

// Eval reports whether ctx's event matches the filter.
func (f *Filter) Eval(ctx *merge.Context) bool {
	ec := &EvalContext{Trace: ctx.Trace, Tracefile: ctx.Tracefile, Event: ctx.Event}
	if f.Engine != nil && ctx.Event != nil {
		cpu := 0
		if ctx.Tracefile != nil {
			cpu = ctx.Tracefile.CPU
		}
		if p, ok := f.Engine.Running(cpu); ok {
			ec.Process = p
		}
	}
	return f.Root.eval(ec)
}

// AsHook wraps f as a merge.Hook at priority that calls then only for
// events the filter matches. For an unmatched event it returns false
// without calling then, so the chunk continues and every other hook
// registered on the request still runs for that event; the filter
// gates only then, not the rest of the hook chain.
func (f *Filter) AsHook(name string, priority int, then merge.HookFunc) merge.Hook {
	return merge.Hook{
		Name:     name,
		Priority: priority,
		Fn: func(ctx *merge.Context) bool {
			if !f.Eval(ctx) {
				return false
			}
			return then(ctx)
		},
	}
}
