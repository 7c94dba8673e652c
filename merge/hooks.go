// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"sort"

	"github.com/efficios/lttv-go/trace"
)

// Point identifies one of the merge scheduler's hook points.
type Point int

const (
	BeforeRequest Point = iota
	BeforeChunkTraceset
	BeforeChunkTrace
	BeforeChunkTracefile
	Event
	AfterChunkTracefile
	AfterChunkTrace
	AfterChunkTraceset
	AfterRequest
)

// Context is passed to every hook invocation.
type Context struct {
	Request *Request
	Event   *trace.Event // nil outside the Event/EventByIDChannel points
	Trace   *trace.Trace
	Tracefile *trace.Tracefile
}

// HookFunc is a priority-ordered callable attached to a hook point. It
// returns true to request that the current chunk stop.
type HookFunc func(*Context) bool

// Hook is one registered callable: its name (for diagnostics), its
// priority (lower runs first), and the function itself.
type Hook struct {
	Name     string
	Priority int
	Fn       HookFunc
}

type entry struct {
	hook Hook
	seq  int
}

// idChannel is the (channel, event name) key for the
// event_by_id_channel hook point.
type idChannel struct {
	channel, name string
}

// hookSet holds every hook registered for one Request, ordered by
// priority then insertion order within each hook point.
type hookSet struct {
	points      map[Point][]entry
	byIDChannel map[idChannel][]entry
	seq         int
}

func newHookSet() *hookSet {
	return &hookSet{
		points:      make(map[Point][]entry),
		byIDChannel: make(map[idChannel][]entry),
	}
}

// Add registers h at the given hook point.
func (s *hookSet) Add(point Point, h Hook) {
	s.seq++
	s.points[point] = append(s.points[point], entry{h, s.seq})
	sortEntries(s.points[point])
}

// AddByIDChannel registers h to run only for events named name on
// channel (tracefile short name). An empty channel matches any
// channel.
func (s *hookSet) AddByIDChannel(channel, name string, h Hook) {
	s.seq++
	key := idChannel{channel, name}
	s.byIDChannel[key] = append(s.byIDChannel[key], entry{h, s.seq})
	sortEntries(s.byIDChannel[key])
}

func sortEntries(es []entry) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].hook.Priority != es[j].hook.Priority {
			return es[i].hook.Priority < es[j].hook.Priority
		}
		return es[i].seq < es[j].seq
	})
}

// run invokes every hook at point in order, stopping early (and
// returning true) the moment one hook returns true.
func (s *hookSet) run(point Point, ctx *Context) bool {
	for _, e := range s.points[point] {
		if e.hook.Fn(ctx) {
			return true
		}
	}
	return false
}

// runEvent invokes the generic Event hooks first, then the hooks
// registered for ctx.Event's (channel, name), then those registered
// for its name on any channel. Priority orders hooks within each of
// these three groups, not across them. It stops at the first hook
// that returns true and reports whether one did.
func (s *hookSet) runEvent(ctx *Context) bool {
	if s.run(Event, ctx) {
		return true
	}
	if ctx.Event == nil || ctx.Event.Marker == nil {
		return false
	}
	channel := ""
	if ctx.Tracefile != nil {
		channel = ctx.Tracefile.ShortName
	}
	for _, key := range []idChannel{{channel, ctx.Event.Marker.Name}, {"", ctx.Event.Marker.Name}} {
		if hs, ok := s.byIDChannel[key]; ok {
			for _, e := range hs {
				if e.hook.Fn(ctx) {
					return true
				}
			}
		}
	}
	return false
}
