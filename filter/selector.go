// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/state"
	"github.com/efficios/lttv-go/trace"
	"github.com/efficios/lttv-go/ttime"
)

// Selector identifies one of the fixed field selectors the grammar
// supports.
type Selector int

const (
	SelTraceName Selector = iota
	SelTracefileName

	SelStatePID
	SelStatePPID
	SelStateCreationTime
	SelStateInsertionTime
	SelStateProcessName
	SelStateThreadBrand
	SelStateExecutionMode
	SelStateExecutionSubmode
	SelStateProcessStatus
	SelStateCPU

	SelEventName
	SelEventSubname
	SelEventCategory
	SelEventTime
	SelEventTSC
	SelEventTargetPID
	SelEventField
)

// EvalContext carries whatever context is available for one
// evaluation: a filter may be run with only some of these populated,
// in which case leaves referencing the rest evaluate to true.
type EvalContext struct {
	Trace     *trace.Trace
	Tracefile *trace.Tracefile
	Event     *trace.Event
	Process   *state.Process
}

// resolveField maps a dotted field path to a Selector and, for
// event.field.<path>, the remainder path into the event's own fields.
func resolveField(path []string) (Selector, string, error) {
	if len(path) < 2 {
		return 0, "", fmt.Errorf("filter: field %q needs at least a namespace and a name", strings.Join(path, "."))
	}
	ns, rest := path[0], path[1:]
	switch ns {
	case "trace":
		if rest[0] == "name" {
			return SelTraceName, "", nil
		}
	case "tracefile", "channel":
		if rest[0] == "name" {
			return SelTracefileName, "", nil
		}
	case "state":
		switch rest[0] {
		case "pid":
			return SelStatePID, "", nil
		case "ppid":
			return SelStatePPID, "", nil
		case "creation_time":
			return SelStateCreationTime, "", nil
		case "insertion_time":
			return SelStateInsertionTime, "", nil
		case "process_name":
			return SelStateProcessName, "", nil
		case "thread_brand":
			return SelStateThreadBrand, "", nil
		case "execution_mode":
			return SelStateExecutionMode, "", nil
		case "execution_submode":
			return SelStateExecutionSubmode, "", nil
		case "process_status":
			return SelStateProcessStatus, "", nil
		case "cpu":
			return SelStateCPU, "", nil
		}
	case "event":
		switch rest[0] {
		case "name":
			return SelEventName, "", nil
		case "subname":
			return SelEventSubname, "", nil
		case "category":
			return SelEventCategory, "", nil
		case "time":
			return SelEventTime, "", nil
		case "tsc":
			return SelEventTSC, "", nil
		case "target_pid":
			return SelEventTargetPID, "", nil
		case "field":
			if len(rest) < 2 {
				return 0, "", fmt.Errorf("filter: event.field requires a sub-path")
			}
			return SelEventField, strings.Join(rest[1:], "."), nil
		}
	}
	return 0, "", fmt.Errorf("filter: unknown field %q", strings.Join(path, "."))
}

// kind is the static type a selector compares as (see selectorKind),
// used at compile time to reject a relation the type cannot support.
type kind int

const (
	kindString kind = iota
	kindInt
	kindUint
	kindTime
	kindEventName // special: (channel, name) tuple, = and != only
	kindField     // event.field.<path>: every relation compiles; compareFieldValue applies it per decoded field kind
)

func selectorKind(sel Selector) kind {
	switch sel {
	case SelTraceName, SelTracefileName, SelStateProcessName, SelStateThreadBrand,
		SelStateExecutionMode, SelStateExecutionSubmode, SelStateProcessStatus,
		SelEventSubname, SelEventCategory:
		return kindString
	case SelStatePID, SelStatePPID, SelStateCPU, SelEventTargetPID:
		return kindInt
	case SelEventTSC:
		return kindUint
	case SelStateCreationTime, SelStateInsertionTime, SelEventTime:
		return kindTime
	case SelEventName:
		return kindEventName
	case SelEventField:
		return kindField // refined dynamically against the marker's field kind
	}
	return kindString
}

func relAllowed(k kind, rel Rel) bool {
	switch k {
	case kindEventName:
		return rel == RelEQ || rel == RelNE
	case kindString:
		return rel == RelEQ || rel == RelNE
	default:
		return true
	}
}

// compareStrings applies rel to a three-way string comparison.
func compareStrings(a, b string, rel Rel) bool {
	switch rel {
	case RelEQ:
		return a == b
	case RelNE:
		return a != b
	case RelLT:
		return a < b
	case RelLE:
		return a <= b
	case RelGT:
		return a > b
	case RelGE:
		return a >= b
	}
	return false
}

func compareInt64(a, b int64, rel Rel) bool {
	switch rel {
	case RelEQ:
		return a == b
	case RelNE:
		return a != b
	case RelLT:
		return a < b
	case RelLE:
		return a <= b
	case RelGT:
		return a > b
	case RelGE:
		return a >= b
	}
	return false
}

func compareUint64(a, b uint64, rel Rel) bool {
	switch rel {
	case RelEQ:
		return a == b
	case RelNE:
		return a != b
	case RelLT:
		return a < b
	case RelLE:
		return a <= b
	case RelGT:
		return a > b
	case RelGE:
		return a >= b
	}
	return false
}

func compareTime(a, b ttime.Timestamp, rel Rel) bool {
	c := a.Compare(b)
	switch rel {
	case RelEQ:
		return c == 0
	case RelNE:
		return c != 0
	case RelLT:
		return c < 0
	case RelLE:
		return c <= 0
	case RelGT:
		return c > 0
	case RelGE:
		return c >= 0
	}
	return false
}

// parseTimeLiteral accepts "<secs>.<nanos>" or a bare integer count of
// seconds.
func parseTimeLiteral(s string) (ttime.Timestamp, error) {
	parts := strings.SplitN(s, ".", 2)
	secs, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ttime.Timestamp{}, err
	}
	var nanos uint64
	if len(parts) == 2 {
		frac := parts[1]
		for len(frac) < 9 {
			frac += "0"
		}
		nanos, err = strconv.ParseUint(frac[:9], 10, 32)
		if err != nil {
			return ttime.Timestamp{}, err
		}
	}
	return ttime.Timestamp{Secs: secs, Nanos: uint32(nanos)}, nil
}

// compareFieldValue compares a decoded marker field against a literal,
// coercing the literal to the field's own decoded kind.
func compareFieldValue(v trace.FieldValue, rel Rel, vkind ValueKind, raw string) bool {
	switch v.Kind {
	case marker.FieldSignedInt:
		want, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false
		}
		return compareInt64(v.Int, want, rel)
	case marker.FieldUnsignedInt, marker.FieldCompact, marker.FieldPointer:
		want, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return false
		}
		return compareUint64(v.UInt, want, rel)
	case marker.FieldString:
		return compareStrings(v.Str, raw, rel)
	default:
		return false
	}
}

// splitEventName splits an event.name literal on its first dot into
// (channel, name); a literal with no dot leaves channel empty,
// matching any channel.
func splitEventName(s string) (channel, name string) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
