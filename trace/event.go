// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"fmt"

	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/ttime"
)

// Event is a decoded record. Its Data slice is a
// borrowed view into the Tracefile's currently-mapped sub-buffer: it
// is valid only until the next Read on the same Tracefile. Hooks that need to retain field values must
// copy them out.
type Event struct {
	Tracefile *Tracefile
	Block     int
	Offset    int // intra-block byte offset of this event's header

	Cycles uint64          // reconstructed 64-bit cycle count
	Time   ttime.Timestamp // reconstructed, synchronised timestamp

	MarkerID uint16
	Marker   *marker.Marker

	Data     []byte // payload, not including the packed event header
	DataSize int
	Size     int // header + payload

	Seq int64 // monotonically increasing within-tracefile counter

	// OverflowNS is the nanosecond adjustment folded into Cycles
	// because the packed per-event tsc field is narrower than 64
	// bits and wrapped since the previous event.
	OverflowNS uint64
}

// FieldValue is the decoded value of one marker field.
type FieldValue struct {
	Kind  marker.FieldKind
	Int   int64
	UInt  uint64
	Str   string
	Bytes []byte
}

// Field decodes and returns the named field of e's payload,
// respecting each field's byte offset (computing it dynamically for
// fields that follow a variable-length field) and alignment.
func (e *Event) Field(name string) (FieldValue, error) {
	if e.Marker == nil {
		return FieldValue{}, fmt.Errorf("trace: event has no marker (unknown id %d)", e.MarkerID)
	}
	f := e.Marker.FieldByName(name)
	if f == nil {
		return FieldValue{}, fmt.Errorf("trace: marker %q has no field %q", e.Marker.Name, name)
	}

	off := f.Offset
	if off == marker.StaticOffsetUnknown {
		var err error
		off, err = e.dynamicOffset(f)
		if err != nil {
			return FieldValue{}, err
		}
	}
	if off < 0 || off > len(e.Data) {
		return FieldValue{}, fmt.Errorf("trace: field %q offset %d out of range (event has %d bytes)", name, off, len(e.Data))
	}

	order := byteOrderOf(e.Tracefile.ReverseByteOrder)
	bd := bufDecoder{e.Data[off:], order}
	return decodeFieldValue(&bd, f)
}

// dynamicOffset computes the byte offset of a field whose static
// offset is unknown by walking the marker's fields in order,
// respecting each field's alignment, until reaching the target.
func (e *Event) dynamicOffset(target *marker.Field) (int, error) {
	off := 0
	order := byteOrderOf(e.Tracefile.ReverseByteOrder)
	for i := range e.Marker.Fields {
		f := &e.Marker.Fields[i]
		if pad := alignPad(off, f.Alignment); pad > 0 {
			off += pad
		}
		if f == target {
			return off, nil
		}
		if off > len(e.Data) {
			return 0, fmt.Errorf("trace: event too short to reach field %q", target.Name)
		}
		bd := bufDecoder{e.Data[off:], order}
		size := f.Size
		if size == 0 {
			// Variable-length field (e.g. a string): measure it.
			v, err := decodeFieldValue(&bd, f)
			if err != nil {
				return 0, err
			}
			size = len(v.Str) + 1
		}
		off += size
	}
	return 0, fmt.Errorf("trace: field %q not found while computing dynamic offset", target.Name)
}

func alignPad(off, alignment int) int {
	if alignment <= 1 {
		return 0
	}
	return (-off) & (alignment - 1)
}

func decodeFieldValue(bd *bufDecoder, f *marker.Field) (FieldValue, error) {
	switch f.Kind {
	case marker.FieldSignedInt:
		switch f.Size {
		case 1:
			return FieldValue{Kind: f.Kind, Int: int64(int8(bd.u8()))}, nil
		case 2:
			return FieldValue{Kind: f.Kind, Int: int64(int16(bd.u16()))}, nil
		case 4:
			return FieldValue{Kind: f.Kind, Int: int64(bd.i32())}, nil
		case 8:
			return FieldValue{Kind: f.Kind, Int: bd.i64()}, nil
		}
	case marker.FieldUnsignedInt, marker.FieldCompact:
		switch f.Size {
		case 1:
			return FieldValue{Kind: f.Kind, UInt: uint64(bd.u8())}, nil
		case 2:
			return FieldValue{Kind: f.Kind, UInt: uint64(bd.u16())}, nil
		case 4:
			return FieldValue{Kind: f.Kind, UInt: uint64(bd.u32())}, nil
		case 8:
			return FieldValue{Kind: f.Kind, UInt: bd.u64()}, nil
		}
	case marker.FieldPointer:
		return FieldValue{Kind: f.Kind, UInt: bd.u64()}, nil
	case marker.FieldString:
		return FieldValue{Kind: f.Kind, Str: bd.cstring()}, nil
	case marker.FieldNone:
		return FieldValue{Kind: f.Kind}, nil
	}
	return FieldValue{}, fmt.Errorf("trace: field %q has unsupported size %d for kind %v", f.Name, f.Size, f.Kind)
}
