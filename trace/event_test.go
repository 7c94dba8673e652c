// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"testing"

	"github.com/efficios/lttv-go/marker"
)

func TestEventFieldStaticOffset(t *testing.T) {
	m := &marker.Marker{
		Name: "m",
		Fields: []marker.Field{
			{Name: "pid", Kind: marker.FieldSignedInt, Offset: 0, Size: 4},
		},
	}
	ev := &Event{
		Tracefile: &Tracefile{},
		Marker:    m,
		Data:      []byte{0x2a, 0, 0, 0}, // 42, little-endian
	}
	fv, err := ev.Field("pid")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if fv.Int != 42 {
		t.Fatalf("Int = %d, want 42", fv.Int)
	}
}

func TestEventFieldNoMarker(t *testing.T) {
	ev := &Event{MarkerID: 7}
	if _, err := ev.Field("x"); err == nil {
		t.Fatal("expected an error when Marker is nil")
	}
}

func TestEventFieldUnknownName(t *testing.T) {
	ev := &Event{Marker: &marker.Marker{Name: "m"}}
	if _, err := ev.Field("nope"); err == nil {
		t.Fatal("expected an error for an unknown field name")
	}
}

func TestEventFieldDynamicOffsetAfterString(t *testing.T) {
	m := &marker.Marker{
		Name: "m",
		Fields: []marker.Field{
			{Name: "name", Kind: marker.FieldString, Offset: 0, Size: 0, Alignment: 1},
			{Name: "count", Kind: marker.FieldUnsignedInt, Offset: marker.StaticOffsetUnknown, Size: 4, Alignment: 4},
		},
	}
	// "ab\0" (3 bytes) + 1 pad byte to reach 4-byte alignment + uint32(42).
	data := []byte{'a', 'b', 0, 0, 42, 0, 0, 0}
	ev := &Event{Tracefile: &Tracefile{}, Marker: m, Data: data}

	name, err := ev.Field("name")
	if err != nil {
		t.Fatalf("Field(name): %v", err)
	}
	if name.Str != "ab" {
		t.Fatalf("name.Str = %q, want %q", name.Str, "ab")
	}

	count, err := ev.Field("count")
	if err != nil {
		t.Fatalf("Field(count): %v", err)
	}
	if count.UInt != 42 {
		t.Fatalf("count.UInt = %d, want 42 (dynamic offset must land past the align pad)", count.UInt)
	}
}

func TestEventFieldOffsetOutOfRange(t *testing.T) {
	m := &marker.Marker{
		Name:   "m",
		Fields: []marker.Field{{Name: "x", Kind: marker.FieldUnsignedInt, Offset: 100, Size: 4}},
	}
	ev := &Event{Tracefile: &Tracefile{}, Marker: m, Data: []byte{1, 2}}
	if _, err := ev.Field("x"); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestAlignPad(t *testing.T) {
	cases := []struct{ off, alignment, want int }{
		{0, 4, 0},
		{1, 4, 3},
		{3, 4, 1},
		{4, 4, 0},
		{5, 1, 0},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := alignPad(c.off, c.alignment); got != c.want {
			t.Fatalf("alignPad(%d,%d) = %d, want %d", c.off, c.alignment, got, c.want)
		}
	}
}

func TestDecodeFieldValuePointerAndCompact(t *testing.T) {
	bd := bufDecoder{[]byte{1, 0, 0, 0, 0, 0, 0, 0}, byteOrderOf(false)}
	fv, err := decodeFieldValue(&bd, &marker.Field{Kind: marker.FieldPointer})
	if err != nil {
		t.Fatalf("decodeFieldValue pointer: %v", err)
	}
	if fv.UInt != 1 {
		t.Fatalf("pointer UInt = %d, want 1", fv.UInt)
	}

	bd2 := bufDecoder{[]byte{7, 0}, byteOrderOf(false)}
	fv2, err := decodeFieldValue(&bd2, &marker.Field{Kind: marker.FieldCompact, Size: 2})
	if err != nil {
		t.Fatalf("decodeFieldValue compact: %v", err)
	}
	if fv2.UInt != 7 {
		t.Fatalf("compact UInt = %d, want 7", fv2.UInt)
	}
}

func TestDecodeFieldValueUnsupportedSize(t *testing.T) {
	bd := bufDecoder{[]byte{1, 2, 3}, byteOrderOf(false)}
	if _, err := decodeFieldValue(&bd, &marker.Field{Kind: marker.FieldSignedInt, Size: 3}); err == nil {
		t.Fatal("expected an error for an unsupported field size")
	}
}
