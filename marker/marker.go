// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package marker implements the per-tracefile marker (event-type)
// dictionary: the table mapping a numeric event id to the name, field
// layout, and sizes that describe how to decode an event of that
// type.
package marker

// FieldKind is the decode kind of a single marker field.
type FieldKind uint8

const (
	FieldNone FieldKind = iota
	FieldSignedInt
	FieldUnsignedInt
	FieldPointer
	FieldString
	FieldCompact
)

// StaticOffsetUnknown marks a Field whose byte offset cannot be
// determined statically (it depends on a preceding variable-length
// field) and must instead be computed while decoding.
const StaticOffsetUnknown = -1

// Field describes one field of a marker's payload.
type Field struct {
	Name      string
	Kind      FieldKind
	Offset    int // byte offset, or StaticOffsetUnknown
	Size      int // in bytes; 0 for variable-length (e.g. string)
	Alignment int // in bytes
	Attributes uint32
	Format    string // printf-style format fragment for this field
}

// VariableSize marks Marker.Size when events of this type do not all
// have the same encoded length (e.g. because of string fields).
const VariableSize = -1

// Marker describes one event type: its name, its format string, and
// its field layout. The channel that qualifies the name is the short
// name of the tracefile whose dictionary holds the marker.
type Marker struct {
	ID     uint16
	Name   string // without the channel, e.g. "syscall_entry"
	Format string
	Size   int // fixed size in bytes, or VariableSize
	Fields []Field
}

// FieldByName returns the field named name, or nil if none exists.
func (m *Marker) FieldByName(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// Dictionary is a per-tracefile table of markers, indexable by id and
// searchable by name. It is populated once from the tracefile's
// trailing metadata stream when the tracefile is opened and is frozen
// (read-only) thereafter; distinct tracefiles may assign different
// ids to the same marker name, so a Dictionary is never shared across
// tracefiles.
type Dictionary struct {
	byID   []*Marker // indexed by id; holes are nil
	byName map[string]*Marker
}

// NewDictionary returns an empty, mutable dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{byName: make(map[string]*Marker)}
}

// Add inserts m into the dictionary, indexed by both its ID and Name.
// Insertion order does not matter: identities are the interned name
// and the numeric id, not position.
func (d *Dictionary) Add(m *Marker) {
	for len(d.byID) <= int(m.ID) {
		d.byID = append(d.byID, nil)
	}
	d.byID[m.ID] = m
	d.byName[m.Name] = m
}

// ByID returns the marker with the given id, or nil if unknown.
func (d *Dictionary) ByID(id uint16) *Marker {
	if int(id) >= len(d.byID) {
		return nil
	}
	return d.byID[id]
}

// ByName returns the marker with the given name, or nil if unknown.
func (d *Dictionary) ByName(name string) *Marker {
	return d.byName[name]
}

// Len returns the number of markers known to the dictionary.
func (d *Dictionary) Len() int {
	return len(d.byName)
}

// Markers returns all markers in the dictionary in id order, skipping
// holes.
func (d *Dictionary) Markers() []*Marker {
	out := make([]*Marker, 0, len(d.byName))
	for _, m := range d.byID {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
