// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/efficios/lttv-go/marker"
)

// markerDef is one channel-qualified marker definition as recorded in
// the metadata stream.
type markerDef struct {
	Channel string
	Marker  marker.Marker
}

// readMetadata reads the trace-wide header followed by every marker
// definition in the metadata stream. The definitions are not yet
// filtered to a single tracefile: the caller (Trace.open) assigns
// each definition to the tracefile whose short name matches its
// Channel.
func readMetadata(r io.Reader) (fileHeader, binary.ByteOrder, bool, []markerDef, error) {
	br := bufio.NewReader(r)
	hdr, order, floatWordOrder, err := readFileHeader(br)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return hdr, order, floatWordOrder, nil, fmt.Errorf("%w", io.ErrUnexpectedEOF)
		}
		return hdr, order, floatWordOrder, nil, err
	}

	var defs []markerDef
	for {
		def, err := readMarkerDef(br, order)
		if err == io.EOF {
			break
		}
		if err != nil {
			return hdr, order, floatWordOrder, nil, err
		}
		defs = append(defs, def)
	}
	return hdr, order, floatWordOrder, defs, nil
}

func readCString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func readMarkerDef(r *bufio.Reader, order binary.ByteOrder) (markerDef, error) {
	var def markerDef
	var err error

	if _, err = r.Peek(1); err != nil {
		return def, io.EOF
	}

	if def.Channel, err = readCString(r); err != nil {
		return def, fmt.Errorf("trace: reading marker channel: %w", err)
	}

	var idBuf [2]byte
	if _, err = io.ReadFull(r, idBuf[:]); err != nil {
		return def, fmt.Errorf("trace: reading marker id: %w", err)
	}
	def.Marker.ID = order.Uint16(idBuf[:])

	if def.Marker.Name, err = readCString(r); err != nil {
		return def, fmt.Errorf("trace: reading marker name: %w", err)
	}
	if def.Marker.Format, err = readCString(r); err != nil {
		return def, fmt.Errorf("trace: reading marker format: %w", err)
	}

	var sizeBuf [4]byte
	if _, err = io.ReadFull(r, sizeBuf[:]); err != nil {
		return def, fmt.Errorf("trace: reading marker size: %w", err)
	}
	def.Marker.Size = int(int32(order.Uint32(sizeBuf[:])))

	var countBuf [2]byte
	if _, err = io.ReadFull(r, countBuf[:]); err != nil {
		return def, fmt.Errorf("trace: reading marker field count: %w", err)
	}
	count := order.Uint16(countBuf[:])

	def.Marker.Fields = make([]marker.Field, count)
	for i := range def.Marker.Fields {
		f := &def.Marker.Fields[i]
		if f.Name, err = readCString(r); err != nil {
			return def, fmt.Errorf("trace: reading field name: %w", err)
		}
		var kindByte [1]byte
		if _, err = io.ReadFull(r, kindByte[:]); err != nil {
			return def, err
		}
		f.Kind = marker.FieldKind(kindByte[0])

		var ints [4]byte
		readInt32 := func() int {
			io.ReadFull(r, ints[:])
			return int(int32(order.Uint32(ints[:])))
		}
		f.Offset = readInt32()
		f.Size = readInt32()
		f.Alignment = readInt32()
		f.Attributes = uint32(readInt32())

		if f.Format, err = readCString(r); err != nil {
			return def, fmt.Errorf("trace: reading field format: %w", err)
		}
	}

	return def, nil
}
