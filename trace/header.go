// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

func float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// magicNormal and magicReversed are the two byte patterns that can
// appear as the first four bytes of a trace's metadata tracefile: the
// same 32-bit constant, read native or byte-swapped. Which one
// matches tells the opener whether the rest of the trace was written
// in the reverse of the host's byte order.
const (
	magicNormal   uint32 = 0x00D6B7ED
	magicReversed uint32 = 0xEDB7D600
)

// floatMagicNormal/floatMagicReversed play the same role for the
// separate float-word-order flag: some architectures store the two
// 32-bit halves of a double in the opposite order from their integer
// byte order.
const (
	floatMagicNormal   uint32 = 0x40041133
	floatMagicReversed uint32 = 0x33110440
)

// fileHeader is the trace-wide header, read once from the trace's
// metadata tracefile.
type fileHeader struct {
	Magic      uint32
	FloatMagic uint32

	ArchType    uint32
	ArchVariant uint32
	ArchBits    uint32

	LTTMajor       uint16
	LTTMinor       uint16
	FlightRecorder uint8
	_              [3]byte

	StartFreq        uint64
	FreqScale        float64
	StartTSC         uint64
	StartMonotonicNS uint64
	StartTimeSec     uint64
	StartTimeNSec    uint32
	_                uint32
}

const fileHeaderSize = 4 + 4 + 4 + 4 + 4 + 2 + 2 + 1 + 3 + 8 + 8 + 8 + 8 + 8 + 4 + 4

func readFileHeader(r io.Reader) (fileHeader, binary.ByteOrder, bool, error) {
	var raw [8]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return fileHeader{}, nil, false, err
	}
	var order binary.ByteOrder
	switch binary.LittleEndian.Uint32(raw[0:4]) {
	case magicNormal:
		order = binary.LittleEndian
	case magicReversed:
		order = binary.BigEndian
	default:
		return fileHeader{}, nil, false, errBadMagic
	}

	var floatWordOrder bool
	switch order.Uint32(raw[4:8]) {
	case floatMagicNormal:
		floatWordOrder = false
	case floatMagicReversed:
		floatWordOrder = true
	default:
		return fileHeader{}, nil, false, errBadMagic
	}

	rest := make([]byte, fileHeaderSize-8)
	if _, err := io.ReadFull(r, rest); err != nil {
		return fileHeader{}, nil, false, err
	}
	bd := bufDecoder{rest, order}
	var h fileHeader
	h.Magic, h.FloatMagic = binary.LittleEndian.Uint32(raw[0:4]), order.Uint32(raw[4:8])
	h.ArchType = bd.u32()
	h.ArchVariant = bd.u32()
	h.ArchBits = bd.u32()
	h.LTTMajor = bd.u16()
	h.LTTMinor = bd.u16()
	h.FlightRecorder = bd.u8()
	bd.skip(3)
	h.StartFreq = bd.u64()
	h.FreqScale = float64FromBits(bd.u64())
	h.StartTSC = bd.u64()
	h.StartMonotonicNS = bd.u64()
	h.StartTimeSec = bd.u64()
	h.StartTimeNSec = bd.u32()

	return h, order, floatWordOrder, nil
}

var errBadMagic = fmt.Errorf("bad or unsupported trace magic")

// blockHeader is the fixed-size header at the start of every
// sub-buffer.
type blockHeader struct {
	StartTSC      uint64
	EndTSC        uint64
	EventsLost    uint32
	SubbufCorrupt uint32
	EventCount    uint32
	_             uint32
}

const blockHeaderSize = 8 + 8 + 4 + 4 + 4 + 4

func readBlockHeader(bd *bufDecoder) blockHeader {
	var h blockHeader
	h.StartTSC = bd.u64()
	h.EndTSC = bd.u64()
	h.EventsLost = bd.u32()
	h.SubbufCorrupt = bd.u32()
	h.EventCount = bd.u32()
	bd.u32()
	return h
}

// tracefilePreamble is the small fixed header at the start of every
// per-CPU (or control) tracefile, before its sub-buffers begin.
type tracefilePreamble struct {
	CPU             int32
	Online          uint8
	_               [3]byte
	OwnerPID        int32
	OwnerPGID       int32
	CreationSec     uint64
	CreationNSec    uint32
	BlockSize       uint32
	BlockHeaderSize uint32
	TSCBits         uint8
	EventIDBits     uint8
	Alignment       uint8
	_               byte
}

const tracefilePreambleSize = 4 + 1 + 3 + 4 + 4 + 8 + 4 + 4 + 4 + 1 + 1 + 1 + 1

func readTracefilePreamble(bd *bufDecoder) tracefilePreamble {
	var p tracefilePreamble
	p.CPU = bd.i32()
	p.Online = bd.u8()
	bd.skip(3)
	p.OwnerPID = bd.i32()
	p.OwnerPGID = bd.i32()
	p.CreationSec = bd.u64()
	p.CreationNSec = bd.u32()
	p.BlockSize = bd.u32()
	p.BlockHeaderSize = bd.u32()
	p.TSCBits = bd.u8()
	p.EventIDBits = bd.u8()
	p.Alignment = bd.u8()
	bd.u8()
	return p
}
