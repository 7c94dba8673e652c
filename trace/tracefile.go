// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/ttime"
)

// Tracefile is one stream of events, typically one CPU.
type Tracefile struct {
	LongName  string // file path
	ShortName string

	CPU      int
	Online   bool
	OwnerPID int
	OwnerPGID int

	CreationTime ttime.Timestamp
	FileSize     int64

	NumBlocks       int
	BlockHeaderSize int
	TSCBits         int
	EventIDBits     int
	TSCMask         uint64
	TSCMaskNextBit  uint64

	ReverseByteOrder bool
	FloatWordOrder   bool
	Alignment        int

	EventsLost     uint64
	SubbufCorrupt  uint64

	Markers *marker.Dictionary

	Event *Event // current event, valid after a successful Read

	r         io.ReaderAt
	blockSize int64
	dataOff   int64 // byte offset of block 0 within the file

	clock  ttime.ClockParams
	factor ttime.Factor

	// Cursor state.
	curBlock     int
	curBuf       []byte
	curHdr       blockHeader
	curPos       int // byte offset into curBuf of the next event
	curIdx       int // index of the next event within the block
	prevFullTSC  uint64
	haveFullTSC  bool
	seq          int64

	diag diagSink
}

type diagSink interface {
	Warn(component, msg string, kv ...interface{})
}

func (tf *Tracefile) tscMaskBits(bits int) (mask, nextBit uint64) {
	if bits <= 0 || bits >= 64 {
		return ^uint64(0), 0
	}
	mask = (uint64(1) << uint(bits)) - 1
	nextBit = uint64(1) << uint(bits)
	return
}

// openTracefile reads the preamble of one per-CPU/control tracefile
// from f and sets it up with the trace-wide byte order and clock
// parameters. Its marker dictionary starts empty; the caller fills it.
func openTracefile(path string, f *os.File, order binary.ByteOrder, floatWordOrder bool, clock ttime.ClockParams, diag diagSink) (*Tracefile, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, &OpenError{Kind: OpenErrorIO, Path: path, Cause: err}
	}

	var preBuf [tracefilePreambleSize]byte
	if _, err := io.ReadFull(f, preBuf[:]); err != nil {
		return nil, &OpenError{Kind: OpenErrorTruncated, Path: path, Cause: err}
	}
	bd := bufDecoder{preBuf[:], order}
	pre := readTracefilePreamble(&bd)

	if pre.BlockSize == 0 || pre.BlockHeaderSize == 0 {
		return nil, &OpenError{Kind: OpenErrorInconsistentHeader, Path: path}
	}

	tf := &Tracefile{
		LongName:        path,
		CPU:             int(pre.CPU),
		Online:          pre.Online != 0,
		OwnerPID:        int(pre.OwnerPID),
		OwnerPGID:       int(pre.OwnerPGID),
		CreationTime:    ttime.Timestamp{Secs: pre.CreationSec, Nanos: pre.CreationNSec},
		FileSize:        fi.Size(),
		BlockHeaderSize: int(pre.BlockHeaderSize),
		TSCBits:         int(pre.TSCBits),
		EventIDBits:     int(pre.EventIDBits),
		ReverseByteOrder: order != binary.LittleEndian,
		FloatWordOrder:   floatWordOrder,
		Alignment:        int(pre.Alignment),
		Markers:          marker.NewDictionary(),
		r:                f,
		blockSize:        int64(pre.BlockSize),
		dataOff:          tracefilePreambleSize,
		clock:            clock,
		factor:           ttime.Identity,
		diag:             diag,
	}
	tf.TSCMask, tf.TSCMaskNextBit = tf.tscMaskBits(tf.TSCBits)
	tf.NumBlocks = int((fi.Size() - tf.dataOff) / tf.blockSize)
	return tf, nil
}

// SetFactor installs the clock-synchronisation factor computed for
// this tracefile's owning Trace. It affects only
// subsequently decoded events' Event.Time.
func (tf *Tracefile) SetFactor(f ttime.Factor) { tf.factor = f }

// readBlockHeaderAt reads just the fixed header of the block at the
// given index, without reading the rest of the block.
func (tf *Tracefile) readBlockHeaderAt(index int) (blockHeader, error) {
	off := tf.dataOff + int64(index)*tf.blockSize
	buf := make([]byte, blockHeaderSize)
	if _, err := tf.r.ReadAt(buf, off); err != nil {
		return blockHeader{}, err
	}
	bd := bufDecoder{buf, byteOrderOf(tf.ReverseByteOrder)}
	return readBlockHeader(&bd), nil
}

// loadBlock reads block index fully into tf.curBuf and resets the
// cursor to its first event. It re-anchors the high bits of the
// 64-bit cycle counter on the block's own StartTSC: a block skipped for corruption cannot desync the
// tsc-wrap detector for the block that follows it.
func (tf *Tracefile) loadBlock(index int) error {
	if index < 0 || index >= tf.NumBlocks {
		return EndOfStream
	}
	off := tf.dataOff + int64(index)*tf.blockSize
	buf := make([]byte, tf.blockSize)
	if _, err := tf.r.ReadAt(buf, off); err != nil {
		return &DecodeError{Kind: DecodeErrorCorruptBlock, Tracefile: tf, Block: index, Cause: err}
	}

	bd := bufDecoder{buf[:blockHeaderSize], byteOrderOf(tf.ReverseByteOrder)}
	hdr := readBlockHeader(&bd)

	tf.curBlock = index
	tf.curBuf = buf
	tf.curHdr = hdr
	tf.curPos = int(tf.BlockHeaderSize)
	tf.curIdx = 0
	tf.prevFullTSC = hdr.StartTSC
	tf.haveFullTSC = true
	return nil
}

// reconstructCycles extends a packed, tscbits-wide raw tsc reading
// into the full 64-bit cycle count, detecting a wrap by comparing
// against the previous full reading.
func (tf *Tracefile) reconstructCycles(raw uint64) uint64 {
	if tf.TSCBits <= 0 || tf.TSCBits >= 64 {
		return raw
	}
	full := (tf.prevFullTSC &^ tf.TSCMask) | raw
	if raw < (tf.prevFullTSC & tf.TSCMask) {
		full += tf.TSCMaskNextBit
	}
	return full
}

// Read advances the tracefile by one event.
func (tf *Tracefile) Read() (*Event, error) {
	if tf.curBuf == nil {
		if err := tf.loadBlock(0); err != nil {
			return nil, err
		}
	}

	for {
		if tf.curIdx >= int(tf.curHdr.EventCount) {
			tf.EventsLost += uint64(tf.curHdr.EventsLost)
			next := tf.curBlock + 1
			if err := tf.loadBlock(next); err != nil {
				return nil, err
			}
			continue
		}

		if tf.curPos+headerBytes(tf.EventIDBits, tf.TSCBits) > len(tf.curBuf) {
			tf.SubbufCorrupt++
			if tf.diag != nil {
				tf.diag.Warn("trace", "truncated event header", "tracefile", tf.ShortName, "block", tf.curBlock)
			}
			next := tf.curBlock + 1
			err := &DecodeError{Kind: DecodeErrorCorruptBlock, Tracefile: tf, Block: tf.curBlock}
			if loadErr := tf.loadBlock(next); loadErr != nil && loadErr != EndOfStream {
				return nil, loadErr
			} else if loadErr == EndOfStream {
				tf.curBuf = nil
			}
			return nil, err
		}

		ev, n, err := tf.decodeEvent(tf.curBuf[tf.curPos:], tf.curBlock, tf.curPos)
		if err != nil {
			tf.SubbufCorrupt++
			next := tf.curBlock + 1
			loadErr := tf.loadBlock(next)
			if loadErr != nil && loadErr != EndOfStream {
				return nil, loadErr
			}
			if loadErr == EndOfStream {
				tf.curBuf = nil
			}
			return nil, &DecodeError{Kind: DecodeErrorCorruptBlock, Tracefile: tf, Block: tf.curBlock, Cause: err}
		}

		tf.curPos += n
		tf.curIdx++
		tf.seq++
		ev.Seq = tf.seq
		tf.Event = ev
		return ev, nil
	}
}

// headerBytes returns the number of bytes the packed (id, tsc) event
// header occupies: the smallest power-of-two container (2, 4, or 8
// bytes) wide enough to hold eventBits+tscBits.
func headerBytes(eventBits, tscBits int) int {
	bits := eventBits + tscBits
	switch {
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

func (tf *Tracefile) decodeEvent(buf []byte, block, posInBlock int) (*Event, int, error) {
	hb := headerBytes(tf.EventIDBits, tf.TSCBits)
	if len(buf) < hb {
		return nil, 0, io.ErrUnexpectedEOF
	}
	order := byteOrderOf(tf.ReverseByteOrder)
	bd := bufDecoder{buf[:hb], order}

	var word uint64
	switch hb {
	case 2:
		word = uint64(bd.u16())
	case 4:
		word = uint64(bd.u32())
	default:
		word = bd.u64()
	}
	idMask := uint64(1)<<uint(tf.EventIDBits) - 1
	id := uint16(word & idMask)
	rawTSC := (word >> uint(tf.EventIDBits)) & (uint64(1)<<uint(tf.TSCBits) - 1)

	full := tf.reconstructCycles(rawTSC)
	tf.prevFullTSC = full

	m := tf.Markers.ByID(id)

	payloadStart := hb
	if align := tf.Alignment; align > 1 {
		if pad := alignPad(posInBlock+payloadStart, align); pad > 0 {
			payloadStart += pad
		}
	}

	size := 0
	if m != nil && m.Size != marker.VariableSize {
		size = m.Size
	} else {
		// Variable-size marker: the payload is bounded by the
		// remainder of the block; callers access fields by
		// walking the marker's own length-prefixed/terminated
		// encoding.
		size = len(buf) - payloadStart
	}
	if payloadStart+size > len(buf) {
		return nil, 0, io.ErrUnexpectedEOF
	}

	ev := &Event{
		Tracefile: tf,
		Block:     block,
		Offset:    posInBlock,
		Cycles:    full,
		Time:      tf.factor.Apply(tf.clock.Time(full)),
		MarkerID:  id,
		Marker:    m,
		Data:      buf[payloadStart : payloadStart+size],
		DataSize:  size,
		Size:      payloadStart + size,
	}
	return ev, payloadStart + size, nil
}

// SeekTime positions the cursor at the earliest event with time >= t.
// It first binary-searches block headers for the first block whose
// EndTSC time is >= t (the sequence of block EndTSC is monotone), then
// linearly scans within the chosen block.
func (tf *Tracefile) SeekTime(t ttime.Timestamp) error {
	n := tf.NumBlocks
	idx := sort.Search(n, func(i int) bool {
		hdr, err := tf.readBlockHeaderAt(i)
		if err != nil {
			return true
		}
		return tf.factor.Apply(tf.clock.Time(hdr.EndTSC)).Compare(t) >= 0
	})
	if idx >= n {
		tf.curBuf = nil
		tf.curBlock = n
		return EndOfStream
	}

	if err := tf.loadBlock(idx); err != nil {
		return err
	}
	for {
		ev, err := tf.Read()
		if err == EndOfStream {
			return EndOfStream
		}
		if err != nil {
			var de *DecodeError
			if ok := asDecodeError(err, &de); ok {
				continue
			}
			return err
		}
		if ev.Time.Compare(t) >= 0 {
			// Rewind one event so the caller's next Read
			// observes this one.
			tf.curIdx--
			tf.curPos -= ev.Size
			tf.seq--
			return nil
		}
	}
}

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if ok {
		*target = de
	}
	return ok
}

// Position captures the tracefile's cursor for later exact restore
// via SeekPosition.
type Position struct {
	block int
	idx   int
	pos   int
	seq   int64
	tsc   uint64
}

// Capture returns the tracefile's current cursor position.
func (tf *Tracefile) Capture() Position {
	return Position{tf.curBlock, tf.curIdx, tf.curPos, tf.seq, tf.prevFullTSC}
}

// SeekPosition restores a previously captured cursor exactly.
func (tf *Tracefile) SeekPosition(p Position) error {
	if err := tf.loadBlock(p.block); err != nil {
		return err
	}
	tf.curIdx = 0
	tf.curPos = tf.BlockHeaderSize
	tf.seq = p.seq - int64(p.idx)
	for tf.curIdx < p.idx {
		if _, err := tf.Read(); err != nil {
			return err
		}
	}
	return nil
}
