// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import "encoding/binary"

// bufDecoder decodes fixed-width fields out of a byte slice,
// conditionally byte-swapping per the tracefile's recorded byte
// order. The order is fixed for the whole tracefile at open time, so
// every decode in this package goes through one of these two orders
// rather than re-testing a flag per field.
type bufDecoder struct {
	buf   []byte
	order binary.ByteOrder
}

func (b *bufDecoder) skip(n int) {
	b.buf = b.buf[n:]
}

func (b *bufDecoder) bytes(x []byte) {
	copy(x, b.buf)
	b.buf = b.buf[len(x):]
}

func (b *bufDecoder) u8() uint8 {
	x := b.buf[0]
	b.buf = b.buf[1:]
	return x
}

func (b *bufDecoder) u16() uint16 {
	x := b.order.Uint16(b.buf)
	b.buf = b.buf[2:]
	return x
}

func (b *bufDecoder) u32() uint32 {
	x := b.order.Uint32(b.buf)
	b.buf = b.buf[4:]
	return x
}

func (b *bufDecoder) i32() int32 {
	return int32(b.u32())
}

func (b *bufDecoder) u64() uint64 {
	x := b.order.Uint64(b.buf)
	b.buf = b.buf[8:]
	return x
}

func (b *bufDecoder) i64() int64 {
	return int64(b.u64())
}

func (b *bufDecoder) cstring() string {
	for i, c := range b.buf {
		if c == 0 {
			s := string(b.buf[:i])
			b.buf = b.buf[i+1:]
			return s
		}
	}
	s := string(b.buf)
	b.buf = nil
	return s
}

// align advances the decoder to the next multiple of n bytes relative
// to base (the start-of-record offset already consumed out of buf).
func (b *bufDecoder) align(consumed, n int) {
	if n <= 1 {
		return
	}
	if pad := (-consumed) & (n - 1); pad > 0 && pad <= len(b.buf) {
		b.buf = b.buf[pad:]
	}
}

// byteOrderOf picks the decode order for a tracefile: LittleEndian
// unless the trace header recorded the reverse.
func byteOrderOf(reverseBO bool) binary.ByteOrder {
	if reverseBO {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
