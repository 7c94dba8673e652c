// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clocksync implements the clock synchroniser: it
// matches TCP packet send/receive events observed across a traceset,
// fits a per-trace-pair drift/offset from the matched exchanges by
// ordinary least squares, and composes those pairwise factors along
// Dijkstra shortest paths to a per-component reference trace.
package clocksync

import "github.com/efficios/lttv-go/ttime"

// PacketID is the packet identity a send event is hashed by.
type PacketID struct {
	SAddr, DAddr         uint32
	SPort, DPort         uint16
	Seq, Ack             uint32
	Flags                uint8
	Length               uint16
}

// Mirror returns id as seen from the other endpoint: address/port
// halves swapped. An ack event is matched against the mirrored id of
// the packet it acknowledges.
func (id PacketID) Mirror() PacketID {
	m := id
	m.SAddr, m.DAddr = id.DAddr, id.SAddr
	m.SPort, m.DPort = id.DPort, id.SPort
	return m
}

const (
	flagSYN uint8 = 1 << 1
	flagFIN uint8 = 1 << 0
)

// ElicitsAck reports whether a packet with these flags/length will
// provoke an acknowledgement from its peer.
func (id PacketID) ElicitsAck() bool {
	return id.Flags&flagSYN != 0 || id.Flags&flagFIN != 0 || id.Length > 0
}

// TraceIndex identifies one trace within the traceset being
// synchronised.
type TraceIndex int

// SendEvent is an outgoing packet observed on a trace.
type SendEvent struct {
	Trace TraceIndex
	Time  ttime.Timestamp
	ID    PacketID
	SkbID uint64
}

// DevReceiveEvent is an incoming packet as first seen by the device
// layer, identified only by skb.
type DevReceiveEvent struct {
	Trace TraceIndex
	Time  ttime.Timestamp
	SkbID uint64
}

// TCPReceiveEvent matches a previously seen skb to its decoded TCP/IP
// header.
type TCPReceiveEvent struct {
	Trace TraceIndex
	Time  ttime.Timestamp
	SkbID uint64
	ID    PacketID
}

// SkbFreeEvent drops a non-TCP skb from consideration.
type SkbFreeEvent struct {
	Trace TraceIndex
	SkbID uint64
}

// packet is one resolved (out on Trace i, in on Trace j) observation,
// produced once an outgoing send has been matched to its receiving
// trace's tcp-receive.
type packet struct {
	id      PacketID
	outTr   TraceIndex
	inTr    TraceIndex
	outTime ttime.Timestamp
	inTime  ttime.Timestamp
}

// exchange is a complete four-event ring out_i -> in_j -> out_j -> in_i.
type exchange struct {
	i, j               TraceIndex
	outI, inJ, outJ, inI ttime.Timestamp
}
