// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clocksync

import "sort"

// connKey identifies one directional TCP flow by its 5-tuple minus
// the sequence numbers: the same key is used to queue an
// ack-eliciting packet sent i->j and to look it up again when the
// mirrored ack arrives j->i.
type connKey struct {
	saddr, daddr uint32
	sport, dport uint16
}

func keyOf(id PacketID) connKey {
	return connKey{id.SAddr, id.DAddr, id.SPort, id.DPort}
}

type devKey struct {
	trace TraceIndex
	skb   uint64
}

// Matcher runs the matching pipeline: it consumes raw send/receive
// events in arrival order and accumulates completed four-event
// exchanges.
type Matcher struct {
	outByID map[PacketID][]SendEvent

	devRecv map[devKey]DevReceiveEvent

	unacked map[connKey][]packet

	exchanges []exchange
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{
		outByID: make(map[PacketID][]SendEvent),
		devRecv: make(map[devKey]DevReceiveEvent),
		unacked: make(map[connKey][]packet),
	}
}

// AddSend records an outgoing packet, hashed by its full identity.
func (m *Matcher) AddSend(e SendEvent) {
	m.outByID[e.ID] = append(m.outByID[e.ID], e)
}

// AddDevReceive records an incoming skb before its header has been
// decoded.
func (m *Matcher) AddDevReceive(e DevReceiveEvent) {
	m.devRecv[devKey{e.Trace, e.SkbID}] = e
}

// AddSkbFree drops a pending skb that turned out not to be TCP.
func (m *Matcher) AddSkbFree(e SkbFreeEvent) {
	delete(m.devRecv, devKey{e.Trace, e.SkbID})
}

// AddTCPReceive resolves a decoded incoming header to its dev-receive
// arrival and, crossing traces, to the matching outgoing send; it
// then either queues the resulting packet (if it elicits an ack) or,
// if it is itself an ack, attempts to close out an exchange.
func (m *Matcher) AddTCPReceive(e TCPReceiveEvent) {
	dev, ok := m.devRecv[devKey{e.Trace, e.SkbID}]
	if !ok {
		return
	}
	delete(m.devRecv, devKey{e.Trace, e.SkbID})

	outs := m.outByID[e.ID]
	var out SendEvent
	found := false
	for i, o := range outs {
		if o.Trace != e.Trace {
			out = o
			found = true
			outs = append(outs[:i], outs[i+1:]...)
			break
		}
	}
	if !found {
		return
	}
	m.outByID[e.ID] = outs

	p := packet{id: e.ID, outTr: out.Trace, inTr: e.Trace, outTime: out.Time, inTime: dev.Time}

	m.tryCompleteAck(p)
	if p.id.ElicitsAck() {
		k := keyOf(p.id)
		m.unacked[k] = append(m.unacked[k], p)
	}
}

// tryCompleteAck checks whether p itself acknowledges a packet
// sitting on the opposite direction's unacked queue. Cumulative acks
// are collapsed: among the packets p's ack_seq covers, only the one
// with the highest seq (the last in the run) forms an exchange; the
// rest are discarded without contributing to the estimator.
func (m *Matcher) tryCompleteAck(p packet) {
	k := keyOf(p.id.Mirror())
	queue := m.unacked[k]
	if len(queue) == 0 {
		return
	}

	sort.Slice(queue, func(a, b int) bool { return queue[a].id.Seq < queue[b].id.Seq })

	acked := -1
	for i, q := range queue {
		if int32(p.id.Ack-q.id.Seq) > 0 {
			acked = i
		}
	}
	if acked < 0 {
		return
	}

	last := queue[acked]
	m.exchanges = append(m.exchanges, exchange{
		i:    last.outTr,
		j:    last.inTr,
		outI: last.outTime,
		inJ:  last.inTime,
		outJ: p.outTime,
		inI:  p.inTime,
	})

	m.unacked[k] = queue[acked+1:]
}

// NumExchanges returns the number of completed exchanges accumulated
// so far, for progress reporting.
func (m *Matcher) NumExchanges() int {
	return len(m.exchanges)
}

// Synchronize runs the full synchronisation pipeline over n traces
// using every exchange this Matcher has accumulated.
func (m *Matcher) Synchronize(n int) Result {
	return synchronize(n, m.exchanges)
}
