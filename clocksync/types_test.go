// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clocksync

import "testing"

func TestPacketIDMirror(t *testing.T) {
	id := PacketID{SAddr: 1, DAddr: 2, SPort: 100, DPort: 200, Seq: 5, Ack: 6}
	m := id.Mirror()
	if m.SAddr != 2 || m.DAddr != 1 || m.SPort != 200 || m.DPort != 100 {
		t.Fatalf("Mirror() = %+v, want swapped addr/port halves", m)
	}
	if m.Mirror() != id {
		t.Fatal("Mirror should be its own inverse")
	}
}

func TestElicitsAck(t *testing.T) {
	cases := []struct {
		id   PacketID
		want bool
	}{
		{PacketID{Flags: flagSYN}, true},
		{PacketID{Flags: flagFIN}, true},
		{PacketID{Length: 1}, true},
		{PacketID{}, false},
	}
	for _, c := range cases {
		if got := c.id.ElicitsAck(); got != c.want {
			t.Errorf("ElicitsAck(%+v) = %v, want %v", c.id, got, c.want)
		}
	}
}
