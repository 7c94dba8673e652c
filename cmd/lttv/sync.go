// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/efficios/lttv-go/clocksync"
	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/merge"
	"github.com/efficios/lttv-go/report"
	"github.com/efficios/lttv-go/trace"
)

func newSyncCmd() *cobra.Command {
	var stats bool
	var dataPath string

	cmd := &cobra.Command{
		Use:   "sync <tracedir>...",
		Short: "synchronise inter-trace clocks from matched TCP exchanges",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			traces, err := openTraces(args)
			if err != nil {
				return err
			}
			ts := trace.NewTraceset(traces)

			sched, err := merge.New(ts)
			if err != nil {
				return fmt.Errorf("merge: %w", err)
			}

			indexOf := make(map[*trace.Trace]int, len(traces))
			for i, t := range traces {
				indexOf[t] = i
			}

			matcher := clocksync.NewMatcher()
			req := merge.NewRequest("sync")
			req.AddHook(merge.Event, merge.Hook{
				Name:     "tcp-match",
				Priority: 0,
				Fn: func(ctx *merge.Context) bool {
					feedMatcher(matcher, ctx, clocksync.TraceIndex(indexOf[ctx.Trace]))
					return false
				},
			})

			if reason := sched.Process(req, 0); reason != merge.ReasonEndTime && reason != merge.ReasonEmpty {
				logger.Warn("sync", "scheduler stopped early", "reason", reason)
			}

			result := matcher.Synchronize(len(traces))
			for i, t := range traces {
				t.SetFactor(result.Factors[i])
			}

			if dataPath != "" {
				if err := writeSyncData(dataPath, result); err != nil {
					return err
				}
			}
			if stats {
				if err := report.WriteSyncStats(os.Stdout, result); err != nil {
					return err
				}
				if err := report.WriteFactors(os.Stdout, result); err != nil {
					return err
				}
			} else {
				fmt.Printf("matched %d exchange(s) across %d trace(s)\n", matcher.NumExchanges(), len(traces))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "sync-stats", false, "print per-pair fit diagnostics and final drift/offset")
	cmd.Flags().StringVar(&dataPath, "sync-data", "", "append one record per fitted trace pair (i, j, offset ns, residual stddev ns) to this path; per-exchange samples are not written")
	return cmd
}

// feedMatcher recognises the network marker vocabulary this build
// expects (channel "net") and routes each event to the Matcher call
// it corresponds to. Traces whose net channel uses different marker
// names contribute no exchanges and are left unsynchronised.
func feedMatcher(m *clocksync.Matcher, ctx *merge.Context, idx clocksync.TraceIndex) {
	ev := ctx.Event
	if ev == nil || ev.Marker == nil {
		return
	}

	switch ev.Marker.Name {
	case "dev_xmit":
		id, skb, ok := packetIdentity(ev)
		if !ok {
			return
		}
		m.AddSend(clocksync.SendEvent{Trace: idx, Time: ev.Time, ID: id, SkbID: skb})
	case "dev_receive":
		skb, ok := fieldUint64(ev, "skbaddr")
		if !ok {
			return
		}
		m.AddDevReceive(clocksync.DevReceiveEvent{Trace: idx, Time: ev.Time, SkbID: skb})
	case "tcp_receive":
		id, skb, ok := packetIdentity(ev)
		if !ok {
			return
		}
		m.AddTCPReceive(clocksync.TCPReceiveEvent{Trace: idx, Time: ev.Time, SkbID: skb, ID: id})
	case "skb_free":
		skb, ok := fieldUint64(ev, "skbaddr")
		if !ok {
			return
		}
		m.AddSkbFree(clocksync.SkbFreeEvent{Trace: idx, SkbID: skb})
	}
}

func packetIdentity(ev *trace.Event) (clocksync.PacketID, uint64, bool) {
	saddr, ok1 := fieldUint64(ev, "saddr")
	daddr, ok2 := fieldUint64(ev, "daddr")
	sport, ok3 := fieldUint64(ev, "sport")
	dport, ok4 := fieldUint64(ev, "dport")
	seq, ok5 := fieldUint64(ev, "seq")
	ack, ok6 := fieldUint64(ev, "ack_seq")
	flags, ok7 := fieldUint64(ev, "flags")
	length, ok8 := fieldUint64(ev, "len")
	skb, ok9 := fieldUint64(ev, "skbaddr")
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9) {
		return clocksync.PacketID{}, 0, false
	}
	return clocksync.PacketID{
		SAddr:  uint32(saddr),
		DAddr:  uint32(daddr),
		SPort:  uint16(sport),
		DPort:  uint16(dport),
		Seq:    uint32(seq),
		Ack:    uint32(ack),
		Flags:  uint8(flags),
		Length: uint16(length),
	}, skb, true
}

func fieldUint64(ev *trace.Event, name string) (uint64, bool) {
	fv, err := ev.Field(name)
	if err != nil {
		return 0, false
	}
	if fv.Kind == marker.FieldSignedInt {
		return uint64(fv.Int), true
	}
	return fv.UInt, true
}

func writeSyncData(path string, result clocksync.Result) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, p := range result.Pairs {
		if _, err := fmt.Fprintf(f, "%d %d %.6f %.6f\n", p.I, p.J, p.D0, p.E); err != nil {
			return err
		}
	}
	return nil
}
