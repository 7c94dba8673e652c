// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/efficios/lttv-go/attribute"
	"github.com/efficios/lttv-go/merge"
	"github.com/efficios/lttv-go/report"
	"github.com/efficios/lttv-go/state"
	"github.com/efficios/lttv-go/trace"
)

func newReportCmd() *cobra.Command {
	var buckets int

	cmd := &cobra.Command{
		Use:   "report <tracedir>...",
		Short: "run state inference over a traceset and print a cpu_time histogram",
		Args:  cobra.MinimumNArgs(1),
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

			attrs := &attribute.Tree{}
			engine := state.New(attrs, logger)

			req := merge.NewRequest("report")
			req.AddHook(merge.Event, merge.Hook{
				Name:     "state-feed",
				Priority: 0,
				Fn: func(ctx *merge.Context) bool {
					driveStateEngine(engine, ctx.Event, ctx.Tracefile.CPU)
					return false
				},
			})

			reason := sched.Process(req, 0)
			if reason != merge.ReasonEmpty && reason != merge.ReasonEndTime {
				logger.Warn("report", "scheduler stopped early", "reason", reason)
			}
			engine.CloseAtEndOfTrace(ts.TimeSpan.End)

			samples := report.CPUTimeSamples(attrs)
			if len(samples) == 0 {
				fmt.Println("no cpu_time samples recorded")
				return nil
			}
			hist := report.NewHistogram(samples, buckets)
			return hist.WriteText(os.Stdout, 40)
		},
	}

	cmd.Flags().IntVar(&buckets, "buckets", 10, "number of histogram buckets")
	return cmd
}
