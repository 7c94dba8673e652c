// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efficios/lttv-go/attribute"
	"github.com/efficios/lttv-go/filter"
	"github.com/efficios/lttv-go/merge"
	"github.com/efficios/lttv-go/state"
	"github.com/efficios/lttv-go/trace"
)

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <tracedir>... -- <expression>",
		Short: "compile a filter expression and print the events it admits",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := args[len(args)-1]
			dirs := args[:len(args)-1]

			traces, err := openTraces(dirs)
			if err != nil {
				return err
			}
			ts := trace.NewTraceset(traces)

			sched, err := merge.New(ts)
			if err != nil {
				return fmt.Errorf("merge: %w", err)
			}

			engine := state.New(&attribute.Tree{}, logger)
			f, err := filter.CompileWithEngine(expr, engine)
			if err != nil {
				return fmt.Errorf("compile filter: %w", err)
			}

			matched := 0
			req := merge.NewRequest("filter")
			req.AddHook(merge.Event, merge.Hook{
				Name:     "state-feed",
				Priority: 0,
				Fn: func(ctx *merge.Context) bool {
					driveStateEngine(engine, ctx.Event, ctx.Tracefile.CPU)
					return false
				},
			})
			req.AddHook(merge.Event, f.AsHook("print", 10, func(ctx *merge.Context) bool {
				matched++
				fmt.Printf("%s  %s  %s\n", ctx.Event.Time, ctx.Trace.Dir, ctx.Event.Marker.Name)
				return false
			}))

			reason := sched.Process(req, 0)
			fmt.Printf("%d event(s) matched (scheduler stopped: %v)\n", matched, reason)
			return nil
		},
	}
	return cmd
}
