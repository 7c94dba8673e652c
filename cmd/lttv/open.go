// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efficios/lttv-go/trace"
)

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <tracedir>...",
		Short: "open one or more traces and print a tracefile/marker summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			traces, err := openTraces(args)
			if err != nil {
				return err
			}
			for _, t := range traces {
				fmt.Printf("%s  lttv %d.%d  arch=%d/%d/%dbit  flight=%v\n",
					t.Dir, t.LTTMajor, t.LTTMinor, t.Arch.Type, t.Arch.Variant, t.Arch.Bits, t.FlightRecorder)
				for _, tf := range t.Tracefiles {
					fmt.Printf("  %-16s cpu=%-3d blocks=%-6d markers=%-4d lost=%d corrupt=%d\n",
						tf.ShortName, tf.CPU, tf.NumBlocks, tf.Markers.Len(), tf.EventsLost, tf.SubbufCorrupt)
				}
			}
			return nil
		},
	}
	return cmd
}

// openTraces opens every directory in dirs, logging through the
// command's shared logger, and applies the --cpu restriction (if any)
// to each.
func openTraces(dirs []string) ([]*trace.Trace, error) {
	cpus, err := trace.ParseCPUSet(cpuSet)
	if err != nil {
		return nil, fmt.Errorf("--cpu: %w", err)
	}

	traces := make([]*trace.Trace, 0, len(dirs))
	for _, dir := range dirs {
		t, err := trace.Open(dir, logger)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dir, err)
		}
		t.FilterCPUs(cpus)
		traces = append(traces, t)
	}
	return traces, nil
}
