// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/efficios/lttv-go/marker"
	"github.com/efficios/lttv-go/ttime"
)

// Architecture identifies the machine that recorded a trace.
type Architecture struct {
	Type    uint32
	Variant uint32
	Bits    uint32 // word size, in bits
}

// Trace is a collection of tracefiles that share a start time, a
// clock, and (per-tracefile) a marker vocabulary.
type Trace struct {
	Dir string

	Arch           Architecture
	LTTMajor       int
	LTTMinor       int
	FlightRecorder bool

	Tracefiles []*Tracefile

	clock  ttime.ClockParams
	Factor ttime.Factor // fitted by clocksync; ttime.Identity until then
}

// Open opens every tracefile found in dir: it reads the trace-wide
// header once from dir's metadata stream, then opens and primes each
// remaining file as a Tracefile.
func Open(dir string, diag diagSink) (*Trace, error) {
	metaPath := filepath.Join(dir, "metadata")
	mf, err := os.Open(metaPath)
	if err != nil {
		return nil, &OpenError{Kind: OpenErrorIO, Path: metaPath, Cause: err}
	}
	defer mf.Close()

	hdr, order, floatWordOrder, defs, err := readMetadata(mf)
	if err != nil {
		kind := OpenErrorTruncated
		if err == errBadMagic {
			kind = OpenErrorBadMagic
		}
		return nil, &OpenError{Kind: kind, Path: metaPath, Cause: err}
	}
	if hdr.LTTMajor == 0 && hdr.LTTMinor == 0 {
		return nil, &OpenError{Kind: OpenErrorUnsupportedVersion, Path: metaPath}
	}

	clock := ttime.ClockParams{
		StartFreq:        hdr.StartFreq,
		FreqScale:        hdr.FreqScale,
		StartTSC:         hdr.StartTSC,
		StartMonotonic:   hdr.StartMonotonicNS,
		StartTime:        ttime.Timestamp{Secs: hdr.StartTimeSec, Nanos: hdr.StartTimeNSec},
		StartTimeFromTSC: ttime.Timestamp{Secs: hdr.StartTimeSec, Nanos: hdr.StartTimeNSec},
	}

	t := &Trace{
		Dir: dir,
		Arch: Architecture{
			Type:    hdr.ArchType,
			Variant: hdr.ArchVariant,
			Bits:    hdr.ArchBits,
		},
		LTTMajor:       int(hdr.LTTMajor),
		LTTMinor:       int(hdr.LTTMinor),
		FlightRecorder: hdr.FlightRecorder != 0,
		clock:          clock,
		Factor:         ttime.Identity,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &OpenError{Kind: OpenErrorIO, Path: dir, Cause: err}
	}
	for _, ent := range entries {
		if ent.IsDir() || ent.Name() == "metadata" {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, &OpenError{Kind: OpenErrorIO, Path: path, Cause: err}
		}
		tf, err := openTracefile(path, f, order, floatWordOrder, clock, diag)
		if err != nil {
			f.Close()
			return nil, err
		}
		tf.ShortName = ent.Name()

		for _, def := range defs {
			if def.Channel == tf.ShortName || def.Channel == "*" {
				m := def.Marker
				tf.Markers.Add(&m)
			}
		}

		t.Tracefiles = append(t.Tracefiles, tf)
	}

	sort.Slice(t.Tracefiles, func(i, j int) bool {
		return t.Tracefiles[i].ShortName < t.Tracefiles[j].ShortName
	})

	return t, nil
}

// FilterCPUs trims t.Tracefiles to those whose CPU is a member of
// cpus, keeping any tracefile not tied to a single CPU (CPU < 0, e.g.
// a control channel) regardless of cpus. An empty cpus is a no-op.
func (t *Trace) FilterCPUs(cpus CPUSet) {
	if len(cpus) == 0 {
		return
	}
	kept := t.Tracefiles[:0]
	for _, tf := range t.Tracefiles {
		if tf.CPU < 0 || cpus.Contains(tf.CPU) {
			kept = append(kept, tf)
		}
	}
	t.Tracefiles = kept
}

// SetFactor installs the clock-synchronisation factor computed for
// this trace and propagates it to every tracefile so that
// subsequent reads report the corrected time.
func (t *Trace) SetFactor(f ttime.Factor) {
	t.Factor = f
	for _, tf := range t.Tracefiles {
		tf.SetFactor(f)
	}
}

// MarkerByName looks up a marker by name across every tracefile in
// the trace, returning the first match. Distinct tracefiles may
// assign different ids to the same name, so this
// is best used only when the caller doesn't care which tracefile's
// numbering applies.
func (t *Trace) MarkerByName(name string) *marker.Marker {
	for _, tf := range t.Tracefiles {
		if m := tf.Markers.ByName(name); m != nil {
			return m
		}
	}
	return nil
}
