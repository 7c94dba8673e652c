// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// A CPUSet represents a set of CPU indices, such as the set of CPUs
// that were online when a trace was recorded. It parses and renders
// the same "0-3,5,7-8" range-list syntax used throughout the trace
// metadata.
type CPUSet []int

// ParseCPUSet parses a range-list such as "0-3,5,7-8" into a sorted,
// deduplicated CPUSet.
func ParseCPUSet(str string) (CPUSet, error) {
	if str == "" {
		return CPUSet{}, nil
	}
	var err error
	out := CPUSet{}
	for _, r := range strings.Split(str, ",") {
		var lo, hi int
		dash := strings.Index(r, "-")
		if dash == -1 {
			lo, err = strconv.Atoi(r)
			if err != nil {
				return nil, fmt.Errorf("trace: bad cpu set %q: %w", str, err)
			}
			hi = lo
		} else {
			lo, err = strconv.Atoi(r[:dash])
			if err != nil {
				return nil, fmt.Errorf("trace: bad cpu set %q: %w", str, err)
			}
			hi, err = strconv.Atoi(r[dash+1:])
			if err != nil {
				return nil, fmt.Errorf("trace: bad cpu set %q: %w", str, err)
			}
		}
		for cpu := lo; cpu <= hi; cpu++ {
			out = append(out, cpu)
		}
	}
	sort.Ints(out)
	i, j := 0, 0
	for ; i < len(out); i++ {
		if j > 0 && out[i] == out[j-1] {
			continue
		}
		out[j] = out[i]
		j++
	}
	return out[:j], nil
}

func (c CPUSet) String() string {
	if len(c) == 0 {
		return ""
	}

	var sb strings.Builder
	lo, hi := c[0], c[0]-1
	flush := func() {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		if lo == hi {
			fmt.Fprintf(&sb, "%d", lo)
		} else {
			fmt.Fprintf(&sb, "%d-%d", lo, hi)
		}
	}
	for _, cpu := range c {
		if cpu == hi+1 {
			hi = cpu
		} else {
			flush()
			lo, hi = cpu, cpu
		}
	}
	flush()
	return sb.String()
}

// Contains reports whether cpu is a member of the set.
func (c CPUSet) Contains(cpu int) bool {
	i := sort.SearchInts(c, cpu)
	return i < len(c) && c[i] == cpu
}
