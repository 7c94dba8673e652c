// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

import (
	"errors"
	"testing"
)

func TestOpenErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("no such file")
	e := &OpenError{Kind: OpenErrorIO, Path: "/tmp/metadata", Cause: cause}
	want := "trace: open /tmp/metadata: io: no such file"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should see through Unwrap to the cause")
	}
}

func TestOpenErrorMessageWithoutCause(t *testing.T) {
	e := &OpenError{Kind: OpenErrorBadMagic, Path: "/tmp/metadata"}
	want := "trace: open /tmp/metadata: bad-magic"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestDecodeErrorMessageIncludesTracefileName(t *testing.T) {
	tf := &Tracefile{ShortName: "cpu0"}
	cause := errors.New("short read")
	e := &DecodeError{Kind: DecodeErrorEventOverrun, Tracefile: tf, Block: 4, Cause: cause}
	want := "trace: cpu0: block 4: event-overrun: short read"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestDecodeErrorMessageWithNilTracefile(t *testing.T) {
	e := &DecodeError{Kind: DecodeErrorCorruptBlock, Block: 1}
	want := "trace: : block 1: corrupt-block"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestOpenErrorKindStrings(t *testing.T) {
	cases := map[OpenErrorKind]string{
		OpenErrorIO:                 "io",
		OpenErrorBadMagic:           "bad-magic",
		OpenErrorUnsupportedVersion: "unsupported-version",
		OpenErrorTruncated:          "truncated",
		OpenErrorInconsistentHeader: "inconsistent-header",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Fatalf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}
