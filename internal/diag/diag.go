// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag is the ambient logging sink shared by every package
// that needs to report a tolerated inconsistency (a corrupt block, a
// missing-precursor event, a stack underflow) without aborting the
// pass that found it. It wraps zap the way the rest of the retrieval
// pack wires structured logging into a library's hot path: a small
// interface the caller already depends on by duck typing, backed by a
// real sugared logger in production and a no-op in tests.
package diag

import (
	"go.uber.org/zap"
)

// Sink is the logging interface every component that can emit
// tolerated warnings depends on. It is satisfied structurally, not by
// import, so trace/state/merge/etc. never need to import this package
// directly.
type Sink interface {
	Warn(component, msg string, kv ...interface{})
}

// Logger is the default Sink, backed by a zap.SugaredLogger.
type Logger struct {
	z *zap.SugaredLogger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z.Sugar()}
}

// NewProduction builds a Logger with zap's production encoder
// (JSON, epoch timestamps, caller info), matching the level of
// ceremony the rest of the pack gives its production logging paths.
func NewProduction() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

// NewDevelopment builds a Logger with zap's human-readable console
// encoder, for use from cmd/lttv when run interactively.
func NewDevelopment() (*Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

// Warn logs msg at warn level, tagged with component and any
// additional key-value pairs.
func (l *Logger) Warn(component, msg string, kv ...interface{}) {
	args := append([]interface{}{"component", component}, kv...)
	l.z.Warnw(msg, args...)
}

// Sync flushes any buffered log entries. Callers should defer it from
// main after constructing a Logger.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Discard is a Sink that drops every message; it grounds tests and
// any caller that doesn't care about diagnostics.
type Discard struct{}

func (Discard) Warn(component, msg string, kv ...interface{}) {}
