// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"go.uber.org/zap"
)

// Level is a logging severity, ordered least to most severe.
type Level int

// Severity levels. The parser emits warnings, one per recoverable
// anomaly; nothing in this package logs at the other levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is the logging facade OGSS components write through. Callers may
// supply their own implementation via Options.Logger, for instance the
// zap-backed one NewZapLogger returns; when none is supplied a no-op
// logger is used.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger returns a Logger backed by zap's production sugared logger.
func NewZapLogger() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{s: l.Sugar()}
}

func (z *zapLogger) Debugf(format string, args ...interface{}) { z.s.Debugf(format, args...) }
func (z *zapLogger) Infof(format string, args ...interface{})  { z.s.Infof(format, args...) }
func (z *zapLogger) Warnf(format string, args ...interface{})  { z.s.Warnf(format, args...) }
func (z *zapLogger) Errorf(format string, args ...interface{}) { z.s.Errorf(format, args...) }

// filteredLogger drops messages below a minimum level.
type filteredLogger struct {
	next Logger
	min  Level
}

// NewFilter wraps next so that messages below min are discarded.
func NewFilter(next Logger, min Level) Logger {
	return &filteredLogger{next: next, min: min}
}

func (f *filteredLogger) Debugf(format string, args ...interface{}) {
	if f.min <= LevelDebug {
		f.next.Debugf(format, args...)
	}
}
func (f *filteredLogger) Infof(format string, args ...interface{}) {
	if f.min <= LevelInfo {
		f.next.Infof(format, args...)
	}
}
func (f *filteredLogger) Warnf(format string, args ...interface{}) {
	if f.min <= LevelWarn {
		f.next.Warnf(format, args...)
	}
}
func (f *filteredLogger) Errorf(format string, args ...interface{}) {
	if f.min <= LevelError {
		f.next.Errorf(format, args...)
	}
}

// nopLogger discards everything; used when Options.Logger is nil and the
// caller hasn't asked for zap either (e.g. library embedders who want
// silence by default).
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
