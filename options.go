// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "runtime"

// Mode selects how Open treats the target path and what operations a
// File permits afterwards.
type Mode int

const (
	// ModeReadWrite opens an existing file for reading and allows Flush
	// to write it back (creating it first if it does not exist yet).
	ModeReadWrite Mode = iota
	// ModeReadOnly opens an existing file and rejects Flush with
	// ErrReadOnly. Field and pool mutations are not checked against the
	// mode; they change only the in-memory graph.
	ModeReadOnly
	// ModeCreate always starts from an empty state, schema only, ignoring
	// any existing file content at path (overwritten on Flush).
	ModeCreate
)

// Default thresholds, overridable via Options.
const (
	defaultSeqParserLimit = 512_000  // bytes; below this the sequential parser is used
	defaultFDThreshold    = 1 << 20  // field-data block split threshold, in instances
	defaultHDThreshold    = 1 << 14  // hull block split threshold, in instances
)

// Options configures Open: a small struct of overridable knobs plus a
// pluggable Logger.
type Options struct {
	// Mode selects read-write, read-only, or always-create semantics.
	Mode Mode

	// Logger receives a Warn-level notice for every anomaly noted while
	// opening a file; defaults to a no-op logger when nil.
	Logger Logger

	// ThreadPoolSize sizes the parallel parser's worker pool; defaults to
	// runtime.NumCPU() when <= 0. The writer's HD fan-out is not bounded
	// by it.
	ThreadPoolSize int

	// SeqParserLimit overrides the byte threshold below which the
	// sequential parser is used instead of the parallel one; defaults to
	// 512,000 bytes when 0.
	SeqParserLimit int64

	// FDThreshold is the field-data block split threshold (in instances);
	// defaults to 2^20 when 0. The parser and writer do not split blocks,
	// so neither consults it.
	FDThreshold int64

	// HDThreshold is the hull block split threshold (in instances);
	// defaults to 2^14 when 0. The parser and writer do not split blocks,
	// so neither consults it.
	HDThreshold int64
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Logger == nil {
		out.Logger = nopLogger{}
	}
	if out.ThreadPoolSize <= 0 {
		out.ThreadPoolSize = runtime.NumCPU()
	}
	if out.SeqParserLimit <= 0 {
		out.SeqParserLimit = defaultSeqParserLimit
	}
	if out.FDThreshold <= 0 {
		out.FDThreshold = defaultFDThreshold
	}
	if out.HDThreshold <= 0 {
		out.HDThreshold = defaultHDThreshold
	}
	return &out
}
