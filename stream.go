// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"encoding/binary"
	"math"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// InStream wraps a memory-mapped (or, for OpenBytes-style opens, plain
// in-memory) byte region with a movable read cursor, exposing the full
// OGSS primitive codec on top of a fixed-width accessor set.
type InStream struct {
	data []byte
	pos  int

	// boolBitPos tracks the next bit (0-7) to consume from the byte at
	// data[pos-1] for a run of consecutive Bool() reads; it is reset
	// whenever any non-boolean read happens, matching the convention that
	// a field's boolean column is read as one uninterrupted run.
	boolBitPos int
}

// openMappedInStream memory-maps f read-only and returns an InStream over
// the whole file, along with the mmap handle (closed by File.Close).
func openMappedInStream(f *os.File) (*InStream, mmap.MMap, error) {
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	adviseSequential(data)
	return &InStream{data: data}, data, nil
}

// NewInStream wraps an already-loaded byte slice (used by OpenBytes and
// by sub-views produced by View).
func NewInStream(data []byte) *InStream {
	return &InStream{data: data}
}

// Position returns the current read cursor.
func (s *InStream) Position() int { return s.pos }

// SetPosition moves the read cursor, discarding any in-progress boolean
// bit run.
func (s *InStream) SetPosition(pos int) {
	s.pos = pos
	s.boolBitPos = 0
}

// Len returns the total size of the mapped region.
func (s *InStream) Len() int { return len(s.data) }

// Eof reports whether the cursor has reached the end of the region. The
// parser's per-block read tasks do not check that they end at eof.
func (s *InStream) Eof() bool { return s.pos >= len(s.data) }

func (s *InStream) need(n int) error {
	if s.pos+n > len(s.data) {
		return ErrEndOfStream
	}
	return nil
}

func (s *InStream) resetBool() { s.boolBitPos = 0 }

// I8 reads a signed byte.
func (s *InStream) I8() (int8, error) {
	s.resetBool()
	if err := s.need(1); err != nil {
		return 0, err
	}
	v := int8(s.data[s.pos])
	s.pos++
	return v, nil
}

// I16 reads a little-endian signed 16-bit integer.
func (s *InStream) I16() (int16, error) {
	s.resetBool()
	if err := s.need(2); err != nil {
		return 0, err
	}
	v := int16(binary.LittleEndian.Uint16(s.data[s.pos:]))
	s.pos += 2
	return v, nil
}

// I32 reads a little-endian signed 32-bit integer.
func (s *InStream) I32() (int32, error) {
	s.resetBool()
	if err := s.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(s.data[s.pos:]))
	s.pos += 4
	return v, nil
}

// I64 reads a little-endian signed 64-bit integer.
func (s *InStream) I64() (int64, error) {
	s.resetBool()
	if err := s.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(s.data[s.pos:]))
	s.pos += 8
	return v, nil
}

// F32 reads a little-endian IEEE-754 single.
func (s *InStream) F32() (float32, error) {
	v, err := s.I32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// F64 reads a little-endian IEEE-754 double.
func (s *InStream) F64() (float64, error) {
	v, err := s.I64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// V64 reads an unsigned variable-length integer (up to 9 bytes).
func (s *InStream) V64() (uint64, error) {
	s.resetBool()
	v, next, err := readV64(s.data, s.pos)
	if err != nil {
		return 0, err
	}
	s.pos = next
	return v, nil
}

// V32 reads a v64 value and rejects one outside the 32-bit range.
func (s *InStream) V32() (uint32, error) {
	s.resetBool()
	v, next, err := readV32(s.data, s.pos)
	if err != nil {
		return 0, err
	}
	s.pos = next
	return v, nil
}

// Bool reads one packed boolean. Consecutive Bool() calls share a byte,
// starting at bit 0.
func (s *InStream) Bool() (bool, error) {
	if s.boolBitPos == 0 {
		if err := s.need(1); err != nil {
			return false, err
		}
		s.pos++
	}
	b := s.data[s.pos-1]
	bit := (b >> uint(s.boolBitPos)) & 1
	s.boolBitPos = (s.boolBitPos + 1) % 8
	return bit != 0, nil
}

// Bytes reads n raw bytes without copying (the returned slice aliases the
// mapped region).
func (s *InStream) Bytes(n int) ([]byte, error) {
	s.resetBool()
	if err := s.need(n); err != nil {
		return nil, err
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

// CString reads bytes up to (and consuming) a trailing NUL.
func (s *InStream) CString() (string, error) {
	s.resetBool()
	start := s.pos
	for {
		if s.pos >= len(s.data) {
			return "", ErrEndOfStream
		}
		if s.data[s.pos] == 0 {
			str := string(s.data[start:s.pos])
			s.pos++
			return str, nil
		}
		s.pos++
	}
}

// sliceAt returns the n bytes at an absolute offset without disturbing
// the cursor, used by the string pool's lazy decode to reach a span
// recorded earlier in the scan.
func (s *InStream) sliceAt(offset, n int) ([]byte, error) {
	if offset < 0 || offset+n > len(s.data) {
		return nil, ErrEndOfStream
	}
	return s.data[offset : offset+n], nil
}

// View slices a sub-range [pos, pos+size) into its own InStream and
// advances the parent past it, used to hand an HD block's payload to
// its own read task without copying.
func (s *InStream) View(size int) (*InStream, error) {
	s.resetBool()
	if err := s.need(size); err != nil {
		return nil, err
	}
	sub := &InStream{data: s.data[s.pos : s.pos+size]}
	s.pos += size
	return sub, nil
}
