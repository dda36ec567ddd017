// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"encoding/binary"
	"math"
	"os"
)

// outBufferSize is the size of each owned chunk in a BufferedOutStream,
// matching the 4 KiB staging buffer FileOutputStream uses.
const outBufferSize = 4096

// largePutThreshold is the size above which Put borrows the caller's
// slice instead of copying it into chunk storage.
const largePutThreshold = 512

// outChunk is one link of a BufferedOutStream's chunk chain: either an
// owned, reusable outBufferSize buffer or a borrowed slice handed in
// through Put for a large payload.
type outChunk struct {
	buf      []byte
	n        int
	borrowed bool
}

// BufferedOutStream accumulates a task's worth of output (a T+F block, an
// HD record's payload, ...) before it is handed to a FileOutputStream.
// Every write task gets its own BufferedOutStream so that concurrent
// writers never share mutable buffer state.
type BufferedOutStream struct {
	chunks  []*outChunk
	bitPos  int
	closed  bool
}

// NewBufferedOutStream returns an empty output buffer.
func NewBufferedOutStream() *BufferedOutStream {
	return &BufferedOutStream{}
}

func (o *BufferedOutStream) current() *outChunk {
	if len(o.chunks) == 0 || o.chunks[len(o.chunks)-1].borrowed ||
		o.chunks[len(o.chunks)-1].n == len(o.chunks[len(o.chunks)-1].buf) {
		c := &outChunk{buf: make([]byte, outBufferSize)}
		o.chunks = append(o.chunks, c)
		return c
	}
	return o.chunks[len(o.chunks)-1]
}

// write appends raw bytes, splitting across chunk boundaries as needed.
func (o *BufferedOutStream) write(b []byte) {
	o.bitPos = 0
	for len(b) > 0 {
		c := o.current()
		n := copy(c.buf[c.n:], b)
		c.n += n
		b = b[n:]
	}
}

// I8 appends a signed byte.
func (o *BufferedOutStream) I8(v int8) { o.write([]byte{byte(v)}) }

// I16 appends a little-endian signed 16-bit integer.
func (o *BufferedOutStream) I16(v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	o.write(b[:])
}

// I32 appends a little-endian signed 32-bit integer.
func (o *BufferedOutStream) I32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	o.write(b[:])
}

// I64 appends a little-endian signed 64-bit integer.
func (o *BufferedOutStream) I64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	o.write(b[:])
}

// F32 appends a little-endian IEEE-754 single.
func (o *BufferedOutStream) F32(v float32) { o.I32(int32(math.Float32bits(v))) }

// F64 appends a little-endian IEEE-754 double.
func (o *BufferedOutStream) F64(v float64) { o.I64(int64(math.Float64bits(v))) }

// V64 appends the variable-length encoding of an unsigned value.
func (o *BufferedOutStream) V64(v uint64) {
	var tmp [9]byte
	o.write(appendV64(tmp[:0], v))
}

// V32 appends the variable-length encoding of a 32-bit value.
func (o *BufferedOutStream) V32(v uint32) { o.V64(uint64(v)) }

// Bool appends one packed boolean bit. The first bit operation after any
// non-boolean write starts a fresh byte; subsequent Bool calls continue
// packing into that byte until it holds 8 bits.
func (o *BufferedOutStream) Bool(v bool) {
	if o.bitPos == 0 {
		o.write([]byte{0})
	}
	if v {
		c := o.chunks[len(o.chunks)-1]
		c.buf[c.n-1] |= 1 << uint(o.bitPos)
	}
	o.bitPos = (o.bitPos + 1) % 8
}

// Put appends a byte slice, borrowing it directly (rather than copying
// into chunk storage) when it is larger than largePutThreshold.
func (o *BufferedOutStream) Put(b []byte) {
	o.bitPos = 0
	if len(b) > largePutThreshold {
		o.chunks = append(o.chunks, &outChunk{buf: b, n: len(b), borrowed: true})
		return
	}
	o.write(b)
}

// Close finalizes the stream: unused tail bytes of the last owned chunk
// are trimmed so the chain can be concatenated verbatim.
func (o *BufferedOutStream) Close() {
	if o.closed {
		return
	}
	o.closed = true
	if n := len(o.chunks); n > 0 {
		last := o.chunks[n-1]
		if !last.borrowed {
			last.buf = last.buf[:last.n]
		}
	}
}

// Size returns the total number of bytes written so far.
func (o *BufferedOutStream) Size() int {
	total := 0
	for _, c := range o.chunks {
		total += c.n
	}
	return total
}

// Chunks returns the byte slices making up the stream, in order. Close
// should be called first so the final chunk is trimmed.
func (o *BufferedOutStream) Chunks() [][]byte {
	o.Close()
	out := make([][]byte, len(o.chunks))
	for i, c := range o.chunks {
		if c.borrowed {
			out[i] = c.buf
		} else {
			out[i] = c.buf[:c.n]
		}
	}
	return out
}

// FileOutputStream is the tail end of the writer pipeline: an OS file
// handle plus a small staging buffer for sequential writes.
type FileOutputStream struct {
	f       *os.File
	staging []byte
}

// NewFileOutputStream wraps f with a 4 KiB staging buffer.
func NewFileOutputStream(f *os.File) *FileOutputStream {
	return &FileOutputStream{f: f, staging: make([]byte, 0, outBufferSize)}
}

func (fo *FileOutputStream) flushStaging() error {
	if len(fo.staging) == 0 {
		return nil
	}
	_, err := fo.f.Write(fo.staging)
	fo.staging = fo.staging[:0]
	return err
}

// Write flushes any staged bytes then appends every chunk of bos
// directly to the file.
func (fo *FileOutputStream) Write(bos *BufferedOutStream) error {
	if err := fo.flushStaging(); err != nil {
		return err
	}
	for _, c := range bos.Chunks() {
		if _, err := fo.f.Write(c); err != nil {
			return err
		}
	}
	return nil
}

// WriteSized emits v64(totalSize-2) ahead of bos's chunks. No legal HD
// block is smaller than 2 bytes (a one-byte field id plus a one-byte
// payload minimum), hence the "-2" offset.
func (fo *FileOutputStream) WriteSized(bos *BufferedOutStream) error {
	size := bos.Size()
	var tmp [9]byte
	sizeField := appendV64(tmp[:0], uint64(size-2))
	fo.staging = append(fo.staging, sizeField...)
	return fo.Write(bos)
}

// WriteRaw appends p directly, staged through the same 4 KiB buffer.
func (fo *FileOutputStream) WriteRaw(p []byte) error {
	fo.staging = append(fo.staging, p...)
	if len(fo.staging) >= outBufferSize {
		return fo.flushStaging()
	}
	return nil
}

// Close flushes the staging buffer and closes the underlying file.
func (fo *FileOutputStream) Close() error {
	if err := fo.flushStaging(); err != nil {
		fo.f.Close()
		return err
	}
	return fo.f.Close()
}
