// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"errors"
	"fmt"
)

// Parse errors. These are fatal: the parser aborts the load and releases
// whatever resources it had acquired.
var (
	// ErrEndOfStream is returned when a read would go past the end of the
	// mapped input region.
	ErrEndOfStream = errors.New("ogss: read past end of stream")

	// ErrGuardMismatch is returned when the leading guard bytes are neither
	// the empty guard nor a well-formed '#' string guard.
	ErrGuardMismatch = errors.New("ogss: guard marker mismatch")

	// ErrV32Overflow is returned when a value does not fit the 32-bit range
	// required of a v32-encoded field.
	ErrV32Overflow = errors.New("ogss: value exceeds v32 range")

	// ErrDuplicateTypeName is returned when the file declares two pools
	// with the same name at the same position in the type hierarchy.
	ErrDuplicateTypeName = errors.New("ogss: duplicate type name in file")

	// ErrBadSuperReference is returned when a class's super type id does
	// not resolve to a pool registered earlier in the file.
	ErrBadSuperReference = errors.New("ogss: corrupted super type reference")

	// ErrContainerNotOrdered names a container block that is not sorted by
	// unified container constructor (UCC). parseContainerBlock does not
	// check the order, so no function in this package returns it.
	ErrContainerNotOrdered = errors.New("ogss: container block is not UCC-ordered")

	// ErrFieldShadowed is returned when a transient (auto) field's name
	// collides with a field declared in the file.
	ErrFieldShadowed = errors.New("ogss: transient field shadowed by file field")

	// ErrTypeMismatch is returned when a field present both in the file and
	// in the compile-time schema disagrees on its type.
	ErrTypeMismatch = errors.New("ogss: field type mismatch between file and known schema")

	// ErrShortRead names a block with fewer bytes available than it
	// declares. The stream readers report that case as ErrEndOfStream, and
	// no function in this package returns ErrShortRead.
	ErrShortRead = errors.New("ogss: short read")

	// ErrUnconsumedBytes names a non-lazy read task that stops short of the
	// end of its block. The HD decoders do not check for leftover bytes, so
	// no function in this package returns it.
	ErrUnconsumedBytes = errors.New("ogss: unconsumed bytes in block")
)

// Access errors. These are recoverable: the caller sees an error, but the
// in-memory state remains consistent.
var (
	// ErrOutOfRange is returned by Pool.Get for an id outside the pool's
	// objects, by a field's Set for an object whose id lies before the
	// owning pool's bpo, and by StringPool.ByOrdinal for an unknown
	// ordinal. A field's Get returns NoneBox, not an error, for an object
	// it holds no value for.
	ErrOutOfRange = errors.New("ogss: field access out of range")

	// ErrUseAfterFree is returned when an operation targets a tombstoned
	// (id == 0) object.
	ErrUseAfterFree = errors.New("ogss: use of a deleted object")
)

// Mode errors.
var (
	// ErrReadOnly is returned by Flush on a File in read-only mode (opened
	// so, switched by ChangeMode, or left so by Close), and by ChangeMode
	// when an upgrade is refused. Field and pool mutations do not consult
	// the mode.
	ErrReadOnly = errors.New("ogss: write operation on a read-only file")
)

// WriteError aggregates the failures raised by concurrent write-pipeline
// workers. A write that fails drains its outstanding futures before
// returning one of these rather than leaking goroutines.
type WriteError struct {
	Errs []error
}

func (e *WriteError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("ogss: write failed: %v", e.Errs[0])
	}
	return fmt.Sprintf("ogss: write failed with %d errors: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *WriteError) Unwrap() []error { return e.Errs }

// newWriteError wraps one or more worker failures, or returns nil if errs
// is empty.
func newWriteError(errs []error) error {
	filtered := errs[:0]
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &WriteError{Errs: filtered}
}
