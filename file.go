// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Mode state diagram:
//
//	Open(existing path)  -> opts.Mode (ModeReadWrite by default); with
//	                        ModeCreate the existing content is not read
//	Open(missing path)   -> ModeCreate
//	OpenBytes            -> ModeReadOnly
//	ChangeMode(ReadOnly) downgrades; ChangeMode(ReadWrite) upgrades again
//	                     only while the File holds its mapping or is in
//	                     ModeCreate (ChangePath does not change the mode)
//	Close                -> ModeReadOnly
//	Flush on a ReadOnly File returns ErrReadOnly

// File is the runtime's single entry point: an open object graph, mapped
// from path (or held purely in memory, for a brand-new or bytes-backed
// graph), plus every pool/container/enum/string the caller's Schema and
// the file's own content together describe.
type File struct {
	path string
	mode Mode
	opts *Options

	si *stateInitializer

	mmapHandle mmap.MMap
	osFile     *os.File

	anomalies []string
}

// Open maps path (if it exists) and merges it against schema, or — if
// path does not exist — creates a brand-new, empty-of-data graph from
// schema alone. The returned File is ready for reads immediately; Flush
// is required to persist any mutation.
func Open(path string, schema *Schema, opts *Options) (*File, error) {
	o := opts.withDefaults()

	f := &File{path: path, opts: o}

	osf, err := os.Open(path)
	if os.IsNotExist(err) || (err == nil && o.Mode == ModeCreate) {
		if err == nil {
			osf.Close()
		}
		si, cerr := createState(path, schema)
		if cerr != nil {
			return nil, cerr
		}
		f.si = si
		f.mode = ModeCreate
		return f, nil
	}
	if err != nil {
		return nil, err
	}

	in, mapped, err := openMappedInStream(osf)
	if err != nil {
		osf.Close()
		return nil, err
	}

	si, anomalies, err := parseState(path, in, schema, o)
	if err != nil {
		mapped.Unmap()
		osf.Close()
		return nil, err
	}

	f.si = si
	f.osFile = osf
	f.mmapHandle = mapped
	f.anomalies = anomalies
	f.mode = o.Mode
	return f, nil
}

// OpenBytes builds a graph purely from an in-memory buffer, merged
// against schema exactly as Open would for a mapped file, but with
// nothing to Flush back to.
func OpenBytes(data []byte, schema *Schema, opts *Options) (*File, error) {
	o := opts.withDefaults()
	in := NewInStream(data)
	si, anomalies, err := parseState("", in, schema, o)
	if err != nil {
		return nil, err
	}
	return &File{si: si, opts: o, anomalies: anomalies, mode: ModeReadOnly}, nil
}

// Anomalies returns every recoverable issue noted while merging the file
// against schema: unknown fields, unattributed HD blocks, and unknown
// enums encountered during Open.
func (f *File) Anomalies() []string { return f.anomalies }

// Pool looks up a known class pool by name.
func (f *File) Pool(name string) (*Pool, bool) {
	p, ok := f.si.byClassName[name]
	return p, ok
}

// PoolOf returns the pool o belongs to.
func (f *File) PoolOf(o *Object) (*Pool, bool) {
	if o == nil {
		return nil, false
	}
	return o.Pool(), o.Pool() != nil
}

// Contains reports whether o is a live (non-tombstoned) object reachable
// through this File's graph.
func (f *File) Contains(o *Object) bool {
	if o == nil || o.Deleted() {
		return false
	}
	_, ok := f.PoolOf(o)
	return ok
}

// Free tombstones o; its slot is reclaimed at the next Flush.
func (f *File) Free(o *Object) {
	if p, ok := f.PoolOf(o); ok {
		p.Free(o)
	}
}

// ChangeMode transitions the file between ModeReadWrite and
// ModeReadOnly. Downgrading to ModeReadOnly is always legal; upgrading
// to ModeReadWrite is refused with ErrReadOnly when the File holds no
// mapping and is not in ModeCreate: after Close, for an OpenBytes File,
// and for a created File that was downgraded.
func (f *File) ChangeMode(m Mode) error {
	if m == ModeReadWrite && f.osFile == nil && f.mmapHandle == nil && f.mode != ModeCreate {
		return ErrReadOnly
	}
	f.mode = m
	return nil
}

// ChangePath redirects the next Flush to a new path, leaving the current
// in-memory graph untouched.
func (f *File) ChangePath(path string) { f.path = path }

// Flush runs the whole write pipeline (compress, then guard/S/T/F/HD)
// against the File's current path. Read-only files refuse to flush.
func (f *File) Flush() error {
	if f.mode == ModeReadOnly {
		return ErrReadOnly
	}
	f.si.strings.ResetIDs()
	for _, ct := range f.si.containers {
		ct.ResetIDs()
	}
	return writeState(f.si, f.path)
}

// Close releases the mapped region and underlying file handle, if any,
// and leaves the File in ModeReadOnly. It does not flush; callers that
// want their writes persisted must call Flush first.
func (f *File) Close() error {
	f.mode = ModeReadOnly
	var unmapErr, closeErr error
	if f.mmapHandle != nil {
		unmapErr = f.mmapHandle.Unmap()
		f.mmapHandle = nil
	}
	if f.osFile != nil {
		closeErr = f.osFile.Close()
		f.osFile = nil
	}
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
