// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "sync"

// FieldKind distinguishes the four storage disciplines a field can have:
// a plain on-disk column, a value recomputed from other known data on
// every Get, a column whose data is read outside the owning HD
// block's usual position, and a column whose
// decode is deferred until first access.
type FieldKind uint8

const (
	FieldData FieldKind = iota
	FieldAuto
	FieldDistributed
	FieldLazy
)

// RestrictionKind names one entry of the restriction metadata taxonomy a
// field may carry, surfaced from the schema description rather than
// generated per-field validator code.
type RestrictionKind uint8

const (
	RestrictNonNull RestrictionKind = iota
	RestrictDefault
	RestrictRange
	RestrictCoding
	RestrictConstantLengthPointer
)

// Restriction is one constraint attached to a field declaration. It is
// carried as metadata (Field.Restrictions); Flush does not evaluate it.
type Restriction struct {
	Kind        RestrictionKind
	Min, Max    int64   // RestrictRange
	Default     Box     // RestrictDefault
	CodingName  string  // RestrictCoding, e.g. "UTF8" or an enum coding
	PointerSize int     // RestrictConstantLengthPointer
}

// Field is the common interface every field kind implements: enough for
// the parser/writer/reflective layer to read and, where writable, set a
// value without knowing the concrete kind.
type Field interface {
	Name() string
	Type() FieldType
	Kind() FieldKind
	ID() int32
	Owner() *Pool
	Restrictions() []Restriction
}

// fieldBase carries the state shared by every field kind.
type fieldBase struct {
	name         string
	typ          FieldType
	owner        *Pool
	id           int32
	restrictions []Restriction
}

func (f *fieldBase) Name() string               { return f.name }
func (f *fieldBase) Type() FieldType             { return f.typ }
func (f *fieldBase) ID() int32                   { return f.id }
func (f *fieldBase) Owner() *Pool                { return f.owner }
func (f *fieldBase) Restrictions() []Restriction { return f.restrictions }

// column is the unified backing storage shared by DataField,
// DistributedField and LazyField: a slot per object index into the
// owning pool's data array plus its own newObjects, addressed the same
// way Pool.Get addresses objects. A generated binding would normally
// split data-field, distributed-field, and lazy-field storage into three
// distinct representations, each materialized as a member of a generated
// instance struct; since generated per-schema classes are out of scope
// here there is no struct to embed a value into, so all three collapse
// onto one columnar array indexed by object slot (see DESIGN.md).
type column struct {
	mu       sync.Mutex
	data     []Box // parallel to owner.data
	newData  []Box // parallel to owner.newObjects
}

func newColumn() *column { return &column{} }

// columnHolder is implemented by every field kind backed by a column,
// letting the writer's compress pass remap stored values by object slot
// without needing a type switch over every concrete field type.
type columnHolder interface {
	columnPtr() *column
}

func (c *column) ensure(nData, nNew int) {
	if len(c.data) < nData {
		grown := make([]Box, nData)
		copy(grown, c.data)
		c.data = grown
	}
	if len(c.newData) < nNew {
		grown := make([]Box, nNew)
		copy(grown, c.newData)
		c.newData = grown
	}
}

func (c *column) get(o *Object) (Box, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.id > 0 {
		idx := int(o.id) - 1 - int(o.pool.bpo)
		if idx < 0 || idx >= len(c.data) {
			return NoneBox, nil
		}
		return c.data[idx], nil
	}
	if o.id < 0 {
		idx := -1 - int(o.id)
		if idx < 0 || idx >= len(c.newData) {
			return NoneBox, nil
		}
		return c.newData[idx], nil
	}
	return NoneBox, ErrUseAfterFree
}

func (c *column) set(o *Object, v Box) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.id > 0 {
		idx := int(o.id) - 1 - int(o.pool.bpo)
		if idx < 0 {
			return ErrOutOfRange
		}
		c.ensure(idx+1, 0)
		c.data[idx] = v
		return nil
	}
	if o.id < 0 {
		idx := -1 - int(o.id)
		if idx < 0 {
			return ErrOutOfRange
		}
		c.ensure(0, idx+1)
		c.newData[idx] = v
		return nil
	}
	return ErrUseAfterFree
}

// DataField is a field with a direct on-disk representation, read and
// written as part of its owning pool's regular HD block.
type DataField struct {
	fieldBase
	col *column
}

// NewDataField constructs an on-disk field named name of type typ, owned
// by owner and identified by the given file-wide field ID.
func NewDataField(owner *Pool, name string, typ FieldType, id int32) *DataField {
	return &DataField{fieldBase: fieldBase{name: name, typ: typ, owner: owner, id: id}, col: newColumn()}
}

func (f *DataField) Kind() FieldKind { return FieldData }

// Get returns the value stored for o.
func (f *DataField) Get(o *Object) (Box, error) { return f.col.get(o) }

// Set stores v for o.
func (f *DataField) Set(o *Object, v Box) error { return f.col.set(o, v) }

// AddRestriction appends a restriction to the field's metadata.
func (f *DataField) AddRestriction(r Restriction) { f.restrictions = append(f.restrictions, r) }

func (f *DataField) columnPtr() *column { return f.col }

// AutoField is a field whose value is computed from already-known data
// on every Get (e.g. a derived value); it has no HD representation of
// its own and is never written.
type AutoField struct {
	fieldBase
	compute func(o *Object) (Box, error)
}

// NewAutoField constructs an auto field whose value is produced by fn.
func NewAutoField(owner *Pool, name string, typ FieldType, fn func(o *Object) (Box, error)) *AutoField {
	return &AutoField{fieldBase: fieldBase{name: name, typ: typ, owner: owner}, compute: fn}
}

func (f *AutoField) Kind() FieldKind { return FieldAuto }

// Get recomputes the field's value for o.
func (f *AutoField) Get(o *Object) (Box, error) { return f.compute(o) }

// DistributedField is a field whose column is read from, and written to,
// a position outside the owning pool's own HD block ordering. Storage
// is identical to DataField; what differs is where the parser/writer
// schedule its read/write task, which lives in parser.go/writer.go, not
// here.
type DistributedField struct {
	fieldBase
	col *column
}

// NewDistributedField constructs a distributed field.
func NewDistributedField(owner *Pool, name string, typ FieldType, id int32) *DistributedField {
	return &DistributedField{fieldBase: fieldBase{name: name, typ: typ, owner: owner, id: id}, col: newColumn()}
}

func (f *DistributedField) Kind() FieldKind { return FieldDistributed }

// Get returns the value stored for o.
func (f *DistributedField) Get(o *Object) (Box, error) { return f.col.get(o) }

// Set stores v for o.
func (f *DistributedField) Set(o *Object, v Box) error { return f.col.set(o, v) }

func (f *DistributedField) columnPtr() *column { return f.col }

// LazyField is a file-only field (in the file, absent from the schema).
// It can defer decoding until first access through a decoder bound with
// SetDecoder, run once under a sync.Once; the parsers in this package
// decode its column while reading the HD block (binding a no-op decoder)
// or keep the payload raw when its type is unknown.
type LazyField struct {
	fieldBase
	col       *column
	raw       []byte // opaque HD payload, set directly when typ is unrecognized
	once      sync.Once
	decode    func() error
	decodeErr error
}

// NewLazyField constructs a lazy field carrying the file-assigned field
// ID id. decode is called at most once, on the first Get or Set, to
// populate col from the raw HD payload; SetDecoder lets the parser bind the actual
// HD-bytes closure once the field's byte range is known, after the
// field itself had to be created during T+F merge.
func NewLazyField(owner *Pool, name string, typ FieldType, id int32) *LazyField {
	return &LazyField{fieldBase: fieldBase{name: name, typ: typ, owner: owner, id: id}, col: newColumn()}
}

// SetDecoder binds the closure that materializes col from the field's HD
// payload. It takes effect only if bound before the first Get/Set;
// without a decoder, Get and Set use the column as it stands.
func (f *LazyField) SetDecoder(decode func(col *column) error) {
	f.decode = func() error { return decode(f.col) }
}

// Column exposes the backing column without forcing a decode. The
// writer replays an opaque payload through Raw, not through Column.
func (f *LazyField) Column() *column { return f.col }

func (f *LazyField) columnPtr() *column { return f.col }

// SetRaw records the field's whole HD payload verbatim, for a field whose
// declared type this runtime cannot itself interpret: the bytes are
// never parsed, only replayed on the next write under whatever field ID
// this field is assigned then.
func (f *LazyField) SetRaw(b []byte) { f.raw = b }

// Raw returns the previously recorded opaque payload, or nil if this
// field's type was recognized and decoded normally instead.
func (f *LazyField) Raw() []byte { return f.raw }

func (f *LazyField) Kind() FieldKind { return FieldLazy }

func (f *LazyField) ensureDecoded() error {
	f.once.Do(func() {
		if f.decode != nil {
			f.decodeErr = f.decode()
		}
	})
	return f.decodeErr
}

// Get forces decoding (if not already done) then returns the value for o.
func (f *LazyField) Get(o *Object) (Box, error) {
	if err := f.ensureDecoded(); err != nil {
		return NoneBox, err
	}
	return f.col.get(o)
}

// Set forces decoding (so existing values are not clobbered) then stores
// v for o. A lazy field can still be written back once the file moves to
// write mode: unknown data survives a round trip the same as known data.
func (f *LazyField) Set(o *Object, v Box) error {
	if err := f.ensureDecoded(); err != nil {
		return err
	}
	return f.col.set(o, v)
}
