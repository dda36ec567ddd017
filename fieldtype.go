// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"sync"
	"sync/atomic"
)

// TypeID is the stable, file-wide numeric identity of a field type.
type TypeID int32

// Fixed built-in type IDs. 10 and above are assigned in definition order
// to classes, then containers, then enums.
const (
	TypeBool   TypeID = 0
	TypeI8     TypeID = 1
	TypeI16    TypeID = 2
	TypeI32    TypeID = 3
	TypeI64    TypeID = 4
	TypeV64    TypeID = 5
	TypeF32    TypeID = 6
	TypeF64    TypeID = 7
	TypeAnyRef TypeID = 8
	TypeString TypeID = 9

	firstUserTypeID TypeID = 10
)

var builtinNames = map[TypeID]string{
	TypeBool: "bool", TypeI8: "i8", TypeI16: "i16", TypeI32: "i32",
	TypeI64: "i64", TypeV64: "v64", TypeF32: "f32", TypeF64: "f64",
	TypeAnyRef: "anyRef", TypeString: "string",
}

// FieldType is the common interface implemented by every entry of the
// field-type union: the 8 built-ins, any-ref, the string hull, class
// pools, container hulls, and enum pools.
type FieldType interface {
	TypeID() TypeID
	Name() string
}

// BuiltinType represents one of the 8 fixed-ID scalar types.
type BuiltinType struct{ id TypeID }

func (t *BuiltinType) TypeID() TypeID { return t.id }
func (t *BuiltinType) Name() string   { return builtinNames[t.id] }

var builtinTypes = func() map[TypeID]*BuiltinType {
	m := make(map[TypeID]*BuiltinType, 8)
	for id := TypeBool; id <= TypeF64; id++ {
		m[id] = &BuiltinType{id: id}
	}
	return m
}()

// Builtin returns the shared BuiltinType instance for id, or nil if id is
// not one of the 8 scalar types.
func Builtin(id TypeID) *BuiltinType { return builtinTypes[id] }

// AnyRefType is the single any-ref type, ID 8: a reference to an object
// of any class pool, tagged at runtime by the referenced object's own
// type ID rather than statically typed.
type AnyRefType struct{}

func (AnyRefType) TypeID() TypeID { return TypeAnyRef }
func (AnyRefType) Name() string   { return "anyRef" }

// theAnyRef is the process-wide singleton any-ref type.
var theAnyRef = &AnyRefType{}

// HullType is implemented by field types whose instances are referenced
// by ordinal from fields and must be written as their own HD block,
// synchronized by a dependency counter tracking an armed/written state
// machine. The string pool and container types implement this; enum
// pools do not (an enum field's value is a plain ordinal stored inline,
// and enum constants are fully described in the T_enum block with no
// separate HD payload).
type HullType interface {
	FieldType
	MaxDeps() int32
	AddMaxDeps(n int32)
	ResetDeps()
	DecDeps() int32
	FieldID() int32
	SetFieldID(id int32)
}

// hullBase is embedded by every HullType implementation to provide the
// max_deps/deps/field_id bookkeeping common to all of them.
type hullBase struct {
	maxDeps int32
	deps    int32
	fieldID int32
}

func (h *hullBase) MaxDeps() int32     { return h.maxDeps }
func (h *hullBase) AddMaxDeps(n int32) { h.maxDeps += n }
func (h *hullBase) ResetDeps()         { atomic.StoreInt32(&h.deps, h.maxDeps) }
func (h *hullBase) DecDeps() int32     { return atomic.AddInt32(&h.deps, -1) }
func (h *hullBase) FieldID() int32     { return h.fieldID }
func (h *hullBase) SetFieldID(id int32) { h.fieldID = id }

// ContainerKind enumerates the four container shapes a KCC/UCC can
// describe.
type ContainerKind uint8

const (
	ContainerArray ContainerKind = 0
	ContainerList  ContainerKind = 1
	ContainerSet   ContainerKind = 2
	ContainerMap   ContainerKind = 3
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerArray:
		return "array"
	case ContainerList:
		return "list"
	case ContainerSet:
		return "set"
	case ContainerMap:
		return "map"
	default:
		return "container?"
	}
}

// EncodeKCC packs a Known Container Constructor: kind<<30 | base2<<15 |
// base1, where base1/base2 are SIFA indices of the container's base
// type(s).
func EncodeKCC(kind ContainerKind, base1, base2 int) uint32 {
	return uint32(kind)<<30 | uint32(base2&0x7fff)<<15 | uint32(base1&0x7fff)
}

// DecodeKCC unpacks a KCC into its kind and base SIFA indices.
func DecodeKCC(kcc uint32) (kind ContainerKind, base1, base2 int) {
	kind = ContainerKind(kcc >> 30)
	base2 = int((kcc >> 15) & 0x7fff)
	base1 = int(kcc & 0x7fff)
	return
}

// EncodeUCC computes the Unified Container Constructor ordering key used
// to sort/merge container declarations: max(b1,b2)<<17 | kind<<15 |
// min(b1,b2).
func EncodeUCC(kind ContainerKind, b1, b2 int) uint32 {
	hi, lo := b1, b2
	if lo > hi {
		hi, lo = lo, hi
	}
	return uint32(hi)<<17 | uint32(kind)<<15 | uint32(lo)
}

// ContainerType is a hull field type describing one array/list/set/map
// shape: its kind, its base type(s), and the live id_map/ids tables used
// during parsing and writing.
type ContainerType struct {
	hullBase
	typeID TypeID
	kind   ContainerKind
	base1  FieldType
	base2  FieldType // only meaningful for ContainerMap
	kcc    uint32

	poolMu sync.Mutex

	idMap map[int32]*ContainerValue // ordinal -> value, reset each write
	ids   map[*ContainerValue]int32 // reverse map, reset each write
	lastID int32
}

// NewContainerType constructs a container hull with the given type ID and
// shape. base1Idx/base2Idx are the bases' SIFA indices (base2Idx is
// unused for single-argument containers); the StateInitializer, which
// owns SIFA slot assignment, supplies them rather than this type trying
// to recover them reflectively.
func NewContainerType(typeID TypeID, kind ContainerKind, base1 FieldType, base1Idx int, base2 FieldType, base2Idx int) *ContainerType {
	return &ContainerType{
		typeID: typeID,
		kind:   kind,
		base1:  base1,
		base2:  base2,
		kcc:    EncodeKCC(kind, base1Idx, base2Idx),
		idMap:  make(map[int32]*ContainerValue),
		ids:    make(map[*ContainerValue]int32),
	}
}

func (c *ContainerType) TypeID() TypeID { return c.typeID }
func (c *ContainerType) Name() string   { return c.kind.String() }
func (c *ContainerType) Kind() ContainerKind { return c.kind }
func (c *ContainerType) Base1() FieldType    { return c.base1 }
func (c *ContainerType) Base2() FieldType    { return c.base2 }
func (c *ContainerType) KCC() uint32         { return c.kcc }

// UCC returns this container's unified ordering key, computed from the
// SIFA indices baked into its KCC.
func (c *ContainerType) UCC() uint32 {
	kind, b1, b2 := DecodeKCC(c.kcc)
	return EncodeUCC(kind, b1, b2)
}

// ResetIDs clears the id_map/ids tables at the start of a write.
func (c *ContainerType) ResetIDs() {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()
	c.idMap = make(map[int32]*ContainerValue)
	c.ids = make(map[*ContainerValue]int32)
	c.lastID = 0
}

// Intern assigns (or returns the existing) ordinal for v, identity-
// compared by pointer. Field-writer tasks for distinct fields of the
// same container type run concurrently, so idMap/ids/lastID are guarded
// by poolMu rather than assuming a single writer.
func (c *ContainerType) Intern(v *ContainerValue) int32 {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()
	if id, ok := c.ids[v]; ok {
		return id
	}
	c.lastID++
	id := c.lastID
	c.ids[v] = id
	c.idMap[id] = v
	return id
}

// ByOrdinal returns the value stored at ordinal id, or nil.
func (c *ContainerType) ByOrdinal(id int32) *ContainerValue {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()
	return c.idMap[id]
}

// Count returns how many distinct container instances are currently
// interned.
func (c *ContainerType) Count() int32 {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()
	return c.lastID
}

// MapEntry is one key/value pair of a map-typed ContainerValue.
type MapEntry struct {
	Key, Value Box
}

// ContainerValue is the runtime representation of one array/list/set/map
// instance. Array and List share the Elements slice (ordered); Set uses
// it unordered with Intern-time dedup left to the caller/generated code,
// since this runtime only needs to store and serialize a value sequence;
// Map uses Entries.
type ContainerValue struct {
	Kind     ContainerKind
	Elements []Box
	Entries  []MapEntry
}
