// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "math"

// BoxKind tags the value carried by a Box. The tag is not persisted
// anywhere in the on-disk format; it only exists at the reflective
// boundary (Field.Get/Set): field type determines interpretation,
// internal typed accessors stay unboxed.
type BoxKind uint8

// Box kinds, one per entry of the field-type union.
const (
	BoxNone BoxKind = iota
	BoxBool
	BoxI8
	BoxI16
	BoxI32
	BoxI64
	BoxV64
	BoxF32
	BoxF64
	BoxRef       // reference to an Object (class pool instance or any-ref)
	BoxString    // *string, interned through the string pool
	BoxContainer // *ContainerValue
	BoxEnum      // *EnumConstant
)

// Box is an 8-byte-scalar-or-pointer tagged union. Scalars are stored
// unboxed in a uint64; reference-typed values go through ref.
type Box struct {
	Kind BoxKind
	bits uint64
	ref  interface{}
}

// NoneBox is the zero value: an unset / default field value.
var NoneBox = Box{}

func BoxFromBool(v bool) Box {
	var b uint64
	if v {
		b = 1
	}
	return Box{Kind: BoxBool, bits: b}
}
func BoxFromI8(v int8) Box   { return Box{Kind: BoxI8, bits: uint64(uint8(v))} }
func BoxFromI16(v int16) Box { return Box{Kind: BoxI16, bits: uint64(uint16(v))} }
func BoxFromI32(v int32) Box { return Box{Kind: BoxI32, bits: uint64(uint32(v))} }
func BoxFromI64(v int64) Box { return Box{Kind: BoxI64, bits: uint64(v)} }
func BoxFromV64(v int64) Box { return Box{Kind: BoxV64, bits: uint64(v)} }
func BoxFromF32(v float32) Box {
	return Box{Kind: BoxF32, bits: uint64(math.Float32bits(v))}
}
func BoxFromF64(v float64) Box {
	return Box{Kind: BoxF64, bits: math.Float64bits(v)}
}
func BoxFromRef(o *Object) Box                { return Box{Kind: BoxRef, ref: o} }
func BoxFromString(s *string) Box             { return Box{Kind: BoxString, ref: s} }
func BoxFromContainer(c *ContainerValue) Box  { return Box{Kind: BoxContainer, ref: c} }
func BoxFromEnum(c *EnumConstant) Box         { return Box{Kind: BoxEnum, ref: c} }

func (b Box) Bool() bool       { return b.bits != 0 }
func (b Box) I8() int8         { return int8(uint8(b.bits)) }
func (b Box) I16() int16       { return int16(uint16(b.bits)) }
func (b Box) I32() int32       { return int32(uint32(b.bits)) }
func (b Box) I64() int64       { return int64(b.bits) }
func (b Box) V64() int64       { return int64(b.bits) }
func (b Box) F32() float32     { return math.Float32frombits(uint32(b.bits)) }
func (b Box) F64() float64     { return math.Float64frombits(b.bits) }
func (b Box) Ref() *Object     { o, _ := b.ref.(*Object); return o }
func (b Box) Str() *string     { s, _ := b.ref.(*string); return s }
func (b Box) Container() *ContainerValue {
	c, _ := b.ref.(*ContainerValue)
	return c
}
func (b Box) Enum() *EnumConstant { c, _ := b.ref.(*EnumConstant); return c }

// IsDefault reports whether the box holds the type's default value
// (zero/false/nil, including a box built from a nil pointer). The writer
// does not consult it: every value of a column is written.
func (b Box) IsDefault() bool {
	switch b.Kind {
	case BoxNone:
		return true
	case BoxRef:
		return b.Ref() == nil
	case BoxString:
		return b.Str() == nil
	case BoxContainer:
		return b.Container() == nil
	case BoxEnum:
		return b.Enum() == nil
	default:
		return b.bits == 0
	}
}
