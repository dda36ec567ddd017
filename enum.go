// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// EnumConstant is one proxy value of a merged enum: an untyped ordinal,
// its owning pool, its name, and the combined ID assigned during merge.
type EnumConstant struct {
	Value   uint64
	Owner   *EnumPool
	Name    string
	ID      int32
	Unknown bool
}

// EnumPool is a merged ordered set of enum constants coming from the file
// and/or the compile-time definition. Unlike containers and the string
// pool, an enum is not a HullType: a field of enum type stores the
// constant's ordinal directly (as a v64), so there is no separate HD
// block or dependency count to track for it.
type EnumPool struct {
	typeID  TypeID
	name    string
	values  []*EnumConstant
	byName  map[string]*EnumConstant
	unknown *EnumConstant
}

// NewEnumPool constructs an enum pool with the given name and type ID.
func NewEnumPool(typeID TypeID, name string) *EnumPool {
	return &EnumPool{typeID: typeID, name: name, byName: make(map[string]*EnumConstant)}
}

func (e *EnumPool) TypeID() TypeID { return e.typeID }
func (e *EnumPool) Name() string   { return e.name }

// AddValue appends a known constant, assigning it the next combined ID.
func (e *EnumPool) AddValue(name string, value uint64) *EnumConstant {
	c := &EnumConstant{Value: value, Owner: e, Name: name, ID: int32(len(e.values))}
	e.values = append(e.values, c)
	e.byName[name] = c
	return c
}

// Values returns the merged, ordered constant list.
func (e *EnumPool) Values() []*EnumConstant { return e.values }

// ByName looks up a constant by name.
func (e *EnumPool) ByName(name string) (*EnumConstant, bool) {
	c, ok := e.byName[name]
	return c, ok
}

// ByOrdinal returns the constant at the given combined ID, or the
// synthetic "unknown" constant (lazily created) if id is out of range
// for a statically closed enum that received an out-of-band file value.
func (e *EnumPool) ByOrdinal(id int32) *EnumConstant {
	if id >= 0 && int(id) < len(e.values) {
		return e.values[id]
	}
	if e.unknown == nil {
		e.unknown = &EnumConstant{Value: uint64(id), Owner: e, Name: "<unknown>", ID: id, Unknown: true}
	}
	return e.unknown
}
