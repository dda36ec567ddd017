// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// stateInitializer holds the state shared by both ways a File comes into
// being: freshly created (creator.go) or read from an existing mapped
// file (parser.go). Both paths build the same graph of pools,
// containers, enums, the string pool, and the SIFA, then hand the
// populated stateInitializer to File.
type stateInitializer struct {
	path string
	in   *InStream // nil for a freshly created file

	schema *Schema

	classes    []*Pool // in global TID order
	containers []*ContainerType
	enums      []*EnumPool
	strings    *StringPool
	anyRef     *AnyRefType

	// sifa is indexed by compile-time known-type offset: 0..9 are the
	// built-ins/any-ref/string, 10.. are classes, then containers, then
	// enums, mirroring the file-wide TypeID space.
	sifa []FieldType
	nsID int32 // next free SIFA slot

	nextFieldID int32 // monotonic; starts at 1, ID 0 is the string hull

	byClassName    map[string]*Pool
	byContainerKey map[uint32]*ContainerType // keyed by KCC
	byEnumName     map[string]*EnumPool

	// classDefOf records, for a parser-path merge, which ClassDef a known
	// pool was built from (so field merge can walk its known field list in
	// declaration order). Unused on the creator path.
	classDefOf map[*Pool]*ClassDef

	// unknownBlocks holds HD records whose field ID matched nothing this
	// runtime merged a Field or hull for, replayed verbatim on the next
	// Flush.
	unknownBlocks []rawBlock
}

func newStateInitializer(path string, in *InStream, schema *Schema) *stateInitializer {
	si := &stateInitializer{
		path:           path,
		in:             in,
		schema:         schema,
		strings:        NewStringPool(),
		anyRef:         theAnyRef,
		nextFieldID:    1,
		byClassName:    make(map[string]*Pool),
		byContainerKey: make(map[uint32]*ContainerType),
		byEnumName:     make(map[string]*EnumPool),
		classDefOf:     make(map[*Pool]*ClassDef),
	}
	// SIFA slots 0-9 are the fixed built-ins, any-ref, and the string
	// hull; user types start at slot 10, matching firstUserTypeID.
	si.sifa = make([]FieldType, firstUserTypeID)
	for id := TypeBool; id <= TypeF64; id++ {
		si.sifa[id] = Builtin(id)
	}
	si.sifa[TypeAnyRef] = si.anyRef
	si.sifa[TypeString] = si.strings
	si.nsID = int32(firstUserTypeID)
	return si
}

// claimSIFA appends t to the SIFA, returning its newly assigned slot.
func (si *stateInitializer) claimSIFA(t FieldType) int32 {
	si.sifa = append(si.sifa, t)
	id := si.nsID
	si.nsID++
	return id
}

// resolve looks up the FieldType a TypeRef names, given that classes,
// containers, and enums have all already been constructed and indexed.
func (si *stateInitializer) resolve(ref TypeRef) (FieldType, error) {
	switch {
	case ref.IsBuiltin:
		if ref.Builtin < TypeBool || ref.Builtin > TypeString {
			return nil, ErrTypeMismatch
		}
		return si.sifa[ref.Builtin], nil
	case ref.IsAnyRef:
		return si.anyRef, nil
	case ref.ClassName != "":
		p, ok := si.byClassName[ref.ClassName]
		if !ok {
			return nil, ErrBadSuperReference
		}
		return classFieldType{p}, nil
	case ref.EnumName != "":
		e, ok := si.byEnumName[ref.EnumName]
		if !ok {
			return nil, ErrBadSuperReference
		}
		return e, nil
	case ref.ContainerIndex >= 0 && ref.ContainerIndex < len(si.containers):
		return si.containers[ref.ContainerIndex], nil
	default:
		return nil, ErrTypeMismatch
	}
}

// classFieldType adapts *Pool to FieldType: a field whose declared type
// is a class names that class's own pool (any instance of the pool or
// one of its subtypes is legal there, per the usual OO widening rule).
type classFieldType struct{ p *Pool }

func (c classFieldType) TypeID() TypeID { return c.p.TypeID() }
func (c classFieldType) Name() string   { return c.p.Name() }

// fixContainerMaxDeps propagates dependency counts outward from
// container fields through the container DAG: containers are visited in
// reverse construction order, and any container with max_deps > 0 bumps
// max_deps on each of its own base hull types.
func (si *stateInitializer) fixContainerMaxDeps() {
	for i := len(si.containers) - 1; i >= 0; i-- {
		c := si.containers[i]
		if c.MaxDeps() <= 0 {
			continue
		}
		for _, base := range []FieldType{c.base1, c.base2} {
			if h, ok := base.(HullType); ok {
				h.AddMaxDeps(1)
			}
		}
	}
}
