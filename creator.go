// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "fmt"

// createState builds a brand-new, empty-of-data type graph from schema
// alone: no input file, so every pool starts with bpo=0, lastID=0 and
// only the compile-time known fields/values exist. This is the path
// Open takes when the target path does not exist yet.
func createState(path string, schema *Schema) (*stateInitializer, error) {
	si := newStateInitializer(path, nil, schema)

	if err := createClasses(si, schema); err != nil {
		return nil, err
	}
	if err := createContainers(si, schema); err != nil {
		return nil, err
	}
	if err := createEnums(si, schema); err != nil {
		return nil, err
	}
	if err := createFields(si, schema); err != nil {
		return nil, err
	}
	si.fixContainerMaxDeps()
	return si, nil
}

// createClasses walks schema.Classes depth-first pre-order (the order the
// caller is required to list them in: a super type before its subtypes),
// constructing each pool with bpo=0/lastID=0, installing it in the SIFA
// and the classes vector, and threading next pointers.
func createClasses(si *stateInitializer, schema *Schema) error {
	var prev *Pool
	for i, cd := range schema.Classes {
		var pool *Pool
		tid := TypeID(int(firstUserTypeID) + i)
		if cd.SuperName == "" {
			pool = NewBasePool(cd.Name, tid)
		} else {
			super, ok := si.byClassName[cd.SuperName]
			if !ok {
				return fmt.Errorf("%w: class %q references super %q before it is declared", ErrBadSuperReference, cd.Name, cd.SuperName)
			}
			pool = NewSubPool(cd.Name, tid, super)
		}
		si.byClassName[cd.Name] = pool
		si.classDefOf[pool] = &schema.Classes[i]
		si.classes = append(si.classes, pool)
		si.claimSIFA(classFieldType{pool})
		if prev != nil {
			prev.SetNext(pool)
		}
		prev = pool
	}
	return nil
}

// createContainers iterates the compile-time container list, resolving
// each base type (already-built classes/builtins are available; a
// container-of-container is resolved because ContainerDef entries must
// list dependencies before dependents, mirroring the KCC ordering rule)
// and constructing the hull, assigning it a field ID and installing it in
// the SIFA and containers vector.
func createContainers(si *stateInitializer, schema *Schema) error {
	for _, cdef := range schema.Containers {
		base1, err := si.resolve(cdef.Base1)
		if err != nil {
			return err
		}
		base1Idx := sifaIndexOf(si, base1)
		var base2 FieldType
		base2Idx := 0
		if cdef.Kind == ContainerMap {
			base2, err = si.resolve(cdef.Base2)
			if err != nil {
				return err
			}
			base2Idx = sifaIndexOf(si, base2)
		}
		tid := TypeID(int(firstUserTypeID) + len(schema.Classes) + len(si.containers))
		ct := NewContainerType(tid, cdef.Kind, base1, base1Idx, base2, base2Idx)
		ct.SetFieldID(si.nextFieldID)
		si.nextFieldID++
		si.containers = append(si.containers, ct)
		si.byContainerKey[ct.KCC()] = ct
		si.claimSIFA(ct)
	}
	return nil
}

// sifaIndexOf finds t's own slot in the SIFA, used to encode the KCC for
// a container whose base is t.
func sifaIndexOf(si *stateInitializer, t FieldType) int {
	for i, s := range si.sifa {
		if s == t {
			return i
		}
	}
	return 0
}

// createEnums constructs an EnumPool per compile-time enum definition
// with only its known values (no file-sourced values exist yet), in
// declaration order so combined IDs are positional.
func createEnums(si *stateInitializer, schema *Schema) error {
	for i, ed := range schema.Enums {
		tid := TypeID(int(firstUserTypeID) + len(schema.Classes) + len(si.containers) + i)
		ep := NewEnumPool(tid, ed.Name)
		for _, v := range ed.Values {
			ep.AddValue(v, uint64(len(ep.Values())))
		}
		si.enums = append(si.enums, ep)
		si.byEnumName[ed.Name] = ep
		si.claimSIFA(ep)
	}
	return nil
}

// createFields walks each pool's known fields, claiming a nextFieldID for
// every non-auto field and bumping max_deps on any hull type it
// references.
func createFields(si *stateInitializer, schema *Schema) error {
	for i, cd := range schema.Classes {
		pool := si.classes[i]
		for _, fd := range cd.Fields {
			ft, err := si.resolve(fd.Type)
			if err != nil {
				return err
			}
			df := NewDataField(pool, fd.Name, ft, si.nextFieldID)
			si.nextFieldID++
			for _, r := range fd.Restrictions {
				df.AddRestriction(r)
			}
			pool.AddField(df)
			if h, ok := ft.(HullType); ok {
				h.AddMaxDeps(1)
			}
		}
		for _, afd := range cd.AutoFields {
			ft, err := si.resolve(afd.Type)
			if err != nil {
				return err
			}
			pool.AddAutoField(NewAutoField(pool, afd.Name, ft, afd.Compute))
		}
	}
	return nil
}
