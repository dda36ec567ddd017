// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// Schema is the compile-time description of a binding's known type
// hierarchy: every class, container, and enum the caller wants to
// interpret. It stands in for generated per-schema pool/builder
// subclasses, which are out of scope here — a caller assembles one by
// hand or via a small code generator of their own and hands it to
// Open or OpenBytes.
type Schema struct {
	Classes    []ClassDef
	Containers []ContainerDef
	Enums      []EnumDef
}

// ClassDef describes one known class pool: its name, the name of its
// direct super type (empty for a root class), and its own fields in
// declaration order. Depth-first pre-order across Classes must list a
// super type before any of its subtypes.
type ClassDef struct {
	Name       string
	SuperName  string
	Fields     []FieldDef
	AutoFields []AutoFieldDef
}

// FieldDef describes one on-disk field of a class.
type FieldDef struct {
	Name         string
	Type         TypeRef
	Restrictions []Restriction
}

// AutoFieldDef describes one derived field with no on-disk
// representation; Compute is supplied by the caller's binding code.
type AutoFieldDef struct {
	Name    string
	Type    TypeRef
	Compute func(o *Object) (Box, error)
}

// TypeRef names a field's declared type, resolved against the Schema's
// own classes/containers/enums plus the 10 built-ins when the
// StateInitializer builds the runtime type graph.
type TypeRef struct {
	// Builtin (with IsBuiltin set) selects bool..string
	// (TypeBool..TypeString); Builtin is TypeBool by default, so the zero
	// value is not itself meaningful. Callers set one of IsBuiltin,
	// IsAnyRef, ClassName or EnumName, or else ContainerIndex, which is
	// consulted last.
	Builtin        TypeID
	IsBuiltin      bool
	IsAnyRef       bool
	ClassName      string
	ContainerIndex int // index into Schema.Containers; its zero value selects Containers[0]
	EnumName       string
}

// ContainerDef describes one known array/list/set/map shape. Base1/Base2
// are resolved the same way a FieldDef's Type is; Base2 is only
// meaningful for ContainerMap.
type ContainerDef struct {
	Kind  ContainerKind
	Base1 TypeRef
	Base2 TypeRef
}

// EnumDef describes one known enum pool and its closed value set, in
// declaration order (the order AddValue should run in, since combined
// IDs are positional).
type EnumDef struct {
	Name   string
	Values []string
}
