// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeKCCRoundTrips(t *testing.T) {
	cases := []struct {
		kind       ContainerKind
		b1, b2     int
	}{
		{ContainerArray, 3, 0},
		{ContainerList, 12, 0},
		{ContainerSet, 9, 0},
		{ContainerMap, 5, 21},
	}
	for _, c := range cases {
		kcc := EncodeKCC(c.kind, c.b1, c.b2)
		kind, b1, b2 := DecodeKCC(kcc)
		require.Equal(t, c.kind, kind)
		require.Equal(t, c.b1, b1)
		require.Equal(t, c.b2, b2)
	}
}

func TestEncodeUCCIsOrderInsensitive(t *testing.T) {
	a := EncodeUCC(ContainerMap, 5, 21)
	b := EncodeUCC(ContainerMap, 21, 5)
	require.Equal(t, a, b, "UCC must not distinguish which argument was base1 vs base2")

	c := EncodeUCC(ContainerMap, 5, 22)
	require.NotEqual(t, a, c)
}

func TestContainerTypeUCCMatchesDecodedKCC(t *testing.T) {
	ct := NewContainerType(10, ContainerMap, Builtin(TypeI32), 3, Builtin(TypeString), 9)
	require.Equal(t, EncodeUCC(ContainerMap, 3, 9), ct.UCC())
}

func TestContainerTypeInternAssignsStableOrdinals(t *testing.T) {
	ct := NewContainerType(10, ContainerArray, Builtin(TypeI32), 3, nil, 0)
	v1 := &ContainerValue{Kind: ContainerArray, Elements: []Box{BoxFromI32(1)}}
	v2 := &ContainerValue{Kind: ContainerArray, Elements: []Box{BoxFromI32(2)}}

	id1 := ct.Intern(v1)
	id2 := ct.Intern(v2)
	require.Equal(t, int32(1), id1)
	require.Equal(t, int32(2), id2)

	require.Equal(t, id1, ct.Intern(v1), "interning the same pointer twice returns the same ordinal")
	require.Equal(t, int32(2), ct.Count())

	require.Same(t, v1, ct.ByOrdinal(id1))
	require.Same(t, v2, ct.ByOrdinal(id2))
	require.Nil(t, ct.ByOrdinal(99))
}

func TestContainerTypeResetIDsClearsInternTables(t *testing.T) {
	ct := NewContainerType(10, ContainerSet, Builtin(TypeI32), 3, nil, 0)
	v := &ContainerValue{Kind: ContainerSet}
	ct.Intern(v)
	require.Equal(t, int32(1), ct.Count())

	ct.ResetIDs()
	require.Equal(t, int32(0), ct.Count())
	require.Nil(t, ct.ByOrdinal(1))

	// the same pointer interned after a reset gets a fresh ordinal sequence
	id := ct.Intern(v)
	require.Equal(t, int32(1), id)
}

func TestHullBaseDepsCountdown(t *testing.T) {
	h := &hullBase{}
	h.AddMaxDeps(2)
	h.AddMaxDeps(1)
	require.Equal(t, int32(3), h.MaxDeps())

	h.ResetDeps()
	require.Equal(t, int32(3), h.deps)
	require.Equal(t, int32(2), h.DecDeps())
	require.Equal(t, int32(1), h.DecDeps())
	require.Equal(t, int32(0), h.DecDeps())
}

func TestBuiltinLookup(t *testing.T) {
	require.Equal(t, "bool", Builtin(TypeBool).Name())
	require.Equal(t, "v64", Builtin(TypeV64).Name())
	require.Nil(t, Builtin(TypeString), "string is a hull type, not a BuiltinType")
	require.Nil(t, Builtin(TypeAnyRef))
}
