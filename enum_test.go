// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnumPoolAddValueAssignsOrdinalsInOrder(t *testing.T) {
	e := NewEnumPool(20, "Color")
	red := e.AddValue("RED", 0)
	green := e.AddValue("GREEN", 1)

	require.Equal(t, int32(0), red.ID)
	require.Equal(t, int32(1), green.ID)
	require.Equal(t, []*EnumConstant{red, green}, e.Values())
}

func TestEnumPoolByNameLookup(t *testing.T) {
	e := NewEnumPool(20, "Color")
	red := e.AddValue("RED", 0)

	got, ok := e.ByName("RED")
	require.True(t, ok)
	require.Same(t, red, got)

	_, ok = e.ByName("BLUE")
	require.False(t, ok)
}

func TestEnumPoolByOrdinalInRange(t *testing.T) {
	e := NewEnumPool(20, "Color")
	red := e.AddValue("RED", 0)
	green := e.AddValue("GREEN", 1)

	require.Same(t, red, e.ByOrdinal(0))
	require.Same(t, green, e.ByOrdinal(1))
}

func TestEnumPoolByOrdinalOutOfRangeReturnsSharedUnknown(t *testing.T) {
	e := NewEnumPool(20, "Color")
	e.AddValue("RED", 0)

	unknown1 := e.ByOrdinal(7)
	require.True(t, unknown1.Unknown)
	require.Equal(t, int32(7), unknown1.ID)

	unknown2 := e.ByOrdinal(99)
	require.Same(t, unknown1, unknown2, "the synthetic unknown constant is lazily created once and reused")

	negative := e.ByOrdinal(-1)
	require.Same(t, unknown1, negative)
}
