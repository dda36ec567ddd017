// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxScalarRoundTrips(t *testing.T) {
	require.True(t, BoxFromBool(true).Bool())
	require.False(t, BoxFromBool(false).Bool())
	require.Equal(t, int8(-12), BoxFromI8(-12).I8())
	require.Equal(t, int16(-1234), BoxFromI16(-1234).I16())
	require.Equal(t, int32(123456), BoxFromI32(123456).I32())
	require.Equal(t, int64(-123456789), BoxFromI64(-123456789).I64())
	require.Equal(t, int64(987654321), BoxFromV64(987654321).V64())
	require.InDelta(t, float32(3.5), BoxFromF32(3.5).F32(), 0)
	require.InDelta(t, 2.71828, BoxFromF64(2.71828).F64(), 0)
}

func TestBoxRefRoundTrip(t *testing.T) {
	o := &Object{id: 1}
	b := BoxFromRef(o)
	require.Equal(t, BoxRef, b.Kind)
	require.Same(t, o, b.Ref())
	require.Nil(t, NoneBox.Ref())
}

func TestBoxStringRoundTrip(t *testing.T) {
	s := "hello"
	b := BoxFromString(&s)
	require.Same(t, &s, b.Str())
}

func TestBoxContainerAndEnumRoundTrip(t *testing.T) {
	cv := &ContainerValue{Kind: ContainerArray}
	b := BoxFromContainer(cv)
	require.Same(t, cv, b.Container())

	ec := &EnumConstant{Name: "RED"}
	eb := BoxFromEnum(ec)
	require.Same(t, ec, eb.Enum())
}

func TestBoxIsDefault(t *testing.T) {
	require.True(t, NoneBox.IsDefault())
	require.True(t, BoxFromI32(0).IsDefault())
	require.False(t, BoxFromI32(1).IsDefault())
	require.True(t, BoxFromBool(false).IsDefault())
	require.False(t, BoxFromBool(true).IsDefault())

	require.False(t, BoxFromRef(&Object{}).IsDefault())
	s := ""
	require.False(t, BoxFromString(&s).IsDefault())
}

func TestBoxWrongAccessorReturnsZeroValue(t *testing.T) {
	b := BoxFromI32(5)
	require.Nil(t, b.Ref())
	require.Nil(t, b.Str())
	require.Nil(t, b.Container())
	require.Nil(t, b.Enum())
}
