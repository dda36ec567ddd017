// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestV64RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 255, 256, 16383, 16384,
		1 << 21, 1<<21 - 1, 1 << 28, 1 << 35, 1 << 49,
		0xffffffff, 0xffffffffffffffff,
	}
	for _, v := range values {
		buf := appendV64(nil, v)
		require.LessOrEqual(t, len(buf), 9)
		require.Equal(t, len(buf), v64Size(v))

		got, next, err := readV64(buf, 0)
		require.NoError(t, err)
		require.Equal(t, len(buf), next)
		require.Equal(t, v, got)
	}
}

func TestV64ShortBufferIsEndOfStream(t *testing.T) {
	buf := appendV64(nil, 1<<40)
	_, _, err := readV64(buf[:len(buf)-1], 0)
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestV32RejectsOutOfRange(t *testing.T) {
	buf := appendV64(nil, 1<<40)
	_, _, err := readV32(buf, 0)
	require.ErrorIs(t, err, ErrV32Overflow)

	_, err = appendV32Checked(nil, 1<<40)
	require.ErrorIs(t, err, ErrV32Overflow)
}

func TestV64SequentialStream(t *testing.T) {
	var buf []byte
	values := []uint64{3, 300, 70000, 0, 1}
	for _, v := range values {
		buf = appendV64(buf, v)
	}
	pos := 0
	for _, want := range values {
		got, next, err := readV64(buf, pos)
		require.NoError(t, err)
		require.Equal(t, want, got)
		pos = next
	}
	require.Equal(t, len(buf), pos)
}
