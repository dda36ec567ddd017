// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeAndRead(t *testing.T, guard string) string {
	t.Helper()
	out := NewBufferedOutStream()
	writeGuard(out, guard)

	var buf bytes.Buffer
	for _, c := range out.Chunks() {
		buf.Write(c)
	}

	in := NewInStream(buf.Bytes())
	got, err := readGuard(in)
	require.NoError(t, err)
	return got
}

func TestGuardEmptyRoundTrips(t *testing.T) {
	require.Equal(t, "", writeAndRead(t, ""))
}

func TestGuardNamedRoundTrips(t *testing.T) {
	require.Equal(t, "dataset-42", writeAndRead(t, "dataset-42"))
}

func TestReadGuardRejectsUnknownMarker(t *testing.T) {
	in := NewInStream([]byte{0x00, 0x01})
	_, err := readGuard(in)
	require.ErrorIs(t, err, ErrGuardMismatch)
}

func TestReadGuardPropagatesShortReadError(t *testing.T) {
	in := NewInStream([]byte{'#'})
	_, err := readGuard(in)
	require.Error(t, err)
}
