// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringPoolLiteralsAreStableAndDeduplicated(t *testing.T) {
	sp := NewStringPool()
	id1 := sp.AddLiteral("alpha")
	id2 := sp.AddLiteral("beta")
	id3 := sp.AddLiteral("alpha")

	require.Equal(t, id1, id3, "re-adding the same literal must return its original ordinal")
	require.NotEqual(t, id1, id2)
	require.Equal(t, int32(2), sp.LiteralCount())
	require.Equal(t, []string{"alpha", "beta"}, sp.Literals())

	s, err := sp.ByOrdinal(id1)
	require.NoError(t, err)
	require.Equal(t, "alpha", s)
}

func TestStringPoolInternAppendsBeyondLiterals(t *testing.T) {
	sp := NewStringPool()
	sp.AddLiteral("a")
	sp.AddLiteral("b")

	id := sp.Intern("runtime-only")
	require.Equal(t, int32(3), id)

	again := sp.Intern("runtime-only")
	require.Equal(t, id, again, "Intern must be idempotent for the same string")

	s, err := sp.ByOrdinal(id)
	require.NoError(t, err)
	require.Equal(t, "runtime-only", s)
}

func TestStringPoolAdoptTailCanonicalizesAgainstLiterals(t *testing.T) {
	sp := NewStringPool()
	litID := sp.AddLiteral("shared")

	sp.AdoptTail(5, "shared")
	s, err := sp.ByOrdinal(5)
	require.NoError(t, err)
	require.Equal(t, "shared", s)

	// AdoptTail must not create a second identity for a string that
	// already exists in the literal prefix.
	require.Equal(t, litID, sp.knownStrings["shared"])
}

func TestStringPoolResetIDsAndWriteTail(t *testing.T) {
	sp := NewStringPool()
	sp.AddLiteral("one")
	sp.AddLiteral("two")
	sp.ResetIDs()

	require.Empty(t, sp.WriteTail())

	id := sp.InternForWrite("three")
	require.Equal(t, int32(3), id)
	again := sp.InternForWrite("three")
	require.Equal(t, id, again)

	require.Equal(t, []string{"three"}, sp.WriteTail())

	// Re-interning a literal during write must return its stable ordinal,
	// not a fresh tail slot.
	require.Equal(t, int32(1), sp.InternForWrite("one"))
}
