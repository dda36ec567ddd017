// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBookNextNeverReusesALiveSlot(t *testing.T) {
	b := NewBook()
	seen := make(map[*Object]bool)
	for i := 0; i < bookPageSize*3+5; i++ {
		o := b.Next()
		require.False(t, seen[o], "Next returned an already-live object")
		seen[o] = true
	}
}

func TestBookFreeRecyclesThroughFreelist(t *testing.T) {
	b := NewBook()
	o := b.Next()
	o.id = 7
	b.Free(o)
	require.True(t, o.Deleted())

	o2 := b.Next()
	require.Same(t, o, o2, "Free'd slot should be reused by the next Next()")
	require.True(t, o2.Deleted(), "a freshly served slot starts zeroed")
}

func TestBookAllocateRunFirstPageFastPath(t *testing.T) {
	b := NewBook()
	objs := b.AllocateRun(10)
	require.Len(t, objs, 10)
	require.Len(t, b.pages, 1)
	require.Len(t, b.pages[0].objects, 10)

	for i, o := range objs {
		for j, other := range objs {
			if i != j {
				require.NotSame(t, o, other)
			}
		}
	}
}

func TestBookAllocateRunFallsBackOnceBookHasState(t *testing.T) {
	b := NewBook()
	_ = b.Next()
	objs := b.AllocateRun(5)
	require.Len(t, objs, 5)
}
