// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildHierarchy() (base, mid, leaf *Pool) {
	base = NewBasePool("Base", 10)
	mid = NewSubPool("Mid", 11, base)
	leaf = NewSubPool("Leaf", 12, mid)
	base.SetNext(mid)
	mid.SetNext(leaf)
	return
}

func TestPoolSubtreeStopsAtSiblingBoundary(t *testing.T) {
	base, mid, leaf := buildHierarchy()
	other := NewBasePool("Other", 13)
	leaf.SetNext(other)

	sub := mid.Subtree()
	require.Equal(t, []*Pool{mid, leaf}, sub)

	full := base.Subtree()
	require.Equal(t, []*Pool{base, mid, leaf}, full)
}

func TestResliceSubtreeAssignsContiguousBPOs(t *testing.T) {
	base, mid, leaf := buildHierarchy()
	base.cachedSize = 2
	mid.cachedSize = 3
	leaf.cachedSize = 1
	base.data = make([]*Object, 6)

	resliceSubtree(base)

	require.Equal(t, int32(0), base.bpo)
	require.Equal(t, int32(2), mid.bpo)
	require.Equal(t, int32(5), leaf.bpo)
	require.Len(t, mid.data, 3)
	require.Len(t, leaf.data, 1)
}

func TestTypeHierarchyIteratorWalksPreOrder(t *testing.T) {
	base, mid, leaf := buildHierarchy()
	it := NewTypeHierarchyIterator(base)

	var got []*Pool
	for p := it.Next(); p != nil; p = it.Next() {
		got = append(got, p)
	}
	require.Equal(t, []*Pool{base, mid, leaf}, got)
}

func TestTypeHierarchyIteratorStopsAtSubtreeRootScope(t *testing.T) {
	base, mid, leaf := buildHierarchy()
	other := NewBasePool("Other", 13)
	leaf.SetNext(other)

	it := NewTypeHierarchyIterator(mid)
	var got []*Pool
	for p := it.Next(); p != nil; p = it.Next() {
		got = append(got, p)
	}
	require.Equal(t, []*Pool{mid, leaf}, got)
}

func TestPoolNewAndFreeTrackStaticDataInstances(t *testing.T) {
	base := NewBasePool("Base", 10)
	require.Equal(t, int32(0), base.StaticDataInstances())

	o1 := base.New()
	o2 := base.New()
	require.Equal(t, int32(2), base.StaticDataInstances())

	base.Free(o1)
	require.True(t, o1.Deleted())
	require.Equal(t, int32(2), base.StaticDataInstances(), "Free only tombstones; compress drops the slot")
	_ = o2
}

func TestDynamicDataIteratorCoversPersistentAndNewAcrossSubtypes(t *testing.T) {
	base, mid, _ := buildHierarchy()
	base.cachedSize = 2
	base.data = make([]*Object, 2)
	base.data[0] = &Object{id: 1, pool: base}
	base.data[1] = &Object{id: 2, pool: base}
	mid.cachedSize = 0
	mid.bpo = 2

	midNew := mid.New()

	objs := NewDynamicDataIterator(base).drain()
	require.Len(t, objs, 3)
	require.Contains(t, objs, midNew)
}

func (it *DynamicDataIterator) drain() []*Object {
	var out []*Object
	for o := it.Next(); o != nil; o = it.Next() {
		out = append(out, o)
	}
	return out
}

func TestDynamicDataIteratorSkipsTombstones(t *testing.T) {
	base := NewBasePool("Base", 10)
	o1 := base.New()
	o2 := base.New()
	base.Free(o1)

	objs := base.AllObjects()
	require.Len(t, objs, 1)
	require.Same(t, o2, objs[0])
}
