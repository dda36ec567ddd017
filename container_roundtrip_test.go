// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func bagSchema() *Schema {
	return &Schema{
		Containers: []ContainerDef{
			{Kind: ContainerArray, Base1: TypeRef{Builtin: TypeString, IsBuiltin: true}},
		},
		Classes: []ClassDef{{
			Name: "Bag",
			Fields: []FieldDef{
				{Name: "tags", Type: TypeRef{ContainerIndex: 0}},
			},
		}},
	}
}

func TestContainerFieldRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bag.ogss")

	f, err := Open(path, bagSchema(), nil)
	require.NoError(t, err)

	pool, ok := f.Pool("Bag")
	require.True(t, ok)
	tags := fieldByName(pool, "tags").(*DataField)

	o := pool.New()
	s1, s2 := "alpha", "beta"
	cv := &ContainerValue{Kind: ContainerArray, Elements: []Box{BoxFromString(&s1), BoxFromString(&s2)}}
	require.NoError(t, tags.Set(o, BoxFromContainer(cv)))

	empty := pool.New()
	require.NoError(t, tags.Set(empty, NoneBox))

	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	reopened, err := Open(path, bagSchema(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	pool2, _ := reopened.Pool("Bag")
	objs := pool2.AllObjects()
	require.Len(t, objs, 2)

	tags2 := fieldByName(pool2, "tags").(*DataField)
	var nonEmptyFound bool
	for _, o := range objs {
		v, err := tags2.Get(o)
		require.NoError(t, err)
		if v.Kind == BoxNone {
			continue
		}
		nonEmptyFound = true
		cv2 := v.Container()
		require.NotNil(t, cv2)
		require.Equal(t, ContainerArray, cv2.Kind)
		require.Len(t, cv2.Elements, 2)
		require.Equal(t, "alpha", *cv2.Elements[0].Str())
		require.Equal(t, "beta", *cv2.Elements[1].Str())
	}
	require.True(t, nonEmptyFound)
}
