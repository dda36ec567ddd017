// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func pointSchema() *Schema {
	return &Schema{
		Classes: []ClassDef{
			{
				Name: "Point",
				Fields: []FieldDef{
					{Name: "x", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
					{Name: "y", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
				},
			},
		},
	}
}

func fieldByName(p *Pool, name string) Field {
	for _, f := range p.Fields() {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func TestOpenCreatesEmptyGraphWhenPathMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ogss")
	f, err := Open(path, pointSchema(), nil)
	require.NoError(t, err)
	defer f.Close()

	pool, ok := f.Pool("Point")
	require.True(t, ok)
	require.Equal(t, int32(0), pool.StaticDataInstances())
}

func TestSingleClassTwoFieldsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.ogss")

	f, err := Open(path, pointSchema(), nil)
	require.NoError(t, err)

	pool, ok := f.Pool("Point")
	require.True(t, ok)
	xField := fieldByName(pool, "x").(*DataField)
	yField := fieldByName(pool, "y").(*DataField)

	o1 := pool.New()
	require.NoError(t, xField.Set(o1, BoxFromI32(1)))
	require.NoError(t, yField.Set(o1, BoxFromI32(2)))

	o2 := pool.New()
	require.NoError(t, xField.Set(o2, BoxFromI32(30)))
	require.NoError(t, yField.Set(o2, BoxFromI32(40)))

	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	reopened, err := Open(path, pointSchema(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	pool2, ok := reopened.Pool("Point")
	require.True(t, ok)
	require.Equal(t, int32(2), pool2.StaticDataInstances())

	xField2 := fieldByName(pool2, "x").(*DataField)
	yField2 := fieldByName(pool2, "y").(*DataField)

	objs := pool2.AllObjects()
	require.Len(t, objs, 2)

	var xs, ys []int32
	for _, o := range objs {
		xv, err := xField2.Get(o)
		require.NoError(t, err)
		yv, err := yField2.Get(o)
		require.NoError(t, err)
		xs = append(xs, xv.I32())
		ys = append(ys, yv.I32())
	}
	require.ElementsMatch(t, []int32{1, 30}, xs)
	require.ElementsMatch(t, []int32{2, 40}, ys)
}

func TestUnknownFieldSurvivesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.ogss")

	full := &Schema{Classes: []ClassDef{{
		Name: "Point",
		Fields: []FieldDef{
			{Name: "x", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
			{Name: "y", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
			{Name: "z", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
		},
	}}}
	f, err := Open(path, full, nil)
	require.NoError(t, err)

	pool, _ := f.Pool("Point")
	x := fieldByName(pool, "x").(*DataField)
	y := fieldByName(pool, "y").(*DataField)
	z := fieldByName(pool, "z").(*DataField)
	o := pool.New()
	require.NoError(t, x.Set(o, BoxFromI32(7)))
	require.NoError(t, y.Set(o, BoxFromI32(8)))
	require.NoError(t, z.Set(o, BoxFromI32(9)))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	// A binding that only knows about x/y must still report z as an
	// anomaly, not lose the object or fail to open.
	partial := pointSchema()
	reopened, err := Open(path, partial, nil)
	require.NoError(t, err)
	defer reopened.Close()

	require.NotEmpty(t, reopened.Anomalies())

	pool2, _ := reopened.Pool("Point")
	objs := pool2.AllObjects()
	require.Len(t, objs, 1)
}

func TestFlushOnReadOnlyFileIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.ogss")
	f, err := Open(path, pointSchema(), nil)
	require.NoError(t, err)
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	reopened, err := Open(path, pointSchema(), &Options{Mode: ModeReadOnly})
	require.NoError(t, err)
	defer reopened.Close()

	err = reopened.Flush()
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestFreeTombstonesObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "free.ogss")
	f, err := Open(path, pointSchema(), nil)
	require.NoError(t, err)
	defer f.Close()

	pool, _ := f.Pool("Point")
	o := pool.New()
	require.True(t, f.Contains(o))
	f.Free(o)
	require.True(t, o.Deleted())
	require.False(t, f.Contains(o))
}
