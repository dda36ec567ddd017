// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// forceParallelOpts pins SeqParserLimit to 1 byte, so any non-empty HD
// block stream takes the parallel path regardless of file size.
func forceParallelOpts() *Options {
	return &Options{SeqParserLimit: 1, ThreadPoolSize: 4}
}

func TestParallelParserMatchesSequentialParser(t *testing.T) {
	schema := &Schema{Classes: []ClassDef{{
		Name: "Point",
		Fields: []FieldDef{
			{Name: "x", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
			{Name: "y", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
		},
	}}}

	path := filepath.Join(t.TempDir(), "points.ogss")
	f, err := Open(path, schema, nil)
	require.NoError(t, err)

	pool, _ := f.Pool("Point")
	xField := fieldByName(pool, "x").(*DataField)
	yField := fieldByName(pool, "y").(*DataField)
	for i := 0; i < 25; i++ {
		o := pool.New()
		require.NoError(t, xField.Set(o, BoxFromI32(int32(i))))
		require.NoError(t, yField.Set(o, BoxFromI32(int32(i*i))))
	}
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	sequential, err := Open(path, schema, nil)
	require.NoError(t, err)
	defer sequential.Close()

	parallel, err := Open(path, schema, forceParallelOpts())
	require.NoError(t, err)
	defer parallel.Close()

	seqPool, _ := sequential.Pool("Point")
	parPool, _ := parallel.Pool("Point")

	seqObjs := seqPool.AllObjects()
	parObjs := parPool.AllObjects()
	require.Len(t, parObjs, len(seqObjs))
	require.Equal(t, int(seqPool.StaticDataInstances()), int(parPool.StaticDataInstances()))

	seqX := fieldByName(seqPool, "x").(*DataField)
	seqY := fieldByName(seqPool, "y").(*DataField)
	parX := fieldByName(parPool, "x").(*DataField)
	parY := fieldByName(parPool, "y").(*DataField)

	collect := func(objs []*Object, xf, yf *DataField) map[int32]int32 {
		out := make(map[int32]int32, len(objs))
		for _, o := range objs {
			xv, err := xf.Get(o)
			require.NoError(t, err)
			yv, err := yf.Get(o)
			require.NoError(t, err)
			out[xv.I32()] = yv.I32()
		}
		return out
	}

	require.Equal(t, collect(seqObjs, seqX, seqY), collect(parObjs, parX, parY))
}

func TestParallelParserSurfacesUnknownFields(t *testing.T) {
	full := &Schema{Classes: []ClassDef{{
		Name: "Point",
		Fields: []FieldDef{
			{Name: "x", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
			{Name: "y", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
			{Name: "z", Type: TypeRef{Builtin: TypeI32, IsBuiltin: true}},
		},
	}}}
	path := filepath.Join(t.TempDir(), "extra.ogss")
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

	partial := pointSchema()
	reopened, err := Open(path, partial, forceParallelOpts())
	require.NoError(t, err)
	defer reopened.Close()

	require.NotEmpty(t, reopened.Anomalies())
	pool2, _ := reopened.Pool("Point")
	require.Len(t, pool2.AllObjects(), 1)
}
