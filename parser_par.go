// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "context"

// hdTask is one sized HD record located during the sequential scan: its
// field ID, the dispatch target (nil for an unattributed block), and an
// independent InStream view over just its payload bytes.
type hdTask struct {
	fieldID int32
	target  interface{}
	view    *InStream
}

// parseHDBlocksParallel scans the HD record stream exactly as
// parseHDBlocks does — the v64-framed records must be walked in order,
// since each record's length is the only way to find the next one's
// start — but instead of decoding a record's payload inline, it slices
// out an independent view of the payload and defers decoding. Once every
// record has been located, the payloads are decoded concurrently across
// threadPoolSize goroutines, since one field's column has no dependency
// on another's.
func parseHDBlocksParallel(in *InStream, si *stateInitializer, index map[int32]interface{}, threadPoolSize int) ([]rawBlock, error) {
	var tasks []hdTask
	for !in.Eof() {
		sizeMinus2, err := in.V64()
		if err != nil {
			return nil, err
		}
		fieldIDStart := in.Position()
		fieldID, err := in.V32()
		if err != nil {
			return nil, err
		}
		size := int(sizeMinus2) + 2 - (in.Position() - fieldIDStart)
		view, err := in.View(size)
		if err != nil {
			return nil, err
		}
		var target interface{}
		if fieldID != 0 {
			target = index[int32(fieldID)]
		}
		tasks = append(tasks, hdTask{fieldID: int32(fieldID), target: target, view: view})
	}

	results := make([]rawBlock, len(tasks))
	isUnknown := make([]bool, len(tasks))

	jobs := make([]func(context.Context) error, len(tasks))
	for i := range tasks {
		i := i
		jobs[i] = func(context.Context) error {
			t := tasks[i]
			switch {
			case t.fieldID == 0:
				return decodeStringTail(t.view, si.strings)
			case t.target == nil:
				raw, err := t.view.Bytes(t.view.Len())
				if err != nil {
					return err
				}
				results[i] = rawBlock{fieldID: t.fieldID, payload: raw}
				isUnknown[i] = true
				return nil
			default:
				return decodeHDTarget(t.view, t.target, si)
			}
		}
	}

	if err := runAllPooled(jobs, threadPoolSize); err != nil {
		return nil, err
	}

	var unknown []rawBlock
	for i, u := range isUnknown {
		if u {
			unknown = append(unknown, results[i])
		}
	}
	return unknown, nil
}

// decodeHDTarget dispatches a single HD record's payload to the decoder
// matching its target's concrete type, the same switch parseHDBlocks
// runs inline during its own sequential scan.
func decodeHDTarget(in *InStream, target interface{}, si *stateInitializer) error {
	switch t := target.(type) {
	case *ContainerType:
		return decodeContainerHull(in, t, si)
	case *LazyField:
		if _, ok := t.Type().(unknownType); ok {
			raw, err := in.Bytes(in.Len())
			if err != nil {
				return err
			}
			t.SetRaw(raw)
			return nil
		}
		t.SetDecoder(func(*column) error { return nil })
		return decodeFieldColumn(in, t, si)
	case Field:
		return decodeFieldColumn(in, t, si)
	}
	return nil
}

// runAllPooled runs jobs through a ThreadPool sized to threadPoolSize,
// collecting the first error encountered. Unlike runAll's unbounded
// errgroup fan-out, this caps in-flight goroutines to the configured
// pool size, since an HD block stream can carry far more fields than a
// machine has cores.
func runAllPooled(jobs []func(context.Context) error, threadPoolSize int) error {
	if len(jobs) == 0 {
		return nil
	}
	pool := NewThreadPool(threadPoolSize)
	defer pool.Close()

	errCh := make(chan error, len(jobs))
	for _, job := range jobs {
		job := job
		pool.Submit(func() {
			errCh <- job(context.Background())
		})
	}
	pool.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
