// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import (
	"context"
	"os"
)

// writeState performs the whole Flush pipeline against si, writing to
// path: compress every base pool's storage, then emit guard/S/T/F/HD in
// that order. Unknown whole classes/containers/enums a prior parse could
// not match to the schema are not re-emitted (see DESIGN.md); unknown
// fields on a known class and unattributed HD blocks are, via
// LazyField.Raw and si.unknownBlocks.
func writeState(si *stateInitializer, path string) error {
	for _, root := range si.classes {
		if root.base != root {
			continue // only walk from each base pool once
		}
		compress(root)
	}

	// T and F are parsed before the HD string tail, so every type, field
	// and enum name is made a literal before the id map is seeded.
	for _, p := range si.classes {
		si.strings.AddLiteral(p.Name())
		for _, f := range p.Fields() {
			si.strings.AddLiteral(f.Name())
		}
	}
	for _, ep := range si.enums {
		si.strings.AddLiteral(ep.Name())
		for _, v := range ep.Values() {
			si.strings.AddLiteral(v.Name)
		}
	}
	si.strings.ResetIDs()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	fo := NewFileOutputStream(f)
	defer fo.Close()

	if err := writeGuardSection(fo); err != nil {
		return err
	}
	if err := writeLiterals(fo, si); err != nil {
		return err
	}
	if err := writeClassBlock(fo, si); err != nil {
		return err
	}
	if err := writeContainerBlock(fo, si); err != nil {
		return err
	}
	if err := writeEnumBlock(fo, si); err != nil {
		return err
	}
	if err := writeFieldBlock(fo, si); err != nil {
		return err
	}
	return writeHDBlocks(fo, si)
}

func writeGuardSection(fo *FileOutputStream) error {
	bos := NewBufferedOutStream()
	writeGuard(bos, "")
	bos.Close()
	return fo.Write(bos)
}

func writeLiterals(fo *FileOutputStream, si *stateInitializer) error {
	bos := NewBufferedOutStream()
	lits := si.strings.Literals()
	bos.V64(uint64(len(lits)))
	for _, s := range lits {
		bos.V64(uint64(len(s)))
		bos.Put([]byte(s))
	}
	bos.Close()
	return fo.Write(bos)
}

// compress rebuilds base's whole persistent object array: tombstoned
// objects are dropped (their book slots reclaimed) and every pool's
// newObjects are absorbed into the persistent array, then every pool's
// bpo/cachedSize and every surviving object's id are reassigned. Field
// columns are remapped per pool, before any pool's bpo changes, since a
// pool's own column addressing depends only on its own objects'
// relative order, never on a sibling or ancestor pool's bpo.
func compress(base *Pool) {
	pools := base.Subtree()
	survivors := make(map[*Pool][]*Object, len(pools))

	for _, p := range pools {
		var live []*Object
		for _, o := range p.data {
			if o == nil || o.Deleted() {
				if o != nil {
					base.book.Free(o)
				}
				continue
			}
			live = append(live, o)
		}
		for _, o := range p.newObjects {
			if o == nil || o.Deleted() {
				if o != nil {
					base.book.Free(o)
				}
				continue
			}
			live = append(live, o)
		}
		remapColumns(p, live)
		p.newObjects = nil
		p.cachedSize = int32(len(live))
		survivors[p] = live
	}

	total := 0
	for _, live := range survivors {
		total += len(live)
	}
	base.data = make([]*Object, 0, total)
	var bpo int32
	for _, p := range pools {
		live := survivors[p]
		p.bpo = bpo
		start := len(base.data)
		base.data = append(base.data, live...)
		p.data = base.data[start : start+len(live)]
		for i, o := range p.data {
			o.pool = p
			o.id = p.bpo + int32(i) + 1
		}
		bpo += int32(len(live))
	}
}

// remapColumns rebuilds every field's column data for p in live's order,
// reading each surviving object's current value (by whichever array its
// still-unmodified id/bpo addresses) before compress reassigns ids.
func remapColumns(p *Pool, live []*Object) {
	for _, f := range p.fields {
		ch, ok := f.(columnHolder)
		if !ok {
			continue
		}
		col := ch.columnPtr()
		newData := make([]Box, len(live))
		for i, o := range live {
			newData[i] = columnValueBeforeCompress(col, o)
		}
		col.data = newData
		col.newData = nil
	}
}

// columnValueBeforeCompress reads o's value directly from col's backing
// arrays without locking: compress runs single-threaded ahead of any
// concurrent write stage, so col.get's own locking would just be
// overhead.
func columnValueBeforeCompress(col *column, o *Object) Box {
	if o.id > 0 {
		idx := int(o.id) - 1 - int(o.pool.bpo)
		if idx < 0 || idx >= len(col.data) {
			return NoneBox
		}
		return col.data[idx]
	}
	if o.id < 0 {
		idx := -1 - int(o.id)
		if idx < 0 || idx >= len(col.newData) {
			return NoneBox
		}
		return col.newData[idx]
	}
	return NoneBox
}

// poolIndex returns p's 1-based position in si.classes, 0 if p is nil.
func poolIndex(si *stateInitializer, p *Pool) int32 {
	if p == nil {
		return 0
	}
	for i, c := range si.classes {
		if c == p {
			return int32(i) + 1
		}
	}
	return 0
}

func writeClassBlock(fo *FileOutputStream, si *stateInitializer) error {
	bos := NewBufferedOutStream()
	bos.V64(uint64(len(si.classes)))
	for _, p := range si.classes {
		bos.V64(uint64(si.strings.InternForWrite(p.Name())))
		bos.V64(uint64(p.StaticDataInstances()))
		bos.I8(0) // attrCount
		superID := poolIndex(si, p.Super())
		bos.V64(uint64(superID))
		if superID != 0 {
			bos.V64(uint64(p.BPO()))
		}
		bos.V64(uint64(len(p.Fields())))
	}
	bos.Close()
	return fo.Write(bos)
}

func writeContainerBlock(fo *FileOutputStream, si *stateInitializer) error {
	bos := NewBufferedOutStream()
	bos.V64(uint64(len(si.containers)))
	for _, ct := range si.containers {
		bos.I8(int8(ct.Kind()))
		bos.V64(uint64(ct.Base1().TypeID()))
		if ct.Kind() == ContainerMap {
			bos.V64(uint64(ct.Base2().TypeID()))
		}
	}
	bos.Close()
	return fo.Write(bos)
}

func writeEnumBlock(fo *FileOutputStream, si *stateInitializer) error {
	bos := NewBufferedOutStream()
	bos.V64(uint64(len(si.enums)))
	for _, ep := range si.enums {
		bos.V64(uint64(si.strings.InternForWrite(ep.Name())))
		values := ep.Values()
		bos.V64(uint64(len(values)))
		for _, v := range values {
			bos.V64(uint64(si.strings.InternForWrite(v.Name)))
		}
	}
	bos.Close()
	return fo.Write(bos)
}

func writeFieldBlock(fo *FileOutputStream, si *stateInitializer) error {
	bos := NewBufferedOutStream()
	for _, p := range si.classes {
		for _, f := range p.Fields() {
			bos.V64(uint64(si.strings.InternForWrite(f.Name())))
			bos.V64(uint64(f.Type().TypeID()))
			bos.I8(0) // attrCount
		}
	}
	bos.Close()
	return fo.Write(bos)
}

// writeHDBlocks emits every container hull, the data/lazy fields of every
// pool that has objects (a field of an empty pool gets no record), and
// finally the string hull's non-literal tail — the repeated
// sized records parseHDBlocks reads back. Container and field records
// are built concurrently, one BufferedOutStream per record, but the
// string tail depends on every one of them: writing a container element
// or a string-typed field value can still call StringPool.InternForWrite
// or ContainerType.Intern, growing the very tables WriteTail snapshots.
// So the string-tail record is built only after the concurrent fan-out
// for every other record has returned, and is appended to the stream
// last, after the containers/columns that feed it, matching the
// dependency order containers/fields -> string pool.
func writeHDBlocks(fo *FileOutputStream, si *stateInitializer) error {
	type record struct {
		fieldID int32
		bos     *BufferedOutStream
	}
	records := make([]*record, 0)

	for _, ct := range si.containers {
		if ct.FieldID() > 0 {
			records = append(records, &record{fieldID: ct.FieldID()})
		}
	}
	for _, p := range si.classes {
		for _, f := range p.Fields() {
			if f.ID() > 0 && p.cachedSize > 0 {
				records = append(records, &record{fieldID: f.ID()})
			}
		}
	}
	for _, b := range si.unknownBlocks {
		records = append(records, &record{fieldID: b.fieldID})
	}

	tasks := make([]func(context.Context) error, len(records))
	errs := make([]error, len(records))
	for i, rec := range records {
		i, rec := i, rec
		tasks[i] = func(context.Context) error {
			bos, err := buildHDRecord(si, rec.fieldID)
			if err != nil {
				errs[i] = err
				return nil
			}
			rec.bos = bos
			return nil
		}
	}
	if err := runAll(context.Background(), tasks); err != nil {
		return err
	}
	if err := newWriteError(errs); err != nil {
		return err
	}

	stringBos, err := buildHDRecord(si, 0)
	if err != nil {
		return err
	}
	records = append(records, &record{fieldID: 0, bos: stringBos})

	for _, rec := range records {
		if err := fo.WriteSized(rec.bos); err != nil {
			return err
		}
	}
	return nil
}

// buildHDRecord builds one whole HD record for fieldID: the field id
// itself (V32, as parseHDBlocks expects to read first) followed by its
// payload, looked up fresh (rather than carried as a closure capture) so
// each task only needs the shared, read-only si and its own field ID.
// WriteSized's "-2" accounting covers this id plus the payload together,
// matching outstream.go's existing convention.
func buildHDRecord(si *stateInitializer, fieldID int32) (*BufferedOutStream, error) {
	bos := NewBufferedOutStream()
	bos.V32(uint32(fieldID))
	if fieldID == 0 {
		writeStringTail(bos, si.strings)
		bos.Close()
		return bos, nil
	}
	for _, ct := range si.containers {
		if ct.FieldID() == fieldID {
			writeContainerHull(bos, ct, si)
			bos.Close()
			return bos, nil
		}
	}
	for _, p := range si.classes {
		for _, f := range p.Fields() {
			if f.ID() != fieldID {
				continue
			}
			if lf, ok := f.(*LazyField); ok {
				if raw := lf.Raw(); raw != nil {
					bos.Put(raw)
					bos.Close()
					return bos, nil
				}
			}
			writeFieldColumn(bos, p, f, si)
			bos.Close()
			return bos, nil
		}
	}
	for _, b := range si.unknownBlocks {
		if b.fieldID == fieldID {
			bos.Put(b.payload)
			bos.Close()
			return bos, nil
		}
	}
	bos.Close()
	return bos, nil
}

func writeStringTail(bos *BufferedOutStream, sp *StringPool) {
	tail := sp.WriteTail()
	bos.V64(uint64(len(tail)))
	for _, s := range tail {
		bos.V64(uint64(len(s)))
	}
	for _, s := range tail {
		bos.Put([]byte(s))
	}
}

func writeContainerHull(bos *BufferedOutStream, ct *ContainerType, si *stateInitializer) {
	bos.V64(uint64(ct.Count()))
	for id := int32(1); id <= ct.Count(); id++ {
		cv := ct.ByOrdinal(id)
		if cv == nil {
			bos.V64(0)
			continue
		}
		if ct.Kind() == ContainerMap {
			bos.V64(uint64(len(cv.Entries)))
			for _, e := range cv.Entries {
				writeBoxValue(bos, ct.Base1(), e.Key, si)
				writeBoxValue(bos, ct.Base2(), e.Value, si)
			}
		} else {
			bos.V64(uint64(len(cv.Elements)))
			for _, v := range cv.Elements {
				writeBoxValue(bos, ct.Base1(), v, si)
			}
		}
	}
}

func writeFieldColumn(bos *BufferedOutStream, p *Pool, f Field, si *stateInitializer) {
	for _, o := range p.data {
		v, _ := fieldGet(f, o)
		writeBoxValue(bos, f.Type(), v, si)
	}
}

// fieldGet calls Get through whichever concrete field kind f is, without
// requiring Get on the shared Field interface (AutoField's Get has a
// different purpose — recomputation, not storage — and is never called
// from the write path since auto fields are never written).
func fieldGet(f Field, o *Object) (Box, error) {
	type getter interface {
		Get(o *Object) (Box, error)
	}
	g, ok := f.(getter)
	if !ok {
		return NoneBox, nil
	}
	return g.Get(o)
}
