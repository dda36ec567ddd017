// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "fmt"

// unknownType is the FieldType placeholder installed in the file-TID
// table (fdts) for any class, container, or enum the file declares that
// has no compile-time counterpart. Its data is never individually
// decoded by this runtime: a field whose declared type is unknownType
// becomes a LazyField, carrying the raw HD bytes opaquely until the next
// write reproduces them verbatim.
type unknownType struct {
	tid  TypeID
	name string
}

func (u unknownType) TypeID() TypeID { return u.tid }
func (u unknownType) Name() string   { return u.name }

// fileClassRec is one T_class entry as read from the file, before it has
// been matched against (or allocated as an unknown sibling of) a known
// pool.
type fileClassRec struct {
	name             string
	staticInstances  int32
	superID          int32 // 0 = none, else 1-based index into fdts' class section
	bpo              int32
	fieldCount       int32
	pool             *Pool // resolved known or unknown pool
	known            bool
}

type fileFieldDesc struct {
	name string
	typ  FieldType
	tid  TypeID
}

// parseState is the parser's entry point: builds the known type graph
// from schema exactly as createState does, then merges it against the
// file's guard/S/T/F blocks, returning a stateInitializer ready for HD
// processing.
func parseState(path string, in *InStream, schema *Schema, opts *Options) (*stateInitializer, []string, error) {
	si := newStateInitializer(path, in, schema)
	var anomalies []string

	if _, err := readGuard(in); err != nil {
		return nil, nil, err
	}

	if err := parseStringLiterals(in, si); err != nil {
		return nil, nil, err
	}

	// The known type graph (pools/containers/enums with no fields yet) is
	// identical in shape to the Creator's, since both start from the same
	// compile-time Schema.
	if err := createClasses(si, schema); err != nil {
		return nil, nil, err
	}
	if err := createContainers(si, schema); err != nil {
		return nil, nil, err
	}
	if err := createEnums(si, schema); err != nil {
		return nil, nil, err
	}

	fdts := seedFDTS(si)

	classRecs, err := parseClassBlock(in, si, &fdts)
	if err != nil {
		return nil, nil, err
	}

	if err := parseContainerBlock(in, si, schema, &fdts); err != nil {
		return nil, nil, err
	}
	if err := parseEnumBlock(in, si, schema, &fdts, &anomalies); err != nil {
		return nil, nil, err
	}

	if err := parseFieldBlockAndMerge(in, si, classRecs, fdts, &anomalies); err != nil {
		return nil, nil, err
	}

	si.fixContainerMaxDeps()

	if err := allocateInstances(classRecs); err != nil {
		return nil, nil, err
	}

	index := buildFieldIndex(si, classRecs)
	var unknownBlocks []rawBlock
	if int64(in.Len()) >= opts.SeqParserLimit {
		unknownBlocks, err = parseHDBlocksParallel(in, si, index, opts.ThreadPoolSize)
	} else {
		unknownBlocks, err = parseHDBlocks(in, si, index)
	}
	if err != nil {
		return nil, nil, err
	}
	for _, b := range unknownBlocks {
		anomalies = append(anomalies, fmt.Sprintf("unattributed HD block for field id %d (%d bytes)", b.fieldID, len(b.payload)))
	}
	si.unknownBlocks = unknownBlocks

	for _, a := range anomalies {
		opts.Logger.Warnf("ogss: %s", a)
	}
	return si, anomalies, nil
}

func parseStringLiterals(in *InStream, si *stateInitializer) error {
	count, err := in.V64()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		length, err := in.V64()
		if err != nil {
			return err
		}
		raw, err := in.Bytes(int(length))
		if err != nil {
			return err
		}
		si.strings.AddLiteral(string(raw))
	}
	return nil
}

// seedFDTS builds the file-TID table's fixed prefix (the 10 built-in
// slots, shared verbatim between file and known numbering since the
// fixed type-ID table never varies).
func seedFDTS(si *stateInitializer) []FieldType {
	fdts := make([]FieldType, firstUserTypeID)
	copy(fdts, si.sifa[:firstUserTypeID])
	return fdts
}

// parseClassBlock reads T_class, resolving each entry against a known
// pool by name or allocating an unknown sub-pool of its file-declared
// super.
func parseClassBlock(in *InStream, si *stateInitializer, fdts *[]FieldType) ([]*fileClassRec, error) {
	count, err := in.V64()
	if err != nil {
		return nil, err
	}
	recs := make([]*fileClassRec, 0, count)
	for i := uint64(0); i < count; i++ {
		nameID, err := in.V64()
		if err != nil {
			return nil, err
		}
		staticInstances, err := in.V64()
		if err != nil {
			return nil, err
		}
		if _, err := in.I8(); err != nil { // attrCount, always 0
			return nil, err
		}
		superID, err := in.V64()
		if err != nil {
			return nil, err
		}
		var bpo uint64
		if superID != 0 {
			if bpo, err = in.V64(); err != nil {
				return nil, err
			}
		}
		fieldCount, err := in.V64()
		if err != nil {
			return nil, err
		}
		name, err := si.strings.ByOrdinal(int32(nameID))
		if err != nil {
			return nil, err
		}

		rec := &fileClassRec{
			name:            name,
			staticInstances: int32(staticInstances),
			superID:         int32(superID),
			bpo:             int32(bpo),
			fieldCount:      int32(fieldCount),
		}

		if known, ok := si.byClassName[name]; ok {
			rec.known = true
			rec.pool = known
			known.cachedSize = rec.staticInstances
		} else {
			var super *Pool
			if rec.superID != 0 {
				if int(rec.superID) > len(recs) {
					return nil, fmt.Errorf("%w: class %q super index out of range", ErrBadSuperReference, name)
				}
				super = recs[rec.superID-1].pool
			}
			syntheticTID := TypeID(int(firstUserTypeID) + len(recs))
			if super != nil {
				rec.pool = NewSubPool(name, syntheticTID, super)
			} else {
				rec.pool = NewBasePool(name, syntheticTID)
			}
			rec.pool.cachedSize = rec.staticInstances
		}
		recs = append(recs, rec)
		*fdts = append(*fdts, classFieldType{rec.pool})
	}

	// Duplicate type names are a format-level fatality.
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if seen[r.name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTypeName, r.name)
		}
		seen[r.name] = true
	}
	return recs, nil
}

// parseContainerBlock reads T_container, matching the file's container
// declarations to known containers by position and kind, and installing
// an unknownType placeholder for any file container without a known
// counterpart. The base types only have to resolve in the file's type
// table; they are not compared with the known container's bases, and
// the block's UCC order is not checked.
func parseContainerBlock(in *InStream, si *stateInitializer, schema *Schema, fdts *[]FieldType) error {
	count, err := in.V64()
	if err != nil {
		return err
	}
	knownIdx := 0
	for i := uint64(0); i < count; i++ {
		kindByte, err := in.I8()
		if err != nil {
			return err
		}
		kind := ContainerKind(kindByte)
		base1TID, err := in.V64()
		if err != nil {
			return err
		}
		var base2TID uint64
		if kind == ContainerMap {
			if base2TID, err = in.V64(); err != nil {
				return err
			}
		}
		_, ok1 := fdtsLookup(*fdts, TypeID(base1TID))
		_, ok2 := fdtsLookup(*fdts, TypeID(base2TID))
		if kind != ContainerMap {
			ok2 = true
		}

		matched := false
		if ok1 && ok2 && knownIdx < len(si.containers) {
			kc := si.containers[knownIdx]
			if kc.Kind() == kind {
				matched = true
			}
		}
		if matched {
			kc := si.containers[knownIdx]
			*fdts = append(*fdts, kc)
			knownIdx++
		} else {
			*fdts = append(*fdts, unknownType{tid: TypeID(int(firstUserTypeID) + len(schema.Classes) + int(i)), name: fmt.Sprintf("container#%d", i)})
		}
	}
	return nil
}

func fdtsLookup(fdts []FieldType, tid TypeID) (FieldType, bool) {
	if int(tid) < 0 || int(tid) >= len(fdts) {
		return nil, false
	}
	return fdts[tid], true
}

// parseEnumBlock reads T_enum, matching by canonical name and recording
// an unknownType placeholder for any file-only enum.
func parseEnumBlock(in *InStream, si *stateInitializer, schema *Schema, fdts *[]FieldType, anomalies *[]string) error {
	count, err := in.V64()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		nameID, err := in.V64()
		if err != nil {
			return err
		}
		valueCount, err := in.V64()
		if err != nil {
			return err
		}
		for j := uint64(0); j < valueCount; j++ {
			if _, err := in.V64(); err != nil { // value name IDs, not otherwise used once matched by enum name
				return err
			}
		}
		name, err := si.strings.ByOrdinal(int32(nameID))
		if err != nil {
			return err
		}
		if known, ok := si.byEnumName[name]; ok {
			*fdts = append(*fdts, known)
		} else {
			*anomalies = append(*anomalies, fmt.Sprintf("unknown enum %q", name))
			*fdts = append(*fdts, unknownType{tid: TypeID(int(firstUserTypeID) + len(schema.Classes) + len(schema.Containers) + int(i)), name: name})
		}
	}
	return nil
}

// parseFieldBlockAndMerge reads F (per matched-or-unknown class, its own
// fieldCount descriptors) and performs the field merge against each
// known pool's declared field list.
func parseFieldBlockAndMerge(in *InStream, si *stateInitializer, recs []*fileClassRec, fdts []FieldType, anomalies *[]string) error {
	for _, rec := range recs {
		descs := make([]fileFieldDesc, 0, rec.fieldCount)
		for i := int32(0); i < rec.fieldCount; i++ {
			nameID, err := in.V64()
			if err != nil {
				return err
			}
			typeID, err := in.V64()
			if err != nil {
				return err
			}
			if _, err := in.I8(); err != nil { // attrCount, always 0
				return err
			}
			name, err := si.strings.ByOrdinal(int32(nameID))
			if err != nil {
				return err
			}
			ft, ok := fdtsLookup(fdts, TypeID(typeID))
			if !ok {
				ft = unknownType{tid: TypeID(typeID), name: name}
			}
			descs = append(descs, fileFieldDesc{name: name, typ: ft, tid: TypeID(typeID)})
		}

		if err := mergeClassFields(si, rec, descs, anomalies); err != nil {
			return err
		}
	}
	return nil
}

func mergeClassFields(si *stateInitializer, rec *fileClassRec, descs []fileFieldDesc, anomalies *[]string) error {
	classDef := si.classDefOf[rec.pool]
	var knownFields []FieldDef
	if classDef != nil {
		knownFields = classDef.Fields
	}
	knownIdx := 0

	claimKnown := func(fd FieldDef) error {
		ft, err := si.resolve(fd.Type)
		if err != nil {
			return err
		}
		df := NewDataField(rec.pool, fd.Name, ft, si.nextFieldID)
		si.nextFieldID++
		for _, r := range fd.Restrictions {
			df.AddRestriction(r)
		}
		if h, ok := ft.(HullType); ok {
			h.AddMaxDeps(1)
		}
		rec.pool.AddField(df)
		return nil
	}

	for _, desc := range descs {
		for knownIdx < len(knownFields) && knownFields[knownIdx].Name < desc.name {
			if err := claimKnown(knownFields[knownIdx]); err != nil {
				return err
			}
			knownIdx++
		}
		if knownIdx < len(knownFields) && knownFields[knownIdx].Name == desc.name {
			fd := knownFields[knownIdx]
			ft, err := si.resolve(fd.Type)
			if err != nil {
				return err
			}
			if _, unknown := desc.typ.(unknownType); !unknown && desc.typ != ft {
				// File and known TID numbering diverge whenever unknown
				// types are interleaved, so the only trustworthy
				// cross-check is whether the file's resolved FieldType
				// (via fdts) is the exact same object the known field
				// declares, not a raw numeric TID comparison.
				return fmt.Errorf("%w: field %q of %q", ErrTypeMismatch, desc.name, rec.name)
			}
			if err := claimKnown(fd); err != nil {
				return err
			}
			knownIdx++
			continue
		}
		// File-only field: becomes a LazyField carrying the file's type
		// opaquely. Its HD payload is decoded (or kept raw, for an
		// unknown type) when the HD scan reaches its record.
		lf := NewLazyField(rec.pool, desc.name, desc.typ, si.nextFieldID)
		si.nextFieldID++
		rec.pool.AddField(lf)
		*anomalies = append(*anomalies, fmt.Sprintf("unknown field %q on %q", desc.name, rec.name))
	}

	for ; knownIdx < len(knownFields); knownIdx++ {
		if err := claimKnown(knownFields[knownIdx]); err != nil {
			return err
		}
	}

	if classDef != nil {
		for _, afd := range classDef.AutoFields {
			for _, desc := range descs {
				if desc.name == afd.Name {
					return fmt.Errorf("%w: field %q of %q", ErrFieldShadowed, afd.Name, rec.name)
				}
			}
			ft, err := si.resolve(afd.Type)
			if err != nil {
				return err
			}
			rec.pool.AddAutoField(NewAutoField(rec.pool, afd.Name, ft, afd.Compute))
		}
	}
	return nil
}

// allocateInstances gives every base pool a single book-allocated run
// sized to its whole subtree's static instance count, then slices each
// pool's own view out of it at its file-declared bpo, filling
// data[bpo..bpo+staticDataInstances) with fresh Book-allocated objects
// whose id becomes their slot index+1. Root pools always have bpo 0;
// sub-pools use the bpo the file itself declared for them.
func allocateInstances(recs []*fileClassRec) error {
	for _, rec := range recs {
		rec.pool.bpo = rec.bpo
	}
	bases := make(map[*Pool][]*fileClassRec)
	for _, rec := range recs {
		b := rec.pool.base
		bases[b] = append(bases[b], rec)
	}
	for base, members := range bases {
		total := int32(0)
		for _, m := range members {
			if end := m.bpo + m.pool.cachedSize; end > total {
				total = end
			}
		}
		objs := base.book.AllocateRun(int(total))
		for i, o := range objs {
			o.id = int32(i) + 1
		}
		base.data = objs
		for _, m := range members {
			p := m.pool
			p.data = base.data[p.bpo : p.bpo+p.cachedSize]
			for _, o := range p.data {
				o.pool = p
			}
		}
	}
	return nil
}
