// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// Generated per-schema bindings would normally know each field's Go type
// at compile time and read/write it directly. Since this runtime has no
// generated classes, every field value instead flows through Box, boxed
// and unboxed by the type's own TypeID/FieldType here — one generic
// codec standing in for N generated ones.

// readBoxValue decodes one value of field type ft from in.
func readBoxValue(in *InStream, ft FieldType, si *stateInitializer) (Box, error) {
	switch t := ft.(type) {
	case *BuiltinType:
		return readBuiltinBox(in, t.TypeID())
	case *AnyRefType:
		return readAnyRefBox(in, si)
	case *StringPool:
		id, err := in.V64()
		if err != nil {
			return NoneBox, err
		}
		if id == 0 {
			return NoneBox, nil
		}
		s, err := t.ByOrdinal(int32(id))
		if err != nil {
			return NoneBox, err
		}
		return BoxFromString(&s), nil
	case classFieldType:
		id, err := in.V64()
		if err != nil {
			return NoneBox, err
		}
		if id == 0 {
			return NoneBox, nil
		}
		o, err := t.p.base.Get(int32(id))
		if err != nil {
			return NoneBox, err
		}
		return BoxFromRef(o), nil
	case *ContainerType:
		id, err := in.V64()
		if err != nil {
			return NoneBox, err
		}
		if id == 0 {
			return NoneBox, nil
		}
		return BoxFromContainer(t.ByOrdinal(int32(id))), nil
	case *EnumPool:
		id, err := in.V64()
		if err != nil {
			return NoneBox, err
		}
		return BoxFromEnum(t.ByOrdinal(int32(id))), nil
	default:
		return NoneBox, ErrTypeMismatch
	}
}

func readBuiltinBox(in *InStream, id TypeID) (Box, error) {
	switch id {
	case TypeBool:
		v, err := in.Bool()
		return BoxFromBool(v), err
	case TypeI8:
		v, err := in.I8()
		return BoxFromI8(v), err
	case TypeI16:
		v, err := in.I16()
		return BoxFromI16(v), err
	case TypeI32:
		v, err := in.I32()
		return BoxFromI32(v), err
	case TypeI64:
		v, err := in.I64()
		return BoxFromI64(v), err
	case TypeV64:
		v, err := in.V64()
		return BoxFromV64(int64(v)), err
	case TypeF32:
		v, err := in.F32()
		return BoxFromF32(v), err
	case TypeF64:
		v, err := in.F64()
		return BoxFromF64(v), err
	default:
		return NoneBox, ErrTypeMismatch
	}
}

// readAnyRefBox decodes an any-ref value: a v32 SIFA slot identifying the
// referenced object's pool, followed by its v64 object ID (0 for null).
func readAnyRefBox(in *InStream, si *stateInitializer) (Box, error) {
	slot, err := in.V32()
	if err != nil {
		return NoneBox, err
	}
	if slot == 0 {
		return NoneBox, nil
	}
	id, err := in.V64()
	if err != nil {
		return NoneBox, err
	}
	if id == 0 || int(slot) >= len(si.sifa) {
		return NoneBox, nil
	}
	cft, ok := si.sifa[slot].(classFieldType)
	if !ok {
		return NoneBox, ErrTypeMismatch
	}
	o, err := cft.p.base.Get(int32(id))
	if err != nil {
		return NoneBox, err
	}
	return BoxFromRef(o), nil
}

// writeBoxValue encodes v, a value of field type ft, onto out.
func writeBoxValue(out *BufferedOutStream, ft FieldType, v Box, si *stateInitializer) {
	switch t := ft.(type) {
	case *BuiltinType:
		writeBuiltinBox(out, t.TypeID(), v)
	case *AnyRefType:
		writeAnyRefBox(out, v, si)
	case *StringPool:
		if v.Kind != BoxString || v.Str() == nil {
			out.V64(0)
			return
		}
		out.V64(uint64(t.InternForWrite(*v.Str())))
	case classFieldType:
		if v.Kind != BoxRef || v.Ref() == nil {
			out.V64(0)
			return
		}
		out.V64(uint64(v.Ref().ID()))
	case *ContainerType:
		if v.Kind != BoxContainer || v.Container() == nil {
			out.V64(0)
			return
		}
		out.V64(uint64(t.Intern(v.Container())))
	case *EnumPool:
		if v.Kind != BoxEnum || v.Enum() == nil {
			out.V64(0)
			return
		}
		out.V64(uint64(v.Enum().ID))
	}
}

func writeBuiltinBox(out *BufferedOutStream, id TypeID, v Box) {
	switch id {
	case TypeBool:
		out.Bool(v.Bool())
	case TypeI8:
		out.I8(v.I8())
	case TypeI16:
		out.I16(v.I16())
	case TypeI32:
		out.I32(v.I32())
	case TypeI64:
		out.I64(v.I64())
	case TypeV64:
		out.V64(uint64(v.V64()))
	case TypeF32:
		out.F32(v.F32())
	case TypeF64:
		out.F64(v.F64())
	}
}

func writeAnyRefBox(out *BufferedOutStream, v Box, si *stateInitializer) {
	if v.Kind != BoxRef || v.Ref() == nil {
		out.V32(0)
		return
	}
	o := v.Ref()
	slot := sifaIndexOf(si, classFieldType{o.Pool().base})
	out.V32(uint32(slot))
	out.V64(uint64(o.ID()))
}
