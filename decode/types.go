package decode

import "github.com/wasmkit/wasmkit/wasm"

// Binary-format leading bytes for composite types and the type-section's
// recursion-group / sub-type wrappers. Representative values for the GC
// proposal's still-shifting encoding; see SPEC_FULL.md.
const (
	formFunc   = 0x60
	formStruct = 0x5F
	formArray  = 0x5E
	formCont   = 0x5D

	formRecGroup  = 0x4E
	formSub       = 0x50
	formSubFinal  = 0x4F
)

func decodeValType(r *Reader) (wasm.ValType, error) {
	b, err := r.Byte()
	if err != nil {
		return 0, err
	}
	vt := wasm.ValType(b)
	switch vt {
	case wasm.ValTypeRef, wasm.ValTypeRefNull:
		// Typed references carry a following heap type; this module's
		// ValType does not retain it (see wasm/types.go), so it is read
		// and discarded here rather than left unconsumed.
		if _, err := r.S64(); err != nil {
			return 0, err
		}
	}
	return vt, nil
}

func decodeValTypeVec(r *Reader) ([]wasm.ValType, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.ValType, n)
	for i := range out {
		out[i], err = decodeValType(r)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeFuncType(r *Reader) (wasm.FuncType, error) {
	params, err := decodeValTypeVec(r)
	if err != nil {
		return wasm.FuncType{}, err
	}
	results, err := decodeValTypeVec(r)
	if err != nil {
		return wasm.FuncType{}, err
	}
	return wasm.FuncType{Params: params, Results: results}, nil
}

func decodeStorageType(r *Reader) (wasm.StorageType, error) {
	b, err := r.Byte()
	if err != nil {
		return wasm.StorageType{}, err
	}
	switch wasm.PackedType(b) {
	case wasm.PackedI8, wasm.PackedI16:
		return wasm.StorageType{Packed: wasm.PackedType(b)}, nil
	}
	r.pos--
	vt, err := decodeValType(r)
	if err != nil {
		return wasm.StorageType{}, err
	}
	return wasm.StorageType{Val: vt}, nil
}

func decodeFieldType(r *Reader) (wasm.FieldType, error) {
	st, err := decodeStorageType(r)
	if err != nil {
		return wasm.FieldType{}, err
	}
	mut, err := r.Byte()
	if err != nil {
		return wasm.FieldType{}, err
	}
	return wasm.FieldType{Storage: st, Mutable: mut != 0}, nil
}

func decodeCompositeType(r *Reader) (wasm.CompositeType, error) {
	b, err := r.Byte()
	if err != nil {
		return wasm.CompositeType{}, err
	}
	switch b {
	case formFunc:
		ft, err := decodeFuncType(r)
		if err != nil {
			return wasm.CompositeType{}, err
		}
		return wasm.CompositeType{Kind: wasm.CompositeFunc, Func: ft}, nil
	case formArray:
		ft, err := decodeFieldType(r)
		if err != nil {
			return wasm.CompositeType{}, err
		}
		return wasm.CompositeType{Kind: wasm.CompositeArray, Array: ft}, nil
	case formStruct:
		n, err := r.U32()
		if err != nil {
			return wasm.CompositeType{}, err
		}
		fields := make([]wasm.FieldType, n)
		for i := range fields {
			fields[i], err = decodeFieldType(r)
			if err != nil {
				return wasm.CompositeType{}, err
			}
		}
		return wasm.CompositeType{Kind: wasm.CompositeStruct, Fields: fields}, nil
	case formCont:
		idx, err := r.U32()
		if err != nil {
			return wasm.CompositeType{}, err
		}
		return wasm.CompositeType{Kind: wasm.CompositeCont, ContTypeIdx: wasm.TypeID(idx)}, nil
	default:
		return wasm.CompositeType{}, errUnknownForm(b)
	}
}

func decodeSubType(r *Reader) (wasm.SubType, error) {
	b, err := r.Byte()
	if err != nil {
		return wasm.SubType{}, err
	}
	switch b {
	case formSub, formSubFinal:
		n, err := r.U32()
		if err != nil {
			return wasm.SubType{}, err
		}
		var super *wasm.TypeID
		for i := uint32(0); i < n; i++ {
			idx, err := r.U32()
			if err != nil {
				return wasm.SubType{}, err
			}
			tid := wasm.TypeID(idx)
			super = &tid // only the last declared supertype is retained
		}
		ct, err := decodeCompositeType(r)
		if err != nil {
			return wasm.SubType{}, err
		}
		return wasm.SubType{IsFinal: b == formSubFinal, Supertype: super, Composite: ct}, nil
	default:
		r.pos--
		ct, err := decodeCompositeType(r)
		if err != nil {
			return wasm.SubType{}, err
		}
		return wasm.SubType{IsFinal: true, Composite: ct}, nil
	}
}

// decodeTypeSection reads the vec(rectype) payload into a flat SubType list
// plus a sub-type-index -> recgroup-id map, per spec §3's RecGroupMap. The
// section carries a count of rectype entries, not of flattened sub-types:
// one rectype is either a bare sub-type or a 0x4E-wrapped group of them.
func decodeTypeSection(body []byte) ([]*wasm.SubType, wasm.RecGroupMap, error) {
	r := NewReader(body)
	count, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	var types []*wasm.SubType
	recGroups := wasm.RecGroupMap{}
	for groupID := uint32(0); groupID < count; groupID++ {
		startPos := r.Pos()
		b, err := r.Byte()
		if err != nil {
			return nil, nil, err
		}
		if b == formRecGroup {
			n, err := r.U32()
			if err != nil {
				return nil, nil, err
			}
			for i := uint32(0); i < n; i++ {
				st, err := decodeSubType(r)
				if err != nil {
					return nil, nil, err
				}
				recGroups[uint32(len(types))] = groupID
				types = append(types, &st)
			}
			continue
		}
		r.pos = startPos
		st, err := decodeSubType(r)
		if err != nil {
			return nil, nil, err
		}
		types = append(types, &st)
	}
	return types, recGroups, nil
}

type unknownFormError struct{ b byte }

func (e unknownFormError) Error() string { return "decode: unrecognized composite-type form" }
func errUnknownForm(b byte) error        { return unknownFormError{b} }
