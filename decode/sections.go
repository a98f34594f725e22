package decode

import "github.com/wasmkit/wasmkit/wasm"

// decodeImportSectionFull reads the import section's imports together with
// the table/memory/global descriptor payload each entry carries, so the
// parser driver can populate Table/Memory/Global's Import-kinded entries in
// one pass.
func decodeImportSectionFull(body []byte) ([]*wasm.Import, []wasm.TableType, []wasm.MemoryType, []wasm.ValType, []bool, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	imports := make([]*wasm.Import, n)
	var tableTypes []wasm.TableType
	var memTypes []wasm.MemoryType
	var globalTypes []wasm.ValType
	var globalMut []bool
	for i := range imports {
		mod, err := r.Name()
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		name, err := r.Name()
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		kindByte, err := r.Byte()
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		imp := &wasm.Import{Module: mod, Name: name, Kind: wasm.ImportKind(kindByte)}
		switch imp.Kind {
		case wasm.ImportKindFunc:
			idx, err := r.U32()
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			imp.DescType = wasm.TypeID(idx)
		case wasm.ImportKindTable:
			tt, err := decodeTableType(r)
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			tableTypes = append(tableTypes, tt)
		case wasm.ImportKindMemory:
			mt, err := decodeMemoryType(r)
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			memTypes = append(memTypes, mt)
		case wasm.ImportKindGlobal:
			vt, err := decodeValType(r)
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			mutByte, err := r.Byte()
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			globalTypes = append(globalTypes, vt)
			globalMut = append(globalMut, mutByte != 0)
		case wasm.ImportKindTag:
			if _, err := r.Byte(); err != nil {
				return nil, nil, nil, nil, nil, err
			}
			idx, err := r.U32()
			if err != nil {
				return nil, nil, nil, nil, nil, err
			}
			imp.DescType = wasm.TypeID(idx)
		}
		imports[i] = imp
	}
	return imports, tableTypes, memTypes, globalTypes, globalMut, nil
}

func decodeRefType(r *Reader) (wasm.RefType, error) {
	b, err := r.Byte()
	if err != nil {
		return wasm.RefType{}, err
	}
	switch wasm.ValType(b) {
	case wasm.ValTypeFuncref:
		return wasm.RefType{Nullable: true, Heap: wasm.HeapTypeFunc}, nil
	case wasm.ValTypeExternref:
		return wasm.RefType{Nullable: true, Heap: wasm.HeapTypeExtern}, nil
	case wasm.ValTypeRef, wasm.ValTypeRefNull:
		ht, err := r.S64()
		if err != nil {
			return wasm.RefType{}, err
		}
		return wasm.RefType{Nullable: wasm.ValType(b) == wasm.ValTypeRefNull, Heap: wasm.HeapType(ht)}, nil
	default:
		return wasm.RefType{}, errUnknownForm(b)
	}
}

func decodeLimits(r *Reader) (min uint64, max *uint64, shared bool, is64 bool, err error) {
	flags, err := r.Byte()
	if err != nil {
		return 0, nil, false, false, err
	}
	is64 = flags&0x04 != 0
	hasMax := flags&0x01 != 0
	shared = flags&0x02 != 0
	if is64 {
		min, err = r.U64()
	} else {
		var v uint32
		v, err = r.U32()
		min = uint64(v)
	}
	if err != nil {
		return 0, nil, false, false, err
	}
	if hasMax {
		var m uint64
		if is64 {
			m, err = r.U64()
		} else {
			var v uint32
			v, err = r.U32()
			m = uint64(v)
		}
		if err != nil {
			return 0, nil, false, false, err
		}
		max = &m
	}
	return min, max, shared, is64, nil
}

func decodeTableType(r *Reader) (wasm.TableType, error) {
	rt, err := decodeRefType(r)
	if err != nil {
		return wasm.TableType{}, err
	}
	min, max, _, _, err := decodeLimits(r)
	if err != nil {
		return wasm.TableType{}, err
	}
	tt := wasm.TableType{RefType: rt, Min: uint32(min)}
	if max != nil {
		m := uint32(*max)
		tt.Max = &m
	}
	return tt, nil
}

func decodeMemoryType(r *Reader) (wasm.MemoryType, error) {
	min, max, shared, is64, err := decodeLimits(r)
	if err != nil {
		return wasm.MemoryType{}, err
	}
	return wasm.MemoryType{Min: min, Max: max, Shared: shared, Is64: is64}, nil
}

func decodeFunctionSection(body []byte) ([]wasm.TypeID, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.TypeID, n)
	for i := range out {
		idx, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[i] = wasm.TypeID(idx)
	}
	return out, nil
}

func decodeTableSection(body []byte) ([]wasm.TableType, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.TableType, n)
	for i := range out {
		out[i], err = decodeTableType(r)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeMemorySection(body []byte) ([]wasm.MemoryType, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.MemoryType, n)
	for i := range out {
		out[i], err = decodeMemoryType(r)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type decodedGlobal struct {
	Type    wasm.ValType
	Mutable bool
	Init    wasm.InitExpr
}

func decodeGlobalSection(body []byte) ([]decodedGlobal, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]decodedGlobal, n)
	for i := range out {
		vt, err := decodeValType(r)
		if err != nil {
			return nil, err
		}
		mutByte, err := r.Byte()
		if err != nil {
			return nil, err
		}
		init, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		out[i] = decodedGlobal{Type: vt, Mutable: mutByte != 0, Init: init}
	}
	return out, nil
}

func decodeExportSection(body []byte) ([]*wasm.Export, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]*wasm.Export, n)
	for i := range out {
		name, err := r.Name()
		if err != nil {
			return nil, err
		}
		kindByte, err := r.Byte()
		if err != nil {
			return nil, err
		}
		idx, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[i] = &wasm.Export{Name: name, Kind: wasm.ExportKind(kindByte), Index: idx}
	}
	return out, nil
}

func decodeStartSection(body []byte) (wasm.FunctionID, error) {
	r := NewReader(body)
	idx, err := r.U32()
	return wasm.FunctionID(idx), err
}

func decodeElementSection(body []byte) ([]*wasm.Element, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]*wasm.Element, n)
	for i := range out {
		el, err := decodeElement(r)
		if err != nil {
			return nil, err
		}
		out[i] = el
	}
	return out, nil
}

func decodeElement(r *Reader) (*wasm.Element, error) {
	flags, err := r.U32()
	if err != nil {
		return nil, err
	}
	el := &wasm.Element{Type: wasm.RefType{Nullable: true, Heap: wasm.HeapTypeFunc}}
	switch flags {
	case 0:
		el.Mode = wasm.ElementModeActive
		off, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		el.Offset = off
		if err := decodeElemFuncIndices(r, el); err != nil {
			return nil, err
		}
	case 1:
		el.Mode = wasm.ElementModePassive
		if _, err := r.Byte(); err != nil { // elemkind
			return nil, err
		}
		if err := decodeElemFuncIndices(r, el); err != nil {
			return nil, err
		}
	case 2:
		el.Mode = wasm.ElementModeActive
		tableIdx, err := r.U32()
		if err != nil {
			return nil, err
		}
		el.Table = wasm.TableID(tableIdx)
		off, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		el.Offset = off
		if _, err := r.Byte(); err != nil {
			return nil, err
		}
		if err := decodeElemFuncIndices(r, el); err != nil {
			return nil, err
		}
	case 3:
		el.Mode = wasm.ElementModeDeclared
		if _, err := r.Byte(); err != nil {
			return nil, err
		}
		if err := decodeElemFuncIndices(r, el); err != nil {
			return nil, err
		}
	case 4:
		el.Mode = wasm.ElementModeActive
		off, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		el.Offset = off
		if err := decodeElemExprs(r, el); err != nil {
			return nil, err
		}
	case 5:
		el.Mode = wasm.ElementModePassive
		rt, err := decodeRefType(r)
		if err != nil {
			return nil, err
		}
		el.Type = rt
		if err := decodeElemExprs(r, el); err != nil {
			return nil, err
		}
	case 6:
		el.Mode = wasm.ElementModeActive
		tableIdx, err := r.U32()
		if err != nil {
			return nil, err
		}
		el.Table = wasm.TableID(tableIdx)
		off, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		el.Offset = off
		rt, err := decodeRefType(r)
		if err != nil {
			return nil, err
		}
		el.Type = rt
		if err := decodeElemExprs(r, el); err != nil {
			return nil, err
		}
	case 7:
		el.Mode = wasm.ElementModeDeclared
		rt, err := decodeRefType(r)
		if err != nil {
			return nil, err
		}
		el.Type = rt
		if err := decodeElemExprs(r, el); err != nil {
			return nil, err
		}
	default:
		return nil, errUnknownForm(byte(flags))
	}
	return el, nil
}

func decodeElemFuncIndices(r *Reader, el *wasm.Element) error {
	n, err := r.U32()
	if err != nil {
		return err
	}
	el.Items = make([]wasm.ElementItem, n)
	for i := range el.Items {
		idx, err := r.U32()
		if err != nil {
			return err
		}
		el.Items[i] = wasm.ElementItem{FuncID: wasm.FunctionID(idx), IsFunc: true}
	}
	return nil
}

func decodeElemExprs(r *Reader, el *wasm.Element) error {
	n, err := r.U32()
	if err != nil {
		return err
	}
	el.Items = make([]wasm.ElementItem, n)
	for i := range el.Items {
		init, err := decodeInitExpr(r)
		if err != nil {
			return err
		}
		el.Items[i] = wasm.ElementItem{RefInit: init}
	}
	return nil
}

type decodedData struct {
	Mode   wasm.DataMode
	Memory wasm.MemoryID
	Offset wasm.InitExpr
	Bytes  []byte
}

func decodeDataSection(body []byte) ([]decodedData, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]decodedData, n)
	for i := range out {
		flags, err := r.U32()
		if err != nil {
			return nil, err
		}
		var d decodedData
		switch flags {
		case 0:
			d.Mode = wasm.DataModeActive
			d.Offset, err = decodeInitExpr(r)
			if err != nil {
				return nil, err
			}
		case 1:
			d.Mode = wasm.DataModePassive
		case 2:
			d.Mode = wasm.DataModeActive
			memIdx, err := r.U32()
			if err != nil {
				return nil, err
			}
			d.Memory = wasm.MemoryID(memIdx)
			d.Offset, err = decodeInitExpr(r)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errUnknownForm(byte(flags))
		}
		length, err := r.U32()
		if err != nil {
			return nil, err
		}
		bs, err := r.Bytes(int(length))
		if err != nil {
			return nil, err
		}
		d.Bytes = append([]byte(nil), bs...)
		out[i] = d
	}
	return out, nil
}

func decodeDataCountSection(body []byte) (uint32, error) {
	r := NewReader(body)
	return r.U32()
}

func decodeTagSection(body []byte) ([]wasm.TypeID, error) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.TypeID, n)
	for i := range out {
		if _, err := r.Byte(); err != nil { // attribute, always 0
			return nil, err
		}
		idx, err := r.U32()
		if err != nil {
			return nil, err
		}
		out[i] = wasm.TypeID(idx)
	}
	return out, nil
}
