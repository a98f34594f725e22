package decode

import "github.com/wasmkit/wasmkit/wasm"

// Name sub-section ids, per the binary format's "name" custom section.
const (
	nameSubModule  = 0
	nameSubFunc    = 1
	nameSubLocal   = 2
	nameSubLabel   = 3
	nameSubType    = 4
	nameSubTable   = 5
	nameSubMemory  = 6
	nameSubGlobal  = 7
	nameSubElem    = 8
	nameSubData    = 9
	nameSubField   = 10
	nameSubTag     = 11
)

// decodedNameSection additionally surfaces the func-name sub-map, which
// wasm.NameSection itself does not store (see wasm/names.go) but the
// parser driver needs to stamp onto each Function.
type decodedNameSection struct {
	Section   *wasm.NameSection
	FuncNames map[uint32]string
}

func decodeNameSection(body []byte) (decodedNameSection, error) {
	r := NewReader(body)
	ns := &wasm.NameSection{
		LocalNames:  map[uint32]map[uint32]string{},
		LabelNames:  map[uint32]map[uint32]string{},
		TypeNames:   map[uint32]string{},
		TableNames:  map[uint32]string{},
		MemoryNames: map[uint32]string{},
		GlobalNames: map[uint32]string{},
		ElemNames:   map[uint32]string{},
		DataNames:   map[uint32]string{},
		FieldNames:  map[uint32]map[uint32]string{},
		TagNames:    map[uint32]string{},
	}
	funcNames := map[uint32]string{}

	for !r.EOF() {
		id, err := r.Byte()
		if err != nil {
			return decodedNameSection{}, err
		}
		length, err := r.U32()
		if err != nil {
			return decodedNameSection{}, err
		}
		sub, err := r.Bytes(int(length))
		if err != nil {
			return decodedNameSection{}, err
		}
		sr := NewReader(sub)
		switch id {
		case nameSubModule:
			name, err := sr.Name()
			if err != nil {
				return decodedNameSection{}, err
			}
			ns.SetModuleName(name)
		case nameSubFunc:
			if err := decodeNameMap(sr, funcNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubLocal:
			if err := decodeIndirectNameMap(sr, ns.LocalNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubLabel:
			if err := decodeIndirectNameMap(sr, ns.LabelNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubType:
			if err := decodeNameMap(sr, ns.TypeNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubTable:
			if err := decodeNameMap(sr, ns.TableNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubMemory:
			if err := decodeNameMap(sr, ns.MemoryNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubGlobal:
			if err := decodeNameMap(sr, ns.GlobalNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubElem:
			if err := decodeNameMap(sr, ns.ElemNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubData:
			if err := decodeNameMap(sr, ns.DataNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubField:
			if err := decodeIndirectNameMap(sr, ns.FieldNames); err != nil {
				return decodedNameSection{}, err
			}
		case nameSubTag:
			if err := decodeNameMap(sr, ns.TagNames); err != nil {
				return decodedNameSection{}, err
			}
		default:
			// Unknown sub-section: skip, preserving forward compatibility.
		}
	}
	return decodedNameSection{Section: ns, FuncNames: funcNames}, nil
}

func decodeNameMap(r *Reader, into map[uint32]string) error {
	n, err := r.U32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		idx, err := r.U32()
		if err != nil {
			return err
		}
		name, err := r.Name()
		if err != nil {
			return err
		}
		into[idx] = name
	}
	return nil
}

func decodeIndirectNameMap(r *Reader, into map[uint32]map[uint32]string) error {
	n, err := r.U32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		outerIdx, err := r.U32()
		if err != nil {
			return err
		}
		inner := map[uint32]string{}
		if err := decodeNameMap(r, inner); err != nil {
			return err
		}
		into[outerIdx] = inner
	}
	return nil
}
