package decode

import "github.com/wasmkit/wasmkit/wasm"

// Parse decodes a full Wasm binary into a wasm.Module, driving the section
// decoders in this package off a PayloadIterator. enableMultiMemory mirrors
// Module.EnableMultiMemory and gates the one parse-time validation spec §6
// makes configurable.
func Parse(buf []byte, enableMultiMemory bool) (*wasm.Module, *wasm.ParseError) {
	it := NewPayloadIterator(buf)

	m := wasm.NewModule()
	m.EnableMultiMemory = enableMultiMemory

	var (
		imports                          []*wasm.Import
		importTableTypes                 []wasm.TableType
		importMemTypes                   []wasm.MemoryType
		importGlobalTypes                []wasm.ValType
		importGlobalMut                  []bool
		funcTypeIndices                   []wasm.TypeID
		localTableTypes                  []wasm.TableType
		localMemTypes                    []wasm.MemoryType
		globals                          []decodedGlobal
		exports                          []*wasm.Export
		startIdx                         *wasm.FunctionID
		elements                         []*wasm.Element
		dataSegs                         []decodedData
		tagTypeIndices                   []wasm.TypeID
		bodies                           [][]byte
		dataCount                        *uint32
		nameSec                          *decodedNameSection
	)

	for {
		p, ok, err := it.Next()
		if err != nil {
			return nil, wasm.NewDecoderError(err)
		}
		if !ok {
			break
		}
		if p.IsHeader {
			if p.Version != 1 {
				return nil, wasm.NewUnknownVersionError(p.Version)
			}
			continue
		}

		switch p.ID {
		case SectionType:
			types, recGroups, err := decodeTypeSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			m.Types = types
			m.RecGroups = recGroups

		case SectionImport:
			var err error
			imports, importTableTypes, importMemTypes, importGlobalTypes, importGlobalMut, err = decodeImportSectionFull(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}

		case SectionFunction:
			idxs, err := decodeFunctionSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			funcTypeIndices = idxs

		case SectionTable:
			tts, err := decodeTableSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			localTableTypes = tts

		case SectionMemory:
			mts, err := decodeMemorySection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			localMemTypes = mts

		case SectionGlobal:
			gs, err := decodeGlobalSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			globals = gs

		case SectionExport:
			es, err := decodeExportSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			exports = es

		case SectionStart:
			if startIdx != nil {
				return nil, wasm.NewMultipleStartSectionsError()
			}
			idx, err := decodeStartSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			startIdx = &idx

		case SectionElement:
			els, err := decodeElementSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			elements = els

		case SectionCode:
			bs, err := decodeCodeSection(p.Bytes)
			if err != nil {
				return nil, err
			}
			bodies = bs

		case SectionData:
			ds, err := decodeDataSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			dataSegs = ds

		case SectionDataCount:
			n, err := decodeDataCountSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			dataCount = &n
			m.DataCountPresent = true

		case SectionTag:
			idxs, err := decodeTagSection(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			tagTypeIndices = idxs

		case SectionCustom:
			name, rest, err := decodeCustomHeader(p.Bytes)
			if err != nil {
				return nil, wasm.NewDecoderError(err)
			}
			if name == "name" {
				decoded, err := decodeNameSection(rest)
				if err != nil {
					return nil, wasm.NewDecoderError(err)
				}
				nameSec = &decoded
			} else {
				m.Customs = append(m.Customs, &wasm.CustomSection{Name: name, Data: append([]byte(nil), rest...)})
			}

		default:
			return nil, wasm.NewUnknownSectionError(byte(p.ID))
		}
	}

	if len(funcTypeIndices) != len(bodies) {
		return nil, wasm.NewIncorrectCodeCountsError(len(funcTypeIndices), len(bodies), countImportKind(imports, wasm.ImportKindFunc)+len(funcTypeIndices))
	}
	if dataCount != nil && int(*dataCount) != len(dataSegs) {
		return nil, wasm.NewIncorrectDataCountError(int(*dataCount), len(dataSegs))
	}

	if perr := assembleFunctions(m, imports, funcTypeIndices, bodies); perr != nil {
		return nil, perr
	}
	assembleTables(m, imports, importTableTypes, localTableTypes)
	assembleMemories(m, imports, importMemTypes, localMemTypes)
	assembleGlobals(m, imports, importGlobalTypes, importGlobalMut, globals)
	assembleTags(m, imports, tagTypeIndices)

	m.Imports = imports
	for _, e := range exports {
		m.Exports[e.Name] = e
	}
	m.Start = startIdx
	m.Elements = elements
	for _, d := range dataSegs {
		m.DataSegs = append(m.DataSegs, &wasm.Data{Mode: d.Mode, Memory: d.Memory, Offset: d.Offset, Bytes: d.Bytes})
	}

	if nameSec != nil {
		m.NameSection = nameSec.Section
		for idx, name := range nameSec.FuncNames {
			if f := m.GetFunction(wasm.FunctionID(idx)); f != nil {
				f.SetName(name)
			}
		}
	}

	return m, nil
}

func countImportKind(imports []*wasm.Import, kind wasm.ImportKind) int {
	n := 0
	for _, imp := range imports {
		if imp.Kind == kind {
			n++
		}
	}
	return n
}

func decodeCustomHeader(body []byte) (string, []byte, error) {
	r := NewReader(body)
	name, err := r.Name()
	if err != nil {
		return "", nil, err
	}
	return name, r.buf[r.pos:], nil
}

func decodeCodeSection(body []byte) ([][]byte, *wasm.ParseError) {
	r := NewReader(body)
	n, err := r.U32()
	if err != nil {
		return nil, wasm.NewDecoderError(err)
	}
	out := make([][]byte, n)
	for i := range out {
		size, err := r.U32()
		if err != nil {
			return nil, wasm.NewDecoderError(err)
		}
		entry, err := r.Bytes(int(size))
		if err != nil {
			return nil, wasm.NewDecoderError(err)
		}
		out[i] = entry
	}
	return out, nil
}

func assembleFunctions(m *wasm.Module, imports []*wasm.Import, funcTypeIndices []wasm.TypeID, bodies [][]byte) *wasm.ParseError {
	for idx, imp := range imports {
		if imp.Kind != wasm.ImportKindFunc {
			continue
		}
		id := wasm.FunctionID(len(m.Functions))
		m.Functions = append(m.Functions, wasm.NewParsedFunction(wasm.FunctionImport, wasm.ImportID(idx), imp.DescType, nil, 0, id))
	}
	for i, typeIdx := range funcTypeIndices {
		ft := m.GetType(typeIdx)
		paramCount := 0
		if ft != nil {
			paramCount = len(ft.Params)
		}
		body, perr := decodeBody(bodies[i], paramCount, m.EnableMultiMemory)
		if perr != nil {
			return perr
		}
		id := wasm.FunctionID(len(m.Functions))
		m.Functions = append(m.Functions, wasm.NewParsedFunction(wasm.FunctionLocal, 0, typeIdx, body, paramCount, id))
	}
	return nil
}

func assembleTables(m *wasm.Module, imports []*wasm.Import, importTypes, localTypes []wasm.TableType) {
	ti := 0
	for idx, imp := range imports {
		if imp.Kind != wasm.ImportKindTable {
			continue
		}
		m.Tables = append(m.Tables, &wasm.Table{Kind: wasm.TableImport, ImportID: wasm.ImportID(idx), Type: importTypes[ti]})
		ti++
	}
	for _, tt := range localTypes {
		m.Tables = append(m.Tables, &wasm.Table{Kind: wasm.TableLocal, Type: tt})
	}
}

func assembleMemories(m *wasm.Module, imports []*wasm.Import, importTypes, localTypes []wasm.MemoryType) {
	mi := 0
	for idx, imp := range imports {
		if imp.Kind != wasm.ImportKindMemory {
			continue
		}
		m.Memories = append(m.Memories, &wasm.Memory{Kind: wasm.MemoryImport, ImportID: wasm.ImportID(idx), Type: importTypes[mi]})
		mi++
	}
	for _, mt := range localTypes {
		m.Memories = append(m.Memories, wasm.NewParsedMemory(wasm.MemoryLocal, 0, mt, wasm.MemoryID(len(m.Memories))))
	}
}

func assembleGlobals(m *wasm.Module, imports []*wasm.Import, importTypes []wasm.ValType, importMut []bool, locals []decodedGlobal) {
	gi := 0
	for idx, imp := range imports {
		if imp.Kind != wasm.ImportKindGlobal {
			continue
		}
		m.Globals = append(m.Globals, wasm.NewParsedGlobal(wasm.GlobalImport, wasm.ImportID(idx), importTypes[gi], importMut[gi], wasm.InitExpr{}, wasm.GlobalID(len(m.Globals))))
		gi++
	}
	for _, g := range locals {
		m.Globals = append(m.Globals, wasm.NewParsedGlobal(wasm.GlobalLocal, 0, g.Type, g.Mutable, g.Init, wasm.GlobalID(len(m.Globals))))
	}
}

func assembleTags(m *wasm.Module, imports []*wasm.Import, localTypeIndices []wasm.TypeID) {
	for _, imp := range imports {
		if imp.Kind != wasm.ImportKindTag {
			continue
		}
		m.Tags = append(m.Tags, &wasm.Tag{TypeID: imp.DescType})
	}
	for _, typeIdx := range localTypeIndices {
		m.Tags = append(m.Tags, &wasm.Tag{TypeID: typeIdx})
	}
}

func decodeBody(entry []byte, paramCount int, enableMultiMemory bool) (*wasm.Body, *wasm.ParseError) {
	r := NewReader(entry)
	n, err := r.U32()
	if err != nil {
		return nil, wasm.NewDecoderError(err)
	}
	locals := make([]wasm.LocalEntry, n)
	var numLocals uint32
	for i := range locals {
		count, err := r.U32()
		if err != nil {
			return nil, wasm.NewDecoderError(err)
		}
		vt, err := decodeValType(r)
		if err != nil {
			return nil, wasm.NewDecoderError(err)
		}
		locals[i] = wasm.LocalEntry{Count: count, ValType: vt}
		numLocals += count
	}
	instrs, perr := DecodeInstructions(r.buf[r.pos:], enableMultiMemory)
	if perr != nil {
		return nil, perr
	}
	return &wasm.Body{Locals: locals, NumLocals: numLocals, Instrs: instrs}, nil
}
