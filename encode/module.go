package encode

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/wasmkit/wasmkit/wasm"
)

const (
	wasmMagic   = 0x6d736100
	wasmVersion = 1
)

// Encoder serializes modules to their binary form, logging the
// non-aborting warnings spec §7 calls for through an injected logger
// rather than a package-global one -- the same way the teacher threads an
// io.Writer through its cmd package.
type Encoder struct {
	Logger logrus.FieldLogger
}

// NewEncoder returns an Encoder that logs through logger. A nil logger
// falls back to logrus's standard logger.
func NewEncoder(logger logrus.FieldLogger) *Encoder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Encoder{Logger: logger}
}

var defaultEncoder = NewEncoder(nil)

// Encode serializes m using the package default encoder. Most callers that
// don't care about warning routing should use this; construct an Encoder
// directly to capture warnings (e.g. in tests).
func Encode(m *wasm.Module) []byte {
	return defaultEncoder.Encode(m)
}

// Encode serializes m to its binary form. It reorganises ids first (spec
// §4.3, restoring the imports-before-locals invariant lazily maintained
// during editing), then writes each section in canonical order, omitting
// any section whose table came out empty.
//
// Encode panics if an instruction, export, element segment, or data
// segment's offset still references an entry flagged Deleted -- per spec
// §7, the caller is responsible for removing every reference before the
// entry is deleted; this is a programming-error backstop, not a normal
// error path. A deleted start function is not one of these cases (spec §7
// lists it among the logged warnings, not the panics): Encode logs and
// omits the start section instead.
func (e *Encoder) Encode(m *wasm.Module) []byte {
	funcMap, globalMap, memMap := m.ReorganiseIDs()
	ids := IDMaps{Func: funcMap, Global: globalMap, Memory: memMap}

	e.checkResolverErasure(m)

	w := NewWriter()
	w.U32(wasmMagic)
	w.U32(wasmVersion)

	if len(m.Types) > 0 {
		w.Raw(Section(byte(sectionType), encodeTypeSection(m)))
	}
	if len(m.Imports) > 0 {
		w.Raw(Section(byte(sectionImport), encodeImportSection(m)))
	}
	if n := countLocalFuncs(m); n > 0 {
		w.Raw(Section(byte(sectionFunction), encodeFunctionSection(m)))
	}
	if n := countLocalTables(m); n > 0 {
		w.Raw(Section(byte(sectionTable), encodeTableSection(m)))
	}
	if n := countLocalMemories(m); n > 0 {
		w.Raw(Section(byte(sectionMemory), encodeMemorySection(m)))
	}
	if n := countLocalGlobals(m); n > 0 {
		w.Raw(Section(byte(sectionGlobal), encodeGlobalSection(m, ids)))
	}
	if len(m.Exports) > 0 {
		w.Raw(Section(byte(sectionExport), encodeExportSection(m, ids)))
	}
	if m.Start != nil {
		if _, live := ids.Func[uint32(*m.Start)]; !live {
			e.Logger.Warn("encode: start function was deleted, omitting start section")
		} else {
			sw := NewWriter()
			sw.U32(ids.function(uint32(*m.Start)))
			w.Raw(Section(byte(sectionStart), sw.Bytes()))
		}
	}
	if n := countLive(len(m.Elements), func(i int) bool { return m.Elements[i].Deleted }); n > 0 {
		w.Raw(Section(byte(sectionElement), encodeElementSection(m, ids)))
	}
	if m.DataCountPresent {
		dw := NewWriter()
		dw.U32(uint32(countLive(len(m.DataSegs), func(i int) bool { return m.DataSegs[i].Deleted })))
		w.Raw(Section(byte(sectionDataCount), dw.Bytes()))
	}
	if n := countLocalTags(m); n > 0 {
		w.Raw(Section(byte(sectionTag), encodeTagSection(m)))
	}
	if n := countLocalFuncs(m); n > 0 {
		w.Raw(Section(byte(sectionCode), encodeCodeSection(m, ids)))
	}
	if n := countLive(len(m.DataSegs), func(i int) bool { return m.DataSegs[i].Deleted }); n > 0 {
		w.Raw(Section(byte(sectionData), encodeDataSection(m, ids)))
	}
	for _, c := range m.Customs {
		cw := NewWriter()
		cw.Name(c.Name)
		cw.Raw(c.Data)
		w.Raw(Section(0x00, cw.Bytes()))
	}
	// A payload no longer than the "name" header itself has no sub-sections.
	if ns := encodeNameSection(m, ids); len(ns) > len("name")+1 {
		w.Raw(Section(0x00, ns))
	}

	return w.Bytes()
}

// checkResolverErasure logs a warning for every local function whose body
// still carries a block-structured or semantic-after directive -- per spec
// §7/§8 this should never be true after package resolve has run, so its
// presence here is a "report-please" bug marker, not an abort condition.
func (e *Encoder) checkResolverErasure(m *wasm.Module) {
	for _, f := range m.Functions {
		if !f.IsLocal() || f.Deleted || f.Body == nil {
			continue
		}
		if f.Body.HasSpecialInstr() {
			e.Logger.WithField("function", f.ID()).Warn(
				"encode: function still carries unresolved block-structured or semantic_after instrumentation")
		}
	}
}

const (
	sectionType      = 0x01
	sectionImport    = 0x02
	sectionFunction  = 0x03
	sectionTable     = 0x04
	sectionMemory    = 0x05
	sectionGlobal    = 0x06
	sectionExport    = 0x07
	sectionStart     = 0x08
	sectionElement   = 0x09
	sectionCode      = 0x0A
	sectionData      = 0x0B
	sectionDataCount = 0x0C
	sectionTag       = 0x0D
)

func countLive(n int, deleted func(int) bool) int {
	c := 0
	for i := 0; i < n; i++ {
		if !deleted(i) {
			c++
		}
	}
	return c
}

func countLocalFuncs(m *wasm.Module) int {
	n := 0
	for _, f := range m.Functions {
		if f.IsLocal() && !f.Deleted {
			n++
		}
	}
	return n
}

func countLocalTables(m *wasm.Module) int {
	n := 0
	for _, t := range m.Tables {
		if t.IsLocal() && !t.Deleted {
			n++
		}
	}
	return n
}

func countLocalMemories(m *wasm.Module) int {
	n := 0
	for _, mem := range m.Memories {
		if mem.IsLocal() && !mem.Deleted {
			n++
		}
	}
	return n
}

func countLocalGlobals(m *wasm.Module) int {
	n := 0
	for _, g := range m.Globals {
		if g.IsLocal() && !g.Deleted {
			n++
		}
	}
	return n
}

// importedTagCount returns how many leading entries of m.Tags back a tag
// import. Tag has no Kind field like Function/Global/Memory (spec's
// manipulation API does not cover tags), so assembleTags's parse-time
// convention -- imports first, in Import-section order, then locals --
// is the only thing that tells imports and locals apart; see DESIGN.md.
func importedTagCount(m *wasm.Module) int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == wasm.ImportKindTag {
			n++
		}
	}
	return n
}

func countLocalTags(m *wasm.Module) int {
	n := 0
	for _, t := range m.Tags[importedTagCount(m):] {
		if !t.Deleted {
			n++
		}
	}
	return n
}

// encodeTypeSection re-wraps consecutive types that share a RecGroups id
// back into the GC proposal's rec-group form (0x4E). A type with no
// RecGroups entry, and a run of length 1, is emitted bare; a longer run is
// emitted as one rec-group declaration.
func encodeTypeSection(m *wasm.Module) []byte {
	var runs [][]*wasm.SubType
	for i := 0; i < len(m.Types); {
		gid, grouped := m.RecGroups[uint32(i)]
		j := i + 1
		if grouped {
			for j < len(m.Types) && m.RecGroups[uint32(j)] == gid {
				j++
			}
		}
		runs = append(runs, m.Types[i:j])
		i = j
	}

	w := NewWriter()
	w.U32(uint32(len(runs)))
	for _, run := range runs {
		if len(run) > 1 {
			w.Byte(0x4E)
			w.U32(uint32(len(run)))
		}
		for _, st := range run {
			encodeSubType(w, st)
		}
	}
	return w.Bytes()
}

func encodeSubType(w *Writer, st *wasm.SubType) {
	if st.Supertype != nil || !st.IsFinal {
		if st.IsFinal {
			w.Byte(0x4F)
		} else {
			w.Byte(0x50)
		}
		if st.Supertype != nil {
			w.U32(1)
			w.U32(uint32(*st.Supertype))
		} else {
			w.U32(0)
		}
	}
	encodeCompositeType(w, st.Composite)
}

func encodeCompositeType(w *Writer, ct wasm.CompositeType) {
	switch ct.Kind {
	case wasm.CompositeFunc:
		w.Byte(0x60)
		w.U32(uint32(len(ct.Func.Params)))
		for _, p := range ct.Func.Params {
			encodeValType(w, p)
		}
		w.U32(uint32(len(ct.Func.Results)))
		for _, r := range ct.Func.Results {
			encodeValType(w, r)
		}
	case wasm.CompositeArray:
		w.Byte(0x5E)
		encodeFieldType(w, ct.Array)
	case wasm.CompositeStruct:
		w.Byte(0x5F)
		w.U32(uint32(len(ct.Fields)))
		for _, f := range ct.Fields {
			encodeFieldType(w, f)
		}
	case wasm.CompositeCont:
		w.Byte(0x5D)
		w.U32(uint32(ct.ContTypeIdx))
	}
}

func encodeFieldType(w *Writer, ft wasm.FieldType) {
	if ft.Storage.Packed != wasm.PackedNone {
		w.Byte(byte(ft.Storage.Packed))
	} else {
		encodeValType(w, ft.Storage.Val)
	}
	if ft.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// encodeValType writes a value type, re-attaching a heap-type suffix for
// the typed-reference forms. decodeValType reads and discards that suffix
// rather than retaining it on ValType (wasm/types.go), so a param, result,
// or field originally naming a concrete type index round-trips as a
// bare funcref/externref instead of its original heap type; see DESIGN.md.
func encodeValType(w *Writer, vt wasm.ValType) {
	w.Byte(byte(vt))
	switch vt {
	case wasm.ValTypeRef:
		w.S64(int64(wasm.HeapTypeFunc))
	case wasm.ValTypeRefNull:
		w.S64(int64(wasm.HeapTypeFunc))
	}
}

func encodeImportSection(m *wasm.Module) []byte {
	tableByImport := map[wasm.ImportID]*wasm.Table{}
	for _, t := range m.Tables {
		if t.IsImport() {
			tableByImport[t.ImportID] = t
		}
	}
	memByImport := map[wasm.ImportID]*wasm.Memory{}
	for _, mem := range m.Memories {
		if mem.IsImport() {
			memByImport[mem.ImportID] = mem
		}
	}
	globalByImport := map[wasm.ImportID]*wasm.Global{}
	for _, g := range m.Globals {
		if g.IsImport() {
			globalByImport[g.ImportID] = g
		}
	}

	w := NewWriter()
	w.U32(uint32(countLive(len(m.Imports), func(i int) bool { return m.Imports[i].Deleted })))
	for i, imp := range m.Imports {
		if imp.Deleted {
			continue
		}
		w.Name(imp.Module)
		w.Name(imp.Name)
		w.Byte(byte(imp.Kind))
		switch imp.Kind {
		case wasm.ImportKindFunc:
			w.U32(uint32(imp.DescType))
		case wasm.ImportKindTag:
			w.Byte(0)
			w.U32(uint32(imp.DescType))
		case wasm.ImportKindTable:
			encodeTableType(w, tableByImport[wasm.ImportID(i)].Type)
		case wasm.ImportKindMemory:
			encodeMemoryType(w, memByImport[wasm.ImportID(i)].Type)
		case wasm.ImportKindGlobal:
			g := globalByImport[wasm.ImportID(i)]
			w.Byte(byte(g.Type))
			if g.Mutable {
				w.Byte(1)
			} else {
				w.Byte(0)
			}
		}
	}
	return w.Bytes()
}

func encodeTableType(w *Writer, tt wasm.TableType) {
	encodeRefType(w, tt.RefType)
	var max *uint64
	if tt.Max != nil {
		v := uint64(*tt.Max)
		max = &v
	}
	encodeLimits(w, uint64(tt.Min), max, false, false)
}

func encodeRefType(w *Writer, rt wasm.RefType) {
	switch rt.Heap {
	case wasm.HeapTypeFunc:
		if rt.Nullable {
			w.Byte(byte(wasm.ValTypeFuncref))
			return
		}
	case wasm.HeapTypeExtern:
		if rt.Nullable {
			w.Byte(byte(wasm.ValTypeExternref))
			return
		}
	}
	if rt.Nullable {
		w.Byte(byte(wasm.ValTypeRefNull))
	} else {
		w.Byte(byte(wasm.ValTypeRef))
	}
	w.S64(int64(rt.Heap))
}

func encodeLimits(w *Writer, min uint64, max *uint64, shared, is64 bool) {
	var flags byte
	if max != nil {
		flags |= 0x01
	}
	if shared {
		flags |= 0x02
	}
	if is64 {
		flags |= 0x04
	}
	w.Byte(flags)
	if is64 {
		w.U64(min)
	} else {
		w.U32(uint32(min))
	}
	if max != nil {
		if is64 {
			w.U64(*max)
		} else {
			w.U32(uint32(*max))
		}
	}
}

func encodeMemoryType(w *Writer, mt wasm.MemoryType) {
	encodeLimits(w, mt.Min, mt.Max, mt.Shared, mt.Is64)
}

func encodeFunctionSection(m *wasm.Module) []byte {
	w := NewWriter()
	w.U32(uint32(countLocalFuncs(m)))
	for _, f := range m.Functions {
		if f.IsLocal() && !f.Deleted {
			w.U32(uint32(f.TypeID))
		}
	}
	return w.Bytes()
}

func encodeTableSection(m *wasm.Module) []byte {
	w := NewWriter()
	w.U32(uint32(countLocalTables(m)))
	for _, t := range m.Tables {
		if t.IsLocal() && !t.Deleted {
			encodeTableType(w, t.Type)
		}
	}
	return w.Bytes()
}

func encodeMemorySection(m *wasm.Module) []byte {
	w := NewWriter()
	w.U32(uint32(countLocalMemories(m)))
	for _, mem := range m.Memories {
		if mem.IsLocal() && !mem.Deleted {
			encodeMemoryType(w, mem.Type)
		}
	}
	return w.Bytes()
}

func encodeTagSection(m *wasm.Module) []byte {
	w := NewWriter()
	w.U32(uint32(countLocalTags(m)))
	for _, t := range m.Tags[importedTagCount(m):] {
		if !t.Deleted {
			w.Byte(0)
			w.U32(uint32(t.TypeID))
		}
	}
	return w.Bytes()
}

func encodeGlobalSection(m *wasm.Module, ids IDMaps) []byte {
	w := NewWriter()
	w.U32(uint32(countLocalGlobals(m)))
	for _, g := range m.Globals {
		if g.IsLocal() && !g.Deleted {
			w.Byte(byte(g.Type))
			if g.Mutable {
				w.Byte(1)
			} else {
				w.Byte(0)
			}
			EncodeInitExpr(w, g.Init, ids)
		}
	}
	return w.Bytes()
}

func encodeExportSection(m *wasm.Module, ids IDMaps) []byte {
	w := NewWriter()
	w.U32(uint32(len(m.Exports)))
	names := make([]string, 0, len(m.Exports))
	for name := range m.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := m.Exports[name]
		w.Name(e.Name)
		w.Byte(byte(e.Kind))
		switch e.Kind {
		case wasm.ExportKindFunc:
			if _, live := ids.Func[e.Index]; !live {
				panic("encode: export references a deleted function")
			}
			w.U32(ids.function(e.Index))
		case wasm.ExportKindMemory:
			if _, live := ids.Memory[e.Index]; !live {
				panic("encode: export references a deleted memory")
			}
			w.U32(ids.memory(e.Index))
		case wasm.ExportKindGlobal:
			if _, live := ids.Global[e.Index]; !live {
				panic("encode: export references a deleted global")
			}
			w.U32(ids.global(e.Index))
		default:
			w.U32(e.Index)
		}
	}
	return w.Bytes()
}

func encodeElementSection(m *wasm.Module, ids IDMaps) []byte {
	w := NewWriter()
	w.U32(uint32(countLive(len(m.Elements), func(i int) bool { return m.Elements[i].Deleted })))
	for _, el := range m.Elements {
		if el.Deleted {
			continue
		}
		switch el.Mode {
		case wasm.ElementModeActive:
			w.U32(6)
			w.U32(uint32(el.Table))
			EncodeInitExpr(w, el.Offset, ids)
			encodeRefType(w, el.Type)
		case wasm.ElementModePassive:
			w.U32(5)
			encodeRefType(w, el.Type)
		case wasm.ElementModeDeclared:
			w.U32(7)
			encodeRefType(w, el.Type)
		}
		w.U32(uint32(len(el.Items)))
		for _, item := range el.Items {
			if item.IsFunc {
				ref := wasm.InitExpr{Kind: wasm.InitExprRefFunc, FuncID: item.FuncID}
				EncodeInitExpr(w, ref, ids)
			} else {
				EncodeInitExpr(w, item.RefInit, ids)
			}
		}
	}
	return w.Bytes()
}

func encodeCodeSection(m *wasm.Module, ids IDMaps) []byte {
	w := NewWriter()
	w.U32(uint32(countLocalFuncs(m)))
	for _, f := range m.Functions {
		if !f.IsLocal() || f.Deleted {
			continue
		}
		body := EncodeBody(f.Body, ids)
		w.U32(uint32(len(body)))
		w.Raw(body)
	}
	return w.Bytes()
}

func encodeDataSection(m *wasm.Module, ids IDMaps) []byte {
	w := NewWriter()
	w.U32(uint32(countLive(len(m.DataSegs), func(i int) bool { return m.DataSegs[i].Deleted })))
	for _, d := range m.DataSegs {
		if d.Deleted {
			continue
		}
		switch d.Mode {
		case wasm.DataModeActive:
			if ids.memory(uint32(d.Memory)) == 0 {
				w.U32(0)
			} else {
				w.U32(2)
				w.U32(ids.memory(uint32(d.Memory)))
			}
			EncodeInitExpr(w, d.Offset, ids)
		case wasm.DataModePassive:
			w.U32(1)
		}
		w.U32(uint32(len(d.Bytes)))
		w.Raw(d.Bytes)
	}
	return w.Bytes()
}

// encodeNameSection regenerates the function name sub-map from each
// Function's Name/HasName (the decoder does not retain it separately;
// see wasm/names.go) and passes the remaining sub-maps through unchanged.
func encodeNameSection(m *wasm.Module, ids IDMaps) []byte {
	w := NewWriter()
	w.Name("name")

	if m.NameSection != nil && m.NameSection.HasModuleName() {
		sw := NewWriter()
		sw.Name(m.NameSection.ModuleName)
		w.Raw(Section(0, sw.Bytes()))
	}

	funcNames := map[uint32]string{}
	for _, f := range m.Functions {
		if f.HasName() && !f.Deleted {
			funcNames[ids.function(uint32(f.ID()))] = f.Name
		}
	}
	if len(funcNames) > 0 {
		w.Raw(Section(1, encodeNameMap(funcNames)))
	}

	if m.NameSection != nil {
		writeOptionalIndirectNameMap(w, 2, m.NameSection.LocalNames)
		writeOptionalIndirectNameMap(w, 3, m.NameSection.LabelNames)
		writeOptionalNameMap(w, 4, m.NameSection.TypeNames)
		writeOptionalNameMap(w, 5, m.NameSection.TableNames)
		writeOptionalNameMap(w, 6, m.NameSection.MemoryNames)
		writeOptionalNameMap(w, 7, m.NameSection.GlobalNames)
		writeOptionalNameMap(w, 8, m.NameSection.ElemNames)
		writeOptionalNameMap(w, 9, m.NameSection.DataNames)
		writeOptionalIndirectNameMap(w, 10, m.NameSection.FieldNames)
		writeOptionalNameMap(w, 11, m.NameSection.TagNames)
	}

	return w.Bytes()
}

func writeOptionalIndirectNameMap(w *Writer, id byte, m map[uint32]map[uint32]string) {
	if len(m) == 0 {
		return
	}
	sw := NewWriter()
	sw.U32(uint32(len(m)))
	for _, outer := range sortedKeys(m) {
		sw.U32(outer)
		sw.Raw(encodeNameMap(m[outer]))
	}
	w.Raw(Section(id, sw.Bytes()))
}

func writeOptionalNameMap(w *Writer, id byte, m map[uint32]string) {
	if len(m) == 0 {
		return
	}
	w.Raw(Section(id, encodeNameMap(m)))
}

// encodeNameMap writes entries in ascending index order so Encode stays
// deterministic across runs of the same module (spec §8).
func encodeNameMap(m map[uint32]string) []byte {
	w := NewWriter()
	w.U32(uint32(len(m)))
	for _, idx := range sortedKeys(m) {
		w.U32(idx)
		w.Name(m[idx])
	}
	return w.Bytes()
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
