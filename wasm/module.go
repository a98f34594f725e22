package wasm

// Module is the aggregate root (spec §3): every section's logical table,
// plus the side bookkeeping (recgroup map, start function, data-count
// presence, name sub-maps) needed to re-encode a semantically faithful
// binary.
type Module struct {
	Name string

	Types    []*SubType
	RecGroups RecGroupMap

	Imports []*Import

	Functions []*Function
	Tables    []*Table
	Memories  []*Memory
	Globals   []*Global

	Exports map[string]*Export

	Start      *FunctionID
	Elements   []*Element
	DataSegs   []*Data
	Tags       []*Tag
	Customs    []*CustomSection

	NameSection *NameSection

	// DataCountPresent records whether the input carried a data-count
	// section, so re-encode can reproduce its presence/absence exactly
	// (spec §4.3 "Section order").
	DataCountPresent bool

	// EnableMultiMemory gates the only behavior-affecting configuration
	// flag named in spec §6: when false, a non-zero memory immediate on
	// memory.size/memory.grow (and other memory-immediate operators) is
	// rejected at parse time with InvalidMemoryReservedByte.
	EnableMultiMemory bool
}

// NewModule returns an empty Module ready for population by a parser or
// by direct construction via the manipulation API (spec §4.4).
func NewModule() *Module {
	return &Module{
		Exports:     map[string]*Export{},
		RecGroups:   RecGroupMap{},
		NameSection: &NameSection{},
	}
}

// NumFuncs returns the size of the dense function space.
func (m *Module) NumFuncs() int { return len(m.Functions) }

// GetFunction returns the function at id, or nil if id is out of range.
func (m *Module) GetFunction(id FunctionID) *Function {
	if int(id) < 0 || int(id) >= len(m.Functions) {
		return nil
	}
	return m.Functions[id]
}

// GetFuncType resolves a function's signature via the type table.
func (m *Module) GetFuncType(id FunctionID) *FuncType {
	f := m.GetFunction(id)
	if f == nil {
		return nil
	}
	return m.GetType(f.TypeID)
}

// GetType returns the function-type view of a SubType, or nil if id is out
// of range or the sub-type isn't a function.
func (m *Module) GetType(id TypeID) *FuncType {
	if int(id) < 0 || int(id) >= len(m.Types) {
		return nil
	}
	st := m.Types[id]
	if st.Composite.Kind != CompositeFunc {
		return nil
	}
	return &st.Composite.Func
}

// GetGlobal returns the global at id, or nil if out of range.
func (m *Module) GetGlobal(id GlobalID) *Global {
	if int(id) < 0 || int(id) >= len(m.Globals) {
		return nil
	}
	return m.Globals[id]
}

// GetMemory returns the memory at id, or nil if out of range.
func (m *Module) GetMemory(id MemoryID) *Memory {
	if int(id) < 0 || int(id) >= len(m.Memories) {
		return nil
	}
	return m.Memories[id]
}

// AddFuncType interns params/results as a (non-recursive, final) function
// sub-type, reusing an existing matching entry when one exists.
func (m *Module) AddFuncType(params, results []ValType) TypeID {
	for i, st := range m.Types {
		if st.Composite.Kind != CompositeFunc || !st.IsFinal || st.Supertype != nil {
			continue
		}
		if valTypesEqual(st.Composite.Func.Params, params) && valTypesEqual(st.Composite.Func.Results, results) {
			return TypeID(i)
		}
	}
	m.Types = append(m.Types, &SubType{
		IsFinal: true,
		Composite: CompositeType{
			Kind: CompositeFunc,
			Func: FuncType{Params: append([]ValType(nil), params...), Results: append([]ValType(nil), results...)},
		},
	})
	return TypeID(len(m.Types) - 1)
}

func valTypesEqual(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
