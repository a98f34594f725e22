package wasm

// This file implements spec §4.4, the module manipulation API, one-to-one
// against orca's public Module methods of the same names.

// AddLocalFunction appends a new local function with the given signature
// and body, interning the signature as a type if needed. The returned id
// is provisional until the next ReorganiseIDs/Encode.
func (m *Module) AddLocalFunction(name string, params, results []ValType, body *Body) FunctionID {
	typeID := m.AddFuncType(params, results)
	f := &Function{
		Kind:       FunctionLocal,
		TypeID:     typeID,
		Body:       body,
		ParamCount: len(params),
		id:         FunctionID(len(m.Functions)),
	}
	if name != "" {
		f.SetName(name)
	}
	m.Functions = append(m.Functions, f)
	return f.id
}

// AddImportFunction adds a new function import, returning both its
// function-space id and its import-section id.
func (m *Module) AddImportFunction(module, name string, typeID TypeID) (FunctionID, ImportID) {
	imp := &Import{Module: module, Name: name, Kind: ImportKindFunc, DescType: typeID}
	m.Imports = append(m.Imports, imp)
	importID := ImportID(len(m.Imports) - 1)

	f := &Function{
		Kind:     FunctionImport,
		ImportID: importID,
		TypeID:   typeID,
		id:       FunctionID(len(m.Functions)),
	}
	m.Functions = append(m.Functions, f)
	return f.id, importID
}

// DeleteFunction flags the function (and, if imported, its backing
// import) as deleted. Per spec §7, it is the caller's responsibility to
// have already removed every reference to function id -- a dangling
// reference surfaces as a panic at re-encode time, not here.
func (m *Module) DeleteFunction(id FunctionID) {
	f := m.GetFunction(id)
	if f == nil {
		return
	}
	f.Deleted = true
	if f.Kind == FunctionImport {
		if imp := m.getImport(f.ImportID); imp != nil {
			imp.Deleted = true
		}
	}
}

// ConvertImportToLocal converts an imported function to a local one,
// rejecting the request if it is already local.
func (m *Module) ConvertImportToLocal(id FunctionID, body *Body) bool {
	f := m.GetFunction(id)
	if f == nil || f.Kind != FunctionImport {
		return false
	}
	if imp := m.getImport(f.ImportID); imp != nil {
		imp.Deleted = true
	}
	f.Kind = FunctionLocal
	f.Body = body
	return true
}

// ConvertLocalToImport converts a local function to an import, rejecting
// the request if it is already imported.
func (m *Module) ConvertLocalToImport(id FunctionID, module, name string, typeID TypeID) bool {
	f := m.GetFunction(id)
	if f == nil || f.Kind != FunctionLocal {
		return false
	}
	imp := &Import{Module: module, Name: name, Kind: ImportKindFunc, DescType: typeID}
	m.Imports = append(m.Imports, imp)
	f.Kind = FunctionImport
	f.ImportID = ImportID(len(m.Imports) - 1)
	f.TypeID = typeID
	f.Body = nil
	return true
}

// SetFunctionName routes to the import-side or local-side name, based on
// the function's current kind.
func (m *Module) SetFunctionName(id FunctionID, name string) {
	f := m.GetFunction(id)
	if f == nil {
		return
	}
	f.SetName(name)
	if f.Kind == FunctionImport {
		if imp := m.getImport(f.ImportID); imp != nil {
			imp.SetName(name)
		}
	} else if f.Body != nil {
		f.Body.SetName(name)
	}
}

func (m *Module) getImport(id ImportID) *Import {
	if int(id) < 0 || int(id) >= len(m.Imports) {
		return nil
	}
	return m.Imports[id]
}

// AddLocalGlobal appends a new local, mutable-or-not global with init.
func (m *Module) AddLocalGlobal(vt ValType, mutable bool, init InitExpr) GlobalID {
	g := &Global{Kind: GlobalLocal, Type: vt, Mutable: mutable, Init: init, id: GlobalID(len(m.Globals))}
	m.Globals = append(m.Globals, g)
	return g.id
}

// AddImportGlobal adds a new global import.
func (m *Module) AddImportGlobal(module, name string, vt ValType, mutable bool) (GlobalID, ImportID) {
	imp := &Import{Module: module, Name: name, Kind: ImportKindGlobal}
	m.Imports = append(m.Imports, imp)
	importID := ImportID(len(m.Imports) - 1)
	g := &Global{Kind: GlobalImport, ImportID: importID, Type: vt, Mutable: mutable, id: GlobalID(len(m.Globals))}
	m.Globals = append(m.Globals, g)
	return g.id, importID
}

// DeleteGlobal flags a global (and its backing import, if any) deleted.
func (m *Module) DeleteGlobal(id GlobalID) {
	g := m.GetGlobal(id)
	if g == nil {
		return
	}
	g.Deleted = true
	if g.Kind == GlobalImport {
		if imp := m.getImport(g.ImportID); imp != nil {
			imp.Deleted = true
		}
	}
}

// ModGlobalInitExpr mutates a local global's initializer.
func (m *Module) ModGlobalInitExpr(id GlobalID, expr InitExpr) bool {
	g := m.GetGlobal(id)
	if g == nil || g.Kind != GlobalLocal {
		return false
	}
	g.Init = expr
	return true
}

// AddLocalMemory appends a new local memory.
func (m *Module) AddLocalMemory(ty MemoryType) MemoryID {
	mem := &Memory{Kind: MemoryLocal, Type: ty, id: MemoryID(len(m.Memories))}
	m.Memories = append(m.Memories, mem)
	return mem.id
}

// AddImportMemory adds a new memory import.
func (m *Module) AddImportMemory(module, name string, ty MemoryType) (MemoryID, ImportID) {
	imp := &Import{Module: module, Name: name, Kind: ImportKindMemory}
	m.Imports = append(m.Imports, imp)
	importID := ImportID(len(m.Imports) - 1)
	mem := &Memory{Kind: MemoryImport, ImportID: importID, Type: ty, id: MemoryID(len(m.Memories))}
	m.Memories = append(m.Memories, mem)
	return mem.id, importID
}

// DeleteMemory flags a memory (and its backing import, if any) deleted.
func (m *Module) DeleteMemory(id MemoryID) {
	mem := m.GetMemory(id)
	if mem == nil {
		return
	}
	mem.Deleted = true
	if mem.Kind == MemoryImport {
		if imp := m.getImport(mem.ImportID); imp != nil {
			imp.Deleted = true
		}
	}
}
