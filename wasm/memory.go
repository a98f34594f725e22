package wasm

// MemoryKind tags which variant a Memory holds.
type MemoryKind byte

const (
	MemoryImport MemoryKind = iota
	MemoryLocal
)

// MemoryType describes a memory's page limits.
type MemoryType struct {
	Min    uint64
	Max    *uint64
	Shared bool
	Is64   bool
}

// Memory is a tagged {Import | Local} entry in the dense memory space.
type Memory struct {
	Kind     MemoryKind
	ImportID ImportID
	id       MemoryID

	Type MemoryType

	Deleted bool
}

// ID returns the id this entry was assigned at parse/creation time; it is
// never rewritten by ReorganiseIDs/Encode (see Function.ID).
func (m *Memory) ID() MemoryID   { return m.id }
func (m *Memory) IsImport() bool { return m.Kind == MemoryImport }
func (m *Memory) IsLocal() bool  { return m.Kind == MemoryLocal }

// NewParsedMemory constructs a Memory entry with its dense-space id already
// known, for the parser driver (see NewParsedFunction).
func NewParsedMemory(kind MemoryKind, importID ImportID, ty MemoryType, id MemoryID) *Memory {
	return &Memory{Kind: kind, ImportID: importID, Type: ty, id: id}
}

// TableType describes a table's element type and limits.
type TableType struct {
	RefType RefType
	Min     uint32
	Max     *uint32
}

// TableKind tags which variant a Table holds.
type TableKind byte

const (
	TableImport TableKind = iota
	TableLocal
)

// Table is a tagged {Import | Local} entry in the dense table space. The
// spec does not define a manipulation API for tables (§4.4 only covers
// functions/globals/memories), so tables carry no reorganisation id and
// are not renumbered at encode time -- their index equals their position
// in Module.Tables.
type Table struct {
	Kind     TableKind
	ImportID ImportID

	Type TableType

	Deleted bool
}

func (t *Table) IsImport() bool { return t.Kind == TableImport }
func (t *Table) IsLocal() bool  { return t.Kind == TableLocal }
