package wasm

// ImportKind classifies what an Import entry refers to.
type ImportKind byte

const (
	ImportKindFunc ImportKind = iota
	ImportKindTable
	ImportKindMemory
	ImportKindGlobal
	ImportKindTag
)

// Import is one import-section entry (spec §3). The concrete
// function/global/memory/table/tag it backs is looked up by ImportID from
// the owning space's Import-kinded entry, not stored redundantly here.
type Import struct {
	Module string
	Name   string
	Kind   ImportKind

	// DescType is the TypeID for ImportKindFunc, otherwise unused; tables,
	// memories, and globals carry their type directly on the owning
	// Table/Memory/Global entry instead of duplicating it here.
	DescType TypeID

	CustomName string
	hasName    bool
	Deleted    bool
}

func (i *Import) SetName(name string) {
	i.CustomName = name
	i.hasName = true
}

func (i *Import) HasName() bool { return i.hasName }
