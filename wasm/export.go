package wasm

// ExportKind classifies what an Export entry refers to.
type ExportKind byte

const (
	ExportKindFunc ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
	ExportKindTag
)

// Export is one export-section entry. Index is in the space named by
// Kind; function, memory and global exports are rewritten through the id
// maps at re-encode time (spec §4.3), others pass through unchanged.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}
