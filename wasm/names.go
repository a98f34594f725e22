package wasm

// NameSection holds the custom "name" section's sub-maps. Per spec §9
// ("Name-section fidelity"), only the function sub-map is regenerated on
// re-encode; the others round-trip as opaque captured records, sufficient
// for encode-equality on unedited modules.
type NameSection struct {
	ModuleName string
	hasModule  bool

	// FuncNames is rebuilt at encode time from Function.Name/HasName, so
	// it is not stored here; see encode/module.go.

	LocalNames  map[uint32]map[uint32]string // funcIdx -> (localIdx -> name)
	LabelNames  map[uint32]map[uint32]string
	TypeNames   map[uint32]string
	TableNames  map[uint32]string
	MemoryNames map[uint32]string
	GlobalNames map[uint32]string
	ElemNames   map[uint32]string
	DataNames   map[uint32]string
	FieldNames  map[uint32]map[uint32]string // typeIdx -> (fieldIdx -> name)
	TagNames    map[uint32]string
}

func (n *NameSection) SetModuleName(name string) {
	n.ModuleName = name
	n.hasModule = true
}

func (n *NameSection) HasModuleName() bool { return n.hasModule }
