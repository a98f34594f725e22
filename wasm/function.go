package wasm

// FunctionKind tags which variant a Function holds.
type FunctionKind byte

const (
	FunctionImport FunctionKind = iota
	FunctionLocal
)

// Function is a tagged {Import | Local} entry in the dense function space,
// per spec §3. Imports occupy the low indices by the canonical Wasm rule;
// ordering is restored lazily by reorganisation (spec §4.3) rather than
// enforced eagerly on every edit.
type Function struct {
	Kind FunctionKind

	// Import variant.
	ImportID ImportID

	// Both variants.
	TypeID TypeID
	id     FunctionID // the id this entry was assigned at parse/creation time

	// Local variant.
	Body       *Body
	ParamCount int

	Name    string
	hasName bool
	Deleted bool
}

// ID returns the id this entry was assigned at parse/creation time. It is
// never updated by ReorganiseIDs/Encode -- Encode stays a pure function of
// module state, so callers needing the post-reorganisation position must
// go through the id map Encode produces, not this field.
func (f *Function) ID() FunctionID { return f.id }

// NewParsedFunction constructs a Function entry with its dense-space id
// already known, for use by the parser driver assembling the function
// space directly from binary order (spec §4.1) rather than through the
// incremental manipulation API (spec §4.4).
func NewParsedFunction(kind FunctionKind, importID ImportID, typeID TypeID, body *Body, paramCount int, id FunctionID) *Function {
	return &Function{Kind: kind, ImportID: importID, TypeID: typeID, Body: body, ParamCount: paramCount, id: id}
}

// SetName sets the function's custom name.
func (f *Function) SetName(name string) {
	f.Name = name
	f.hasName = true
}

// HasName reports whether a custom name was set.
func (f *Function) HasName() bool { return f.hasName }

// IsImport reports whether this entry is currently import-kinded. Note
// that kind reflects the *current* state, which can change via
// ConvertImportToLocal/ConvertLocalToImport independent of where the
// import entry itself originated.
func (f *Function) IsImport() bool { return f.Kind == FunctionImport }

// IsLocal reports whether this entry is currently local-kinded.
func (f *Function) IsLocal() bool { return f.Kind == FunctionLocal }
