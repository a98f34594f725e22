package wasm

// GlobalKind tags which variant a Global holds.
type GlobalKind byte

const (
	GlobalImport GlobalKind = iota
	GlobalLocal
)

// InitExprKind tags an InitExpr's variant.
type InitExprKind byte

const (
	InitExprValue InitExprKind = iota
	InitExprGlobalGet
	InitExprRefNull
	InitExprRefFunc
	InitExprOpaque // a constant expression this module does not interpret, preserved as raw encoded bytes
)

// ConstValue holds the payload for InitExprValue, tagged by ValType.
type ConstValue struct {
	Type ValType
	I32  int32
	I64  int64
	F32  uint32
	F64  uint64
	V128 [16]byte
}

// InitExpr is a global/element/data offset initializer expression, per
// spec §3. Anything beyond the small enumerated set is kept as opaque,
// byte-preserving bytes rather than interpreted.
type InitExpr struct {
	Kind InitExprKind

	Value    ConstValue
	GlobalID GlobalID
	RefType  RefType
	FuncID   FunctionID

	Opaque []byte
}

// Global is a tagged {Import | Local} entry in the dense global space.
type Global struct {
	Kind GlobalKind

	ImportID ImportID

	Type    ValType
	Mutable bool
	id      GlobalID

	Init InitExpr // meaningful for GlobalLocal

	Deleted bool
}

// ID returns the id this entry was assigned at parse/creation time; it is
// never rewritten by ReorganiseIDs/Encode (see Function.ID).
func (g *Global) ID() GlobalID { return g.id }

func (g *Global) IsImport() bool { return g.Kind == GlobalImport }
func (g *Global) IsLocal() bool  { return g.Kind == GlobalLocal }

// NewParsedGlobal constructs a Global entry with its dense-space id already
// known, for the parser driver (see NewParsedFunction).
func NewParsedGlobal(kind GlobalKind, importID ImportID, ty ValType, mutable bool, init InitExpr, id GlobalID) *Global {
	return &Global{Kind: kind, ImportID: importID, Type: ty, Mutable: mutable, Init: init, id: id}
}
