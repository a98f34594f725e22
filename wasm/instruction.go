package wasm

// BlockType is the signature of a block/loop/if.
type BlockType struct {
	Empty   bool
	Val     ValType // meaningful when !Empty && Func == nil
	Func    *TypeID // non-nil for a multi-value block signature
}

// MemArg is the (align, offset[, memory index]) immediate shared by memory
// load/store/atomic operators.
type MemArg struct {
	Align       uint32
	Offset      uint64
	MemoryIndex uint32
}

// Op is an operator together with whichever operand fields its opcode
// uses. Only the fields relevant to Code are populated; this keeps one
// concrete type usable for every instruction without an interface per
// opcode family.
type Op struct {
	Code Opcode

	Block *BlockType

	// Branch targets: Br/BrIf/BrOnNull/BrOnNonNull/BrOnCast/BrOnCastFail
	// use Labels[0]; BrTable uses Labels as the explicit targets plus
	// Default as the fall-through target.
	Labels  []uint32
	Default uint32

	Func   FunctionID
	Type   TypeID
	Table  TableID
	Global GlobalID
	Local  LocalID
	Data   DataID
	Elem   ElementID
	Mem    MemArg

	I32  int32
	I64  int64
	F32  uint32
	F64  uint64

	HeapTy HeapType

	// Raw carries the sub-opcode and remaining immediate bytes for
	// operators this module does not model field-by-field (currently
	// only the SIMD/vector proposal) -- it is replayed byte-for-byte at
	// encode time.
	RawSub uint32
	Raw    []byte
}

// InstrumentationMode names which instrumentation field is "current" for
// diagnostics; it does not gate which fields may be set.
type InstrumentationMode byte

const (
	ModeNone InstrumentationMode = iota
	ModeBefore
	ModeAfter
	ModeAlternate
	ModeBlockEntry
	ModeBlockExit
	ModeBlockAlt
	ModeSemanticAfter
)

// InstrumentationFlag bundles every instrumentation directive that may be
// attached to one instruction, per spec §3.
type InstrumentationFlag struct {
	Before    []Instruction
	After     []Instruction
	Alternate []Instruction // nil: unset; non-nil empty: "delete this instruction"

	BlockEntry []Instruction
	BlockExit  []Instruction
	BlockAlt   []Instruction // nil: unset; non-nil empty: "replace block with nothing"
	blockAltSet bool

	SemanticAfter []Instruction

	CurrentMode InstrumentationMode
}

// HasInstr reports whether any direct-inject field (before/after/alternate)
// is set; this mirrors orca's InstrumentationFlag::has_instr used to skip
// the per-instruction structured-directive handling fast.
func (f *InstrumentationFlag) HasInstr() bool {
	return len(f.Before) > 0 || len(f.After) > 0 || f.Alternate != nil
}

// HasStructured reports whether any block-structured or semantic directive
// remains; the resolver's erasure property requires this to be false on
// every instruction after resolution.
func (f *InstrumentationFlag) HasStructured() bool {
	return len(f.BlockEntry) > 0 || len(f.BlockExit) > 0 || f.blockAltSet || len(f.SemanticAfter) > 0
}

// SetBlockAlt records a block_alt directive. body may be empty (meaning
// "delete the block's contents") which is why presence is tracked
// separately from len(body) > 0.
func (f *InstrumentationFlag) SetBlockAlt(body []Instruction) {
	f.BlockAlt = body
	f.blockAltSet = true
}

// HasBlockAlt reports whether a block_alt directive is set.
func (f *InstrumentationFlag) HasBlockAlt() bool { return f.blockAltSet }

// ClearBlockAlt erases the block_alt directive once the resolver has
// planned it.
func (f *InstrumentationFlag) ClearBlockAlt() {
	f.BlockAlt = nil
	f.blockAltSet = false
}

// Instruction is one entry of a function body's instruction stream.
type Instruction struct {
	Op   Op
	Flag InstrumentationFlag
}

// NewInstruction wraps an Op with a zero-value InstrumentationFlag.
func NewInstruction(op Op) Instruction {
	return Instruction{Op: op}
}
