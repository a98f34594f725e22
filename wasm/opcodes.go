package wasm

// Opcode is an operator's binary-format byte, or for prefixed operators
// (bulk-memory/atomics/GC under 0xFC/0xFE/0xFB) a synthetic value in an
// extended range so every operator still fits one comparable integer.
// See https://webassembly.github.io/spec/core/binary/instructions.html
type Opcode uint32

const (
	prefixMisc   = 0xFC00 // bulk memory, table.*, saturating truncation
	prefixAtomic = 0xFE00 // threads
	prefixGC     = 0xFB00 // GC proposal
	prefixSIMD   = 0xFD00 // vector proposal (opaque payload only)
)

// Control instructions.
const (
	OpUnreachable        Opcode = 0x00
	OpNop                Opcode = 0x01
	OpBlock              Opcode = 0x02
	OpLoop               Opcode = 0x03
	OpIf                 Opcode = 0x04
	OpElse               Opcode = 0x05
	OpTry                Opcode = 0x06
	OpCatch              Opcode = 0x07
	OpThrow              Opcode = 0x08
	OpRethrow            Opcode = 0x09
	OpThrowRef           Opcode = 0x0A
	OpEnd                Opcode = 0x0B
	OpBr                 Opcode = 0x0C
	OpBrIf               Opcode = 0x0D
	OpBrTable            Opcode = 0x0E
	OpReturn             Opcode = 0x0F
	OpCall               Opcode = 0x10
	OpCallIndirect       Opcode = 0x11
	OpReturnCall         Opcode = 0x12
	OpReturnCallIndirect Opcode = 0x13
	OpCallRef            Opcode = 0x14
	OpReturnCallRef      Opcode = 0x15
	OpDelegate           Opcode = 0x18
	OpCatchAll           Opcode = 0x19
	OpDrop               Opcode = 0x1A
	OpSelect             Opcode = 0x1B
	OpSelectT            Opcode = 0x1C
)

// Continuations (stack-switching) proposal; opaque to the resolver except
// that resume_throw belongs to the trap family per spec §4.2.
const (
	OpSuspend     Opcode = 0xE0
	OpContNew     Opcode = 0xE1
	OpContBind    Opcode = 0xE2
	OpResume      Opcode = 0xE3
	OpResumeThrow Opcode = 0xE4
	OpBarrier     Opcode = 0xE5
)

// Reference instructions.
const (
	OpRefNull      Opcode = 0xD0
	OpRefIsNull    Opcode = 0xD1
	OpRefFunc      Opcode = 0xD2
	OpRefEq        Opcode = 0xD3
	OpRefAsNonNull Opcode = 0xD4
	OpBrOnNull     Opcode = 0xD5
	OpBrOnNonNull  Opcode = 0xD6
)

// GC proposal (representative subset).
const (
	OpStructNew       Opcode = prefixGC + 0x00
	OpStructNewDefault Opcode = prefixGC + 0x01
	OpStructGet       Opcode = prefixGC + 0x02
	OpStructGetS      Opcode = prefixGC + 0x03
	OpStructGetU      Opcode = prefixGC + 0x04
	OpStructSet       Opcode = prefixGC + 0x05
	OpArrayNew        Opcode = prefixGC + 0x06
	OpArrayNewDefault Opcode = prefixGC + 0x07
	OpArrayGet        Opcode = prefixGC + 0x0B
	OpArraySet        Opcode = prefixGC + 0x0E
	OpArrayLen        Opcode = prefixGC + 0x0F
	OpRefTest         Opcode = prefixGC + 0x14
	OpRefCast         Opcode = prefixGC + 0x16
	OpBrOnCast        Opcode = prefixGC + 0x18
	OpBrOnCastFail    Opcode = prefixGC + 0x19
	OpAnyConvertExtern Opcode = prefixGC + 0x1A
	OpExternConvertAny Opcode = prefixGC + 0x1B
	OpI31New          Opcode = prefixGC + 0x1C
	OpI31GetS         Opcode = prefixGC + 0x1D
	OpI31GetU         Opcode = prefixGC + 0x1E
)

// Variable instructions.
const (
	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24
)

// Table instructions.
const (
	OpTableGet   Opcode = 0x25
	OpTableSet   Opcode = 0x26
	OpTableInit  Opcode = prefixMisc + 0x0C
	OpElemDrop   Opcode = prefixMisc + 0x0D
	OpTableCopy  Opcode = prefixMisc + 0x0E
	OpTableGrow  Opcode = prefixMisc + 0x0F
	OpTableSize  Opcode = prefixMisc + 0x10
	OpTableFill  Opcode = prefixMisc + 0x11
)

// Memory instructions.
const (
	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2A
	OpF64Load    Opcode = 0x2B
	OpI32Load8S  Opcode = 0x2C
	OpI32Load8U  Opcode = 0x2D
	OpI32Load16S Opcode = 0x2E
	OpI32Load16U Opcode = 0x2F
	OpI64Load8S  Opcode = 0x30
	OpI64Load8U  Opcode = 0x31
	OpI64Load16S Opcode = 0x32
	OpI64Load16U Opcode = 0x33
	OpI64Load32S Opcode = 0x34
	OpI64Load32U Opcode = 0x35
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3A
	OpI32Store16 Opcode = 0x3B
	OpI64Store8  Opcode = 0x3C
	OpI64Store16 Opcode = 0x3D
	OpI64Store32 Opcode = 0x3E
	OpMemorySize Opcode = 0x3F
	OpMemoryGrow Opcode = 0x40

	OpMemoryInit Opcode = prefixMisc + 0x08
	OpDataDrop   Opcode = prefixMisc + 0x09
	OpMemoryCopy Opcode = prefixMisc + 0x0A
	OpMemoryFill Opcode = prefixMisc + 0x0B
)

// Atomics (threads proposal, representative subset).
const (
	OpAtomicFence     Opcode = prefixAtomic + 0x03
	OpI32AtomicLoad   Opcode = prefixAtomic + 0x10
	OpI64AtomicLoad   Opcode = prefixAtomic + 0x11
	OpI32AtomicStore  Opcode = prefixAtomic + 0x17
	OpI64AtomicStore  Opcode = prefixAtomic + 0x18
	OpMemoryAtomicNotify  Opcode = prefixAtomic + 0x00
	OpMemoryAtomicWait32  Opcode = prefixAtomic + 0x01
	OpMemoryAtomicWait64  Opcode = prefixAtomic + 0x02
)

// Numeric instructions: constants.
const (
	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44
)

// Numeric instructions: comparisons and arithmetic (no operands beyond the
// opcode itself; listed because tests build realistic function bodies).
const (
	OpI32Eqz  Opcode = 0x45
	OpI32Eq   Opcode = 0x46
	OpI32Ne   Opcode = 0x47
	OpI32LtS  Opcode = 0x48
	OpI32LtU  Opcode = 0x49
	OpI32GtS  Opcode = 0x4A
	OpI32GtU  Opcode = 0x4B
	OpI32LeS  Opcode = 0x4C
	OpI32LeU  Opcode = 0x4D
	OpI32GeS  Opcode = 0x4E
	OpI32GeU  Opcode = 0x4F

	OpI32Add Opcode = 0x6A
	OpI32Sub Opcode = 0x6B
	OpI32Mul Opcode = 0x6C
	OpI32DivS Opcode = 0x6D
	OpI32DivU Opcode = 0x6E
	OpI32RemS Opcode = 0x6F
	OpI32RemU Opcode = 0x70
	OpI32And  Opcode = 0x71
	OpI32Or   Opcode = 0x72
	OpI32Xor  Opcode = 0x73
	OpI32Shl  Opcode = 0x74
	OpI32ShrS Opcode = 0x75
	OpI32ShrU Opcode = 0x76

	OpI64Add Opcode = 0x7C
	OpI64Sub Opcode = 0x7D
	OpI64Mul Opcode = 0x7E

	OpF64Add Opcode = 0xA0
	OpF64Sub Opcode = 0xA1
	OpF64Mul Opcode = 0xA2
)

// Conversions, a small representative set.
const (
	OpI32WrapI64    Opcode = 0xA7
	OpI64ExtendI32S Opcode = 0xAC
	OpI64ExtendI32U Opcode = 0xAD
)

// IsOpener reports whether op begins a structured block.
func (op Opcode) IsOpener() bool {
	return op == OpBlock || op == OpLoop || op == OpIf
}

// IsReturnFamily reports whether op unconditionally transfers control out
// of the enclosing function, per spec §4.2 function-exit lowering.
func (op Opcode) IsReturnFamily() bool {
	switch op {
	case OpReturn, OpReturnCall, OpReturnCallIndirect, OpReturnCallRef:
		return true
	}
	return false
}

// IsTrapFamily reports whether op can abruptly leave the enclosing
// function (traps, exceptions, or continuation aborts), per spec §4.2.
func (op Opcode) IsTrapFamily() bool {
	switch op {
	case OpUnreachable, OpThrow, OpRethrow, OpThrowRef, OpResumeThrow:
		return true
	}
	return false
}

// IsBranch reports whether op is one of the branch opcodes the resolver
// must plan semantic_after delivery for.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpBr, OpBrIf, OpBrTable, OpBrOnNull, OpBrOnNonNull, OpBrOnCast, OpBrOnCastFail:
		return true
	}
	return false
}

// IsConditionalBranch reports whether op falls through to the next
// instruction when its target is not taken (as opposed to OpBr/OpBrTable,
// which never fall through).
func (op Opcode) IsConditionalBranch() bool {
	switch op {
	case OpBrIf, OpBrOnNull, OpBrOnNonNull, OpBrOnCast, OpBrOnCastFail:
		return true
	}
	return false
}

// IsIndexBearing reports whether op carries an index into one of the
// renumbered spaces (function, global, memory) and therefore must be
// rewritten during re-encoding (spec §4.3).
func (op Opcode) IsIndexBearing() bool {
	switch op {
	case OpCall, OpReturnCall, OpRefFunc, OpCallRef, OpReturnCallRef,
		OpGlobalGet, OpGlobalSet,
		OpMemorySize, OpMemoryGrow, OpMemoryInit, OpMemoryCopy, OpMemoryFill,
		OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32,
		OpI32AtomicLoad, OpI64AtomicLoad, OpI32AtomicStore, OpI64AtomicStore,
		OpMemoryAtomicNotify, OpMemoryAtomicWait32, OpMemoryAtomicWait64:
		return true
	}
	return false
}

// HasMemArg reports whether op's immediate includes a MemArg (align,
// offset, and -- when multi-memory is enabled -- a memory index).
func (op Opcode) HasMemArg() bool {
	switch op {
	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32,
		OpI32AtomicLoad, OpI64AtomicLoad, OpI32AtomicStore, OpI64AtomicStore,
		OpMemoryAtomicNotify, OpMemoryAtomicWait32, OpMemoryAtomicWait64:
		return true
	}
	return false
}
