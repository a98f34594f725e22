package encode

import "github.com/wasmkit/wasmkit/wasm"

// IDMaps carries the id-renumbering tables ReorganiseIDs produces; Encode
// uses them to rewrite every index-bearing operand to its post-reorganise
// value (spec §4.3, "renumber on the way out"). A lookup of an id that is
// absent from a non-nil table (an entry that was deleted) panics.
type IDMaps struct {
	Func   map[uint32]uint32
	Global map[uint32]uint32
	Memory map[uint32]uint32
}

func (m IDMaps) function(id uint32) uint32 {
	if m.Func == nil {
		return id
	}
	if v, ok := m.Func[id]; ok {
		return v
	}
	panic("encode: reference to a deleted or unknown function")
}

func (m IDMaps) global(id uint32) uint32 {
	if m.Global == nil {
		return id
	}
	if v, ok := m.Global[id]; ok {
		return v
	}
	panic("encode: reference to a deleted or unknown global")
}

func (m IDMaps) memory(id uint32) uint32 {
	if m.Memory == nil {
		return id
	}
	if v, ok := m.Memory[id]; ok {
		return v
	}
	panic("encode: reference to a deleted or unknown memory")
}

// EncodeInstructions writes a function body's operator stream, id-remapping
// every function/global/memory-bearing operand through ids.
func EncodeInstructions(w *Writer, instrs []wasm.Instruction, ids IDMaps) {
	for i := range instrs {
		encodeOp(w, instrs[i].Op, ids)
	}
}

func encodeOp(w *Writer, op wasm.Op, ids IDMaps) {
	b, sub, hasSub := splitCode(op.Code)
	w.Byte(b)
	if hasSub {
		w.U32(sub)
	}

	switch op.Code {
	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpTry:
		encodeBlockType(w, op.Block)

	case wasm.OpSelectT:
		w.U32(op.Default)
		w.Raw(op.Raw)

	case wasm.OpContNew, wasm.OpContBind:
		w.U32(uint32(op.Type))

	case wasm.OpBr, wasm.OpBrIf, wasm.OpBrOnNull, wasm.OpBrOnNonNull:
		w.U32(op.Labels[0])

	case wasm.OpBrTable:
		w.U32(uint32(len(op.Labels)))
		for _, l := range op.Labels {
			w.U32(l)
		}
		w.U32(op.Default)

	case wasm.OpThrow, wasm.OpRethrow, wasm.OpCatch, wasm.OpDelegate, wasm.OpCatchAll:
		w.U32(uint32(op.Table))

	case wasm.OpCall, wasm.OpReturnCall, wasm.OpRefFunc:
		w.U32(ids.function(uint32(op.Func)))

	case wasm.OpCallIndirect, wasm.OpReturnCallIndirect:
		w.U32(uint32(op.Type))
		w.U32(uint32(op.Table))

	case wasm.OpCallRef, wasm.OpReturnCallRef:
		w.U32(uint32(op.Type))

	case wasm.OpRefNull:
		w.S64(int64(op.HeapTy))

	case wasm.OpBrOnCast, wasm.OpBrOnCastFail:
		w.U32(op.Labels[0])
		w.S64(int64(int32(op.Default)))
		w.S64(int64(op.HeapTy))

	case wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee:
		w.U32(uint32(op.Local))

	case wasm.OpGlobalGet, wasm.OpGlobalSet:
		w.U32(ids.global(uint32(op.Global)))

	case wasm.OpTableGet, wasm.OpTableSet:
		w.U32(uint32(op.Table))

	case wasm.OpI32Const:
		w.S32(op.I32)

	case wasm.OpI64Const:
		w.S64(op.I64)

	case wasm.OpF32Const:
		w.F32(op.F32)

	case wasm.OpF64Const:
		w.F64(op.F64)

	case wasm.OpMemorySize, wasm.OpMemoryGrow:
		w.U32(ids.memory(op.Mem.MemoryIndex))

	case wasm.OpMemoryCopy:
		w.U32(ids.memory(op.Mem.MemoryIndex))
		w.U32(ids.memory(op.Default))

	case wasm.OpMemoryFill:
		w.U32(ids.memory(op.Mem.MemoryIndex))

	case wasm.OpMemoryInit:
		w.U32(uint32(op.Data))
		w.U32(ids.memory(op.Mem.MemoryIndex))

	case wasm.OpDataDrop:
		w.U32(uint32(op.Data))

	case wasm.OpTableInit:
		w.U32(uint32(op.Elem))
		w.U32(uint32(op.Table))

	case wasm.OpElemDrop:
		w.U32(uint32(op.Elem))

	case wasm.OpTableCopy:
		w.U32(uint32(op.Table))
		w.U32(op.Default)

	case wasm.OpTableGrow, wasm.OpTableSize, wasm.OpTableFill:
		w.U32(uint32(op.Table))

	case wasm.OpAtomicFence:
		w.Byte(0)

	default:
		if op.Code.HasMemArg() {
			encodeMemArg(w, op.Mem, ids)
			return
		}
		if hasSub && len(op.Raw) > 0 {
			w.Raw(op.Raw)
		}
	}
}

func encodeMemArg(w *Writer, mem wasm.MemArg, ids IDMaps) {
	memIdx := ids.memory(mem.MemoryIndex)
	align := mem.Align
	if memIdx != 0 {
		align |= 0x40
	}
	w.U32(align)
	if memIdx != 0 {
		w.U32(memIdx)
	}
	w.U64(mem.Offset)
}

func encodeBlockType(w *Writer, bt *wasm.BlockType) {
	if bt == nil || bt.Empty {
		w.Byte(0x40)
		return
	}
	if bt.Func != nil {
		w.S64(int64(*bt.Func))
		return
	}
	w.Byte(byte(bt.Val))
}

// splitCode inverts the prefix-shift decode/operators.go's decodeOp
// applies: opcodes at or above the first prefix range re-split into their
// leading byte and sub-opcode value.
func splitCode(code wasm.Opcode) (b byte, sub uint32, hasSub bool) {
	if code < 0x100 {
		return byte(code), 0, false
	}
	prefix := byte(code >> 8)
	return prefix, uint32(code) - uint32(prefix)<<8, true
}
