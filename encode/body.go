package encode

import "github.com/wasmkit/wasmkit/wasm"

// EncodeBody writes one local function's locals declaration and
// instruction stream, applying the instructions' direct-inject
// before/after/alternate instrumentation (spec §3) as it goes. Any
// block-structured or semantic_after directive must already have been
// erased by package resolve before Encode runs; EncodeBody does not
// interpret those fields.
func EncodeBody(body *wasm.Body, ids IDMaps) []byte {
	w := NewWriter()
	w.U32(uint32(len(body.Locals)))
	for _, le := range body.Locals {
		w.U32(le.Count)
		encodeValType(w, le.ValType)
	}

	for i := range body.Instrs {
		instr := &body.Instrs[i]
		for _, before := range instr.Flag.Before {
			encodeOp(w, before.Op, ids)
		}
		if instr.Flag.Alternate != nil {
			for _, alt := range instr.Flag.Alternate {
				encodeOp(w, alt.Op, ids)
			}
		} else {
			encodeOp(w, instr.Op, ids)
		}
		for _, after := range instr.Flag.After {
			encodeOp(w, after.Op, ids)
		}
	}
	return w.Bytes()
}
