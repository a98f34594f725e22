package encode

import "github.com/wasmkit/wasmkit/wasm"

// EncodeInitExpr writes a constant expression, terminated with end.
func EncodeInitExpr(w *Writer, e wasm.InitExpr, ids IDMaps) {
	switch e.Kind {
	case wasm.InitExprValue:
		switch e.Value.Type {
		case wasm.ValTypeI32:
			w.Byte(byte(wasm.OpI32Const))
			w.S32(e.Value.I32)
		case wasm.ValTypeI64:
			w.Byte(byte(wasm.OpI64Const))
			w.S64(e.Value.I64)
		case wasm.ValTypeF32:
			w.Byte(byte(wasm.OpF32Const))
			w.F32(e.Value.F32)
		case wasm.ValTypeF64:
			w.Byte(byte(wasm.OpF64Const))
			w.F64(e.Value.F64)
		}
	case wasm.InitExprGlobalGet:
		w.Byte(byte(wasm.OpGlobalGet))
		w.U32(ids.global(uint32(e.GlobalID)))
	case wasm.InitExprRefNull:
		w.Byte(byte(wasm.OpRefNull))
		w.S64(int64(e.RefType.Heap))
	case wasm.InitExprRefFunc:
		w.Byte(byte(wasm.OpRefFunc))
		w.U32(ids.function(uint32(e.FuncID)))
	case wasm.InitExprOpaque:
		w.Raw(e.Opaque)
	}
	w.Byte(byte(wasm.OpEnd))
}
