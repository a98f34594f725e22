package decode

import "github.com/wasmkit/wasmkit/wasm"

// decodeInitExpr reads a constant expression (global/element/data offset
// initializer), recognizing the small set spec §3 models structurally and
// preserving anything else (e.g. extended-const arithmetic) as opaque,
// byte-exact bytes.
func decodeInitExpr(r *Reader) (wasm.InitExpr, error) {
	startPos := r.Pos()
	b, err := r.Byte()
	if err != nil {
		return wasm.InitExpr{}, err
	}
	switch wasm.Opcode(b) {
	case wasm.OpI32Const:
		v, err := r.S32()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprValue, Value: wasm.ConstValue{Type: wasm.ValTypeI32, I32: v}}, nil

	case wasm.OpI64Const:
		v, err := r.S64()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprValue, Value: wasm.ConstValue{Type: wasm.ValTypeI64, I64: v}}, nil

	case wasm.OpF32Const:
		v, err := r.F32()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprValue, Value: wasm.ConstValue{Type: wasm.ValTypeF32, F32: v}}, nil

	case wasm.OpF64Const:
		v, err := r.F64()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprValue, Value: wasm.ConstValue{Type: wasm.ValTypeF64, F64: v}}, nil

	case wasm.OpGlobalGet:
		idx, err := r.U32()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprGlobalGet, GlobalID: wasm.GlobalID(idx)}, nil

	case wasm.OpRefNull:
		ht, err := r.S64()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprRefNull, RefType: wasm.RefType{Nullable: true, Heap: wasm.HeapType(ht)}}, nil

	case wasm.OpRefFunc:
		idx, err := r.U32()
		if err != nil {
			return wasm.InitExpr{}, err
		}
		if err := consumeEnd(r); err != nil {
			return wasm.InitExpr{}, err
		}
		return wasm.InitExpr{Kind: wasm.InitExprRefFunc, FuncID: wasm.FunctionID(idx)}, nil

	default:
		// Extended-const arithmetic or anything else this module does not
		// interpret structurally: scan to the balancing end and keep the
		// bytes verbatim. Valid init expressions never nest blocks, so a
		// flat scan for the next End suffices.
		r.pos = startPos
		for {
			op, err := r.Byte()
			if err != nil {
				return wasm.InitExpr{}, err
			}
			if wasm.Opcode(op) == wasm.OpEnd {
				break
			}
			if err := skipOperand(r, wasm.Opcode(op)); err != nil {
				return wasm.InitExpr{}, err
			}
		}
		raw := append([]byte(nil), r.Slice(startPos)[:r.pos-startPos-1]...)
		return wasm.InitExpr{Kind: wasm.InitExprOpaque, Opaque: raw}, nil
	}
}

func consumeEnd(r *Reader) error {
	b, err := r.Byte()
	if err != nil {
		return err
	}
	if wasm.Opcode(b) != wasm.OpEnd {
		return errMissingEnd
	}
	return nil
}

type missingEndError struct{}

func (missingEndError) Error() string { return "decode: expected end of constant expression" }

var errMissingEnd missingEndError

// skipOperand consumes (without interpreting) the immediate of one
// extended-const arithmetic opcode, the only family valid here besides
// what decodeInitExpr already handles directly.
func skipOperand(r *Reader, op wasm.Opcode) error {
	switch op {
	case wasm.OpI32Const:
		_, err := r.S32()
		return err
	case wasm.OpI64Const:
		_, err := r.S64()
		return err
	case wasm.OpGlobalGet:
		_, err := r.U32()
		return err
	default:
		// Plain arithmetic (add/sub/mul) carries no immediate.
		return nil
	}
}
