package encode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmkit/wasmkit/decode"
	"github.com/wasmkit/wasmkit/encode"
	"github.com/wasmkit/wasmkit/wasm"
)

func buildAddOne(t *testing.T) *wasm.Module {
	t.Helper()
	m := wasm.NewModule()
	body := &wasm.Body{Instrs: []wasm.Instruction{
		wasm.NewInstruction(wasm.Op{Code: wasm.OpLocalGet, Local: 0}),
		wasm.NewInstruction(wasm.Op{Code: wasm.OpI32Const, I32: 1}),
		wasm.NewInstruction(wasm.Op{Code: wasm.OpI32Add}),
		wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd}),
	}}
	id := m.AddLocalFunction("add_one", []wasm.ValType{wasm.ValTypeI32}, []wasm.ValType{wasm.ValTypeI32}, body)
	m.Exports = map[string]*wasm.Export{
		"add_one": {Name: "add_one", Kind: wasm.ExportKindFunc, Index: uint32(id)},
	}
	return m
}

// TestRoundTripIdentity checks spec's identity property: a module built via
// the manipulation API, encoded, then re-parsed, has the same observable
// shape (exports, function signature, instruction stream).
func TestRoundTripIdentity(t *testing.T) {
	m := buildAddOne(t)

	bin := encode.Encode(m)
	require.NotEmpty(t, bin)

	m2, perr := decode.Parse(bin, true)
	require.Nil(t, perr, "re-parse of our own encoded output must succeed")
	require.Equal(t, 1, m2.NumFuncs())

	exp, ok := m2.Exports["add_one"]
	require.True(t, ok)
	require.Equal(t, wasm.ExportKindFunc, exp.Kind)

	f := m2.GetFunction(wasm.FunctionID(exp.Index))
	require.NotNil(t, f)
	require.True(t, f.IsLocal())

	ft := m2.GetType(f.TypeID)
	require.NotNil(t, ft)
	require.Equal(t, []wasm.ValType{wasm.ValTypeI32}, ft.Params)
	require.Equal(t, []wasm.ValType{wasm.ValTypeI32}, ft.Results)

	var ops []wasm.Opcode
	for _, in := range f.Body.Instrs {
		ops = append(ops, in.Op.Code)
	}
	require.Equal(t, []wasm.Opcode{wasm.OpLocalGet, wasm.OpI32Const, wasm.OpI32Add, wasm.OpEnd}, ops)
}

// TestEncodeDeterministic checks spec's determinism property: two modules
// built the same way encode to byte-identical output.
func TestEncodeDeterministic(t *testing.T) {
	m := buildAddOne(t)
	a := encode.Encode(m)

	m2 := buildAddOne(t)
	b := encode.Encode(m2)

	require.Equal(t, a, b)
}

// TestEncodeDeletedStartLogsWarningInsteadOfPanic checks spec §7's
// exception to the dangling-reference panic rule: a deleted start function
// is logged and its section omitted, not a hard abort.
func TestEncodeDeletedStartLogsWarningInsteadOfPanic(t *testing.T) {
	m := buildAddOne(t)
	start := wasm.FunctionID(0)
	m.Start = &start
	delete(m.Exports, "add_one") // only the start entry references the function
	m.DeleteFunction(start)

	require.NotPanics(t, func() {
		encode.Encode(m)
	})
}

// TestEncodePanicsOnDanglingExport checks the general dangling-reference
// rule still panics for references other than a deleted start function.
func TestEncodePanicsOnDanglingExport(t *testing.T) {
	m := buildAddOne(t)
	m.DeleteFunction(wasm.FunctionID(0))

	require.Panics(t, func() {
		encode.Encode(m)
	})
}

// TestEncodeIdempotentAfterConvertImportToLocal is the concrete regression
// for spec §3's re-encode idempotence / §8's "encode is a pure function of
// module state": build [imp0, imp1, loc2], convert imp0 to local (so
// reorganisation must move it past imp1), and check that encoding twice in
// a row produces byte-identical output and that a call to the converted
// function is rewritten to the same correct index both times -- not an
// identity map on the second pass because reorganisation already happened
// once.
func TestEncodeIdempotentAfterConvertImportToLocal(t *testing.T) {
	m := wasm.NewModule()
	typeID := m.AddFuncType(nil, nil)
	imp0, _ := m.AddImportFunction("env", "imp0", typeID)
	_, _ = m.AddImportFunction("env", "imp1", typeID)

	callerBody := &wasm.Body{Instrs: []wasm.Instruction{
		wasm.NewInstruction(wasm.Op{Code: wasm.OpCall, Func: imp0}),
		wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd}),
	}}
	caller := m.AddLocalFunction("caller", nil, nil, callerBody)

	ok := m.ConvertImportToLocal(imp0, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})
	require.True(t, ok)

	m.Exports = map[string]*wasm.Export{
		"caller":       {Name: "caller", Kind: wasm.ExportKindFunc, Index: uint32(caller)},
		"converted_fn": {Name: "converted_fn", Kind: wasm.ExportKindFunc, Index: uint32(imp0)},
	}

	first := encode.Encode(m)
	second := encode.Encode(m)
	require.Equal(t, first, second, "Encode must be idempotent: repeated calls must not mutate module state")

	parsed, perr := decode.Parse(first, true)
	require.Nil(t, perr)

	convertedIdx := parsed.Exports["converted_fn"].Index
	callerFn := parsed.GetFunction(wasm.FunctionID(parsed.Exports["caller"].Index))
	require.NotNil(t, callerFn)
	require.Equal(t, wasm.OpCall, callerFn.Body.Instrs[0].Op.Code)
	require.Equal(t, convertedIdx, uint32(callerFn.Body.Instrs[0].Op.Func),
		"the call must target the converted function's post-reorganisation index")
}
