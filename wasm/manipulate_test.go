package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmkit/wasmkit/wasm"
)

func TestAddFuncTypeInterns(t *testing.T) {
	m := wasm.NewModule()
	a := m.AddFuncType([]wasm.ValType{wasm.ValTypeI32}, []wasm.ValType{wasm.ValTypeI32})
	b := m.AddFuncType([]wasm.ValType{wasm.ValTypeI32}, []wasm.ValType{wasm.ValTypeI32})
	c := m.AddFuncType([]wasm.ValType{wasm.ValTypeI64}, []wasm.ValType{wasm.ValTypeI32})

	require.Equal(t, a, b, "identical signatures must be interned to the same type")
	require.NotEqual(t, a, c)
}

func TestConvertLocalToImportClearsBody(t *testing.T) {
	m := wasm.NewModule()
	id := m.AddLocalFunction("f", nil, nil, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})
	typeID := m.AddFuncType(nil, nil)

	ok := m.ConvertLocalToImport(id, "env", "f", typeID)
	require.True(t, ok)

	f := m.GetFunction(id)
	require.True(t, f.IsImport())
	require.Nil(t, f.Body)

	// Converting an already-imported function again must fail.
	require.False(t, m.ConvertLocalToImport(id, "env", "f", typeID))
}

func TestConvertImportToLocalRejectsAlreadyLocal(t *testing.T) {
	m := wasm.NewModule()
	id := m.AddLocalFunction("f", nil, nil, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})
	ok := m.ConvertImportToLocal(id, &wasm.Body{})
	require.False(t, ok, "a local function cannot be converted to local again")
}

func TestDeleteFunctionMarksBackingImportDeleted(t *testing.T) {
	m := wasm.NewModule()
	typeID := m.AddFuncType(nil, nil)
	id, importID := m.AddImportFunction("env", "f", typeID)

	m.DeleteFunction(id)

	require.True(t, m.GetFunction(id).Deleted)
	require.True(t, m.Imports[importID].Deleted)
}
