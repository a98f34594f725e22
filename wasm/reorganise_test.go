package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmkit/wasmkit/wasm"
)

// TestReorganiseKeepsImportsBeforeLocals builds a module the "wrong" way
// round (one import added after a local already exists) via
// ConvertLocalToImport, and checks ReorganiseIDs restores the invariant.
func TestReorganiseKeepsImportsBeforeLocals(t *testing.T) {
	m := wasm.NewModule()

	localID := m.AddLocalFunction("local_fn", nil, nil, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})
	typeID := m.AddFuncType(nil, nil)
	ok := m.ConvertLocalToImport(localID, "env", "imported_fn", typeID)
	require.True(t, ok)

	otherLocal := m.AddLocalFunction("other_local", nil, nil, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})

	funcMap, _, _ := m.ReorganiseIDs()

	require.True(t, m.Functions[0].IsImport())
	require.True(t, m.Functions[1].IsLocal())

	require.Equal(t, uint32(0), funcMap[uint32(localID)])
	require.Equal(t, uint32(1), funcMap[uint32(otherLocal)])
}

// TestReorganiseDropsDeletedEntries checks a deleted function disappears
// from the post-reorganisation function space entirely.
func TestReorganiseDropsDeletedEntries(t *testing.T) {
	m := wasm.NewModule()
	keep := m.AddLocalFunction("keep", nil, nil, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})
	drop := m.AddLocalFunction("drop", nil, nil, &wasm.Body{
		Instrs: []wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})},
	})
	m.DeleteFunction(drop)

	funcMap, _, _ := m.ReorganiseIDs()

	require.Len(t, m.Functions, 1)
	require.Equal(t, uint32(0), funcMap[uint32(keep)])
	_, stillThere := funcMap[uint32(drop)]
	require.False(t, stillThere)
}
