package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmkit/wasmkit/wasm"
)

func TestModifierSnapshotIsStableUnderEdits(t *testing.T) {
	body := &wasm.Body{Instrs: []wasm.Instruction{
		wasm.NewInstruction(wasm.Op{Code: wasm.OpNop}),
		wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd}),
	}}
	mod := wasm.NewModifier(body)
	snap := mod.Snapshot()

	mod.InsertBefore(0, wasm.NewInstruction(wasm.Op{Code: wasm.OpDrop}))
	mod.SetAlternate(1, []wasm.Instruction{})

	require.Len(t, snap, 2, "snapshot must not reflect later edits")
	require.Equal(t, wasm.OpNop, snap[0].Op.Code)
	require.Equal(t, wasm.OpEnd, snap[1].Op.Code)
	require.Equal(t, 2, mod.Len(), "Modifier never changes instruction count")
}

func TestModifierAllocLocalAssignsSequentialIDs(t *testing.T) {
	body := &wasm.Body{}
	id0 := body.AllocLocal(2, wasm.ValTypeI32)
	id1 := body.AllocLocal(2, wasm.ValTypeI64)

	require.Equal(t, wasm.LocalID(2), id0)
	require.Equal(t, wasm.LocalID(3), id1)
	require.Equal(t, uint32(2), body.NumLocals)
	require.Equal(t, []wasm.LocalEntry{
		{Count: 1, ValType: wasm.ValTypeI32},
		{Count: 1, ValType: wasm.ValTypeI64},
	}, body.Locals)
}

func TestBlockAltSetAndClearRoundTrip(t *testing.T) {
	var f wasm.InstrumentationFlag
	require.False(t, f.HasBlockAlt())

	f.SetBlockAlt(nil)
	require.True(t, f.HasBlockAlt(), "an explicitly empty block_alt is still 'set'")
	require.True(t, f.HasStructured())

	f.ClearBlockAlt()
	require.False(t, f.HasBlockAlt())
	require.False(t, f.HasStructured())
}
