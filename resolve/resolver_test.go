package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmkit/wasmkit/wasm"
)

func newFunc(m *wasm.Module, instrs []wasm.Instruction) (*wasm.Function, *wasm.Body) {
	body := &wasm.Body{Instrs: instrs}
	id := m.AddLocalFunction("", nil, nil, body)
	return m.GetFunction(id), body
}

func op(code wasm.Opcode) wasm.Instruction { return wasm.NewInstruction(wasm.Op{Code: code}) }

func blockOp(code wasm.Opcode) wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: code, Block: &wasm.BlockType{Empty: true}})
}

func brOp(code wasm.Opcode, label uint32) wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: code, Labels: []uint32{label}})
}

func brTableOp(labels []uint32, def uint32) wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: wasm.OpBrTable, Labels: labels, Default: def})
}

// flatten flattens an instruction stream's effective body (Before/Alternate-
// or-self/After per instruction) into a plain list of opcodes, mirroring what
// the encoder would actually emit.
func flatten(instrs []wasm.Instruction) []wasm.Opcode {
	var out []wasm.Opcode
	for _, in := range instrs {
		out = append(out, flattenOne(in)...)
	}
	return out
}

func flattenOne(in wasm.Instruction) []wasm.Opcode {
	var out []wasm.Opcode
	for _, b := range in.Flag.Before {
		out = append(out, b.Op.Code)
	}
	if in.Flag.Alternate != nil {
		for _, a := range in.Flag.Alternate {
			out = append(out, a.Op.Code)
		}
	} else {
		out = append(out, in.Op.Code)
	}
	for _, a := range in.Flag.After {
		out = append(out, a.Op.Code)
	}
	return out
}

func TestResolveNoopOnUntouchedFunction(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{op(wasm.OpNop), op(wasm.OpEnd)}
	_, body := newFunc(m, instrs)

	require.NoError(t, Resolve(m))
	require.Equal(t, instrs, body.Instrs)
}

func TestResolveInjectBeforeAndAfter(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{op(wasm.OpNop), op(wasm.OpEnd)}
	f, body := newFunc(m, instrs)
	_ = f

	mod := wasm.NewModifier(body)
	mod.InsertBefore(0, op(wasm.OpDrop))
	mod.InsertAfter(0, op(wasm.OpUnreachable))

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{wasm.OpDrop, wasm.OpNop, wasm.OpUnreachable, wasm.OpEnd}, got)
}

// TestResolveBlockAltReplacesBlock exercises spec's block_alt scenario: a
// block's contents are deleted and the block/end pair collapses to the
// alternate body, with the block's own end surviving as nothing (replaced
// by empty alt) and nested instructions auto-replaced with empty alts too.
func TestResolveBlockAltReplacesBlock(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock), // 0
		op(wasm.OpNop),        // 1 (should be deleted)
		op(wasm.OpEnd),        // 2 (closes block, becomes empty alt)
		op(wasm.OpEnd),        // 3 (function end)
	}
	_, body := newFunc(m, instrs)

	body.Instrs[0].Flag.SetBlockAlt([]wasm.Instruction{op(wasm.OpUnreachable)})

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{wasm.OpUnreachable, wasm.OpEnd}, got)
	require.False(t, body.Instrs[0].Flag.HasBlockAlt(), "block_alt directive must be cleared after resolution")
}

// TestResolveBlockAltOnElseRetainsEnd exercises the if/else block_alt
// variant: the block_alt is set on the else branch, so the if's own end
// must be retained (retain_end=true case).
func TestResolveBlockAltOnElseRetainsEnd(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpIf),
		op(wasm.OpNop),
		op(wasm.OpElse),
		op(wasm.OpDrop), // deleted
		op(wasm.OpEnd),  // closes if, retained since retain_end=true
		op(wasm.OpEnd),  // function end
	}
	_, body := newFunc(m, instrs)
	body.Instrs[2].Flag.SetBlockAlt([]wasm.Instruction{op(wasm.OpUnreachable)})

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{wasm.OpIf, wasm.OpNop, wasm.OpUnreachable, wasm.OpEnd, wasm.OpEnd}, got)
}

func TestResolveEverythingClearedAfterResolve(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock),
		op(wasm.OpNop),
		op(wasm.OpEnd),
		op(wasm.OpEnd),
	}
	f, body := newFunc(m, instrs)
	body.Instrs[0].Flag.BlockExit = []wasm.Instruction{op(wasm.OpDrop)}
	body.Instrs[0].Flag.SemanticAfter = []wasm.Instruction{op(wasm.OpNop)}

	require.NoError(t, Resolve(m))
	require.False(t, f.Body.HasSpecialInstr(), "resolver erasure property: no structured directives may remain")
}

// TestResolveBlockExitInjectsBeforeEnd checks a block_exit directive on a
// block opener lands immediately before that block's matching end.
func TestResolveBlockExitInjectsBeforeEnd(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock), // 0
		op(wasm.OpNop),        // 1
		op(wasm.OpEnd),        // 2
		op(wasm.OpEnd),        // 3
	}
	_, body := newFunc(m, instrs)
	body.Instrs[0].Flag.BlockExit = []wasm.Instruction{op(wasm.OpDrop)}

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{wasm.OpBlock, wasm.OpNop, wasm.OpDrop, wasm.OpEnd, wasm.OpEnd}, got)
}

// TestResolveFunctionExitWrapsEveryReturn checks spec's function entry/exit
// lowering: ExitBody must run before every return-family/trap-family
// instruction and at the tail, wrapped in a synthesized outer block.
func TestResolveFunctionExitWrapsEveryReturn(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		op(wasm.OpNop),
		op(wasm.OpReturn),
		op(wasm.OpEnd),
	}
	_, body := newFunc(m, instrs)
	body.SetEntry([]wasm.Instruction{op(wasm.OpDrop)})
	body.SetExit([]wasm.Instruction{op(wasm.OpUnreachable)})

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{
		wasm.OpBlock,
		wasm.OpDrop,
		wasm.OpNop,
		wasm.OpUnreachable,
		wasm.OpReturn,
		wasm.OpEnd,
		wasm.OpUnreachable,
		wasm.OpEnd,
	}, got)
	require.Nil(t, body.EntryBody)
	require.Nil(t, body.ExitBody)
}

// TestResolveSemanticAfterOnBrIf exercises the branch semantic_after
// lowering: a flag local records which branch fired, the directive runs
// unconditionally right after the conditional branch, and a flagged copy
// is woven into the targeted block's end.
func TestResolveSemanticAfterOnBrIf(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock), // 0, depth 1
		brOp(wasm.OpBrIf, 0),  // 1, targets depth 1 (relative 0)
		op(wasm.OpNop),        // 2
		op(wasm.OpEnd),        // 3, closes depth 1
		op(wasm.OpEnd),        // 4, function end
	}
	_, body := newFunc(m, instrs)
	body.Instrs[1].Flag.SemanticAfter = []wasm.Instruction{op(wasm.OpDrop)}

	require.NoError(t, Resolve(m))

	require.Equal(t, uint32(1), body.NumLocals, "a flag local must be allocated")
	require.Len(t, body.Locals, 1)
	require.Equal(t, wasm.ValTypeI32, body.Locals[0].ValType)

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{
		wasm.OpBlock,
		wasm.OpI32Const, wasm.OpLocalSet, // flag = 1
		wasm.OpBrIf,
		wasm.OpI32Const, wasm.OpLocalSet, // flag = 0
		wasm.OpDrop, // unconditional directive copy after a conditional branch
		wasm.OpNop,
		wasm.OpLocalGet, wasm.OpIf, wasm.OpDrop, wasm.OpEnd, // flagged ladder at block end
		wasm.OpEnd,
		wasm.OpEnd,
	}, got)
	require.False(t, body.Instrs[1].Flag.HasStructured())
}

// TestResolveSemanticAfterOnUnconditionalBr checks that an unconditional br
// does NOT get the directive injected again right after itself -- only the
// flagged copy at the target block's end runs.
func TestResolveSemanticAfterOnUnconditionalBr(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock),
		brOp(wasm.OpBr, 0),
		op(wasm.OpEnd),
		op(wasm.OpEnd),
	}
	_, body := newFunc(m, instrs)
	body.Instrs[1].Flag.SemanticAfter = []wasm.Instruction{op(wasm.OpDrop)}

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{
		wasm.OpBlock,
		wasm.OpI32Const, wasm.OpLocalSet,
		wasm.OpBr,
		wasm.OpI32Const, wasm.OpLocalSet, // flag=0, no directive copy here (unconditional)
		wasm.OpLocalGet, wasm.OpIf, wasm.OpDrop, wasm.OpEnd,
		wasm.OpEnd,
		wasm.OpEnd,
	}, got)
}

// TestResolveNestedBlockAltClearsOwnDirective covers the single-active-
// deletion-region rule: a nested block opened while an outer block_alt
// deletion is in progress gets replaced with an empty alt, and its own
// block_alt (even though never acted on) must still be cleared so the
// erasure property holds.
func TestResolveNestedBlockAltClearsOwnDirective(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock), // 0 outer, deletion starts here
		blockOp(wasm.OpBlock), // 1 inner, has its own (ignored) block_alt
		op(wasm.OpNop),        // 2
		op(wasm.OpEnd),        // 3 closes inner
		op(wasm.OpEnd),        // 4 closes outer
		op(wasm.OpEnd),        // 5 function end
	}
	f, body := newFunc(m, instrs)
	body.Instrs[0].Flag.SetBlockAlt([]wasm.Instruction{op(wasm.OpUnreachable)})
	body.Instrs[1].Flag.SetBlockAlt([]wasm.Instruction{op(wasm.OpDrop)})

	require.NoError(t, Resolve(m))

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{wasm.OpUnreachable, wasm.OpEnd}, got)
	require.False(t, f.Body.HasSpecialInstr())
}

// TestResolveBrTableDedupesRepeatedTargets checks that a br_table with the
// same block targeted by more than one label schedules the guarded
// semantic_after body once at that target, not once per repeated label.
func TestResolveBrTableDedupesRepeatedTargets(t *testing.T) {
	m := wasm.NewModule()
	instrs := []wasm.Instruction{
		blockOp(wasm.OpBlock),           // 0 outer, depth 1
		blockOp(wasm.OpBlock),           // 1 inner, depth 2
		brTableOp([]uint32{0, 0}, 1),    // 2, both labels target inner (depth 2), default targets outer (depth 1)
		op(wasm.OpEnd),                  // 3 closes inner
		op(wasm.OpEnd),                  // 4 closes outer
		op(wasm.OpEnd),                  // 5 function end
	}
	_, body := newFunc(m, instrs)
	body.Instrs[2].Flag.SemanticAfter = []wasm.Instruction{op(wasm.OpDrop)}

	require.NoError(t, Resolve(m))

	require.Equal(t, uint32(1), body.NumLocals, "a single flag local must be allocated")

	got := flatten(body.Instrs)
	require.Equal(t, []wasm.Opcode{
		wasm.OpBlock,
		wasm.OpBlock,
		wasm.OpI32Const, wasm.OpLocalSet, // flag = 1
		wasm.OpBrTable,
		wasm.OpI32Const, wasm.OpLocalSet, // flag = 0
		wasm.OpLocalGet, wasm.OpIf, wasm.OpDrop, wasm.OpEnd, // inner end: exactly one guarded copy, not two
		wasm.OpEnd,
		wasm.OpLocalGet, wasm.OpIf, wasm.OpDrop, wasm.OpEnd, // outer end: the default target's copy
		wasm.OpEnd,
		wasm.OpEnd,
	}, got)
}
