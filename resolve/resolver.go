// Package resolve implements the instrumentation resolver (spec §4.2): the
// pass that lowers block-structured and semantic-branch instrumentation
// directives into the concrete before/after/alternate edits the encoder
// already knows how to emit.
package resolve

import "github.com/wasmkit/wasmkit/wasm"

// pendingBody is one entry of a resolve_on_else_or_end / resolve_on_end
// bucket. A nil flag means "inject unconditionally"; a non-nil flag means
// this body only runs when the named local is non-zero, and must be woven
// into the bucket's if/else-if chain alongside any other flagged entries.
type pendingBody struct {
	mode   string // "before" or "after"
	instrs []wasm.Instruction
	flag   *wasm.LocalID
}

// Resolve walks every local function with pending block-structured or
// semantic instrumentation and lowers it in place. Functions untouched by
// high-level instrumentation are left alone.
func Resolve(m *wasm.Module) error {
	for _, f := range m.Functions {
		if !f.IsLocal() || f.Deleted || f.Body == nil {
			continue
		}
		if f.Body.HasSpecialInstr() || len(f.Body.EntryBody) > 0 || len(f.Body.ExitBody) > 0 {
			resolveFunction(m, f)
		}
	}
	return nil
}

func resolveFunction(m *wasm.Module, f *wasm.Function) {
	body := f.Body

	if len(body.ExitBody) > 0 {
		bt := wrapperBlockType(m, f)
		body.EntryBody = append([]wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpBlock, Block: bt})}, body.EntryBody...)
	}

	mod := wasm.NewModifier(body)
	snapshot := mod.Snapshot()
	last := len(snapshot) - 1

	entryBody := body.EntryBody
	exitBody := body.ExitBody

	depth := 0
	var deleteBlock *int
	retainEnd := true
	resolveOnElseOrEnd := map[int][]pendingBody{}
	resolveOnEnd := map[int][]pendingBody{}

	for idx, instr := range snapshot {
		op := instr.Op

		if len(entryBody) > 0 && idx == 0 {
			mod.InsertBefore(idx, entryBody...)
			entryBody = nil
			body.EntryBody = nil
		}

		if len(exitBody) > 0 {
			if isReturnFamily(op.Code) || isTrapFamily(op.Code) {
				mod.InsertBefore(idx, cloneInstrs(exitBody)...)
			}
			if idx == last {
				closer := append([]wasm.Instruction{wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd})}, cloneInstrs(exitBody)...)
				mod.InsertBefore(idx, closer...)
				exitBody = nil
				body.ExitBody = nil
			}
		}

		skipDrain := false

		switch op.Code {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			depth++
			id := depth
			if instr.Flag.HasBlockAlt() && deleteBlock == nil {
				mod.SetAlternate(idx, instr.Flag.BlockAlt)
				mod.ClearBlockAlt(idx)
				deleteBlock = &id
				retainEnd = false
			} else if deleteBlock != nil {
				mod.EmptyAlternateAt(idx)
				mod.ClearBlockAlt(idx) // a nested block_alt is moot once outer deletion already won
			}

		case wasm.OpElse:
			drain(mod, idx, resolveOnElseOrEnd[depth])
			delete(resolveOnElseOrEnd, depth)
			if instr.Flag.HasBlockAlt() && deleteBlock == nil {
				mod.SetAlternate(idx, instr.Flag.BlockAlt)
				mod.ClearBlockAlt(idx)
				id := depth
				deleteBlock = &id
				retainEnd = true
			} else if deleteBlock != nil {
				mod.EmptyAlternateAt(idx)
				mod.ClearBlockAlt(idx)
			}

		case wasm.OpEnd:
			poppedID := depth
			depth--
			if deleteBlock != nil && *deleteBlock == poppedID {
				deleteBlock = nil
				if !retainEnd {
					mod.EmptyAlternateAt(idx)
					retainEnd = true
					skipDrain = true
				}
			} else if deleteBlock != nil {
				// end of a nested block/loop/if opened while a deletion was
				// already in progress -- it was replaced with an empty
				// alternate too, so its matching end must go with it.
				mod.EmptyAlternateAt(idx)
			}
			if !skipDrain {
				drain(mod, idx, resolveOnElseOrEnd[poppedID])
				delete(resolveOnElseOrEnd, poppedID)
				drain(mod, idx, resolveOnEnd[poppedID])
				delete(resolveOnEnd, poppedID)
			}

		default:
			if deleteBlock != nil {
				mod.EmptyAlternateAt(idx)
			}
		}

		live := &body.Instrs[idx].Flag

		if len(live.BlockEntry) > 0 {
			switch op.Code {
			case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse:
				mod.InsertAfter(idx, live.BlockEntry...)
			}
			mod.ClearBlockEntry(idx)
		}

		if len(live.BlockExit) > 0 {
			switch op.Code {
			case wasm.OpIf:
				resolveOnElseOrEnd[depth] = append(resolveOnElseOrEnd[depth], pendingBody{mode: "before", instrs: live.BlockExit})
			case wasm.OpBlock, wasm.OpLoop, wasm.OpElse:
				resolveOnEnd[depth] = append(resolveOnEnd[depth], pendingBody{mode: "before", instrs: live.BlockExit})
			}
			mod.ClearBlockExit(idx)
		}

		if len(live.SemanticAfter) > 0 {
			switch op.Code {
			case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse:
				resolveOnEnd[depth] = append(resolveOnEnd[depth], pendingBody{mode: "after", instrs: live.SemanticAfter})
			case wasm.OpBr, wasm.OpBrIf, wasm.OpBrTable, wasm.OpBrOnNull, wasm.OpBrOnNonNull, wasm.OpBrOnCast, wasm.OpBrOnCastFail:
				lowerBranchSemanticAfter(f, mod, idx, op, depth, live.SemanticAfter, resolveOnEnd)
			}
			mod.ClearSemanticAfter(idx)
		}
	}
}

// lowerBranchSemanticAfter implements spec §4.2's branch semantic_after
// rule: a fresh flag local records whether this particular branch is the
// one unwinding control, and a copy of body is scheduled at the end of
// every block the branch can target.
func lowerBranchSemanticAfter(f *wasm.Function, mod *wasm.Modifier, idx int, op wasm.Op, depth int, directive []wasm.Instruction, resolveOnEnd map[int][]pendingBody) {
	flag := f.Body.AllocLocal(f.ParamCount, wasm.ValTypeI32)

	mod.InsertBefore(idx, constI32(1), localSet(flag))

	after := []wasm.Instruction{constI32(0), localSet(flag)}
	if isConditionalBranch(op.Code) {
		after = append(after, cloneInstrs(directive)...)
	}
	mod.InsertAfter(idx, after...)

	seen := map[int]bool{}
	for _, relDepth := range branchTargets(op) {
		targetID := depth - int(relDepth)
		if seen[targetID] {
			continue
		}
		seen[targetID] = true
		resolveOnEnd[targetID] = append(resolveOnEnd[targetID], pendingBody{
			mode:   "after",
			instrs: cloneInstrs(directive),
			flag:   &flag,
		})
	}
}

// branchTargets returns every relative depth a branch opcode can jump to:
// br_table's explicit labels plus its fall-through default, or the single
// label of every other branch opcode.
func branchTargets(op wasm.Op) []uint32 {
	if op.Code == wasm.OpBrTable {
		return append(append([]uint32(nil), op.Labels...), op.Default)
	}
	return op.Labels
}

func isConditionalBranch(code wasm.Opcode) bool {
	switch code {
	case wasm.OpBrIf, wasm.OpBrOnNull, wasm.OpBrOnNonNull, wasm.OpBrOnCast, wasm.OpBrOnCastFail:
		return true
	}
	return false
}

func isReturnFamily(code wasm.Opcode) bool {
	switch code {
	case wasm.OpReturn, wasm.OpReturnCall, wasm.OpReturnCallIndirect, wasm.OpReturnCallRef:
		return true
	}
	return false
}

func isTrapFamily(code wasm.Opcode) bool {
	switch code {
	case wasm.OpUnreachable, wasm.OpThrow, wasm.OpRethrow, wasm.OpThrowRef, wasm.OpResumeThrow:
		return true
	}
	return false
}

// drain injects every pending body scheduled for idx: non-flagged bodies
// directly, flagged bodies woven into one if/else-if/else ladder (spec
// §4.2 "Draining a resolve-on-end bucket").
func drain(mod *wasm.Modifier, idx int, bucket []pendingBody) {
	var flagged []pendingBody
	for _, pb := range bucket {
		if pb.flag != nil {
			flagged = append(flagged, pb)
			continue
		}
		switch pb.mode {
		case "before":
			mod.InsertBefore(idx, pb.instrs...)
		case "after":
			mod.InsertAfter(idx, pb.instrs...)
		}
	}
	if chain := buildIfChain(flagged); len(chain) > 0 {
		mod.InsertBefore(idx, chain...)
	}
}

// buildIfChain weaves flagged bodies into a single if/else-if/else ladder,
// one local.get+if per flag, innermost-last.
func buildIfChain(flagged []pendingBody) []wasm.Instruction {
	if len(flagged) == 0 {
		return nil
	}
	pb := flagged[0]
	out := []wasm.Instruction{localGet(*pb.flag), ifZeroResult()}
	out = append(out, pb.instrs...)
	if rest := buildIfChain(flagged[1:]); len(rest) > 0 {
		out = append(out, elseInstr())
		out = append(out, rest...)
	}
	out = append(out, endInstr())
	return out
}

func wrapperBlockType(m *wasm.Module, f *wasm.Function) *wasm.BlockType {
	ft := m.GetType(f.TypeID)
	if ft == nil || len(ft.Results) == 0 {
		return &wasm.BlockType{Empty: true}
	}
	if len(ft.Results) == 1 {
		return &wasm.BlockType{Val: ft.Results[0]}
	}
	typeID := m.AddFuncType(nil, ft.Results)
	return &wasm.BlockType{Func: &typeID}
}

func cloneInstrs(instrs []wasm.Instruction) []wasm.Instruction {
	out := make([]wasm.Instruction, len(instrs))
	copy(out, instrs)
	return out
}

func constI32(v int32) wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: wasm.OpI32Const, I32: v})
}

func localSet(id wasm.LocalID) wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: wasm.OpLocalSet, Local: id})
}

func localGet(id wasm.LocalID) wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: wasm.OpLocalGet, Local: id})
}

func ifZeroResult() wasm.Instruction {
	return wasm.NewInstruction(wasm.Op{Code: wasm.OpIf, Block: &wasm.BlockType{Empty: true}})
}

func elseInstr() wasm.Instruction { return wasm.NewInstruction(wasm.Op{Code: wasm.OpElse}) }
func endInstr() wasm.Instruction  { return wasm.NewInstruction(wasm.Op{Code: wasm.OpEnd}) }
