package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wasmkit/wasmkit/wasm"
)

// applyMarks parses a small text-based instrumentation marks file and
// applies each directive to the named function/instruction via
// wasm.Modifier. One directive per non-blank, non-comment line:
//
//	func=<id> idx=<instruction index> mode=<before|after|block_entry|block_exit|semantic_after> ops=<op>[,<op>...]
//
// where each <op> is one of: nop, drop, unreachable, i32.const:<n>,
// call:<n>, local.get:<n>, local.set:<n>.
func applyMarks(m *wasm.Module, data []byte) error {
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyMarkLine(m, line); err != nil {
			return fmt.Errorf("marks file line %d: %w", lineNo+1, err)
		}
	}
	return nil
}

func applyMarkLine(m *wasm.Module, line string) error {
	fields := map[string]string{}
	for _, tok := range strings.Fields(line) {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("malformed field %q", tok)
		}
		fields[kv[0]] = kv[1]
	}

	funcID, err := strconv.ParseUint(fields["func"], 10, 32)
	if err != nil {
		return fmt.Errorf("bad func id: %w", err)
	}
	idx, err := strconv.Atoi(fields["idx"])
	if err != nil {
		return fmt.Errorf("bad idx: %w", err)
	}

	f := m.GetFunction(wasm.FunctionID(funcID))
	if f == nil || !f.IsLocal() || f.Body == nil {
		return fmt.Errorf("func %d is not a local function", funcID)
	}
	if idx < 0 || idx >= len(f.Body.Instrs) {
		return fmt.Errorf("idx %d out of range for func %d", idx, funcID)
	}

	instrs, err := parseOps(fields["ops"])
	if err != nil {
		return err
	}

	mod := wasm.NewModifier(f.Body)
	switch fields["mode"] {
	case "before":
		mod.InsertBefore(idx, instrs...)
	case "after":
		mod.InsertAfter(idx, instrs...)
	case "block_entry":
		f.Body.Instrs[idx].Flag.BlockEntry = append(f.Body.Instrs[idx].Flag.BlockEntry, instrs...)
	case "block_exit":
		f.Body.Instrs[idx].Flag.BlockExit = append(f.Body.Instrs[idx].Flag.BlockExit, instrs...)
	case "semantic_after":
		f.Body.Instrs[idx].Flag.SemanticAfter = append(f.Body.Instrs[idx].Flag.SemanticAfter, instrs...)
	default:
		return fmt.Errorf("unknown mode %q", fields["mode"])
	}
	return nil
}

func parseOps(spec string) ([]wasm.Instruction, error) {
	if spec == "" {
		return nil, nil
	}
	var out []wasm.Instruction
	for _, tok := range strings.Split(spec, ",") {
		name, arg, hasArg := strings.Cut(tok, ":")
		switch name {
		case "nop":
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpNop}))
		case "drop":
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpDrop}))
		case "unreachable":
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpUnreachable}))
		case "i32.const":
			n, err := requireArg(name, arg, hasArg)
			if err != nil {
				return nil, err
			}
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpI32Const, I32: int32(n)}))
		case "call":
			n, err := requireArg(name, arg, hasArg)
			if err != nil {
				return nil, err
			}
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpCall, Func: wasm.FunctionID(n)}))
		case "local.get":
			n, err := requireArg(name, arg, hasArg)
			if err != nil {
				return nil, err
			}
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpLocalGet, Local: wasm.LocalID(n)}))
		case "local.set":
			n, err := requireArg(name, arg, hasArg)
			if err != nil {
				return nil, err
			}
			out = append(out, wasm.NewInstruction(wasm.Op{Code: wasm.OpLocalSet, Local: wasm.LocalID(n)}))
		default:
			return nil, fmt.Errorf("unknown op %q", name)
		}
	}
	return out, nil
}

func requireArg(op, arg string, hasArg bool) (int64, error) {
	if !hasArg {
		return 0, fmt.Errorf("op %q requires an argument", op)
	}
	return strconv.ParseInt(arg, 10, 64)
}
