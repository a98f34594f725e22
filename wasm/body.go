package wasm

// LocalEntry is a run-length-encoded group of same-typed locals, as Wasm's
// binary format stores them.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// Body is a local function's declared locals plus its instruction stream.
type Body struct {
	Locals     []LocalEntry
	NumLocals  uint32 // total local count (params excluded), cached from Locals
	Instrs     []Instruction
	Name       string
	hasName    bool

	// EntryBody and ExitBody hold function-level entry/exit instrumentation
	// (spec §4.2 "Function entry/exit lowering"): instructions to run once
	// on entry, and on every exit path, set before the instrumentation
	// resolver runs. The resolver lowers both into concrete before/after
	// edits on the instruction stream and clears these fields as it does.
	EntryBody []Instruction
	ExitBody  []Instruction
}

// SetEntry sets the function-level entry instrumentation body.
func (b *Body) SetEntry(instrs []Instruction) { b.EntryBody = instrs }

// SetExit sets the function-level exit instrumentation body.
func (b *Body) SetExit(instrs []Instruction) { b.ExitBody = instrs }

// HasSpecialInstr reports whether any instruction in the body still
// carries a block-structured or semantic instrumentation directive. The
// resolver uses this to skip functions untouched by high-level
// instrumentation entirely (spec §4.2: "For each function whose
// has_special_instr is set").
func (b *Body) HasSpecialInstr() bool {
	for i := range b.Instrs {
		if b.Instrs[i].Flag.HasStructured() {
			return true
		}
	}
	return false
}

// SetName sets the function body's optional custom name.
func (b *Body) SetName(name string) {
	b.Name = name
	b.hasName = true
}

// HasName reports whether a custom name was set for this body.
func (b *Body) HasName() bool { return b.hasName }
