package wasm

// Modifier is the cursor-style API the instrumentation resolver (and any
// external visitor) uses to edit a function body's instruction stream
// in place, per spec §4.1 item 4. It never changes instruction count or
// order itself -- edits are recorded on each Instruction's
// InstrumentationFlag and only take effect when the body is encoded.
type Modifier struct {
	body *Body
}

// NewModifier returns a Modifier over body.
func NewModifier(body *Body) *Modifier { return &Modifier{body: body} }

// Len returns the number of instructions in the body being modified.
func (m *Modifier) Len() int { return len(m.body.Instrs) }

// At returns the instruction at idx. Callers should only read Op from the
// result; mutate flags through the Insert*/Set*/Clear* methods below so
// edits stay visible to later passes over the same body.
func (m *Modifier) At(idx int) Instruction { return m.body.Instrs[idx] }

// Snapshot returns a copy of the instruction stream as it stands right
// now, safe to range over while the Modifier's other methods mutate the
// live body -- mirrors orca's "readable_copy_of_body".
func (m *Modifier) Snapshot() []Instruction {
	out := make([]Instruction, len(m.body.Instrs))
	copy(out, m.body.Instrs)
	return out
}

// InsertBefore appends instrs to the direct-inject "before" list at idx.
func (m *Modifier) InsertBefore(idx int, instrs ...Instruction) {
	f := &m.body.Instrs[idx].Flag
	f.Before = append(f.Before, instrs...)
}

// InsertAfter appends instrs to the direct-inject "after" list at idx.
func (m *Modifier) InsertAfter(idx int, instrs ...Instruction) {
	f := &m.body.Instrs[idx].Flag
	f.After = append(f.After, instrs...)
}

// SetAlternate replaces the instruction at idx with instrs (which may be
// empty, meaning "delete this instruction").
func (m *Modifier) SetAlternate(idx int, instrs []Instruction) {
	f := &m.body.Instrs[idx].Flag
	if instrs == nil {
		instrs = []Instruction{}
	}
	f.Alternate = instrs
}

// EmptyAlternateAt deletes the instruction at idx by setting an empty
// alternate body.
func (m *Modifier) EmptyAlternateAt(idx int) {
	m.SetAlternate(idx, []Instruction{})
}

// ClearBlockEntry erases a planned block_entry directive at idx.
func (m *Modifier) ClearBlockEntry(idx int) { m.body.Instrs[idx].Flag.BlockEntry = nil }

// ClearBlockExit erases a planned block_exit directive at idx.
func (m *Modifier) ClearBlockExit(idx int) { m.body.Instrs[idx].Flag.BlockExit = nil }

// ClearBlockAlt erases a planned block_alt directive at idx.
func (m *Modifier) ClearBlockAlt(idx int) { m.body.Instrs[idx].Flag.ClearBlockAlt() }

// ClearSemanticAfter erases a planned semantic_after directive at idx.
func (m *Modifier) ClearSemanticAfter(idx int) { m.body.Instrs[idx].Flag.SemanticAfter = nil }

// AllocLocal appends a fresh local of type vt (count 1) to the body and
// returns its LocalID, given the function's parameter count. Used by the
// resolver to synthesize flag locals for semantic_after on branches.
func (b *Body) AllocLocal(paramCount int, vt ValType) LocalID {
	id := LocalID(paramCount + int(b.NumLocals))
	b.Locals = append(b.Locals, LocalEntry{Count: 1, ValType: vt})
	b.NumLocals++
	return id
}
