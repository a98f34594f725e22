package wasm

// This file implements the "imports before locals" reorganisation pass
// shared by the function, global, and memory spaces (spec §4.3). It is a
// direct transcription of orca's generic `reorganise_generic` /
// `get_mapping_generic` (src/ir/module/mod.rs), generalized with a Go type
// parameter in place of orca's trait bounds -- see SPEC_FULL.md's
// "SUPPLEMENTED FEATURES".

func sliceRemove[T any](s *[]T, i int) T {
	v := (*s)[i]
	*s = append((*s)[:i], (*s)[i+1:]...)
	return v
}

func sliceInsert[T any](s *[]T, i int, v T) {
	var zero T
	*s = append(*s, zero)
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = v
}

// reorganiseGeneric reshuffles items in place so that every entry
// isLocal()==false (i.e. import-kinded) precedes every entry
// isLocal()==true, dropping isDeleted() entries outright, exactly
// following orca's position-vs-cursor algorithm: walk the pre-reorg
// ordering once, relocating any entry that violates the invariant to
// where it belongs and adjusting the import/local boundary cursor as we
// go. Returns the new import count.
func reorganiseGeneric[T any](items *[]T, origNumImported int, isLocal, isDeleted func(T) bool) int {
	readOnly := make([]T, len(*items))
	copy(readOnly, *items)

	numImported := origNumImported
	numDeleted := 0

	for idx, val := range readOnly {
		if idx < origNumImported {
			switch {
			case isLocal(val):
				// was an import position, now holds a local: converted
				// import-to-local -- move it to the tail.
				v := sliceRemove(items, idx-numDeleted)
				*items = append(*items, v)
				numImported--
				numDeleted++
			case isDeleted(val):
				sliceRemove(items, idx-numDeleted)
				numImported--
				numDeleted++
			}
		} else {
			switch {
			case !isLocal(val) && !isDeleted(val):
				// was a local position, now holds an import: converted
				// local-to-import -- move it to the current import cursor.
				v := sliceRemove(items, idx-numDeleted)
				sliceInsert(items, numImported, v)
				numImported++
			case isDeleted(val):
				sliceRemove(items, idx-numDeleted)
				numDeleted++
			}
		}
	}
	return numImported
}

// getMappingGeneric builds the old-id -> new-id map from a slice already
// in its final (post-reorganisation) order. It does not write anything
// back onto items: Encode must stay a pure function of module state, so
// an item's own stored id always means "id at parse/creation time",
// never "id as of the last re-encode" -- the returned map is the only
// place the post-reorganisation position is recorded.
func getMappingGeneric[T any](items []T, getID func(T) uint32) map[uint32]uint32 {
	mapping := make(map[uint32]uint32, len(items))
	for newID, item := range items {
		mapping[getID(item)] = uint32(newID)
	}
	return mapping
}

// recalculateIDs runs reorganiseGeneric followed by getMappingGeneric,
// mirroring orca's Module::recalculate_ids.
func recalculateIDs[T any](items *[]T, origNumImported int, isLocal, isDeleted func(T) bool, getID func(T) uint32) map[uint32]uint32 {
	reorganiseGeneric(items, origNumImported, isLocal, isDeleted)
	return getMappingGeneric(*items, getID)
}

// numImportedFuncs returns the current count of non-deleted, import-kinded
// function entries -- the "imports.num_funcs" invariant of spec §3.
func (m *Module) numImportedFuncs() int {
	n := 0
	for _, f := range m.Functions {
		if f.Kind == FunctionImport && !f.Deleted {
			n++
		}
	}
	return n
}

func (m *Module) numImportedGlobals() int {
	n := 0
	for _, g := range m.Globals {
		if g.Kind == GlobalImport && !g.Deleted {
			n++
		}
	}
	return n
}

func (m *Module) numImportedMemories() int {
	n := 0
	for _, mem := range m.Memories {
		if mem.Kind == MemoryImport && !mem.Deleted {
			n++
		}
	}
	return n
}

// ReorganiseIDs performs the one-shot reorganisation required before
// re-encoding (spec §4.3/§4.4, "Reorganisation" in the GLOSSARY). It
// returns the old-id -> new-id maps for functions, globals, and memories.
// Re-encode calls this exactly once per Encode() (spec §5: "a snapshot
// operation performed exactly once per re-encode").
func (m *Module) ReorganiseIDs() (funcMap, globalMap, memoryMap map[uint32]uint32) {
	funcMap = recalculateIDs(&m.Functions, m.numImportedFuncs(),
		func(f *Function) bool { return f.Kind == FunctionLocal },
		func(f *Function) bool { return f.Deleted },
		func(f *Function) uint32 { return uint32(f.id) },
	)
	globalMap = recalculateIDs(&m.Globals, m.numImportedGlobals(),
		func(g *Global) bool { return g.Kind == GlobalLocal },
		func(g *Global) bool { return g.Deleted },
		func(g *Global) uint32 { return uint32(g.id) },
	)
	memoryMap = recalculateIDs(&m.Memories, m.numImportedMemories(),
		func(mm *Memory) bool { return mm.Kind == MemoryLocal },
		func(mm *Memory) bool { return mm.Deleted },
		func(mm *Memory) uint32 { return uint32(mm.id) },
	)
	return
}
