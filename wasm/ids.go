package wasm

// FunctionID indexes the dense function space (imported functions first,
// then local functions), matching the order Wasm requires at encode time.
type FunctionID uint32

// TypeID indexes the type section.
type TypeID uint32

// GlobalID indexes the dense global space (imports first, then locals).
type GlobalID uint32

// MemoryID indexes the dense memory space (imports first, then locals).
type MemoryID uint32

// TableID indexes the dense table space (imports first, then locals).
type TableID uint32

// ImportID indexes the import section directly, independent of kind.
type ImportID uint32

// DataID indexes the data segment section.
type DataID uint32

// ElementID indexes the element segment section.
type ElementID uint32

// TagID indexes the tag section.
type TagID uint32

// LocalID indexes a function's combined param+local space.
type LocalID uint32

// BlockID identifies a structured block for the instrumentation resolver.
// It is equal to the depth at which the block was opened; block 0 is the
// function body itself.
type BlockID uint32
