package wasm

// ValType is a Wasm value type, encoded as its binary-format leading byte.
type ValType byte

const (
	ValTypeI32       ValType = 0x7f
	ValTypeI64       ValType = 0x7e
	ValTypeF32       ValType = 0x7d
	ValTypeF64       ValType = 0x7c
	ValTypeV128      ValType = 0x7b
	ValTypeFuncref   ValType = 0x70
	ValTypeExternref ValType = 0x6f
	// ValTypeRef and ValTypeRefNull prefix a (possibly recursive) heap
	// type for typed function references / GC; HeapType carries the rest.
	ValTypeRef     ValType = 0x64
	ValTypeRefNull ValType = 0x63
)

// HeapType names a GC/typed-funcref heap type. Negative-encoded abstract
// heap types (func, extern, any, ...) are represented as small negative
// ints; a non-negative value is a TypeID into the type section.
type HeapType int64

const (
	HeapTypeFunc   HeapType = -0x10
	HeapTypeExtern HeapType = -0x11
	HeapTypeAny    HeapType = -0x12
	HeapTypeNone   HeapType = -0x13
	HeapTypeEq     HeapType = -0x14
	HeapTypeStruct HeapType = -0x15
	HeapTypeArray  HeapType = -0x16
	HeapTypeI31    HeapType = -0x17
	HeapTypeCont   HeapType = -0x18
	HeapTypeNoCont HeapType = -0x19
)

// RefType is a nullable or non-nullable reference to a HeapType.
type RefType struct {
	Nullable bool
	Heap     HeapType
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// StorageType is a struct/array field type: either a full ValType or a
// packed 8/16-bit integer field (GC proposal).
type StorageType struct {
	Val    ValType
	Packed PackedType // zero value (PackedNone) means Val is authoritative
}

type PackedType byte

const (
	PackedNone PackedType = 0
	PackedI8   PackedType = 0x78
	PackedI16  PackedType = 0x77
)

// FieldType is one struct/array field: its storage type and mutability.
type FieldType struct {
	Storage StorageType
	Mutable bool
}

// CompositeKind tags which variant a CompositeType holds.
type CompositeKind byte

const (
	CompositeFunc CompositeKind = iota
	CompositeArray
	CompositeStruct
	CompositeCont
)

// CompositeType is the tagged union of {FuncType, ArrayType, StructType,
// ContType}, per spec §3's "composite inner".
type CompositeType struct {
	Kind CompositeKind

	Func Field

	Array FieldType // CompositeArray: single element field

	Fields []FieldType // CompositeStruct

	ContTypeIdx TypeID // CompositeCont: packed function type index
}

// Field avoids importing FuncType's name twice; kept as a plain alias so
// CompositeType.Func reads naturally.
type Field = FuncType

// SubType is one entry of the type section.
type SubType struct {
	IsFinal    bool
	Supertype  *TypeID // nil when the sub-type has no declared supertype
	Composite  CompositeType
	Shared     bool
}

// RecGroupMap records which sub-type indices were declared inside an
// explicit recursion group, mapping sub-type index -> group id. A
// sub-type index absent from this map forms its own implicit group.
type RecGroupMap map[uint32]uint32
