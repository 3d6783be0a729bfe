// Package runtime declares the external interface boundary: the synthesized
// runtime symbol names a downstream backend links against, the C runtime
// dependency list, and the three ABI layouts (function return, string,
// array). It contains no executable backend logic, only the named contract
// pkg/irgen, pkg/memir, and pkg/dima emit references to.
package runtime

// CRuntimeDependencies lists the C runtime symbols the emitted IR calls
// into.
var CRuntimeDependencies = []string{
	"malloc", "realloc", "free", "memcpy", "memmove", "strlen", "printf", "abort",
}

// Synthesized runtime symbol names, kept as named constants so every
// package that needs to emit a call to one of them references the same
// string.
const (
	SymDimaInitHeads        = "__flint_dima_init_heads"
	SymDimaGetHead          = "__flint_dima_get_head"
	SymDimaCreateBlock      = "__flint_dima_create_block"
	SymDimaAllocateInBlock  = "__flint_dima_allocate_in_block"
	SymDimaAllocate         = "__flint_dima_allocate"
	SymDimaAllocateSlot     = "__flint_dima_allocate_slot"
	SymDimaRelease          = "__flint_dima_release"
	SymGetBlockCapacity     = "__flint_get_block_capacity"
	SymGetErrTypeStr        = "__flint_get_err_type_str"
	SymGetErrValStr         = "__flint_get_err_val_str"
	SymGetErrStr            = "__flint_get_err_str"
	SymFlintFree            = "flint.free"
	SymFlintClone           = "flint.clone"
)

// FuncSignature documents a synthesized symbol's calling convention for a
// downstream emitter (parameter/return type names only, no codegen).
type FuncSignature struct {
	Name       string
	Params     []string
	ReturnType string
}

// Signatures is the full set of synthesized-symbol signatures, keyed by
// symbol name.
var Signatures = map[string]FuncSignature{
	SymDimaInitHeads:       {Name: SymDimaInitHeads, Params: nil, ReturnType: "void"},
	SymDimaGetHead:         {Name: SymDimaGetHead, Params: []string{"u32 type_id"}, ReturnType: "head**"},
	SymDimaCreateBlock:     {Name: SymDimaCreateBlock, Params: []string{"u64 type_size", "u64 slot_count"}, ReturnType: "void*"},
	SymDimaAllocateInBlock: {Name: SymDimaAllocateInBlock, Params: []string{"block**"}, ReturnType: "slot*"},
	SymDimaAllocate:        {Name: SymDimaAllocate, Params: []string{"head**"}, ReturnType: "void*"},
	SymDimaAllocateSlot:    {Name: SymDimaAllocateSlot, Params: []string{"u32 type_id"}, ReturnType: "void*"},
	SymDimaRelease:         {Name: SymDimaRelease, Params: []string{"head** head", "void* ptr"}, ReturnType: "void"},
	SymGetBlockCapacity:    {Name: SymGetBlockCapacity, Params: []string{"u64 index"}, ReturnType: "u64"},
	SymGetErrTypeStr:       {Name: SymGetErrTypeStr, Params: []string{"u32 type_id"}, ReturnType: "char*"},
	SymGetErrValStr:        {Name: SymGetErrValStr, Params: []string{"u32 type_id", "u32 value_id"}, ReturnType: "char*"},
	SymGetErrStr:           {Name: SymGetErrStr, Params: []string{"err_struct"}, ReturnType: "str*"},
	SymFlintFree:           {Name: SymFlintFree, Params: []string{"void* ptr", "u32 type_id"}, ReturnType: "void"},
	SymFlintClone:          {Name: SymFlintClone, Params: []string{"void* src", "void* dst", "u32 type_id"}, ReturnType: "void"},
}

// ReturnStruct is the ABI every user function's return value follows:
// `{ i32 err_code, T value }`, always materialized on the stack and
// returned by value.
type ReturnStruct struct {
	ErrCodeOffset int // field 0
	ValueOffset   int // field 1
}

// FlintReturnABI is the fixed field layout of the return struct.
var FlintReturnABI = ReturnStruct{ErrCodeOffset: 0, ValueOffset: 1}

// StrLayout is the `str` layout: a 64-bit length header followed by
// null-terminated bytes (one extra byte allocated beyond the declared
// length).
type StrLayout struct {
	LengthFieldBits int
	NullTerminated  bool
}

var FlintStrLayout = StrLayout{LengthFieldBits: 64, NullTerminated: true}

// ArrayLayout is the array layout: dimension count, then one length per
// dimension, then the contiguous elements.
type ArrayLayout struct {
	DimensionalityFieldBits int
	LengthFieldBits         int
}

var FlintArrayLayout = ArrayLayout{DimensionalityFieldBits: 64, LengthFieldBits: 64}
