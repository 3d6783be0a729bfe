package dima

import (
	"fmt"

	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/runtime"
)

// emitter mirrors pkg/memir's unexported emitter: per-function mutable
// state (the function under construction, a temp-name counter) for the
// switch-free instruction-append style pkg/memir's free.go/clone.go use.
// pkg/memir's own emitter type is unexported to that package, so this is a
// small local equivalent rather than a shared one; the two packages emit
// IR for unrelated symbol families and have no other reason to couple.
type emitter struct {
	fn  *ir.Function
	tmp int
}

func (e *emitter) fresh(prefix string) string {
	e.tmp++
	return fmt.Sprintf("%s%d", prefix, e.tmp)
}

func (e *emitter) blk(id int) *ir.BasicBlock { return e.fn.Block(id) }

func retZero(e *emitter, block int) {
	if !e.blk(block).Terminated() {
		e.blk(block).Append(ir.RetInst{Struct: ir.ConstInt{V: 0}})
	}
}

// GenerateInitHeads synthesizes __flint_dima_init_heads(): a flat sequence
// of calls zero-allocating one head per declared type: one call per id in
// typeIDs, in the order given.
func GenerateInitHeads(typeIDs []uint64) *ir.Function {
	e := &emitter{fn: &ir.Function{Name: runtime.SymDimaInitHeads, ValueType: "void"}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry
	for _, id := range typeIDs {
		e.blk(entry).Append(ir.CallInst{Func: "__flint_dima_head_init_one", Args: []ir.Value{ir.ConstInt{V: int64(id)}}})
	}
	retZero(e, entry)
	return e.fn
}

// GenerateGetHead synthesizes __flint_dima_get_head(u32 type_id) -> head**:
// an index into the process-wide heads table, returned as a double pointer
// so a caller may realloc the head in place.
func GenerateGetHead() *ir.Function {
	e := &emitter{fn: &ir.Function{
		Name:      runtime.SymDimaGetHead,
		ValueType: "head**",
		Params:    []ir.Param{{Type: "u32", Name: "type_id"}},
	}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry
	dest := e.fresh("t")
	e.blk(entry).Append(ir.CallInst{Dest: dest, Func: "__flint_dima_heads_index", Args: []ir.Value{ir.Ref{Name: "type_id"}}})
	e.blk(entry).Append(ir.RetInst{Struct: ir.Ref{Name: dest}})
	return e.fn
}

// GenerateCreateBlock synthesizes __flint_dima_create_block(u64 type_size,
// u64 slot_count) -> void*: a malloc of slot_count*type_size bytes. No space
// is reserved for a block header and the memory is not zeroed.
func GenerateCreateBlock() *ir.Function {
	e := &emitter{fn: &ir.Function{
		Name:      runtime.SymDimaCreateBlock,
		ValueType: "void*",
		Params:    []ir.Param{{Type: "u64", Name: "type_size"}, {Type: "u64", Name: "slot_count"}},
	}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry
	width := e.fresh("t")
	e.blk(entry).Append(ir.BinOpInst{Dest: width, Op: "*", LHS: ir.Ref{Name: "type_size"}, RHS: ir.Ref{Name: "slot_count"}})
	dest := e.fresh("t")
	e.blk(entry).Append(ir.CallInst{Dest: dest, Func: "malloc", Args: []ir.Value{ir.Ref{Name: width}}})
	e.blk(entry).Append(ir.RetInst{Struct: ir.Ref{Name: dest}})
	return e.fn
}

// GenerateAllocateInBlock synthesizes __flint_dima_allocate_in_block
// (block**) -> slot*, the linear scan from first_free_slot_id to capacity,
// emitted as a structural loop identical in shape to pkg/memir's
// array-element loops.
func GenerateAllocateInBlock() *ir.Function {
	e := &emitter{fn: &ir.Function{
		Name:      runtime.SymDimaAllocateInBlock,
		ValueType: "slot*",
		Params:    []ir.Param{{Type: "block**", Name: "block"}},
	}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry

	idxAlloca := e.fresh("idx")
	e.blk(entry).Append(ir.AllocaInst{Dest: idxAlloca, Type: "i64"})
	start := e.fresh("t")
	e.blk(entry).Append(ir.CallInst{Dest: start, Func: "__flint_dima_block_first_free", Args: []ir.Value{ir.Ref{Name: "block"}}})
	e.blk(entry).Append(ir.StoreInst{Ptr: idxAlloca, Value: ir.Ref{Name: start}})

	cond := e.fn.NewBlock("allocate_in_block.cond")
	body := e.fn.NewBlock("allocate_in_block.body")
	miss := e.fn.NewBlock("allocate_in_block.miss")
	e.blk(entry).Append(ir.BrInst{Target: cond})

	idxLoad := e.fresh("t")
	e.blk(cond).Append(ir.LoadInst{Dest: idxLoad, Ptr: idxAlloca, Type: "i64"})
	cap := e.fresh("t")
	e.blk(cond).Append(ir.CallInst{Dest: cap, Func: "__flint_dima_block_capacity", Args: []ir.Value{ir.Ref{Name: "block"}}})
	cmp := e.fresh("t")
	e.blk(cond).Append(ir.BinOpInst{Dest: cmp, Op: "<", LHS: ir.Ref{Name: idxLoad}, RHS: ir.Ref{Name: cap}})
	e.blk(cond).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: body, FalseTarget: miss})

	occupied := e.fresh("t")
	e.blk(body).Append(ir.CallInst{Dest: occupied, Func: "__flint_dima_slot_occupied", Args: []ir.Value{ir.Ref{Name: "block"}, ir.Ref{Name: idxLoad}}})
	found := e.fn.NewBlock("allocate_in_block.found")
	next := e.fn.NewBlock("allocate_in_block.next")
	e.blk(body).Append(ir.CondBrInst{Cond: ir.Ref{Name: occupied}, TrueTarget: next, FalseTarget: found})

	slotPtr := e.fresh("t")
	e.blk(found).Append(ir.CallInst{Dest: slotPtr, Func: "__flint_dima_slot_mark_occupied", Args: []ir.Value{ir.Ref{Name: "block"}, ir.Ref{Name: idxLoad}}})
	e.blk(found).Append(ir.RetInst{Struct: ir.Ref{Name: slotPtr}})

	nextIdx := e.fresh("t")
	e.blk(next).Append(ir.BinOpInst{Dest: nextIdx, Op: "+", LHS: ir.Ref{Name: idxLoad}, RHS: ir.ConstInt{V: 1}})
	e.blk(next).Append(ir.StoreInst{Ptr: idxAlloca, Value: ir.Ref{Name: nextIdx}})
	e.blk(next).Append(ir.BrInst{Target: cond})

	nullPtr := e.fresh("t")
	e.blk(miss).Append(ir.CallInst{Dest: nullPtr, Func: "__flint_dima_null_slot"})
	e.blk(miss).Append(ir.RetInst{Struct: ir.Ref{Name: nullPtr}})
	return e.fn
}

// GenerateRelease synthesizes __flint_dima_release(head** head, void* ptr):
// arc decrement, per-type free dispatch on reaching zero via flint.free,
// and slot bookkeeping cleanup.
func GenerateRelease() *ir.Function {
	e := &emitter{fn: &ir.Function{
		Name:      runtime.SymDimaRelease,
		ValueType: "void",
		Params:    []ir.Param{{Type: "head**", Name: "head"}, {Type: "void*", Name: "ptr"}},
	}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry

	arc := e.fresh("t")
	e.blk(entry).Append(ir.CallInst{Dest: arc, Func: "__flint_dima_slot_dec_arc", Args: []ir.Value{ir.Ref{Name: "head"}, ir.Ref{Name: "ptr"}}})

	zeroBlock := e.fn.NewBlock("release.zero")
	doneBlock := e.fn.NewBlock("release.done")
	isZero := e.fresh("t")
	e.blk(entry).Append(ir.BinOpInst{Dest: isZero, Op: "==", LHS: ir.Ref{Name: arc}, RHS: ir.ConstInt{V: 0}})
	e.blk(entry).Append(ir.CondBrInst{Cond: ir.Ref{Name: isZero}, TrueTarget: zeroBlock, FalseTarget: doneBlock})

	typeID := e.fresh("t")
	e.blk(zeroBlock).Append(ir.CallInst{Dest: typeID, Func: "__flint_dima_head_type_id", Args: []ir.Value{ir.Ref{Name: "head"}}})
	e.blk(zeroBlock).Append(ir.CallInst{Func: runtime.SymFlintFree, Args: []ir.Value{ir.Ref{Name: "ptr"}, ir.Ref{Name: typeID}}})
	e.blk(zeroBlock).Append(ir.CallInst{Func: "__flint_dima_slot_clear", Args: []ir.Value{ir.Ref{Name: "head"}, ir.Ref{Name: "ptr"}}})
	e.blk(zeroBlock).Append(ir.BrInst{Target: doneBlock})

	retZero(e, doneBlock)
	return e.fn
}

// GenerateGetBlockCapacity synthesizes __flint_get_block_capacity(u64 index)
// -> u64, iterating cap = (cap*GF + 9) / 10 index times from the base
// capacity, the same computation Allocator.GetBlockCapacity performs.
func GenerateGetBlockCapacity(baseCapacity, growthFactor uint64) *ir.Function {
	e := &emitter{fn: &ir.Function{
		Name:      runtime.SymGetBlockCapacity,
		ValueType: "u64",
		Params:    []ir.Param{{Type: "u64", Name: "index"}},
	}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry

	capAlloca := e.fresh("cap")
	e.blk(entry).Append(ir.AllocaInst{Dest: capAlloca, Type: "u64"})
	e.blk(entry).Append(ir.StoreInst{Ptr: capAlloca, Value: ir.ConstInt{V: int64(baseCapacity)}})
	iAlloca := e.fresh("i")
	e.blk(entry).Append(ir.AllocaInst{Dest: iAlloca, Type: "u64"})
	e.blk(entry).Append(ir.StoreInst{Ptr: iAlloca, Value: ir.ConstInt{V: 0}})

	cond := e.fn.NewBlock("get_block_capacity.cond")
	body := e.fn.NewBlock("get_block_capacity.body")
	exit := e.fn.NewBlock("get_block_capacity.exit")
	e.blk(entry).Append(ir.BrInst{Target: cond})

	iLoad := e.fresh("t")
	e.blk(cond).Append(ir.LoadInst{Dest: iLoad, Ptr: iAlloca, Type: "u64"})
	cmp := e.fresh("t")
	e.blk(cond).Append(ir.BinOpInst{Dest: cmp, Op: "<", LHS: ir.Ref{Name: iLoad}, RHS: ir.Ref{Name: "index"}})
	e.blk(cond).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: body, FalseTarget: exit})

	capLoad := e.fresh("t")
	e.blk(body).Append(ir.LoadInst{Dest: capLoad, Ptr: capAlloca, Type: "u64"})
	scaled := e.fresh("t")
	e.blk(body).Append(ir.BinOpInst{Dest: scaled, Op: "*", LHS: ir.Ref{Name: capLoad}, RHS: ir.ConstInt{V: int64(growthFactor)}})
	rounded := e.fresh("t")
	e.blk(body).Append(ir.BinOpInst{Dest: rounded, Op: "+", LHS: ir.Ref{Name: scaled}, RHS: ir.ConstInt{V: 9}})
	nextCap := e.fresh("t")
	e.blk(body).Append(ir.BinOpInst{Dest: nextCap, Op: "/", LHS: ir.Ref{Name: rounded}, RHS: ir.ConstInt{V: 10}})
	e.blk(body).Append(ir.StoreInst{Ptr: capAlloca, Value: ir.Ref{Name: nextCap}})
	nextI := e.fresh("t")
	e.blk(body).Append(ir.BinOpInst{Dest: nextI, Op: "+", LHS: ir.Ref{Name: iLoad}, RHS: ir.ConstInt{V: 1}})
	e.blk(body).Append(ir.StoreInst{Ptr: iAlloca, Value: ir.Ref{Name: nextI}})
	e.blk(body).Append(ir.BrInst{Target: cond})

	final := e.fresh("t")
	e.blk(exit).Append(ir.LoadInst{Dest: final, Ptr: capAlloca, Type: "u64"})
	e.blk(exit).Append(ir.RetInst{Struct: ir.Ref{Name: final}})
	return e.fn
}
