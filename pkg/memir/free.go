package memir

import (
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/runtime"
)

// GenerateFree synthesizes flint.free(i8* ptr, u32 type_id): a switch over
// every freeable type in reg, each case releasing whatever heap memory a
// value of that type transitively owns.
func GenerateFree(reg Registry) *ir.Function {
	e := &emitter{fn: &ir.Function{
		Name:      runtime.SymFlintFree,
		ValueType: "void",
		Params:    []ir.Param{{Type: "i8*", Name: "ptr"}, {Type: "u32", Name: "type_id"}},
	}}
	entry := e.fn.NewBlock("entry")
	e.fn.EntryBlock = entry

	sub := Registry{}
	for _, t := range reg.Freeable() {
		sub[t.TypeID] = t
	}
	ids := sortedIDs(sub)

	caseBlocks := make([]int, len(ids))
	for i, id := range ids {
		caseBlocks[i] = e.fn.NewBlock("free." + sub[id].Name)
	}

	fallthroughBlock := dispatchOnTypeID(e, entry, "type_id", ids, caseBlocks)
	emitUnknownTypeAbort(e, fallthroughBlock, errs.RuntimeMsgUnknownFreeType)

	for i, id := range ids {
		end := freeBody(e, caseBlocks[i], "ptr", sub[id])
		if !e.blk(end).Terminated() {
			e.blk(end).Append(ir.RetInst{Struct: ir.ConstInt{V: 0}})
		}
	}
	return e.fn
}

// freeBody emits the free logic for one type variation into block, recursing
// into nested freeable elements/fields. It returns the block subsequent code
// continues in, which is block itself unless the variation needed its own
// control flow (array loops, optional/variant branching).
func freeBody(e *emitter, block int, ptr string, t TypeExpr) int {
	switch t.Kind {
	case KindStr:
		e.blk(block).Append(ir.CallInst{Func: "free", Args: []ir.Value{ir.Ref{Name: ptr}}})
		return block

	case KindArray:
		if t.Elem == nil || !t.Elem.Freeable() {
			e.blk(block).Append(ir.CallInst{Func: "free", Args: []ir.Value{ir.Ref{Name: ptr}}})
			return block
		}
		// Structural loop over all elements, freeing (or DIMA releasing,
		// for a data element type) each one, then freeing the array itself.
		idxAlloca := e.fresh("idx")
		e.blk(block).Append(ir.AllocaInst{Dest: idxAlloca, Type: "i64"})
		e.blk(block).Append(ir.StoreInst{Ptr: idxAlloca, Value: ir.ConstInt{V: 0}})
		lenDest := e.fresh("t")
		e.blk(block).Append(ir.CallInst{Dest: lenDest, Func: "flint.array_total_len", Args: []ir.Value{ir.Ref{Name: ptr}}})

		loopCond := e.fn.NewBlock("free.array.cond")
		loopBody := e.fn.NewBlock("free.array.body")
		loopExit := e.fn.NewBlock("free.array.exit")
		e.blk(block).Append(ir.BrInst{Target: loopCond})

		idxLoad := e.fresh("t")
		e.blk(loopCond).Append(ir.LoadInst{Dest: idxLoad, Ptr: idxAlloca, Type: "i64"})
		cmp := e.fresh("t")
		e.blk(loopCond).Append(ir.BinOpInst{Dest: cmp, Op: "<", LHS: ir.Ref{Name: idxLoad}, RHS: ir.Ref{Name: lenDest}})
		e.blk(loopCond).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: loopBody, FalseTarget: loopExit})

		elemPtr := e.fresh("t")
		e.blk(loopBody).Append(ir.CallInst{Dest: elemPtr, Func: "flint.array_elem_ptr", Args: []ir.Value{ir.Ref{Name: ptr}, ir.Ref{Name: idxLoad}}})
		after := loopBody
		if t.Elem.Kind == KindData {
			emitDimaRelease(e, loopBody, elemPtr, t.Elem.TypeID)
		} else {
			after = freeBody(e, loopBody, elemPtr, *t.Elem)
		}
		nextIdx := e.fresh("t")
		e.blk(after).Append(ir.BinOpInst{Dest: nextIdx, Op: "+", LHS: ir.Ref{Name: idxLoad}, RHS: ir.ConstInt{V: 1}})
		e.blk(after).Append(ir.StoreInst{Ptr: idxAlloca, Value: ir.Ref{Name: nextIdx}})
		e.blk(after).Append(ir.BrInst{Target: loopCond})

		e.blk(loopExit).Append(ir.CallInst{Func: "free", Args: []ir.Value{ir.Ref{Name: ptr}}})
		return loopExit

	case KindData:
		cur := block
		for i, f := range t.Fields {
			if !f.Freeable() {
				continue
			}
			fieldPtr := e.fresh("t")
			e.blk(cur).Append(ir.GetFieldPtrInst{Dest: fieldPtr, Base: ptr, FieldIndex: i})
			if f.Kind == KindData {
				// A composed-data field holds an arc-counted pointer; it is
				// released through its own head, never torn down directly.
				emitDimaRelease(e, cur, fieldPtr, f.TypeID)
				continue
			}
			cur = freeBody(e, cur, fieldPtr, f)
		}
		// data itself is released via DIMA on arc reaching zero, not freed
		// directly here.
		return cur

	case KindEntity:
		for i, f := range t.Fields {
			fieldPtr := e.fresh("t")
			e.blk(block).Append(ir.GetFieldPtrInst{Dest: fieldPtr, Base: ptr, FieldIndex: i})
			emitDimaRelease(e, block, fieldPtr, f.TypeID)
		}
		return block

	case KindErrorSet:
		msgPtr := e.fresh("t")
		e.blk(block).Append(ir.GetFieldPtrInst{Dest: msgPtr, Base: ptr, FieldIndex: 2})
		e.blk(block).Append(ir.CallInst{Func: "free", Args: []ir.Value{ir.Ref{Name: msgPtr}}})
		return block

	case KindOptional:
		hasValPtr := e.fresh("t")
		e.blk(block).Append(ir.GetFieldPtrInst{Dest: hasValPtr, Base: ptr, FieldIndex: 0})
		hasVal := e.fresh("t")
		e.blk(block).Append(ir.LoadInst{Dest: hasVal, Ptr: hasValPtr, Type: "bool"})

		freeBlock := e.fn.NewBlock("free.opt.some")
		skipBlock := e.fn.NewBlock("free.opt.none")
		e.blk(block).Append(ir.CondBrInst{Cond: ir.Ref{Name: hasVal}, TrueTarget: freeBlock, FalseTarget: skipBlock})

		after := freeBlock
		if t.Elem != nil {
			valPtr := e.fresh("t")
			e.blk(freeBlock).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: ptr, FieldIndex: 1})
			after = freeBody(e, freeBlock, valPtr, *t.Elem)
		}
		e.blk(after).Append(ir.BrInst{Target: skipBlock})
		return skipBlock

	case KindTuple:
		cur := block
		for i, f := range t.Fields {
			if !f.Freeable() {
				continue
			}
			fieldPtr := e.fresh("t")
			e.blk(cur).Append(ir.GetFieldPtrInst{Dest: fieldPtr, Base: ptr, FieldIndex: i})
			cur = freeBody(e, cur, fieldPtr, f)
		}
		return cur

	case KindVariant:
		if t.IsErrorVariant {
			msgPtr := e.fresh("t")
			e.blk(block).Append(ir.GetFieldPtrInst{Dest: msgPtr, Base: ptr, FieldIndex: 1})
			e.blk(block).Append(ir.CallInst{Func: "free", Args: []ir.Value{ir.Ref{Name: msgPtr}}})
			return block
		}
		tagPtr := e.fresh("t")
		e.blk(block).Append(ir.GetFieldPtrInst{Dest: tagPtr, Base: ptr, FieldIndex: 0})
		tag := e.fresh("t")
		e.blk(block).Append(ir.LoadInst{Dest: tag, Ptr: tagPtr, Type: "u8"})

		joinBlock := e.fn.NewBlock("free.variant.join")
		cur := block
		for i, v := range t.Variants {
			if !v.Freeable() {
				continue
			}
			caseBlock := e.fn.NewBlock("free.variant.case")
			nextBlock := e.fn.NewBlock("free.variant.next")
			cmp := e.fresh("t")
			e.blk(cur).Append(ir.BinOpInst{Dest: cmp, Op: "==", LHS: ir.Ref{Name: tag}, RHS: ir.ConstInt{V: int64(i)}})
			e.blk(cur).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: caseBlock, FalseTarget: nextBlock})

			valPtr := e.fresh("t")
			e.blk(caseBlock).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: ptr, FieldIndex: 1})
			after := freeBody(e, caseBlock, valPtr, v)
			e.blk(after).Append(ir.BrInst{Target: joinBlock})
			cur = nextBlock
		}
		e.blk(cur).Append(ir.BrInst{Target: joinBlock})
		return joinBlock

	case KindFunc:
		// Func modules have no defined free contract yet; KindFunc is never
		// Freeable(), so the dispatcher cannot reach this case. Kept so the
		// switch stays exhaustive over the closed Kind set.
		e.blk(block).Append(ir.CallInst{Func: "abort"})
		return block

	default: // KindScalar: nothing to free
		return block
	}
}
