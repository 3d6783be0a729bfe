package memir

import (
	"fmt"
	"sort"

	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/runtime"
)

// emitter holds the per-function mutable state free/clone synthesis needs:
// the function under construction and a temporary-name counter. Kept
// separate from pkg/irgen.Generator since this package's switch-over-types
// dispatch shape has nothing in common with statement/expression lowering
// beyond "append instructions to a block."
type emitter struct {
	fn  *ir.Function
	tmp int
}

func (e *emitter) fresh(prefix string) string {
	e.tmp++
	return fmt.Sprintf("%s%d", prefix, e.tmp)
}

func (e *emitter) blk(id int) *ir.BasicBlock { return e.fn.Block(id) }

// sortedIDs returns r's type ids in ascending order, so generated switch
// chains (and therefore printed IR) are reproducible across runs.
func sortedIDs(r Registry) []uint64 {
	ids := make([]uint64, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// emitUnknownTypeAbort emits the printf+abort fallback for a type_id with no
// matching case.
func emitUnknownTypeAbort(e *emitter, block int, message string) {
	e.blk(block).Append(ir.CallInst{Func: "printf", Args: []ir.Value{ir.ConstStr{V: message}}})
	e.blk(block).Append(ir.CallInst{Func: "abort"})
	e.blk(block).Append(ir.RetInst{Struct: ir.ConstInt{V: 0}})
}

// emitDimaRelease emits the arc-decrementing release of one composed data
// pointer: load the data pointer held at ptrSlot, fetch the head for its
// type, and call __flint_dima_release(head, ptr). Release always takes the
// head alongside the pointer since every data type has its own head.
func emitDimaRelease(e *emitter, block int, ptrSlot string, typeID uint64) {
	val := e.fresh("t")
	e.blk(block).Append(ir.LoadInst{Dest: val, Ptr: ptrSlot, Type: "ptr"})
	head := e.fresh("t")
	e.blk(block).Append(ir.CallInst{Dest: head, Func: runtime.SymDimaGetHead, Args: []ir.Value{ir.ConstInt{V: int64(typeID)}}})
	e.blk(block).Append(ir.CallInst{Func: runtime.SymDimaRelease, Args: []ir.Value{ir.Ref{Name: head}, ir.Ref{Name: val}}})
}

// dispatchOnTypeID emits, starting at entry, one equality test per id in ids
// against the value named typeIDArg, branching to caseBlocks[i] on match and
// falling through in the order of ids (ascending when built by sortedIDs);
// the final fallthrough block is
// returned for the caller to wire to its unknown-type handling.
func dispatchOnTypeID(e *emitter, entry int, typeIDArg string, ids []uint64, caseBlocks []int) int {
	cur := entry
	for i, id := range ids {
		nextBlock := e.fn.NewBlock("next")
		cmp := e.fresh("t")
		e.blk(cur).Append(ir.BinOpInst{Dest: cmp, Op: "==", LHS: ir.Ref{Name: typeIDArg}, RHS: ir.ConstInt{V: int64(id)}})
		e.blk(cur).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: caseBlocks[i], FalseTarget: nextBlock})
		cur = nextBlock
	}
	return cur
}
