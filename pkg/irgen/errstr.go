package irgen

import (
	"sort"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/runtime"
)

// GenerateErrorStringFunctions synthesizes the three error-stringification
// functions: get_err_type_str, get_err_val_str, and
// get_err_str. Every registered error set contributes one switch case;
// CompilationContext.AllErrors() has no guaranteed order, so sets are sorted
// by name first to keep generated IR text reproducible across runs.
func GenerateErrorStringFunctions(ctx *compiler.CompilationContext) []*ir.Function {
	sets := ctx.AllErrors()
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })

	byName := make(map[string]*ast.ErrorNode, len(sets))
	for _, e := range sets {
		byName[e.Name] = e
	}
	lookup := func(name string) (*ast.ErrorNode, bool) { e, ok := byName[name]; return e, ok }

	g := New(ctx)
	typeFn := g.genErrTypeStrFunc(sets)
	g2 := New(ctx)
	valFn := g2.genErrValStrFunc(sets, lookup)
	g3 := New(ctx)
	strFn := g3.genErrStrFunc()

	return []*ir.Function{typeFn, valFn, strFn}
}

// genErrTypeStrFunc builds:
//
//	func get_err_type_str(type_id u32) -> {i32, str} {
//	    switch type_id { case E1.error_id: return E1.name; ... }
//	    default: printf(unknown_err_type_msg); abort()
//	}
func (g *Generator) genErrTypeStrFunc(sets []*ast.ErrorNode) *ir.Function {
	g.fn = &ir.Function{Name: runtime.SymGetErrTypeStr, ValueType: "str",
		Params: []ir.Param{{Type: "u32", Name: "type_id"}}}
	entry := g.fn.NewBlock("entry")
	g.fn.EntryBlock = entry

	// Type id 0 is the built-in anonymous error type, present regardless of
	// which error sets the unit declares.
	cur := g.genZeroIDCase(entry, "error")
	for _, e := range sets {
		matchBlock := g.fn.NewBlock("match." + e.Name)
		nextBlock := g.fn.NewBlock("next")

		cmp := g.fresh("t")
		g.fn.Block(cur).Append(ir.BinOpInst{Dest: cmp, Op: "==", LHS: ir.Ref{Name: "type_id"}, RHS: ir.ConstInt{V: int64(e.ErrorID)}})
		g.fn.Block(cur).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: matchBlock, FalseTarget: nextBlock})

		g.fn.Block(matchBlock).Append(ir.RetInst{Struct: g.retStruct(matchBlock, ir.ConstStr{V: e.Name})})
		cur = nextBlock
	}

	g.emitUnknownAndAbort(cur, errs.RuntimeMsgUnknownErrType)
	return g.fn
}

// genErrValStrFunc builds get_err_val_str(type_id, value_id): dispatch on
// type_id like genErrTypeStrFunc, then within each matched error set, recurse
// into the parent chain if value_id is below the parent's value count,
// otherwise shift value_id past the parent's values and return the set's own
// value name.
func (g *Generator) genErrValStrFunc(sets []*ast.ErrorNode, lookup func(string) (*ast.ErrorNode, bool)) *ir.Function {
	g.fn = &ir.Function{Name: runtime.SymGetErrValStr, ValueType: "str",
		Params: []ir.Param{{Type: "u32", Name: "type_id"}, {Type: "u32", Name: "value_id"}}}
	entry := g.fn.NewBlock("entry")
	g.fn.EntryBlock = entry

	// The built-in error type has no declared values; every value id maps
	// to the same literal.
	cur := g.genZeroIDCase(entry, "anyerror")
	for _, e := range sets {
		matchBlock := g.fn.NewBlock("match." + e.Name)
		nextBlock := g.fn.NewBlock("next")

		cmp := g.fresh("t")
		g.fn.Block(cur).Append(ir.BinOpInst{Dest: cmp, Op: "==", LHS: ir.Ref{Name: "type_id"}, RHS: ir.ConstInt{V: int64(e.ErrorID)}})
		g.fn.Block(cur).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: matchBlock, FalseTarget: nextBlock})

		g.genErrValStrCase(matchBlock, e, lookup)
		cur = nextBlock
	}

	g.emitUnknownAndAbort(cur, errs.RuntimeMsgUnknownErrValue)
	return g.fn
}

// genZeroIDCase emits the leading type_id == 0 test shared by the type and
// value stringifiers, returning literal on match. It returns the
// fallthrough block the per-set dispatch chain continues in.
func (g *Generator) genZeroIDCase(entry int, literal string) int {
	matchBlock := g.fn.NewBlock("match.zero")
	nextBlock := g.fn.NewBlock("next")

	cmp := g.fresh("t")
	g.fn.Block(entry).Append(ir.BinOpInst{Dest: cmp, Op: "==", LHS: ir.Ref{Name: "type_id"}, RHS: ir.ConstInt{V: 0}})
	g.fn.Block(entry).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: matchBlock, FalseTarget: nextBlock})

	g.fn.Block(matchBlock).Append(ir.RetInst{Struct: g.retStruct(matchBlock, ir.ConstStr{V: literal})})
	return nextBlock
}

// genErrValStrCase emits the parent-first dispatch for one error set: if
// value_id < parent.ValueCount(), recurse with (parent.id, value_id);
// otherwise subtract the parent's count and switch on the normalized index
// into this set's own values. A set with no parent switches directly on its
// own values.
func (g *Generator) genErrValStrCase(block int, e *ast.ErrorNode, lookup func(string) (*ast.ErrorNode, bool)) {
	if !e.HasParent() {
		g.genOwnValueSwitch(block, e, ir.Ref{Name: "value_id"})
		return
	}

	parent, ok := lookup(e.Parent)
	if !ok {
		g.emitUnknownAndAbort(block, errs.RuntimeMsgUnknownErrValue)
		return
	}
	parentCount := parent.ValueCount(lookup)

	inParent := g.fresh("t")
	g.fn.Block(block).Append(ir.BinOpInst{Dest: inParent, Op: "<", LHS: ir.Ref{Name: "value_id"}, RHS: ir.ConstInt{V: int64(parentCount)}})
	parentBlock := g.fn.NewBlock("parent." + e.Name)
	ownBlock := g.fn.NewBlock("own." + e.Name)
	g.fn.Block(block).Append(ir.CondBrInst{Cond: ir.Ref{Name: inParent}, TrueTarget: parentBlock, FalseTarget: ownBlock})

	dest := g.fresh("t")
	g.fn.Block(parentBlock).Append(ir.CallInst{Dest: dest, Func: runtime.SymGetErrValStr, Args: []ir.Value{
		ir.ConstInt{V: int64(parent.ErrorID)}, ir.Ref{Name: "value_id"},
	}})
	g.fn.Block(parentBlock).Append(ir.RetInst{Struct: ir.Ref{Name: dest}})

	shifted := g.fresh("t")
	g.fn.Block(ownBlock).Append(ir.BinOpInst{Dest: shifted, Op: "-", LHS: ir.Ref{Name: "value_id"}, RHS: ir.ConstInt{V: int64(parentCount)}})
	g.genOwnValueSwitch(ownBlock, e, ir.Ref{Name: shifted})
}

// genOwnValueSwitch emits the per-own-value dispatch against idx (either the
// raw value_id for a parentless set, or the already-normalized index for a
// set with a parent). A value outside the own-value range is an invariant
// violation: it prints and aborts.
func (g *Generator) genOwnValueSwitch(block int, e *ast.ErrorNode, idx ir.Value) {
	cur := block
	for i, v := range e.Values {
		matchBlock := g.fn.NewBlock("val." + e.Name + "." + v)
		nextBlock := g.fn.NewBlock("nextval")

		cmp := g.fresh("t")
		g.fn.Block(cur).Append(ir.BinOpInst{Dest: cmp, Op: "==", LHS: idx, RHS: ir.ConstInt{V: int64(i)}})
		g.fn.Block(cur).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: matchBlock, FalseTarget: nextBlock})
		g.fn.Block(matchBlock).Append(ir.RetInst{Struct: g.retStruct(matchBlock, ir.ConstStr{V: v})})
		cur = nextBlock
	}

	g.emitUnknownAndAbort(cur, errs.RuntimeMsgUnknownErrValue)
}

// genErrStrFunc builds get_err_str(err_struct) -> str, concatenating the
// type name and value name of a thrown error with a `.` between them.
func (g *Generator) genErrStrFunc() *ir.Function {
	g.fn = &ir.Function{Name: runtime.SymGetErrStr, ValueType: "str",
		Params: []ir.Param{{Type: "err_struct", Name: "err"}}}
	entry := g.fn.NewBlock("entry")
	g.fn.EntryBlock = entry

	typeIDPtr := g.fresh("t")
	g.fn.Block(entry).Append(ir.GetFieldPtrInst{Dest: typeIDPtr, Base: "err", FieldIndex: 0})
	typeID := g.fresh("t")
	g.fn.Block(entry).Append(ir.LoadInst{Dest: typeID, Ptr: typeIDPtr, Type: "u32"})

	valueIDPtr := g.fresh("t")
	g.fn.Block(entry).Append(ir.GetFieldPtrInst{Dest: valueIDPtr, Base: "err", FieldIndex: 1})
	valueID := g.fresh("t")
	g.fn.Block(entry).Append(ir.LoadInst{Dest: valueID, Ptr: valueIDPtr, Type: "u32"})

	typeName := g.fresh("t")
	g.fn.Block(entry).Append(ir.CallInst{Dest: typeName, Func: runtime.SymGetErrTypeStr, Args: []ir.Value{ir.Ref{Name: typeID}}})
	valName := g.fresh("t")
	g.fn.Block(entry).Append(ir.CallInst{Dest: valName, Func: runtime.SymGetErrValStr, Args: []ir.Value{ir.Ref{Name: typeID}, ir.Ref{Name: valueID}}})

	joined := g.fresh("t")
	g.fn.Block(entry).Append(ir.CallInst{Dest: joined, Func: "flint.str_concat3", Args: []ir.Value{
		ir.Ref{Name: typeName}, ir.ConstStr{V: "."}, ir.Ref{Name: valName},
	}})
	g.fn.Block(entry).Append(ir.RetInst{Struct: g.retStruct(entry, ir.Ref{Name: joined})})
	return g.fn
}

// retStruct materializes this function's `{ 0, value }` return struct into
// block for a success return; every one of the synthesized string
// functions always succeeds, so err_code is always 0. Each call site gets
// its own uniquely-named ret slot since several may coexist in one function.
func (g *Generator) retStruct(block int, value ir.Value) ir.Value {
	retName := g.fresh("ret")
	g.fn.Block(block).Append(ir.AllocaInst{Dest: retName, Type: structType(g.fn.ValueType)})
	errPtr := g.fresh("t")
	g.fn.Block(block).Append(ir.GetFieldPtrInst{Dest: errPtr, Base: retName, FieldIndex: 0})
	g.fn.Block(block).Append(ir.StoreInst{Ptr: errPtr, Value: ir.ConstInt{V: 0}})
	valPtr := g.fresh("t")
	g.fn.Block(block).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: retName, FieldIndex: 1})
	g.fn.Block(block).Append(ir.StoreInst{Ptr: valPtr, Value: value})
	retVal := g.fresh("t")
	g.fn.Block(block).Append(ir.LoadInst{Dest: retVal, Ptr: retName, Type: structType(g.fn.ValueType)})
	return ir.Ref{Name: retVal}
}

// emitUnknownAndAbort emits the printf+abort fallback for an unmatched
// type/value id.
func (g *Generator) emitUnknownAndAbort(block int, message string) {
	g.fn.Block(block).Append(ir.CallInst{Func: "printf", Args: []ir.Value{ir.ConstStr{V: message}}})
	g.fn.Block(block).Append(ir.CallInst{Func: "abort"})
	g.fn.Block(block).Append(ir.RetInst{Struct: g.retStruct(block, ir.ConstStr{V: ""})})
}
