package irgen

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/ir"
)

// seedPhi initializes a phi lookup for an if/while about to be lowered: one
// entry per name visible at scopeID, each starting with an empty incoming
// list. Only names an assignment inside the construct actually touches end
// up with a non-empty list, and only those get a materialized PhiInst at
// the merge block.
func (g *Generator) seedPhi(scopeID int) map[string][]ir.PhiEdge {
	phi := map[string][]ir.PhiEdge{}
	id := scopeID
	for {
		sc := g.ctx.Scopes.Get(id)
		for name := range sc.Variables {
			if _, exists := phi[name]; !exists {
				phi[name] = nil
			}
		}
		if !sc.HasParent {
			break
		}
		id = sc.ParentID
	}
	return phi
}

// materializePhi emits one PhiInst per tracked name with a non-empty
// incoming list into block, and stores the reconciled value back to the
// variable's alloca so later reads (which always go through the alloca, per
// the allocation discipline) see it.
func (g *Generator) materializePhi(block int, scopeID int, phi map[string][]ir.PhiEdge) {
	for name, edges := range phi {
		if len(edges) == 0 {
			continue
		}
		binding, ok := g.ctx.Scopes.Resolve(scopeID, name)
		if !ok {
			continue
		}
		dest := g.fresh("t")
		g.fn.Block(block).Append(ir.PhiInst{Dest: dest, Type: binding.Type, Var: name, Incoming: edges})
		g.fn.Block(block).Append(ir.StoreInst{Ptr: allocaNameFor(binding.DeclaringScopeID, name), Value: ir.Ref{Name: dest}})
	}
}

// genIf lowers an if/else-if/else chain: one block per then-branch, one
// test block per else-if link, a single shared merge block, and a phi
// reconciling every variable assigned on any incoming path.
func (g *Generator) genIf(cur int, scopeID int, node *ast.IfStmt) (int, error) {
	merge := g.fn.NewBlock("if.merge")
	phi := g.seedPhi(scopeID)

	if err := g.emitIfChain(cur, scopeID, node, merge, phi); err != nil {
		return 0, err
	}
	g.materializePhi(merge, scopeID, phi)
	return merge, nil
}

func (g *Generator) emitIfChain(cur int, scopeID int, node *ast.IfStmt, merge int, phi map[string][]ir.PhiEdge) error {
	cond, err := g.genExpr(cur, scopeID, node.Condition)
	if err != nil {
		return err
	}

	thenBlock := g.fn.NewBlock("if.then")

	var elseTarget int
	switch node.Else.(type) {
	case nil:
		elseTarget = merge
	case *ast.IfStmt:
		elseTarget = g.fn.NewBlock("if.elseif")
	case *ast.ElseScope:
		elseTarget = g.fn.NewBlock("if.else")
	}

	g.fn.Block(cur).Append(ir.CondBrInst{Cond: cond, TrueTarget: thenBlock, FalseTarget: elseTarget})

	thenExit, err := g.genScopeBody(thenBlock, node.ThenScopeID, phi)
	if err != nil {
		return err
	}
	if !g.fn.Block(thenExit).Terminated() {
		g.fn.Block(thenExit).Append(ir.BrInst{Target: merge})
	}

	switch e := node.Else.(type) {
	case *ast.IfStmt:
		return g.emitIfChain(elseTarget, scopeID, e, merge, phi)
	case *ast.ElseScope:
		elseExit, err := g.genScopeBody(elseTarget, e.ScopeID, phi)
		if err != nil {
			return err
		}
		if !g.fn.Block(elseExit).Terminated() {
			g.fn.Block(elseExit).Append(ir.BrInst{Target: merge})
		}
	}
	return nil
}

// genWhile lowers a conditional loop to cond/body/merge blocks: cur
// branches to cond, cond conditionally branches to body or merge, and an
// unterminated body branches back to cond. Phi handling is identical to if
// handling but scoped to the loop body.
func (g *Generator) genWhile(cur int, scopeID int, node *ast.WhileStmt) (int, error) {
	condBlock := g.fn.NewBlock("while.cond")
	bodyBlock := g.fn.NewBlock("while.body")
	mergeBlock := g.fn.NewBlock("while.merge")

	g.fn.Block(cur).Append(ir.BrInst{Target: condBlock})

	cond, err := g.genExpr(condBlock, scopeID, node.Condition)
	if err != nil {
		return 0, err
	}
	g.fn.Block(condBlock).Append(ir.CondBrInst{Cond: cond, TrueTarget: bodyBlock, FalseTarget: mergeBlock})

	phi := g.seedPhi(scopeID)
	bodyExit, err := g.genScopeBody(bodyBlock, node.BodyScopeID, phi)
	if err != nil {
		return 0, err
	}
	if !g.fn.Block(bodyExit).Terminated() {
		g.fn.Block(bodyExit).Append(ir.BrInst{Target: condBlock})
	}

	g.materializePhi(mergeBlock, scopeID, phi)
	return mergeBlock, nil
}

// genForLoop lowers a `for x in xs:` loop over an array iterable to an
// index-driven while-shaped loop. The iterator variable's alloca (declared
// in BodyScopeID by the parser) is stored to on every iteration.
func (g *Generator) genForLoop(cur int, scopeID int, node *ast.ForLoopStmt) (int, error) {
	iterable, err := g.genExpr(cur, scopeID, node.Iterable)
	if err != nil {
		return 0, err
	}

	idxAlloca := g.fresh("for.idx")
	g.fn.Block(cur).Append(ir.AllocaInst{Dest: idxAlloca, Type: "i64"})
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: idxAlloca, Value: ir.ConstInt{V: 0}})

	lenDest := g.fresh("t")
	g.fn.Block(cur).Append(ir.CallInst{Dest: lenDest, Func: "flint.array_len", Args: []ir.Value{iterable}})

	condBlock := g.fn.NewBlock("for.cond")
	bodyBlock := g.fn.NewBlock("for.body")
	mergeBlock := g.fn.NewBlock("for.merge")
	g.fn.Block(cur).Append(ir.BrInst{Target: condBlock})

	idxLoad := g.fresh("t")
	g.fn.Block(condBlock).Append(ir.LoadInst{Dest: idxLoad, Ptr: idxAlloca, Type: "i64"})
	cmp := g.fresh("t")
	g.fn.Block(condBlock).Append(ir.BinOpInst{Dest: cmp, Op: "<", LHS: ir.Ref{Name: idxLoad}, RHS: ir.Ref{Name: lenDest}})
	g.fn.Block(condBlock).Append(ir.CondBrInst{Cond: ir.Ref{Name: cmp}, TrueTarget: bodyBlock, FalseTarget: mergeBlock})

	elemDest := g.fresh("t")
	g.fn.Block(bodyBlock).Append(ir.CallInst{Dest: elemDest, Func: "flint.array_get", Args: []ir.Value{iterable, ir.Ref{Name: idxLoad}}})
	g.fn.Block(bodyBlock).Append(ir.StoreInst{Ptr: allocaNameFor(node.BodyScopeID, node.IteratorName), Value: ir.Ref{Name: elemDest}})

	bodyExit, err := g.genScopeBody(bodyBlock, node.BodyScopeID, nil)
	if err != nil {
		return 0, err
	}
	if !g.fn.Block(bodyExit).Terminated() {
		nextIdx := g.fresh("t")
		g.fn.Block(bodyExit).Append(ir.BinOpInst{Dest: nextIdx, Op: "+", LHS: ir.Ref{Name: idxLoad}, RHS: ir.ConstInt{V: 1}})
		g.fn.Block(bodyExit).Append(ir.StoreInst{Ptr: idxAlloca, Value: ir.Ref{Name: nextIdx}})
		g.fn.Block(bodyExit).Append(ir.BrInst{Target: condBlock})
	}
	return mergeBlock, nil
}

// genCatch lowers a catch statement: load
// field 0 of the referenced call's return struct, branch on nonzero to the
// catch body, optionally aliasing the error code into the named error
// variable for the duration of the body.
func (g *Generator) genCatch(cur int, scopeID int, node *ast.CatchStmt) (int, error) {
	call, ok := g.ctx.Calls.Get(node.CallID)
	if !ok {
		return 0, errs.Fatal(errs.ErrUnknownCallID, "%d", node.CallID)
	}
	if !call.HasCatch {
		return 0, errs.Fatal(errs.ErrCallHasNoCatch, "%d", node.CallID)
	}

	errPtr := g.fresh("t")
	g.fn.Block(cur).Append(ir.GetFieldPtrInst{Dest: errPtr, Base: retAllocaName(node.CallID), FieldIndex: 0})
	errVal := g.fresh("t")
	g.fn.Block(cur).Append(ir.LoadInst{Dest: errVal, Ptr: errPtr, Type: "i32"})

	cond := g.fresh("t")
	g.fn.Block(cur).Append(ir.BinOpInst{Dest: cond, Op: "!=", LHS: ir.Ref{Name: errVal}, RHS: ir.ConstInt{V: 0}})

	catchBlock := g.fn.NewBlock("catch.body")
	mergeBlock := g.fn.NewBlock("catch.merge")
	weights := [2]int{1, 100} // the error path is the rare one
	var hint *[2]int
	if g.ctx.Config.EmitBranchHints {
		hint = &weights
	}
	g.fn.Block(cur).Append(ir.CondBrInst{Cond: ir.Ref{Name: cond}, TrueTarget: catchBlock, FalseTarget: mergeBlock, BranchWeights: hint})

	if node.ErrVarName != "" {
		g.fn.Block(catchBlock).Append(ir.StoreInst{Ptr: allocaNameFor(node.ScopeID, node.ErrVarName), Value: ir.Ref{Name: errVal}})
	}

	catchExit, err := g.genScopeBody(catchBlock, node.ScopeID, nil)
	if err != nil {
		return 0, err
	}
	if !g.fn.Block(catchExit).Terminated() {
		g.fn.Block(catchExit).Append(ir.BrInst{Target: mergeBlock})
	}
	return mergeBlock, nil
}
