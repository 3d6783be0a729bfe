// Package irgen lowers a parsed ast.FunctionNode to pkg/ir's basic-block
// IR: one Generator holding the shared CompilationContext plus per-function
// mutable state (the function under construction, a temporary-name
// counter), and one genXxx method per statement/expression kind.
package irgen

import (
	"fmt"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/ir"
)

// Generator lowers function bodies to IR. A fresh Generator is created per
// function but shares the CompilationContext across the whole translation
// unit.
type Generator struct {
	ctx *compiler.CompilationContext
	fn  *ir.Function
	tmp int
}

// New returns a Generator bound to ctx.
func New(ctx *compiler.CompilationContext) *Generator {
	return &Generator{ctx: ctx}
}

func (g *Generator) fresh(prefix string) string {
	g.tmp++
	return fmt.Sprintf("%s%d", prefix, g.tmp)
}

func allocaNameFor(scopeID int, name string) string { return fmt.Sprintf("var.%d.%s", scopeID, name) }
func retAllocaName(callID uint64) string            { return fmt.Sprintf("call.%d.ret", callID) }

// structType names the `{ i32 err_code, T value }` return-struct type for a
// function whose value type is valueType.
func structType(valueType string) string { return fmt.Sprintf("{i32,%s}", valueType) }

// GenerateFunction lowers one top-level or func-module function to IR. It
// pre-allocates every user variable and call-result slot in the entry
// block, then lowers the body.
func (g *Generator) GenerateFunction(node *ast.FunctionNode) (*ir.Function, error) {
	valueType := "void"
	if len(node.ReturnTypes) > 0 {
		valueType = node.ReturnTypes[0]
	}

	g.fn = &ir.Function{Name: node.Name, ValueType: valueType}
	for _, p := range node.Parameters {
		g.fn.Params = append(g.fn.Params, ir.Param{Type: p.Type, Name: p.Name})
	}

	entry := g.fn.NewBlock("entry")
	g.fn.EntryBlock = entry

	// ret.* holds this function's own return struct, materialized just
	// before every RetInst/ThrowStmt.
	g.fn.Block(entry).Append(ir.AllocaInst{Dest: "ret", Type: structType(valueType)})

	seenScopes := map[int]bool{}
	seenCalls := map[uint64]bool{}
	bodyID := node.Body.ID

	visitScope := func(scopeID int) {
		if seenScopes[scopeID] {
			return
		}
		seenScopes[scopeID] = true
		sc := g.ctx.Scopes.Get(scopeID)
		for name, binding := range sc.Variables {
			g.fn.Block(entry).Append(ir.AllocaInst{Dest: allocaNameFor(scopeID, name), Type: binding.Type})
		}
	}
	visitCall := func(call *ast.CallNode) {
		if seenCalls[call.CallID] {
			return
		}
		seenCalls[call.CallID] = true
		g.fn.Block(entry).Append(ir.AllocaInst{Dest: retAllocaName(call.CallID), Type: structType(call.ReturnType)})
	}

	// Parameters were declared into the body scope before its statements
	// were parsed, so walking bodyID's Variables already covers them; we
	// still store the incoming parameter value into its alloca below.
	stmtWalk(g.ctx, bodyID, visitScope, visitCall)

	for _, p := range node.Parameters {
		g.fn.Block(entry).Append(ir.StoreInst{Ptr: allocaNameFor(bodyID, p.Name), Value: ir.Ref{Name: p.Name}})
	}

	bodyBlock := g.fn.NewBlock("body")
	g.fn.Block(entry).Append(ir.BrInst{Target: bodyBlock})

	exit, err := g.genScopeBody(bodyBlock, bodyID, nil)
	if err != nil {
		return nil, err
	}

	if !g.fn.Block(exit).Terminated() {
		// Falling off the end of a function without an explicit return
		// yields the zero value with no error, keeping every block
		// terminated.
		g.emitImplicitReturn(exit, valueType)
	}

	return g.fn, nil
}

func (g *Generator) emitImplicitReturn(block int, valueType string) {
	errPtr := g.fresh("t")
	g.fn.Block(block).Append(ir.GetFieldPtrInst{Dest: errPtr, Base: "ret", FieldIndex: 0})
	g.fn.Block(block).Append(ir.StoreInst{Ptr: errPtr, Value: ir.ConstInt{V: 0}})

	valPtr := g.fresh("t")
	g.fn.Block(block).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: "ret", FieldIndex: 1})
	g.fn.Block(block).Append(ir.StoreInst{Ptr: valPtr, Value: zeroValue(valueType)})

	retVal := g.fresh("t")
	g.fn.Block(block).Append(ir.LoadInst{Dest: retVal, Ptr: "ret", Type: structType(valueType)})
	g.fn.Block(block).Append(ir.RetInst{Struct: ir.Ref{Name: retVal}})
}

func zeroValue(valueType string) ir.Value {
	switch valueType {
	case "f32", "f64", "float":
		return ir.ConstFloat{V: 0}
	case "bool":
		return ir.ConstBool{V: false}
	case "str":
		return ir.ConstStr{V: ""}
	case "void", "":
		return ir.ConstInt{V: 0}
	default:
		return ir.ConstInt{V: 0}
	}
}

// genScopeBody lowers every statement in scopeID's body into blocks starting
// at entryBlock, returning the block subsequent code should continue in. phi
// is the nearest enclosing if/while's phi_lookup (nil outside one).
func (g *Generator) genScopeBody(entryBlock int, scopeID int, phi map[string][]ir.PhiEdge) (int, error) {
	cur := entryBlock
	sc := g.ctx.Scopes.Get(scopeID)

	for _, stmt := range sc.Body {
		if g.fn.Block(cur).Terminated() {
			// Trailing statements after a return/throw are unreachable;
			// stop emitting rather than append past a terminator.
			break
		}
		next, err := g.genStatement(cur, scopeID, stmt, phi)
		if err != nil {
			return 0, err
		}
		cur = next
	}
	return cur, nil
}

func (g *Generator) genStatement(cur int, scopeID int, stmt ast.Statement, phi map[string][]ir.PhiEdge) (int, error) {
	switch s := stmt.(type) {
	case *ast.DeclarationStmt:
		return g.genDeclaration(cur, scopeID, s)
	case *ast.AssignmentStmt:
		return g.genAssignment(cur, scopeID, s, phi)
	case *ast.ReturnStmt:
		return g.genReturn(cur, scopeID, s)
	case *ast.ThrowStmt:
		return g.genThrow(cur, scopeID, s)
	case *ast.CallStmt:
		return g.genCallStmt(cur, scopeID, s)
	case *ast.IfStmt:
		return g.genIf(cur, scopeID, s)
	case *ast.WhileStmt:
		return g.genWhile(cur, scopeID, s)
	case *ast.ForLoopStmt:
		return g.genForLoop(cur, scopeID, s)
	case *ast.CatchStmt:
		return g.genCatch(cur, scopeID, s)
	default:
		return 0, errs.Fatal(errs.ErrUndefinedStatement, "%T", stmt)
	}
}
