package irgen

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
)

// exprWalk visits every CallNode reachable from expr, recursing through
// unary/binary operands and call arguments.
func exprWalk(expr ast.Expression, visitCall func(*ast.CallNode)) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.VariableExpr, *ast.LiteralExpr:
		// leaves, nothing to recurse into
	case *ast.UnaryExpr:
		exprWalk(e.Operand, visitCall)
	case *ast.BinaryExpr:
		exprWalk(e.LHS, visitCall)
		exprWalk(e.RHS, visitCall)
	case *ast.CallExpr:
		visitCall(e.Call)
		for _, arg := range e.Call.Arguments {
			exprWalk(arg, visitCall)
		}
	}
}

// stmtWalk recursively visits every scope id and every CallNode reachable
// from the statements of scopeID, used to pre-allocate every variable and
// call-result slot at function entry before any block is emitted.
func stmtWalk(ctx *compiler.CompilationContext, scopeID int, visitScope func(int), visitCall func(*ast.CallNode)) {
	visitScope(scopeID)
	sc := ctx.Scopes.Get(scopeID)

	for _, stmt := range sc.Body {
		switch s := stmt.(type) {
		case *ast.ReturnStmt:
			exprWalk(s.Expr, visitCall)
		case *ast.ThrowStmt:
			exprWalk(s.Expr, visitCall)
		case *ast.DeclarationStmt:
			exprWalk(s.Value, visitCall)
		case *ast.AssignmentStmt:
			exprWalk(s.Value, visitCall)
		case *ast.CallStmt:
			visitCall(s.Call)
			for _, arg := range s.Call.Arguments {
				exprWalk(arg, visitCall)
			}
		case *ast.CatchStmt:
			stmtWalk(ctx, s.ScopeID, visitScope, visitCall)
		case *ast.WhileStmt:
			exprWalk(s.Condition, visitCall)
			stmtWalk(ctx, s.BodyScopeID, visitScope, visitCall)
		case *ast.ForLoopStmt:
			exprWalk(s.Iterable, visitCall)
			stmtWalk(ctx, s.BodyScopeID, visitScope, visitCall)
		case *ast.IfStmt:
			walkIfChain(ctx, s, visitScope, visitCall)
		}
	}
}

func walkIfChain(ctx *compiler.CompilationContext, node *ast.IfStmt, visitScope func(int), visitCall func(*ast.CallNode)) {
	exprWalk(node.Condition, visitCall)
	stmtWalk(ctx, node.ThenScopeID, visitScope, visitCall)

	switch e := node.Else.(type) {
	case *ast.IfStmt:
		walkIfChain(ctx, e, visitScope, visitCall)
	case *ast.ElseScope:
		stmtWalk(ctx, e.ScopeID, visitScope, visitCall)
	}
}
