package irgen_test

import (
	"testing"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/irgen"
)

// Builds the equivalent of:
//
//	def choose(i32 a) -> i32:
//	    x := 0;
//	    if a > 0:
//	        x = 1;
//	    else:
//	        x = 2;
//	    return x;
//
// and asserts the merge block carries a single two-incoming phi for x.
func TestIfElseMergeCarriesTwoIncomingPhi(t *testing.T) {
	ctx := compiler.New(config.Default())
	bodyID := ctx.Scopes.Push(0, false)
	ctx.Scopes.Declare(bodyID, "a", "i32")
	ctx.Scopes.Declare(bodyID, "x", "i32")

	thenID := ctx.Scopes.Push(bodyID, true)
	elseID := ctx.Scopes.Push(bodyID, true)

	lit := func(v int64) *ast.LiteralExpr {
		return &ast.LiteralExpr{Kind: ast.LiteralInt, Type: "i32", Value: v}
	}

	ctx.Scopes.AppendStatement(bodyID, &ast.DeclarationStmt{Name: "x", Type: "i32", Value: lit(0), ScopeID: bodyID})
	ctx.Scopes.AppendStatement(thenID, &ast.AssignmentStmt{Target: &ast.VariableExpr{Name: "x"}, Value: lit(1)})
	ctx.Scopes.AppendStatement(elseID, &ast.AssignmentStmt{Target: &ast.VariableExpr{Name: "x"}, Value: lit(2)})
	ctx.Scopes.AppendStatement(bodyID, &ast.IfStmt{
		Condition:   &ast.BinaryExpr{Op: ast.BinaryGt, LHS: &ast.VariableExpr{Name: "a"}, RHS: lit(0), Type: "i32"},
		ThenScopeID: thenID,
		Else:        &ast.ElseScope{ScopeID: elseID},
	})
	ctx.Scopes.AppendStatement(bodyID, &ast.ReturnStmt{Expr: &ast.VariableExpr{Name: "x"}})

	node := &ast.FunctionNode{
		Name:        "choose",
		Parameters:  []ast.Param{{Type: "i32", Name: "a"}},
		ReturnTypes: []string{"i32"},
		Body:        ctx.Scopes.Get(bodyID),
	}
	fn, err := irgen.New(ctx).GenerateFunction(node)
	if err != nil {
		t.Fatalf("unexpected IR generation error: %v", err)
	}
	if !fn.AllTerminated() {
		t.Fatal("expected every emitted block to end with a terminator")
	}

	var phis []ir.PhiInst
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if phi, ok := inst.(ir.PhiInst); ok {
				phis = append(phis, phi)
			}
		}
	}
	if len(phis) != 1 {
		t.Fatalf("expected exactly one merge phi, got %d", len(phis))
	}
	if phis[0].Var != "x" {
		t.Fatalf("expected the phi to reconcile x, got %q", phis[0].Var)
	}
	if len(phis[0].Incoming) != 2 {
		t.Fatalf("expected two incoming edges, got %d", len(phis[0].Incoming))
	}
	if phis[0].Incoming[0].Block == phis[0].Incoming[1].Block {
		t.Fatal("expected the two incoming edges to come from distinct blocks")
	}
}

// A while body that never assigns an outer variable must not materialize
// any phi at the loop's merge block.
func TestWhileWithoutMutationEmitsNoPhi(t *testing.T) {
	ctx := compiler.New(config.Default())
	bodyID := ctx.Scopes.Push(0, false)
	ctx.Scopes.Declare(bodyID, "a", "bool")

	loopID := ctx.Scopes.Push(bodyID, true)
	ctx.Scopes.AppendStatement(bodyID, &ast.WhileStmt{Condition: &ast.VariableExpr{Name: "a"}, BodyScopeID: loopID})

	node := &ast.FunctionNode{Name: "spin", Parameters: []ast.Param{{Type: "bool", Name: "a"}}, ReturnTypes: []string{"i32"}, Body: ctx.Scopes.Get(bodyID)}
	fn, err := irgen.New(ctx).GenerateFunction(node)
	if err != nil {
		t.Fatalf("unexpected IR generation error: %v", err)
	}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if _, ok := inst.(ir.PhiInst); ok {
				t.Fatal("expected no phi for a loop that mutates nothing")
			}
		}
	}
}
