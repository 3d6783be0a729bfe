package irgen_test

import (
	"strings"
	"testing"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/irgen"
)

func newFunction(t *testing.T, node *ast.FunctionNode, stmts []ast.Statement) *ir.Function {
	t.Helper()
	ctx := compiler.New(config.Default())
	bodyID := ctx.Scopes.Push(0, false)
	node.Body = ctx.Scopes.Get(bodyID)
	for _, p := range node.Parameters {
		ctx.Scopes.Declare(bodyID, p.Name, p.Type)
	}
	for _, stmt := range stmts {
		ctx.Scopes.AppendStatement(bodyID, stmt)
	}

	fn, err := irgen.New(ctx).GenerateFunction(node)
	if err != nil {
		t.Fatalf("unexpected IR generation error: %v", err)
	}
	return fn
}

func TestGenerateFunctionReturnsLiteral(t *testing.T) {
	node := &ast.FunctionNode{
		Name:        "answer",
		ReturnTypes: []string{"i32"},
	}
	stmts := []ast.Statement{
		&ast.ReturnStmt{Expr: &ast.LiteralExpr{Kind: ast.LiteralInt, Type: "i32", Value: int64(42)}},
	}

	fn := newFunction(t, node, stmts)
	if fn.Name != "answer" {
		t.Fatalf("expected function name 'answer', got %q", fn.Name)
	}
	if !fn.AllTerminated() {
		t.Fatal("expected every emitted block to end with a terminator")
	}

	text := ir.Print(&ir.Module{Functions: []*ir.Function{fn}})
	if !strings.Contains(text, "func answer(") {
		t.Fatalf("expected printed IR to name the function, got:\n%s", text)
	}
	if !strings.Contains(text, "ret %") {
		t.Fatalf("expected printed IR to contain a return instruction, got:\n%s", text)
	}
}

func TestGenerateFunctionFallsOffEndWithImplicitReturn(t *testing.T) {
	node := &ast.FunctionNode{
		Name:        "noop",
		ReturnTypes: []string{"i32"},
	}

	fn := newFunction(t, node, nil)
	if !fn.AllTerminated() {
		t.Fatal("expected the implicit fall-off-end return to terminate every block")
	}
}
