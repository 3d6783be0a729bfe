package parser_test

import (
	"testing"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/parser"
	"github.com/flint-lang/flintc/pkg/token"
)

func tok(kind token.Kind, lexeme string, line int) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Line: line}
}

// def f() -> int: return 41 + 1;
func TestParseReturnOfLiteralSum(t *testing.T) {
	tokens := []token.Token{
		tok(token.KindKeywordDef, "def", 1),
		tok(token.KindIdentifier, "f", 1),
		tok(token.KindLParen, "(", 1),
		tok(token.KindRParen, ")", 1),
		tok(token.KindArrow, "->", 1),
		tok(token.KindIdentifier, "int", 1),
		tok(token.KindColon, ":", 1),
		tok(token.KindKeywordReturn, "return", 1),
		tok(token.KindIntLiteral, "41", 1),
		tok(token.KindPlus, "+", 1),
		tok(token.KindIntLiteral, "1", 1),
		tok(token.KindSemicolon, ";", 1),
	}

	file, err := newParser().ParseFile(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	fn := file.Definitions[0].(*ast.FunctionNode)
	if len(fn.Body.Body) != 1 {
		t.Fatalf("expected one body statement, got %d", len(fn.Body.Body))
	}
	ret, ok := fn.Body.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected a return statement, got %T", fn.Body.Body[0])
	}
	bin, ok := ret.Expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected the return to wrap a binary op, got %T", ret.Expr)
	}
	if bin.Op != ast.BinaryAdd || bin.Type != "int" {
		t.Fatalf("expected int-typed addition, got op %q type %q", bin.Op, bin.Type)
	}
	lhs := bin.LHS.(*ast.LiteralExpr)
	rhs := bin.RHS.(*ast.LiteralExpr)
	if lhs.Value.(int64) != 41 || rhs.Value.(int64) != 1 {
		t.Fatalf("expected literals 41 and 1, got %v and %v", lhs.Value, rhs.Value)
	}
}

// def g() -> int: throw 7;
func TestParseThrow(t *testing.T) {
	tokens := []token.Token{
		tok(token.KindKeywordDef, "def", 1),
		tok(token.KindIdentifier, "g", 1),
		tok(token.KindLParen, "(", 1),
		tok(token.KindRParen, ")", 1),
		tok(token.KindArrow, "->", 1),
		tok(token.KindIdentifier, "int", 1),
		tok(token.KindColon, ":", 1),
		tok(token.KindKeywordThrow, "throw", 1),
		tok(token.KindIntLiteral, "7", 1),
		tok(token.KindSemicolon, ";", 1),
	}

	file, err := newParser().ParseFile(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	fn := file.Definitions[0].(*ast.FunctionNode)
	throw, ok := fn.Body.Body[0].(*ast.ThrowStmt)
	if !ok {
		t.Fatalf("expected a throw statement, got %T", fn.Body.Body[0])
	}
	if throw.Expr.(*ast.LiteralExpr).Value.(int64) != 7 {
		t.Fatalf("expected throw value 7, got %v", throw.Expr.(*ast.LiteralExpr).Value)
	}
}

// def f() -> int: return 42;
// def h() -> int:
//     x := f();
//     y := x + 1;
//     return y;
//
// The declaration binding f()'s result has no type at parse time; the
// post-parse resolution pass must backfill both the call's return type and
// the x binding so the whole unit parses cleanly.
func TestCallBoundDeclarationResolvesAfterParse(t *testing.T) {
	tokens := []token.Token{
		tok(token.KindKeywordDef, "def", 1),
		tok(token.KindIdentifier, "f", 1),
		tok(token.KindLParen, "(", 1),
		tok(token.KindRParen, ")", 1),
		tok(token.KindArrow, "->", 1),
		tok(token.KindIdentifier, "int", 1),
		tok(token.KindColon, ":", 1),
		tok(token.KindKeywordReturn, "return", 1),
		tok(token.KindIntLiteral, "42", 1),
		tok(token.KindSemicolon, ";", 1),

		tok(token.KindKeywordDef, "def", 2),
		tok(token.KindIdentifier, "h", 2),
		tok(token.KindLParen, "(", 2),
		tok(token.KindRParen, ")", 2),
		tok(token.KindArrow, "->", 2),
		tok(token.KindIdentifier, "int", 2),
		tok(token.KindColon, ":", 2),

		tok(token.KindIndent, "", 3),
		tok(token.KindIdentifier, "x", 3),
		tok(token.KindWalrus, ":=", 3),
		tok(token.KindIdentifier, "f", 3),
		tok(token.KindLParen, "(", 3),
		tok(token.KindRParen, ")", 3),
		tok(token.KindSemicolon, ";", 3),

		tok(token.KindIndent, "", 4),
		tok(token.KindIdentifier, "y", 4),
		tok(token.KindWalrus, ":=", 4),
		tok(token.KindIdentifier, "x", 4),
		tok(token.KindPlus, "+", 4),
		tok(token.KindIntLiteral, "1", 4),
		tok(token.KindSemicolon, ";", 4),

		tok(token.KindIndent, "", 5),
		tok(token.KindKeywordReturn, "return", 5),
		tok(token.KindIdentifier, "y", 5),
		tok(token.KindSemicolon, ";", 5),
	}

	ctx := compiler.New(config.Default())
	p := parser.New(ctx)
	file, err := p.ParseFile(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(file.Definitions) != 2 {
		t.Fatalf("expected two definitions, got %d", len(file.Definitions))
	}

	h := file.Definitions[1].(*ast.FunctionNode)
	decl, ok := h.Body.Body[0].(*ast.DeclarationStmt)
	if !ok {
		t.Fatalf("expected a declaration, got %T", h.Body.Body[0])
	}
	if decl.Name != "x" || decl.Type != "int" {
		t.Fatalf("expected x to resolve to int after the post-parse pass, got %q: %q", decl.Name, decl.Type)
	}
	call := decl.Value.(*ast.CallExpr).Call
	if call.ReturnType != "int" {
		t.Fatalf("expected f's call node to resolve to int, got %q", call.ReturnType)
	}

	binding, ok := ctx.Scopes.Resolve(h.Body.ID, "x")
	if !ok || binding.Type != "int" {
		t.Fatalf("expected the x scope binding retyped to int, got %+v ok=%v", binding, ok)
	}
}

func TestParseBinopTypeMismatchIsFatal(t *testing.T) {
	// def f() -> int: return 1 + "one";
	tokens := []token.Token{
		tok(token.KindKeywordDef, "def", 1),
		tok(token.KindIdentifier, "f", 1),
		tok(token.KindLParen, "(", 1),
		tok(token.KindRParen, ")", 1),
		tok(token.KindArrow, "->", 1),
		tok(token.KindIdentifier, "int", 1),
		tok(token.KindColon, ":", 1),
		tok(token.KindKeywordReturn, "return", 1),
		tok(token.KindIntLiteral, "1", 1),
		tok(token.KindPlus, "+", 1),
		tok(token.KindStringLiteral, `"one"`, 1),
		tok(token.KindSemicolon, ";", 1),
	}
	if _, err := newParser().ParseFile(tokens); err == nil {
		t.Fatal("expected a binary operand type mismatch to fail the parse")
	}
}
