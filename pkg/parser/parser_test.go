package parser_test

import (
	"testing"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/parser"
	"github.com/flint-lang/flintc/pkg/token"
)

func newParser() *parser.Parser {
	return parser.New(compiler.New(config.Default()))
}

func TestParseDataDefinition(t *testing.T) {
	// data Point:
	//     i32 x;
	//     i32 y;
	tokens := []token.Token{
		{Kind: token.KindKeywordData, Lexeme: "data", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "Point", Line: 1},
		{Kind: token.KindColon, Lexeme: ":", Line: 1},

		{Kind: token.KindIndent, Line: 2},
		{Kind: token.KindIdentifier, Lexeme: "i32", Line: 2},
		{Kind: token.KindIdentifier, Lexeme: "x", Line: 2},
		{Kind: token.KindSemicolon, Lexeme: ";", Line: 2},

		{Kind: token.KindIndent, Line: 3},
		{Kind: token.KindIdentifier, Lexeme: "i32", Line: 3},
		{Kind: token.KindIdentifier, Lexeme: "y", Line: 3},
		{Kind: token.KindSemicolon, Lexeme: ";", Line: 3},
	}

	file, err := newParser().ParseFile(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(file.Definitions) != 1 {
		t.Fatalf("expected exactly one definition, got %d", len(file.Definitions))
	}
	data, ok := file.Definitions[0].(*ast.DataNode)
	if !ok {
		t.Fatalf("expected a *ast.DataNode, got %T", file.Definitions[0])
	}
	if data.Name != "Point" {
		t.Fatalf("expected data name 'Point', got %q", data.Name)
	}
	if len(data.Fields) != 2 || data.Fields[0].Name != "x" || data.Fields[1].Name != "y" {
		t.Fatalf("expected fields [x, y], got %+v", data.Fields)
	}
}

func TestParseFunctionDeclaresParametersInBodyScope(t *testing.T) {
	// def add(i32 a, i32 b) -> i32:
	//     return a;
	tokens := []token.Token{
		{Kind: token.KindKeywordDef, Lexeme: "def", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "add", Line: 1},
		{Kind: token.KindLParen, Lexeme: "(", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "i32", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "a", Line: 1},
		{Kind: token.KindComma, Lexeme: ",", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "i32", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "b", Line: 1},
		{Kind: token.KindRParen, Lexeme: ")", Line: 1},
		{Kind: token.KindArrow, Lexeme: "->", Line: 1},
		{Kind: token.KindIdentifier, Lexeme: "i32", Line: 1},
		{Kind: token.KindColon, Lexeme: ":", Line: 1},

		{Kind: token.KindIndent, Line: 2},
		{Kind: token.KindKeywordReturn, Lexeme: "return", Line: 2},
		{Kind: token.KindIdentifier, Lexeme: "a", Line: 2},
		{Kind: token.KindSemicolon, Lexeme: ";", Line: 2},
	}

	ctx := compiler.New(config.Default())
	file, err := parser.New(ctx).ParseFile(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(file.Definitions) != 1 {
		t.Fatalf("expected exactly one definition, got %d", len(file.Definitions))
	}
	fn, ok := file.Definitions[0].(*ast.FunctionNode)
	if !ok {
		t.Fatalf("expected a *ast.FunctionNode, got %T", file.Definitions[0])
	}
	if fn.Name != "add" {
		t.Fatalf("expected function name 'add', got %q", fn.Name)
	}
	if len(fn.Parameters) != 2 || fn.Parameters[0].Name != "a" || fn.Parameters[1].Name != "b" {
		t.Fatalf("expected parameters [a, b], got %+v", fn.Parameters)
	}
	if len(fn.ReturnTypes) != 1 || fn.ReturnTypes[0] != "i32" {
		t.Fatalf("expected return type [i32], got %+v", fn.ReturnTypes)
	}
	if len(fn.Body.Body) != 1 {
		t.Fatalf("expected exactly one body statement, got %d", len(fn.Body.Body))
	}
	for _, prm := range fn.Parameters {
		binding, ok := ctx.Scopes.Resolve(fn.Body.ID, prm.Name)
		if !ok || binding.Type != "i32" || binding.DeclaringScopeID != fn.Body.ID {
			t.Fatalf("expected parameter %q declared as i32 in the body scope, got %+v ok=%v", prm.Name, binding, ok)
		}
	}
}

func TestParseUnknownDefinitionFails(t *testing.T) {
	tokens := []token.Token{
		{Kind: token.KindIdentifier, Lexeme: "???", Line: 1},
		{Kind: token.KindSemicolon, Lexeme: ";", Line: 1},
	}
	if _, err := newParser().ParseFile(tokens); err == nil {
		t.Fatal("expected an error for an unrecognized definition header")
	}
}
