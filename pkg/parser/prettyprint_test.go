package parser_test

import (
	"fmt"
	"testing"

	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/parser"
	"github.com/flint-lang/flintc/pkg/token"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// assertPrettyPrintEquals fails with a unified diff instead of two giant
// dumped strings. The lexer that would re-tokenize printed source lives
// outside this module, so the tests verify the printer side of the round
// trip directly: parse a token fixture, pretty-print it, and compare the
// rendered text byte-for-byte.
func assertPrettyPrintEquals(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	edits := myers.ComputeEdits(span.URIFromPath("pretty-printed.flint"), want, got)
	unified := gotextdiff.ToUnified("want", "got", want, edits)
	t.Fatalf("pretty-printed output did not match:\n%s", fmt.Sprint(unified))
}

func TestPrettyPrintRoundTrip(t *testing.T) {
	// def add(i32 a, i32 b) -> i32:
	//     return a + b;
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
		{Kind: token.KindPlus, Lexeme: "+", Line: 2},
		{Kind: token.KindIdentifier, Lexeme: "b", Line: 2},
		{Kind: token.KindSemicolon, Lexeme: ";", Line: 2},
	}

	ctx := compiler.New(config.Default())
	p := parser.New(ctx)
	file, err := p.ParseFile(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	got := parser.Print(ctx.Scopes, file)
	want := "def add(i32 a, i32 b) -> i32:\n    return a + b;\n"
	assertPrettyPrintEquals(t, got, want)

	// Re-parsing the pretty-printed text would require the out-of-scope
	// lexer; instead verify the printer is itself idempotent, which is the
	// structural half of the round-trip property this repository can test.
	second := parser.Print(ctx.Scopes, file)
	assertPrettyPrintEquals(t, second, got)
}
