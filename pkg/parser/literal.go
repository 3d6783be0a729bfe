package parser

import (
	"strconv"
	"strings"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"

	pc "github.com/prataprc/goparsec"
)

// This file is the one seam where pkg/parser reaches for goparsec:
// interpreting the raw lexeme text of an already-classified literal token
// into a typed ast.LiteralExpr value. The outer structural,
// indentation-sensitive parse in the rest of this package operates on token
// kinds, not text, and stays hand-rolled.
var (
	pIntLit    = pc.Int()
	pFloatLit  = pc.Float()
	pStringLit = pc.Token(`"(?:\\.|[^"\\])*"`, "STRING")
	pCharLit   = pc.Token(`'(?:\\.|[^'\\])'`, "CHAR")
	pBoolLit   = pc.Token(`true|false`, "BOOL")
)

// runCombinator feeds lexeme through one goparsec combinator and returns its
// matched text. The lexer has already classified the token, so the
// combinator is only asked to extract the value, not to validate that the
// whole lexeme matches; it always does, by construction.
func runCombinator(p pc.Parser, lexeme string) (string, bool) {
	node, _ := p(pc.NewScanner([]byte(lexeme)))
	if node == nil {
		return "", false
	}
	term, ok := node.(*pc.Terminal)
	if !ok {
		return "", false
	}
	return term.Value, true
}

// parseLiteralToken converts a lexer-classified literal token into its
// typed ast.LiteralExpr value.
func parseLiteralToken(t token.Token) (*ast.LiteralExpr, error) {
	switch t.Kind {
	case token.KindIntLiteral:
		text, ok := runCombinator(pIntLit, t.Lexeme)
		if !ok {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid int literal %q at line %d", t.Lexeme, t.Line)
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid int literal %q: %v", t.Lexeme, err)
		}
		return &ast.LiteralExpr{Kind: ast.LiteralInt, Type: "int", Value: v}, nil

	case token.KindFloatLiteral:
		text, ok := runCombinator(pFloatLit, t.Lexeme)
		if !ok {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid float literal %q at line %d", t.Lexeme, t.Line)
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid float literal %q: %v", t.Lexeme, err)
		}
		return &ast.LiteralExpr{Kind: ast.LiteralFloat, Type: "float", Value: v}, nil

	case token.KindStringLiteral:
		text, ok := runCombinator(pStringLit, t.Lexeme)
		if !ok {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid string literal %q at line %d", t.Lexeme, t.Line)
		}
		return &ast.LiteralExpr{Kind: ast.LiteralString, Type: "str", Value: strings.Trim(text, `"`)}, nil

	case token.KindCharLiteral:
		text, ok := runCombinator(pCharLit, t.Lexeme)
		if !ok {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid char literal %q at line %d", t.Lexeme, t.Line)
		}
		trimmed := strings.Trim(text, `'`)
		var r rune
		if len(trimmed) > 0 {
			r = []rune(trimmed)[0]
		}
		return &ast.LiteralExpr{Kind: ast.LiteralChar, Type: "char", Value: r}, nil

	case token.KindBoolLiteral:
		text, ok := runCombinator(pBoolLit, t.Lexeme)
		if !ok {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "invalid bool literal %q at line %d", t.Lexeme, t.Line)
		}
		return &ast.LiteralExpr{Kind: ast.LiteralBool, Type: "bool", Value: text == "true"}, nil

	default:
		return nil, errs.Fatal(errs.ErrUnexpectedToken, "not a literal token: %v at line %d", t.Kind, t.Line)
	}
}
