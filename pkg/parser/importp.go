package parser

import (
	"strings"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// parseImport parses an `import` statement in either of its two forms: a
// quoted string path, or a dotted identifier sequence (`import a.b.c;`).
// Imports are only valid as top-level
// definitions; a header carrying leading tokens before the `import` keyword
// signals one nested inside a body, which is rejected.
func (p *Parser) parseImport(header []token.Token) (ast.ImportNode, error) {
	if len(header) == 0 || header[0].Kind != token.KindKeywordImport {
		return ast.ImportNode{}, errs.Fatal(errs.ErrUseStatementNotAtTopLevel, "at line %d", lineOf(header))
	}
	rest := header[1:]
	if len(rest) == 0 {
		return ast.ImportNode{}, errs.Fatal(errs.ErrUnexpectedToken, "empty import at line %d", lineOf(header))
	}

	if rest[0].Kind == token.KindStringLiteral {
		return ast.ImportNode{Path: strings.Trim(rest[0].Lexeme, `"`)}, nil
	}

	var dotted []string
	for _, t := range rest {
		if t.Kind == token.KindIdentifier {
			dotted = append(dotted, t.Lexeme)
		}
	}
	if len(dotted) == 0 {
		return ast.ImportNode{}, errs.Fatal(errs.ErrUnexpectedToken, "malformed import at line %d", lineOf(header))
	}
	return ast.ImportNode{Dotted: dotted}, nil
}
