package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// splitOnComma splits tokens (the contents of one balanced paren span, with
// the delimiters already stripped) into comma-separated groups at depth 0,
// so a nested call's own commas don't break the outer split.
func splitOnComma(tokens []token.Token) [][]token.Token {
	if len(tokens) == 0 {
		return nil
	}
	var groups [][]token.Token
	depth := 0
	start := 0
	for i, t := range tokens {
		switch t.Kind {
		case token.KindLParen, token.KindLBracket, token.KindLBrace:
			depth++
		case token.KindRParen, token.KindRBracket, token.KindRBrace:
			depth--
		case token.KindComma:
			if depth == 0 {
				groups = append(groups, tokens[start:i])
				start = i + 1
			}
		}
	}
	groups = append(groups, tokens[start:])
	return groups
}

// parseTypedName reads a `type name` pair (a function parameter or data
// field), where type is every token up to the final identifier.
func parseTypedName(tokens []token.Token) (typ string, name string, ok bool) {
	if len(tokens) < 2 {
		return "", "", false
	}
	last := tokens[len(tokens)-1]
	if last.Kind != token.KindIdentifier {
		return "", "", false
	}
	var b string
	for _, t := range tokens[:len(tokens)-1] {
		b += t.Lexeme
	}
	return b, last.Lexeme, true
}

// parseFunction parses `[modifiers] def NAME ( type ident, … ) -> type |
// ( type, … )` plus its body. Parameters are declared in the body scope
// before the body is parsed so in-scope resolution of their names succeeds.
func (p *Parser) parseFunction(header []token.Token, body [][]token.Token) (*ast.FunctionNode, error) {
	isConst, isAligned := false, false
	defIdx := -1
	for i, t := range header {
		switch t.Kind {
		case token.KindKeywordConst:
			isConst = true
		case token.KindKeywordAligned:
			isAligned = true
		case token.KindKeywordDef:
			defIdx = i
		}
		if defIdx >= 0 {
			break
		}
	}
	if defIdx < 0 || defIdx+1 >= len(header) {
		return nil, errs.Fatal(errs.ErrUnexpectedDefinition, "malformed function header at line %d", lineOf(header))
	}
	name := header[defIdx+1].Lexeme

	parenRanges := BalancedRangeExtraction(header, token.KindLParen, token.KindRParen)
	if len(parenRanges) == 0 {
		return nil, errs.Fatal(errs.ErrUnclosedParen, "function %s", name)
	}
	paramRange := parenRanges[0]
	paramTokens := header[paramRange[0]+1 : paramRange[1]-1]

	var params []ast.Param
	seen := map[string]bool{}
	for _, grp := range splitOnComma(paramTokens) {
		if len(grp) == 0 {
			continue
		}
		typ, pname, ok := parseTypedName(grp)
		if !ok {
			return nil, errs.Fatal(errs.ErrUnexpectedToken, "in parameter list of %s", name)
		}
		if seen[pname] {
			return nil, errs.Fatal(errs.ErrVarFromRequiresList, "duplicate parameter %q in %s", pname, name)
		}
		seen[pname] = true
		params = append(params, ast.Param{Type: typ, Name: pname})
	}

	rest := header[paramRange[1]:]
	returnTypes := parseReturnTypes(rest)

	scopeID := p.ctx.Scopes.Push(0, false)
	for _, prm := range params {
		p.ctx.Scopes.Declare(scopeID, prm.Name, prm.Type)
	}

	if err := p.parseBody(scopeID, body); err != nil {
		return nil, err
	}

	return &ast.FunctionNode{
		Name:        name,
		Parameters:  params,
		ReturnTypes: returnTypes,
		Body:        p.ctx.Scopes.Get(scopeID),
		IsConst:     isConst,
		IsAligned:   isAligned,
	}, nil
}

// parseReturnTypes reads the `-> type` or `-> ( type, … )` suffix following
// a function's parameter list.
func parseReturnTypes(rest []token.Token) []string {
	idx := -1
	for i, t := range rest {
		if t.Kind == token.KindArrow {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(rest) {
		return nil
	}
	tail := rest[idx+1:]
	if tail[0].Kind == token.KindLParen {
		ranges := BalancedRangeExtraction(tail, token.KindLParen, token.KindRParen)
		if len(ranges) == 0 {
			return nil
		}
		inner := tail[ranges[0][0]+1 : ranges[0][1]-1]
		var out []string
		for _, grp := range splitOnComma(inner) {
			var b string
			for _, t := range grp {
				b += t.Lexeme
			}
			if b != "" {
				out = append(out, b)
			}
		}
		return out
	}
	var b string
	for _, t := range tail {
		b += t.Lexeme
	}
	return []string{b}
}
