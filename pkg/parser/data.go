package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// parseData parses a `data` definition: a header naming the type plus
// `shared`/`immutable`/`aligned` modifiers, and a flat body of
// `type name [= literal];` fields with an
// optional `NAME(ident, …);` constructor statement fixing ConstructorOrder.
func (p *Parser) parseData(header []token.Token, body [][]token.Token) (*ast.DataNode, error) {
	isShared, isImmutable, isAligned := false, false, false
	nameIdx := -1
	for i, t := range header {
		switch t.Kind {
		case token.KindKeywordShared:
			isShared = true
		case token.KindKeywordImmutable:
			isImmutable = true
		case token.KindKeywordAligned:
			isAligned = true
		case token.KindKeywordData:
			nameIdx = i
		}
	}
	if nameIdx < 0 || nameIdx+1 >= len(header) {
		return nil, errs.Fatal(errs.ErrUnexpectedDefinition, "malformed data header at line %d", lineOf(header))
	}
	name := header[nameIdx+1].Lexeme

	node := &ast.DataNode{
		Name:          name,
		DefaultValues: map[string]ast.Expression{},
		IsShared:      isShared,
		IsImmutable:   isImmutable,
		IsAligned:     isAligned,
		FileHash:      ast.ComputeFileHash(name, p.sourceName),
	}

	flat := flatten(body)
	for _, stmtTokens := range splitOnSemicolon(flat) {
		if len(stmtTokens) == 0 {
			continue
		}
		if err := p.parseDataMember(node, stmtTokens); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// splitOnSemicolon splits a flat token slice into depth-0 semicolon-
// terminated groups, dropping the semicolons themselves.
func splitOnSemicolon(tokens []token.Token) [][]token.Token {
	var groups [][]token.Token
	start := 0
	depth := 0
	for i, t := range tokens {
		switch t.Kind {
		case token.KindLParen, token.KindLBracket, token.KindLBrace:
			depth++
		case token.KindRParen, token.KindRBracket, token.KindRBrace:
			depth--
		case token.KindSemicolon:
			if depth == 0 {
				groups = append(groups, tokens[start:i])
				start = i + 1
			}
		}
	}
	if start < len(tokens) {
		groups = append(groups, tokens[start:])
	}
	return groups
}

// parseDataMember parses one flat body statement of a data definition:
// either a `type name [= literal]` field, or a `NAME(ident, …)` constructor
// statement fixing ConstructorOrder. The constructor's NAME must match the
// data type's own name.
func (p *Parser) parseDataMember(node *ast.DataNode, tokens []token.Token) error {
	if len(tokens) >= 2 && tokens[0].Kind == token.KindIdentifier && tokens[1].Kind == token.KindLParen {
		if tokens[0].Lexeme != node.Name {
			return errs.Fatal(errs.ErrConstructorNameMismatch, "%s vs %s", tokens[0].Lexeme, node.Name)
		}
		ranges := BalancedRangeExtraction(tokens[1:], token.KindLParen, token.KindRParen)
		if len(ranges) == 0 {
			return errs.Fatal(errs.ErrUnclosedParen, "constructor for %s", node.Name)
		}
		inner := tokens[1:][ranges[0][0]+1 : ranges[0][1]-1]
		for _, grp := range splitOnComma(inner) {
			if len(grp) == 0 {
				continue
			}
			node.ConstructorOrder = append(node.ConstructorOrder, grp[len(grp)-1].Lexeme)
		}
		return nil
	}

	eqIdx := indexOfKind(tokens, token.KindAssign)
	fieldTokens := tokens
	if eqIdx >= 0 {
		fieldTokens = tokens[:eqIdx]
	}
	typ, name, ok := parseTypedName(fieldTokens)
	if !ok {
		return errs.Fatal(errs.ErrUnexpectedToken, "in field list of %s", node.Name)
	}
	node.Fields = append(node.Fields, ast.Field{Type: typ, Name: name})

	if eqIdx >= 0 {
		lit, err := parseLiteralToken(tokens[eqIdx+1])
		if err != nil {
			return err
		}
		node.DefaultValues[name] = lit
	}
	return nil
}
