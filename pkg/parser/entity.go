package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// parseEntity parses an `entity` definition in either of its two forms:
// modular, referencing existing
// `data`/`func` module names plus optional `link` clauses, or monolithic,
// where the body inlines field and function declarations directly and an
// anonymous DataNode (`E__D`) and FuncNode (`E__F`) are synthesized to hold
// them. The two are told apart by whether the body's identifiers resolve
// against already-registered data/func modules.
func (p *Parser) parseEntity(header []token.Token, body [][]token.Token) (*ast.EntityNode, error) {
	nameIdx := -1
	for i, t := range header {
		if t.Kind == token.KindKeywordEntity {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 || nameIdx+1 >= len(header) {
		return nil, errs.Fatal(errs.ErrUnexpectedDefinition, "malformed entity header at line %d", lineOf(header))
	}
	name := header[nameIdx+1].Lexeme

	node := &ast.EntityNode{Name: name}
	node.ParentEntities = parseEntityParents(header[nameIdx+2:])

	flat := flatten(body)
	stmts := splitOnSemicolon(flat)

	if p.looksModular(stmts) {
		return p.parseModularEntity(node, stmts)
	}
	return p.parseMonolithicEntity(node, stmts)
}

// parseEntityParents reads an optional `: Parent, …` inheritance clause
// following the entity's own name.
func parseEntityParents(rest []token.Token) []string {
	if len(rest) == 0 || rest[0].Kind != token.KindColon {
		return nil
	}
	var parents []string
	for _, grp := range splitOnComma(rest[1:]) {
		if len(grp) == 1 && grp[0].Kind == token.KindIdentifier {
			parents = append(parents, grp[0].Lexeme)
		}
	}
	return parents
}

// looksModular reports whether every body statement is either a bare
// reference to an already-registered data/func module name, a `link`
// clause, or a constructor-order statement, the shape a modular entity's
// body takes.
func (p *Parser) looksModular(stmts [][]token.Token) bool {
	for _, s := range stmts {
		if len(s) == 0 {
			continue
		}
		if s[0].Kind == token.KindKeywordLink {
			continue
		}
		if len(s) == 1 && s[0].Kind == token.KindIdentifier {
			if _, isData := p.ctx.DataTypes[s[0].Lexeme]; isData {
				continue
			}
			if _, isFunc := p.ctx.FuncModules[s[0].Lexeme]; isFunc {
				continue
			}
			return false
		}
		if len(s) >= 2 && s[0].Kind == token.KindIdentifier && s[1].Kind == token.KindLParen {
			continue // constructor-order statement, valid in both modes
		}
		return false
	}
	return true
}

// parseModularEntity binds a modular entity to already-registered data/func
// module names and collects its link clauses.
func (p *Parser) parseModularEntity(node *ast.EntityNode, stmts [][]token.Token) (*ast.EntityNode, error) {
	for _, s := range stmts {
		if len(s) == 0 {
			continue
		}
		switch {
		case s[0].Kind == token.KindKeywordLink:
			link, err := parseLinkClause(s[1:])
			if err != nil {
				return nil, err
			}
			node.Links = append(node.Links, link)

		case len(s) == 1 && s[0].Kind == token.KindIdentifier:
			refName := s[0].Lexeme
			if _, ok := p.ctx.DataTypes[refName]; ok {
				node.ReferencedData = append(node.ReferencedData, refName)
			} else if _, ok := p.ctx.FuncModules[refName]; ok {
				node.ReferencedFunc = append(node.ReferencedFunc, refName)
			}

		case len(s) >= 2 && s[0].Kind == token.KindIdentifier && s[1].Kind == token.KindLParen:
			if s[0].Lexeme != node.Name {
				return nil, errs.Fatal(errs.ErrEntityConstructorNameMismatch, "%s vs %s", s[0].Lexeme, node.Name)
			}
			order, err := parseConstructorArgs(s[1:], node.Name)
			if err != nil {
				return nil, err
			}
			node.ConstructorOrder = order
		}
	}
	return node, nil
}

// parseMonolithicEntity synthesizes an anonymous `E__D` DataNode and `E__F`
// FuncNode for entity E, parsing field declarations and inline function
// definitions directly from the body.
func (p *Parser) parseMonolithicEntity(node *ast.EntityNode, stmts [][]token.Token) (*ast.EntityNode, error) {
	dataName := node.Name + "__D"
	funcName := node.Name + "__F"

	data := &ast.DataNode{
		Name:          dataName,
		DefaultValues: map[string]ast.Expression{},
		FileHash:      ast.ComputeFileHash(dataName, p.sourceName),
	}
	fn := &ast.FuncNode{Name: funcName}

	i := 0
	for i < len(stmts) {
		s := stmts[i]
		if len(s) == 0 {
			i++
			continue
		}

		if len(s) >= 2 && s[0].Kind == token.KindIdentifier && s[1].Kind == token.KindLParen {
			if s[0].Lexeme != node.Name {
				return nil, errs.Fatal(errs.ErrEntityConstructorNameMismatch, "%s vs %s", s[0].Lexeme, node.Name)
			}
			order, err := parseConstructorArgs(s[1:], node.Name)
			if err != nil {
				return nil, err
			}
			node.ConstructorOrder = order
			i++
			continue
		}

		if containsDef(s) {
			break // function definitions start here; fields precede them
		}

		if err := p.parseDataMember(data, s); err != nil {
			return nil, err
		}
		i++
	}

	// Remaining flat statements are `def NAME(...): …` function headers that
	// were split apart by splitOnSemicolon; re-join them back into lines and
	// re-extract using the normal top-level definition loop so their bodies
	// (themselves colon-scoped) are parsed correctly.
	remaining := joinTokens(stmts[i:])
	lines := groupLinesFromTokens(remaining)
	j := 0
	for j < len(lines) {
		defIndent, defHeader, n := extractDefinition(lines[j:])
		if n == 0 {
			break
		}
		j += n
		fHeader, inline, hasColon := splitColon(defHeader)
		var fBody [][]token.Token
		if hasColon && len(inline) > 0 {
			fBody = [][]token.Token{inline}
		} else {
			b, bn := extractBody(lines, j, defIndent)
			fBody = b
			j += bn
		}
		f, err := p.parseFunction(fHeader, fBody)
		if err != nil {
			return nil, err
		}
		fn.Functions = append(fn.Functions, *f)
	}

	p.ctx.RegisterData(data)
	p.ctx.RegisterFuncModule(fn)
	node.ReferencedData = []string{dataName}
	node.ReferencedFunc = []string{funcName}
	return node, nil
}

// joinTokens re-joins semicolon-split statement groups back into a single
// token slice, reinserting the terminating semicolons the caller stripped.
func joinTokens(stmts [][]token.Token) []token.Token {
	var out []token.Token
	for _, s := range stmts {
		out = append(out, s...)
		if len(s) > 0 {
			out = append(out, token.Token{Kind: token.KindSemicolon, Line: s[len(s)-1].Line})
		}
	}
	return out
}

// groupLinesFromTokens behaves like groupLines but is named separately here
// since the input is a re-synthesized token slice rather than raw lexer
// output; the grouping rule (split on Token.Line) is identical.
func groupLinesFromTokens(tokens []token.Token) [][]token.Token {
	return groupLines(tokens)
}

// parseLinkClause parses a `link from.path, … -> to.path, …` clause.
func parseLinkClause(tokens []token.Token) (ast.LinkNode, error) {
	arrowIdx := -1
	for i, t := range tokens {
		if t.Kind == token.KindArrow {
			arrowIdx = i
			break
		}
	}
	if arrowIdx < 0 {
		return ast.LinkNode{}, errs.Fatal(errs.ErrUnexpectedToken, "malformed link clause")
	}
	return ast.LinkNode{
		FromRefs: dottedPaths(tokens[:arrowIdx]),
		ToRefs:   dottedPaths(tokens[arrowIdx+1:]),
	}, nil
}

func dottedPaths(tokens []token.Token) []string {
	var out []string
	for _, grp := range splitOnComma(tokens) {
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

// parseConstructorArgs extracts the positional argument names from a
// `NAME(ident, …)` constructor statement, validating the paren is balanced.
func parseConstructorArgs(tokens []token.Token, ownerName string) ([]string, error) {
	ranges := BalancedRangeExtraction(tokens, token.KindLParen, token.KindRParen)
	if len(ranges) == 0 {
		return nil, errs.Fatal(errs.ErrUnclosedParen, "constructor for %s", ownerName)
	}
	inner := tokens[ranges[0][0]+1 : ranges[0][1]-1]
	var order []string
	for _, grp := range splitOnComma(inner) {
		if len(grp) == 0 {
			continue
		}
		order = append(order, grp[len(grp)-1].Lexeme)
	}
	return order, nil
}
