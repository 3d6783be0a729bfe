package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// terminatorKind distinguishes the two statement terminators. Bodies split
// on `;` or `:` at depth 0: colon-terminated statements are scoped
// (if/else-if/else, while, for, catch); semicolon-terminated are flat
// (decl, assign, return, throw, call).
type terminatorKind int

const (
	termNone terminatorKind = iota
	termSemi
	termColon
)

// findTerminator scans tokens at depth 0 (outside any paren/bracket/brace)
// for the first `;` or `:`, returning its index and kind.
func findTerminator(tokens []token.Token) (int, terminatorKind) {
	depth := 0
	for i, t := range tokens {
		switch t.Kind {
		case token.KindLParen, token.KindLBracket, token.KindLBrace:
			depth++
		case token.KindRParen, token.KindRBracket, token.KindRBrace:
			depth--
		case token.KindSemicolon:
			if depth == 0 {
				return i, termSemi
			}
		case token.KindColon:
			if depth == 0 {
				return i, termColon
			}
		}
	}
	return -1, termNone
}

// parseBody lowers a definition or scoped-statement body into scopeID's
// statement list. lines are raw (indents intact) so a nested colon-scoped
// statement can recurse into its own further-indented block.
func (p *Parser) parseBody(scopeID int, lines [][]token.Token) error {
	for i := 0; i < len(lines); i++ {
		indent, content := stripIndents(lines[i])
		cursor := 0
		for cursor < len(content) {
			rel, kind := findTerminator(content[cursor:])
			if kind == termNone {
				break
			}
			pos := cursor + rel

			switch kind {
			case termSemi:
				if err := p.parseFlatStatement(scopeID, content[cursor:pos]); err != nil {
					return err
				}
				cursor = pos + 1

			case termColon:
				header := content[cursor:pos]
				inline := content[pos+1:]

				if len(header) > 0 && header[0].Kind == token.KindKeywordIf {
					chain, lastIdx := p.collectIfChain(lines, i, indent, header, inline)
					node, err := p.buildIfStmt(scopeID, chain[0].header, chain[0].body, chain[1:])
					if err != nil {
						return err
					}
					p.ctx.Scopes.AppendStatement(scopeID, node)
					i = lastIdx
					cursor = len(content)
					break
				}

				var subBody [][]token.Token
				if len(inline) > 0 {
					subBody = [][]token.Token{inline}
				} else {
					b, consumed := extractBody(lines, i+1, indent)
					subBody = b
					i += consumed
				}
				if err := p.parseScopedStatement(scopeID, header, subBody); err != nil {
					return err
				}
				cursor = len(content)
			}
		}
	}
	return nil
}

// parseScopedStatement dispatches a colon-terminated construct: if/else-if,
// while, for, or catch.
func (p *Parser) parseScopedStatement(scopeID int, header []token.Token, body [][]token.Token) error {
	switch {
	case len(header) > 0 && header[0].Kind == token.KindKeywordIf:
		return p.parseIfChain(scopeID, header, body)
	case len(header) > 0 && header[0].Kind == token.KindKeywordElse:
		return errs.Fatal(errs.ErrDanglingElse, "line %d", lineOf(header))
	case len(header) > 0 && header[0].Kind == token.KindKeywordWhile:
		return p.parseWhile(scopeID, header, body)
	case len(header) > 0 && header[0].Kind == token.KindKeywordFor:
		return p.parseFor(scopeID, header, body)
	case containsCatch(header):
		return p.parseCatch(scopeID, header, body)
	default:
		return errs.Fatal(errs.ErrUndefinedStatement, "line %d", lineOf(header))
	}
}

func containsCatch(header []token.Token) bool {
	for _, t := range header {
		if t.Kind == token.KindKeywordCatch {
			return true
		}
	}
	return false
}

// parseFlatStatement dispatches a semicolon-terminated construct: return,
// throw, declaration, assignment, or a bare call. tokens carry no
// terminator.
func (p *Parser) parseFlatStatement(scopeID int, tokens []token.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	switch tokens[0].Kind {
	case token.KindKeywordReturn:
		if len(tokens) == 1 {
			p.ctx.Scopes.AppendStatement(scopeID, &ast.ReturnStmt{})
			return nil
		}
		expr, err := p.parseExpression(scopeID, tokens[1:])
		if err != nil {
			return err
		}
		p.ctx.Scopes.AppendStatement(scopeID, &ast.ReturnStmt{Expr: expr})
		return nil

	case token.KindKeywordThrow:
		expr, err := p.parseExpression(scopeID, tokens[1:])
		if err != nil {
			return err
		}
		p.ctx.Scopes.AppendStatement(scopeID, &ast.ThrowStmt{Expr: expr})
		return nil
	}

	if walrus := indexOfKind(tokens, token.KindWalrus); walrus >= 0 {
		return p.parseDeclaration(scopeID, tokens, walrus)
	}
	if assign := indexOfKind(tokens, token.KindAssign); assign >= 0 {
		return p.parseAssignment(scopeID, tokens, assign)
	}

	// A bare call statement: NAME(args…), result discarded.
	call, err := p.parseCall(scopeID, tokens)
	if err != nil {
		return errs.Fatal(errs.ErrUndefinedStatement, "line %d", lineOf(tokens))
	}
	p.ctx.Scopes.AppendStatement(scopeID, &ast.CallStmt{Call: call})
	return nil
}

func indexOfKind(tokens []token.Token, kind token.Kind) int {
	depth := 0
	for i, t := range tokens {
		switch t.Kind {
		case token.KindLParen, token.KindLBracket, token.KindLBrace:
			depth++
		case token.KindRParen, token.KindRBracket, token.KindRBrace:
			depth--
		}
		if depth == 0 && t.Kind == kind {
			return i
		}
	}
	return -1
}

// parseDeclaration handles `type? name := expr`.
// The declared type is the RHS expression's type (for a call, the call's
// return type as known at parse time); tokens before the name, such as a
// type annotation, are not read.
func (p *Parser) parseDeclaration(scopeID int, tokens []token.Token, walrus int) error {
	lhs := tokens[:walrus]
	if len(lhs) == 0 {
		return errs.Fatal(errs.ErrUnexpectedToken, "missing name before ':=' at line %d", lineOf(tokens))
	}
	name := lhs[len(lhs)-1].Lexeme

	rhsTokens := tokens[walrus+1:]
	expr, err := p.parseExpression(scopeID, rhsTokens)
	if err != nil {
		return err
	}

	typ := p.exprType(scopeID, expr)
	p.ctx.Scopes.Declare(scopeID, name, typ)
	decl := &ast.DeclarationStmt{Name: name, Type: typ, Value: expr, ScopeID: scopeID}
	p.ctx.Scopes.AppendStatement(scopeID, decl)

	// A declaration bound to a call can't take its real type yet: call
	// types are only assigned by ResolveCallTypes once the whole file has
	// been parsed, so forward references within the same file resolve.
	// Track the declaration so
	// ResolveCallTypes can re-patch its type (and the scope binding's) once
	// the call's return type is known.
	if _, ok := expr.(*ast.CallExpr); ok {
		p.callBoundDecls = append(p.callBoundDecls, decl)
	}
	return nil
}

// parseAssignment handles `name = expr` to an already-declared variable;
// the variable must already resolve in an enclosing scope.
func (p *Parser) parseAssignment(scopeID int, tokens []token.Token, eq int) error {
	lhs := tokens[:eq]
	if len(lhs) != 1 || lhs[0].Kind != token.KindIdentifier {
		return errs.Fatal(errs.ErrUnexpectedToken, "assignment target must be a single variable at line %d", lineOf(tokens))
	}
	name := lhs[0].Lexeme
	if _, ok := p.ctx.Scopes.Resolve(scopeID, name); !ok {
		return errs.Fatal(errs.ErrVarNotDeclared, "%s at line %d", name, lineOf(tokens))
	}

	expr, err := p.parseExpression(scopeID, tokens[eq+1:])
	if err != nil {
		return err
	}
	p.ctx.Scopes.AppendStatement(scopeID, &ast.AssignmentStmt{Target: &ast.VariableExpr{Name: name}, Value: expr})
	return nil
}

// extractColonBody returns the body lines belonging to a colon-terminated
// header at lines[idx], given the indent of the header's own line and any
// inline tokens following the colon on that same physical line. It returns
// the index of the last physical line consumed, so a caller scanning forward
// (e.g. collectIfChain) can resume immediately after it.
func extractColonBody(lines [][]token.Token, idx int, indent int, inline []token.Token) (body [][]token.Token, lastIdx int) {
	if len(inline) > 0 {
		return [][]token.Token{inline}, idx
	}
	b, consumed := extractBody(lines, idx+1, indent)
	return b, idx + consumed
}

// collectIfChain gathers an `if` header/body at lines[idx] plus every
// contiguous else-if/else line sharing the same indent that immediately
// follows it, so the whole chain is handed to buildIfStmt as one unit.
// header/inline are the
// already-split `if cond` header and any inline body tokens for lines[idx].
// Returns the full chain (index 0 is the initial if) and the index of the
// last physical line the chain consumed.
func (p *Parser) collectIfChain(lines [][]token.Token, idx int, indent int, header []token.Token, inline []token.Token) (chain []ifLink, lastIdx int) {
	body, last := extractColonBody(lines, idx, indent, inline)
	chain = append(chain, ifLink{header: header, body: body})
	lastIdx = last

	for next := lastIdx + 1; next < len(lines); next = lastIdx + 1 {
		nIndent, nContent := stripIndents(lines[next])
		if nIndent != indent || len(nContent) == 0 || nContent[0].Kind != token.KindKeywordElse {
			break
		}
		nPos, nKind := findTerminator(nContent)
		if nKind != termColon {
			break
		}
		rest := nContent[1:nPos] // drop the leading "else"
		isElse := len(rest) == 0
		nInline := nContent[nPos+1:]
		nBody, nLast := extractColonBody(lines, next, indent, nInline)
		chain = append(chain, ifLink{header: rest, body: nBody, isElse: isElse})
		lastIdx = nLast
		if isElse {
			break
		}
	}
	return chain, lastIdx
}

// parseIfChain parses a single `if cond:` header/body pair into an
// ast.IfStmt with no else link. Whole if/else-if/else chains are gathered by
// parseBody through collectIfChain and built there with buildIfStmt.
func (p *Parser) parseIfChain(scopeID int, header []token.Token, body [][]token.Token) error {
	node, err := p.buildIfStmt(scopeID, header, body, nil)
	if err != nil {
		return err
	}
	p.ctx.Scopes.AppendStatement(scopeID, node)
	return nil
}

// buildIfStmt constructs one IfStmt node. elseChain, when non-empty, is the
// remaining else-if/else chain already split by collectIfChain; each
// else-if link recurses into this same function as Else. parseIfChain passes
// nil, giving an IfStmt with no else link.
func (p *Parser) buildIfStmt(scopeID int, header []token.Token, body [][]token.Token, elseChain []ifLink) (*ast.IfStmt, error) {
	condTokens := stripLeadingKeyword(header, token.KindKeywordIf)
	cond, err := p.parseExpression(scopeID, condTokens)
	if err != nil {
		return nil, err
	}

	thenScope := p.ctx.Scopes.Push(scopeID, true)
	if err := p.parseBody(thenScope, body); err != nil {
		return nil, err
	}

	node := &ast.IfStmt{Condition: cond, ThenScopeID: thenScope}

	if len(elseChain) > 0 {
		next := elseChain[0]
		if next.isElse {
			elseScope := p.ctx.Scopes.Push(scopeID, true)
			if err := p.parseBody(elseScope, next.body); err != nil {
				return nil, err
			}
			node.Else = &ast.ElseScope{ScopeID: elseScope}
		} else {
			child, err := p.buildIfStmt(scopeID, next.header, next.body, elseChain[1:])
			if err != nil {
				return nil, err
			}
			node.Else = child
		}
	}
	return node, nil
}

// ifLink is one else-if/else link of a chain collected by the caller ahead
// of time.
type ifLink struct {
	header []token.Token
	body   [][]token.Token
	isElse bool
}

func stripLeadingKeyword(tokens []token.Token, kind token.Kind) []token.Token {
	if len(tokens) > 0 && tokens[0].Kind == kind {
		return tokens[1:]
	}
	return tokens
}

// parseWhile parses `while cond:`.
func (p *Parser) parseWhile(scopeID int, header []token.Token, body [][]token.Token) error {
	condTokens := stripLeadingKeyword(header, token.KindKeywordWhile)
	cond, err := p.parseExpression(scopeID, condTokens)
	if err != nil {
		return err
	}
	bodyScope := p.ctx.Scopes.Push(scopeID, true)
	if err := p.parseBody(bodyScope, body); err != nil {
		return err
	}
	p.ctx.Scopes.AppendStatement(scopeID, &ast.WhileStmt{Condition: cond, BodyScopeID: bodyScope})
	return nil
}

// parseFor parses `for ident in iterable:`.
func (p *Parser) parseFor(scopeID int, header []token.Token, body [][]token.Token) error {
	rest := stripLeadingKeyword(header, token.KindKeywordFor)
	inIdx := -1
	for i, t := range rest {
		if t.Kind == token.KindIdentifier && t.Lexeme == "in" {
			inIdx = i
			break
		}
	}
	if inIdx != 1 {
		return errs.Fatal(errs.ErrUnexpectedToken, "malformed for-loop at line %d", lineOf(header))
	}
	iterName := rest[0].Lexeme

	bodyScope := p.ctx.Scopes.Push(scopeID, true)
	iterable, err := p.parseExpression(bodyScope, rest[inIdx+1:])
	if err != nil {
		return err
	}
	p.ctx.Scopes.Declare(bodyScope, iterName, elementType(iterable))
	if err := p.parseBody(bodyScope, body); err != nil {
		return err
	}
	p.ctx.Scopes.AppendStatement(scopeID, &ast.ForLoopStmt{IteratorName: iterName, Iterable: iterable, BodyScopeID: bodyScope})
	return nil
}

func elementType(iterable ast.Expression) string {
	if v, ok := iterable.(*ast.VariableExpr); ok {
		return v.Name + ".elem"
	}
	return "auto"
}

// parseCatch parses the `lhs_statement catch [err]:` form: the left side
// must already be a valid un-scoped statement
// (usually a declaration binding a function call), which is parsed first
// and pushed to the enclosing statement list before the CatchStmt itself.
func (p *Parser) parseCatch(scopeID int, header []token.Token, body [][]token.Token) error {
	catchIdx := -1
	depth := 0
	for i, t := range header {
		switch t.Kind {
		case token.KindLParen, token.KindLBracket, token.KindLBrace:
			depth++
		case token.KindRParen, token.KindRBracket, token.KindRBrace:
			depth--
		case token.KindKeywordCatch:
			if depth == 0 {
				catchIdx = i
			}
		}
	}
	if catchIdx < 0 {
		return errs.Fatal(errs.ErrCatchTargetInvalid, "line %d", lineOf(header))
	}

	lhs := header[:catchIdx]
	errVarTokens := header[catchIdx+1:]

	if err := p.parseFlatStatement(scopeID, lhs); err != nil {
		return errs.Fatal(errs.ErrCatchTargetInvalid, "line %d: %v", lineOf(header), err)
	}

	if p.lastCall == nil {
		return errs.Fatal(errs.ErrCatchTargetInvalid, "no call found before catch at line %d", lineOf(header))
	}
	call := p.lastCall
	call.HasCatch = true

	catchScope := p.ctx.Scopes.Push(scopeID, true)
	if len(errVarTokens) == 1 && errVarTokens[0].Kind == token.KindIdentifier {
		p.ctx.Scopes.Declare(catchScope, errVarTokens[0].Lexeme, "int")
	}
	if err := p.parseBody(catchScope, body); err != nil {
		return err
	}

	errVarName := ""
	if len(errVarTokens) == 1 && errVarTokens[0].Kind == token.KindIdentifier {
		errVarName = errVarTokens[0].Lexeme
	}
	p.ctx.Scopes.AppendStatement(scopeID, &ast.CatchStmt{ErrVarName: errVarName, CallID: call.CallID, ScopeID: catchScope})
	return nil
}
