package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// precedence is the binding power of each binary operator kind, lowest to
// highest; unary operators bind tighter than every binary operator.
var precedence = map[token.Kind]int{
	token.KindOr:  1,
	token.KindAnd: 2,
	token.KindEq:  3, token.KindNeq: 3,
	token.KindLt: 3, token.KindLeq: 3, token.KindGt: 3, token.KindGeq: 3,
	token.KindPlus: 4, token.KindMinus: 4,
	token.KindStar: 5, token.KindSlash: 5, token.KindPercent: 5,
}

var binOpSymbol = map[token.Kind]ast.BinaryOp{
	token.KindPlus: ast.BinaryAdd, token.KindMinus: ast.BinarySub,
	token.KindStar: ast.BinaryMul, token.KindSlash: ast.BinaryDiv, token.KindPercent: ast.BinaryMod,
	token.KindEq: ast.BinaryEq, token.KindNeq: ast.BinaryNeq,
	token.KindLt: ast.BinaryLt, token.KindLeq: ast.BinaryLeq,
	token.KindGt: ast.BinaryGt, token.KindGeq: ast.BinaryGeq,
	token.KindAnd: ast.BinaryAnd, token.KindOr: ast.BinaryOr,
}

// exprParser carries the cursor state a single parseExpression call needs;
// kept separate from Parser since nothing here mutates CompilationContext
// except via the outer Parser passed through for scope lookups and call
// registration.
type exprParser struct {
	p       *Parser
	scopeID int
	tokens  []token.Token
	pos     int
}

// parseExpression parses tokens as a single expression: literals,
// variables, unary/binary operators, and calls, using standard precedence
// climbing.
func (p *Parser) parseExpression(scopeID int, tokens []token.Token) (ast.Expression, error) {
	ep := &exprParser{p: p, scopeID: scopeID, tokens: tokens}
	expr, err := ep.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if ep.pos != len(ep.tokens) {
		return nil, errs.Fatal(errs.ErrUnexpectedToken, "trailing tokens in expression at line %d", lineOf(tokens))
	}
	return expr, nil
}

func (e *exprParser) peek() (token.Token, bool) {
	if e.pos >= len(e.tokens) {
		return token.Token{}, false
	}
	return e.tokens[e.pos], true
}

func (e *exprParser) parseBinary(minPrec int) (ast.Expression, error) {
	lhs, err := e.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		t, ok := e.peek()
		if !ok {
			return lhs, nil
		}
		prec, isBinOp := precedence[t.Kind]
		if !isBinOp || prec < minPrec {
			return lhs, nil
		}
		e.pos++
		rhs, err := e.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		// An empty type marks a not-yet-resolved call binding; its real type
		// only arrives with the post-parse ResolveCallTypes pass, so the
		// mismatch check applies only when both sides are already known.
		lhsType, rhsType := e.p.exprType(e.scopeID, lhs), e.p.exprType(e.scopeID, rhs)
		if lhsType != "" && rhsType != "" && lhsType != rhsType {
			return nil, errs.Fatal(errs.ErrExprBinopTypeMismatch, "%s vs %s at line %d", lhsType, rhsType, t.Line)
		}
		resultType := lhsType
		if resultType == "" {
			resultType = rhsType
		}
		lhs = &ast.BinaryExpr{Op: binOpSymbol[t.Kind], LHS: lhs, RHS: rhs, Type: resultType}
	}
}

func (e *exprParser) parseUnary() (ast.Expression, error) {
	t, ok := e.peek()
	if ok && (t.Kind == token.KindMinus || t.Kind == token.KindNot) {
		e.pos++
		operand, err := e.parseUnary()
		if err != nil {
			return nil, err
		}
		op := ast.UnaryNeg
		if t.Kind == token.KindNot {
			op = ast.UnaryNot
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, Type: e.p.exprType(e.scopeID, operand)}, nil
	}
	return e.parsePrimary()
}

func (e *exprParser) parsePrimary() (ast.Expression, error) {
	t, ok := e.peek()
	if !ok {
		return nil, errs.Fatal(errs.ErrUnexpectedToken, "unexpected end of expression")
	}

	switch t.Kind {
	case token.KindLParen:
		e.pos++
		inner, err := e.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if ct, ok := e.peek(); !ok || ct.Kind != token.KindRParen {
			return nil, errs.Fatal(errs.ErrUnclosedParen, "at line %d", t.Line)
		}
		e.pos++
		return inner, nil

	case token.KindIntLiteral, token.KindFloatLiteral, token.KindStringLiteral,
		token.KindCharLiteral, token.KindBoolLiteral:
		e.pos++
		return parseLiteralToken(t)

	case token.KindIdentifier:
		if e.pos+1 < len(e.tokens) && e.tokens[e.pos+1].Kind == token.KindLParen {
			return e.parseCallExpr()
		}
		e.pos++
		if _, ok := e.p.ctx.Scopes.Resolve(e.scopeID, t.Lexeme); !ok {
			return nil, errs.Fatal(errs.ErrVarNotDeclared, "%s at line %d", t.Lexeme, t.Line)
		}
		return &ast.VariableExpr{Name: t.Lexeme}, nil

	default:
		return nil, errs.Fatal(errs.ErrUnexpectedToken, "%v at line %d", t.Kind, t.Line)
	}
}

// parseCallExpr parses `NAME(args, …)` starting at the current position,
// registering a fresh CallNode in the shared CallRegistry.
func (e *exprParser) parseCallExpr() (ast.Expression, error) {
	name := e.tokens[e.pos].Lexeme
	e.pos++ // identifier
	openLine := e.tokens[e.pos].Line
	e.pos++ // '('

	ranges := BalancedRangeExtraction(e.tokens[e.pos-1:], token.KindLParen, token.KindRParen)
	if len(ranges) == 0 {
		return nil, errs.Fatal(errs.ErrUnclosedParen, "call to %s at line %d", name, openLine)
	}
	argTokens := e.tokens[e.pos : e.pos-1+ranges[0][1]-1]
	e.pos = e.pos - 1 + ranges[0][1]

	var args []ast.Expression
	for _, grp := range splitOnComma(argTokens) {
		if len(grp) == 0 {
			continue
		}
		arg, err := e.p.parseExpression(e.scopeID, grp)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	call := e.p.ctx.Calls.Register(&ast.CallNode{ScopeID: e.scopeID, FunctionName: name, Arguments: args})
	e.p.lastCall = call
	return &ast.CallExpr{Call: call}, nil
}

// parseCall parses a bare call statement: the whole of tokens must be
// exactly one `NAME(args…)`.
func (p *Parser) parseCall(scopeID int, tokens []token.Token) (*ast.CallNode, error) {
	ep := &exprParser{p: p, scopeID: scopeID, tokens: tokens}
	expr, err := ep.parseCallExpr()
	if err != nil {
		return nil, err
	}
	if ep.pos != len(ep.tokens) {
		return nil, errs.Fatal(errs.ErrUnexpectedToken, "trailing tokens after call at line %d", lineOf(tokens))
	}
	return expr.(*ast.CallExpr).Call, nil
}

// exprType computes an expression's static type. Variable types come from
// scope resolution; call expressions use the call's resolved (or
// not-yet-resolved) return type.
func (p *Parser) exprType(scopeID int, expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return e.Type
	case *ast.VariableExpr:
		if b, ok := p.ctx.Scopes.Resolve(scopeID, e.Name); ok {
			return b.Type
		}
		return ""
	case *ast.UnaryExpr:
		return e.Type
	case *ast.BinaryExpr:
		return e.Type
	case *ast.CallExpr:
		return e.Call.ReturnType
	default:
		return ""
	}
}
