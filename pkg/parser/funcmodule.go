package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// parseFuncModule parses a `func NAME: required-data; functions…` module:
// the data it requires positionally, plus the set of functions operating
// over it.
// The required-data declaration is the body's first flat (semicolon-
// terminated) statement; every remaining body line is a nested function
// definition parsed the same way a top-level one is.
func (p *Parser) parseFuncModule(header []token.Token, body [][]token.Token) (*ast.FuncNode, error) {
	nameIdx := -1
	for i, t := range header {
		if t.Kind == token.KindKeywordFunc {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 || nameIdx+1 >= len(header) {
		return nil, errs.Fatal(errs.ErrUnexpectedDefinition, "malformed func header at line %d", lineOf(header))
	}
	name := header[nameIdx+1].Lexeme

	node := &ast.FuncNode{Name: name}

	i := 0
	if i < len(body) {
		_, content := stripIndents(body[i])
		pos, kind := findTerminator(content)
		if kind == termSemi {
			for _, grp := range splitOnComma(content[:pos]) {
				if len(grp) == 0 {
					continue
				}
				typ, pname, ok := parseTypedName(grp)
				if !ok {
					return nil, errs.Fatal(errs.ErrUnexpectedToken, "in required-data list of func %s", name)
				}
				node.RequiredData = append(node.RequiredData, ast.Param{Type: typ, Name: pname})
			}
			i++
		}
	}

	for i < len(body) {
		defIndent, defHeader, n := extractDefinition(body[i:])
		if n == 0 {
			break
		}
		i += n

		fHeader, inline, hasColon := splitColon(defHeader)
		var fBody [][]token.Token
		if hasColon && len(inline) > 0 {
			fBody = [][]token.Token{inline}
		} else {
			b, bn := extractBody(body, i, defIndent)
			fBody = b
			i += bn
		}

		fn, err := p.parseFunction(fHeader, fBody)
		if err != nil {
			return nil, err
		}
		node.Functions = append(node.Functions, *fn)
	}

	return node, nil
}
