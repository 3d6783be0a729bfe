package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// parseEnum parses a plain, non-inheriting `enum NAME: VALUE, …;` or
// indented-body form.
func (p *Parser) parseEnum(header []token.Token, body [][]token.Token) (*ast.EnumNode, error) {
	name, values, err := parseNamedValueList(header, body, token.KindKeywordEnum)
	if err != nil {
		return nil, err
	}
	return &ast.EnumNode{Name: name, Values: values}, nil
}

// parseVariant parses a tagged-union declaration: a name plus its ordered
// case list. Syntactically identical to enum.
func (p *Parser) parseVariant(header []token.Token, body [][]token.Token) (*ast.VariantNode, error) {
	name, values, err := parseNamedValueList(header, body, token.KindKeywordVariant)
	if err != nil {
		return nil, err
	}
	return &ast.VariantNode{Name: name, Values: values}, nil
}

// parseErrorSet parses a named error set: an ordered value list, an optional
// single `: Parent` it inherits from, and a stable error id. Extending more
// than one parent is rejected.
func (p *Parser) parseErrorSet(file *ast.FileNode, header []token.Token, body [][]token.Token) (*ast.ErrorNode, error) {
	nameIdx := -1
	for i, t := range header {
		if t.Kind == token.KindKeywordError {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 || nameIdx+1 >= len(header) {
		return nil, errs.Fatal(errs.ErrUnexpectedDefinition, "malformed error header at line %d", lineOf(header))
	}
	name := header[nameIdx+1].Lexeme

	rest := header[nameIdx+2:]
	parent := ""
	if len(rest) > 0 && rest[0].Kind == token.KindColon {
		parents := splitOnComma(rest[1:])
		var names [][]token.Token
		for _, grp := range parents {
			if len(grp) > 0 {
				names = append(names, grp)
			}
		}
		if len(names) > 1 {
			return nil, errs.Fatal(errs.ErrCanOnlyExtendSingleErrorSet, "error set %s at line %d", name, lineOf(header))
		}
		if len(names) == 1 && len(names[0]) == 1 {
			parent = names[0][0].Lexeme
		}
	}

	values := collectValueList(body)
	return &ast.ErrorNode{
		Name:    name,
		Values:  values,
		Parent:  parent,
		ErrorID: ast.ComputeErrorID(name),
	}, nil
}

// parseNamedValueList is the shared implementation behind enum and variant
// parsing: both are `KEYWORD NAME: VALUE, …;` with an identical body shape,
// differing only in which AST node the caller wraps the result in.
func parseNamedValueList(header []token.Token, body [][]token.Token, keyword token.Kind) (name string, values []string, err error) {
	nameIdx := -1
	for i, t := range header {
		if t.Kind == keyword {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 || nameIdx+1 >= len(header) {
		return "", nil, errs.Fatal(errs.ErrUnexpectedDefinition, "malformed header at line %d", lineOf(header))
	}
	name = header[nameIdx+1].Lexeme
	values = collectValueList(body)
	return name, values, nil
}

// collectValueList reads a comma-separated identifier list out of a
// definition's flat body.
func collectValueList(body [][]token.Token) []string {
	flat := flatten(body)
	var values []string
	for _, grp := range splitOnComma(flat) {
		for _, t := range grp {
			if t.Kind == token.KindIdentifier {
				values = append(values, t.Lexeme)
			}
		}
	}
	return values
}
