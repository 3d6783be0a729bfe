package parser

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/token"
)

// Parser holds the shared CompilationContext (call registry, scope arena,
// data/error-set indices) a single translation unit's worth of parsing
// mutates.
type Parser struct {
	ctx *compiler.CompilationContext

	// lastCall tracks the most recently registered CallNode, so a
	// following `catch` on the same statement can find the call it guards
	// by its most recent call id without re-scanning the statement it was
	// parsed from.
	lastCall *ast.CallNode

	// sourceName feeds ast.ComputeFileHash; it is whatever name the caller
	// wants stable hashes qualified by (a path, a logical module name, …).
	sourceName string

	// callBoundDecls collects every declaration whose RHS is a call, since
	// such a declaration's type can't be known until ResolveCallTypes has
	// assigned the call's ReturnType. ResolveCallTypes re-patches each of
	// these once it has walked the whole file.
	callBoundDecls []*ast.DeclarationStmt
}

// New returns a Parser bound to ctx.
func New(ctx *compiler.CompilationContext) *Parser {
	return &Parser{ctx: ctx}
}

// SetSourceName sets the name ast.ComputeFileHash qualifies data-type hashes
// by. Optional; defaults to "" when never called.
func (p *Parser) SetSourceName(name string) { p.sourceName = name }

// Definition header signatures, used purely for classification. Matched
// against the first token only, since every definition kind is uniquely
// identified by its leading keyword.
var (
	sigImport  = Signature{One(token.KindKeywordImport)}
	sigData    = Signature{One(token.KindKeywordData)}
	sigFunc    = Signature{One(token.KindKeywordFunc)}
	sigEntity  = Signature{One(token.KindKeywordEntity)}
	sigEnum    = Signature{One(token.KindKeywordEnum)}
	sigVariant = Signature{One(token.KindKeywordVariant)}
	sigError   = Signature{One(token.KindKeywordError)}
)

func leading(tokens []token.Token) []token.Token {
	if len(tokens) == 0 {
		return tokens
	}
	return tokens[:1]
}

// containsDef reports whether header carries a `def` keyword anywhere
// before the first paren, accounting for the leading modifiers (`const`,
// `aligned`) a function definition allows.
func containsDef(header []token.Token) bool {
	for _, t := range header {
		if t.Kind == token.KindLParen {
			return false
		}
		if t.Kind == token.KindKeywordDef {
			return true
		}
	}
	return false
}

// ParseFile runs the top-level loop: while tokens remain, extract the next
// definition line, extract its body block by indent, classify by signature,
// and dispatch to the matching constructor.
func (p *Parser) ParseFile(tokens []token.Token) (*ast.FileNode, error) {
	lines := groupLines(tokens)
	file := &ast.FileNode{}

	i := 0
	for i < len(lines) {
		indent, headerLine, n := extractDefinition(lines[i:])
		if n == 0 {
			break
		}
		i += n

		header, inline, hasColon := splitColon(headerLine)
		var body [][]token.Token
		if hasColon && len(inline) > 0 {
			// Inline form: `def f() -> int: return 41 + 1;` puts the whole
			// single-statement body on the definition's own line.
			body = [][]token.Token{inline}
		} else {
			b, bn := extractBody(lines, i, indent)
			body = b
			i += bn
		}

		def, err := p.dispatchDefinition(file, header, body)
		if err != nil {
			return nil, err
		}
		switch d := def.(type) {
		case ast.ImportNode:
			file.Imports = append(file.Imports, d)
		case ast.Definition:
			file.Definitions = append(file.Definitions, d)
			p.registerDefinition(d)
		}
	}

	if err := p.ResolveCallTypes(file); err != nil {
		return nil, err
	}
	return file, nil
}

// dispatchDefinition classifies one definition header and calls the
// matching constructor.
func (p *Parser) dispatchDefinition(file *ast.FileNode, header []token.Token, body [][]token.Token) (interface{}, error) {
	switch {
	case TokensMatch(leading(header), sigImport):
		return p.parseImport(header)
	case TokensMatch(leading(header), sigData):
		return p.parseData(header, body)
	case TokensMatch(leading(header), sigFunc):
		return p.parseFuncModule(header, body)
	case TokensMatch(leading(header), sigEntity):
		return p.parseEntity(header, body)
	case TokensMatch(leading(header), sigEnum):
		return p.parseEnum(header, body)
	case TokensMatch(leading(header), sigVariant):
		return p.parseVariant(header, body)
	case TokensMatch(leading(header), sigError):
		return p.parseErrorSet(file, header, body)
	case containsDef(header):
		return p.parseFunction(header, body)
	default:
		return nil, errs.Fatal(errs.ErrUnexpectedDefinition, "at line %d", lineOf(header))
	}
}

// registerDefinition indexes a data/func/error-set definition into the
// shared CompilationContext as soon as it is parsed, so a later definition in
// the same file (an entity referencing it, an error set extending it) can
// already look it up.
func (p *Parser) registerDefinition(d ast.Definition) {
	switch v := d.(type) {
	case *ast.DataNode:
		p.ctx.RegisterData(v)
	case *ast.FuncNode:
		p.ctx.RegisterFuncModule(v)
	case *ast.ErrorNode:
		p.ctx.RegisterErrorSet(v)
	}
}

func lineOf(tokens []token.Token) int {
	if len(tokens) == 0 {
		return 0
	}
	return tokens[0].Line
}
