package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/scope"
)

// indentUnit is the pretty-printer's rendering of one parser indent level.
// It does not need to match the lexer's own indent width since pretty-
// printed output is always re-lexed from scratch before it is re-parsed.
const indentUnit = "    "

// Printer renders a FileNode back to source text. It walks the closed set
// of typed nodes directly, one type-switch case per construct, emitting
// indented lines.
type Printer struct {
	scopes *scope.Arena
	buf    bytes.Buffer
}

// NewPrinter returns a Printer resolving statement scopes through scopes
// (the same arena the parser populated).
func NewPrinter(scopes *scope.Arena) *Printer {
	return &Printer{scopes: scopes}
}

// Print renders file as flint source text.
func Print(scopes *scope.Arena, file *ast.FileNode) string {
	p := NewPrinter(scopes)
	p.printFile(file)
	return strings.TrimSpace(p.buf.String()) + "\n"
}

func (p *Printer) write(indent int, format string, args ...interface{}) {
	p.buf.WriteString(strings.Repeat(indentUnit, indent))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteString("\n")
}

func (p *Printer) printFile(file *ast.FileNode) {
	for _, imp := range file.Imports {
		p.printImport(imp)
	}
	if len(file.Imports) > 0 {
		p.buf.WriteString("\n")
	}
	for i, def := range file.Definitions {
		p.printDefinition(def)
		if i < len(file.Definitions)-1 {
			p.buf.WriteString("\n")
		}
	}
}

func (p *Printer) printImport(imp ast.ImportNode) {
	if imp.IsPath() {
		p.write(0, "import %q", imp.Path)
		return
	}
	p.write(0, "import %s", strings.Join(imp.Dotted, "."))
}

func (p *Printer) printDefinition(def ast.Definition) {
	switch d := def.(type) {
	case *ast.FunctionNode:
		p.printFunction(0, d)
	case *ast.DataNode:
		p.printData(d)
	case *ast.FuncNode:
		p.printFuncModule(d)
	case *ast.EntityNode:
		p.printEntity(d)
	case *ast.EnumNode:
		p.write(0, "enum %s: %s;", d.Name, strings.Join(d.Values, ", "))
	case *ast.VariantNode:
		p.write(0, "variant %s: %s;", d.Name, strings.Join(d.Values, ", "))
	case *ast.ErrorNode:
		p.printErrorSet(d)
	}
}

func (p *Printer) printFunction(indent int, fn *ast.FunctionNode) {
	var modifiers string
	if fn.IsConst {
		modifiers += "const "
	}
	if fn.IsAligned {
		modifiers += "aligned "
	}

	params := make([]string, len(fn.Parameters))
	for i, prm := range fn.Parameters {
		params[i] = prm.Type + " " + prm.Name
	}

	ret := "void"
	if len(fn.ReturnTypes) == 1 {
		ret = fn.ReturnTypes[0]
	} else if len(fn.ReturnTypes) > 1 {
		ret = "(" + strings.Join(fn.ReturnTypes, ", ") + ")"
	}

	p.write(indent, "%sdef %s(%s) -> %s:", modifiers, fn.Name, strings.Join(params, ", "), ret)
	p.printScope(indent+1, fn.Body)
}

func (p *Printer) printData(d *ast.DataNode) {
	var modifiers string
	if d.IsShared {
		modifiers += "shared "
	}
	if d.IsImmutable {
		modifiers += "immutable "
	}
	if d.IsAligned {
		modifiers += "aligned "
	}
	p.write(0, "%sdata %s:", modifiers, d.Name)
	for _, f := range d.Fields {
		if def, ok := d.DefaultValues[f.Name]; ok {
			p.write(1, "%s %s = %s;", f.Type, f.Name, p.exprString(def))
		} else {
			p.write(1, "%s %s;", f.Type, f.Name)
		}
	}
	if len(d.ConstructorOrder) > 0 {
		p.write(1, "%s(%s);", d.Name, strings.Join(d.ConstructorOrder, ", "))
	}
}

func (p *Printer) printFuncModule(fn *ast.FuncNode) {
	p.write(0, "func %s:", fn.Name)
	reqd := make([]string, len(fn.RequiredData))
	for i, r := range fn.RequiredData {
		reqd[i] = r.Type + " " + r.Name
	}
	if len(reqd) > 0 {
		p.write(1, "%s;", strings.Join(reqd, ", "))
	}
	for i := range fn.Functions {
		p.printFunction(1, &fn.Functions[i])
	}
}

func (p *Printer) printEntity(e *ast.EntityNode) {
	header := "entity " + e.Name
	if len(e.ParentEntities) > 0 {
		header += ": " + strings.Join(e.ParentEntities, ", ")
	}
	p.write(0, "%s:", header)
	for _, d := range e.ReferencedData {
		p.write(1, "%s;", d)
	}
	for _, f := range e.ReferencedFunc {
		p.write(1, "%s;", f)
	}
	for _, l := range e.Links {
		p.write(1, "link %s -> %s;", strings.Join(l.FromRefs, ", "), strings.Join(l.ToRefs, ", "))
	}
	if len(e.ConstructorOrder) > 0 {
		p.write(1, "%s(%s);", e.Name, strings.Join(e.ConstructorOrder, ", "))
	}
}

func (p *Printer) printErrorSet(e *ast.ErrorNode) {
	header := "error " + e.Name
	if e.HasParent() {
		header += ": " + e.Parent
	}
	p.write(0, "%s: %s;", header, strings.Join(e.Values, ", "))
}

func (p *Printer) printScope(indent int, s *ast.Scope) {
	if s == nil {
		return
	}
	for _, stmt := range s.Body {
		p.printStatement(indent, stmt)
	}
}

func (p *Printer) printStatement(indent int, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		if s.Expr == nil {
			p.write(indent, "return;")
		} else {
			p.write(indent, "return %s;", p.exprString(s.Expr))
		}

	case *ast.ThrowStmt:
		p.write(indent, "throw %s;", p.exprString(s.Expr))

	case *ast.DeclarationStmt:
		p.write(indent, "%s := %s;", s.Name, p.exprString(s.Value))

	case *ast.AssignmentStmt:
		p.write(indent, "%s = %s;", p.exprString(s.Target), p.exprString(s.Value))

	case *ast.CallStmt:
		p.write(indent, "%s;", p.callString(s.Call))

	case *ast.CatchStmt:
		p.write(indent, "catch %s:", s.ErrVarName)
		p.printScope(indent+1, p.scopes.Get(s.ScopeID))

	case *ast.WhileStmt:
		p.write(indent, "while %s:", p.exprString(s.Condition))
		p.printScope(indent+1, p.scopes.Get(s.BodyScopeID))

	case *ast.ForLoopStmt:
		p.write(indent, "for %s in %s:", s.IteratorName, p.exprString(s.Iterable))
		p.printScope(indent+1, p.scopes.Get(s.BodyScopeID))

	case *ast.IfStmt:
		p.printIfChain(indent, s, true)
	}
}

// printIfChain renders one link of an if/else-if/else chain, recursing
// through Else. first distinguishes the head link ("if") from a link
// reached via Else ("else if").
func (p *Printer) printIfChain(indent int, s *ast.IfStmt, first bool) {
	kw := "else if"
	if first {
		kw = "if"
	}
	p.write(indent, "%s %s:", kw, p.exprString(s.Condition))
	p.printScope(indent+1, p.scopes.Get(s.ThenScopeID))

	switch e := s.Else.(type) {
	case *ast.IfStmt:
		p.printIfChain(indent, e, false)
	case *ast.ElseScope:
		p.write(indent, "else:")
		p.printScope(indent+1, p.scopes.Get(e.ScopeID))
	}
}

func (p *Printer) callString(call *ast.CallNode) string {
	args := make([]string, len(call.Arguments))
	for i, a := range call.Arguments {
		args[i] = p.exprString(a)
	}
	return call.FunctionName + "(" + strings.Join(args, ", ") + ")"
}

func (p *Printer) exprString(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalString(e)
	case *ast.VariableExpr:
		return e.Name
	case *ast.UnaryExpr:
		return string(e.Op) + p.exprString(e.Operand)
	case *ast.BinaryExpr:
		return p.exprString(e.LHS) + " " + string(e.Op) + " " + p.exprString(e.RHS)
	case *ast.CallExpr:
		return p.callString(e.Call)
	default:
		return ""
	}
}

func literalString(l *ast.LiteralExpr) string {
	switch l.Kind {
	case ast.LiteralInt:
		return strconv.FormatInt(l.Value.(int64), 10)
	case ast.LiteralFloat:
		return strconv.FormatFloat(l.Value.(float64), 'g', -1, 64)
	case ast.LiteralString:
		return strconv.Quote(l.Value.(string))
	case ast.LiteralChar:
		return "'" + string(l.Value.(rune)) + "'"
	case ast.LiteralBool:
		return strconv.FormatBool(l.Value.(bool))
	default:
		return ""
	}
}
