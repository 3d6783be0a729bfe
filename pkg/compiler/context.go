// Package compiler ties together the shared state the pipeline threads
// through parsing, IR generation, and DIMA synthesis: the call registry,
// the scope arena, configuration, and the type indices. Keeping that state
// in one context passed through the pipeline avoids process-wide
// singletons.
package compiler

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/scope"
)

// CompilationContext is the per-translation-unit state shared by the parser
// and the IR generator. It deliberately does not own DIMA's runtime heads;
// those belong to dima.Allocator, which is constructed once per process,
// not per file.
type CompilationContext struct {
	Calls  *ast.CallRegistry
	Scopes *scope.Arena
	Config config.Config

	// DataTypes and ErrorSets index every DataNode/ErrorNode declared so
	// far, backing the resolver-facing queries AllErrors and AllDataTypes.
	DataTypes map[string]*ast.DataNode
	ErrorSets map[string]*ast.ErrorNode

	// FuncModules indexes every parsed FuncNode by name, so entity parsing
	// can tell a modular entity's referenced func-module names apart from a
	// monolithic entity's inline function definitions.
	FuncModules map[string]*ast.FuncNode
}

// New returns a fresh, empty CompilationContext.
func New(cfg config.Config) *CompilationContext {
	return &CompilationContext{
		Calls:       ast.NewCallRegistry(),
		Scopes:      scope.NewArena(),
		Config:      cfg,
		DataTypes:   map[string]*ast.DataNode{},
		ErrorSets:   map[string]*ast.ErrorNode{},
		FuncModules: map[string]*ast.FuncNode{},
	}
}

// RegisterData indexes a parsed DataNode for later lookup.
func (c *CompilationContext) RegisterData(d *ast.DataNode) { c.DataTypes[d.Name] = d }

// RegisterErrorSet indexes a parsed ErrorNode for later lookup.
func (c *CompilationContext) RegisterErrorSet(e *ast.ErrorNode) { c.ErrorSets[e.Name] = e }

// RegisterFuncModule indexes a parsed FuncNode for later lookup by entity
// parsing.
func (c *CompilationContext) RegisterFuncModule(f *ast.FuncNode) { c.FuncModules[f.Name] = f }

// GetErrorSet implements the lookup callback ast.ErrorNode.ValueCount needs
// to walk a parent chain.
func (c *CompilationContext) GetErrorSet(name string) (*ast.ErrorNode, bool) {
	e, ok := c.ErrorSets[name]
	return e, ok
}

// AllErrors returns every registered error set. Order is not significant to
// callers; pkg/irgen sorts by name before emitting switch cases so output
// is reproducible.
func (c *CompilationContext) AllErrors() []*ast.ErrorNode {
	out := make([]*ast.ErrorNode, 0, len(c.ErrorSets))
	for _, e := range c.ErrorSets {
		out = append(out, e)
	}
	return out
}

// AllDataTypes returns every registered data type.
func (c *CompilationContext) AllDataTypes() []*ast.DataNode {
	out := make([]*ast.DataNode, 0, len(c.DataTypes))
	for _, d := range c.DataTypes {
		out = append(out, d)
	}
	return out
}
