// Package scope implements the nested symbol table: a scope is created per
// function/loop/if/else/catch and chains to its enclosing scope through a
// scope id, never an owning pointer. Modeling the parent link as an index
// into an arena avoids cyclic back-pointers in an otherwise tree-shaped AST.
package scope

import (
	"fmt"

	"github.com/flint-lang/flintc/pkg/ast"
)

// Arena owns every Scope allocated within one translation unit. Scopes never
// own each other; they only reference their parent by id, so the arena, not
// any individual Scope, is the sole owner.
type Arena struct {
	scopes []*ast.Scope
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Push allocates a new child scope of parentID (or a root scope if
// hasParent is false) and returns its id. Scope ids are unique within a
// translation unit and are assigned in allocation order.
func (a *Arena) Push(parentID int, hasParent bool) int {
	id := len(a.scopes)
	a.scopes = append(a.scopes, ast.NewScope(id, parentID, hasParent))
	return id
}

// Get returns the scope allocated at id. It panics on an out-of-range id,
// since every id handed out by Push is guaranteed valid for the lifetime of
// the arena; a bad id here means a caller bug, not a user-facing error.
func (a *Arena) Get(id int) *ast.Scope {
	if id < 0 || id >= len(a.scopes) {
		panic(fmt.Sprintf("scope: invalid scope id %d", id))
	}
	return a.scopes[id]
}

// Declare records a new variable binding in the scope at id. The declaring
// scope id is fixed to id and never changes afterward.
func (a *Arena) Declare(id int, name string, typ string) {
	a.Get(id).Variables[name] = ast.VarBinding{Type: typ, DeclaringScopeID: id}
}

// Retype overwrites the recorded type of an existing binding, leaving its
// declaring scope id untouched. Used by Parser.ResolveCallTypes to backfill
// a call-bound declaration's type once the call's return type is known; the
// binding itself was already recorded by Declare before that type was
// available. A name not declared in this exact scope is a no-op.
func (a *Arena) Retype(id int, name string, typ string) {
	s := a.Get(id)
	b, ok := s.Variables[name]
	if !ok {
		return
	}
	b.Type = typ
	s.Variables[name] = b
}

// Resolve walks from scope id up through its parent chain looking for name,
// returning the binding and true on success.
func (a *Arena) Resolve(id int, name string) (ast.VarBinding, bool) {
	for {
		s := a.Get(id)
		if binding, ok := s.Variables[name]; ok {
			return binding, true
		}
		if !s.HasParent {
			return ast.VarBinding{}, false
		}
		id = s.ParentID
	}
}

// AppendStatement appends stmt to the body of the scope at id, preserving
// source order.
func (a *Arena) AppendStatement(id int, stmt ast.Statement) {
	s := a.Get(id)
	s.Body = append(s.Body, stmt)
}

// Len reports how many scopes have been allocated.
func (a *Arena) Len() int { return len(a.scopes) }
