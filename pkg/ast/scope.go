package ast

// VarBinding records a declared variable's type and the scope that declared
// it. The declaring scope id never changes once recorded.
type VarBinding struct {
	Type             string
	DeclaringScopeID int
}

// Scope is a nested symbol table: a scope id, a parent link, the variables
// declared directly in it, and its ordered statement body. The parent is a
// ParentID into an arena (pkg/scope.Arena), not an owning pointer, which
// keeps ownership tree-shaped and scope ids reproducible.
type Scope struct {
	ID        int
	ParentID  int
	HasParent bool

	Variables map[string]VarBinding
	Body      []Statement
}

// NewScope allocates a scope with the given id and optional parent.
func NewScope(id int, parentID int, hasParent bool) *Scope {
	return &Scope{
		ID:        id,
		ParentID:  parentID,
		HasParent: hasParent,
		Variables: map[string]VarBinding{},
	}
}
