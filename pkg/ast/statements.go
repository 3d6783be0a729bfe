package ast

// Statement is the closed sum of statement-level constructs: Return, Throw,
// If, While, ForLoop, Assignment, Declaration, Catch, and a bare call
// statement.
type Statement interface {
	statementNode()
}

func (*ReturnStmt) statementNode()      {}
func (*ThrowStmt) statementNode()       {}
func (*IfStmt) statementNode()          {}
func (*WhileStmt) statementNode()       {}
func (*ForLoopStmt) statementNode()     {}
func (*AssignmentStmt) statementNode()  {}
func (*DeclarationStmt) statementNode() {}
func (*CatchStmt) statementNode()       {}
func (*CallStmt) statementNode()        {}

// ReturnStmt stores 0 at the return struct's err_code field and the
// expression's value at the value field.
type ReturnStmt struct {
	Expr Expression // nil for a bare `return;` with no value
}

// ThrowStmt stores the int error code at err_code and leaves value at its
// default.
type ThrowStmt struct {
	Expr Expression
}

// ElseBranch is either another IfStmt (an `else if`) or a terminal ElseScope.
// A chain has exactly one terminal branch: absent (nil, falling through to
// the merge point) or an else with a non-empty body; every intermediate link
// is an IfStmt.
type ElseBranch interface {
	elseBranchNode()
}

func (*IfStmt) elseBranchNode()    {}
func (*ElseScope) elseBranchNode() {}

// ElseScope is the terminal `else:` block of an if-chain.
type ElseScope struct {
	ScopeID int
}

// IfStmt represents one link of an if/else-if/else chain: a condition, the
// scope id of its then-block, and an optional next link.
type IfStmt struct {
	Condition   Expression
	ThenScopeID int
	Else        ElseBranch // nil, *IfStmt, or *ElseScope
}

// WhileStmt is a conditional loop.
type WhileStmt struct {
	Condition   Expression
	BodyScopeID int
}

// ForLoopStmt iterates a named binding over an iterable expression, arrays
// being the language's primary composite iterable.
type ForLoopStmt struct {
	IteratorName string
	Iterable     Expression
	BodyScopeID  int
}

// AssignmentStmt assigns Value to an already-declared Target (a VariableNode
// or an indexed/field-access expression).
type AssignmentStmt struct {
	Target Expression
	Value  Expression
}

// DeclarationStmt introduces a new binding; when Value is a CallExpr the
// stored value is loaded from field 1 of the call's return struct.
type DeclarationStmt struct {
	Name    string
	Type    string
	Value   Expression
	ScopeID int
}

// CatchStmt loads the err field of the referenced call's return struct and
// branches to a catch scope on nonzero; CallID refers only to a CallNode
// whose HasCatch is true.
type CatchStmt struct {
	ErrVarName string // empty when the error code is not bound to a name
	CallID     uint64
	ScopeID    int
}

// CallStmt is a call used for its side effects, with its return value
// discarded.
type CallStmt struct {
	Call *CallNode
}
