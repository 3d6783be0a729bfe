package ast

// Param is a (type, name) pair, used for function parameters and func-module
// required data.
type Param struct {
	Type string
	Name string
}

// FunctionNode is a top-level or func-module function definition.
type FunctionNode struct {
	Name        string
	Parameters  []Param
	ReturnTypes []string
	Body        *Scope
	IsConst     bool
	IsAligned   bool
}

// Field is a (type, name) pair for a DataNode field.
type Field struct {
	Type string
	Name string
}

// DataNode is a `data` definition: a set of fields, their default values,
// and the positional constructor order fixed by a `NAME(ident, …)`
// constructor form in the body.
type DataNode struct {
	Name             string
	Fields           []Field
	DefaultValues    map[string]Expression
	ConstructorOrder []string

	IsShared     bool
	IsImmutable  bool
	IsAligned    bool

	// FileHash is a stable identity hash of the type's name and declaring
	// file; see hashing.go.
	FileHash uint64
	// ErrorID is only meaningful for data types that participate in an
	// error set's payload and is left zero otherwise.
	ErrorID uint64
}

// FuncNode is a `func` module: named required data it operates over, plus
// the functions it exposes.
type FuncNode struct {
	Name         string
	RequiredData []Param
	Functions    []FunctionNode
}

// LinkNode records from/to dotted-path references inside an entity's `link`
// clause.
type LinkNode struct {
	FromRefs []string
	ToRefs   []string
}

// EntityNode is either modular (referencing existing data/func modules) or
// monolithic (synthesizing anonymous `E__D`/`E__F` modules). This struct
// represents the result of either form, uniformly.
type EntityNode struct {
	Name string

	ReferencedData []string
	ReferencedFunc []string
	Links          []LinkNode
	ParentEntities []string

	ConstructorOrder []string
}

// EnumNode is a plain, non-inheriting named enumeration.
type EnumNode struct {
	Name   string
	Values []string
}

// VariantNode is a tagged-union declaration: a name plus its ordered case
// list.
type VariantNode struct {
	Name   string
	Values []string
}

// ErrorNode is a named error set: an ordered list of values, an optional
// parent set it inherits from, and a stable error id.
type ErrorNode struct {
	Name   string
	Values []string
	Parent string // empty when the set has no parent

	// ErrorID is a stable hash (see hashing.go), unique across the
	// translation unit.
	ErrorID uint64
}

func (e *ErrorNode) HasParent() bool { return e.Parent != "" }

// ValueCount returns the number of values visible through this error set:
// its own values plus its parent's ValueCount, transitively. lookup
// resolves a parent name to its ErrorNode; it must
// return ok=false only if the parent genuinely doesn't exist (a condition
// the parser's signature matching is expected to have already rejected).
func (e *ErrorNode) ValueCount(lookup func(name string) (*ErrorNode, bool)) int {
	count := len(e.Values)
	if !e.HasParent() {
		return count
	}
	parent, ok := lookup(e.Parent)
	if !ok {
		return count
	}
	return count + parent.ValueCount(lookup)
}
