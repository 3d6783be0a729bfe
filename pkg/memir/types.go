// Package memir synthesizes the per-type free and clone IR: a single
// flint.free / flint.clone entry point per translation unit, each switching
// over every *freeable* type known to the compilation. A type is freeable
// iff it transitively contains heap-allocated data (arrays, strings, data,
// entities, error sets, and the composites that wrap them).
//
// The AST (pkg/ast) only carries type names as strings, with no nested
// generic-type expression for "array of optional of tuple of…", so this
// package introduces TypeExpr, a small closed algebra a caller (the
// compiler driver, or a test) builds once per named type and registers by
// type id. pkg/irgen never needs this algebra; only free/clone synthesis
// does, which is why it lives here rather than in pkg/ast.
package memir

// Kind is the closed set of type variations free/clone dispatches over.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindData
	KindEntity
	KindErrorSet
	KindStr
	KindOptional
	KindTuple
	KindVariant
	KindFunc
)

// TypeExpr describes one type's shape for free/clone synthesis purposes.
// Only the fields relevant to its Kind are meaningful.
type TypeExpr struct {
	Kind   Kind
	TypeID uint64 // registered id for Data / Entity / ErrorSet
	Name   string

	Elem       *TypeExpr  // Array element type, Optional wrapped type
	Dimensions int        // Array dimensionality, for layout math only
	Fields     []TypeExpr // Data fields, Tuple elements, Entity composed modules
	Variants   []TypeExpr // Variant case payload types

	IsErrorVariant bool // Variant: the built-in error variant special case
}

// Freeable reports whether a value of this type owns heap memory that must
// be released.
func (t TypeExpr) Freeable() bool {
	switch t.Kind {
	case KindArray, KindData, KindEntity, KindErrorSet, KindStr:
		return true
	case KindOptional:
		return t.Elem != nil && t.Elem.Freeable()
	case KindTuple:
		for _, f := range t.Fields {
			if f.Freeable() {
				return true
			}
		}
		return false
	case KindVariant:
		for _, v := range t.Variants {
			if v.Freeable() {
				return true
			}
		}
		return false
	default: // KindScalar, KindFunc
		return false
	}
}

// Registry is the set of named types free/clone synthesis dispatches over,
// keyed by the same type_id free/clone's switch argument carries.
type Registry map[uint64]TypeExpr

// Freeable returns only the freeable entries of r. The switch only needs a
// case for types that actually own heap memory; everything else is a scalar
// bit-copy the caller never routes through flint.free/flint.clone in the
// first place.
func (r Registry) Freeable() []TypeExpr {
	out := make([]TypeExpr, 0, len(r))
	for _, t := range r {
		if t.Freeable() {
			out = append(out, t)
		}
	}
	return out
}
