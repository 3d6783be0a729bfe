// Package errs defines the compile-time error taxonomy.
//
// Every compile-time error in this module is fatal: the parser and IR
// generator never attempt to recover or emit partial output. Sentinel
// errors are wrapped with github.com/go-errors/errors so a caller that
// wants to render a diagnostic has a stack trace to work from, without
// this package needing to know anything about rendering.
package errs

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Parse errors. All fatal.
var (
	ErrUnexpectedDefinition          = errors.New("unexpected definition")
	ErrUnclosedParen                 = errors.New("unclosed parenthesis")
	ErrVarNotDeclared                = errors.New("variable not declared")
	ErrVarFromRequiresList           = errors.New("duplicate parameter name")
	ErrExprBinopTypeMismatch         = errors.New("binary operator operand type mismatch")
	ErrMissingBody                   = errors.New("missing body")
	ErrUndefinedStatement            = errors.New("undefined statement")
	ErrUseStatementNotAtTopLevel     = errors.New("use/import statement not at top level")
	ErrConstructorNameMismatch       = errors.New("constructor name does not match data name")
	ErrEntityConstructorNameMismatch = errors.New("entity constructor name does not match entity name")
	ErrCanOnlyExtendSingleErrorSet   = errors.New("error set can only extend a single parent")
	ErrUnexpectedToken               = errors.New("unexpected token")
	ErrDanglingElse                  = errors.New("else without preceding if")
	ErrCatchTargetInvalid            = errors.New("catch left-hand side is not a valid call-binding statement")
	ErrUnknownCallID                 = errors.New("catch references an unknown call id")
	ErrCallHasNoCatch                = errors.New("catch references a call that was never marked has_catch")
)

// IR-generation errors. All fatal.
var (
	ErrGenerating        = errors.New("IR generation failed")
	ErrNotImplementedYet = errors.New("construct not implemented yet")
)

// Runtime errors emitted *into* the IR: these are not Go errors raised by
// this package; they describe the printf+abort sequences the IR generator
// synthesizes for unknown type/value ids. The constants exist so both
// pkg/irgen and pkg/memir synthesize the exact same message text.
const (
	RuntimeMsgUnknownErrType  = "unknown error type id"
	RuntimeMsgUnknownErrValue = "unknown error value id"
	RuntimeMsgUnknownFreeType = "unknown free/clone type id"
)

// Fatal wraps err with a stack trace and category, for a caller that wants
// to report file/line/column/rule without this package rendering anything
// itself.
func Fatal(category error, format string, args ...interface{}) error {
	wrapped := fmt.Errorf("%w: "+format, append([]interface{}{category}, args...)...)
	return goerrors.Wrap(wrapped, 1)
}

// Is reports whether err (possibly wrapped by Fatal) matches a sentinel.
func Is(err error, target error) bool { return errors.Is(err, target) }
