// Package diag defines the error taxonomy shared by the parser, binder and
// IR validator.
//
// Every failure surfaced by the compiler is a *Error carrying a Kind, a
// stable Code, a human-readable message and, when known, a source position.
// Callers classify errors with the IsXxxError helpers, which see through
// wrapping via errors.As.
package diag

import (
	"errors"
	"fmt"
)

// Pos is a 1-based line:column source position. The zero Pos means unknown.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsValid reports whether the position refers to an actual source location.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// String formats the position as line:column.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Kind categorizes compile errors.
type Kind string

const (
	// SyntaxError indicates malformed source text.
	SyntaxError Kind = "SyntaxError"

	// ScopeError indicates an undeclared or redeclared name.
	ScopeError Kind = "ScopeError"

	// TypeError indicates an operand, assignability, arity or shape violation.
	TypeError Kind = "TypeError"

	// ControlFlowError indicates break/return misuse or assignment to an
	// immutable location.
	ControlFlowError Kind = "ControlFlowError"

	// InternalError indicates malformed IR produced by the compiler itself.
	InternalError Kind = "InternalError"
)

// Error codes, grouped by kind.
const (
	// Syntax errors (E100)
	ErrSyntax = "E100"

	// Scope errors (E201-E209)
	ErrUndeclared      = "E201" // name not found in any enclosing scope
	ErrAlreadyDeclared = "E202" // name already present in this scope
	ErrNotAType        = "E203" // name used as a type is not a record
	ErrNotAValue       = "E204" // name used as a value is a record type

	// Type errors (E301-E319)
	ErrNotAssignable        = "E301"
	ErrArity                = "E302"
	ErrOperand              = "E303"
	ErrDuplicateField       = "E304"
	ErrNoSuchField          = "E305"
	ErrArrayElementMismatch = "E306"
	ErrAlreadyOptional      = "E307"
	ErrExpectedOptional     = "E308"
	ErrExpectedArray        = "E309"
	ErrMissingContextType   = "E310"
	ErrConditionNotBoolean  = "E311"
	ErrBranchMismatch       = "E312"
	ErrComparisonMismatch   = "E313"
	ErrNotARecord           = "E314"
	ErrNotCallable          = "E315"
	ErrVoidValue            = "E316"
	ErrNotCallStatement     = "E317"

	// Control flow errors (E401-E409)
	ErrBreakOutsideLoop      = "E401"
	ErrReturnOutsideFunction = "E402"
	ErrImmutableAssignment   = "E403"
	ErrReturnType            = "E404"
	ErrMissingReturnValue    = "E405"

	// IR well-formedness (E501-E509)
	ErrUnresolvedType  = "E501"
	ErrLiteralType     = "E502"
	ErrUnboundVariable = "E503"
	ErrMalformedNode   = "E504"
)

// Error is a located compile error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Pos     Pos    `json:"pos"`

	// File is the compilation unit name, set by the driver.
	File string `json:"file,omitempty"`
}

// Error implements the error interface.
// Format: "file:line:col: Kind: message" with absent parts omitted.
func (e *Error) Error() string {
	loc := ""
	switch {
	case e.File != "" && e.Pos.IsValid():
		loc = fmt.Sprintf("%s:%s: ", e.File, e.Pos)
	case e.File != "":
		loc = e.File + ": "
	case e.Pos.IsValid():
		loc = e.Pos.String() + ": "
	}
	return fmt.Sprintf("%s%s: %s", loc, e.Kind, e.Message)
}

// WithFile returns a copy of e attributed to the named compilation unit.
func (e *Error) WithFile(file string) *Error {
	cp := *e
	cp.File = file
	return &cp
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, code string, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Scopef builds a ScopeError.
func Scopef(code string, pos Pos, format string, args ...any) *Error {
	return Errorf(ScopeError, code, pos, format, args...)
}

// Typef builds a TypeError.
func Typef(code string, pos Pos, format string, args ...any) *Error {
	return Errorf(TypeError, code, pos, format, args...)
}

// ControlFlowf builds a ControlFlowError.
func ControlFlowf(code string, pos Pos, format string, args ...any) *Error {
	return Errorf(ControlFlowError, code, pos, format, args...)
}

// Syntaxf builds a SyntaxError.
func Syntaxf(pos Pos, format string, args ...any) *Error {
	return Errorf(SyntaxError, ErrSyntax, pos, format, args...)
}

// Locate attaches pos to err when err is an *Error without a position.
// Other errors are returned unchanged.
func Locate(err error, pos Pos) error {
	var de *Error
	if errors.As(err, &de) && !de.Pos.IsValid() {
		cp := *de
		cp.Pos = pos
		return &cp
	}
	return err
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == kind
}

// IsSyntaxError returns true if err is a SyntaxError.
func IsSyntaxError(err error) bool { return IsKind(err, SyntaxError) }

// IsScopeError returns true if err is a ScopeError.
func IsScopeError(err error) bool { return IsKind(err, ScopeError) }

// IsTypeError returns true if err is a TypeError.
func IsTypeError(err error) bool { return IsKind(err, TypeError) }

// IsControlFlowError returns true if err is a ControlFlowError.
func IsControlFlowError(err error) bool { return IsKind(err, ControlFlowError) }

// CodeOf returns the error code of err, or "" when err is not an *Error.
func CodeOf(err error) string {
	if de, ok := As(err); ok {
		return de.Code
	}
	return ""
}
