package ir

import (
	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/types"
)

// Constructors for expression nodes. Literal constructors fix the type so a
// literal can never be built without one.

// Int returns an integer literal of type number.
func Int(n int64) *IntLit { return &IntLit{Typed: Typed{T: types.Number}, Value: n} }

// Float returns a float literal of type number.
func Float(f float64) *FloatLit { return &FloatLit{Typed: Typed{T: types.Number}, Value: f} }

// Str returns a string literal.
func Str(s string) *StringLit { return &StringLit{Typed: Typed{T: types.String}, Value: s} }

// Bool returns a boolean literal.
func Bool(b bool) *BoolLit { return &BoolLit{Typed: Typed{T: types.Boolean}, Value: b} }

// Nil returns an empty-optional literal of type t.
func Nil(t types.Type) *NilLit { return &NilLit{Typed: Typed{T: t}} }

// Ref returns a reference to v, typed as v.
func Ref(v scope.Variable) *VarRef { return &VarRef{Typed: Typed{T: v.Type}, Variable: v} }

// MeasureValue returns a reference to m, typed as m's function type.
func MeasureValue(m scope.Measure) *MeasureRef {
	return &MeasureRef{Typed: Typed{T: m.Type()}, Measure: m}
}

// NewBinary returns left op right with result type t.
func NewBinary(op string, left, right Expr, t types.Type) *Binary {
	return &Binary{Typed: Typed{T: t}, Op: op, Left: left, Right: right}
}

// NewUnary returns op operand with result type t.
func NewUnary(op string, operand Expr, t types.Type) *Unary {
	return &Unary{Typed: Typed{T: t}, Op: op, Operand: operand}
}

// IsLiteral reports whether e is a literal constant.
func IsLiteral(e Expr) bool {
	switch e.(type) {
	case *IntLit, *FloatLit, *StringLit, *BoolLit, *NilLit:
		return true
	}
	return false
}

// NumberValue returns the numeric value of an IntLit or FloatLit.
func NumberValue(e Expr) (float64, bool) {
	switch lit := e.(type) {
	case *IntLit:
		return float64(lit.Value), true
	case *FloatLit:
		return lit.Value, true
	}
	return 0, false
}
