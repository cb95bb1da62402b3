package optimizer

import (
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/types"
)

// maxExactInt is the largest magnitude at which every integer is exactly
// representable as a float64.
const maxExactInt = 1 << 53

// number returns the literal for f, preferring IntLit for integral values.
func number(f float64) ir.Expr {
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt && !(f == 0 && math.Signbit(f)) {
		return ir.Int(int64(f))
	}
	return ir.Float(f)
}

func (o *optimizer) binary(e *ir.Binary) ir.Expr {
	left, right := o.expr(e.Left), o.expr(e.Right)
	if folded, ok := foldBinary(e.Op, left, right); ok {
		o.stats.Folded++
		return folded
	}
	if simpler, ok := identity(e, left, right); ok {
		o.stats.Simplified++
		return simpler
	}
	return ir.NewBinary(e.Op, left, right, e.Type())
}

func foldBinary(op string, left, right ir.Expr) (ir.Expr, bool) {
	if r, ok := right.(*ir.StringLit); ok && op == "+" {
		if l, ok := concatText(left); ok {
			return ir.Str(l + r.Value), true
		}
	}
	switch l := left.(type) {
	case *ir.BoolLit:
		r, ok := right.(*ir.BoolLit)
		if !ok {
			return nil, false
		}
		return foldBool(op, l.Value, r.Value)
	case *ir.StringLit:
		if r, ok := right.(*ir.StringLit); ok {
			return foldString(op, l.Value, r.Value)
		}
		if r, ok := concatText(right); ok && op == "+" {
			return ir.Str(l.Value + r), true
		}
		return nil, false
	}

	li, lInt := left.(*ir.IntLit)
	ri, rInt := right.(*ir.IntLit)
	if lInt && rInt {
		if folded, ok := foldInt(op, li.Value, ri.Value); ok {
			return folded, true
		}
	}
	lf, ok := ir.NumberValue(left)
	if !ok {
		return nil, false
	}
	rf, ok := ir.NumberValue(right)
	if !ok {
		return nil, false
	}
	return foldFloat(op, lf, rf)
}

func foldBool(op string, l, r bool) (ir.Expr, bool) {
	switch op {
	case "&&":
		return ir.Bool(l && r), true
	case "||":
		return ir.Bool(l || r), true
	case "==":
		return ir.Bool(l == r), true
	case "!=":
		return ir.Bool(l != r), true
	}
	return nil, false
}

func foldString(op string, l, r string) (ir.Expr, bool) {
	switch op {
	case "+":
		return ir.Str(l + r), true
	case "==":
		return ir.Bool(l == r), true
	case "!=":
		return ir.Bool(l != r), true
	case "<":
		return ir.Bool(compareUTF16(l, r) < 0), true
	case "<=":
		return ir.Bool(compareUTF16(l, r) <= 0), true
	case ">":
		return ir.Bool(compareUTF16(l, r) > 0), true
	case ">=":
		return ir.Bool(compareUTF16(l, r) >= 0), true
	}
	return nil, false
}

// concatText renders a literal the way string concatenation does at run
// time. Floats are not rendered.
func concatText(e ir.Expr) (string, bool) {
	switch x := e.(type) {
	case *ir.IntLit:
		return strconv.FormatInt(x.Value, 10), true
	case *ir.BoolLit:
		return strconv.FormatBool(x.Value), true
	}
	return "", false
}

// compareUTF16 orders strings by UTF-16 code units, which differs from
// byte order once a string holds a rune above U+FFFF.
func compareUTF16(l, r string) int {
	a, b := utf16.Encode([]rune(l)), utf16.Encode([]rune(r))
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// exact reports whether n survives a round trip through float64 unchanged.
func exact(n int64) bool {
	return n >= -maxExactInt && n <= maxExactInt
}

// foldInt folds integer operators exactly. It declines when an operand or
// the result leaves the exact float64 range, and on operations with no
// integer result or a negative zero result, leaving those to foldFloat.
// Bitwise operators work on 32-bit two's complement values.
func foldInt(op string, l, r int64) (ir.Expr, bool) {
	if !exact(l) || !exact(r) {
		return nil, false
	}
	switch op {
	case "+":
		return exactInt(l + r)
	case "-":
		return exactInt(l - r)
	case "*":
		if (l == 0 && r < 0) || (r == 0 && l < 0) {
			return nil, false
		}
		if l != 0 && (r > maxExactInt/abs(l) || r < -maxExactInt/abs(l)) {
			return nil, false
		}
		return exactInt(l * r)
	case "%":
		if r == 0 || (l < 0 && l%r == 0) {
			return nil, false
		}
		return ir.Int(l % r), true
	case "&":
		return ir.Int(int64(int32(l) & int32(r))), true
	case "|":
		return ir.Int(int64(int32(l) | int32(r))), true
	case "^":
		return ir.Int(int64(int32(l) ^ int32(r))), true
	case "<<":
		return ir.Int(int64(int32(l) << (uint32(r) & 31))), true
	case ">>":
		return ir.Int(int64(int32(l) >> (uint32(r) & 31))), true
	case "<":
		return ir.Bool(l < r), true
	case "<=":
		return ir.Bool(l <= r), true
	case ">":
		return ir.Bool(l > r), true
	case ">=":
		return ir.Bool(l >= r), true
	case "==":
		return ir.Bool(l == r), true
	case "!=":
		return ir.Bool(l != r), true
	}
	return nil, false
}

func exactInt(n int64) (ir.Expr, bool) {
	if !exact(n) {
		return nil, false
	}
	return ir.Int(n), true
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func foldFloat(op string, l, r float64) (ir.Expr, bool) {
	var v float64
	switch op {
	case "+":
		v = l + r
	case "-":
		v = l - r
	case "*":
		v = l * r
	case "/":
		if r == 0 {
			return nil, false
		}
		v = l / r
	case "%":
		if r == 0 {
			return nil, false
		}
		v = math.Mod(l, r)
	case "**":
		v = math.Pow(l, r)
	case "<":
		return ir.Bool(l < r), true
	case "<=":
		return ir.Bool(l <= r), true
	case ">":
		return ir.Bool(l > r), true
	case ">=":
		return ir.Bool(l >= r), true
	case "==":
		return ir.Bool(l == r), true
	case "!=":
		return ir.Bool(l != r), true
	default:
		// Bitwise operators on non-integral operands are left for run time.
		return nil, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return number(v), true
}

func isNumber(e ir.Expr, want float64) bool {
	v, ok := ir.NumberValue(e)
	return ok && v == want
}

func isBool(e ir.Expr, want bool) bool {
	b, ok := e.(*ir.BoolLit)
	return ok && b.Value == want
}

// identity applies the algebraic identities that hold whatever the
// non-literal operand evaluates to.
func identity(e *ir.Binary, left, right ir.Expr) (ir.Expr, bool) {
	switch e.Type() {
	case types.Number:
		switch e.Op {
		case "+":
			if isNumber(right, 0) {
				return left, true
			}
			if isNumber(left, 0) {
				return right, true
			}
		case "-":
			if isNumber(right, 0) {
				return left, true
			}
			if isNumber(left, 0) {
				return ir.NewUnary("-", right, types.Number), true
			}
		case "*":
			if isNumber(right, 1) {
				return left, true
			}
			if isNumber(left, 1) {
				return right, true
			}
			if isNumber(left, 0) || isNumber(right, 0) {
				return ir.Int(0), true
			}
		case "/":
			if isNumber(right, 1) {
				return left, true
			}
		case "**":
			if isNumber(right, 0) || isNumber(left, 1) {
				return ir.Int(1), true
			}
		}
	case types.Boolean:
		switch e.Op {
		case "||":
			if isBool(left, false) {
				return right, true
			}
			if isBool(right, false) {
				return left, true
			}
		case "&&":
			if isBool(left, true) {
				return right, true
			}
			if isBool(right, true) {
				return left, true
			}
		}
	}
	return nil, false
}

func (o *optimizer) unary(e *ir.Unary) ir.Expr {
	operand := o.expr(e.Operand)
	if folded, ok := foldUnary(e.Op, operand); ok {
		o.stats.Folded++
		return folded
	}
	return ir.NewUnary(e.Op, operand, e.Type())
}

func foldUnary(op string, operand ir.Expr) (ir.Expr, bool) {
	switch op {
	case "-":
		switch x := operand.(type) {
		case *ir.IntLit:
			if x.Value == 0 || x.Value == math.MinInt64 {
				return ir.Float(-float64(x.Value)), true
			}
			return ir.Int(-x.Value), true
		case *ir.FloatLit:
			return ir.Float(-x.Value), true
		}
	case "!":
		if b, ok := operand.(*ir.BoolLit); ok {
			return ir.Bool(!b.Value), true
		}
	case "#":
		switch x := operand.(type) {
		case *ir.StringLit:
			return ir.Int(int64(len(utf16.Encode([]rune(x.Value))))), true
		case *ir.EmptyArrayLit:
			return ir.Int(0), true
		}
	}
	return nil, false
}
