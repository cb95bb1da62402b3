package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/syntax"
	"github.com/roach88/tempo/internal/types"
)

// maxExactInt is the largest integer literal kept exact; larger ones are
// rounded to the nearest float64 like every other number at run time.
const maxExactInt = 1 << 53

func (b *binder) expr(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	return b.exprWant(n, sc, nil)
}

// exprWant binds an expression. want is the type expected by the context,
// or nil; it only informs literals that cannot be typed on their own.
func (b *binder) exprWant(n *syntax.Node, sc *scope.Scope, want types.Type) (ir.Expr, error) {
	switch n.Kind {
	case syntax.KindIntLit:
		if v, err := strconv.ParseInt(n.Text, 10, 64); err == nil && v <= maxExactInt {
			return ir.Int(v), nil
		}
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, diag.Typef(diag.ErrOperand, n.Pos, "Invalid number %s", n.Text)
		}
		return ir.Float(f), nil
	case syntax.KindFloatLit:
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, diag.Typef(diag.ErrOperand, n.Pos, "Invalid number %s", n.Text)
		}
		return ir.Float(f), nil
	case syntax.KindStringLit:
		return ir.Str(n.Text), nil
	case syntax.KindBoolLit:
		return ir.Bool(n.Text == "true"), nil
	case syntax.KindNilLit:
		if types.IsOptional(want) {
			return ir.Nil(want), nil
		}
		return ir.Nil(types.Nil), nil
	case syntax.KindEmptyOptional:
		t, err := b.resolveType(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		if !types.IsOptional(t) {
			return nil, diag.Typef(diag.ErrExpectedOptional, n.Child(0).Pos, "Expected optional type, got %s", t)
		}
		return ir.Nil(t), nil
	case syntax.KindEmptyArray:
		t, err := b.resolveType(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		return &ir.EmptyArrayLit{Typed: ir.Typed{T: t}}, nil
	case syntax.KindArrayLit:
		return b.arrayLit(n, sc, want)
	case syntax.KindIdent:
		return b.ident(n, sc)
	case syntax.KindUnary:
		return b.unary(n, sc)
	case syntax.KindBinary:
		return b.binary(n, sc)
	case syntax.KindConditional:
		return b.conditional(n, sc, want)
	case syntax.KindUnwrapElse:
		return b.unwrapElse(n, sc)
	case syntax.KindCall:
		return b.call(n, sc)
	case syntax.KindSubscript:
		return b.subscript(n, sc)
	case syntax.KindMember:
		return b.member(n, sc)
	default:
		return nil, fmt.Errorf("analyze: unexpected expression node %s at %s", n.Kind, n.Pos)
	}
}

func (b *binder) ident(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	sym, ok := sc.Lookup(n.Text)
	if !ok {
		return nil, diag.Scopef(diag.ErrUndeclared, n.Pos, "Identifier %s not declared", n.Text)
	}
	switch sym := sym.(type) {
	case scope.Variable:
		return ir.Ref(sym), nil
	case scope.Measure:
		return ir.MeasureValue(sym), nil
	case scope.RecordType:
		return nil, diag.Scopef(diag.ErrNotAValue, n.Pos, "Type %s is not a value", n.Text)
	default:
		return nil, fmt.Errorf("analyze: unknown symbol %T", sym)
	}
}

func (b *binder) arrayLit(n *syntax.Node, sc *scope.Scope, want types.Type) (ir.Expr, error) {
	if opt, ok := want.(*types.Optional); ok {
		want = opt.Inner
	}
	wantArr, _ := want.(*types.Array)

	if len(n.Children) == 0 {
		if wantArr == nil {
			return nil, diag.Typef(diag.ErrMissingContextType, n.Pos,
				"Cannot infer the element type of an empty array; write [T]()")
		}
		return &ir.EmptyArrayLit{Typed: ir.Typed{T: wantArr}}, nil
	}

	var elemWant types.Type
	if wantArr != nil {
		elemWant = wantArr.Element
	}
	elems := make([]ir.Expr, len(n.Children))
	for i, c := range n.Children {
		e, err := b.value(c, sc, elemWant)
		if err != nil {
			return nil, err
		}
		if i == 0 && types.IsNil(e.Type()) {
			return nil, diag.Typef(diag.ErrMissingContextType, c.Pos, "Cannot infer the type of nil in an array literal")
		}
		if i > 0 && !types.Equal(e.Type(), elems[0].Type()) {
			return nil, diag.Typef(diag.ErrArrayElementMismatch, c.Pos,
				"Array elements must have the same type: expected %s, got %s", elems[0].Type(), e.Type())
		}
		elems[i] = e
	}
	return &ir.ArrayLit{Typed: ir.Typed{T: types.ArrayOf(elems[0].Type())}, Elements: elems}, nil
}

func (b *binder) unary(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	operandNode := n.Child(0)
	operand, err := b.value(operandNode, sc, nil)
	if err != nil {
		return nil, err
	}
	t := operand.Type()
	switch n.Text {
	case "-":
		if t != types.Number {
			return nil, expected("number", t, operandNode.Pos)
		}
		return ir.NewUnary("-", operand, types.Number), nil
	case "!":
		if t != types.Boolean {
			return nil, expected("boolean", t, operandNode.Pos)
		}
		return ir.NewUnary("!", operand, types.Boolean), nil
	case "#":
		if t != types.String && !types.IsArray(t) {
			return nil, expected("string or array", t, operandNode.Pos)
		}
		return ir.NewUnary("#", operand, types.Number), nil
	case "some":
		if types.IsOptional(t) {
			return nil, diag.Typef(diag.ErrAlreadyOptional, operandNode.Pos, "Already an optional type")
		}
		if types.IsNil(t) {
			return nil, diag.Typef(diag.ErrMissingContextType, operandNode.Pos, "Cannot wrap nil in some")
		}
		return ir.NewUnary("some", operand, types.OptionalOf(t)), nil
	case "random":
		if t == types.Number {
			return ir.NewUnary("random", operand, types.Number), nil
		}
		if arr, ok := t.(*types.Array); ok {
			return ir.NewUnary("random", operand, arr.Element), nil
		}
		return nil, expected("number or array", t, operandNode.Pos)
	default:
		return nil, fmt.Errorf("analyze: unknown unary operator %q", n.Text)
	}
}

func (b *binder) binary(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	ln, rn := n.Child(0), n.Child(1)
	left, err := b.value(ln, sc, nil)
	if err != nil {
		return nil, err
	}
	right, err := b.value(rn, sc, nil)
	if err != nil {
		return nil, err
	}
	lt, rt := left.Type(), right.Type()

	both := func(want types.Primitive) error {
		if lt != want {
			return expected(string(want), lt, ln.Pos)
		}
		if rt != want {
			return expected(string(want), rt, rn.Pos)
		}
		return nil
	}

	switch op := n.Text; op {
	case "||", "&&":
		if err := both(types.Boolean); err != nil {
			return nil, err
		}
		return ir.NewBinary(op, left, right, types.Boolean), nil
	case "&", "|", "^", "<<", ">>", "-", "*", "/", "%", "**":
		if err := both(types.Number); err != nil {
			return nil, err
		}
		return ir.NewBinary(op, left, right, types.Number), nil
	case "+":
		if lt == types.String || rt == types.String {
			return ir.NewBinary(op, left, right, types.String), nil
		}
		if err := both(types.Number); err != nil {
			return nil, err
		}
		return ir.NewBinary(op, left, right, types.Number), nil
	case "<", "<=", ">", ">=":
		if lt != types.Number && lt != types.String {
			return nil, expected("number or string", lt, ln.Pos)
		}
		if !types.Equal(lt, rt) {
			return nil, diag.Typef(diag.ErrComparisonMismatch, rn.Pos, "Type mismatch: %s vs %s", lt, rt)
		}
		return ir.NewBinary(op, left, right, types.Boolean), nil
	case "==", "!=":
		if !types.IsAssignable(lt, rt) && !types.IsAssignable(rt, lt) {
			return nil, diag.Typef(diag.ErrComparisonMismatch, rn.Pos, "Cannot compare %s with %s", lt, rt)
		}
		return ir.NewBinary(op, left, right, types.Boolean), nil
	default:
		return nil, fmt.Errorf("analyze: unknown binary operator %q", op)
	}
}

func (b *binder) conditional(n *syntax.Node, sc *scope.Scope, want types.Type) (ir.Expr, error) {
	test, err := b.condition(n.Child(0), sc)
	if err != nil {
		return nil, err
	}
	then, err := b.value(n.Child(1), sc, want)
	if err != nil {
		return nil, err
	}
	els, err := b.value(n.Child(2), sc, want)
	if err != nil {
		return nil, err
	}
	if !types.Equal(then.Type(), els.Type()) {
		return nil, diag.Typef(diag.ErrBranchMismatch, n.Child(2).Pos, "Type mismatch: %s vs %s", then.Type(), els.Type())
	}
	return &ir.Conditional{Typed: ir.Typed{T: then.Type()}, Test: test, Then: then, Else: els}, nil
}

func (b *binder) unwrapElse(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	opt, err := b.value(n.Child(0), sc, nil)
	if err != nil {
		return nil, err
	}
	inner, err := types.InnerType(opt.Type())
	if err != nil {
		return nil, diag.Locate(err, n.Child(0).Pos)
	}
	fallback, err := b.value(n.Child(1), sc, inner)
	if err != nil {
		return nil, err
	}
	if !types.IsAssignable(fallback.Type(), inner) {
		return nil, notAssignable(fallback.Type(), inner, n.Child(1).Pos)
	}
	return &ir.UnwrapElse{Typed: ir.Typed{T: inner}, Optional: opt, Fallback: fallback}, nil
}

func (b *binder) call(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	calleeNode, argNodes := n.Child(0), n.Children[1:]

	if calleeNode.Kind == syntax.KindIdent {
		if sym, ok := sc.Lookup(calleeNode.Text); ok {
			if rt, ok := sym.(scope.RecordType); ok {
				return b.construct(n, rt.Record, argNodes, sc)
			}
		}
	}

	callee, err := b.value(calleeNode, sc, nil)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.Type().(*types.Function)
	if !ok {
		return nil, diag.Typef(diag.ErrNotCallable, calleeNode.Pos, "%s is not a function", describeCallee(calleeNode, callee))
	}
	args, err := b.args(n, fn.Params, argNodes, sc)
	if err != nil {
		return nil, err
	}
	return &ir.Call{Typed: ir.Typed{T: fn.Return}, Callee: callee, Args: args}, nil
}

func describeCallee(n *syntax.Node, e ir.Expr) string {
	if n.Kind == syntax.KindIdent {
		return n.Text
	}
	return "Value of type " + e.Type().String()
}

func (b *binder) construct(n *syntax.Node, rec *types.Record, argNodes []*syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	fieldTypes := make([]types.Type, len(rec.Fields))
	for i, f := range rec.Fields {
		fieldTypes[i] = f.Type
	}
	args, err := b.args(n, fieldTypes, argNodes, sc)
	if err != nil {
		return nil, err
	}
	return &ir.Construct{Typed: ir.Typed{T: rec}, Record: rec, Args: args}, nil
}

// args binds call arguments against parameter types.
func (b *binder) args(call *syntax.Node, params []types.Type, argNodes []*syntax.Node, sc *scope.Scope) ([]ir.Expr, error) {
	if len(argNodes) != len(params) {
		return nil, diag.Typef(diag.ErrArity, call.Pos, "Expected %d arguments but got %d", len(params), len(argNodes))
	}
	args := make([]ir.Expr, len(argNodes))
	for i, an := range argNodes {
		a, err := b.value(an, sc, params[i])
		if err != nil {
			return nil, err
		}
		if !types.IsAssignable(a.Type(), params[i]) {
			return nil, notAssignable(a.Type(), params[i], an.Pos)
		}
		args[i] = a
	}
	return args, nil
}

// chainBase binds the base of a subscript or member access. When chained,
// the base must be optional and the unwrapped type is returned.
func (b *binder) chainBase(n *syntax.Node, chained bool, sc *scope.Scope) (ir.Expr, types.Type, error) {
	base, err := b.value(n, sc, nil)
	if err != nil {
		return nil, nil, err
	}
	if !chained {
		return base, base.Type(), nil
	}
	inner, err := types.InnerType(base.Type())
	if err != nil {
		return nil, nil, diag.Locate(err, n.Pos)
	}
	return base, inner, nil
}

// chainResult wraps the result of an optional chain, without double-wrapping.
func chainResult(t types.Type, chained bool) types.Type {
	if chained && !types.IsOptional(t) {
		return types.OptionalOf(t)
	}
	return t
}

func (b *binder) subscript(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	chained := n.Text == "?"
	base, target, err := b.chainBase(n.Child(0), chained, sc)
	if err != nil {
		return nil, err
	}
	var elem types.Type
	if target == types.String {
		elem = types.String
	} else if elem, err = types.ElementType(target); err != nil {
		return nil, diag.Locate(err, n.Child(0).Pos)
	}
	index, err := b.number(n.Child(1), sc)
	if err != nil {
		return nil, err
	}
	return &ir.Subscript{Typed: ir.Typed{T: chainResult(elem, chained)}, Base: base, Index: index, Chained: chained}, nil
}

func (b *binder) member(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	chained := n.Text == "?."
	base, target, err := b.chainBase(n.Child(0), chained, sc)
	if err != nil {
		return nil, err
	}
	rec, ok := target.(*types.Record)
	if !ok {
		return nil, diag.Typef(diag.ErrNotARecord, n.Child(0).Pos, "Expected a grand type, got %s", target)
	}
	fieldNode := n.Child(1)
	field, ok := rec.Field(fieldNode.Text)
	if !ok {
		return nil, diag.Typef(diag.ErrNoSuchField, fieldNode.Pos, "No such field: %s", fieldNode.Text)
	}
	return &ir.Member{Typed: ir.Typed{T: chainResult(field.Type, chained)}, Base: base, Field: field.Name, Chained: chained}, nil
}
