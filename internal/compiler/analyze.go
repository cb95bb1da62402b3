// Package compiler binds tempo syntax trees into typed IR.
//
// Analyze resolves identifiers against an explicit scope chain and fixes the
// type of every expression. Validate re-checks the structural invariants of
// the resulting IR.
package compiler

import (
	"fmt"

	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/syntax"
	"github.com/roach88/tempo/internal/types"
)

// Analyze binds a parsed program and returns its typed IR.
//
// Binding is fail-fast: the first violated rule is returned as a *diag.Error
// located at the offending construct, and no IR is returned. Each call owns
// a fresh scope chain rooted at the prelude, so concurrent calls on distinct
// trees are independent.
func Analyze(root *syntax.Node) (*ir.Program, error) {
	if root == nil || root.Kind != syntax.KindProgram {
		return nil, fmt.Errorf("analyze: expected a Program node")
	}
	b := &binder{}
	stmts, err := b.stmts(root.Children, scope.Prelude().Child())
	if err != nil {
		return nil, err
	}
	return &ir.Program{Statements: stmts}, nil
}

// binder holds the per-analysis variable counter. The current scope is
// always passed explicitly.
type binder struct {
	nextID int
}

func (b *binder) newVariable(name string, t types.Type, mutable bool) scope.Variable {
	b.nextID++
	return scope.Variable{ID: b.nextID, Name: name, Type: t, Mutable: mutable}
}

// declare binds sym in sc, locating an AlreadyDeclared error at pos.
func declare(sc *scope.Scope, sym scope.Symbol, pos diag.Pos) error {
	return diag.Locate(sc.Declare(sym.SymbolName(), sym), pos)
}

func (b *binder) stmts(nodes []*syntax.Node, sc *scope.Scope) ([]ir.Stmt, error) {
	out := make([]ir.Stmt, 0, len(nodes))
	for _, n := range nodes {
		s, err := b.stmt(n, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// body binds a block's statements in a new child scope.
func (b *binder) body(block *syntax.Node, sc *scope.Scope, opts ...scope.Option) ([]ir.Stmt, error) {
	return b.stmts(block.Children, sc.Child(opts...))
}

func (b *binder) stmt(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	switch n.Kind {
	case syntax.KindNoteDecl:
		return b.noteDecl(n, sc)
	case syntax.KindGrandDecl:
		return b.grandDecl(n, sc)
	case syntax.KindMeasureDecl:
		return b.measureDecl(n, sc)
	case syntax.KindBlock:
		body, err := b.body(n, sc)
		if err != nil {
			return nil, err
		}
		return &ir.Block{Statements: body}, nil
	case syntax.KindBump:
		return b.bump(n, sc)
	case syntax.KindAssign:
		return b.assign(n, sc)
	case syntax.KindCallStmt:
		e, err := b.expr(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		call, ok := e.(*ir.Call)
		if !ok {
			return nil, diag.Typef(diag.ErrNotCallStatement, n.Pos, "Expected function call")
		}
		return &ir.CallStmt{Call: call}, nil
	case syntax.KindBreak:
		if !sc.InLoop() {
			return nil, diag.ControlFlowf(diag.ErrBreakOutsideLoop, n.Pos, "Break can only appear in a loop")
		}
		return &ir.Break{}, nil
	case syntax.KindReturn, syntax.KindShortReturn:
		return b.ret(n, sc)
	case syntax.KindIf:
		return b.ifStmt(n, sc)
	case syntax.KindRepeatWhile:
		test, err := b.condition(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		body, err := b.body(n.Child(1), sc, scope.Loop())
		if err != nil {
			return nil, err
		}
		return &ir.RepeatWhile{Test: test, Body: body}, nil
	case syntax.KindRepeat:
		count, err := b.number(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		body, err := b.body(n.Child(1), sc, scope.Loop())
		if err != nil {
			return nil, err
		}
		return &ir.RepeatTimes{Count: count, Body: body}, nil
	case syntax.KindForRange:
		return b.forRange(n, sc)
	case syntax.KindForEach:
		return b.forEach(n, sc)
	case syntax.KindPlay, syntax.KindRest:
		v, err := b.value(n.Child(0), sc, nil)
		if err != nil {
			return nil, err
		}
		if n.Kind == syntax.KindPlay {
			return &ir.Play{Value: v}, nil
		}
		return &ir.Rest{Value: v}, nil
	default:
		return nil, fmt.Errorf("analyze: unexpected statement node %s at %s", n.Kind, n.Pos)
	}
}

// Declarations

func (b *binder) noteDecl(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	name := n.Child(0)
	initNode := n.Children[len(n.Children)-1]

	var declared types.Type
	if len(n.Children) == 3 {
		t, err := b.resolveType(n.Child(1), sc)
		if err != nil {
			return nil, err
		}
		declared = t
	}

	init, err := b.value(initNode, sc, declared)
	if err != nil {
		return nil, err
	}

	varType := init.Type()
	if declared != nil {
		if !types.IsAssignable(init.Type(), declared) {
			return nil, notAssignable(init.Type(), declared, initNode.Pos)
		}
		varType = declared
	} else if types.IsNil(varType) {
		return nil, diag.Typef(diag.ErrMissingContextType, initNode.Pos,
			"Cannot infer the type of nil; declare %s with an optional type", name.Text)
	}

	v := b.newVariable(name.Text, varType, n.Text == "let")
	if err := declare(sc, v, name.Pos); err != nil {
		return nil, err
	}
	return &ir.NoteDecl{Variable: v, Initializer: init}, nil
}

func (b *binder) grandDecl(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	name := n.Child(0)
	rec := &types.Record{Name: name.Text}
	seen := make(map[string]bool)
	for _, f := range n.Children[1:] {
		fname := f.Child(0)
		if seen[fname.Text] {
			return nil, diag.Typef(diag.ErrDuplicateField, fname.Pos, "Duplicate field %s in %s", fname.Text, name.Text)
		}
		seen[fname.Text] = true
		ft, err := b.resolveType(f.Child(1), sc)
		if err != nil {
			return nil, err
		}
		if ft == types.Void {
			return nil, diag.Typef(diag.ErrVoidValue, f.Child(1).Pos, "Field %s cannot have type void", fname.Text)
		}
		rec.Fields = append(rec.Fields, types.Field{Name: fname.Text, Type: ft})
	}
	if err := declare(sc, scope.RecordType{Record: rec}, name.Pos); err != nil {
		return nil, err
	}
	return &ir.RecordDecl{Record: rec}, nil
}

func (b *binder) measureDecl(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	name := n.Child(0)
	paramNodes := n.Child(1).Children
	bodyNode := n.Children[len(n.Children)-1]

	ret := types.Type(types.Void)
	if len(n.Children) == 4 {
		t, err := b.resolveType(n.Child(2), sc)
		if err != nil {
			return nil, err
		}
		ret = t
	}

	paramTypes := make([]types.Type, len(paramNodes))
	for i, p := range paramNodes {
		t, err := b.resolveType(p.Child(1), sc)
		if err != nil {
			return nil, err
		}
		paramTypes[i] = t
	}

	// Registered before the body so the measure can call itself.
	m := scope.Measure{Name: name.Text, Params: paramTypes, Return: ret}
	if err := declare(sc, m, name.Pos); err != nil {
		return nil, err
	}

	fnScope := sc.Child(scope.Function(ret))
	params := make([]scope.Variable, len(paramNodes))
	for i, p := range paramNodes {
		v := b.newVariable(p.Child(0).Text, paramTypes[i], false)
		if err := declare(fnScope, v, p.Pos); err != nil {
			return nil, err
		}
		params[i] = v
	}

	body, err := b.stmts(bodyNode.Children, fnScope)
	if err != nil {
		return nil, err
	}
	return &ir.MeasureDecl{Measure: m, Params: params, Body: body}, nil
}

// Statements

func (b *binder) bump(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	target, err := b.expr(n.Child(0), sc)
	if err != nil {
		return nil, err
	}
	if !isMutable(target) {
		return nil, immutable(n.Child(0))
	}
	if target.Type() != types.Number {
		return nil, expected("number", target.Type(), n.Child(0).Pos)
	}
	return &ir.Bump{Target: target, Op: n.Text}, nil
}

func (b *binder) assign(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	target, err := b.expr(n.Child(0), sc)
	if err != nil {
		return nil, err
	}
	if !isMutable(target) {
		return nil, immutable(n.Child(0))
	}
	source, err := b.value(n.Child(1), sc, target.Type())
	if err != nil {
		return nil, err
	}
	if !types.IsAssignable(source.Type(), target.Type()) {
		return nil, notAssignable(source.Type(), target.Type(), n.Child(1).Pos)
	}
	return &ir.Assign{Target: target, Source: source}, nil
}

// isMutable reports whether e denotes a storable location: a let variable
// or an element of an array that is itself mutable.
func isMutable(e ir.Expr) bool {
	switch e := e.(type) {
	case *ir.VarRef:
		return e.Variable.Mutable
	case *ir.Subscript:
		return !e.Chained && types.IsArray(e.Base.Type()) && isMutable(e.Base)
	}
	return false
}

func immutable(n *syntax.Node) error {
	return diag.ControlFlowf(diag.ErrImmutableAssignment, n.Pos, "Assignment to immutable variable")
}

func (b *binder) ret(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	want, ok := sc.ReturnType()
	if !ok {
		return nil, diag.ControlFlowf(diag.ErrReturnOutsideFunction, n.Pos, "Return can only appear in a function")
	}
	if n.Kind == syntax.KindShortReturn {
		if want != types.Void {
			return nil, diag.ControlFlowf(diag.ErrMissingReturnValue, n.Pos, "Missing return value of type %s", want)
		}
		return &ir.ShortReturn{}, nil
	}
	v, err := b.value(n.Child(0), sc, want)
	if err != nil {
		return nil, err
	}
	if want == types.Void || !types.IsAssignable(v.Type(), want) {
		return nil, diag.ControlFlowf(diag.ErrReturnType, n.Child(0).Pos, "Cannot return %s from a measure returning %s", v.Type(), want)
	}
	return &ir.Return{Value: v}, nil
}

func (b *binder) ifStmt(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	test, err := b.condition(n.Child(0), sc)
	if err != nil {
		return nil, err
	}
	then, err := b.body(n.Child(1), sc)
	if err != nil {
		return nil, err
	}
	alt := n.Child(2)
	if alt == nil {
		return &ir.ShortIf{Test: test, Then: then}, nil
	}
	var els []ir.Stmt
	if alt.Kind == syntax.KindIf {
		nested, err := b.ifStmt(alt, sc)
		if err != nil {
			return nil, err
		}
		els = []ir.Stmt{nested}
	} else {
		els, err = b.body(alt, sc)
		if err != nil {
			return nil, err
		}
	}
	return &ir.If{Test: test, Then: then, Else: els}, nil
}

func (b *binder) forRange(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	low, err := b.number(n.Child(1), sc)
	if err != nil {
		return nil, err
	}
	high, err := b.number(n.Child(2), sc)
	if err != nil {
		return nil, err
	}
	bodyScope := sc.Child(scope.Loop())
	v := b.newVariable(n.Child(0).Text, types.Number, false)
	if err := declare(bodyScope, v, n.Child(0).Pos); err != nil {
		return nil, err
	}
	body, err := b.stmts(n.Child(3).Children, bodyScope)
	if err != nil {
		return nil, err
	}
	return &ir.ForRange{Var: v, Low: low, Op: n.Text, High: high, Body: body}, nil
}

func (b *binder) forEach(n *syntax.Node, sc *scope.Scope) (ir.Stmt, error) {
	coll, err := b.value(n.Child(1), sc, nil)
	if err != nil {
		return nil, err
	}
	var elem types.Type
	switch t := coll.Type().(type) {
	case *types.Array:
		elem = t.Element
	default:
		if t != types.String {
			return nil, expected("string or array", t, n.Child(1).Pos)
		}
		elem = types.String
	}
	bodyScope := sc.Child(scope.Loop())
	v := b.newVariable(n.Child(0).Text, elem, false)
	if err := declare(bodyScope, v, n.Child(0).Pos); err != nil {
		return nil, err
	}
	body, err := b.stmts(n.Child(2).Children, bodyScope)
	if err != nil {
		return nil, err
	}
	return &ir.ForEach{Var: v, Collection: coll, Body: body}, nil
}

// Shared checks

func notAssignable(from, to types.Type, pos diag.Pos) error {
	return diag.Typef(diag.ErrNotAssignable, pos, "Cannot assign %s to %s", from, to)
}

func expected(what string, got types.Type, pos diag.Pos) error {
	return diag.Typef(diag.ErrOperand, pos, "Expected %s, got %s", what, got)
}

// condition binds a boolean test.
func (b *binder) condition(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	e, err := b.expr(n, sc)
	if err != nil {
		return nil, err
	}
	if e.Type() != types.Boolean {
		return nil, diag.Typef(diag.ErrConditionNotBoolean, n.Pos, "Expected boolean, got %s", e.Type())
	}
	return e, nil
}

// number binds an expression that must be numeric.
func (b *binder) number(n *syntax.Node, sc *scope.Scope) (ir.Expr, error) {
	e, err := b.expr(n, sc)
	if err != nil {
		return nil, err
	}
	if e.Type() != types.Number {
		return nil, expected("number", e.Type(), n.Pos)
	}
	return e, nil
}

// value binds an expression used for its value, rejecting void results.
// want, when non-nil, types otherwise untyped empty array literals.
func (b *binder) value(n *syntax.Node, sc *scope.Scope, want types.Type) (ir.Expr, error) {
	e, err := b.exprWant(n, sc, want)
	if err != nil {
		return nil, err
	}
	if e.Type() == types.Void {
		return nil, diag.Typef(diag.ErrVoidValue, n.Pos, "Expected a value, got void")
	}
	return e, nil
}
