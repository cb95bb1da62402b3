// Package optimizer rewrites typed IR into an equivalent, smaller program.
//
// The pass is a single post-order walk: children are optimized before their
// parent so a folded operand can enable folding at the parent in the same
// pass. Statement rewrites may produce zero, one or many statements. Inputs
// are never mutated; every rewritten node is a fresh copy. Running the pass
// on its own output changes nothing.
package optimizer

import (
	"fmt"

	"github.com/roach88/tempo/internal/ir"
)

// Stats counts the rewrites applied by one pass.
type Stats struct {
	Folded     int `json:"folded"`
	Simplified int `json:"simplified"`
	Eliminated int `json:"eliminated"`
}

// Changed reports whether any rewrite applied.
func (s Stats) Changed() bool {
	return s.Folded+s.Simplified+s.Eliminated > 0
}

// Optimize returns an optimized copy of p.
func Optimize(p *ir.Program) (*ir.Program, Stats) {
	var o optimizer
	out := &ir.Program{Statements: o.stmts(p.Statements)}
	return out, o.stats
}

// Stmt optimizes a single statement into its replacement statement list.
func Stmt(s ir.Stmt) []ir.Stmt {
	var o optimizer
	return o.stmt(s)
}

// Expr optimizes a single expression.
func Expr(e ir.Expr) ir.Expr {
	var o optimizer
	return o.expr(e)
}

type optimizer struct {
	stats Stats
}

func (o *optimizer) stmts(list []ir.Stmt) []ir.Stmt {
	out := make([]ir.Stmt, 0, len(list))
	for _, s := range list {
		out = append(out, o.stmt(s)...)
	}
	return out
}

func one(s ir.Stmt) []ir.Stmt { return []ir.Stmt{s} }

func (o *optimizer) eliminate() []ir.Stmt {
	o.stats.Eliminated++
	return []ir.Stmt{}
}

func (o *optimizer) stmt(s ir.Stmt) []ir.Stmt {
	switch s := s.(type) {
	case *ir.NoteDecl:
		cp := *s
		cp.Initializer = o.expr(s.Initializer)
		return one(&cp)
	case *ir.RecordDecl:
		return one(s)
	case *ir.MeasureDecl:
		cp := *s
		cp.Body = o.stmts(s.Body)
		return one(&cp)
	case *ir.Block:
		return one(&ir.Block{Statements: o.stmts(s.Statements)})
	case *ir.If:
		test := o.expr(s.Test)
		then := o.stmts(s.Then)
		els := o.stmts(s.Else)
		if b, ok := test.(*ir.BoolLit); ok {
			o.stats.Eliminated++
			if b.Value {
				return splice(then)
			}
			return splice(els)
		}
		return one(&ir.If{Test: test, Then: then, Else: els})
	case *ir.ShortIf:
		test := o.expr(s.Test)
		then := o.stmts(s.Then)
		if b, ok := test.(*ir.BoolLit); ok {
			if !b.Value {
				return o.eliminate()
			}
			o.stats.Eliminated++
			return splice(then)
		}
		return one(&ir.ShortIf{Test: test, Then: then})
	case *ir.RepeatWhile:
		test := o.expr(s.Test)
		if b, ok := test.(*ir.BoolLit); ok && !b.Value {
			return o.eliminate()
		}
		return one(&ir.RepeatWhile{Test: test, Body: o.stmts(s.Body)})
	case *ir.RepeatTimes:
		count := o.expr(s.Count)
		if n, ok := ir.NumberValue(count); ok && n <= 0 {
			return o.eliminate()
		}
		return one(&ir.RepeatTimes{Count: count, Body: o.stmts(s.Body)})
	case *ir.ForRange:
		low, high := o.expr(s.Low), o.expr(s.High)
		if emptyRange(low, s.Op, high) {
			return o.eliminate()
		}
		cp := *s
		cp.Low, cp.High, cp.Body = low, high, o.stmts(s.Body)
		return one(&cp)
	case *ir.ForEach:
		coll := o.expr(s.Collection)
		if emptyCollection(coll) {
			return o.eliminate()
		}
		cp := *s
		cp.Collection, cp.Body = coll, o.stmts(s.Body)
		return one(&cp)
	case *ir.Bump:
		return one(&ir.Bump{Target: o.expr(s.Target), Op: s.Op})
	case *ir.Assign:
		target, source := o.expr(s.Target), o.expr(s.Source)
		if sameVariable(target, source) {
			return o.eliminate()
		}
		return one(&ir.Assign{Target: target, Source: source})
	case *ir.CallStmt:
		return one(&ir.CallStmt{Call: o.call(s.Call)})
	case *ir.Return:
		return one(&ir.Return{Value: o.expr(s.Value)})
	case *ir.Play:
		return one(&ir.Play{Value: o.expr(s.Value)})
	case *ir.Rest:
		return one(&ir.Rest{Value: o.expr(s.Value)})
	case *ir.Break, *ir.ShortReturn:
		return one(s)
	default:
		panic(fmt.Sprintf("optimizer: unknown statement %T", s))
	}
}

// splice returns the statements of a kept branch. Branches that declare
// names are kept in a block so the declarations stay scoped to it.
func splice(branch []ir.Stmt) []ir.Stmt {
	for _, s := range branch {
		switch s.(type) {
		case *ir.NoteDecl, *ir.RecordDecl, *ir.MeasureDecl:
			return one(&ir.Block{Statements: branch})
		}
	}
	return branch
}

func emptyRange(low ir.Expr, op string, high ir.Expr) bool {
	lo, ok := ir.NumberValue(low)
	if !ok {
		return false
	}
	hi, ok := ir.NumberValue(high)
	if !ok {
		return false
	}
	if op == ir.RangeExclusive {
		return lo >= hi
	}
	return lo > hi
}

func emptyCollection(e ir.Expr) bool {
	switch e := e.(type) {
	case *ir.EmptyArrayLit:
		return true
	case *ir.StringLit:
		return e.Value == ""
	}
	return false
}

func sameVariable(a, b ir.Expr) bool {
	x, ok := a.(*ir.VarRef)
	if !ok {
		return false
	}
	y, ok := b.(*ir.VarRef)
	return ok && x.Variable.ID == y.Variable.ID
}

func (o *optimizer) exprs(list []ir.Expr) []ir.Expr {
	if list == nil {
		return nil
	}
	out := make([]ir.Expr, len(list))
	for i, e := range list {
		out[i] = o.expr(e)
	}
	return out
}

func (o *optimizer) call(c *ir.Call) *ir.Call {
	return &ir.Call{Typed: c.Typed, Callee: o.expr(c.Callee), Args: o.exprs(c.Args)}
}

func (o *optimizer) expr(e ir.Expr) ir.Expr {
	switch e := e.(type) {
	case *ir.Binary:
		return o.binary(e)
	case *ir.Unary:
		return o.unary(e)
	case *ir.Conditional:
		test, then, els := o.expr(e.Test), o.expr(e.Then), o.expr(e.Else)
		if b, ok := test.(*ir.BoolLit); ok {
			o.stats.Eliminated++
			if b.Value {
				return then
			}
			return els
		}
		return &ir.Conditional{Typed: e.Typed, Test: test, Then: then, Else: els}
	case *ir.UnwrapElse:
		opt, fallback := o.expr(e.Optional), o.expr(e.Fallback)
		if _, ok := opt.(*ir.NilLit); ok {
			o.stats.Simplified++
			return fallback
		}
		return &ir.UnwrapElse{Typed: e.Typed, Optional: opt, Fallback: fallback}
	case *ir.Call:
		return o.call(e)
	case *ir.Construct:
		return &ir.Construct{Typed: e.Typed, Record: e.Record, Args: o.exprs(e.Args)}
	case *ir.Subscript:
		return &ir.Subscript{Typed: e.Typed, Base: o.expr(e.Base), Index: o.expr(e.Index), Chained: e.Chained}
	case *ir.Member:
		return &ir.Member{Typed: e.Typed, Base: o.expr(e.Base), Field: e.Field, Chained: e.Chained}
	case *ir.ArrayLit:
		return &ir.ArrayLit{Typed: e.Typed, Elements: o.exprs(e.Elements)}
	case *ir.EmptyArrayLit, *ir.IntLit, *ir.FloatLit, *ir.StringLit, *ir.BoolLit, *ir.NilLit,
		*ir.VarRef, *ir.MeasureRef:
		return e
	default:
		panic(fmt.Sprintf("optimizer: unknown expression %T", e))
	}
}
