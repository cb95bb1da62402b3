package compiler

import (
	"fmt"

	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/types"
)

// Validate checks the structural well-formedness of bound IR.
// Returns all errors found (does not fail-fast). Every error is a
// *diag.Error of kind InternalError whose message starts with the path of
// the offending node.
//
// IR produced by Analyze always validates; a failure means the binder or a
// rewrite pass built a malformed tree.
func Validate(p *ir.Program) []error {
	if p == nil {
		return []error{internal(diag.ErrMalformedNode, "program", "missing program")}
	}
	v := &validator{bound: make(map[int]bool)}
	v.stmts(p.Statements, "statements")
	return v.errs
}

func internal(code, path, format string, args ...any) *diag.Error {
	return diag.Errorf(diag.InternalError, code, diag.Pos{}, "%s: %s", path, fmt.Sprintf(format, args...))
}

type validator struct {
	errs  []error
	bound map[int]bool
}

func (v *validator) fail(code, path, format string, args ...any) {
	v.errs = append(v.errs, internal(code, path, format, args...))
}

func (v *validator) stmts(list []ir.Stmt, path string) {
	for i, s := range list {
		v.stmt(s, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *validator) bind(variable scope.Variable, path string) {
	if variable.ID == 0 {
		v.fail(diag.ErrUnboundVariable, path, "variable %s has no id", variable.Name)
	}
	v.typ(variable.Type, path+".type")
	v.bound[variable.ID] = true
}

func (v *validator) stmt(s ir.Stmt, path string) {
	switch s := s.(type) {
	case nil:
		v.fail(diag.ErrMalformedNode, path, "missing statement")
	case *ir.NoteDecl:
		v.expr(s.Initializer, path+".initializer")
		v.bind(s.Variable, path+".variable")
	case *ir.RecordDecl:
		if s.Record == nil {
			v.fail(diag.ErrMalformedNode, path, "missing record type")
			return
		}
		for i, f := range s.Record.Fields {
			v.typ(f.Type, fmt.Sprintf("%s.fields[%d]", path, i))
		}
	case *ir.MeasureDecl:
		if len(s.Params) != len(s.Measure.Params) {
			v.fail(diag.ErrMalformedNode, path, "measure %s has %d parameter types for %d parameters",
				s.Measure.Name, len(s.Measure.Params), len(s.Params))
		}
		v.typ(s.Measure.Return, path+".return")
		for i, p := range s.Params {
			v.bind(p, fmt.Sprintf("%s.params[%d]", path, i))
		}
		v.stmts(s.Body, path+".body")
	case *ir.Block:
		v.stmts(s.Statements, path+".statements")
	case *ir.If:
		v.expr(s.Test, path+".test")
		v.stmts(s.Then, path+".then")
		v.stmts(s.Else, path+".else")
	case *ir.ShortIf:
		v.expr(s.Test, path+".test")
		v.stmts(s.Then, path+".then")
	case *ir.RepeatWhile:
		v.expr(s.Test, path+".test")
		v.stmts(s.Body, path+".body")
	case *ir.RepeatTimes:
		v.expr(s.Count, path+".count")
		v.stmts(s.Body, path+".body")
	case *ir.ForRange:
		if s.Op != ir.RangeInclusive && s.Op != ir.RangeExclusive {
			v.fail(diag.ErrMalformedNode, path, "unknown range operator %q", s.Op)
		}
		v.expr(s.Low, path+".low")
		v.expr(s.High, path+".high")
		v.bind(s.Var, path+".var")
		v.stmts(s.Body, path+".body")
	case *ir.ForEach:
		v.expr(s.Collection, path+".collection")
		v.bind(s.Var, path+".var")
		v.stmts(s.Body, path+".body")
	case *ir.Bump:
		if s.Op != "++" && s.Op != "--" {
			v.fail(diag.ErrMalformedNode, path, "unknown bump operator %q", s.Op)
		}
		v.expr(s.Target, path+".target")
	case *ir.Assign:
		v.expr(s.Target, path+".target")
		v.expr(s.Source, path+".source")
	case *ir.CallStmt:
		if s.Call == nil {
			v.fail(diag.ErrMalformedNode, path, "missing call")
			return
		}
		v.expr(s.Call, path+".call")
	case *ir.Return:
		v.expr(s.Value, path+".value")
	case *ir.Play:
		v.expr(s.Value, path+".value")
	case *ir.Rest:
		v.expr(s.Value, path+".value")
	case *ir.Break, *ir.ShortReturn:
	default:
		v.fail(diag.ErrMalformedNode, path, "unsupported statement %T", s)
	}
}

func (v *validator) expr(e ir.Expr, path string) {
	if e == nil {
		v.fail(diag.ErrMalformedNode, path, "missing expression")
		return
	}
	if e.Type() == nil {
		v.fail(diag.ErrUnresolvedType, path, "%s has no type", e.Kind())
		return
	}
	v.typ(e.Type(), path+".type")

	switch e := e.(type) {
	case *ir.IntLit, *ir.FloatLit:
		v.literal(e, types.Number, path)
	case *ir.StringLit:
		v.literal(e, types.String, path)
	case *ir.BoolLit:
		v.literal(e, types.Boolean, path)
	case *ir.NilLit:
		if !types.IsOptional(e.Type()) && !types.IsNil(e.Type()) {
			v.fail(diag.ErrLiteralType, path, "nil literal has non-optional type %s", e.Type())
		}
	case *ir.EmptyArrayLit:
		if !types.IsArray(e.Type()) {
			v.fail(diag.ErrLiteralType, path, "empty array literal has type %s", e.Type())
		}
	case *ir.ArrayLit:
		if len(e.Elements) == 0 {
			v.fail(diag.ErrMalformedNode, path, "array literal has no elements")
		}
		for i, el := range e.Elements {
			v.expr(el, fmt.Sprintf("%s.elements[%d]", path, i))
		}
	case *ir.VarRef:
		if e.Variable.ID == 0 || (e.Variable.ID > 0 && !v.bound[e.Variable.ID]) {
			v.fail(diag.ErrUnboundVariable, path, "reference to unbound variable %s", e.Variable.Name)
		}
	case *ir.MeasureRef:
	case *ir.Conditional:
		v.expr(e.Test, path+".test")
		v.expr(e.Then, path+".then")
		v.expr(e.Else, path+".else")
	case *ir.UnwrapElse:
		v.expr(e.Optional, path+".optional")
		v.expr(e.Fallback, path+".fallback")
	case *ir.Binary:
		v.expr(e.Left, path+".left")
		v.expr(e.Right, path+".right")
	case *ir.Unary:
		v.expr(e.Operand, path+".operand")
	case *ir.Call:
		v.expr(e.Callee, path+".callee")
		v.exprs(e.Args, path+".args")
	case *ir.Construct:
		if e.Record == nil || len(e.Args) != len(e.Record.Fields) {
			v.fail(diag.ErrMalformedNode, path, "construct arguments do not match record fields")
		}
		v.exprs(e.Args, path+".args")
	case *ir.Subscript:
		v.expr(e.Base, path+".base")
		v.expr(e.Index, path+".index")
	case *ir.Member:
		v.expr(e.Base, path+".base")
	default:
		v.fail(diag.ErrMalformedNode, path, "unsupported expression %T", e)
	}
}

func (v *validator) exprs(list []ir.Expr, path string) {
	for i, e := range list {
		v.expr(e, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *validator) literal(e ir.Expr, want types.Primitive, path string) {
	if e.Type() != want {
		v.fail(diag.ErrLiteralType, path, "%s has type %s, want %s", e.Kind(), e.Type(), want)
	}
}

// typ reports types with unresolved components.
func (v *validator) typ(t types.Type, path string) {
	switch t := t.(type) {
	case nil:
		v.fail(diag.ErrUnresolvedType, path, "unresolved type")
	case *types.Optional:
		v.typ(t.Inner, path)
	case *types.Array:
		v.typ(t.Element, path)
	case *types.Function:
		for _, p := range t.Params {
			v.typ(p, path)
		}
		v.typ(t.Return, path)
	case *types.Record:
		for _, f := range t.Fields {
			v.typ(f.Type, path)
		}
	}
}
