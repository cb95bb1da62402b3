package ir

import (
	"fmt"
	"strconv"

	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/types"
)

// Encode converts an IR node into its JSON data model. The mapping is total
// over the closed node set; every object has a "kind" key and every
// expression a "type" key.
func Encode(n Node) Object {
	switch n := n.(type) {
	case *Program:
		return node(KindProgram, "statements", encodeStmts(n.Statements))
	case Stmt:
		return encodeStmt(n)
	case Expr:
		return encodeExpr(n)
	default:
		panic(fmt.Sprintf("ir.Encode: unknown node %T", n))
	}
}

func node(kind Kind, kv ...any) Object {
	obj := Object{"kind": String(kind)}
	for i := 0; i+1 < len(kv); i += 2 {
		obj[kv[i].(string)] = kv[i+1].(Value)
	}
	return obj
}

func encodeType(t types.Type) Value {
	if t == nil {
		return Null{}
	}
	return String(t.String())
}

func encodeVar(v scope.Variable) Object {
	return Object{
		"id":      Integer(v.ID),
		"name":    String(v.Name),
		"type":    encodeType(v.Type),
		"mutable": Boolean(v.Mutable),
	}
}

func encodeStmts(stmts []Stmt) List {
	out := make(List, len(stmts))
	for i, s := range stmts {
		out[i] = encodeStmt(s)
	}
	return out
}

func encodeExprs(exprs []Expr) List {
	out := make(List, len(exprs))
	for i, e := range exprs {
		out[i] = encodeExpr(e)
	}
	return out
}

func encodeStmt(s Stmt) Object {
	switch s := s.(type) {
	case *NoteDecl:
		return node(s.Kind(), "variable", encodeVar(s.Variable), "initializer", encodeExpr(s.Initializer))
	case *RecordDecl:
		fields := make(List, len(s.Record.Fields))
		for i, f := range s.Record.Fields {
			fields[i] = Object{"name": String(f.Name), "type": encodeType(f.Type)}
		}
		return node(s.Kind(), "name", String(s.Record.Name), "fields", fields)
	case *MeasureDecl:
		params := make(List, len(s.Params))
		for i, p := range s.Params {
			params[i] = encodeVar(p)
		}
		return node(s.Kind(), "name", String(s.Measure.Name), "params", params,
			"return_type", encodeType(s.Measure.Return), "body", encodeStmts(s.Body))
	case *Block:
		return node(s.Kind(), "statements", encodeStmts(s.Statements))
	case *If:
		return node(s.Kind(), "test", encodeExpr(s.Test), "then", encodeStmts(s.Then), "else", encodeStmts(s.Else))
	case *ShortIf:
		return node(s.Kind(), "test", encodeExpr(s.Test), "then", encodeStmts(s.Then))
	case *RepeatWhile:
		return node(s.Kind(), "test", encodeExpr(s.Test), "body", encodeStmts(s.Body))
	case *RepeatTimes:
		return node(s.Kind(), "count", encodeExpr(s.Count), "body", encodeStmts(s.Body))
	case *ForRange:
		return node(s.Kind(), "variable", encodeVar(s.Var), "low", encodeExpr(s.Low), "op", String(s.Op),
			"high", encodeExpr(s.High), "body", encodeStmts(s.Body))
	case *ForEach:
		return node(s.Kind(), "variable", encodeVar(s.Var), "collection", encodeExpr(s.Collection),
			"body", encodeStmts(s.Body))
	case *Bump:
		return node(s.Kind(), "target", encodeExpr(s.Target), "op", String(s.Op))
	case *Assign:
		return node(s.Kind(), "target", encodeExpr(s.Target), "source", encodeExpr(s.Source))
	case *CallStmt:
		return node(s.Kind(), "call", encodeExpr(s.Call))
	case *Break:
		return node(s.Kind())
	case *Return:
		return node(s.Kind(), "value", encodeExpr(s.Value))
	case *ShortReturn:
		return node(s.Kind())
	case *Play:
		return node(s.Kind(), "value", encodeExpr(s.Value))
	case *Rest:
		return node(s.Kind(), "value", encodeExpr(s.Value))
	default:
		panic(fmt.Sprintf("ir.Encode: unknown statement %T", s))
	}
}

func encodeExpr(e Expr) Object {
	var obj Object
	switch e := e.(type) {
	case *Conditional:
		obj = node(e.Kind(), "test", encodeExpr(e.Test), "then", encodeExpr(e.Then), "else", encodeExpr(e.Else))
	case *UnwrapElse:
		obj = node(e.Kind(), "optional", encodeExpr(e.Optional), "fallback", encodeExpr(e.Fallback))
	case *Binary:
		obj = node(e.Kind(), "op", String(e.Op), "left", encodeExpr(e.Left), "right", encodeExpr(e.Right))
	case *Unary:
		obj = node(e.Kind(), "op", String(e.Op), "operand", encodeExpr(e.Operand))
	case *Call:
		obj = node(e.Kind(), "callee", encodeExpr(e.Callee), "args", encodeExprs(e.Args))
	case *Construct:
		obj = node(e.Kind(), "record", String(e.Record.Name), "args", encodeExprs(e.Args))
	case *Subscript:
		obj = node(e.Kind(), "base", encodeExpr(e.Base), "index", encodeExpr(e.Index), "chained", Boolean(e.Chained))
	case *Member:
		obj = node(e.Kind(), "base", encodeExpr(e.Base), "field", String(e.Field), "chained", Boolean(e.Chained))
	case *ArrayLit:
		obj = node(e.Kind(), "elements", encodeExprs(e.Elements))
	case *EmptyArrayLit:
		obj = node(e.Kind())
	case *IntLit:
		obj = node(e.Kind(), "value", Integer(e.Value))
	case *FloatLit:
		obj = node(e.Kind(), "value", String(strconv.FormatFloat(e.Value, 'g', -1, 64)))
	case *StringLit:
		obj = node(e.Kind(), "value", String(e.Value))
	case *BoolLit:
		obj = node(e.Kind(), "value", Boolean(e.Value))
	case *NilLit:
		obj = node(e.Kind())
	case *VarRef:
		obj = node(e.Kind(), "variable", encodeVar(e.Variable))
	case *MeasureRef:
		obj = node(e.Kind(), "name", String(e.Measure.Name), "builtin", Boolean(e.Measure.Builtin))
	default:
		panic(fmt.Sprintf("ir.Encode: unknown expression %T", e))
	}
	obj["type"] = encodeType(e.Type())
	return obj
}
