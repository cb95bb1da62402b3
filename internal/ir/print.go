package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/types"
)

// Print renders a program as indented text, one statement per line, with
// expressions as S-expressions. Output always ends with a newline and is
// stable across runs, which makes it suitable for golden files.
func Print(p *Program) string {
	var pr printer
	pr.stmts(p.Statements, 0)
	return pr.b.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	var pr printer
	pr.expr(e)
	return pr.b.String()
}

type printer struct {
	b strings.Builder
}

func (p *printer) line(depth int, format string, args ...any) {
	p.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func varName(v scope.Variable) string {
	if v.ID < 0 {
		return v.Name
	}
	return v.Name + "#" + strconv.Itoa(v.ID)
}

func (p *printer) stmts(stmts []Stmt, depth int) {
	for _, s := range stmts {
		p.stmt(s, depth)
	}
}

func (p *printer) stmt(s Stmt, depth int) {
	switch s := s.(type) {
	case *NoteDecl:
		q := "const"
		if s.Variable.Mutable {
			q = "let"
		}
		p.line(depth, "%s %s: %s = %s", q, varName(s.Variable), s.Variable.Type, PrintExpr(s.Initializer))
	case *RecordDecl:
		fields := make([]string, len(s.Record.Fields))
		for i, f := range s.Record.Fields {
			fields[i] = f.Name + ": " + f.Type.String()
		}
		p.line(depth, "grand %s {%s}", s.Record.Name, strings.Join(fields, ", "))
	case *MeasureDecl:
		params := make([]string, len(s.Params))
		for i, v := range s.Params {
			params[i] = varName(v) + ": " + v.Type.String()
		}
		p.line(depth, "measure %s(%s): %s", s.Measure.Name, strings.Join(params, ", "), s.Measure.Return)
		p.stmts(s.Body, depth+1)
	case *Block:
		p.line(depth, "block")
		p.stmts(s.Statements, depth+1)
	case *If:
		p.line(depth, "if %s", PrintExpr(s.Test))
		p.stmts(s.Then, depth+1)
		p.line(depth, "else")
		p.stmts(s.Else, depth+1)
	case *ShortIf:
		p.line(depth, "if %s", PrintExpr(s.Test))
		p.stmts(s.Then, depth+1)
	case *RepeatWhile:
		p.line(depth, "repeatWhile %s", PrintExpr(s.Test))
		p.stmts(s.Body, depth+1)
	case *RepeatTimes:
		p.line(depth, "repeat %s", PrintExpr(s.Count))
		p.stmts(s.Body, depth+1)
	case *ForRange:
		p.line(depth, "for %s in %s %s %s", varName(s.Var), PrintExpr(s.Low), s.Op, PrintExpr(s.High))
		p.stmts(s.Body, depth+1)
	case *ForEach:
		p.line(depth, "for %s in %s", varName(s.Var), PrintExpr(s.Collection))
		p.stmts(s.Body, depth+1)
	case *Bump:
		p.line(depth, "%s%s", PrintExpr(s.Target), s.Op)
	case *Assign:
		p.line(depth, "%s = %s", PrintExpr(s.Target), PrintExpr(s.Source))
	case *CallStmt:
		p.line(depth, "%s", PrintExpr(s.Call))
	case *Break:
		p.line(depth, "break")
	case *Return:
		p.line(depth, "return %s", PrintExpr(s.Value))
	case *ShortReturn:
		p.line(depth, "return")
	case *Play:
		p.line(depth, "play %s", PrintExpr(s.Value))
	case *Rest:
		p.line(depth, "rest %s", PrintExpr(s.Value))
	default:
		panic(fmt.Sprintf("ir.Print: unknown statement %T", s))
	}
}

func (p *printer) list(head string, exprs ...Expr) {
	p.b.WriteByte('(')
	p.b.WriteString(head)
	for _, e := range exprs {
		p.b.WriteByte(' ')
		p.expr(e)
	}
	p.b.WriteByte(')')
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *Conditional:
		p.list("?", e.Test, e.Then, e.Else)
	case *UnwrapElse:
		p.list("??", e.Optional, e.Fallback)
	case *Binary:
		p.list(e.Op, e.Left, e.Right)
	case *Unary:
		p.list(e.Op, e.Operand)
	case *Call:
		p.list("call", append([]Expr{e.Callee}, e.Args...)...)
	case *Construct:
		p.list("new "+e.Record.Name, e.Args...)
	case *Subscript:
		head := "index"
		if e.Chained {
			head = "index?"
		}
		p.list(head, e.Base, e.Index)
	case *Member:
		head := "."
		if e.Chained {
			head = "?."
		}
		p.b.WriteString("(" + head + " ")
		p.expr(e.Base)
		p.b.WriteString(" " + e.Field + ")")
	case *ArrayLit:
		p.b.WriteByte('[')
		for i, el := range e.Elements {
			if i > 0 {
				p.b.WriteByte(' ')
			}
			p.expr(el)
		}
		p.b.WriteByte(']')
	case *EmptyArrayLit:
		p.b.WriteString(e.Type().String() + "()")
	case *IntLit:
		p.b.WriteString(strconv.FormatInt(e.Value, 10))
	case *FloatLit:
		p.b.WriteString(formatFloat(e.Value))
	case *StringLit:
		p.b.WriteString(strconv.Quote(e.Value))
	case *BoolLit:
		p.b.WriteString(strconv.FormatBool(e.Value))
	case *NilLit:
		if types.IsNil(e.Type()) {
			p.b.WriteString("nil")
		} else {
			p.b.WriteString("(no " + e.Type().String() + ")")
		}
	case *VarRef:
		p.b.WriteString(varName(e.Variable))
	case *MeasureRef:
		p.b.WriteString(e.Measure.Name)
	default:
		panic(fmt.Sprintf("ir.Print: unknown expression %T", e))
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}
