// Package syntax turns tempo source text into a concrete syntax tree.
//
// The tree is deliberately untyped: every Node has a Kind discriminant,
// ordered Children, the Text of its lexeme (identifier name, operator,
// decoded literal) and the Pos of its first token. The binder consumes only
// these accessors.
package syntax

import (
	"fmt"
	"strings"

	"github.com/roach88/tempo/internal/diag"
)

// Kind identifies the grammar construct a Node represents.
type Kind string

// Declarations and statements.
const (
	KindProgram     Kind = "Program"
	KindBlock       Kind = "Block"
	KindNoteDecl    Kind = "NoteDecl"    // Text: let|const; [Ident, Type?, Exp]
	KindGrandDecl   Kind = "GrandDecl"   // [Ident, Field...]
	KindField       Kind = "Field"       // [Ident, Type]
	KindMeasureDecl Kind = "MeasureDecl" // [Ident, Params, Type?, Block]
	KindParams      Kind = "Params"      // [Param...]
	KindParam       Kind = "Param"       // [Ident, Type]
	KindBump        Kind = "Bump"        // Text: ++|--; [Exp]
	KindAssign      Kind = "Assign"      // [target, source]
	KindCallStmt    Kind = "CallStmt"    // [Exp]
	KindBreak       Kind = "Break"
	KindReturn      Kind = "Return"      // [Exp]
	KindShortReturn Kind = "ShortReturn" // bare return
	KindIf          Kind = "If"          // [test, Block, (Block|If)?]
	KindRepeatWhile Kind = "RepeatWhile" // [test, Block]
	KindRepeat      Kind = "Repeat"      // [count, Block]
	KindForRange    Kind = "ForRange"    // Text: ...|..<; [Ident, low, high, Block]
	KindForEach     Kind = "ForEach"     // [Ident, collection, Block]
	KindPlay        Kind = "Play"        // [Exp]
	KindRest        Kind = "Rest"        // [Exp]
)

// Expressions.
const (
	KindConditional   Kind = "Conditional"   // [test, then, else]
	KindUnwrapElse    Kind = "UnwrapElse"    // [optional, fallback]
	KindBinary        Kind = "Binary"        // Text: operator; [left, right]
	KindUnary         Kind = "Unary"         // Text: -|!|#|some|random; [operand]
	KindEmptyOptional Kind = "EmptyOptional" // no T?; [Type]
	KindCall          Kind = "Call"          // [callee, args...]
	KindSubscript     Kind = "Subscript"     // Text: ""|"?"; [base, index]
	KindMember        Kind = "Member"        // Text: .|?.; [base, Ident]
	KindArrayLit      Kind = "ArrayLit"      // [elements...]
	KindEmptyArray    Kind = "EmptyArray"    // [T](); [ArrayType]
	KindIdent         Kind = "Ident"
	KindIntLit        Kind = "IntLit"
	KindFloatLit      Kind = "FloatLit"
	KindStringLit     Kind = "StringLit" // Text is the decoded value
	KindBoolLit       Kind = "BoolLit"   // Text: true|false
	KindNilLit        Kind = "NilLit"
)

// Type expressions.
const (
	KindNamedType    Kind = "NamedType"    // Text: primitive or record name
	KindOptionalType Kind = "OptionalType" // [Type]
	KindArrayType    Kind = "ArrayType"    // [Type]
	KindFunctionType Kind = "FunctionType" // [TypeList, Type]
	KindTypeList     Kind = "TypeList"     // [Type...]
)

// Node is a concrete syntax tree node.
type Node struct {
	Kind     Kind
	Children []*Node
	Text     string
	Pos      diag.Pos
}

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// String renders the tree as a compact S-expression, for tests and debugging.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	b.WriteByte('(')
	b.WriteString(string(n.Kind))
	if n.Text != "" {
		fmt.Fprintf(b, " %q", n.Text)
	}
	for _, c := range n.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteByte(')')
}
