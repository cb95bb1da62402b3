package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/types"
)

func TestPrint(t *testing.T) {
	want := "let a#1: number = 1\n" +
		"let b#2: number = (+ a#1 (* 2 3))\n"
	assert.Equal(t, want, Print(sample()))
}

func TestPrintNested(t *testing.T) {
	i := scope.Variable{ID: 3, Name: "i", Type: types.Number}
	x := scope.Variable{ID: 1, Name: "x", Type: types.Number, Mutable: true}
	p := &Program{Statements: []Stmt{
		&ForRange{Var: i, Low: Int(1), Op: RangeInclusive, High: Int(3), Body: []Stmt{
			&If{Test: Bool(true), Then: []Stmt{&Bump{Target: Ref(x), Op: "++"}}, Else: []Stmt{&Break{}}},
		}},
		&Play{Value: Float(2)},
		&Rest{Value: Nil(types.OptionalOf(types.String))},
	}}
	want := "for i#3 in 1 ... 3\n" +
		"  if true\n" +
		"    x#1++\n" +
		"  else\n" +
		"    break\n" +
		"play 2.0\n" +
		"rest (no string?)\n"
	assert.Equal(t, want, Print(p))
}

func TestPrintExpr(t *testing.T) {
	pt := &types.Record{Name: "P", Fields: []types.Field{{Name: "x", Type: types.Number}}}
	p := scope.Variable{ID: 4, Name: "p", Type: types.OptionalOf(pt)}
	member := &Member{Typed: Typed{T: types.OptionalOf(types.Number)}, Base: Ref(p), Field: "x", Chained: true}
	assert.Equal(t, "(?. p#4 x)", PrintExpr(member))

	construct := &Construct{Typed: Typed{T: pt}, Record: pt, Args: []Expr{Int(1)}}
	assert.Equal(t, "(new P 1)", PrintExpr(construct))

	pi := scope.Variable{ID: scope.PiID, Name: "pi", Type: types.Number}
	assert.Equal(t, "(- pi)", PrintExpr(NewUnary("-", Ref(pi), types.Number)))

	empty := &EmptyArrayLit{Typed: Typed{T: types.ArrayOf(types.String)}}
	assert.Equal(t, "[string]()", PrintExpr(empty))
	assert.Equal(t, `"a\"b"`, PrintExpr(Str(`a"b`)))
}
