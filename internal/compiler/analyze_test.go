package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/syntax"
	"github.com/roach88/tempo/internal/types"
)

func analyze(t *testing.T, src string) (*ir.Program, error) {
	t.Helper()
	root, err := syntax.Parse(src)
	require.NoError(t, err, "parse %q", src)
	return Analyze(root)
}

func mustAnalyze(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := analyze(t, src)
	require.NoError(t, err)
	return p
}

// initializer returns the initializer of the i-th statement, which must be a
// note declaration.
func initializer(t *testing.T, p *ir.Program, i int) ir.Expr {
	t.Helper()
	require.Greater(t, len(p.Statements), i)
	decl, ok := p.Statements[i].(*ir.NoteDecl)
	require.True(t, ok, "statement %d is %T", i, p.Statements[i])
	return decl.Initializer
}

func TestAnalyzeEndToEnd(t *testing.T) {
	p := mustAnalyze(t, "let a = 1; let b = a + 2 * 3;")
	require.Len(t, p.Statements, 2)

	a := p.Statements[0].(*ir.NoteDecl)
	assert.Equal(t, "a", a.Variable.Name)
	assert.True(t, a.Variable.Mutable)
	assert.Equal(t, types.Number, a.Variable.Type)

	sum, ok := initializer(t, p, 1).(*ir.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, types.Number, sum.Type())

	ref, ok := sum.Left.(*ir.VarRef)
	require.True(t, ok)
	assert.Equal(t, a.Variable, ref.Variable)

	product, ok := sum.Right.(*ir.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", product.Op)
	assert.Equal(t, types.Number, product.Type())
	assert.Equal(t, ir.Int(2), product.Left)
	assert.Equal(t, ir.Int(3), product.Right)

	assert.Equal(t, "let a#1: number = 1\nlet b#2: number = (+ a#1 (* 2 3))\n", ir.Print(p))
}

func TestAnalyzeDeterministic(t *testing.T) {
	src := `
grand P { x: number }
measure f(p: P?): number { return p?.x ?? 0; }
let xs = [1, 2, 3];
for x in xs { print(f(P(x))); }
`
	first := mustAnalyze(t, src)
	second := mustAnalyze(t, src)
	assert.Equal(t, first, second)
	assert.Equal(t, ir.MustFingerprint(first), ir.MustFingerprint(second))
}

func TestAnalyzeScoping(t *testing.T) {
	_, err := analyze(t, "let x = 1; let x = 2;")
	require.Error(t, err)
	assert.True(t, diag.IsScopeError(err))
	assert.Equal(t, diag.ErrAlreadyDeclared, diag.CodeOf(err))
	de, _ := diag.As(err)
	assert.Equal(t, diag.Pos{Line: 1, Column: 16}, de.Pos)

	p := mustAnalyze(t, "let x = 1; { let x = 2; }")
	block := p.Statements[1].(*ir.Block)
	inner := block.Statements[0].(*ir.NoteDecl)
	outer := p.Statements[0].(*ir.NoteDecl)
	assert.NotEqual(t, outer.Variable.ID, inner.Variable.ID)
}

func TestAnalyzeBranchScopes(t *testing.T) {
	_, err := analyze(t, "if on { let y = 1; } else { y++; }")
	require.Error(t, err)
	assert.True(t, diag.IsScopeError(err))
	assert.Equal(t, diag.ErrUndeclared, diag.CodeOf(err))
	assert.Contains(t, err.Error(), "Identifier y not declared")
}

func TestAnalyzeShadowingPrelude(t *testing.T) {
	p := mustAnalyze(t, "let pi = 3; let sin = \"s\";")
	assert.Len(t, p.Statements, 2)
}

func TestAnalyzeAssignability(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"nil to optional", "let x: number? = nil;", ""},
		{"no literal", "let x = no string?;", ""},
		{"value to optional", "let x: number? = 4;", ""},
		{"nil to number", "let x: number = nil;", diag.ErrNotAssignable},
		{"untyped nil", "let x = nil;", diag.ErrMissingContextType},
		{"array element types", `let xs: [string] = [1, 2];`, diag.ErrNotAssignable},
		{"empty array from context", "let xs: [number] = [];", ""},
		{"empty array without context", "let xs = [];", diag.ErrMissingContextType},
		{"explicit empty array", "let xs = [boolean]();", ""},
		{"any accepts everything", "let x: any = [1];", ""},
		{"function values", "let f: (number)->number = sqrt;", ""},
		{"function mismatch", "let f: (number, number)->number = sqrt;", diag.ErrNotAssignable},
		{"no of non-optional", "let x = no number;", diag.ErrExpectedOptional},
		{"double optional", "let x: (number?)? = nil;", diag.ErrAlreadyOptional},
		{"mixed array literal", `let xs = [1, "a"];`, diag.ErrArrayElementMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyze(t, tt.src)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, diag.IsTypeError(err), "got %v", err)
			assert.Equal(t, tt.code, diag.CodeOf(err), "got %v", err)
		})
	}
}

func TestAnalyzeNilTakesContextType(t *testing.T) {
	p := mustAnalyze(t, "let x: number? = nil;")
	lit, ok := initializer(t, p, 0).(*ir.NilLit)
	require.True(t, ok)
	assert.Equal(t, "number?", lit.Type().String())
}

func TestAnalyzeIntegerLiteralPrecision(t *testing.T) {
	p := mustAnalyze(t, "let a = 9007199254740992; let b = 9007199254740993;")

	a, ok := initializer(t, p, 0).(*ir.IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(1<<53), a.Value)

	b, ok := initializer(t, p, 1).(*ir.FloatLit)
	require.True(t, ok, "literal beyond 2^53 should be a float")
	assert.Equal(t, float64(1<<53), b.Value)
}

func TestAnalyzeControlFlow(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"break at top level", "break;", diag.ErrBreakOutsideLoop},
		{"break in nested if", "repeatWhile true { if true { break; } }", ""},
		{"break in for", "for i in 0 ..< 3 { break; }", ""},
		{"break in measure inside loop", "repeat 2 { measure f() { break; } }", diag.ErrBreakOutsideLoop},
		{"return at top level", "return 1;", diag.ErrReturnOutsideFunction},
		{"return wrong type", `measure f(): number { return "x"; }`, diag.ErrReturnType},
		{"return value from void", "measure f() { return 1; }", diag.ErrReturnType},
		{"bare return from void", "measure f() { return; }", ""},
		{"bare return from number", "measure f(): number { return; }", diag.ErrMissingReturnValue},
		{"assign to const", "const c = 1; c = 2;", diag.ErrImmutableAssignment},
		{"assign to parameter", "measure f(x: number) { x = 2; }", diag.ErrImmutableAssignment},
		{"bump loop variable", "for i in 1 ... 3 { i++; }", diag.ErrImmutableAssignment},
		{"assign element of mutable array", "let xs = [1]; xs[0] = 2;", ""},
		{"assign element of const array", "const xs = [1]; xs[0] = 2;", diag.ErrImmutableAssignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyze(t, tt.src)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, diag.IsControlFlowError(err), "got %v", err)
			assert.Equal(t, tt.code, diag.CodeOf(err), "got %v", err)
		})
	}
}

func TestAnalyzeArity(t *testing.T) {
	_, err := analyze(t, "measure f(x: number): number { return x; } let y = f(1, 2);")
	require.Error(t, err)
	assert.True(t, diag.IsTypeError(err))
	assert.Equal(t, diag.ErrArity, diag.CodeOf(err))
	assert.Contains(t, err.Error(), "1")
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "Expected 1 arguments but got 2")
}

func TestAnalyzeRecursion(t *testing.T) {
	p := mustAnalyze(t, "measure fact(n: number): number { return n <= 1 ? 1 : n * fact(n - 1); }")
	m := p.Statements[0].(*ir.MeasureDecl)
	assert.Equal(t, "fact", m.Measure.Name)
	require.Len(t, m.Params, 1)
	assert.False(t, m.Params[0].Mutable)
}

func TestAnalyzeExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"logical", "let x = on && !off;", "boolean"},
		{"bitwise", "let x = 6 & 3 | 1 << 2;", "number"},
		{"string concat", `let x = "n=" + 1;`, "string"},
		{"comparison", `let x = "a" < "b";`, "boolean"},
		{"equality of arrays", "let x = [1] == [2];", "boolean"},
		{"optional equality with nil", "let o: number? = 1; let x = o == nil;", "boolean"},
		{"length", `let x = #"abc";`, "number"},
		{"some", "let x = some 1;", "number?"},
		{"random number", "let x = random 6;", "number"},
		{"random element", `let x = random ["a", "b"];`, "string"},
		{"conditional", `let x = on ? "a" : "b";`, "string"},
		{"power", "let x = 2 ** 3 ** 2;", "number"},
		{"prelude call", "let x = hypot(3, 4);", "number"},
		{"subscript", "let xs = [[1]]; let x = xs[0];", "[number]"},
		{"string subscript", `let x = "abc"[1];`, "string"},
		{"chained subscript", "let xs: [number]? = [1]; let x = xs?[0];", "number?"},
		{"no double optional", "grand P { x: number? } let p: P? = nil; let x = p?.x;", "number?"},
		{"construct", "grand P { x: number } let x = P(1);", "P"},
		{"member", "grand P { x: number } let p = P(1); let x = p.x;", "number"},
		{"unwrap else", "let o: string? = nil; let x = o ?? \"d\";", "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustAnalyze(t, tt.src)
			last := p.Statements[len(p.Statements)-1].(*ir.NoteDecl)
			assert.Equal(t, tt.want, last.Initializer.Type().String())
		})
	}
}

func TestAnalyzeTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		msg  string
	}{
		{"logical operand", "let x = 1 && on;", diag.ErrOperand, "Expected boolean, got number"},
		{"arithmetic operand", `let x = 1 - "a";`, diag.ErrOperand, "Expected number, got string"},
		{"comparison mismatch", `let x = 1 < "a";`, diag.ErrComparisonMismatch, "Type mismatch: number vs string"},
		{"comparison of booleans", "let x = on < off;", diag.ErrOperand, "Expected number or string, got boolean"},
		{"equality mismatch", `let x = 1 == "1";`, diag.ErrComparisonMismatch, "Cannot compare number with string"},
		{"negate string", `let x = -"a";`, diag.ErrOperand, "Expected number, got string"},
		{"length of number", "let x = #3;", diag.ErrOperand, "Expected string or array, got number"},
		{"some of optional", "let o: number? = 1; let x = some o;", diag.ErrAlreadyOptional, "Already an optional type"},
		{"random boolean", "let x = random on;", diag.ErrOperand, "Expected number or array, got boolean"},
		{"conditional test", "let x = 1 ? 2 : 3;", diag.ErrConditionNotBoolean, "Expected boolean, got number"},
		{"conditional branches", `let x = on ? 1 : "a";`, diag.ErrBranchMismatch, "Type mismatch: number vs string"},
		{"unwrap non-optional", "let x = 1 ?? 2;", diag.ErrExpectedOptional, "Expected optional type, got number"},
		{"unwrap fallback", `let o: number? = nil; let x = o ?? "a";`, diag.ErrNotAssignable, "Cannot assign string to number"},
		{"call non-function", "let n = 1; let x = n(2);", diag.ErrNotCallable, "n is not a function"},
		{"argument type", `let x = sqrt("a");`, diag.ErrNotAssignable, "Cannot assign string to number"},
		{"void value", "let x = print(1);", diag.ErrVoidValue, "Expected a value, got void"},
		{"subscript number", "let n = 1; let x = n[0];", diag.ErrExpectedArray, "Expected an array type, got number"},
		{"string index", `let xs = [1]; let x = xs["a"];`, diag.ErrOperand, "Expected number, got string"},
		{"member of number", "let n = 1; let x = n.y;", diag.ErrNotARecord, "Expected a grand type, got number"},
		{"no such field", "grand P { x: number } let p = P(1); let y = p.z;", diag.ErrNoSuchField, "No such field: z"},
		{"duplicate field", "grand P { x: number, x: string }", diag.ErrDuplicateField, "Duplicate field x in P"},
		{"construct arity", "grand P { x: number } let p = P();", diag.ErrArity, "Expected 1 arguments but got 0"},
		{"construct field type", `grand P { x: number } let p = P("a");`, diag.ErrNotAssignable, "Cannot assign string to number"},
		{"if test", "if 1 { }", diag.ErrConditionNotBoolean, "Expected boolean, got number"},
		{"repeat count", `repeat "a" { }`, diag.ErrOperand, "Expected number, got string"},
		{"for range bound", `for i in 1 ... "a" { }`, diag.ErrOperand, "Expected number, got string"},
		{"for each number", "for x in 3 { }", diag.ErrOperand, "Expected string or array, got number"},
		{"bump string", `let s = "a"; s++;`, diag.ErrOperand, "Expected number, got string"},
		{"assign mismatch", `let n = 1; n = "a";`, diag.ErrNotAssignable, "Cannot assign string to number"},
		{"expression statement", "let n = 1; n;", diag.ErrNotCallStatement, "Expected function call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyze(t, tt.src)
			require.Error(t, err)
			assert.True(t, diag.IsTypeError(err), "got %v", err)
			assert.Equal(t, tt.code, diag.CodeOf(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAnalyzeScopeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"undeclared", "let x = y;", diag.ErrUndeclared},
		{"unknown type", "let x: Foo = 1;", diag.ErrUndeclared},
		{"variable as type", "let n = 1; let x: n = 1;", diag.ErrNotAType},
		{"type as value", "grand P { x: number } let x = P;", diag.ErrNotAValue},
		{"duplicate measure", "measure f() { } measure f() { }", diag.ErrAlreadyDeclared},
		{"duplicate parameter", "measure f(a: number, a: number) { }", diag.ErrAlreadyDeclared},
		{"duplicate record", "grand P { x: number } grand P { y: number }", diag.ErrAlreadyDeclared},
		{"loop variable leaks", "for i in 1 ... 2 { } let x = i;", diag.ErrUndeclared},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyze(t, tt.src)
			require.Error(t, err)
			assert.True(t, diag.IsScopeError(err), "got %v", err)
			assert.Equal(t, tt.code, diag.CodeOf(err), "got %v", err)
		})
	}
}

func TestAnalyzeErrorLocation(t *testing.T) {
	_, err := analyze(t, "let a = 1;\nlet b = a + \"x\" * 2;")
	require.Error(t, err)
	de, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.Pos{Line: 2, Column: 13}, de.Pos)
	assert.Equal(t, "2:13: TypeError: Expected number, got string", err.Error())
}

func TestAnalyzeRejectsNonProgram(t *testing.T) {
	_, err := Analyze(nil)
	assert.Error(t, err)
	_, err = Analyze(&syntax.Node{Kind: syntax.KindBlock})
	assert.Error(t, err)
}

func TestAnalyzeGolden(t *testing.T) {
	for _, name := range []string{"measures", "records", "control"} {
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", "programs", name+".tempo"))
			require.NoError(t, err)
			p := mustAnalyze(t, string(src))
			assert.Empty(t, Validate(p))

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, name, []byte(ir.Print(p)))
		})
	}
}
