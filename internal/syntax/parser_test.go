package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/diag"
)

func parseOne(t *testing.T, src string) *Node {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Children, 1)
	return prog.Children[0]
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "let with type",
			src:  `let x: number? = nil;`,
			want: `(NoteDecl "let" (Ident "x") (OptionalType (NamedType "number")) (NilLit))`,
		},
		{
			name: "const",
			src:  `const s = "hi";`,
			want: `(NoteDecl "const" (Ident "s") (StringLit "hi"))`,
		},
		{
			name: "grand",
			src:  `grand Point { x: number, y: number }`,
			want: `(GrandDecl (Ident "Point") (Field (Ident "x") (NamedType "number")) (Field (Ident "y") (NamedType "number")))`,
		},
		{
			name: "measure",
			src:  `measure f(a: number, b: [string]): boolean { return on; }`,
			want: `(MeasureDecl (Ident "f") (Params (Param (Ident "a") (NamedType "number")) (Param (Ident "b") (ArrayType (NamedType "string")))) (NamedType "boolean") (Block (Return (BoolLit "true"))))`,
		},
		{
			name: "void measure",
			src:  `measure g() { return; }`,
			want: `(MeasureDecl (Ident "g") (Params) (Block (ShortReturn)))`,
		},
		{
			name: "bump",
			src:  `x++;`,
			want: `(Bump "++" (Ident "x"))`,
		},
		{
			name: "assign subscript",
			src:  `a[0] = 2;`,
			want: `(Assign (Subscript (Ident "a") (IntLit "0")) (IntLit "2"))`,
		},
		{
			name: "call statement",
			src:  `print("x");`,
			want: `(CallStmt (Call (Ident "print") (StringLit "x")))`,
		},
		{
			name: "else if chain",
			src:  `if a { } else if b { } else { break; }`,
			want: `(If (Ident "a") (Block) (If (Ident "b") (Block) (Block (Break))))`,
		},
		{
			name: "repeat while",
			src:  `repeatWhile off { }`,
			want: `(RepeatWhile (BoolLit "false") (Block))`,
		},
		{
			name: "repeat times",
			src:  `repeat 3 { play 1; }`,
			want: `(Repeat (IntLit "3") (Block (Play (IntLit "1"))))`,
		},
		{
			name: "for inclusive range",
			src:  `for i in 1...5 { }`,
			want: `(ForRange "..." (Ident "i") (IntLit "1") (IntLit "5") (Block))`,
		},
		{
			name: "for exclusive range",
			src:  `for i in 0..<n { }`,
			want: `(ForRange "..<" (Ident "i") (IntLit "0") (Ident "n") (Block))`,
		},
		{
			name: "for each",
			src:  `for c in "abc" { rest c; }`,
			want: `(ForEach (Ident "c") (StringLit "abc") (Block (Rest (Ident "c"))))`,
		},
		{
			name: "nested block",
			src:  `{ let x = 1; }`,
			want: `(Block (NoteDecl "let" (Ident "x") (IntLit "1")))`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOne(t, tt.src).String())
		})
	}
}

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`1 + 2 * 3`, `(Binary "+" (IntLit "1") (Binary "*" (IntLit "2") (IntLit "3")))`},
		{`1 - 2 - 3`, `(Binary "-" (Binary "-" (IntLit "1") (IntLit "2")) (IntLit "3"))`},
		{`2 ** 3 ** 2`, `(Binary "**" (IntLit "2") (Binary "**" (IntLit "3") (IntLit "2")))`},
		{`-2 ** 2`, `(Unary "-" (Binary "**" (IntLit "2") (IntLit "2")))`},
		{`a < b == c`, ``},
		{`a || b || c`, `(Binary "||" (Binary "||" (Ident "a") (Ident "b")) (Ident "c"))`},
		{`x ?? y ?? 0`, `(UnwrapElse (Ident "x") (UnwrapElse (Ident "y") (IntLit "0")))`},
		{`c ? 1 : d ? 2 : 3`, `(Conditional (Ident "c") (IntLit "1") (Conditional (Ident "d") (IntLit "2") (IntLit "3")))`},
		{`1 | 2 ^ 3 & 4`, `(Binary "|" (IntLit "1") (Binary "^" (IntLit "2") (Binary "&" (IntLit "3") (IntLit "4"))))`},
		{`1 << 2 + 3`, `(Binary "<<" (IntLit "1") (Binary "+" (IntLit "2") (IntLit "3")))`},
		{`#a`, `(Unary "#" (Ident "a"))`},
		{`some random [1, 2]`, `(Unary "some" (Unary "random" (ArrayLit (IntLit "1") (IntLit "2"))))`},
		{`no number?`, `(EmptyOptional (OptionalType (NamedType "number")))`},
		{`[number]()`, `(EmptyArray (ArrayType (NamedType "number")))`},
		{`[]`, `(ArrayLit)`},
		{`[x]`, `(ArrayLit (Ident "x"))`},
		{`p.x`, `(Member "." (Ident "p") (Ident "x"))`},
		{`p?.x`, `(Member "?." (Ident "p") (Ident "x"))`},
		{`a?[1]`, `(Subscript "?" (Ident "a") (IntLit "1"))`},
		{`f(1)(2)`, `(Call (Call (Ident "f") (IntLit "1")) (IntLit "2"))`},
		{`(1 + 2) * 3`, `(Binary "*" (Binary "+" (IntLit "1") (IntLit "2")) (IntLit "3"))`},
		{`1.5e3`, `(FloatLit "1.5e3")`},
		{`"a\tb\u{1F3B5}"`, "(StringLit \"a\\tb\U0001F3B5\")"},
		{`off`, `(BoolLit "false")`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := Parse(`let v = ` + tt.src + `;`)
			if tt.want == "" {
				require.Error(t, err)
				assert.True(t, diag.IsSyntaxError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, prog.Children[0].Child(1).String())
		})
	}
}

func TestParse_Types(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`number`, `(NamedType "number")`},
		{`Point?`, `(OptionalType (NamedType "Point"))`},
		{`[string]?`, `(OptionalType (ArrayType (NamedType "string")))`},
		{`(number, string) -> boolean`, `(FunctionType (TypeList (NamedType "number") (NamedType "string")) (NamedType "boolean"))`},
		{`(() -> void)?`, `(OptionalType (FunctionType (TypeList) (NamedType "void")))`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := ParseType(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParse_Positions(t *testing.T) {
	prog, err := Parse("let a = 1;\n  let b = a;")
	require.NoError(t, err)
	require.Len(t, prog.Children, 2)

	second := prog.Children[1]
	assert.Equal(t, diag.Pos{Line: 2, Column: 3}, second.Pos)
	assert.Equal(t, diag.Pos{Line: 2, Column: 11}, second.Child(1).Pos)
}

func TestParse_Comments(t *testing.T) {
	prog, err := Parse("// leading\nlet a = 1; // trailing\n// end")
	require.NoError(t, err)
	assert.Len(t, prog.Children, 1)
}

func TestParse_NormalizesIdentifiers(t *testing.T) {
	// e-acute written precomposed and decomposed names the same identifier.
	prog, err := Parse("let caf\u00e9 = 1; cafe\u0301++;")
	require.NoError(t, err)
	decl := prog.Children[0].Child(0).Text
	bump := prog.Children[1].Child(0).Text
	assert.Equal(t, decl, bump)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		pos     diag.Pos
	}{
		{"missing semicolon", "let x = 1", "Expected ';', found end of input", diag.Pos{Line: 1, Column: 10}},
		{"unterminated string", `let s = "abc`, "Unterminated string literal", diag.Pos{Line: 1, Column: 9}},
		{"bad escape", `let s = "\q";`, "Invalid escape sequence", diag.Pos{Line: 1, Column: 11}},
		{"mixed logical", "let b = a || c && d;", "Cannot mix || and &&", diag.Pos{Line: 1, Column: 16}},
		{"unexpected character", "let x = @;", "Unexpected character", diag.Pos{Line: 1, Column: 9}},
		{"unclosed block", "if x {", "Expected '}'", diag.Pos{Line: 1, Column: 7}},
		{"missing type", "let x: = 1;", "Expected type", diag.Pos{Line: 1, Column: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			de, ok := diag.As(err)
			require.True(t, ok)
			assert.Equal(t, diag.SyntaxError, de.Kind)
			assert.Equal(t, diag.ErrSyntax, de.Code)
			assert.Contains(t, de.Message, tt.message)
			assert.Equal(t, tt.pos, de.Pos)
		})
	}
}
