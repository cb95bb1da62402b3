package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/optimizer"
)

func inline(name, src string) *Scenario {
	return &Scenario{Name: name, Description: name, Source: src}
}

func TestRun_Compiles(t *testing.T) {
	s := inline("fold", "let a = 1 + 2;")
	s.Expect = &Expect{Stats: &optimizer.Stats{Folded: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.True(t, result.Compiled())
	assert.Equal(t, "let a#1: number = 3\n", result.Dump)
	assert.Equal(t, 1, result.Statements)
	assert.NotEmpty(t, result.IRHash)
}

func TestRun_OptimizeOff(t *testing.T) {
	off := false
	s := inline("raw", "let a = 1 + 2;")
	s.Optimize = &off
	s.Assertions = []Assertion{{Type: AssertPrintContains, Text: "(+ 1 2)"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, optimizer.Stats{}, result.Stats)
}

func TestRun_StatsMismatch(t *testing.T) {
	s := inline("fold", "let a = 1 + 2;")
	s.Expect = &Expect{Stats: &optimizer.Stats{Folded: 2}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "stats: expected")
}

func TestRun_ExpectedError(t *testing.T) {
	s := inline("undeclared", "play y;")
	s.Expect = &Expect{Error: &ExpectError{
		Kind:     "ScopeError",
		Code:     "E201",
		Message:  "Identifier y not declared",
		Position: "1:6",
	}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.False(t, result.Compiled())
	assert.Equal(t, "undeclared.tempo:1:6: ScopeError: Identifier y not declared", result.CompileError)
	assert.Empty(t, result.Dump)
}

func TestRun_ErrorMismatchReportsEachField(t *testing.T) {
	s := inline("undeclared", "play y;")
	s.Expect = &Expect{Error: &ExpectError{
		Kind:     "TypeError",
		Code:     "E301",
		Message:  "something else",
		Position: "9:9",
	}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "error kind: expected TypeError, got ScopeError")
	assert.Contains(t, result.Errors[1], "error code: expected E301, got E201")
	assert.Contains(t, result.Errors[2], "error message")
	assert.Contains(t, result.Errors[3], "error position: expected 9:9, got 1:6")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := inline("bad", "let a = ;")
	s.Assertions = []Assertion{{Type: AssertStatementCount, Count: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "unexpected compile error: bad.tempo:1:9: SyntaxError")
	assert.Contains(t, result.Errors[1], "statement_count requires a successful compilation")
}

func TestRun_ExpectedErrorButCompiled(t *testing.T) {
	s := inline("fine", "let a = 1;")
	s.Expect = &Expect{Error: &ExpectError{Kind: "TypeError"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expected TypeError, but compilation succeeded"}, result.Errors)
}

func TestRun_MissingFile(t *testing.T) {
	s := &Scenario{Name: "f", Description: "f", File: "/does/not/exist.tempo"}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read source file")
}

func TestRunContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, inline("c", "let a = 1;"))
	require.ErrorIs(t, err, context.Canceled)
}
