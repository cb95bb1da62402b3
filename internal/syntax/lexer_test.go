package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(toks []Token) []string {
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind == TokenEOF {
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestLex_Punctuation(t *testing.T) {
	toks, err := Lex("a?.b ?? c?[0] ** 2 ..< ... -> x++")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "?.", "b", "??", "c", "?[", "0", "]", "**", "2", "..<", "...", "->", "x", "++"}, texts(toks))
}

func TestLex_ConditionalBeforeFraction(t *testing.T) {
	toks, err := Lex("c?.5:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "?", ".", "5", ":", "1"}, texts(toks))
}

func TestLex_Numbers(t *testing.T) {
	toks, err := Lex("12 3.25 4e2 5E-1 1...3")
	require.NoError(t, err)
	kinds := []TokenKind{TokenInt, TokenFloat, TokenFloat, TokenFloat, TokenInt, TokenPunct, TokenInt, TokenEOF}
	require.Len(t, toks, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind, "token %d (%s)", i, toks[i].Text)
	}
}

func TestLex_KeywordsAndIdentifiers(t *testing.T) {
	toks, err := Lex("measure repeatWhile repeats number Point")
	require.NoError(t, err)
	assert.Equal(t, TokenKeyword, toks[0].Kind)
	assert.Equal(t, TokenKeyword, toks[1].Kind)
	assert.Equal(t, TokenIdent, toks[2].Kind)
	assert.Equal(t, TokenKeyword, toks[3].Kind)
	assert.Equal(t, TokenIdent, toks[4].Kind)
}

func TestLex_StringEscapes(t *testing.T) {
	toks, err := Lex(`"q\"\\\n\u{41}"`)
	require.NoError(t, err)
	assert.Equal(t, TokenString, toks[0].Kind)
	assert.Equal(t, "q\"\\\nA", toks[0].Text)
}
