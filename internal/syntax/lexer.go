package syntax

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tempo/internal/diag"
)

// TokenKind classifies a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenKeyword
	TokenInt
	TokenFloat
	TokenString
	TokenPunct
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenKeyword:
		return "keyword"
	case TokenInt:
		return "integer"
	case TokenFloat:
		return "float"
	case TokenString:
		return "string"
	case TokenPunct:
		return "punctuation"
	default:
		return "token"
	}
}

// Token is one lexeme. For strings Text holds the decoded value; for
// identifiers it holds the NFC-normalized name.
type Token struct {
	Kind TokenKind
	Text string
	Pos  diag.Pos
}

func (t Token) describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return strconv.Quote(t.Text)
	default:
		return "'" + t.Text + "'"
	}
}

var keywords = map[string]bool{
	"let": true, "const": true, "grand": true, "measure": true,
	"if": true, "else": true, "repeatWhile": true, "repeat": true,
	"for": true, "in": true, "break": true, "return": true,
	"play": true, "rest": true,
	"on": true, "off": true, "true": true, "false": true, "nil": true,
	"no": true, "some": true, "random": true,
	"number": true, "boolean": true, "string": true, "void": true, "any": true,
}

// Punctuation, longest first so that greedy matching works.
var puncts = []string{
	"...", "..<",
	"**", "??", "?.", "?[", "||", "&&", "<<", ">>", "<=", ">=", "==", "!=",
	"++", "--", "->",
	"?", "|", "^", "&", "<", ">", "+", "-", "*", "/", "%", "!", "#", "=",
	"(", ")", "[", "]", "{", "}", ",", ":", ";", ".",
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

// Lex splits src into tokens, ending with a TokenEOF.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

func (l *lexer) pos() diag.Pos { return diag.Pos{Line: l.line, Column: l.col} }

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) peekAt(n int) byte {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for l.off < len(l.src) {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	start := l.pos()
	if l.off >= len(l.src) {
		return Token{Kind: TokenEOF, Pos: start}, nil
	}

	r := l.peek()
	switch {
	case isIdentStart(r):
		begin := l.off
		for l.off < len(l.src) && isIdentPart(l.peek()) {
			l.advance()
		}
		text := norm.NFC.String(l.src[begin:l.off])
		if keywords[text] {
			return Token{Kind: TokenKeyword, Text: text, Pos: start}, nil
		}
		return Token{Kind: TokenIdent, Text: text, Pos: start}, nil
	case r < utf8.RuneSelf && isDigit(byte(r)):
		return l.number(start), nil
	case r == '"':
		return l.str(start)
	}

	for _, p := range puncts {
		if !strings.HasPrefix(l.src[l.off:], p) {
			continue
		}
		// a?.5 is a conditional, not optional chaining.
		if p == "?." && isDigit(l.peekAt(2)) {
			continue
		}
		for range p {
			l.advance()
		}
		return Token{Kind: TokenPunct, Text: p, Pos: start}, nil
	}
	return Token{}, diag.Syntaxf(start, "Unexpected character %q", r)
}

func (l *lexer) number(start diag.Pos) Token {
	begin := l.off
	kind := TokenInt
	for isDigit(l.peekAt(0)) {
		l.advance()
	}
	if l.peekAt(0) == '.' && isDigit(l.peekAt(1)) {
		kind = TokenFloat
		l.advance()
		for isDigit(l.peekAt(0)) {
			l.advance()
		}
	}
	if c := l.peekAt(0); c == 'e' || c == 'E' {
		n := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peekAt(n)) {
			kind = TokenFloat
			for i := 0; i < n; i++ {
				l.advance()
			}
			for isDigit(l.peekAt(0)) {
				l.advance()
			}
		}
	}
	return Token{Kind: kind, Text: l.src[begin:l.off], Pos: start}
}

func (l *lexer) str(start diag.Pos) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.off >= len(l.src) || l.peek() == '\n' {
			return Token{}, diag.Syntaxf(start, "Unterminated string literal")
		}
		r := l.advance()
		switch r {
		case '"':
			return Token{Kind: TokenString, Text: b.String(), Pos: start}, nil
		case '\\':
			esc, err := l.escape()
			if err != nil {
				return Token{}, err
			}
			b.WriteRune(esc)
		default:
			b.WriteRune(r)
		}
	}
}

func (l *lexer) escape() (rune, error) {
	at := l.pos()
	if l.off >= len(l.src) {
		return 0, diag.Syntaxf(at, "Unterminated escape sequence")
	}
	switch r := l.advance(); r {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '"', '\\', '\'':
		return r, nil
	case 'u':
		if l.peek() != '{' {
			return 0, diag.Syntaxf(at, "Expected '{' after \\u")
		}
		l.advance()
		begin := l.off
		for l.off < len(l.src) && l.peek() != '}' && l.off-begin <= 6 {
			l.advance()
		}
		hex := l.src[begin:l.off]
		if l.peek() != '}' {
			return 0, diag.Syntaxf(at, "Unterminated unicode escape")
		}
		l.advance()
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || hex == "" || n > unicode.MaxRune {
			return 0, diag.Syntaxf(at, "Invalid unicode escape \\u{%s}", hex)
		}
		return rune(n), nil
	default:
		return 0, diag.Syntaxf(at, "Invalid escape sequence \\%c", r)
	}
}
