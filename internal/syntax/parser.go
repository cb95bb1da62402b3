package syntax

import (
	"github.com/roach88/tempo/internal/diag"
)

// Parse parses a complete compilation unit.
// The first syntax error aborts parsing and is returned as a *diag.Error.
func Parse(src string) (*Node, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	prog := &Node{Kind: KindProgram, Pos: diag.Pos{Line: 1, Column: 1}}
	for !p.at(TokenEOF, "") {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Children = append(prog.Children, stmt)
	}
	return prog, nil
}

// ParseType parses a standalone type expression such as "[number]?".
func ParseType(src string) (*Node, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	t, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(TokenEOF, "") {
		return nil, p.unexpected("end of type")
	}
	return t, nil
}

type parser struct {
	toks []Token
	i    int
}

func (p *parser) cur() Token { return p.toks[p.i] }

func (p *parser) peekTok(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if t.Kind != TokenEOF {
		p.i++
	}
	return t
}

// at reports whether the current token has the given kind and, when text is
// non-empty, the given text.
func (p *parser) at(kind TokenKind, text string) bool {
	t := p.cur()
	return t.Kind == kind && (text == "" || t.Text == text)
}

func (p *parser) atPunct(text string) bool   { return p.at(TokenPunct, text) }
func (p *parser) atKeyword(text string) bool { return p.at(TokenKeyword, text) }

func (p *parser) accept(text string) bool {
	if p.atPunct(text) || p.atKeyword(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(text string) (Token, error) {
	if p.atPunct(text) || p.atKeyword(text) {
		return p.advance(), nil
	}
	return Token{}, p.unexpected("'" + text + "'")
}

func (p *parser) unexpected(want string) error {
	t := p.cur()
	return diag.Syntaxf(t.Pos, "Expected %s, found %s", want, t.describe())
}

func (p *parser) ident() (*Node, error) {
	t := p.cur()
	if t.Kind != TokenIdent {
		return nil, p.unexpected("identifier")
	}
	p.advance()
	return &Node{Kind: KindIdent, Text: t.Text, Pos: t.Pos}, nil
}

// Statements

func (p *parser) statement() (*Node, error) {
	t := p.cur()
	if t.Kind == TokenKeyword {
		switch t.Text {
		case "let", "const":
			return p.noteDecl()
		case "grand":
			return p.grandDecl()
		case "measure":
			return p.measureDecl()
		case "if":
			return p.ifStmt()
		case "repeatWhile":
			return p.loop(KindRepeatWhile)
		case "repeat":
			return p.loop(KindRepeat)
		case "for":
			return p.forStmt()
		case "break":
			p.advance()
			return p.terminated(&Node{Kind: KindBreak, Pos: t.Pos})
		case "return":
			p.advance()
			if p.accept(";") {
				return &Node{Kind: KindShortReturn, Pos: t.Pos}, nil
			}
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			return p.terminated(&Node{Kind: KindReturn, Children: []*Node{e}, Pos: t.Pos})
		case "play", "rest":
			p.advance()
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			kind := KindPlay
			if t.Text == "rest" {
				kind = KindRest
			}
			return p.terminated(&Node{Kind: kind, Children: []*Node{e}, Pos: t.Pos})
		}
	}
	if p.atPunct("{") {
		return p.block()
	}
	return p.simpleStatement()
}

func (p *parser) terminated(n *Node) (*Node, error) {
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) simpleStatement() (*Node, error) {
	start := p.cur().Pos
	target, err := p.expr()
	if err != nil {
		return nil, err
	}
	switch {
	case p.atPunct("++"), p.atPunct("--"):
		op := p.advance().Text
		return p.terminated(&Node{Kind: KindBump, Text: op, Children: []*Node{target}, Pos: start})
	case p.accept("="):
		source, err := p.expr()
		if err != nil {
			return nil, err
		}
		return p.terminated(&Node{Kind: KindAssign, Children: []*Node{target, source}, Pos: start})
	default:
		return p.terminated(&Node{Kind: KindCallStmt, Children: []*Node{target}, Pos: start})
	}
}

func (p *parser) block() (*Node, error) {
	open, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	b := &Node{Kind: KindBlock, Pos: open.Pos}
	for !p.atPunct("}") {
		if p.at(TokenEOF, "") {
			return nil, p.unexpected("'}'")
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Children = append(b.Children, stmt)
	}
	p.advance()
	return b, nil
}

func (p *parser) noteDecl() (*Node, error) {
	q := p.advance()
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindNoteDecl, Text: q.Text, Children: []*Node{name}, Pos: q.Pos}
	if p.accept(":") {
		t, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, t)
	}
	if _, err := p.expect("="); err != nil {
		return nil, err
	}
	init, err := p.expr()
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, init)
	return p.terminated(n)
}

func (p *parser) grandDecl() (*Node, error) {
	kw := p.advance()
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindGrandDecl, Children: []*Node{name}, Pos: kw.Pos}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	for !p.atPunct("}") {
		fname, err := p.ident()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		ftype, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, &Node{Kind: KindField, Children: []*Node{fname, ftype}, Pos: fname.Pos})
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) measureDecl() (*Node, error) {
	kw := p.advance()
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	open, err := p.expect("(")
	if err != nil {
		return nil, err
	}
	params := &Node{Kind: KindParams, Pos: open.Pos}
	for !p.atPunct(")") {
		pname, err := p.ident()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		ptype, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		params.Children = append(params.Children, &Node{Kind: KindParam, Children: []*Node{pname, ptype}, Pos: pname.Pos})
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	n := &Node{Kind: KindMeasureDecl, Children: []*Node{name, params}, Pos: kw.Pos}
	if p.accept(":") {
		ret, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, ret)
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, body)
	return n, nil
}

func (p *parser) ifStmt() (*Node, error) {
	kw := p.advance()
	test, err := p.expr()
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: KindIf, Children: []*Node{test, then}, Pos: kw.Pos}
	if !p.accept("else") {
		return n, nil
	}
	var alt *Node
	if p.atKeyword("if") {
		alt, err = p.ifStmt()
	} else {
		alt, err = p.block()
	}
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, alt)
	return n, nil
}

func (p *parser) loop(kind Kind) (*Node, error) {
	kw := p.advance()
	head, err := p.expr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: kind, Children: []*Node{head, body}, Pos: kw.Pos}, nil
}

func (p *parser) forStmt() (*Node, error) {
	kw := p.advance()
	v, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("in"); err != nil {
		return nil, err
	}
	first, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.atPunct("...") || p.atPunct("..<") {
		op := p.advance().Text
		high, err := p.expr()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindForRange, Text: op, Children: []*Node{v, first, high, body}, Pos: kw.Pos}, nil
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindForEach, Children: []*Node{v, first, body}, Pos: kw.Pos}, nil
}

// Types

func (p *parser) typeExpr() (*Node, error) {
	t, err := p.primaryType()
	if err != nil {
		return nil, err
	}
	for p.atPunct("?") {
		q := p.advance()
		t = &Node{Kind: KindOptionalType, Children: []*Node{t}, Pos: q.Pos}
	}
	return t, nil
}

func (p *parser) primaryType() (*Node, error) {
	t := p.cur()
	switch {
	case t.Kind == TokenIdent:
		p.advance()
		return &Node{Kind: KindNamedType, Text: t.Text, Pos: t.Pos}, nil
	case t.Kind == TokenKeyword && isPrimitiveKeyword(t.Text):
		p.advance()
		return &Node{Kind: KindNamedType, Text: t.Text, Pos: t.Pos}, nil
	case p.atPunct("["):
		p.advance()
		el, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		return &Node{Kind: KindArrayType, Children: []*Node{el}, Pos: t.Pos}, nil
	case p.atPunct("("):
		p.advance()
		list := &Node{Kind: KindTypeList, Pos: t.Pos}
		for !p.atPunct(")") {
			pt, err := p.typeExpr()
			if err != nil {
				return nil, err
			}
			list.Children = append(list.Children, pt)
			if !p.accept(",") {
				break
			}
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		if p.accept("->") {
			ret, err := p.typeExpr()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: KindFunctionType, Children: []*Node{list, ret}, Pos: t.Pos}, nil
		}
		if len(list.Children) == 1 {
			return list.Children[0], nil
		}
		return nil, p.unexpected("'->'")
	}
	return nil, p.unexpected("type")
}

func isPrimitiveKeyword(s string) bool {
	switch s {
	case "number", "boolean", "string", "void", "any":
		return true
	}
	return false
}

// Expressions, loosest binding first.

func (p *parser) expr() (*Node, error) {
	test, err := p.unwrapElse()
	if err != nil {
		return nil, err
	}
	if !p.atPunct("?") {
		return test, nil
	}
	p.advance()
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	alt, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindConditional, Children: []*Node{test, then, alt}, Pos: test.Pos}, nil
}

func (p *parser) unwrapElse() (*Node, error) {
	left, err := p.logical()
	if err != nil {
		return nil, err
	}
	if !p.atPunct("??") {
		return left, nil
	}
	p.advance()
	right, err := p.unwrapElse()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindUnwrapElse, Children: []*Node{left, right}, Pos: left.Pos}, nil
}

// logical parses a chain of || or a chain of &&. Mixing them without
// parentheses is a syntax error.
func (p *parser) logical() (*Node, error) {
	left, err := p.binaryLevel(0)
	if err != nil {
		return nil, err
	}
	if !p.atPunct("||") && !p.atPunct("&&") {
		return left, nil
	}
	op := p.cur().Text
	for p.atPunct(op) {
		p.advance()
		right, err := p.binaryLevel(0)
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBinary, Text: op, Children: []*Node{left, right}, Pos: left.Pos}
	}
	if p.atPunct("||") || p.atPunct("&&") {
		return nil, diag.Syntaxf(p.cur().Pos, "Cannot mix || and && without parentheses")
	}
	return left, nil
}

// Left-associative binary levels, loosest first. Comparison is handled
// separately because it does not chain.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	nil, // comparison
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

var comparisonOps = []string{"<=", "<", "==", "!=", ">=", ">"}

func (p *parser) matchAny(ops []string) (string, bool) {
	for _, op := range ops {
		if p.atPunct(op) {
			return op, true
		}
	}
	return "", false
}

func (p *parser) binaryLevel(level int) (*Node, error) {
	if level == len(binaryLevels) {
		return p.unary()
	}
	if binaryLevels[level] == nil {
		left, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		op, ok := p.matchAny(comparisonOps)
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		if _, again := p.matchAny(comparisonOps); again {
			return nil, diag.Syntaxf(p.cur().Pos, "Comparison operators do not chain")
		}
		return &Node{Kind: KindBinary, Text: op, Children: []*Node{left, right}, Pos: left.Pos}, nil
	}
	left, err := p.binaryLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchAny(binaryLevels[level])
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBinary, Text: op, Children: []*Node{left, right}, Pos: left.Pos}
	}
}

// unary binds looser than **, so -2**2 is -(2**2).
func (p *parser) unary() (*Node, error) {
	t := p.cur()
	isUnary := (t.Kind == TokenPunct && (t.Text == "-" || t.Text == "!" || t.Text == "#")) ||
		(t.Kind == TokenKeyword && (t.Text == "some" || t.Text == "random"))
	if !isUnary {
		return p.power()
	}
	p.advance()
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindUnary, Text: t.Text, Children: []*Node{operand}, Pos: t.Pos}, nil
}

func (p *parser) power() (*Node, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if !p.atPunct("**") {
		return base, nil
	}
	p.advance()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindBinary, Text: "**", Children: []*Node{base, exp}, Pos: base.Pos}, nil
}

func (p *parser) postfix() (*Node, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atPunct("("):
			p.advance()
			call := &Node{Kind: KindCall, Children: []*Node{e}, Pos: e.Pos}
			for !p.atPunct(")") {
				arg, err := p.expr()
				if err != nil {
					return nil, err
				}
				call.Children = append(call.Children, arg)
				if !p.accept(",") {
					break
				}
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			e = call
		case p.atPunct("["), p.atPunct("?["):
			chain := ""
			if p.advance().Text == "?[" {
				chain = "?"
			}
			idx, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			e = &Node{Kind: KindSubscript, Text: chain, Children: []*Node{e, idx}, Pos: e.Pos}
		case p.atPunct("."), p.atPunct("?."):
			op := p.advance().Text
			field, err := p.ident()
			if err != nil {
				return nil, err
			}
			e = &Node{Kind: KindMember, Text: op, Children: []*Node{e, field}, Pos: e.Pos}
		default:
			return e, nil
		}
	}
}

func (p *parser) primary() (*Node, error) {
	t := p.cur()
	switch t.Kind {
	case TokenInt:
		p.advance()
		return &Node{Kind: KindIntLit, Text: t.Text, Pos: t.Pos}, nil
	case TokenFloat:
		p.advance()
		return &Node{Kind: KindFloatLit, Text: t.Text, Pos: t.Pos}, nil
	case TokenString:
		p.advance()
		return &Node{Kind: KindStringLit, Text: t.Text, Pos: t.Pos}, nil
	case TokenIdent:
		p.advance()
		return &Node{Kind: KindIdent, Text: t.Text, Pos: t.Pos}, nil
	case TokenKeyword:
		switch t.Text {
		case "on", "true":
			p.advance()
			return &Node{Kind: KindBoolLit, Text: "true", Pos: t.Pos}, nil
		case "off", "false":
			p.advance()
			return &Node{Kind: KindBoolLit, Text: "false", Pos: t.Pos}, nil
		case "nil":
			p.advance()
			return &Node{Kind: KindNilLit, Pos: t.Pos}, nil
		case "no":
			p.advance()
			typ, err := p.typeExpr()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: KindEmptyOptional, Children: []*Node{typ}, Pos: t.Pos}, nil
		}
	case TokenPunct:
		switch t.Text {
		case "(":
			p.advance()
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return e, nil
		case "[":
			if n, ok := p.tryEmptyArray(); ok {
				return n, nil
			}
			return p.arrayLit()
		}
	}
	return nil, p.unexpected("expression")
}

// tryEmptyArray parses [T]() and restores the position when the input is
// not of that shape.
func (p *parser) tryEmptyArray() (*Node, bool) {
	save := p.i
	start := p.cur().Pos
	t, err := p.primaryType()
	if err == nil && t.Kind == KindArrayType && p.atPunct("(") && p.peekTok(1).Kind == TokenPunct && p.peekTok(1).Text == ")" {
		p.advance()
		p.advance()
		return &Node{Kind: KindEmptyArray, Children: []*Node{t}, Pos: start}, true
	}
	p.i = save
	return nil, false
}

func (p *parser) arrayLit() (*Node, error) {
	open := p.advance()
	n := &Node{Kind: KindArrayLit, Pos: open.Pos}
	for !p.atPunct("]") {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, e)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return n, nil
}
