package token

import (
	"strings"
	"unicode"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
)

type Lexer struct {
	src   []rune
	pos   int
	line  int
	col   int
	diags *diag.Collector
	file  string
}

func NewLexer(file, src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1, diags: &diag.Collector{}, file: file}
}

func (l *Lexer) Lex() ([]Token, []diag.Diagnostic) {
	var toks []Token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.Category == CatEOF {
			break
		}
	}
	return toks, l.diags.Diagnostics()
}

func (l *Lexer) here() diag.Position { return diag.Position{Line: l.line, Col: l.col} }

func (l *Lexer) peek() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) peekAt(off int) (rune, bool) {
	i := l.pos + off
	if i >= len(l.src) {
		return 0, false
	}
	return l.src[i], true
}

func (l *Lexer) advance() rune {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isLetter(c rune) bool     { return unicode.IsLetter(c) && c < unicode.MaxASCII }
func isDigit(c rune) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c rune) bool { return isLetter(c) || c == '_' }
func isIdentBody(c rune) bool  { return isLetter(c) || isDigit(c) || c == '_' || c == '$' }
func isWhitespace(c rune) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

func (l *Lexer) skipWhitespace() {
	for {
		c, ok := l.peek()
		if !ok || !isWhitespace(c) {
			return
		}
		l.advance()
	}
}

func (l *Lexer) next() Token {
	l.skipWhitespace()
	start := l.here()
	c, ok := l.peek()
	if !ok {
		return Token{Category: CatEOF, Pos: start}
	}
	switch {
	case c == '/' && peekIs(l, 1, '/'):
		return l.lexLineComment(start)
	case c == '/' && peekIs(l, 1, '*'):
		return l.lexBlockComment(start)
	case c == '`':
		return l.lexDirective(start)
	case c == '\\':
		return l.lexEscapedIdentifier(start)
	case c == '$':
		return l.lexSystemIdentifier(start)
	case c == '"':
		return l.lexString(start)
	case isDigit(c):
		return l.lexNumber(start)
	case c == '\'':
		return l.lexNumber(start)
	case isIdentStart(c):
		return l.lexIdentifierOrKeyword(start)
	default:
		return l.lexDelimiter(start)
	}
}

func peekIs(l *Lexer, off int, want rune) bool {
	c, ok := l.peekAt(off)
	return ok && c == want
}

func (l *Lexer) lexLineComment(start diag.Position) Token {
	l.advance()
	l.advance()
	var b strings.Builder
	b.WriteString("//")
	for {
		c, ok := l.peek()
		if !ok || c == '\n' {
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Category: CatComment, Text: b.String(), Pos: start}
}

func (l *Lexer) lexBlockComment(start diag.Position) Token {
	l.advance()
	l.advance()
	var b strings.Builder
	b.WriteString("/*")
	for {
		c, ok := l.peek()
		if !ok {
			l.diags.Addf(l.file, start, "unterminated block comment")
			break
		}
		if c == '*' && peekIs(l, 1, '/') {
			b.WriteRune(l.advance())
			b.WriteRune(l.advance())
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Category: CatComment, Text: b.String(), Pos: start}
}

func (l *Lexer) lexDirective(start diag.Position) Token {
	l.advance()
	var b strings.Builder
	b.WriteRune('`')
	for {
		c, ok := l.peek()
		if !ok || !isIdentBody(c) {
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Category: CatDirective, Text: b.String(), Pos: start}
}

func (l *Lexer) lexEscapedIdentifier(start diag.Position) Token {
	l.advance()
	var b strings.Builder
	for {
		c, ok := l.peek()
		if !ok || isWhitespace(c) {
			break
		}
		b.WriteRune(l.advance())
	}
	if b.Len() == 0 {
		l.diags.Addf(l.file, start, "empty escaped identifier")
	}
	return Token{Category: CatIdentifier, Text: "\\" + b.String(), Ident: ident.NewEscaped(b.String()), Pos: start}
}

func (l *Lexer) lexSystemIdentifier(start diag.Position) Token {
	l.advance()
	var b strings.Builder
	for {
		c, ok := l.peek()
		if !ok || !isIdentBody(c) {
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Category: CatIdentifier, Text: "$" + b.String(), Ident: ident.NewSystem(b.String()), Pos: start}
}

func (l *Lexer) lexIdentifierOrKeyword(start diag.Position) Token {
	var b strings.Builder
	for {
		c, ok := l.peek()
		if !ok || !isIdentBody(c) {
			break
		}
		b.WriteRune(l.advance())
	}
	text := b.String()
	if IsKeyword(text) {
		return Token{Category: CatKeyword, Text: text, Pos: start}
	}
	return Token{Category: CatIdentifier, Text: text, Ident: ident.NewBasic(text), Pos: start}
}

// lexNumber scans a decimal literal or a based literal of the form
// [size]'[sbhod]digits, validating each digit against the declared base
// (spec §4.A "Token errors"); shared with Verilog's numeric grammar.
func (l *Lexer) lexNumber(start diag.Position) Token {
	var b strings.Builder
	for {
		c, ok := l.peek()
		if !ok || !(isDigit(c) || c == '_') {
			break
		}
		b.WriteRune(l.advance())
	}
	if c, ok := l.peek(); ok && c == '\'' {
		b.WriteRune(l.advance())
		if c2, ok2 := l.peek(); ok2 && (c2 == 's' || c2 == 'S') {
			b.WriteRune(l.advance())
		}
		baseCh, ok3 := l.peek()
		if !ok3 {
			l.diags.Addf(l.file, start, "unterminated based literal")
			return Token{Category: CatAbstractLiteral, Text: b.String(), Pos: start}
		}
		b.WriteRune(l.advance())
		for {
			c, ok := l.peek()
			if !ok || isWhitespace(c) || c == ';' || c == ',' || c == ')' {
				break
			}
			if !isValidBaseDigit(baseCh, c) && c != '_' {
				l.diags.Addf(l.file, start, "invalid digit %q for base %q", c, baseCh)
			}
			b.WriteRune(l.advance())
		}
		return Token{Category: CatAbstractLiteral, Text: b.String(), Pos: start}
	}
	if c, ok := l.peek(); ok && c == '.' {
		if nc, ok2 := l.peekAt(1); ok2 && isDigit(nc) {
			b.WriteRune(l.advance())
			for {
				c, ok := l.peek()
				if !ok || !(isDigit(c) || c == '_') {
					break
				}
				b.WriteRune(l.advance())
			}
		}
	}
	return Token{Category: CatAbstractLiteral, Text: b.String(), Pos: start}
}

func isValidBaseDigit(base, c rune) bool {
	switch unicode.ToLower(base) {
	case 'b':
		return c == '0' || c == '1' || c == 'x' || c == 'z'
	case 'o':
		return (c >= '0' && c <= '7') || c == 'x' || c == 'z'
	case 'd':
		return isDigit(c)
	case 'h':
		return isDigit(c) || (unicode.ToLower(c) >= 'a' && unicode.ToLower(c) <= 'f') || c == 'x' || c == 'z'
	default:
		return true
	}
}

func (l *Lexer) lexString(start diag.Position) Token {
	var b strings.Builder
	b.WriteRune(l.advance())
	closed := false
	for {
		c, ok := l.peek()
		if !ok || c == '\n' {
			break
		}
		if c == '\\' {
			b.WriteRune(l.advance())
			if _, ok2 := l.peek(); ok2 {
				b.WriteRune(l.advance())
			}
			continue
		}
		if c == '"' {
			b.WriteRune(l.advance())
			closed = true
			break
		}
		b.WriteRune(l.advance())
	}
	if !closed {
		l.diags.Addf(l.file, start, "unterminated string literal")
	}
	return Token{Category: CatStringLiteral, Text: b.String(), Pos: start}
}

func (l *Lexer) lexDelimiter(start diag.Position) Token {
	for _, d := range delimiters {
		if l.matchesAt(d) {
			for range []rune(d) {
				l.advance()
			}
			return Token{Category: CatDelimiter, Text: d, Pos: start}
		}
	}
	c := l.advance()
	l.diags.Addf(l.file, start, "unknown operator character %q", c)
	return Token{Category: CatDelimiter, Text: string(c), Pos: start}
}

func (l *Lexer) matchesAt(s string) bool {
	rs := []rune(s)
	for i, r := range rs {
		c, ok := l.peekAt(i)
		if !ok || c != r {
			return false
		}
	}
	return true
}
