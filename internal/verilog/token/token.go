// Package token implements the Verilog lexer of spec §4.A (SystemVerilog
// has its own lexer in internal/sv/token).
// Unlike VHDL, Verilog identifiers (including keywords) are case-sensitive,
// and the identifier set additionally has Escaped (\...) and System ($...)
// forms; backtick directives are their own category.
package token

import (
	"fmt"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
)

type Category int

const (
	CatKeyword Category = iota
	CatIdentifier
	CatAbstractLiteral
	CatStringLiteral
	CatDelimiter
	CatComment
	CatDirective
	CatEOF
)

type Token struct {
	Category Category
	Text     string
	Ident    ident.Identifier
	Pos      diag.Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", categoryName(t.Category), t.Text, t.Pos)
}

func categoryName(c Category) string {
	switch c {
	case CatKeyword:
		return "Keyword"
	case CatIdentifier:
		return "Identifier"
	case CatAbstractLiteral:
		return "AbstractLiteral"
	case CatStringLiteral:
		return "StringLiteral"
	case CatDelimiter:
		return "Delimiter"
	case CatComment:
		return "Comment"
	case CatDirective:
		return "Directive"
	case CatEOF:
		return "EOF"
	default:
		return "?"
	}
}

// keywords holds the Verilog-2001/2005 reserved word table. Comparison is
// case-sensitive, unlike VHDL's.
var keywords = buildKeywordSet(
	"always", "and", "assign", "automatic", "begin", "buf", "bufif0", "bufif1",
	"case", "casex", "casez", "cell", "cmos", "config", "deassign", "default",
	"defparam", "design", "disable", "edge", "else", "end", "endcase",
	"endconfig", "endfunction", "endgenerate", "endmodule", "endprimitive",
	"endspecify", "endtable", "endtask", "event", "for", "force", "forever",
	"fork", "function", "generate", "genvar", "highz0", "highz1", "if",
	"ifnone", "incdir", "include", "initial", "inout", "input",
	"instance", "integer", "join", "large", "liblist", "library",
	"localparam", "macromodule", "medium", "module", "nand", "negedge",
	"nmos", "nor", "noshowcancelled", "not", "notif0", "notif1", "or",
	"output", "parameter", "pmos", "posedge", "primitive", "pull0", "pull1",
	"pulldown", "pullup", "pulsestyle_onevent", "pulsestyle_ondetect",
	"rcmos", "real", "realtime", "reg", "release", "repeat", "rnmos",
	"rpmos", "rtran", "rtranif0", "rtranif1", "scalared", "showcancelled",
	"signed", "small", "specify", "specparam", "strong0", "strong1",
	"supply0", "supply1", "table", "task", "time", "tran", "tranif0",
	"tranif1", "tri", "tri0", "tri1", "triand", "trior", "trireg", "unsigned",
	"use", "uwire", "vectored", "wait", "wand", "weak0", "weak1", "while",
	"wire", "wor", "xnor", "xor",
)

func buildKeywordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func IsKeyword(s string) bool { return keywords[s] }

var delimiters = []string{
	"<<<", ">>>", "<<=", ">>=",
	"===", "!==", "<<", ">>", "&&", "||", "==", "!=", "<=", ">=", "->", "**",
	"&", "|", "^", "~", "!", "(", ")", "[", "]", "{", "}", ",", ";", ":",
	".", "#", "@", "=", "+", "-", "*", "/", "%", "<", ">", "?",
}

// TokenPos, TokenText, and TokenIdent implement lang.PositionedToken, the
// surface internal/dst's rewrite pass operates over.
func (t Token) TokenPos() diag.Position { return t.Pos }

func (t Token) TokenText() string { return t.Text }

func (t Token) TokenIdent() (ident.Identifier, bool) {
	if t.Category != CatIdentifier {
		return ident.Identifier{}, false
	}
	return t.Ident, true
}
