// Package token implements the VHDL lexer of spec §4.A: a hand-written
// tokenizer that never builds an AST, tracks 1-based (line, col) positions
// on every token, and continues past errors to emit everything it can.
package token

import (
	"fmt"
	"strings"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
)

// Category tags the kind of lexeme a Token carries, mirroring spec §4.A's
// token categories.
type Category int

const (
	CatKeyword Category = iota
	CatIdentifier
	CatAbstractLiteral
	CatBitStringLiteral
	CatCharacterLiteral
	CatStringLiteral
	CatDelimiter
	CatComment
	CatEOF
)

// Token is one lexeme with its source position. Text is the exact source
// text (used to reconstruct byte-identical layout during DST); Ident is
// populated only for CatIdentifier tokens.
type Token struct {
	Category Category
	Text     string
	Ident    ident.Identifier
	Pos      diag.Position
}

// keywords is the VHDL-2008 reserved word table, case-insensitively
// matched; the keyword's canonical (lowercase) spelling is what comparison
// uses, but Token.Text preserves the source's original casing.
var keywords = buildKeywordSet(
	"abs", "access", "after", "alias", "all", "and", "architecture", "array",
	"assert", "attribute", "begin", "block", "body", "buffer", "bus", "case",
	"component", "configuration", "constant", "context", "cover", "disconnect",
	"downto", "else", "elsif", "end", "entity", "exit", "fairness", "file",
	"for", "force", "function", "generate", "generic", "group", "guarded",
	"if", "impure", "in", "inertial", "inout", "is", "label", "library",
	"linkage", "literal", "loop", "map", "mod", "nand", "new", "next",
	"nor", "not", "null", "of", "on", "open", "or", "others", "out",
	"package", "parameter", "port", "postponed", "private", "procedure",
	"process", "property", "protected", "pure", "range", "record",
	"register", "reject", "release", "rem", "report", "restrict",
	"return", "rol", "ror", "select", "sequence", "severity", "signal",
	"shared", "sla", "sll", "sra", "srl", "strong", "subtype", "then",
	"to", "transport", "type", "unaffected", "units", "until", "use",
	"variable", "view", "vmode", "vpkg", "vprop", "vunit", "wait",
	"when", "while", "with", "xnor", "xor",
)

func buildKeywordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsKeyword reports whether s (compared case-insensitively) is a VHDL
// reserved word.
func IsKeyword(s string) bool {
	return keywords[strings.ToLower(s)]
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
	case CatBitStringLiteral:
		return "BitStringLiteral"
	case CatCharacterLiteral:
		return "CharacterLiteral"
	case CatStringLiteral:
		return "StringLiteral"
	case CatDelimiter:
		return "Delimiter"
	case CatComment:
		return "Comment"
	case CatEOF:
		return "EOF"
	default:
		return "?"
	}
}

// delimiters is ordered longest-first so the scanner can greedily match the
// longest valid operator at each position (spec §4.A fixed delimiter set).
var delimiters = []string{
	"?/=", "<=>", "?<=", "?>=",
	"=>", "**", ":=", "/=", ">=", "<=", "<>", "??", "?=", "?<", "?>", "<<", ">>",
	"&", "'", "(", ")", "*", "+", ",", "-", ".", "/", ":", ";", "<", "=", ">",
	"`", "!", "|", "[", "]", "?", "@",
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
