// Package dst implements the Dynamic Symbol Transform of spec §4.F: once
// ipgraph.Resolve marks a node Alter, every one of that node's public
// identifiers is rewritten to a name no sibling in the graph can collide
// with, and the same rewrite is propagated into every transitive dependent
// so its references keep resolving. Grounded on
// original_source/src/core/lang/vhdl/dst.rs's dyn_symbol_transform, but
// reformulated around an explicit output cursor (line, column basis,
// column-basis length) instead of that function's running diff variables —
// the two are equivalent (verified by hand against its worked comment
// example), the cursor form just reads straighter in Go.
package dst

import (
	"strings"
	"unicode/utf8"

	"github.com/hdlkit/orbit/internal/checksum"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/lang"
	svtoken "github.com/hdlkit/orbit/internal/sv/token"
	verilogtoken "github.com/hdlkit/orbit/internal/verilog/token"
	vhdltoken "github.com/hdlkit/orbit/internal/vhdl/token"
)

// LUT is the lookup table of spec §4.F: a renamed identifier's comparison
// key (ident.Identifier.Key()) mapped to the suffix appended to it.
type LUT map[string]string

// GenerateLUT derives the suffix every public identifier in units is
// rewritten with, from the owning IP's tree checksum. Every entry gets the
// same suffix: the rewrite exists to make the *library* distinguishable
// from a colliding sibling, not to distinguish individual identifiers from
// one another.
func GenerateLUT(units map[string]lang.DesignUnit, sum checksum.Sum) LUT {
	suffix := "_" + sum.Prefix10()
	lut := make(LUT, len(units))
	for key := range units {
		lut[key] = suffix
	}
	return lut
}

// Merge folds src's entries into dst, returning dst. Used to accumulate a
// transitive dependent's rewrite table from more than one Alter ancestor.
func Merge(dst, src LUT) LUT {
	if dst == nil {
		dst = make(LUT, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Rewrite reconstructs tokens' source text verbatim except for identifier
// tokens whose Key() appears in lut, which are rendered with their suffix
// appended instead. Whitespace and newlines are preserved exactly: each
// token's original (line, col) and original length (not its rendered,
// possibly-longer, length) are what the gap to the next token is computed
// from, so a rename never shifts anything but the renamed token itself.
func Rewrite(tokens []lang.PositionedToken, lut LUT) string {
	var b strings.Builder
	curLine, curCol, curLen := 1, 1, 0

	for _, tok := range tokens {
		pos := tok.TokenPos()
		text := tok.TokenText()

		if lineDiff := pos.Line - curLine; lineDiff > 0 {
			b.WriteString(strings.Repeat("\n", lineDiff))
			b.WriteString(strings.Repeat(" ", pos.Col-1))
		} else if gap := pos.Col - curCol - curLen; gap > 0 {
			b.WriteString(strings.Repeat(" ", gap))
		}

		b.WriteString(renderToken(tok, lut))

		if n := strings.Count(text, "\n"); n > 0 {
			last := text[strings.LastIndex(text, "\n")+1:]
			curLine = pos.Line + n
			curCol = 1
			curLen = utf8.RuneCountInString(last)
		} else {
			curLine = pos.Line
			curCol = pos.Col
			curLen = tokenOriginalLen(tok)
		}
	}

	return b.String()
}

func renderToken(tok lang.PositionedToken, lut LUT) string {
	id, ok := tok.TokenIdent()
	if !ok {
		return tok.TokenText()
	}
	suffix, renamed := lut[id.Key()]
	if !renamed {
		return tok.TokenText()
	}
	return id.WithSuffix(suffix).String()
}

func tokenOriginalLen(tok lang.PositionedToken) int {
	if id, ok := tok.TokenIdent(); ok {
		return id.Len()
	}
	return utf8.RuneCountInString(tok.TokenText())
}

// FromVHDL adapts a VHDL lexer's token slice to the shared rewrite surface.
func FromVHDL(tokens []vhdltoken.Token) []lang.PositionedToken {
	out := make([]lang.PositionedToken, len(tokens))
	for i, t := range tokens {
		out[i] = t
	}
	return out
}

// FromVerilog adapts a Verilog lexer's token slice to the shared rewrite
// surface.
func FromVerilog(tokens []verilogtoken.Token) []lang.PositionedToken {
	out := make([]lang.PositionedToken, len(tokens))
	for i, t := range tokens {
		out[i] = t
	}
	return out
}

// FromSV adapts a SystemVerilog lexer's token slice to the shared rewrite
// surface.
func FromSV(tokens []svtoken.Token) []lang.PositionedToken {
	out := make([]lang.PositionedToken, len(tokens))
	for i, t := range tokens {
		out[i] = t
	}
	return out
}

// Apply rewrites source, a file of language lng, using lut. Tokens that
// aren't identifiers (keywords, literals, delimiters, comments) pass
// through unchanged; ident.Identifier preserves the variant-specific
// rendering (Extended's backslash delimiters, System's "$" prefix) so a
// renamed identifier still round-trips through the same front end. Lexer
// diagnostics are returned alongside the rewritten text rather than as an
// error, matching the front ends' continue-past-errors behavior: a
// malformed token is emitted as best-effort text, not a hard failure.
func Apply(path, source string, lng lang.Language, lut LUT) (string, []diag.Diagnostic) {
	switch lng {
	case lang.VHDL:
		toks, diags := vhdltoken.NewLexer(path, source).Lex()
		return Rewrite(FromVHDL(toks), lut), diags
	case lang.Verilog:
		toks, diags := verilogtoken.NewLexer(path, source).Lex()
		return Rewrite(FromVerilog(toks), lut), diags
	case lang.SystemVerilog:
		toks, diags := svtoken.NewLexer(path, source).Lex()
		return Rewrite(FromSV(toks), lut), diags
	default:
		return source, nil
	}
}
