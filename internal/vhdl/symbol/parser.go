// Package symbol implements the VHDL declaration-aware parser of spec
// §4.A: given a token stream it recognizes the envelope of each primary
// unit (keyword -> name -> is -> declarative region -> optional begin ->
// statements -> end) and collects the compound names referenced inside,
// without resolving or type-checking any of them.
package symbol

import (
	"strings"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
	"github.com/hdlkit/orbit/internal/lang"
	"github.com/hdlkit/orbit/internal/vhdl/token"
)

// state is the per-unit state machine of spec §4.A.
type state int

const (
	stHeader state = iota
	stName
	stIs
	stDecls
	stBeginOrEnd
)

// Parse scans every primary (and secondary: architecture, package body)
// unit out of src. A malformed unit aborts only that unit; the parser then
// resyncs at the next plausible start keyword (spec §4.A "Failure
// semantics").
func Parse(file, src string) lang.File {
	toks, lexDiags := token.NewLexer(file, src).Lex()
	p := &parser{file: file, toks: toks}
	out := lang.File{Path: file, Lang: lang.VHDL}
	out.Diags = append(out.Diags, lexDiags...)

	for p.i < len(p.toks) && p.toks[p.i].Category != token.CatEOF {
		if !p.atUnitStart() {
			p.i++
			continue
		}
		unit, diags, ok := p.parseUnit()
		out.Diags = append(out.Diags, diags...)
		if ok {
			out.Units = append(out.Units, unit)
		}
	}
	return out
}

type parser struct {
	file string
	toks []token.Token
	i    int
}

var unitStartKeywords = map[string]lang.Kind{
	"entity":        lang.Entity,
	"architecture":  lang.Architecture,
	"package":       lang.Package,
	"context":       lang.Context,
	"configuration": lang.Configuration,
}

func (p *parser) atUnitStart() bool {
	t := p.cur()
	if t.Category != token.CatKeyword {
		return false
	}
	_, ok := unitStartKeywords[strings.ToLower(t.Text)]
	return ok
}

func (p *parser) cur() token.Token {
	if p.i >= len(p.toks) {
		return token.Token{Category: token.CatEOF}
	}
	return p.toks[p.i]
}

func (p *parser) at(off int) token.Token {
	j := p.i + off
	if j >= len(p.toks) {
		return token.Token{Category: token.CatEOF}
	}
	return p.toks[j]
}

// parseUnit consumes one primary/secondary unit envelope starting at the
// current keyword token. On malformed input it returns ok=false having
// advanced past at least the offending token, so the outer loop makes
// progress toward the next plausible start keyword.
func (p *parser) parseUnit() (lang.DesignUnit, []diag.Diagnostic, bool) {
	start := p.cur()
	kind := unitStartKeywords[strings.ToLower(start.Text)]
	startPos := start.Pos
	p.i++ // consume the leading keyword

	var secondary string
	var name ident.Identifier
	if kind == lang.Architecture {
		// architecture <name> of <entity> is
		if p.cur().Category != token.CatIdentifier {
			return lang.DesignUnit{}, []diag.Diagnostic{parseErr(p.file, startPos, "expected architecture name")}, false
		}
		name = p.cur().Ident
		p.i++
		if !p.expectKeyword("of") {
			return lang.DesignUnit{}, []diag.Diagnostic{parseErr(p.file, startPos, "expected 'of' in architecture declaration")}, false
		}
		if p.cur().Category != token.CatIdentifier {
			return lang.DesignUnit{}, []diag.Diagnostic{parseErr(p.file, startPos, "expected entity name after 'of'")}, false
		}
		secondary = strings.ToLower(p.cur().Text)
		p.i++
	}
	isBody := kind == lang.Package && p.isKeyword("body")
	if kind != lang.Architecture && !isBody {
		if p.cur().Category != token.CatIdentifier {
			return lang.DesignUnit{}, []diag.Diagnostic{parseErr(p.file, startPos, "expected unit name")}, false
		}
		name = p.cur().Ident
		p.i++
	}

	if isBody {
		kind = lang.PackageBody
		p.i++
		if p.cur().Category != token.CatIdentifier {
			return lang.DesignUnit{}, []diag.Diagnostic{parseErr(p.file, startPos, "expected package name in package body")}, false
		}
		name = p.cur().Ident
		secondary = strings.ToLower(p.cur().Text)
		p.i++
	}

	if !p.expectKeyword("is") {
		return lang.DesignUnit{}, []diag.Diagnostic{parseErr(p.file, startPos, "expected 'is'")}, false
	}

	refs, deps, hasPorts := p.collectBody(kind)

	return lang.DesignUnit{
		Name:      name,
		Kind:      kind,
		File:      p.file,
		Pos:       startPos,
		Secondary: secondary,
		Refs:      refs,
		Deps:      deps,
		HasPorts:  hasPorts,
	}, nil, true
}

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Category == token.CatKeyword && strings.EqualFold(t.Text, kw)
}

func (p *parser) expectKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.i++
		return true
	}
	return false
}

func parseErr(file string, pos diag.Position, detail string) diag.Diagnostic {
	return diag.Diagnostic{Severity: diag.Error, File: file, Pos: pos, Message: detail}
}

// collectBody scans declarations and statements until the matching `end`,
// collecting every compound reference and every instantiation dependency
// it finds (spec §4.A "Reference extraction"). It does not validate
// nesting of inner blocks; it simply scans tokens until it sees an `end`
// whose following tokens plausibly close this unit (heuristic: track a
// begin/end depth for nested blocks such as process/generate/block/loop/
// if/case, which also use begin/end or if/end if etc.).
func (p *parser) collectBody(kind lang.Kind) ([]ident.CompoundIdentifier, []ident.CompoundIdentifier, bool) {
	var refs []ident.CompoundIdentifier
	var deps []ident.CompoundIdentifier
	depth := 0
	hasPorts := false

	for {
		t := p.cur()
		if t.Category == token.CatEOF {
			break
		}
		if t.Category == token.CatKeyword && strings.EqualFold(t.Text, "end") {
			if depth == 0 {
				p.consumeEnd()
				break
			}
			depth--
			p.i++
			continue
		}
		if t.Category == token.CatKeyword && opensNestedBlock(t.Text) {
			depth++
			p.i++
			continue
		}

		if depth == 0 && kind == lang.Entity && t.Category == token.CatKeyword && strings.EqualFold(t.Text, "port") {
			if p.portClauseNonEmpty() {
				hasPorts = true
			}
		}

		if t.Category == token.CatKeyword && strings.EqualFold(t.Text, "use") {
			if ref, adv := p.parseUseClause(); adv {
				refs = append(refs, ref)
				continue
			}
		}

		if dep, adv := p.tryInstantiation(); adv {
			deps = append(deps, dep)
			refs = append(refs, dep)
			continue
		}

		if ref, adv := p.tryCompoundName(); adv {
			refs = append(refs, ref)
			continue
		}

		p.i++
	}
	return refs, deps, hasPorts
}

// portClauseNonEmpty reports whether the "(" immediately following the
// current "port" keyword (skipping whitespace, handled already by the
// lexer) encloses at least one token before its matching ")".
func (p *parser) portClauseNonEmpty() bool {
	j := p.i + 1
	if j >= len(p.toks) || p.toks[j].Category != token.CatDelimiter || p.toks[j].Text != "(" {
		return false
	}
	j++
	return j < len(p.toks) && !(p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == ")")
}

func opensNestedBlock(kw string) bool {
	switch strings.ToLower(kw) {
	case "process", "block", "generate", "loop", "if", "case", "for":
		return true
	}
	return false
}

// consumeEnd eats the trailing `end [kind] [name] ;` (kind/name may repeat
// per spec §4.A).
func (p *parser) consumeEnd() {
	p.i++ // 'end'
	for {
		t := p.cur()
		if t.Category == token.CatDelimiter && t.Text == ";" {
			p.i++
			return
		}
		if t.Category == token.CatEOF {
			return
		}
		p.i++
	}
}

// parseUseClause handles `use L.P.all;` -> adds (L, P); `library L;` is
// informational only and is skipped elsewhere by the generic scan.
func (p *parser) parseUseClause() (ident.CompoundIdentifier, bool) {
	start := p.i
	p.i++ // 'use'
	if p.cur().Category != token.CatIdentifier {
		p.i = start
		return ident.CompoundIdentifier{}, false
	}
	lib := p.cur().Ident
	p.i++
	if !(p.cur().Category == token.CatDelimiter && p.cur().Text == ".") {
		return ident.CompoundIdentifier{}, false
	}
	p.i++
	if p.cur().Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	pkg := p.cur().Ident
	p.i++
	// optional trailing .all
	if p.cur().Category == token.CatDelimiter && p.cur().Text == "." {
		p.i++
		if p.cur().Category == token.CatKeyword && strings.EqualFold(p.cur().Text, "all") {
			p.i++
		}
	}
	return ident.NewQualifiedCompound(lib, pkg), true
}

// tryInstantiation recognizes `label : [component|entity|configuration]
// name [...]`, and `label : entity lib.name(arch)`, recording the
// instantiated name as a dependency edge (spec §4.A).
func (p *parser) tryInstantiation() (ident.CompoundIdentifier, bool) {
	if p.cur().Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	if !(p.at(1).Category == token.CatDelimiter && p.at(1).Text == ":") {
		return ident.CompoundIdentifier{}, false
	}
	j := p.i + 2
	kw := ""
	if p.toks[min(j, len(p.toks)-1)].Category == token.CatKeyword {
		kw = strings.ToLower(p.toks[j].Text)
		if kw == "component" || kw == "entity" || kw == "configuration" {
			j++
		} else {
			kw = ""
		}
	}
	if j >= len(p.toks) || p.toks[j].Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	first := p.toks[j].Ident
	j++
	var compound ident.CompoundIdentifier
	if j < len(p.toks) && p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == "." {
		j++
		if j >= len(p.toks) || p.toks[j].Category != token.CatIdentifier {
			return ident.CompoundIdentifier{}, false
		}
		compound = ident.NewQualifiedCompound(first, p.toks[j].Ident)
		j++
		// optional (arch)
		if j < len(p.toks) && p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == "(" {
			for j < len(p.toks) && !(p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == ")") {
				j++
			}
			if j < len(p.toks) {
				j++
			}
		}
	} else {
		// ambiguous bare name: component instantiation with unqualified name
		compound = ident.NewCompound(first)
	}
	p.i = j
	return compound, true
}

// tryCompoundName recognizes a bare `prefix.suffix` reference anywhere in
// the body (spec §4.A).
func (p *parser) tryCompoundName() (ident.CompoundIdentifier, bool) {
	if p.cur().Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	if !(p.at(1).Category == token.CatDelimiter && p.at(1).Text == ".") {
		return ident.CompoundIdentifier{}, false
	}
	lib := p.cur().Ident
	if p.at(2).Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	unit := p.at(2).Ident
	p.i += 3
	return ident.NewQualifiedCompound(lib, unit), true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
