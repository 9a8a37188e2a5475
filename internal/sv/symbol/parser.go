// Package symbol implements the SystemVerilog declaration-aware parser of
// spec §4.A: module/interface/package/program/class envelopes, their
// import/extends/instantiation references, generalizing the Verilog parser
// to the additional primary-unit kinds IEEE 1800 adds.
package symbol

import (
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
	"github.com/hdlkit/orbit/internal/lang"
	"github.com/hdlkit/orbit/internal/sv/token"
)

func Parse(file, src string) lang.File {
	toks, lexDiags := token.NewLexer(file, src).Lex()
	p := &parser{file: file, toks: toks}
	out := lang.File{Path: file, Lang: lang.SystemVerilog}
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

var unitStarts = map[string]struct {
	kind lang.Kind
	end  string
}{
	"module":      {lang.Module, "endmodule"},
	"macromodule":  {lang.Module, "endmodule"},
	"interface":   {lang.Interface, "endinterface"},
	"package":     {lang.Package, "endpackage"},
	"program":     {lang.Module, "endprogram"},
	"class":       {lang.Class, "endclass"},
	"config":      {lang.Config, "endconfig"},
	"primitive":   {lang.Primitive, "endprimitive"},
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

func (p *parser) atUnitStart() bool {
	t := p.cur()
	if t.Category != token.CatKeyword {
		return false
	}
	_, ok := unitStarts[t.Text]
	return ok
}

func (p *parser) parseUnit() (lang.DesignUnit, []diag.Diagnostic, bool) {
	start := p.cur()
	info := unitStarts[start.Text]
	startPos := start.Pos
	p.i++

	// `virtual class`/`virtual interface` already consumed the preceding
	// modifier elsewhere; here we just expect the name.
	if p.cur().Category != token.CatIdentifier {
		return lang.DesignUnit{}, []diag.Diagnostic{perr(p.file, startPos, "expected unit name after '"+start.Text+"'")}, false
	}
	name := p.cur().Ident
	p.i++

	var deps []ident.CompoundIdentifier
	if start.Text == "class" {
		if p.cur().Category == token.CatKeyword && p.cur().Text == "extends" {
			p.i++
			if p.cur().Category == token.CatIdentifier {
				deps = append(deps, ident.NewCompound(p.cur().Ident))
				p.i++
			}
		}
	}

	hasPorts := false
	if info.kind == lang.Module || info.kind == lang.Interface {
		hasPorts = p.skipPortListAndParams()
	}

	refs, bodyDeps := p.collectBody(info.end)
	deps = append(deps, bodyDeps...)
	refs = append(refs, deps...)

	return lang.DesignUnit{
		Name:     name,
		Kind:     info.kind,
		File:     p.file,
		Pos:      startPos,
		Refs:     refs,
		Deps:     deps,
		HasPorts: hasPorts,
	}, nil, true
}

// skipPortListAndParams mirrors the Verilog parser's port-list detection
// (spec §4.G testbench heuristic), extended to SystemVerilog's identical
// `#(parameters) (ports)` module/interface header shape.
func (p *parser) skipPortListAndParams() bool {
	if p.cur().Category == token.CatDelimiter && p.cur().Text == "#" {
		p.i++
		if p.cur().Category == token.CatDelimiter && p.cur().Text == "(" {
			p.i = skipBalanced(p.toks, p.i, "(", ")")
		}
	}
	if !(p.cur().Category == token.CatDelimiter && p.cur().Text == "(") {
		return false
	}
	hasPorts := !(p.at(1).Category == token.CatDelimiter && p.at(1).Text == ")")
	p.i = skipBalanced(p.toks, p.i, "(", ")")
	if p.cur().Category == token.CatDelimiter && p.cur().Text == ";" {
		p.i++
	}
	return hasPorts
}

func perr(file string, pos diag.Position, detail string) diag.Diagnostic {
	return diag.Diagnostic{Severity: diag.Error, File: file, Pos: pos, Message: detail}
}

func (p *parser) skipTo(endKw string) {
	for {
		t := p.cur()
		if t.Category == token.CatEOF {
			return
		}
		if t.Category == token.CatKeyword && t.Text == endKw {
			p.i++
			return
		}
		p.i++
	}
}

// collectBody scans until the matching end keyword, collecting package
// imports and module/interface instantiations as dependency edges.
func (p *parser) collectBody(endKw string) ([]ident.CompoundIdentifier, []ident.CompoundIdentifier) {
	var refs []ident.CompoundIdentifier
	var deps []ident.CompoundIdentifier
	depth := 0

	for {
		t := p.cur()
		if t.Category == token.CatEOF {
			break
		}
		if t.Category == token.CatKeyword && t.Text == endKw {
			if depth == 0 {
				p.i++
				break
			}
			depth--
			p.i++
			continue
		}
		if t.Category == token.CatKeyword && opensNested(t.Text) {
			depth++
			p.i++
			continue
		}

		if t.Category == token.CatKeyword && t.Text == "import" {
			if ref, adv := p.parseImport(); adv {
				refs = append(refs, ref)
				continue
			}
		}

		if dep, adv := p.tryInstantiation(); adv {
			deps = append(deps, dep)
			refs = append(refs, dep)
			continue
		}
		if ref, adv := p.tryScopedRef(); adv {
			refs = append(refs, ref)
			continue
		}
		p.i++
	}
	return refs, deps
}

func opensNested(kw string) bool {
	switch kw {
	case "generate", "function", "task", "specify", "table", "fork", "clocking", "covergroup", "property", "sequence":
		return true
	}
	return false
}

// parseImport recognizes `import pkg::name;` or `import pkg::*;`.
func (p *parser) parseImport() (ident.CompoundIdentifier, bool) {
	start := p.i
	p.i++ // 'import'
	if p.cur().Category != token.CatIdentifier {
		p.i = start
		return ident.CompoundIdentifier{}, false
	}
	pkg := p.cur().Ident
	p.i++
	if !(p.cur().Category == token.CatDelimiter && p.cur().Text == "::") {
		p.i = start
		return ident.CompoundIdentifier{}, false
	}
	p.i++
	if p.cur().Category == token.CatDelimiter && p.cur().Text == "*" {
		p.i++
		return ident.NewQualifiedCompound(pkg, ident.NewBasic("*")), true
	}
	if p.cur().Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	item := p.cur().Ident
	p.i++
	return ident.NewQualifiedCompound(pkg, item), true
}

// tryScopedRef recognizes `pkg::item` outside of an import statement.
func (p *parser) tryScopedRef() (ident.CompoundIdentifier, bool) {
	if p.cur().Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	if !(p.at(1).Category == token.CatDelimiter && (p.at(1).Text == "::" || p.at(1).Text == ".")) {
		return ident.CompoundIdentifier{}, false
	}
	prefix := p.cur().Ident
	if p.at(2).Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	suffix := p.at(2).Ident
	p.i += 3
	return ident.NewQualifiedCompound(prefix, suffix), true
}

// tryInstantiation recognizes `typename [#(...)] instname ( ... ) ;`,
// shared with Verilog's module/interface instantiation shape.
func (p *parser) tryInstantiation() (ident.CompoundIdentifier, bool) {
	if p.cur().Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	if token.IsKeyword(p.cur().Text) {
		return ident.CompoundIdentifier{}, false
	}
	typeName := p.cur().Ident
	j := p.i + 1
	if j < len(p.toks) && p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == "#" {
		j++
		if j < len(p.toks) && p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == "(" {
			j = skipBalanced(p.toks, j, "(", ")")
		}
	}
	if j >= len(p.toks) || p.toks[j].Category != token.CatIdentifier {
		return ident.CompoundIdentifier{}, false
	}
	j++
	if j >= len(p.toks) || p.toks[j].Category != token.CatDelimiter || p.toks[j].Text != "(" {
		return ident.CompoundIdentifier{}, false
	}
	j = skipBalanced(p.toks, j, "(", ")")
	if j < len(p.toks) && p.toks[j].Category == token.CatDelimiter && p.toks[j].Text == ";" {
		j++
	}
	p.i = j
	return ident.NewCompound(typeName), true
}

func skipBalanced(toks []token.Token, start int, open, close string) int {
	depth := 0
	i := start
	for i < len(toks) {
		t := toks[i]
		if t.Category == token.CatDelimiter && t.Text == open {
			depth++
		}
		if t.Category == token.CatDelimiter && t.Text == close {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}
