package token

import "testing"

func categoriesOf(toks []Token) []Category {
	var out []Category
	for _, t := range toks {
		out = append(out, t.Category)
	}
	return out
}

func TestLexerEntityHeader(t *testing.T) {
	src := `entity adder is
  generic ( WIDTH : positive := 8 );
end entity adder;`
	toks, diags := NewLexer("adder.vhd", src).Lex()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if toks[0].Category != CatKeyword || toks[0].Text != "entity" {
		t.Fatalf("expected leading entity keyword, got %v", toks[0])
	}
	if toks[len(toks)-1].Category != CatEOF {
		t.Fatalf("expected stream to terminate with EOF")
	}
}

func TestLexerPositionsAreOneBased(t *testing.T) {
	toks, _ := NewLexer("x.vhd", "entity e").Lex()
	if toks[0].Pos.Line != 1 || toks[0].Pos.Col != 1 {
		t.Fatalf("expected first token at 1:1, got %v", toks[0].Pos)
	}
	if toks[1].Pos.Col != 8 {
		t.Fatalf("expected second token at col 8, got %d", toks[1].Pos.Col)
	}
}

func TestLexerNewlineResetsColumn(t *testing.T) {
	toks, _ := NewLexer("x.vhd", "entity e\nis").Lex()
	var is Token
	for _, tk := range toks {
		if tk.Text == "is" {
			is = tk
		}
	}
	if is.Pos.Line != 2 || is.Pos.Col != 1 {
		t.Fatalf("expected 'is' at 2:1, got %v", is.Pos)
	}
}

func TestLexerIdentifierCaseInsensitiveKeyword(t *testing.T) {
	toks, _ := NewLexer("x.vhd", "ENTITY Foo IS").Lex()
	if toks[0].Category != CatKeyword {
		t.Fatalf("expected ENTITY to lex as a keyword regardless of case")
	}
}

func TestLexerExtendedIdentifier(t *testing.T) {
	toks, diags := NewLexer("x.vhd", `\adder_tb\`).Lex()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if toks[0].Category != CatIdentifier {
		t.Fatalf("expected an identifier token, got %v", toks[0])
	}
	if toks[0].Ident.Text != "adder_tb" {
		t.Fatalf("expected decoded extended identifier text, got %q", toks[0].Ident.Text)
	}
}

func TestLexerUnterminatedStringReportsDiagnostic(t *testing.T) {
	_, diags := NewLexer("x.vhd", `constant s : string := "oops`).Lex()
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for the unterminated string")
	}
}

func TestLexerUnterminatedBlockCommentReportsDiagnostic(t *testing.T) {
	_, diags := NewLexer("x.vhd", "/* never closes").Lex()
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for the unterminated block comment")
	}
}

func TestLexerBasedLiteral(t *testing.T) {
	toks, diags := NewLexer("x.vhd", "2#001_1100.001#E14").Lex()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if toks[0].Category != CatAbstractLiteral {
		t.Fatalf("expected an abstract literal, got %v", toks[0])
	}
}

func TestLexerBitStringLiteral(t *testing.T) {
	toks, diags := NewLexer("x.vhd", `8b"11"`).Lex()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if toks[0].Category != CatBitStringLiteral {
		t.Fatalf("expected a bit string literal, got %v", toks[0])
	}
}

func TestLexerArrowAndSigAssignDelimiters(t *testing.T) {
	toks, _ := NewLexer("x.vhd", "a <= b; c => d;").Lex()
	cats := categoriesOf(toks)
	_ = cats
	found := map[string]bool{}
	for _, tk := range toks {
		found[tk.Text] = true
	}
	if !found["<="] || !found["=>"] {
		t.Fatalf("expected to find <= and => delimiters, got %+v", toks)
	}
}

func TestLexerLineComment(t *testing.T) {
	toks, _ := NewLexer("x.vhd", "-- hello\nentity e").Lex()
	if toks[0].Category != CatComment {
		t.Fatalf("expected a leading comment token")
	}
}
