package symbol

import (
	"testing"

	"github.com/hdlkit/orbit/internal/lang"
)

func TestParseSimpleEntity(t *testing.T) {
	src := `
entity and_gate is
  port ( a, b : in bit; c : out bit );
end entity and_gate;
`
	f := Parse("and_gate.vhd", src)
	if len(f.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", f.Diags)
	}
	if len(f.Units) != 1 {
		t.Fatalf("expected exactly one unit, got %d", len(f.Units))
	}
	u := f.Units[0]
	if u.Kind != lang.Entity || u.Name.Text != "and_gate" {
		t.Fatalf("unexpected unit: %+v", u)
	}
	if !u.HasPorts {
		t.Fatalf("expected a non-empty port clause to set HasPorts")
	}
}

func TestParseEntityWithNoPortsIsPortless(t *testing.T) {
	src := `
entity tb is
end entity tb;
`
	f := Parse("tb.vhd", src)
	if len(f.Units) != 1 || f.Units[0].HasPorts {
		t.Fatalf("expected a portless entity, got %+v", f.Units)
	}
}

func TestParseArchitectureAttachesToEntity(t *testing.T) {
	src := `
architecture rtl of adder is
begin
end architecture rtl;
`
	f := Parse("adder.vhd", src)
	if len(f.Units) != 1 {
		t.Fatalf("expected one unit, got %d", len(f.Units))
	}
	u := f.Units[0]
	if u.Kind != lang.Architecture || u.Secondary != "adder" {
		t.Fatalf("expected architecture secondary to be 'adder', got %+v", u)
	}
}

func TestParseUseClauseRecordsReference(t *testing.T) {
	src := `
entity e is
end entity;

architecture a of e is
  use ieee.std_logic_1164.all;
begin
end architecture;
`
	f := Parse("e.vhd", src)
	var arch *lang.DesignUnit
	for i := range f.Units {
		if f.Units[i].Kind == lang.Architecture {
			arch = &f.Units[i]
		}
	}
	if arch == nil {
		t.Fatalf("expected an architecture unit")
	}
	found := false
	for _, r := range arch.Refs {
		if r.Library != nil && r.Library.Text == "ieee" && r.Unit.Text == "std_logic_1164" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected use clause to produce a (ieee, std_logic_1164) reference, got %+v", arch.Refs)
	}
}

func TestParseComponentInstantiationIsADependency(t *testing.T) {
	src := `
architecture rtl of top is
begin
  u1 : entity work.adder(rtl)
    port map ( a => x, b => y );
end architecture;
`
	f := Parse("top.vhd", src)
	arch := f.Units[0]
	if len(arch.Deps) != 1 {
		t.Fatalf("expected exactly one dependency edge, got %d: %+v", len(arch.Deps), arch.Deps)
	}
	d := arch.Deps[0]
	if d.Library == nil || d.Library.Text != "work" || d.Unit.Text != "adder" {
		t.Fatalf("unexpected dependency: %+v", d)
	}
}

func TestParseTwoEntitiesSameFileBothRecovered(t *testing.T) {
	src := `
entity a is end entity a;
entity b is end entity b;
`
	f := Parse("ab.vhd", src)
	if len(f.Units) != 2 {
		t.Fatalf("expected two units, got %d: %+v", len(f.Units), f.Units)
	}
}

func TestParseMalformedUnitDoesNotBlockSiblings(t *testing.T) {
	src := `
entity
entity good is end entity good;
`
	f := Parse("x.vhd", src)
	foundGood := false
	for _, u := range f.Units {
		if u.Name.Text == "good" {
			foundGood = true
		}
	}
	if !foundGood {
		t.Fatalf("expected the malformed leading unit to not block parsing 'good', got %+v", f.Units)
	}
	if len(f.Diags) == 0 {
		t.Fatalf("expected a diagnostic for the malformed unit")
	}
}
