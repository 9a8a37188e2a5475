package ident

import "testing"

func TestBasicEqualityIsCaseInsensitive(t *testing.T) {
	a := NewBasic("Adder")
	b := NewBasic("adder")
	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v", a, b)
	}
	if a.Key() != "adder" {
		t.Fatalf("expected lowercase key, got %q", a.Key())
	}
}

func TestExtendedEqualityIsCaseSensitive(t *testing.T) {
	a := NewExtended("Adder")
	b := NewExtended("adder")
	if a.Equal(b) {
		t.Fatalf("expected %v to not equal %v", a, b)
	}
}

func TestBasicAndExtendedNeverEqual(t *testing.T) {
	a := NewBasic("adder")
	b := NewExtended("adder")
	if a.Equal(b) {
		t.Fatalf("identifiers of different kinds must never be equal")
	}
}

func TestCompoundIdentifierMatchesWithoutLibrary(t *testing.T) {
	unit := NewBasic("util")
	bare := NewCompound(unit)
	lib := NewBasic("lib1")
	qualified := NewQualifiedCompound(lib, unit)

	if !bare.Matches(qualified) {
		t.Fatalf("an unqualified reference should match a qualified compound with the same unit")
	}
	if !qualified.Matches(bare) {
		t.Fatalf("matches must be symmetric")
	}
}

func TestCompoundIdentifierLibraryMismatch(t *testing.T) {
	unit := NewBasic("util")
	q1 := NewQualifiedCompound(NewBasic("lib1"), unit)
	q2 := NewQualifiedCompound(NewBasic("lib2"), unit)
	if q1.Matches(q2) {
		t.Fatalf("different libraries should not match")
	}
}

func TestWithSuffixPreservesKind(t *testing.T) {
	a := NewExtended("adder")
	b := a.WithSuffix("_ab12cd34ef")
	if b.Kind != Extended {
		t.Fatalf("expected kind to be preserved")
	}
	if b.Text != "adder_ab12cd34ef" {
		t.Fatalf("unexpected suffixed text: %q", b.Text)
	}
}
