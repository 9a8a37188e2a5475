package dst

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdlkit/orbit/internal/checksum"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
	"github.com/hdlkit/orbit/internal/lang"
	vhdltoken "github.com/hdlkit/orbit/internal/vhdl/token"
)

func lexVHDL(t *testing.T, src string) []vhdltoken.Token {
	t.Helper()
	toks, diags := vhdltoken.NewLexer(t.Name(), src).Lex()
	require.Empty(t, diags)
	return toks
}

func TestRewritePreservesLayoutWhenNothingRenamed(t *testing.T) {
	src := "\nentity adder is\nend entity adder;\n"
	out := Rewrite(FromVHDL(lexVHDL(t, src)), LUT{})
	require.Equal(t, src, out)
}

func TestRewriteRenamesOnlyTargetedIdentifier(t *testing.T) {
	src := "entity adder is\nend entity adder;\n"
	lut := LUT{"adder": "_abc1234567"}
	out := Rewrite(FromVHDL(lexVHDL(t, src)), lut)
	require.Equal(t, "entity adder_abc1234567 is\nend entity adder_abc1234567;\n", out)
}

func TestRewriteCompensatesForLengthChangeOnSameLine(t *testing.T) {
	src := "signal adder : std_logic := '0';\n"
	lut := LUT{"adder": "_xyz"}
	out := Rewrite(FromVHDL(lexVHDL(t, src)), lut)
	// The gap before ":" is computed from adder's *original* column and
	// length, not its renamed length, so the one space of original source
	// separation survives even though the identifier grew.
	require.Equal(t, "signal adder_xyz : std_logic := '0';\n", out)
}

func TestRewritePreservesMultiLineCommentThenSameLineToken(t *testing.T) {
	src := "library ieee;\n\n/*\ntwo-line\ncomment */ use ieee.std_logic_1164.all;\n"
	out := Rewrite(FromVHDL(lexVHDL(t, src)), LUT{})
	require.Equal(t, src, out)
}

func TestRewriteLeavesUnrelatedIdentifiersAlone(t *testing.T) {
	src := "entity adder is\nend entity adder;\n-- util is unrelated\n"
	lut := LUT{"util": "_abc1234567"}
	out := Rewrite(FromVHDL(lexVHDL(t, src)), lut)
	require.Equal(t, src, out)
}

func TestGenerateLUTAssignsSameSuffixToEveryUnit(t *testing.T) {
	units := map[string]lang.DesignUnit{
		"adder": {Name: ident.NewBasic("adder"), Pos: diag.Position{Line: 1, Col: 1}},
		"util":  {Name: ident.NewBasic("util"), Pos: diag.Position{Line: 2, Col: 1}},
	}
	var sum checksum.Sum
	sum[0] = 0xAB
	lut := GenerateLUT(units, sum)
	require.Len(t, lut, 2)
	require.Equal(t, lut["adder"], lut["util"])
	require.Equal(t, "_"+sum.Prefix10(), lut["adder"])
}

func TestMergeCombinesTwoLUTs(t *testing.T) {
	a := LUT{"x": "_1"}
	b := LUT{"y": "_2"}
	merged := Merge(a, b)
	require.Equal(t, "_1", merged["x"])
	require.Equal(t, "_2", merged["y"])
}

func TestApplyDispatchesByLanguage(t *testing.T) {
	src := "entity adder is\nend entity adder;\n"
	out, diags := Apply("adder.vhd", src, lang.VHDL, LUT{"adder": "_abc1234567"})
	require.Empty(t, diags)
	require.Equal(t, "entity adder_abc1234567 is\nend entity adder_abc1234567;\n", out)
}
