package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

func TestTreeIsDeterministic(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"and_gate.vhd": "entity and_gate is\nend entity and_gate;\n",
		"sub/pkg.vhd":  "package p is\nend package p;\n",
	})
	a, err := Tree(dir)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	b, err := Tree(dir)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if a != b {
		t.Fatalf("expected deterministic checksum, got %s != %s", a, b)
	}
}

func TestTreeIsStableAcrossCRLF(t *testing.T) {
	lf := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	crlf := writeTree(t, map[string]string{"a.vhd": "entity a is\r\nend entity a;\r\n"})

	sumLF, err := Tree(lf)
	if err != nil {
		t.Fatalf("Tree(lf): %v", err)
	}
	sumCRLF, err := Tree(crlf)
	if err != nil {
		t.Fatalf("Tree(crlf): %v", err)
	}
	if sumLF != sumCRLF {
		t.Fatalf("expected CRLF-stable checksum, got %s != %s", sumLF, sumCRLF)
	}
}

func TestTreeDetectsContentChange(t *testing.T) {
	a := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	b := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a; -- changed\n"})

	sumA, _ := Tree(a)
	sumB, _ := Tree(b)
	if sumA == sumB {
		t.Fatalf("expected different checksums for different content")
	}
}

func TestTreeDetectsRename(t *testing.T) {
	a := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	b := writeTree(t, map[string]string{"renamed.vhd": "entity a is\nend entity a;\n"})

	sumA, _ := Tree(a)
	sumB, _ := Tree(b)
	if sumA == sumB {
		t.Fatalf("expected different checksums after a rename, since the path digest changes")
	}
}

func TestTreeSkipsFilesContainingNUL(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	if err := os.WriteFile(filepath.Join(dir, "bin.dat"), []byte{0x00, 0x01}, 0o644); err != nil {
		t.Fatalf("write bin.dat: %v", err)
	}
	withoutBinary, _ := Tree(writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"}))
	withBinary, err := Tree(dir)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if withBinary != withoutBinary {
		t.Fatalf("expected a NUL-containing file to be left out of the digest entirely, its path included")
	}
}

func TestSumPrefix10(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	sum, err := Tree(dir)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(sum.Prefix10()) != 10 {
		t.Fatalf("expected a 10-character prefix, got %q", sum.Prefix10())
	}
}
