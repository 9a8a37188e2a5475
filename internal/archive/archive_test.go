package archive

import (
	"bytes"
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

func TestWriteReadRoundTrip(t *testing.T) {
	src := writeTree(t, map[string]string{
		"and_gate.vhd": "entity and_gate is\nend entity and_gate;\n",
		"sub/pkg.vhd":  "package p is\nend package p;\n",
	})

	var buf bytes.Buffer
	if err := Write(&buf, src, "[ip]\nname=\"and_gate\"\n", "root=\"and_gate\"\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dest := t.TempDir()
	header, err := Read(bytes.NewReader(buf.Bytes()), dest)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if header.ManifestText != "[ip]\nname=\"and_gate\"\n" {
		t.Fatalf("unexpected manifest text: %q", header.ManifestText)
	}
	if header.LockText != "root=\"and_gate\"\n" {
		t.Fatalf("unexpected lock text: %q", header.LockText)
	}

	got, err := os.ReadFile(filepath.Join(dest, "and_gate.vhd"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(got) != "entity and_gate is\nend entity and_gate;\n" {
		t.Fatalf("unexpected extracted content: %q", got)
	}
	gotSub, err := os.ReadFile(filepath.Join(dest, "sub", "pkg.vhd"))
	if err != nil {
		t.Fatalf("reading extracted nested file: %v", err)
	}
	if string(gotSub) != "package p is\nend package p;\n" {
		t.Fatalf("unexpected nested extracted content: %q", gotSub)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x09, 0, 0, 0, 0}), t.TempDir())
	if err == nil {
		t.Fatalf("expected an error for an unknown archive version")
	}
}

func TestReadRejectsTruncatedInput(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{Version, 0}), t.TempDir())
	if err == nil {
		t.Fatalf("expected an error for truncated input")
	}
}

func TestReadHeaderWithoutExtracting(t *testing.T) {
	src := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	var buf bytes.Buffer
	if err := Write(&buf, src, "[ip]\nname=\"a\"\n", "root=\"a\"\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	header, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if header.ManifestText != "[ip]\nname=\"a\"\n" {
		t.Fatalf("unexpected manifest text: %q", header.ManifestText)
	}
}

func TestExtractionIsDeterministic(t *testing.T) {
	src := writeTree(t, map[string]string{"a.vhd": "entity a is\nend entity a;\n"})
	var buf bytes.Buffer
	if err := Write(&buf, src, "m", "l"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dest1 := t.TempDir()
	if _, err := Read(bytes.NewReader(buf.Bytes()), dest1); err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	dest2 := t.TempDir()
	if _, err := Read(bytes.NewReader(buf.Bytes()), dest2); err != nil {
		t.Fatalf("Read 2: %v", err)
	}

	a, _ := os.ReadFile(filepath.Join(dest1, "a.vhd"))
	b, _ := os.ReadFile(filepath.Join(dest2, "a.vhd"))
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical extraction across runs")
	}
}
