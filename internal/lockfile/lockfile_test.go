package lockfile

import (
	"path/filepath"
	"testing"

	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"
)

func sampleLock() *Lockfile {
	return &Lockfile{
		Root: "top",
		Ip: []Entry{
			{Name: "top", Version: version.Version{Major: 0, Minor: 1, Patch: 0}, Dependencies: []DepRef{
				{Name: "dep", Version: version.Version{Major: 1, Minor: 0, Patch: 2}},
			}},
			{Name: "dep", Version: version.Version{Major: 1, Minor: 0, Patch: 2}, Checksum: "abc123"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Orbit.lock")
	l := sampleLock()
	if err := l.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Ip) != 2 || loaded.Root != "top" {
		t.Fatalf("round-trip mismatch: %+v", loaded)
	}
}

func TestCanonicalizeSortsByNameThenVersion(t *testing.T) {
	l := &Lockfile{Ip: []Entry{
		{Name: "b", Version: version.Version{Major: 1}},
		{Name: "a", Version: version.Version{Major: 2}},
		{Name: "a", Version: version.Version{Major: 1}},
	}}
	l.Canonicalize()
	if l.Ip[0].Name != "a" || l.Ip[0].Version.Major != 1 {
		t.Fatalf("expected a@1 first, got %+v", l.Ip[0])
	}
	if l.Ip[1].Name != "a" || l.Ip[1].Version.Major != 2 {
		t.Fatalf("expected a@2 second, got %+v", l.Ip[1])
	}
	if l.Ip[2].Name != "b" {
		t.Fatalf("expected b last, got %+v", l.Ip[2])
	}
}

func TestClosedDetectsDanglingReference(t *testing.T) {
	l := sampleLock()
	if !l.Closed() {
		t.Fatalf("expected a closed lockfile")
	}
	l.Ip[0].Dependencies = append(l.Ip[0].Dependencies, DepRef{Name: "ghost", Version: version.Version{Major: 9}})
	if l.Closed() {
		t.Fatalf("expected an unresolved reference to break closure")
	}
}

func TestCanUseLockMatchesManifest(t *testing.T) {
	m := manifest.Default("top")
	m.Dependencies["dep"] = version.Request{Precision: version.MajorMinor, Version: version.Version{Major: 1, Minor: 0}}

	l := sampleLock()
	l.ManifestHash = ManifestHash(m)

	if !CanUseLock(l, m) {
		t.Fatalf("expected the lock to be reusable when the manifest matches")
	}
}

func TestCanUseLockRejectsChangedManifest(t *testing.T) {
	m := manifest.Default("top")
	m.Dependencies["dep"] = version.Request{Precision: version.MajorMinor, Version: version.Version{Major: 1, Minor: 0}}

	l := sampleLock()
	l.ManifestHash = ManifestHash(m)

	m.Dependencies["dep"] = version.Request{Precision: version.MajorMinor, Version: version.Version{Major: 2, Minor: 0}}
	if CanUseLock(l, m) {
		t.Fatalf("expected a changed manifest to invalidate the lock")
	}
}
