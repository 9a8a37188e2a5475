// Package lockfile implements the canonical lockfile of spec §4.C: TOML
// I/O, canonical (name, version) ordering, and the can_use_lock
// short-circuit predicate, grounded on the teacher's stored-hash
// comparison pattern in internal/indexer/policy_cache.go
// (policyCacheValid comparing a stored config hash before reusing cached
// results).
package lockfile

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"
)

// DepRef is one (name, version) edge inside an Entry's dependency list.
type DepRef struct {
	Name    string          `toml:"name"`
	Version version.Version `toml:"version"`
}

// Entry is one IP in the resolved graph (spec §3 "LockEntry").
type Entry struct {
	Name         string           `toml:"name"`
	Version      version.Version  `toml:"version"`
	Checksum     string           `toml:"checksum,omitempty"`
	Source       *manifest.Source `toml:"source,omitempty"`
	Dependencies []DepRef         `toml:"dependencies,omitempty"`
}

// Lockfile is the canonical serialization of a resolved IpGraph (spec §3).
// Root names which entry is the working IP, so can_use_lock knows where to
// compare the manifest's direct dependencies against.
type Lockfile struct {
	Root         string  `toml:"root"`
	ManifestHash string  `toml:"manifest_hash,omitempty"`
	Ip           []Entry `toml:"ip"`
}

// Canonicalize sorts the entry list by (name, version) ascending, and each
// entry's dependency list identically (spec §3 "canonical form").
func (l *Lockfile) Canonicalize() {
	sort.Slice(l.Ip, func(i, j int) bool { return entryLess(l.Ip[i], l.Ip[j]) })
	for i := range l.Ip {
		deps := l.Ip[i].Dependencies
		sort.Slice(deps, func(a, b int) bool {
			if deps[a].Name != deps[b].Name {
				return deps[a].Name < deps[b].Name
			}
			return deps[a].Version.Less(deps[b].Version)
		})
	}
}

func entryLess(a, b Entry) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Version.Less(b.Version)
}

// Find returns the entry named name, if present.
func (l *Lockfile) Find(name string) (Entry, bool) {
	for _, e := range l.Ip {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Closed reports whether the lockfile's transitive closure is complete
// (spec §8 invariant 2/5): every (name, version) referenced by any entry's
// Dependencies is itself present as an Entry.
func (l *Lockfile) Closed() bool {
	present := make(map[string]bool, len(l.Ip))
	for _, e := range l.Ip {
		present[e.Name+"@"+e.Version.String()] = true
	}
	for _, e := range l.Ip {
		for _, d := range e.Dependencies {
			if !present[d.Name+"@"+d.Version.String()] {
				return false
			}
		}
	}
	return true
}

// Load reads and canonicalizes the lockfile at path.
func Load(path string) (*Lockfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.IoFailure{Path: path, Cause: err}
	}
	var l Lockfile
	if err := toml.NewDecoder(bytes.NewReader(raw)).Decode(&l); err != nil {
		return nil, fmt.Errorf("parse lockfile %s: %w", path, err)
	}
	l.Canonicalize()
	return &l, nil
}

// Save canonicalizes and writes l to path as TOML.
func (l *Lockfile) Save(path string) error {
	l.Canonicalize()
	data, err := toml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal lockfile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag.IoFailure{Path: path, Cause: err}
	}
	return nil
}

// ManifestHash computes a stable digest of the manifest fields that, if
// changed, invalidate a lockfile short-circuit (spec §4.C "compared via
// stored hash of manifest fields"): the root's name, version, and its
// sorted direct dependency requests.
func ManifestHash(m *manifest.Manifest) string {
	var b strings.Builder
	b.WriteString(m.Ip.Name)
	b.WriteByte('\n')
	b.WriteString(m.Ip.Version.String())
	b.WriteByte('\n')

	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(m.Dependencies[name].String())
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:])
}

// CanUseLock implements spec §4.C's can_use_lock predicate: the lockfile's
// root entry's dependency list must match the manifest's declared direct
// dependencies exactly, and the manifest must not have changed since the
// lock was written.
func CanUseLock(l *Lockfile, m *manifest.Manifest) bool {
	if l == nil {
		return false
	}
	if l.ManifestHash != ManifestHash(m) {
		return false
	}
	root, ok := l.Find(l.Root)
	if !ok || l.Root != m.Ip.Name {
		return false
	}
	if len(root.Dependencies) != len(m.Dependencies) {
		return false
	}
	for _, dep := range root.Dependencies {
		req, declared := m.Dependencies[dep.Name]
		if !declared || !version.Compatible(dep.Version, req) {
			return false
		}
	}
	return true
}
