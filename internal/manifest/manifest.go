// Package manifest loads and saves an IP's Orbit.toml (spec §4.C, §6): a
// typed struct, a Default constructor, and a loader that rejects unknown
// scalar keys while tolerating unknown top-level tables (an external
// collaborator's extra `[metadata]`-shaped block is a warning, not a
// parse failure), mirroring the teacher's
// internal/config.Config/DefaultConfig/Load shape (internal/config/config.go)
// but in TOML rather than JSON, via github.com/pelletier/go-toml/v2.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/version"
)

// Source names the upstream location an IP was published from.
type Source struct {
	URL      string `toml:"url"`
	Protocol string `toml:"protocol,omitempty"`
}

// Visibility restricts which files of a dependency contribute to a
// dependent's file closure (spec §4.G "filtered by the IP's public
// visibility list"). An empty Public list means every file is public.
type Visibility struct {
	Public []string `toml:"public,omitempty"`
}

// Ident is the `[ip]` table: the identity fields of spec §3's Manifest.
type Ident struct {
	Name        string           `toml:"name"`
	Version     version.Version  `toml:"version"`
	Library     string           `toml:"library,omitempty"`
	UUID        uuid.UUID        `toml:"uuid"`
	Authors     []string         `toml:"authors,omitempty"`
	Description string           `toml:"description,omitempty"`
	Source      *Source          `toml:"source,omitempty"`
	Keywords    []string         `toml:"keywords,omitempty"`
	Readme      string           `toml:"readme,omitempty"`
	Visibility  Visibility       `toml:"visibility,omitempty"`
}

// Manifest is the full Orbit.toml document (spec §3, §6).
type Manifest struct {
	Ip              Ident                      `toml:"ip"`
	Dependencies    map[string]version.Request `toml:"dependencies,omitempty"`
	DevDependencies map[string]version.Request `toml:"dev-dependencies,omitempty"`
}

// Default returns a minimal manifest for a freshly initialized IP named
// name, with a fresh random UUID and library defaulted to name (spec §3).
func Default(name string) *Manifest {
	return &Manifest{
		Ip: Ident{
			Name:    name,
			Version: version.Version{Major: 0, Minor: 1, Patch: 0},
			UUID:    uuid.New(),
		},
		Dependencies: map[string]version.Request{},
	}
}

// Library returns the IP's effective HDL library name: Library if set,
// else Name (spec §3 "library ... default = name").
func (m *Manifest) Library() string {
	if m.Ip.Library != "" {
		return m.Ip.Library
	}
	return m.Ip.Name
}

// IsPublic reports whether relPath (slash-separated, IP-root-relative) is
// visible to dependents under the IP's visibility filter (spec §4.C, §9).
// The glob dialect is doublestar's shell-style (*, **, ?, [...]), fixing
// the Open Question spec.md §9 leaves open.
func (m *Manifest) IsPublic(relPath string) bool {
	if len(m.Ip.Visibility.Public) == 0 {
		return true
	}
	for _, pattern := range m.Ip.Visibility.Public {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// topLevelTables are the manifest's known `[...]` blocks; any other
// top-level table is an unrecognized extension an external collaborator
// may have added and is dropped with a warning rather than rejected
// (spec §6: "unknown top-level tables are warnings, not errors").
var topLevelTables = map[string]bool{
	"ip":               true,
	"dependencies":     true,
	"dev-dependencies": true,
}

// Load reads and validates the manifest at path, rejecting unknown scalar
// keys (spec §4.C) the same way the teacher's config.Load distinguishes a
// clean parse from a malformed file, but tolerating unknown top-level
// tables by stripping them before the strict struct decode.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.IoFailure{Path: path, Cause: err}
	}

	var generic map[string]interface{}
	if err := toml.Unmarshal(raw, &generic); err != nil {
		return nil, diag.ManifestInvalid{Path: path, Reason: err.Error()}
	}
	for key, val := range generic {
		if topLevelTables[key] {
			continue
		}
		if isTable(val) {
			delete(generic, key)
			fmt.Fprintf(os.Stderr, "orbit: %s: warning: ignoring unknown table %q\n", path, key)
			continue
		}
		return nil, diag.ManifestInvalid{Path: path, Reason: fmt.Sprintf("unknown field %q", key)}
	}
	filtered, err := toml.Marshal(generic)
	if err != nil {
		return nil, diag.ManifestInvalid{Path: path, Reason: err.Error()}
	}

	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(filtered))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, diag.ManifestInvalid{Path: path, Reason: err.Error()}
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

// isTable reports whether a generically decoded TOML value is a table or
// an array of tables, as opposed to a scalar or an array of scalars.
func isTable(val interface{}) bool {
	switch v := val.(type) {
	case map[string]interface{}:
		return true
	case []interface{}:
		for _, elem := range v {
			if _, ok := elem.(map[string]interface{}); ok {
				return true
			}
		}
	}
	return false
}

func (m *Manifest) validate(path string) error {
	if m.Ip.Name == "" {
		return diag.ManifestInvalid{Path: path, Reason: "missing required field ip.name"}
	}
	if m.Ip.UUID == uuid.Nil {
		return diag.ManifestInvalid{Path: path, Reason: "missing required field ip.uuid"}
	}
	return nil
}

// Save writes m to path as TOML.
func (m *Manifest) Save(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag.IoFailure{Path: path, Cause: err}
	}
	return nil
}
