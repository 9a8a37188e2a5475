// Package ip implements the in-memory Ip aggregate of spec §3: a manifest,
// lockfile, and root directory, loaded on demand from a working directory,
// a cache slot, or an extracted archive.
package ip

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/hdlkit/orbit/internal/archive"
	"github.com/hdlkit/orbit/internal/checksum"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/dst"
	"github.com/hdlkit/orbit/internal/lockfile"
	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"
)

const (
	manifestFileName = "Orbit.toml"
	lockFileName     = "Orbit.lock"
	sumFileName      = "orbit-sum.txt"
	dynamicFileName  = "orbit-dynamic.txt"
)

// Ip is the loaded aggregate of a manifest, an optional lockfile, and the
// directory holding the IP's source tree (spec §3).
type Ip struct {
	Root     string
	Manifest *manifest.Manifest
	Lock     *lockfile.Lockfile // nil if no Orbit.lock is present yet
	Dynamic  bool               // true if this slot holds a DST-rewritten copy
	LUT      dst.LUT            // the rewrite table that produced Dynamic's copy, nil otherwise
}

// Name is a convenience accessor over Manifest.Ip.Name.
func (i *Ip) Name() string { return i.Manifest.Ip.Name }

// Library is a convenience accessor over Manifest.Library().
func (i *Ip) Library() string { return i.Manifest.Library() }

// Load reads an IP rooted at dir: its manifest is required, its lockfile
// and dynamic-LUT marker are optional (spec §3 "Ip ... Lifecycle").
func Load(dir string) (*Ip, error) {
	m, err := manifest.Load(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, err
	}
	i := &Ip{Root: dir, Manifest: m}

	lockPath := filepath.Join(dir, lockFileName)
	if _, err := os.Stat(lockPath); err == nil {
		l, err := lockfile.Load(lockPath)
		if err != nil {
			return nil, err
		}
		i.Lock = l
	}
	if raw, err := os.ReadFile(filepath.Join(dir, dynamicFileName)); err == nil {
		i.Dynamic = true
		var lut dst.LUT
		if len(raw) > 0 {
			if err := toml.Unmarshal(raw, &lut); err != nil {
				return nil, diag.IoFailure{Path: filepath.Join(dir, dynamicFileName), Cause: err}
			}
		}
		i.LUT = lut
	}
	return i, nil
}

// Checksum computes the IP's content checksum over every file under its
// root (spec §4.B), including the manifest, lockfile and any metadata files
// the cache slot holds.
func (i *Ip) Checksum() (checksum.Sum, error) {
	return checksum.Tree(i.Root)
}

// SlotName renders the cache-slot directory name for this IP at the given
// checksum (spec §3 "CacheSlot name").
func SlotName(name string, v version.Version, sum checksum.Sum) string {
	return name + "-" + v.String() + "-" + sum.Prefix10()
}

// WriteSlotMetadata writes the orbit-sum.txt sentinel that marks a cache
// slot as complete and, when lut is non-nil, an orbit-dynamic.txt holding
// the DST lookup table as TOML (spec §6 "Cache slot layout": "the LUT as
// TOML"). A non-nil empty LUT still marks the slot dynamic with an empty
// table, distinct from omitting the file entirely.
func WriteSlotMetadata(dir string, sum checksum.Sum, lut dst.LUT) error {
	if err := os.WriteFile(filepath.Join(dir, sumFileName), []byte(sum.String()), 0o644); err != nil {
		return diag.IoFailure{Path: dir, Cause: err}
	}
	if lut != nil {
		raw, err := toml.Marshal(lut)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, dynamicFileName), raw, 0o644); err != nil {
			return diag.IoFailure{Path: dir, Cause: err}
		}
	}
	return nil
}

// FromArchive extracts the archive at archivePath into destDir and loads
// the resulting Ip, verifying the recomputed checksum matches expected
// (spec §4.D, §7 ChecksumMismatch, Scenario 5). On a mismatch destDir is
// removed before returning.
func FromArchive(archivePath, destDir string, expected checksum.Sum) (*Ip, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, diag.IoFailure{Path: archivePath, Cause: err}
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, diag.IoFailure{Path: destDir, Cause: err}
	}
	header, err := archive.Read(f, destDir)
	if err != nil {
		os.RemoveAll(destDir)
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(destDir, manifestFileName), []byte(header.ManifestText), 0o644); err != nil {
		os.RemoveAll(destDir)
		return nil, diag.IoFailure{Path: destDir, Cause: err}
	}
	if err := os.WriteFile(filepath.Join(destDir, lockFileName), []byte(header.LockText), 0o644); err != nil {
		os.RemoveAll(destDir)
		return nil, diag.IoFailure{Path: destDir, Cause: err}
	}

	actual, err := checksum.Tree(destDir)
	if err != nil {
		os.RemoveAll(destDir)
		return nil, err
	}
	if actual != expected {
		os.RemoveAll(destDir)
		return nil, diag.ChecksumMismatch{Expected: expected.String(), Actual: actual.String()}
	}

	if err := WriteSlotMetadata(destDir, actual, nil); err != nil {
		os.RemoveAll(destDir)
		return nil, err
	}
	return Load(destDir)
}

// InstallToCache extracts the archive at archivePath into a fresh cache
// slot under cacheDir, naming the slot after the checksum it computes from
// the extracted tree rather than verifying against a pre-known checksum
// (spec §4.E "extracting the archive into a new cache slot keyed by its
// checksum", §6 install_from_download). Slot creation is idempotent: if the
// computed slot already exists, the freshly extracted copy is discarded and
// the existing slot is loaded instead (spec §5).
func InstallToCache(archivePath, cacheDir string) (*Ip, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, diag.IoFailure{Path: archivePath, Cause: err}
	}
	defer f.Close()

	tempDir, err := os.MkdirTemp(cacheDir, ".orbit-install-*")
	if err != nil {
		return nil, diag.IoFailure{Path: cacheDir, Cause: err}
	}
	header, err := archive.Read(f, tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(tempDir, manifestFileName), []byte(header.ManifestText), 0o644); err != nil {
		os.RemoveAll(tempDir)
		return nil, diag.IoFailure{Path: tempDir, Cause: err}
	}
	if err := os.WriteFile(filepath.Join(tempDir, lockFileName), []byte(header.LockText), 0o644); err != nil {
		os.RemoveAll(tempDir)
		return nil, diag.IoFailure{Path: tempDir, Cause: err}
	}

	m, err := manifest.Load(filepath.Join(tempDir, manifestFileName))
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	sum, err := checksum.Tree(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	destDir := filepath.Join(cacheDir, SlotName(m.Ip.Name, m.Ip.Version, sum))
	if _, statErr := os.Stat(destDir); statErr == nil {
		os.RemoveAll(tempDir)
		return Load(destDir)
	}
	if err := os.Rename(tempDir, destDir); err != nil {
		os.RemoveAll(tempDir)
		return nil, diag.IoFailure{Path: destDir, Cause: err}
	}
	if err := WriteSlotMetadata(destDir, sum, nil); err != nil {
		return nil, err
	}
	return Load(destDir)
}
