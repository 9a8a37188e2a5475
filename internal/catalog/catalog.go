// Package catalog implements the three-population IP index of spec §4.D,
// grounded on the teacher's atomic-write discipline in
// internal/indexer/cache.go (writeJSONAtomic) and its single sync.Mutex
// guarding concurrent slot access.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hdlkit/orbit/internal/archive"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"
)

// ArchiveExt is the default archive file extension (spec §6).
const ArchiveExt = ".ip"

// Download is a lightweight record of an unextracted archive: its parsed
// manifest, without the source tree, read via archive.ReadHeader so
// discovery does not have to unpack every download on disk.
type Download struct {
	Path     string
	Manifest *manifest.Manifest
}

// Catalog holds the three populations spec §4.D describes. Installed holds
// fully loaded *ip.Ip slots; Downloads holds unextracted archives;
// Working, if non-nil, is the current project.
type Catalog struct {
	CacheDir    string
	DownloadDir string

	mu sync.Mutex

	installed map[string][]*ip.Ip   // name -> sorted descending by version
	downloads map[string][]Download // name -> sorted descending by version
	Working   *ip.Ip
}

// New returns an empty Catalog rooted at the given cache and download
// directories.
func New(cacheDir, downloadDir string) *Catalog {
	return &Catalog{
		CacheDir:    cacheDir,
		DownloadDir: downloadDir,
		installed:   make(map[string][]*ip.Ip),
		downloads:   make(map[string][]Download),
	}
}

// Discover walks the cache and download directories and populates the
// installations and downloads populations (spec §4.D "Discovery").
// Malformed entries (a directory whose name does not parse as a CacheSlot,
// a file that is not a valid archive) are skipped rather than failing the
// whole walk, matching the parser's "report and continue" philosophy
// (spec §7 propagation rule).
func (c *Catalog) Discover() error {
	if err := c.discoverInstallations(); err != nil {
		return err
	}
	return c.discoverDownloads()
}

func (c *Catalog) discoverInstallations() error {
	entries, err := os.ReadDir(c.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		slotDir := filepath.Join(c.CacheDir, e.Name())
		if !IsCachedSlot(slotDir) {
			continue
		}
		loaded, err := ip.Load(slotDir)
		if err != nil {
			continue
		}
		c.mu.Lock()
		c.addInstalled(loaded)
		c.mu.Unlock()
	}
	return nil
}

func (c *Catalog) addInstalled(i *ip.Ip) {
	name := i.Name()
	list := c.installed[name]
	list = append(list, i)
	sort.Slice(list, func(a, b int) bool {
		return lessVersionDesc(parsedVersion(list[a].Manifest), parsedVersion(list[b].Manifest))
	})
	c.installed[name] = list
}

// downloadCacheEntry records the manifest text parsed from an archive the
// last time discoverDownloads read it, so a rerun over an unchanged
// download directory need not reopen every archive and scan its header.
type downloadCacheEntry struct {
	ModTime      int64  `json:"mod_time"`
	Size         int64  `json:"size"`
	ManifestText string `json:"manifest_text"`
}

func (c *Catalog) downloadCachePath() string {
	return filepath.Join(c.DownloadDir, ".orbit-download-cache.json")
}

func (c *Catalog) loadDownloadCache() map[string]downloadCacheEntry {
	cache := make(map[string]downloadCacheEntry)
	data, err := os.ReadFile(c.downloadCachePath())
	if err != nil {
		return cache
	}
	_ = json.Unmarshal(data, &cache)
	return cache
}

func (c *Catalog) discoverDownloads() error {
	entries, err := os.ReadDir(c.DownloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading download dir: %w", err)
	}
	cache := c.loadDownloadCache()
	fresh := make(map[string]downloadCacheEntry, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ArchiveExt {
			continue
		}
		path := filepath.Join(c.DownloadDir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}

		entry, ok := cache[e.Name()]
		if !ok || entry.ModTime != info.ModTime().Unix() || entry.Size != info.Size() {
			f, err := os.Open(path)
			if err != nil {
				continue
			}
			header, err := archive.ReadHeader(f)
			f.Close()
			if err != nil {
				continue
			}
			entry = downloadCacheEntry{
				ModTime:      info.ModTime().Unix(),
				Size:         info.Size(),
				ManifestText: header.ManifestText,
			}
		}

		m, err := parseManifestText(entry.ManifestText)
		if err != nil {
			continue
		}
		fresh[e.Name()] = entry

		c.mu.Lock()
		c.addDownload(Download{Path: path, Manifest: m})
		c.mu.Unlock()
	}
	if err := writeJSONAtomic(c.downloadCachePath(), fresh); err != nil {
		return fmt.Errorf("writing download cache: %w", err)
	}
	return nil
}

func (c *Catalog) addDownload(d Download) {
	name := d.Manifest.Ip.Name
	list := c.downloads[name]
	list = append(list, d)
	sort.Slice(list, func(a, b int) bool {
		return lessVersionDesc(list[a].Manifest.Ip.Version, list[b].Manifest.Ip.Version)
	})
	c.downloads[name] = list
}

func lessVersionDesc(a, b version.Version) bool { return b.Less(a) }

func parsedVersion(m *manifest.Manifest) version.Version { return m.Ip.Version }

func parseManifestText(text string) (*manifest.Manifest, error) {
	tmp, err := os.CreateTemp("", "orbit-manifest-*.toml")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()
	return manifest.Load(tmp.Name())
}

// GetInstall returns the highest installed version satisfying req (spec
// §4.D "Lookup").
func (c *Catalog) GetInstall(name string, req version.Request) (*ip.Ip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, i := range c.installed[name] {
		if version.Compatible(i.Manifest.Ip.Version, req) {
			return i, true
		}
	}
	return nil, false
}

// GetDownload returns the highest downloaded version satisfying req.
func (c *Catalog) GetDownload(name string, req version.Request) (Download, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.downloads[name] {
		if version.Compatible(d.Manifest.Ip.Version, req) {
			return d, true
		}
	}
	return Download{}, false
}

// AddInstalled registers a freshly extracted slot in the installations
// population (used after InstallFromDownload, spec §6).
func (c *Catalog) AddInstalled(i *ip.Ip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addInstalled(i)
}

// Installations returns every installed version of name, sorted version
// descending.
func (c *Catalog) Installations(name string) []*ip.Ip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ip.Ip(nil), c.installed[name]...)
}

// IsCachedSlot is a pure path check (spec §4.D): dir's base name must
// parse as "{name}-{major.minor.patch}-{10 hex chars}".
func IsCachedSlot(dir string) bool {
	_, _, _, ok := ParseSlotName(filepath.Base(dir))
	return ok
}

// ParseSlotName parses a cache-slot directory name into its components
// (spec §3 "CacheSlot name").
func ParseSlotName(name string) (pkgName string, v version.Version, checksumPrefix string, ok bool) {
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return "", version.Version{}, "", false
	}
	checksumPrefix = parts[len(parts)-1]
	verStr := parts[len(parts)-2]
	pkgName = strings.Join(parts[:len(parts)-2], "-")

	if len(checksumPrefix) != 10 || !isHex(checksumPrefix) {
		return "", version.Version{}, "", false
	}
	parsedVer, err := parseStrictVersion(verStr)
	if err != nil {
		return "", version.Version{}, "", false
	}
	if pkgName == "" {
		return "", version.Version{}, "", false
	}
	return pkgName, parsedVer, checksumPrefix, true
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') && !(r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

func parseStrictVersion(s string) (version.Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return version.Version{}, fmt.Errorf("invalid slot version %q", s)
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return version.Version{}, fmt.Errorf("invalid slot version component %q", p)
		}
		nums[i] = n
	}
	return version.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// writeJSONAtomic writes v as indented JSON to path via a temp-file-plus-
// rename, the same discipline the teacher's internal/indexer/cache.go uses
// for its facts index. discoverDownloads uses it to persist the
// per-archive manifest cache across runs.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
