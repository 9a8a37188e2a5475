package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdlkit/orbit/internal/archive"
	"github.com/hdlkit/orbit/internal/checksum"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"
)

func writeInstalledSlot(t *testing.T, cacheDir, name string, v version.Version) {
	t.Helper()
	m := manifest.Default(name)
	m.Ip.Version = v
	slotDir := filepath.Join(cacheDir, name+"-"+v.String()+"-abcdef0123")
	require.NoError(t, os.MkdirAll(slotDir, 0o755))
	require.NoError(t, m.Save(filepath.Join(slotDir, "Orbit.toml")))

	sum, err := checksum.Tree(slotDir)
	require.NoError(t, err)
	require.NoError(t, ip.WriteSlotMetadata(slotDir, sum, nil))
}

func writeDownloadArchive(t *testing.T, downloadDir, name string, v version.Version) {
	t.Helper()
	m := manifest.Default(name)
	m.Ip.Version = v
	manifestText, err := tomlText(m)
	require.NoError(t, err)

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.vhd"), []byte("entity a is\nend entity a;\n"), 0o644))

	archivePath := filepath.Join(downloadDir, name+"-"+v.String()+ArchiveExt)
	require.NoError(t, os.MkdirAll(downloadDir, 0o755))
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, archive.Write(f, srcDir, manifestText, "root=\"x\"\n"))
}

func tomlText(m *manifest.Manifest) (string, error) {
	dir, err := os.MkdirTemp("", "orbit-manifest-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "Orbit.toml")
	if err := m.Save(path); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	return string(raw), err
}

func TestDiscoverPopulatesInstallations(t *testing.T) {
	cacheDir := t.TempDir()
	downloadDir := t.TempDir()
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1, Minor: 0, Patch: 0})
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 2, Minor: 0, Patch: 0})

	c := New(cacheDir, downloadDir)
	require.NoError(t, c.Discover())

	found, ok := c.GetInstall("adder", version.Request{Precision: version.Major, Version: version.Version{Major: 2}})
	require.True(t, ok)
	require.Equal(t, 2, found.Manifest.Ip.Version.Major)
}

func TestGetInstallPicksHighestCompatible(t *testing.T) {
	cacheDir := t.TempDir()
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1, Minor: 0, Patch: 0})
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1, Minor: 2, Patch: 0})
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1, Minor: 1, Patch: 0})

	c := New(cacheDir, t.TempDir())
	require.NoError(t, c.Discover())

	found, ok := c.GetInstall("adder", version.Request{Precision: version.Major, Version: version.Version{Major: 1}})
	require.True(t, ok)
	require.Equal(t, version.Version{Major: 1, Minor: 2, Patch: 0}, found.Manifest.Ip.Version)
}

func TestGetInstallNoMatch(t *testing.T) {
	cacheDir := t.TempDir()
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1, Minor: 0, Patch: 0})

	c := New(cacheDir, t.TempDir())
	require.NoError(t, c.Discover())

	_, ok := c.GetInstall("adder", version.Request{Precision: version.Major, Version: version.Version{Major: 9}})
	require.False(t, ok)
}

func TestDiscoverPopulatesDownloadsWithoutExtracting(t *testing.T) {
	downloadDir := t.TempDir()
	writeDownloadArchive(t, downloadDir, "mux", version.Version{Major: 3, Minor: 1, Patch: 4})

	c := New(t.TempDir(), downloadDir)
	require.NoError(t, c.Discover())

	d, ok := c.GetDownload("mux", version.Request{Precision: version.Major, Version: version.Version{Major: 3}})
	require.True(t, ok)
	require.Equal(t, "mux", d.Manifest.Ip.Name)
	require.Equal(t, version.Version{Major: 3, Minor: 1, Patch: 4}, d.Manifest.Ip.Version)
}

func TestDiscoverIgnoresMalformedSlotDirectories(t *testing.T) {
	cacheDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "not-a-slot"), 0o755))
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1})

	c := New(cacheDir, t.TempDir())
	require.NoError(t, c.Discover())

	_, ok := c.GetInstall("adder", version.Request{Precision: version.Major, Version: version.Version{Major: 1}})
	require.True(t, ok)
}

func TestParseSlotNameRoundTrip(t *testing.T) {
	sum := checksum.Sum{0xab, 0xcd, 0xef, 0x01, 0x23}
	name := ip.SlotName("half-adder", version.Version{Major: 1, Minor: 2, Patch: 3}, sum)

	pkgName, v, prefix, ok := ParseSlotName(name)
	require.True(t, ok)
	require.Equal(t, "half-adder", pkgName)
	require.Equal(t, version.Version{Major: 1, Minor: 2, Patch: 3}, v)
	require.Equal(t, sum.Prefix10(), prefix)
}

func TestParseSlotNameRejectsMalformedNames(t *testing.T) {
	_, _, _, ok := ParseSlotName("not-a-valid-slot")
	require.False(t, ok)

	_, _, _, ok = ParseSlotName("adder-1.0.0-nothexxx01")
	require.False(t, ok)
}

func TestIsCachedSlot(t *testing.T) {
	cacheDir := t.TempDir()
	writeInstalledSlot(t, cacheDir, "adder", version.Version{Major: 1})
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, IsCachedSlot(filepath.Join(cacheDir, entries[0].Name())))
	require.False(t, IsCachedSlot(filepath.Join(cacheDir, "does-not-exist")))
}

func TestAddInstalledRegistersFreshSlot(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir, t.TempDir())

	slotDir := filepath.Join(cacheDir, "adder-1.0.0-abcdef0123")
	m := manifest.Default("adder")
	m.Ip.Version = version.Version{Major: 1}
	require.NoError(t, os.MkdirAll(slotDir, 0o755))
	require.NoError(t, m.Save(filepath.Join(slotDir, "Orbit.toml")))
	loaded, err := ip.Load(slotDir)
	require.NoError(t, err)

	c.AddInstalled(loaded)
	found, ok := c.GetInstall("adder", version.Request{Precision: version.Major, Version: version.Version{Major: 1}})
	require.True(t, ok)
	require.Equal(t, "adder", found.Name())
}
