package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"

	"github.com/stretchr/testify/require"
)

// newWorkingIp writes a manifest plus the given VHDL sources to a fresh
// directory and loads it as an Ip, the same way a checked-out project
// directory is loaded.
func newWorkingIp(t *testing.T, name string, deps map[string]version.Request, sources map[string]string) *ip.Ip {
	t.Helper()
	dir := t.TempDir()
	m := manifest.Default(name)
	m.Dependencies = deps
	require.NoError(t, m.Save(filepath.Join(dir, "Orbit.toml")))
	writeSources(t, dir, sources)
	loaded, err := ip.Load(dir)
	require.NoError(t, err)
	return loaded
}

func writeSources(t *testing.T, dir string, sources map[string]string) {
	t.Helper()
	for rel, content := range sources {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// installDependency builds a standalone IP tree and registers it directly
// in cat's installations population, the way Discover would after finding
// an existing cache slot.
func installDependency(t *testing.T, cat *catalog.Catalog, name string, v version.Version, sources map[string]string) *ip.Ip {
	t.Helper()
	dir := filepath.Join(cat.CacheDir, name+"-"+v.String()+"-0000000000")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	m := manifest.Default(name)
	m.Ip.Version = v
	require.NoError(t, m.Save(filepath.Join(dir, "Orbit.toml")))
	writeSources(t, dir, sources)
	loaded, err := ip.Load(dir)
	require.NoError(t, err)
	cat.AddInstalled(loaded)
	return loaded
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	base := t.TempDir()
	cat := catalog.New(filepath.Join(base, "cache"), filepath.Join(base, "downloads"))
	require.NoError(t, os.MkdirAll(cat.CacheDir, 0o755))
	require.NoError(t, os.MkdirAll(cat.DownloadDir, 0o755))
	return cat
}
