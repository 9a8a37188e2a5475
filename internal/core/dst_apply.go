package core

import (
	"os"
	"path/filepath"

	"github.com/hdlkit/orbit/internal/checksum"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/dst"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/ipgraph"
	"github.com/hdlkit/orbit/internal/lang"
)

// applyDST resolves every Alter node's rewrite and installs the result into
// a new cache slot (spec §4.F), grounded on algo.rs's
// compute_final_ip_graph: a two-pass structure, since a node can be the
// transitive dependent of more than one Alter ancestor and must receive
// every ancestor's LUT merged before it is rewritten once. Returns, for
// each key that required a rewrite, the *ip.Ip loaded from its new slot;
// keys untouched by any transform are absent from the result and the
// caller should keep using the graph's original Ip for them.
func applyDST(g *ipgraph.Graph, cacheDir string) (map[string]*ip.Ip, error) {
	transforms := make(map[string]dst.LUT)

	for _, n := range g.Nodes() {
		if n.State != ipgraph.Alter {
			continue
		}
		sum, err := n.Ip.Checksum()
		if err != nil {
			return nil, err
		}
		lut := dst.GenerateLUT(n.Units, sum)
		transforms[n.Key] = dst.Merge(transforms[n.Key], lut)
		for _, depKey := range g.TransitiveDependents(n.Key) {
			transforms[depKey] = dst.Merge(transforms[depKey], lut)
		}
	}

	replaced := make(map[string]*ip.Ip, len(transforms))
	for key, lut := range transforms {
		n, ok := g.Node(key)
		if !ok {
			continue
		}
		rewritten, err := rewriteIntoSlot(n.Ip, lut, cacheDir)
		if err != nil {
			return nil, err
		}
		replaced[key] = rewritten
	}
	return replaced, nil
}

// rewriteIntoSlot copies i's tree into a scratch directory, rewrites every
// recognized HDL file through lut, and installs the result into a cache
// slot keyed by the rewritten tree's checksum (spec §4.F "install_dst"),
// reusing an existing slot at that checksum (and discarding the scratch
// copy) rather than installing a second copy. The
// original slot at i.Root is never modified, whether or not i is itself
// the working IP (spec §4.B "temporary directories ... on failure are left
// in place for inspection" — the scratch copy, never the source, is what
// a failed rewrite leaves behind).
func rewriteIntoSlot(i *ip.Ip, lut dst.LUT, cacheDir string) (*ip.Ip, error) {
	tempDir, err := os.MkdirTemp(cacheDir, ".orbit-dst-*")
	if err != nil {
		return nil, diag.IoFailure{Path: cacheDir, Cause: err}
	}
	if err := copyTree(i.Root, tempDir); err != nil {
		return nil, err
	}
	if err := rewriteTree(tempDir, lut); err != nil {
		return nil, err
	}

	sum, err := checksum.Tree(tempDir)
	if err != nil {
		return nil, err
	}
	destDir := filepath.Join(cacheDir, ip.SlotName(i.Name(), i.Manifest.Ip.Version, sum))
	if _, statErr := os.Stat(destDir); statErr == nil {
		os.RemoveAll(tempDir)
		return ip.Load(destDir)
	}
	if err := os.Rename(tempDir, destDir); err != nil {
		return nil, diag.IoFailure{Path: destDir, Cause: err}
	}
	if err := ip.WriteSlotMetadata(destDir, sum, lut); err != nil {
		return nil, err
	}
	return ip.Load(destDir)
}

// rewriteTree applies lut to every recognized HDL file under dir in place.
func rewriteTree(dir string, lut dst.LUT) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		language, known := lang.LanguageOf(filepath.Ext(path))
		if !known {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return diag.IoFailure{Path: path, Cause: err}
		}
		rewritten, _ := dst.Apply(path, string(raw), language, lut)
		if err := os.WriteFile(path, []byte(rewritten), info.Mode()); err != nil {
			return diag.IoFailure{Path: path, Cause: err}
		}
		return nil
	})
}
