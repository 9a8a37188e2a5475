package core

import (
	"github.com/hdlkit/orbit/internal/ipgraph"
	"github.com/hdlkit/orbit/internal/lockfile"
)

// buildLockfile renders a resolved IP-graph as the canonical Lockfile of
// spec §4.C, recording each entry's checksum over its effective (possibly
// DST-rewritten) tree rather than its original slot. ipgraph.FromLock
// matches the entries back to catalog IPs by name and version; it does not
// compare the recorded checksums.
func buildLockfile(rootName string, g *ipgraph.Graph) (*lockfile.Lockfile, error) {
	l := &lockfile.Lockfile{Root: rootName}

	for _, n := range g.Nodes() {
		effective := n.Ip
		sum, err := effective.Checksum()
		if err != nil {
			return nil, err
		}

		entry := lockfile.Entry{
			Name:     effective.Name(),
			Version:  effective.Manifest.Ip.Version,
			Checksum: sum.String(),
			Source:   effective.Manifest.Ip.Source,
		}

		for depName := range n.Ip.Manifest.Dependencies {
			depNode := findByName(g, depName)
			if depNode == nil {
				continue
			}
			entry.Dependencies = append(entry.Dependencies, lockfile.DepRef{
				Name:    depNode.Ip.Name(),
				Version: depNode.Ip.Manifest.Ip.Version,
			})
		}

		l.Ip = append(l.Ip, entry)
	}

	l.Canonicalize()
	return l, nil
}

func findByName(g *ipgraph.Graph, name string) *ipgraph.Node {
	for _, n := range g.Nodes() {
		if n.Ip.Name() == name {
			return n
		}
	}
	return nil
}
