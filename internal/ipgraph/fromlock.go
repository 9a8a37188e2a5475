package ipgraph

import (
	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/lockfile"
	"github.com/hdlkit/orbit/internal/version"
)

// FromLock rebuilds the IP-graph directly from a previously saved Lockfile
// instead of re-walking manifests and re-deriving Keep/Alter state (spec §8
// Scenario 4 "lockfile short-circuit"), grounded on algo.rs's
// graph_ip_from_lock, which is kept distinct from graph_ip in the original
// rather than folded into one function. Every entry the lock names must
// already be present in cat's installations; a missing one means the
// catalog has drifted out from under the lock and the caller should fall
// back to Resolve.
func FromLock(root *ip.Ip, l *lockfile.Lockfile, cat *catalog.Catalog) (*Graph, error) {
	g := newGraph()

	for _, e := range l.Ip {
		var i *ip.Ip
		if e.Name == l.Root {
			i = root
		} else {
			found, ok := findExact(cat, e.Name, e.Version)
			if !ok {
				return nil, &diag.MissingDependency{Name: e.Name, Request: e.Version.String()}
			}
			i = found
		}
		key := Key(i)
		if _, exists := g.Node(key); !exists {
			g.addNode(&Node{Key: key, Ip: i, Library: i.Library(), State: Keep, IsRoot: e.Name == l.Root})
		}
	}

	for _, e := range l.Ip {
		upperKey := e.Name + "@" + e.Version.String()
		for _, dep := range e.Dependencies {
			lowerKey := dep.Name + "@" + dep.Version.String()
			if !g.addEdge(lowerKey, upperKey) {
				return nil, &diag.CyclicDependency{Cycle: []string{lowerKey, upperKey}}
			}
		}
	}

	return g, nil
}

// findExact returns the installed IP matching (name, v) exactly, if any.
func findExact(cat *catalog.Catalog, name string, v version.Version) (*ip.Ip, bool) {
	for _, i := range cat.Installations(name) {
		if i.Manifest.Ip.Version.Equal(v) {
			return i, true
		}
	}
	return nil, false
}
