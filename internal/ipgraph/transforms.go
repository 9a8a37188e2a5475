package ipgraph

import "github.com/hdlkit/orbit/internal/lang"

// TransformTargets maps a node key to the full set of identifiers that must
// be rewritten in that node's copy (spec §4.F). An Alter node's own public
// units seed its own entry; the same set is then unioned into every
// transitive dependent's entry, since a dependent's references to those
// identifiers must also be rewritten for elaboration to still resolve them.
func TransformTargets(g *Graph) map[string]map[string]lang.DesignUnit {
	targets := make(map[string]map[string]lang.DesignUnit)
	for _, n := range g.Nodes() {
		if n.State != Alter {
			continue
		}
		union(targets, n.Key, n.Units)
		for _, dependent := range g.TransitiveDependents(n.Key) {
			union(targets, dependent, n.Units)
		}
	}
	return targets
}

func union(targets map[string]map[string]lang.DesignUnit, key string, units map[string]lang.DesignUnit) {
	dst, ok := targets[key]
	if !ok {
		dst = make(map[string]lang.DesignUnit)
		targets[key] = dst
	}
	for k, u := range units {
		dst[k] = u
	}
}
