package unitgraph

import (
	"sort"

	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ident"
	"github.com/hdlkit/orbit/internal/lang"
)

// SelectRoot implements spec §4.G's root-selection rules. topName/benchName
// are the user-supplied --top/--bench (empty if not given); both, if
// present, must name an entity/module in the working IP. It returns the
// two resolved node keys (benchKey is "" if no bench applies).
func SelectRoot(g *Graph, topName, benchName string) (topKey, benchKey string, err error) {
	working := workingEntityNodes(g)

	if topName != "" {
		var ok bool
		topKey, ok = findNamed(working, topName)
		if !ok {
			return "", "", &diag.UnknownTop{Name: topName}
		}
		if n, _ := g.Node(topKey); n.IsTestbench() {
			return "", "", &diag.BadTop{Name: topName}
		}
	}
	if benchName != "" {
		var ok bool
		benchKey, ok = findNamed(working, benchName)
		if !ok {
			return "", "", &diag.UnknownBench{Name: benchName}
		}
		if n, _ := g.Node(benchKey); !n.IsTestbench() {
			return "", "", &diag.BadBench{Name: benchName}
		}
	}

	switch {
	case topKey != "" && benchKey != "":
		return topKey, benchKey, nil
	case topKey != "":
		// bench is the unique non-testbench-excluded successor of top that
		// is itself a testbench (spec §4.G "infer top/bench as the unique
		// predecessor/successor").
		if inferred, ok := uniqueTestbenchSuccessor(g, working, topKey); ok {
			benchKey = inferred
		}
		return topKey, benchKey, nil
	case benchKey != "":
		if inferred, ok := uniqueNonTestbenchPredecessor(g, working, benchKey); ok {
			topKey = inferred
		}
		return topKey, benchKey, nil
	}

	// Neither given: find a single sink in the working-IP subgraph.
	sinks := findSinks(g, working)
	if len(sinks) != 1 {
		return "", "", &diag.AmbiguousRoots{Candidates: sinks}
	}
	root := sinks[0]
	n, _ := g.Node(root)
	if !n.IsTestbench() {
		return root, "", nil
	}
	benchKey = root
	if inferred, ok := uniqueNonTestbenchPredecessor(g, working, benchKey); ok {
		topKey = inferred
	}
	return topKey, benchKey, nil
}

// workingEntityNodes returns every Entity/Module node key built from the
// working IP's own files, the scope root selection is restricted to (spec
// §4.G "the subgraph restricted to the working IP").
func workingEntityNodes(g *Graph) map[string]bool {
	out := make(map[string]bool)
	for _, n := range g.Nodes() {
		if !g.IsWorking(n.Key) {
			continue
		}
		if n.Kind == lang.Entity || n.Kind == lang.Module {
			out[n.Key] = true
		}
	}
	return out
}

// findNamed looks up a working-IP entity/module by its unqualified name,
// matched case-insensitively (spec §4.G "--top"/"--bench" name a unit, not
// a library-qualified key).
func findNamed(working map[string]bool, name string) (string, bool) {
	want := ident.NewBasic(name).Key()
	for key := range working {
		if key[len(keyLibrary(key))+1:] == want {
			return key, true
		}
	}
	return "", false
}

func keyLibrary(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i]
		}
	}
	return key
}

// uniqueTestbenchSuccessor returns the sole working-IP testbench among
// top's successors, or false if there are zero or more than one.
func uniqueTestbenchSuccessor(g *Graph, working map[string]bool, topKey string) (string, bool) {
	var candidates []string
	for _, succ := range g.Successors(topKey) {
		if !working[succ] {
			continue
		}
		n, _ := g.Node(succ)
		if n.IsTestbench() {
			candidates = append(candidates, succ)
		}
	}
	if len(candidates) != 1 {
		return "", false
	}
	return candidates[0], true
}

// uniqueNonTestbenchPredecessor returns the sole non-testbench working-IP
// node among bench's predecessors, or false if there are zero or more
// than one (spec §4.G "infer top as the unique predecessor that is also
// not a testbench").
func uniqueNonTestbenchPredecessor(g *Graph, working map[string]bool, benchKey string) (string, bool) {
	var candidates []string
	for _, pred := range g.Predecessors(benchKey) {
		if !working[pred] {
			continue
		}
		n, _ := g.Node(pred)
		if !n.IsTestbench() {
			candidates = append(candidates, pred)
		}
	}
	if len(candidates) != 1 {
		return "", false
	}
	return candidates[0], true
}

// findSinks returns every working-IP entity/module node with no successors
// (nothing instantiates it), sorted for deterministic AmbiguousRoots
// reporting.
func findSinks(g *Graph, working map[string]bool) []string {
	var out []string
	for key := range working {
		if len(g.Successors(key)) == 0 {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
