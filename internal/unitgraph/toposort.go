package unitgraph

// GlobalOrder computes a full topological sort over every node in g using
// Kahn's algorithm, visiting nodes with no remaining predecessors in
// insertion order so the result is deterministic (spec §4.G "tie-break by
// insertion order").
func (g *Graph) GlobalOrder() []string {
	indegree := make(map[string]int, len(g.order))
	for _, key := range g.order {
		indegree[key] = len(g.predecessors[key])
	}

	var ready []string
	for _, key := range g.order {
		if indegree[key] == 0 {
			ready = append(ready, key)
		}
	}

	var order []string
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, succ := range g.successors[cur] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = insertByOriginalOrder(ready, succ, g.order)
			}
		}
	}
	return order
}

// insertByOriginalOrder inserts key into ready preserving ready's existing
// relative order and placing key according to its position in original,
// so ties between simultaneously-ready nodes resolve by insertion order
// rather than map iteration order.
func insertByOriginalOrder(ready []string, key string, original []string) []string {
	pos := indexOf(original, key)
	for i, r := range ready {
		if indexOf(original, r) > pos {
			out := append([]string(nil), ready[:i]...)
			out = append(out, key)
			out = append(out, ready[i:]...)
			return out
		}
	}
	return append(ready, key)
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

// MinimalOrder computes spec §4.G's minimal topological order: a global
// topological sort, then the subset reachable from root via predecessor
// edges (root's transitive dependencies, since root depends on everything
// it instantiates), preserving the global order (spec invariant 7: for
// every edge u→v, u precedes v).
func (g *Graph) MinimalOrder(root string) []string {
	global := g.GlobalOrder()
	reachable := g.transitiveDependencies(root)
	reachable[root] = true

	var out []string
	for _, key := range global {
		if reachable[key] {
			out = append(out, key)
		}
	}
	return out
}

// transitiveDependencies returns every node reachable from root by walking
// predecessor edges (root's dependencies, their dependencies, and so on).
func (g *Graph) transitiveDependencies(root string) map[string]bool {
	visited := make(map[string]bool)
	stack := append([]string(nil), g.predecessors[root]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, g.predecessors[cur]...)
	}
	return visited
}
