// Package ipgraph builds the IP-level dependency graph of spec §4.E: a
// worktable walk over the catalog that resolves each declared dependency to
// an installed or downloadable IP, detects identifier collisions between
// sibling IPs, and marks the losing side for DST (§4.F). Grounded
// line-for-line on original_source/src/core/algo.rs's graph_ip (the
// processing-stack shape and the is_root direct-collision special case) and
// the teacher's internal/indexer/deps.go (buildDependentsGraph's
// adjacency-map shape, reused here at IP granularity instead of file
// granularity).
package ipgraph

import (
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/lang"
)

// State tags whether a node's identifiers must be rewritten by DST.
type State int

const (
	Keep State = iota
	Alter
)

func (s State) String() string {
	if s == Alter {
		return "alter"
	}
	return "keep"
}

// Node is one IP positioned in the graph.
type Node struct {
	Key     string
	Ip      *ip.Ip
	Library string
	State   State
	IsRoot  bool

	// Units is this node's own public primary-unit set, keyed by
	// identifier (spec §4.E step 3 "compute the candidate's public unit
	// set"), kept so DST LUT derivation (§4.F) need not re-parse the IP.
	Units map[string]lang.DesignUnit
}

// Graph is the resolved IP-graph: nodes keyed by "name@version", plus a
// lower→upper adjacency (an edge records "upper depends on lower", matching
// algo.rs's add_edge_by_key(lower, upper)).
type Graph struct {
	nodes       map[string]*Node
	order       []string // insertion order, for deterministic iteration
	successors  map[string][]string // lower -> []upper
}

func newGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		successors: make(map[string][]string),
	}
}

func (g *Graph) addNode(n *Node) {
	if _, exists := g.nodes[n.Key]; exists {
		return
	}
	g.nodes[n.Key] = n
	g.order = append(g.order, n.Key)
}

// addEdge records that upper depends on lower. Returns false if the edge
// would close a cycle (lower is already reachable from upper), in which
// case the caller should surface CyclicDependency.
func (g *Graph) addEdge(lower, upper string) bool {
	if g.canReach(upper, lower) {
		return false
	}
	for _, existing := range g.successors[lower] {
		if existing == upper {
			return true
		}
	}
	g.successors[lower] = append(g.successors[lower], upper)
	return true
}

// canReach reports whether to is reachable from from via successor edges.
func (g *Graph) canReach(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.successors[cur] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Node looks up a node by its "name@version" key.
func (g *Graph) Node(key string) (*Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.nodes[key])
	}
	return out
}

// Successors returns the keys of nodes that directly depend on key.
func (g *Graph) Successors(key string) []string {
	return append([]string(nil), g.successors[key]...)
}

// TransitiveDependents returns every node reachable from key via successor
// edges (key's dependents, their dependents, and so on), used to propagate
// a DST lookup table beyond a direct neighbor (spec §4.F "all transitive
// dependents").
func (g *Graph) TransitiveDependents(key string) []string {
	visited := make(map[string]bool)
	var out []string
	stack := append([]string(nil), g.successors[key]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		stack = append(stack, g.successors[cur]...)
	}
	return out
}

// Key renders an IP's graph key ("name@version").
func Key(i *ip.Ip) string {
	return i.Name() + "@" + i.Manifest.Ip.Version.String()
}
