package unitgraph

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hdlkit/orbit/internal/lang"
)

// Fileset is a user- or plugin-defined pattern matched against the working
// IP's own files only, never a dependency's (spec §9 visibility rule, and
// SPEC_FULL's supplemented user-defined-fileset feature). A file matching
// Pattern is tagged Name in the blueprint instead of its language tag.
type Fileset struct {
	Name    string
	Pattern string
}

// Record is one emitted blueprint line.
type Record struct {
	Tag     string
	Library string
	Path    string
}

// Plan is the result of Emit: the ordered blueprint records and the
// environment variables written alongside them (spec §6 "Blueprint file").
type Plan struct {
	Records []Record
	Env     map[string]string
}

// Emit renders the minimal topological order rooted at root into a
// blueprint (spec §4.G "Blueprint emission"). workingRoot is the working
// IP's root directory, used to compute the relative paths Filesets match
// against. target, targetDir and blueprintPath populate the `.env` beyond
// ORBIT_TOP/ORBIT_BENCH.
func Emit(g *Graph, order []string, topKey, benchKey string, workingRoot string, filesets []Fileset, target, targetDir, blueprintPath string) Plan {
	simOnly := simOnlyFiles(g, topKey, benchKey)

	var records []Record
	seen := make(map[string]bool)
	for _, key := range order {
		n, ok := g.Node(key)
		if !ok || n.Kind == lang.BlackBox {
			continue
		}
		for _, path := range n.Files {
			if seen[path] {
				continue
			}
			seen[path] = true
			tag := tagFor(path, n, workingRoot, filesets, simOnly[key])
			records = append(records, Record{Tag: tag, Library: n.Library, Path: path})
		}
	}

	env := map[string]string{
		"ORBIT_BLUEPRINT":  blueprintPath,
		"ORBIT_TOP":        nameOf(g, topKey),
		"ORBIT_BENCH":      nameOf(g, benchKey),
		"ORBIT_TARGET":     target,
		"ORBIT_TARGET_DIR": targetDir,
	}
	return Plan{Records: records, Env: env}
}

func nameOf(g *Graph, key string) string {
	if key == "" {
		return ""
	}
	n, ok := g.Node(key)
	if !ok {
		return ""
	}
	return n.Name.String()
}

// simOnlyFiles marks every node reachable from bench but not from top as
// simulation-only (spec §4.G "those reachable only from bench").
func simOnlyFiles(g *Graph, topKey, benchKey string) map[string]bool {
	out := make(map[string]bool)
	if benchKey == "" {
		return out
	}
	fromTop := make(map[string]bool)
	if topKey != "" {
		fromTop[topKey] = true
		for k := range g.transitiveDependencies(topKey) {
			fromTop[k] = true
		}
	}
	fromBench := map[string]bool{benchKey: true}
	for k := range g.transitiveDependencies(benchKey) {
		fromBench[k] = true
	}
	for k := range fromBench {
		if !fromTop[k] {
			out[k] = true
		}
	}
	return out
}

// tagFor picks a record's tag: a matching user fileset wins outright;
// otherwise the language's base tag, switched to its -SIM variant when the
// owning node is simulation-only (spec §4.G "Tags: VHDL, VHDL-SIM, VLOG,
// SYSV, and user-defined fileset tags").
func tagFor(path string, n *Node, workingRoot string, filesets []Fileset, simOnly bool) string {
	if rel, err := filepath.Rel(workingRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
		for _, fs := range filesets {
			if ok, _ := doublestar.Match(fs.Pattern, filepath.ToSlash(rel)); ok {
				return fs.Name
			}
		}
	}
	base := baseTag(path)
	if simOnly {
		return base + "-SIM"
	}
	return base
}

func baseTag(path string) string {
	switch filepath.Ext(path) {
	case ".vhd", ".vhdl":
		return "VHDL"
	case ".v":
		return "VLOG"
	case ".sv", ".svh":
		return "SYSV"
	default:
		return "UNKNOWN"
	}
}

// Render formats a Plan's records as the tab-separated blueprint text of
// spec §6.
func Render(p Plan) string {
	var b strings.Builder
	for _, r := range p.Records {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", r.Tag, r.Library, r.Path)
	}
	return b.String()
}

// RenderEnv formats a Plan's environment as `.env` text (KEY=value lines).
func RenderEnv(p Plan) string {
	var b strings.Builder
	for _, key := range []string{"ORBIT_BLUEPRINT", "ORBIT_TOP", "ORBIT_BENCH", "ORBIT_TARGET", "ORBIT_TARGET_DIR"} {
		fmt.Fprintf(&b, "%s=%s\n", key, p.Env[key])
	}
	return b.String()
}
