package ipgraph

import (
	"os"
	"path/filepath"

	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/frontend"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/lang"
	"github.com/hdlkit/orbit/internal/version"
)

// work is one (graph key, loaded IP) pair awaiting dependency expansion.
type work struct {
	key string
	i   *ip.Ip
}

// Resolve builds the IP-graph rooted at root by walking its declared
// dependencies against cat (spec §4.E). The worktable is a LIFO stack,
// matching algo.rs's graph_ip: a Vec used as a stack via push/pop.
func Resolve(root *ip.Ip, cat *catalog.Catalog) (*Graph, error) {
	g := newGraph()
	rootKey := Key(root)

	unitMap, err := collectUnits(root, true)
	if err != nil {
		return nil, err
	}
	rootUnits := make(map[string]lang.DesignUnit, len(unitMap))
	for k, v := range unitMap {
		rootUnits[k] = v
	}
	g.addNode(&Node{Key: rootKey, Ip: root, Library: root.Library(), State: Keep, IsRoot: true, Units: rootUnits})

	stack := []work{{rootKey, root}}
	isRoot := true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for name, req := range cur.i.Manifest.Dependencies {
			depIp, err := locate(name, req, cat)
			if err != nil {
				return nil, err
			}
			depKey := Key(depIp)

			if _, already := g.Node(depKey); !already {
				units, err := collectUnits(depIp, false)
				if err != nil {
					return nil, err
				}
				state := Keep
				for key, u := range units {
					if existing, taken := unitMap[key]; taken {
						if isRoot {
							return nil, &diag.DirectIdentifierConflict{
								Name: existing.Name.String(),
								Ip:   depIp.Name(),
								Pos:  u.Pos,
							}
						}
						state = Alter
						break
					}
				}
				if state == Keep {
					for key, u := range units {
						unitMap[key] = u
					}
				}
				g.addNode(&Node{Key: depKey, Ip: depIp, Library: depIp.Library(), State: state, Units: units})
				stack = append(stack, work{depKey, depIp})
			}

			if !g.addEdge(depKey, cur.key) {
				return nil, &diag.CyclicDependency{Cycle: []string{depKey, cur.key}}
			}
		}
		isRoot = false
	}

	return g, nil
}

// locate finds an IP satisfying (name, req) in the catalog, preferring an
// already-installed slot over a download; a matching download is extracted
// into a fresh cache slot (spec §4.E step 3).
func locate(name string, req version.Request, cat *catalog.Catalog) (*ip.Ip, error) {
	if installed, ok := cat.GetInstall(name, req); ok {
		return installed, nil
	}
	if download, ok := cat.GetDownload(name, req); ok {
		installed, err := ip.InstallToCache(download.Path, cat.CacheDir)
		if err != nil {
			return nil, err
		}
		cat.AddInstalled(installed)
		return installed, nil
	}
	return nil, &diag.MissingDependency{Name: name, Request: req.String()}
}

// collectUnits walks i's source tree and returns its primary design units
// keyed by identifier (spec §4.E step 2/3 "compute the candidate's public
// unit set"). The root IP's whole tree counts; a non-root IP is filtered
// through its own visibility list, since only its public surface can
// collide with a dependent's identifiers (spec §4.C "visibility.public").
// Secondary units (architectures, package bodies) are excluded: they attach
// to a primary unit rather than introducing a new public name.
func collectUnits(i *ip.Ip, isRoot bool) (map[string]lang.DesignUnit, error) {
	units := make(map[string]lang.DesignUnit)
	err := filepath.Walk(i.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(i.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !isRoot && !i.Manifest.IsPublic(rel) {
			return nil
		}
		f, err := frontend.Parse(path)
		if err != nil {
			return err
		}
		for _, u := range f.Units {
			if u.Kind == lang.Architecture || u.Kind == lang.PackageBody {
				continue
			}
			key := u.Name.Key()
			if _, exists := units[key]; !exists {
				units[key] = u
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}
