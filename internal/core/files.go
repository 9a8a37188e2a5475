package core

import (
	"os"
	"path/filepath"

	"github.com/hdlkit/orbit/internal/ipgraph"
	"github.com/hdlkit/orbit/internal/lang"
	"github.com/hdlkit/orbit/internal/unitgraph"
)

// fileClosure walks every node of a resolved IP-graph and returns the flat
// file list unitgraph.Build consumes (spec §4.G "the file closure a
// resolved IpGraph yields"), grounded on algo.rs's build_ip_file_list: a
// dependency's files are filtered through its own manifest's visibility
// list, the working IP's are not, and only recognized HDL extensions
// survive either way.
func fileClosure(g *ipgraph.Graph) ([]unitgraph.FileNode, error) {
	var out []unitgraph.FileNode
	for _, n := range g.Nodes() {
		err := filepath.Walk(n.Ip.Root, func(path string, info os.FileInfo, err error) error {
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
			if !n.IsRoot {
				rel, err := filepath.Rel(n.Ip.Root, path)
				if err != nil {
					return err
				}
				if !n.Ip.Manifest.IsPublic(filepath.ToSlash(rel)) {
					return nil
				}
			}
			out = append(out, unitgraph.FileNode{
				Path:      path,
				Library:   n.Library,
				Lang:      language,
				IsWorking: n.IsRoot,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
