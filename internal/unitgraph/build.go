package unitgraph

import (
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/frontend"
	"github.com/hdlkit/orbit/internal/ident"
	"github.com/hdlkit/orbit/internal/lang"
)

// FileNode is one entry of the file closure spec §4.G derives from the
// resolved IpGraph: a source file, the HDL library it was compiled into,
// and whether it belongs to the working IP (as opposed to a dependency),
// which bounds root selection.
type FileNode struct {
	Path      string
	Library   string
	Lang      lang.Language
	IsWorking bool
}

// secondary is a parsed Architecture or PackageBody awaiting attachment to
// its owning primary unit in Build's second/third pass.
type secondary struct {
	unit    lang.DesignUnit
	file    string
	library string
}

// Build implements the five-step construction of spec §4.G: tokenize every
// file, collect primary units into nodes (pass 1), attach architectures and
// their edges (pass 2), merge package bodies and add the general reference
// edges (pass 3), synthesizing a BlackBox node for any reference that
// resolves to no known unit (step 5).
//
// A parse-level problem in one file is a non-fatal diagnostic (spec §7
// "the parser reports and continues"); a unit-identifier collision within
// a single library is fatal, returned as *diag.DuplicateIdentifier, since
// spec §4.G marks it so explicitly.
func Build(files []FileNode) (*Graph, []diag.Diagnostic, error) {
	g := newGraph()
	var diags []diag.Diagnostic
	// componentMap resolves a bare (unqualified) instantiated name to the
	// library it was declared in, mirroring plan.rs's component_pairs
	// (spec §4.G step 1 "component→library map").
	componentMap := make(map[string]string)
	var secondaries []secondary

	for _, f := range files {
		file, err := frontend.Parse(f.Path)
		if err != nil {
			diags = append(diags, diag.Diagnostic{Severity: diag.Error, File: f.Path, Message: err.Error()})
			continue
		}
		diags = append(diags, file.Diags...)

		for _, u := range file.Units {
			if u.Kind == lang.Architecture || u.Kind == lang.PackageBody {
				secondaries = append(secondaries, secondary{unit: u, file: f.Path, library: f.Library})
				continue
			}
			key := Key(f.Library, u.Name)
			if existing, ok := g.Node(key); ok {
				return nil, diags, &diag.DuplicateIdentifier{
					Name:  u.Name.String(),
					File1: existing.Files[0],
					Pos1:  u.Pos,
					File2: f.Path,
					Pos2:  u.Pos,
				}
			}
			n := &Node{
				Key:      key,
				Library:  f.Library,
				Name:     u.Name,
				Kind:     u.Kind,
				Files:    []string{f.Path},
				HasPorts: u.HasPorts,
				Refs:     append([]ident.CompoundIdentifier(nil), u.Refs...),
			}
			g.addNode(n, f.IsWorking)
			if u.Kind == lang.Entity || u.Kind == lang.Module {
				componentMap[u.Name.Key()] = f.Library
			}
		}
	}

	// Pass 2: attach architectures, add their instantiation edges directly.
	for _, s := range secondaries {
		if s.unit.Kind != lang.Architecture {
			continue
		}
		ownerKey := Key(s.library, ident.NewBasic(s.unit.Secondary))
		owner, ok := g.Node(ownerKey)
		if !ok {
			diags = append(diags, diag.Diagnostic{
				Severity: diag.Warning, File: s.file, Pos: s.unit.Pos,
				Message: "architecture of unknown entity '" + s.unit.Secondary + "'",
			})
			continue
		}
		owner.Files = appendUnique(owner.Files, s.file)
		owner.Refs = append(owner.Refs, s.unit.Refs...)
		for _, dep := range s.unit.Deps {
			depKey, ok := resolve(dep, s.library, componentMap)
			if !ok {
				continue
			}
			ensureBlackBox(g, depKey, dep, s.library)
			if !g.addEdge(depKey, owner.Key) {
				return nil, diags, &diag.CyclicDependency{Cycle: []string{depKey, owner.Key}}
			}
		}
	}

	// Pass 3: merge package bodies, then add the general reference edges.
	for _, s := range secondaries {
		if s.unit.Kind != lang.PackageBody {
			continue
		}
		ownerKey := Key(s.library, ident.NewBasic(s.unit.Secondary))
		owner, ok := g.Node(ownerKey)
		if !ok {
			diags = append(diags, diag.Diagnostic{
				Severity: diag.Warning, File: s.file, Pos: s.unit.Pos,
				Message: "package body of unknown package '" + s.unit.Secondary + "'",
			})
			continue
		}
		owner.Files = appendUnique(owner.Files, s.file)
		owner.Refs = append(owner.Refs, s.unit.Refs...)
	}

	for _, key := range append([]string(nil), g.order...) {
		n, _ := g.Node(key)
		for _, ref := range n.Refs {
			refKey, ok := resolve(ref, n.Library, componentMap)
			if !ok {
				continue
			}
			ensureBlackBox(g, refKey, ref, n.Library)
			if !g.addEdge(refKey, n.Key) {
				return nil, diags, &diag.CyclicDependency{Cycle: []string{refKey, n.Key}}
			}
		}
	}

	return g, diags, nil
}

// resolve turns a reference into a graph key: a qualified reference uses
// its own library; a bare reference is looked up in componentMap, falling
// back to the referencing unit's own library (spec §4.G step 3 "looking up
// bare names against a component→library map").
func resolve(ref ident.CompoundIdentifier, ownLibrary string, componentMap map[string]string) (string, bool) {
	if ref.Library != nil {
		return Key(ref.Library.Key(), ref.Unit), true
	}
	if lib, ok := componentMap[ref.Unit.Key()]; ok {
		return Key(lib, ref.Unit), true
	}
	return Key(ownLibrary, ref.Unit), true
}

// ensureBlackBox synthesizes a placeholder node for a reference that names
// no known unit (spec §4.G step 5), so the edge the caller is about to add
// still resolves to something.
func ensureBlackBox(g *Graph, key string, ref ident.CompoundIdentifier, fallbackLibrary string) {
	if _, ok := g.Node(key); ok {
		return
	}
	library := fallbackLibrary
	if ref.Library != nil {
		library = ref.Library.Key()
	}
	g.addNode(&Node{Key: key, Library: library, Name: ref.Unit, Kind: lang.BlackBox}, false)
}

func appendUnique(files []string, f string) []string {
	for _, existing := range files {
		if existing == f {
			return files
		}
	}
	return append(files, f)
}
