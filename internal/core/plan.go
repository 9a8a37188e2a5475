package core

import (
	"os"
	"path/filepath"

	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/ipgraph"
	"github.com/hdlkit/orbit/internal/lang"
	"github.com/hdlkit/orbit/internal/lockfile"
	"github.com/hdlkit/orbit/internal/unitgraph"
)

// PlanOptions gathers the arguments of spec §6's plan entry point:
// plan(ip, target_dir, target, catalog, lang, force, all, bench?, top?,
// filesets?).
type PlanOptions struct {
	Working  *ip.Ip
	TargetDir string
	Target   string
	Catalog  *catalog.Catalog
	Language lang.Language

	// Force bypasses the lockfile short-circuit and re-resolves the
	// IP-graph from the manifest even when the existing lock still applies
	// (spec §9 "force re-resolution", a supplemented feature).
	Force bool
	// All selects the full topological order instead of the minimal order
	// reachable from the chosen root (spec §6 plan's "all" flag).
	All bool

	Top      string
	Bench    string
	Filesets []unitgraph.Fileset
}

// PlanResult is everything a successful Plan produced: the rendered
// blueprint, the IP-graph it was built from, and the lockfile written
// alongside it.
type PlanResult struct {
	Plan     unitgraph.Plan
	Graph    *ipgraph.Graph
	Lockfile *lockfile.Lockfile
}

// Plan implements spec §6's plan entry point end to end: resolve the
// IP-graph (or reuse its lockfile, spec §8 Scenario 4), apply the Dynamic
// Symbol Transform to every affected node (§4.F), build the design-unit
// graph over the resulting file closure (§4.G), select a root, and emit
// the blueprint and lockfile.
func Plan(opts PlanOptions) (*PlanResult, error) {
	g, err := resolveIpGraph(opts)
	if err != nil {
		return nil, err
	}

	replaced, err := applyDST(g, opts.Catalog.CacheDir)
	if err != nil {
		return nil, err
	}
	for key, r := range replaced {
		if n, ok := g.Node(key); ok {
			n.Ip = r
		}
	}

	files, err := fileClosure(g)
	if err != nil {
		return nil, err
	}
	ug, diags, err := unitgraph.Build(files)
	if err != nil {
		return nil, err
	}
	if errs := fatalDiagnostics(diags); len(errs) > 0 {
		return nil, &diag.PlanFailed{Diagnostics: errs}
	}

	topKey, benchKey, err := unitgraph.SelectRoot(ug, opts.Top, opts.Bench)
	if err != nil {
		return nil, err
	}

	var order []string
	if opts.All {
		order = ug.GlobalOrder()
	} else {
		root := benchKey
		if root == "" {
			root = topKey
		}
		order = ug.MinimalOrder(root)
	}

	targetDir := filepath.Join(opts.TargetDir, opts.Target)
	blueprintPath := filepath.Join(targetDir, "blueprint.tsv")
	plan := unitgraph.Emit(ug, order, topKey, benchKey, opts.Working.Root, opts.Filesets, opts.Target, targetDir, blueprintPath)

	if err := writeBlueprint(targetDir, plan); err != nil {
		return nil, err
	}

	lock, err := buildLockfile(opts.Working.Name(), g)
	if err != nil {
		return nil, err
	}
	lock.ManifestHash = lockfile.ManifestHash(opts.Working.Manifest)
	if err := lock.Save(filepath.Join(opts.Working.Root, "Orbit.lock")); err != nil {
		return nil, err
	}

	return &PlanResult{Plan: plan, Graph: g, Lockfile: lock}, nil
}

// resolveIpGraph picks between the lockfile short-circuit (spec §8
// Scenario 4) and a full Resolve: the lock is trusted only when present,
// unforced, and lockfile.CanUseLock agrees it still matches the manifest.
// A short-circuit that fails midway (the catalog has drifted since the
// lock was written) falls back to a full Resolve rather than failing the
// whole plan, since the lock itself is only ever an optimization.
func resolveIpGraph(opts PlanOptions) (*ipgraph.Graph, error) {
	if !opts.Force && lockfile.CanUseLock(opts.Working.Lock, opts.Working.Manifest) {
		if g, err := ipgraph.FromLock(opts.Working, opts.Working.Lock, opts.Catalog); err == nil {
			return g, nil
		}
	}
	return ipgraph.Resolve(opts.Working, opts.Catalog)
}

// fatalDiagnostics filters diags down to Error severity, the subset that
// aborts a plan (spec §7 propagation rule: warnings are surfaced, errors
// abort).
func fatalDiagnostics(diags []diag.Diagnostic) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diags {
		if d.Severity == diag.Error {
			out = append(out, d)
		}
	}
	return out
}

// writeBlueprint renders plan's blueprint and .env into dir, creating dir
// if needed (spec §6 "Blueprint file").
func writeBlueprint(dir string, plan unitgraph.Plan) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return diag.IoFailure{Path: dir, Cause: err}
	}
	blueprintPath := filepath.Join(dir, "blueprint.tsv")
	if err := os.WriteFile(blueprintPath, []byte(unitgraph.Render(plan)), 0o644); err != nil {
		return diag.IoFailure{Path: blueprintPath, Cause: err}
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(unitgraph.RenderEnv(plan)), 0o644); err != nil {
		return diag.IoFailure{Path: envPath, Cause: err}
	}
	return nil
}
