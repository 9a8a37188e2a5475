package ipgraph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/diag"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/manifest"
	"github.com/hdlkit/orbit/internal/version"
)

func makeIp(t *testing.T, name string, v version.Version, deps map[string]version.Request, entities ...string) *ip.Ip {
	t.Helper()
	dir := t.TempDir()
	m := manifest.Default(name)
	m.Ip.Version = v
	if deps != nil {
		m.Dependencies = deps
	}
	require.NoError(t, m.Save(filepath.Join(dir, "Orbit.toml")))
	for _, e := range entities {
		src := "entity " + e + " is\nend entity " + e + ";\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, e+".vhd"), []byte(src), 0o644))
	}
	loaded, err := ip.Load(dir)
	require.NoError(t, err)
	return loaded
}

func req(major int) version.Request {
	return version.Request{Precision: version.Major, Version: version.Version{Major: major}}
}

func TestResolveSimpleDependencySucceeds(t *testing.T) {
	adder := makeIp(t, "adder", version.Version{Major: 1}, nil, "adder")
	root := makeIp(t, "top", version.Version{Major: 1}, map[string]version.Request{"adder": req(1)}, "top")

	cat := catalog.New(t.TempDir(), t.TempDir())
	cat.AddInstalled(adder)

	g, err := Resolve(root, cat)
	require.NoError(t, err)
	require.Len(t, g.Nodes(), 2)

	adderNode, ok := g.Node(Key(adder))
	require.True(t, ok)
	require.Equal(t, Keep, adderNode.State)

	successors := g.Successors(Key(adder))
	require.Contains(t, successors, Key(root))
}

func TestResolveDirectIdentifierConflictFails(t *testing.T) {
	lib1 := makeIp(t, "lib1", version.Version{Major: 1}, nil, "util")
	lib2 := makeIp(t, "lib2", version.Version{Major: 1}, nil, "util")
	root := makeIp(t, "top", version.Version{Major: 1}, map[string]version.Request{
		"lib1": req(1),
		"lib2": req(1),
	}, "top")

	cat := catalog.New(t.TempDir(), t.TempDir())
	cat.AddInstalled(lib1)
	cat.AddInstalled(lib2)

	_, err := Resolve(root, cat)
	require.Error(t, err)
	var conflict *diag.DirectIdentifierConflict
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "util", conflict.Name)
}

func TestResolveTransitiveCollisionMarksDependencyAlter(t *testing.T) {
	lib1 := makeIp(t, "lib1", version.Version{Major: 1}, nil, "util")
	lib2 := makeIp(t, "lib2", version.Version{Major: 1}, map[string]version.Request{"lib1": req(1)}, "util")
	root := makeIp(t, "top", version.Version{Major: 1}, map[string]version.Request{"lib2": req(1)}, "top")

	cat := catalog.New(t.TempDir(), t.TempDir())
	cat.AddInstalled(lib1)
	cat.AddInstalled(lib2)

	g, err := Resolve(root, cat)
	require.NoError(t, err)

	lib1Node, ok := g.Node(Key(lib1))
	require.True(t, ok)
	require.Equal(t, Alter, lib1Node.State)

	lib2Node, ok := g.Node(Key(lib2))
	require.True(t, ok)
	require.Equal(t, Keep, lib2Node.State)
}

func TestResolveMissingDependencyFails(t *testing.T) {
	root := makeIp(t, "top", version.Version{Major: 1}, map[string]version.Request{"ghost": req(1)}, "top")
	cat := catalog.New(t.TempDir(), t.TempDir())

	_, err := Resolve(root, cat)
	require.Error(t, err)
	var missing *diag.MissingDependency
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "ghost", missing.Name)
}

func TestResolveCyclicDependencyFails(t *testing.T) {
	libA := makeIp(t, "lib-a", version.Version{Major: 1}, map[string]version.Request{"lib-b": req(1)}, "a_unit")
	libB := makeIp(t, "lib-b", version.Version{Major: 1}, map[string]version.Request{"lib-a": req(1)}, "b_unit")
	root := makeIp(t, "top", version.Version{Major: 1}, map[string]version.Request{"lib-a": req(1)}, "top")

	cat := catalog.New(t.TempDir(), t.TempDir())
	cat.AddInstalled(libA)
	cat.AddInstalled(libB)

	_, err := Resolve(root, cat)
	require.Error(t, err)
	var cyclic *diag.CyclicDependency
	require.True(t, errors.As(err, &cyclic))
}

func TestTransformTargetsPropagatesToTransitiveDependents(t *testing.T) {
	lib1 := makeIp(t, "lib1", version.Version{Major: 1}, nil, "util")
	lib2 := makeIp(t, "lib2", version.Version{Major: 1}, map[string]version.Request{"lib1": req(1)}, "util")
	root := makeIp(t, "top", version.Version{Major: 1}, map[string]version.Request{"lib2": req(1)}, "top")

	cat := catalog.New(t.TempDir(), t.TempDir())
	cat.AddInstalled(lib1)
	cat.AddInstalled(lib2)

	g, err := Resolve(root, cat)
	require.NoError(t, err)

	targets := TransformTargets(g)
	require.Contains(t, targets, Key(lib1))
	require.Contains(t, targets[Key(lib1)], "util")
	require.Contains(t, targets, Key(lib2))
	require.Contains(t, targets[Key(lib2)], "util")
	require.Contains(t, targets, Key(root))
	require.Contains(t, targets[Key(root)], "util")
}
