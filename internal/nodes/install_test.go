package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlupugla/saveload/internal/compiler"
	"github.com/nlupugla/saveload/internal/scene"
)

func TestInstallCreatesNodes(t *testing.T) {
	w := newWorld(t)
	doc, err := compiler.CompileString(`
synchronizers: [{
	path: "World/Enemies/Sync"
	root: "."
	properties: [":count"]
}]
spawners: [{
	path: "World/Enemies/Spawner"
	scenes: ["bat"]
}]
`, "install.cue")
	require.NoError(t, err)

	require.NoError(t, Install(w.tree, doc, testLibrary()))

	n, ok := w.enemies.Child("Sync")
	require.True(t, ok)
	s := n.(*Synchronizer)
	assert.Equal(t, ".", s.RootPath.String())
	assert.Equal(t, 1, s.Config.Len())

	n, ok = w.enemies.Child("Spawner")
	require.True(t, ok)
	sp := n.(*Spawner)
	assert.Equal(t, []string{"bat"}, sp.Library.Names())

	child, err := sp.Spawn("bat", "", nil)
	require.NoError(t, err)
	assert.Same(t, w.enemies, child.AsNode().Parent())
}

func TestInstallReconfiguresExisting(t *testing.T) {
	w := newWorld(t)
	doc := &compiler.Document{
		Synchronizers: []compiler.SynchronizerDef{{
			Path: "World/Player/Sync", Root: "..",
			Properties: []compiler.PropertyDef{{Path: ":health", Sync: true}},
		}},
	}

	require.NoError(t, Install(w.tree, doc, nil))
	assert.Equal(t, 1, w.sync.Config.Len())
	n, _ := w.player.Child("Sync")
	assert.Same(t, w.sync, n)
}

func TestInstallErrors(t *testing.T) {
	w := newWorld(t)
	doc := &compiler.Document{
		Synchronizers: []compiler.SynchronizerDef{
			{Path: "World/Player", Root: ".."},
			{Path: "Nowhere/Sync", Root: ".."},
		},
		Spawners: []compiler.SpawnerDef{
			{Path: "World/Other", SpawnPath: "..", Scenes: []string{"dragon"}},
		},
	}

	err := Install(w.tree, doc, testLibrary())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrongNodeType)
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.ErrorIs(t, err, ErrUnknownScene)
	assert.Contains(t, err.Error(), "synchronizers[1] Nowhere/Sync")
}
