package nodes

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/variant"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func np(s string) variant.NodePath { return variant.ParseNodePath(s) }

// bat is a spawnable scene: a node with hp taken from args[0] and a child
// Sync that captures it.
func bat(args variant.Array) (scene.Noder, error) {
	n := scene.NewNode("bat")
	hp := variant.Value(variant.Int(3))
	if len(args) > 0 {
		hp = args[0]
	}
	n.Set("hp", hp)
	cfg, err := config.New(":hp")
	if err != nil {
		return nil, err
	}
	if err := n.AddChild(NewSynchronizer("Sync", cfg)); err != nil {
		return nil, err
	}
	return n, nil
}

func brokenScene(variant.Array) (scene.Noder, error) {
	return nil, errors.New("scene failed to load")
}

func testLibrary() Library {
	return Library{"bat": bat, "broken": brokenScene}
}

// world is the scene used across tests:
//
//	root
//	  World
//	    Player      position, health, stats
//	      Sprite    modulate
//	      Sync      .:position .:health Sprite:modulate:a
//	    Enemies
//	    Spawner     -> ../Enemies
type world struct {
	tree    *scene.Tree
	root    *scene.Node
	player  *scene.Node
	sprite  *scene.Node
	enemies *scene.Node
	sync    *Synchronizer
	spawner *Spawner
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		root:    scene.NewNode("root"),
		player:  scene.NewNode("Player"),
		sprite:  scene.NewNode("Sprite"),
		enemies: scene.NewNode("Enemies"),
	}
	w.tree = scene.NewTree(w.root)

	worldNode := scene.NewNode("World")
	require.NoError(t, w.root.AddChild(worldNode))
	require.NoError(t, worldNode.AddChild(w.player))
	require.NoError(t, worldNode.AddChild(w.enemies))

	w.player.Set("position", variant.Vector2{X: 1, Y: 2})
	w.player.Set("health", variant.Int(100))
	w.player.Set("stats", variant.NewDictionary(variant.String("level"), variant.Int(1)))
	w.sprite.Set("modulate", variant.Color{R: 1, G: 1, B: 1, A: 1})
	require.NoError(t, w.player.AddChild(w.sprite))

	cfg, err := config.New(".:position", ".:health", "Sprite:modulate:a")
	require.NoError(t, err)
	w.sync = NewSynchronizer("Sync", cfg)
	require.NoError(t, w.player.AddChild(w.sync))

	w.spawner = NewSpawner("Spawner", testLibrary())
	w.spawner.SpawnPath = np("../Enemies")
	require.NoError(t, worldNode.AddChild(w.spawner))
	return w
}

func (w *world) saveload(t *testing.T, opts ...saveload.Option) *saveload.Saveload {
	t.Helper()
	opts = append([]saveload.Option{saveload.WithLogger(discardLogger())}, opts...)
	sl, detach := NewForTree(w.tree, opts...)
	t.Cleanup(detach)
	return sl
}
