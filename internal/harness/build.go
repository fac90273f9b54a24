package harness

import (
	"fmt"
	"sort"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/nodes"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/variant"
)

// build instantiates the template. Spawners in the subtree spawn from lib.
func (t NodeTemplate) build(lib nodes.Library) (scene.Noder, error) {
	var n scene.Noder
	switch t.Kind {
	case KindSynchronizer:
		cfg, err := config.New(t.Sync...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		s := nodes.NewSynchronizer(t.Name, cfg)
		if t.Root != "" {
			s.RootPath = variant.ParseNodePath(t.Root)
		}
		n = s
	case KindSpawner:
		s := nodes.NewSpawner(t.Name, lib)
		if t.SpawnPath != "" {
			s.SpawnPath = variant.ParseNodePath(t.SpawnPath)
		}
		n = s
	default:
		n = scene.NewNode(t.Name)
	}

	// Sorted so node construction does not depend on map order.
	names := make([]string, 0, len(t.Properties))
	for name := range t.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := convertToValue(t.Properties[name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, name, err)
		}
		n.AsNode().Set(name, v)
	}

	for _, ct := range t.Children {
		child, err := ct.build(lib)
		if err != nil {
			return nil, err
		}
		if err := n.AsNode().AddChild(child); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return n, nil
}

// factory returns a scene factory that builds the template and assigns the
// spawn arguments to the properties named by Args. Extra arguments are
// kept in the spawn entry but not assigned.
func (d SceneDef) factory(lib nodes.Library) nodes.Factory {
	return func(args variant.Array) (scene.Noder, error) {
		n, err := d.NodeTemplate.build(lib)
		if err != nil {
			return nil, err
		}
		for i, prop := range d.Args {
			if i >= len(args) {
				break
			}
			n.AsNode().Set(prop, args[i])
		}
		return n, nil
	}
}

// buildLibrary turns scene definitions into a spawner library. Scenes may
// themselves contain spawners that use the same library.
func buildLibrary(defs map[string]SceneDef) nodes.Library {
	lib := nodes.Library{}
	for name, def := range defs {
		lib[name] = def.factory(lib)
	}
	return lib
}
