package nodes

import (
	"errors"
	"fmt"

	"github.com/nlupugla/saveload/internal/compiler"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/variant"
)

var ErrWrongNodeType = errors.New("node exists with a different type")

// Install creates the synchronizers and spawners described by doc. Paths
// are relative to the tree root and every parent must already exist. A node
// of the right type already at a path is reconfigured in place. Spawners
// get the scenes they list from lib.
//
// Install keeps going after a failed definition and returns every failure
// joined.
func Install(tree *scene.Tree, doc *compiler.Document, lib Library) error {
	var errs []error
	for i, def := range doc.Synchronizers {
		if err := installSynchronizer(tree, def); err != nil {
			errs = append(errs, fmt.Errorf("synchronizers[%d] %s: %w", i, def.Path, err))
		}
	}
	for i, def := range doc.Spawners {
		if err := installSpawner(tree, def, lib); err != nil {
			errs = append(errs, fmt.Errorf("spawners[%d] %s: %w", i, def.Path, err))
		}
	}
	return errors.Join(errs...)
}

func installSynchronizer(tree *scene.Tree, def compiler.SynchronizerDef) error {
	cfg, err := def.Config()
	if err != nil {
		return err
	}
	parent, name, err := splitParent(tree, def.Path)
	if err != nil {
		return err
	}

	if existing, ok := parent.Child(name); ok {
		s, ok := existing.(*Synchronizer)
		if !ok {
			return fmt.Errorf("%w: %T", ErrWrongNodeType, existing)
		}
		s.Config = cfg
		s.RootPath = variant.ParseNodePath(def.Root)
		return nil
	}

	s := NewSynchronizer(name, cfg)
	s.RootPath = variant.ParseNodePath(def.Root)
	return parent.AddChild(s)
}

func installSpawner(tree *scene.Tree, def compiler.SpawnerDef, lib Library) error {
	scenes := make(Library, len(def.Scenes))
	for _, name := range def.Scenes {
		f, ok := lib[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownScene, name)
		}
		scenes[name] = f
	}
	parent, name, err := splitParent(tree, def.Path)
	if err != nil {
		return err
	}

	if existing, ok := parent.Child(name); ok {
		s, ok := existing.(*Spawner)
		if !ok {
			return fmt.Errorf("%w: %T", ErrWrongNodeType, existing)
		}
		s.Library = scenes
		s.SpawnPath = variant.ParseNodePath(def.SpawnPath)
		return nil
	}

	s := NewSpawner(name, scenes)
	s.SpawnPath = variant.ParseNodePath(def.SpawnPath)
	return parent.AddChild(s)
}

// splitParent resolves the parent of path and returns it with the last
// name.
func splitParent(tree *scene.Tree, path string) (*scene.Node, string, error) {
	p := variant.ParseNodePath(path)
	names := p.Names()
	if len(names) == 0 {
		return nil, "", fmt.Errorf("%w: empty path", scene.ErrInvalidName)
	}
	parentPath := variant.NewNodePath(names[:len(names)-1], nil, p.IsAbsolute())
	parent, ok := tree.Root().GetNode(parentPath)
	if !ok {
		return nil, "", fmt.Errorf("%w: parent %s", scene.ErrNotFound, parentPath)
	}
	return parent.AsNode(), names[len(names)-1], nil
}
