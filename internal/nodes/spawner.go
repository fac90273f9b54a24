package nodes

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/variant"
)

var (
	ErrUnknownScene  = errors.New("unknown scene")
	ErrNoSpawnTarget = errors.New("spawn target not found")
	ErrKeyTaken      = errors.New("spawn key already in use")
	ErrUnknownKey    = errors.New("no child with this spawn key")
)

// Factory builds the root node of a scene from its construction arguments.
type Factory func(args variant.Array) (scene.Noder, error)

// Library maps scene names to factories.
type Library map[string]Factory

// Names returns the scene names in sorted order.
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type spawned struct {
	entry saveload.SpawnEntry
	node  scene.Noder
}

// Spawner instantiates scenes from its Library under the node at
// SpawnPath and remembers what it created. Each child is named after its
// spawn key, so a restored child keeps the path of the original.
type Spawner struct {
	*scene.Node

	SpawnPath variant.NodePath
	Library   Library

	live []spawned
	keys Counter
}

var _ saveload.Spawner = (*Spawner)(nil)

// NewSpawner creates a spawner that spawns into its parent.
func NewSpawner(name string, lib Library) *Spawner {
	if lib == nil {
		lib = Library{}
	}
	return &Spawner{
		Node:      scene.NewNode(name),
		SpawnPath: variant.ParseNodePath(".."),
		Library:   lib,
	}
}

func (s *Spawner) InstanceID() saveload.ObjectID { return saveload.ObjectID(s.ID()) }

// Target returns the node children are spawned under.
func (s *Spawner) Target() (scene.Noder, bool) {
	return s.GetNode(s.SpawnPath)
}

// Spawn instantiates sceneName with args and adds it to the spawn target
// under key. An empty key is replaced by "<scene>_<n>", skipping names
// already used by siblings.
func (s *Spawner) Spawn(sceneName, key string, args variant.Array) (scene.Noder, error) {
	target, ok := s.Target()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSpawnTarget, s.SpawnPath)
	}
	factory, ok := s.Library[sceneName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, sceneName)
	}
	if err := variant.CheckSerializable(args); err != nil {
		return nil, fmt.Errorf("spawn args: %w", err)
	}

	parent := target.AsNode()
	key = variant.NormalizeName(key)
	if key == "" {
		key = s.nextKey(parent, sceneName)
	} else if _, taken := parent.Child(key); taken {
		return nil, fmt.Errorf("%w: %s", ErrKeyTaken, key)
	}

	if args == nil {
		args = variant.Array{}
	}
	args = slices.Clone(args)
	child, err := factory(slices.Clone(args))
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", sceneName, err)
	}
	if err := child.AsNode().SetName(key); err != nil {
		return nil, err
	}
	if err := parent.AddChild(child); err != nil {
		return nil, err
	}

	s.live = append(s.live, spawned{
		entry: saveload.SpawnEntry{Key: key, Scene: sceneName, Args: args},
		node:  child,
	})
	return child, nil
}

func (s *Spawner) nextKey(parent *scene.Node, sceneName string) string {
	for {
		key := fmt.Sprintf("%s_%d", sceneName, s.keys.Next())
		if _, taken := parent.Child(key); !taken {
			return key
		}
	}
}

// Despawn frees the child spawned under key.
func (s *Spawner) Despawn(key string) error {
	key = variant.NormalizeName(key)
	s.prune()
	i := slices.IndexFunc(s.live, func(sp spawned) bool { return sp.entry.Key == key })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	node := s.live[i].node
	s.live = slices.Delete(s.live, i, i+1)
	node.AsNode().Free()
	return nil
}

// Spawned returns the live child spawned under key.
func (s *Spawner) Spawned(key string) (scene.Noder, bool) {
	key = variant.NormalizeName(key)
	s.prune()
	for _, sp := range s.live {
		if sp.entry.Key == key {
			return sp.node, true
		}
	}
	return nil, false
}

// Keys returns the keys of the live spawned children in spawn order.
func (s *Spawner) Keys() []string {
	s.prune()
	keys := make([]string, len(s.live))
	for i, sp := range s.live {
		keys[i] = sp.entry.Key
	}
	return keys
}

// prune forgets children that were freed or detached by someone else.
func (s *Spawner) prune() {
	s.live = slices.DeleteFunc(s.live, func(sp spawned) bool {
		n := sp.node.AsNode()
		return n.IsFreed() || n.Parent() == nil
	})
}

func (s *Spawner) SpawnerState(*saveload.Report) saveload.SpawnerState {
	s.prune()
	state := make(saveload.SpawnerState, len(s.live))
	for i, sp := range s.live {
		e := sp.entry
		e.Args = slices.Clone(e.Args)
		state[i] = e
	}
	return state
}

// LoadSpawnerState makes the live children match state. Children whose key
// is absent from state are freed, missing ones are spawned, and children
// present in both are left untouched. Afterwards the spawn order follows
// state.
func (s *Spawner) LoadSpawnerState(state saveload.SpawnerState, r *saveload.Report) {
	s.prune()
	state = slices.Clone(state)
	for i := range state {
		state[i].Key = variant.NormalizeName(state[i].Key)
	}
	plan := saveload.Reconcile(s.Keys(), state)

	for _, key := range plan.Destroy {
		_ = s.Despawn(key)
	}
	for _, e := range plan.Create {
		if e.Key == "" {
			r.Add(&saveload.Error{
				Code:    saveload.ErrCodeConfig,
				Message: fmt.Sprintf("spawn entry for scene %s has no key", e.Scene),
				Path:    s.Path().String(),
			})
			continue
		}
		if _, err := s.Spawn(e.Scene, e.Key, e.Args); err != nil {
			r.Add(&saveload.Error{
				Code:    spawnErrorCode(err),
				Message: fmt.Sprintf("cannot spawn %s", e.Key),
				Path:    s.Path().String(),
				Err:     err,
			})
		}
	}

	order := make(map[string]int, len(state))
	for i, e := range state {
		if _, dup := order[e.Key]; !dup {
			order[e.Key] = i
		}
	}
	slices.SortStableFunc(s.live, func(a, b spawned) int {
		return order[a.entry.Key] - order[b.entry.Key]
	})
}

func spawnErrorCode(err error) saveload.ErrorCode {
	switch {
	case errors.Is(err, ErrNoSpawnTarget):
		return saveload.ErrCodeResolution
	case errors.Is(err, ErrUnknownScene), errors.Is(err, ErrKeyTaken), errors.Is(err, scene.ErrInvalidName):
		return saveload.ErrCodeConfig
	}
	return saveload.ErrCodeType
}
