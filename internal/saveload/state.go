package saveload

import (
	"slices"

	"github.com/nlupugla/saveload/internal/variant"
)

// PropertyValue is one captured property.
type PropertyValue struct {
	Property variant.NodePath
	Value    variant.Value
}

// SyncherState is the captured state of one syncher: one entry per enabled
// property, in configuration order. A property that could not be resolved
// at capture time holds variant.Nil.
type SyncherState []PropertyValue

// Get returns the value captured for property.
func (s SyncherState) Get(property variant.NodePath) (variant.Value, bool) {
	for _, pv := range s {
		if pv.Property.Equal(property) {
			return pv.Value, true
		}
	}
	return nil, false
}

// Equal reports whether both states hold the same properties and values in
// the same order.
func (s SyncherState) Equal(o SyncherState) bool {
	return slices.EqualFunc(s, o, func(a, b PropertyValue) bool {
		return a.Property.Equal(b.Property) && variant.Equal(a.Value, b.Value)
	})
}

// SpawnEntry records one runtime-spawned child.
type SpawnEntry struct {
	// Key identifies the child among its siblings. It is also the child's
	// node name, so it stays stable across save and load.
	Key string

	// Scene names the entry of the spawner's scene library the child was
	// created from.
	Scene string

	// Args are the construction arguments passed to the scene factory.
	Args variant.Array
}

func (e SpawnEntry) Equal(o SpawnEntry) bool {
	return e.Key == o.Key && e.Scene == o.Scene && variant.Equal(e.Args, o.Args)
}

// SpawnerState is the captured state of one spawner, in spawn order.
type SpawnerState []SpawnEntry

// Keys returns the spawn keys in order.
func (s SpawnerState) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Key
	}
	return keys
}

func (s SpawnerState) Equal(o SpawnerState) bool {
	return slices.EqualFunc(s, o, SpawnEntry.Equal)
}

// State is a composite snapshot: the state of every tracked object keyed by
// stable path. A path may appear in both maps only when the object there
// plays both roles.
type State struct {
	Spawners map[string]SpawnerState
	Synchers map[string]SyncherState
}

// NewState returns an empty snapshot.
func NewState() *State {
	return &State{
		Spawners: make(map[string]SpawnerState),
		Synchers: make(map[string]SyncherState),
	}
}

// SpawnerPaths returns the spawner paths in restore order.
func (s *State) SpawnerPaths() []string { return restoreOrder(s.Spawners) }

// SyncherPaths returns the syncher paths in restore order.
func (s *State) SyncherPaths() []string { return restoreOrder(s.Synchers) }

// Equal compares two snapshots path by path.
func (s *State) Equal(o *State) bool {
	if len(s.Spawners) != len(o.Spawners) || len(s.Synchers) != len(o.Synchers) {
		return false
	}
	for p, st := range s.Spawners {
		ot, ok := o.Spawners[p]
		if !ok || !st.Equal(ot) {
			return false
		}
	}
	for p, st := range s.Synchers {
		ot, ok := o.Synchers[p]
		if !ok || !st.Equal(ot) {
			return false
		}
	}
	return true
}

// restoreOrder sorts paths parent first: by depth, then by UTF-16 order.
func restoreOrder[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.SortFunc(paths, func(a, b string) int {
		da := variant.ParseNodePath(a).Depth()
		db := variant.ParseNodePath(b).Depth()
		if da != db {
			return da - db
		}
		return variant.ComparePaths(a, b)
	})
	return paths
}
