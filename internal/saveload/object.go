package saveload

import "github.com/nlupugla/saveload/internal/variant"

// ObjectID is a process-local handle to a live object. It is never
// serialized; snapshots address objects by stable path instead.
type ObjectID uint64

// Object is anything the host can identify.
type Object interface {
	InstanceID() ObjectID
}

// Syncher captures and restores configured property values.
type Syncher interface {
	Object
	SyncherState(r *Report) SyncherState
	SetSyncherState(state SyncherState, r *Report)
}

// Spawner captures and restores the children it created at runtime.
type Spawner interface {
	Object
	SpawnerState(r *Report) SpawnerState
	LoadSpawnerState(state SpawnerState, r *Report)
}

// Host is the object model the snapshot is taken from.
type Host interface {
	// ObjectFromID resolves a handle. ok is false once the object is gone.
	ObjectFromID(id ObjectID) (obj Object, ok bool)

	// PathTo computes the stable path of obj relative to the snapshot root.
	PathTo(obj Object) (variant.NodePath, error)

	// ObjectAt resolves a stable path relative to the snapshot root.
	ObjectAt(path variant.NodePath) (obj Object, ok bool)
}

// Role selects one of the two registry sets.
type Role uint8

const (
	RoleSpawner Role = iota + 1
	RoleSyncher
)

func (r Role) String() string {
	switch r {
	case RoleSpawner:
		return "spawner"
	case RoleSyncher:
		return "syncher"
	}
	return "unknown"
}

// hasRole reports whether obj implements the capability for role.
func hasRole(obj Object, role Role) bool {
	switch role {
	case RoleSpawner:
		_, ok := obj.(Spawner)
		return ok
	case RoleSyncher:
		_, ok := obj.(Syncher)
		return ok
	}
	return false
}
