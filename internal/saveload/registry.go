package saveload

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrNotTrackable is returned when an object lacks the capability of the
// role it is tracked under.
var ErrNotTrackable = errors.New("object does not implement the role")

// LookupFunc resolves a handle to a live object.
type LookupFunc func(ObjectID) (Object, bool)

// Registry records which objects take part in saveload. It keeps two
// independent sets of handles, one per role. An object may be in both.
//
// Registry is not safe for concurrent use.
type Registry struct {
	lookup   LookupFunc
	logger   *slog.Logger
	spawners map[ObjectID]struct{}
	synchers map[ObjectID]struct{}
}

// NewRegistry creates an empty registry resolving handles through lookup.
func NewRegistry(lookup LookupFunc, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		lookup:   lookup,
		logger:   logger,
		spawners: make(map[ObjectID]struct{}),
		synchers: make(map[ObjectID]struct{}),
	}
}

func (g *Registry) set(role Role) map[ObjectID]struct{} {
	switch role {
	case RoleSpawner:
		return g.spawners
	case RoleSyncher:
		return g.synchers
	}
	return nil
}

// Track adds obj to the set for role. Tracking an already tracked object is
// a no-op. An object without the role's capability is not tracked; the
// failure is logged and returned.
func (g *Registry) Track(obj Object, role Role) error {
	if obj == nil {
		return g.rejectNil(role.String())
	}
	set := g.set(role)
	if set == nil || !hasRole(obj, role) {
		err := fmt.Errorf("%w: %T as %s", ErrNotTrackable, obj, role)
		g.logger.Warn("track rejected", "object", obj.InstanceID(), "role", role.String(), "error", err)
		return err
	}
	set[obj.InstanceID()] = struct{}{}
	return nil
}

// TrackObject tracks obj under every role it implements. It fails only when
// obj implements neither.
func (g *Registry) TrackObject(obj Object) error {
	if obj == nil {
		return g.rejectNil("any")
	}
	tracked := false
	for _, role := range []Role{RoleSpawner, RoleSyncher} {
		if hasRole(obj, role) {
			g.set(role)[obj.InstanceID()] = struct{}{}
			tracked = true
		}
	}
	if !tracked {
		err := fmt.Errorf("%w: %T implements neither role", ErrNotTrackable, obj)
		g.logger.Warn("track rejected", "object", obj.InstanceID(), "error", err)
		return err
	}
	return nil
}

func (g *Registry) rejectNil(role string) error {
	err := fmt.Errorf("%w: nil object", ErrNotTrackable)
	g.logger.Warn("track rejected", "role", role, "error", err)
	return err
}

// Untrack removes obj from both sets. A nil obj is ignored.
func (g *Registry) Untrack(obj Object) {
	if obj == nil {
		return
	}
	g.UntrackID(obj.InstanceID())
}

// UntrackID removes a handle from both sets. Useful once the object is gone.
func (g *Registry) UntrackID(id ObjectID) {
	delete(g.spawners, id)
	delete(g.synchers, id)
}

// IsTracked reports whether id is in the set for role.
func (g *Registry) IsTracked(id ObjectID, role Role) bool {
	_, ok := g.set(role)[id]
	return ok
}

// Tracked returns the handles tracked under role in ascending order,
// including handles whose object is gone.
func (g *Registry) Tracked(role Role) []ObjectID {
	set := g.set(role)
	ids := make([]ObjectID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (g *Registry) Len(role Role) int { return len(g.set(role)) }

// Clear empties both sets.
func (g *Registry) Clear() {
	clear(g.spawners)
	clear(g.synchers)
}

// resolve returns the live objects tracked under role, in handle order.
// Stale handles and objects that no longer have the capability are skipped
// with a resolution warning.
func (g *Registry) resolve(role Role, r *Report) []Object {
	var out []Object
	for _, id := range g.Tracked(role) {
		obj, ok := g.lookup(id)
		if !ok || obj == nil {
			r.Add(&Error{
				Code:    ErrCodeResolution,
				Message: fmt.Sprintf("tracked %s %d is no longer alive", role, id),
			})
			continue
		}
		if !hasRole(obj, role) {
			r.Add(&Error{
				Code:    ErrCodeConfig,
				Message: fmt.Sprintf("tracked object %d no longer implements %s", id, role),
			})
			continue
		}
		out = append(out, obj)
	}
	return out
}

// Spawners returns the live tracked spawners.
func (g *Registry) Spawners(r *Report) []Spawner {
	objs := g.resolve(RoleSpawner, r)
	out := make([]Spawner, len(objs))
	for i, obj := range objs {
		out[i] = obj.(Spawner)
	}
	return out
}

// Synchers returns the live tracked synchers.
func (g *Registry) Synchers(r *Report) []Syncher {
	objs := g.resolve(RoleSyncher, r)
	out := make([]Syncher, len(objs))
	for i, obj := range objs {
		out[i] = obj.(Syncher)
	}
	return out
}
