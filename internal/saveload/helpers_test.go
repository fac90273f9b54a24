package saveload

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/variant"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeHost struct {
	objects map[ObjectID]Object
	paths   map[ObjectID]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		objects: make(map[ObjectID]Object),
		paths:   make(map[ObjectID]string),
	}
}

func (h *fakeHost) add(obj Object, path string) {
	h.objects[obj.InstanceID()] = obj
	h.paths[obj.InstanceID()] = path
}

func (h *fakeHost) remove(id ObjectID) {
	delete(h.objects, id)
	delete(h.paths, id)
}

func (h *fakeHost) ObjectFromID(id ObjectID) (Object, bool) {
	obj, ok := h.objects[id]
	return obj, ok
}

func (h *fakeHost) PathTo(obj Object) (variant.NodePath, error) {
	p, ok := h.paths[obj.InstanceID()]
	if !ok {
		return variant.NodePath{}, fmt.Errorf("object %d not in tree", obj.InstanceID())
	}
	return variant.ParseNodePath(p), nil
}

func (h *fakeHost) ObjectAt(path variant.NodePath) (Object, bool) {
	for id, p := range h.paths {
		if p == path.String() {
			return h.objects[id], true
		}
	}
	return nil, false
}

type plainObject struct{ id ObjectID }

func (o *plainObject) InstanceID() ObjectID { return o.id }

// fakeSyncher stores properties in a flat map keyed by address.
type fakeSyncher struct {
	id       ObjectID
	cfg      *config.Config
	props    map[string]variant.Value
	readonly map[string]bool
	events   *[]string
	name     string
}

func newFakeSyncher(id ObjectID, props ...string) *fakeSyncher {
	cfg, err := config.New(props...)
	if err != nil {
		panic(err)
	}
	return &fakeSyncher{
		id:       id,
		cfg:      cfg,
		props:    make(map[string]variant.Value),
		readonly: make(map[string]bool),
	}
}

func (f *fakeSyncher) InstanceID() ObjectID { return f.id }

func (f *fakeSyncher) GetProperty(addr variant.NodePath) (variant.Value, bool) {
	v, ok := f.props[addr.String()]
	return v, ok
}

func (f *fakeSyncher) SetProperty(addr variant.NodePath, v variant.Value) error {
	key := addr.String()
	if _, ok := f.props[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if f.readonly[key] {
		return fmt.Errorf("%s is read-only", key)
	}
	f.props[key] = v
	return nil
}

func (f *fakeSyncher) SyncherState(r *Report) SyncherState {
	return CaptureProperties(f, f.cfg, r)
}

func (f *fakeSyncher) SetSyncherState(s SyncherState, r *Report) {
	if f.events != nil {
		*f.events = append(*f.events, "sync "+f.name)
	}
	RestoreProperties(f, s, r)
}

// fakeSpawner keeps its live children as spawn entries.
type fakeSpawner struct {
	id      ObjectID
	live    SpawnerState
	created []string
	freed   []string
	events  *[]string
	name    string
}

func (f *fakeSpawner) InstanceID() ObjectID { return f.id }

func (f *fakeSpawner) SpawnerState(*Report) SpawnerState {
	return slices.Clone(f.live)
}

func (f *fakeSpawner) LoadSpawnerState(target SpawnerState, _ *Report) {
	if f.events != nil {
		*f.events = append(*f.events, "spawn "+f.name)
	}
	plan := Reconcile(f.live.Keys(), target)
	for _, k := range plan.Destroy {
		f.freed = append(f.freed, k)
		f.live = slices.DeleteFunc(f.live, func(e SpawnEntry) bool { return e.Key == k })
	}
	for _, e := range plan.Create {
		f.created = append(f.created, e.Key)
		f.live = append(f.live, e)
	}
}

// dualObject plays both roles.
type dualObject struct {
	*fakeSyncher
	spawner *fakeSpawner
}

func (d *dualObject) SpawnerState(r *Report) SpawnerState { return d.spawner.SpawnerState(r) }
func (d *dualObject) LoadSpawnerState(s SpawnerState, r *Report) {
	d.spawner.LoadSpawnerState(s, r)
}
