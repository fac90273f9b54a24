package saveload

import (
	"fmt"

	"github.com/nlupugla/saveload/internal/variant"
)

// Field names of the structured form.
const (
	FieldSpawnStates = "spawn_states"
	FieldSyncStates  = "sync_states"
	FieldKey         = "key"
	FieldScene       = "scene"
	FieldArgs        = "args"
)

// ToStructured converts a snapshot to its structured form:
//
//	{
//	  &"spawn_states": {^"path": [{&"key": "k", &"scene": "s", &"args": [...]}, ...]},
//	  &"sync_states":  {^"path": {^"Node:prop": value, ...}},
//	}
//
// Field names are StringNames, paths are NodePaths. Paths are emitted in
// restore order so the encoding of a snapshot is deterministic.
func ToStructured(s *State) variant.Dictionary {
	spawn := variant.Dictionary{}
	for _, path := range s.SpawnerPaths() {
		entries := make(variant.Array, 0, len(s.Spawners[path]))
		for _, e := range s.Spawners[path] {
			args := e.Args
			if args == nil {
				args = variant.Array{}
			}
			entries = append(entries, variant.NewDictionary(
				variant.StringName(FieldKey), variant.String(e.Key),
				variant.StringName(FieldScene), variant.String(e.Scene),
				variant.StringName(FieldArgs), args,
			))
		}
		spawn = append(spawn, variant.DictEntry{Key: variant.ParseNodePath(path), Value: entries})
	}

	sync := variant.Dictionary{}
	for _, path := range s.SyncherPaths() {
		props := make(variant.Dictionary, 0, len(s.Synchers[path]))
		for _, pv := range s.Synchers[path] {
			v := pv.Value
			if v == nil {
				v = variant.Nil{}
			}
			props = append(props, variant.DictEntry{Key: pv.Property, Value: v})
		}
		sync = append(sync, variant.DictEntry{Key: variant.ParseNodePath(path), Value: props})
	}

	return variant.NewDictionary(
		variant.StringName(FieldSpawnStates), spawn,
		variant.StringName(FieldSyncStates), sync,
	)
}

// FromStructured rebuilds a snapshot from its structured form. Field names
// may be String or StringName and paths may be String or NodePath. A missing
// top-level field means no entries of that role. Any other shape is a
// format error.
func FromStructured(d variant.Dictionary) (*State, error) {
	s := NewState()

	if v, ok := field(d, FieldSpawnStates); ok {
		spawn, ok := v.(variant.Dictionary)
		if !ok {
			return nil, formatError(FieldSpawnStates, "", fmt.Sprintf("expected Dictionary, got %s", variant.KindOf(v)))
		}
		for _, e := range spawn {
			path, err := pathKey(e.Key, FieldSpawnStates)
			if err != nil {
				return nil, err
			}
			st, err := spawnerStateFrom(path, e.Value)
			if err != nil {
				return nil, err
			}
			s.Spawners[path] = st
		}
	}

	if v, ok := field(d, FieldSyncStates); ok {
		sync, ok := v.(variant.Dictionary)
		if !ok {
			return nil, formatError(FieldSyncStates, "", fmt.Sprintf("expected Dictionary, got %s", variant.KindOf(v)))
		}
		for _, e := range sync {
			path, err := pathKey(e.Key, FieldSyncStates)
			if err != nil {
				return nil, err
			}
			props, ok := e.Value.(variant.Dictionary)
			if !ok {
				return nil, formatError(FieldSyncStates, path, fmt.Sprintf("expected Dictionary, got %s", variant.KindOf(e.Value)))
			}
			st := make(SyncherState, 0, len(props))
			for _, pe := range props {
				prop, err := pathKey(pe.Key, FieldSyncStates)
				if err != nil {
					return nil, err
				}
				if err := variant.CheckSerializable(pe.Value); err != nil {
					return nil, &Error{Code: ErrCodeFormat, Message: "non-serializable value in snapshot", Path: path, Property: prop, Err: err}
				}
				st = append(st, PropertyValue{Property: variant.ParseNodePath(prop), Value: orNil(pe.Value)})
			}
			s.Synchers[path] = st
		}
	}
	return s, nil
}

func spawnerStateFrom(path string, v variant.Value) (SpawnerState, error) {
	entries, ok := v.(variant.Array)
	if !ok {
		return nil, formatError(FieldSpawnStates, path, fmt.Sprintf("expected Array, got %s", variant.KindOf(v)))
	}
	st := make(SpawnerState, 0, len(entries))
	for i, ev := range entries {
		ed, ok := ev.(variant.Dictionary)
		if !ok {
			return nil, formatError(FieldSpawnStates, path, fmt.Sprintf("entry %d: expected Dictionary, got %s", i, variant.KindOf(ev)))
		}
		key, ok := stringField(ed, FieldKey)
		if !ok || key == "" {
			return nil, formatError(FieldSpawnStates, path, fmt.Sprintf("entry %d: missing %s", i, FieldKey))
		}
		scene, ok := stringField(ed, FieldScene)
		if !ok {
			return nil, formatError(FieldSpawnStates, path, fmt.Sprintf("entry %d: missing %s", i, FieldScene))
		}
		args := variant.Array{}
		if av, ok := field(ed, FieldArgs); ok {
			if args, ok = av.(variant.Array); !ok {
				return nil, formatError(FieldSpawnStates, path, fmt.Sprintf("entry %d: %s must be Array", i, FieldArgs))
			}
		}
		st = append(st, SpawnEntry{Key: key, Scene: scene, Args: args})
	}
	return st, nil
}

// field looks a name up as StringName first, then as String.
func field(d variant.Dictionary, name string) (variant.Value, bool) {
	if v, ok := d.Get(variant.StringName(name)); ok {
		return v, true
	}
	return d.Get(variant.String(name))
}

func stringField(d variant.Dictionary, name string) (string, bool) {
	v, ok := field(d, name)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case variant.String:
		return string(s), true
	case variant.StringName:
		return string(s), true
	}
	return "", false
}

func pathKey(k variant.Value, section string) (string, error) {
	switch p := k.(type) {
	case variant.NodePath:
		return p.String(), nil
	case variant.String:
		return variant.ParseNodePath(string(p)).String(), nil
	case variant.StringName:
		return variant.ParseNodePath(string(p)).String(), nil
	}
	return "", formatError(section, "", fmt.Sprintf("path key must be NodePath or String, got %s", variant.KindOf(k)))
}

func orNil(v variant.Value) variant.Value {
	if v == nil {
		return variant.Nil{}
	}
	return v
}

func formatError(section, path, msg string) *Error {
	return &Error{
		Code:    ErrCodeFormat,
		Message: fmt.Sprintf("%s: %s", section, msg),
		Path:    path,
	}
}
