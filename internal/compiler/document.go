// Package compiler turns CUE documents into saveload node definitions.
//
// A document lists the synchronizers and spawners of a scene:
//
//	synchronizers: [{
//		path: "Player/Sync"
//		root: ".."
//		properties: [
//			{path: ".:position"},
//			{path: "Sprite:modulate", sync: false},
//		]
//	}]
//	spawners: [{path: "World/Spawner", spawn_path: "../Enemies", scenes: ["enemy"]}]
//
// Node paths are relative to the scene root. Lists are used instead of
// structs keyed by path so that labels never contain "/".
package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/variant"
)

// Document is a compiled saveload configuration.
type Document struct {
	Synchronizers []SynchronizerDef
	Spawners      []SpawnerDef
}

// SynchronizerDef describes one synchronizer node.
type SynchronizerDef struct {
	Path       string
	Root       string
	Properties []PropertyDef
	Pos        token.Pos
}

// PropertyDef is one configured property address.
type PropertyDef struct {
	Path string
	Sync bool
	Pos  token.Pos
}

// SpawnerDef describes one spawner node.
type SpawnerDef struct {
	Path      string
	SpawnPath string
	Scenes    []string
	Pos       token.Pos
}

// Config builds the selection configuration of the synchronizer.
func (d SynchronizerDef) Config() (*config.Config, error) {
	cfg := &config.Config{}
	for _, p := range d.Properties {
		path := variant.ParseNodePath(p.Path)
		if err := cfg.AddProperty(path, -1); err != nil {
			return nil, err
		}
		if err := cfg.PropertySetSync(path, p.Sync); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

const (
	defaultRoot      = ".."
	defaultSpawnPath = ".."
)

// CompileDocument parses a CUE value into a Document and validates it.
// Uses the CUE Go API directly.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`synchronizers: [...]`)
//	doc, err := CompileDocument(v)
func CompileDocument(v cue.Value) (*Document, error) {
	doc, err := decodeDocument(v)
	if err != nil {
		return nil, err
	}
	if errs := Validate(doc); len(errs) > 0 {
		first := errs[0]
		return nil, &CompileError{Field: first.Field, Message: first.Message, Pos: first.Pos}
	}
	return doc, nil
}

// decodeDocument parses v without semantic validation.
func decodeDocument(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkFields(v, "document", "synchronizers", "spawners"); err != nil {
		return nil, err
	}

	doc := &Document{}
	err := eachElem(v, "synchronizers", "synchronizers", func(item cue.Value, field string) error {
		def, err := parseSynchronizer(item, field)
		if err != nil {
			return err
		}
		doc.Synchronizers = append(doc.Synchronizers, def)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElem(v, "spawners", "spawners", func(item cue.Value, field string) error {
		def, err := parseSpawner(item, field)
		if err != nil {
			return err
		}
		doc.Spawners = append(doc.Spawners, def)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CompileString compiles CUE source text. filename is used in positions.
func CompileString(src, filename string) (*Document, error) {
	ctx := cuecontext.New()
	return CompileDocument(ctx.CompileString(src, cue.Filename(filename)))
}

// LoadDir loads the CUE package in dir and compiles it.
func LoadDir(dir string) (*Document, error) {
	v, err := loadInstance(dir)
	if err != nil {
		return nil, err
	}
	return CompileDocument(v)
}

// CheckDir loads the CUE package in dir and validates it, returning every
// validation error instead of the first. A non-nil error means the package
// could not be loaded or decoded at all.
func CheckDir(dir string) (*Document, []ValidationError, error) {
	v, err := loadInstance(dir)
	if err != nil {
		return nil, nil, err
	}
	doc, err := decodeDocument(v)
	if err != nil {
		return nil, nil, err
	}
	return doc, Validate(doc), nil
}

func loadInstance(dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}
	ctx := cuecontext.New()
	return ctx.BuildInstance(inst), nil
}

func parseSynchronizer(v cue.Value, field string) (SynchronizerDef, error) {
	def := SynchronizerDef{Pos: v.Pos()}
	if err := checkFields(v, field, "path", "root", "properties"); err != nil {
		return def, err
	}

	var err error
	if def.Path, err = stringField(v, field, "path", true, ""); err != nil {
		return def, err
	}
	if def.Root, err = stringField(v, field, "root", false, defaultRoot); err != nil {
		return def, err
	}

	err = eachElem(v, "properties", field+".properties", func(item cue.Value, pfield string) error {
		prop, err := parseProperty(item, pfield)
		if err != nil {
			return err
		}
		def.Properties = append(def.Properties, prop)
		return nil
	})
	return def, err
}

func parseProperty(v cue.Value, field string) (PropertyDef, error) {
	// A bare string is shorthand for {path: "..."}.
	if s, err := v.String(); err == nil {
		return PropertyDef{Path: s, Sync: true, Pos: v.Pos()}, nil
	}

	prop := PropertyDef{Sync: true, Pos: v.Pos()}
	if err := checkFields(v, field, "path", "sync"); err != nil {
		return prop, err
	}
	var err error
	if prop.Path, err = stringField(v, field, "path", true, ""); err != nil {
		return prop, err
	}
	if syncVal := v.LookupPath(cue.ParsePath("sync")); syncVal.Exists() {
		prop.Sync, err = syncVal.Bool()
		if err != nil {
			return prop, &CompileError{Field: field + ".sync", Message: "must be a bool", Pos: syncVal.Pos()}
		}
	}
	return prop, nil
}

func parseSpawner(v cue.Value, field string) (SpawnerDef, error) {
	def := SpawnerDef{Pos: v.Pos()}
	if err := checkFields(v, field, "path", "spawn_path", "scenes"); err != nil {
		return def, err
	}

	var err error
	if def.Path, err = stringField(v, field, "path", true, ""); err != nil {
		return def, err
	}
	if def.SpawnPath, err = stringField(v, field, "spawn_path", false, defaultSpawnPath); err != nil {
		return def, err
	}

	err = eachElem(v, "scenes", field+".scenes", func(item cue.Value, sfield string) error {
		s, err := item.String()
		if err != nil {
			return &CompileError{Field: sfield, Message: "scene name must be a string", Pos: item.Pos()}
		}
		def.Scenes = append(def.Scenes, s)
		return nil
	})
	return def, err
}

// eachElem calls fn for every element of the list named name, if present.
// field prefixes error locations.
func eachElem(v cue.Value, name, field string, fn func(item cue.Value, field string) error) error {
	list := v.LookupPath(cue.ParsePath(name))
	if !list.Exists() {
		return nil
	}
	iter, err := list.List()
	if err != nil {
		return &CompileError{Field: field, Message: "must be a list", Pos: list.Pos()}
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(iter.Value(), fmt.Sprintf("%s[%d]", field, i)); err != nil {
			return err
		}
	}
	return nil
}

func stringField(v cue.Value, field, name string, required bool, def string) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		if required {
			return "", &CompileError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
		}
		return def, nil
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Field: field + "." + name, Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

// checkFields rejects regular fields not in allowed.
func checkFields(v cue.Value, field string, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return &CompileError{Field: field, Message: "must be a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		if !slices.Contains(allowed, iter.Label()) {
			return &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
