package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/nlupugla/saveload/internal/variant"
)

// Validation error codes (E200-E299)
const (
	ErrEmptyPath         = "E201" // node or property path is empty
	ErrDuplicateNode     = "E202" // two definitions share a node path
	ErrDuplicateProperty = "E203" // property address listed twice
	ErrNoPropertyPart    = "E204" // address names no property
	ErrNoScenes          = "E205" // spawner without scenes
	ErrDuplicateScene    = "E206" // scene listed twice
	ErrInvalidName       = "E207" // scene name is not a valid key prefix
)

// ValidationError represents a semantic error in a compiled document.
type ValidationError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Line    int       `json:"line,omitempty"`
	Pos     token.Pos `json:"-"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func newValidationError(code, field, msg string, pos token.Pos) ValidationError {
	e := ValidationError{Field: field, Message: msg, Code: code, Pos: pos}
	if pos.IsValid() {
		e.Line = pos.Line()
	}
	return e
}

// Validate checks a document against the node model.
// Returns all errors found (does not fail-fast).
func Validate(doc *Document) []ValidationError {
	var errs []ValidationError
	nodes := make(map[string]string)

	claim := func(path, field string, pos token.Pos) {
		key, ok := ResolvePath(".", path)
		if !ok {
			key = variant.ParseNodePath(path).String()
		}
		if prev, ok := nodes[key]; ok {
			errs = append(errs, newValidationError(ErrDuplicateNode, field,
				fmt.Sprintf("node path %q already used by %s", path, prev), pos))
			return
		}
		nodes[key] = field
	}

	for i, s := range doc.Synchronizers {
		field := fmt.Sprintf("synchronizers[%d]", i)
		if variant.ParseNodePath(s.Path).IsEmpty() {
			errs = append(errs, newValidationError(ErrEmptyPath, field+".path", "path must not be empty", s.Pos))
		} else {
			claim(s.Path, field, s.Pos)
		}

		seen := make(map[string]bool)
		for j, p := range s.Properties {
			pfield := fmt.Sprintf("%s.properties[%d]", field, j)
			addr := variant.ParseNodePath(p.Path)
			switch {
			case addr.IsEmpty():
				errs = append(errs, newValidationError(ErrEmptyPath, pfield, "property path must not be empty", p.Pos))
			case len(addr.SubNames()) == 0:
				errs = append(errs, newValidationError(ErrNoPropertyPart, pfield,
					fmt.Sprintf("%q names a node but no property; use \"%s:<property>\"", p.Path, p.Path), p.Pos))
			case seen[addr.String()]:
				errs = append(errs, newValidationError(ErrDuplicateProperty, pfield,
					fmt.Sprintf("duplicate property %q", p.Path), p.Pos))
			}
			seen[addr.String()] = true
		}
	}

	for i, s := range doc.Spawners {
		field := fmt.Sprintf("spawners[%d]", i)
		if variant.ParseNodePath(s.Path).IsEmpty() {
			errs = append(errs, newValidationError(ErrEmptyPath, field+".path", "path must not be empty", s.Pos))
		} else {
			claim(s.Path, field, s.Pos)
		}
		if len(s.Scenes) == 0 {
			errs = append(errs, newValidationError(ErrNoScenes, field+".scenes", "at least one scene is required", s.Pos))
		}
		seen := make(map[string]bool)
		for j, name := range s.Scenes {
			sfield := fmt.Sprintf("%s.scenes[%d]", field, j)
			switch {
			case name == "" || strings.ContainsAny(name, "/:@"):
				errs = append(errs, newValidationError(ErrInvalidName, sfield,
					fmt.Sprintf("invalid scene name %q", name), s.Pos))
			case seen[name]:
				errs = append(errs, newValidationError(ErrDuplicateScene, sfield,
					fmt.Sprintf("duplicate scene %q", name), s.Pos))
			}
			seen[name] = true
		}
	}

	return errs
}
