package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a save/load scenario.
// A scenario builds a scene tree, installs synchronizers and spawners from
// a CUE configuration, then mutates, saves, loads and checks the tree step
// by step.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the initial tree. Its root becomes the tree root.
	Scene NodeTemplate `yaml:"scene"`

	// Library lists the scenes spawners may instantiate, by name.
	Library map[string]SceneDef `yaml:"library,omitempty"`

	// Config is inline CUE source in the authoring format
	// (synchronizers / spawners lists).
	Config string `yaml:"config,omitempty"`

	// ConfigFile is a CUE file in the authoring format, relative to the
	// scenario file. Mutually exclusive with Config.
	ConfigFile string `yaml:"config_file,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Node kinds of a template.
const (
	KindNode         = "node"
	KindSynchronizer = "synchronizer"
	KindSpawner      = "spawner"
)

// NodeTemplate describes a node and its subtree.
type NodeTemplate struct {
	Name string `yaml:"name"`

	// Kind is one of node (default), synchronizer or spawner.
	Kind string `yaml:"kind,omitempty"`

	// Properties are set on the node. Values use the scenario value syntax,
	// see convertToValue.
	Properties map[string]interface{} `yaml:"properties,omitempty"`

	// Sync lists the property addresses of a synchronizer.
	Sync []string `yaml:"sync,omitempty"`

	// Root is the root path of a synchronizer. Default: "..".
	Root string `yaml:"root,omitempty"`

	// SpawnPath is the spawn path of a spawner. Default: "..".
	SpawnPath string `yaml:"spawn_path,omitempty"`

	Children []NodeTemplate `yaml:"children,omitempty"`
}

// SceneDef is a spawnable scene: a template plus the names of the root
// properties the spawn arguments are assigned to, in order.
type SceneDef struct {
	NodeTemplate `yaml:",inline"`

	Args []string `yaml:"args,omitempty"`
}

// Step is one scenario step. Exactly one field is set.
type Step struct {
	Set            *SetStep       `yaml:"set,omitempty"`
	Spawn          *SpawnStep     `yaml:"spawn,omitempty"`
	Despawn        *DespawnStep   `yaml:"despawn,omitempty"`
	Free           string         `yaml:"free,omitempty"`
	Save           *SlotStep      `yaml:"save,omitempty"`
	Load           *SlotStep      `yaml:"load,omitempty"`
	Expect         *ExpectStep    `yaml:"expect,omitempty"`
	ExpectChildren *ChildrenStep  `yaml:"expect_children,omitempty"`
	ExpectWarnings map[string]int `yaml:"expect_warnings,omitempty"`
}

// SetStep assigns a property. Property may be indexed, e.g. "position:x".
type SetStep struct {
	Node     string      `yaml:"node"`
	Property string      `yaml:"property"`
	Value    interface{} `yaml:"value"`
}

// SpawnStep spawns a library scene through a spawner. An empty key lets
// the spawner pick one.
type SpawnStep struct {
	Spawner string        `yaml:"spawner"`
	Scene   string        `yaml:"scene"`
	Key     string        `yaml:"key,omitempty"`
	Args    []interface{} `yaml:"args,omitempty"`
}

// DespawnStep removes a spawned child by key.
type DespawnStep struct {
	Spawner string `yaml:"spawner"`
	Key     string `yaml:"key"`
}

// SlotStep names where a snapshot is saved to or loaded from: a save slot
// in the scenario's store or a file on its in-memory filesystem.
type SlotStep struct {
	Slot string `yaml:"slot,omitempty"`
	File string `yaml:"file,omitempty"`
}

// ExpectStep checks a property value.
type ExpectStep struct {
	Node     string      `yaml:"node"`
	Property string      `yaml:"property"`
	Value    interface{} `yaml:"value"`
}

// ChildrenStep checks the child names of a node, in order.
type ChildrenStep struct {
	Node  string   `yaml:"node"`
	Names []string `yaml:"names"`
}

// op returns the name of the step's operation.
func (s Step) op() string {
	switch {
	case s.Set != nil:
		return "set"
	case s.Spawn != nil:
		return "spawn"
	case s.Despawn != nil:
		return "despawn"
	case s.Free != "":
		return "free"
	case s.Save != nil:
		return "save"
	case s.Load != nil:
		return "load"
	case s.Expect != nil:
		return "expect"
	case s.ExpectChildren != nil:
		return "expect_children"
	case s.ExpectWarnings != nil:
		return "expect_warnings"
	}
	return ""
}

func (s Step) opCount() int {
	n := 0
	for _, set := range []bool{
		s.Set != nil, s.Spawn != nil, s.Despawn != nil, s.Free != "",
		s.Save != nil, s.Load != nil, s.Expect != nil,
		s.ExpectChildren != nil, s.ExpectWarnings != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// LoadScenario reads and parses a scenario YAML file. config_file is
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving config_file relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.ConfigFile != "" && !filepath.IsAbs(scenario.ConfigFile) && basePath != "" {
		scenario.ConfigFile = filepath.Join(basePath, scenario.ConfigFile)
	}
	if scenario.ConfigFile != "" {
		if _, err := os.Stat(scenario.ConfigFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: config file not found: %s", scenario.ConfigFile)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. config_file is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expect_child:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if err := validateTemplate("scene", &s.Scene); err != nil {
		return err
	}
	if s.Config != "" && s.ConfigFile != "" {
		return fmt.Errorf("config and config_file are mutually exclusive")
	}
	for name, def := range s.Library {
		if def.Name == "" {
			def.Name = name
			s.Library[name] = def
		}
		if err := validateTemplate("library."+name, &def.NodeTemplate); err != nil {
			return err
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	return nil
}

func validateTemplate(field string, t *NodeTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("%s: name is required", field)
	}
	switch t.Kind {
	case "", KindNode, KindSynchronizer, KindSpawner:
	default:
		return fmt.Errorf("%s: unknown kind %q", field, t.Kind)
	}
	if len(t.Sync) > 0 && t.Kind != KindSynchronizer {
		return fmt.Errorf("%s: sync is only valid on a synchronizer", field)
	}
	for i := range t.Children {
		if err := validateTemplate(fmt.Sprintf("%s.children[%d]", field, i), &t.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch s.opCount() {
	case 0:
		return fmt.Errorf("steps[%d]: no operation", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: exactly one operation per step", index)
	}

	switch {
	case s.Set != nil:
		if s.Set.Node == "" || s.Set.Property == "" {
			return fmt.Errorf("steps[%d].set: node and property are required", index)
		}
	case s.Spawn != nil:
		if s.Spawn.Spawner == "" || s.Spawn.Scene == "" {
			return fmt.Errorf("steps[%d].spawn: spawner and scene are required", index)
		}
	case s.Despawn != nil:
		if s.Despawn.Spawner == "" || s.Despawn.Key == "" {
			return fmt.Errorf("steps[%d].despawn: spawner and key are required", index)
		}
	case s.Save != nil:
		return validateSlot(index, "save", s.Save)
	case s.Load != nil:
		return validateSlot(index, "load", s.Load)
	case s.Expect != nil:
		if s.Expect.Node == "" || s.Expect.Property == "" {
			return fmt.Errorf("steps[%d].expect: node and property are required", index)
		}
	case s.ExpectChildren != nil:
		if s.ExpectChildren.Node == "" {
			return fmt.Errorf("steps[%d].expect_children: node is required", index)
		}
	case s.ExpectWarnings != nil:
		for code, n := range s.ExpectWarnings {
			if !isKnownCode(code) {
				return fmt.Errorf("steps[%d].expect_warnings: unknown code %q", index, code)
			}
			if n < 0 {
				return fmt.Errorf("steps[%d].expect_warnings: count for %s must be non-negative", index, code)
			}
		}
	}
	return nil
}

func validateSlot(index int, op string, s *SlotStep) error {
	if (s.Slot == "") == (s.File == "") {
		return fmt.Errorf("steps[%d].%s: exactly one of slot and file is required", index, op)
	}
	return nil
}
