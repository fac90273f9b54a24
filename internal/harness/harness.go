package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/nlupugla/saveload/internal/compiler"
	"github.com/nlupugla/saveload/internal/nodes"
	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/store"
	"github.com/nlupugla/saveload/internal/testutil"
	"github.com/nlupugla/saveload/internal/variant"
)

// Harness is the scenario execution engine.
// It runs scenarios against a fresh tree, store and filesystem with a
// deterministic clock, so traces are reproducible.
type Harness struct {
	tree   *scene.Tree
	sl     *saveload.Saveload
	store  *store.Store
	fs     billy.Filesystem
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	// last is the report of the most recent save or load.
	last *saveload.Report
	// saved is set once a save or load has run.
	saved bool
}

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes engine and harness logs to l. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database and filesystem for
// isolation. Setup failures (scene, library or configuration) are returned
// as errors; step failures and mismatched expectations are recorded in the
// result.
//
// Execution flow:
// 1. Build the scene tree and library
// 2. Compile and install the CUE configuration
// 3. Attach a Saveload to the tree
// 4. Execute steps in order
// 5. Build a final snapshot into Result.State
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequenceGenerator("snap")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	lib := buildLibrary(scenario.Library)
	root, err := scenario.Scene.build(lib)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	tree := scene.NewTree(root)

	doc, err := loadConfig(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if doc != nil {
		if err := nodes.Install(tree, doc, lib); err != nil {
			return nil, fmt.Errorf("failed to install config: %w", err)
		}
	}

	fs := memfs.New()
	sl, detach := nodes.NewForTree(tree,
		saveload.WithLogger(o.logger),
		saveload.WithFilesystem(fs),
	)
	defer detach()

	h := &Harness{
		tree:   tree,
		sl:     sl,
		store:  st,
		fs:     fs,
		clock:  testutil.NewDeterministicClock(),
		logger: o.logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step, result); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.op(), err))
		}
	}

	state, _ := sl.Build()
	result.State = saveload.ToStructured(state)
	return result, nil
}

// loadConfig compiles the scenario's CUE configuration, if any.
func loadConfig(s *Scenario) (*compiler.Document, error) {
	switch {
	case s.Config != "":
		return compiler.CompileString(s.Config, s.Name+".cue")
	case s.ConfigFile != "":
		src, err := os.ReadFile(s.ConfigFile)
		if err != nil {
			return nil, err
		}
		return compiler.CompileString(string(src), s.ConfigFile)
	}
	return nil, nil
}

// executeStep runs one step. A returned error is a step failure; mismatched
// expectations are added to result directly.
func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) error {
	switch {
	case step.Set != nil:
		return h.set(step.Set, result)
	case step.Spawn != nil:
		return h.spawn(step.Spawn, result)
	case step.Despawn != nil:
		return h.despawn(step.Despawn, result)
	case step.Free != "":
		return h.free(step.Free, result)
	case step.Save != nil:
		return h.save(ctx, step.Save, result)
	case step.Load != nil:
		return h.load(ctx, step.Load, result)
	case step.Expect != nil:
		return h.expect(step.Expect, result)
	case step.ExpectChildren != nil:
		return h.expectChildren(step.ExpectChildren, result)
	case step.ExpectWarnings != nil:
		return h.expectWarnings(step.ExpectWarnings, result)
	}
	return fmt.Errorf("no operation")
}

// node resolves a path relative to the tree root.
func (h *Harness) node(path string) (*scene.Node, error) {
	n, ok := h.tree.Root().GetNode(variant.ParseNodePath(path))
	if !ok {
		return nil, fmt.Errorf("%w: %s", scene.ErrNotFound, path)
	}
	return n.AsNode(), nil
}

func (h *Harness) spawner(path string) (*nodes.Spawner, error) {
	n, err := h.node(path)
	if err != nil {
		return nil, err
	}
	s, ok := n.Self().(*nodes.Spawner)
	if !ok {
		return nil, fmt.Errorf("%s is not a spawner", path)
	}
	return s, nil
}

// pathOf returns the root-relative path of n.
func (h *Harness) pathOf(n scene.Noder) string {
	p, err := h.tree.Root().PathTo(n)
	if err != nil {
		return n.AsNode().Name()
	}
	return p.String()
}

// propertyPath turns "health" or "position:x" into a property address.
func propertyPath(property string) variant.NodePath {
	return variant.ParseNodePath(":" + property)
}

func (h *Harness) set(s *SetStep, result *Result) error {
	n, err := h.node(s.Node)
	if err != nil {
		return err
	}
	v, err := convertToValue(s.Value)
	if err != nil {
		return err
	}
	if strings.Contains(s.Property, ":") {
		if err := n.SetIndexed(propertyPath(s.Property), v); err != nil {
			return err
		}
	} else {
		n.Set(s.Property, v)
	}

	result.AddTrace(h.clock.Next(), "set", s.Node+":"+s.Property, nil)
	h.logger.Info("step set", "node", s.Node, "property", s.Property)
	return nil
}

func (h *Harness) spawn(s *SpawnStep, result *Result) error {
	sp, err := h.spawner(s.Spawner)
	if err != nil {
		return err
	}
	var args variant.Array
	if s.Args != nil {
		if args, err = convertArray(s.Args); err != nil {
			return err
		}
	}
	child, err := sp.Spawn(s.Scene, s.Key, args)
	if err != nil {
		return err
	}

	target := h.pathOf(child)
	result.AddTrace(h.clock.Next(), "spawn", target, nil)
	h.logger.Info("step spawn", "spawner", s.Spawner, "scene", s.Scene, "node", target)
	return nil
}

func (h *Harness) despawn(s *DespawnStep, result *Result) error {
	sp, err := h.spawner(s.Spawner)
	if err != nil {
		return err
	}
	target := s.Spawner + ":" + s.Key
	if child, ok := sp.Spawned(s.Key); ok {
		target = h.pathOf(child)
	}
	if err := sp.Despawn(s.Key); err != nil {
		return err
	}

	result.AddTrace(h.clock.Next(), "despawn", target, nil)
	h.logger.Info("step despawn", "spawner", s.Spawner, "key", s.Key)
	return nil
}

func (h *Harness) free(path string, result *Result) error {
	n, err := h.node(path)
	if err != nil {
		return err
	}
	if n == h.tree.Root() {
		return fmt.Errorf("cannot free the tree root")
	}
	n.Free()

	result.AddTrace(h.clock.Next(), "free", path, nil)
	h.logger.Info("step free", "node", path)
	return nil
}

func slotTarget(s *SlotStep) string {
	if s.Slot != "" {
		return "slot:" + s.Slot
	}
	return "file:" + s.File
}

func (h *Harness) save(ctx context.Context, s *SlotStep, result *Result) error {
	var (
		r   *saveload.Report
		err error
	)
	if s.Slot != "" {
		r, err = h.sl.SaveTo(ctx, h.store, s.Slot, nil)
	} else {
		r, err = h.sl.Save(s.File, nil)
	}
	h.record(r)
	if err != nil {
		return err
	}

	result.AddTrace(h.clock.Next(), "save", slotTarget(s), warningCodes(r))
	return nil
}

func (h *Harness) load(ctx context.Context, s *SlotStep, result *Result) error {
	var (
		r   *saveload.Report
		err error
	)
	if s.Slot != "" {
		r, err = h.sl.LoadFrom(ctx, h.store, s.Slot, nil)
	} else {
		r, err = h.sl.Load(s.File, nil)
	}
	h.record(r)
	if err != nil {
		return err
	}

	result.AddTrace(h.clock.Next(), "load", slotTarget(s), warningCodes(r))
	return nil
}

func (h *Harness) record(r *saveload.Report) {
	h.last = r
	h.saved = true
}

func warningCodes(r *saveload.Report) []string {
	var codes []string
	for _, w := range r.Warnings() {
		codes = append(codes, string(w.Code))
	}
	return codes
}
