// Package nodes provides the scene nodes that take part in saveload: a
// Synchronizer that captures configured properties, a Spawner that captures
// the children it created, and the glue that connects a scene.Tree to a
// saveload.Saveload.
package nodes

import (
	"errors"
	"fmt"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/variant"
)

// Synchronizer captures and restores the properties listed in its Config.
// Property addresses are resolved from the node at RootPath, which is
// relative to the synchronizer: "Sprite:modulate:a" reads the alpha of the
// modulate property of the root's child Sprite.
type Synchronizer struct {
	*scene.Node

	RootPath variant.NodePath
	Config   *config.Config
}

var (
	_ saveload.Syncher          = (*Synchronizer)(nil)
	_ saveload.PropertyAccessor = (*Synchronizer)(nil)
)

// NewSynchronizer creates a synchronizer rooted at its parent.
func NewSynchronizer(name string, cfg *config.Config) *Synchronizer {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Synchronizer{
		Node:     scene.NewNode(name),
		RootPath: variant.ParseNodePath(".."),
		Config:   cfg,
	}
}

func (s *Synchronizer) InstanceID() saveload.ObjectID { return saveload.ObjectID(s.ID()) }

// Root returns the node property addresses are resolved from.
func (s *Synchronizer) Root() (scene.Noder, bool) {
	return s.GetNode(s.RootPath)
}

func (s *Synchronizer) target(addr variant.NodePath) (*scene.Node, error) {
	root, ok := s.Root()
	if !ok {
		return nil, fmt.Errorf("%w: root %s", saveload.ErrNotFound, s.RootPath)
	}
	n, ok := root.AsNode().GetNode(addr.NodePart())
	if !ok {
		return nil, fmt.Errorf("%w: node %s", saveload.ErrNotFound, addr.NodePart())
	}
	return n.AsNode(), nil
}

// GetProperty reads the value at addr.
func (s *Synchronizer) GetProperty(addr variant.NodePath) (variant.Value, bool) {
	n, err := s.target(addr)
	if err != nil {
		return nil, false
	}
	return n.GetIndexed(addr)
}

// SetProperty writes v at addr. Missing nodes and members are reported with
// an error wrapping saveload.ErrNotFound.
func (s *Synchronizer) SetProperty(addr variant.NodePath, v variant.Value) error {
	n, err := s.target(addr)
	if err != nil {
		return err
	}
	if err := n.SetIndexed(addr, v); err != nil {
		if errors.Is(err, scene.ErrNotFound) {
			return fmt.Errorf("%w: %w", saveload.ErrNotFound, err)
		}
		return err
	}
	return nil
}

func (s *Synchronizer) SyncherState(r *saveload.Report) saveload.SyncherState {
	if s.Config == nil {
		return saveload.SyncherState{}
	}
	return saveload.CaptureProperties(s, s.Config, r)
}

func (s *Synchronizer) SetSyncherState(state saveload.SyncherState, r *saveload.Report) {
	saveload.RestoreProperties(s, state, r)
}
