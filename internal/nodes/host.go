package nodes

import (
	"errors"
	"fmt"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/scene"
	"github.com/nlupugla/saveload/internal/variant"
)

var ErrForeignObject = errors.New("object is not a node of this tree")

// Host exposes a scene.Tree to saveload. Stable paths are relative to the
// tree root.
type Host struct {
	tree *scene.Tree
}

var _ saveload.Host = (*Host)(nil)

func NewHost(tree *scene.Tree) *Host {
	return &Host{tree: tree}
}

func (h *Host) Tree() *scene.Tree { return h.tree }

func (h *Host) ObjectFromID(id saveload.ObjectID) (saveload.Object, bool) {
	n, ok := h.tree.Lookup(scene.ID(id))
	if !ok {
		return nil, false
	}
	obj, ok := n.(saveload.Object)
	return obj, ok
}

func (h *Host) PathTo(obj saveload.Object) (variant.NodePath, error) {
	n, ok := obj.(scene.Noder)
	if !ok || n.AsNode().Tree() != h.tree {
		return variant.NodePath{}, fmt.Errorf("%w: %d", ErrForeignObject, obj.InstanceID())
	}
	return h.tree.Root().PathTo(n)
}

func (h *Host) ObjectAt(path variant.NodePath) (saveload.Object, bool) {
	n, ok := h.tree.Root().GetNode(path)
	if !ok {
		return nil, false
	}
	obj, ok := n.(saveload.Object)
	return obj, ok
}

// participates reports whether n plays at least one saveload role.
func participates(n scene.Noder) (saveload.Object, bool) {
	switch obj := n.(type) {
	case saveload.Spawner:
		return obj, true
	case saveload.Syncher:
		return obj, true
	}
	return nil, false
}

// Attach tracks every Spawner and Syncher node of tree in sl's registry,
// now and whenever one enters the tree, and untracks them when they exit.
// The returned function stops tracking and clears the registry.
func Attach(tree *scene.Tree, sl *saveload.Saveload) (detach func()) {
	active := true
	reg := sl.Registry()

	tree.Walk(func(n scene.Noder) {
		if obj, ok := participates(n); ok {
			_ = reg.TrackObject(obj)
		}
	})
	tree.OnEnter(func(n scene.Noder) {
		if !active {
			return
		}
		if obj, ok := participates(n); ok {
			_ = reg.TrackObject(obj)
		}
	})
	tree.OnExit(func(n scene.Noder) {
		if !active {
			return
		}
		if obj, ok := participates(n); ok {
			reg.Untrack(obj)
		}
	})

	return func() {
		active = false
		reg.Clear()
	}
}

// NewForTree creates a Saveload over tree and attaches it.
func NewForTree(tree *scene.Tree, opts ...saveload.Option) (*saveload.Saveload, func()) {
	sl := saveload.New(NewHost(tree), opts...)
	return sl, Attach(tree, sl)
}
