package scene

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/nlupugla/saveload/internal/variant"
)

var (
	ErrNameConflict = errors.New("sibling with this name already exists")
	ErrInvalidName  = errors.New("invalid node name")
	ErrHasParent    = errors.New("node already has a parent")
	ErrNotChild     = errors.New("node is not a child")
	ErrNotInTree    = errors.New("nodes are not in the same tree")
	ErrNotFound     = errors.New("not found")
	ErrFreed        = errors.New("node has been freed")
	ErrCycle        = errors.New("node cannot be its own descendant")
)

// ID is a process-local object id. Ids are never reused.
type ID uint64

var lastID atomic.Uint64

// Noder is implemented by every node type. Types embedding *Node get it for
// free.
type Noder interface {
	AsNode() *Node
}

// Node is one element of a scene tree.
type Node struct {
	name     string
	id       ID
	self     Noder
	parent   *Node
	children []Noder
	tree     *Tree
	props    map[string]variant.Value
	freed    bool
}

// NewNode creates a detached node. An empty name is replaced by a generated
// one when the node is added to a parent. Names and property names are kept
// in NFC form so they match the segments of parsed paths.
func NewNode(name string) *Node {
	n := &Node{
		name:  variant.NormalizeName(name),
		id:    ID(lastID.Add(1)),
		props: make(map[string]variant.Value),
	}
	n.self = n
	return n
}

func (n *Node) AsNode() *Node { return n }

// Self returns the outermost value this node was attached as.
func (n *Node) Self() Noder { return n.self }

func (n *Node) ID() ID       { return n.id }
func (n *Node) Name() string { return n.name }
func (n *Node) Parent() *Node {
	return n.parent
}

// Tree returns the tree the node is in, or nil when detached.
func (n *Node) Tree() *Tree     { return n.tree }
func (n *Node) IsInTree() bool  { return n.tree != nil }
func (n *Node) IsFreed() bool   { return n.freed }
func (n *Node) ChildCount() int { return len(n.children) }

// Children returns the children in order.
func (n *Node) Children() []Noder { return slices.Clone(n.children) }

// Child returns the child with the given name.
func (n *Node) Child(name string) (Noder, bool) {
	name = variant.NormalizeName(name)
	for _, c := range n.children {
		if c.AsNode().name == name {
			return c, true
		}
	}
	return nil, false
}

func validName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, "/:")
}

// SetName renames a node. It fails if a sibling already uses name.
func (n *Node) SetName(name string) error {
	name = variant.NormalizeName(name)
	if name == "" || !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if n.parent != nil {
		if c, ok := n.parent.Child(name); ok && c.AsNode() != n {
			return fmt.Errorf("%w: %s", ErrNameConflict, name)
		}
	}
	n.name = name
	return nil
}

// AddChild appends child. The child's name must be unique among its new
// siblings; an empty name is replaced by "@<type>@<id>". If n is in a tree,
// the child's subtree enters it.
func (n *Node) AddChild(child Noder) error {
	c := child.AsNode()
	switch {
	case n.freed || c.freed:
		return ErrFreed
	case c.parent != nil:
		return fmt.Errorf("%w: %s", ErrHasParent, c.name)
	case c == n || c.isAncestorOf(n):
		return fmt.Errorf("%w: %s", ErrCycle, c.name)
	}
	if c.name == "" {
		c.name = fmt.Sprintf("@%s@%d", typeName(child), c.id)
	}
	if !validName(c.name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.name)
	}
	if _, taken := n.Child(c.name); taken {
		return fmt.Errorf("%w: %s", ErrNameConflict, c.name)
	}

	c.self = child
	c.parent = n
	n.children = append(n.children, child)
	if n.tree != nil {
		n.tree.enter(child)
	}
	return nil
}

// RemoveChild detaches child. If n is in a tree, the child's subtree exits
// it. The child stays alive and can be added elsewhere.
func (n *Node) RemoveChild(child Noder) error {
	c := child.AsNode()
	i := slices.IndexFunc(n.children, func(x Noder) bool { return x.AsNode() == c })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotChild, c.name)
	}
	if n.tree != nil {
		n.tree.exit(child)
	}
	n.children = slices.Delete(n.children, i, i+1)
	c.parent = nil
	return nil
}

// Free detaches the node and marks its subtree freed. Freed nodes can no
// longer be resolved by id.
func (n *Node) Free() {
	if n.freed {
		return
	}
	if n.parent != nil {
		_ = n.parent.RemoveChild(n.self)
	}
	n.walk(func(x Noder) { x.AsNode().freed = true })
}

// walk visits the subtree rooted at n in pre-order.
func (n *Node) walk(fn func(Noder)) {
	fn(n.self)
	for _, c := range slices.Clone(n.children) {
		c.AsNode().walk(fn)
	}
}

func (n *Node) isAncestorOf(o *Node) bool {
	for p := o.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func typeName(n Noder) string {
	s := fmt.Sprintf("%T", n)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// GetNode resolves a path relative to n. Absolute paths start at the tree
// root, whose name must match the first segment. Subnames are ignored.
func (n *Node) GetNode(path variant.NodePath) (Noder, bool) {
	names := path.Names()
	cur := n
	if path.IsAbsolute() {
		if n.tree == nil {
			return nil, false
		}
		root := n.tree.Root()
		if len(names) == 0 || names[0] != root.name {
			return nil, false
		}
		cur, names = root, names[1:]
	}
	for _, name := range names {
		switch name {
		case ".":
		case "..":
			if cur.parent == nil {
				return nil, false
			}
			cur = cur.parent
		default:
			c, ok := cur.Child(name)
			if !ok {
				return nil, false
			}
			cur = c.AsNode()
		}
	}
	return cur.self, true
}

// Path returns the absolute path of n, e.g. "/root/World/Player".
func (n *Node) Path() variant.NodePath {
	var names []string
	for x := n; x != nil; x = x.parent {
		names = append(names, x.name)
	}
	slices.Reverse(names)
	return variant.NewNodePath(names, nil, true)
}

// PathTo returns the relative path from n to target, e.g. "../Enemies/Bat".
// The path of n to itself is ".".
func (n *Node) PathTo(target Noder) (variant.NodePath, error) {
	t := target.AsNode()
	if n == t {
		return variant.ParseNodePath("."), nil
	}

	depth := map[*Node]int{}
	d := 0
	for x := n; x != nil; x = x.parent {
		depth[x] = d
		d++
	}

	var down []string
	x := t
	for ; x != nil; x = x.parent {
		if _, ok := depth[x]; ok {
			break
		}
		down = append(down, x.name)
	}
	if x == nil {
		return variant.NodePath{}, fmt.Errorf("%w: %s and %s", ErrNotInTree, n.name, t.name)
	}

	names := make([]string, 0, depth[x]+len(down))
	for i := 0; i < depth[x]; i++ {
		names = append(names, "..")
	}
	slices.Reverse(down)
	names = append(names, down...)
	return variant.NewNodePath(names, nil, false), nil
}

// Get returns a property value.
func (n *Node) Get(property string) (variant.Value, bool) {
	v, ok := n.props[variant.NormalizeName(property)]
	return v, ok
}

// Set stores a property value, creating the property if needed.
func (n *Node) Set(property string, v variant.Value) {
	n.props[variant.NormalizeName(property)] = v
}

// Properties returns the property names in sorted order.
func (n *Node) Properties() []string {
	names := make([]string, 0, len(n.props))
	for k := range n.props {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// GetIndexed reads a property and descends into its members, following the
// subnames of path: ":position:x" reads the x component of position.
func (n *Node) GetIndexed(path variant.NodePath) (variant.Value, bool) {
	sub := path.SubNames()
	if len(sub) == 0 {
		return nil, false
	}
	v, ok := n.props[sub[0]]
	if !ok {
		return nil, false
	}
	for _, name := range sub[1:] {
		if v, ok = variant.GetNamed(v, name); !ok {
			return nil, false
		}
	}
	return v, true
}

// SetIndexed writes through the subnames of path. The property and every
// intermediate member must already exist; the leaf member of a dictionary
// may be new.
func (n *Node) SetIndexed(path variant.NodePath, v variant.Value) error {
	sub := path.SubNames()
	if len(sub) == 0 {
		return fmt.Errorf("%w: empty property path", ErrNotFound)
	}
	if len(sub) == 1 {
		if _, ok := n.props[sub[0]]; !ok {
			return fmt.Errorf("%w: property %s", ErrNotFound, sub[0])
		}
		n.props[sub[0]] = v
		return nil
	}

	base, ok := n.props[sub[0]]
	if !ok {
		return fmt.Errorf("%w: property %s", ErrNotFound, sub[0])
	}
	updated, err := setPath(base, sub[1:], v)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	n.props[sub[0]] = updated
	return nil
}

func setPath(base variant.Value, names []string, v variant.Value) (variant.Value, error) {
	if len(names) == 1 {
		out, err := variant.SetNamed(base, names[0], v)
		if errors.Is(err, variant.ErrNoMember) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return out, err
	}
	inner, ok := variant.GetNamed(base, names[0])
	if !ok {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, names[0])
	}
	inner, err := setPath(inner, names[1:], v)
	if err != nil {
		return nil, err
	}
	return variant.SetNamed(base, names[0], inner)
}
