package scene

import "slices"

// Listener is notified when a node enters or exits a tree.
type Listener func(Noder)

// Tree owns a root node and the object table of every node attached under
// it.
type Tree struct {
	root    Noder
	nodes   map[ID]Noder
	onEnter []Listener
	onExit  []Listener
}

// NewTree creates a tree rooted at root. The root's subtree enters the tree
// immediately; listeners registered later do not see it.
func NewTree(root Noder) *Tree {
	t := &Tree{nodes: make(map[ID]Noder)}
	root.AsNode().self = root
	t.root = root
	t.enter(root)
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root.AsNode() }

// Lookup resolves an id to a live node in this tree.
func (t *Tree) Lookup(id ID) (Noder, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// OnEnter registers fn to run for every node that enters the tree, parents
// before children.
func (t *Tree) OnEnter(fn Listener) { t.onEnter = append(t.onEnter, fn) }

// OnExit registers fn to run for every node that exits the tree, children
// before parents.
func (t *Tree) OnExit(fn Listener) { t.onExit = append(t.onExit, fn) }

// Walk visits every node in pre-order.
func (t *Tree) Walk(fn func(Noder)) {
	t.Root().walk(fn)
}

func (t *Tree) enter(n Noder) {
	n.AsNode().walk(func(x Noder) {
		node := x.AsNode()
		node.tree = t
		t.nodes[node.id] = x
		for _, fn := range t.onEnter {
			fn(x)
		}
	})
}

func (t *Tree) exit(n Noder) {
	var order []Noder
	n.AsNode().walk(func(x Noder) { order = append(order, x) })
	slices.Reverse(order)
	for _, x := range order {
		for _, fn := range t.onExit {
			fn(x)
		}
		node := x.AsNode()
		delete(t.nodes, node.id)
		node.tree = nil
	}
}
