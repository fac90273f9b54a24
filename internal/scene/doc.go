// Package scene is a minimal in-memory object model: a tree of named nodes
// with dynamic properties, stable paths between nodes, and an object table
// resolving process-local ids to live nodes.
//
// It is the host the saveload engine captures from and restores into. Node
// types embed *Node and are used through the Noder interface, so a tree can
// hold any mix of node types:
//
//	type Enemy struct{ *scene.Node }
//
//	root.AddChild(&Enemy{Node: scene.NewNode("Bat")})
//
// Once attached, Self returns the *Enemy, not the embedded *Node.
//
// Mutation is single-threaded. Enter and exit listeners fire synchronously
// while a subtree is attached to or detached from a tree.
package scene
