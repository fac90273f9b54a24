// Package saveload captures the state of a live object tree into a snapshot
// and restores it.
//
// Objects take part through two independent capabilities:
//
//   - Syncher: captures and restores a list of property values chosen by a
//     selection configuration.
//   - Spawner: captures and restores the set of children it created at
//     runtime, reconciling by spawn key on restore.
//
// A Registry records which objects participate. A Saveload aggregates the
// state of every tracked object into a State keyed by stable path, applies a
// State back onto the tree, and converts a State to and from its structured
// and binary forms.
//
// Every traversal is "continue and report": a path that does not resolve, a
// property that cannot be read or written, or a value of a kind that cannot
// be serialized becomes a warning in a Report and the pass continues. Only
// I/O failures and undecodable input stop an operation.
//
// The package is single-threaded. All calls are expected on the goroutine
// that owns the object tree.
package saveload
