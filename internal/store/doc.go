// Package store keeps serialized snapshots in named save slots backed by
// SQLite.
//
// Each slot is an ordered history of snapshot blobs in file form. Rows are
// keyed by a record id and identified by a content digest (see
// variant.SnapshotDigest), so storing the same bytes twice in one slot never
// duplicates a row; it promotes the existing row to newest.
//
// # Ordering
//
// Slot history is ordered by seq, a per-slot logical clock starting at 1.
// Wall time is never stored. Queries that return several rows order by
// seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Store implements saveload.BlobStore, so a Saveload can write to and read
// from a slot directly with SaveTo and LoadFrom.
package store
