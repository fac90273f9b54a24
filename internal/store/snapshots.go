package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/variant"
)

// ErrNotFound is returned when a slot or snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored snapshot. Data is only filled by reads that return
// the blob.
type Snapshot struct {
	ID            string `json:"id"`
	Slot          string `json:"slot"`
	Seq           int64  `json:"seq"`
	Digest        string `json:"digest"`
	FormatVersion uint32 `json:"format_version"`
	Size          int    `json:"size"`
	Data          []byte `json:"-"`
}

// SlotInfo summarizes one slot.
type SlotInfo struct {
	Slot         string `json:"slot"`
	Count        int    `json:"count"`
	LatestSeq    int64  `json:"latest_seq"`
	LatestDigest string `json:"latest_digest"`
}

var _ saveload.BlobStore = (*Store)(nil)

// Put stores blob as the newest snapshot of slot and returns its digest.
//
// The blob must decode as a snapshot. Putting a blob whose digest the slot
// already holds does not add a row; the existing row becomes the newest
// instead, and putting the newest blob again changes nothing. seq is a
// per-slot logical clock starting at 1.
func (s *Store) Put(ctx context.Context, slot string, blob []byte) (string, error) {
	if slot == "" {
		return "", fmt.Errorf("put snapshot: empty slot name")
	}
	_, version, err := saveload.DecodeState(blob)
	if err != nil {
		return "", fmt.Errorf("put snapshot: %w", err)
	}
	digest := variant.SnapshotDigest(blob)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("put snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var next int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots WHERE slot = ?`, slot,
	).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("put snapshot: next seq: %w", err)
	}

	var (
		existing string
		seq      int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, seq FROM snapshots WHERE slot = ? AND digest = ?`, slot, digest,
	).Scan(&existing, &seq)
	switch {
	case err == nil && seq == next-1:
		// Already the newest.
	case err == nil:
		_, err = tx.ExecContext(ctx, `UPDATE snapshots SET seq = ? WHERE id = ?`, next, existing)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, slot, seq, digest, format_version, data)
			VALUES (?, ?, ?, ?, ?, ?)
		`, s.ids.Generate(), slot, next, digest, version, blob)
	}
	if err != nil {
		return "", fmt.Errorf("put snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("put snapshot: commit: %w", err)
	}
	return digest, nil
}

// Get returns the blob of the newest snapshot of slot.
func (s *Store) Get(ctx context.Context, slot string) ([]byte, error) {
	snap, err := s.Latest(ctx, slot)
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

// Latest returns the newest snapshot of slot, including its data.
func (s *Store) Latest(ctx context.Context, slot string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slot, seq, digest, format_version, length(data), data
		FROM snapshots
		WHERE slot = ?
		ORDER BY seq DESC
		LIMIT 1
	`, slot)
	snap, err := scanSnapshot(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: slot %q", ErrNotFound, slot)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// FindDigest returns the snapshot of slot with the given digest, including
// its data.
func (s *Store) FindDigest(ctx context.Context, slot, digest string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slot, seq, digest, format_version, length(data), data
		FROM snapshots
		WHERE slot = ? AND digest = ?
	`, slot, digest)
	snap, err := scanSnapshot(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: slot %q digest %s", ErrNotFound, slot, digest)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}
	return snap, nil
}

// History returns the snapshots of slot without data, oldest first.
// Ordering is deterministic: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) for an unknown slot.
func (s *Store) History(ctx context.Context, slot string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slot, seq, digest, format_version, length(data)
		FROM snapshots
		WHERE slot = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, slot)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

// ListSlots summarizes every slot, ordered by name.
func (s *Store) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.slot, c.n, s.seq, s.digest
		FROM snapshots s
		JOIN (
			SELECT slot, COUNT(*) AS n, MAX(seq) AS top
			FROM snapshots
			GROUP BY slot
		) c ON c.slot = s.slot AND c.top = s.seq
		ORDER BY s.slot COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	slots := []SlotInfo{}
	for rows.Next() {
		var info SlotInfo
		if err := rows.Scan(&info.Slot, &info.Count, &info.LatestSeq, &info.LatestDigest); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// DeleteSlot removes every snapshot of slot and returns how many were
// removed.
func (s *Store) DeleteSlot(ctx context.Context, slot string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE slot = ?`, slot)
	if err != nil {
		return 0, fmt.Errorf("delete slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete slot: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner, withData bool) (Snapshot, error) {
	var snap Snapshot
	dest := []any{&snap.ID, &snap.Slot, &snap.Seq, &snap.Digest, &snap.FormatVersion, &snap.Size}
	if withData {
		dest = append(dest, &snap.Data)
	}
	if err := row.Scan(dest...); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
