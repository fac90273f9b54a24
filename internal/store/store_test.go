package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/testutil"
	"github.com/nlupugla/saveload/internal/variant"
)

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.db == nil {
		t.Fatal("Store.db is nil")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	blob := createTestBlob(t, 10)
	if _, err := s.Put(ctx, "slot1", blob); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "slot1")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	assert.Equal(t, blob, got)
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	// Second close must not panic
	_ = s.Close()
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_SnapshotsTableExists(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='snapshots'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("snapshots table missing: %v", err)
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Schema without migrations simulates a pre-migration database
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	var index string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_snapshots_digest'",
	).Scan(&index)
	if err != nil {
		t.Errorf("digest index missing after migration: %v", err)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		var version int
		if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}
		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}
		s.Close()
	}
}

func TestPut_FirstSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	blob := createTestBlob(t, 10)

	digest, err := s.Put(ctx, "slot1", blob)
	require.NoError(t, err)
	assert.Equal(t, variant.SnapshotDigest(blob), digest)

	snap, err := s.Latest(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, "slot1", snap.Slot)
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, digest, snap.Digest)
	assert.Equal(t, saveload.FormatVersion, snap.FormatVersion)
	assert.Equal(t, len(blob), snap.Size)
	assert.Equal(t, blob, snap.Data)
}

func TestPut_NewerSnapshotBecomesLatest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	first := createTestBlob(t, 10)
	second := createTestBlob(t, 7)

	_, err := s.Put(ctx, "slot1", first)
	require.NoError(t, err)
	_, err = s.Put(ctx, "slot1", second)
	require.NoError(t, err)

	snap, err := s.Latest(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, "snap-2", snap.ID)
	assert.Equal(t, int64(2), snap.Seq)

	got, err := s.Get(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestPut_SameBlobTwiceIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	blob := createTestBlob(t, 10)

	_, err := s.Put(ctx, "slot1", blob)
	require.NoError(t, err)
	_, err = s.Put(ctx, "slot1", blob)
	require.NoError(t, err)

	history, err := s.History(ctx, "slot1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].Seq)
}

func TestPut_OlderDigestIsPromoted(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	a := createTestBlob(t, 1)
	b := createTestBlob(t, 2)

	for _, blob := range [][]byte{a, b, a} {
		_, err := s.Put(ctx, "slot1", blob)
		require.NoError(t, err)
	}

	history, err := s.History(ctx, "slot1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "snap-2", history[0].ID)
	assert.Equal(t, int64(2), history[0].Seq)
	assert.Equal(t, "snap-1", history[1].ID)
	assert.Equal(t, int64(3), history[1].Seq)

	got, err := s.Get(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestPut_SlotsAreIndependent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	blob := createTestBlob(t, 10)

	_, err := s.Put(ctx, "a", blob)
	require.NoError(t, err)
	_, err = s.Put(ctx, "b", blob)
	require.NoError(t, err)

	for _, slot := range []string{"a", "b"} {
		snap, err := s.Latest(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Seq, slot)
	}
}

func TestPut_RejectsInvalidBlob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "slot1", []byte("not a snapshot"))
	require.Error(t, err)

	_, err = s.Latest(ctx, "slot1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPut_RejectsEmptySlot(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Put(context.Background(), "", createTestBlob(t, 1))
	assert.Error(t, err)
}

func TestPut_KeepsLegacyFormatVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	state := saveload.NewState()
	state.Synchers["Player/Sync"] = saveload.SyncherState{
		{Property: variant.ParseNodePath(":health"), Value: variant.Int(3)},
	}
	blob, err := saveload.EncodeState(state, 0)
	require.NoError(t, err)

	_, err = s.Put(ctx, "legacy", blob)
	require.NoError(t, err)

	snap, err := s.Latest(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), snap.FormatVersion)
}

func TestGet_UnknownSlot(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFindDigest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	a := createTestBlob(t, 1)
	b := createTestBlob(t, 2)

	da, err := s.Put(ctx, "slot1", a)
	require.NoError(t, err)
	_, err = s.Put(ctx, "slot1", b)
	require.NoError(t, err)

	snap, err := s.FindDigest(ctx, "slot1", da)
	require.NoError(t, err)
	assert.Equal(t, a, snap.Data)
	assert.Equal(t, int64(1), snap.Seq)

	_, err = s.FindDigest(ctx, "other", da)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHistory_UnknownSlotIsEmpty(t *testing.T) {
	s := createTestStore(t)

	history, err := s.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestHistory_OmitsData(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	blob := createTestBlob(t, 4)

	_, err := s.Put(ctx, "slot1", blob)
	require.NoError(t, err)

	history, err := s.History(ctx, "slot1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].Data)
	assert.Equal(t, len(blob), history[0].Size)
}

func TestListSlots(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	a := createTestBlob(t, 1)
	b := createTestBlob(t, 2)

	for _, put := range []struct {
		slot string
		blob []byte
	}{
		{"zeta", a},
		{"alpha", a},
		{"alpha", b},
	} {
		_, err := s.Put(ctx, put.slot, put.blob)
		require.NoError(t, err)
	}

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SlotInfo{
		{Slot: "alpha", Count: 2, LatestSeq: 2, LatestDigest: variant.SnapshotDigest(b)},
		{Slot: "zeta", Count: 1, LatestSeq: 1, LatestDigest: variant.SnapshotDigest(a)},
	}, slots)
}

func TestListSlots_Empty(t *testing.T) {
	s := createTestStore(t)

	slots, err := s.ListSlots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestDeleteSlot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "slot1", createTestBlob(t, 1))
	require.NoError(t, err)
	_, err = s.Put(ctx, "slot1", createTestBlob(t, 2))
	require.NoError(t, err)
	_, err = s.Put(ctx, "keep", createTestBlob(t, 3))
	require.NoError(t, err)

	n, err := s.DeleteSlot(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Get(ctx, "slot1")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Get(ctx, "keep")
	assert.NoError(t, err)

	n, err = s.DeleteSlot(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestWithIDGenerator_Fixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewFixedGenerator("first", "second")))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Put(ctx, "slot1", createTestBlob(t, 1))
	require.NoError(t, err)
	_, err = s.Put(ctx, "slot1", createTestBlob(t, 2))
	require.NoError(t, err)

	snap, err := s.Latest(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, "second", snap.ID)
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
