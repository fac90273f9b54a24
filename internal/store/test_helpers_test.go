package store

import (
	"path/filepath"
	"testing"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/testutil"
	"github.com/nlupugla/saveload/internal/variant"
)

// createTestStore creates a new store in a temp dir with predictable ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequenceGenerator("snap")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBlob encodes a snapshot holding one syncher with health.
func createTestBlob(t *testing.T, health int64) []byte {
	t.Helper()
	state := saveload.NewState()
	state.Synchers["Player/Sync"] = saveload.SyncherState{
		{Property: variant.ParseNodePath(":health"), Value: variant.Int(health)},
	}
	blob, err := saveload.EncodeState(state, saveload.FormatVersion)
	if err != nil {
		t.Fatalf("EncodeState() failed: %v", err)
	}
	return blob
}
