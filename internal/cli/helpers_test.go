package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/variant"
)

// encodeTestSnapshot encodes a snapshot holding one syncher with health and
// one spawned bat.
func encodeTestSnapshot(t *testing.T, health int64, version uint32) []byte {
	t.Helper()
	state := saveload.NewState()
	state.Synchers["Player/Sync"] = saveload.SyncherState{
		{Property: variant.ParseNodePath(":health"), Value: variant.Int(health)},
	}
	state.Spawners["Spawner"] = saveload.SpawnerState{
		{Key: "bat_1", Scene: "bat", Args: variant.Array{variant.Int(3)}},
	}
	blob, err := saveload.EncodeState(state, version)
	require.NoError(t, err)
	return blob
}

// writeTestSnapshot writes a current-format snapshot into dir.
func writeTestSnapshot(t *testing.T, dir, name string, health int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encodeTestSnapshot(t, health, saveload.FormatVersion), 0o644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
