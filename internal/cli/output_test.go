package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSON(t *testing.T) {
	tests := []struct {
		name       string
		write      func(f *OutputFormatter) error
		wantStatus string
		wantCode   string
	}{
		{
			name:       "success",
			write:      func(f *OutputFormatter) error { return f.Success(SlotDeleteResult{Slot: "quick", Deleted: 2}) },
			wantStatus: "ok",
		},
		{
			name:       "error",
			write:      func(f *OutputFormatter) error { return f.Error(ErrCodeFormat, "snapshot corrupt", nil) },
			wantStatus: "error",
			wantCode:   ErrCodeFormat,
		},
		{
			name: "error with details",
			write: func(f *OutputFormatter) error {
				return f.Error(ErrCodeDigest, "digest mismatch", map[string]string{"path": "save.bin"})
			},
			wantStatus: "error",
			wantCode:   ErrCodeDigest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantCode == "" {
				assert.Nil(t, resp.Error)
				assert.NotNil(t, resp.Data)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("✓ save.bin is valid"))
	require.NoError(t, f.Error(ErrCodeNotFound, "snapshot file not found: x.bin", map[string]string{"path": "x.bin"}))

	assert.Equal(t, "✓ save.bin is valid\nError [E002]: snapshot file not found: x.bin\n", buf.String())
}

func TestOutputFormatter_TextErrorDetailsWhenVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error(ErrCodeFormat, "snapshot corrupt", map[string]string{"path": "save.bin"}))
	assert.Contains(t, buf.String(), "Details: map[path:save.bin]")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	quiet := &bytes.Buffer{}
	(&OutputFormatter{Format: "text", Writer: quiet}).VerboseLog("Opened %s", "slots.db")
	assert.Empty(t, quiet.String())

	loud := &bytes.Buffer{}
	(&OutputFormatter{Format: "text", Writer: loud, Verbose: true}).VerboseLog("Opened %s", "slots.db")
	assert.Equal(t, "Opened slots.db\n", loud.String(), "falls back to Writer without ErrWriter")
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Opened %s", "slots.db")
	assert.Empty(t, out.String())
	assert.Equal(t, "Opened slots.db\n", errOut.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail(ExitFailure, ErrCodeFormat, "snapshot corrupt", nil)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "snapshot corrupt", err.Error())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeFormat, resp.Error.Code)
}

func TestGetExitCode(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", cause, ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "write failed", cause)), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestWrapExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "write failed", cause)
	assert.Equal(t, "write failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}
