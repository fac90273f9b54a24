package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlupugla/saveload/internal/saveload"
)

// VerifyResult holds the outcome of a verify run.
type VerifyResult struct {
	Path          string `json:"path"`
	Valid         bool   `json:"valid"`
	FormatVersion uint32 `json:"format_version"`
	Digest        string `json:"digest"`
	Legacy        bool   `json:"legacy,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var digest string

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check that a snapshot file decodes",
		Long: `Check that a snapshot file decodes in a supported format version.

With --digest, also check the file against an expected snapshot digest.

Exit codes:
  0 - Snapshot is valid
  1 - Snapshot is corrupt or does not match the digest
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], digest, cmd)
		},
	}

	cmd.Flags().StringVar(&digest, "digest", "", "expected snapshot digest")

	return cmd
}

func runVerify(opts *RootOptions, path, wantDigest string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	blob, loadErr := readSnapshot(path)
	if loadErr != nil {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}

	info, err := describeSnapshot(path, blob, false)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeFormat,
			fmt.Sprintf("%s: %v", path, err), map[string]string{"path": path})
	}
	if wantDigest != "" && info.Digest != wantDigest {
		return formatter.Fail(ExitFailure, ErrCodeDigest,
			fmt.Sprintf("%s: digest %s does not match %s", path, info.Digest, wantDigest),
			map[string]string{"path": path, "digest": info.Digest, "expected": wantDigest})
	}

	result := VerifyResult{
		Path:          path,
		Valid:         true,
		FormatVersion: info.FormatVersion,
		Digest:        info.Digest,
		Legacy:        info.FormatVersion == saveload.FormatVersionLegacy,
	}
	formatter.VerboseLog("%s: %d spawners, %d synchronizers", path, info.Spawners, info.Synchronizers)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	msg := fmt.Sprintf("✓ %s is valid (format version %d, digest %s)", path, result.FormatVersion, result.Digest)
	if result.Legacy {
		msg += " [legacy]"
	}
	return formatter.Success(msg)
}
