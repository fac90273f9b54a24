package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/store"
)

// SlotOptions holds flags shared by the slot subcommands.
type SlotOptions struct {
	*RootOptions
	DB string // slot database path
}

// SlotPutResult is the outcome of slot put.
type SlotPutResult struct {
	Slot   string `json:"slot"`
	Digest string `json:"digest"`
	Seq    int64  `json:"seq"`
}

// SlotGetResult is the outcome of slot get.
type SlotGetResult struct {
	Slot   string `json:"slot"`
	Seq    int64  `json:"seq"`
	Digest string `json:"digest"`
	Output string `json:"output"`
	Size   int    `json:"size"`
}

// SlotDeleteResult is the outcome of slot delete.
type SlotDeleteResult struct {
	Slot    string `json:"slot"`
	Deleted int64  `json:"deleted"`
}

// NewSlotCommand creates the slot command and its subcommands.
func NewSlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage snapshots in a slot database",
		Long: `Store, retrieve and list snapshots kept in named save slots of a
SQLite database. Each slot keeps its history; putting a snapshot the slot
already holds makes it the newest again instead of adding a copy.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "saveload.db", "path to slot database")

	cmd.AddCommand(newSlotPutCommand(opts))
	cmd.AddCommand(newSlotGetCommand(opts))
	cmd.AddCommand(newSlotListCommand(opts))
	cmd.AddCommand(newSlotHistoryCommand(opts))
	cmd.AddCommand(newSlotDeleteCommand(opts))

	return cmd
}

// openStore opens the slot database. Read-only commands require it to
// exist already.
func openStore(opts *SlotOptions, formatter *OutputFormatter, mustExist bool) (*store.Store, error) {
	if mustExist {
		if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
			return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound,
				fmt.Sprintf("database not found: %s", opts.DB), nil)
		}
	}
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeStore,
			fmt.Sprintf("failed to open database: %v", err), nil)
	}
	formatter.VerboseLog("Opened %s", opts.DB)
	return st, nil
}

func newSlotPutCommand(opts *SlotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "put <slot> <file>",
		Short:         "Store a snapshot file as the newest snapshot of a slot",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			slot, path := args[0], args[1]

			blob, loadErr := readSnapshot(path)
			if loadErr != nil {
				return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
			}

			st, err := openStore(opts, formatter, false)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			digest, err := st.Put(ctx, slot, blob)
			if saveload.IsFormatError(err) {
				return formatter.Fail(ExitFailure, ErrCodeFormat, err.Error(), map[string]string{"path": path})
			}
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			latest, err := st.Latest(ctx, slot)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}

			result := SlotPutResult{Slot: slot, Digest: digest, Seq: latest.Seq}
			if formatter.JSON() {
				return formatter.Success(result)
			}
			return formatter.Success(fmt.Sprintf("✓ %s stored in slot %s (seq %d, digest %s)", path, slot, result.Seq, digest))
		},
	}
}

func newSlotGetCommand(opts *SlotOptions) *cobra.Command {
	var (
		output string
		digest string
	)

	cmd := &cobra.Command{
		Use:   "get <slot>",
		Short: "Write a snapshot of a slot to a file",
		Long: `Write the newest snapshot of a slot to a file. With --digest, write the
snapshot of the slot with that digest instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			slot := args[0]

			st, err := openStore(opts, formatter, true)
			if err != nil {
				return err
			}
			defer st.Close()

			var snap store.Snapshot
			if digest != "" {
				snap, err = st.FindDigest(cmd.Context(), slot, digest)
			} else {
				snap, err = st.Latest(cmd.Context(), slot)
			}
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ExitFailure, ErrCodeNoSnapshots, err.Error(), nil)
			}
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}

			if err := writeSnapshot(output, snap.Data); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeRead,
					fmt.Sprintf("failed to write %s: %v", output, err), nil)
			}

			result := SlotGetResult{Slot: slot, Seq: snap.Seq, Digest: snap.Digest, Output: output, Size: snap.Size}
			if formatter.JSON() {
				return formatter.Success(result)
			}
			return formatter.Success(fmt.Sprintf("✓ slot %s seq %d written to %s (%d bytes)", slot, snap.Seq, output, snap.Size))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write the snapshot to")
	cmd.Flags().StringVar(&digest, "digest", "", "snapshot digest to retrieve")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newSlotListCommand(opts *SlotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List slots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := openStore(opts, formatter, true)
			if err != nil {
				return err
			}
			defer st.Close()

			slots, err := st.ListSlots(cmd.Context())
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}

			if formatter.JSON() {
				return formatter.Success(slots)
			}
			w := formatter.Writer
			if len(slots) == 0 {
				fmt.Fprintln(w, "No slots.")
				return nil
			}
			for _, s := range slots {
				fmt.Fprintf(w, "%s\t%d snapshot(s)\tseq %d\t%s\n", s.Slot, s.Count, s.LatestSeq, s.LatestDigest)
			}
			return nil
		},
	}
}

func newSlotHistoryCommand(opts *SlotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <slot>",
		Short:         "List the snapshots of a slot, oldest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			slot := args[0]

			st, err := openStore(opts, formatter, true)
			if err != nil {
				return err
			}
			defer st.Close()

			history, err := st.History(cmd.Context(), slot)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			if len(history) == 0 {
				return formatter.Fail(ExitFailure, ErrCodeNoSnapshots,
					fmt.Sprintf("slot %q holds no snapshots", slot), nil)
			}

			if formatter.JSON() {
				return formatter.Success(history)
			}
			w := formatter.Writer
			for _, s := range history {
				fmt.Fprintf(w, "%d\t%s\tv%d\t%d bytes\t%s\n", s.Seq, s.Digest, s.FormatVersion, s.Size, s.ID)
			}
			return nil
		},
	}
}

func newSlotDeleteCommand(opts *SlotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <slot>",
		Short:         "Delete every snapshot of a slot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)
			slot := args[0]

			st, err := openStore(opts, formatter, true)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.DeleteSlot(cmd.Context(), slot)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}

			result := SlotDeleteResult{Slot: slot, Deleted: n}
			if formatter.JSON() {
				return formatter.Success(result)
			}
			return formatter.Success(fmt.Sprintf("✓ deleted %d snapshot(s) from slot %s", n, slot))
		},
	}
}
