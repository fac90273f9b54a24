package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlupugla/saveload/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid         bool                       `json:"valid"`
	Synchronizers int                        `json:"synchronizers"`
	Spawners      int                        `json:"spawners"`
	Errors        []compiler.ValidationError `json:"errors,omitempty"`
	Warnings      []compiler.OverlapWarning  `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate a synchronizer and spawner configuration",
		Long: `Validate the CUE configuration in a directory.

Reports every schema and consistency error, then analyzes the
configuration for spawners that share a spawn target and synchronizers
rooted inside a spawned subtree. With --strict, overlap warnings fail the
validation too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], strict, cmd)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat overlap warnings as errors")

	return cmd
}

func runValidate(opts *RootOptions, dir string, strict bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, loadErr := LoadConfigDir(dir)
	if loadErr != nil {
		exit := ExitFailure
		if loadErr.Code == ErrCodeNotFound || loadErr.Code == ErrCodeRead {
			exit = ExitCommandError
		}
		var details interface{}
		if loadErr.Pos.IsValid() {
			details = map[string]interface{}{"file": loadErr.Pos.Filename(), "line": loadErr.Pos.Line()}
		}
		return formatter.Fail(exit, loadErr.Code, loadErr.Message, details)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{
		Valid:  len(loaded.Errors) == 0,
		Errors: loaded.Errors,
	}
	doc := loaded.Document
	result.Synchronizers = len(doc.Synchronizers)
	result.Spawners = len(doc.Spawners)
	if result.Valid {
		result.Warnings = compiler.AnalyzeOverlaps(doc)
		if strict {
			for _, w := range result.Warnings {
				if w.Level == "warning" {
					result.Valid = false
				}
			}
		}
	}
	for _, def := range doc.Synchronizers {
		formatter.VerboseLog("Synchronizer %s: %d properties", def.Path, len(def.Properties))
	}
	for _, def := range doc.Spawners {
		formatter.VerboseLog("Spawner %s: scenes %v", def.Path, def.Scenes)
	}

	if formatter.JSON() {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeConfig,
			Message: validationSummary(result),
		}
	}
	if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
		return err
	}
	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, validationSummary(result))
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, err := range result.Errors {
			if err.Line > 0 {
				fmt.Fprintf(w, "line %d\n", err.Line)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		}
		return NewExitError(ExitFailure, validationSummary(result))
	}

	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "%s: %s (%s)\n", warn.Level, warn.Message, warn.Target)
	}
	if !result.Valid {
		fmt.Fprintln(w, "✗ Validation failed")
		return NewExitError(ExitFailure, validationSummary(result))
	}

	fmt.Fprintf(w, "✓ Configuration valid (%d synchronizers, %d spawners)\n", result.Synchronizers, result.Spawners)
	return nil
}

func validationSummary(result ValidationResult) string {
	if len(result.Errors) > 0 {
		return fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))
	}
	n := 0
	for _, w := range result.Warnings {
		if w.Level == "warning" {
			n++
		}
	}
	return fmt.Sprintf("validation failed with %d warning(s)", n)
}
