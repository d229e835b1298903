package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Game     string                     `json:"game,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <game>",
		Short: "Validate a game definition",
		Long: `Validate a game definition without running it.

<game> is a .json, .yaml, .yml or .cue file, or a directory holding a CUE
package. Checks that every reference resolves and reports trigger cycles
as warnings.

Exit codes:
  0 - Definition is valid (warnings allowed)
  1 - Definition failed validation
  2 - Command error (file not found, syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	def, err := compiler.Load(path)
	if err != nil {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
	}

	formatter.VerboseLog("Game %s: %d zone(s), %d phase(s), %d action(s), %d trigger(s)",
		def.ID, len(def.Zones), len(def.Phases), len(def.Actions), len(def.Triggers))

	result := ValidationResult{
		Game:     def.ID,
		Errors:   compiler.Validate(def),
		Warnings: compiler.AnalyzeTriggerCycles(def),
	}
	result.Valid = len(result.Errors) == 0

	if formatter.JSON() {
		if !result.Valid {
			_ = formatter.encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error: &CLIError{
					Code:    result.Errors[0].Code,
					Message: result.Errors[0].Message,
				},
			})
			return validationFailure(result)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ %s is valid\n", def.ID)
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "line %d\n", e.Line)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
		}
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn.Message)
	}

	if !result.Valid {
		return validationFailure(result)
	}
	return nil
}

// Validation failures = exit code 1 (test/validation failure)
func validationFailure(result ValidationResult) error {
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
