package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ludeme/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Engine policy, passed to every ApplyMove.
	PhaseBudget     int
	MaxTriggerDepth int
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ludeme CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ludeme",
		Short: "ludeme - a deterministic rules engine for turn-based games",
		Long: `ludeme compiles declarative game definitions and runs them.

Given the same definition, seed and moves, every command produces the same
states, byte for byte. Matches played with --db are stored as a move log
that replay and trace rebuild.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts, cmd)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.PhaseBudget, "phase-budget", engine.DefaultPhaseTransitionBudget, "phase transitions one move may cause")
	cmd.PersistentFlags().IntVar(&opts.MaxTriggerDepth, "max-trigger-depth", engine.DefaultMaxTriggerDepth, "how deeply triggers may nest")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewMovesCommand(opts))
	cmd.AddCommand(NewChoicesCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// configureLogging routes slog to stderr; --verbose lowers the level to debug.
func configureLogging(opts *RootOptions, cmd *cobra.Command) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// ApplyOptions returns the engine options selected by the global flags.
func (o *RootOptions) ApplyOptions() []engine.ApplyOption {
	var opts []engine.ApplyOption
	if o.PhaseBudget > 0 {
		opts = append(opts, engine.WithPhaseTransitionBudget(o.PhaseBudget))
	}
	if o.MaxTriggerDepth > 0 {
		opts = append(opts, engine.WithMaxTriggerDepth(o.MaxTriggerDepth))
	}
	return opts
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
