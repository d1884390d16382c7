package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/host"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recent transaction",
		Long: `Restore every sequence touched by the most recent transaction that has
not been undone to its state before that transaction.

Examples:
  otioseq undo
  otioseq history`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(rootOpts, cmd)
		},
	}
}

func runUndo(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	env, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	info, err := env.host.Undo(ctx)
	if errors.Is(err, host.ErrNothingToUndo) {
		return WrapExitError(ExitCommandError, "undo failed", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "undo failed", err)
	}

	if env.formatter.IsJSON() {
		return env.formatter.Success(info)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Undid %q (%s): %d sequences restored.\n", info.Label, info.ID, info.Sequences)
	return nil
}
