package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history",
		Short:         "List host transactions, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd)
		},
	}
}

func runHistory(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	env, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	txns, err := env.host.Transactions(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	if env.formatter.IsJSON() {
		return env.formatter.Success(txns)
	}

	w := cmd.OutOrStdout()
	if len(txns) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return nil
	}
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		state := "applied"
		if t.Undone {
			state = "undone"
		}
		rows = append(rows, []string{strconv.FormatInt(t.Seq, 10), t.ID, t.Label, strconv.Itoa(t.Sequences), state})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Seq", "ID", "Label", "Sequences", "State"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
	return nil
}
