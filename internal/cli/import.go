package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/apply"
	"github.com/roach88/otioseq/internal/pipeline"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Root   string
	Label  string
	Yes    bool
	DryRun bool
}

// ImportResultView is the JSON form of an import.
type ImportResultView struct {
	File    string        `json:"file"`
	Plan    PlanView      `json:"plan"`
	DryRun  bool          `json:"dry_run"`
	Applied *apply.Result `json:"applied,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply a timeline file to the sequence hierarchy",
		Long: `Read a timeline file and conform the sequence hierarchy to it.

The timeline is reconciled against the live hierarchy first. The resulting
plan is shown and must be confirmed before anything is written; the whole
plan is then applied as one transaction that "otioseq undo" reverts.

Examples:
  otioseq import cut_v3.otio --root /Game/Levels/Main_SEQ
  otioseq import cut_v3.otio --yes --label "Cut v3"
  otioseq import cut_v3.yaml --dry-run --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "sequence the timeline maps onto (default import.root)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "transaction label (default import.label)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "apply without asking for confirmation")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show the plan without applying it")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command, file string) error {
	ctx := context.Background()

	env, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.pipeline.Import(ctx, pipeline.ImportOptions{
		Path:    file,
		Root:    opts.Root,
		Label:   opts.Label,
		DryRun:  opts.DryRun,
		Approve: newApprover(cmd, opts.Yes || opts.DryRun),
	})
	if err != nil {
		return wrapSyncError("import failed", err)
	}

	if env.formatter.IsJSON() {
		return env.formatter.Success(ImportResultView{
			File:    file,
			Plan:    newPlanView(res.Plan),
			DryRun:  opts.DryRun,
			Applied: res.Applied,
		})
	}

	w := cmd.OutOrStdout()
	if opts.DryRun {
		writePlan(w, res.Plan)
		fmt.Fprintln(w, "Dry run: nothing was written.")
		return nil
	}
	if res.Applied == nil || res.Applied.TxnID == "" {
		writeWarnings(w, res.Plan.Warnings)
		fmt.Fprintf(w, "%s is already up to date.\n", res.Plan.Root)
		return nil
	}
	writeWarnings(w, res.Plan.Warnings)
	fmt.Fprintf(w, "Applied %d changes to %s in transaction %q (%s).\n",
		res.Applied.Applied, res.Plan.Root, res.Applied.Label, res.Applied.TxnID)
	return nil
}
