package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/pipeline"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Root string
}

// PreviewResultView is the JSON form of a preview.
type PreviewResultView struct {
	File       string                    `json:"file"`
	Plan       PlanView                  `json:"plan"`
	CommonDir  string                    `json:"common_dir"`
	References []pipeline.ReferenceGroup `json:"references"`
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show what importing a timeline would change",
		Long: `Reconcile a timeline file against the sequence hierarchy and print the
plan, together with every sequence the timeline references grouped by
package directory. Nothing is written.

Examples:
  otioseq preview cut_v3.otio --root /Game/Levels/Main_SEQ
  otioseq preview cut_v3.otio --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "sequence the timeline maps onto (default import.root)")

	return cmd
}

func runPreview(opts *PreviewOptions, cmd *cobra.Command, file string) error {
	ctx := context.Background()

	env, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.pipeline.Preview(ctx, pipeline.ImportOptions{Path: file, Root: opts.Root})
	if err != nil {
		return wrapSyncError("preview failed", err)
	}

	common, groups := pipeline.References(res.Planned)
	if groups == nil {
		groups = []pipeline.ReferenceGroup{}
	}

	if env.formatter.IsJSON() {
		return env.formatter.Success(PreviewResultView{
			File:       file,
			Plan:       newPlanView(res.Plan),
			CommonDir:  common,
			References: groups,
		})
	}

	w := cmd.OutOrStdout()
	writePlan(w, res.Plan)
	fmt.Fprintln(w)
	writeReferences(w, common, groups)
	return nil
}
