package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/pipeline"
	"github.com/roach88/otioseq/internal/syncerr"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Root   string
	DryRun bool
}

// ExportResultView is the JSON form of an export.
type ExportResultView struct {
	Root     string           `json:"root"`
	Path     string           `json:"path,omitempty"`
	DryRun   bool             `json:"dry_run"`
	Tracks   int              `json:"tracks"`
	Warnings syncerr.Warnings `json:"warnings"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the sequence hierarchy as a timeline file",
		Long: `Collect the sequence hierarchy under a root sequence into a timeline and
write it to a file. The file format follows the file suffix; a path without
a suffix gets adapters.export_suffix.

Examples:
  otioseq export cut_v3.otio --root /Game/Levels/Main_SEQ
  otioseq export review --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "sequence to export (default import.root)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "collect the timeline without writing it")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, file string) error {
	ctx := context.Background()

	env, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	root, err := env.rootFlag(opts.Root)
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	res, err := env.pipeline.Export(ctx, pipeline.ExportOptions{Root: root, Path: file, DryRun: opts.DryRun})
	if err != nil {
		return wrapSyncError("export failed", err)
	}

	view := ExportResultView{
		Root:     root,
		Path:     res.Path,
		DryRun:   opts.DryRun,
		Tracks:   len(res.Timeline.Tracks.Children),
		Warnings: res.Warnings,
	}
	if view.Warnings == nil {
		view.Warnings = syncerr.Warnings{}
	}
	if env.formatter.IsJSON() {
		return env.formatter.Success(view)
	}

	w := cmd.OutOrStdout()
	writeWarnings(w, res.Warnings)
	if opts.DryRun {
		fmt.Fprintf(w, "Collected %s: %d tracks. Dry run: nothing was written.\n", root, view.Tracks)
		return nil
	}
	fmt.Fprintf(w, "Exported %s to %s.\n", root, res.Path)
	return nil
}
