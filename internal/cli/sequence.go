package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/host"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
)

// SequenceCreateOptions holds flags for the sequence create command.
type SequenceCreateOptions struct {
	*RootOptions
	Rate     string
	Start    int64
	Duration int64
}

// MarkerView is the JSON form of a marker, in frames.
type MarkerView struct {
	Name     string `json:"name"`
	Frame    int64  `json:"frame"`
	Duration int64  `json:"duration"`
	Color    string `json:"color,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// SectionView is the JSON form of a section, in parent frames.
type SectionView struct {
	SubSequence string       `json:"sub_sequence"`
	Row         int          `json:"row"`
	Start       int64        `json:"start"`
	End         int64        `json:"end"`
	StartOffset int64        `json:"start_offset"`
	Speed       string       `json:"speed"`
	Markers     []MarkerView `json:"markers,omitempty"`
}

// SequenceView is the JSON form of a sequence, in its own frames.
type SequenceView struct {
	Path     string        `json:"path"`
	Rate     string        `json:"rate"`
	Start    int64         `json:"start"`
	End      int64         `json:"end"`
	Markers  []MarkerView  `json:"markers"`
	Sections []SectionView `json:"sections"`
}

// NewSequenceCommand creates the sequence command group.
func NewSequenceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect and create sequences on the host",
	}

	cmd.AddCommand(newSequenceCreateCommand(rootOpts))
	cmd.AddCommand(newSequenceShowCommand(rootOpts))
	cmd.AddCommand(newSequenceListCommand(rootOpts))

	return cmd
}

func newSequenceCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SequenceCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create an empty sequence",
		Long: `Create a sequence with an empty shot track, typically the root an
edit is imported onto.

Examples:
  otioseq sequence create /Game/Levels/Main_SEQ --rate 24 --duration 2400
  otioseq sequence create /Game/Cine/Reel1 --rate 24000/1001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSequenceCreate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Rate, "rate", "24", "frame rate (24, 23.976 or 24000/1001)")
	cmd.Flags().Int64Var(&opts.Start, "start", 0, "first frame of the playback range")
	cmd.Flags().Int64Var(&opts.Duration, "duration", 0, "length of the playback range in frames")

	return cmd
}

func runSequenceCreate(opts *SequenceCreateOptions, cmd *cobra.Command, path string) error {
	ctx := context.Background()

	rate, err := rational.Parse(opts.Rate)
	if err != nil || rate.Sign() <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --rate %q: must be a positive rate", opts.Rate))
	}
	if opts.Duration < 0 {
		return NewExitError(ExitCommandError, "invalid --duration: must not be negative")
	}
	if err := sequence.ValidatePath(path); err != nil {
		return WrapExitError(ExitCommandError, "invalid sequence path", err)
	}

	env, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	rec := host.SequenceRecord{
		Path:       path,
		Rate:       rate,
		StartFrame: opts.Start,
		EndFrame:   opts.Start + opts.Duration,
	}
	if err := env.host.CreateSequence(ctx, "Create "+sequence.AssetName(path), rec); err != nil {
		return WrapExitError(ExitFailure, "failed to create sequence", err)
	}

	seq, err := env.host.Sequence(ctx, path)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read sequence", err)
	}
	if env.formatter.IsJSON() {
		return env.formatter.Success(newSequenceView(seq))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s at %s fps.\n", seq.Path, seq.Rate)
	return nil
}

func newSequenceShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <path>",
		Short:         "Show a sequence, its markers and its sections",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSequenceShow(rootOpts, cmd, args[0])
		},
	}
}

func runSequenceShow(opts *RootOptions, cmd *cobra.Command, path string) error {
	ctx := context.Background()

	env, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	seq, err := env.host.Sequence(ctx, path)
	if errors.Is(err, sequence.ErrNotFound) {
		return WrapExitError(ExitCommandError, "sequence not found", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read sequence", err)
	}

	view := newSequenceView(seq)
	if env.formatter.IsJSON() {
		return env.formatter.Success(view)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n  rate:     %s\n  playback: %d-%d\n", view.Path, view.Rate, view.Start, view.End)
	for _, m := range view.Markers {
		fmt.Fprintf(w, "  marker:   %s at %d (+%d) %s\n", m.Name, m.Frame, m.Duration, m.Color)
	}
	if len(view.Sections) == 0 {
		fmt.Fprintln(w, "  no sections")
		return nil
	}
	rows := make([][]string, 0, len(view.Sections))
	for _, s := range view.Sections {
		rows = append(rows, []string{
			strconv.Itoa(s.Row),
			strconv.FormatInt(s.Start, 10),
			strconv.FormatInt(s.End, 10),
			strconv.FormatInt(s.StartOffset, 10),
			s.Speed,
			s.SubSequence,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Row", "Start", "End", "Offset", "Speed", "Sub-sequence"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func newSequenceListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List every sequence on the host",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSequenceList(rootOpts, cmd)
		},
	}
}

func runSequenceList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	env, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	paths, err := env.host.Sequences(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list sequences", err)
	}
	if env.formatter.IsJSON() {
		return env.formatter.Success(paths)
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func newSequenceView(seq *sequence.Sequence) SequenceView {
	view := SequenceView{
		Path:     seq.Path,
		Rate:     seq.Rate.String(),
		Markers:  markerViews(seq.Markers, seq.Rate),
		Sections: []SectionView{},
	}
	if seq.PlaybackRange != nil {
		view.Start = seq.PlaybackRange.Start.Frames(seq.Rate)
		view.End = seq.PlaybackRange.End().Frames(seq.Rate)
	}
	if seq.Shots != nil {
		for _, sec := range seq.Shots.Sections {
			view.Sections = append(view.Sections, SectionView{
				SubSequence: sec.SubSequence,
				Row:         sec.Row,
				Start:       sec.Range.Start.Frames(seq.Rate),
				End:         sec.Range.End().Frames(seq.Rate),
				StartOffset: sec.StartOffset.Frames(seq.Rate),
				Speed:       sec.SpeedOrOne().String(),
				Markers:     markerViews(sec.Markers, seq.Rate),
			})
		}
	}
	return view
}

func markerViews(ms []sequence.Marker, rate rational.Ratio) []MarkerView {
	out := make([]MarkerView, 0, len(ms))
	for _, m := range ms {
		out = append(out, MarkerView{
			Name:     m.Name,
			Frame:    m.Range.Start.Frames(rate),
			Duration: m.Range.Duration.Frames(rate),
			Color:    m.Color,
			Comment:  m.Comment,
		})
	}
	return out
}
