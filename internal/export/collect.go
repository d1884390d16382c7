// Package export walks a live sequence hierarchy and assembles the
// equivalent timeline: the inverse of the import mapping.
//
// Each sequence becomes a Stack whose tracks are its shot track rows, with
// gaps filling the time between sections. A section whose child has sections
// of its own becomes a nested Stack; any other section becomes a Clip with a
// missing media reference spanning the child's playback range. Every Stack
// and Clip carries its sequence path in metadata, so the result imports back
// onto the same hierarchy.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
	"github.com/roach88/otioseq/internal/timeline"
)

// Result is a collected timeline plus the warnings raised building it.
type Result struct {
	Timeline *timeline.Timeline
	Warnings syncerr.Warnings
}

type collector struct {
	reader     sequence.Reader
	dispatcher *hooks.Dispatcher
	warnings   syncerr.Warnings
	cache      map[string]*sequence.Sequence
	ancestors  map[string]bool
	clips      int
}

// Collect builds the timeline for the sequence at rootPath.
//
// Returns a PreconditionError if the root does not exist. post_export_clip
// hooks run on each clip as it is built; post_export_timeline hooks run last
// on the assembled timeline and may replace it.
func Collect(ctx context.Context, reader sequence.Reader, rootPath string, d *hooks.Dispatcher) (*Result, error) {
	c := &collector{
		reader:     reader,
		dispatcher: d,
		cache:      make(map[string]*sequence.Sequence),
		ancestors:  make(map[string]bool),
	}

	root, err := c.read(ctx, rootPath)
	if errors.Is(err, sequence.ErrNotFound) {
		return nil, syncerr.NewPreconditionError(rootPath)
	}
	if err != nil {
		return nil, err
	}

	// The root's track time starts at the playback start, which becomes the
	// global start time.
	playback := playbackOf(root)
	start := playback.Start
	window := rational.Range{Start: rational.FromFrames(0, start.Rate), Duration: playback.Duration}
	stack, err := c.stack(ctx, root, window, start)
	if err != nil {
		return nil, err
	}

	tl := &timeline.Timeline{
		Name:            root.Name(),
		GlobalStartTime: &start,
		Tracks:          stack,
	}

	tl, err = c.dispatcher.InvokeTimeline(hooks.PostExportTimeline, tl, nil)
	if err != nil {
		return nil, err
	}

	slog.Debug("timeline collected", "root", root.Path, "sequences", len(c.cache), "clips", c.clips, "warnings", len(c.warnings))
	return &Result{Timeline: tl, Warnings: c.warnings}, nil
}

func (c *collector) read(ctx context.Context, path string) (*sequence.Sequence, error) {
	key := sequence.Key(path)
	if seq, ok := c.cache[key]; ok {
		return seq, nil
	}
	seq, err := c.reader.Sequence(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("export: read %s: %w", path, err)
	}
	c.cache[key] = seq
	return seq, nil
}

// stack builds the Stack for seq trimmed to window. Sections are laid out in
// track time, which is sequence time less origin; window is in track time.
func (c *collector) stack(ctx context.Context, seq *sequence.Sequence, window rational.Range, origin rational.Time) (*timeline.Stack, error) {
	key := sequence.Key(seq.Path)
	if c.ancestors[key] {
		return nil, syncerr.NewResolutionError(seq.Name(),
			fmt.Sprintf("sequence %s references itself through its sub-sequences", seq.Path))
	}
	c.ancestors[key] = true
	defer delete(c.ancestors, key)

	stack := &timeline.Stack{
		Name:        seq.Name(),
		Markers:     toMarkers(seq.Markers),
		SourceRange: &window,
	}
	timeline.SetSubSequencePath(stack, seq.Path)

	if seq.SectionCount() == 0 {
		stack.Children = []*timeline.Track{{Name: trackName(0), Kind: timeline.TrackVideo}}
		return stack, nil
	}

	lanes, err := c.layout(seq, origin)
	if err != nil {
		return nil, err
	}
	for i, lane := range lanes {
		track := &timeline.Track{Name: trackName(i), Kind: timeline.TrackVideo}
		cursor := origin
		for _, sec := range lane {
			if gap := sec.Range.Start.Sub(cursor); gap.Value.Sign() > 0 {
				track.Children = append(track.Children, &timeline.Gap{Length: gap})
			}
			item, err := c.item(ctx, sec)
			if err != nil {
				return nil, err
			}
			track.Children = append(track.Children, item)
			cursor = sec.Range.End()
		}
		stack.Children = append(stack.Children, track)
	}
	return stack, nil
}

// layout groups sections into tracks. Row r becomes track r; a section
// overlapping an earlier one on its row moves to an extra track appended
// after the rows, with a warning.
func (c *collector) layout(seq *sequence.Sequence, origin rational.Time) ([][]*sequence.Section, error) {
	sections := append([]*sequence.Section(nil), seq.Shots.Sections...)
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Row != sections[j].Row {
			return sections[i].Row < sections[j].Row
		}
		return sections[i].Range.Start.Cmp(sections[j].Range.Start) < 0
	})

	rows := 0
	for _, sec := range sections {
		if sec.Row < 0 {
			return nil, fmt.Errorf("export: %s: section %s has negative row %d", seq.Path, sec.SubSequence, sec.Row)
		}
		rows = max(rows, sec.Row+1)
	}

	lanes := make([][]*sequence.Section, rows)
	ends := make([]rational.Time, rows)
	for i := range ends {
		ends[i] = origin
	}

	for _, sec := range sections {
		if sec.Range.Start.Cmp(origin) < 0 {
			c.warnings.Add(syncerr.FeatureLayout, sequence.AssetName(sec.SubSequence),
				"section starts before the start of %s; skipped", seq.Path)
			continue
		}
		lane := sec.Row
		if sec.Range.Start.Cmp(ends[lane]) < 0 {
			c.warnings.Add(syncerr.FeatureLayout, sequence.AssetName(sec.SubSequence),
				"section overlaps another on row %d; moved to its own track", sec.Row)
			lane = -1
			for i := rows; i < len(lanes); i++ {
				if sec.Range.Start.Cmp(ends[i]) >= 0 {
					lane = i
					break
				}
			}
			if lane < 0 {
				lanes = append(lanes, nil)
				ends = append(ends, origin)
				lane = len(lanes) - 1
			}
		}
		lanes[lane] = append(lanes[lane], sec)
		ends[lane] = sec.Range.End()
	}
	return lanes, nil
}

func (c *collector) item(ctx context.Context, sec *sequence.Section) (timeline.Item, error) {
	window := rational.Range{Start: sec.StartOffset, Duration: sec.Range.Duration}

	child, err := c.read(ctx, sec.SubSequence)
	if err != nil && !errors.Is(err, sequence.ErrNotFound) {
		return nil, err
	}
	if child != nil && child.SectionCount() > 0 {
		return c.stack(ctx, child, window, rational.FromFrames(0, child.Rate))
	}

	clip := &timeline.Clip{
		Name:           sequence.AssetName(sec.SubSequence),
		SourceRange:    window,
		MediaReference: timeline.MediaReference{Kind: timeline.MediaMissing},
		Markers:        toMarkers(sec.Markers),
	}
	if child != nil && child.PlaybackRange != nil {
		avail := *child.PlaybackRange
		clip.MediaReference.AvailableRange = &avail
	}
	if speed := sec.SpeedOrOne(); !speed.Equal(rational.One) {
		clip.Effects = []timeline.Effect{{
			Name:       "speed",
			Kind:       timeline.EffectLinearTimeWarp,
			TimeScalar: speed,
		}}
	}
	timeline.SetSubSequencePath(clip, sec.SubSequence)

	if _, err := c.dispatcher.Invoke(hooks.PostExportClip, clip, nil); err != nil {
		return nil, err
	}
	c.clips++
	return clip, nil
}

func playbackOf(seq *sequence.Sequence) rational.Range {
	if seq.PlaybackRange != nil {
		return *seq.PlaybackRange
	}
	return rational.NewRange(0, 0, seq.Rate)
}

func trackName(i int) string {
	return fmt.Sprintf("Video %d", i+1)
}

func toMarkers(in []sequence.Marker) []timeline.Marker {
	out := make([]timeline.Marker, 0, len(in))
	for _, m := range in {
		out = append(out, timeline.Marker{
			Name:        m.Name,
			MarkedRange: m.Range,
			Color:       m.Color,
			Comment:     m.Comment,
		})
	}
	return out
}
