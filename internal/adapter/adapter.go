// Package adapter converts a timeline into an unmaterialized sequence plan.
//
// It is a pure transform: nothing here reads or writes the host. Each Stack
// becomes a sequence whose shot track gets one row per video track; each Clip
// or nested Stack on those tracks becomes a section referencing a child
// sequence. Gaps only advance time. All times stay rational; rounding to host
// frames happens when the plan is applied.
package adapter

import (
	"fmt"
	"log/slog"

	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
	"github.com/roach88/otioseq/internal/timeline"
)

// Result is a planned sequence tree plus the warnings raised building it.
type Result struct {
	Root     *sequence.Sequence
	Warnings syncerr.Warnings
}

// colorDecisionKey is the metadata key under which colour decision lists
// travel; they have no mapping and are reported.
const colorDecisionKey = "cdl"

type planner struct {
	dispatcher *hooks.Dispatcher
	warnings   syncerr.Warnings

	// planned holds one plan node per sequence key; repeated references share it.
	planned map[string]*sequence.Sequence

	// ancestors holds the keys on the current path from the root, for cycle checks.
	ancestors map[string]bool
}

// PlanFromTimeline maps tl onto a sequence plan rooted at rootPath.
//
// The root stack maps onto rootPath when it is non-empty; otherwise the root
// stack must resolve its own path like any other stack. Every other Stack and
// Clip resolves its path from metadata, or failing that from the
// pre_import_item hooks. A node that still has no path is a ResolutionError.
func PlanFromTimeline(tl *timeline.Timeline, rootPath string, d *hooks.Dispatcher) (*Result, error) {
	p := &planner{
		dispatcher: d,
		planned:    make(map[string]*sequence.Sequence),
		ancestors:  make(map[string]bool),
	}

	stack := tl.Tracks
	if stack == nil {
		stack = &timeline.Stack{Name: "tracks"}
	}

	path := rootPath
	if path == "" {
		resolved, err := p.resolve(stack)
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	rate := tl.Rate()
	var origin rational.Time
	if tl.GlobalStartTime != nil {
		origin = *tl.GlobalStartTime
	} else {
		origin = rational.FromFrames(0, rate)
	}

	root, err := p.planStack(stack, path, rate, origin)
	if err != nil {
		return nil, err
	}

	slog.Debug("timeline planned",
		"root", root.Path,
		"sequences", len(p.planned),
		"warnings", len(p.warnings))

	return &Result{Root: root, Warnings: p.warnings}, nil
}

// resolve returns the sequence path for a Stack or Clip.
func (p *planner) resolve(node timeline.Node) (string, error) {
	if path, ok := timeline.SubSequencePath(node); ok {
		return path, nil
	}
	if !p.dispatcher.Has(hooks.PreImportItem) {
		return "", syncerr.NewResolutionError(node.NodeName(),
			fmt.Sprintf("no %s metadata and no %s hook registered", timeline.SubSequenceKey, hooks.PreImportItem))
	}
	if _, err := p.dispatcher.Invoke(hooks.PreImportItem, node, nil); err != nil {
		return "", err
	}
	if path, ok := timeline.SubSequencePath(node); ok {
		return path, nil
	}
	return "", syncerr.NewResolutionError(node.NodeName(),
		fmt.Sprintf("no %s metadata after %s hooks ran", timeline.SubSequenceKey, hooks.PreImportItem))
}

func (p *planner) enter(item, path string) (string, error) {
	key := sequence.Key(path)
	if p.ancestors[key] {
		return "", cycleError(item, path)
	}
	p.ancestors[key] = true
	return key, nil
}

func cycleError(item, path string) error {
	return syncerr.NewResolutionError(item,
		fmt.Sprintf("sequence %s references itself through its sub-sequences", path))
}

// planStack builds the sequence for stack. Track time zero lands on origin in
// sequence time; a source range on the stack trims the playback range without
// moving its sections.
func (p *planner) planStack(stack *timeline.Stack, path string, rate rational.Ratio, origin rational.Time) (*sequence.Sequence, error) {
	key, err := p.enter(stack.Name, path)
	if err != nil {
		return nil, err
	}
	defer delete(p.ancestors, key)

	playback := rational.Range{Start: origin, Duration: stack.Duration().Rescale(rate)}
	if stack.SourceRange != nil {
		playback = rational.Range{
			Start:    origin.Add(stack.SourceRange.Start).Rescale(rate),
			Duration: stack.SourceRange.Duration.Rescale(rate),
		}
	}

	seq := &sequence.Sequence{
		Path:          path,
		Rate:          rate,
		PlaybackRange: &playback,
		Markers:       convertMarkers(stack.Markers),
		Shots:         &sequence.ShotTrack{Sections: []*sequence.Section{}},
	}
	p.planned[key] = seq

	row := 0
	for _, track := range stack.Children {
		if track.Kind == timeline.TrackAudio {
			p.warnings.Add(syncerr.FeatureAudio, track.Name, "audio track skipped")
			continue
		}
		for i, item := range track.Children {
			r := track.RangeOfChild(i)
			r.Start = origin.Add(r.Start)

			var sec *sequence.Section
			switch it := item.(type) {
			case *timeline.Gap:
				continue
			case *timeline.Transition:
				p.warnings.Add(syncerr.FeatureTransition, it.Name, "transition %q skipped", it.TransitionType)
				continue
			case *timeline.Clip:
				sec, err = p.planClip(it, r)
			case *timeline.Stack:
				sec, err = p.planNestedStack(it, r)
			default:
				return nil, fmt.Errorf("plan %s: unexpected track item %T", path, item)
			}
			if err != nil {
				return nil, err
			}
			sec.Row = row
			seq.Shots.Sections = append(seq.Shots.Sections, sec)
		}
		row++
	}
	return seq, nil
}

func (p *planner) planClip(clip *timeline.Clip, r rational.Range) (*sequence.Section, error) {
	path, err := p.resolve(clip)
	if err != nil {
		return nil, err
	}
	key, err := p.enter(clip.Name, path)
	if err != nil {
		return nil, err
	}
	delete(p.ancestors, key)

	if _, ok := clip.Meta().Lookup(colorDecisionKey); ok {
		p.warnings.Add(syncerr.FeatureColorDecision, clip.Name, "colour decision list ignored")
	}

	child := &sequence.Sequence{Path: path}
	if avail := clip.MediaReference.AvailableRange; avail != nil {
		rng := *avail
		child.Rate = rng.Start.Rate
		child.PlaybackRange = &rng
	} else {
		rng := clip.SourceRange
		child.Rate = rng.Duration.Rate
		child.InitialRange = &rng
	}
	child = p.share(key, clip.Name, child)

	return &sequence.Section{
		SubSequence: path,
		Range:       r,
		StartOffset: clip.SourceRange.Start,
		Speed:       p.speed(clip),
		Markers:     convertMarkers(clip.Markers),
		Child:       child,
	}, nil
}

func (p *planner) planNestedStack(stack *timeline.Stack, r rational.Range) (*sequence.Section, error) {
	path, err := p.resolve(stack)
	if err != nil {
		return nil, err
	}
	if p.ancestors[sequence.Key(path)] {
		return nil, cycleError(stack.Name, path)
	}

	rate := stack.Duration().Rate
	if rate.IsZero() {
		rate = r.Duration.Rate
	}
	zero := rational.FromFrames(0, rate)
	start := zero
	if stack.SourceRange != nil {
		start = stack.SourceRange.Start
	}

	var child *sequence.Sequence
	if existing, ok := p.planned[sequence.Key(path)]; ok && existing.Shots != nil {
		child = existing
	} else {
		child, err = p.planStack(stack, path, rate, zero)
		if err != nil {
			return nil, err
		}
	}

	return &sequence.Section{
		SubSequence: path,
		Range:       r,
		StartOffset: start,
		Speed:       rational.One,
		Markers:     []sequence.Marker{},
		Child:       child,
	}, nil
}

// share returns the plan node already planned for key, or records child.
// A later reference that disagrees about the playback range loses, with a
// warning.
func (p *planner) share(key, item string, child *sequence.Sequence) *sequence.Sequence {
	existing, ok := p.planned[key]
	if !ok {
		p.planned[key] = child
		return child
	}
	if child.PlaybackRange != nil && existing.PlaybackRange != nil && !child.PlaybackRange.Equal(*existing.PlaybackRange) {
		p.warnings.Add(syncerr.FeatureDuplicateShot, item,
			"%s is referenced with different available ranges; keeping the first", child.Path)
	}
	return existing
}

// speed folds linear time warps into one multiplier and reports the rest.
func (p *planner) speed(clip *timeline.Clip) rational.Ratio {
	speed := rational.One
	for _, e := range clip.Effects {
		switch e.Kind {
		case timeline.EffectLinearTimeWarp:
			if e.TimeScalar.IsZero() {
				p.warnings.Add(syncerr.FeatureEffect, clip.Name, "zero-speed time warp %q ignored", e.Name)
				continue
			}
			speed = speed.Mul(e.TimeScalar)
		case timeline.EffectFreezeFrame:
			p.warnings.Add(syncerr.FeatureEffect, clip.Name, "freeze frame %q ignored", e.Name)
		default:
			p.warnings.Add(syncerr.FeatureEffect, clip.Name, "unsupported effect %q (%s) ignored", e.Name, e.Kind)
		}
	}
	return speed
}

func convertMarkers(in []timeline.Marker) []sequence.Marker {
	out := make([]sequence.Marker, 0, len(in))
	for _, m := range in {
		out = append(out, sequence.Marker{
			Name:    m.Name,
			Range:   m.MarkedRange,
			Color:   m.Color,
			Comment: m.Comment,
		})
	}
	return out
}
