package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
)

type reconciler struct {
	reader  sequence.Reader
	ops     []Op
	visited map[string]bool
}

// Reconcile classifies every node of a planned tree against the live
// hierarchy and returns the ordered mutation plan. It only reads.
//
// The root sequence must already exist; otherwise a PreconditionError is
// returned. Sections are matched by referenced sub-sequence path, never by
// position, so retiming or reordering a shot is an UPDATE.
func Reconcile(ctx context.Context, planned *sequence.Sequence, reader sequence.Reader) (*Plan, error) {
	existing, err := reader.Sequence(ctx, planned.Path)
	if errors.Is(err, sequence.ErrNotFound) {
		return nil, syncerr.NewPreconditionError(planned.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reconcile: read root: %w", err)
	}

	r := &reconciler{reader: reader, visited: make(map[string]bool)}
	if err := r.visit(ctx, planned, existing, ""); err != nil {
		return nil, err
	}

	plan := &Plan{Root: planned.Path, Ops: r.ops}
	slog.Debug("plan reconciled",
		"root", plan.Root,
		"create", plan.Count(Create),
		"update", plan.Count(Update),
		"unchanged", plan.Count(Unchanged),
		"remove", plan.Count(Remove))
	return plan, nil
}

// visit emits the op for seq, then for each planned section the child's
// subtree followed by the section op itself.
func (r *reconciler) visit(ctx context.Context, seq, existing *sequence.Sequence, parent string) error {
	r.visited[sequence.Key(seq.Path)] = true

	op := Op{Target: TargetSequence, Path: seq.Path, Parent: parent, Index: -1, Sequence: seq}
	if existing == nil {
		op.Kind = Create
		op.Rate = seq.Rate
	} else {
		op.Rate = existing.Rate
		op.Changes = diffSequence(seq, existing)
		op.Kind = Unchanged
		if len(op.Changes) > 0 {
			op.Kind = Update
		}
	}
	r.ops = append(r.ops, op)

	if seq.Shots == nil {
		return nil
	}

	var live []*sequence.Section
	if existing != nil && existing.Shots != nil {
		live = existing.Shots.Sections
	}
	index := indexSections(live)
	position := make(map[*sequence.Section]int, len(live))
	for i, sec := range live {
		position[sec] = i
	}
	matched := make(map[*sequence.Section]bool)
	occurrence := make(map[string]int)

	for i, sec := range seq.Shots.Sections {
		if err := r.visitChild(ctx, sec, seq.Path); err != nil {
			return err
		}

		key := sectionKey(sec.SubSequence, occurrence)
		secOp := Op{
			Target:  TargetSection,
			Path:    sec.SubSequence,
			Parent:  seq.Path,
			Index:   i,
			Rate:    op.Rate,
			Section: sec,
		}
		if prior, ok := index[key]; ok {
			matched[prior] = true
			secOp.Existing = prior
			secOp.Changes = diffSection(sec, prior, op.Rate)
			if position[prior] != i {
				secOp.Changes = append(secOp.Changes, "position")
			}
			secOp.Kind = Unchanged
			if len(secOp.Changes) > 0 {
				secOp.Kind = Update
			}
		} else {
			secOp.Kind = Create
		}
		r.ops = append(r.ops, secOp)
	}

	for _, prior := range live {
		if matched[prior] {
			continue
		}
		r.ops = append(r.ops, Op{
			Kind:     Remove,
			Target:   TargetSection,
			Path:     prior.SubSequence,
			Parent:   seq.Path,
			Index:    -1,
			Rate:     op.Rate,
			Existing: prior,
		})
	}
	return nil
}

func (r *reconciler) visitChild(ctx context.Context, sec *sequence.Section, parent string) error {
	child := sec.Child
	if child == nil {
		child = &sequence.Sequence{Path: sec.SubSequence}
	}
	if r.visited[sequence.Key(child.Path)] {
		return nil
	}

	existing, err := r.reader.Sequence(ctx, child.Path)
	if errors.Is(err, sequence.ErrNotFound) {
		existing = nil
	} else if err != nil {
		return fmt.Errorf("reconcile: read %s: %w", child.Path, err)
	}
	return r.visit(ctx, child, existing, parent)
}

// indexSections keys live sections by sub-sequence path and occurrence, so
// the n-th reference to a child matches the n-th live reference to it.
func indexSections(live []*sequence.Section) map[string]*sequence.Section {
	index := make(map[string]*sequence.Section, len(live))
	occurrence := make(map[string]int)
	for _, sec := range live {
		index[sectionKey(sec.SubSequence, occurrence)] = sec
	}
	return index
}

func sectionKey(path string, occurrence map[string]int) string {
	k := sequence.Key(path)
	n := occurrence[k]
	occurrence[k] = n + 1
	return fmt.Sprintf("%s#%d", k, n)
}

// diffSequence lists the attributes the plan manages that differ from the
// live sequence, after snapping the plan to the live rate.
func diffSequence(planned, live *sequence.Sequence) []string {
	var changes []string
	if planned.PlaybackRange != nil {
		want := planned.PlaybackRange.Quantize(live.Rate)
		if live.PlaybackRange == nil || !want.Equal(*live.PlaybackRange) {
			changes = append(changes, "playback_range")
		}
	}
	if planned.Markers != nil && !sequence.MarkerSetsEqual(quantizeMarkers(planned.Markers, live.Rate), live.Markers) {
		changes = append(changes, "markers")
	}
	return changes
}

func diffSection(planned, live *sequence.Section, rate rational.Ratio) []string {
	var changes []string
	if !planned.Range.Quantize(rate).Equal(live.Range) {
		changes = append(changes, "range")
	}
	if !planned.StartOffset.Quantize(rate).Equal(live.StartOffset) {
		changes = append(changes, "start_offset")
	}
	if planned.Row != live.Row {
		changes = append(changes, "row")
	}
	if !planned.SpeedOrOne().Equal(live.SpeedOrOne()) {
		changes = append(changes, "speed")
	}
	if !sequence.MarkerSetsEqual(quantizeMarkers(planned.Markers, rate), live.Markers) {
		changes = append(changes, "markers")
	}
	return changes
}

func quantizeMarkers(ms []sequence.Marker, rate rational.Ratio) []sequence.Marker {
	out := make([]sequence.Marker, len(ms))
	for i, m := range ms {
		out[i] = m.Quantize(rate)
	}
	return out
}
