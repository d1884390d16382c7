package codec

import (
	"fmt"
	"strings"

	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/timeline"
)

// schemaName strips the version from an OTIO_SCHEMA value: "Clip.2" -> "Clip".
func schemaName(schema string) string {
	name, _, _ := strings.Cut(schema, ".")
	return name
}

// ---- timeline -> document ----

func encodeTimeline(tl *timeline.Timeline) *timelineDoc {
	doc := &timelineDoc{
		Schema:   schemaTimeline,
		Name:     tl.Name,
		Metadata: tl.Metadata,
	}
	if tl.GlobalStartTime != nil {
		t := encodeTime(*tl.GlobalStartTime)
		doc.GlobalStartTime = &t
	}
	if tl.Tracks != nil {
		doc.Tracks = encodeStack(tl.Tracks)
	}
	return doc
}

func encodeStack(s *timeline.Stack) *itemDoc {
	doc := &itemDoc{
		Schema:   schemaStack,
		Name:     s.Name,
		Markers:  encodeMarkers(s.Markers),
		Metadata: s.Metadata,
	}
	if s.SourceRange != nil {
		r := encodeRange(*s.SourceRange)
		doc.SourceRange = &r
	}
	for _, tr := range s.Children {
		doc.Children = append(doc.Children, encodeTrack(tr))
	}
	return doc
}

func encodeTrack(tr *timeline.Track) *itemDoc {
	doc := &itemDoc{
		Schema:   schemaTrack,
		Name:     tr.Name,
		Kind:     string(tr.Kind),
		Metadata: tr.Metadata,
	}
	for _, it := range tr.Children {
		doc.Children = append(doc.Children, encodeItem(it))
	}
	return doc
}

func encodeItem(it timeline.Item) *itemDoc {
	switch v := it.(type) {
	case *timeline.Clip:
		return encodeClip(v)
	case *timeline.Stack:
		return encodeStack(v)
	case *timeline.Gap:
		r := encodeRange(rational.Range{
			Start:    rational.Time{Value: rational.Int(0), Rate: v.Length.Rate},
			Duration: v.Length,
		})
		return &itemDoc{Schema: schemaGap, Name: v.Name, SourceRange: &r}
	case *timeline.Transition:
		in, out := encodeTime(v.InOffset), encodeTime(v.OutOffset)
		return &itemDoc{
			Schema:         schemaTransition,
			Name:           v.Name,
			TransitionType: v.TransitionType,
			InOffset:       &in,
			OutOffset:      &out,
		}
	default:
		panic(fmt.Sprintf("codec: unknown item type %T", it))
	}
}

func encodeClip(c *timeline.Clip) *itemDoc {
	r := encodeRange(c.SourceRange)
	doc := &itemDoc{
		Schema:                  schemaClip,
		Name:                    c.Name,
		SourceRange:             &r,
		MediaReferences:         map[string]*mediaDoc{defaultMediaKey: encodeMedia(c.MediaReference)},
		ActiveMediaReferenceKey: defaultMediaKey,
		Markers:                 encodeMarkers(c.Markers),
		Metadata:                c.Metadata,
	}
	for _, e := range c.Effects {
		doc.Effects = append(doc.Effects, encodeEffect(e))
	}
	return doc
}

func encodeMedia(m timeline.MediaReference) *mediaDoc {
	doc := &mediaDoc{TargetURL: m.TargetURL}
	if m.AvailableRange != nil {
		r := encodeRange(*m.AvailableRange)
		doc.AvailableRange = &r
	}
	switch {
	case m.Kind == timeline.MediaImageSequence && m.ImageSequence != nil:
		seq := m.ImageSequence
		rate := Number(seq.Rate)
		doc.Schema = schemaImageSeqRef
		doc.TargetURL = ""
		doc.TargetURLBase = seq.TargetURLBase
		doc.NamePrefix = seq.NamePrefix
		doc.NameSuffix = seq.NameSuffix
		doc.StartFrame = seq.StartFrame
		doc.FrameStep = seq.FrameStep
		doc.Rate = &rate
		doc.FrameZeroPadding = seq.FrameZeroPadding
	case m.Kind == timeline.MediaExternal:
		doc.Schema = schemaExternalRef
	default:
		doc.Schema = schemaMissingRef
		doc.TargetURL = ""
	}
	return doc
}

func encodeEffect(e timeline.Effect) effectDoc {
	doc := effectDoc{Name: e.Name, EffectName: e.Kind}
	switch e.Kind {
	case timeline.EffectLinearTimeWarp:
		scalar := Number(e.TimeScalar)
		doc.Schema = schemaLinearTimeWarp
		doc.TimeScalar = &scalar
	case timeline.EffectFreezeFrame:
		zero := Number(rational.Int(0))
		doc.Schema = schemaFreezeFrame
		doc.TimeScalar = &zero
	default:
		doc.Schema = schemaEffect
	}
	return doc
}

func encodeMarkers(ms []timeline.Marker) []markerDoc {
	if len(ms) == 0 {
		return nil
	}
	out := make([]markerDoc, 0, len(ms))
	for _, m := range ms {
		out = append(out, markerDoc{
			Schema:      schemaMarker,
			Name:        m.Name,
			MarkedRange: encodeRange(m.MarkedRange),
			Color:       m.Color,
			Comment:     m.Comment,
		})
	}
	return out
}

func encodeTime(t rational.Time) timeDoc {
	return timeDoc{Schema: schemaRationalTime, Value: Number(t.Value), Rate: Number(t.Rate)}
}

func encodeRange(r rational.Range) rangeDoc {
	return rangeDoc{
		Schema:    schemaTimeRange,
		StartTime: encodeTime(r.Start),
		Duration:  encodeTime(r.Duration),
	}
}

// ---- document -> timeline ----

func decodeTimeline(doc *timelineDoc) (*timeline.Timeline, error) {
	if name := schemaName(doc.Schema); name != "Timeline" {
		return nil, fmt.Errorf("expected a Timeline, got %q", doc.Schema)
	}
	tl := &timeline.Timeline{Name: doc.Name, Metadata: doc.Metadata}
	if doc.GlobalStartTime != nil {
		t, err := decodeTime(*doc.GlobalStartTime)
		if err != nil {
			return nil, fmt.Errorf("global_start_time: %w", err)
		}
		tl.GlobalStartTime = &t
	}
	if doc.Tracks != nil {
		s, err := decodeStack(doc.Tracks)
		if err != nil {
			return nil, err
		}
		tl.Tracks = s
	}
	return tl, nil
}

func decodeStack(doc *itemDoc) (*timeline.Stack, error) {
	if name := schemaName(doc.Schema); name != "Stack" {
		return nil, fmt.Errorf("%s: expected a Stack, got %q", doc.Name, doc.Schema)
	}
	markers, err := decodeMarkers(doc.Markers)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", doc.Name, err)
	}
	s := &timeline.Stack{Name: doc.Name, Markers: markers, Metadata: doc.Metadata}
	if doc.SourceRange != nil {
		r, err := decodeRange(*doc.SourceRange)
		if err != nil {
			return nil, fmt.Errorf("stack %s: source_range: %w", doc.Name, err)
		}
		s.SourceRange = &r
	}
	for _, child := range doc.Children {
		tr, err := decodeTrack(child)
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", doc.Name, err)
		}
		s.Children = append(s.Children, tr)
	}
	return s, nil
}

func decodeTrack(doc *itemDoc) (*timeline.Track, error) {
	if name := schemaName(doc.Schema); name != "Track" {
		return nil, fmt.Errorf("%s: expected a Track, got %q", doc.Name, doc.Schema)
	}
	kind := timeline.TrackKind(doc.Kind)
	if kind == "" {
		kind = timeline.TrackVideo
	}
	tr := &timeline.Track{Name: doc.Name, Kind: kind, Metadata: doc.Metadata}
	for i, child := range doc.Children {
		it, err := decodeItem(child)
		if err != nil {
			return nil, fmt.Errorf("track %s item %d: %w", doc.Name, i, err)
		}
		tr.Children = append(tr.Children, it)
	}
	return tr, nil
}

func decodeItem(doc *itemDoc) (timeline.Item, error) {
	switch schemaName(doc.Schema) {
	case "Clip":
		return decodeClip(doc)
	case "Stack":
		return decodeStack(doc)
	case "Gap":
		if doc.SourceRange == nil {
			return nil, fmt.Errorf("gap %s: missing source_range", doc.Name)
		}
		r, err := decodeRange(*doc.SourceRange)
		if err != nil {
			return nil, fmt.Errorf("gap %s: %w", doc.Name, err)
		}
		return &timeline.Gap{Name: doc.Name, Length: r.Duration}, nil
	case "Transition":
		tr := &timeline.Transition{Name: doc.Name, TransitionType: doc.TransitionType}
		var err error
		if doc.InOffset != nil && !doc.InOffset.Rate.Ratio().IsZero() {
			if tr.InOffset, err = decodeTime(*doc.InOffset); err != nil {
				return nil, fmt.Errorf("transition %s: in_offset: %w", doc.Name, err)
			}
		}
		if doc.OutOffset != nil && !doc.OutOffset.Rate.Ratio().IsZero() {
			if tr.OutOffset, err = decodeTime(*doc.OutOffset); err != nil {
				return nil, fmt.Errorf("transition %s: out_offset: %w", doc.Name, err)
			}
		}
		return tr, nil
	default:
		return nil, fmt.Errorf("unsupported schema %q", doc.Schema)
	}
}

func decodeClip(doc *itemDoc) (*timeline.Clip, error) {
	if doc.SourceRange == nil {
		return nil, fmt.Errorf("clip %s: missing source_range", doc.Name)
	}
	r, err := decodeRange(*doc.SourceRange)
	if err != nil {
		return nil, fmt.Errorf("clip %s: source_range: %w", doc.Name, err)
	}
	markers, err := decodeMarkers(doc.Markers)
	if err != nil {
		return nil, fmt.Errorf("clip %s: %w", doc.Name, err)
	}
	c := &timeline.Clip{Name: doc.Name, SourceRange: r, Markers: markers, Metadata: doc.Metadata}

	media := doc.MediaReference
	if len(doc.MediaReferences) > 0 {
		key := doc.ActiveMediaReferenceKey
		if key == "" {
			key = defaultMediaKey
		}
		media = doc.MediaReferences[key]
	}
	if media != nil {
		if c.MediaReference, err = decodeMedia(media); err != nil {
			return nil, fmt.Errorf("clip %s: %w", doc.Name, err)
		}
	}

	for _, e := range doc.Effects {
		eff := timeline.Effect{Name: e.Name, Kind: e.EffectName}
		switch schemaName(e.Schema) {
		case "LinearTimeWarp":
			eff.Kind = timeline.EffectLinearTimeWarp
			eff.TimeScalar = rational.One
			if e.TimeScalar != nil {
				eff.TimeScalar = e.TimeScalar.Ratio()
			}
		case "FreezeFrame":
			eff.Kind = timeline.EffectFreezeFrame
		}
		c.Effects = append(c.Effects, eff)
	}
	return c, nil
}

func decodeMedia(doc *mediaDoc) (timeline.MediaReference, error) {
	var m timeline.MediaReference
	if doc.AvailableRange != nil {
		r, err := decodeRange(*doc.AvailableRange)
		if err != nil {
			return m, fmt.Errorf("available_range: %w", err)
		}
		m.AvailableRange = &r
	}
	switch schemaName(doc.Schema) {
	case "ExternalReference":
		m.Kind = timeline.MediaExternal
		m.TargetURL = doc.TargetURL
	case "ImageSequenceReference":
		m.Kind = timeline.MediaImageSequence
		seq := &timeline.ImageSequence{
			TargetURLBase:    doc.TargetURLBase,
			NamePrefix:       doc.NamePrefix,
			NameSuffix:       doc.NameSuffix,
			StartFrame:       doc.StartFrame,
			FrameStep:        doc.FrameStep,
			FrameZeroPadding: doc.FrameZeroPadding,
		}
		if doc.Rate != nil {
			seq.Rate = doc.Rate.Ratio()
		}
		m.ImageSequence = seq
	default:
		m.Kind = timeline.MediaMissing
	}
	return m, nil
}

func decodeMarkers(docs []markerDoc) ([]timeline.Marker, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]timeline.Marker, 0, len(docs))
	for _, d := range docs {
		r, err := decodeRange(d.MarkedRange)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", d.Name, err)
		}
		out = append(out, timeline.Marker{Name: d.Name, MarkedRange: r, Color: d.Color, Comment: d.Comment})
	}
	return out, nil
}

func decodeTime(doc timeDoc) (rational.Time, error) {
	rate := doc.Rate.Ratio()
	if rate.Sign() <= 0 {
		return rational.Time{}, fmt.Errorf("rate must be positive, got %s", rate)
	}
	return rational.Time{Value: doc.Value.Ratio(), Rate: rate}, nil
}

func decodeRange(doc rangeDoc) (rational.Range, error) {
	start, err := decodeTime(doc.StartTime)
	if err != nil {
		return rational.Range{}, fmt.Errorf("start_time: %w", err)
	}
	dur, err := decodeTime(doc.Duration)
	if err != nil {
		return rational.Range{}, fmt.Errorf("duration: %w", err)
	}
	if dur.Value.Sign() < 0 {
		return rational.Range{}, fmt.Errorf("negative duration %s", dur)
	}
	return rational.Range{Start: start, Duration: dur}, nil
}
