package timeline

import (
	"github.com/roach88/otioseq/internal/rational"
)

// Node is anything a hook can receive: a *Timeline, *Stack or *Clip.
type Node interface {
	// Meta returns the node's metadata, allocating it on first use.
	Meta() Metadata
	// NodeName returns the node's display name.
	NodeName() string
}

// Item is a child of a Track: *Clip, *Gap, *Stack or *Transition.
type Item interface {
	// Duration is the item's extent on its parent track. Transitions
	// overlap their neighbours and report zero.
	Duration() rational.Time
	isItem()
}

// TrackKind distinguishes picture from sound tracks.
type TrackKind string

const (
	TrackVideo TrackKind = "Video"
	TrackAudio TrackKind = "Audio"
)

// Timeline is the root of an editorial document.
type Timeline struct {
	Name            string
	GlobalStartTime *rational.Time
	Tracks          *Stack
	Metadata        Metadata
}

// Stack layers tracks over a shared time base.
type Stack struct {
	Name        string
	Children    []*Track
	Markers     []Marker
	Metadata    Metadata
	SourceRange *rational.Range
}

// Track is an ordered, contiguous run of items.
type Track struct {
	Name     string
	Kind     TrackKind
	Children []Item
	Metadata Metadata
}

// Clip is a trimmed use of some media.
type Clip struct {
	Name           string
	SourceRange    rational.Range
	MediaReference MediaReference
	Markers        []Marker
	Effects        []Effect
	Metadata       Metadata
}

// Gap is empty time on a track.
type Gap struct {
	Name   string
	Length rational.Time
}

// Transition blends two adjacent items. It has no mapping onto a shot track.
type Transition struct {
	Name           string
	TransitionType string
	InOffset       rational.Time
	OutOffset      rational.Time
}

// Marker annotates a range of its owner's time.
type Marker struct {
	Name        string
	MarkedRange rational.Range
	Color       string
	Comment     string
}

// Effect kinds the mapping understands.
const (
	EffectLinearTimeWarp = "LinearTimeWarp"
	EffectFreezeFrame    = "FreezeFrame"
)

// Effect is a clip effect. Only LinearTimeWarp carries a mapping.
type Effect struct {
	Name       string
	Kind       string
	TimeScalar rational.Ratio
}

// MediaReferenceKind identifies what a clip's media points at.
type MediaReferenceKind string

const (
	MediaMissing       MediaReferenceKind = "Missing"
	MediaExternal      MediaReferenceKind = "External"
	MediaImageSequence MediaReferenceKind = "ImageSequence"
)

// MediaReference locates a clip's media. The zero value is a missing reference.
type MediaReference struct {
	Kind           MediaReferenceKind
	TargetURL      string
	AvailableRange *rational.Range
	ImageSequence  *ImageSequence
}

// ImageSequence describes numbered frame files.
type ImageSequence struct {
	TargetURLBase    string
	NamePrefix       string
	NameSuffix       string
	StartFrame       int64
	FrameStep        int64
	Rate             rational.Ratio
	FrameZeroPadding int
}

// IsMissing reports whether the reference points at nothing.
func (m MediaReference) IsMissing() bool {
	return m.Kind == "" || m.Kind == MediaMissing
}

func (t *Timeline) Meta() Metadata {
	if t.Metadata == nil {
		t.Metadata = Metadata{}
	}
	return t.Metadata
}

func (t *Timeline) NodeName() string { return t.Name }

func (s *Stack) Meta() Metadata {
	if s.Metadata == nil {
		s.Metadata = Metadata{}
	}
	return s.Metadata
}

func (s *Stack) NodeName() string { return s.Name }

func (c *Clip) Meta() Metadata {
	if c.Metadata == nil {
		c.Metadata = Metadata{}
	}
	return c.Metadata
}

func (c *Clip) NodeName() string { return c.Name }

func (*Clip) isItem()       {}
func (*Gap) isItem()        {}
func (*Stack) isItem()      {}
func (*Transition) isItem() {}

// Duration of a clip is its trimmed source duration.
func (c *Clip) Duration() rational.Time { return c.SourceRange.Duration }

// Duration of a gap is its length.
func (g *Gap) Duration() rational.Time { return g.Length }

// Duration of a transition is zero: it overlaps its neighbours.
func (t *Transition) Duration() rational.Time { return rational.Time{} }

// Duration of a stack is its source range when trimmed, else its longest track.
func (s *Stack) Duration() rational.Time {
	if s.SourceRange != nil {
		return s.SourceRange.Duration
	}
	var longest rational.Time
	for _, tr := range s.Children {
		if d := tr.Duration(); d.Cmp(longest) > 0 {
			longest = d
		}
	}
	return longest
}

// Duration of a track is the sum of its items.
func (tr *Track) Duration() rational.Time {
	var total rational.Time
	for _, it := range tr.Children {
		total = total.Add(it.Duration())
	}
	return total
}

// RangeOfChild returns the track-space range occupied by the i-th item.
// Items are contiguous, so the start is the sum of preceding durations.
func (tr *Track) RangeOfChild(i int) rational.Range {
	var start rational.Time
	for _, it := range tr.Children[:i] {
		start = start.Add(it.Duration())
	}
	dur := tr.Children[i].Duration()
	if start.Rate.IsZero() {
		start = rational.Time{Value: rational.Int(0), Rate: dur.Rate}
	}
	return rational.Range{Start: start, Duration: dur}
}

// Rate returns the timeline's frame rate: the global start time's rate if
// set, else the first rate found walking the tracks.
func (t *Timeline) Rate() rational.Ratio {
	if t.GlobalStartTime != nil && !t.GlobalStartTime.Rate.IsZero() {
		return t.GlobalStartTime.Rate
	}
	if t.Tracks != nil {
		if r := t.Tracks.Duration().Rate; !r.IsZero() {
			return r
		}
	}
	return rational.Int(24)
}
