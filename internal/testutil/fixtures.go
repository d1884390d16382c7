// Package testutil holds fixture builders and helpers shared by tests.
//
// Timelines built here use 24 fps whole frames unless stated otherwise, so
// expected values in tests can be written as frame counts.
package testutil

import (
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/timeline"
)

// Rate is the frame rate used by fixture builders.
var Rate = rational.Int(24)

// F returns n frames at Rate.
func F(n int64) rational.Time {
	return rational.FromFrames(n, Rate)
}

// R returns the range [start, start+dur) in frames at Rate.
func R(start, dur int64) rational.Range {
	return rational.NewRange(start, dur, Rate)
}

// Clip builds a clip trimmed to [start, start+dur). A non-empty path is
// stored as the clip's sub-sequence metadata.
func Clip(name, path string, start, dur int64) *timeline.Clip {
	c := &timeline.Clip{
		Name:        name,
		SourceRange: R(start, dur),
	}
	if path != "" {
		timeline.SetSubSequencePath(c, path)
	}
	return c
}

// WithAvailableRange sets the clip's media available range.
func WithAvailableRange(c *timeline.Clip, start, dur int64) *timeline.Clip {
	r := R(start, dur)
	c.MediaReference = timeline.MediaReference{Kind: timeline.MediaMissing, AvailableRange: &r}
	return c
}

// WithMarker appends a marker to the clip.
func WithMarker(c *timeline.Clip, name, color string, start, dur int64) *timeline.Clip {
	c.Markers = append(c.Markers, timeline.Marker{Name: name, Color: color, MarkedRange: R(start, dur)})
	return c
}

// WithSpeed appends a linear time warp to the clip.
func WithSpeed(c *timeline.Clip, scalar rational.Ratio) *timeline.Clip {
	c.Effects = append(c.Effects, timeline.Effect{
		Name:       "speed",
		Kind:       timeline.EffectLinearTimeWarp,
		TimeScalar: scalar,
	})
	return c
}

// Gap builds a gap of dur frames.
func Gap(dur int64) *timeline.Gap {
	return &timeline.Gap{Length: F(dur)}
}

// VideoTrack builds a video track.
func VideoTrack(name string, items ...timeline.Item) *timeline.Track {
	return &timeline.Track{Name: name, Kind: timeline.TrackVideo, Children: items}
}

// AudioTrack builds an audio track.
func AudioTrack(name string, items ...timeline.Item) *timeline.Track {
	return &timeline.Track{Name: name, Kind: timeline.TrackAudio, Children: items}
}

// Stack builds a stack. A non-empty path is stored as sub-sequence metadata.
func Stack(name, path string, tracks ...*timeline.Track) *timeline.Stack {
	s := &timeline.Stack{Name: name, Children: tracks}
	if path != "" {
		timeline.SetSubSequencePath(s, path)
	}
	return s
}

// Timeline wraps a root stack in a timeline starting at frame 0.
func Timeline(name string, root *timeline.Stack) *timeline.Timeline {
	start := F(0)
	return &timeline.Timeline{Name: name, GlobalStartTime: &start, Tracks: root}
}
