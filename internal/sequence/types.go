package sequence

import (
	"context"
	"errors"
	"sort"

	"github.com/roach88/otioseq/internal/rational"
)

// ErrNotFound is returned by a Reader when no sequence exists at a path.
var ErrNotFound = errors.New("sequence not found")

// Reader reads live sequences from the host. Sequence returns the sequence at
// path with its shot track sections populated but Section.Child left nil.
type Reader interface {
	Sequence(ctx context.Context, path string) (*Sequence, error)
}

// Sequence is a sequence asset: a playback range, markers and a shot track.
//
// In a plan, a nil PlaybackRange, Markers or Shots means the plan is silent
// about that attribute and an existing value must be left alone. Sequences
// read from the host always have all three set.
type Sequence struct {
	Path          string
	Rate          rational.Ratio
	PlaybackRange *rational.Range
	Markers       []Marker
	Shots         *ShotTrack

	// InitialRange is the playback range to use when the sequence has to be
	// created and the plan is silent about PlaybackRange (plans only).
	InitialRange *rational.Range

	// Properties are host-side attributes the mapping never reads or writes.
	Properties map[string]string
}

// ShotTrack holds the sections of a sequence in position order.
type ShotTrack struct {
	Sections []*Section
}

// Section places a child sequence on its parent's timeline.
type Section struct {
	// ID is the host's handle for a live section; zero in plans.
	ID int64

	// SubSequence is the referenced child sequence path.
	SubSequence string

	// Range is the section's extent in parent time.
	Range rational.Range

	// StartOffset is the first frame of the child played by the section.
	StartOffset rational.Time

	// Row is the shot track row (one per source video track).
	Row int

	// Speed is the linear playback-rate multiplier.
	Speed rational.Ratio

	Markers []Marker

	// Child is the planned subtree (plans only).
	Child *Sequence
}

// Marker is a named, coloured range.
type Marker struct {
	Name    string
	Range   rational.Range
	Color   string
	Comment string
}

// Name returns the asset name of the sequence.
func (s *Sequence) Name() string {
	return AssetName(s.Path)
}

// SectionCount returns the number of sections, tolerating a nil shot track.
func (s *Sequence) SectionCount() int {
	if s.Shots == nil {
		return 0
	}
	return len(s.Shots.Sections)
}

// SpeedOrOne returns the section speed, treating an unset speed as 1.
func (sec *Section) SpeedOrOne() rational.Ratio {
	if sec.Speed.Den == 0 && sec.Speed.Num == 0 {
		return rational.One
	}
	return sec.Speed
}

// Equal compares two markers structurally.
func (m Marker) Equal(o Marker) bool {
	return m.Name == o.Name && m.Color == o.Color && m.Comment == o.Comment && m.Range.Equal(o.Range)
}

// Quantize snaps the marker range to whole frames at rate.
func (m Marker) Quantize(rate rational.Ratio) Marker {
	m.Range = m.Range.Quantize(rate)
	return m
}

// SortMarkers orders markers by start, then name, then colour.
func SortMarkers(ms []Marker) {
	sort.SliceStable(ms, func(i, j int) bool {
		if c := ms[i].Range.Start.Cmp(ms[j].Range.Start); c != 0 {
			return c < 0
		}
		if ms[i].Name != ms[j].Name {
			return ms[i].Name < ms[j].Name
		}
		return ms[i].Color < ms[j].Color
	})
}

// MarkerSetsEqual compares two marker sets ignoring order.
func MarkerSetsEqual(a, b []Marker) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]Marker(nil), a...)
	bs := append([]Marker(nil), b...)
	SortMarkers(as)
	SortMarkers(bs)
	for i := range as {
		if !as[i].Equal(bs[i]) {
			return false
		}
	}
	return true
}

// Walk visits s and every planned descendant in pre-order, each path once.
func Walk(s *Sequence, fn func(*Sequence) error) error {
	seen := map[string]bool{}
	var visit func(*Sequence) error
	visit = func(cur *Sequence) error {
		if cur == nil || seen[Key(cur.Path)] {
			return nil
		}
		seen[Key(cur.Path)] = true
		if err := fn(cur); err != nil {
			return err
		}
		if cur.Shots == nil {
			return nil
		}
		for _, sec := range cur.Shots.Sections {
			if err := visit(sec.Child); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(s)
}
