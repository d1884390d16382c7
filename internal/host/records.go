package host

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
)

// MarkerRecord is a marker in whole frames.
type MarkerRecord struct {
	Name     string `json:"name"`
	Frame    int64  `json:"frame"`
	Duration int64  `json:"duration"`
	Color    string `json:"color,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// SequenceRecord is a sequence row in whole frames at Rate.
type SequenceRecord struct {
	Path       string            `json:"path"`
	Rate       rational.Ratio    `json:"rate"`
	StartFrame int64             `json:"start_frame"`
	EndFrame   int64             `json:"end_frame"`
	Markers    []MarkerRecord    `json:"markers,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// SectionRecord is a section row in whole frames at the parent's rate.
type SectionRecord struct {
	ID          int64          `json:"-"`
	SubSequence string         `json:"sub_sequence"`
	Row         int            `json:"row"`
	Position    int            `json:"position"`
	StartFrame  int64          `json:"start_frame"`
	EndFrame    int64          `json:"end_frame"`
	StartOffset int64          `json:"start_offset"`
	Speed       rational.Ratio `json:"speed"`
	Markers     []MarkerRecord `json:"markers,omitempty"`
}

// snapshot is the complete stored state of one sequence.
type snapshot struct {
	Sequence SequenceRecord  `json:"sequence"`
	Sections []SectionRecord `json:"sections"`
}

func marshalSnapshot(s *snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

func unmarshalSnapshot(data string) (*snapshot, error) {
	var s snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func marshalProperties(props map[string]string) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

func unmarshalProperties(data string) (map[string]string, error) {
	props := map[string]string{}
	if data == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(data), &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return props, nil
}

// toSequence converts stored frames back into rational time.
func (s *snapshot) toSequence() *sequence.Sequence {
	rate := s.Sequence.Rate
	playback := rational.NewRange(s.Sequence.StartFrame, s.Sequence.EndFrame-s.Sequence.StartFrame, rate)

	seq := &sequence.Sequence{
		Path:          s.Sequence.Path,
		Rate:          rate,
		PlaybackRange: &playback,
		Markers:       toMarkers(s.Sequence.Markers, rate),
		Shots:         &sequence.ShotTrack{Sections: make([]*sequence.Section, 0, len(s.Sections))},
		Properties:    s.Sequence.Properties,
	}
	for _, rec := range s.Sections {
		seq.Shots.Sections = append(seq.Shots.Sections, &sequence.Section{
			ID:          rec.ID,
			SubSequence: rec.SubSequence,
			Range:       rational.NewRange(rec.StartFrame, rec.EndFrame-rec.StartFrame, rate),
			StartOffset: rational.FromFrames(rec.StartOffset, rate),
			Row:         rec.Row,
			Speed:       rec.Speed,
			Markers:     toMarkers(rec.Markers, rate),
		})
	}
	return seq
}

func toMarkers(recs []MarkerRecord, rate rational.Ratio) []sequence.Marker {
	out := make([]sequence.Marker, 0, len(recs))
	for _, m := range recs {
		out = append(out, sequence.Marker{
			Name:    m.Name,
			Range:   rational.NewRange(m.Frame, m.Duration, rate),
			Color:   m.Color,
			Comment: m.Comment,
		})
	}
	return out
}

// MarkerRecords converts markers to whole frames at rate, rounding each end
// to the nearest frame.
func MarkerRecords(ms []sequence.Marker, rate rational.Ratio) []MarkerRecord {
	out := make([]MarkerRecord, 0, len(ms))
	for _, m := range ms {
		q := m.Range.Quantize(rate)
		out = append(out, MarkerRecord{
			Name:     m.Name,
			Frame:    q.Start.Frames(rate),
			Duration: q.Duration.Frames(rate),
			Color:    m.Color,
			Comment:  m.Comment,
		})
	}
	return out
}
