package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/otioseq/internal/timeline"
)

// YAML reads and writes the same document shape as JSON in YAML form.
type YAML struct{}

func (YAML) Name() string       { return "yaml" }
func (YAML) Suffixes() []string { return []string{"yaml", "yml"} }

// Decode implements Codec.
func (YAML) Decode(r io.Reader) (*timeline.Timeline, error) {
	var doc timelineDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml timeline: %w", err)
	}
	tl, err := decodeTimeline(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode yaml timeline: %w", err)
	}
	return tl, nil
}

// Encode implements Codec.
func (YAML) Encode(w io.Writer, tl *timeline.Timeline) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(encodeTimeline(tl)); err != nil {
		return fmt.Errorf("encode yaml timeline: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml timeline: %w", err)
	}
	return nil
}
