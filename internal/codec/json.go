package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/otioseq/internal/timeline"
)

// JSON reads and writes the OTIO JSON interchange form. It also claims the
// .otio suffix, which is the same encoding.
type JSON struct{}

func (JSON) Name() string       { return "json" }
func (JSON) Suffixes() []string { return []string{"json", "otio"} }

// Decode implements Codec.
func (JSON) Decode(r io.Reader) (*timeline.Timeline, error) {
	var doc timelineDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json timeline: %w", err)
	}
	tl, err := decodeTimeline(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode json timeline: %w", err)
	}
	return tl, nil
}

// Encode implements Codec. Output is indented with four spaces and ends
// with a newline.
func (JSON) Encode(w io.Writer, tl *timeline.Timeline) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(encodeTimeline(tl)); err != nil {
		return fmt.Errorf("encode json timeline: %w", err)
	}
	return nil
}
