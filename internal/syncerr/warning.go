package syncerr

import "fmt"

// Feature names an unsupported construct.
type Feature string

const (
	FeatureAudio         Feature = "audio"
	FeatureTransition    Feature = "transition"
	FeatureEffect        Feature = "effect"
	FeatureColorDecision Feature = "color_decision_list"
	FeatureDuplicateShot Feature = "duplicate_sub_sequence"

	// FeatureLayout reports sections that do not fit a track on export.
	FeatureLayout Feature = "section_layout"
)

// Warning is a non-fatal report that a construct was skipped.
type Warning struct {
	Feature Feature `json:"feature"`
	Item    string  `json:"item,omitempty"`
	Message string  `json:"message"`
}

func (w Warning) String() string {
	if w.Item != "" {
		return fmt.Sprintf("%s: %s (%s)", w.Feature, w.Message, w.Item)
	}
	return fmt.Sprintf("%s: %s", w.Feature, w.Message)
}

// Warnings accumulates warnings in encounter order.
type Warnings []Warning

// Add appends a warning.
func (ws *Warnings) Add(feature Feature, item, format string, args ...any) {
	*ws = append(*ws, Warning{Feature: feature, Item: item, Message: fmt.Sprintf(format, args...)})
}
