package codec

import (
	"github.com/roach88/otioseq/internal/timeline"
)

// Schema names written on output. Input accepts any version of each.
const (
	schemaTimeline       = "Timeline.1"
	schemaStack          = "Stack.1"
	schemaTrack          = "Track.1"
	schemaClip           = "Clip.2"
	schemaGap            = "Gap.1"
	schemaTransition     = "Transition.1"
	schemaMarker         = "Marker.2"
	schemaRationalTime   = "RationalTime.1"
	schemaTimeRange      = "TimeRange.1"
	schemaLinearTimeWarp = "LinearTimeWarp.1"
	schemaFreezeFrame    = "FreezeFrame.1"
	schemaEffect         = "Effect.1"
	schemaMissingRef     = "MissingReference.1"
	schemaExternalRef    = "ExternalReference.1"
	schemaImageSeqRef    = "ImageSequenceReference.1"
)

// defaultMediaKey is the media_references key a Clip.2 uses for its only reference.
const defaultMediaKey = "DEFAULT_MEDIA"

type timelineDoc struct {
	Schema          string            `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	Name            string            `json:"name" yaml:"name"`
	GlobalStartTime *timeDoc          `json:"global_start_time,omitempty" yaml:"global_start_time,omitempty"`
	Tracks          *itemDoc          `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Metadata        timeline.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// itemDoc is the union of every composable schema; OTIO_SCHEMA says which
// fields apply.
type itemDoc struct {
	Schema      string     `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	Name        string     `json:"name" yaml:"name"`
	Kind        string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	SourceRange *rangeDoc  `json:"source_range,omitempty" yaml:"source_range,omitempty"`
	Children    []*itemDoc `json:"children,omitempty" yaml:"children,omitempty"`

	MediaReference          *mediaDoc            `json:"media_reference,omitempty" yaml:"media_reference,omitempty"`
	MediaReferences         map[string]*mediaDoc `json:"media_references,omitempty" yaml:"media_references,omitempty"`
	ActiveMediaReferenceKey string               `json:"active_media_reference_key,omitempty" yaml:"active_media_reference_key,omitempty"`
	Effects                 []effectDoc          `json:"effects,omitempty" yaml:"effects,omitempty"`

	TransitionType string   `json:"transition_type,omitempty" yaml:"transition_type,omitempty"`
	InOffset       *timeDoc `json:"in_offset,omitempty" yaml:"in_offset,omitempty"`
	OutOffset      *timeDoc `json:"out_offset,omitempty" yaml:"out_offset,omitempty"`

	Markers  []markerDoc       `json:"markers,omitempty" yaml:"markers,omitempty"`
	Metadata timeline.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type timeDoc struct {
	Schema string `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	Value  Number `json:"value" yaml:"value"`
	Rate   Number `json:"rate" yaml:"rate"`
}

type rangeDoc struct {
	Schema    string  `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	StartTime timeDoc `json:"start_time" yaml:"start_time"`
	Duration  timeDoc `json:"duration" yaml:"duration"`
}

type markerDoc struct {
	Schema      string   `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	Name        string   `json:"name" yaml:"name"`
	MarkedRange rangeDoc `json:"marked_range" yaml:"marked_range"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`
	Comment     string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

type effectDoc struct {
	Schema     string  `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	Name       string  `json:"name" yaml:"name"`
	EffectName string  `json:"effect_name,omitempty" yaml:"effect_name,omitempty"`
	TimeScalar *Number `json:"time_scalar,omitempty" yaml:"time_scalar,omitempty"`
}

type mediaDoc struct {
	Schema         string    `json:"OTIO_SCHEMA" yaml:"OTIO_SCHEMA"`
	Name           string    `json:"name,omitempty" yaml:"name,omitempty"`
	AvailableRange *rangeDoc `json:"available_range,omitempty" yaml:"available_range,omitempty"`
	TargetURL      string    `json:"target_url,omitempty" yaml:"target_url,omitempty"`

	TargetURLBase    string  `json:"target_url_base,omitempty" yaml:"target_url_base,omitempty"`
	NamePrefix       string  `json:"name_prefix,omitempty" yaml:"name_prefix,omitempty"`
	NameSuffix       string  `json:"name_suffix,omitempty" yaml:"name_suffix,omitempty"`
	StartFrame       int64   `json:"start_frame,omitempty" yaml:"start_frame,omitempty"`
	FrameStep        int64   `json:"frame_step,omitempty" yaml:"frame_step,omitempty"`
	Rate             *Number `json:"rate,omitempty" yaml:"rate,omitempty"`
	FrameZeroPadding int     `json:"frame_zero_padding,omitempty" yaml:"frame_zero_padding,omitempty"`
}
