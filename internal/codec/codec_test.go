package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/rational"
	tu "github.com/roach88/otioseq/internal/testutil"
	"github.com/roach88/otioseq/internal/timeline"
)

func cutTimeline() *timeline.Timeline {
	clip := tu.WithSpeed(tu.WithMarker(tu.Clip("sh010", "/Game/Shots/sh010", 0, 24), "fix", "RED", 2, 1), rational.New(1, 2))
	return tu.Timeline("cut", tu.Stack("tracks", "", tu.VideoTrack("V1", tu.Gap(12), clip)))
}

// richTimeline exercises every schema the codecs write.
func richTimeline() *timeline.Timeline {
	ntsc := rational.New(24000, 1001)
	seqClip := tu.Clip("plate", "/Game/Shots/sh020", 0, 48)
	seqClip.MediaReference = timeline.MediaReference{
		Kind: timeline.MediaImageSequence,
		ImageSequence: &timeline.ImageSequence{
			TargetURLBase:    "/renders/sh020/",
			NamePrefix:       "sh020.",
			NameSuffix:       ".exr",
			StartFrame:       1001,
			FrameStep:        1,
			Rate:             ntsc,
			FrameZeroPadding: 4,
		},
	}
	ext := tu.WithAvailableRange(tu.Clip("ref", "", 10, 5), 0, 100)
	ext.MediaReference.Kind = timeline.MediaExternal
	ext.MediaReference.TargetURL = "file:///media/ref.mov"

	nested := tu.Stack("sh030", "/Game/Shots/sh030", tu.VideoTrack("V1", tu.Clip("sh030_a", "/Game/Shots/sh030_a", 0, 12)))
	r := tu.R(4, 12)
	nested.SourceRange = &r
	nested.Markers = []timeline.Marker{{Name: "beat", MarkedRange: tu.R(6, 0), Comment: "hit"}}

	frac := rational.Range{
		Start:    rational.Time{Value: rational.Int(0), Rate: ntsc},
		Duration: rational.Time{Value: rational.Int(30), Rate: ntsc},
	}
	ntscClip := &timeline.Clip{Name: "ntsc", SourceRange: frac}

	root := tu.Stack("tracks", "",
		tu.VideoTrack("V1", seqClip, &timeline.Transition{Name: "dissolve", TransitionType: "SMPTE_Dissolve", InOffset: tu.F(6), OutOffset: tu.F(6)}, nested),
		tu.VideoTrack("V2", tu.Gap(3), ext, ntscClip),
		tu.AudioTrack("A1", tu.Gap(48)),
	)
	tl := tu.Timeline("rich", root)
	tl.Meta().Set("studio.show", "demo")
	return tl
}

func encode(t *testing.T, c Codec, tl *timeline.Timeline) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, tl))
	return buf.Bytes()
}

func TestRegistry_Lookup(t *testing.T) {
	r := Default()

	tests := []struct {
		suffix string
		want   string
	}{
		{"json", "json"},
		{".JSON", "json"},
		{"otio", "json"},
		{"yaml", "yaml"},
		{".yml", "yaml"},
	}
	for _, tt := range tests {
		c, err := r.Lookup(tt.suffix)
		require.NoError(t, err, tt.suffix)
		assert.Equal(t, tt.want, c.Name(), tt.suffix)
	}

	_, err := r.Lookup("edl")
	assert.ErrorIs(t, err, ErrUnknownSuffix)
	assert.Contains(t, err.Error(), "json, otio, yaml, yml")

	c, err := r.ForPath("/tmp/Cut.v2.YML")
	require.NoError(t, err)
	assert.Equal(t, "yaml", c.Name())

	assert.Equal(t, []string{"json", "otio", "yaml", "yml"}, r.Suffixes())
}

func TestJSON_Golden(t *testing.T) {
	tu.AssertGolden(t, "cut.json", encode(t, JSON{}, cutTimeline()))
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, c := range Default().Codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			first := encode(t, c, richTimeline())

			decoded, err := c.Decode(bytes.NewReader(first))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(encode(t, c, decoded)), "re-encoding is stable")

			assert.Equal(t, "rich", decoded.Name)
			v, ok := decoded.Meta().Lookup("studio.show")
			require.True(t, ok)
			assert.Equal(t, "demo", v)

			require.Len(t, decoded.Tracks.Children, 3)
			v1 := decoded.Tracks.Children[0]
			require.Len(t, v1.Children, 3)

			plate := v1.Children[0].(*timeline.Clip)
			require.NotNil(t, plate.MediaReference.ImageSequence)
			assert.Equal(t, timeline.MediaImageSequence, plate.MediaReference.Kind)
			assert.True(t, plate.MediaReference.ImageSequence.Rate.Equal(rational.New(24000, 1001)))
			assert.Equal(t, int64(1001), plate.MediaReference.ImageSequence.StartFrame)
			path, ok := timeline.SubSequencePath(plate)
			require.True(t, ok)
			assert.Equal(t, "/Game/Shots/sh020", path)

			tr := v1.Children[1].(*timeline.Transition)
			assert.Equal(t, "SMPTE_Dissolve", tr.TransitionType)

			nested := v1.Children[2].(*timeline.Stack)
			require.NotNil(t, nested.SourceRange)
			assert.True(t, nested.SourceRange.Equal(tu.R(4, 12)))
			require.Len(t, nested.Markers, 1)
			assert.Equal(t, "hit", nested.Markers[0].Comment)

			v2 := decoded.Tracks.Children[1]
			ext := v2.Children[1].(*timeline.Clip)
			assert.Equal(t, timeline.MediaExternal, ext.MediaReference.Kind)
			assert.Equal(t, "file:///media/ref.mov", ext.MediaReference.TargetURL)
			assert.True(t, ext.MediaReference.AvailableRange.Equal(tu.R(0, 100)))

			ntsc := v2.Children[2].(*timeline.Clip)
			assert.Equal(t, rational.New(24000, 1001), ntsc.SourceRange.Duration.Rate)

			assert.Equal(t, timeline.TrackAudio, decoded.Tracks.Children[2].Kind)
		})
	}
}

func TestJSON_NonDecimalValuesAreQuoted(t *testing.T) {
	out := string(encode(t, JSON{}, richTimeline()))
	assert.Contains(t, out, `"rate": "24000/1001"`)
	assert.Contains(t, out, `"rate": 24`)
}

func TestJSON_DecodesInterchangeFile(t *testing.T) {
	// Float rates and the single media_reference form used by Clip.1.
	const doc = `{
  "OTIO_SCHEMA": "Timeline.1",
  "name": "edit",
  "global_start_time": {"OTIO_SCHEMA": "RationalTime.1", "value": 86400.0, "rate": 24.0},
  "tracks": {
    "OTIO_SCHEMA": "Stack.1",
    "name": "tracks",
    "source_range": null,
    "children": [{
      "OTIO_SCHEMA": "Track.1",
      "name": "V1",
      "kind": "Video",
      "enabled": true,
      "children": [{
        "OTIO_SCHEMA": "Clip.1",
        "name": "sh010",
        "source_range": {
          "OTIO_SCHEMA": "TimeRange.1",
          "start_time": {"OTIO_SCHEMA": "RationalTime.1", "value": 12.5, "rate": 23.976},
          "duration": {"OTIO_SCHEMA": "RationalTime.1", "value": 24.0, "rate": 23.976}
        },
        "media_reference": {
          "OTIO_SCHEMA": "ExternalReference.1",
          "target_url": "file:///shots/sh010.mov",
          "available_range": null
        },
        "effects": [{"OTIO_SCHEMA": "LinearTimeWarp.1", "name": "", "effect_name": "", "time_scalar": 2.0}],
        "markers": [],
        "metadata": {"unreal": {"sub_sequence": "/Game/Shots/sh010"}}
      }]
    }]
  }
}`
	tl, err := JSON{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)

	require.NotNil(t, tl.GlobalStartTime)
	assert.True(t, tl.GlobalStartTime.Equal(rational.FromFrames(86400, rational.Int(24))))
	assert.Nil(t, tl.Tracks.SourceRange)

	clip := tl.Tracks.Children[0].Children[0].(*timeline.Clip)
	assert.Equal(t, rational.New(23976, 1000), clip.SourceRange.Start.Rate)
	assert.Equal(t, rational.New(25, 2), clip.SourceRange.Start.Value)
	assert.Equal(t, timeline.MediaExternal, clip.MediaReference.Kind)
	assert.Equal(t, "file:///shots/sh010.mov", clip.MediaReference.TargetURL)
	assert.Nil(t, clip.MediaReference.AvailableRange)

	require.Len(t, clip.Effects, 1)
	assert.Equal(t, timeline.EffectLinearTimeWarp, clip.Effects[0].Kind)
	assert.Equal(t, rational.Int(2), clip.Effects[0].TimeScalar)
	assert.Empty(t, clip.Markers)
}

func TestJSON_SnapsFloatingPointNTSCRates(t *testing.T) {
	const doc = `{
  "OTIO_SCHEMA": "Timeline.1",
  "name": "ntsc",
  "global_start_time": {"OTIO_SCHEMA": "RationalTime.1", "value": 86400.0, "rate": 23.976023976023978},
  "tracks": {
    "OTIO_SCHEMA": "Stack.1",
    "name": "tracks",
    "children": [{
      "OTIO_SCHEMA": "Track.1",
      "name": "V1",
      "kind": "Video",
      "children": [{
        "OTIO_SCHEMA": "Gap.1",
        "name": "",
        "source_range": {
          "OTIO_SCHEMA": "TimeRange.1",
          "start_time": {"OTIO_SCHEMA": "RationalTime.1", "value": 0.0, "rate": 29.97002997002997},
          "duration": {"OTIO_SCHEMA": "RationalTime.1", "value": 30.0, "rate": 29.97002997002997}
        }
      }]
    }]
  }
}`
	tl, err := JSON{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)

	ntsc := rational.New(24000, 1001)
	require.NotNil(t, tl.GlobalStartTime)
	assert.Equal(t, ntsc, tl.GlobalStartTime.Rate)
	assert.Equal(t, ntsc, tl.Rate())
	assert.Equal(t, int64(86400), tl.GlobalStartTime.Frames(ntsc))

	gap := tl.Tracks.Children[0].Children[0].(*timeline.Gap)
	assert.Equal(t, rational.New(30000, 1001), gap.Length.Rate)
	assert.Equal(t, int64(24), gap.Length.Frames(ntsc))
}

func TestYAML_DecodesHandWrittenFile(t *testing.T) {
	const doc = `
OTIO_SCHEMA: Timeline.1
name: edit
tracks:
  OTIO_SCHEMA: Stack.1
  name: tracks
  children:
    - OTIO_SCHEMA: Track.1
      name: V1
      children:
        - OTIO_SCHEMA: Gap.1
          name: ""
          source_range:
            OTIO_SCHEMA: TimeRange.1
            start_time: {OTIO_SCHEMA: RationalTime.1, value: 0, rate: 24000/1001}
            duration: {OTIO_SCHEMA: RationalTime.1, value: 10, rate: 24000/1001}
`
	tl, err := YAML{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Nil(t, tl.GlobalStartTime)

	track := tl.Tracks.Children[0]
	assert.Equal(t, timeline.TrackVideo, track.Kind, "kind defaults to video")
	gap := track.Children[0].(*timeline.Gap)
	assert.Equal(t, rational.New(24000, 1001), gap.Length.Rate)
	assert.Equal(t, rational.Int(10), gap.Length.Value)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "not a timeline",
			doc:  `{"OTIO_SCHEMA": "Clip.2", "name": "x"}`,
			want: `expected a Timeline`,
		},
		{
			name: "unsupported item",
			doc:  `{"OTIO_SCHEMA": "Timeline.1", "tracks": {"OTIO_SCHEMA": "Stack.1", "children": [{"OTIO_SCHEMA": "Track.1", "name": "V1", "children": [{"OTIO_SCHEMA": "SerializableCollection.1"}]}]}}`,
			want: `unsupported schema "SerializableCollection.1"`,
		},
		{
			name: "stack child is not a track",
			doc:  `{"OTIO_SCHEMA": "Timeline.1", "tracks": {"OTIO_SCHEMA": "Stack.1", "children": [{"OTIO_SCHEMA": "Gap.1"}]}}`,
			want: `expected a Track`,
		},
		{
			name: "zero rate",
			doc:  `{"OTIO_SCHEMA": "Timeline.1", "global_start_time": {"value": 0, "rate": 0}}`,
			want: `rate must be positive`,
		},
		{
			name: "bad number",
			doc:  `{"OTIO_SCHEMA": "Timeline.1", "global_start_time": {"value": "abc", "rate": 24}}`,
			want: `invalid syntax`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON{}.Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
