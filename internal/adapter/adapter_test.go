package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/syncerr"
	"github.com/roach88/otioseq/internal/timeline"
	tu "github.com/roach88/otioseq/internal/testutil"
)

const rootPath = "/Game/Levels/Main_SEQ"

func TestPlan_ClipsAndGapsOnOneTrack(t *testing.T) {
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1",
			tu.Clip("sh010", "/Game/Shots/sh010", 100, 48),
			tu.Gap(24),
			tu.Clip("sh020", "/Game/Shots/sh020", 0, 12),
		),
	))

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	root := res.Root
	assert.Equal(t, rootPath, root.Path)
	require.NotNil(t, root.PlaybackRange)
	assert.True(t, root.PlaybackRange.Equal(tu.R(0, 84)))
	require.Len(t, root.Shots.Sections, 2, "gaps leave the shot track sparse")

	first := root.Shots.Sections[0]
	assert.Equal(t, "/Game/Shots/sh010", first.SubSequence)
	assert.True(t, first.Range.Equal(tu.R(0, 48)))
	assert.True(t, first.StartOffset.Equal(tu.F(100)))
	assert.Equal(t, rational.One, first.Speed)

	second := root.Shots.Sections[1]
	assert.True(t, second.Range.Equal(tu.R(72, 12)))
	assert.Equal(t, 0, second.Row)
}

func TestPlan_TracksBecomeRows(t *testing.T) {
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1", tu.Clip("a", "/Game/Shots/a", 0, 10)),
		tu.AudioTrack("A1", tu.Clip("music", "", 0, 10)),
		tu.VideoTrack("V2", tu.Gap(5), tu.Clip("b", "/Game/Shots/b", 0, 5)),
	))

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)

	secs := res.Root.Shots.Sections
	require.Len(t, secs, 2)
	assert.Equal(t, 0, secs[0].Row)
	assert.Equal(t, 1, secs[1].Row, "audio tracks do not consume a row")

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, syncerr.FeatureAudio, res.Warnings[0].Feature)
}

func TestPlan_MarkersAndSpeed(t *testing.T) {
	clip := tu.WithMarker(tu.Clip("sh010", "/Game/Shots/sh010", 0, 48), "M1", "RED", 10, 2)
	tu.WithSpeed(clip, rational.New(3, 2))
	tu.WithSpeed(clip, rational.Int(2))
	clip.Effects = append(clip.Effects, timeline.Effect{Name: "ramp", Kind: "TimeRamp"})

	stack := tu.Stack("tracks", "", tu.VideoTrack("V1", clip))
	stack.Markers = []timeline.Marker{{Name: "cut", Color: "GREEN", MarkedRange: tu.R(5, 0)}}

	res, err := PlanFromTimeline(tu.Timeline("edit", stack), rootPath, nil)
	require.NoError(t, err)

	sec := res.Root.Shots.Sections[0]
	assert.Equal(t, rational.Int(3), sec.Speed, "linear warps multiply")
	require.Len(t, sec.Markers, 1)
	assert.Equal(t, "M1", sec.Markers[0].Name)
	assert.Equal(t, "RED", sec.Markers[0].Color)
	assert.True(t, sec.Markers[0].Range.Equal(tu.R(10, 2)))

	require.Len(t, res.Root.Markers, 1)
	assert.Equal(t, "cut", res.Root.Markers[0].Name)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, syncerr.FeatureEffect, res.Warnings[0].Feature)
}

func TestPlan_TransitionsWarn(t *testing.T) {
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1",
			tu.Clip("a", "/Game/Shots/a", 0, 10),
			&timeline.Transition{Name: "dissolve", TransitionType: "SMPTE_Dissolve"},
			tu.Clip("b", "/Game/Shots/b", 0, 10),
		),
	))
	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)
	require.Len(t, res.Root.Shots.Sections, 2)
	assert.True(t, res.Root.Shots.Sections[1].Range.Start.Equal(tu.F(10)))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, syncerr.FeatureTransition, res.Warnings[0].Feature)
}

func TestPlan_UnresolvedClipFailsWithoutHooks(t *testing.T) {
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1", tu.Clip("sh010", "", 0, 10)),
	))

	_, err := PlanFromTimeline(tl, rootPath, hooks.NewDispatcher(hooks.NewRegistry()))
	require.Error(t, err)
	assert.True(t, syncerr.IsResolution(err))
	assert.Contains(t, err.Error(), "no pre_import_item hook registered")
}

func TestPlan_UnresolvedAfterHooksFails(t *testing.T) {
	r := hooks.NewRegistry()
	require.NoError(t, r.Register(hooks.PreImportItem, "noop", func(timeline.Node, map[string]any) (timeline.Node, error) {
		return nil, nil
	}, nil))
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1", tu.Clip("sh010", "", 0, 10)),
	))

	_, err := PlanFromTimeline(tl, rootPath, hooks.NewDispatcher(r))
	require.Error(t, err)
	assert.True(t, syncerr.IsResolution(err))
}

func TestPlan_HooksResolveMissingPathsOnly(t *testing.T) {
	r := hooks.NewRegistry()
	var called []string
	require.NoError(t, r.Register(hooks.PreImportItem, "paths", func(n timeline.Node, _ map[string]any) (timeline.Node, error) {
		called = append(called, n.NodeName())
		timeline.SetSubSequencePath(n, "/Game/Hooked/"+n.NodeName())
		return nil, nil
	}, nil))

	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1",
			tu.Clip("sh010", "", 0, 10),
			tu.Clip("sh020", "/Game/Shots/sh020", 0, 10),
		),
	))

	res, err := PlanFromTimeline(tl, rootPath, hooks.NewDispatcher(r))
	require.NoError(t, err)
	assert.Equal(t, []string{"sh010"}, called, "metadata short-circuits hooks")
	assert.Equal(t, "/Game/Hooked/sh010", res.Root.Shots.Sections[0].SubSequence)
	assert.Equal(t, "/Game/Shots/sh020", res.Root.Shots.Sections[1].SubSequence)
}

func TestPlan_RootResolvesWhenNoRootPathGiven(t *testing.T) {
	tl := tu.Timeline("edit", tu.Stack("tracks", "/Game/FromMeta"))
	res, err := PlanFromTimeline(tl, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/Game/FromMeta", res.Root.Path)

	_, err = PlanFromTimeline(tu.Timeline("edit", tu.Stack("tracks", "")), "", nil)
	assert.True(t, syncerr.IsResolution(err))
}

func TestPlan_NestedStack(t *testing.T) {
	inner := tu.Stack("act1", "/Game/Acts/act1",
		tu.VideoTrack("V1", tu.Clip("sh010", "/Game/Shots/sh010", 0, 24)),
	)
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1", tu.Gap(12), inner),
	))

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)

	sec := res.Root.Shots.Sections[0]
	assert.Equal(t, "/Game/Acts/act1", sec.SubSequence)
	assert.True(t, sec.Range.Equal(tu.R(12, 24)))

	child := sec.Child
	require.NotNil(t, child.Shots)
	require.Len(t, child.Shots.Sections, 1)
	assert.True(t, child.Shots.Sections[0].Range.Equal(tu.R(0, 24)))
	assert.True(t, child.PlaybackRange.Equal(tu.R(0, 24)))
}

func TestPlan_TrimmedNestedStack(t *testing.T) {
	inner := tu.Stack("act1", "/Game/Acts/act1",
		tu.VideoTrack("V1", tu.Clip("sh010", "/Game/Shots/sh010", 0, 48)),
	)
	trim := tu.R(24, 24)
	inner.SourceRange = &trim
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1", tu.Gap(12), inner),
	))

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)

	sec := res.Root.Shots.Sections[0]
	assert.True(t, sec.Range.Equal(tu.R(12, 24)))
	assert.True(t, sec.StartOffset.Equal(tu.F(24)), "the section shows the trimmed window")

	child := sec.Child
	require.Len(t, child.Shots.Sections, 1)
	assert.True(t, child.Shots.Sections[0].Range.Equal(tu.R(0, 48)), "trimming does not move the stack's contents")
	assert.True(t, child.PlaybackRange.Equal(tu.R(24, 24)))
}

func TestPlan_TrimmedRootStack(t *testing.T) {
	root := tu.Stack("tracks", "", tu.VideoTrack("V1", tu.Clip("a", "/Game/Shots/a", 0, 48)))
	trim := tu.R(10, 20)
	root.SourceRange = &trim
	start := tu.F(100)
	tl := &timeline.Timeline{Name: "edit", GlobalStartTime: &start, Tracks: root}

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)

	assert.True(t, res.Root.PlaybackRange.Equal(tu.R(110, 20)))
	assert.True(t, res.Root.Shots.Sections[0].Range.Equal(tu.R(100, 48)))
}

func TestPlan_SelfReferenceFails(t *testing.T) {
	inner := tu.Stack("loop", rootPath, tu.VideoTrack("V1"))
	tl := tu.Timeline("edit", tu.Stack("tracks", "", tu.VideoTrack("V1", inner)))

	_, err := PlanFromTimeline(tl, rootPath, nil)
	require.Error(t, err)
	assert.True(t, syncerr.IsResolution(err))
}

func TestPlan_ChildRanges(t *testing.T) {
	withMedia := tu.WithAvailableRange(tu.Clip("sh010", "/Game/Shots/sh010", 1010, 20), 1001, 100)
	noMedia := tu.Clip("sh020", "/Game/Shots/sh020", 5, 20)
	tl := tu.Timeline("edit", tu.Stack("tracks", "", tu.VideoTrack("V1", withMedia, noMedia)))

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)

	a := res.Root.Shots.Sections[0].Child
	require.NotNil(t, a.PlaybackRange)
	assert.True(t, a.PlaybackRange.Equal(tu.R(1001, 100)))
	assert.Nil(t, a.Shots, "clip children are silent about their shot track")
	assert.Nil(t, a.Markers)

	b := res.Root.Shots.Sections[1].Child
	assert.Nil(t, b.PlaybackRange, "no available range: silent on update")
	require.NotNil(t, b.InitialRange)
	assert.True(t, b.InitialRange.Equal(tu.R(5, 20)))
}

func TestPlan_SharedChildWarnsOnConflict(t *testing.T) {
	a := tu.WithAvailableRange(tu.Clip("a", "/Game/Shots/shared", 0, 10), 0, 100)
	b := tu.WithAvailableRange(tu.Clip("b", "/Game/Shots/shared.shared", 0, 10), 0, 50)
	tl := tu.Timeline("edit", tu.Stack("tracks", "", tu.VideoTrack("V1", a, b)))

	res, err := PlanFromTimeline(tl, rootPath, nil)
	require.NoError(t, err)
	secs := res.Root.Shots.Sections
	assert.Same(t, secs[0].Child, secs[1].Child)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, syncerr.FeatureDuplicateShot, res.Warnings[0].Feature)
}
