package apply

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/adapter"
	"github.com/roach88/otioseq/internal/host"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/reconcile"
	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
	tu "github.com/roach88/otioseq/internal/testutil"
)

const rootPath = "/Game/Levels/Main_SEQ"

func createTestHost(t *testing.T) *host.Host {
	t.Helper()
	h, err := host.Open(filepath.Join(t.TempDir(), "host.db"), host.WithIDGenerator(tu.NewSequentialIDGenerator("")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// seed creates the root at [0,48) holding sh010 at [0,48).
func seed(t *testing.T, h *host.Host) {
	t.Helper()
	ctx := context.Background()
	txn, err := h.Begin(ctx, "seed")
	require.NoError(t, err)
	defer txn.Rollback()

	require.NoError(t, txn.CreateSequence(ctx, host.SequenceRecord{
		Path: rootPath, Rate: tu.Rate, EndFrame: 48, Properties: map[string]string{"camera": "cine_cam_01"},
	}))
	require.NoError(t, txn.CreateSequence(ctx, host.SequenceRecord{Path: "/Game/Shots/sh010", Rate: tu.Rate, EndFrame: 100}))
	_, err = txn.AddSection(ctx, rootPath, host.SectionRecord{SubSequence: "/Game/Shots/sh010", EndFrame: 48})
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
}

// snapshotHost reads every sequence for deep comparison.
func snapshotHost(t *testing.T, h *host.Host) map[string]*sequence.Sequence {
	t.Helper()
	ctx := context.Background()
	paths, err := h.Sequences(ctx)
	require.NoError(t, err)
	out := make(map[string]*sequence.Sequence, len(paths))
	for _, p := range paths {
		seq, err := h.Sequence(ctx, p)
		require.NoError(t, err)
		out[p] = seq
	}
	return out
}

func planFor(t *testing.T, h *host.Host, root *sequence.Sequence) *reconcile.Plan {
	t.Helper()
	p, err := reconcile.Reconcile(context.Background(), root, h)
	require.NoError(t, err)
	return p
}

func editTimeline() *adapter.Result {
	// sh010 moves to [24,72) and sh020 is new at [72,96).
	tl := tu.Timeline("edit", tu.Stack("tracks", "",
		tu.VideoTrack("V1",
			tu.Gap(24),
			tu.WithMarker(tu.Clip("sh010", "/Game/Shots/sh010", 10, 48), "fix", "RED", 20, 1),
			tu.Clip("sh020", "/Game/Shots/sh020", 0, 24),
		),
	))
	res, err := adapter.PlanFromTimeline(tl, rootPath, nil)
	if err != nil {
		panic(err)
	}
	return res
}

func TestApply_CreateAndUpdate(t *testing.T) {
	h := createTestHost(t)
	seed(t, h)
	ctx := context.Background()

	plan := planFor(t, h, editTimeline().Root)
	res, err := Apply(ctx, h, plan, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, res.Label)
	assert.Equal(t, "txn-0002", res.TxnID)
	assert.Equal(t, 4, res.Applied, "root, sh010 section, sh020 sequence and section")

	root, err := h.Sequence(ctx, rootPath)
	require.NoError(t, err)
	assert.True(t, root.PlaybackRange.Equal(tu.R(0, 96)))
	assert.Equal(t, map[string]string{"camera": "cine_cam_01"}, root.Properties, "host-only properties survive")
	require.Len(t, root.Shots.Sections, 2)

	sh010 := root.Shots.Sections[0]
	assert.Equal(t, "/Game/Shots/sh010", sh010.SubSequence)
	assert.True(t, sh010.Range.Equal(tu.R(24, 48)))
	assert.True(t, sh010.StartOffset.Equal(tu.F(10)))
	require.Len(t, sh010.Markers, 1)
	assert.Equal(t, "fix", sh010.Markers[0].Name)

	sh020 := root.Shots.Sections[1]
	assert.True(t, sh020.Range.Equal(tu.R(72, 24)))

	child, err := h.Sequence(ctx, "/Game/Shots/sh020")
	require.NoError(t, err)
	assert.True(t, child.PlaybackRange.Equal(tu.R(0, 24)), "new leaf uses the clip source range")

	existing, err := h.Sequence(ctx, "/Game/Shots/sh010")
	require.NoError(t, err)
	assert.True(t, existing.PlaybackRange.Equal(tu.R(0, 100)), "existing leaf ranges are left alone")
}

func TestApply_Idempotent(t *testing.T) {
	h := createTestHost(t)
	seed(t, h)
	ctx := context.Background()

	_, err := Apply(ctx, h, planFor(t, h, editTimeline().Root), Options{})
	require.NoError(t, err)
	before := snapshotHost(t, h)

	again := planFor(t, h, editTimeline().Root)
	assert.False(t, again.HasChanges(), "second run is all UNCHANGED: %v", again.Ops)

	res, err := Apply(ctx, h, again, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.TxnID)
	assert.Equal(t, before, snapshotHost(t, h))

	txns, err := h.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 2, "no-op runs are not journaled")
}

func TestApply_FractionalRatesRoundOnce(t *testing.T) {
	h := createTestHost(t)
	seed(t, h)
	ctx := context.Background()

	// A start at 2.5 frames rounds away from zero to 3; the end (26.5) rounds
	// to 27, keeping the duration at 24.
	r := rational.Range{
		Start:    rational.Time{Value: rational.New(5, 2), Rate: tu.Rate},
		Duration: tu.F(24),
	}
	root := &sequence.Sequence{Path: rootPath, Rate: tu.Rate, PlaybackRange: &r}

	_, err := Apply(ctx, h, planFor(t, h, root), Options{Label: "nudge"})
	require.NoError(t, err)

	seq, err := h.Sequence(ctx, rootPath)
	require.NoError(t, err)
	assert.True(t, seq.PlaybackRange.Equal(tu.R(3, 24)), "got %s", seq.PlaybackRange)
	assert.False(t, planFor(t, h, root).HasChanges())
}

func TestApply_FailureRollsBackEverything(t *testing.T) {
	h := createTestHost(t)
	seed(t, h)
	ctx := context.Background()
	before := snapshotHost(t, h)

	bad := &sequence.Sequence{Path: "/Game/Shots/bad name", Rate: tu.Rate}
	initial := tu.R(0, 10)
	bad.InitialRange = &initial

	playback := tu.R(0, 200)
	root := &sequence.Sequence{
		Path:          rootPath,
		Rate:          tu.Rate,
		PlaybackRange: &playback,
		Shots: &sequence.ShotTrack{Sections: []*sequence.Section{
			{SubSequence: "/Game/Shots/sh010", Range: tu.R(0, 10), StartOffset: tu.F(0), Child: &sequence.Sequence{Path: "/Game/Shots/sh010"}},
			{SubSequence: bad.Path, Range: tu.R(10, 10), StartOffset: tu.F(0), Child: bad},
		}},
	}
	plan := planFor(t, h, root)

	_, err := Apply(ctx, h, plan, Options{})
	require.Error(t, err)
	assert.True(t, syncerr.IsMutation(err))

	var serr *syncerr.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, bad.Path, serr.Path)
	assert.Equal(t, reconcile.Create, plan.Ops[serr.OpIndex].Kind)
	assert.Greater(t, serr.OpIndex, 0, "earlier ops had already been written")

	assert.Equal(t, before, snapshotHost(t, h), "host state is exactly as before")

	// The lock was released: another transaction can start.
	txn, err := h.Begin(ctx, "after")
	require.NoError(t, err)
	require.NoError(t, txn.Rollback())
}

func TestApply_RemovesSections(t *testing.T) {
	h := createTestHost(t)
	seed(t, h)
	ctx := context.Background()

	playback := tu.R(0, 48)
	root := &sequence.Sequence{Path: rootPath, Rate: tu.Rate, PlaybackRange: &playback, Shots: &sequence.ShotTrack{}}
	plan := planFor(t, h, root)
	require.Equal(t, 1, plan.Count(reconcile.Remove))

	_, err := Apply(ctx, h, plan, Options{})
	require.NoError(t, err)

	seq, err := h.Sequence(ctx, rootPath)
	require.NoError(t, err)
	assert.Empty(t, seq.Shots.Sections)

	_, err = h.Sequence(ctx, "/Game/Shots/sh010")
	assert.NoError(t, err, "removing a section keeps the referenced asset")
}

func TestApply_CancelledContext(t *testing.T) {
	h := createTestHost(t)
	seed(t, h)
	before := snapshotHost(t, h)

	plan := planFor(t, h, editTimeline().Root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Apply(ctx, h, plan, Options{})
	require.Error(t, err)
	assert.Equal(t, before, snapshotHost(t, h))
}
