package sequence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/rational"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/Game/Shots/sh010.sh010", "/Game/Shots/sh010"},
		{"/Game/Shots/sh010", "/Game/Shots/sh010"},
		{" /Game/Shots/sh010 ", "/Game/Shots/sh010"},
		{"/Game/Shots/sh010.Other", "/Game/Shots/sh010.Other"},
		// Decomposed e + combining acute normalizes to the precomposed form.
		{"/Game/Shots/cafe\u0301", "/Game/Shots/caf\u00e9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "input %q", tt.in)
	}
	assert.True(t, SamePath("/Game/A/B.B", "/Game/A/B"))
}

func TestAssetHelpers(t *testing.T) {
	assert.Equal(t, "sh010", AssetName("/Game/Shots/sh010.sh010"))
	assert.Equal(t, "/Game/Shots", PackageDir("/Game/Shots/sh010.sh010"))
	assert.Equal(t, "/Game/Shots/sh010.sh010", ObjectPath("/Game/Shots/sh010"))
}

func TestValidatePath(t *testing.T) {
	valid := []string{"/Game/Main", "/Game/Levels/Main_SEQ.Main_SEQ"}
	for _, p := range valid {
		assert.NoError(t, ValidatePath(p), p)
	}
	invalid := []string{"", "Game/Main", "/Main", "/Game//Main", "/Game/bad name"}
	for _, p := range invalid {
		assert.Error(t, ValidatePath(p), p)
	}
}

func TestCommonDir(t *testing.T) {
	paths := []string{
		"/Game/Levels/shots/sh010/sh010.sh010",
		"/Game/Levels/shots/sh020/sh020.sh020",
		"/Game/Levels/Main_SEQ.Main_SEQ",
	}
	assert.Equal(t, "/Game/Levels", CommonDir(paths))
	assert.Equal(t, "", CommonDir(nil))
}

func TestMarkerSetsEqual_IgnoresOrder(t *testing.T) {
	rate := rational.Int(24)
	a := []Marker{
		{Name: "M1", Range: rational.NewRange(10, 1, rate), Color: "RED"},
		{Name: "M2", Range: rational.NewRange(20, 0, rate), Color: "GREEN"},
	}
	b := []Marker{a[1], a[0]}
	assert.True(t, MarkerSetsEqual(a, b))

	b[0].Color = "BLUE"
	assert.False(t, MarkerSetsEqual(a, b))
	assert.False(t, MarkerSetsEqual(a, a[:1]))
	assert.True(t, MarkerSetsEqual(nil, []Marker{}))
}

func TestWalk_VisitsEachPathOnce(t *testing.T) {
	shared := &Sequence{Path: "/Game/Shots/shared"}
	root := &Sequence{
		Path: "/Game/Main",
		Shots: &ShotTrack{Sections: []*Section{
			{SubSequence: shared.Path, Child: shared},
			{SubSequence: "/Game/Shots/shared.shared", Child: shared},
		}},
	}

	var visited []string
	require.NoError(t, Walk(root, func(s *Sequence) error {
		visited = append(visited, s.Path)
		return nil
	}))
	assert.Equal(t, []string{"/Game/Main", "/Game/Shots/shared"}, visited)

	stop := errors.New("stop")
	err := Walk(root, func(*Sequence) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestSection_SpeedOrOne(t *testing.T) {
	assert.Equal(t, rational.One, (&Section{}).SpeedOrOne())
	assert.Equal(t, rational.New(3, 2), (&Section{Speed: rational.New(3, 2)}).SpeedOrOne())
}
