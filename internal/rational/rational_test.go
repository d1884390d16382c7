package rational

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Ratio
	}{
		{"24", Ratio{24, 1}},
		{"24000/1001", Ratio{24000, 1001}},
		{"48/2", Ratio{24, 1}},
		{"1.5", Ratio{3, 2}},
		{"-3/6", Ratio{-1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_SnapsFloatingPointDecimals(t *testing.T) {
	tests := []struct {
		in   string
		want Ratio
	}{
		{"23.976023976023978", Ratio{24000, 1001}},
		{"29.97002997002997", Ratio{30000, 1001}},
		{"59.94005994005994", Ratio{60000, 1001}},
		{"23.976", Ratio{2997, 125}},
		{"86400.0", Ratio{86400, 1}},
		{"-0.1", Ratio{-1, 10}},
		{"1e3", Ratio{1000, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1/0"} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestRatio_Round(t *testing.T) {
	tests := []struct {
		r    Ratio
		want int64
	}{
		{New(5, 2), 3},
		{New(-5, 2), -3},
		{New(7, 3), 2},
		{New(8, 3), 3},
		{Int(4), 4},
		{Ratio{}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.Round(), "round %s", tt.r)
	}
}

func TestRatio_Arithmetic(t *testing.T) {
	a := New(1, 3)
	b := New(1, 6)

	assert.Equal(t, New(1, 2), a.Add(b))
	assert.Equal(t, New(1, 6), a.Sub(b))
	assert.Equal(t, New(1, 18), a.Mul(b))
	assert.Equal(t, Int(2), a.Quo(b))
	assert.True(t, Ratio{}.Equal(Int(0)))
	assert.Panics(t, func() { a.Quo(Ratio{}) })
}

func TestRatio_OverflowDoesNotPanic(t *testing.T) {
	huge := Int(math.MaxInt64)
	assert.NotPanics(t, func() {
		assert.Equal(t, huge, huge.Add(Int(1)))
		assert.Equal(t, Int(math.MinInt64+1), Int(-math.MaxInt64).Sub(Int(5)))
	})

	// Exact decimal expansion of the float 23.976023976023978.
	raw := Ratio{Num: 11988011988011989, Den: 500000000000000}
	tm := Time{Value: Int(86400), Rate: raw}
	assert.NotPanics(t, func() {
		secs := tm.Seconds()
		assert.Equal(t, 1, secs.Cmp(Int(3603)))
		assert.Equal(t, -1, secs.Cmp(Int(3604)))
		assert.Equal(t, 0, tm.Cmp(FromFrames(86400, raw)))
		assert.Equal(t, int64(86400), tm.Frames(New(24000, 1001)))
	})
}

func TestTime_EqualAcrossRates(t *testing.T) {
	a := FromFrames(24, Int(24))
	b := FromFrames(30, Int(30))
	assert.True(t, a.Equal(b), "one second at 24 and 30 fps")
	assert.Equal(t, int64(30), a.Frames(Int(30)))
}

func TestTime_AddKeepsLeftRate(t *testing.T) {
	a := FromFrames(12, Int(24))
	b := FromFrames(15, Int(30))

	sum := a.Add(b)
	assert.Equal(t, Int(24), sum.Rate)
	assert.Equal(t, Int(24), sum.Value)
}

func TestTime_FramesRoundsToNearest(t *testing.T) {
	ntsc := New(24000, 1001)
	// 1001 frames at 23.976 is 1001*1001/24000 seconds = 1001.0417 frames at 24fps.
	tm := FromFrames(1001, ntsc)
	assert.Equal(t, int64(1002), tm.Frames(Int(24)))

	half := Time{Value: New(1, 2), Rate: Int(24)}
	assert.Equal(t, int64(1), half.Frames(Int(24)))
}

func TestRange_QuantizeStaysContiguous(t *testing.T) {
	rate := Int(25)
	first := Range{Start: FromFrames(0, Int(24)), Duration: FromFrames(13, Int(24))}
	second := Range{Start: first.End(), Duration: FromFrames(11, Int(24))}

	q1 := first.Quantize(rate)
	q2 := second.Quantize(rate)
	assert.True(t, q1.End().Equal(q2.Start))
}

func TestRatio_TextRoundTrip(t *testing.T) {
	type doc struct {
		Rate Ratio `json:"rate" yaml:"rate"`
	}
	in := doc{Rate: New(24000, 1001)}

	j, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":"24000/1001"}`, string(j))

	var fromJSON doc
	require.NoError(t, json.Unmarshal(j, &fromJSON))
	assert.Equal(t, in, fromJSON)

	var fromYAML doc
	require.NoError(t, yaml.Unmarshal([]byte("rate: 24\n"), &fromYAML))
	assert.Equal(t, Int(24), fromYAML.Rate)
}

func TestRatio_Decimal(t *testing.T) {
	tests := []struct {
		in   Ratio
		want string
		ok   bool
	}{
		{Int(24), "24", true},
		{New(23976, 1000), "23.976", true},
		{New(-3, 8), "-0.375", true},
		{New(24000, 1001), "", false},
		{New(1, 3), "", false},
	}
	for _, tt := range tests {
		got, ok := tt.in.Decimal()
		assert.Equal(t, tt.ok, ok, "%s", tt.in)
		assert.Equal(t, tt.want, got, "%s", tt.in)
	}
}
