package rational

import (
	"fmt"
	"math/big"
)

// Time is a point or duration counted in frames at Rate.
//
// Value may be fractional; two Times are Equal when they denote the same
// number of seconds, whatever their rates.
type Time struct {
	Value Ratio `json:"value" yaml:"value"`
	Rate  Ratio `json:"rate" yaml:"rate"`
}

// FromFrames returns a whole-frame Time at rate.
func FromFrames(frames int64, rate Ratio) Time {
	return Time{Value: Int(frames), Rate: rate.Norm()}
}

// Seconds returns Value / Rate.
func (t Time) Seconds() Ratio {
	return fromBig(t.seconds())
}

func (t Time) seconds() *big.Rat {
	if t.Rate.IsZero() {
		return t.Value.big()
	}
	return new(big.Rat).Quo(t.Value.big(), t.Rate.big())
}

// Rescale expresses t at rate without loss.
func (t Time) Rescale(rate Ratio) Time {
	if t.Rate.Equal(rate) {
		return Time{Value: t.Value.Norm(), Rate: rate.Norm()}
	}
	v := t.seconds()
	return Time{Value: fromBig(v.Mul(v, rate.big())), Rate: rate.Norm()}
}

// Add returns t + o at t's rate (o's rate when t has none).
func (t Time) Add(o Time) Time {
	rate := t.Rate
	if rate.IsZero() {
		rate = o.Rate
	}
	return Time{Value: t.Rescale(rate).Value.Add(o.Rescale(rate).Value), Rate: rate.Norm()}
}

// Sub returns t - o at t's rate.
func (t Time) Sub(o Time) Time {
	rate := t.Rate
	if rate.IsZero() {
		rate = o.Rate
	}
	return Time{Value: t.Rescale(rate).Value.Sub(o.Rescale(rate).Value), Rate: rate.Norm()}
}

// Cmp compares t and o in seconds.
func (t Time) Cmp(o Time) int {
	return t.seconds().Cmp(o.seconds())
}

// Equal reports whether t and o denote the same instant.
func (t Time) Equal(o Time) bool {
	return t.Cmp(o) == 0
}

// IsZero reports whether t is zero seconds long.
func (t Time) IsZero() bool {
	return t.Value.IsZero()
}

// Frames converts t to whole frames at rate, rounding to the nearest frame
// (halves away from zero).
func (t Time) Frames(rate Ratio) int64 {
	return t.Rescale(rate).Value.Round()
}

// Quantize snaps t to the nearest whole frame at rate.
func (t Time) Quantize(rate Ratio) Time {
	return FromFrames(t.Frames(rate), rate)
}

func (t Time) String() string {
	return fmt.Sprintf("%s@%s", t.Value, t.Rate)
}

// Range is a half-open interval [Start, Start+Duration).
type Range struct {
	Start    Time `json:"start" yaml:"start"`
	Duration Time `json:"duration" yaml:"duration"`
}

// NewRange builds a whole-frame range at rate.
func NewRange(startFrame, durationFrames int64, rate Ratio) Range {
	return Range{Start: FromFrames(startFrame, rate), Duration: FromFrames(durationFrames, rate)}
}

// End returns Start + Duration.
func (r Range) End() Time {
	return r.Start.Add(r.Duration)
}

// Equal compares start and duration in seconds.
func (r Range) Equal(o Range) bool {
	return r.Start.Equal(o.Start) && r.Duration.Equal(o.Duration)
}

// Quantize snaps both ends of r to whole frames at rate. The end is rounded
// independently so adjacent ranges stay contiguous after quantization.
func (r Range) Quantize(rate Ratio) Range {
	start := r.Start.Frames(rate)
	end := r.End().Frames(rate)
	return NewRange(start, end-start, rate)
}

// Rescale expresses r at rate without loss.
func (r Range) Rescale(rate Ratio) Range {
	return Range{Start: r.Start.Rescale(rate), Duration: r.Duration.Rescale(rate)}
}

func (r Range) String() string {
	return fmt.Sprintf("[%s +%s)", r.Start, r.Duration)
}
