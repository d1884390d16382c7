package rational

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// decimalTolerance is the relative error within which a decimal literal is
// snapped to a simpler ratio. It sits above float64 rounding noise, so
// 23.976023976023978 reads as 24000/1001.
var decimalTolerance = big.NewRat(1, 1_000_000_000_000)

// Ratio is a normalized rational number Num/Den.
//
// The zero value is 0/1 once normalized; Den == 0 is treated as 1 by every
// operation so an uninitialized Ratio behaves as zero. Ratios serialize as
// text ("24000/1001") so codecs carry them without loss.
type Ratio struct {
	Num int64
	Den int64
}

// One is the identity multiplier.
var One = Ratio{Num: 1, Den: 1}

// New returns the normalized ratio num/den. It panics on a zero denominator.
func New(num, den int64) Ratio {
	if den == 0 {
		panic("rational: zero denominator")
	}
	return fromBig(new(big.Rat).SetFrac64(num, den))
}

// Int returns n/1.
func Int(n int64) Ratio {
	return Ratio{Num: n, Den: 1}
}

// Parse reads "24", "24000/1001", "-3/2" or a decimal such as "1.5".
//
// Decimal literals are snapped to the simplest ratio within float64
// precision of the written value, so rates printed from floating point
// ("23.976023976023978") come back as 24000/1001. Exact decimals such as
// "23.976" are unchanged.
func Parse(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ratio{}, fmt.Errorf("parse ratio: empty string")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Ratio{}, fmt.Errorf("parse ratio %q: invalid syntax", s)
	}
	if strings.ContainsAny(s, ".eE") {
		tol := new(big.Rat).Abs(r)
		tol.Mul(tol, decimalTolerance)
		r = approximate(r, tol)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Ratio{}, fmt.Errorf("parse ratio %q: out of range", s)
	}
	return fromBig(r), nil
}

// MustParse is Parse for constants in tests and defaults.
func MustParse(s string) Ratio {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Ratio) big() *big.Rat {
	den := r.Den
	if den == 0 {
		den = 1
	}
	return new(big.Rat).SetFrac64(r.Num, den)
}

// fromBig narrows b to int64 terms. A result that does not fit is replaced
// by the closest continued-fraction convergent that does; magnitudes beyond
// int64 saturate.
func fromBig(b *big.Rat) Ratio {
	if !b.Num().IsInt64() || !b.Denom().IsInt64() {
		b = approximate(b, nil)
	}
	return Ratio{Num: b.Num().Int64(), Den: b.Denom().Int64()}
}

// approximate returns the first continued-fraction convergent of x within
// tol of it whose terms fit in int64. A nil tol asks for the last convergent
// that fits.
func approximate(x, tol *big.Rat) *big.Rat {
	abs := new(big.Rat).Abs(x)
	num := new(big.Int).Set(abs.Num())
	den := new(big.Int).Set(abs.Denom())

	h1, h2 := big.NewInt(1), big.NewInt(0)
	k1, k2 := big.NewInt(0), big.NewInt(1)
	best := new(big.Rat).SetInt64(math.MaxInt64)
	for den.Sign() != 0 {
		a, rem := new(big.Int).QuoRem(num, den, new(big.Int))
		h := new(big.Int).Add(new(big.Int).Mul(a, h1), h2)
		k := new(big.Int).Add(new(big.Int).Mul(a, k1), k2)
		if !h.IsInt64() || !k.IsInt64() {
			break
		}
		best.SetFrac(h, k)
		if tol != nil {
			diff := new(big.Rat).Sub(abs, best)
			if diff.Abs(diff).Cmp(tol) <= 0 {
				break
			}
		}
		h1, h2 = h, h1
		k1, k2 = k, k1
		num, den = den, rem
	}
	if x.Sign() < 0 {
		best.Neg(best)
	}
	return best
}

// Norm returns r with a positive, non-zero denominator and reduced terms.
func (r Ratio) Norm() Ratio {
	return fromBig(r.big())
}

// Add returns r + o.
func (r Ratio) Add(o Ratio) Ratio {
	return fromBig(new(big.Rat).Add(r.big(), o.big()))
}

// Sub returns r - o.
func (r Ratio) Sub(o Ratio) Ratio {
	return fromBig(new(big.Rat).Sub(r.big(), o.big()))
}

// Mul returns r * o.
func (r Ratio) Mul(o Ratio) Ratio {
	return fromBig(new(big.Rat).Mul(r.big(), o.big()))
}

// Quo returns r / o. It panics when o is zero.
func (r Ratio) Quo(o Ratio) Ratio {
	if o.IsZero() {
		panic("rational: division by zero")
	}
	return fromBig(new(big.Rat).Quo(r.big(), o.big()))
}

// Cmp compares r and o, returning -1, 0 or +1.
func (r Ratio) Cmp(o Ratio) int {
	return r.big().Cmp(o.big())
}

// Equal reports whether r and o denote the same number.
func (r Ratio) Equal(o Ratio) bool {
	return r.Cmp(o) == 0
}

// IsZero reports whether r is zero.
func (r Ratio) IsZero() bool {
	return r.Num == 0
}

// Sign returns -1, 0 or +1.
func (r Ratio) Sign() int {
	return r.big().Sign()
}

// Round returns the integer nearest to r, rounding halves away from zero.
func (r Ratio) Round() int64 {
	b := r.big()
	num := new(big.Int).Set(b.Num())
	den := b.Denom()

	neg := num.Sign() < 0
	num.Abs(num)

	// floor((2*|num| + den) / (2*den))
	twice := new(big.Int).Lsh(num, 1)
	twice.Add(twice, den)
	q := new(big.Int).Quo(twice, new(big.Int).Lsh(den, 1))
	if neg {
		q.Neg(q)
	}
	return q.Int64()
}

// String renders "n" for integers and "n/d" otherwise.
func (r Ratio) String() string {
	n := r.Norm()
	if n.Den == 1 {
		return fmt.Sprintf("%d", n.Num)
	}
	return fmt.Sprintf("%d/%d", n.Num, n.Den)
}

// MarshalText implements encoding.TextMarshaler.
func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ratio) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Decimal renders r as an exact decimal literal such as "23.976" or "24".
// It reports false when r has no finite decimal expansion (24000/1001).
func (r Ratio) Decimal() (string, bool) {
	n := r.Norm()
	den := n.Den
	twos, fives := 0, 0
	for den%2 == 0 {
		den /= 2
		twos++
	}
	for den%5 == 0 {
		den /= 5
		fives++
	}
	if den != 1 {
		return "", false
	}
	return n.big().FloatString(max(twos, fives)), true
}
