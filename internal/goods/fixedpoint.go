// Package goods provides the fixed-point quantity algebra the whole
// simulation trades in: signed micro-unit amounts, named quantities, and
// the sparse Container basket type.
// See design doc Section 2.
package goods

import (
	"math"
	"math/bits"
)

// Amount is a signed fixed-point quantity in micro-units.
// 1,000,000 micro-units = 1 logical unit of a good or of money.
type Amount = int64

// Unit is one logical unit expressed in micro-units.
const Unit Amount = 1_000_000

// MulDiv computes a*b/c with a 128-bit intermediate product and truncation
// toward zero. Overflow is reported through the second return value, never
// a panic — overflow is an expected, recoverable condition in fixed-point
// math, not a programming error. On overflow the value is saturated at the
// extreme of the correct sign; division by zero reports overflow with a
// zero value.
func MulDiv(a, b, c Amount) (Amount, bool) {
	if c == 0 {
		return 0, true
	}
	neg := false
	ua := absU64(a, &neg)
	ub := absU64(b, &neg)
	uc := absU64(c, &neg)

	hi, lo := bits.Mul64(ua, ub)
	if hi >= uc {
		// Quotient would not fit in 64 bits.
		return saturated(neg), true
	}
	q, _ := bits.Div64(hi, lo, uc)

	if neg {
		if q > uint64(math.MaxInt64)+1 {
			return math.MinInt64, true
		}
		return -Amount(q), false
	}
	if q > uint64(math.MaxInt64) {
		return math.MaxInt64, true
	}
	return Amount(q), false
}

func saturated(neg bool) Amount {
	if neg {
		return math.MinInt64
	}
	return math.MaxInt64
}

// Mul is the fixed-point product a*b (rescaled by one Unit).
func Mul(a, b Amount) (Amount, bool) {
	return MulDiv(a, b, Unit)
}

// Div is the fixed-point quotient a/b (rescaled by one Unit).
func Div(a, b Amount) (Amount, bool) {
	return MulDiv(a, Unit, b)
}

// absU64 returns |v| as uint64 and flips *neg when v is negative.
// Handles math.MinInt64 without wrapping.
func absU64(v Amount, neg *bool) uint64 {
	if v < 0 {
		*neg = !*neg
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
