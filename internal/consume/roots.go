package consume

import (
	"math"
	"math/bits"

	"github.com/ashvale/tradewinds/internal/goods"
)

// Integer roots on micro-unit fixed point. A float seed gets within a few
// steps of the answer; integer correction then pins the exact floor, so
// results do not depend on float rounding. Arguments above maxRootArg
// (about 9.2 million units) report overflow — far beyond any per-turn
// consumption quantity.
const maxRootArg = math.MaxInt64 / goods.Unit

// sqrtFP returns floor(sqrt(v)) in fixed point: the largest r with
// r·r/Unit ≤ v.
func sqrtFP(v goods.Amount) (goods.Amount, bool) {
	if v < 0 || v > maxRootArg {
		return 0, true
	}
	if v == 0 {
		return 0, false
	}
	x := uint64(v) * uint64(goods.Unit)
	r := uint64(math.Sqrt(float64(x)))
	for r > 0 && r*r > x {
		r--
	}
	for (r+1)*(r+1) <= x {
		r++
	}
	return goods.Amount(r), false
}

// cbrtFP returns floor(cbrt(v)) in fixed point: the largest r with
// r·r·r/Unit² ≤ v. The comparison runs in 128 bits.
func cbrtFP(v goods.Amount) (goods.Amount, bool) {
	if v < 0 || v > maxRootArg {
		return 0, true
	}
	if v == 0 {
		return 0, false
	}
	// Target is v·Unit², up to ~9.2e24: held as a 128-bit pair.
	thi, tlo := bits.Mul64(uint64(v)*uint64(goods.Unit), uint64(goods.Unit))

	r := uint64(math.Cbrt(float64(v) * 1e12))
	for r > 0 && cubeAbove(r, thi, tlo) {
		r--
	}
	for !cubeAbove(r+1, thi, tlo) {
		r++
	}
	return goods.Amount(r), false
}

// cubeAbove reports r³ > (thi,tlo). r is at most ~2.1e8 here, so r² fits
// in 64 bits and the final product in 128.
func cubeAbove(r, thi, tlo uint64) bool {
	sq := r * r
	hi, lo := bits.Mul64(sq, r)
	if hi != thi {
		return hi > thi
	}
	return lo > tlo
}

// powFP raises a fixed-point value to a small non-negative integer power.
func powFP(base goods.Amount, exp int) (goods.Amount, bool) {
	result := goods.Amount(goods.Unit)
	for i := 0; i < exp; i++ {
		var overflow bool
		result, overflow = goods.Mul(result, base)
		if overflow {
			return 0, true
		}
	}
	return result, false
}
