package consume

import (
	"math"
	"math/bits"
	"testing"

	"github.com/ashvale/tradewinds/internal/goods"
)

const u = goods.Unit

func TestSqrtFP(t *testing.T) {
	tests := []struct {
		name string
		in   goods.Amount
		want goods.Amount
	}{
		{"zero", 0, 0},
		{"one", u, u},
		{"four", 4 * u, 2 * u},
		{"nine", 9 * u, 3 * u},
		{"two truncates", 2 * u, 1_414_213},
		{"sub-unit", u / 4, u / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, overflow := sqrtFP(tt.in)
			if overflow {
				t.Fatalf("sqrtFP(%d) overflowed", tt.in)
			}
			if got != tt.want {
				t.Fatalf("sqrtFP(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	for _, bad := range []goods.Amount{-1, maxRootArg + 1, math.MaxInt64} {
		if _, overflow := sqrtFP(bad); !overflow {
			t.Fatalf("sqrtFP(%d) accepted an out-of-domain argument", bad)
		}
	}
}

func TestSqrtFPIsFloor(t *testing.T) {
	for _, v := range []goods.Amount{u, 2 * u, 3 * u, 1234567, 999_999_999_999} {
		r, overflow := sqrtFP(v)
		if overflow {
			t.Fatalf("sqrtFP(%d) overflowed", v)
		}
		x := uint64(v) * uint64(u)
		if rr := uint64(r); rr*rr > x {
			t.Fatalf("sqrtFP(%d) = %d overshoots", v, r)
		}
		if rr := uint64(r + 1); rr*rr <= x {
			t.Fatalf("sqrtFP(%d) = %d undershoots", v, r)
		}
	}
}

func TestCbrtFP(t *testing.T) {
	tests := []struct {
		name string
		in   goods.Amount
		want goods.Amount
	}{
		{"zero", 0, 0},
		{"one", u, u},
		{"eight", 8 * u, 2 * u},
		{"twenty-seven", 27 * u, 3 * u},
		{"two truncates", 2 * u, 1_259_921},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, overflow := cbrtFP(tt.in)
			if overflow {
				t.Fatalf("cbrtFP(%d) overflowed", tt.in)
			}
			if got != tt.want {
				t.Fatalf("cbrtFP(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	for _, bad := range []goods.Amount{-5, maxRootArg + 1} {
		if _, overflow := cbrtFP(bad); !overflow {
			t.Fatalf("cbrtFP(%d) accepted an out-of-domain argument", bad)
		}
	}
}

func TestCbrtFPIsFloor(t *testing.T) {
	for _, v := range []goods.Amount{u, 5 * u, 123 * u, 7_654_321, maxRootArg} {
		r, overflow := cbrtFP(v)
		if overflow {
			t.Fatalf("cbrtFP(%d) overflowed", v)
		}
		thi, tlo := cubeTarget(v)
		if cubeAbove(uint64(r), thi, tlo) {
			t.Fatalf("cbrtFP(%d) = %d overshoots", v, r)
		}
		if !cubeAbove(uint64(r+1), thi, tlo) {
			t.Fatalf("cbrtFP(%d) = %d undershoots", v, r)
		}
	}
}

func cubeTarget(v goods.Amount) (uint64, uint64) {
	return bits.Mul64(uint64(v)*uint64(u), uint64(u))
}

func TestPowFP(t *testing.T) {
	tests := []struct {
		base goods.Amount
		exp  int
		want goods.Amount
	}{
		{2 * u, 0, u},
		{2 * u, 1, 2 * u},
		{2 * u, 3, 8 * u},
		{u / 2, 2, u / 4},
	}
	for _, tt := range tests {
		got, overflow := powFP(tt.base, tt.exp)
		if overflow {
			t.Fatalf("powFP(%d, %d) overflowed", tt.base, tt.exp)
		}
		if got != tt.want {
			t.Fatalf("powFP(%d, %d) = %d, want %d", tt.base, tt.exp, got, tt.want)
		}
	}

	if _, overflow := powFP(maxRootArg, 3); !overflow {
		t.Fatal("powFP accepted an overflowing power")
	}
}
