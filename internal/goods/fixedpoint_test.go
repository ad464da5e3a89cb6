package goods

import (
	"math"
	"testing"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name     string
		a, b, c  Amount
		want     Amount
		overflow bool
	}{
		{"one times one", Unit, Unit, Unit, Unit, false},
		{"truncates toward zero", 1, 1, Unit, 0, false},
		{"negative truncates toward zero", -1, 1, Unit, 0, false},
		{"sign combination", -3 * Unit, 2 * Unit, Unit, -6 * Unit, false},
		{"double negative", -3 * Unit, -2 * Unit, Unit, 6 * Unit, false},
		{"big intermediate survives", math.MaxInt64 / 2, 2_000_000, 2_000_000, math.MaxInt64 / 2, false},
		{"quotient overflows", math.MaxInt64, 2 * Unit, Unit, math.MaxInt64, true},
		{"divide by zero", Unit, Unit, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, overflow := MulDiv(tc.a, tc.b, tc.c)
			if got != tc.want || overflow != tc.overflow {
				t.Fatalf("MulDiv(%d,%d,%d) = (%d,%v), want (%d,%v)",
					tc.a, tc.b, tc.c, got, overflow, tc.want, tc.overflow)
			}
		})
	}
}

func TestMulAndDivRescale(t *testing.T) {
	// 2.5 * 4 = 10 in unit terms.
	if got, overflow := Mul(2_500_000, 4_000_000); got != 10_000_000 || overflow {
		t.Fatalf("Mul = (%d,%v)", got, overflow)
	}
	// 10 / 4 = 2.5.
	if got, overflow := Div(10_000_000, 4_000_000); got != 2_500_000 || overflow {
		t.Fatalf("Div = (%d,%v)", got, overflow)
	}
	// 1 micro-unit / 3 truncates to zero.
	if got, _ := Div(1, 3*Unit); got != 0 {
		t.Fatalf("tiny Div got %d want 0", got)
	}
}

func TestMinInt64DoesNotWrap(t *testing.T) {
	got, overflow := MulDiv(math.MinInt64, 1*Unit, Unit)
	if overflow || got != math.MinInt64 {
		t.Fatalf("MinInt64 identity = (%d,%v)", got, overflow)
	}
}
