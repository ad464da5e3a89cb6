package consume

import (
	"fmt"

	"github.com/ashvale/tradewinds/internal/goods"
)

// greedyAxes is the last-resort strategy: walk the goods in declared
// order, taking everything available until the running aggregator product
// clears the target, ignoring prices entirely. A good whose full
// availability overshoots is taken only up to the amount that meets the
// target, assuming every later good sits at zero consumption (its term is
// just the offset).
func greedyAxes(axes []axis, offset, target goods.Amount) (goods.Container, error) {
	out := goods.NewContainer()
	remaining := target

	for i, ax := range axes {
		// Offset mass contributed by the goods still to come.
		tailPow, overflow := powFP(offset, len(axes)-i-1)
		if overflow {
			return nil, fmt.Errorf("greedy tail power: %w", ErrOverflow)
		}
		needU, overflow := goods.Div(remaining, tailPow)
		if overflow {
			return nil, fmt.Errorf("greedy share %q: %w", ax.name, ErrOverflow)
		}

		fullU, overflow := goods.Mul(ax.coef, ax.avail)
		if overflow {
			return nil, fmt.Errorf("greedy term %q: %w", ax.name, ErrOverflow)
		}
		fullU += offset

		if fullU >= needU {
			// Partial take of this good alone finishes the need.
			x, overflow := goods.Div(needU-offset, ax.coef)
			if overflow {
				return nil, fmt.Errorf("greedy amount %q: %w", ax.name, ErrOverflow)
			}
			x = max(ax.min, x)
			// Round up so truncation cannot leave the product short.
			if u, _ := goods.Mul(ax.coef, x); u+offset < needU && x < ax.avail {
				x++
			}
			out.Set(ax.name, x)
			for _, rest := range axes[i+1:] {
				out.Set(rest.name, rest.min)
			}
			return out, nil
		}

		out.Set(ax.name, ax.avail)
		remaining, overflow = goods.Div(remaining, fullU)
		if overflow {
			return nil, fmt.Errorf("greedy remainder %q: %w", ax.name, ErrOverflow)
		}
	}

	if remaining > goods.Unit+aggregatorTolerance {
		return nil, fmt.Errorf("consumed everything obtainable, target short by %d: %w",
			remaining-goods.Unit, ErrNotFound)
	}
	return out, nil
}
