package consume

import (
	"fmt"

	"github.com/ashvale/tradewinds/internal/goods"
)

// constrainedAxes handles allocations the unconstrained optimum cannot:
// it repeatedly solves the closed form, pins the single most violated
// constraint at its bound — largest excess over availability first, then
// largest deficit under a floor — divides the pinned good's aggregator
// term out of the target, and re-solves the rest.
func constrainedAxes(axes []axis, offset, target goods.Amount) (goods.Container, error) {
	fixed := goods.NewContainer()
	active := make([]axis, len(axes))
	copy(active, axes)

	for len(active) > 0 {
		sol, err := optimumAxes(active, offset, target)
		if err != nil {
			return nil, err
		}

		worst, bound := pickViolation(active, sol)
		if worst < 0 {
			for i, ax := range active {
				fixed.Set(ax.name, sol[i])
			}
			return fixed, nil
		}

		fixed.Set(active[worst].name, bound)
		target, err = divideOutTerm(target, active[worst], bound, offset)
		if err != nil {
			return nil, err
		}
		active = append(active[:worst], active[worst+1:]...)

		// Pinned goods alone may already clear the target.
		if target <= goods.Unit {
			for _, ax := range active {
				fixed.Set(ax.name, max(0, ax.min))
			}
			return fixed, nil
		}
	}

	// Every good is pinned at a bound; feasible only if their terms left
	// nothing (beyond rounding) of the target product.
	if target > goods.Unit+aggregatorTolerance {
		return nil, fmt.Errorf("all goods at bounds, target short by %d: %w",
			target-goods.Unit, ErrNotFound)
	}
	return fixed, nil
}

// pickViolation returns the index and bound of the most violated
// constraint, or (-1, 0) when the solution is feasible. Availability
// excesses outrank floor deficits.
func pickViolation(axes []axis, sol []goods.Amount) (int, goods.Amount) {
	worst := -1
	var worstGap goods.Amount
	for i, ax := range axes {
		if gap := sol[i] - ax.avail; gap > 0 && (worst < 0 || gap > worstGap) {
			worst, worstGap = i, gap
		}
	}
	if worst >= 0 {
		return worst, axes[worst].avail
	}
	for i, ax := range axes {
		if gap := ax.min - sol[i]; gap > 0 && (worst < 0 || gap > worstGap) {
			worst, worstGap = i, gap
		}
	}
	if worst >= 0 {
		return worst, axes[worst].min
	}
	return -1, 0
}

// divideOutTerm removes a pinned good's aggregator contribution
// coef·bound + offset from the target product.
func divideOutTerm(target goods.Amount, ax axis, bound, offset goods.Amount) (goods.Amount, error) {
	u, overflow := goods.Mul(ax.coef, bound)
	if overflow {
		return 0, fmt.Errorf("pinned term %q: %w", ax.name, ErrOverflow)
	}
	u += offset
	if u <= 0 {
		return 0, fmt.Errorf("pinned term %q not positive: %w", ax.name, ErrInvalidArgument)
	}
	reduced, overflow := goods.Div(target, u)
	if overflow {
		return 0, fmt.Errorf("reduced target after pinning %q: %w", ax.name, ErrOverflow)
	}
	return reduced, nil
}
