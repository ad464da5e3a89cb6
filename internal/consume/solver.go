package consume

import (
	"fmt"

	"github.com/ashvale/tradewinds/internal/goods"
)

// AvailabilityEstimator is the one capability the solver needs from its
// environment. The real implementation is a market; tests use fakes.
type AvailabilityEstimator interface {
	// Available returns how much of a good the actor could obtain within
	// the lookahead horizon.
	Available(name string, lookaheadTurns int) goods.Amount
	// BasketAvailable reports whether a whole basket is obtainable.
	BasketAvailable(basket goods.Container, lookaheadTurns int) bool
}

// aggregatorTolerance is the fixed rounding slack accepted when checking
// whether a clamped or greedy allocation reaches the target product.
const aggregatorTolerance = goods.Unit / 1000

// Solver computes consumption allocations against a goods catalogue. The
// registry is injected, not global; Lookahead is the horizon passed to
// every availability query.
type Solver struct {
	reg       *goods.Registry
	Lookahead int
}

// NewSolver creates a solver over a goods catalogue.
func NewSolver(reg *goods.Registry) *Solver {
	return &Solver{reg: reg, Lookahead: 1}
}

// Validate checks a substitutes configuration against the catalogue.
func (s *Solver) Validate(subs *Substitutes) error {
	return subs.Validate(s.reg)
}

// axis is one good of the active sub-problem.
type axis struct {
	name  string
	coef  goods.Amount
	price goods.Amount
	min   goods.Amount
	avail goods.Amount
}

// Optimum computes the closed-form cost-minimal allocation reaching the
// aggregator target, assuming unlimited availability. Negative closed-form
// roots are clamped to zero and the reduced problem re-solved: at extreme
// relative prices the agent buys none of the pricier substitute.
func (s *Solver) Optimum(subs *Substitutes, prices goods.Container) (goods.Container, error) {
	axes, err := s.buildAxes(subs, prices, nil)
	if err != nil {
		return nil, err
	}
	sol, err := optimumAxes(axes, subs.Offset, subs.MinAmountSquare)
	if err != nil {
		return nil, err
	}
	return solutionContainer(axes, sol), nil
}

// Consumption decides this turn's allocation for one need. Three
// escalating strategies run in order — unconstrained closed form,
// most-violated-constraint clamping, then a greedy order walk — until one
// yields a feasible, non-negative, availability-respecting allocation.
// ErrNotFound means no positive, floor-respecting allocation exists.
func (s *Solver) Consumption(subs *Substitutes, est AvailabilityEstimator, prices goods.Container) (goods.Container, error) {
	if len(subs.Capital) > 0 {
		basket := goods.NewContainer()
		for _, q := range subs.Capital {
			basket.AddQuantity(q)
		}
		if !est.BasketAvailable(basket, s.Lookahead) {
			return nil, fmt.Errorf("need %q: movable capital not on hand: %w", subs.Name, ErrNotFound)
		}
	}

	axes, err := s.buildAxes(subs, prices, est)
	if err != nil {
		return nil, err
	}

	anyAvailable := false
	for _, ax := range axes {
		if ax.avail > 0 {
			anyAvailable = true
		}
		if ax.min > ax.avail {
			return nil, fmt.Errorf("need %q: floor %d of %q above available %d: %w",
				subs.Name, ax.min, ax.name, ax.avail, ErrNotFound)
		}
	}
	if !anyAvailable {
		return nil, fmt.Errorf("need %q: nothing available: %w", subs.Name, ErrNotFound)
	}

	// Strategy 1: unconstrained optimum, kept when it happens to fit.
	if sol, err := optimumAxes(axes, subs.Offset, subs.MinAmountSquare); err == nil && fits(axes, sol) {
		return solutionContainer(axes, sol), nil
	}

	// Strategy 2: clamp the most violated constraint and re-solve.
	if sol, err := constrainedAxes(axes, subs.Offset, subs.MinAmountSquare); err == nil {
		return sol, nil
	}

	// Strategy 3: greedy order walk over whatever is obtainable.
	sol, err := greedyAxes(axes, subs.Offset, subs.MinAmountSquare)
	if err != nil {
		return nil, fmt.Errorf("need %q: %w", subs.Name, err)
	}
	return sol, nil
}

func (s *Solver) buildAxes(subs *Substitutes, prices goods.Container, est AvailabilityEstimator) ([]axis, error) {
	coefs, err := subs.coefficients()
	if err != nil {
		return nil, err
	}
	axes := make([]axis, len(subs.Consumed))
	for i, cg := range subs.Consumed {
		p := prices.Get(cg.Name)
		if p <= 0 {
			return nil, fmt.Errorf("need %q good %q: price %d not positive: %w",
				subs.Name, cg.Name, p, ErrInvalidArgument)
		}
		ax := axis{name: cg.Name, coef: coefs[i], price: p, min: cg.MinAmount}
		if est != nil {
			ax.avail = max(0, est.Available(cg.Name, s.Lookahead))
		}
		axes[i] = ax
	}
	return axes, nil
}

func fits(axes []axis, sol []goods.Amount) bool {
	for i, ax := range axes {
		if sol[i] > ax.avail || sol[i] < ax.min {
			return false
		}
	}
	return true
}

func solutionContainer(axes []axis, sol []goods.Amount) goods.Container {
	out := goods.NewContainer()
	for i, ax := range axes {
		out.Set(ax.name, sol[i])
	}
	return out
}

// optimumAxes solves the Lagrange closed form for the active goods: along
// each axis i the aggregator share is u_i = coef_i·x_i + offset, and cost
// minimisation under Π u_i = target gives u_i proportional to coef_i/price_i.
func optimumAxes(axes []axis, offset, target goods.Amount) ([]goods.Amount, error) {
	switch len(axes) {
	case 1:
		x, err := axisAmount(target, axes[0], offset)
		if err != nil {
			return nil, err
		}
		return []goods.Amount{max(0, x)}, nil

	case 2:
		xs := make([]goods.Amount, 2)
		worst := -1
		for i := range axes {
			j := 1 - i
			u, err := pairShare(target, axes[i], axes[j])
			if err != nil {
				return nil, err
			}
			x, err := axisAmount(u, axes[i], offset)
			if err != nil {
				return nil, err
			}
			xs[i] = x
			if x < 0 && (worst < 0 || x < xs[worst]) {
				worst = i
			}
		}
		if worst < 0 {
			return xs, nil
		}
		return clampAndRecurse(axes, xs, worst, offset, target)

	case 3:
		xs := make([]goods.Amount, 3)
		worst := -1
		for i := range axes {
			j, k := (i+1)%3, (i+2)%3
			u, err := tripleShare(target, axes[i], axes[j], axes[k])
			if err != nil {
				return nil, err
			}
			x, err := axisAmount(u, axes[i], offset)
			if err != nil {
				return nil, err
			}
			xs[i] = x
			if x < 0 && (worst < 0 || x < xs[worst]) {
				worst = i
			}
		}
		if worst < 0 {
			return xs, nil
		}
		return clampAndRecurse(axes, xs, worst, offset, target)
	}
	return nil, fmt.Errorf("%d active goods: %w", len(axes), ErrInvalidArgument)
}

// axisAmount converts an aggregator share back into a quantity:
// x = (u - offset) / coef.
func axisAmount(u goods.Amount, ax axis, offset goods.Amount) (goods.Amount, error) {
	x, overflow := goods.Div(u-offset, ax.coef)
	if overflow {
		return 0, fmt.Errorf("good %q amount: %w", ax.name, ErrOverflow)
	}
	return x, nil
}

// pairShare computes u_i = sqrt(target·coef_i·price_j / (coef_j·price_i))
// for the two-good closed form.
func pairShare(target goods.Amount, ai, aj axis) (goods.Amount, error) {
	v, overflow := goods.MulDiv(target, ai.coef, aj.coef)
	if overflow {
		return 0, fmt.Errorf("pair share %q: %w", ai.name, ErrOverflow)
	}
	v, overflow = goods.MulDiv(v, aj.price, ai.price)
	if overflow {
		return 0, fmt.Errorf("pair share %q: %w", ai.name, ErrOverflow)
	}
	u, overflow := sqrtFP(v)
	if overflow {
		return 0, fmt.Errorf("pair share %q: %w", ai.name, ErrOverflow)
	}
	return u, nil
}

// tripleShare computes u_i = cbrt(target·coef_i²·price_j·price_k /
// (coef_j·coef_k·price_i²)) for the three-good closed form.
func tripleShare(target goods.Amount, ai, aj, ak axis) (goods.Amount, error) {
	v, overflow := goods.MulDiv(target, ai.coef, aj.coef)
	if !overflow {
		v, overflow = goods.MulDiv(v, ai.coef, ak.coef)
	}
	if !overflow {
		v, overflow = goods.MulDiv(v, aj.price, ai.price)
	}
	if !overflow {
		v, overflow = goods.MulDiv(v, ak.price, ai.price)
	}
	if overflow {
		return 0, fmt.Errorf("triple share %q: %w", ai.name, ErrOverflow)
	}
	u, overflow := cbrtFP(v)
	if overflow {
		return 0, fmt.Errorf("triple share %q: %w", ai.name, ErrOverflow)
	}
	return u, nil
}

// clampAndRecurse zeroes the most negative axis, divides its offset term
// out of the target, and re-solves the remaining goods.
func clampAndRecurse(axes []axis, xs []goods.Amount, worst int, offset, target goods.Amount) ([]goods.Amount, error) {
	reduced, overflow := goods.Div(target, offset)
	if overflow {
		return nil, fmt.Errorf("reduced target: %w", ErrOverflow)
	}
	rest := make([]axis, 0, len(axes)-1)
	for i, ax := range axes {
		if i != worst {
			rest = append(rest, ax)
		}
	}
	sub, err := optimumAxes(rest, offset, reduced)
	if err != nil {
		return nil, err
	}
	out := make([]goods.Amount, len(axes))
	si := 0
	for i := range axes {
		if i == worst {
			out[i] = 0
			continue
		}
		out[i] = sub[si]
		si++
	}
	return out, nil
}
