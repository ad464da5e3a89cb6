package consume

import (
	"fmt"

	"github.com/ashvale/tradewinds/internal/goods"
)

// maxSubstitutes is the solver's hard cap: closed forms exist for one, two,
// and three goods and the game never needs more.
const maxSubstitutes = 3

// ConsumedGood is one member of a substitution group. Crossing is the
// consumption amount at which the good's marginal contribution to the
// satisfaction aggregator equals the reference offset; MinAmount is an
// optional floor the allocation must respect (0 = none).
type ConsumedGood struct {
	Name      string       `yaml:"name"`
	Crossing  goods.Amount `yaml:"crossing"`
	MinAmount goods.Amount `yaml:"min_amount"`
}

// Substitutes describes one consumption need: 1–3 substitutable goods with
// crossing-point economics. A solution x must reach the aggregator target
// Π(coef_i·x_i + Offset) = MinAmountSquare (D²), where each coefficient is
// derived from the good's crossing point. Capital lists movable goods the
// actor must have on hand for the need to apply at all.
//
// Built at scenario load, validated once, immutable afterwards.
type Substitutes struct {
	Name            string           `yaml:"name"`
	Consumed        []ConsumedGood   `yaml:"consumed"`
	Capital         []goods.Quantity `yaml:"capital"`
	Offset          goods.Amount     `yaml:"offset"`
	MinAmountSquare goods.Amount     `yaml:"min_amount_square"`
}

// targetRoot returns D^(2/n): the per-good aggregator share at symmetric
// prices.
func (s *Substitutes) targetRoot() (goods.Amount, error) {
	switch len(s.Consumed) {
	case 1:
		return s.MinAmountSquare, nil
	case 2:
		r, overflow := sqrtFP(s.MinAmountSquare)
		if overflow {
			return 0, fmt.Errorf("sqrt of target %d: %w", s.MinAmountSquare, ErrOverflow)
		}
		return r, nil
	case 3:
		r, overflow := cbrtFP(s.MinAmountSquare)
		if overflow {
			return 0, fmt.Errorf("cbrt of target %d: %w", s.MinAmountSquare, ErrOverflow)
		}
		return r, nil
	}
	return 0, fmt.Errorf("%d consumed goods: %w", len(s.Consumed), ErrInvalidArgument)
}

// coefficients derives the per-good aggregator coefficients so that
// coef_i·crossing_i + offset = D^(2/n).
func (s *Substitutes) coefficients() ([]goods.Amount, error) {
	root, err := s.targetRoot()
	if err != nil {
		return nil, err
	}
	rise := root - s.Offset
	if rise <= 0 {
		return nil, fmt.Errorf("need %q: target %d not above offset at zero consumption: %w",
			s.Name, s.MinAmountSquare, ErrInvalidArgument)
	}

	coefs := make([]goods.Amount, len(s.Consumed))
	for i, cg := range s.Consumed {
		c, overflow := goods.Div(rise, cg.Crossing)
		if overflow {
			return nil, fmt.Errorf("need %q good %q coefficient: %w", s.Name, cg.Name, ErrOverflow)
		}
		if c <= 0 {
			return nil, fmt.Errorf("need %q good %q: coefficient ratio not positive: %w",
				s.Name, cg.Name, ErrInvalidArgument)
		}
		coefs[i] = c
	}
	return coefs, nil
}

// Validate checks a substitutes configuration against the world's goods
// catalogue. Call it once at scenario load; the solver assumes validated
// input and does not re-check.
func (s *Substitutes) Validate(reg *goods.Registry) error {
	if len(s.Consumed) == 0 {
		return fmt.Errorf("need %q: no consumed goods: %w", s.Name, ErrInvalidArgument)
	}
	if len(s.Consumed) > maxSubstitutes {
		return fmt.Errorf("need %q: %d consumed goods, max %d: %w",
			s.Name, len(s.Consumed), maxSubstitutes, ErrInvalidArgument)
	}
	if len(s.Capital) > maxSubstitutes {
		return fmt.Errorf("need %q: %d capital goods, max %d: %w",
			s.Name, len(s.Capital), maxSubstitutes, ErrInvalidArgument)
	}
	if s.Offset <= 0 {
		return fmt.Errorf("need %q: offset %d not positive: %w", s.Name, s.Offset, ErrInvalidArgument)
	}

	seen := make(map[string]bool, len(s.Consumed))
	for _, cg := range s.Consumed {
		if _, ok := reg.Get(cg.Name); !ok {
			return fmt.Errorf("need %q: good %q not in catalogue: %w", s.Name, cg.Name, ErrInvalidArgument)
		}
		if seen[cg.Name] {
			return fmt.Errorf("need %q: good %q listed twice: %w", s.Name, cg.Name, ErrInvalidArgument)
		}
		seen[cg.Name] = true
		if cg.Crossing <= 0 {
			return fmt.Errorf("need %q good %q: crossing %d not positive: %w",
				s.Name, cg.Name, cg.Crossing, ErrInvalidArgument)
		}
		if cg.MinAmount < 0 {
			return fmt.Errorf("need %q good %q: negative floor: %w", s.Name, cg.Name, ErrInvalidArgument)
		}
	}
	for _, q := range s.Capital {
		if _, ok := reg.Get(q.Name); !ok {
			return fmt.Errorf("need %q: capital good %q not in catalogue: %w", s.Name, q.Name, ErrInvalidArgument)
		}
		g, _ := reg.Get(q.Name)
		if !g.Mobile() {
			return fmt.Errorf("need %q: capital good %q is immobile: %w", s.Name, q.Name, ErrInvalidArgument)
		}
	}

	// D² must exceed offset^n, otherwise the aggregator is already
	// satisfied at zero consumption; coefficient derivation must neither
	// vanish nor overflow. Both fall out of computing the coefficients.
	if _, err := s.coefficients(); err != nil {
		return err
	}
	return nil
}
