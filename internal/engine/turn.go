// Per-turn economics: production, feeding, surplus sale, caravan trade,
// then price discovery and spoilage. See design doc Section 5.
package engine

import (
	"log/slog"

	"github.com/ashvale/tradewinds/internal/goods"
	"github.com/ashvale/tradewinds/internal/market"
)

// Turn advances the world by one turn.
func (s *Simulation) Turn(turn uint64) {
	s.LastTurn = turn
	yield := SeasonYield(turn)

	for _, st := range s.Settlements {
		s.produce(st, yield)
	}
	for _, st := range s.Settlements {
		for _, pop := range st.Populations {
			if pop.Size <= 0 {
				continue
			}
			s.feed(st, pop)
			s.sellSurplus(st, pop)
		}
	}

	s.deliverShipments(turn)
	s.dispatchCaravans(turn)

	for _, st := range s.Settlements {
		st.Market.FindPrices()
		st.Market.Decay()
	}

	s.processPopulations(turn)
	s.updateStats()
}

// produce credits each population with its output, scaled by the site's
// fertility and the season.
func (s *Simulation) produce(st *Settlement, yield goods.Amount) {
	for _, pop := range st.Populations {
		if pop.Size <= 0 {
			continue
		}
		headcount := goods.Amount(pop.Size) * goods.Unit
		for _, pr := range pop.Produces {
			total, overflow := goods.Mul(pr.Output, headcount)
			if !overflow {
				total, overflow = goods.Mul(total, st.Site.Fertility)
			}
			if !overflow {
				total, overflow = goods.Mul(total, yield)
			}
			if overflow || total <= 0 {
				continue
			}
			pop.Holdings.AddQuantity(goods.Quantity{Name: pr.Good, Amount: total})
		}
	}
}

// feed runs the consumption solver for one population and eats the
// result, buying whatever the group does not already hold.
func (s *Simulation) feed(st *Settlement, pop *Population) {
	if pop.Need == nil {
		return
	}

	prices := goods.NewContainer()
	for _, cg := range pop.Need.Consumed {
		prices.Set(cg.Name, st.Market.GetPriceU(cg.Name))
	}

	est := &groupEstimator{
		market:   st.Market,
		holdings: pop.Holdings,
		size:     goods.Amount(pop.Size),
	}

	perMember, err := s.Solver.Consumption(pop.Need, est, prices)
	if err != nil {
		pop.recordMeal(false)
		return
	}

	fed := true
	for _, q := range perMember.Expand() {
		want, overflow := goods.Mul(q.Amount, goods.Amount(pop.Size)*goods.Unit)
		if overflow || want <= 0 {
			continue
		}
		if short := want - pop.Holdings.Get(q.Name); short > 0 {
			st.Market.TryToBuy(q.Name, short, pop.Holdings)
		}
		eaten := min(want, pop.Holdings.Get(q.Name))
		if eaten < want {
			fed = false
		}
		if eaten > 0 {
			pop.Holdings.SubQuantity(goods.Quantity{Name: q.Name, Amount: eaten})
		}
	}
	pop.recordMeal(fed)
}

// sellSurplus puts whatever the population still holds of its own produce
// on the market.
func (s *Simulation) sellSurplus(st *Settlement, pop *Population) {
	for _, pr := range pop.Produces {
		if qty := pop.Holdings.Get(pr.Good); qty > 0 {
			st.Market.TryToSell(pr.Good, qty, pop.Holdings)
		}
	}
}

// groupEstimator answers per-member availability for a population: its
// own stores plus the local market, divided across the group.
type groupEstimator struct {
	market   *market.Market
	holdings *goods.Container
	size     goods.Amount
}

func (g *groupEstimator) Available(name string, lookaheadTurns int) goods.Amount {
	total := g.holdings.Get(name) + g.market.Available(name, lookaheadTurns)
	per, overflow := goods.MulDiv(total, goods.Unit, g.size*goods.Unit)
	if overflow {
		return 0
	}
	return per
}

func (g *groupEstimator) BasketAvailable(basket goods.Container, lookaheadTurns int) bool {
	for _, q := range basket.Expand() {
		want, overflow := goods.Mul(q.Amount, g.size*goods.Unit)
		if overflow {
			return false
		}
		if g.holdings.Get(q.Name)+g.market.Available(q.Name, lookaheadTurns) < want {
			return false
		}
	}
	return true
}

// Report logs the weekly state of the world, in the spirit of a harbor
// master's ledger.
func (s *Simulation) Report(turn uint64) {
	slog.Info("weekly report",
		"turn", turn,
		"time", SimTime(turn),
		"population", s.Stats.TotalPopulation,
		"fed_groups", s.Stats.FedGroups,
		"starving_groups", s.Stats.StarvingGroups,
		"shipments", s.Stats.ShipmentsOnRoad,
		"total_money", s.Stats.TotalMoney,
	)
	for _, st := range s.Settlements {
		attrs := []any{"settlement", st.Name}
		for _, q := range st.Market.Prices.Expand() {
			attrs = append(attrs, "price_"+q.Name, q.Amount)
		}
		slog.Info("market prices", attrs...)
	}
}
