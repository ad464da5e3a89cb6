// Simulation ties together all world systems and advances them each turn.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ashvale/tradewinds/internal/consume"
	"github.com/ashvale/tradewinds/internal/goods"
	"github.com/ashvale/tradewinds/internal/market"
	"github.com/ashvale/tradewinds/internal/scenario"
	"github.com/ashvale/tradewinds/internal/world"
)

// Production is one per-member output of a population.
type Production struct {
	Good   string
	Output goods.Amount // per member per turn at fertility 1.0
}

// Population is a group of identical actors at one settlement: they hold
// one shared purse, produce together, and eat together.
type Population struct {
	Name     string
	Size     int
	Need     *consume.Substitutes // nil = does not eat
	Produces []Production
	Holdings *goods.Container

	FedStreak int // consecutive turns the need was fully met
	Starving  int // consecutive turns it was not
}

// Settlement is one market town on the map.
type Settlement struct {
	Name        string
	Site        *world.Site
	Market      *market.Market
	Populations []*Population
}

// Simulation holds the complete world state and wires systems together.
type Simulation struct {
	Scenario *scenario.Scenario
	Registry *goods.Registry
	Needs    map[string]*consume.Substitutes
	Atlas    *world.Atlas
	Solver   *consume.Solver

	Settlements []*Settlement // ordered as in the scenario
	byName      map[string]*Settlement

	Shipments []*Shipment      // caravans currently underway
	Trader    *goods.Container // the trading company's purse

	LastTurn uint64
	Stats    SimStats
}

// SimStats tracks aggregate world statistics, refreshed each turn.
type SimStats struct {
	TotalPopulation int          `json:"total_population"`
	FedGroups       int          `json:"fed_groups"`
	StarvingGroups  int          `json:"starving_groups"`
	ShipmentsOnRoad int          `json:"shipments_on_road"`
	TotalMoney      goods.Amount `json:"total_money"`
}

// NewSimulation builds a world from a validated scenario: generates the
// map, places the settlements, opens their markets, and seeds starting
// stock and money.
func NewSimulation(scn *scenario.Scenario) (*Simulation, error) {
	reg, err := scn.Registry()
	if err != nil {
		return nil, fmt.Errorf("goods catalogue: %w", err)
	}
	needs, err := scn.BuildNeeds(reg)
	if err != nil {
		return nil, fmt.Errorf("needs: %w", err)
	}

	placements := make([]world.Placement, len(scn.Locations))
	for i, loc := range scn.Locations {
		placements[i] = world.Placement{Name: loc.Name, Coastal: loc.Coastal}
	}
	cfg := world.DefaultGenConfig()
	cfg.Seed = scn.Seed
	atlas, err := world.BuildAtlas(cfg, placements)
	if err != nil {
		return nil, fmt.Errorf("world map: %w", err)
	}

	trader := goods.NewContainer()
	sim := &Simulation{
		Scenario: scn,
		Registry: reg,
		Needs:    needs,
		Atlas:    atlas,
		Solver:   consume.NewSolver(reg),
		byName:   make(map[string]*Settlement, len(scn.Locations)),
		Trader:   &trader,
	}

	for _, loc := range scn.Locations {
		m := market.New(loc.Name, reg, scn.LegalTender, scn.CreditLimit.Amount())
		m.Warehouse.Set(scn.LegalTender, loc.Money.Amount())
		for _, item := range loc.Stock {
			m.RegisterGood(item.Name)
			m.Warehouse.Add(goods.Container{item.Name: item.Amount.Amount()})
		}

		st := &Settlement{
			Name:   loc.Name,
			Site:   atlas.Sites[loc.Name],
			Market: m,
		}
		for _, pd := range loc.Populations {
			holdings := goods.NewContainer()
			holdings.Set(scn.LegalTender, pd.Money.Amount())
			pop := &Population{
				Name:     pd.Name,
				Size:     pd.Size,
				Holdings: &holdings,
			}
			if pd.Need != "" {
				pop.Need = needs[pd.Need]
			}
			for _, pr := range pd.Produces {
				m.RegisterGood(pr.Good)
				pop.Produces = append(pop.Produces, Production{
					Good:   pr.Good,
					Output: pr.Output.Amount(),
				})
			}
			st.Populations = append(st.Populations, pop)
		}

		sim.Settlements = append(sim.Settlements, st)
		sim.byName[loc.Name] = st
	}

	sim.updateStats()
	slog.Info("world created",
		"scenario", scn.Name,
		"settlements", len(sim.Settlements),
		"population", sim.Stats.TotalPopulation,
		"map", atlas.Map.String(),
	)
	return sim, nil
}

// Settlement returns a settlement by name, or nil.
func (s *Simulation) Settlement(name string) *Settlement {
	return s.byName[name]
}

// SettlementNames returns the settlement names in stable order.
func (s *Simulation) SettlementNames() []string {
	names := make([]string, len(s.Settlements))
	for i, st := range s.Settlements {
		names[i] = st.Name
	}
	sort.Strings(names)
	return names
}

// CurrentTurn returns the most recently processed turn number.
func (s *Simulation) CurrentTurn() uint64 {
	return s.LastTurn
}

func (s *Simulation) updateStats() {
	var stats SimStats
	tender := s.Scenario.LegalTender

	for _, st := range s.Settlements {
		stats.TotalMoney += st.Market.Warehouse.Get(tender)
		for _, pop := range st.Populations {
			stats.TotalPopulation += pop.Size
			stats.TotalMoney += pop.Holdings.Get(tender)
			if pop.Need == nil || pop.Size == 0 {
				continue
			}
			if pop.Starving > 0 {
				stats.StarvingGroups++
			} else if pop.FedStreak > 0 {
				stats.FedGroups++
			}
		}
	}
	stats.TotalMoney += s.Trader.Get(tender)
	stats.ShipmentsOnRoad = len(s.Shipments)
	s.Stats = stats
}
