// Caravan trade — a trading company arbitrages price gaps between
// settlements, moving mobile goods by road or by sea.
// See design doc Section 6.
package engine

import (
	"log/slog"

	"github.com/ashvale/tradewinds/internal/goods"
)

const (
	// caravanMargin is the minimum destination/source price ratio worth
	// dispatching for: transport and spoilage eat anything thinner.
	caravanMargin = goods.Unit + goods.Unit/2

	// caravanCapacityBulk is how much bulk one caravan carries.
	caravanCapacityBulk = 20 * goods.Unit

	// Travel speed in hexes per turn.
	landSpeed = 2
	seaSpeed  = 4
)

// Shipment is a load of goods underway between two settlements.
type Shipment struct {
	Good      string       `json:"good"`
	Amount    goods.Amount `json:"amount"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	ArrivesAt uint64       `json:"arrives_at"`
}

// dispatchCaravans scans every route for price gaps and buys cargo where
// the spread clears the margin. The trading company starts with nothing
// and trades on market credit.
func (s *Simulation) dispatchCaravans(turn uint64) {
	for _, src := range s.Settlements {
		for _, dst := range s.Settlements {
			if src == dst {
				continue
			}
			for _, name := range s.Registry.Names() {
				if name == s.Scenario.LegalTender {
					continue
				}
				g, ok := s.Registry.Get(name)
				if !ok || !g.Mobile() {
					continue
				}
				if g.Transport == goods.TransportSea && !s.Atlas.HasSeaRoute(src.Name, dst.Name) {
					continue
				}
				if !src.Market.Registered(name) {
					continue
				}

				srcPrice := src.Market.GetPriceU(name)
				threshold, overflow := goods.Mul(srcPrice, caravanMargin)
				if overflow || dst.Market.GetPriceU(name) <= threshold {
					continue
				}

				want, overflow := goods.Div(caravanCapacityBulk, g.Bulk)
				if overflow || want <= 0 {
					continue
				}
				bought := src.Market.TryToBuy(name, want, s.Trader)
				if bought <= 0 {
					continue
				}

				dist, err := s.Atlas.Distance(src.Name, dst.Name)
				if err != nil {
					continue
				}
				speed := landSpeed
				if g.Transport == goods.TransportSea {
					speed = seaSpeed
				}
				travel := max(1, dist/speed)

				s.Shipments = append(s.Shipments, &Shipment{
					Good:      name,
					Amount:    bought,
					From:      src.Name,
					To:        dst.Name,
					ArrivesAt: turn + uint64(travel),
				})
				slog.Info("caravan dispatched",
					"turn", turn,
					"good", name,
					"amount", bought,
					"from", src.Name,
					"to", dst.Name,
					"arrives", turn+uint64(travel),
				)
			}
		}
	}
}

// deliverShipments sells arrived cargo into its destination market.
func (s *Simulation) deliverShipments(turn uint64) {
	keep := s.Shipments[:0]
	for _, sh := range s.Shipments {
		if sh.ArrivesAt > turn {
			keep = append(keep, sh)
			continue
		}
		dst := s.byName[sh.To]
		if dst == nil {
			continue
		}
		// Sell only what the company still holds; earlier deliveries of
		// the same good may have drawn from the shared hold.
		amount := min(sh.Amount, s.Trader.Get(sh.Good))
		if amount <= 0 {
			continue
		}
		sold := dst.Market.TryToSell(sh.Good, amount, s.Trader)
		slog.Info("caravan arrived",
			"turn", turn,
			"good", sh.Good,
			"sold", sold,
			"from", sh.From,
			"to", sh.To,
		)
	}
	s.Shipments = keep
}
