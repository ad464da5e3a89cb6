// Package market implements one location's continuous double-auction
// market: a warehouse trading against its own tender, peer-to-peer matching
// of pending buy offers, short-term credit with netting, and a bounded
// tâtonnement price step once per round.
// See design doc Section 3.
package market

import (
	"github.com/ashvale/tradewinds/internal/goods"
)

// Synthetic goods any container may hold to represent short-term claims
// against (credit) or owed to (debt) a market's unsecured credit facility.
// A container nets these: at most one side is ever non-zero.
const (
	CreditToken = "market.credit"
	DebtToken   = "market.debt"
)

// Offer is pending unmet demand for one good, keyed by the buyer's
// container identity. Offers never outlive the round: FindPrices clears
// them, so a buyer container may only be released between rounds.
type Offer struct {
	Amount goods.Amount
	Buyer  *goods.Container
}

// Market holds the economic state of a single location. A Market instance
// is exclusively owned by the single-threaded turn loop for its location;
// nothing here locks.
type Market struct {
	Location    string
	Warehouse   goods.Container
	Prices      goods.Container // unit price per registered good, floor 1 micro-unit
	Volume      goods.Container // goods matched this round, reset by FindPrices
	MarketDebt  goods.Container // tender owed to sellers per good, beyond issued credit
	CreditLimit goods.Amount    // per-container unsecured credit ceiling
	LegalTender string

	reg        *goods.Registry
	warehoused goods.Container // net new warehouse inflow this round
	offers     map[string][]*Offer
}

// New creates a market. The registry is the world's goods catalogue,
// injected rather than global; the legal tender is registered immediately.
func New(location string, reg *goods.Registry, tender string, creditLimit goods.Amount) *Market {
	m := &Market{
		Location:    location,
		Warehouse:   goods.NewContainer(),
		Prices:      goods.NewContainer(),
		Volume:      goods.NewContainer(),
		MarketDebt:  goods.NewContainer(),
		CreditLimit: creditLimit,
		LegalTender: tender,
		reg:         reg,
		warehoused:  goods.NewContainer(),
		offers:      make(map[string][]*Offer),
	}
	m.RegisterGood(tender)
	return m
}

// RegisterGood makes the market trade in a good at a default price of one
// unit. Idempotent: re-registering never resets an existing price.
func (m *Market) RegisterGood(name string) {
	if m.Prices.Has(name) {
		return
	}
	m.Prices.Set(name, goods.Unit)
	m.Volume.Set(name, 0)
}

// Registered reports whether the market trades in the good.
func (m *Market) Registered(name string) bool {
	return m.Prices.Has(name)
}

// AvailableImmediately returns the warehouse stock of one good.
func (m *Market) AvailableImmediately(name string) goods.Amount {
	return m.Warehouse.Get(name)
}

// BasketAvailableImmediately reports whether every good in the basket is
// registered and in sufficient warehouse stock.
func (m *Market) BasketAvailableImmediately(basket goods.Container) bool {
	for name, amount := range basket {
		if !m.Registered(name) {
			return false
		}
		if m.Warehouse.Get(name) < amount {
			return false
		}
	}
	return true
}

// Available satisfies the consumption solver's AvailabilityEstimator
// capability. The market can only vouch for immediate stock; the lookahead
// horizon is part of the contract for estimators that can see production
// queues.
func (m *Market) Available(name string, lookaheadTurns int) goods.Amount {
	return m.AvailableImmediately(name)
}

// BasketAvailable is the basket form of Available.
func (m *Market) BasketAvailable(basket goods.Container, lookaheadTurns int) bool {
	return m.BasketAvailableImmediately(basket)
}

// GetPriceU returns the unit price of a good. Unregistered goods default
// to one unit — an estimate for code that prices goods speculatively.
func (m *Market) GetPriceU(name string) goods.Amount {
	if m.Prices.Has(name) {
		return m.Prices.Get(name)
	}
	return goods.Unit
}

// QuantityPrice prices a single quantity at the current unit price.
func (m *Market) QuantityPrice(q goods.Quantity) goods.Amount {
	p, _ := goods.MulDiv(q.Amount, m.GetPriceU(q.Name), goods.Unit)
	return p
}

// BasketPrice prices a basket, summing only non-negative per-good
// contributions.
func (m *Market) BasketPrice(basket goods.Container) goods.Amount {
	var sum goods.Amount
	for _, q := range basket.Expand() {
		p := m.QuantityPrice(q)
		if p > 0 {
			sum += p
		}
	}
	return sum
}

// spendingPower is the most a container can pay right now: credit tokens,
// tender, and whatever overdraft headroom remains under the credit limit.
func (m *Market) spendingPower(c goods.Container) goods.Amount {
	headroom := m.CreditLimit - c.Get(DebtToken)
	if headroom < 0 {
		headroom = 0
	}
	return c.Get(CreditToken) + c.Get(m.LegalTender) + headroom
}

// affordableUnits converts spending power into units of a good at a price.
func affordableUnits(power, price goods.Amount) goods.Amount {
	if price <= 0 {
		return 0
	}
	units, _ := goods.MulDiv(power, goods.Unit, price)
	return units
}
