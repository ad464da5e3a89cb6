package market

import (
	"sort"

	"github.com/ashvale/tradewinds/internal/goods"
)

// State is the logical persisted schema of a market. It carries everything
// needed to round-trip a market through save/load without altering
// subsequent FindPrices behavior; the in-round scratch (pending offers,
// inflow tracker) is deliberately absent because saves happen between
// rounds, when both are empty.
type State struct {
	Location    string          `json:"location"`
	Warehouse   goods.Container `json:"warehouse"`
	Prices      goods.Container `json:"prices"`
	Volume      goods.Container `json:"volume"`
	MarketDebt  goods.Container `json:"market_debt"`
	CreditLimit goods.Amount    `json:"credit_limit"`
	LegalTender string          `json:"legal_tender"`
	Registered  []string        `json:"registered_goods"`
}

// Snapshot captures the persisted market state.
func (m *Market) Snapshot() State {
	registered := make([]string, 0, len(m.Prices))
	for name := range m.Prices {
		registered = append(registered, name)
	}
	sort.Strings(registered)

	return State{
		Location:    m.Location,
		Warehouse:   m.Warehouse.Clone(),
		Prices:      m.Prices.Clone(),
		Volume:      m.Volume.Clone(),
		MarketDebt:  m.MarketDebt.Clone(),
		CreditLimit: m.CreditLimit,
		LegalTender: m.LegalTender,
		Registered:  registered,
	}
}

// Restore rebuilds a market from a snapshot against the world's registry.
func Restore(reg *goods.Registry, st State) *Market {
	m := New(st.Location, reg, st.LegalTender, st.CreditLimit)
	for _, name := range st.Registered {
		m.RegisterGood(name)
	}
	m.Warehouse = st.Warehouse.Clone()
	for name, price := range st.Prices {
		m.Prices.Set(name, price)
	}
	for name, v := range st.Volume {
		m.Volume.Set(name, v)
	}
	m.MarketDebt = st.MarketDebt.Clone()
	return m
}
