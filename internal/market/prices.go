package market

import "github.com/ashvale/tradewinds/internal/goods"

// maxPriceStep caps a single tâtonnement move at +25% (or its inverse).
const maxPriceStep = goods.Unit + goods.Unit/4

// FindPrices runs the once-per-round price discovery step. For every
// registered good the round's demand (matched volume plus capped pending
// buy offers) is weighed against supply (matched volume plus net new
// warehouse inflow); the price moves toward the scarce side by at most a
// 25% multiplicative step. It never clears the market in one shot, only
// nudges toward balance. Volume, pending offers, and the inflow tracker
// are reset for the next round.
func (m *Market) FindPrices() {
	for _, entry := range m.Prices.Expand() {
		name := entry.Name
		if name == m.LegalTender {
			// Money is the numeraire; it has no price of its own.
			continue
		}

		price := entry.Amount

		bid := m.Volume.Get(name)
		for _, off := range m.offers[name] {
			bid += min(off.Amount, affordableUnits(m.spendingPower(*off.Buyer), price))
		}
		offer := m.Volume.Get(name) + m.warehoused.Get(name)

		// Both sides below one micro-unit: nothing to learn, and the
		// ratio would divide by near-zero.
		if bid < 1 && offer < 1 {
			continue
		}

		lo, hi := bid, offer
		if lo > hi {
			lo, hi = hi, lo
		}
		ratio := goods.Amount(maxPriceStep)
		if lo >= 1 {
			r, overflow := goods.MulDiv(hi, goods.Unit, lo)
			if !overflow && r < ratio {
				ratio = r
			}
		}

		switch {
		case bid > offer:
			price, _ = goods.MulDiv(price, ratio, goods.Unit)
		case offer > bid:
			price, _ = goods.MulDiv(price, goods.Unit, ratio)
		}
		if price < 1 {
			price = 1
		}
		m.Prices.Set(name, price)
	}

	for name := range m.Volume {
		m.Volume.Set(name, 0)
	}
	m.warehoused = goods.NewContainer()
	m.offers = make(map[string][]*Offer)
}

// Decay shrinks warehouse stock by each good's per-turn decay rate. Called
// after FindPrices so the round's price signal still reflects what traded.
func (m *Market) Decay() {
	if m.reg == nil {
		return
	}
	rates := m.reg.RetentionRates()
	for name, amount := range m.Warehouse {
		if amount <= 0 {
			continue
		}
		if rate, ok := rates[name]; ok && rate < goods.Unit {
			kept, _ := goods.MulDiv(amount, rate, goods.Unit)
			m.Warehouse.Set(name, kept)
		}
	}
}
