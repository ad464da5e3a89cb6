package market

import "github.com/ashvale/tradewinds/internal/goods"

// TryToBuy buys up to amount of a good from the warehouse at the current
// unit price, clamped by warehouse stock and the buyer's spending power.
// Whatever could not be bought is recorded as a pending buy offer — at most
// one per (good, buyer) pair, replaced on repeat calls, removed when the
// remainder reaches zero. Returns the amount bought.
func (m *Market) TryToBuy(name string, amount goods.Amount, buyer *goods.Container) goods.Amount {
	if amount <= 0 {
		m.setOffer(name, buyer, 0)
		return 0
	}

	price := m.GetPriceU(name)
	bought := min(amount, m.Warehouse.Get(name))
	if afford := affordableUnits(m.spendingPower(*buyer), price); bought > afford {
		bought = afford
	}

	if bought > 0 {
		// Reconcile: money still owed to past sellers of this good becomes
		// ordinary warehouse debt before the warehouse trades it again.
		if owed := m.MarketDebt.Get(name); owed > 0 {
			addDebt(m.Warehouse, owed)
			m.MarketDebt.Set(name, 0)
		}

		m.Warehouse.SubQuantity(goods.Quantity{Name: name, Amount: bought})
		buyer.AddQuantity(goods.Quantity{Name: name, Amount: bought})

		cost, _ := goods.MulDiv(bought, price, goods.Unit)
		m.TransferMoney(cost, *buyer, m.Warehouse)

		if m.Registered(name) {
			m.Volume.Set(name, m.Volume.Get(name)+bought)
		}
		// Bought stock is no longer "newly warehoused" supply this round.
		if w := m.warehoused.Get(name); w > 0 {
			m.warehoused.Set(name, max(0, w-bought))
		}
	}

	m.setOffer(name, buyer, amount-bought)
	return bought
}

// TryToSell sells a good into the market. Unregistered goods are
// registered first — a sell always succeeds in creating a market. The
// offered amount is matched peer-to-peer against pending buy offers in
// offer order, goods moving seller→buyer and payment buyer→seller without
// touching the warehouse; any remainder is sold into the warehouse,
// limited by the market's own ability to pay. Returns the amount sold.
func (m *Market) TryToSell(name string, amount goods.Amount, seller *goods.Container) goods.Amount {
	m.RegisterGood(name)
	if amount <= 0 {
		return 0
	}

	price := m.Prices.Get(name)
	remaining := amount
	var sold goods.Amount

	// Peer-to-peer leg: each buyer capped by their own spending power.
	queue := m.offers[name]
	for _, off := range queue {
		if remaining <= 0 {
			break
		}
		take := min(off.Amount, remaining)
		if afford := affordableUnits(m.spendingPower(*off.Buyer), price); take > afford {
			take = afford
		}
		if take <= 0 {
			continue
		}

		seller.SubQuantity(goods.Quantity{Name: name, Amount: take})
		off.Buyer.AddQuantity(goods.Quantity{Name: name, Amount: take})
		cost, _ := goods.MulDiv(take, price, goods.Unit)
		m.TransferMoney(cost, *off.Buyer, *seller)

		m.Volume.Set(name, m.Volume.Get(name)+take)
		off.Amount -= take
		remaining -= take
		sold += take
	}
	m.offers[name] = compactOffers(queue)

	// Warehouse leg: the market buys for its own account, limited by
	// tender on hand plus remaining credit, less what it already owes
	// sellers of this good.
	if remaining > 0 {
		headroom := m.CreditLimit - m.Warehouse.Get(DebtToken)
		if headroom < 0 {
			headroom = 0
		}
		limit := m.Warehouse.Get(m.LegalTender) + headroom - m.MarketDebt.Get(name)
		if limit < 0 {
			limit = 0
		}

		take := remaining
		cost, _ := goods.MulDiv(take, price, goods.Unit)
		if cost > limit {
			// Pro rata: only as many units as the payment limit covers.
			take = affordableUnits(limit, price)
			cost, _ = goods.MulDiv(take, price, goods.Unit)
		}

		if take > 0 {
			seller.SubQuantity(goods.Quantity{Name: name, Amount: take})
			m.Warehouse.AddQuantity(goods.Quantity{Name: name, Amount: take})

			paid := m.payFromHoldings(cost, m.Warehouse, *seller)
			if shortfall := cost - paid; shortfall > 0 {
				// Oversold the tender on hand: the seller takes market
				// credit and the market books the debt against this good.
				addCredit(*seller, shortfall)
				m.MarketDebt.Set(name, m.MarketDebt.Get(name)+shortfall)
			}

			m.warehoused.Set(name, m.warehoused.Get(name)+take)
			sold += take
		}
	}

	return sold
}

// setOffer records pending unmet demand for a (good, buyer) pair,
// replacing any previous offer; a zero remainder removes it.
func (m *Market) setOffer(name string, buyer *goods.Container, remainder goods.Amount) {
	queue := m.offers[name]
	for i, off := range queue {
		if off.Buyer == buyer {
			if remainder <= 0 {
				m.offers[name] = append(queue[:i], queue[i+1:]...)
			} else {
				off.Amount = remainder
			}
			return
		}
	}
	if remainder > 0 {
		m.offers[name] = append(queue, &Offer{Amount: remainder, Buyer: buyer})
	}
}

// PendingOffers returns the open buy offers for a good, in offer order.
func (m *Market) PendingOffers(name string) []Offer {
	queue := m.offers[name]
	out := make([]Offer, 0, len(queue))
	for _, off := range queue {
		out = append(out, *off)
	}
	return out
}

func compactOffers(queue []*Offer) []*Offer {
	out := queue[:0]
	for _, off := range queue {
		if off.Amount > 0 {
			out = append(out, off)
		}
	}
	return out
}
