package market

import (
	"testing"

	"github.com/ashvale/tradewinds/internal/goods"
)

func TestFindPricesCapsStepAtTwentyFivePercent(t *testing.T) {
	m := testMarket(t, 1000*u)
	m.RegisterGood("fish")
	m.Warehouse.Set("crown", 1000*u)

	// Massive one-sided supply: 100 units warehoused, zero demand.
	seller := wallet(0)
	seller.Set("fish", 100*u)
	m.TryToSell("fish", 100*u, seller)

	m.FindPrices()
	if got := m.GetPriceU("fish"); got != 800_000 {
		t.Fatalf("price %d, want exactly one capped step down", got)
	}

	// Massive one-sided demand on a fresh round.
	rich := wallet(1000 * u)
	m.TryToBuy("fish", 500*u, rich) // drains the warehouse, leaves a big offer

	before := m.GetPriceU("fish")
	m.FindPrices()
	want, _ := goods.MulDiv(before, maxPriceStep, goods.Unit)
	if got := m.GetPriceU("fish"); got != want {
		t.Fatalf("price %d, want one capped step up to %d", got, want)
	}
}

func TestFindPricesUsesActualRatioWhenSmall(t *testing.T) {
	m := testMarket(t, 1000*u)
	m.RegisterGood("fish")
	m.Warehouse.Set("crown", 1000*u)

	// 10 warehoused vs 11 demanded (10 matched + pending 1).
	seller := wallet(0)
	seller.Set("fish", 10*u)
	m.TryToSell("fish", 10*u, seller)

	buyer := wallet(100 * u)
	m.TryToBuy("fish", 11*u, buyer) // buys all 10, 1 unit pending

	// bid = 10 matched + 1 pending, offer = 10 matched + 0 net inflow.
	m.FindPrices()
	want, _ := goods.MulDiv(u, 11*u, 10*u)
	if got := m.GetPriceU("fish"); got != want {
		t.Fatalf("price %d, want ratio-scaled %d", got, want)
	}
}

func TestFindPricesSkipsQuietGoods(t *testing.T) {
	m := testMarket(t, 10*u)
	m.RegisterGood("fish")
	m.Prices.Set("fish", 5*u)

	m.FindPrices()
	if got := m.GetPriceU("fish"); got != 5*u {
		t.Fatalf("quiet good's price moved to %d", got)
	}
}

func TestFindPricesNeverDropsBelowFloor(t *testing.T) {
	m := testMarket(t, 1_000_000*u)
	m.RegisterGood("fish")
	m.Warehouse.Set("crown", 1_000_000*u)

	seller := wallet(0)
	for i := 0; i < 80; i++ {
		seller.Set("fish", 10*u)
		m.TryToSell("fish", 10*u, seller)
		m.FindPrices()
	}
	if got := m.GetPriceU("fish"); got < 1 {
		t.Fatalf("price %d fell below the one micro-unit floor", got)
	}
}

func TestFindPricesClearsRoundState(t *testing.T) {
	m := testMarket(t, 100*u)
	m.RegisterGood("fish")
	buyer := wallet(10 * u)
	m.TryToBuy("fish", 5*u, buyer)

	m.FindPrices()

	if got := m.PendingOffers("fish"); len(got) != 0 {
		t.Fatalf("offers survive the round: %+v", got)
	}
	if got := m.Volume.Get("fish"); got != 0 {
		t.Fatalf("volume not reset: %d", got)
	}
	if !m.Volume.Has("fish") {
		t.Fatal("volume key must survive the reset")
	}
}

func TestLegalTenderHasNoPriceDynamics(t *testing.T) {
	m := testMarket(t, 100*u)
	m.Volume.Set("crown", 50*u) // even with nonsense volume recorded
	m.FindPrices()
	if got := m.GetPriceU("crown"); got != u {
		t.Fatalf("tender price %d", got)
	}
}
