package market

import (
	"reflect"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	m := testMarket(t, 50*u)
	m.Warehouse.Set("crown", 30*u)

	seller := wallet(0)
	seller.Set("fish", 40*u)
	m.TryToSell("fish", 40*u, seller)
	m.FindPrices() // saves happen between rounds

	st := m.Snapshot()
	restored := Restore(testRegistry(t), st)

	if !reflect.DeepEqual(restored.Prices, m.Prices) {
		t.Fatalf("prices differ: %v vs %v", restored.Prices, m.Prices)
	}
	if !reflect.DeepEqual(restored.Warehouse, m.Warehouse) {
		t.Fatalf("warehouse differs: %v vs %v", restored.Warehouse, m.Warehouse)
	}
	if !reflect.DeepEqual(restored.MarketDebt, m.MarketDebt) {
		t.Fatalf("market debt differs")
	}
	if restored.CreditLimit != m.CreditLimit || restored.LegalTender != m.LegalTender {
		t.Fatal("scalar state differs")
	}

	// Identical trades on both sides of the round trip must produce
	// identical price discovery.
	for _, mk := range []*Market{m, restored} {
		b := wallet(100 * u)
		mk.TryToBuy("fish", 10*u, b)
		mk.FindPrices()
	}
	if got, want := restored.GetPriceU("fish"), m.GetPriceU("fish"); got != want {
		t.Fatalf("post-restore FindPrices diverged: %d vs %d", got, want)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := testMarket(t, 10*u)
	m.RegisterGood("fish")
	st := m.Snapshot()

	st.Prices.Set("fish", 99*u)
	if got := m.GetPriceU("fish"); got != u {
		t.Fatalf("mutating a snapshot reached the live market: %d", got)
	}
}
