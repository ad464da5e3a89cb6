package market

import "github.com/ashvale/tradewinds/internal/goods"

// addCredit grants credit tokens to a container, cancelling any matching
// debt tokens first. Credit and debt net to at most one non-zero side.
func addCredit(c goods.Container, amount goods.Amount) {
	if amount <= 0 {
		return
	}
	if debt := c.Get(DebtToken); debt > 0 {
		cancel := min(amount, debt)
		c.Set(DebtToken, debt-cancel)
		amount -= cancel
	}
	if amount > 0 {
		c.Set(CreditToken, c.Get(CreditToken)+amount)
	}
}

// addDebt records debt tokens against a container, burning any credit
// tokens it holds first.
func addDebt(c goods.Container, amount goods.Amount) {
	if amount <= 0 {
		return
	}
	if credit := c.Get(CreditToken); credit > 0 {
		cancel := min(amount, credit)
		c.Set(CreditToken, credit-cancel)
		amount -= cancel
	}
	if amount > 0 {
		c.Set(DebtToken, c.Get(DebtToken)+amount)
	}
}

// payFromHoldings moves up to amount from a payer's existing holdings:
// credit tokens first, then legal tender. Returns what was moved.
func (m *Market) payFromHoldings(amount goods.Amount, from, to goods.Container) goods.Amount {
	if amount <= 0 {
		return 0
	}
	var moved goods.Amount

	if credit := from.Get(CreditToken); credit > 0 {
		step := min(amount, credit)
		from.Set(CreditToken, credit-step)
		addCredit(to, step)
		moved += step
	}
	if rest := amount - moved; rest > 0 {
		if tender := from.Get(m.LegalTender); tender > 0 {
			step := min(rest, tender)
			from.Set(m.LegalTender, tender-step)
			to.Set(m.LegalTender, to.Get(m.LegalTender)+step)
			moved += step
		}
	}
	return moved
}

// TransferMoney moves value between containers through three tiers: the
// payer's credit tokens, then legal tender, then an automatic overdraft —
// the recipient advances credit up to the payer's remaining headroom,
// recorded as debt tokens at the payer and credit tokens at the recipient.
//
// Returns the amount actually transferred. A transfer beyond the payer's
// total capacity moves what it can; callers that clamp by spending power
// beforehand always see a full transfer.
func (m *Market) TransferMoney(amount goods.Amount, from, to goods.Container) goods.Amount {
	moved := m.payFromHoldings(amount, from, to)

	if rest := amount - moved; rest > 0 {
		headroom := m.CreditLimit - from.Get(DebtToken)
		if headroom < 0 {
			headroom = 0
		}
		advance := min(rest, headroom)
		if advance > 0 {
			addDebt(from, advance)
			addCredit(to, advance)
			moved += advance
		}
	}
	return moved
}
