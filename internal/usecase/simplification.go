package usecase

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
)

// NetBalances returns every user's credits minus debits, sorted by user id.
func NetBalances(debts []domain.Debt) []domain.NetBalance {
	totals := netTotals(debts)

	ids := sortedKeys(totals)
	out := make([]domain.NetBalance, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.NetBalance{UserID: id, Balance: totals[id]})
	}

	return out
}

// Simplify settles the largest creditor against the largest debtor until no
// balance is left. The total volume equals the sum of positive balances and at
// most n-1 transactions are produced for n users with a non-zero balance.
func Simplify(debts []domain.Debt) []domain.SimplifiedTransaction {
	balances := netTotals(debts)
	for id, b := range balances {
		if domain.IsNegligible(b) {
			delete(balances, id)
		}
	}

	txs := []domain.SimplifiedTransaction{}

	// Every round zeroes at least one side, so len(balances) rounds suffice.
	for rounds := len(balances); rounds > 0 && len(balances) > 0; rounds-- {
		creditor, debtor := extremes(balances)
		if creditor == "" || debtor == "" {
			break
		}

		amount := domain.RoundMoney(decimal.Min(balances[creditor], balances[debtor].Neg()))
		if !amount.IsPositive() {
			break
		}

		txs = append(txs, domain.SimplifiedTransaction{FromUserID: debtor, ToUserID: creditor, Amount: amount})

		balances[creditor] = balances[creditor].Sub(amount)
		balances[debtor] = balances[debtor].Add(amount)

		if domain.IsNegligible(balances[creditor]) {
			delete(balances, creditor)
		}
		if domain.IsNegligible(balances[debtor]) {
			delete(balances, debtor)
		}
	}

	return txs
}

func netTotals(debts []domain.Debt) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, d := range debts {
		totals[d.CreditorID] = totals[d.CreditorID].Add(d.Amount)
		totals[d.DebtorID] = totals[d.DebtorID].Sub(d.Amount)
	}
	for id, b := range totals {
		totals[id] = domain.RoundMoney(b)
	}
	return totals
}

// extremes picks the largest creditor and the largest debtor. Ties go to the
// smallest user id.
func extremes(balances map[string]decimal.Decimal) (creditor, debtor string) {
	for _, id := range sortedKeys(balances) {
		b := balances[id]
		if b.IsPositive() && (creditor == "" || b.GreaterThan(balances[creditor])) {
			creditor = id
		}
		if b.IsNegative() && (debtor == "" || b.LessThan(balances[debtor])) {
			debtor = id
		}
	}
	return creditor, debtor
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
