package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

func txStrings(txs []domain.SimplifiedTransaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.FromUserID + "->" + tx.ToUserID + ":" + tx.Amount.StringFixed(2)
	}
	return out
}

func TestSimplify_TwoDebtorsOneCreditor(t *testing.T) {
	debts := []domain.Debt{
		{DebtorID: "B", CreditorID: "A", Amount: d("40")},
		{DebtorID: "C", CreditorID: "A", Amount: d("30")},
	}

	txs := usecase.Simplify(debts)
	assert.Equal(t, []string{"B->A:40.00", "C->A:30.00"}, txStrings(txs))
}

func TestSimplify_CollapsesChains(t *testing.T) {
	// A owes B, B owes C: A can pay C directly.
	debts := []domain.Debt{
		{DebtorID: "A", CreditorID: "B", Amount: d("25")},
		{DebtorID: "B", CreditorID: "C", Amount: d("25")},
	}

	txs := usecase.Simplify(debts)
	assert.Equal(t, []string{"A->C:25.00"}, txStrings(txs))
}

func TestSimplify_Properties(t *testing.T) {
	var f ledgerFixture
	f.addEven("e1", "A", "100", "A", "B", "C", "D", "E")
	f.addEven("e2", "B", "73.21", "A", "C")
	f.addEven("e3", "C", "18.00", "B", "D", "E")
	f.addEven("e4", "E", "250.55", "A", "B", "C", "D", "E")
	f.addEven("e5", "D", "0.03", "A", "B")

	debts, err := usecase.CalculateDebts(f.expenses, f.splits, nil)
	require.NoError(t, err)

	positive := decimal.Zero
	nonZero := 0
	for _, nb := range usecase.NetBalances(debts) {
		if nb.Balance.IsPositive() {
			positive = positive.Add(nb.Balance)
		}
		if !domain.IsNegligible(nb.Balance) {
			nonZero++
		}
	}

	txs := usecase.Simplify(debts)

	volume := decimal.Zero
	for _, tx := range txs {
		assert.True(t, tx.Amount.IsPositive())
		volume = volume.Add(tx.Amount)
	}

	assert.True(t, volume.Equal(positive), "volume=%s positive=%s", volume, positive)
	assert.LessOrEqual(t, len(txs), nonZero-1)
}

func TestSimplify_IgnoresNegligibleBalances(t *testing.T) {
	debts := []domain.Debt{{DebtorID: "A", CreditorID: "B", Amount: d("0.004")}}
	assert.Empty(t, usecase.Simplify(debts))
}

func TestNetBalances(t *testing.T) {
	debts := []domain.Debt{
		{DebtorID: "B", CreditorID: "A", Amount: d("40")},
		{DebtorID: "C", CreditorID: "A", Amount: d("30")},
	}

	got := usecase.NetBalances(debts)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].UserID)
	assert.Equal(t, "70.00", got[0].Balance.StringFixed(2))
	assert.Equal(t, "-40.00", got[1].Balance.StringFixed(2))
	assert.Equal(t, "-30.00", got[2].Balance.StringFixed(2))
}
