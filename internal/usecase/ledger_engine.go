package usecase

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
)

// pairKey orders a pair of users so that both debt directions share one entry.
// A positive amount means lo owes hi.
type pairKey struct {
	lo, hi string
}

type pairLedger map[pairKey]decimal.Decimal

// add records that debtor owes creditor amount, netting it against the
// opposite direction.
func (l pairLedger) add(debtor, creditor string, amount decimal.Decimal) {
	if debtor < creditor {
		k := pairKey{lo: debtor, hi: creditor}
		l[k] = l[k].Add(amount)
		return
	}
	k := pairKey{lo: creditor, hi: debtor}
	l[k] = l[k].Sub(amount)
}

// CalculateDebts nets expenses, their splits and confirmed settlements into
// one debt per pair of users. The result does not depend on input order and
// is sorted by debtor then creditor. Inconsistent input is rejected.
func CalculateDebts(expenses []*domain.Expense, splits []domain.ExpenseSplit, settlements []*domain.Settlement) ([]domain.Debt, error) {
	byID := make(map[string]*domain.Expense, len(expenses))
	for _, e := range expenses {
		if e.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: expense %s", domain.ErrInvalidAmount, e.ID)
		}
		byID[e.ID] = e
	}

	ledger := make(pairLedger)

	for _, s := range splits {
		e, ok := byID[s.ExpenseID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownExpense, s.ExpenseID)
		}
		if s.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: split of %s on %s", domain.ErrInvalidAmount, s.UserID, s.ExpenseID)
		}
		if s.UserID == e.PayerID {
			continue
		}
		ledger.add(s.UserID, e.PayerID, s.Amount)
	}

	for _, st := range settlements {
		if !st.Counts() {
			continue
		}
		if st.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: settlement %s", domain.ErrInvalidAmount, st.ID)
		}
		// Paying the payee reduces what the payer owes them.
		ledger.add(st.PayeeID, st.PayerID, st.Amount)
	}

	debts := make([]domain.Debt, 0, len(ledger))
	for k, amount := range ledger {
		if domain.IsNegligible(amount) {
			continue
		}
		if amount.IsPositive() {
			debts = append(debts, domain.Debt{DebtorID: k.lo, CreditorID: k.hi, Amount: amount})
		} else {
			debts = append(debts, domain.Debt{DebtorID: k.hi, CreditorID: k.lo, Amount: amount.Neg()})
		}
	}

	sort.Slice(debts, func(i, j int) bool {
		if debts[i].DebtorID != debts[j].DebtorID {
			return debts[i].DebtorID < debts[j].DebtorID
		}
		return debts[i].CreditorID < debts[j].CreditorID
	})

	return debts, nil
}
