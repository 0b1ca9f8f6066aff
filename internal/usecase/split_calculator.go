package usecase

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// EvenSplit divides total equally between participants. Each share is rounded
// to cents and the first participant absorbs the remainder, so the shares
// always add up to total exactly. The returned splits have no ExpenseID set.
func EvenSplit(total decimal.Decimal, participantIDs []string) []domain.ExpenseSplit {
	n := len(participantIDs)
	if n == 0 {
		return []domain.ExpenseSplit{}
	}

	count := decimal.NewFromInt(int64(n))
	share := domain.RoundMoney(total.Div(count))
	pct := domain.RoundMoney(hundred.Div(count))

	splits := make([]domain.ExpenseSplit, n)
	for i, id := range participantIDs {
		splits[i] = domain.ExpenseSplit{UserID: id, Amount: share, Percentage: pct}
	}

	remainder := total.Sub(share.Mul(count))
	splits[0].Amount = splits[0].Amount.Add(remainder)

	return splits
}

// CustomSplit divides total by percentage. Percentages must add up to 100
// within one hundredth. Participants with a non-positive percentage are left
// out. Shares are assigned in descending percentage order (ties by user id)
// and the last participant absorbs the rounding drift.
func CustomSplit(total decimal.Decimal, percentages map[string]decimal.Decimal) ([]domain.ExpenseSplit, error) {
	if len(percentages) == 0 {
		return []domain.ExpenseSplit{}, nil
	}

	sum := decimal.Zero
	for _, pct := range percentages {
		sum = sum.Add(pct)
	}
	if sum.Sub(hundred).Abs().GreaterThan(domain.Epsilon) {
		return nil, fmt.Errorf("%w: got %s", domain.ErrInvalidPercentageSum, sum)
	}

	ids := make([]string, 0, len(percentages))
	for id, pct := range percentages {
		if pct.IsPositive() {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		pi, pj := percentages[ids[i]], percentages[ids[j]]
		if !pi.Equal(pj) {
			return pi.GreaterThan(pj)
		}
		return ids[i] < ids[j]
	})

	splits := make([]domain.ExpenseSplit, len(ids))
	assigned := decimal.Zero
	for i, id := range ids {
		pct := percentages[id]
		amount := domain.RoundMoney(total.Mul(pct).Div(hundred))
		if i == len(ids)-1 {
			amount = total.Sub(assigned)
		}
		assigned = assigned.Add(amount)
		splits[i] = domain.ExpenseSplit{UserID: id, Amount: amount, Percentage: pct}
	}

	return splits, nil
}
