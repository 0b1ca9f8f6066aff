package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of minor-unit digits kept for amounts.
const MoneyPlaces = 2

// Epsilon is the smallest amount treated as an outstanding balance.
// Anything with a smaller magnitude is considered settled.
var Epsilon = decimal.New(1, -MoneyPlaces)

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// IsNegligible reports whether |d| is below Epsilon.
func IsNegligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// SumAmounts adds up a list of amounts.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
