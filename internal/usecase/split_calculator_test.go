package usecase_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amounts(splits []domain.ExpenseSplit) map[string]string {
	out := make(map[string]string, len(splits))
	for _, s := range splits {
		out[s.UserID] = s.Amount.StringFixed(2)
	}
	return out
}

func TestEvenSplit(t *testing.T) {
	t.Run("two participants", func(t *testing.T) {
		splits := usecase.EvenSplit(d("100"), []string{"A", "B"})
		assert.Equal(t, map[string]string{"A": "50.00", "B": "50.00"}, amounts(splits))
	})

	t.Run("remainder goes to first participant", func(t *testing.T) {
		splits := usecase.EvenSplit(d("100"), []string{"A", "B", "C"})
		require.Len(t, splits, 3)
		assert.Equal(t, "A", splits[0].UserID)
		assert.Equal(t, map[string]string{"A": "33.34", "B": "33.33", "C": "33.33"}, amounts(splits))
	})

	t.Run("empty participant list", func(t *testing.T) {
		splits := usecase.EvenSplit(d("10"), nil)
		assert.Empty(t, splits)
	})
}

func TestEvenSplit_SumsExactly(t *testing.T) {
	totals := []string{"0.01", "0.05", "1.00", "9.99", "10.00", "33.33", "100.00", "123.45", "999999.99"}

	for _, total := range totals {
		for n := 1; n <= 13; n++ {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("u%02d", i)
			}

			splits := usecase.EvenSplit(d(total), ids)

			sum := decimal.Zero
			for _, s := range splits {
				sum = sum.Add(s.Amount)
			}
			assert.Truef(t, sum.Equal(d(total)), "total=%s n=%d sum=%s", total, n, sum)

			// Only the remainder holder can go below zero, and only when
			// total < n(n-1)/2 cents. CreateExpense rejects that case.
			for _, s := range splits[1:] {
				assert.Falsef(t, s.Amount.IsNegative(), "total=%s n=%d %s=%s", total, n, s.UserID, s.Amount)
			}
			tiny := d(total).LessThan(decimal.NewFromInt(int64(n * (n - 1))).Div(decimal.NewFromInt(200)))
			if !tiny {
				assert.Falsef(t, splits[0].Amount.IsNegative(), "total=%s n=%d first=%s", total, n, splits[0].Amount)
			}
		}
	}
}

func TestEvenSplit_TinyTotalLeavesFirstShareNegative(t *testing.T) {
	splits := usecase.EvenSplit(d("0.02"), []string{"A", "B", "C", "D"})
	assert.Equal(t, map[string]string{"A": "-0.01", "B": "0.01", "C": "0.01", "D": "0.01"}, amounts(splits))
}

func TestCustomSplit(t *testing.T) {
	t.Run("percentages from the example", func(t *testing.T) {
		splits, err := usecase.CustomSplit(d("150"), map[string]decimal.Decimal{
			"A": d("50"), "B": d("30"), "C": d("20"),
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"A": "75.00", "B": "45.00", "C": "30.00"}, amounts(splits))
		assert.Equal(t, []string{"A", "B", "C"}, []string{splits[0].UserID, splits[1].UserID, splits[2].UserID})
	})

	t.Run("last participant absorbs drift", func(t *testing.T) {
		splits, err := usecase.CustomSplit(d("100"), map[string]decimal.Decimal{
			"A": d("33.33"), "B": d("33.33"), "C": d("33.34"),
		})
		require.NoError(t, err)
		// C sorts first, A and B tie and are ordered by id.
		assert.Equal(t, []string{"C", "A", "B"}, []string{splits[0].UserID, splits[1].UserID, splits[2].UserID})
		assert.Equal(t, map[string]string{"C": "33.34", "A": "33.33", "B": "33.33"}, amounts(splits))
	})

	t.Run("sum off by more than a hundredth", func(t *testing.T) {
		_, err := usecase.CustomSplit(d("100"), map[string]decimal.Decimal{"A": d("60"), "B": d("39.98")})
		assert.ErrorIs(t, err, domain.ErrInvalidPercentageSum)
	})

	t.Run("sum within tolerance", func(t *testing.T) {
		splits, err := usecase.CustomSplit(d("10"), map[string]decimal.Decimal{"A": d("60"), "B": d("39.99")})
		require.NoError(t, err)
		sum := splits[0].Amount.Add(splits[1].Amount)
		assert.True(t, sum.Equal(d("10")), "sum=%s", sum)
	})

	t.Run("non-positive percentages excluded", func(t *testing.T) {
		splits, err := usecase.CustomSplit(d("80"), map[string]decimal.Decimal{"A": d("100"), "B": d("0")})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"A": "80.00"}, amounts(splits))
	})

	t.Run("empty map", func(t *testing.T) {
		splits, err := usecase.CustomSplit(d("80"), nil)
		require.NoError(t, err)
		assert.Empty(t, splits)
	})
}

func TestCustomSplit_SumsExactly(t *testing.T) {
	pcts := map[string]decimal.Decimal{"a": d("12.5"), "b": d("17.3"), "c": d("33.3"), "d": d("36.9")}

	for _, total := range []string{"0.07", "1.11", "57.19", "1000.01", "77777.77"} {
		splits, err := usecase.CustomSplit(d(total), pcts)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, s := range splits {
			sum = sum.Add(s.Amount)
		}
		assert.Truef(t, sum.Equal(d(total)), "total=%s sum=%s", total, sum)
	}
}
