package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a payment made by one member on behalf of the group.
type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"groupId"`
	PayerID     string          `json:"payerId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expenseDate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks the expense fields.
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.GroupID) == "" || strings.TrimSpace(e.PayerID) == "" {
		return ErrInvalidIDFormat
	}
	return ValidateAmount(e.Amount)
}

// SameContent reports whether two expenses carry the same user-visible data.
// Bookkeeping timestamps are ignored.
func (e *Expense) SameContent(other *Expense) bool {
	return e.ID == other.ID &&
		e.GroupID == other.GroupID &&
		e.PayerID == other.PayerID &&
		e.Description == other.Description &&
		e.Amount.Equal(other.Amount) &&
		e.ExpenseDate.Equal(other.ExpenseDate)
}

// ExpenseSplit is one participant's share of an expense.
type ExpenseSplit struct {
	ExpenseID  string          `json:"expenseId"`
	UserID     string          `json:"userId"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ValidateSplits checks that splits belong to the expense and add up to its
// amount within one minor unit.
func ValidateSplits(e *Expense, splits []ExpenseSplit) error {
	if len(splits) == 0 {
		return ErrNoParticipants
	}

	total := decimal.Zero
	for _, s := range splits {
		if s.ExpenseID != e.ID {
			return fmt.Errorf("%w: split for %s attached to %s", ErrUnknownExpense, s.ExpenseID, e.ID)
		}
		if s.Amount.IsNegative() {
			return fmt.Errorf("%w: split for %s is negative", ErrInvalidAmount, s.UserID)
		}
		total = total.Add(s.Amount)
	}

	if total.Sub(e.Amount).Abs().GreaterThan(Epsilon) {
		return fmt.Errorf("%w: splits=%s expense=%s", ErrSplitMismatch, total, e.Amount)
	}

	return nil
}
