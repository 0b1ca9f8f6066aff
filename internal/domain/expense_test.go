package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateSplits(t *testing.T) {
	expense := &Expense{ID: "exp-1", GroupID: "g-1", PayerID: "a", Amount: decimal.NewFromInt(100)}

	tests := []struct {
		name    string
		splits  []ExpenseSplit
		wantErr error
	}{
		{
			name: "exact",
			splits: []ExpenseSplit{
				{ExpenseID: "exp-1", UserID: "a", Amount: decimal.RequireFromString("33.34")},
				{ExpenseID: "exp-1", UserID: "b", Amount: decimal.RequireFromString("33.33")},
				{ExpenseID: "exp-1", UserID: "c", Amount: decimal.RequireFromString("33.33")},
			},
		},
		{
			name: "within one cent",
			splits: []ExpenseSplit{
				{ExpenseID: "exp-1", UserID: "a", Amount: decimal.RequireFromString("50.00")},
				{ExpenseID: "exp-1", UserID: "b", Amount: decimal.RequireFromString("49.99")},
			},
		},
		{
			name: "off by more than a cent",
			splits: []ExpenseSplit{
				{ExpenseID: "exp-1", UserID: "a", Amount: decimal.RequireFromString("50.00")},
				{ExpenseID: "exp-1", UserID: "b", Amount: decimal.RequireFromString("49.98")},
			},
			wantErr: ErrSplitMismatch,
		},
		{
			name:    "no splits",
			wantErr: ErrNoParticipants,
		},
		{
			name: "foreign split",
			splits: []ExpenseSplit{
				{ExpenseID: "exp-2", UserID: "a", Amount: decimal.NewFromInt(100)},
			},
			wantErr: ErrUnknownExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(expense, tt.splits)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExpense_SameContent(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := &Expense{ID: "e", GroupID: "g", PayerID: "p", Description: "dinner", Amount: decimal.RequireFromString("10.00"), ExpenseDate: date}
	b := *a
	b.Amount = decimal.NewFromInt(10)
	b.UpdatedAt = date.Add(time.Hour)

	if !a.SameContent(&b) {
		t.Fatalf("expected equal content when only bookkeeping fields differ")
	}

	b.Description = "lunch"
	if a.SameContent(&b) {
		t.Fatalf("expected different content after description change")
	}
}
