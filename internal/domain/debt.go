package domain

import "github.com/shopspring/decimal"

// Debt is a derived amount one user owes another. Never persisted.
type Debt struct {
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
}

// SimplifiedTransaction is a settling payment produced by debt simplification.
type SimplifiedTransaction struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
}

// NetBalance is a user's credits minus debits. Positive means the user is owed.
type NetBalance struct {
	UserID  string
	Balance decimal.Decimal
}
