package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"
	SettlementStatusConfirmed SettlementStatus = "confirmed"
	SettlementStatusCancelled SettlementStatus = "cancelled"
)

var settlementTransitions = map[SettlementStatus][]SettlementStatus{
	SettlementStatusPending:   {SettlementStatusConfirmed, SettlementStatusCancelled},
	SettlementStatusConfirmed: {SettlementStatusCancelled},
}

// IsValid checks if the status is known.
func (s SettlementStatus) IsValid() bool {
	switch s {
	case SettlementStatusPending, SettlementStatusConfirmed, SettlementStatusCancelled:
		return true
	}
	return false
}

// Settlement records a payment from a debtor (Payer) to a creditor (Payee).
type Settlement struct {
	ID        string           `json:"id"`
	GroupID   string           `json:"groupId"`
	PayerID   string           `json:"payerId"`
	PayeeID   string           `json:"payeeId"`
	Amount    decimal.Decimal  `json:"amount"`
	Status    SettlementStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Validate checks the settlement fields.
func (s *Settlement) Validate() error {
	if s.PayerID == s.PayeeID {
		return ErrSelfSettlement
	}
	if !s.Status.IsValid() {
		return ErrIllegalSettlementTransition
	}
	return ValidateAmount(s.Amount)
}

// TransitionTo moves the settlement to next if allowed.
func (s *Settlement) TransitionTo(next SettlementStatus, at time.Time) error {
	for _, allowed := range settlementTransitions[s.Status] {
		if allowed == next {
			s.Status = next
			s.UpdatedAt = at
			return nil
		}
	}
	return ErrIllegalSettlementTransition
}

// Counts reports whether the settlement participates in debt netting.
func (s *Settlement) Counts() bool {
	return s.Status == SettlementStatusConfirmed
}
