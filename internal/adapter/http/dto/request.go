package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/usecase"
)

// CreateGroupRequest represents a request to create a group. The owner is
// the signed-in user.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	OwnerName   string `json:"owner_name"`
	SyncEnabled *bool  `json:"sync_enabled,omitempty"`
}

// ToUseCaseInput converts to use case input for the given owner.
func (r *CreateGroupRequest) ToUseCaseInput(ownerUserID, ownerEmail string) usecase.CreateGroupInput {
	syncEnabled := true
	if r.SyncEnabled != nil {
		syncEnabled = *r.SyncEnabled
	}
	return usecase.CreateGroupInput{
		Name:        r.Name,
		OwnerUserID: ownerUserID,
		OwnerEmail:  ownerEmail,
		OwnerName:   r.OwnerName,
		SyncEnabled: syncEnabled,
	}
}

// RenameGroupRequest represents a request to rename a group.
type RenameGroupRequest struct {
	Name string `json:"name"`
}

// SetSyncRequest turns sync on or off for a group.
type SetSyncRequest struct {
	Enabled bool `json:"enabled"`
}

// AddMemberRequest represents a request to add a member to a group.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// ToUseCaseInput converts to use case input.
func (r *AddMemberRequest) ToUseCaseInput(groupID string) usecase.AddMemberInput {
	return usecase.AddMemberInput{
		GroupID: groupID,
		UserID:  r.UserID,
		Email:   r.Email,
		Name:    r.Name,
	}
}

// CreateExpenseRequest represents a request to record an expense. An empty
// Percentages map splits evenly across Participants (or every member).
type CreateExpenseRequest struct {
	PayerID      string                     `json:"payer_id"`
	Description  string                     `json:"description"`
	Amount       decimal.Decimal            `json:"amount"`
	ExpenseDate  *time.Time                 `json:"expense_date,omitempty"`
	Participants []string                   `json:"participants,omitempty"`
	Percentages  map[string]decimal.Decimal `json:"percentages,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateExpenseRequest) ToUseCaseInput(groupID string) usecase.CreateExpenseInput {
	return usecase.CreateExpenseInput{
		GroupID:      groupID,
		PayerID:      r.PayerID,
		Description:  r.Description,
		Amount:       r.Amount,
		ExpenseDate:  r.ExpenseDate,
		Participants: r.Participants,
		Percentages:  r.Percentages,
	}
}

// UpdateExpenseRequest represents a partial expense edit.
type UpdateExpenseRequest struct {
	PayerID      *string                    `json:"payer_id,omitempty"`
	Description  *string                    `json:"description,omitempty"`
	Amount       *decimal.Decimal           `json:"amount,omitempty"`
	ExpenseDate  *time.Time                 `json:"expense_date,omitempty"`
	Participants []string                   `json:"participants,omitempty"`
	Percentages  map[string]decimal.Decimal `json:"percentages,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateExpenseRequest) ToUseCaseInput(expenseID string) usecase.UpdateExpenseInput {
	return usecase.UpdateExpenseInput{
		ExpenseID:    expenseID,
		PayerID:      r.PayerID,
		Description:  r.Description,
		Amount:       r.Amount,
		ExpenseDate:  r.ExpenseDate,
		Participants: r.Participants,
		Percentages:  r.Percentages,
	}
}

// RecordSettlementRequest represents a payment between two members.
type RecordSettlementRequest struct {
	PayerID   string          `json:"payer_id"`
	PayeeID   string          `json:"payee_id"`
	Amount    decimal.Decimal `json:"amount"`
	Confirmed bool            `json:"confirmed"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordSettlementRequest) ToUseCaseInput(groupID string) usecase.RecordSettlementInput {
	return usecase.RecordSettlementInput{
		GroupID:   groupID,
		PayerID:   r.PayerID,
		PayeeID:   r.PayeeID,
		Amount:    r.Amount,
		Confirmed: r.Confirmed,
	}
}

// Resolution sides accepted by ResolveConflictRequest.
const (
	KeepLocal  = "local"
	KeepRemote = "remote"
)

// ResolveConflictRequest picks the side that wins a conflict.
type ResolveConflictRequest struct {
	Keep string `json:"keep"`
}
