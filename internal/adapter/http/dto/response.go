package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerEmail  string    `json:"owner_email"`
	SyncEnabled bool      `json:"sync_enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupFromDomain converts domain group to response.
func GroupFromDomain(g *domain.Group) *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		OwnerEmail:  g.OwnerEmail,
		SyncEnabled: g.SyncEnabled,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// GroupsFromDomain converts domain groups to responses.
func GroupsFromDomain(groups []*domain.Group) []*GroupResponse {
	result := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		result[i] = GroupFromDomain(g)
	}
	return result
}

// MemberResponse represents a group member in API responses.
type MemberResponse struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// MembersFromDomain converts domain members to responses.
func MembersFromDomain(members []*domain.Member) []*MemberResponse {
	result := make([]*MemberResponse, len(members))
	for i, m := range members {
		result[i] = MemberFromDomain(m)
	}
	return result
}

// MemberFromDomain converts domain member to response.
func MemberFromDomain(m *domain.Member) *MemberResponse {
	return &MemberResponse{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Email:    m.Email,
		Name:     m.Name,
		JoinedAt: m.JoinedAt,
	}
}

// SplitResponse is one participant's share of an expense.
type SplitResponse struct {
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ExpenseResponse represents an expense in API responses. Splits are only
// included for single-expense responses.
type ExpenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Splits      []SplitResponse `json:"splits,omitempty"`
}

// ExpenseFromDomain converts a domain expense and its splits to response.
func ExpenseFromDomain(e *domain.Expense, splits []domain.ExpenseSplit) *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Description: e.Description,
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, s := range splits {
		resp.Splits = append(resp.Splits, SplitResponse{UserID: s.UserID, Amount: s.Amount, Percentage: s.Percentage})
	}
	return resp
}

// ExpensesFromDomain converts domain expenses to responses.
func ExpensesFromDomain(expenses []*domain.Expense) []*ExpenseResponse {
	result := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		result[i] = ExpenseFromDomain(e, nil)
	}
	return result
}

// SettlementResponse represents a settlement in API responses.
type SettlementResponse struct {
	ID        string          `json:"id"`
	GroupID   string          `json:"group_id"`
	PayerID   string          `json:"payer_id"`
	PayeeID   string          `json:"payee_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SettlementFromDomain converts domain settlement to response.
func SettlementFromDomain(s *domain.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:        s.ID,
		GroupID:   s.GroupID,
		PayerID:   s.PayerID,
		PayeeID:   s.PayeeID,
		Amount:    s.Amount,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SettlementsFromDomain converts domain settlements to responses.
func SettlementsFromDomain(settlements []*domain.Settlement) []*SettlementResponse {
	result := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		result[i] = SettlementFromDomain(s)
	}
	return result
}

// DebtResponse is one pairwise debt.
type DebtResponse struct {
	DebtorID   string          `json:"debtor_id"`
	CreditorID string          `json:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// DebtsFromDomain converts debts to responses.
func DebtsFromDomain(debts []domain.Debt) []DebtResponse {
	result := make([]DebtResponse, len(debts))
	for i, d := range debts {
		result[i] = DebtResponse{DebtorID: d.DebtorID, CreditorID: d.CreditorID, Amount: d.Amount}
	}
	return result
}

// BalanceResponse is one member's net balance. Positive means owed.
type BalanceResponse struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// BalancesFromDomain converts net balances to responses.
func BalancesFromDomain(balances []domain.NetBalance) []BalanceResponse {
	result := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceResponse{UserID: b.UserID, Balance: b.Balance}
	}
	return result
}

// TransactionResponse is one settling payment after simplification.
type TransactionResponse struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// TransactionsFromDomain converts simplified transactions to responses.
func TransactionsFromDomain(txs []domain.SimplifiedTransaction) []TransactionResponse {
	result := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionResponse{FromUserID: t.FromUserID, ToUserID: t.ToUserID, Amount: t.Amount}
	}
	return result
}

// ReportResponse is the JSON form of a group report.
type ReportResponse struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Group       *GroupResponse        `json:"group"`
	Members     []*MemberResponse     `json:"members"`
	Expenses    []*ExpenseResponse    `json:"expenses"`
	Settlements []*SettlementResponse `json:"settlements"`
	Debts       []DebtResponse        `json:"debts"`
	Balances    []BalanceResponse     `json:"balances"`
	Simplified  []TransactionResponse `json:"simplified"`
}

// ReportFromUseCase converts a group report to response.
func ReportFromUseCase(r *usecase.GroupReport) *ReportResponse {
	return &ReportResponse{
		GeneratedAt: r.GeneratedAt,
		Group:       GroupFromDomain(r.Group),
		Members:     MembersFromDomain(r.Members),
		Expenses:    ExpensesFromDomain(r.Expenses),
		Settlements: SettlementsFromDomain(r.Settlements),
		Debts:       DebtsFromDomain(r.Debts),
		Balances:    BalancesFromDomain(r.Balances),
		Simplified:  TransactionsFromDomain(r.Simplified),
	}
}

// SyncStatusResponse represents a group's sync metadata.
type SyncStatusResponse struct {
	GroupID            string     `json:"group_id"`
	Status             string     `json:"status"`
	Version            int64      `json:"version"`
	RemoteHandle       string     `json:"remote_handle,omitempty"`
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
	LocalLastModified  *time.Time `json:"local_last_modified,omitempty"`
	RemoteLastModified *time.Time `json:"remote_last_modified,omitempty"`
	LastError          string     `json:"last_error,omitempty"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// SyncStatusFromDomain converts sync metadata to response.
func SyncStatusFromDomain(m *domain.SyncMetadata) *SyncStatusResponse {
	return &SyncStatusResponse{
		GroupID:            m.GroupID,
		Status:             string(m.Status),
		Version:            m.Version,
		RemoteHandle:       m.RemoteHandle,
		LastSyncAt:         optionalTime(m.LastSyncAt),
		LocalLastModified:  optionalTime(m.LocalLastModified),
		RemoteLastModified: optionalTime(m.RemoteLastModified),
		LastError:          m.LastError,
	}
}

// SyncStatusesFromDomain converts sync metadata to responses.
func SyncStatusesFromDomain(metas []*domain.SyncMetadata) []*SyncStatusResponse {
	result := make([]*SyncStatusResponse, len(metas))
	for i, m := range metas {
		result[i] = SyncStatusFromDomain(m)
	}
	return result
}

// SyncResultResponse reports the outcome of a manual sync.
type SyncResultResponse struct {
	GroupID string              `json:"group_id"`
	Outcome string              `json:"outcome"`
	Status  *SyncStatusResponse `json:"status,omitempty"`
}

// ConflictsResponse lists human-readable divergences of a group.
type ConflictsResponse struct {
	GroupID   string   `json:"group_id"`
	Conflicts []string `json:"conflicts"`
}

// PendingChangeResponse represents a queued local change.
type PendingChangeResponse struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	GroupID    string    `json:"group_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Operation  string    `json:"operation"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// PendingChangesFromDomain converts queued changes to responses.
func PendingChangesFromDomain(changes []*domain.PendingChange) []*PendingChangeResponse {
	result := make([]*PendingChangeResponse, len(changes))
	for i, c := range changes {
		result[i] = &PendingChangeResponse{
			ID:         c.ID,
			Seq:        c.Seq,
			GroupID:    c.GroupID,
			EntityType: string(c.EntityType),
			EntityID:   c.EntityID,
			Operation:  string(c.Operation),
			EnqueuedAt: c.EnqueuedAt,
		}
	}
	return result
}

// QueueProcessedResponse reports how many queued changes were pushed.
type QueueProcessedResponse struct {
	Processed int `json:"processed"`
	Remaining int `json:"remaining"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
