package usecase

import (
	"context"
	"time"

	"github.com/iho/splitsync/internal/domain"
)

// BalanceUseCase computes debts on demand. Results are never cached.
type BalanceUseCase struct {
	store LocalStore
	clock Clock
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(store LocalStore, clock Clock) *BalanceUseCase {
	return &BalanceUseCase{store: store, clock: clock}
}

// GroupReport is a full debt view of one group.
type GroupReport struct {
	GeneratedAt time.Time
	Group       *domain.Group
	Members     []*domain.Member
	Expenses    []*domain.Expense
	Settlements []*domain.Settlement
	Debts       []domain.Debt
	Balances    []domain.NetBalance
	Simplified  []domain.SimplifiedTransaction
}

// GetDebts returns the net pairwise debts of a group.
func (uc *BalanceUseCase) GetDebts(ctx context.Context, groupID string) ([]domain.Debt, error) {
	if _, err := uc.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	expenses, err := uc.store.Expenses.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	splits, err := uc.store.Splits.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	settlements, err := uc.store.Settlements.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return CalculateDebts(expenses, splits, settlements)
}

// GetNetBalances returns every member's balance in a group.
func (uc *BalanceUseCase) GetNetBalances(ctx context.Context, groupID string) ([]domain.NetBalance, error) {
	debts, err := uc.GetDebts(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return NetBalances(debts), nil
}

// GetSimplified returns the fewest payments that settle a group.
func (uc *BalanceUseCase) GetSimplified(ctx context.Context, groupID string) ([]domain.SimplifiedTransaction, error) {
	debts, err := uc.GetDebts(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return Simplify(debts), nil
}

// GetReport assembles the full debt view of a group.
func (uc *BalanceUseCase) GetReport(ctx context.Context, groupID string) (*GroupReport, error) {
	group, err := uc.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := uc.store.Members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := uc.store.Expenses.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	splits, err := uc.store.Splits.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	settlements, err := uc.store.Settlements.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	debts, err := CalculateDebts(expenses, splits, settlements)
	if err != nil {
		return nil, err
	}

	return &GroupReport{
		GeneratedAt: uc.clock.Now(),
		Group:       group,
		Members:     members,
		Expenses:    expenses,
		Settlements: settlements,
		Debts:       debts,
		Balances:    NetBalances(debts),
		Simplified:  Simplify(debts),
	}, nil
}
