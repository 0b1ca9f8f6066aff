package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
)

// ExpenseUseCase handles expense business logic.
type ExpenseUseCase struct {
	store LocalStore
	queue *OfflineQueue
	idGen IDGenerator
	clock Clock
}

// NewExpenseUseCase creates a new ExpenseUseCase.
func NewExpenseUseCase(store LocalStore, queue *OfflineQueue, idGen IDGenerator, clock Clock) *ExpenseUseCase {
	return &ExpenseUseCase{
		store: store,
		queue: queue,
		idGen: idGen,
		clock: clock,
	}
}

// CreateExpenseInput represents input for creating an expense. Percentages
// selects a custom split; otherwise the amount is split evenly between
// Participants, or all members when Participants is empty.
type CreateExpenseInput struct {
	ExpenseDate  *time.Time
	Percentages  map[string]decimal.Decimal
	GroupID      string
	PayerID      string
	Description  string
	Participants []string
	Amount       decimal.Decimal
}

// UpdateExpenseInput represents input for editing an expense. Nil fields are
// left unchanged.
type UpdateExpenseInput struct {
	PayerID      *string
	Description  *string
	Amount       *decimal.Decimal
	ExpenseDate  *time.Time
	Percentages  map[string]decimal.Decimal
	Participants []string
	ExpenseID    string
}

// expensePayload is the queued form of an expense mutation.
type expensePayload struct {
	Expense *domain.Expense       `json:"expense"`
	Splits  []domain.ExpenseSplit `json:"splits,omitempty"`
}

// CreateExpense records an expense and its splits.
func (uc *ExpenseUseCase) CreateExpense(ctx context.Context, input CreateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
	if _, err := uc.store.Groups.GetByID(ctx, input.GroupID); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, nil, err
	}

	now := uc.clock.Now()
	expenseDate := now
	if input.ExpenseDate != nil {
		expenseDate = input.ExpenseDate.UTC()
	}

	expense := &domain.Expense{
		ID:          uc.idGen.Generate(),
		GroupID:     input.GroupID,
		PayerID:     input.PayerID,
		Description: input.Description,
		Amount:      input.Amount,
		ExpenseDate: expenseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := expense.Validate(); err != nil {
		return nil, nil, err
	}

	var splits []domain.ExpenseSplit
	err := uc.queue.Mutate(ctx, expense.GroupID, func(tx Transaction) error {
		if err := requireMember(ctx, uc.store.Members, expense.GroupID, expense.PayerID); err != nil {
			return err
		}

		var err error
		splits, err = uc.computeSplits(ctx, expense, input.Participants, input.Percentages)
		if err != nil {
			return err
		}

		if err := uc.store.Expenses.Create(ctx, tx, expense); err != nil {
			return err
		}
		if err := uc.store.Splits.CreateBatch(ctx, tx, expense.GroupID, splits); err != nil {
			return err
		}
		return uc.enqueue(ctx, tx, expense, splits, domain.ChangeOperationCreate)
	})
	if err != nil {
		return nil, nil, err
	}

	return expense, splits, nil
}

// UpdateExpense edits an expense. Without new participants or percentages
// the previous split is kept: unchanged when the amount is unchanged,
// otherwise recomputed in the same shape and order.
func (uc *ExpenseUseCase) UpdateExpense(ctx context.Context, input UpdateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
	current, err := uc.store.Expenses.GetByID(ctx, input.ExpenseID)
	if err != nil {
		return nil, nil, err
	}
	if input.Description != nil {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return nil, nil, err
		}
	}

	var (
		expense *domain.Expense
		splits  []domain.ExpenseSplit
	)
	err = uc.queue.Mutate(ctx, current.GroupID, func(tx Transaction) error {
		// Reload under the lock: a pull may have replaced the row.
		e, err := uc.store.Expenses.GetByID(ctx, input.ExpenseID)
		if err != nil {
			return err
		}
		previousAmount := e.Amount

		if input.Description != nil {
			e.Description = *input.Description
		}
		if input.PayerID != nil {
			if err := requireMember(ctx, uc.store.Members, e.GroupID, *input.PayerID); err != nil {
				return err
			}
			e.PayerID = *input.PayerID
		}
		if input.Amount != nil {
			e.Amount = *input.Amount
		}
		if input.ExpenseDate != nil {
			e.ExpenseDate = input.ExpenseDate.UTC()
		}
		e.UpdatedAt = uc.clock.Now()

		if err := e.Validate(); err != nil {
			return err
		}

		var kept bool
		splits, kept, err = uc.resplit(ctx, e, previousAmount, input.Participants, input.Percentages)
		if err != nil {
			return err
		}

		if err := uc.store.Expenses.Update(ctx, tx, e); err != nil {
			return err
		}
		if !kept {
			if err := uc.store.Splits.DeleteByExpense(ctx, tx, e.ID); err != nil {
				return err
			}
			if err := uc.store.Splits.CreateBatch(ctx, tx, e.GroupID, splits); err != nil {
				return err
			}
		}
		if err := uc.enqueue(ctx, tx, e, splits, domain.ChangeOperationUpdate); err != nil {
			return err
		}

		expense = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return expense, splits, nil
}

// resplit returns the splits of an edited expense. kept reports that the
// stored rows still apply unchanged.
func (uc *ExpenseUseCase) resplit(
	ctx context.Context,
	expense *domain.Expense,
	previousAmount decimal.Decimal,
	participants []string,
	percentages map[string]decimal.Decimal,
) (splits []domain.ExpenseSplit, kept bool, err error) {
	if len(participants) == 0 && len(percentages) == 0 {
		previous, err := uc.store.Splits.ListByExpense(ctx, expense.ID)
		if err != nil {
			return nil, false, err
		}
		if len(previous) > 0 && expense.Amount.Equal(previousAmount) {
			return previous, true, nil
		}
		participants, percentages = previousShape(previous)
	}

	splits, err = uc.computeSplits(ctx, expense, participants, percentages)
	return splits, false, err
}

// DeleteExpense removes an expense and its splits.
func (uc *ExpenseUseCase) DeleteExpense(ctx context.Context, id string) error {
	current, err := uc.store.Expenses.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return uc.queue.Mutate(ctx, current.GroupID, func(tx Transaction) error {
		expense, err := uc.store.Expenses.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := uc.store.Splits.DeleteByExpense(ctx, tx, id); err != nil {
			return err
		}
		if err := uc.store.Expenses.Delete(ctx, tx, id); err != nil {
			return err
		}
		return uc.enqueue(ctx, tx, expense, nil, domain.ChangeOperationDelete)
	})
}

// GetExpense retrieves an expense with its splits.
func (uc *ExpenseUseCase) GetExpense(ctx context.Context, id string) (*domain.Expense, []domain.ExpenseSplit, error) {
	expense, err := uc.store.Expenses.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	splits, err := uc.store.Splits.ListByExpense(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return expense, splits, nil
}

// ListExpenses lists the expenses of a group.
func (uc *ExpenseUseCase) ListExpenses(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	if _, err := uc.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return uc.store.Expenses.ListByGroup(ctx, groupID)
}

func (uc *ExpenseUseCase) computeSplits(
	ctx context.Context,
	expense *domain.Expense,
	participants []string,
	percentages map[string]decimal.Decimal,
) ([]domain.ExpenseSplit, error) {
	var splits []domain.ExpenseSplit

	if len(percentages) > 0 {
		for userID := range percentages {
			if err := requireMember(ctx, uc.store.Members, expense.GroupID, userID); err != nil {
				return nil, err
			}
		}

		custom, err := CustomSplit(expense.Amount, percentages)
		if err != nil {
			return nil, err
		}
		splits = custom
	} else {
		ids, err := uc.participantIDs(ctx, expense.GroupID, participants)
		if err != nil {
			return nil, err
		}
		splits = EvenSplit(expense.Amount, ids)
		if len(splits) > 0 && splits[0].Amount.IsNegative() {
			return nil, fmt.Errorf("%w: %s between %d participants",
				domain.ErrTooSmallToSplit, expense.Amount.StringFixed(2), len(ids))
		}
	}

	for i := range splits {
		splits[i].ExpenseID = expense.ID
	}

	if err := domain.ValidateSplits(expense, splits); err != nil {
		return nil, err
	}

	return splits, nil
}

// participantIDs validates and de-duplicates participants, keeping their order.
// An empty list means every member of the group.
func (uc *ExpenseUseCase) participantIDs(ctx context.Context, groupID string, participants []string) ([]string, error) {
	if len(participants) == 0 {
		members, err := uc.store.Members.ListByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			participants = append(participants, m.UserID)
		}
	}

	seen := make(map[string]bool, len(participants))
	ids := make([]string, 0, len(participants))
	for _, id := range participants {
		if seen[id] {
			continue
		}
		if err := requireMember(ctx, uc.store.Members, groupID, id); err != nil {
			return nil, err
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}

func (uc *ExpenseUseCase) enqueue(ctx context.Context, tx Transaction, expense *domain.Expense, splits []domain.ExpenseSplit, op domain.ChangeOperation) error {
	return uc.queue.Enqueue(ctx, tx, EnqueueInput{
		GroupID:    expense.GroupID,
		EntityType: domain.EntityTypeExpense,
		EntityID:   expense.ID,
		Operation:  op,
		Payload:    expensePayload{Expense: expense, Splits: splits},
	})
}

// previousShape recovers how an expense was split: evenly when every share
// has the same percentage, by percentage otherwise. An even split keeps the
// stored participant order so the same member absorbs the remainder.
func previousShape(splits []domain.ExpenseSplit) ([]string, map[string]decimal.Decimal) {
	if len(splits) == 0 {
		return nil, nil
	}

	even := true
	for _, s := range splits[1:] {
		if !s.Percentage.Equal(splits[0].Percentage) {
			even = false
			break
		}
	}

	if even {
		ids := make([]string, len(splits))
		for i, s := range splits {
			ids[i] = s.UserID
		}
		return ids, nil
	}

	pcts := make(map[string]decimal.Decimal, len(splits))
	for _, s := range splits {
		pcts[s.UserID] = s.Percentage
	}
	return nil, pcts
}
