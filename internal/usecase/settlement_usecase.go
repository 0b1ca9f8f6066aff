package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
)

// SettlementUseCase handles payments between members.
type SettlementUseCase struct {
	store LocalStore
	queue *OfflineQueue
	idGen IDGenerator
	clock Clock
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(store LocalStore, queue *OfflineQueue, idGen IDGenerator, clock Clock) *SettlementUseCase {
	return &SettlementUseCase{
		store: store,
		queue: queue,
		idGen: idGen,
		clock: clock,
	}
}

// RecordSettlementInput represents input for recording a settlement.
type RecordSettlementInput struct {
	GroupID   string
	PayerID   string
	PayeeID   string
	Amount    decimal.Decimal
	Confirmed bool
}

// RecordSettlement records a payment from PayerID to PayeeID. It is Pending
// unless Confirmed is set.
func (uc *SettlementUseCase) RecordSettlement(ctx context.Context, input RecordSettlementInput) (*domain.Settlement, error) {
	if _, err := uc.store.Groups.GetByID(ctx, input.GroupID); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	settlement := &domain.Settlement{
		ID:        uc.idGen.Generate(),
		GroupID:   input.GroupID,
		PayerID:   input.PayerID,
		PayeeID:   input.PayeeID,
		Amount:    input.Amount,
		Status:    domain.SettlementStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Confirmed {
		settlement.Status = domain.SettlementStatusConfirmed
	}
	if err := settlement.Validate(); err != nil {
		return nil, err
	}

	err := uc.queue.Mutate(ctx, settlement.GroupID, func(tx Transaction) error {
		for _, userID := range []string{settlement.PayerID, settlement.PayeeID} {
			if err := requireMember(ctx, uc.store.Members, settlement.GroupID, userID); err != nil {
				return err
			}
		}

		if err := uc.store.Settlements.Create(ctx, tx, settlement); err != nil {
			return err
		}
		return uc.enqueue(ctx, tx, settlement, domain.ChangeOperationCreate)
	})
	if err != nil {
		return nil, err
	}

	return settlement, nil
}

// ConfirmSettlement marks a pending settlement as paid.
func (uc *SettlementUseCase) ConfirmSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	return uc.transition(ctx, id, domain.SettlementStatusConfirmed)
}

// CancelSettlement cancels a pending or confirmed settlement.
func (uc *SettlementUseCase) CancelSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	return uc.transition(ctx, id, domain.SettlementStatusCancelled)
}

// GetSettlement retrieves a settlement by ID.
func (uc *SettlementUseCase) GetSettlement(ctx context.Context, id string) (*domain.Settlement, error) {
	return uc.store.Settlements.GetByID(ctx, id)
}

// ListSettlements lists the settlements of a group.
func (uc *SettlementUseCase) ListSettlements(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	if _, err := uc.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return uc.store.Settlements.ListByGroup(ctx, groupID)
}

func (uc *SettlementUseCase) transition(ctx context.Context, id string, next domain.SettlementStatus) (*domain.Settlement, error) {
	current, err := uc.store.Settlements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var settlement *domain.Settlement
	err = uc.queue.Mutate(ctx, current.GroupID, func(tx Transaction) error {
		s, err := uc.store.Settlements.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.TransitionTo(next, uc.clock.Now()); err != nil {
			return err
		}

		if err := uc.store.Settlements.UpdateStatus(ctx, tx, id, s.Status, s.UpdatedAt); err != nil {
			return err
		}
		settlement = s
		return uc.enqueue(ctx, tx, s, domain.ChangeOperationUpdate)
	})
	if err != nil {
		return nil, err
	}

	return settlement, nil
}

func (uc *SettlementUseCase) enqueue(ctx context.Context, tx Transaction, s *domain.Settlement, op domain.ChangeOperation) error {
	return uc.queue.Enqueue(ctx, tx, EnqueueInput{
		GroupID:    s.GroupID,
		EntityType: domain.EntityTypeSettlement,
		EntityID:   s.ID,
		Operation:  op,
		Payload:    s,
	})
}
