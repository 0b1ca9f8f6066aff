package usecase

import (
	"context"

	"github.com/iho/splitsync/internal/domain"
)

// Snapshotter converts between the local store and GroupSnapshots.
type Snapshotter struct {
	store LocalStore
	clock Clock
}

// NewSnapshotter creates a new Snapshotter.
func NewSnapshotter(store LocalStore, clock Clock) *Snapshotter {
	return &Snapshotter{store: store, clock: clock}
}

// Build reads the full local state of a group.
func (s *Snapshotter) Build(ctx context.Context, groupID string, version int64, modifiedBy string) (*domain.GroupSnapshot, error) {
	group, err := s.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.Members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.Expenses.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	splits, err := s.store.Splits.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.Settlements.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	snap := &domain.GroupSnapshot{
		Group:         *group,
		Members:       make([]domain.Member, 0, len(members)),
		Expenses:      make([]domain.Expense, 0, len(expenses)),
		ExpenseSplits: splits,
		Settlements:   make([]domain.Settlement, 0, len(settlements)),
		LastModified:  s.clock.Now(),
		Version:       version,
	}
	if modifiedBy != "" {
		snap.LastModifiedBy = &modifiedBy
	}
	for _, m := range members {
		snap.Members = append(snap.Members, *m)
	}
	for _, e := range expenses {
		snap.Expenses = append(snap.Expenses, *e)
	}
	for _, st := range settlements {
		snap.Settlements = append(snap.Settlements, *st)
	}

	return snap, nil
}

// ApplyOptions controls what Apply writes besides the snapshot content.
type ApplyOptions struct {
	// Meta, when set, is saved in the same transaction.
	Meta *domain.SyncMetadata
	// DiscardQueue drops the group's queued changes.
	DiscardQueue bool
}

// Apply replaces the local state of the snapshot's group in one transaction.
// A group that already exists keeps its local sync flag; a new one is synced.
func (s *Snapshotter) Apply(ctx context.Context, snap *domain.GroupSnapshot, opts ApplyOptions) error {
	group := snap.Group
	group.SyncEnabled = true
	if existing, err := s.store.Groups.GetByID(ctx, group.ID); err == nil {
		group.SyncEnabled = existing.SyncEnabled
	}

	tx, err := s.store.Tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.store.Groups.Upsert(ctx, tx, &group); err != nil {
		return err
	}

	// Splits go before expenses so no split outlives its expense.
	if err := s.store.Splits.DeleteByGroup(ctx, tx, group.ID); err != nil {
		return err
	}
	if err := s.store.Expenses.DeleteByGroup(ctx, tx, group.ID); err != nil {
		return err
	}
	if err := s.store.Settlements.DeleteByGroup(ctx, tx, group.ID); err != nil {
		return err
	}
	if err := s.store.Members.DeleteByGroup(ctx, tx, group.ID); err != nil {
		return err
	}

	for i := range snap.Members {
		m := snap.Members[i]
		m.GroupID = group.ID
		if err := s.store.Members.Add(ctx, tx, &m); err != nil {
			return err
		}
	}
	for i := range snap.Expenses {
		if err := s.store.Expenses.Create(ctx, tx, &snap.Expenses[i]); err != nil {
			return err
		}
	}
	if len(snap.ExpenseSplits) > 0 {
		if err := s.store.Splits.CreateBatch(ctx, tx, group.ID, snap.ExpenseSplits); err != nil {
			return err
		}
	}
	for i := range snap.Settlements {
		if err := s.store.Settlements.Create(ctx, tx, &snap.Settlements[i]); err != nil {
			return err
		}
	}

	if opts.DiscardQueue {
		if err := s.store.Pending.DeleteByGroup(ctx, tx, group.ID); err != nil {
			return err
		}
	}
	if opts.Meta != nil {
		if err := s.store.SyncMeta.Save(ctx, tx, opts.Meta); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
