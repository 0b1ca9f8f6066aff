package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// GroupPusher pushes a group's snapshot and reports how many queued changes
// were cleared by it.
type GroupPusher interface {
	PushGroup(ctx context.Context, groupID string) (int, error)
}

// OfflineQueue records local mutations until the owning group is pushed.
type OfflineQueue struct {
	mu       sync.Mutex
	store    LocalStore
	locks    *GroupLocks
	pusher   GroupPusher
	idGen    IDGenerator
	clock    Clock
	recorder SyncRecorder
	logger   zerolog.Logger
}

// NewOfflineQueue creates a new OfflineQueue.
func NewOfflineQueue(
	store LocalStore,
	locks *GroupLocks,
	pusher GroupPusher,
	idGen IDGenerator,
	clock Clock,
	recorder SyncRecorder,
	logger zerolog.Logger,
) *OfflineQueue {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &OfflineQueue{
		store:    store,
		locks:    locks,
		pusher:   pusher,
		idGen:    idGen,
		clock:    clock,
		recorder: recorder,
		logger:   logger.With().Str("component", "offline_queue").Logger(),
	}
}

// EnqueueInput describes one local mutation.
type EnqueueInput struct {
	GroupID    string
	EntityType domain.EntityType
	EntityID   string
	Operation  domain.ChangeOperation
	Payload    any
}

// Enqueue records a mutation inside the caller's transaction. Callers hold
// the group's lock, normally through Mutate.
//
// Coalescing: an update of an entity whose latest queued change is a create
// or update replaces that payload in place, keeping its position and
// operation. A delete drops every queued create or update of the entity and
// is appended.
func (q *OfflineQueue) Enqueue(ctx context.Context, tx Transaction, input EnqueueInput) error {
	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	existing, err := q.store.Pending.ListByEntity(ctx, tx, input.GroupID, input.EntityType, input.EntityID)
	if err != nil {
		return err
	}

	switch input.Operation {
	case domain.ChangeOperationUpdate:
		if n := len(existing); n > 0 && existing[n-1].Operation != domain.ChangeOperationDelete {
			if err := q.store.Pending.Replace(ctx, tx, existing[n-1].ID, payload); err != nil {
				return err
			}
			return q.markLocalChange(ctx, tx, input.GroupID)
		}
	case domain.ChangeOperationDelete:
		var superseded []string
		for _, c := range existing {
			if c.Operation != domain.ChangeOperationDelete {
				superseded = append(superseded, c.ID)
			}
		}
		if len(superseded) > 0 {
			if err := q.store.Pending.DeleteByIDs(ctx, tx, superseded); err != nil {
				return err
			}
		}
	}

	change := &domain.PendingChange{
		ID:         q.idGen.Generate(),
		GroupID:    input.GroupID,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Operation:  input.Operation,
		Payload:    payload,
		EnqueuedAt: q.clock.Now(),
	}
	if err := q.store.Pending.Append(ctx, tx, change); err != nil {
		return err
	}

	return q.markLocalChange(ctx, tx, input.GroupID)
}

// Mutate runs one local write of a group inside a transaction while holding
// the group's lock, so it never interleaves with a sync attempt on the same
// group. Changes fn enqueues commit with its writes. Waits for an in-flight
// attempt to finish or ctx to end.
func (q *OfflineQueue) Mutate(ctx context.Context, groupID string, fn func(tx Transaction) error) error {
	if err := q.locks.Lock(ctx, groupID); err != nil {
		return err
	}
	defer q.locks.Unlock(groupID)

	tx, err := q.store.Tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// markLocalChange stamps the group's metadata as changed locally.
func (q *OfflineQueue) markLocalChange(ctx context.Context, tx Transaction, groupID string) error {
	meta, err := q.store.SyncMeta.Get(ctx, groupID)
	if errors.Is(err, domain.ErrSyncMetadataNotFound) {
		meta = domain.NewSyncMetadata(groupID)
	} else if err != nil {
		return err
	}

	meta.LocalLastModified = q.clock.Now()
	if meta.Status != domain.SyncStatusPendingUpload && meta.Status.CanTransitionTo(domain.SyncStatusPendingUpload) {
		_ = meta.TransitionTo(domain.SyncStatusPendingUpload)
	}

	return q.store.SyncMeta.Save(ctx, tx, meta)
}

// ProcessQueue pushes every group with queued changes the user belongs to,
// oldest queued change first. A failing group keeps its changes and does not
// stop the others. Returns the number of changes cleared.
func (q *OfflineQueue) ProcessQueue(ctx context.Context, userID string) (int, error) {
	changes, err := q.store.Pending.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	q.recorder.SetQueueDepth(len(changes))

	var groupIDs []string
	seen := make(map[string]bool)
	for _, c := range changes {
		if !seen[c.GroupID] {
			seen[c.GroupID] = true
			groupIDs = append(groupIDs, c.GroupID)
		}
	}

	processed := 0
	var errs []error

	for _, groupID := range groupIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if _, err := q.store.Members.Get(ctx, groupID, userID); err != nil {
			if errors.Is(err, domain.ErrMemberNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}

		n, err := q.pusher.PushGroup(ctx, groupID)
		if err != nil {
			q.logger.Warn().Err(err).Str("group_id", groupID).Msg("queued changes stay pending")
			errs = append(errs, fmt.Errorf("group %s: %w", groupID, err))
			continue
		}
		processed += n
	}

	q.recorder.RecordQueueProcessed(processed)

	return processed, errors.Join(errs...)
}

// PendingCount returns how many changes are queued for a group.
func (q *OfflineQueue) PendingCount(ctx context.Context, groupID string) (int, error) {
	return q.store.Pending.CountByGroup(ctx, groupID)
}

// ClearSynced drops every queued change of a group.
func (q *OfflineQueue) ClearSynced(ctx context.Context, groupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.store.Pending.DeleteByGroup(ctx, nil, groupID)
}

// List returns all queued changes in FIFO order.
func (q *OfflineQueue) List(ctx context.Context) ([]*domain.PendingChange, error) {
	return q.store.Pending.ListAll(ctx)
}
