package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
	"github.com/iho/splitsync/internal/usecase/mocks"
)

// stubPusher records pushed groups and fails the ones listed in failing.
type stubPusher struct {
	mu      sync.Mutex
	pushed  []string
	failing map[string]error
	store   *mocks.Store
}

func (p *stubPusher) PushGroup(ctx context.Context, groupID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, groupID)
	if err := p.failing[groupID]; err != nil {
		return 0, err
	}
	n, err := p.store.Pending.CountByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return n, p.store.Pending.DeleteByGroup(ctx, nil, groupID)
}

func newTestQueue(t *testing.T, recorder usecase.SyncRecorder) (*usecase.OfflineQueue, *mocks.Store, *stubPusher) {
	t.Helper()
	store := mocks.NewStore()
	pusher := &stubPusher{failing: map[string]error{}, store: store}
	queue := usecase.NewOfflineQueue(
		store.Local(),
		usecase.NewGroupLocks(),
		pusher,
		mocks.NewMockIDGenerator(),
		mocks.NewMockClock(baseTime()),
		recorder,
		zerolog.Nop(),
	)
	return queue, store, pusher
}

func enqueue(t *testing.T, q *usecase.OfflineQueue, groupID string, entity domain.EntityType, id string, op domain.ChangeOperation, payload any) {
	t.Helper()
	require.NoError(t, q.Enqueue(context.Background(), nil, usecase.EnqueueInput{
		GroupID:    groupID,
		EntityType: entity,
		EntityID:   id,
		Operation:  op,
		Payload:    payload,
	}))
}

func joinMember(t *testing.T, store *mocks.Store, groupID, userID string) {
	t.Helper()
	require.NoError(t, store.Members.Add(context.Background(), nil, &domain.Member{
		GroupID: groupID,
		UserID:  userID,
		Email:   userID + "@example.com",
	}))
}

func TestOfflineQueue_CoalescesUpdates(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newTestQueue(t, nil)

	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationCreate, map[string]string{"description": "taxi"})
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e2", domain.ChangeOperationCreate, map[string]string{"description": "lunch"})
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationUpdate, map[string]string{"description": "taxi home"})
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationUpdate, map[string]string{"description": "cab home"})

	changes, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "e1", changes[0].EntityID, "position of the first change is kept")
	assert.Equal(t, domain.ChangeOperationCreate, changes[0].Operation)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(changes[0].Payload, &payload))
	assert.Equal(t, "cab home", payload["description"])
	assert.Equal(t, "e2", changes[1].EntityID)
}

func TestOfflineQueue_DeleteSupersedesQueuedWrites(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newTestQueue(t, nil)

	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationCreate, map[string]string{"id": "e1"})
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e2", domain.ChangeOperationCreate, map[string]string{"id": "e2"})
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationDelete, map[string]string{"id": "e1"})

	changes, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "e2", changes[0].EntityID)
	assert.Equal(t, "e1", changes[1].EntityID)
	assert.Equal(t, domain.ChangeOperationDelete, changes[1].Operation)

	// An update after a delete is queued on its own.
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationUpdate, map[string]string{"id": "e1"})
	count, err := q.PendingCount(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestOfflineQueue_MarksGroupPendingUpload(t *testing.T) {
	ctx := context.Background()
	q, store, _ := newTestQueue(t, nil)

	enqueue(t, q, "g1", domain.EntityTypeGroup, "g1", domain.ChangeOperationCreate, map[string]string{"id": "g1"})

	meta, err := store.SyncMeta.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPendingUpload, meta.Status)
	assert.Equal(t, baseTime(), meta.LocalLastModified)
}

func TestOfflineQueue_ProcessQueue(t *testing.T) {
	ctx := context.Background()
	q, store, pusher := newTestQueue(t, nil)

	for _, g := range []string{"g2", "g1", "g3"} {
		enqueue(t, q, g, domain.EntityTypeGroup, g, domain.ChangeOperationCreate, map[string]string{"id": g})
	}
	enqueue(t, q, "g1", domain.EntityTypeExpense, "e1", domain.ChangeOperationCreate, map[string]string{"id": "e1"})

	joinMember(t, store, "g1", "alice")
	joinMember(t, store, "g2", "alice")
	joinMember(t, store, "g3", "bob")

	pusher.failing["g2"] = domain.ErrRemoteTransient

	processed, err := q.ProcessQueue(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrRemoteTransient)
	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"g2", "g1"}, pusher.pushed, "oldest change first, g3 skipped")

	left, err := q.PendingCount(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	left, err = q.PendingCount(ctx, "g3")
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	delete(pusher.failing, "g2")
	processed, err = q.ProcessQueue(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestOfflineQueue_ProcessQueue_StopsOnCancelledContext(t *testing.T) {
	q, store, pusher := newTestQueue(t, nil)
	enqueue(t, q, "g1", domain.EntityTypeGroup, "g1", domain.ChangeOperationCreate, map[string]string{"id": "g1"})
	joinMember(t, store, "g1", "alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.ProcessQueue(ctx, "alice")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, pusher.pushed)
}

func TestOfflineQueue_ProcessQueue_RecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockSyncRecorder(ctrl)
	recorder.EXPECT().SetQueueDepth(3)
	recorder.EXPECT().RecordQueueProcessed(3)

	q, store, _ := newTestQueue(t, recorder)
	enqueue(t, q, "g1", domain.EntityTypeGroup, "g1", domain.ChangeOperationCreate, map[string]string{"id": "g1"})
	enqueue(t, q, "g1", domain.EntityTypeMember, "alice", domain.ChangeOperationCreate, map[string]string{"id": "alice"})
	enqueue(t, q, "g1", domain.EntityTypeMember, "bob", domain.ChangeOperationCreate, map[string]string{"id": "bob"})
	joinMember(t, store, "g1", "alice")

	processed, err := q.ProcessQueue(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, processed)
}

func TestOfflineQueue_ClearSynced(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newTestQueue(t, nil)
	enqueue(t, q, "g1", domain.EntityTypeGroup, "g1", domain.ChangeOperationCreate, map[string]string{"id": "g1"})
	enqueue(t, q, "g2", domain.EntityTypeGroup, "g2", domain.ChangeOperationCreate, map[string]string{"id": "g2"})

	require.NoError(t, q.ClearSynced(ctx, "g1"))

	changes, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "g2", changes[0].GroupID)
}
