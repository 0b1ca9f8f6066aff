package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
	"github.com/iho/splitsync/internal/usecase/mocks"
)

func TestMergeExpenses(t *testing.T) {
	rent := &domain.Expense{ID: "e1", GroupID: "g", PayerID: "A", Description: "rent", Amount: d("100")}
	food := &domain.Expense{ID: "e2", GroupID: "g", PayerID: "B", Description: "food", Amount: d("40")}

	t.Run("union by id", func(t *testing.T) {
		merged := usecase.MergeExpenses([]*domain.Expense{rent}, []*domain.Expense{food})
		require.Len(t, merged, 2)
		assert.Equal(t, "e1", merged[0].ID)
		assert.Equal(t, "e2", merged[1].ID)
	})

	t.Run("identical copies collapse", func(t *testing.T) {
		copyOfRent := *rent
		copyOfRent.UpdatedAt = time.Now()
		merged := usecase.MergeExpenses([]*domain.Expense{rent}, []*domain.Expense{&copyOfRent})
		assert.Len(t, merged, 1)
	})

	t.Run("divergent copies are both kept", func(t *testing.T) {
		edited := *rent
		edited.Amount = d("120")
		merged := usecase.MergeExpenses([]*domain.Expense{rent}, []*domain.Expense{&edited})
		require.Len(t, merged, 2)
		assert.True(t, merged[0].Amount.Equal(d("100")))
		assert.True(t, merged[1].Amount.Equal(d("120")))
	})
}

func TestMergeGroupMetadata(t *testing.T) {
	at := baseTime()
	local := &domain.Group{ID: "g", Name: "Local", UpdatedAt: at}
	remote := &domain.Group{ID: "g", Name: "Remote", UpdatedAt: at}

	assert.Equal(t, "Local", usecase.MergeGroupMetadata(local, remote).Name, "ties go to local")

	remote.UpdatedAt = at.Add(time.Minute)
	assert.Equal(t, "Remote", usecase.MergeGroupMetadata(local, remote).Name)

	local.UpdatedAt = at.Add(2 * time.Minute)
	assert.Equal(t, "Local", usecase.MergeGroupMetadata(local, remote).Name)
}

func TestConflictResolver_DetectConflicts_NeverUploaded(t *testing.T) {
	a := newDevice(t, "A", "a@example.com", mocks.NewInMemoryRemoteStore(), mocks.NewMockClock(baseTime()))
	g := a.createGroup("Trip")

	diffs, err := a.resolver.DetectConflicts(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestConflictResolver_DetectConflicts_RemoteGone(t *testing.T) {
	ctx := context.Background()
	remote := mocks.NewInMemoryRemoteStore()
	a := newDevice(t, "A", "a@example.com", remote, mocks.NewMockClock(baseTime()))
	g := a.createGroup("Trip")

	_, err := a.sync.SyncGroup(ctx, g.ID)
	require.NoError(t, err)
	remote.Delete(a.meta(g.ID).RemoteHandle)

	diffs, err := a.resolver.DetectConflicts(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"remote copy no longer exists"}, diffs)
}

func TestConflictResolver_DetectConflicts_RenamedOnBothSides(t *testing.T) {
	ctx := context.Background()
	remote := mocks.NewInMemoryRemoteStore()
	clock := mocks.NewMockClock(baseTime())
	a := newDevice(t, "A", "a@example.com", remote, clock)
	b := newDevice(t, "B", "b@example.com", remote, clock)

	g := a.createGroup("Trip", "B")
	_, err := a.sync.SyncGroup(ctx, g.ID)
	require.NoError(t, err)
	_, err = b.sync.DiscoverRemoteGroups(ctx)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = b.groups.RenameGroup(ctx, g.ID, "Road trip")
	require.NoError(t, err)
	_, err = b.sync.SyncGroup(ctx, g.ID)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = a.groups.RenameGroup(ctx, g.ID, "Ski trip")
	require.NoError(t, err)

	diffs, err := a.resolver.DetectConflicts(ctx, g.ID)
	require.NoError(t, err)
	assert.Contains(t, diffs, `group name: local "Ski trip", remote "Road trip"`)

	// Merging keeps the newer name.
	_, err = a.sync.SyncGroup(ctx, g.ID)
	require.ErrorIs(t, err, domain.ErrSyncConflict)
	require.NoError(t, a.resolver.MergeConflict(ctx, g.ID))

	group, err := a.groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ski trip", group.Name)
}

func TestConflictResolver_KeepRemoteWithoutUpload(t *testing.T) {
	a := newDevice(t, "A", "a@example.com", mocks.NewInMemoryRemoteStore(), mocks.NewMockClock(baseTime()))
	g := a.createGroup("Trip")

	require.NoError(t, a.store.SyncMeta.Save(context.Background(), nil, &domain.SyncMetadata{
		GroupID: g.ID,
		Status:  domain.SyncStatusConflict,
	}))

	err := a.resolver.ResolveConflict(context.Background(), g.ID, false)
	assert.ErrorIs(t, err, domain.ErrRemoteNotFound)
}
