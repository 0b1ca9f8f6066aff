package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// SyncUseCase reconciles local groups with their remote snapshots.
type SyncUseCase struct {
	rep       *replicator
	locks     *GroupLocks
	resolver  *ConflictResolver
	autoMerge bool
	logger    zerolog.Logger

	wg sync.WaitGroup
}

// NewSyncUseCase creates a new SyncUseCase.
func NewSyncUseCase(cfg SyncConfig) *SyncUseCase {
	if cfg.Locks == nil {
		cfg.Locks = NewGroupLocks()
	}
	resolver := NewConflictResolver(cfg)
	cfg.Logger = cfg.Logger.With().Str("component", "sync").Logger()

	return &SyncUseCase{
		rep:       newReplicator(cfg),
		locks:     cfg.Locks,
		resolver:  resolver,
		autoMerge: cfg.AutoMerge,
		logger:    cfg.Logger,
	}
}

type syncResult struct {
	outcome string
	cleared int
}

// Tick starts one sync round in the background and returns immediately.
// Groups whose previous attempt is still running are skipped.
func (uc *SyncUseCase) Tick(ctx context.Context) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.dispatch(ctx)
	}()
}

// Wait blocks until every attempt started by Tick has finished.
func (uc *SyncUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *SyncUseCase) dispatch(ctx context.Context) {
	groups, err := uc.rep.store.Groups.ListSyncEnabled(ctx)
	if err != nil {
		uc.logger.Error().Err(err).Msg("failed to list groups for sync")
		return
	}

	for _, g := range groups {
		groupID := g.ID
		if !uc.locks.TryLock(groupID) {
			uc.rep.recorder.RecordSync(OutcomeSkipped, 0)
			uc.logger.Debug().Str("group_id", groupID).Msg("sync already in flight, skipping")
			continue
		}

		uc.wg.Add(1)
		go func() {
			defer uc.wg.Done()
			defer uc.locks.Unlock(groupID)
			_, _ = uc.syncLocked(ctx, groupID)
		}()
	}

	if _, err := uc.DiscoverRemoteGroups(ctx); err != nil {
		uc.logger.Warn().Err(err).Msg("remote group discovery failed")
	}
}

// SyncGroup runs one attempt for a group now and returns its outcome.
func (uc *SyncUseCase) SyncGroup(ctx context.Context, groupID string) (string, error) {
	if err := uc.requireSyncEnabled(ctx, groupID); err != nil {
		return "", err
	}
	if !uc.locks.TryLock(groupID) {
		return OutcomeSkipped, domain.ErrSyncInProgress
	}
	defer uc.locks.Unlock(groupID)

	res, err := uc.syncLocked(ctx, groupID)
	return res.outcome, err
}

// PushGroup implements GroupPusher for the offline queue.
func (uc *SyncUseCase) PushGroup(ctx context.Context, groupID string) (int, error) {
	if err := uc.requireSyncEnabled(ctx, groupID); err != nil {
		return 0, err
	}
	if !uc.locks.TryLock(groupID) {
		return 0, domain.ErrSyncInProgress
	}
	defer uc.locks.Unlock(groupID)

	res, err := uc.syncLocked(ctx, groupID)
	return res.cleared, err
}

func (uc *SyncUseCase) requireSyncEnabled(ctx context.Context, groupID string) error {
	group, err := uc.rep.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.SyncEnabled {
		return domain.ErrSyncDisabled
	}
	return nil
}

func (uc *SyncUseCase) syncLocked(ctx context.Context, groupID string) (syncResult, error) {
	start := time.Now()
	res, err := uc.reconcile(ctx, groupID)
	uc.rep.recorder.RecordSync(res.outcome, time.Since(start))

	log := uc.logger.With().Str("group_id", groupID).Str("outcome", res.outcome).Logger()
	switch {
	case errors.Is(err, domain.ErrSyncConflict):
		log.Info().Msg("local and remote copies diverged")
	case err != nil:
		log.Warn().Err(err).Msg("sync attempt failed")
	default:
		log.Debug().Dur("duration", time.Since(start)).Msg("sync attempt finished")
	}

	return res, err
}

// reconcile classifies the group by comparing local and remote change
// markers against the last agreed sync point, then pushes, pulls, or flags
// a conflict.
func (uc *SyncUseCase) reconcile(ctx context.Context, groupID string) (syncResult, error) {
	meta, err := uc.rep.loadMeta(ctx, groupID)
	if err != nil {
		return syncResult{outcome: OutcomeError}, err
	}

	if meta.Status == domain.SyncStatusConflict {
		if !uc.autoMerge {
			return syncResult{outcome: OutcomeConflict}, domain.ErrSyncConflict
		}
		return uc.merge(ctx, meta)
	}

	pending, err := uc.rep.store.Pending.CountByGroup(ctx, groupID)
	if err != nil {
		return syncResult{outcome: OutcomeError}, err
	}
	localChanged := meta.HasLocalChanges(pending)

	if meta.RemoteHandle == "" {
		return uc.pushAttempt(ctx, meta, nil)
	}

	remote, err := uc.rep.remoteMetadata(ctx, meta.RemoteHandle)
	switch {
	case errors.Is(err, domain.ErrRemoteNotFound):
		uc.logger.Warn().Str("group_id", groupID).Str("handle", meta.RemoteHandle).Msg("remote snapshot missing, uploading again")
		return uc.pushAttempt(ctx, meta, nil)
	case err != nil:
		return syncResult{outcome: OutcomeError}, uc.rep.fail(ctx, meta, err)
	}

	remoteChanged := meta.RemoteChanged(remote)

	switch {
	case !localChanged && !remoteChanged:
		return uc.settle(ctx, meta)
	case localChanged && !remoteChanged:
		return uc.pushAttempt(ctx, meta, &remote)
	case !localChanged && remote.Version < meta.Version:
		// The remote copy went backwards; restore ours on top of it.
		return uc.pushAttempt(ctx, meta, &remote)
	case !localChanged:
		return uc.pullAttempt(ctx, meta)
	default:
		return uc.conflict(ctx, meta)
	}
}

func (uc *SyncUseCase) settle(ctx context.Context, meta *domain.SyncMetadata) (syncResult, error) {
	if meta.Status == domain.SyncStatusSynced {
		return syncResult{outcome: OutcomeUnchanged}, nil
	}
	if !meta.Status.CanTransitionTo(domain.SyncStatusSynced) {
		if err := meta.TransitionTo(domain.SyncStatusSyncing); err != nil {
			return syncResult{outcome: OutcomeError}, err
		}
	}
	if err := meta.TransitionTo(domain.SyncStatusSynced); err != nil {
		return syncResult{outcome: OutcomeError}, err
	}
	meta.LastError = ""

	return syncResult{outcome: OutcomeUnchanged}, uc.rep.store.SyncMeta.Save(ctx, nil, meta)
}

func (uc *SyncUseCase) pushAttempt(ctx context.Context, meta *domain.SyncMetadata, remote *domain.RemoteMetadata) (syncResult, error) {
	if err := uc.rep.begin(ctx, meta, domain.SyncStatusPendingUpload); err != nil {
		return syncResult{outcome: OutcomeError}, err
	}

	cleared, err := uc.rep.push(ctx, meta, remote)
	if err != nil {
		return syncResult{outcome: OutcomeError}, uc.rep.fail(ctx, meta, err)
	}

	return syncResult{outcome: OutcomePushed, cleared: cleared}, nil
}

func (uc *SyncUseCase) pullAttempt(ctx context.Context, meta *domain.SyncMetadata) (syncResult, error) {
	if err := uc.rep.begin(ctx, meta, domain.SyncStatusPendingDownload); err != nil {
		return syncResult{outcome: OutcomeError}, err
	}

	if err := uc.rep.pull(ctx, meta, meta.RemoteHandle, false); err != nil {
		return syncResult{outcome: OutcomeError}, uc.rep.fail(ctx, meta, err)
	}

	return syncResult{outcome: OutcomePulled}, nil
}

func (uc *SyncUseCase) conflict(ctx context.Context, meta *domain.SyncMetadata) (syncResult, error) {
	if meta.Status != domain.SyncStatusSyncing {
		if err := meta.TransitionTo(domain.SyncStatusSyncing); err != nil {
			return syncResult{outcome: OutcomeError}, err
		}
	}
	if err := meta.TransitionTo(domain.SyncStatusConflict); err != nil {
		return syncResult{outcome: OutcomeError}, err
	}
	if err := uc.rep.store.SyncMeta.Save(ctx, nil, meta); err != nil {
		return syncResult{outcome: OutcomeError}, err
	}
	uc.rep.recorder.RecordConflict()

	if uc.autoMerge {
		return uc.merge(ctx, meta)
	}

	return syncResult{outcome: OutcomeConflict}, domain.ErrSyncConflict
}

func (uc *SyncUseCase) merge(ctx context.Context, meta *domain.SyncMetadata) (syncResult, error) {
	cleared, err := uc.resolver.mergeLocked(ctx, meta)
	if err != nil {
		return syncResult{outcome: OutcomeError}, err
	}
	return syncResult{outcome: OutcomeMerged, cleared: cleared}, nil
}

// DiscoverRemoteGroups downloads groups shared with the current user that do
// not exist locally yet. Returns how many were added.
func (uc *SyncUseCase) DiscoverRemoteGroups(ctx context.Context) (int, error) {
	identity, err := uc.rep.identity.Current(ctx)
	if err != nil {
		return 0, err
	}

	var handles []string
	err = uc.rep.retrier.Retry(ctx, func() error {
		var err error
		handles, err = uc.rep.remote.ListAccessible(ctx, identity.Email)
		return err
	})
	uc.rep.observeRemote(err)
	if err != nil {
		return 0, fmt.Errorf("list accessible snapshots: %w", err)
	}

	metas, err := uc.rep.store.SyncMeta.List(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(metas))
	for _, m := range metas {
		if m.RemoteHandle != "" {
			known[m.RemoteHandle] = true
		}
	}

	added := 0
	for _, handle := range handles {
		if known[handle] {
			continue
		}

		ok, err := uc.adopt(ctx, handle)
		if err != nil {
			uc.logger.Warn().Err(err).Str("handle", handle).Msg("failed to download shared group")
			continue
		}
		if ok {
			added++
		}
	}

	return added, nil
}

// adopt creates a local copy of a remote group. Groups that already exist
// locally are left to the regular sync path.
func (uc *SyncUseCase) adopt(ctx context.Context, handle string) (bool, error) {
	snap, err := uc.rep.download(ctx, handle)
	if err != nil {
		return false, err
	}

	groupID := snap.Group.ID
	if _, err := uc.rep.store.Groups.GetByID(ctx, groupID); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrGroupNotFound) {
		return false, err
	}

	if !uc.locks.TryLock(groupID) {
		return false, nil
	}
	defer uc.locks.Unlock(groupID)

	meta := domain.NewSyncMetadata(groupID)
	meta.RemoteHandle = handle
	if err := meta.TransitionTo(domain.SyncStatusPendingDownload); err != nil {
		return false, err
	}
	if err := meta.TransitionTo(domain.SyncStatusSyncing); err != nil {
		return false, err
	}
	if err := meta.MarkSynced(snap.Metadata(), uc.rep.clock.Now()); err != nil {
		return false, err
	}

	if err := uc.rep.snapshots.Apply(ctx, snap, ApplyOptions{Meta: meta}); err != nil {
		return false, err
	}

	uc.logger.Info().Str("group_id", groupID).Int64("version", meta.Version).Msg("downloaded shared group")

	return true, nil
}

// RecoverInterrupted re-derives the status of attempts that were cut short
// while Syncing. Returns how many rows were repaired.
func (uc *SyncUseCase) RecoverInterrupted(ctx context.Context) (int, error) {
	stale, err := uc.rep.store.SyncMeta.ListByStatus(ctx, domain.SyncStatusSyncing)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, meta := range stale {
		pending, err := uc.rep.store.Pending.CountByGroup(ctx, meta.GroupID)
		if err != nil {
			return repaired, err
		}
		if !meta.Recover(pending) {
			continue
		}
		if err := uc.rep.store.SyncMeta.Save(ctx, nil, meta); err != nil {
			return repaired, err
		}
		uc.logger.Info().Str("group_id", meta.GroupID).Str("status", string(meta.Status)).Msg("recovered interrupted sync")
		repaired++
	}

	return repaired, nil
}

// Status returns the sync metadata of a group.
func (uc *SyncUseCase) Status(ctx context.Context, groupID string) (*domain.SyncMetadata, error) {
	if _, err := uc.rep.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return uc.rep.loadMeta(ctx, groupID)
}

// ListStatus returns the sync metadata of every group that has any.
func (uc *SyncUseCase) ListStatus(ctx context.Context) ([]*domain.SyncMetadata, error) {
	return uc.rep.store.SyncMeta.List(ctx)
}

// Resolver returns the conflict resolver sharing this use case's locks.
func (uc *SyncUseCase) Resolver() *ConflictResolver {
	return uc.resolver
}
