package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// SyncConfig wires the sync orchestrator and the conflict resolver. Both must
// share the same Locks.
type SyncConfig struct {
	Store     LocalStore
	Remote    RemoteSnapshotStore
	Identity  IdentityProvider
	Locks     *GroupLocks
	Retrier   Retrier
	Clock     Clock
	IDGen     IDGenerator
	Recorder  SyncRecorder
	Logger    zerolog.Logger
	AutoMerge bool
}

// replicator moves whole group snapshots between the local and remote stores.
// Callers hold the group's lock.
type replicator struct {
	store     LocalStore
	remote    RemoteSnapshotStore
	identity  IdentityProvider
	retrier   Retrier
	clock     Clock
	idGen     IDGenerator
	recorder  SyncRecorder
	logger    zerolog.Logger
	snapshots *Snapshotter
}

type onceRetrier struct{}

func (onceRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}

func newReplicator(cfg SyncConfig) *replicator {
	r := &replicator{
		store:     cfg.Store,
		remote:    cfg.Remote,
		identity:  cfg.Identity,
		retrier:   cfg.Retrier,
		clock:     cfg.Clock,
		idGen:     cfg.IDGen,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		snapshots: NewSnapshotter(cfg.Store, cfg.Clock),
	}
	if r.retrier == nil {
		r.retrier = onceRetrier{}
	}
	if r.recorder == nil {
		r.recorder = noopRecorder{}
	}
	return r
}

// loadMeta returns the group's metadata, or fresh NotSynced metadata.
func (r *replicator) loadMeta(ctx context.Context, groupID string) (*domain.SyncMetadata, error) {
	meta, err := r.store.SyncMeta.Get(ctx, groupID)
	if errors.Is(err, domain.ErrSyncMetadataNotFound) {
		return domain.NewSyncMetadata(groupID), nil
	}
	return meta, err
}

// begin enters Syncing, passing through intent when that transition is legal,
// and persists the attempt.
func (r *replicator) begin(ctx context.Context, meta *domain.SyncMetadata, intent domain.SyncStatus) error {
	if intent != "" && meta.Status != intent && meta.Status.CanTransitionTo(intent) {
		_ = meta.TransitionTo(intent)
	}
	if meta.Status != domain.SyncStatusSyncing {
		if err := meta.TransitionTo(domain.SyncStatusSyncing); err != nil {
			return err
		}
	}
	return r.store.SyncMeta.Save(ctx, nil, meta)
}

// fail records err on the metadata. The save survives cancellation of ctx so
// no attempt is left in Syncing.
func (r *replicator) fail(ctx context.Context, meta *domain.SyncMetadata, err error) error {
	meta.Fail(err)
	if saveErr := r.store.SyncMeta.Save(context.WithoutCancel(ctx), nil, meta); saveErr != nil {
		r.logger.Error().Err(saveErr).Str("group_id", meta.GroupID).Msg("failed to save sync error")
	}
	return err
}

func (r *replicator) remoteMetadata(ctx context.Context, handle string) (domain.RemoteMetadata, error) {
	var meta domain.RemoteMetadata
	err := r.retrier.Retry(ctx, func() error {
		var err error
		meta, err = r.remote.GetMetadata(ctx, handle)
		return err
	})
	r.observeRemote(err)
	return meta, err
}

func (r *replicator) download(ctx context.Context, handle string) (*domain.GroupSnapshot, error) {
	var data []byte
	err := r.retrier.Retry(ctx, func() error {
		var err error
		data, err = r.remote.Download(ctx, handle)
		return err
	})
	r.observeRemote(err)
	if err != nil {
		return nil, err
	}
	return domain.DecodeSnapshot(data)
}

func (r *replicator) observeRemote(err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRemoteNotFound):
		r.recorder.RecordRemoteError("not_found")
	case errors.Is(err, domain.ErrRemoteForbidden):
		r.recorder.RecordRemoteError("forbidden")
	case errors.Is(err, domain.ErrRemoteTransient):
		r.recorder.RecordRemoteError("transient")
	default:
		r.recorder.RecordRemoteError("other")
	}
}

// push uploads the local state of the group. The version supersedes both the
// local one and remote, when given. Queued changes that were part of the
// snapshot are cleared. Returns the number cleared.
func (r *replicator) push(ctx context.Context, meta *domain.SyncMetadata, remote *domain.RemoteMetadata) (int, error) {
	identity, err := r.identity.Current(ctx)
	if err != nil {
		return 0, err
	}

	// Mutations hold the group's lock through commit, so every change up to
	// maxSeq is in the snapshot built below.
	maxSeq, err := r.store.Pending.MaxSeq(ctx, meta.GroupID)
	if err != nil {
		return 0, err
	}

	version := meta.Version + 1
	if remote != nil {
		version = meta.NextVersion(*remote)
	}

	snap, err := r.snapshots.Build(ctx, meta.GroupID, version, identity.Email)
	if err != nil {
		return 0, err
	}

	data, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return 0, err
	}

	var handle string
	err = r.retrier.Retry(ctx, func() error {
		var err error
		handle, err = r.remote.Upload(ctx, meta.GroupID, data, snap.Metadata())
		return err
	})
	r.observeRemote(err)
	if err != nil {
		return 0, fmt.Errorf("upload snapshot: %w", err)
	}

	newFile := meta.RemoteHandle != handle
	meta.RemoteHandle = handle
	if err := meta.MarkSynced(snap.Metadata(), snap.LastModified); err != nil {
		return 0, err
	}

	tx, err := r.store.Tx.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	cleared, err := r.store.Pending.DeleteByGroupThrough(ctx, tx, meta.GroupID, maxSeq)
	if err != nil {
		return 0, err
	}
	if err := r.store.SyncMeta.Save(ctx, tx, meta); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	if newFile {
		r.share(ctx, handle, snap.Members)
	}

	r.logger.Info().
		Str("group_id", meta.GroupID).
		Int64("version", meta.Version).
		Int("cleared", cleared).
		Msg("pushed group snapshot")

	return cleared, nil
}

// pull downloads the remote snapshot and overwrites the local group.
func (r *replicator) pull(ctx context.Context, meta *domain.SyncMetadata, handle string, discardQueue bool) error {
	snap, err := r.download(ctx, handle)
	if err != nil {
		return err
	}
	if snap.Group.ID != meta.GroupID {
		return fmt.Errorf("%w: file %s holds group %s", domain.ErrInvalidSnapshot, handle, snap.Group.ID)
	}

	next := *meta
	next.RemoteHandle = handle
	if err := next.MarkSynced(snap.Metadata(), r.clock.Now()); err != nil {
		return err
	}

	if err := r.snapshots.Apply(ctx, snap, ApplyOptions{Meta: &next, DiscardQueue: discardQueue}); err != nil {
		return err
	}
	*meta = next

	r.logger.Info().
		Str("group_id", meta.GroupID).
		Int64("version", meta.Version).
		Msg("pulled group snapshot")

	return nil
}

// share grants every member access to a newly created file. Failures are
// logged and never undo anything.
func (r *replicator) share(ctx context.Context, handle string, members []domain.Member) {
	emails := make([]string, 0, len(members))
	for _, m := range members {
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}
	if len(emails) == 0 {
		return
	}

	if err := r.remote.SetPermissions(ctx, handle, emails); err != nil {
		r.observeRemote(err)
		r.logger.Warn().Err(err).Str("handle", handle).Msg("failed to share snapshot with members")
	}
}
