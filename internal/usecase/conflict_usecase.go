package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// ConflictResolver settles groups whose local and remote copies diverged.
type ConflictResolver struct {
	rep    *replicator
	locks  *GroupLocks
	logger zerolog.Logger
}

// NewConflictResolver creates a new ConflictResolver. cfg.Locks must be the
// arena used by the sync orchestrator.
func NewConflictResolver(cfg SyncConfig) *ConflictResolver {
	if cfg.Locks == nil {
		cfg.Locks = NewGroupLocks()
	}
	cfg.Logger = cfg.Logger.With().Str("component", "conflict_resolver").Logger()

	return &ConflictResolver{
		rep:    newReplicator(cfg),
		locks:  cfg.Locks,
		logger: cfg.Logger,
	}
}

// ResolveConflict overwrites one side with the other. With keepLocal the
// local copy is pushed over the remote one; otherwise the remote copy
// replaces local data and queued local changes are dropped. Resolving a
// group that is already Synced does nothing.
func (r *ConflictResolver) ResolveConflict(ctx context.Context, groupID string, keepLocal bool) error {
	if err := r.locks.Lock(ctx, groupID); err != nil {
		return err
	}
	defer r.locks.Unlock(groupID)

	meta, err := r.rep.loadMeta(ctx, groupID)
	if err != nil {
		return err
	}
	if meta.Status == domain.SyncStatusSynced {
		return nil
	}

	if keepLocal {
		var remote *domain.RemoteMetadata
		if meta.RemoteHandle != "" {
			rm, err := r.rep.remoteMetadata(ctx, meta.RemoteHandle)
			switch {
			case err == nil:
				remote = &rm
			case errors.Is(err, domain.ErrRemoteNotFound):
			default:
				return r.rep.fail(ctx, meta, err)
			}
		}

		if err := r.rep.begin(ctx, meta, ""); err != nil {
			return err
		}
		if _, err := r.rep.push(ctx, meta, remote); err != nil {
			return r.rep.fail(ctx, meta, err)
		}

		r.logger.Info().Str("group_id", groupID).Int64("version", meta.Version).Msg("conflict resolved with local copy")
		return nil
	}

	if meta.RemoteHandle == "" {
		return fmt.Errorf("%w: group %s was never uploaded", domain.ErrRemoteNotFound, groupID)
	}

	if err := r.rep.begin(ctx, meta, ""); err != nil {
		return err
	}
	if err := r.rep.pull(ctx, meta, meta.RemoteHandle, true); err != nil {
		return r.rep.fail(ctx, meta, err)
	}

	r.logger.Info().Str("group_id", groupID).Int64("version", meta.Version).Msg("conflict resolved with remote copy")
	return nil
}

// MergeConflict combines both copies and pushes the result.
func (r *ConflictResolver) MergeConflict(ctx context.Context, groupID string) error {
	if err := r.locks.Lock(ctx, groupID); err != nil {
		return err
	}
	defer r.locks.Unlock(groupID)

	meta, err := r.rep.loadMeta(ctx, groupID)
	if err != nil {
		return err
	}
	if meta.Status == domain.SyncStatusSynced {
		return nil
	}

	_, err = r.mergeLocked(ctx, meta)
	return err
}

func (r *ConflictResolver) mergeLocked(ctx context.Context, meta *domain.SyncMetadata) (int, error) {
	var remote *domain.RemoteMetadata
	var remoteSnap *domain.GroupSnapshot

	if meta.RemoteHandle != "" {
		rm, err := r.rep.remoteMetadata(ctx, meta.RemoteHandle)
		switch {
		case err == nil:
			remote = &rm
		case errors.Is(err, domain.ErrRemoteNotFound):
		default:
			return 0, r.rep.fail(ctx, meta, err)
		}
	}

	if remote != nil {
		snap, err := r.rep.download(ctx, meta.RemoteHandle)
		if err != nil {
			return 0, r.rep.fail(ctx, meta, err)
		}
		remoteSnap = snap
	}

	if err := r.rep.begin(ctx, meta, ""); err != nil {
		return 0, err
	}

	if remoteSnap != nil {
		localSnap, err := r.rep.snapshots.Build(ctx, meta.GroupID, meta.Version, "")
		if err != nil {
			return 0, r.rep.fail(ctx, meta, err)
		}
		merged := mergeSnapshots(localSnap, remoteSnap, r.rep.idGen)
		if err := r.rep.snapshots.Apply(ctx, merged, ApplyOptions{}); err != nil {
			return 0, r.rep.fail(ctx, meta, err)
		}
	}

	cleared, err := r.rep.push(ctx, meta, remote)
	if err != nil {
		return 0, r.rep.fail(ctx, meta, err)
	}

	r.logger.Info().Str("group_id", meta.GroupID).Int64("version", meta.Version).Msg("merged diverged copies")
	return cleared, nil
}

// DetectConflicts lists the differences between the local and remote copies
// of a group. It does not change any state.
func (r *ConflictResolver) DetectConflicts(ctx context.Context, groupID string) ([]string, error) {
	meta, err := r.rep.loadMeta(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if meta.RemoteHandle == "" {
		return []string{}, nil
	}

	remoteSnap, err := r.rep.download(ctx, meta.RemoteHandle)
	if errors.Is(err, domain.ErrRemoteNotFound) {
		return []string{"remote copy no longer exists"}, nil
	}
	if err != nil {
		return nil, err
	}

	localSnap, err := r.rep.snapshots.Build(ctx, groupID, meta.Version, "")
	if err != nil {
		return nil, err
	}

	diffs := describeDivergence(localSnap, remoteSnap)

	pending, err := r.rep.store.Pending.CountByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		diffs = append(diffs, fmt.Sprintf("%d local change(s) not uploaded yet", pending))
	}

	return diffs, nil
}

// MergeExpenses unions two expense lists by id. When both sides hold the same
// id with different content, both entries are kept.
func MergeExpenses(local, remote []*domain.Expense) []*domain.Expense {
	byID := make(map[string]*domain.Expense, len(local))
	out := make([]*domain.Expense, 0, len(local)+len(remote))
	for _, e := range local {
		byID[e.ID] = e
		out = append(out, e)
	}

	for _, e := range remote {
		if l, ok := byID[e.ID]; ok && l.SameContent(e) {
			continue
		}
		out = append(out, e)
	}

	return out
}

// MergeGroupMetadata keeps the most recently updated group. Ties go to local.
func MergeGroupMetadata(local, remote *domain.Group) *domain.Group {
	if remote.UpdatedAt.After(local.UpdatedAt) {
		return remote
	}
	return local
}

// mergeSnapshots combines two copies of a group. Expenses follow
// MergeExpenses; a remote duplicate gets a fresh id and its splits follow it.
func mergeSnapshots(local, remote *domain.GroupSnapshot, idGen IDGenerator) *domain.GroupSnapshot {
	out := &domain.GroupSnapshot{
		Group:        *MergeGroupMetadata(&local.Group, &remote.Group),
		LastModified: local.LastModified,
		Version:      local.Version,
	}
	out.Group.SyncEnabled = local.Group.SyncEnabled

	members := make(map[string]domain.Member)
	for _, m := range remote.Members {
		members[m.UserID] = m
	}
	for _, m := range local.Members {
		members[m.UserID] = m
	}
	for _, m := range members {
		out.Members = append(out.Members, m)
	}
	sort.Slice(out.Members, func(i, j int) bool { return out.Members[i].UserID < out.Members[j].UserID })

	localSplits := splitsByExpense(local.ExpenseSplits)
	remoteSplits := splitsByExpense(remote.ExpenseSplits)

	localExpenses := make(map[string]*domain.Expense, len(local.Expenses))
	for i := range local.Expenses {
		e := &local.Expenses[i]
		localExpenses[e.ID] = e
		out.Expenses = append(out.Expenses, *e)
		out.ExpenseSplits = append(out.ExpenseSplits, localSplits[e.ID]...)
	}

	for i := range remote.Expenses {
		e := remote.Expenses[i]
		l, ok := localExpenses[e.ID]
		switch {
		case !ok:
			out.Expenses = append(out.Expenses, e)
			out.ExpenseSplits = append(out.ExpenseSplits, remoteSplits[e.ID]...)
		case l.SameContent(&e):
		default:
			originalID := e.ID
			e.ID = idGen.Generate()
			out.Expenses = append(out.Expenses, e)
			for _, s := range remoteSplits[originalID] {
				s.ExpenseID = e.ID
				out.ExpenseSplits = append(out.ExpenseSplits, s)
			}
		}
	}

	settlements := make(map[string]domain.Settlement)
	for _, s := range local.Settlements {
		settlements[s.ID] = s
	}
	for _, s := range remote.Settlements {
		if l, ok := settlements[s.ID]; !ok || s.UpdatedAt.After(l.UpdatedAt) {
			settlements[s.ID] = s
		}
	}
	for _, s := range settlements {
		out.Settlements = append(out.Settlements, s)
	}
	sort.Slice(out.Settlements, func(i, j int) bool { return out.Settlements[i].ID < out.Settlements[j].ID })

	return out
}

func splitsByExpense(splits []domain.ExpenseSplit) map[string][]domain.ExpenseSplit {
	out := make(map[string][]domain.ExpenseSplit)
	for _, s := range splits {
		out[s.ExpenseID] = append(out[s.ExpenseID], s)
	}
	return out
}

func describeDivergence(local, remote *domain.GroupSnapshot) []string {
	diffs := []string{}

	if local.Version != remote.Version {
		diffs = append(diffs, fmt.Sprintf("version: local %d, remote %d", local.Version, remote.Version))
	}
	if local.Group.Name != remote.Group.Name {
		diffs = append(diffs, fmt.Sprintf("group name: local %q, remote %q", local.Group.Name, remote.Group.Name))
	}

	localMembers := make(map[string]bool)
	for _, m := range local.Members {
		localMembers[m.UserID] = true
	}
	remoteMembers := make(map[string]bool)
	for _, m := range remote.Members {
		remoteMembers[m.UserID] = true
	}
	for _, id := range sortedSet(localMembers) {
		if !remoteMembers[id] {
			diffs = append(diffs, fmt.Sprintf("member %s only exists locally", id))
		}
	}
	for _, id := range sortedSet(remoteMembers) {
		if !localMembers[id] {
			diffs = append(diffs, fmt.Sprintf("member %s only exists remotely", id))
		}
	}

	localExpenses := make(map[string]domain.Expense)
	for _, e := range local.Expenses {
		localExpenses[e.ID] = e
	}
	remoteExpenses := make(map[string]domain.Expense)
	for _, e := range remote.Expenses {
		remoteExpenses[e.ID] = e
	}
	for _, id := range sortedExpenseIDs(localExpenses) {
		l := localExpenses[id]
		r, ok := remoteExpenses[id]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("expense %q (%s) only exists locally", l.Description, l.Amount.StringFixed(2)))
		case !l.SameContent(&r):
			diffs = append(diffs, fmt.Sprintf("expense %q edited on both sides: local %s, remote %s", l.Description, l.Amount.StringFixed(2), r.Amount.StringFixed(2)))
		}
	}
	for _, id := range sortedExpenseIDs(remoteExpenses) {
		if _, ok := localExpenses[id]; !ok {
			r := remoteExpenses[id]
			diffs = append(diffs, fmt.Sprintf("expense %q (%s) only exists remotely", r.Description, r.Amount.StringFixed(2)))
		}
	}

	remoteSettlements := make(map[string]domain.Settlement)
	for _, s := range remote.Settlements {
		remoteSettlements[s.ID] = s
	}
	seen := make(map[string]bool)
	for _, l := range local.Settlements {
		seen[l.ID] = true
		r, ok := remoteSettlements[l.ID]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("settlement %s only exists locally", l.ID))
		case l.Status != r.Status || !l.Amount.Equal(r.Amount):
			diffs = append(diffs, fmt.Sprintf("settlement %s: local %s %s, remote %s %s", l.ID, l.Status, l.Amount.StringFixed(2), r.Status, r.Amount.StringFixed(2)))
		}
	}
	for _, r := range remote.Settlements {
		if !seen[r.ID] {
			diffs = append(diffs, fmt.Sprintf("settlement %s only exists remotely", r.ID))
		}
	}

	return diffs
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedExpenseIDs(m map[string]domain.Expense) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
