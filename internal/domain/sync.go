package domain

import (
	"fmt"
	"time"
)

// SyncStatus is the replication state of one group.
type SyncStatus string

const (
	SyncStatusNotSynced       SyncStatus = "not_synced"
	SyncStatusPendingUpload   SyncStatus = "pending_upload"
	SyncStatusPendingDownload SyncStatus = "pending_download"
	SyncStatusSyncing         SyncStatus = "syncing"
	SyncStatusSynced          SyncStatus = "synced"
	SyncStatusConflict        SyncStatus = "conflict"
	SyncStatusError           SyncStatus = "error"
)

// syncTransitions lists every legal next state. Conflict and Error can only
// be left through Syncing (retry or resolution) or straight to Synced.
var syncTransitions = map[SyncStatus][]SyncStatus{
	SyncStatusNotSynced:       {SyncStatusPendingUpload, SyncStatusPendingDownload, SyncStatusSyncing},
	SyncStatusSynced:          {SyncStatusSynced, SyncStatusPendingUpload, SyncStatusPendingDownload, SyncStatusSyncing},
	SyncStatusPendingUpload:   {SyncStatusPendingUpload, SyncStatusSyncing},
	SyncStatusPendingDownload: {SyncStatusPendingDownload, SyncStatusSyncing},
	SyncStatusSyncing:         {SyncStatusSynced, SyncStatusError, SyncStatusConflict},
	SyncStatusConflict:        {SyncStatusConflict, SyncStatusSyncing, SyncStatusSynced},
	SyncStatusError:           {SyncStatusSyncing, SyncStatusSynced},
}

// ParseSyncStatus converts a stored value into a SyncStatus.
func ParseSyncStatus(s string) (SyncStatus, error) {
	status := SyncStatus(s)
	if _, ok := syncTransitions[status]; !ok {
		return "", fmt.Errorf("unknown sync status %q", s)
	}
	return status, nil
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	for _, allowed := range syncTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SyncMetadata tracks the last agreed sync point of one group.
type SyncMetadata struct {
	GroupID            string
	RemoteHandle       string
	LastSyncAt         time.Time
	LocalLastModified  time.Time
	RemoteLastModified time.Time
	Status             SyncStatus
	Version            int64
	LastError          string
}

// NewSyncMetadata returns metadata for a group that was never synced.
func NewSyncMetadata(groupID string) *SyncMetadata {
	return &SyncMetadata{
		GroupID: groupID,
		Status:  SyncStatusNotSynced,
	}
}

// TransitionTo moves to next, rejecting illegal transitions.
func (m *SyncMetadata) TransitionTo(next SyncStatus) error {
	if !m.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalSyncTransition, m.Status, next)
	}
	m.Status = next
	return nil
}

// SetVersion records a new agreed version. Versions never go backwards.
func (m *SyncMetadata) SetVersion(v int64) error {
	if v < m.Version {
		return fmt.Errorf("%w: %d < %d", ErrVersionRegression, v, m.Version)
	}
	m.Version = v
	return nil
}

// HasLocalChanges reports whether local data changed since the last sync point.
func (m *SyncMetadata) HasLocalChanges(pending int) bool {
	return pending > 0 || m.LocalLastModified.After(m.LastSyncAt)
}

// RemoteChanged reports whether the remote copy moved since the last sync point.
func (m *SyncMetadata) RemoteChanged(remote RemoteMetadata) bool {
	return remote.Version != m.Version || remote.LastModified.After(m.RemoteLastModified)
}

// NextVersion is the version a push must carry to supersede both sides.
func (m *SyncMetadata) NextVersion(remote RemoteMetadata) int64 {
	return max(m.Version, remote.Version) + 1
}

// MarkSynced records a completed push or pull.
func (m *SyncMetadata) MarkSynced(remote RemoteMetadata, syncedAt time.Time) error {
	if err := m.SetVersion(remote.Version); err != nil {
		return err
	}
	if err := m.TransitionTo(SyncStatusSynced); err != nil {
		return err
	}
	m.RemoteLastModified = remote.LastModified
	m.LastSyncAt = syncedAt
	m.LastError = ""
	return nil
}

// Fail records err and moves to Error, passing through Syncing when needed.
func (m *SyncMetadata) Fail(err error) {
	if m.Status != SyncStatusSyncing {
		_ = m.TransitionTo(SyncStatusSyncing)
	}
	_ = m.TransitionTo(SyncStatusError)
	m.LastError = err.Error()
}

// Recover re-derives the status of an attempt that was interrupted while
// Syncing. A stale Syncing flag is never trusted. Returns true if changed.
func (m *SyncMetadata) Recover(pending int) bool {
	if m.Status != SyncStatusSyncing {
		return false
	}

	switch {
	case m.HasLocalChanges(pending):
		m.Status = SyncStatusPendingUpload
	case m.LastSyncAt.IsZero():
		m.Status = SyncStatusNotSynced
	default:
		m.Status = SyncStatusSynced
	}
	m.LastError = ""

	return true
}

// RemoteMetadata is what the remote store reports about a snapshot file.
type RemoteMetadata struct {
	Version      int64
	LastModified time.Time
	ModifiedBy   string
}

// Identity is the signed-in user of this device.
type Identity struct {
	UserID      string
	Email       string
	AccessToken string
}
