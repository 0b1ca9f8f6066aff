package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSyncStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to SyncStatus
		want     bool
	}{
		{SyncStatusNotSynced, SyncStatusPendingUpload, true},
		{SyncStatusNotSynced, SyncStatusPendingDownload, true},
		{SyncStatusPendingUpload, SyncStatusSyncing, true},
		{SyncStatusSyncing, SyncStatusSynced, true},
		{SyncStatusSyncing, SyncStatusConflict, true},
		{SyncStatusSyncing, SyncStatusError, true},
		{SyncStatusConflict, SyncStatusSyncing, true},
		{SyncStatusConflict, SyncStatusSynced, true},
		{SyncStatusConflict, SyncStatusPendingUpload, false},
		{SyncStatusError, SyncStatusPendingDownload, false},
		{SyncStatusNotSynced, SyncStatusSynced, false},
		{SyncStatusPendingUpload, SyncStatusSynced, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSyncMetadata_TransitionTo_RejectsIllegal(t *testing.T) {
	m := &SyncMetadata{Status: SyncStatusConflict}

	err := m.TransitionTo(SyncStatusPendingUpload)
	if !errors.Is(err, ErrIllegalSyncTransition) {
		t.Fatalf("expected ErrIllegalSyncTransition, got %v", err)
	}
	if m.Status != SyncStatusConflict {
		t.Fatalf("status must not change on illegal transition, got %s", m.Status)
	}
}

func TestSyncMetadata_SetVersionMonotonic(t *testing.T) {
	m := &SyncMetadata{Version: 4}

	if err := m.SetVersion(3); !errors.Is(err, ErrVersionRegression) {
		t.Fatalf("expected ErrVersionRegression, got %v", err)
	}
	if err := m.SetVersion(4); err != nil {
		t.Fatalf("same version should be accepted: %v", err)
	}
	if err := m.SetVersion(6); err != nil || m.Version != 6 {
		t.Fatalf("expected version 6, got %d (%v)", m.Version, err)
	}
}

func TestSyncMetadata_ChangeDetection(t *testing.T) {
	synced := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := &SyncMetadata{Version: 2, LastSyncAt: synced, LocalLastModified: synced.Add(-time.Minute), RemoteLastModified: synced}

	if m.HasLocalChanges(0) {
		t.Fatalf("no local changes expected")
	}
	if !m.HasLocalChanges(1) {
		t.Fatalf("queued change should count as local change")
	}

	m.LocalLastModified = synced.Add(time.Second)
	if !m.HasLocalChanges(0) {
		t.Fatalf("newer local timestamp should count as local change")
	}

	if m.RemoteChanged(RemoteMetadata{Version: 2, LastModified: synced}) {
		t.Fatalf("identical remote metadata should not count as a change")
	}
	if !m.RemoteChanged(RemoteMetadata{Version: 3, LastModified: synced}) {
		t.Fatalf("bumped remote version should count as a change")
	}
	if got := m.NextVersion(RemoteMetadata{Version: 5}); got != 6 {
		t.Fatalf("expected next version 6, got %d", got)
	}
}

func TestSyncMetadata_Recover(t *testing.T) {
	synced := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		meta    SyncMetadata
		pending int
		want    SyncStatus
		changed bool
	}{
		{
			name:    "not syncing is untouched",
			meta:    SyncMetadata{Status: SyncStatusConflict},
			want:    SyncStatusConflict,
			changed: false,
		},
		{
			name:    "queued work becomes pending upload",
			meta:    SyncMetadata{Status: SyncStatusSyncing, LastSyncAt: synced},
			pending: 2,
			want:    SyncStatusPendingUpload,
			changed: true,
		},
		{
			name:    "never synced",
			meta:    SyncMetadata{Status: SyncStatusSyncing},
			want:    SyncStatusNotSynced,
			changed: true,
		},
		{
			name:    "previously synced and clean",
			meta:    SyncMetadata{Status: SyncStatusSyncing, LastSyncAt: synced, LocalLastModified: synced},
			want:    SyncStatusSynced,
			changed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.meta
			changed := m.Recover(tt.pending)
			if changed != tt.changed || m.Status != tt.want {
				t.Fatalf("Recover() = %v/%s, want %v/%s", changed, m.Status, tt.changed, tt.want)
			}
		})
	}
}

func TestSyncMetadata_FailGoesThroughSyncing(t *testing.T) {
	m := &SyncMetadata{Status: SyncStatusSynced}
	m.Fail(errors.New("network down"))

	if m.Status != SyncStatusError || m.LastError != "network down" {
		t.Fatalf("expected error status with message, got %s %q", m.Status, m.LastError)
	}
}
