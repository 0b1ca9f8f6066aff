package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// SyncService defines the sync operations needed by SyncHandler.
type SyncService interface {
	SyncGroup(ctx context.Context, groupID string) (string, error)
	Status(ctx context.Context, groupID string) (*domain.SyncMetadata, error)
	ListStatus(ctx context.Context) ([]*domain.SyncMetadata, error)
}

// ConflictService defines the conflict operations needed by SyncHandler.
type ConflictService interface {
	ResolveConflict(ctx context.Context, groupID string, keepLocal bool) error
	MergeConflict(ctx context.Context, groupID string) error
	DetectConflicts(ctx context.Context, groupID string) ([]string, error)
}

// QueueService defines the offline queue operations needed by SyncHandler.
type QueueService interface {
	ProcessQueue(ctx context.Context, userID string) (int, error)
	List(ctx context.Context) ([]*domain.PendingChange, error)
}

// SyncHandler exposes sync status, manual sync, conflict resolution and the
// offline queue.
type SyncHandler struct {
	syncUC     SyncService
	conflictUC ConflictService
	queue      QueueService
	identity   usecase.IdentityProvider
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncUC SyncService, conflictUC ConflictService, queue QueueService, identity usecase.IdentityProvider) *SyncHandler {
	return &SyncHandler{
		syncUC:     syncUC,
		conflictUC: conflictUC,
		queue:      queue,
		identity:   identity,
	}
}

// ListStatus returns the sync metadata of every group.
func (h *SyncHandler) ListStatus(w http.ResponseWriter, r *http.Request) {
	metas, err := h.syncUC.ListStatus(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list sync status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncStatusesFromDomain(metas))
}

// Status returns one group's sync metadata.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	meta, err := h.syncUC.Status(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to get sync status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncStatusFromDomain(meta))
}

// SyncNow runs one sync attempt for a group. A detected conflict is not a
// failure of the request: it answers 409 with the group's status.
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	outcome, err := h.syncUC.SyncGroup(r.Context(), groupID)
	if err != nil && !errors.Is(err, domain.ErrSyncConflict) {
		writeDomainError(w, "sync failed", err)
		return
	}

	resp := dto.SyncResultResponse{GroupID: groupID, Outcome: outcome}
	if meta, statusErr := h.syncUC.Status(r.Context(), groupID); statusErr == nil {
		resp.Status = dto.SyncStatusFromDomain(meta)
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

// Conflicts lists the divergences between the local and remote copies.
func (h *SyncHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	conflicts, err := h.conflictUC.DetectConflicts(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, "failed to detect conflicts", err)
		return
	}
	if conflicts == nil {
		conflicts = []string{}
	}

	writeJSON(w, http.StatusOK, dto.ConflictsResponse{GroupID: groupID, Conflicts: conflicts})
}

// Resolve settles a conflict by keeping the local or the remote copy.
func (h *SyncHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveConflictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var keepLocal bool
	switch req.Keep {
	case dto.KeepLocal:
		keepLocal = true
	case dto.KeepRemote:
	default:
		writeError(w, http.StatusBadRequest, "invalid resolution", `keep must be "local" or "remote"`)
		return
	}

	groupID := chi.URLParam(r, "groupID")
	if err := h.conflictUC.ResolveConflict(r.Context(), groupID, keepLocal); err != nil {
		writeDomainError(w, "failed to resolve conflict", err)
		return
	}

	h.writeStatus(w, r, groupID)
}

// Merge settles a conflict by merging both copies.
func (h *SyncHandler) Merge(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if err := h.conflictUC.MergeConflict(r.Context(), groupID); err != nil {
		writeDomainError(w, "failed to merge conflict", err)
		return
	}

	h.writeStatus(w, r, groupID)
}

func (h *SyncHandler) writeStatus(w http.ResponseWriter, r *http.Request, groupID string) {
	meta, err := h.syncUC.Status(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, "failed to get sync status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncStatusFromDomain(meta))
}

// Queue lists the pending local changes.
func (h *SyncHandler) Queue(w http.ResponseWriter, r *http.Request) {
	changes, err := h.queue.List(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list queue", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PendingChangesFromDomain(changes))
}

// ProcessQueue pushes every group with queued changes the caller belongs to.
func (h *SyncHandler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	id, err := h.identity.Current(r.Context())
	if err != nil {
		writeDomainError(w, "failed to resolve identity", err)
		return
	}

	processed, err := h.queue.ProcessQueue(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, "failed to process queue", err)
		return
	}

	remaining, err := h.queue.List(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list queue", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.QueueProcessedResponse{Processed: processed, Remaining: len(remaining)})
}
