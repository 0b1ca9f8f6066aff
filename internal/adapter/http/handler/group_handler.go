package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// GroupService defines the behavior needed by GroupHandler.
type GroupService interface {
	CreateGroup(ctx context.Context, input usecase.CreateGroupInput) (*domain.Group, error)
	GetGroup(ctx context.Context, id string) (*domain.Group, error)
	ListGroups(ctx context.Context) ([]*domain.Group, error)
	RenameGroup(ctx context.Context, id, name string) (*domain.Group, error)
	SetSyncEnabled(ctx context.Context, id string, enabled bool) (*domain.Group, error)
	AddMember(ctx context.Context, input usecase.AddMemberInput) (*domain.Member, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]*domain.Member, error)
}

// GroupHandler handles group and membership requests.
type GroupHandler struct {
	groupUC  GroupService
	identity usecase.IdentityProvider
}

// NewGroupHandler creates a new GroupHandler. New groups are owned by the
// identity the provider returns for the request.
func NewGroupHandler(groupUC GroupService, identity usecase.IdentityProvider) *GroupHandler {
	return &GroupHandler{groupUC: groupUC, identity: identity}
}

// Create creates a group owned by the caller.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	owner, err := h.identity.Current(r.Context())
	if err != nil {
		writeDomainError(w, "failed to resolve identity", err)
		return
	}

	group, err := h.groupUC.CreateGroup(r.Context(), req.ToUseCaseInput(owner.UserID, owner.Email))
	if err != nil {
		writeDomainError(w, "failed to create group", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.GroupFromDomain(group))
}

// Get retrieves a group by ID.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groupUC.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to get group", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromDomain(group))
}

// List lists every local group.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupUC.ListGroups(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list groups", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupsFromDomain(groups))
}

// Rename changes a group's name.
func (h *GroupHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	group, err := h.groupUC.RenameGroup(r.Context(), chi.URLParam(r, "groupID"), req.Name)
	if err != nil {
		writeDomainError(w, "failed to rename group", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromDomain(group))
}

// SetSync enables or disables sync for a group.
func (h *GroupHandler) SetSync(w http.ResponseWriter, r *http.Request) {
	var req dto.SetSyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	group, err := h.groupUC.SetSyncEnabled(r.Context(), chi.URLParam(r, "groupID"), req.Enabled)
	if err != nil {
		writeDomainError(w, "failed to update sync setting", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromDomain(group))
}

// AddMember adds a member to a group.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req dto.AddMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	member, err := h.groupUC.AddMember(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "groupID")))
	if err != nil {
		writeDomainError(w, "failed to add member", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MemberFromDomain(member))
}

// RemoveMember removes a member from a group.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.groupUC.RemoveMember(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, "failed to remove member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers lists a group's members.
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.groupUC.ListMembers(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to list members", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MembersFromDomain(members))
}
