package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	RecordSettlement(ctx context.Context, input usecase.RecordSettlementInput) (*domain.Settlement, error)
	ConfirmSettlement(ctx context.Context, id string) (*domain.Settlement, error)
	CancelSettlement(ctx context.Context, id string) (*domain.Settlement, error)
	GetSettlement(ctx context.Context, id string) (*domain.Settlement, error)
	ListSettlements(ctx context.Context, groupID string) ([]*domain.Settlement, error)
}

// SettlementHandler handles settlement requests.
type SettlementHandler struct {
	settlementUC SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementUC SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementUC: settlementUC}
}

// Record records a payment between two members.
func (h *SettlementHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordSettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	settlement, err := h.settlementUC.RecordSettlement(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "groupID")))
	if err != nil {
		writeDomainError(w, "failed to record settlement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SettlementFromDomain(settlement))
}

// Get retrieves a settlement.
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.settlementUC.GetSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeDomainError(w, "failed to get settlement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// List lists a group's settlements.
func (h *SettlementHandler) List(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.settlementUC.ListSettlements(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to list settlements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementsFromDomain(settlements))
}

// Confirm marks a pending settlement as paid.
func (h *SettlementHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.settlementUC.ConfirmSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeDomainError(w, "failed to confirm settlement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Cancel cancels a settlement.
func (h *SettlementHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.settlementUC.CancelSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeDomainError(w, "failed to cancel settlement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}
