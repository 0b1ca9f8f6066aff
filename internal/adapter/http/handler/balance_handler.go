package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitsync/internal/adapter/export"
	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	GetDebts(ctx context.Context, groupID string) ([]domain.Debt, error)
	GetNetBalances(ctx context.Context, groupID string) ([]domain.NetBalance, error)
	GetSimplified(ctx context.Context, groupID string) ([]domain.SimplifiedTransaction, error)
	GetReport(ctx context.Context, groupID string) (*usecase.GroupReport, error)
}

// BalanceHandler serves the derived debt views of a group.
type BalanceHandler struct {
	balanceUC BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC}
}

// Debts returns pairwise net debts.
func (h *BalanceHandler) Debts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.balanceUC.GetDebts(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to compute debts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DebtsFromDomain(debts))
}

// Balances returns each member's net balance.
func (h *BalanceHandler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.balanceUC.GetNetBalances(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to compute balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(balances))
}

// Simplified returns the minimal set of settling payments.
func (h *BalanceHandler) Simplified(w http.ResponseWriter, r *http.Request) {
	txs, err := h.balanceUC.GetSimplified(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to simplify debts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}

// Report returns the full group report as JSON.
func (h *BalanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.balanceUC.GetReport(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}

// ExportXLSX returns the group report as a spreadsheet download.
func (h *BalanceHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	report, err := h.balanceUC.GetReport(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to build report", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteGroupReport(&buf, report); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export report", err.Error())
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(report)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
