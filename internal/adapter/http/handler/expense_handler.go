package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// ExpenseService defines the behavior needed by ExpenseHandler.
type ExpenseService interface {
	CreateExpense(ctx context.Context, input usecase.CreateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error)
	UpdateExpense(ctx context.Context, input usecase.UpdateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error)
	DeleteExpense(ctx context.Context, id string) error
	GetExpense(ctx context.Context, id string) (*domain.Expense, []domain.ExpenseSplit, error)
	ListExpenses(ctx context.Context, groupID string) ([]*domain.Expense, error)
}

// ExpenseHandler handles expense requests.
type ExpenseHandler struct {
	expenseUC ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseUC ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseUC: expenseUC}
}

// Create records an expense in a group.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	expense, splits, err := h.expenseUC.CreateExpense(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "groupID")))
	if err != nil {
		writeDomainError(w, "failed to create expense", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExpenseFromDomain(expense, splits))
}

// Get retrieves an expense with its splits.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, splits, err := h.expenseUC.GetExpense(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		writeDomainError(w, "failed to get expense", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseFromDomain(expense, splits))
}

// List lists a group's expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenseUC.ListExpenses(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeDomainError(w, "failed to list expenses", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpensesFromDomain(expenses))
}

// Update edits an expense and recomputes its splits.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	expense, splits, err := h.expenseUC.UpdateExpense(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "expenseID")))
	if err != nil {
		writeDomainError(w, "failed to update expense", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseFromDomain(expense, splits))
}

// Delete removes an expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.expenseUC.DeleteExpense(r.Context(), chi.URLParam(r, "expenseID")); err != nil {
		writeDomainError(w, "failed to delete expense", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
