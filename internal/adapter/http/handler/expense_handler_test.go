package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

type expenseServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error)
	updateFn func(ctx context.Context, input usecase.UpdateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *expenseServiceStub) CreateExpense(ctx context.Context, input usecase.CreateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
	return s.createFn(ctx, input)
}

func (s *expenseServiceStub) UpdateExpense(ctx context.Context, input usecase.UpdateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
	return s.updateFn(ctx, input)
}

func (s *expenseServiceStub) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *expenseServiceStub) GetExpense(ctx context.Context, id string) (*domain.Expense, []domain.ExpenseSplit, error) {
	return nil, nil, domain.ErrExpenseNotFound
}

func (s *expenseServiceStub) ListExpenses(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	return nil, nil
}

func TestExpenseHandler_Create_ReturnsSplits(t *testing.T) {
	var captured usecase.CreateExpenseInput
	handler := NewExpenseHandler(&expenseServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
			captured = input
			expense := &domain.Expense{ID: "e1", GroupID: input.GroupID, PayerID: input.PayerID, Amount: input.Amount}
			return expense, []domain.ExpenseSplit{
				{ExpenseID: "e1", UserID: "alice", Amount: decimal.RequireFromString("50.01"), Percentage: decimal.NewFromInt(50)},
				{ExpenseID: "e1", UserID: "bob", Amount: decimal.RequireFromString("50.00"), Percentage: decimal.NewFromInt(50)},
			}, nil
		},
	})

	body := `{"payer_id":"alice","description":"Dinner","amount":"100.01","participants":["alice","bob"]}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/groups/g1/expenses", bytes.NewBufferString(body)), map[string]string{"groupID": "g1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.GroupID != "g1" || !captured.Amount.Equal(decimal.RequireFromString("100.01")) || len(captured.Participants) != 2 {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.ExpenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Splits) != 2 || resp.Splits[0].UserID != "alice" {
		t.Fatalf("unexpected splits %+v", resp.Splits)
	}
}

func TestExpenseHandler_Create_ValidationError(t *testing.T) {
	handler := NewExpenseHandler(&expenseServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
			return nil, nil, domain.ErrInvalidPercentageSum
		},
	})

	body := `{"payer_id":"alice","description":"Dinner","amount":"10","percentages":{"alice":"60","bob":"30"}}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/groups/g1/expenses", bytes.NewBufferString(body)), map[string]string{"groupID": "g1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExpenseHandler_Update_PassesOnlyProvidedFields(t *testing.T) {
	var captured usecase.UpdateExpenseInput
	handler := NewExpenseHandler(&expenseServiceStub{
		updateFn: func(ctx context.Context, input usecase.UpdateExpenseInput) (*domain.Expense, []domain.ExpenseSplit, error) {
			captured = input
			return &domain.Expense{ID: input.ExpenseID}, nil, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/expenses/e1", bytes.NewBufferString(`{"description":"Lunch"}`)),
		map[string]string{"expenseID": "e1"})
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ExpenseID != "e1" || captured.Description == nil || *captured.Description != "Lunch" {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.Amount != nil || captured.PayerID != nil {
		t.Fatalf("expected untouched fields to stay nil, got %+v", captured)
	}
}

func TestExpenseHandler_Delete(t *testing.T) {
	handler := NewExpenseHandler(&expenseServiceStub{
		deleteFn: func(ctx context.Context, id string) error {
			if id != "e1" {
				return domain.ErrExpenseNotFound
			}
			return nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/expenses/e1", nil), map[string]string{"expenseID": "e1"})
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = withURLParams(httptest.NewRequest(http.MethodDelete, "/expenses/e2", nil), map[string]string{"expenseID": "e2"})
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
