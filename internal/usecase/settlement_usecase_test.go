package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
	"github.com/iho/splitsync/internal/usecase/mocks"
)

func TestSettlementUseCase_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dv := newDevice(t, "A", "a@example.com", mocks.NewInMemoryRemoteStore(), mocks.NewMockClock(baseTime()))
	g := dv.createGroup("Flat", "B")
	dv.addExpense(g.ID, "A", "100", "rent", "A", "B")

	s, err := dv.settles.RecordSettlement(ctx, usecase.RecordSettlementInput{
		GroupID: g.ID,
		PayerID: "B",
		PayeeID: "A",
		Amount:  d("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusPending, s.Status)

	debts, err := dv.balances.GetDebts(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B->A:50.00"}, debtStrings(debts), "pending settlements do not count")

	confirmed, err := dv.settles.ConfirmSettlement(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusConfirmed, confirmed.Status)

	debts, err = dv.balances.GetDebts(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, debts)

	_, err = dv.settles.ConfirmSettlement(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalSettlementTransition)

	cancelled, err := dv.settles.CancelSettlement(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusCancelled, cancelled.Status)

	_, err = dv.settles.CancelSettlement(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalSettlementTransition)

	debts, err = dv.balances.GetDebts(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B->A:50.00"}, debtStrings(debts))

	list, err := dv.settles.ListSettlements(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.SettlementStatusCancelled, list[0].Status)
}

func TestSettlementUseCase_RecordSettlement_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.RecordSettlementInput
		wantErr error
	}{
		{name: "self", input: usecase.RecordSettlementInput{PayerID: "A", PayeeID: "A", Amount: d("5")}, wantErr: domain.ErrSelfSettlement},
		{name: "non-positive", input: usecase.RecordSettlementInput{PayerID: "A", PayeeID: "B", Amount: d("-5")}, wantErr: domain.ErrInvalidAmount},
		{name: "outsider", input: usecase.RecordSettlementInput{PayerID: "A", PayeeID: "Z", Amount: d("5")}, wantErr: domain.ErrNotGroupMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dv := newDevice(t, "A", "a@example.com", mocks.NewInMemoryRemoteStore(), mocks.NewMockClock(baseTime()))
			g := dv.createGroup("Flat", "B")
			tt.input.GroupID = g.ID

			_, err := dv.settles.RecordSettlement(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBalanceUseCase_Report(t *testing.T) {
	ctx := context.Background()
	dv := newDevice(t, "A", "a@example.com", mocks.NewInMemoryRemoteStore(), mocks.NewMockClock(baseTime()))
	g := dv.createGroup("Trip", "B", "C")

	dv.addExpense(g.ID, "A", "90", "fuel", "A", "B", "C")
	dv.addExpense(g.ID, "B", "30", "snacks", "B", "C")

	_, err := dv.settles.RecordSettlement(ctx, usecase.RecordSettlementInput{
		GroupID:   g.ID,
		PayerID:   "C",
		PayeeID:   "A",
		Amount:    d("10"),
		Confirmed: true,
	})
	require.NoError(t, err)

	report, err := dv.balances.GetReport(ctx, g.ID)
	require.NoError(t, err)

	assert.Equal(t, "Trip", report.Group.Name)
	assert.Len(t, report.Members, 3)
	assert.Len(t, report.Expenses, 2)
	assert.Len(t, report.Settlements, 1)
	assert.Equal(t, []string{"B->A:30.00", "C->A:20.00", "C->B:15.00"}, debtStrings(report.Debts))

	balances := make(map[string]string)
	for _, b := range report.Balances {
		balances[b.UserID] = b.Balance.StringFixed(2)
	}
	assert.Equal(t, map[string]string{"A": "50.00", "B": "-15.00", "C": "-35.00"}, balances)

	assert.Equal(t, []string{"C->A:35.00", "B->A:15.00"}, txStrings(report.Simplified))

	_, err = dv.balances.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}
