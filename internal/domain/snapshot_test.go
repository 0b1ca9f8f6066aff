package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEncodeSnapshot_WireKeys(t *testing.T) {
	by := "ana@example.com"
	snap := &GroupSnapshot{
		Group:          Group{ID: "g-1", Name: "Trip"},
		LastModified:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
		Version:        7,
		LastModifiedBy: &by,
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode raw failed: %v", err)
	}

	for _, key := range []string{"group", "members", "expenses", "expenseSplits", "settlements", "lastModified", "version", "lastModifiedBy"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing wire key %q in %s", key, data)
		}
	}

	if string(raw["lastModified"]) != `"2024-03-01T09:00:00Z"` {
		t.Fatalf("expected UTC timestamp, got %s", raw["lastModified"])
	}
	if string(raw["members"]) != "[]" {
		t.Fatalf("expected empty members array, got %s", raw["members"])
	}
}

func TestEncodeSnapshot_NullLastModifiedBy(t *testing.T) {
	data, err := EncodeSnapshot(&GroupSnapshot{Group: Group{ID: "g-1"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var raw map[string]json.RawMessage
	_ = json.Unmarshal(data, &raw)
	if string(raw["lastModifiedBy"]) != "null" {
		t.Fatalf("expected null lastModifiedBy, got %s", raw["lastModifiedBy"])
	}
}

func TestDecodeSnapshot(t *testing.T) {
	snap := &GroupSnapshot{
		Group:    Group{ID: "g-1", Name: "Trip"},
		Expenses: []Expense{{ID: "e-1", GroupID: "g-1", PayerID: "a", Amount: decimal.RequireFromString("12.50")}},
		ExpenseSplits: []ExpenseSplit{
			{ExpenseID: "e-1", UserID: "a", Amount: decimal.RequireFromString("6.25")},
			{ExpenseID: "e-1", UserID: "b", Amount: decimal.RequireFromString("6.25")},
		},
		Version: 3,
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Version != 3 || len(decoded.ExpenseSplits) != 2 {
		t.Fatalf("unexpected decoded snapshot: %+v", decoded)
	}
	if !decoded.Expenses[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("amount lost precision: %s", decoded.Expenses[0].Amount)
	}
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "missing group id", data: `{"group":{},"version":1}`},
		{name: "orphan split", data: `{"group":{"id":"g"},"expenseSplits":[{"expenseId":"x","userId":"a","amount":"1"}]}`},
		{name: "foreign expense", data: `{"group":{"id":"g"},"expenses":[{"id":"e","groupId":"other","amount":"1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSnapshot([]byte(tt.data)); !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}
