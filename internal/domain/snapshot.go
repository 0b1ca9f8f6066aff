package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// GroupSnapshot is the complete state of one group as stored remotely.
type GroupSnapshot struct {
	Group          Group          `json:"group"`
	Members        []Member       `json:"members"`
	Expenses       []Expense      `json:"expenses"`
	ExpenseSplits  []ExpenseSplit `json:"expenseSplits"`
	Settlements    []Settlement   `json:"settlements"`
	LastModified   time.Time      `json:"lastModified"`
	Version        int64          `json:"version"`
	LastModifiedBy *string        `json:"lastModifiedBy"`
}

// Metadata returns the remote metadata describing this snapshot.
func (s *GroupSnapshot) Metadata() RemoteMetadata {
	meta := RemoteMetadata{
		Version:      s.Version,
		LastModified: s.LastModified,
	}
	if s.LastModifiedBy != nil {
		meta.ModifiedBy = *s.LastModifiedBy
	}
	return meta
}

// EncodeSnapshot serialises a snapshot with UTC timestamps.
func EncodeSnapshot(s *GroupSnapshot) ([]byte, error) {
	out := *s
	out.LastModified = s.LastModified.UTC()
	if out.Members == nil {
		out.Members = []Member{}
	}
	if out.Expenses == nil {
		out.Expenses = []Expense{}
	}
	if out.ExpenseSplits == nil {
		out.ExpenseSplits = []ExpenseSplit{}
	}
	if out.Settlements == nil {
		out.Settlements = []Settlement{}
	}
	return json.Marshal(&out)
}

// DecodeSnapshot parses and validates a snapshot.
func DecodeSnapshot(data []byte) (*GroupSnapshot, error) {
	var s GroupSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if s.Group.ID == "" {
		return nil, fmt.Errorf("%w: missing group id", ErrInvalidSnapshot)
	}
	if s.Version < 0 {
		return nil, fmt.Errorf("%w: negative version", ErrInvalidSnapshot)
	}

	expenseIDs := make(map[string]bool, len(s.Expenses))
	for _, e := range s.Expenses {
		if e.GroupID != s.Group.ID {
			return nil, fmt.Errorf("%w: expense %s belongs to group %s", ErrInvalidSnapshot, e.ID, e.GroupID)
		}
		expenseIDs[e.ID] = true
	}
	for _, sp := range s.ExpenseSplits {
		if !expenseIDs[sp.ExpenseID] {
			return nil, fmt.Errorf("%w: split for unknown expense %s", ErrInvalidSnapshot, sp.ExpenseID)
		}
	}

	return &s, nil
}
