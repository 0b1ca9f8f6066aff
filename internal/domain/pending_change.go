package domain

import (
	"encoding/json"
	"time"
)

// EntityType names the kind of entity a queued change touches.
type EntityType string

const (
	EntityTypeGroup      EntityType = "group"
	EntityTypeMember     EntityType = "member"
	EntityTypeExpense    EntityType = "expense"
	EntityTypeSettlement EntityType = "settlement"
)

// ChangeOperation is the kind of local mutation.
type ChangeOperation string

const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationDelete ChangeOperation = "delete"
)

// PendingChange is a local mutation not yet pushed to the remote snapshot.
// Seq is assigned by the store and defines FIFO order.
type PendingChange struct {
	ID         string
	Seq        int64
	GroupID    string
	EntityType EntityType
	EntityID   string
	Operation  ChangeOperation
	Payload    json.RawMessage
	EnqueuedAt time.Time
}
