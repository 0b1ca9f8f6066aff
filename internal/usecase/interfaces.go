package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iho/splitsync/internal/domain"
)

// GroupRepository defines data access for groups.
type GroupRepository interface {
	Create(ctx context.Context, tx Transaction, group *domain.Group) error
	Update(ctx context.Context, tx Transaction, group *domain.Group) error
	// Upsert inserts or overwrites a group, used when applying a snapshot.
	Upsert(ctx context.Context, tx Transaction, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context) ([]*domain.Group, error)
	ListSyncEnabled(ctx context.Context) ([]*domain.Group, error)
}

// MemberRepository defines data access for group members.
type MemberRepository interface {
	Add(ctx context.Context, tx Transaction, member *domain.Member) error
	Remove(ctx context.Context, tx Transaction, groupID, userID string) error
	Get(ctx context.Context, groupID, userID string) (*domain.Member, error)
	ListByGroup(ctx context.Context, groupID string) ([]*domain.Member, error)
	DeleteByGroup(ctx context.Context, tx Transaction, groupID string) error
}

// ExpenseRepository defines data access for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, tx Transaction, expense *domain.Expense) error
	Update(ctx context.Context, tx Transaction, expense *domain.Expense) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.Expense, error)
	ListByGroup(ctx context.Context, groupID string) ([]*domain.Expense, error)
	DeleteByGroup(ctx context.Context, tx Transaction, groupID string) error
}

// SplitRepository defines data access for expense splits.
type SplitRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, groupID string, splits []domain.ExpenseSplit) error
	DeleteByExpense(ctx context.Context, tx Transaction, expenseID string) error
	ListByExpense(ctx context.Context, expenseID string) ([]domain.ExpenseSplit, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.ExpenseSplit, error)
	DeleteByGroup(ctx context.Context, tx Transaction, groupID string) error
}

// SettlementRepository defines data access for settlements.
type SettlementRepository interface {
	Create(ctx context.Context, tx Transaction, settlement *domain.Settlement) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.SettlementStatus, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Settlement, error)
	ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error)
	DeleteByGroup(ctx context.Context, tx Transaction, groupID string) error
}

// SyncMetadataRepository defines data access for per-group sync state.
type SyncMetadataRepository interface {
	Get(ctx context.Context, groupID string) (*domain.SyncMetadata, error)
	// Save inserts or overwrites the metadata row of a group.
	Save(ctx context.Context, tx Transaction, meta *domain.SyncMetadata) error
	List(ctx context.Context) ([]*domain.SyncMetadata, error)
	ListByStatus(ctx context.Context, status domain.SyncStatus) ([]*domain.SyncMetadata, error)
}

// PendingChangeRepository defines data access for the offline queue.
// Rows are returned in Seq order.
type PendingChangeRepository interface {
	// Append stores the change and assigns its Seq.
	Append(ctx context.Context, tx Transaction, change *domain.PendingChange) error
	Replace(ctx context.Context, tx Transaction, id string, payload json.RawMessage) error
	DeleteByIDs(ctx context.Context, tx Transaction, ids []string) error
	ListByEntity(ctx context.Context, tx Transaction, groupID string, entityType domain.EntityType, entityID string) ([]*domain.PendingChange, error)
	ListAll(ctx context.Context) ([]*domain.PendingChange, error)
	CountByGroup(ctx context.Context, groupID string) (int, error)
	MaxSeq(ctx context.Context, groupID string) (int64, error)
	DeleteByGroup(ctx context.Context, tx Transaction, groupID string) error
	// DeleteByGroupThrough removes the group's changes with Seq <= seq.
	DeleteByGroupThrough(ctx context.Context, tx Transaction, groupID string, seq int64) (int, error)
}

// LocalStore bundles the repositories of the local persistent store.
type LocalStore struct {
	Tx          TransactionManager
	Groups      GroupRepository
	Members     MemberRepository
	Expenses    ExpenseRepository
	Splits      SplitRepository
	Settlements SettlementRepository
	SyncMeta    SyncMetadataRepository
	Pending     PendingChangeRepository
}

// RemoteSnapshotStore is the third-party storage holding one snapshot file per group.
type RemoteSnapshotStore interface {
	// Upload creates or overwrites the group's file and returns its handle.
	Upload(ctx context.Context, groupID string, data []byte, meta domain.RemoteMetadata) (string, error)
	Download(ctx context.Context, handle string) ([]byte, error)
	GetMetadata(ctx context.Context, handle string) (domain.RemoteMetadata, error)
	ListAccessible(ctx context.Context, principal string) ([]string, error)
	SetPermissions(ctx context.Context, handle string, emails []string) error
	RemovePermission(ctx context.Context, handle, email string) error
}

// IdentityProvider supplies the signed-in user of this device.
type IdentityProvider interface {
	Current(ctx context.Context) (domain.Identity, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SyncRecorder receives sync outcomes for metrics.
type SyncRecorder interface {
	RecordSync(outcome string, duration time.Duration)
	RecordConflict()
	RecordRemoteError(kind string)
	RecordQueueProcessed(n int)
	SetQueueDepth(n int)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the key so the request can be retried.
	Release(ctx context.Context, key string) error
}
