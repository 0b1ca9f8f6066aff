package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/usecase"
)

// NewLocalStore wires every repository of the local store to one pool.
func NewLocalStore(pool *pgxpool.Pool) usecase.LocalStore {
	return usecase.LocalStore{
		Tx:          NewTxManager(pool),
		Groups:      NewGroupRepository(pool),
		Members:     NewMemberRepository(pool),
		Expenses:    NewExpenseRepository(pool),
		Splits:      NewSplitRepository(pool),
		Settlements: NewSettlementRepository(pool),
		SyncMeta:    NewSyncMetadataRepository(pool),
		Pending:     NewPendingChangeRepository(pool),
	}
}
