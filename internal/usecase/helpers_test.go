package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
	"github.com/iho/splitsync/internal/usecase/mocks"
)

// device is one member's local agent: its own store, sharing a remote.
type device struct {
	t        *testing.T
	userID   string
	email    string
	store    *mocks.Store
	remote   usecase.RemoteSnapshotStore
	clock    *mocks.MockClock
	locks    *usecase.GroupLocks
	sync     *usecase.SyncUseCase
	resolver *usecase.ConflictResolver
	queue    *usecase.OfflineQueue
	groups   *usecase.GroupUseCase
	expenses *usecase.ExpenseUseCase
	settles  *usecase.SettlementUseCase
	balances *usecase.BalanceUseCase
}

type deviceOption func(*usecase.SyncConfig)

func withAutoMerge() deviceOption {
	return func(cfg *usecase.SyncConfig) { cfg.AutoMerge = true }
}

func withRecorder(r usecase.SyncRecorder) deviceOption {
	return func(cfg *usecase.SyncConfig) { cfg.Recorder = r }
}

func newDevice(t *testing.T, userID, email string, remote usecase.RemoteSnapshotStore, clock *mocks.MockClock, opts ...deviceOption) *device {
	t.Helper()

	store := mocks.NewStore()
	gen := &prefixedIDs{prefix: userID + "-"}

	locks := usecase.NewGroupLocks()
	cfg := usecase.SyncConfig{
		Store:    store.Local(),
		Remote:   remote,
		Identity: &mocks.MockIdentityProvider{Identity: domain.Identity{UserID: userID, Email: email}},
		Locks:    locks,
		Retrier:  mocks.MockRetrier{},
		Clock:    clock,
		IDGen:    gen,
		Logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	syncUC := usecase.NewSyncUseCase(cfg)
	queue := usecase.NewOfflineQueue(store.Local(), locks, syncUC, gen, clock, nil, zerolog.Nop())

	return &device{
		t:        t,
		userID:   userID,
		email:    email,
		store:    store,
		remote:   remote,
		clock:    clock,
		locks:    locks,
		sync:     syncUC,
		resolver: syncUC.Resolver(),
		queue:    queue,
		groups:   usecase.NewGroupUseCase(store.Local(), queue, remote, gen, clock, zerolog.Nop()),
		expenses: usecase.NewExpenseUseCase(store.Local(), queue, gen, clock),
		settles:  usecase.NewSettlementUseCase(store.Local(), queue, gen, clock),
		balances: usecase.NewBalanceUseCase(store.Local(), clock),
	}
}

// prefixedIDs keeps ids from different devices apart.
type prefixedIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (p *prefixedIDs) Generate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	return fmt.Sprintf("%s%03d", p.prefix, p.n)
}

func (dv *device) createGroup(name string, others ...string) *domain.Group {
	dv.t.Helper()
	ctx := context.Background()

	g, err := dv.groups.CreateGroup(ctx, usecase.CreateGroupInput{
		Name:        name,
		OwnerUserID: dv.userID,
		OwnerEmail:  dv.email,
		OwnerName:   dv.userID,
		SyncEnabled: true,
	})
	require.NoError(dv.t, err)

	for _, userID := range others {
		_, err := dv.groups.AddMember(ctx, usecase.AddMemberInput{
			GroupID: g.ID,
			UserID:  userID,
			Email:   userID + "@example.com",
			Name:    userID,
		})
		require.NoError(dv.t, err)
	}

	return g
}

func (dv *device) addExpense(groupID, payer, amount, description string, participants ...string) *domain.Expense {
	dv.t.Helper()
	dv.clock.Advance(time.Second)

	e, _, err := dv.expenses.CreateExpense(context.Background(), usecase.CreateExpenseInput{
		GroupID:      groupID,
		PayerID:      payer,
		Description:  description,
		Amount:       decimal.RequireFromString(amount),
		Participants: participants,
	})
	require.NoError(dv.t, err)
	return e
}

func (dv *device) meta(groupID string) *domain.SyncMetadata {
	dv.t.Helper()
	m, err := dv.store.SyncMeta.Get(context.Background(), groupID)
	require.NoError(dv.t, err)
	return m
}

func (dv *device) expenseDescriptions(groupID string) []string {
	dv.t.Helper()
	expenses, err := dv.store.Expenses.ListByGroup(context.Background(), groupID)
	require.NoError(dv.t, err)
	out := make([]string, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, e.Description)
	}
	return out
}

func baseTime() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}
