package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// MockGroupRepository is a mock implementation of GroupRepository.
type MockGroupRepository struct {
	mu     sync.RWMutex
	groups map[string]domain.Group

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, group *domain.Group) error
	UpdateFunc          func(ctx context.Context, tx usecase.Transaction, group *domain.Group) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Group, error)
	ListSyncEnabledFunc func(ctx context.Context) ([]*domain.Group, error)
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups: make(map[string]domain.Group),
	}
}

func (m *MockGroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = *group
	return nil
}

func (m *MockGroupRepository) Update(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group.ID]; !ok {
		return domain.ErrGroupNotFound
	}
	m.groups[group.ID] = *group
	return nil
}

func (m *MockGroupRepository) Upsert(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = *group
	return nil
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, domain.ErrGroupNotFound
}

func (m *MockGroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := make([]*domain.Group, 0, len(m.groups))
	for _, g := range m.groups {
		g := g
		groups = append(groups, &g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (m *MockGroupRepository) ListSyncEnabled(ctx context.Context) ([]*domain.Group, error) {
	if m.ListSyncEnabledFunc != nil {
		return m.ListSyncEnabledFunc(ctx)
	}
	all, _ := m.List(ctx)
	var groups []*domain.Group
	for _, g := range all {
		if g.SyncEnabled {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// MockMemberRepository is a mock implementation of MemberRepository.
type MockMemberRepository struct {
	mu      sync.RWMutex
	members map[string]map[string]domain.Member

	AddFunc    func(ctx context.Context, tx usecase.Transaction, member *domain.Member) error
	RemoveFunc func(ctx context.Context, tx usecase.Transaction, groupID, userID string) error
}

func NewMockMemberRepository() *MockMemberRepository {
	return &MockMemberRepository{
		members: make(map[string]map[string]domain.Member),
	}
}

func (m *MockMemberRepository) Add(ctx context.Context, tx usecase.Transaction, member *domain.Member) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, tx, member)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[member.GroupID] == nil {
		m.members[member.GroupID] = make(map[string]domain.Member)
	}
	if _, ok := m.members[member.GroupID][member.UserID]; ok {
		return domain.ErrDuplicateMember
	}
	m.members[member.GroupID][member.UserID] = *member
	return nil
}

func (m *MockMemberRepository) Remove(ctx context.Context, tx usecase.Transaction, groupID, userID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, tx, groupID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[groupID][userID]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(m.members[groupID], userID)
	return nil
}

func (m *MockMemberRepository) Get(ctx context.Context, groupID, userID string) (*domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mem, ok := m.members[groupID][userID]; ok {
		return &mem, nil
	}
	return nil, domain.ErrMemberNotFound
}

func (m *MockMemberRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members := make([]*domain.Member, 0, len(m.members[groupID]))
	for _, mem := range m.members[groupID] {
		mem := mem
		members = append(members, &mem)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (m *MockMemberRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, groupID)
	return nil
}

// MockExpenseRepository is a mock implementation of ExpenseRepository.
type MockExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]domain.Expense

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error
	ListByGroupFunc func(ctx context.Context, groupID string) ([]*domain.Expense, error)
}

func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		expenses: make(map[string]domain.Expense),
	}
}

func (m *MockExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[expense.ID] = *expense
	return nil
}

func (m *MockExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[expense.ID]; !ok {
		return domain.ErrExpenseNotFound
	}
	m.expenses[expense.ID] = *expense
	return nil
}

func (m *MockExpenseRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return domain.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MockExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.expenses[id]; ok {
		return &e, nil
	}
	return nil, domain.ErrExpenseNotFound
}

func (m *MockExpenseRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	if m.ListByGroupFunc != nil {
		return m.ListByGroupFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expenses []*domain.Expense
	for _, e := range m.expenses {
		if e.GroupID == groupID {
			e := e
			expenses = append(expenses, &e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].ID < expenses[j].ID })
	return expenses, nil
}

func (m *MockExpenseRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.expenses {
		if e.GroupID == groupID {
			delete(m.expenses, id)
		}
	}
	return nil
}

// MockSplitRepository is a mock implementation of SplitRepository.
type MockSplitRepository struct {
	mu      sync.RWMutex
	splits  map[string][]domain.ExpenseSplit
	groupOf map[string]string

	CreateBatchFunc func(ctx context.Context, tx usecase.Transaction, groupID string, splits []domain.ExpenseSplit) error
}

func NewMockSplitRepository() *MockSplitRepository {
	return &MockSplitRepository{
		splits:  make(map[string][]domain.ExpenseSplit),
		groupOf: make(map[string]string),
	}
}

func (m *MockSplitRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, groupID string, splits []domain.ExpenseSplit) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, groupID, splits)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range splits {
		m.splits[s.ExpenseID] = append(m.splits[s.ExpenseID], s)
		m.groupOf[s.ExpenseID] = groupID
	}
	return nil
}

func (m *MockSplitRepository) DeleteByExpense(ctx context.Context, tx usecase.Transaction, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.splits, expenseID)
	delete(m.groupOf, expenseID)
	return nil
}

func (m *MockSplitRepository) ListByExpense(ctx context.Context, expenseID string) ([]domain.ExpenseSplit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.ExpenseSplit(nil), m.splits[expenseID]...), nil
}

func (m *MockSplitRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.ExpenseSplit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for expenseID, g := range m.groupOf {
		if g == groupID {
			ids = append(ids, expenseID)
		}
	}
	sort.Strings(ids)
	var splits []domain.ExpenseSplit
	for _, id := range ids {
		splits = append(splits, m.splits[id]...)
	}
	return splits, nil
}

func (m *MockSplitRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for expenseID, g := range m.groupOf {
		if g == groupID {
			delete(m.splits, expenseID)
			delete(m.groupOf, expenseID)
		}
	}
	return nil
}

// MockSettlementRepository is a mock implementation of SettlementRepository.
type MockSettlementRepository struct {
	mu          sync.RWMutex
	settlements map[string]domain.Settlement

	CreateFunc func(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error
}

func NewMockSettlementRepository() *MockSettlementRepository {
	return &MockSettlementRepository{
		settlements: make(map[string]domain.Settlement),
	}
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, settlement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements[settlement.ID] = *settlement
	return nil
}

func (m *MockSettlementRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.SettlementStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[id]
	if !ok {
		return domain.ErrSettlementNotFound
	}
	s.Status = status
	s.UpdatedAt = updatedAt
	m.settlements[id] = s
	return nil
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.settlements[id]; ok {
		return &s, nil
	}
	return nil, domain.ErrSettlementNotFound
}

func (m *MockSettlementRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var settlements []*domain.Settlement
	for _, s := range m.settlements {
		if s.GroupID == groupID {
			s := s
			settlements = append(settlements, &s)
		}
	}
	sort.Slice(settlements, func(i, j int) bool { return settlements[i].ID < settlements[j].ID })
	return settlements, nil
}

func (m *MockSettlementRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.settlements {
		if s.GroupID == groupID {
			delete(m.settlements, id)
		}
	}
	return nil
}

// MockSyncMetadataRepository is a mock implementation of SyncMetadataRepository.
type MockSyncMetadataRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.SyncMetadata

	SaveFunc func(ctx context.Context, tx usecase.Transaction, meta *domain.SyncMetadata) error
}

func NewMockSyncMetadataRepository() *MockSyncMetadataRepository {
	return &MockSyncMetadataRepository{
		rows: make(map[string]domain.SyncMetadata),
	}
}

func (m *MockSyncMetadataRepository) Get(ctx context.Context, groupID string) (*domain.SyncMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if meta, ok := m.rows[groupID]; ok {
		return &meta, nil
	}
	return nil, domain.ErrSyncMetadataNotFound
}

func (m *MockSyncMetadataRepository) Save(ctx context.Context, tx usecase.Transaction, meta *domain.SyncMetadata) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, meta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[meta.GroupID] = *meta
	return nil
}

func (m *MockSyncMetadataRepository) List(ctx context.Context) ([]*domain.SyncMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]*domain.SyncMetadata, 0, len(m.rows))
	for _, meta := range m.rows {
		meta := meta
		rows = append(rows, &meta)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].GroupID < rows[j].GroupID })
	return rows, nil
}

func (m *MockSyncMetadataRepository) ListByStatus(ctx context.Context, status domain.SyncStatus) ([]*domain.SyncMetadata, error) {
	all, _ := m.List(ctx)
	var rows []*domain.SyncMetadata
	for _, meta := range all {
		if meta.Status == status {
			rows = append(rows, meta)
		}
	}
	return rows, nil
}

// MockPendingChangeRepository is a mock implementation of PendingChangeRepository.
type MockPendingChangeRepository struct {
	mu      sync.RWMutex
	changes []domain.PendingChange
	seq     int64

	AppendFunc func(ctx context.Context, tx usecase.Transaction, change *domain.PendingChange) error
}

func NewMockPendingChangeRepository() *MockPendingChangeRepository {
	return &MockPendingChangeRepository{}
}

func (m *MockPendingChangeRepository) Append(ctx context.Context, tx usecase.Transaction, change *domain.PendingChange) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, change)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	change.Seq = m.seq
	m.changes = append(m.changes, *change)
	return nil
}

func (m *MockPendingChangeRepository) Replace(ctx context.Context, tx usecase.Transaction, id string, payload json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.changes {
		if m.changes[i].ID == id {
			m.changes[i].Payload = payload
			return nil
		}
	}
	return nil
}

func (m *MockPendingChangeRepository) DeleteByIDs(ctx context.Context, tx usecase.Transaction, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	m.filter(func(c domain.PendingChange) bool { return !drop[c.ID] })
	return nil
}

func (m *MockPendingChangeRepository) ListByEntity(ctx context.Context, tx usecase.Transaction, groupID string, entityType domain.EntityType, entityID string) ([]*domain.PendingChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PendingChange
	for _, c := range m.changes {
		if c.GroupID == groupID && c.EntityType == entityType && c.EntityID == entityID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockPendingChangeRepository) ListAll(ctx context.Context) ([]*domain.PendingChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.PendingChange, 0, len(m.changes))
	for _, c := range m.changes {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

func (m *MockPendingChangeRepository) CountByGroup(ctx context.Context, groupID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.changes {
		if c.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

func (m *MockPendingChangeRepository) MaxSeq(ctx context.Context, groupID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var seq int64
	for _, c := range m.changes {
		if c.GroupID == groupID && c.Seq > seq {
			seq = c.Seq
		}
	}
	return seq, nil
}

func (m *MockPendingChangeRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter(func(c domain.PendingChange) bool { return c.GroupID != groupID })
	return nil
}

func (m *MockPendingChangeRepository) DeleteByGroupThrough(ctx context.Context, tx usecase.Transaction, groupID string, seq int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.changes)
	m.filter(func(c domain.PendingChange) bool { return c.GroupID != groupID || c.Seq > seq })
	return before - len(m.changes), nil
}

func (m *MockPendingChangeRepository) filter(keep func(domain.PendingChange) bool) {
	kept := m.changes[:0]
	for _, c := range m.changes {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	m.changes = kept
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%03d", m.counter)
}

// MockClock is a settable Clock.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// MockIdentityProvider is a mock implementation of IdentityProvider.
type MockIdentityProvider struct {
	Identity    domain.Identity
	CurrentFunc func(ctx context.Context) (domain.Identity, error)
}

func (m *MockIdentityProvider) Current(ctx context.Context) (domain.Identity, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx)
	}
	return m.Identity, nil
}

// MockRetrier runs the operation once.
type MockRetrier struct{}

func (MockRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Store bundles in-memory repositories sharing one fake database.
type Store struct {
	Tx          *MockTransactionManager
	Groups      *MockGroupRepository
	Members     *MockMemberRepository
	Expenses    *MockExpenseRepository
	Splits      *MockSplitRepository
	Settlements *MockSettlementRepository
	SyncMeta    *MockSyncMetadataRepository
	Pending     *MockPendingChangeRepository
}

func NewStore() *Store {
	return &Store{
		Tx:          NewMockTransactionManager(),
		Groups:      NewMockGroupRepository(),
		Members:     NewMockMemberRepository(),
		Expenses:    NewMockExpenseRepository(),
		Splits:      NewMockSplitRepository(),
		Settlements: NewMockSettlementRepository(),
		SyncMeta:    NewMockSyncMetadataRepository(),
		Pending:     NewMockPendingChangeRepository(),
	}
}

// Local returns the store as a usecase.LocalStore.
func (s *Store) Local() usecase.LocalStore {
	return usecase.LocalStore{
		Tx:          s.Tx,
		Groups:      s.Groups,
		Members:     s.Members,
		Expenses:    s.Expenses,
		Splits:      s.Splits,
		Settlements: s.Settlements,
		SyncMeta:    s.SyncMeta,
		Pending:     s.Pending,
	}
}
