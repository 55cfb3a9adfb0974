package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	ApplyPostedFunc       func(ctx context.Context, tx usecase.Transaction, id string, debitDelta, creditDelta decimal.Decimal, updatedAt time.Time) error
	ApplyPendingFunc      func(ctx context.Context, tx usecase.Transaction, id string, debitDelta, creditDelta decimal.Decimal, updatedAt time.Time) error
	DeactivateFunc        func(ctx context.Context, id string, updatedAt time.Time) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed places an account in the in-memory store.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) ApplyPosted(ctx context.Context, tx usecase.Transaction, id string, debitDelta, creditDelta decimal.Decimal, updatedAt time.Time) error {
	if m.ApplyPostedFunc != nil {
		return m.ApplyPostedFunc(ctx, tx, id, debitDelta, creditDelta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.PostedDebits = acc.PostedDebits.Add(debitDelta)
	acc.PostedCredits = acc.PostedCredits.Add(creditDelta)
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) ApplyPending(ctx context.Context, tx usecase.Transaction, id string, debitDelta, creditDelta decimal.Decimal, updatedAt time.Time) error {
	if m.ApplyPendingFunc != nil {
		return m.ApplyPendingFunc(ctx, tx, id, debitDelta, creditDelta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.PendingDebits = acc.PendingDebits.Add(debitDelta)
	acc.PendingCredits = acc.PendingCredits.Add(creditDelta)
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) Deactivate(ctx context.Context, id string, updatedAt time.Time) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Active = false
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// MockIntentRepository is a mock implementation of IntentRepository.
type MockIntentRepository struct {
	mu      sync.RWMutex
	intents map[string]*domain.ObligationIntent
	byKey   map[string]*domain.ObligationIntent

	CreateIfAbsentFunc       func(ctx context.Context, tx usecase.Transaction, intent *domain.ObligationIntent) (bool, error)
	GetByIDFunc              func(ctx context.Context, id string) (*domain.ObligationIntent, error)
	GetByIdempotencyKeyFunc  func(ctx context.Context, key string) (*domain.ObligationIntent, error)
	TransitionTxFunc         func(ctx context.Context, tx usecase.Transaction, intent *domain.ObligationIntent, from domain.IntentStatus) error
	ListStuckClearingFunc    func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ObligationIntent, error)
}

func NewMockIntentRepository() *MockIntentRepository {
	return &MockIntentRepository{
		intents: make(map[string]*domain.ObligationIntent),
		byKey:   make(map[string]*domain.ObligationIntent),
	}
}

// Seed places an intent in the in-memory store.
func (m *MockIntentRepository) Seed(intent *domain.ObligationIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.ID] = intent
	m.byKey[intent.IdempotencyKey] = intent
}

func (m *MockIntentRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, intent *domain.ObligationIntent) (bool, error) {
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, tx, intent)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[intent.IdempotencyKey]; ok {
		return false, nil
	}
	m.intents[intent.ID] = intent
	m.byKey[intent.IdempotencyKey] = intent
	return true, nil
}

func (m *MockIntentRepository) GetByID(ctx context.Context, id string) (*domain.ObligationIntent, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if intent, ok := m.intents[id]; ok {
		return intent, nil
	}
	return nil, domain.ErrIntentNotFound
}

func (m *MockIntentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.ObligationIntent, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if intent, ok := m.byKey[key]; ok {
		return intent, nil
	}
	return nil, domain.ErrIntentNotFound
}

func (m *MockIntentRepository) TransitionTx(ctx context.Context, tx usecase.Transaction, intent *domain.ObligationIntent, from domain.IntentStatus) error {
	if m.TransitionTxFunc != nil {
		return m.TransitionTxFunc(ctx, tx, intent, from)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.intents[intent.ID]
	if !ok || stored.Status != from {
		return domain.ErrInvalidTransition
	}
	m.intents[intent.ID] = intent
	m.byKey[intent.IdempotencyKey] = intent
	return nil
}

func (m *MockIntentRepository) ListStuckClearing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ObligationIntent, error) {
	if m.ListStuckClearingFunc != nil {
		return m.ListStuckClearingFunc(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stuck []*domain.ObligationIntent
	for _, intent := range m.intents {
		if intent.Status == domain.IntentStatusClearing && intent.UpdatedAt.Before(cutoff) {
			stuck = append(stuck, intent)
		}
	}
	return stuck, nil
}

// MockTransferRepository is a mock implementation of TransferRepository.
type MockTransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]*domain.Transfer

	CreateIfAbsentFunc func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) (bool, error)
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Transfer, error)
	ListByAccountFunc  func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
	ListFinalizedFunc  func(ctx context.Context, limit, offset int) ([]*domain.Transfer, error)
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make(map[string]*domain.Transfer),
	}
}

// Seed places a transfer in the in-memory store.
func (m *MockTransferRepository) Seed(transfer *domain.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[transfer.ID] = transfer
}

func (m *MockTransferRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) (bool, error) {
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, tx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transfers[transfer.ID]; ok {
		return false, nil
	}
	m.transfers[transfer.ID] = transfer
	return true, nil
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transfers[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransferNotFound
}

func (m *MockTransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var transfers []*domain.Transfer
	for _, t := range m.transfers {
		if t.DebitAccountID == accountID || t.CreditAccountID == accountID {
			transfers = append(transfers, t)
		}
	}
	return transfers, nil
}

func (m *MockTransferRepository) ListFinalized(ctx context.Context, limit, offset int) ([]*domain.Transfer, error) {
	if m.ListFinalizedFunc != nil {
		return m.ListFinalizedFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var transfers []*domain.Transfer
	for _, t := range m.transfers {
		transfers = append(transfers, t)
	}
	if offset >= len(transfers) {
		return nil, nil
	}
	end := offset + limit
	if end > len(transfers) {
		end = len(transfers)
	}
	return transfers[offset:end], nil
}

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.ClearingRoute

	CreateFunc       func(ctx context.Context, route *domain.ClearingRoute) error
	GetByPurposeFunc func(ctx context.Context, purpose string) (*domain.ClearingRoute, error)
	ListFunc         func(ctx context.Context) ([]*domain.ClearingRoute, error)
}

func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		routes: make(map[string]*domain.ClearingRoute),
	}
}

// Seed places a route in the in-memory store.
func (m *MockRouteRepository) Seed(route *domain.ClearingRoute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.Purpose] = route
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.ClearingRoute) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, route)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[route.Purpose]; ok {
		return domain.ErrRouteExists
	}
	m.routes[route.Purpose] = route
	return nil
}

func (m *MockRouteRepository) GetByPurpose(ctx context.Context, purpose string) (*domain.ClearingRoute, error) {
	if m.GetByPurposeFunc != nil {
		return m.GetByPurposeFunc(ctx, purpose)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if route, ok := m.routes[purpose]; ok {
		return route, nil
	}
	return nil, domain.ErrRouteNotFound
}

func (m *MockRouteRepository) List(ctx context.Context) ([]*domain.ClearingRoute, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var routes []*domain.ClearingRoute
	for _, route := range m.routes {
		routes = append(routes, route)
	}
	return routes, nil
}

// MockAttestationRepository is a mock implementation of AttestationRepository.
type MockAttestationRepository struct {
	mu      sync.RWMutex
	records []*domain.AttestationRecord

	CreateTxFunc     func(ctx context.Context, tx usecase.Transaction, record *domain.AttestationRecord) error
	ListByIntentFunc func(ctx context.Context, intentID string) ([]*domain.AttestationRecord, error)
}

func NewMockAttestationRepository() *MockAttestationRepository {
	return &MockAttestationRepository{}
}

func (m *MockAttestationRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.AttestationRecord) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *MockAttestationRepository) ListByIntent(ctx context.Context, intentID string) ([]*domain.AttestationRecord, error) {
	if m.ListByIntentFunc != nil {
		return m.ListByIntentFunc(ctx, intentID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*domain.AttestationRecord
	for _, r := range m.records {
		if r.IntentID == intentID {
			records = append(records, r)
		}
	}
	return records, nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	CheckConsistencyFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	return decimal.Zero, decimal.Zero, decimal.Zero, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregateFunc  func(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// Events returns everything appended so far.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var unpublished []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			unpublished = append(unpublished, e)
			if len(unpublished) == limit {
				break
			}
		}
	}
	return unpublished, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	if m.GetByAggregateFunc != nil {
		return m.GetByAggregateFunc(ctx, aggregateType, aggregateID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || !e.CreatedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockHonoringRepository is a mock implementation of HonoringRepository.
type MockHonoringRepository struct {
	mu       sync.RWMutex
	attempts map[string]*domain.HonoringAttempt

	CreateIfAbsentFunc func(ctx context.Context, attempt *domain.HonoringAttempt) (bool, error)
	GetByIDFunc        func(ctx context.Context, id string) (*domain.HonoringAttempt, error)
	UpdateStatusFunc   func(ctx context.Context, id string, status domain.HonoringStatus, retryCount int, lastError string, updatedAt time.Time) error
	ListByTransferFunc func(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error)
}

func NewMockHonoringRepository() *MockHonoringRepository {
	return &MockHonoringRepository{
		attempts: make(map[string]*domain.HonoringAttempt),
	}
}

// Seed places an attempt in the in-memory store.
func (m *MockHonoringRepository) Seed(attempt *domain.HonoringAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attempt.ID] = attempt
}

func (m *MockHonoringRepository) CreateIfAbsent(ctx context.Context, attempt *domain.HonoringAttempt) (bool, error) {
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, attempt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.TransferID == attempt.TransferID && a.AgentID == attempt.AgentID {
			return false, nil
		}
	}
	m.attempts[attempt.ID] = attempt
	return true, nil
}

func (m *MockHonoringRepository) GetByID(ctx context.Context, id string) (*domain.HonoringAttempt, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.attempts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAttemptNotFound
}

func (m *MockHonoringRepository) UpdateStatus(ctx context.Context, id string, status domain.HonoringStatus, retryCount int, lastError string, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, retryCount, lastError, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if a.Status != domain.HonoringStatusPending {
		return domain.ErrAttemptTerminal
	}
	a.Status = status
	a.RetryCount = retryCount
	a.LastError = lastError
	a.UpdatedAt = updatedAt
	return nil
}

func (m *MockHonoringRepository) ListByTransfer(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error) {
	if m.ListByTransferFunc != nil {
		return m.ListByTransferFunc(ctx, transferID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var attempts []*domain.HonoringAttempt
	for _, a := range m.attempts {
		if a.TransferID == transferID {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu      sync.RWMutex
	records []*domain.AuditRecord

	CreateFunc   func(ctx context.Context, record *domain.AuditRecord) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, record *domain.AuditRecord) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

// Records returns everything appended so far.
func (m *MockAuditRepository) Records() []*domain.AuditRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *MockAuditRepository) Create(ctx context.Context, record *domain.AuditRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.EventID != "" {
		for _, r := range m.records {
			if r.EventID == record.EventID {
				return nil
			}
		}
	}
	m.records = append(m.records, record)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.AuditRecord) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, record)
	}
	return m.Create(ctx, record)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*domain.AuditRecord
	for _, r := range m.records {
		if filter.IntentID != "" && r.IntentID != filter.IntentID {
			continue
		}
		if filter.TransferID != "" && r.TransferID != filter.TransferID {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// MockMirrorStore is a mock implementation of MirrorStore.
type MockMirrorStore struct {
	mu         sync.RWMutex
	entries    map[string]*domain.MirrorEntry
	checkpoint *domain.MirrorCheckpoint

	PutEntryFunc       func(ctx context.Context, entry *domain.MirrorEntry) error
	GetEntryFunc       func(ctx context.Context, transferID string) (*domain.MirrorEntry, error)
	AccountHistoryFunc func(ctx context.Context, accountID string, limit int) ([]*domain.MirrorEntry, error)
	SetCheckpointFunc  func(ctx context.Context, cp domain.MirrorCheckpoint) error
	GetCheckpointFunc  func(ctx context.Context) (*domain.MirrorCheckpoint, error)
}

func NewMockMirrorStore() *MockMirrorStore {
	return &MockMirrorStore{
		entries: make(map[string]*domain.MirrorEntry),
	}
}

func (m *MockMirrorStore) PutEntry(ctx context.Context, entry *domain.MirrorEntry) error {
	if m.PutEntryFunc != nil {
		return m.PutEntryFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.TransferID] = entry
	return nil
}

func (m *MockMirrorStore) GetEntry(ctx context.Context, transferID string) (*domain.MirrorEntry, error) {
	if m.GetEntryFunc != nil {
		return m.GetEntryFunc(ctx, transferID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[transferID]; ok {
		return e, nil
	}
	return nil, domain.ErrMirrorEntryNotFound
}

func (m *MockMirrorStore) AccountHistory(ctx context.Context, accountID string, limit int) ([]*domain.MirrorEntry, error) {
	if m.AccountHistoryFunc != nil {
		return m.AccountHistoryFunc(ctx, accountID, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.MirrorEntry
	for _, e := range m.entries {
		if e.DebitAccountID == accountID || e.CreditAccountID == accountID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockMirrorStore) SetCheckpoint(ctx context.Context, cp domain.MirrorCheckpoint) error {
	if m.SetCheckpointFunc != nil {
		return m.SetCheckpointFunc(ctx, cp)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = &cp
	return nil
}

func (m *MockMirrorStore) GetCheckpoint(ctx context.Context) (*domain.MirrorCheckpoint, error) {
	if m.GetCheckpointFunc != nil {
		return m.GetCheckpointFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkpoint, nil
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
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockVerifier is a mock implementation of AttestationVerifier.
type MockVerifier struct {
	VerifyFunc  func(ctx context.Context, intent *domain.ObligationIntent, tokens []string) ([]*domain.AttestationRecord, error)
	RecheckFunc func(ctx context.Context, intent *domain.ObligationIntent, records []*domain.AttestationRecord) error
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

func (m *MockVerifier) Verify(ctx context.Context, intent *domain.ObligationIntent, tokens []string) ([]*domain.AttestationRecord, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, intent, tokens)
	}
	records := make([]*domain.AttestationRecord, 0, len(tokens))
	for range tokens {
		records = append(records, &domain.AttestationRecord{
			IntentID: intent.ID,
			Attestor: "mock-attestor",
			Result:   domain.AttestationVerified,
		})
	}
	return records, nil
}

func (m *MockVerifier) Recheck(ctx context.Context, intent *domain.ObligationIntent, records []*domain.AttestationRecord) error {
	if m.RecheckFunc != nil {
		return m.RecheckFunc(ctx, intent, records)
	}
	return nil
}
