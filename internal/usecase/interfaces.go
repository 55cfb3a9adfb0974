package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligent/obligent/internal/domain"
)

// AccountRepository defines data access for ledger accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// ApplyPosted adds deltas to the posted accumulators and bumps the
	// row version. Deltas must be non-negative: accumulators only grow.
	ApplyPosted(ctx context.Context, tx Transaction, id string, debitDelta, creditDelta decimal.Decimal, updatedAt time.Time) error
	// ApplyPending adds deltas to the pending accumulators.
	ApplyPending(ctx context.Context, tx Transaction, id string, debitDelta, creditDelta decimal.Decimal, updatedAt time.Time) error
	Deactivate(ctx context.Context, id string, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// IntentRepository defines data access for obligation intents.
type IntentRepository interface {
	// CreateIfAbsent inserts the intent unless its idempotency key is
	// already taken. Returns true when the row was inserted.
	CreateIfAbsent(ctx context.Context, tx Transaction, intent *domain.ObligationIntent) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.ObligationIntent, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.ObligationIntent, error)
	// TransitionTx writes the intent's mutable fields guarded by the
	// expected current status; returns domain.ErrInvalidTransition when
	// another writer got there first.
	TransitionTx(ctx context.Context, tx Transaction, intent *domain.ObligationIntent, from domain.IntentStatus) error
	// ListStuckClearing returns intents parked in CLEARING since before
	// the cutoff, oldest first.
	ListStuckClearing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ObligationIntent, error)
}

// TransferRepository defines data access for posted transfers.
type TransferRepository interface {
	// CreateIfAbsent inserts the transfer unless its deterministic id
	// already exists. Returns true when the row was inserted.
	CreateIfAbsent(ctx context.Context, tx Transaction, transfer *domain.Transfer) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
	ListFinalized(ctx context.Context, limit, offset int) ([]*domain.Transfer, error)
}

// RouteRepository defines data access for clearing routes.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.ClearingRoute) error
	GetByPurpose(ctx context.Context, purpose string) (*domain.ClearingRoute, error)
	List(ctx context.Context) ([]*domain.ClearingRoute, error)
}

// AttestationRepository stores per-token verification evidence.
type AttestationRepository interface {
	CreateTx(ctx context.Context, tx Transaction, record *domain.AttestationRecord) error
	ListByIntent(ctx context.Context, intentID string) ([]*domain.AttestationRecord, error)
}

// LedgerRepository defines ledger-wide operations.
type LedgerRepository interface {
	// CheckConsistency returns the ledger-wide posted accumulator sums
	// and the sum of finalized transfer amounts.
	CheckConsistency(ctx context.Context) (postedDebits, postedCredits, transferTotal decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// HonoringRepository defines data access for honoring attempts.
type HonoringRepository interface {
	// CreateIfAbsent inserts the attempt unless one already exists for
	// the (transfer, agent) pair. Returns true when inserted.
	CreateIfAbsent(ctx context.Context, attempt *domain.HonoringAttempt) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.HonoringAttempt, error)
	// UpdateStatus moves a non-terminal attempt; returns
	// domain.ErrAttemptTerminal when the attempt can no longer change.
	UpdateStatus(ctx context.Context, id string, status domain.HonoringStatus, retryCount int, lastError string, updatedAt time.Time) error
	ListByTransfer(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error)
}

// AuditRepository defines data access for the audit trail.
type AuditRepository interface {
	// Create appends a record; records carrying an event id are deduped
	// on it, so redelivered bus events append nothing.
	Create(ctx context.Context, record *domain.AuditRecord) error
	CreateTx(ctx context.Context, tx Transaction, record *domain.AuditRecord) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error)
}

// MirrorStore is the read-optimized projection of finalized transfers.
type MirrorStore interface {
	PutEntry(ctx context.Context, entry *domain.MirrorEntry) error
	GetEntry(ctx context.Context, transferID string) (*domain.MirrorEntry, error)
	AccountHistory(ctx context.Context, accountID string, limit int) ([]*domain.MirrorEntry, error)
	SetCheckpoint(ctx context.Context, cp domain.MirrorCheckpoint) error
	GetCheckpoint(ctx context.Context) (*domain.MirrorCheckpoint, error)
}

// AttestationVerifier checks the attestation tokens attached to an
// intent and reports per-token evidence alongside the policy verdict.
type AttestationVerifier interface {
	Verify(ctx context.Context, intent *domain.ObligationIntent, tokens []string) ([]*domain.AttestationRecord, error)
	// Recheck re-applies the policy over previously recorded evidence,
	// honoring expiry at the time of the call.
	Recheck(ctx context.Context, intent *domain.ObligationIntent, records []*domain.AttestationRecord) error
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

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
