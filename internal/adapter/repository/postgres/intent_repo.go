package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

const intentColumns = `id, idempotency_key, claimant_account_id, amount, purpose, fingerprint, status, reason_code, reason, transfer_id, attested_at, finalized_at, created_at, updated_at`

// IntentRepository implements usecase.IntentRepository.
type IntentRepository struct {
	pool *pgxpool.Pool
}

// NewIntentRepository creates a new IntentRepository.
func NewIntentRepository(pool *pgxpool.Pool) *IntentRepository {
	return &IntentRepository{pool: pool}
}

// CreateIfAbsent inserts the intent unless its idempotency key already
// exists. The unique index on idempotency_key is the insert-if-absent
// point every concurrent submitter races through.
func (r *IntentRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, intent *domain.ObligationIntent) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO obligation_intents (` + intentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	tag, err := pgxTx.Exec(ctx, query,
		intent.ID,
		intent.IdempotencyKey,
		intent.ClaimantAccountID,
		decimalToNumeric(intent.Amount),
		intent.Purpose,
		intent.Fingerprint,
		string(intent.Status),
		intent.ReasonCode,
		intent.Reason,
		intent.TransferID,
		timePtrToPgTimestamptz(intent.AttestedAt),
		timePtrToPgTimestamptz(intent.FinalizedAt),
		timeToPgTimestamptz(intent.CreatedAt),
		timeToPgTimestamptz(intent.UpdatedAt),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves an intent by ID.
func (r *IntentRepository) GetByID(ctx context.Context, id string) (*domain.ObligationIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM obligation_intents WHERE id = $1`

	intent, err := scanIntent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntentNotFound
		}

		return nil, err
	}

	return intent, nil
}

// GetByIdempotencyKey retrieves the intent holding an idempotency key.
func (r *IntentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.ObligationIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM obligation_intents WHERE idempotency_key = $1`

	intent, err := scanIntent(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntentNotFound
		}

		return nil, err
	}

	return intent, nil
}

// TransitionTx writes the intent's mutable fields guarded by the
// expected current status. Terminal rows never match the guard, so a
// finalized or rejected intent is immutable here by construction.
func (r *IntentRepository) TransitionTx(ctx context.Context, tx usecase.Transaction, intent *domain.ObligationIntent, from domain.IntentStatus) error {
	if !from.CanTransitionTo(intent.Status) {
		return domain.ErrInvalidTransition
	}

	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE obligation_intents
		SET status = $3,
		    reason_code = $4,
		    reason = $5,
		    transfer_id = $6,
		    attested_at = $7,
		    finalized_at = $8,
		    updated_at = $9
		WHERE id = $1 AND status = $2
	`

	tag, err := pgxTx.Exec(ctx, query,
		intent.ID,
		string(from),
		string(intent.Status),
		intent.ReasonCode,
		intent.Reason,
		intent.TransferID,
		timePtrToPgTimestamptz(intent.AttestedAt),
		timePtrToPgTimestamptz(intent.FinalizedAt),
		timeToPgTimestamptz(intent.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// ListStuckClearing returns intents parked in CLEARING since before the
// cutoff, oldest first.
func (r *IntentRepository) ListStuckClearing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.ObligationIntent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM obligation_intents
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, string(domain.IntentStatusClearing), timeToPgTimestamptz(cutoff), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []*domain.ObligationIntent

	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}

		intents = append(intents, intent)
	}

	return intents, rows.Err()
}

func scanIntent(row pgx.Row) (*domain.ObligationIntent, error) {
	var (
		intent      domain.ObligationIntent
		amount      pgtype.Numeric
		status      string
		transferID  *string
		attestedAt  pgtype.Timestamptz
		finalizedAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&intent.ID,
		&intent.IdempotencyKey,
		&intent.ClaimantAccountID,
		&amount,
		&intent.Purpose,
		&intent.Fingerprint,
		&status,
		&intent.ReasonCode,
		&intent.Reason,
		&transferID,
		&attestedAt,
		&finalizedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	intent.Amount = numericToDecimal(amount)
	intent.Status = domain.IntentStatus(status)
	intent.TransferID = transferID
	intent.AttestedAt = pgTimestamptzToTimePtr(attestedAt)
	intent.FinalizedAt = pgTimestamptzToTimePtr(finalizedAt)
	intent.CreatedAt = createdAt.Time
	intent.UpdatedAt = updatedAt.Time

	return &intent, nil
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func pgTimestamptzToTimePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}

	t := ts.Time

	return &t
}
