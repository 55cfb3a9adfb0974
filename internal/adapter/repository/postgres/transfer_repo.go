package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

const transferColumns = `id, intent_id, debit_account_id, credit_account_id, amount, purpose, finalized_at, created_at`

// TransferRepository implements usecase.TransferRepository. Transfers
// are append-only: this repository has no update or delete statements.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// CreateIfAbsent inserts the transfer unless its deterministic id is
// already posted. A pre-existing row means an earlier clearing attempt
// for the same intent got through; the caller must not post again.
func (r *TransferRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := pgxTx.Exec(ctx, query,
		transfer.ID,
		transfer.IntentID,
		transfer.DebitAccountID,
		transfer.CreditAccountID,
		decimalToNumeric(transfer.Amount),
		transfer.Purpose,
		timeToPgTimestamptz(transfer.FinalizedAt),
		timeToPgTimestamptz(transfer.CreatedAt),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}

		return nil, err
	}

	return transfer, nil
}

// ListByAccount lists transfers touching an account, newest first.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE debit_account_id = $1 OR credit_account_id = $1
		ORDER BY finalized_at DESC, id
		LIMIT $2 OFFSET $3
	`

	return r.queryTransfers(ctx, query, accountID, limit, offset)
}

// ListFinalized pages through all posted transfers, oldest first. Used
// by the mirror rebuild.
func (r *TransferRepository) ListFinalized(ctx context.Context, limit, offset int) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		ORDER BY finalized_at, id
		LIMIT $1 OFFSET $2
	`

	return r.queryTransfers(ctx, query, limit, offset)
}

func (r *TransferRepository) queryTransfers(ctx context.Context, query string, args ...any) ([]*domain.Transfer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer

	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}

		transfers = append(transfers, transfer)
	}

	return transfers, rows.Err()
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		transfer    domain.Transfer
		amount      pgtype.Numeric
		finalizedAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&transfer.ID,
		&transfer.IntentID,
		&transfer.DebitAccountID,
		&transfer.CreditAccountID,
		&amount,
		&transfer.Purpose,
		&finalizedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	transfer.Amount = numericToDecimal(amount)
	transfer.FinalizedAt = finalizedAt.Time
	transfer.CreatedAt = createdAt.Time

	return &transfer, nil
}
