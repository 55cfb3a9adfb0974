package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CheckConsistency returns the ledger-wide posted accumulator sums and
// the total of posted transfer amounts. Conservation holds when all
// three agree.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (postedDebits, postedCredits, transferTotal decimal.Decimal, err error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(posted_debits), 0) FROM accounts),
			(SELECT COALESCE(SUM(posted_credits), 0) FROM accounts),
			(SELECT COALESCE(SUM(amount), 0) FROM transfers)
	`

	var debits, credits, total pgtype.Numeric

	if err := r.pool.QueryRow(ctx, query).Scan(&debits, &credits, &total); err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), numericToDecimal(total), nil
}
