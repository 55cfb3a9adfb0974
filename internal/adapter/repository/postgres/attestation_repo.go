package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

const attestationColumns = `id, intent_id, attestor, claims, result, detail, expires_at, verified_at`

// AttestationRepository implements usecase.AttestationRepository.
// Records are read-only evidence: written once, never updated.
type AttestationRepository struct {
	pool *pgxpool.Pool
}

// NewAttestationRepository creates a new AttestationRepository.
func NewAttestationRepository(pool *pgxpool.Pool) *AttestationRepository {
	return &AttestationRepository{pool: pool}
}

// CreateTx records verification evidence inside the verdict transaction.
func (r *AttestationRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.AttestationRecord) error {
	pgxTx := tx.(*Tx).PgxTx()

	var claims []byte
	if record.Claims != nil {
		var err error

		claims, err = json.Marshal(record.Claims)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO attestation_records (` + attestationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := pgxTx.Exec(ctx, query,
		record.ID,
		record.IntentID,
		record.Attestor,
		claims,
		string(record.Result),
		record.Detail,
		timePtrToPgTimestamptz(record.ExpiresAt),
		timeToPgTimestamptz(record.VerifiedAt),
	)

	return err
}

// ListByIntent lists the evidence recorded for an intent.
func (r *AttestationRepository) ListByIntent(ctx context.Context, intentID string) ([]*domain.AttestationRecord, error) {
	query := `SELECT ` + attestationColumns + ` FROM attestation_records WHERE intent_id = $1 ORDER BY verified_at, id`

	rows, err := r.pool.Query(ctx, query, intentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AttestationRecord

	for rows.Next() {
		record, err := scanAttestationRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func scanAttestationRecord(row pgx.Row) (*domain.AttestationRecord, error) {
	var (
		record     domain.AttestationRecord
		claims     []byte
		result     string
		expiresAt  pgtype.Timestamptz
		verifiedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&record.ID,
		&record.IntentID,
		&record.Attestor,
		&claims,
		&result,
		&record.Detail,
		&expiresAt,
		&verifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if claims != nil {
		_ = json.Unmarshal(claims, &record.Claims)
	}

	record.Result = domain.AttestationResult(result)
	record.ExpiresAt = pgTimestamptzToTimePtr(expiresAt)
	record.VerifiedAt = verifiedAt.Time

	return &record, nil
}
