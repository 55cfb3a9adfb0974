package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obligent/obligent/internal/domain"
)

const honoringColumns = `id, transfer_id, agent_id, status, retry_count, last_error, created_at, updated_at`

// HonoringRepository implements usecase.HonoringRepository.
type HonoringRepository struct {
	pool *pgxpool.Pool
}

// NewHonoringRepository creates a new HonoringRepository.
func NewHonoringRepository(pool *pgxpool.Pool) *HonoringRepository {
	return &HonoringRepository{pool: pool}
}

// CreateIfAbsent inserts the attempt unless one already exists for the
// (transfer, agent) pair. Redelivered finality events dedupe here.
func (r *HonoringRepository) CreateIfAbsent(ctx context.Context, attempt *domain.HonoringAttempt) (bool, error) {
	query := `
		INSERT INTO honoring_attempts (` + honoringColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (transfer_id, agent_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.TransferID,
		attempt.AgentID,
		string(attempt.Status),
		attempt.RetryCount,
		attempt.LastError,
		timeToPgTimestamptz(attempt.CreatedAt),
		timeToPgTimestamptz(attempt.UpdatedAt),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves an attempt by ID.
func (r *HonoringRepository) GetByID(ctx context.Context, id string) (*domain.HonoringAttempt, error) {
	query := `SELECT ` + honoringColumns + ` FROM honoring_attempts WHERE id = $1`

	attempt, err := scanHonoringAttempt(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttemptNotFound
		}

		return nil, err
	}

	return attempt, nil
}

// UpdateStatus moves a non-terminal attempt. The status guard keeps
// terminal attempts immutable against racing callbacks.
func (r *HonoringRepository) UpdateStatus(ctx context.Context, id string, status domain.HonoringStatus, retryCount int, lastError string, updatedAt time.Time) error {
	query := `
		UPDATE honoring_attempts
		SET status = $2, retry_count = $3, last_error = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`

	tag, err := r.pool.Exec(ctx, query,
		id,
		string(status),
		retryCount,
		lastError,
		timeToPgTimestamptz(updatedAt),
		string(domain.HonoringStatusPending),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptTerminal
	}

	return nil
}

// ListByTransfer lists the attempts recorded for a transfer.
func (r *HonoringRepository) ListByTransfer(ctx context.Context, transferID string) ([]*domain.HonoringAttempt, error) {
	query := `SELECT ` + honoringColumns + ` FROM honoring_attempts WHERE transfer_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*domain.HonoringAttempt

	for rows.Next() {
		attempt, err := scanHonoringAttempt(rows)
		if err != nil {
			return nil, err
		}

		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

func scanHonoringAttempt(row pgx.Row) (*domain.HonoringAttempt, error) {
	var (
		attempt   domain.HonoringAttempt
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&attempt.ID,
		&attempt.TransferID,
		&attempt.AgentID,
		&status,
		&attempt.RetryCount,
		&attempt.LastError,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	attempt.Status = domain.HonoringStatus(status)
	attempt.CreatedAt = createdAt.Time
	attempt.UpdatedAt = updatedAt.Time

	return &attempt, nil
}
