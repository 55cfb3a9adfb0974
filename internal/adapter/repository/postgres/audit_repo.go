package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obligent/obligent/internal/domain"
	"github.com/obligent/obligent/internal/usecase"
)

const auditColumns = `id, event_id, intent_id, transfer_id, action, status, reason_code, detail, occurred_at, recorded_at`

// AuditRepository implements usecase.AuditRepository. The audit trail
// is append-only: this repository has no update or delete statements.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// execer covers both the pool and an open transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Create appends a record. Records carrying a bus event id are deduped
// on it, so a redelivered event appends nothing.
func (r *AuditRepository) Create(ctx context.Context, record *domain.AuditRecord) error {
	return r.insert(ctx, r.pool, record)
}

// CreateTx appends a record inside an existing transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.AuditRecord) error {
	return r.insert(ctx, tx.(*Tx).PgxTx(), record)
}

func (r *AuditRepository) insert(ctx context.Context, exec execer, record *domain.AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	var detail []byte
	if record.Detail != nil {
		var err error

		detail, err = json.Marshal(record.Detail)
		if err != nil {
			return err
		}
	}

	// NULL event ids never collide; the unique index dedupes only
	// bus-delivered records.
	var eventID *string
	if record.EventID != "" {
		eventID = &record.EventID
	}

	query := `
		INSERT INTO audit_records (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := exec.Exec(ctx, query,
		record.ID,
		eventID,
		record.IntentID,
		record.TransferID,
		string(record.Action),
		string(record.Status),
		record.ReasonCode,
		detail,
		timeToPgTimestamptz(record.OccurredAt),
		timeToPgTimestamptz(record.RecordedAt),
	)

	return err
}

// List retrieves audit records with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditRecord, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_records WHERE 1=1`
	args := []any{}

	if filter.IntentID != "" {
		args = append(args, filter.IntentID)
		query += fmt.Sprintf(` AND intent_id = $%d`, len(args))
	}

	if filter.TransferID != "" {
		args = append(args, filter.TransferID)
		query += fmt.Sprintf(` AND transfer_id = $%d`, len(args))
	}

	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(` AND action = $%d`, len(args))
	}

	if filter.StartDate != nil {
		args = append(args, timeToPgTimestamptz(*filter.StartDate))
		query += fmt.Sprintf(` AND occurred_at >= $%d`, len(args))
	}

	if filter.EndDate != nil {
		args = append(args, timeToPgTimestamptz(*filter.EndDate))
		query += fmt.Sprintf(` AND occurred_at <= $%d`, len(args))
	}

	query += ` ORDER BY occurred_at DESC, recorded_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AuditRecord

	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func scanAuditRecord(row pgx.Row) (*domain.AuditRecord, error) {
	var (
		record     domain.AuditRecord
		eventID    *string
		action     string
		status     string
		detail     []byte
		occurredAt pgtype.Timestamptz
		recordedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&record.ID,
		&eventID,
		&record.IntentID,
		&record.TransferID,
		&action,
		&status,
		&record.ReasonCode,
		&detail,
		&occurredAt,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}

	if eventID != nil {
		record.EventID = *eventID
	}

	record.Action = domain.AuditAction(action)
	record.Status = domain.AuditStatus(status)

	if detail != nil {
		_ = json.Unmarshal(detail, &record.Detail)
	}

	record.OccurredAt = occurredAt.Time
	record.RecordedAt = recordedAt.Time

	return &record, nil
}
