package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatepass/internal/deadletter/models"
	"gatepass/pkg/platform/sentinel"
)

// Postgres persists failure records in PostgreSQL. The status column is
// indexed for triage queries.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed failure-record store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const failureColumns = `id, raw_payload, reason, details, name, email, phone,
	transaction_id, payment_proof_url, status, notes, created_at, resolved_at`

func (s *Postgres) Insert(ctx context.Context, rec *models.FailureRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO failure_records (`+failureColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, string(rec.RawPayload), rec.Reason, rec.Details,
		rec.Name, rec.Email, rec.Phone, rec.TransactionID, rec.PaymentProofURL,
		rec.Status, rec.Notes, rec.CreatedAt, rec.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert failure record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.FailureRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, `
		SELECT `+failureColumns+`
		FROM failure_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find failure record: %w", err)
	}
	return rec, nil
}

func (s *Postgres) List(ctx context.Context, status models.Status) ([]models.FailureRecord, error) {
	query := `SELECT ` + failureColumns + ` FROM failure_records`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failure records: %w", err)
	}
	defer rows.Close()

	var out []models.FailureRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failure record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list failure records: %w", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, rec *models.FailureRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE failure_records
		SET reason = $2, details = $3, name = $4, email = $5, phone = $6,
		    transaction_id = $7, payment_proof_url = $8, status = $9,
		    notes = $10, resolved_at = $11
		WHERE id = $1`,
		rec.ID, rec.Reason, rec.Details, rec.Name, rec.Email, rec.Phone,
		rec.TransactionID, rec.PaymentProofURL, rec.Status, rec.Notes, rec.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update failure record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM failure_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete failure record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*models.FailureRecord, error) {
	var (
		rec models.FailureRecord
		raw string
	)
	if err := row.Scan(
		&rec.ID, &raw, &rec.Reason, &rec.Details, &rec.Name, &rec.Email, &rec.Phone,
		&rec.TransactionID, &rec.PaymentProofURL, &rec.Status, &rec.Notes,
		&rec.CreatedAt, &rec.ResolvedAt,
	); err != nil {
		return nil, err
	}
	rec.RawPayload = []byte(raw)
	return &rec, nil
}
