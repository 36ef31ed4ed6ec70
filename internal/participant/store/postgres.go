package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatepass/internal/participant/models"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// Postgres persists participants in PostgreSQL via pgx. The unique index on
// (name, email) is the final authority for concurrent duplicate submissions;
// the store surfaces that as sentinel.ErrConflict so callers can treat it as
// a skip rather than a failure.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed participant store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const participantColumns = `name, email, phone, transaction_id, payment_proof_url,
	status, attended, ticket_sent, ticket_sent_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Participant) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO participants (`+participantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name, email) DO NOTHING`,
		p.Name, p.Email, p.Phone, p.TransactionID, p.PaymentProofURL,
		p.Status, p.Attended, p.TicketSent, p.TicketSentAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) ExistsByIdentity(ctx context.Context, name, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE name = $1 AND email = $2)`,
		name, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("participant exists: %w", err)
	}
	return exists, nil
}

func (s *Postgres) FindByIdentity(ctx context.Context, name, email string) (*models.Participant, error) {
	var p models.Participant
	err := s.pool.QueryRow(ctx, `
		SELECT `+participantColumns+`
		FROM participants WHERE name = $1 AND email = $2`,
		name, email,
	).Scan(
		&p.Name, &p.Email, &p.Phone, &p.TransactionID, &p.PaymentProofURL,
		&p.Status, &p.Attended, &p.TicketSent, &p.TicketSentAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return &p, nil
}

func (s *Postgres) UpdateStatus(ctx context.Context, name, email string, status models.Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE participants SET status = $3, updated_at = $4
		WHERE name = $1 AND email = $2`,
		name, email, status, requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("update participant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) UpdateAttendance(ctx context.Context, name, email string, attended bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE participants SET attended = $3, updated_at = $4
		WHERE name = $1 AND email = $2`,
		name, email, attended, requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("update participant attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, name, email string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM participants WHERE name = $1 AND email = $2`, name, email)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+participantColumns+`
		FROM participants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.Name, &p.Email, &p.Phone, &p.TransactionID, &p.PaymentProofURL,
			&p.Status, &p.Attended, &p.TicketSent, &p.TicketSentAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}
