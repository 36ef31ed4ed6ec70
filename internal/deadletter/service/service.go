// Package service implements triage of failure records: listing, manual
// correction, and promotion of corrected records into participants.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gatepass/internal/audit"
	"gatepass/internal/deadletter/models"
	pmodels "gatepass/internal/participant/models"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/middleware"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// Store is the failure-record repository slice the service needs.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.FailureRecord, error)
	List(ctx context.Context, status models.Status) ([]models.FailureRecord, error)
	Update(ctx context.Context, rec *models.FailureRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ParticipantStore receives promoted records.
type ParticipantStore interface {
	Create(ctx context.Context, p *pmodels.Participant) error
}

// Patch carries the fields an operator may correct on a pending record.
// Nil pointers leave the field untouched.
type Patch struct {
	Name            *string        `json:"name,omitempty"`
	Email           *string        `json:"email,omitempty"`
	Phone           *string        `json:"phone,omitempty"`
	TransactionID   *string        `json:"transaction_id,omitempty"`
	PaymentProofURL *string        `json:"payment_proof_url,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	Status          *models.Status `json:"status,omitempty"`
}

// Service implements the triage operations.
type Service struct {
	store        Store
	participants ParticipantStore
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      audit.Publisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// New constructs the triage service.
func New(store Store, participants ParticipantStore, opts ...Option) *Service {
	s := &Service{store: store, participants: participants}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns failure records, optionally filtered by status. An empty
// status means all.
func (s *Service) List(ctx context.Context, status models.Status) ([]models.FailureRecord, error) {
	if status != "" && !validStatus(status) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", status)
	}
	records, err := s.store.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list failure records")
	}
	return records, nil
}

// Update applies an operator correction to a record. Resolution is not a
// patchable status; it only happens through Resolve, so the resolved
// invariants (participant row exists, ResolvedAt set) cannot be bypassed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.FailureRecord, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusResolved {
		return nil, dErrors.New(dErrors.CodeConflict, "record is already resolved")
	}

	if patch.Status != nil {
		switch *patch.Status {
		case models.StatusPending, models.StatusIgnored:
			rec.Status = *patch.Status
		default:
			return nil, dErrors.Newf(dErrors.CodeValidation, "status cannot be patched to %q", *patch.Status)
		}
	}
	applyString(&rec.Name, patch.Name)
	applyString(&rec.Email, patch.Email)
	applyString(&rec.Phone, patch.Phone)
	applyString(&rec.TransactionID, patch.TransactionID)
	applyString(&rec.PaymentProofURL, patch.PaymentProofURL)
	applyString(&rec.Notes, patch.Notes)

	if err := s.store.Update(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update failure record")
	}
	return rec, nil
}

// Delete removes a record outright.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "failure record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete failure record")
	}
	return nil
}

// Resolve promotes a corrected record into a participant and marks the record
// resolved. An existing participant with the same identity is not an error:
// the goal state ("this person is registered") already holds.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*models.FailureRecord, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusResolved {
		return nil, dErrors.New(dErrors.CodeConflict, "record is already resolved")
	}
	if !rec.Promotable() {
		return nil, dErrors.New(dErrors.CodeValidation, "record has insufficient data: name and email are required")
	}

	now := requestcontext.Now(ctx)
	p := pmodels.New(rec.Name, rec.Email, now)
	p.Phone = rec.Phone
	p.TransactionID = rec.TransactionID
	p.PaymentProofURL = rec.PaymentProofURL

	if err := s.participants.Create(ctx, p); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create participant")
	}

	rec.MarkResolved(now)
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark record resolved")
	}

	s.metrics.IncrementDeadLetterResolved()
	s.emitAudit(ctx, audit.ActionDeadLetterResolved, rec.ID.String())
	s.log(ctx, "failure record resolved", "id", rec.ID.String(), "name", rec.Name, "email", rec.Email)
	return rec, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.FailureRecord, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "failure record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load failure record")
	}
	return rec, nil
}

func validStatus(status models.Status) bool {
	switch status {
	case models.StatusPending, models.StatusResolved, models.StatusIgnored:
		return true
	}
	return false
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (s *Service) log(ctx context.Context, msg string, attrs ...any) {
	if s.logger == nil {
		return
	}
	attrs = append(attrs, "request_id", middleware.GetRequestID(ctx))
	s.logger.InfoContext(ctx, msg, attrs...)
}

func (s *Service) emitAudit(ctx context.Context, action, subject string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:    action,
		Subject:   subject,
		Timestamp: requestcontext.Now(ctx),
	}); err != nil {
		s.log(ctx, "audit emit failed", "action", action, "error", err.Error())
	}
}
