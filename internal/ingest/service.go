package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gatepass/internal/audit"
	dlmodels "gatepass/internal/deadletter/models"
	pmodels "gatepass/internal/participant/models"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/middleware"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// ParticipantStore is the slice of the participant repository the pipeline
// needs.
type ParticipantStore interface {
	ExistsByIdentity(ctx context.Context, name, email string) (bool, error)
	Create(ctx context.Context, p *pmodels.Participant) error
}

// DeadLetterStore captures submissions that could not be processed.
type DeadLetterStore interface {
	Insert(ctx context.Context, rec *dlmodels.FailureRecord) error
}

// Outcome is the terminal state of one processed submission.
type Outcome string

const (
	OutcomeCreated         Outcome = "created"
	OutcomeSkipped         Outcome = "skipped"
	OutcomeFailureRecorded Outcome = "failure_recorded"
)

// Pipeline validates, normalizes, deduplicates and persists inbound
// submissions, routing every failure to the dead-letter store.
type Pipeline struct {
	participants ParticipantStore
	deadletters  DeadLetterStore
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      audit.Publisher
}

type Option func(p *Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(p *Pipeline) { p.auditor = publisher }
}

// NewPipeline constructs the ingestion pipeline.
func NewPipeline(participants ParticipantStore, deadletters DeadLetterStore, opts ...Option) *Pipeline {
	p := &Pipeline{participants: participants, deadletters: deadletters}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one raw webhook payload through the pipeline.
//
// The only error it returns is the fatal class: the dead-letter write itself
// failed, so the submission could not be durably captured and the sender must
// retry. Every other failure degrades to OutcomeFailureRecorded.
func (p *Pipeline) Process(ctx context.Context, raw []byte) (Outcome, error) {
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return p.recordFailure(ctx, raw, sub, "malformed submission payload",
			ValidationDetail{"payload": err.Error()})
	}

	norm, detail := Validate(sub)
	if detail != nil {
		return p.recordFailure(ctx, raw, sub, "submission failed validation", detail)
	}

	// Dedup by (name, submitter email). The submitter's account email is the
	// identity, not the form-field email; the two may legitimately differ.
	exists, err := p.participants.ExistsByIdentity(ctx, norm.Name, norm.Email)
	if err != nil {
		return p.recordFailure(ctx, raw, sub, "participant lookup failed: "+err.Error(), nil)
	}
	if exists {
		p.metrics.IncrementSubmission(string(OutcomeSkipped))
		p.log(ctx, slog.LevelInfo, "submission deduplicated", "name", norm.Name, "email", norm.Email)
		return OutcomeSkipped, nil
	}

	now := requestcontext.Now(ctx)
	participant := &pmodels.Participant{
		Name:            norm.Name,
		Email:           norm.Email,
		Phone:           norm.Phone,
		TransactionID:   norm.TransactionID,
		PaymentProofURL: norm.PaymentProofURL,
		Status:          pmodels.StatusRegistered,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.participants.Create(ctx, participant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent identical submission; the store's
			// uniqueness enforcement is the final authority and a conflict is
			// equivalent to skipped.
			p.metrics.IncrementSubmission(string(OutcomeSkipped))
			return OutcomeSkipped, nil
		}
		return p.recordFailure(ctx, raw, sub, "participant insert failed: "+err.Error(), nil)
	}

	p.metrics.IncrementSubmission(string(OutcomeCreated))
	p.emitAudit(ctx, audit.ActionParticipantCreated, norm.Name+"|"+norm.Email, map[string]string{
		"source": "webhook",
	})
	p.log(ctx, slog.LevelInfo, "participant created", "name", norm.Name, "email", norm.Email)
	return OutcomeCreated, nil
}

// recordFailure persists a failure record with the raw payload verbatim and
// whatever fields extraction salvaged. The insert deliberately survives
// request cancellation: once the payload has been captured, losing it to a
// client timeout would violate the no-silent-drop contract.
func (p *Pipeline) recordFailure(ctx context.Context, raw []byte, sub Submission, reason string, detail ValidationDetail) (Outcome, error) {
	extracted := Extract(sub)
	rec := &dlmodels.FailureRecord{
		ID:              uuid.New(),
		RawPayload:      raw,
		Reason:          reason,
		Details:         detail,
		Name:            extracted.Name,
		Email:           extracted.Email,
		Phone:           extracted.Phone,
		TransactionID:   extracted.TransactionID,
		PaymentProofURL: extracted.PaymentProofURL,
		Status:          dlmodels.StatusPending,
		CreatedAt:       requestcontext.Now(ctx),
	}

	if err := p.deadletters.Insert(context.WithoutCancel(ctx), rec); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record submission failure")
	}

	p.metrics.IncrementSubmission(string(OutcomeFailureRecorded))
	p.emitAudit(ctx, audit.ActionDeadLetterCaptured, rec.ID.String(), map[string]string{
		"reason": reason,
	})
	p.log(ctx, slog.LevelWarn, "submission routed to dead letter",
		"failure_id", rec.ID.String(), "reason", reason)
	return OutcomeFailureRecorded, nil
}

func (p *Pipeline) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if p.logger == nil {
		return
	}
	attrs = append(attrs, "request_id", middleware.GetRequestID(ctx))
	p.logger.Log(ctx, level, msg, attrs...)
}

func (p *Pipeline) emitAudit(ctx context.Context, action, subject string, attrs map[string]string) {
	if p.auditor == nil {
		return
	}
	if err := p.auditor.Emit(ctx, audit.Event{
		Action:    action,
		Subject:   subject,
		Timestamp: requestcontext.Now(ctx),
		Attrs:     attrs,
	}); err != nil {
		p.log(ctx, slog.LevelWarn, "audit emit failed", "action", action, "error", err.Error())
	}
}
