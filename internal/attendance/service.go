// Package attendance drives the gate check-in state machine: a scanned token
// is verified against the signing secret, matched to a participant, and the
// attended flag is flipped at most once.
package attendance

import (
	"context"
	"errors"
	"log/slog"

	"gatepass/internal/audit"
	pmodels "gatepass/internal/participant/models"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/middleware"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// ParticipantStore is the slice of the participant repository the service
// needs.
type ParticipantStore interface {
	FindByIdentity(ctx context.Context, name, email string) (*pmodels.Participant, error)
	UpdateAttendance(ctx context.Context, name, email string, attended bool) error
	UpdateStatus(ctx context.Context, name, email string, status pmodels.Status) error
}

// Verifier checks token signatures; implemented by the ticket codec.
type Verifier interface {
	Verify(name, email, sig string) bool
}

// ResultKind discriminates scan outcomes. InvalidSignature ("fake ticket")
// and Unregistered ("legitimate ticket, no record") are deliberately
// distinct so gate operators can tell them apart.
type ResultKind string

const (
	KindInvalidSignature ResultKind = "invalid_signature"
	KindUnregistered     ResultKind = "unregistered"
	KindAlreadyAttended  ResultKind = "already_attended"
	KindMarked           ResultKind = "marked"
)

// Result is the outcome of one scan. Participant is set for the
// already_attended and marked kinds so the scanning client can display
// status without a second lookup.
type Result struct {
	Kind        ResultKind           `json:"result"`
	Participant *pmodels.Participant `json:"participant,omitempty"`
}

// Service performs token verification and the attendance transition.
type Service struct {
	participants ParticipantStore
	verifier     Verifier
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

// New constructs the attendance service.
func New(participants ParticipantStore, verifier Verifier, opts ...Option) *Service {
	s := &Service{participants: participants, verifier: verifier}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyAndMark runs one scan through the state machine.
//
// Safe to call concurrently for the same participant: the attended check is
// a read-then-conditional-write, so whichever concurrent scan lands first
// wins and later scans observe already_attended. The only mutated field is a
// monotonic boolean, so last-write-wins is harmless.
func (s *Service) VerifyAndMark(ctx context.Context, name, email, sig string) (*Result, error) {
	if !s.verifier.Verify(name, email, sig) {
		s.metrics.IncrementScan(string(KindInvalidSignature))
		return &Result{Kind: KindInvalidSignature}, nil
	}

	p, err := s.participants.FindByIdentity(ctx, name, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Valid signature, no record: a legitimate ticket for someone who
			// never completed registration. No state change.
			s.metrics.IncrementScan(string(KindUnregistered))
			return &Result{Kind: KindUnregistered}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up participant")
	}

	if p.Attended {
		s.metrics.IncrementScan(string(KindAlreadyAttended))
		return &Result{Kind: KindAlreadyAttended, Participant: p}, nil
	}

	if err := s.participants.UpdateAttendance(ctx, name, email, true); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark attendance")
	}
	p.Attended = true

	s.metrics.IncrementScan(string(KindMarked))
	s.emitAudit(ctx, audit.ActionAttendanceMarked, name+"|"+email)
	s.log(ctx, "attendance marked", "name", name, "email", email)
	return &Result{Kind: KindMarked, Participant: p}, nil
}

// ToggleVerifiedStatus flips a participant between registered and verified.
// Operator-facing and reversible; no signature involved.
func (s *Service) ToggleVerifiedStatus(ctx context.Context, name, email string) (*pmodels.Participant, error) {
	p, err := s.participants.FindByIdentity(ctx, name, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up participant")
	}

	p.ToggleStatus()
	if err := s.participants.UpdateStatus(ctx, name, email, p.Status); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update status")
	}

	s.log(ctx, "status toggled", "name", name, "email", email, "status", string(p.Status))
	return p, nil
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
