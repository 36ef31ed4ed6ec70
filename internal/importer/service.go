// Package importer loads participants in bulk from operator-supplied CSV
// exports. Import is additive and idempotent: rows matching an existing
// (name, email) identity are skipped, never overwritten, so re-running the
// same file is safe.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"gatepass/internal/audit"
	pmodels "gatepass/internal/participant/models"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/middleware"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/sentinel"
	platformstrings "gatepass/pkg/platform/strings"
	"gatepass/pkg/requestcontext"
)

// ParticipantStore is the repository slice the importer needs.
type ParticipantStore interface {
	Create(ctx context.Context, p *pmodels.Participant) error
}

// RowError describes one rejected row. Row is the 1-based line number in the
// file, counting the header, so it matches what operators see in a
// spreadsheet.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Report summarizes one import run. Added + Skipped + Errored equals the
// number of data rows in the file.
type Report struct {
	Added   int        `json:"added"`
	Skipped int        `json:"skipped"`
	Errored int        `json:"errored"`
	Errors  []RowError `json:"errors,omitempty"`
}

// Column header aliases, matched case-insensitively after trimming. The
// phone spellings mirror the webhook form variants.
var (
	nameHeaders  = []string{"name", "full name", "fullname"}
	emailHeaders = []string{"email", "college email", "collegeemail", "email address"}
	phoneHeaders = []string{"phone", "phone number", "phonenumber"}
	txnHeaders   = []string{"transaction id", "transactionid", "txn"}
	proofHeaders = []string{"payment proof", "payment proof url", "paymentscreenshot", "payment screenshot"}
)

type columnMap struct {
	name, email, phone, txn, proof int
}

// Service performs CSV imports.
type Service struct {
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

// New constructs the import service.
func New(participants ParticipantStore, opts ...Option) *Service {
	s := &Service{participants: participants}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import reads a CSV stream and registers every well-formed row. Row-level
// problems land in the report, not in the returned error; the error is
// reserved for files that cannot be processed at all (unreadable CSV, missing
// required columns, no data rows).
func (s *Service) Import(ctx context.Context, r io.Reader) (*Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeValidation, "csv file is empty")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable csv header")
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	row := 1 // the header occupies row 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			report.reject(row, "unparseable row")
			s.metrics.IncrementImportRow("errored")
			continue
		}

		p, rowErr := s.buildParticipant(ctx, cols, record)
		if rowErr != "" {
			report.reject(row, rowErr)
			s.metrics.IncrementImportRow("errored")
			continue
		}

		switch err := s.participants.Create(ctx, p); {
		case err == nil:
			report.Added++
			s.metrics.IncrementImportRow("added")
			s.emitAudit(ctx, audit.ActionParticipantCreated, p.Name+"|"+p.Email)
		case errors.Is(err, sentinel.ErrConflict):
			report.Skipped++
			s.metrics.IncrementImportRow("skipped")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store participant")
		}
	}

	if report.Added+report.Skipped+report.Errored == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "csv file has no data rows")
	}

	s.log(ctx, "import finished",
		"added", report.Added,
		"skipped", report.Skipped,
		"errored", report.Errored,
	)
	return report, nil
}

func (s *Service) buildParticipant(ctx context.Context, cols columnMap, record []string) (*pmodels.Participant, string) {
	name := platformstrings.TitleCaseName(cell(record, cols.name))
	email := strings.TrimSpace(cell(record, cols.email))
	phone := strings.TrimSpace(cell(record, cols.phone))

	if name == "" {
		return nil, "missing name"
	}
	if email == "" {
		return nil, "missing email"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Sprintf("invalid email %q", email)
	}
	if phone == "" {
		return nil, "missing phone"
	}

	p := pmodels.New(name, email, requestcontext.Now(ctx))
	p.Phone = phone
	p.TransactionID = strings.TrimSpace(cell(record, cols.txn))
	p.PaymentProofURL = strings.TrimSpace(cell(record, cols.proof))
	return p, ""
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{name: -1, email: -1, phone: -1, txn: -1, proof: -1}
	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.name == -1 && matches(h, nameHeaders):
			cols.name = i
		case cols.email == -1 && matches(h, emailHeaders):
			cols.email = i
		case cols.phone == -1 && matches(h, phoneHeaders):
			cols.phone = i
		case cols.txn == -1 && matches(h, txnHeaders):
			cols.txn = i
		case cols.proof == -1 && matches(h, proofHeaders):
			cols.proof = i
		}
	}
	if cols.name == -1 || cols.email == -1 {
		return cols, dErrors.New(dErrors.CodeValidation, "csv header must contain name and email columns")
	}
	return cols, nil
}

func matches(h string, aliases []string) bool {
	for _, a := range aliases {
		if h == a {
			return true
		}
	}
	return false
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func (r *Report) reject(row int, message string) {
	r.Errored++
	r.Errors = append(r.Errors, RowError{Row: row, Message: message})
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
