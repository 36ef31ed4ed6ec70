package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SubmissionsCreated prometheus.Counter
	SubmissionsSkipped prometheus.Counter
	SubmissionsFailed  prometheus.Counter
	Scans              *prometheus.CounterVec
	ImportRows         *prometheus.CounterVec
	DeadLetterResolved prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubmissionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_submissions_created_total",
			Help: "Webhook submissions that became a participant",
		}),
		SubmissionsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_submissions_skipped_total",
			Help: "Webhook submissions deduplicated against an existing participant",
		}),
		SubmissionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_submissions_failed_total",
			Help: "Webhook submissions routed to the dead-letter store",
		}),
		Scans: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_scans_total",
			Help: "Ticket scans by verification result",
		}, []string{"result"}),
		ImportRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_import_rows_total",
			Help: "Batch import rows by outcome",
		}, []string{"outcome"}),
		DeadLetterResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_deadletter_resolved_total",
			Help: "Dead-letter records promoted to participants",
		}),
	}
}

// IncrementSubmission records a webhook submission outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	if m == nil {
		return
	}
	switch outcome {
	case "created":
		m.SubmissionsCreated.Inc()
	case "skipped":
		m.SubmissionsSkipped.Inc()
	case "failure_recorded":
		m.SubmissionsFailed.Inc()
	}
}

// IncrementScan records a ticket scan by result kind.
func (m *Metrics) IncrementScan(result string) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(result).Inc()
}

// IncrementImportRow records a batch import row outcome.
func (m *Metrics) IncrementImportRow(outcome string) {
	if m == nil {
		return
	}
	m.ImportRows.WithLabelValues(outcome).Inc()
}

// IncrementDeadLetterResolved records a successful dead-letter promotion.
func (m *Metrics) IncrementDeadLetterResolved() {
	if m == nil {
		return
	}
	m.DeadLetterResolved.Inc()
}
