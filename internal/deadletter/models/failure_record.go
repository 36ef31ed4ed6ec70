package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the triage lifecycle of a failure record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusIgnored  Status = "ignored"
)

// FailureRecord captures a webhook submission that could not be normalized
// into a participant. The raw payload is preserved verbatim for audit and
// replay; the extracted fields are best-effort and may be partially empty.
//
// Invariant: ResolvedAt is non-nil iff Status == StatusResolved.
type FailureRecord struct {
	ID              uuid.UUID         `json:"id"`
	RawPayload      json.RawMessage   `json:"raw_payload"`
	Reason          string            `json:"reason"`
	Details         map[string]string `json:"details,omitempty"`
	Name            string            `json:"name,omitempty"`
	Email           string            `json:"email,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	PaymentProofURL string            `json:"payment_proof_url,omitempty"`
	Status          Status            `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ResolvedAt      *time.Time        `json:"resolved_at,omitempty"`
}

// Promotable reports whether the record carries enough extracted data to be
// turned into a participant.
func (r *FailureRecord) Promotable() bool {
	return r.Name != "" && r.Email != ""
}

// MarkResolved applies the resolved transition.
func (r *FailureRecord) MarkResolved(now time.Time) {
	r.Status = StatusResolved
	r.ResolvedAt = &now
}
