package models

import "time"

// Status is the operator-facing lifecycle of a participant. It is orthogonal
// to attendance: a participant can be verified without having attended.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusVerified   Status = "verified"
)

// Participant is identified by the (name, email) pair across all entry paths
// (webhook, batch import, dead-letter promotion). No surrogate key is exposed
// to the core.
type Participant struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	TransactionID   string     `json:"transaction_id,omitempty"`
	PaymentProofURL string     `json:"payment_proof_url,omitempty"`
	Status          Status     `json:"status"`
	Attended        bool       `json:"attended"`
	TicketSent      bool       `json:"ticket_sent"`
	TicketSentAt    *time.Time `json:"ticket_sent_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// New builds a participant in its initial state.
func New(name, email string, now time.Time) *Participant {
	return &Participant{
		Name:      name,
		Email:     email,
		Status:    StatusRegistered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ToggleStatus flips between registered and verified. Reversible on purpose:
// operators use it to correct mistaken verifications.
func (p *Participant) ToggleStatus() {
	if p.Status == StatusVerified {
		p.Status = StatusRegistered
		return
	}
	p.Status = StatusVerified
}
