// Package audit captures structured audit events for the intake and
// verification pipeline. Services emit events through a Publisher; deployment
// decides whether they land in Kafka or nowhere.
package audit

import "time"

// Actions emitted by the core services.
const (
	ActionParticipantCreated = "participant.created"
	ActionAttendanceMarked   = "attendance.marked"
	ActionDeadLetterCaptured = "deadletter.captured"
	ActionDeadLetterResolved = "deadletter.resolved"
)

// Event is a single audit fact. Subject identifies the affected entity
// (participant identity or failure-record id).
type Event struct {
	Action    string            `json:"action"`
	Subject   string            `json:"subject"`
	Timestamp time.Time         `json:"timestamp"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}
