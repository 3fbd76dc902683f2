package audit

import "time"

// Event is an immutable, append-only record of something operators need to
// see about a call after the fact.
//
// Events are best-effort: a failed append never blocks the call flow.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	CallID     string `json:"call_id,omitempty"`
	FromNumber string `json:"from_number,omitempty"`

	// Reason is a short machine-friendly cause, e.g. a transfer reason or a failed op.
	Reason string `json:"reason,omitempty"`
	// Message is a human-readable description; for handoffs it carries the
	// conversation summary for the agent picking up.
	Message string `json:"message,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeHandoff            EventType = "handoff"
	EventTypePersistenceFailure EventType = "persistence_failure"
	EventTypeLLMFallback        EventType = "llm_fallback"
)
