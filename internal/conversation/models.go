package conversation

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance exchanged within a call.
//
// Invariants:
// - Turns are append-only per call and ordered by TurnNumber.
// - A user turn N is followed by an assistant turn N before turn N+1 begins.
// - SpeechConfidence and HandoffTriggered apply to user turns; Model to assistant turns.
type Turn struct {
	CallID     string `json:"call_id" db:"call_id"`
	TurnNumber int    `json:"turn_number" db:"turn_number"`
	Role       Role   `json:"role" db:"role"`
	Content    string `json:"content" db:"content"`

	SpeechConfidence *float64 `json:"speech_confidence,omitempty" db:"speech_confidence"`
	HandoffTriggered bool     `json:"handoff_triggered" db:"handoff_triggered"`
	Model            string   `json:"model,omitempty" db:"model"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message is the {role, content} projection fed to the dialogue model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Message projects t to its role and content.
func (t Turn) Message() Message {
	return Message{Role: t.Role, Content: t.Content}
}

var ErrInvalidTurn = errors.New("conversation: invalid turn")

func (t Turn) validate() error {
	if t.CallID == "" || t.TurnNumber < 1 || t.Content == "" {
		return ErrInvalidTurn
	}
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return ErrInvalidTurn
	}
	return nil
}

// PersistenceError reports that the datastore could not serve an operation.
type PersistenceError struct {
	Op     string
	CallID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("conversation: %s %s: %v", e.Op, e.CallID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
