package calls

import (
	"errors"
	"time"
)

// CallRecord is the metadata row kept for one inbound phone call.
//
// CallID is the provider-assigned call SID. Rows are created on the first
// webhook of a call and only ever updated afterwards.
type CallRecord struct {
	CallID     string `json:"call_id" db:"call_id"`
	FromNumber string `json:"from_number" db:"from_number"`
	ToNumber   string `json:"to_number" db:"to_number"`

	Status    CallStatus `json:"status" db:"status"`
	Direction Direction  `json:"direction" db:"direction"`

	// MenuSelection is the last IVR digit pressed, if any.
	MenuSelection *string `json:"menu_selection,omitempty" db:"menu_selection"`

	UsedAIConversation bool    `json:"used_ai_conversation" db:"used_ai_conversation"`
	TransferredToHuman bool    `json:"transferred_to_human" db:"transferred_to_human"`
	TransferReason     *string `json:"transfer_reason,omitempty" db:"transfer_reason"`

	AnsweredAt time.Time `json:"answered_at" db:"answered_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// Terminal statuses are never moved back to an active one.
func (s CallStatus) Terminal() bool {
	return s == CallStatusCompleted || s == CallStatusFailed
}

func (s CallStatus) Valid() bool {
	switch s {
	case CallStatusRinging, CallStatusInProgress, CallStatusCompleted, CallStatusFailed:
		return true
	}
	return false
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Outcome is what the AI conversation did with the call.
type Outcome struct {
	Transferred bool
	Reason      string
}

var (
	ErrNotFound     = errors.New("calls: not found")
	ErrInvalidInput = errors.New("calls: invalid input")
)
