package ivr

import "foreclosure-voice/internal/twiml"

// Request is one webhook invocation, decoded at the HTTP boundary.
// Exactly one of InitialCall, MenuSelection, AITurn, FallbackCall.
type Request interface {
	callID() string
}

// InitialCall is the first webhook of a call.
type InitialCall struct {
	CallID string
	From   string
	To     string
}

// MenuSelection carries the digits pressed at a menu Gather.
type MenuSelection struct {
	CallID string
	From   string
	Digits string
}

// AITurn carries one transcribed utterance from the AI loop.
type AITurn struct {
	CallID string
	From   string
	Speech string
	// Confidence is the recognizer's score when the provider sent one.
	Confidence *float64
}

// FallbackCall is sent by the provider when the primary webhook failed.
type FallbackCall struct {
	CallID string
}

func (r InitialCall) callID() string   { return r.CallID }
func (r MenuSelection) callID() string { return r.CallID }
func (r AITurn) callID() string        { return r.CallID }
func (r FallbackCall) callID() string  { return r.CallID }

type State string

const (
	StateInitial           State = "initial"
	StateMenuPresented     State = "menu_presented"
	StateInfoDelivered     State = "info_delivered"
	StateConsultationInfo  State = "consultation_info"
	StateGeneralInfo       State = "general_info"
	StateAILoop            State = "ai_loop"
	StateVoicemailRedirect State = "voicemail_redirect"
	StateEmergencyInfo     State = "emergency_info"
	StateHumanTransfer     State = "human_transfer"
	StateEnded             State = "ended"
)

// Result is the state the call moved to and the markup that drives it there.
type Result struct {
	State    State
	Response *twiml.Response
}

// TechnicalDifficulties is returned, with an error status, whenever a request
// could not be handled.
func TechnicalDifficulties() *twiml.Response {
	return twiml.New().Say(technicalDifficulties).Hangup()
}
