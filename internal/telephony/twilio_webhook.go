package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"foreclosure-voice/internal/ivr"
)

// TwilioForm captures the voice webhook fields the IVR reads.
// Twilio posts application/x-www-form-urlencoded.
type TwilioForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	Digits       string
	SpeechResult string
	Confidence   string
	CallStatus   string
}

func ParseTwilioForm(r *http.Request) (TwilioForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioForm{}, err
	}
	return TwilioForm{
		CallSid:      strings.TrimSpace(r.PostFormValue("CallSid")),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         normalizePhone(r.PostFormValue("From")),
		To:           normalizePhone(r.PostFormValue("To")),
		Digits:       strings.TrimSpace(r.PostFormValue("Digits")),
		SpeechResult: r.PostFormValue("SpeechResult"),
		Confidence:   r.PostFormValue("Confidence"),
		CallStatus:   strings.TrimSpace(r.PostFormValue("CallStatus")),
	}, nil
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}

func (f TwilioForm) InitialCall() ivr.InitialCall {
	return ivr.InitialCall{CallID: f.CallSid, From: f.From, To: f.To}
}

func (f TwilioForm) MenuSelection() ivr.MenuSelection {
	return ivr.MenuSelection{CallID: f.CallSid, From: f.From, Digits: f.Digits}
}

func (f TwilioForm) AITurn() ivr.AITurn {
	return ivr.AITurn{CallID: f.CallSid, From: f.From, Speech: f.SpeechResult, Confidence: parseConfidence(f.Confidence)}
}

func (f TwilioForm) FallbackCall() ivr.FallbackCall {
	return ivr.FallbackCall{CallID: f.CallSid}
}

// parseConfidence returns nil for a missing or malformed score.
func parseConfidence(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return nil
	}
	return &v
}
