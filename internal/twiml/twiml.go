// Package twiml builds Twilio call-control documents.
//
// All text and attribute values pass through encoding/xml, so callers never
// escape anything themselves.
package twiml

import (
	"bytes"
	"encoding/xml"
)

const (
	ContentType = "text/xml; charset=utf-8"

	// Voice is used for every Say verb.
	Voice = "alice"
)

// Response is an ordered list of verbs.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	NumDigits     int      `xml:"numDigits,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	SpeechModel   string   `xml:"speechModel,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	Prompts       []Say    `xml:"Say"`
}

type Dial struct {
	XMLName  xml.Name `xml:"Dial"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Number   string   `xml:"Number"`
}

type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func New() *Response { return &Response{} }

func (r *Response) Say(text string) *Response {
	r.Verbs = append(r.Verbs, Say{Voice: Voice, Text: text})
	return r
}

func (r *Response) Gather(g Gather) *Response {
	r.Verbs = append(r.Verbs, g)
	return r
}

func (r *Response) Dial(d Dial) *Response {
	r.Verbs = append(r.Verbs, d)
	return r
}

func (r *Response) Redirect(url string) *Response {
	r.Verbs = append(r.Verbs, Redirect{Method: "POST", URL: url})
	return r
}

func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, Hangup{})
	return r
}

// Append copies the verbs of other onto r.
func (r *Response) Append(other *Response) *Response {
	if other != nil {
		r.Verbs = append(r.Verbs, other.Verbs...)
	}
	return r
}

// DigitGather collects numDigits keypresses and posts them to action.
func DigitGather(action string, numDigits, timeoutSec int, prompt string) Gather {
	return Gather{
		NumDigits: numDigits,
		Action:    action,
		Method:    "POST",
		Timeout:   timeoutSec,
		Prompts:   []Say{{Voice: Voice, Text: prompt}},
	}
}

// SpeechGather transcribes one phone-call utterance and posts it to action.
func SpeechGather(action, prompt string) Gather {
	return Gather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		Timeout:       5,
		SpeechTimeout: "auto",
		SpeechModel:   "phone_call",
		Language:      "en-US",
		Prompts:       []Say{{Voice: Voice, Text: prompt}},
	}
}

// Render serializes r as a complete XML document.
func (r *Response) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Has reports whether a top-level verb with the given element name is present.
func (r *Response) Has(verb string) bool {
	for _, v := range r.Verbs {
		if verbName(v) == verb {
			return true
		}
	}
	return false
}

// DialedNumber returns the first Dial target, if any.
func (r *Response) DialedNumber() (string, bool) {
	for _, v := range r.Verbs {
		if d, ok := v.(Dial); ok {
			return d.Number, true
		}
	}
	return "", false
}

func verbName(v any) string {
	switch v.(type) {
	case Say:
		return "Say"
	case Gather:
		return "Gather"
	case Dial:
		return "Dial"
	case Redirect:
		return "Redirect"
	case Hangup:
		return "Hangup"
	}
	return ""
}
