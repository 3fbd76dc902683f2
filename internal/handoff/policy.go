// Package handoff decides when the AI loop gives the caller to a human.
package handoff

import (
	"strings"

	"foreclosure-voice/internal/conversation"
)

// DefaultKeywords trigger a transfer when heard anywhere in an utterance.
var DefaultKeywords = []string{
	"agent",
	"human",
	"representative",
	"speak to someone",
	"talk to person",
	"real person",
}

const DefaultMaxTurns = 20

const summaryLimit = 200

type Policy struct {
	keywords []string
	maxTurns int
}

// NewPolicy normalizes keywords to trimmed lower case and drops blanks.
// A nil keyword slice selects DefaultKeywords; maxTurns <= 0 selects DefaultMaxTurns.
func NewPolicy(keywords []string, maxTurns int) Policy {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	p := Policy{maxTurns: maxTurns}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			p.keywords = append(p.keywords, k)
		}
	}
	return p
}

func (p Policy) MaxTurns() int { return p.maxTurns }

// ShouldHandoff reports whether the caller asked for a person.
func (p Policy) ShouldHandoff(utterance string) bool {
	if utterance == "" {
		return false
	}
	lower := strings.ToLower(utterance)
	for _, k := range p.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// HasExceededMaxTurns is true once turn reaches the ceiling.
func (p Policy) HasExceededMaxTurns(turn int) bool {
	return turn >= p.maxTurns
}

// TurnNumber is the turn about to be taken given the number of stored messages.
func TurnNumber(historyLen int) int {
	return historyLen/2 + 1
}

// Summary condenses the caller's side of a conversation for the agent taking over.
func Summary(history []conversation.Message) string {
	var said []string
	for _, m := range history {
		if m.Role == conversation.RoleUser {
			said = append(said, m.Content)
		}
	}
	joined := strings.Join(said, " | ")
	if len(joined) > summaryLimit {
		joined = truncate(joined, summaryLimit) + "..."
	}
	return "Caller discussed: " + joined
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
