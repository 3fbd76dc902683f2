package llm

import (
	"strings"

	"foreclosure-voice/internal/conversation"
)

// SystemPrompt frames every completion.
const SystemPrompt = `You are a helpful, empathetic assistant for RepMotivatedSeller, a company that helps homeowners facing foreclosure.

Key Information About RepMotivatedSeller:
- We provide FREE foreclosure assistance consultations
- We help homeowners explore ALL options to save their home
- We guide them through the foreclosure process
- We work with lenders, provide legal resources, and offer solutions
- Website: repmotivatedseller.com
- Phone: 1-877-806-4677
- Available Monday-Friday, 9 AM - 5 PM Pacific Time

Your Role & Guidelines:
- Be warm, empathetic, and understanding - these callers are stressed
- Keep responses BRIEF (under 100 words) - this is a phone call
- Speak naturally and conversationally, avoid jargon
- Ask ONE clarifying question at a time
- Listen for emotional cues and respond appropriately
- NEVER make promises you can't keep
- Always offer to transfer to a specialist if they want

Common Caller Situations:
1. Behind on mortgage payments
2. Received foreclosure notice
3. Want to know their options
4. Need immediate help
5. Questions about the process

Transfer Triggers - If caller says:
- "I want to speak to someone"
- "Transfer me"
- "Can I talk to a person"
- Any variation of wanting human contact
Respond: "Of course, let me transfer you to one of our foreclosure specialists right away."

Remember: You're providing initial assistance and gathering info. For detailed help, transfer to specialists.`

// FallbackUtterance is spoken whenever the model cannot produce a usable reply.
const FallbackUtterance = "I'm here to help with your foreclosure situation. Could you tell me a bit more about what you're facing, or would you like me to transfer you to one of our specialists?"

const earlierSummaryLimit = 300

type promptMessage struct {
	Role    string
	Content string
}

// buildPrompt prepends the system prompt and keeps only the newest window
// messages. Caller utterances that fall outside the window are folded into a
// single summary system message.
func buildPrompt(history []conversation.Message, window int) []promptMessage {
	out := []promptMessage{{Role: "system", Content: SystemPrompt}}

	recent := history
	if window > 0 && len(history) > window {
		older := history[:len(history)-window]
		recent = history[len(history)-window:]
		if s := summarizeEarlier(older); s != "" {
			out = append(out, promptMessage{Role: "system", Content: s})
		}
	}
	for _, m := range recent {
		out = append(out, promptMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func summarizeEarlier(older []conversation.Message) string {
	var said []string
	for _, m := range older {
		if m.Role == conversation.RoleUser && strings.TrimSpace(m.Content) != "" {
			said = append(said, strings.TrimSpace(m.Content))
		}
	}
	if len(said) == 0 {
		return ""
	}
	joined := strings.Join(said, " | ")
	if r := []rune(joined); len(r) > earlierSummaryLimit {
		joined = string(r[:earlierSummaryLimit]) + "..."
	}
	return "Earlier in this call the caller said: " + joined
}
