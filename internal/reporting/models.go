package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

// CallsSummary aggregates call_log rows created inside Range.
type CallsSummary struct {
	Range TimeRange `json:"range"`

	TotalCalls      int `json:"total_calls"`
	RingingCalls    int `json:"ringing_calls"`
	InProgressCalls int `json:"in_progress_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`

	// MenuSelections counts the last digit pressed per call; "none" when the caller never chose.
	MenuSelections map[string]int `json:"menu_selections"`

	AIConversations    int `json:"ai_conversations"`
	TransferredToHuman int `json:"transferred_to_human"`
}

// AIOutcomes describes how AI conversations ended.
// Containment is the share of AI calls that never reached an agent.
type AIOutcomes struct {
	Range TimeRange `json:"range"`

	AIConversations int            `json:"ai_conversations"`
	Contained       int            `json:"contained"`
	Transferred     int            `json:"transferred"`
	TransferReasons map[string]int `json:"transfer_reasons"`

	ContainmentRate float64 `json:"containment_rate"`
	TransferRate    float64 `json:"transfer_rate"`
}
