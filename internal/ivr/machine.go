// Package ivr is the call-routing state machine behind the voice webhooks.
//
// Each webhook is handled in isolation: anything one turn needs from an
// earlier one is read back from the conversation store.
package ivr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foreclosure-voice/internal/calls"
	"foreclosure-voice/internal/conversation"
	"foreclosure-voice/internal/handoff"
	"foreclosure-voice/internal/hours"
	"foreclosure-voice/internal/llm"
	"foreclosure-voice/internal/observability"
	"foreclosure-voice/internal/throttle"
	"foreclosure-voice/internal/twiml"
	"foreclosure-voice/pkg/logger"
)

var (
	ErrUnknownRequest = errors.New("ivr: unknown request")
	ErrInvalidConfig  = errors.New("ivr: invalid config")
)

// Config is built once at startup and never read from the environment here.
type Config struct {
	// AgentNumber is dialed for every human transfer.
	AgentNumber string
	// CallerID is presented to the agent on transfer.
	CallerID string
	// BaseURL is the public origin the provider posts callbacks to.
	BaseURL      string
	VoicemailURL string
}

// CallRecorder records call metadata. Implementations report their own
// failures; the machine ignores returned errors.
type CallRecorder interface {
	Create(ctx context.Context, callID, from, to string, status calls.CallStatus) error
	RecordMenuSelection(ctx context.Context, callID, digit string) error
	RecordConversationOutcome(ctx context.Context, callID string, o calls.Outcome) error
}

type Replier interface {
	Reply(ctx context.Context, history []conversation.Message) (llm.Reply, error)
}

type Auditor interface {
	LogHandoff(ctx context.Context, callID, from, reason, summary string) error
	LogLLMFallback(ctx context.Context, callID, model string) error
}

type Deps struct {
	Calls   CallRecorder
	History conversation.Store
	LLM     Replier
	Policy  handoff.Policy
	Slots   throttle.Limiter
	Audit   Auditor
	Sink    calls.FailureSink
	Metrics *observability.Metrics
	Now     func() time.Time
}

type Machine struct {
	cfg Config
	d   Deps
}

func NewMachine(cfg Config, d Deps) (*Machine, error) {
	if cfg.VoicemailURL == "" {
		return nil, fmt.Errorf("%w: voicemail url is required", ErrInvalidConfig)
	}
	if cfg.AgentNumber == "" {
		return nil, fmt.Errorf("%w: agent number is required", ErrInvalidConfig)
	}
	if d.Slots == nil {
		d.Slots = throttle.Unlimited{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Machine{cfg: cfg, d: d}, nil
}

// Handle routes one webhook request. A non-nil error means the request
// could not be handled at all; the caller answers with TechnicalDifficulties.
func (m *Machine) Handle(ctx context.Context, req Request) (Result, error) {
	switch r := req.(type) {
	case InitialCall:
		return m.initial(ctx, r), nil
	case MenuSelection:
		return m.menu(ctx, r), nil
	case AITurn:
		return m.aiTurn(ctx, r), nil
	case FallbackCall:
		return Result{State: StateEnded, Response: twiml.New().Say(fallbackGreeting).Hangup()}, nil
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownRequest, req)
	}
}

func (m *Machine) url(path string) string { return m.cfg.BaseURL + path }

// transfer dials the agent line and apologizes if nobody picks up.
func (m *Machine) transfer() *twiml.Response {
	return twiml.New().
		Say(transferIntro).
		Dial(twiml.Dial{Timeout: 30, CallerID: m.cfg.CallerID, Number: m.cfg.AgentNumber}).
		Say(transferBusy).
		Hangup()
}

func (m *Machine) initial(ctx context.Context, r InitialCall) Result {
	st := hours.Check(m.d.Now())
	logger.From(ctx).Info("initial call",
		"call_id", r.CallID,
		"open", st.IsOpen,
		"day", st.DayOfWeek,
		"local_time", st.LocalTime.Format("15:04:05"),
	)

	_ = m.d.Calls.Create(ctx, r.CallID, r.From, r.To, calls.CallStatusRinging)

	menu := m.url("/menu")
	resp := twiml.New()
	if st.IsOpen {
		resp.Say(hours.OpenGreeting()).
			Gather(twiml.DigitGather(menu, 1, 10, openMenuPrompt)).
			Say(noSelectionTransfer).
			Append(m.transfer())
	} else {
		resp.Say(hours.AfterHoursGreeting(st)).
			Gather(twiml.DigitGather(menu, 1, 10, closedMenuPrompt)).
			Say(noSelectionVoicemail).
			Redirect(m.cfg.VoicemailURL)
	}
	return Result{State: StateMenuPresented, Response: resp}
}

func (m *Machine) menu(ctx context.Context, r MenuSelection) Result {
	logger.From(ctx).Info("menu selection", "call_id", r.CallID, "digits", r.Digits)
	if r.CallID != "" {
		_ = m.d.Calls.RecordMenuSelection(ctx, r.CallID, r.Digits)
	}

	switch r.Digits {
	case "0":
		m.d.Metrics.Handoff(ReasonMenuTransfer)
		return Result{State: StateHumanTransfer, Response: m.transfer()}
	case "1":
		return Result{State: StateInfoDelivered, Response: twiml.New().Say(foreclosureInfo).Say(goodbye).Hangup()}
	case "2":
		st := hours.Check(m.d.Now())
		if st.IsOpen {
			return Result{State: StateConsultationInfo, Response: twiml.New().Say(consultationInfo).Say(goodbye).Hangup()}
		}
		resp := twiml.New().
			Say(closedHoursInfo(st)).
			Gather(twiml.DigitGather(m.url("/menu"), 1, 5, hoursPromptVoicemail)).
			Say(goodbye).
			Hangup()
		return Result{State: StateConsultationInfo, Response: resp}
	case "3":
		return Result{State: StateGeneralInfo, Response: twiml.New().Say(generalInfo).Say(goodbye).Hangup()}
	case "4":
		resp := twiml.New().
			Say(aiIntro).
			Gather(twiml.SpeechGather(m.url("/ai-conversation"), aiPrompt)).
			Say(noSpeech).
			Hangup()
		return Result{State: StateAILoop, Response: resp}
	case "5":
		return Result{State: StateVoicemailRedirect, Response: twiml.New().Redirect(m.cfg.VoicemailURL)}
	case "9":
		resp := twiml.New().
			Say(emergencyInfo).
			Gather(twiml.DigitGather(m.url("/menu"), 1, 5, emergencyPrompt)).
			Say(emergencyClosing).
			Hangup()
		return Result{State: StateEmergencyInfo, Response: resp}
	default:
		return Result{State: StateEnded, Response: twiml.New().Say(invalidSelection).Hangup()}
	}
}

func (m *Machine) aiTurn(ctx context.Context, r AITurn) Result {
	log := logger.From(ctx).With("call_id", r.CallID)
	speech := strings.TrimSpace(r.Speech)
	if speech == "" {
		log.Info("no speech received")
		return Result{State: StateEnded, Response: twiml.New().Say(noSpeech).Hangup()}
	}

	history := m.loadHistory(ctx, r.CallID)
	turn := handoff.TurnNumber(len(history))

	if m.d.Policy.ShouldHandoff(speech) {
		log.Info("handoff requested", "turn", turn)
		m.appendExchange(ctx,
			m.userTurn(r, speech, turn, true),
			conversation.Turn{CallID: r.CallID, TurnNumber: turn, Role: conversation.RoleAssistant, Content: handoffAck},
		)
		said := append(history, conversation.Message{Role: conversation.RoleUser, Content: speech})
		m.handoff(ctx, r, ReasonCallerRequest, said)
		return Result{State: StateHumanTransfer, Response: m.transfer()}
	}

	if m.d.Policy.HasExceededMaxTurns(turn) {
		log.Info("max turns reached", "turn", turn)
		m.handoff(ctx, r, ReasonMaxTurns, history)
		return Result{State: StateHumanTransfer, Response: twiml.New().Say(maxTurnsIntro).Append(m.transfer())}
	}

	prompt := append(history, conversation.Message{Role: conversation.RoleUser, Content: speech})

	release, ok := m.d.Slots.Acquire(ctx)
	if !ok {
		m.d.Metrics.LLMCall("throttled", 0)
		return m.aiUnavailable(ctx, r, prompt)
	}
	reply, err := m.d.LLM.Reply(ctx, prompt)
	release()
	if err != nil {
		log.Error("llm reply failed", "turn", turn, "error", err)
		m.d.Metrics.LLMCall("unavailable", reply.Latency)
		return m.aiUnavailable(ctx, r, prompt)
	}

	outcome := "ok"
	if reply.Fallback {
		outcome = "fallback"
		if m.d.Audit != nil {
			_ = m.d.Audit.LogLLMFallback(ctx, r.CallID, reply.Model)
		}
	}
	m.d.Metrics.LLMCall(outcome, reply.Latency)

	m.appendExchange(ctx,
		m.userTurn(r, speech, turn, false),
		conversation.Turn{CallID: r.CallID, TurnNumber: turn, Role: conversation.RoleAssistant, Content: reply.Text, Model: reply.Model},
	)
	_ = m.d.Calls.RecordConversationOutcome(ctx, r.CallID, calls.Outcome{})

	log.Info("ai turn complete", "turn", turn, "fallback", reply.Fallback)
	resp := twiml.New().
		Say(reply.Text).
		Gather(twiml.SpeechGather(m.url("/continue"), continuePrompt)).
		Say(aiClosing).
		Hangup()
	return Result{State: StateAILoop, Response: resp}
}

func (m *Machine) aiUnavailable(ctx context.Context, r AITurn, said []conversation.Message) Result {
	m.handoff(ctx, r, ReasonAIUnavailable, said)
	return Result{State: StateHumanTransfer, Response: twiml.New().Say(aiErrorIntro).Append(m.transfer())}
}

// handoff records a transfer out of the AI loop on the call log, in metrics,
// and as an audit event carrying what the caller said.
func (m *Machine) handoff(ctx context.Context, r AITurn, reason string, said []conversation.Message) {
	_ = m.d.Calls.RecordConversationOutcome(ctx, r.CallID, calls.Outcome{Transferred: true, Reason: reason})
	m.d.Metrics.Handoff(reason)
	if m.d.Audit == nil {
		return
	}
	if err := m.d.Audit.LogHandoff(ctx, r.CallID, r.From, reason, handoff.Summary(said)); err != nil {
		logger.From(ctx).Warn("audit append failed", "error", err)
	}
}

func (m *Machine) userTurn(r AITurn, speech string, turn int, handoffTriggered bool) conversation.Turn {
	return conversation.Turn{
		CallID:           r.CallID,
		TurnNumber:       turn,
		Role:             conversation.RoleUser,
		Content:          speech,
		SpeechConfidence: r.Confidence,
		HandoffTriggered: handoffTriggered,
	}
}

// loadHistory proceeds with an empty history when the store is unreachable.
func (m *Machine) loadHistory(ctx context.Context, callID string) []conversation.Message {
	if callID == "" {
		return nil
	}
	h, err := m.d.History.Load(ctx, callID)
	if err != nil {
		m.fail(ctx, "load_history", callID, err)
		return nil
	}
	return h
}

func (m *Machine) appendExchange(ctx context.Context, user, assistant conversation.Turn) {
	if user.CallID == "" {
		return
	}
	if err := m.d.History.AppendExchange(ctx, user, assistant); err != nil {
		m.fail(ctx, "append_exchange", user.CallID, err)
	}
}

func (m *Machine) fail(ctx context.Context, op, callID string, err error) {
	if m.d.Sink != nil {
		m.d.Sink.PersistenceFailure(ctx, op, callID, err)
		return
	}
	logger.From(ctx).Error("persistence failure", "op", op, "call_id", callID, "error", err)
}
