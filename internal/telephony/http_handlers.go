package telephony

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"foreclosure-voice/internal/calls"
	"foreclosure-voice/internal/ivr"
	"foreclosure-voice/internal/observability"
	"foreclosure-voice/internal/twiml"
	"foreclosure-voice/pkg/logger"
)

// Router is the state machine the webhooks delegate to.
type Router interface {
	Handle(ctx context.Context, req ivr.Request) (ivr.Result, error)
}

type StatusRecorder interface {
	UpdateStatus(ctx context.Context, callID string, status calls.CallStatus) error
}

// WebhookHandler decodes Twilio webhooks into IVR requests and writes TwiML.
// Routing decisions live in ivr; nothing here branches on call state.
type WebhookHandler struct {
	Router  Router
	Status  StatusRecorder
	Metrics *observability.Metrics
}

func (h WebhookHandler) InitialCall(c *gin.Context) {
	h.serve(c, "initial", func(f TwilioForm) ivr.Request { return f.InitialCall() })
}

func (h WebhookHandler) Menu(c *gin.Context) {
	h.serve(c, "menu", func(f TwilioForm) ivr.Request { return f.MenuSelection() })
}

// AIConversation serves both /ai-conversation and /continue.
func (h WebhookHandler) AIConversation(c *gin.Context) {
	h.serve(c, "ai_conversation", func(f TwilioForm) ivr.Request { return f.AITurn() })
}

func (h WebhookHandler) Fallback(c *gin.Context) {
	h.serve(c, "fallback", func(f TwilioForm) ivr.Request { return f.FallbackCall() })
}

func (h WebhookHandler) serve(c *gin.Context, route string, decode func(TwilioForm) ivr.Request) {
	log := logger.FromGin(c)
	if h.Router == nil {
		_ = c.Error(fmt.Errorf("telephony: router not configured"))
		writeApology(c, http.StatusInternalServerError)
		return
	}

	form, err := ParseTwilioForm(c.Request)
	if err != nil {
		log.Warn("twilio webhook parse failed", "err", err)
		// The caller still hears something; a 4xx here would drop the call.
		form = TwilioForm{}
	}

	ctx := logger.With(c.Request.Context(), log.With("call_sid", form.CallSid))
	res, err := h.Router.Handle(ctx, decode(form))
	if err != nil {
		_ = c.Error(err)
		log.Error("webhook handling failed", "route", route, "err", err)
		h.Metrics.Webhook(route, "error")
		writeApology(c, http.StatusInternalServerError)
		return
	}

	body, err := res.Response.Render()
	if err != nil {
		_ = c.Error(err)
		log.Error("twiml render failed", "route", route, "err", err)
		h.Metrics.Webhook(route, "error")
		writeApology(c, http.StatusInternalServerError)
		return
	}

	h.Metrics.Webhook(route, string(res.State))
	c.Data(http.StatusOK, twiml.ContentType, body)
}

// CallStatus handles the provider's status callback. It always answers 204
// so the provider never retries.
func (h WebhookHandler) CallStatus(c *gin.Context) {
	log := logger.FromGin(c)
	form, err := ParseTwilioForm(c.Request)
	if err != nil {
		log.Warn("status callback parse failed", "err", err)
		c.Status(http.StatusNoContent)
		return
	}

	status, ok := MapCallStatus(form.CallStatus)
	if !ok {
		log.Warn("unknown call status", "call_sid", form.CallSid, "status", form.CallStatus)
		c.Status(http.StatusNoContent)
		return
	}
	if h.Status != nil && form.CallSid != "" {
		ctx := logger.With(c.Request.Context(), log)
		_ = h.Status.UpdateStatus(ctx, form.CallSid, status)
	}
	h.Metrics.Webhook("status", string(status))
	c.Status(http.StatusNoContent)
}

// MapCallStatus folds Twilio's call statuses onto the call-log statuses.
func MapCallStatus(s string) (calls.CallStatus, bool) {
	switch s {
	case "queued", "ringing":
		return calls.CallStatusRinging, true
	case "in-progress":
		return calls.CallStatusInProgress, true
	case "completed":
		return calls.CallStatusCompleted, true
	case "busy", "failed", "no-answer", "canceled":
		return calls.CallStatusFailed, true
	}
	return "", false
}
