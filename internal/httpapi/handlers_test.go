package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foreclosure-voice/internal/auth"
	"foreclosure-voice/internal/calls"
	"foreclosure-voice/internal/conversation"
	"foreclosure-voice/internal/reporting"

	"github.com/gin-gonic/gin"
)

type brokenTurns struct{}

func (brokenTurns) Turns(context.Context, string) ([]conversation.Turn, error) {
	return nil, errors.New("db down")
}

func newTestRouter(t *testing.T, h Handlers, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "staff-1", role))
		c.Next()
	})
	r.GET("/v1/calls/:call_id", ReadCalls(), h.GetCall)
	r.GET("/v1/calls/:call_id/turns", ReadTranscripts(), h.ListTurns)
	r.GET("/v1/reports/calls", ReadReports(), h.CallsReport)
	r.GET("/v1/reports/ai-outcomes", ReadReports(), h.AIOutcomesReport)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func fixtures(t *testing.T) Handlers {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)

	repo := calls.NewMemoryRepo()
	if _, err := repo.Create(ctx, calls.CallRecord{CallID: "CA1", FromNumber: "+15551230000", Status: calls.CallStatusRinging, Direction: calls.DirectionInbound, CreatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetOutcome(ctx, "CA1", calls.Outcome{Transferred: true, Reason: "Caller requested human agent"}, now); err != nil {
		t.Fatalf("outcome: %v", err)
	}

	history := conversation.NewMemoryStore()
	user := conversation.Turn{CallID: "CA1", TurnNumber: 1, Role: conversation.RoleUser, Content: "I need an agent"}
	bot := conversation.Turn{CallID: "CA1", TurnNumber: 1, Role: conversation.RoleAssistant, Content: "Transferring to human agent"}
	if err := history.AppendExchange(ctx, user, bot); err != nil {
		t.Fatalf("append: %v", err)
	}
	return Handlers{Calls: repo, History: history, Reports: reporting.NewService(repo)}
}

func TestGetCall(t *testing.T) {
	r := newTestRouter(t, fixtures(t), "analyst")

	w := get(r, "/v1/calls/CA1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var rec calls.CallRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rec.TransferredToHuman || rec.TransferReason == nil || *rec.TransferReason != "Caller requested human agent" {
		t.Fatalf("record = %+v", rec)
	}

	if w := get(r, "/v1/calls/CA404"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown call status = %d", w.Code)
	}
}

func TestListTurns(t *testing.T) {
	r := newTestRouter(t, fixtures(t), "agent")

	w := get(r, "/v1/calls/CA1/turns")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Turns []conversation.Turn `json:"turns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Turns) != 2 || body.Turns[0].Role != conversation.RoleUser || body.Turns[1].Role != conversation.RoleAssistant {
		t.Fatalf("turns = %+v", body.Turns)
	}
}

func TestListTurns_AnalystForbidden(t *testing.T) {
	r := newTestRouter(t, fixtures(t), "analyst")
	if w := get(r, "/v1/calls/CA1/turns"); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListTurns_StoreError(t *testing.T) {
	h := fixtures(t)
	h.History = brokenTurns{}
	r := newTestRouter(t, h, "agent")
	if w := get(r, "/v1/calls/CA1/turns"); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCallsReport(t *testing.T) {
	r := newTestRouter(t, fixtures(t), "analyst")

	w := get(r, "/v1/reports/calls?from=2024-03-05&to=2024-03-05")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var out reporting.CallsSummary
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalCalls != 1 || out.AIConversations != 1 || out.TransferredToHuman != 1 {
		t.Fatalf("summary = %+v", out)
	}

	w = get(r, "/v1/reports/ai-outcomes?from=2024-03-05T00:00:00Z&to=2024-03-06T00:00:00Z")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestCallsReport_BadRange(t *testing.T) {
	r := newTestRouter(t, fixtures(t), "admin")

	for _, q := range []string{
		"",
		"?from=yesterday&to=2024-03-05",
		"?from=2024-03-06&to=2024-03-01",
	} {
		if w := get(r, "/v1/reports/calls"+q); w.Code != http.StatusBadRequest {
			t.Fatalf("query %q: status = %d", q, w.Code)
		}
	}
}

func TestParseRange_DateIsInclusiveInOfficeTime(t *testing.T) {
	r, err := parseRange("2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := r.To.Sub(r.From); got != 24*time.Hour {
		t.Fatalf("span = %s", got)
	}
	if r.From.UTC().Hour() != 8 {
		t.Fatalf("from should be Pacific midnight (08:00 UTC in March), got %s", r.From.UTC())
	}
}
