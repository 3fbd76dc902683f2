package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"foreclosure-voice/internal/calls"
	"foreclosure-voice/internal/conversation"
	"foreclosure-voice/internal/hours"
	"foreclosure-voice/internal/rbac"
	"foreclosure-voice/internal/reporting"
	"foreclosure-voice/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CallReader is the subset of calls.Repository the read API needs.
type CallReader interface {
	Get(ctx context.Context, callID string) (calls.CallRecord, error)
}

type TurnReader interface {
	Turns(ctx context.Context, callID string) ([]conversation.Turn, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Calls   CallReader
	History TurnReader
	Reports *reporting.Service
}

// --- Calls ---

func (h Handlers) GetCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	callID := strings.TrimSpace(c.Param("call_id"))
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}
	rec, err := h.Calls.Get(c.Request.Context(), callID)
	if errors.Is(err, calls.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("call lookup failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListTurns returns the stored transcript of one call, in dialogue order.
// An unknown call yields an empty list.
func (h Handlers) ListTurns(c *gin.Context) {
	if h.History == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history not configured"})
		return
	}
	callID := strings.TrimSpace(c.Param("call_id"))
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}
	turns, err := h.History.Turns(c.Request.Context(), callID)
	if err != nil {
		logger.FromGin(c).Error("history lookup failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_id": callID, "turns": turns})
}

// --- Reports ---

func (h Handlers) CallsReport(c *gin.Context) {
	h.report(c, func(ctx context.Context, r reporting.TimeRange) (any, error) {
		return h.Reports.CallsSummary(ctx, r)
	})
}

func (h Handlers) AIOutcomesReport(c *gin.Context) {
	h.report(c, func(ctx context.Context, r reporting.TimeRange) (any, error) {
		return h.Reports.AIOutcomes(ctx, r)
	})
}

func (h Handlers) report(c *gin.Context, run func(context.Context, reporting.TimeRange) (any, error)) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reports not configured"})
		return
	}
	r, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := run(c.Request.Context(), r)
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("report failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

const dateLayout = "2006-01-02"

// parseRange accepts RFC 3339 instants or office-local dates.
// A date in "to" is inclusive: the range runs to the following midnight.
func parseRange(from, to string) (reporting.TimeRange, error) {
	if from == "" || to == "" {
		return reporting.TimeRange{}, errors.New("from and to are required")
	}
	f, _, err := parseInstant(from)
	if err != nil {
		return reporting.TimeRange{}, errors.New("from must be RFC 3339 or YYYY-MM-DD")
	}
	t, tDate, err := parseInstant(to)
	if err != nil {
		return reporting.TimeRange{}, errors.New("to must be RFC 3339 or YYYY-MM-DD")
	}
	if tDate {
		t = t.AddDate(0, 0, 1)
	}
	return reporting.TimeRange{From: f, To: t}, nil
}

func parseInstant(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, hours.Location())
	return t, true, err
}

// Convenience middleware bundles.

func ReadCalls() gin.HandlerFunc {
	return rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleAnalyst)
}

// ReadTranscripts is narrower than ReadCalls: transcripts hold what callers said.
func ReadTranscripts() gin.HandlerFunc {
	return rbac.RequireAnyRole(rbac.RoleAgent)
}

func ReadReports() gin.HandlerFunc {
	return rbac.RequireAnyRole(rbac.RoleAnalyst)
}
