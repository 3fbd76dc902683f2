package observability

import (
	"context"
	"time"

	"foreclosure-voice/internal/audit"
	"foreclosure-voice/pkg/logger"
)

// Sink receives persistence errors that the call flow deliberately ignores.
// Each one is logged, counted, and published as an audit event.
type Sink struct {
	metrics *Metrics
	audit   *audit.Service
}

func NewSink(m *Metrics, a *audit.Service) *Sink {
	return &Sink{metrics: m, audit: a}
}

func (s *Sink) PersistenceFailure(ctx context.Context, op, callID string, err error) {
	log := logger.From(ctx)
	log.Error("persistence failure", "op", op, "call_id", callID, "error", err)
	s.metrics.PersistenceFailure(op)

	if s.audit == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if aerr := s.audit.LogPersistenceFailure(actx, op, callID, err); aerr != nil {
		log.Warn("audit append failed", "error", aerr)
	}
}
