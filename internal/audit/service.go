package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.Type != EventTypePersistenceFailure && e.CallID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogHandoff records a transfer from the AI loop to a human agent.
func (s *Service) LogHandoff(ctx context.Context, callID, from, reason, summary string) error {
	return s.Append(ctx, Event{
		Type:       EventTypeHandoff,
		CallID:     callID,
		FromNumber: from,
		Reason:     reason,
		Message:    summary,
	})
}

// LogPersistenceFailure records a swallowed datastore error.
func (s *Service) LogPersistenceFailure(ctx context.Context, op, callID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.Append(ctx, Event{
		Type:    EventTypePersistenceFailure,
		CallID:  callID,
		Reason:  op,
		Message: msg,
	})
}

// LogLLMFallback records a turn answered with the fixed fallback utterance.
func (s *Service) LogLLMFallback(ctx context.Context, callID, model string) error {
	return s.Append(ctx, Event{
		Type:     EventTypeLLMFallback,
		CallID:   callID,
		Reason:   "fallback_utterance",
		Metadata: map[string]string{"model": model},
	})
}
