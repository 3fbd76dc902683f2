package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository used in tests.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// DiscardRepo drops every event. Used when no event bus is configured.
type DiscardRepo struct{}

func (DiscardRepo) Append(ctx context.Context, e Event) error { return nil }
