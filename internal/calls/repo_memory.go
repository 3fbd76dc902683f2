package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]CallRecord

	// Err, when set, fails every write.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{calls: map[string]CallRecord{}} }

func (r *MemoryRepo) Create(ctx context.Context, rec CallRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, ok := r.calls[rec.CallID]; ok {
		return false, nil
	}
	rec.UpdatedAt = rec.CreatedAt
	r.calls[rec.CallID] = rec
	return true, nil
}

func (r *MemoryRepo) update(callID string, fn func(*CallRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	c, ok := r.calls[callID]
	if !ok {
		return ErrNotFound
	}
	fn(&c)
	r.calls[callID] = c
	return nil
}

func (r *MemoryRepo) SetMenuSelection(ctx context.Context, callID, digit string, at time.Time) error {
	return r.update(callID, func(c *CallRecord) {
		d := digit
		c.MenuSelection = &d
		if c.Status == CallStatusRinging {
			c.Status = CallStatusInProgress
		}
		c.UpdatedAt = at
	})
}

func (r *MemoryRepo) SetOutcome(ctx context.Context, callID string, o Outcome, at time.Time) error {
	return r.update(callID, func(c *CallRecord) {
		c.UsedAIConversation = true
		if o.Transferred {
			c.TransferredToHuman = true
			if o.Reason != "" {
				reason := o.Reason
				c.TransferReason = &reason
			}
		}
		c.UpdatedAt = at
	})
}

func (r *MemoryRepo) SetStatus(ctx context.Context, callID string, status CallStatus, at time.Time) error {
	err := r.update(callID, func(c *CallRecord) {
		if c.Status.Terminal() {
			return
		}
		c.Status = status
		c.UpdatedAt = at
	})
	if err == ErrNotFound {
		return nil
	}
	return err
}

func (r *MemoryRepo) Get(ctx context.Context, callID string) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, c := range r.calls {
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
