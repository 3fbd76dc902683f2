package conversation

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests. It is not a session cache and
// must not back a running webhook process.
type MemoryStore struct {
	mu    sync.Mutex
	turns map[string][]Turn

	// Err, when set, is returned from every operation as a *PersistenceError.
	Err error
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{turns: map[string][]Turn{}} }

func (m *MemoryStore) Append(ctx context.Context, t Turn) error {
	if err := t.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return &PersistenceError{Op: "append", CallID: t.CallID, Err: m.Err}
	}
	for _, existing := range m.turns[t.CallID] {
		if existing.TurnNumber == t.TurnNumber && existing.Role == t.Role {
			return &PersistenceError{Op: "append", CallID: t.CallID, Err: ErrInvalidTurn}
		}
	}
	m.turns[t.CallID] = append(m.turns[t.CallID], t)
	return nil
}

func (m *MemoryStore) AppendExchange(ctx context.Context, user, assistant Turn) error {
	if err := m.Append(ctx, user); err != nil {
		return err
	}
	return m.Append(ctx, assistant)
}

func (m *MemoryStore) Turns(ctx context.Context, callID string) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, &PersistenceError{Op: "load", CallID: callID, Err: m.Err}
	}
	out := make([]Turn, len(m.turns[callID]))
	copy(out, m.turns[callID])
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TurnNumber != out[j].TurnNumber {
			return out[i].TurnNumber < out[j].TurnNumber
		}
		return out[i].Role == RoleUser && out[j].Role == RoleAssistant
	})
	return out, nil
}

func (m *MemoryStore) Load(ctx context.Context, callID string) ([]Message, error) {
	turns, err := m.Turns(ctx, callID)
	if err != nil {
		return nil, err
	}
	return project(turns), nil
}
