// Package conversation persists the per-call dialogue log.
//
// The webhook process keeps nothing between requests; every AI turn reloads
// the full ordered history from the store.
package conversation

import "context"

// Store is the persistence contract for conversation turns.
//
// Load returns an empty slice, not an error, when a call has no turns yet.
// Datastore failures are returned as *PersistenceError.
type Store interface {
	Append(ctx context.Context, t Turn) error
	// AppendExchange writes a user turn and its assistant reply together, user first.
	AppendExchange(ctx context.Context, user, assistant Turn) error
	Load(ctx context.Context, callID string) ([]Message, error)
	Turns(ctx context.Context, callID string) ([]Turn, error)
}

func project(turns []Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Message())
	}
	return out
}
