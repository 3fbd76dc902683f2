package conversation

import (
	"context"
	"database/sql"
	"time"

	"foreclosure-voice/pkg/utils"
)

// PostgresStore keeps turns in the conversation_history table.
//
// The (call_id, turn_number, role) unique key makes the datastore, not request
// timing, responsible for turn ordering.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
	clock   func() time.Time
}

func NewPostgresStore(db *sql.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout, clock: time.Now}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertTurnSQL = `
INSERT INTO conversation_history (
  call_id, turn_number, role, content, speech_confidence, handoff_triggered, model, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
`

func (s *PostgresStore) insert(ctx context.Context, ex execer, t Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock().UTC()
	}
	var confidence sql.NullFloat64
	if t.SpeechConfidence != nil {
		confidence = sql.NullFloat64{Float64: *t.SpeechConfidence, Valid: true}
	}
	model := sql.NullString{String: t.Model, Valid: t.Model != ""}
	_, err := ex.ExecContext(ctx, insertTurnSQL,
		t.CallID,
		t.TurnNumber,
		string(t.Role),
		t.Content,
		confidence,
		t.HandoffTriggered,
		model,
		t.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Append(ctx context.Context, t Turn) error {
	if err := t.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.insert(ctx, s.db, t); err != nil {
		return &PersistenceError{Op: "append", CallID: t.CallID, Err: err}
	}
	return nil
}

func (s *PostgresStore) AppendExchange(ctx context.Context, user, assistant Turn) error {
	if err := user.validate(); err != nil {
		return err
	}
	if err := assistant.validate(); err != nil {
		return err
	}
	if user.Role != RoleUser || assistant.Role != RoleAssistant || user.TurnNumber != assistant.TurnNumber || user.CallID != assistant.CallID {
		return ErrInvalidTurn
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.insert(ctx, tx, user); err != nil {
			return err
		}
		return s.insert(ctx, tx, assistant)
	})
	if err != nil {
		return &PersistenceError{Op: "append_exchange", CallID: user.CallID, Err: err}
	}
	return nil
}

func (s *PostgresStore) Turns(ctx context.Context, callID string) ([]Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const q = `
SELECT call_id, turn_number, role, content, speech_confidence, handoff_triggered, model, created_at
FROM conversation_history
WHERE call_id = $1
ORDER BY turn_number ASC, CASE role WHEN 'user' THEN 0 ELSE 1 END ASC
`
	rows, err := s.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, &PersistenceError{Op: "load", CallID: callID, Err: err}
	}
	defer rows.Close()

	out := make([]Turn, 0)
	for rows.Next() {
		var (
			t          Turn
			role       string
			confidence sql.NullFloat64
			model      sql.NullString
		)
		if err := rows.Scan(&t.CallID, &t.TurnNumber, &role, &t.Content, &confidence, &t.HandoffTriggered, &model, &t.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "load", CallID: callID, Err: err}
		}
		t.Role = Role(role)
		if confidence.Valid {
			v := confidence.Float64
			t.SpeechConfidence = &v
		}
		t.Model = model.String
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load", CallID: callID, Err: err}
	}
	return out, nil
}

func (s *PostgresStore) Load(ctx context.Context, callID string) ([]Message, error) {
	turns, err := s.Turns(ctx, callID)
	if err != nil {
		return nil, err
	}
	return project(turns), nil
}
