package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository is the persistence boundary for call_log rows.
type Repository interface {
	// Create inserts rec unless a row for the same call already exists.
	// created is false for a duplicate, which is not an error.
	Create(ctx context.Context, rec CallRecord) (created bool, err error)
	SetMenuSelection(ctx context.Context, callID, digit string, at time.Time) error
	SetOutcome(ctx context.Context, callID string, o Outcome, at time.Time) error
	SetStatus(ctx context.Context, callID string, status CallStatus, at time.Time) error

	Get(ctx context.Context, callID string) (CallRecord, error)
	// List returns calls created in [from, to), oldest first.
	List(ctx context.Context, from, to time.Time) ([]CallRecord, error)
}

// PostgresRepository assumes the call_log table from migrations/0001_voice.sql.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository { return &PostgresRepository{db: db} }

func (r *PostgresRepository) Create(ctx context.Context, rec CallRecord) (bool, error) {
	const q = `
INSERT INTO call_log (
  call_id, from_number, to_number, status, direction,
  used_ai_conversation, transferred_to_human, answered_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,FALSE,FALSE,$6,$7,$7
)
ON CONFLICT (call_id) DO NOTHING
`
	res, err := r.db.ExecContext(ctx, q,
		rec.CallID,
		rec.FromNumber,
		rec.ToNumber,
		string(rec.Status),
		string(rec.Direction),
		rec.AnsweredAt,
		rec.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) SetMenuSelection(ctx context.Context, callID, digit string, at time.Time) error {
	const q = `
UPDATE call_log
SET menu_selection = $2,
    status = CASE WHEN status = 'ringing' THEN 'in_progress' ELSE status END,
    updated_at = $3
WHERE call_id = $1
`
	return execOne(ctx, r.db, q, callID, digit, at)
}

func (r *PostgresRepository) SetOutcome(ctx context.Context, callID string, o Outcome, at time.Time) error {
	// A transfer, once recorded, sticks for the rest of the call.
	const q = `
UPDATE call_log
SET used_ai_conversation = TRUE,
    transferred_to_human = transferred_to_human OR $2,
    transfer_reason = COALESCE($3, transfer_reason),
    updated_at = $4
WHERE call_id = $1
`
	var reason sql.NullString
	if o.Transferred && o.Reason != "" {
		reason = sql.NullString{String: o.Reason, Valid: true}
	}
	return execOne(ctx, r.db, q, callID, o.Transferred, reason, at)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, callID string, status CallStatus, at time.Time) error {
	const q = `
UPDATE call_log
SET status = $2, updated_at = $3
WHERE call_id = $1 AND status NOT IN ('completed', 'failed')
`
	_, err := r.db.ExecContext(ctx, q, callID, string(status), at)
	return err
}

const selectCallSQL = `
SELECT call_id, from_number, to_number, status, direction, menu_selection,
       used_ai_conversation, transferred_to_human, transfer_reason,
       answered_at, created_at, updated_at
FROM call_log
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(s rowScanner) (CallRecord, error) {
	var (
		c            CallRecord
		status, dir  string
		menu, reason sql.NullString
	)
	if err := s.Scan(
		&c.CallID,
		&c.FromNumber,
		&c.ToNumber,
		&status,
		&dir,
		&menu,
		&c.UsedAIConversation,
		&c.TransferredToHuman,
		&reason,
		&c.AnsweredAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return CallRecord{}, err
	}
	c.Status = CallStatus(status)
	c.Direction = Direction(dir)
	if menu.Valid {
		c.MenuSelection = &menu.String
	}
	if reason.Valid {
		c.TransferReason = &reason.String
	}
	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, callID string) (CallRecord, error) {
	c, err := scanCall(r.db.QueryRowContext(ctx, selectCallSQL+"WHERE call_id = $1", callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, err
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectCallSQL+"WHERE created_at >= $1 AND created_at < $2\nORDER BY created_at ASC", from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func execOne(ctx context.Context, db *sql.DB, q string, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
