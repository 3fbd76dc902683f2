package calls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_CreateUpsert(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Date(2026, 7, 13, 17, 0, 0, 0, time.UTC)
	rec := CallRecord{CallID: "CA1", FromNumber: "+1555", ToNumber: "+1877", Status: CallStatusRinging, Direction: DirectionInbound, AnsweredAt: at, CreatedAt: at}

	mock.ExpectExec("INSERT INTO call_log .* ON CONFLICT \\(call_id\\) DO NOTHING").
		WithArgs("CA1", "+1555", "+1877", "ringing", "inbound", at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO call_log").
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := r.Create(context.Background(), rec)
	if err != nil || !created {
		t.Fatalf("first create: %v %v", created, err)
	}
	created, err = r.Create(context.Background(), rec)
	if err != nil || created {
		t.Fatalf("duplicate create: %v %v", created, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_SetMenuSelection(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE call_log").
		WithArgs("CA1", "4", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE call_log").
		WithArgs("CA2", "4", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := r.SetMenuSelection(context.Background(), "CA1", "4", at); err != nil {
		t.Fatalf("SetMenuSelection: %v", err)
	}
	if err := r.SetMenuSelection(context.Background(), "CA2", "4", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRepository_SetOutcome(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE call_log\\s+SET used_ai_conversation = TRUE").
		WithArgs("CA1", true, sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.SetOutcome(context.Background(), "CA1", Outcome{Transferred: true, Reason: "AI assistant unavailable"}, at); err != nil {
		t.Fatalf("SetOutcome: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_Get(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Date(2026, 7, 13, 17, 0, 0, 0, time.UTC)
	cols := []string{"call_id", "from_number", "to_number", "status", "direction", "menu_selection", "used_ai_conversation", "transferred_to_human", "transfer_reason", "answered_at", "created_at", "updated_at"}

	mock.ExpectQuery("SELECT call_id, from_number").
		WithArgs("CA1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("CA1", "+1555", "+1877", "in_progress", "inbound", "4", true, false, nil, at, at, at))
	mock.ExpectQuery("SELECT call_id, from_number").
		WithArgs("CA2").
		WillReturnRows(sqlmock.NewRows(cols))

	c, err := r.Get(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Status != CallStatusInProgress || c.MenuSelection == nil || *c.MenuSelection != "4" || c.TransferReason != nil {
		t.Fatalf("unexpected record: %+v", c)
	}
	if _, err := r.Get(context.Background(), "CA2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
