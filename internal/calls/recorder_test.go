package calls

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureSink struct {
	ops []string
}

func (s *captureSink) PersistenceFailure(ctx context.Context, op, callID string, err error) {
	s.ops = append(s.ops, op)
}

func newTestRecorder() (*Recorder, *MemoryRepo, *captureSink) {
	repo := NewMemoryRepo()
	sink := &captureSink{}
	r := NewRecorder(repo, sink, time.Second)
	r.now = func() time.Time { return time.Date(2026, 7, 13, 17, 0, 0, 0, time.UTC) }
	return r, repo, sink
}

func TestRecorder_Lifecycle(t *testing.T) {
	r, repo, sink := newTestRecorder()
	ctx := context.Background()

	if err := r.Create(ctx, "CA1", "+15551230000", "+18778064677", CallStatusRinging); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.RecordMenuSelection(ctx, "CA1", "4"); err != nil {
		t.Fatalf("RecordMenuSelection: %v", err)
	}
	if err := r.RecordConversationOutcome(ctx, "CA1", Outcome{}); err != nil {
		t.Fatalf("RecordConversationOutcome: %v", err)
	}
	if err := r.RecordConversationOutcome(ctx, "CA1", Outcome{Transferred: true, Reason: "caller requested a human agent"}); err != nil {
		t.Fatalf("RecordConversationOutcome: %v", err)
	}
	// a later non-transfer outcome must not clear the transfer
	_ = r.RecordConversationOutcome(ctx, "CA1", Outcome{})

	c, err := repo.Get(ctx, "CA1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Direction != DirectionInbound || c.Status != CallStatusInProgress {
		t.Fatalf("unexpected direction/status: %s %s", c.Direction, c.Status)
	}
	if c.MenuSelection == nil || *c.MenuSelection != "4" {
		t.Fatalf("menu selection not recorded: %+v", c.MenuSelection)
	}
	if !c.UsedAIConversation || !c.TransferredToHuman || c.TransferReason == nil || *c.TransferReason != "caller requested a human agent" {
		t.Fatalf("unexpected outcome fields: %+v", c)
	}
	if len(sink.ops) != 0 {
		t.Fatalf("unexpected failures: %v", sink.ops)
	}
}

func TestRecorder_DuplicateCreateKeepsOriginal(t *testing.T) {
	r, repo, sink := newTestRecorder()
	ctx := context.Background()

	_ = r.Create(ctx, "CA1", "+15551230000", "+18778064677", CallStatusRinging)
	_ = r.RecordMenuSelection(ctx, "CA1", "1")
	if err := r.Create(ctx, "CA1", "+15559999999", "+18778064677", CallStatusRinging); err != nil {
		t.Fatalf("duplicate create should not fail: %v", err)
	}
	c, _ := repo.Get(ctx, "CA1")
	if c.FromNumber != "+15551230000" || c.Status != CallStatusInProgress {
		t.Fatalf("duplicate create overwrote row: %+v", c)
	}
	if len(sink.ops) != 0 {
		t.Fatalf("duplicate create must not be reported: %v", sink.ops)
	}
}

func TestRecorder_FailuresGoToSink(t *testing.T) {
	r, repo, sink := newTestRecorder()
	ctx := context.Background()
	repo.Err = errors.New("connection refused")

	_ = r.Create(ctx, "CA1", "a", "b", CallStatusRinging)
	_ = r.RecordMenuSelection(ctx, "CA1", "1")
	_ = r.RecordConversationOutcome(ctx, "CA1", Outcome{})
	_ = r.UpdateStatus(ctx, "CA1", CallStatusCompleted)

	want := []string{"create_call", "record_menu_selection", "record_outcome", "update_status"}
	if len(sink.ops) != len(want) {
		t.Fatalf("sink ops = %v, want %v", sink.ops, want)
	}
	for i := range want {
		if sink.ops[i] != want[i] {
			t.Fatalf("sink ops = %v, want %v", sink.ops, want)
		}
	}
}

func TestRecorder_MenuSelectionUnknownCall(t *testing.T) {
	r, _, sink := newTestRecorder()
	err := r.RecordMenuSelection(context.Background(), "CA-missing", "2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(sink.ops) != 1 {
		t.Fatalf("expected one reported failure, got %v", sink.ops)
	}
}

func TestRecorder_UpdateStatus(t *testing.T) {
	r, repo, _ := newTestRecorder()
	ctx := context.Background()
	_ = r.Create(ctx, "CA1", "a", "b", CallStatusRinging)

	if err := r.UpdateStatus(ctx, "CA1", CallStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	_ = r.UpdateStatus(ctx, "CA1", CallStatusInProgress)
	c, _ := repo.Get(ctx, "CA1")
	if c.Status != CallStatusCompleted {
		t.Fatalf("terminal status regressed to %s", c.Status)
	}

	if err := r.UpdateStatus(ctx, "CA1", "busy"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := r.UpdateStatus(ctx, "CA-unknown", CallStatusCompleted); err != nil {
		t.Fatalf("status for unknown call should be ignored, got %v", err)
	}
}
