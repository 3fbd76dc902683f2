package calls

import (
	"context"
	"time"

	"foreclosure-voice/pkg/logger"
)

// FailureSink receives persistence errors that were deliberately kept away
// from the live call.
type FailureSink interface {
	PersistenceFailure(ctx context.Context, op, callID string, err error)
}

// Recorder owns all writes to call records.
//
// A failed write never aborts the call. Every error is handed to the sink
// before being returned, so callers may ignore the return value.
type Recorder struct {
	repo    Repository
	sink    FailureSink
	timeout time.Duration
	now     func() time.Time
}

func NewRecorder(repo Repository, sink FailureSink, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Recorder{repo: repo, sink: sink, timeout: timeout, now: time.Now}
}

func (r *Recorder) fail(ctx context.Context, op, callID string, err error) error {
	if err != nil && r.sink != nil {
		r.sink.PersistenceFailure(ctx, op, callID, err)
	}
	return err
}

// Create records a new inbound call. A repeated create for the same call id
// (provider retry of the first webhook) keeps the original row.
func (r *Recorder) Create(ctx context.Context, callID, from, to string, status CallStatus) error {
	if callID == "" {
		return r.fail(ctx, "create_call", callID, ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := r.now().UTC()
	created, err := r.repo.Create(ctx, CallRecord{
		CallID:     callID,
		FromNumber: from,
		ToNumber:   to,
		Status:     status,
		Direction:  DirectionInbound,
		AnsweredAt: now,
		CreatedAt:  now,
	})
	if err != nil {
		return r.fail(ctx, "create_call", callID, err)
	}
	if !created {
		logger.From(ctx).Info("call already recorded", "call_id", callID)
	}
	return nil
}

func (r *Recorder) RecordMenuSelection(ctx context.Context, callID, digit string) error {
	if callID == "" {
		return r.fail(ctx, "record_menu_selection", callID, ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.fail(ctx, "record_menu_selection", callID, r.repo.SetMenuSelection(ctx, callID, digit, r.now().UTC()))
}

func (r *Recorder) RecordConversationOutcome(ctx context.Context, callID string, o Outcome) error {
	if callID == "" {
		return r.fail(ctx, "record_outcome", callID, ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.fail(ctx, "record_outcome", callID, r.repo.SetOutcome(ctx, callID, o, r.now().UTC()))
}

func (r *Recorder) UpdateStatus(ctx context.Context, callID string, status CallStatus) error {
	if callID == "" || !status.Valid() {
		return r.fail(ctx, "update_status", callID, ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.fail(ctx, "update_status", callID, r.repo.SetStatus(ctx, callID, status, r.now().UTC()))
}
