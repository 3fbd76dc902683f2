package reporting

import (
	"context"
	"errors"
	"time"

	"foreclosure-voice/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// MaxRange caps a single report so the call_log scan stays bounded.
const MaxRange = 93 * 24 * time.Hour

// Repository is the read side of the call log. calls.Repository satisfies it.
type Repository interface {
	List(ctx context.Context, from, to time.Time) ([]calls.CallRecord, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) list(ctx context.Context, r TimeRange) ([]calls.CallRecord, error) {
	if !r.valid() || r.To.Sub(r.From) > MaxRange {
		return nil, ErrInvalidRequest
	}
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}
	return s.repo.List(ctx, r.From, r.To)
}

func (s *Service) CallsSummary(ctx context.Context, r TimeRange) (CallsSummary, error) {
	rows, err := s.list(ctx, r)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{Range: r, MenuSelections: map[string]int{}}
	for _, c := range rows {
		out.TotalCalls++
		switch c.Status {
		case calls.CallStatusRinging:
			out.RingingCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		}
		if c.MenuSelection != nil {
			out.MenuSelections[*c.MenuSelection]++
		} else {
			out.MenuSelections["none"]++
		}
		if c.UsedAIConversation {
			out.AIConversations++
		}
		if c.TransferredToHuman {
			out.TransferredToHuman++
		}
	}
	return out, nil
}

func (s *Service) AIOutcomes(ctx context.Context, r TimeRange) (AIOutcomes, error) {
	rows, err := s.list(ctx, r)
	if err != nil {
		return AIOutcomes{}, err
	}

	out := AIOutcomes{Range: r, TransferReasons: map[string]int{}}
	for _, c := range rows {
		if !c.UsedAIConversation {
			continue
		}
		out.AIConversations++
		if !c.TransferredToHuman {
			out.Contained++
			continue
		}
		out.Transferred++
		reason := "unknown"
		if c.TransferReason != nil && *c.TransferReason != "" {
			reason = *c.TransferReason
		}
		out.TransferReasons[reason]++
	}
	if out.AIConversations > 0 {
		out.ContainmentRate = float64(out.Contained) / float64(out.AIConversations)
		out.TransferRate = float64(out.Transferred) / float64(out.AIConversations)
	}
	return out, nil
}
