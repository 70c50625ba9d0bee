package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"outreach-agent/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

type CallLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]calls.CallRecord, error)
}

type Service struct {
	calls CallLister
}

func NewService(calls CallLister) *Service { return &Service{calls: calls} }

// CallsSummary aggregates the call log over [From, To).
func (s *Service) CallsSummary(ctx context.Context, r TimeRange) (CallsSummary, error) {
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.calls == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.calls.ListBetween(ctx, r.From, r.To)
	if err != nil {
		return CallsSummary{}, fmt.Errorf("list calls: %w", err)
	}

	out := CallsSummary{Range: r, Organizations: []OrganizationCalls{}}
	perOrg := map[int64]*OrganizationCalls{}

	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.RecordingURL != nil {
			out.RecordedCalls++
		}
		if c.Summary != nil {
			out.SummarizedCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusBusy:
			out.BusyCalls++
		case calls.CallStatusCanceled:
			out.CanceledCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusRinging, calls.CallStatusQueued, calls.CallStatusRecorded:
			// not counted separately
		}

		if c.OrganizationID == nil {
			out.UnmatchedRecords++
			continue
		}
		oc, ok := perOrg[*c.OrganizationID]
		if !ok {
			oc = &OrganizationCalls{OrganizationID: *c.OrganizationID, OrganizationName: c.OrganizationName}
			perOrg[*c.OrganizationID] = oc
		}
		oc.Calls++
		oc.DurationSeconds += c.DurationSeconds
		if c.Status == calls.CallStatusCompleted {
			oc.Completed++
		}
	}

	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
		out.ConnectionRate = float64(out.CompletedCalls) / float64(out.TotalCalls)
	}

	for _, oc := range perOrg {
		out.Organizations = append(out.Organizations, *oc)
	}
	sort.Slice(out.Organizations, func(i, j int) bool {
		a, b := out.Organizations[i], out.Organizations[j]
		if a.Calls != b.Calls {
			return a.Calls > b.Calls
		}
		return a.OrganizationID < b.OrganizationID
	})
	return out, nil
}
