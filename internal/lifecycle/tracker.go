// Package lifecycle records provider call events and runs the enrichment
// pipeline for finished recordings.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach-agent/internal/calls"
	"outreach-agent/internal/notify"
	"outreach-agent/internal/organizations"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
)

var ErrInvalidEvent = errors.New("invalid call event")

// PhoneResolver maps a destination number back to the registry.
type PhoneResolver interface {
	FindByPhone(ctx context.Context, phone string) (organizations.Organization, error)
}

type Tracker struct {
	orgs     PhoneResolver
	calls    calls.Repository
	notifier notify.Notifier

	// matchWindow bounds the recording to record lookup; zero means unbounded.
	matchWindow time.Duration
	now         func() time.Time
}

type TrackerOption func(*Tracker)

func WithMatchWindow(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.matchWindow = d }
}

func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(orgs PhoneResolver, callRepo calls.Repository, notifier notify.Notifier, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		orgs:     orgs,
		calls:    callRepo,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HandleStatus always appends a new record, even when the provider omits the
// status. An unknown phone yields a record without an organization link.
func (t *Tracker) HandleStatus(ctx context.Context, ev StatusEvent) (calls.CallRecord, error) {
	to := strings.TrimSpace(ev.To)

	org, found := t.resolve(ctx, to)
	rec := calls.CallRecord{
		OrganizationName: to,
		Phone:            to,
		Status:           ev.Status,
		DurationSeconds:  max(ev.DurationSeconds, 0),
	}
	if found {
		rec.OrganizationID = &org.ID
		rec.OrganizationName = org.Name
	}
	if ev.HungUpBy != "" {
		h := ev.HungUpBy
		rec.HungUpBy = &h
	}

	saved, err := t.calls.Append(ctx, rec)
	if err != nil {
		return calls.CallRecord{}, fmt.Errorf("append call record: %w", err)
	}

	logger.From(ctx).Info("call status recorded",
		slog.String("call_id", ev.CallID),
		slog.Int64("record_id", saved.ID),
		slog.String("status", string(ev.Status)),
		slog.Bool("organization_resolved", found),
	)

	var text string
	switch {
	case ev.Status.IsFailure():
		text = notify.CallUnanswered(saved.OrganizationName, to)
	case ev.Status == calls.CallStatusCompleted:
		text = notify.CallCompleted(saved.OrganizationName, to, saved.DurationSeconds)
	default:
		text = notify.CallStatusUpdate(saved.OrganizationName, to, string(ev.Status))
	}
	besteffort.Do(ctx, "notify_status", func(ctx context.Context) error {
		return t.notifier.Send(ctx, text)
	})

	return saved, nil
}

// HandleRecording attaches the media URL to the latest record for the phone,
// creating a "recorded" record when none exists. Redelivery updates the same
// record in place.
func (t *Tracker) HandleRecording(ctx context.Context, ev RecordingEvent) (Job, error) {
	ref := strings.TrimSpace(ev.RecordingURL)
	if ref == "" {
		return Job{}, fmt.Errorf("%w: recording url is required", ErrInvalidEvent)
	}
	to := strings.TrimSpace(ev.To)
	mediaURL := ref + MediaExtension

	org, found := t.resolve(ctx, to)
	name := to
	var orgID *int64
	if found {
		name = org.Name
		orgID = &org.ID
	}

	var since time.Time
	if t.matchWindow > 0 {
		since = t.now().Add(-t.matchWindow)
	}

	rec, err := t.calls.LatestByPhone(ctx, to, since)
	switch {
	case errors.Is(err, calls.ErrNotFound):
		rec, err = t.calls.Append(ctx, calls.CallRecord{
			OrganizationID:   orgID,
			OrganizationName: name,
			Phone:            to,
			Status:           calls.CallStatusRecorded,
		})
		if err != nil {
			return Job{}, fmt.Errorf("append recorded call: %w", err)
		}
	case err != nil:
		return Job{}, fmt.Errorf("find latest call record: %w", err)
	}

	if err := t.calls.SetRecording(ctx, rec.ID, mediaURL, max(ev.DurationSeconds, 0)); err != nil {
		return Job{}, fmt.Errorf("set recording: %w", err)
	}

	if orgID == nil && rec.OrganizationID != nil {
		orgID = rec.OrganizationID
		name = rec.OrganizationName
	}
	logger.From(ctx).Info("call recording attached",
		slog.Int64("record_id", rec.ID),
		slog.String("media_url", mediaURL),
	)

	return Job{
		RecordID:         rec.ID,
		OrganizationID:   orgID,
		OrganizationName: name,
		MediaURL:         mediaURL,
	}, nil
}

func (t *Tracker) resolve(ctx context.Context, phone string) (organizations.Organization, bool) {
	if phone == "" {
		return organizations.Organization{}, false
	}
	org, err := t.orgs.FindByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, organizations.ErrNotFound) {
			logger.From(ctx).Warn("organization lookup failed", slog.String("phone", phone), logger.Err(err))
		}
		return organizations.Organization{}, false
	}
	return org, true
}
