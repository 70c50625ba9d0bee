// Package dispatch turns queue entries into outbound call requests.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"outreach-agent/internal/calls"
	"outreach-agent/internal/notify"
	"outreach-agent/internal/organizations"
	"outreach-agent/internal/telephony"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
)

type OutcomeKind string

const (
	OutcomePlaced        OutcomeKind = "placed"
	OutcomeSkipped       OutcomeKind = "skipped"
	OutcomeNotConfigured OutcomeKind = "not_configured"
	OutcomeFailed        OutcomeKind = "failed"
)

// Outcome is the result of one PlaceCall. Failures are reported here, never as errors.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	OrganizationID int64       `json:"organization_id"`
	CallID         string      `json:"call_id,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	Err            error       `json:"-"`
}

type OrganizationStore interface {
	Get(ctx context.Context, id int64) (organizations.Organization, error)
	MarkCalled(ctx context.Context, id int64, at time.Time) error
}

// Locker guards against two dispatches for the same organization at once.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type Observer interface {
	ObserveDispatch(kind string)
}

type Dispatcher struct {
	orgs     OrganizationStore
	provider telephony.Provider
	notifier notify.Notifier
	baseURL  string

	locker   Locker
	lockTTL  time.Duration
	observer Observer
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithLocker(l Locker, ttl time.Duration) Option {
	return func(d *Dispatcher) {
		d.locker = l
		d.lockTTL = ttl
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(orgs OrganizationStore, provider telephony.Provider, notifier notify.Notifier, baseURL string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		orgs:     orgs,
		provider: provider,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		lockTTL:  2 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PlaceCall dials one organization. It never returns an error; see Outcome.
func (d *Dispatcher) PlaceCall(ctx context.Context, orgID int64) Outcome {
	out := d.placeCall(ctx, orgID)
	if d.observer != nil {
		d.observer.ObserveDispatch(string(out.Kind))
	}
	return out
}

func (d *Dispatcher) placeCall(ctx context.Context, orgID int64) Outcome {
	log := logger.From(ctx).With(slog.Int64("organization_id", orgID))

	org, err := d.orgs.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, organizations.ErrNotFound) {
			return Outcome{Kind: OutcomeSkipped, OrganizationID: orgID, Reason: "organization not found"}
		}
		log.Warn("organization lookup failed", logger.Err(err))
		return Outcome{Kind: OutcomeFailed, OrganizationID: orgID, Reason: "organization lookup failed", Err: err}
	}
	if strings.TrimSpace(org.Phone) == "" {
		return Outcome{Kind: OutcomeSkipped, OrganizationID: orgID, Reason: "no phone number"}
	}

	if !d.provider.Configured() {
		besteffort.Do(ctx, "notify_not_configured", func(ctx context.Context) error {
			return d.notifier.Send(ctx, notify.NotConfigured(org.Name, org.Phone))
		})
		return Outcome{Kind: OutcomeNotConfigured, OrganizationID: orgID, Reason: "telephony not configured"}
	}

	if d.locker != nil {
		release, ok, err := d.locker.TryLock(ctx, "dispatch:"+strconv.FormatInt(orgID, 10), d.lockTTL)
		switch {
		case err != nil:
			// Redis trouble must not stop the batch; dial without the guard.
			log.Warn("dispatch lock unavailable", logger.Err(err))
		case !ok:
			return Outcome{Kind: OutcomeSkipped, OrganizationID: orgID, Reason: "dispatch already in flight"}
		default:
			defer release()
		}
	}

	handle, err := d.provider.PlaceCall(ctx, d.callRequest(org))
	if err != nil {
		log.Warn("call failed to initiate", slog.String("provider", d.provider.Name()), logger.Err(err))
		besteffort.Do(ctx, "notify_call_failed", func(ctx context.Context) error {
			return d.notifier.Send(ctx, notify.CallFailedToStart(org.Name, org.Phone, err))
		})
		return Outcome{Kind: OutcomeFailed, OrganizationID: orgID, Reason: "provider rejected call", Err: err}
	}

	if err := d.orgs.MarkCalled(ctx, orgID, d.now()); err != nil {
		// The call is already ringing; report it as placed.
		log.Error("mark called failed", logger.Err(err))
	}

	log.Info("call placed", slog.String("call_id", handle.ProviderCallID), slog.String("phone", org.Phone))
	besteffort.Do(ctx, "notify_calling", func(ctx context.Context) error {
		return d.notifier.Send(ctx, notify.Calling(org.Name, org.Phone))
	})
	return Outcome{Kind: OutcomePlaced, OrganizationID: orgID, CallID: handle.ProviderCallID}
}

func (d *Dispatcher) callRequest(org organizations.Organization) telephony.CallRequest {
	events := make([]string, 0, len(calls.StatusEvents))
	for _, s := range calls.StatusEvents {
		events = append(events, string(s))
	}
	q := url.Values{"organization_id": {strconv.FormatInt(org.ID, 10)}}
	return telephony.CallRequest{
		To:                   org.Phone,
		VoiceURL:             fmt.Sprintf("%s/voice?%s", d.baseURL, q.Encode()),
		StatusCallbackURL:    d.baseURL + "/webhook/status",
		RecordingCallbackURL: d.baseURL + "/webhook/recording",
		StatusEvents:         events,
		Record:               true,
	}
}
