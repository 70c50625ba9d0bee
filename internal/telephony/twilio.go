package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"

	"outreach-agent/pkg/httpx"
)

const (
	DefaultTwilioAPIBaseURL = "https://api.twilio.com"

	maxRecordingBytes = 50 << 20
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// APIBaseURL points REST calls at another host, such as a local mock.
	APIBaseURL string
	Timeout    time.Duration
}

// TwilioProvider places calls through the Twilio REST API and downloads recordings.
type TwilioProvider struct {
	cfg  TwilioConfig
	base *twclient.Client
	rest *twilio.RestClient
}

func NewTwilioProvider(cfg TwilioConfig) *TwilioProvider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultTwilioAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	hc := httpx.NewClient(cfg.Timeout)
	if cfg.APIBaseURL != DefaultTwilioAPIBaseURL {
		if target, err := url.Parse(cfg.APIBaseURL); err == nil && target.Host != "" {
			hc.Transport = rebaseTransport{target: target, next: hc.Transport}
		}
	}

	base := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  hc,
	}
	base.SetAccountSid(cfg.AccountSID)

	return &TwilioProvider{
		cfg:  cfg,
		base: base,
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) Configured() bool {
	return p.cfg.AccountSID != "" && p.cfg.AuthToken != ""
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req CallRequest) (CallHandle, error) {
	if !p.Configured() {
		return CallHandle{}, ErrNotConfigured
	}
	if strings.TrimSpace(req.To) == "" {
		return CallHandle{}, fmt.Errorf("telephony: destination number is required")
	}
	if err := ctx.Err(); err != nil {
		return CallHandle{}, err
	}

	params := &twapi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(p.cfg.FromNumber)
	params.SetUrl(req.VoiceURL)
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
		if len(req.StatusEvents) > 0 {
			params.SetStatusCallbackEvent(req.StatusEvents)
		}
	}
	if req.Record {
		params.SetRecord(true)
	}
	if req.RecordingCallbackURL != "" {
		params.SetRecordingStatusCallback(req.RecordingCallbackURL)
	}

	call, err := p.rest.Api.CreateCall(params)
	if err != nil {
		return CallHandle{}, fmt.Errorf("create call: %w", err)
	}
	return CallHandle{
		ProviderCallID: lo.FromPtr(call.Sid),
		Status:         lo.FromPtr(call.Status),
	}, nil
}

// Fetch downloads recording media with the account credentials attached,
// since Twilio can require auth on recording URLs.
func (p *TwilioProvider) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.base.SendRequest(http.MethodGet, mediaURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch recording: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordingBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(data) > maxRecordingBytes {
		return nil, fmt.Errorf("recording exceeds %d bytes", maxRecordingBytes)
	}
	return data, nil
}

// rebaseTransport sends requests addressed to the public Twilio API host to target instead.
type rebaseTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != "api.twilio.com" {
		return t.next.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.URL.Path = strings.TrimRight(t.target.Path, "/") + req.URL.Path
	out.Host = t.target.Host
	return t.next.RoundTrip(out)
}
