package telephony

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("telephony provider not configured")

// Provider is the provider-agnostic outbound calling interface used by the dispatcher.
//
// Rules:
// - No provider SDK or REST calls outside telephony adapters.
// - Request/response types stay provider-agnostic.
type Provider interface {
	Name() string

	// Configured reports whether credentials are present. Unconfigured providers
	// must not be asked to place calls.
	Configured() bool

	PlaceCall(ctx context.Context, req CallRequest) (CallHandle, error)
}

// CallRequest describes one outbound call and where the provider reports back.
type CallRequest struct {
	// To is E.164 where possible.
	To string `json:"to"`

	// VoiceURL serves the script read to the callee.
	VoiceURL string `json:"voice_url"`

	StatusCallbackURL    string   `json:"status_callback_url"`
	RecordingCallbackURL string   `json:"recording_callback_url"`
	StatusEvents         []string `json:"status_events"`

	Record bool `json:"record"`
}

// CallHandle identifies a call accepted by the provider.
type CallHandle struct {
	ProviderCallID string `json:"provider_call_id"`
	Status         string `json:"status"`
}
