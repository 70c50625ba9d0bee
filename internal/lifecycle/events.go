package lifecycle

import "outreach-agent/internal/calls"

const MediaExtension = ".mp3"

// StatusEvent is a provider status callback for one outbound call.
type StatusEvent struct {
	CallID          string
	To              string
	Status          calls.CallStatus
	DurationSeconds int
	HungUpBy        string
}

// RecordingEvent reports that a call recording is available.
type RecordingEvent struct {
	RecordingURL    string
	To              string
	DurationSeconds int
}

// Job is the enrichment work produced by a recording event.
type Job struct {
	RecordID         int64  `json:"record_id"`
	OrganizationID   *int64 `json:"organization_id,omitempty"`
	OrganizationName string `json:"organization_name"`
	MediaURL         string `json:"media_url"`
}
