package calls

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("call record not found")

// CallRecord is one entry in the append-only call log.
//
// A record is appended for every provider status event; the recording webhook
// later attaches media, transcript and summary to the latest record for the
// same phone. OrganizationID is nil when the phone no longer matches the registry.
type CallRecord struct {
	ID               int64  `json:"id" db:"id"`
	OrganizationID   *int64 `json:"organization_id,omitempty" db:"organization_id"`
	OrganizationName string `json:"organization_name" db:"organization_name"`
	Phone            string `json:"phone" db:"phone"`

	Status CallStatus `json:"status" db:"status"`

	// DurationSeconds is never negative.
	DurationSeconds int `json:"duration" db:"duration"`

	Transcript   *string `json:"transcript,omitempty" db:"transcript"`
	Summary      *string `json:"summary,omitempty" db:"summary"`
	RecordingURL *string `json:"recording_url,omitempty" db:"recording_url"`
	HungUpBy     *string `json:"hung_up_by,omitempty" db:"hung_up_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CallStatus string

// Values follow the provider's wire form so webhook payloads map without translation.
const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"

	// CallStatusRecorded marks a record created by the recording webhook when no
	// status event had been logged for the phone.
	CallStatusRecorded CallStatus = "recorded"
)

// IsFailure reports whether the call never connected.
func (s CallStatus) IsFailure() bool {
	switch s {
	case CallStatusFailed, CallStatusNoAnswer, CallStatusBusy:
		return true
	default:
		return false
	}
}

// StatusEvents is the set of provider events requested for every outbound call.
var StatusEvents = []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy}
