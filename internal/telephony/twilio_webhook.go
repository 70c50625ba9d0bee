package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"outreach-agent/internal/calls"
	"outreach-agent/internal/lifecycle"
)

// TwilioStatusForm captures the subset of status callback fields we care about.
// Twilio sends application/x-www-form-urlencoded by default.
type TwilioStatusForm struct {
	CallSid      string
	AccountSid   string
	To           string
	CallStatus   string
	CallDuration string
	HungUpBy     string
}

func ParseTwilioStatus(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	return TwilioStatusForm{
		CallSid:      r.PostFormValue("CallSid"),
		AccountSid:   r.PostFormValue("AccountSid"),
		To:           strings.TrimSpace(r.PostFormValue("To")),
		CallStatus:   strings.TrimSpace(r.PostFormValue("CallStatus")),
		CallDuration: r.PostFormValue("CallDuration"),
		HungUpBy:     strings.TrimSpace(r.PostFormValue("HungUpBy")),
	}, nil
}

func (f TwilioStatusForm) ToStatusEvent() lifecycle.StatusEvent {
	return lifecycle.StatusEvent{
		CallID:          f.CallSid,
		To:              f.To,
		Status:          calls.CallStatus(strings.ToLower(f.CallStatus)),
		DurationSeconds: parseSeconds(f.CallDuration),
		HungUpBy:        f.HungUpBy,
	}
}

type TwilioRecordingForm struct {
	CallSid           string
	RecordingSid      string
	RecordingURL      string
	To                string
	RecordingDuration string
}

func ParseTwilioRecording(r *http.Request) (TwilioRecordingForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioRecordingForm{}, err
	}
	return TwilioRecordingForm{
		CallSid:           r.PostFormValue("CallSid"),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		RecordingURL:      strings.TrimSpace(r.PostFormValue("RecordingUrl")),
		To:                strings.TrimSpace(r.PostFormValue("To")),
		RecordingDuration: r.PostFormValue("RecordingDuration"),
	}, nil
}

func (f TwilioRecordingForm) ToRecordingEvent() lifecycle.RecordingEvent {
	return lifecycle.RecordingEvent{
		RecordingURL:    f.RecordingURL,
		To:              f.To,
		DurationSeconds: parseSeconds(f.RecordingDuration),
	}
}

// parseSeconds accepts "12" and "12.7"; anything else is zero.
func parseSeconds(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}
