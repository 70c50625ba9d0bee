package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// DefaultGreeting is read to every callee.
const DefaultGreeting = "Good morning. My name is Mark. I'm calling to ask if your hospital currently has any job openings " +
	"for caregivers for foreign applicants. If yes, do you provide visa sponsorship?"

// TwiML is a minimal Twilio Markup Language response builder.
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// RenderGreeting reads text to the callee and hangs up.
func RenderGreeting(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("telephony: greeting text required")
	}
	r := twimlResponse{Verbs: []any{
		twimlSay{Voice: "man", Language: "en-GB", Text: text},
		twimlHangup{},
	}}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
