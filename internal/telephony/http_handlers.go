package telephony

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach-agent/internal/calls"
	"outreach-agent/internal/lifecycle"
	"outreach-agent/pkg/logger"
)

// Tracker is the lifecycle surface the webhooks drive.
type Tracker interface {
	HandleStatus(ctx context.Context, ev lifecycle.StatusEvent) (calls.CallRecord, error)
	HandleRecording(ctx context.Context, ev lifecycle.RecordingEvent) (lifecycle.Job, error)
}

// WebhookObserver counts webhook deliveries by kind and outcome.
type WebhookObserver interface {
	ObserveWebhook(kind, outcome string)
}

// WebhookHandler converts Twilio webhooks to lifecycle events and writes the
// acknowledgement. No business logic here.
//
// Once record keeping succeeds the response is 204, whatever happens to
// enrichment; Twilio must not retry because an AI service is down.
type WebhookHandler struct {
	Tracker  Tracker
	Enricher lifecycle.Enqueuer
	Observer WebhookObserver

	// Greeting is the static script served by the voice endpoint.
	Greeting string
}

func (h WebhookHandler) HandleVoice(c *gin.Context) {
	log := logger.FromGin(c)

	greeting := h.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	twiml, err := RenderGreeting(greeting)
	if err != nil {
		log.Error("twiml render failed", logger.Err(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}

	log.Debug("voice script served", "organization_id", c.Query("organization_id"))
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h WebhookHandler) HandleStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioStatus(c.Request)
	if err != nil {
		log.Warn("twilio status parse failed", logger.Err(err))
		h.observe("status", "bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	if _, err := h.Tracker.HandleStatus(c.Request.Context(), form.ToStatusEvent()); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidEvent) {
			h.observe("status", "bad_request")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("status event failed", "call_sid", form.CallSid, logger.Err(err))
		h.observe("status", "error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "record keeping failed"})
		return
	}

	h.observe("status", "ok")
	c.Status(http.StatusNoContent)
}

func (h WebhookHandler) HandleRecording(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioRecording(c.Request)
	if err != nil {
		log.Warn("twilio recording parse failed", logger.Err(err))
		h.observe("recording", "bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	ctx := c.Request.Context()
	job, err := h.Tracker.HandleRecording(ctx, form.ToRecordingEvent())
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidEvent) {
			h.observe("recording", "bad_request")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("recording event failed", "recording_sid", form.RecordingSid, logger.Err(err))
		h.observe("recording", "error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "record keeping failed"})
		return
	}

	if h.Enricher != nil {
		if err := h.Enricher.Enqueue(ctx, job); err != nil {
			log.Warn("enrichment enqueue failed", "record_id", job.RecordID, logger.Err(err))
		}
	}

	h.observe("recording", "ok")
	c.Status(http.StatusNoContent)
}

func (h WebhookHandler) observe(kind, outcome string) {
	if h.Observer != nil {
		h.Observer.ObserveWebhook(kind, outcome)
	}
}
