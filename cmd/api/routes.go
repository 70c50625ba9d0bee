package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach-agent/internal/auth"
	"outreach-agent/internal/config"
	"outreach-agent/internal/httpapi"
	"outreach-agent/internal/rbac"
	"outreach-agent/internal/telephony"
)

type routeDeps struct {
	cfg      config.Config
	auth     *auth.Manager
	health   func(ctx context.Context) error
	webhooks telephony.WebhookHandler
	api      httpapi.Handlers
}

func apiHandlers(cfg config.Config, callLog httpapi.CallLog, orgs httpapi.Registry, queue httpapi.QueuePreviewer, reports httpapi.Reporter, jobs httpapi.Jobs, auditor httpapi.Auditor) httpapi.Handlers {
	return httpapi.Handlers{
		Calls:         callLog,
		Organizations: orgs,
		Queue:         queue,
		Reports:       reports,
		Jobs:          jobs,
		Audit:         auditor,
		CountryPrefix: cfg.Directory.CountryPrefix,
		PreviewLimit:  cfg.Calls.PreviewLimit,
	}
}

// registerRoutes wires HTTP routes to handlers. No business logic here.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		if d.health != nil {
			if err := d.health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Twilio fetches the script and posts callbacks here.
	r.GET("/voice", d.webhooks.HandleVoice)
	r.POST("/voice", d.webhooks.HandleVoice)

	hooks := r.Group("/webhook")
	if d.cfg.Twilio.ValidateSignature {
		hooks.Use(telephony.RequireTwilioSignature(d.cfg.Twilio.AuthToken, d.cfg.BaseURL()))
	}
	hooks.POST("/status", d.webhooks.HandleStatus)
	hooks.POST("/recording", d.webhooks.HandleRecording)

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.auth))
	v1.Use(rbac.RequireAnyRole(rbac.RoleOperator))
	{
		v1.GET("/calls", d.api.ListCalls)
		v1.GET("/calls/:id", d.api.GetCall)

		v1.GET("/organizations", d.api.ListOrganizations)
		v1.POST("/organizations", d.api.CreateOrganization)

		v1.GET("/queue", d.api.PreviewQueue)
		v1.GET("/reports/calls", d.api.CallsReport)

		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.POST("/ingest", d.api.AdminIngest)
			admin.POST("/run-batch", d.api.AdminRunBatch)
		}
	}
}
