package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"outreach-agent/internal/audit"
	"outreach-agent/internal/calls"
	"outreach-agent/internal/directory"
	"outreach-agent/internal/dispatch"
	"outreach-agent/internal/organizations"
	"outreach-agent/internal/ranking"
	"outreach-agent/internal/reporting"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip

const maxQueueLimit = 200

type CallLog interface {
	Get(ctx context.Context, id int64) (calls.CallRecord, error)
	ListRecent(ctx context.Context, limit int) ([]calls.CallRecord, error)
}

type Registry interface {
	List(ctx context.Context) ([]organizations.Organization, error)
	Create(ctx context.Context, org organizations.Organization) (organizations.Organization, error)
}

type QueuePreviewer interface {
	Preview(ctx context.Context, limit int) ([]ranking.Entry, error)
}

type Reporter interface {
	CallsSummary(ctx context.Context, r reporting.TimeRange) (reporting.CallsSummary, error)
}

// Jobs runs scheduler triggers on demand.
type Jobs interface {
	RunIngestion(ctx context.Context) (directory.Result, error)
	RunBatch(ctx context.Context) (dispatch.BatchResult, error)
}

// Auditor records operator actions.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, ip, target string, details map[string]any) error
}

// Handlers groups the operator API. Keep these thin: parse and validate
// input, call internal services, return JSON.
type Handlers struct {
	Calls         CallLog
	Organizations Registry
	Queue         QueuePreviewer
	Reports       Reporter
	Jobs          Jobs
	Audit         Auditor

	CountryPrefix string
	PreviewLimit  int
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	limit, ok := queryLimit(c, calls.DefaultListLimit)
	if !ok {
		return
	}
	rows, err := h.Calls.ListRecent(c.Request.Context(), limit)
	if err != nil {
		internalError(c, "list calls failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

func (h Handlers) GetCall(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid call id"})
		return
	}
	rec, err := h.Calls.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	case err != nil:
		internalError(c, "get call failed", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- Organizations ---

type createOrganizationRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Phone    string `json:"phone" validate:"required"`
	City     string `json:"city" validate:"max=100"`
	Category string `json:"category" validate:"max=100"`
	Verified *bool  `json:"verified"`
}

type normalizedPhone struct {
	Phone string `validate:"e164"`
}

func (h Handlers) ListOrganizations(c *gin.Context) {
	rows, err := h.Organizations.List(c.Request.Context())
	if err != nil {
		internalError(c, "list organizations failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": rows})
}

func (h Handlers) CreateOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	phone := organizations.NormalizePhone(req.Phone, h.CountryPrefix)
	if err := validate.Struct(normalizedPhone{Phone: phone}); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone must be E.164 or national with leading 0"})
		return
	}

	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}

	org, err := h.Organizations.Create(c.Request.Context(), organizations.Organization{
		Name:     req.Name,
		Phone:    phone,
		City:     strings.TrimSpace(req.City),
		Category: strings.TrimSpace(req.Category),
		Verified: verified,
	})
	switch {
	case errors.Is(err, organizations.ErrDuplicatePhone):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		internalError(c, "create organization failed", err)
		return
	}
	h.record(c, audit.ActionOrganizationCreated, "organization:"+strconv.FormatInt(org.ID, 10), map[string]any{
		"name":  org.Name,
		"phone": org.Phone,
	})
	c.JSON(http.StatusCreated, org)
}

// --- Queue ---

func (h Handlers) PreviewQueue(c *gin.Context) {
	def := h.PreviewLimit
	if def <= 0 {
		def = 50
	}
	limit, ok := queryLimit(c, def)
	if !ok {
		return
	}
	entries, err := h.Queue.Preview(c.Request.Context(), limit)
	if err != nil {
		internalError(c, "preview queue failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": entries, "count": len(entries)})
}

// --- Reports ---

func (h Handlers) CallsReport(c *gin.Context) {
	now := time.Now().UTC()
	r := reporting.TimeRange{From: now.Add(-7 * 24 * time.Hour), To: now}

	for _, q := range []struct {
		key string
		dst *time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		raw := c.Query(q.key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": q.key + " must be RFC3339"})
			return
		}
		*q.dst = t
	}

	out, err := h.Reports.CallsSummary(c.Request.Context(), r)
	switch {
	case errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	case err != nil:
		internalError(c, "calls report failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Admin ---

func (h Handlers) AdminIngest(c *gin.Context) {
	res, err := h.Jobs.RunIngestion(c.Request.Context())
	if err != nil {
		h.record(c, audit.ActionIngestionTriggered, "", map[string]any{"error": err.Error()})
		internalError(c, "ingestion failed", err)
		return
	}
	h.record(c, audit.ActionIngestionTriggered, "", map[string]any{"found": res.Found, "added": res.Added})
	c.JSON(http.StatusOK, res)
}

func (h Handlers) AdminRunBatch(c *gin.Context) {
	res, err := h.Jobs.RunBatch(c.Request.Context())
	if err != nil {
		h.record(c, audit.ActionBatchTriggered, "", map[string]any{"error": err.Error()})
		internalError(c, "call batch failed", err)
		return
	}
	h.record(c, audit.ActionBatchTriggered, "", map[string]any{
		"placed":         res.Placed,
		"skipped":        res.Skipped,
		"failed":         res.Failed,
		"not_configured": res.NotConfigured,
	})
	c.JSON(http.StatusOK, gin.H{
		"status":         "scheduled",
		"placed":         res.Placed,
		"skipped":        res.Skipped,
		"failed":         res.Failed,
		"not_configured": res.NotConfigured,
	})
}

func (h Handlers) record(c *gin.Context, action audit.Action, target string, details map[string]any) {
	if h.Audit == nil {
		return
	}
	besteffort.Do(c.Request.Context(), "audit", func(ctx context.Context) error {
		return h.Audit.Record(ctx, action, c.ClientIP(), target, details)
	})
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxQueueLimit {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return 0, false
	}
	return n, true
}

func internalError(c *gin.Context, msg string, err error) {
	logger.FromGin(c).Error(msg, logger.Err(err))
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}
