package handler

import (
	"context"
	"net/http"
	"strconv"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/scoring"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/internal/leads/transport"
	"lead_intel_backend/platform/apperr"
	"lead_intel_backend/platform/httpkit"
	"lead_intel_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Roles allowed to submit signals.
const (
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgInvalidID        = "invalid id"
	msgValidationFailed = "validation failed"
	msgQueueDisabled    = "queued ingestion is not configured"

	defaultActiveAlertLimit = 50
	maxActiveAlertLimit     = 200
	defaultScoreLimit       = 50
)

// IngestEnqueuer hands a raw lead to the background worker.
type IngestEnqueuer interface {
	EnqueueIngest(ctx context.Context, raw domain.RawLead) (taskID string, queue string, err error)
}

type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer IngestEnqueuer
}

func New(svc *service.Service, val *validator.Validator, enqueuer IngestEnqueuer) *Handler {
	return &Handler{svc: svc, val: val, enqueuer: enqueuer}
}

// RegisterSignalRoutes mounts ingestion under rg. Callers attach auth and rate limiting.
func (h *Handler) RegisterSignalRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Ingest)
	rg.POST("/queue", h.Enqueue)
	rg.POST("/preview", h.Preview)
}

func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/alerts", h.ListLeadAlerts)
	rg.GET("/:id/scores", h.ListScores)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/convert", h.Convert)
}

func (h *Handler) RegisterAlertRoutes(rg *gin.RouterGroup) {
	rg.GET("/active", h.ActiveAlerts)
	rg.PATCH("/:id/status", h.UpdateAlertStatus)
}

func (h *Handler) RegisterAnalyticsRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.Summary)
}

func (h *Handler) RegisterSourceRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Sources)
}

func (h *Handler) Ingest(c *gin.Context) {
	var req transport.IngestSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Ingest(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.IngestResponse{
		Lead:    transport.ToLeadResponse(result.Lead),
		Created: result.Created,
		Factors: result.Factors,
	}
	if result.Alert != nil {
		alert := transport.ToAlertResponse(*result.Alert)
		resp.Alert = &alert
	}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, transport.IngestWarning{Step: w.Step, Message: w.Message})
	}

	if result.Created {
		httpkit.Created(c, resp)
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Enqueue(c *gin.Context) {
	if h.enqueuer == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgQueueDisabled, nil)
		return
	}

	var req transport.IngestSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Fields(err)))
		return
	}

	taskID, queue, err := h.enqueuer.EnqueueIngest(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindUnavailable, "failed to enqueue signal", err))
		return
	}

	httpkit.Accepted(c, transport.EnqueueResponse{TaskID: taskID, Queue: queue})
}

func (h *Handler) Preview(c *gin.Context) {
	var req transport.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Fields(err)))
		return
	}

	p := h.svc.Preview(req.Text, scoring.Metadata{Source: req.Source, Region: req.Region})
	httpkit.OK(c, transport.ToPreviewResponse(p))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Fields(err)))
		return
	}

	page, err := h.svc.List(c.Request.Context(), service.ListQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Stage:    req.Stage,
		Status:   req.Status,
		Source:   req.Source,
		MinScore: req.MinScore,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadListResponse(page.Items, page.Total, page.Page, page.PageSize))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadDetailResponse(detail.Lead, detail.Activities))
}

func (h *Handler) ListLeadAlerts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	alerts, err := h.svc.LeadAlerts(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": transport.ToAlertResponses(alerts)})
}

func (h *Handler) ListScores(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	samples, err := h.svc.ScoreHistory(c.Request.Context(), id, queryInt(c, "limit", defaultScoreLimit, maxActiveAlertLimit))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": transport.ToScoreSampleResponses(samples)})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Fields(err)))
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status, identity.UserID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Convert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var req transport.ConvertLeadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Fields(err)))
		return
	}

	lead, err := h.svc.MarkConverted(c.Request.Context(), id, req.CustomerID, identity.UserID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ActiveAlerts(c *gin.Context) {
	alerts, err := h.svc.ActiveAlerts(c.Request.Context(), queryInt(c, "limit", defaultActiveAlertLimit, maxActiveAlertLimit))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": transport.ToActiveAlertResponses(alerts)})
}

func (h *Handler) UpdateAlertStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity, ok := httpkit.MustGetIdentity(c)
	if !ok {
		return
	}

	var req transport.UpdateAlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.Fields(err)))
		return
	}

	alert, err := h.svc.UpdateAlertStatus(c.Request.Context(), id, req.Status, identity.UserID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAlertResponse(alert))
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToSummaryResponse(summary))
}

func (h *Handler) Sources(c *gin.Context) {
	sources, err := h.svc.Sources(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": transport.ToLeadSourceResponses(sources)})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, clamped to max.
func queryInt(c *gin.Context, key string, fallback, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	if v > max {
		return max
	}
	return v
}
