package transport

import (
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// IngestSignalRequest is the typed ingestion payload.
type IngestSignalRequest = domain.RawLead

// UpdateLeadStatusRequest changes the workflow status.
type UpdateLeadStatusRequest struct {
	Status domain.LeadStatus `json:"status" validate:"required,oneof=new contacted qualified lost"`
}

// ConvertLeadRequest marks a lead as converted.
type ConvertLeadRequest struct {
	CustomerID string `json:"customerId,omitempty" validate:"omitempty,max=100"`
}

// UpdateAlertStatusRequest moves an alert along its lifecycle.
type UpdateAlertStatusRequest struct {
	Status domain.AlertStatus `json:"status" validate:"required,oneof=read actioned dismissed"`
}

// ListLeadsRequest is bound from the query string.
type ListLeadsRequest struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	Stage    string `form:"stage" validate:"omitempty,oneof=awareness consideration intent purchase ownership"`
	Status   string `form:"status" validate:"omitempty,oneof=new contacted qualified lost"`
	Source   string `form:"source" validate:"omitempty,max=100"`
	MinScore *int   `form:"minScore" validate:"omitempty,min=0,max=100"`
}

// LeadResponse is the public representation of a lead.
type LeadResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	Email               *string           `json:"email,omitempty"`
	Phone               *string           `json:"phone,omitempty"`
	Contact             *string           `json:"contact,omitempty"`
	Source              string            `json:"source"`
	SourceURL           *string           `json:"sourceUrl,omitempty"`
	RawText             string            `json:"postContent"`
	IntentScore         int               `json:"intentScore"`
	Stage               domain.Stage      `json:"stage"`
	VehicleInterests    []string          `json:"vehicleInterests"`
	Region              *string           `json:"region,omitempty"`
	BudgetRange         *string           `json:"budgetRange,omitempty"`
	Timeframe           *string           `json:"timeframe,omitempty"`
	Status              domain.LeadStatus `json:"status"`
	Converted           bool              `json:"converted"`
	ConvertedCustomerID *string           `json:"convertedCustomerId,omitempty"`
	FirstSeenAt         time.Time         `json:"firstSeenAt"`
	LastSeenAt          time.Time         `json:"lastSeenAt"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID         uuid.UUID      `json:"id"`
	Kind       string         `json:"kind"`
	Detail     string         `json:"detail"`
	Source     string         `json:"source"`
	Confidence int            `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// LeadDetailResponse is a lead with its activity history.
type LeadDetailResponse struct {
	LeadResponse
	Activities []ActivityResponse `json:"activities"`
}

// LeadListResponse is one page of leads.
type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// AlertResponse is the public representation of an alert.
type AlertResponse struct {
	ID         uuid.UUID          `json:"id"`
	LeadID     uuid.UUID          `json:"leadId"`
	Trigger    string             `json:"trigger"`
	Message    string             `json:"message"`
	Priority   domain.Priority    `json:"priority"`
	Status     domain.AlertStatus `json:"status"`
	ActionedBy *string            `json:"actionedBy,omitempty"`
	ActionedAt *time.Time         `json:"actionedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// ActiveAlertResponse is an alert joined with a lead summary.
type ActiveAlertResponse struct {
	AlertResponse
	Lead LeadResponse `json:"lead"`
}

// IngestWarning is a post-commit step that failed.
type IngestWarning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// IngestResponse reports the outcome of an ingestion.
type IngestResponse struct {
	Lead     LeadResponse        `json:"lead"`
	Created  bool                `json:"created"`
	Factors  domain.ScoreFactors `json:"factors"`
	Alert    *AlertResponse      `json:"alert,omitempty"`
	Warnings []IngestWarning     `json:"warnings,omitempty"`
}

// EnqueueResponse reports a queued ingestion task.
type EnqueueResponse struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}

// ScoreSampleResponse is one scoring event.
type ScoreSampleResponse struct {
	ID        uuid.UUID           `json:"id"`
	Score     int                 `json:"score"`
	Stage     domain.Stage        `json:"stage"`
	Factors   domain.ScoreFactors `json:"factors"`
	CreatedAt time.Time           `json:"createdAt"`
}

// LeadSourceResponse is one catalog entry.
type LeadSourceResponse struct {
	Name        string    `json:"name"`
	SignalCount int64     `json:"signalCount"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

// SummaryResponse is the analytics snapshot.
type SummaryResponse struct {
	TotalLeads        int            `json:"totalLeads"`
	HighIntentLeads   int            `json:"highIntentLeads"`
	ReadyToBuyLeads   int            `json:"readyToBuyLeads"`
	ActiveAlerts      int            `json:"activeAlerts"`
	ConvertedLeads    int            `json:"convertedLeads"`
	ConversionRate    int            `json:"conversionRate"`
	StageDistribution map[string]int `json:"stageDistribution"`
}

// PreviewRequest scores text without persisting anything.
type PreviewRequest struct {
	Text   string `json:"text" validate:"required"`
	Source string `json:"source" validate:"omitempty,max=100"`
	Region string `json:"region" validate:"omitempty,max=100"`
}

// PreviewAlert is the alert an ingestion would raise.
type PreviewAlert struct {
	Trigger  string          `json:"trigger"`
	Priority domain.Priority `json:"priority"`
	Message  string          `json:"message"`
}

// PreviewResponse is a dry-run scoring result.
type PreviewResponse struct {
	IntentScore      int                 `json:"intentScore"`
	Stage            domain.Stage        `json:"stage"`
	VehicleInterests []string            `json:"vehicleInterests"`
	Factors          domain.ScoreFactors `json:"factors"`
	Alert            *PreviewAlert       `json:"alert,omitempty"`
}
