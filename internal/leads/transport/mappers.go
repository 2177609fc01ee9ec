package transport

import (
	"lead_intel_backend/internal/leads/domain"
)

func ToLeadResponse(l domain.Lead) LeadResponse {
	interests := l.VehicleInterests
	if interests == nil {
		interests = []string{}
	}
	return LeadResponse{
		ID:                  l.ID,
		Name:                l.Name,
		Email:               l.Email,
		Phone:               l.Phone,
		Contact:             l.ContactHandle,
		Source:              l.Source,
		SourceURL:           l.SourceURL,
		RawText:             l.RawText,
		IntentScore:         l.IntentScore,
		Stage:               l.Stage,
		VehicleInterests:    interests,
		Region:              l.Region,
		BudgetRange:         l.BudgetRange,
		Timeframe:           l.Timeframe,
		Status:              l.Status,
		Converted:           l.Converted,
		ConvertedCustomerID: l.ConvertedCustomerID,
		FirstSeenAt:         l.FirstSeenAt,
		LastSeenAt:          l.LastSeenAt,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

func ToLeadDetailResponse(l domain.Lead, activities []domain.Activity) LeadDetailResponse {
	items := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		items = append(items, ActivityResponse{
			ID:         a.ID,
			Kind:       a.Kind,
			Detail:     a.Detail,
			Source:     a.Source,
			Confidence: a.Confidence,
			Metadata:   a.Metadata,
			CreatedAt:  a.CreatedAt,
		})
	}
	return LeadDetailResponse{LeadResponse: ToLeadResponse(l), Activities: items}
}

func ToLeadListResponse(items []domain.Lead, total, page, pageSize int) LeadListResponse {
	out := make([]LeadResponse, 0, len(items))
	for _, l := range items {
		out = append(out, ToLeadResponse(l))
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return LeadListResponse{Items: out, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

func ToAlertResponse(a domain.Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		LeadID:     a.LeadID,
		Trigger:    a.Trigger,
		Message:    a.Message,
		Priority:   a.Priority,
		Status:     a.Status,
		ActionedBy: a.ActionedBy,
		ActionedAt: a.ActionedAt,
		CreatedAt:  a.CreatedAt,
	}
}

func ToAlertResponses(alerts []domain.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, ToAlertResponse(a))
	}
	return out
}

func ToActiveAlertResponses(alerts []domain.AlertWithLead) []ActiveAlertResponse {
	out := make([]ActiveAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, ActiveAlertResponse{
			AlertResponse: ToAlertResponse(a.Alert),
			Lead:          ToLeadResponse(a.Lead),
		})
	}
	return out
}

func ToScoreSampleResponses(samples []domain.ScoreSample) []ScoreSampleResponse {
	out := make([]ScoreSampleResponse, 0, len(samples))
	for _, s := range samples {
		out = append(out, ScoreSampleResponse{
			ID:        s.ID,
			Score:     s.Score,
			Stage:     s.Stage,
			Factors:   s.Factors,
			CreatedAt: s.CreatedAt,
		})
	}
	return out
}

func ToLeadSourceResponses(sources []domain.LeadSource) []LeadSourceResponse {
	out := make([]LeadSourceResponse, 0, len(sources))
	for _, s := range sources {
		out = append(out, LeadSourceResponse{
			Name:        s.Name,
			SignalCount: s.SignalCount,
			FirstSeenAt: s.FirstSeenAt,
			LastSeenAt:  s.LastSeenAt,
		})
	}
	return out
}

func ToSummaryResponse(s domain.Summary) SummaryResponse {
	dist := make(map[string]int, len(s.StageDistribution))
	for stage, count := range s.StageDistribution {
		dist[string(stage)] = count
	}
	return SummaryResponse{
		TotalLeads:        s.TotalLeads,
		HighIntentLeads:   s.HighIntentLeads,
		ReadyToBuyLeads:   s.ReadyToBuyLeads,
		ActiveAlerts:      s.ActiveAlerts,
		ConvertedLeads:    s.ConvertedLeads,
		ConversionRate:    s.ConversionRate,
		StageDistribution: dist,
	}
}
