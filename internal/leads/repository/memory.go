package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store that enforces the same identity-key
// uniqueness as the Postgres schema. Used by tests and the offline CLI.
type MemoryStore struct {
	mu         sync.RWMutex
	leads      map[uuid.UUID]domain.Lead
	byIdentity map[string]uuid.UUID
	activities []domain.Activity
	alerts     []domain.Alert
	samples    []domain.ScoreSample
	sources    map[string]domain.LeadSource
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		leads:      make(map[uuid.UUID]domain.Lead),
		byIdentity: make(map[string]uuid.UUID),
		sources:    make(map[string]domain.LeadSource),
	}
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *MemoryStore) GetByIdentityKey(_ context.Context, key string) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byIdentity[key]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return cloneLead(m.leads[id]), nil
}

func (m *MemoryStore) Insert(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byIdentity[lead.IdentityKey]; exists {
		return domain.Lead{}, ErrDuplicateIdentity
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead = cloneLead(lead)
	m.leads[lead.ID] = lead
	m.byIdentity[lead.IdentityKey] = lead.ID
	return cloneLead(lead), nil
}

func (m *MemoryStore) Update(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.leads[lead.ID]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}

	current.Name = lead.Name
	current.Email = lead.Email
	current.Phone = lead.Phone
	current.ContactHandle = lead.ContactHandle
	current.Source = lead.Source
	current.SourceURL = lead.SourceURL
	current.RawText = lead.RawText
	current.IntentScore = lead.IntentScore
	current.Stage = lead.Stage
	current.VehicleInterests = lead.VehicleInterests
	current.Region = lead.Region
	current.BudgetRange = lead.BudgetRange
	current.Timeframe = lead.Timeframe
	current.LastSeenAt = lead.LastSeenAt
	current.UpdatedAt = lead.UpdatedAt

	current = cloneLead(current)
	m.leads[current.ID] = current
	return cloneLead(current), nil
}

func (m *MemoryStore) UpdateEnrichment(_ context.Context, change EnrichmentChange) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.leads[change.ID]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	if !current.UpdatedAt.Equal(change.ExpectedUpdatedAt) {
		return domain.Lead{}, ErrLeadChanged
	}

	current.IntentScore = change.IntentScore
	current.Stage = change.Stage
	current.VehicleInterests = change.VehicleInterests
	current.UpdatedAt = change.UpdatedAt

	current = cloneLead(current)
	m.leads[current.ID] = current
	return cloneLead(current), nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error) {
	return m.mutateLead(id, func(l *domain.Lead) { l.Status = status })
}

func (m *MemoryStore) MarkConverted(_ context.Context, id uuid.UUID, customerID *string) (domain.Lead, error) {
	return m.mutateLead(id, func(l *domain.Lead) {
		l.Converted = true
		if customerID != nil {
			l.ConvertedCustomerID = customerID
		}
	})
}

func (m *MemoryStore) mutateLead(id uuid.UUID, fn func(*domain.Lead)) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	fn(&lead)
	lead.UpdatedAt = time.Now().UTC()
	m.leads[id] = lead
	return cloneLead(lead), nil
}

func (m *MemoryStore) List(_ context.Context, params ListParams) ([]domain.Lead, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		if matchesListParams(lead, params) {
			matched = append(matched, lead)
		}
	}
	slices.SortFunc(matched, func(a, b domain.Lead) int {
		if c := cmp.Compare(b.IntentScore, a.IntentScore); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	limit, offset := normalizePage(params.Limit, params.Offset)
	if offset >= total {
		return []domain.Lead{}, total, nil
	}
	end := min(offset+limit, total)

	page := make([]domain.Lead, 0, end-offset)
	for _, lead := range matched[offset:end] {
		page = append(page, cloneLead(lead))
	}
	return page, total, nil
}

func (m *MemoryStore) ListAfter(_ context.Context, cursor uuid.UUID, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	cursorKey := cursor.String()
	candidates := make([]domain.Lead, 0)
	for _, lead := range m.leads {
		if lead.ID.String() > cursorKey {
			candidates = append(candidates, lead)
		}
	}
	slices.SortFunc(candidates, func(a, b domain.Lead) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.Lead, 0, len(candidates))
	for _, lead := range candidates {
		out = append(out, cloneLead(lead))
	}
	return out, nil
}

func (m *MemoryStore) AddActivity(_ context.Context, activity domain.Activity) (domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[activity.LeadID]; !ok {
		return domain.Activity{}, ErrNotFound
	}
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	m.activities = append(m.activities, activity)
	return activity, nil
}

func (m *MemoryStore) ListActivities(_ context.Context, leadID uuid.UUID) ([]domain.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]domain.Activity, 0)
	for i := len(m.activities) - 1; i >= 0; i-- {
		if m.activities[i].LeadID == leadID {
			items = append(items, m.activities[i])
		}
	}
	slices.SortStableFunc(items, func(a, b domain.Activity) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return items, nil
}

func (m *MemoryStore) CreateAlert(_ context.Context, alert domain.Alert) (domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[alert.LeadID]; !ok {
		return domain.Alert{}, ErrNotFound
	}
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.Status == "" {
		alert.Status = domain.AlertStatusNew
	}
	m.alerts = append(m.alerts, alert)
	return alert, nil
}

func (m *MemoryStore) GetAlert(_ context.Context, id uuid.UUID) (domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, alert := range m.alerts {
		if alert.ID == id {
			return alert, nil
		}
	}
	return domain.Alert{}, ErrNotFound
}

func (m *MemoryStore) ListActiveAlerts(_ context.Context, limit int) ([]domain.AlertWithLead, error) {
	if limit <= 0 {
		limit = defaultActiveAlertSize
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.AlertWithLead, 0)
	for i := len(m.alerts) - 1; i >= 0; i-- {
		alert := m.alerts[i]
		if alert.Status != domain.AlertStatusNew {
			continue
		}
		items = append(items, domain.AlertWithLead{Alert: alert, Lead: cloneLead(m.leads[alert.LeadID])})
	}
	slices.SortStableFunc(items, func(a, b domain.AlertWithLead) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) ListLeadAlerts(_ context.Context, leadID uuid.UUID) ([]domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]domain.Alert, 0)
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if m.alerts[i].LeadID == leadID {
			items = append(items, m.alerts[i])
		}
	}
	slices.SortStableFunc(items, func(a, b domain.Alert) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return items, nil
}

func (m *MemoryStore) UpdateAlertStatus(_ context.Context, change AlertStatusChange) (domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID != change.ID {
			continue
		}
		if m.alerts[i].Status != change.From {
			return domain.Alert{}, ErrAlertStatusChanged
		}
		m.alerts[i].Status = change.To
		if change.ActionedBy != nil {
			m.alerts[i].ActionedBy = change.ActionedBy
		}
		if change.ActionedAt != nil {
			m.alerts[i].ActionedAt = change.ActionedAt
		}
		return m.alerts[i], nil
	}
	return domain.Alert{}, ErrNotFound
}

func (m *MemoryStore) AddScoreSample(_ context.Context, sample domain.ScoreSample) (domain.ScoreSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[sample.LeadID]; !ok {
		return domain.ScoreSample{}, ErrNotFound
	}
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	m.samples = append(m.samples, sample)
	return sample, nil
}

func (m *MemoryStore) ListScoreSamples(_ context.Context, leadID uuid.UUID, limit int) ([]domain.ScoreSample, error) {
	limit, _ = normalizePage(limit, 0)
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]domain.ScoreSample, 0)
	for i := len(m.samples) - 1; i >= 0 && len(items) < limit; i-- {
		if m.samples[i].LeadID == leadID {
			items = append(items, m.samples[i])
		}
	}
	return items, nil
}

func (m *MemoryStore) TouchSource(_ context.Context, name string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[name]
	if !ok {
		src = domain.LeadSource{Name: name, FirstSeenAt: seenAt}
	}
	src.SignalCount++
	if seenAt.After(src.LastSeenAt) {
		src.LastSeenAt = seenAt
	}
	m.sources[name] = src
	return nil
}

func (m *MemoryStore) ListSources(_ context.Context) ([]domain.LeadSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]domain.LeadSource, 0, len(m.sources))
	for _, src := range m.sources {
		items = append(items, src)
	}
	slices.SortFunc(items, func(a, b domain.LeadSource) int {
		if c := cmp.Compare(b.SignalCount, a.SignalCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return items, nil
}

// Summary is computed under one read lock.
func (m *MemoryStore) Summary(_ context.Context) (domain.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := domain.Summary{StageDistribution: domain.ZeroStageDistribution()}
	for _, lead := range m.leads {
		summary.TotalLeads++
		if lead.IntentScore >= 70 {
			summary.HighIntentLeads++
		}
		if lead.IntentScore >= 85 {
			summary.ReadyToBuyLeads++
		}
		if lead.Converted {
			summary.ConvertedLeads++
		}
		summary.StageDistribution[lead.Stage]++
	}
	for _, alert := range m.alerts {
		if alert.Status == domain.AlertStatusNew {
			summary.ActiveAlerts++
		}
	}
	summary.ConversionRate = domain.ConversionRate(summary.ConvertedLeads, summary.TotalLeads)
	return summary, nil
}

func matchesListParams(lead domain.Lead, params ListParams) bool {
	if params.Stage != nil && lead.Stage != *params.Stage {
		return false
	}
	if params.Status != nil && lead.Status != *params.Status {
		return false
	}
	if params.Source != nil && lead.Source != *params.Source {
		return false
	}
	if params.MinScore != nil && lead.IntentScore < *params.MinScore {
		return false
	}
	return true
}

func cloneLead(lead domain.Lead) domain.Lead {
	lead.VehicleInterests = append([]string{}, lead.VehicleInterests...)
	return lead
}
