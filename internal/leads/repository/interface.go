package repository

import (
	"context"
	"errors"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lead or alert does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateIdentity is returned when an insert collides on the identity key.
	ErrDuplicateIdentity = errors.New("duplicate identity key")
	// ErrAlertStatusChanged is returned when an alert left the expected status
	// between read and write.
	ErrAlertStatusChanged = errors.New("alert status changed concurrently")
	// ErrLeadChanged is returned when a lead was written between read and
	// a conditional update.
	ErrLeadChanged = errors.New("lead changed concurrently")
)

// ListParams filters and pages the lead list. Results are always ordered by
// intent score then creation time, both descending.
type ListParams struct {
	Stage    *domain.Stage
	Status   *domain.LeadStatus
	Source   *string
	MinScore *int
	Offset   int
	Limit    int
}

// AlertStatusChange describes a conditional alert status update.
type AlertStatusChange struct {
	ID         uuid.UUID
	From       domain.AlertStatus
	To         domain.AlertStatus
	ActionedBy *string
	ActionedAt *time.Time
}

// EnrichmentChange rewrites only the derived fields of a lead, and only if
// the lead still carries ExpectedUpdatedAt.
type EnrichmentChange struct {
	ID                uuid.UUID
	IntentScore       int
	Stage             domain.Stage
	VehicleInterests  []string
	ExpectedUpdatedAt time.Time
	UpdatedAt         time.Time
}

// =====================================
// Segregated Interfaces
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetByIdentityKey(ctx context.Context, key string) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
	// ListAfter returns up to limit leads with id greater than cursor, ordered by id.
	ListAfter(ctx context.Context, cursor uuid.UUID, limit int) ([]domain.Lead, error)
}

// LeadWriter provides write operations for leads.
type LeadWriter interface {
	// Insert returns ErrDuplicateIdentity when the identity key already exists.
	Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	// Update overwrites every mutable column of the lead with the given id.
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	// UpdateEnrichment returns ErrLeadChanged when updated_at moved since the read.
	UpdateEnrichment(ctx context.Context, change EnrichmentChange) (domain.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error)
	MarkConverted(ctx context.Context, id uuid.UUID, customerID *string) (domain.Lead, error)
}

// ActivityStore appends and reads the audit trail.
type ActivityStore interface {
	AddActivity(ctx context.Context, activity domain.Activity) (domain.Activity, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]domain.Activity, error)
}

// AlertStore persists alerts and their status changes.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error)
	GetAlert(ctx context.Context, id uuid.UUID) (domain.Alert, error)
	ListActiveAlerts(ctx context.Context, limit int) ([]domain.AlertWithLead, error)
	ListLeadAlerts(ctx context.Context, leadID uuid.UUID) ([]domain.Alert, error)
	UpdateAlertStatus(ctx context.Context, change AlertStatusChange) (domain.Alert, error)
}

// ScoreHistory records scoring events.
type ScoreHistory interface {
	AddScoreSample(ctx context.Context, sample domain.ScoreSample) (domain.ScoreSample, error)
	ListScoreSamples(ctx context.Context, leadID uuid.UUID, limit int) ([]domain.ScoreSample, error)
}

// SourceCatalog tracks signal origins.
type SourceCatalog interface {
	TouchSource(ctx context.Context, name string, seenAt time.Time) error
	ListSources(ctx context.Context) ([]domain.LeadSource, error)
}

// AnalyticsReader computes summary counts from one consistent snapshot.
type AnalyticsReader interface {
	Summary(ctx context.Context) (domain.Summary, error)
}

// Store is the full persistence surface used by the leads module.
type Store interface {
	LeadReader
	LeadWriter
	ActivityStore
	AlertStore
	ScoreHistory
	SourceCatalog
	AnalyticsReader
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*MemoryStore)(nil)
)
