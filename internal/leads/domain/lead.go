// Package domain holds the lead intelligence data model shared by the
// scoring pipeline, persistence and transport layers.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a potential buyer detected from a signal.
type Lead struct {
	ID          uuid.UUID
	IdentityKey string

	Name          string
	Email         *string
	Phone         *string
	ContactHandle *string

	Source    string
	SourceURL *string
	RawText   string

	IntentScore      int
	Stage            Stage
	VehicleInterests []string

	Region      *string
	BudgetRange *string
	Timeframe   *string

	Status              LeadStatus
	Converted           bool
	ConvertedCustomerID *string

	FirstSeenAt time.Time
	LastSeenAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RawLead is the typed payload a collaborator submits for ingestion.
// Name and Source are required; everything else is optional.
type RawLead struct {
	Name          string `json:"name" validate:"required,notblank,max=200"`
	Source        string `json:"source" validate:"required,notblank,max=100"`
	Email         string `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=40"`
	ContactHandle string `json:"contact,omitempty" validate:"omitempty,max=200"`
	SourceURL     string `json:"sourceUrl,omitempty" validate:"omitempty,url,max=2048"`
	RawText       string `json:"postContent,omitempty"`
	Region        string `json:"region,omitempty" validate:"omitempty,max=100"`
	BudgetRange   string `json:"budgetRange,omitempty" validate:"omitempty,max=100"`
	Timeframe     string `json:"timeframe,omitempty" validate:"omitempty,max=100"`
}

// IdentityKey is the deduplication key for a submission: the normalized
// email when present, else name|source|contact.
func (r RawLead) IdentityKey() string {
	if email := normalizeKeyPart(r.Email); email != "" {
		return email
	}
	return normalizeKeyPart(r.Name) + "|" + normalizeKeyPart(r.Source) + "|" + normalizeKeyPart(r.ContactHandle)
}

func normalizeKeyPart(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// MaxStoredPostContent bounds the post text kept on a lead and its activity.
// Scoring always sees the full submission.
const MaxStoredPostContent = 20000

// StoredPostContent truncates text to MaxStoredPostContent runes.
func StoredPostContent(text string) string {
	if len(text) <= MaxStoredPostContent {
		return text
	}
	n := 0
	for i := range text {
		if n == MaxStoredPostContent {
			return text[:i]
		}
		n++
	}
	return text
}

// OptionalString returns nil for blank input and a trimmed copy otherwise.
func OptionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// LeadSource is a signal origin seen by the pipeline.
type LeadSource struct {
	Name        string
	SignalCount int64
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}
