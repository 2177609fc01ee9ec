package repository

import (
	"context"
	"encoding/json"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

func (r *Repository) AddScoreSample(ctx context.Context, sample domain.ScoreSample) (domain.ScoreSample, error) {
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	factors, err := json.Marshal(sample.Factors)
	if err != nil {
		return domain.ScoreSample{}, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_score_samples (id, lead_id, score, stage, factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sample.ID, sample.LeadID, sample.Score, string(sample.Stage), factors, sample.CreatedAt)
	if err != nil {
		return domain.ScoreSample{}, err
	}
	return sample, nil
}

// ListScoreSamples returns up to limit samples for a lead, newest first.
func (r *Repository) ListScoreSamples(ctx context.Context, leadID uuid.UUID, limit int) ([]domain.ScoreSample, error) {
	limit, _ = normalizePage(limit, 0)
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, score, stage, factors, created_at
		FROM lead_score_samples
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ScoreSample, 0)
	for rows.Next() {
		var item domain.ScoreSample
		var stage string
		var factors []byte
		if err := rows.Scan(&item.ID, &item.LeadID, &item.Score, &stage, &factors, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Stage = domain.Stage(stage)
		if len(factors) > 0 {
			if err := json.Unmarshal(factors, &item.Factors); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// TouchSource upserts the source row and bumps its signal count.
func (r *Repository) TouchSource(ctx context.Context, name string, seenAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_sources (name, signal_count, first_seen_at, last_seen_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (name) DO UPDATE
		SET signal_count = lead_sources.signal_count + 1,
			last_seen_at = GREATEST(lead_sources.last_seen_at, EXCLUDED.last_seen_at)
	`, name, seenAt)
	return err
}

func (r *Repository) ListSources(ctx context.Context) ([]domain.LeadSource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, signal_count, first_seen_at, last_seen_at
		FROM lead_sources
		ORDER BY signal_count DESC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LeadSource, 0)
	for rows.Next() {
		var item domain.LeadSource
		if err := rows.Scan(&item.Name, &item.SignalCount, &item.FirstSeenAt, &item.LastSeenAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
