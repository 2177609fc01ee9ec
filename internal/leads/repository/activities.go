package repository

import (
	"context"
	"encoding/json"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

func (r *Repository) AddActivity(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}

	var metadata []byte
	if len(activity.Metadata) > 0 {
		encoded, err := json.Marshal(activity.Metadata)
		if err != nil {
			return domain.Activity{}, err
		}
		metadata = encoded
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_activities (id, lead_id, kind, detail, source, confidence, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, activity.ID, activity.LeadID, activity.Kind, activity.Detail, activity.Source,
		activity.Confidence, metadata, activity.CreatedAt,
	).Scan(&activity.CreatedAt)
	if err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}

// ListActivities returns the lead's trail newest first.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, kind, detail, source, confidence, metadata, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Activity, 0)
	for rows.Next() {
		var item domain.Activity
		var metadata []byte
		if err := rows.Scan(&item.ID, &item.LeadID, &item.Kind, &item.Detail, &item.Source,
			&item.Confidence, &metadata, &item.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
