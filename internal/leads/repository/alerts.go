package repository

import (
	"context"
	"errors"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const alertColumns = `id, lead_id, trigger, message, priority, status, actioned_by, actioned_at, created_at`

func scanAlert(row pgx.Row) (domain.Alert, error) {
	var alert domain.Alert
	var priority, status string
	if err := row.Scan(&alert.ID, &alert.LeadID, &alert.Trigger, &alert.Message, &priority, &status,
		&alert.ActionedBy, &alert.ActionedAt, &alert.CreatedAt); err != nil {
		return domain.Alert{}, err
	}
	alert.Priority = domain.Priority(priority)
	alert.Status = domain.AlertStatus(status)
	return alert, nil
}

func (r *Repository) CreateAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.Status == "" {
		alert.Status = domain.AlertStatusNew
	}
	return scanAlert(r.pool.QueryRow(ctx, `
		INSERT INTO lead_alerts (id, lead_id, trigger, message, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+alertColumns,
		alert.ID, alert.LeadID, alert.Trigger, alert.Message, string(alert.Priority), string(alert.Status), alert.CreatedAt,
	))
}

func (r *Repository) GetAlert(ctx context.Context, id uuid.UUID) (domain.Alert, error) {
	alert, err := scanAlert(r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM lead_alerts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Alert{}, ErrNotFound
	}
	return alert, err
}

// ListActiveAlerts returns alerts in status new joined with their lead, newest first.
func (r *Repository) ListActiveAlerts(ctx context.Context, limit int) ([]domain.AlertWithLead, error) {
	if limit <= 0 {
		limit = defaultActiveAlertSize
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.lead_id, a.trigger, a.message, a.priority, a.status, a.actioned_by, a.actioned_at, a.created_at,
			l.id, l.identity_key, l.name, l.email, l.phone, l.contact_handle,
			l.source, l.source_url, l.raw_text, l.intent_score, l.lifecycle_stage, l.vehicle_interests,
			l.region, l.budget_range, l.timeframe, l.status, l.converted, l.converted_customer_id,
			l.first_seen_at, l.last_seen_at, l.created_at, l.updated_at
		FROM lead_alerts a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.status = 'new'
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.AlertWithLead, 0)
	for rows.Next() {
		var item domain.AlertWithLead
		var priority, alertStatus, stage, leadStatus string
		if err := rows.Scan(
			&item.ID, &item.LeadID, &item.Trigger, &item.Message, &priority, &alertStatus,
			&item.ActionedBy, &item.ActionedAt, &item.CreatedAt,
			&item.Lead.ID, &item.Lead.IdentityKey, &item.Lead.Name, &item.Lead.Email, &item.Lead.Phone, &item.Lead.ContactHandle,
			&item.Lead.Source, &item.Lead.SourceURL, &item.Lead.RawText, &item.Lead.IntentScore, &stage, &item.Lead.VehicleInterests,
			&item.Lead.Region, &item.Lead.BudgetRange, &item.Lead.Timeframe, &leadStatus, &item.Lead.Converted, &item.Lead.ConvertedCustomerID,
			&item.Lead.FirstSeenAt, &item.Lead.LastSeenAt, &item.Lead.CreatedAt, &item.Lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.Priority = domain.Priority(priority)
		item.Status = domain.AlertStatus(alertStatus)
		item.Lead.Stage = domain.Stage(stage)
		item.Lead.Status = domain.LeadStatus(leadStatus)
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListLeadAlerts returns every alert raised for a lead, newest first.
func (r *Repository) ListLeadAlerts(ctx context.Context, leadID uuid.UUID) ([]domain.Alert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertColumns+` FROM lead_alerts
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, alert)
	}
	return items, rows.Err()
}

// UpdateAlertStatus applies change only while the alert is still in change.From.
func (r *Repository) UpdateAlertStatus(ctx context.Context, change AlertStatusChange) (domain.Alert, error) {
	alert, err := scanAlert(r.pool.QueryRow(ctx, `
		UPDATE lead_alerts
		SET status = $3,
			actioned_by = COALESCE($4, actioned_by),
			actioned_at = COALESCE($5, actioned_at)
		WHERE id = $1 AND status = $2
		RETURNING `+alertColumns,
		change.ID, string(change.From), string(change.To), change.ActionedBy, change.ActionedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetAlert(ctx, change.ID); getErr != nil {
			return domain.Alert{}, getErr
		}
		return domain.Alert{}, ErrAlertStatusChanged
	}
	return alert, err
}
