package repository

import (
	"context"

	"lead_intel_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

// Summary reads every count inside one repeatable-read snapshot so the
// numbers agree with each other under concurrent writes.
func (r *Repository) Summary(ctx context.Context) (domain.Summary, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return domain.Summary{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	summary := domain.Summary{StageDistribution: domain.ZeroStageDistribution()}

	err = tx.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE intent_score >= 70),
			COUNT(*) FILTER (WHERE intent_score >= 85),
			COUNT(*) FILTER (WHERE converted)
		FROM leads
	`).Scan(&summary.TotalLeads, &summary.HighIntentLeads, &summary.ReadyToBuyLeads, &summary.ConvertedLeads)
	if err != nil {
		return domain.Summary{}, err
	}

	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM lead_alerts WHERE status = 'new'`).Scan(&summary.ActiveAlerts); err != nil {
		return domain.Summary{}, err
	}

	rows, err := tx.Query(ctx, `SELECT lifecycle_stage, COUNT(*) FROM leads GROUP BY lifecycle_stage`)
	if err != nil {
		return domain.Summary{}, err
	}
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			rows.Close()
			return domain.Summary{}, err
		}
		summary.StageDistribution[domain.Stage(stage)] = count
	}
	rows.Close()
	if rows.Err() != nil {
		return domain.Summary{}, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Summary{}, err
	}

	summary.ConversionRate = domain.ConversionRate(summary.ConvertedLeads, summary.TotalLeads)
	return summary, nil
}
