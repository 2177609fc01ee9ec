// Package repository persists leads, their activity trail, alerts, score
// history and source catalog.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation      = "23505"
	identityKeyConstraint  = "leads_identity_key_unique"
	defaultListLimit       = 20
	maxListLimit           = 200
	defaultActiveAlertSize = 100
)

const leadColumns = `id, identity_key, name, email, phone, contact_handle,
	source, source_url, raw_text, intent_score, lifecycle_stage, vehicle_interests,
	region, budget_range, timeframe, status, converted, converted_customer_id,
	first_seen_at, last_seen_at, created_at, updated_at`

// Repository is the Postgres implementation of Store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var stage, status string
	err := row.Scan(
		&lead.ID, &lead.IdentityKey, &lead.Name, &lead.Email, &lead.Phone, &lead.ContactHandle,
		&lead.Source, &lead.SourceURL, &lead.RawText, &lead.IntentScore, &stage, &lead.VehicleInterests,
		&lead.Region, &lead.BudgetRange, &lead.Timeframe, &status, &lead.Converted, &lead.ConvertedCustomerID,
		&lead.FirstSeenAt, &lead.LastSeenAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Stage = domain.Stage(stage)
	lead.Status = domain.LeadStatus(status)
	if lead.VehicleInterests == nil {
		lead.VehicleInterests = []string{}
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) GetByIdentityKey(ctx context.Context, key string) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE identity_key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.VehicleInterests == nil {
		lead.VehicleInterests = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING `+leadColumns,
		lead.ID, lead.IdentityKey, lead.Name, lead.Email, lead.Phone, lead.ContactHandle,
		lead.Source, lead.SourceURL, lead.RawText, lead.IntentScore, string(lead.Stage), lead.VehicleInterests,
		lead.Region, lead.BudgetRange, lead.Timeframe, string(lead.Status), lead.Converted, lead.ConvertedCustomerID,
		lead.FirstSeenAt, lead.LastSeenAt, lead.CreatedAt, lead.UpdatedAt,
	)
	created, err := scanLead(row)
	if err != nil {
		if isIdentityViolation(err) {
			return domain.Lead{}, ErrDuplicateIdentity
		}
		return domain.Lead{}, err
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.VehicleInterests == nil {
		lead.VehicleInterests = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			name = $2, email = $3, phone = $4, contact_handle = $5,
			source = $6, source_url = $7, raw_text = $8,
			intent_score = $9, lifecycle_stage = $10, vehicle_interests = $11,
			region = $12, budget_range = $13, timeframe = $14,
			last_seen_at = $15, updated_at = $16
		WHERE id = $1
		RETURNING `+leadColumns,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.ContactHandle,
		lead.Source, lead.SourceURL, lead.RawText,
		lead.IntentScore, string(lead.Stage), lead.VehicleInterests,
		lead.Region, lead.BudgetRange, lead.Timeframe,
		lead.LastSeenAt, lead.UpdatedAt,
	)
	updated, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return updated, err
}

func (r *Repository) UpdateEnrichment(ctx context.Context, change EnrichmentChange) (domain.Lead, error) {
	interests := change.VehicleInterests
	if interests == nil {
		interests = []string{}
	}
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			intent_score = $3, lifecycle_stage = $4, vehicle_interests = $5, updated_at = $6
		WHERE id = $1 AND updated_at = $2
		RETURNING `+leadColumns,
		change.ID, change.ExpectedUpdatedAt, change.IntentScore, string(change.Stage), interests, change.UpdatedAt,
	))
	if !errors.Is(err, pgx.ErrNoRows) {
		return lead, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, change.ID).Scan(&exists); err != nil {
		return domain.Lead{}, err
	}
	if !exists {
		return domain.Lead{}, ErrNotFound
	}
	return domain.Lead{}, ErrLeadChanged
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) MarkConverted(ctx context.Context, id uuid.UUID, customerID *string) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET converted = true, converted_customer_id = COALESCE($2, converted_customer_id), updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, id, customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	whereClause, args := buildLeadListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(params.Limit, params.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY intent_score DESC, created_at DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func (r *Repository) ListAfter(ctx context.Context, cursor uuid.UUID, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0, limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func buildLeadListWhere(params ListParams) (string, []any) {
	clauses := []string{"TRUE"}
	args := make([]any, 0, 4)

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if params.Stage != nil {
		add("lifecycle_stage = $%d", string(*params.Stage))
	}
	if params.Status != nil {
		add("status = $%d", string(*params.Status))
	}
	if params.Source != nil {
		add("source = $%d", *params.Source)
	}
	if params.MinScore != nil {
		add("intent_score >= $%d", *params.MinScore)
	}

	return strings.Join(clauses, " AND "), args
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func isIdentityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return pgErr.ConstraintName == "" || pgErr.ConstraintName == identityKeyConstraint
}
