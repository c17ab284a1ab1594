package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/tenant"
)

const organizationColumns = `id, name, slug, api_key, subscription_tier, subscription_status,
	monthly_url_limit, monthly_urls_used, created_at`

// PostgresOrganizationStore is a PostgreSQL implementation of tenant.Store.
type PostgresOrganizationStore struct {
	db querier
}

var _ tenant.Store = (*PostgresOrganizationStore)(nil)

// NewPostgresOrganizationStore creates a new PostgreSQL-backed organization store.
func NewPostgresOrganizationStore(pool *pgxpool.Pool) *PostgresOrganizationStore {
	return &PostgresOrganizationStore{db: pool}
}

func (p *PostgresOrganizationStore) FindByAPIKey(ctx context.Context, apiKey string) (*tenant.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE api_key = $1`

	org, err := scanOrganization(p.db.QueryRow(ctx, query, apiKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tenant.ErrNotFound
	}

	return org, err
}

// ReserveURL increments usage in a single conditional statement so concurrent
// creations can never push an organization past its limit.
func (p *PostgresOrganizationStore) ReserveURL(ctx context.Context, orgID uuid.UUID) (*tenant.Organization, error) {
	query := `
		UPDATE organizations
		SET monthly_urls_used = monthly_urls_used + 1
		WHERE id = $1
		  AND (monthly_url_limit <= 0 OR monthly_urls_used < monthly_url_limit)
		RETURNING ` + organizationColumns

	org, err := scanOrganization(p.db.QueryRow(ctx, query, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tenant.ErrLimitExceeded
	}

	return org, err
}

// Create inserts an organization. Signup lives outside this service; this is used for seeding and tests.
func (p *PostgresOrganizationStore) Create(ctx context.Context, org *tenant.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.db.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.APIKey,
		string(org.Tier),
		string(org.Status),
		org.MonthlyURLLimit,
		org.MonthlyURLsUsed,
		org.CreatedAt,
	)

	return err
}

func scanOrganization(row pgx.Row) (*tenant.Organization, error) {
	var (
		org    tenant.Organization
		tier   string
		status string
	)

	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.APIKey,
		&tier,
		&status,
		&org.MonthlyURLLimit,
		&org.MonthlyURLsUsed,
		&org.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	org.Tier = tenant.Tier(tier)
	org.Status = tenant.Status(status)

	return &org, nil
}
