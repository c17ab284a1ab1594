package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/domains"
)

const domainColumns = `id, organization_id, domain, COALESCE(verification_code, ''), verification_method,
	verification_attempts, last_verification_attempt, verified_at, is_active, created_at`

// PostgresDomainStore is a PostgreSQL implementation of domains.Repository.
type PostgresDomainStore struct {
	pool *pgxpool.Pool
}

var _ domains.Repository = (*PostgresDomainStore)(nil)

// NewPostgresDomainStore creates a new PostgreSQL-backed domain store.
func NewPostgresDomainStore(pool *pgxpool.Pool) *PostgresDomainStore {
	return &PostgresDomainStore{pool: pool}
}

func (p *PostgresDomainStore) Create(ctx context.Context, domain *domains.Domain) error {
	query := `
		INSERT INTO domains (id, organization_id, domain, verification_method, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		domain.ID,
		domain.OrganizationID,
		domain.Hostname,
		string(domain.Method),
		domain.Active,
		domain.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domains.ErrDomainExists
	}

	return err
}

func (p *PostgresDomainStore) Get(ctx context.Context, orgID, id uuid.UUID) (*domains.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = $1 AND organization_id = $2`

	return oneDomain(p.pool.QueryRow(ctx, query, id, orgID))
}

func (p *PostgresDomainStore) FindByHostname(ctx context.Context, orgID uuid.UUID, hostname string) (*domains.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE organization_id = $1 AND domain = $2`

	return oneDomain(p.pool.QueryRow(ctx, query, orgID, hostname))
}

func (p *PostgresDomainStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domains.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE organization_id = $1 ORDER BY created_at DESC`

	rows, err := p.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domains.Domain, 0)

	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, rows.Err()
}

func (p *PostgresDomainStore) FindVerifiedByHostname(ctx context.Context, hostname string) (*domains.Domain, error) {
	query := `
		SELECT ` + domainColumns + `
		FROM domains
		WHERE domain = $1 AND verified_at IS NOT NULL
	`

	return oneDomain(p.pool.QueryRow(ctx, query, hostname))
}

func (p *PostgresDomainStore) CountClaims(ctx context.Context, hostname string, orgID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM domains WHERE domain = $1 AND organization_id <> $2`

	var n int64
	if err := p.pool.QueryRow(ctx, query, hostname, orgID).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func (p *PostgresDomainStore) SetVerificationCode(ctx context.Context, orgID, id uuid.UUID, code string) (*domains.Domain, error) {
	query := `
		UPDATE domains
		SET verification_code = $3
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + domainColumns

	return oneDomain(p.pool.QueryRow(ctx, query, id, orgID, code))
}

func (p *PostgresDomainStore) RecordAttempt(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE domains
		SET verification_attempts = verification_attempts + 1,
		    last_verification_attempt = $2
		WHERE id = $1
	`

	tag, err := p.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domains.ErrNotFound
	}

	return nil
}

func (p *PostgresDomainStore) MarkVerified(ctx context.Context, id uuid.UUID, method domains.Method, at time.Time) (*domains.Domain, error) {
	query := `
		UPDATE domains
		SET verified_at = $2, is_active = TRUE, verification_method = $3
		WHERE id = $1
		RETURNING ` + domainColumns

	domain, err := oneDomain(p.pool.QueryRow(ctx, query, id, at, string(method)))
	if isUniqueViolation(err) {
		return nil, domains.ErrDomainExists
	}

	return domain, err
}

func (p *PostgresDomainStore) CountLinks(ctx context.Context, orgID, id uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM urls WHERE organization_id = $1 AND domain_id = $2`

	var n int64
	if err := p.pool.QueryRow(ctx, query, orgID, id).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func (p *PostgresDomainStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM domains WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domains.ErrNotFound
	}

	return nil
}

func oneDomain(row pgx.Row) (*domains.Domain, error) {
	d, err := scanDomain(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domains.ErrNotFound
	}

	return d, err
}

func scanDomain(row pgx.Row) (*domains.Domain, error) {
	var (
		d      domains.Domain
		method string
	)

	err := row.Scan(
		&d.ID,
		&d.OrganizationID,
		&d.Hostname,
		&d.VerificationCode,
		&method,
		&d.Attempts,
		&d.LastAttemptAt,
		&d.VerifiedAt,
		&d.Active,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Method = domains.Method(method)

	return &d, nil
}
