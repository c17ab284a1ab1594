package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/shortener"
)

const pgUniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PostgresLinkStore is a PostgreSQL implementation of shortener.Repository.
type PostgresLinkStore struct {
	pool *pgxpool.Pool
}

var _ shortener.Repository = (*PostgresLinkStore)(nil)

// NewPostgresLinkStore creates a new PostgreSQL-backed link store.
func NewPostgresLinkStore(pool *pgxpool.Pool) *PostgresLinkStore {
	return &PostgresLinkStore{pool: pool}
}

func (p *PostgresLinkStore) CodeExists(ctx context.Context, orgID uuid.UUID, code shortener.Code) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM urls WHERE organization_id = $1 AND short_code = $2
		)
	`

	var exists bool
	if err := p.pool.QueryRow(ctx, query, orgID, string(code)).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (p *PostgresLinkStore) FindByCode(ctx context.Context, code shortener.Code, orgID *uuid.UUID) (*shortener.Link, error) {
	query := `
		SELECT u.id, u.organization_id, u.original_url, u.short_code, u.domain_id,
		       COALESCE(d.domain, ''), u.expires_at, u.is_active, u.click_count, u.created_at
		FROM urls u
		LEFT JOIN domains d ON d.id = u.domain_id
		WHERE u.short_code = $1
		  AND ($2::uuid IS NULL OR u.organization_id = $2)
		ORDER BY u.created_at ASC, u.id ASC
		LIMIT 1
	`

	var link shortener.Link

	err := p.pool.QueryRow(ctx, query, string(code), orgID).Scan(
		&link.ID,
		&link.OrganizationID,
		&link.OriginalURL,
		&link.Code,
		&link.DomainID,
		&link.Domain,
		&link.ExpiresAt,
		&link.Active,
		&link.ClickCount,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

func (p *PostgresLinkStore) Create(ctx context.Context, link *shortener.Link) error {
	return insertLink(ctx, p.pool, link)
}

// CreateReserved runs the quota reservation and the insert in one transaction.
func (p *PostgresLinkStore) CreateReserved(ctx context.Context, link *shortener.Link, reserve shortener.ReserveFunc) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := reserve(ctx, &PostgresOrganizationStore{db: tx}); err != nil {
			return err
		}

		return insertLink(ctx, tx, link)
	})
}

func insertLink(ctx context.Context, db querier, link *shortener.Link) error {
	query := `
		INSERT INTO urls (id, organization_id, original_url, short_code, domain_id, expires_at, is_active, click_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := db.Exec(ctx, query,
		link.ID,
		link.OrganizationID,
		link.OriginalURL,
		string(link.Code),
		link.DomainID,
		link.ExpiresAt,
		link.Active,
		link.ClickCount,
		link.CreatedAt,
	)
	if isUniqueViolation(err) {
		return shortener.ErrCodeConflict
	}

	return err
}

func (p *PostgresLinkStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE urls
		SET is_active = FALSE
		WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1
	`

	tag, err := p.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
