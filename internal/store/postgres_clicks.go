package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/analytics"
)

// PostgresClickStore persists click events and answers analytics queries.
type PostgresClickStore struct {
	pool *pgxpool.Pool
}

var (
	_ analytics.ClickStore = (*PostgresClickStore)(nil)
	_ analytics.QueryStore = (*PostgresClickStore)(nil)
)

// NewPostgresClickStore creates a new PostgreSQL-backed click store.
func NewPostgresClickStore(pool *pgxpool.Pool) *PostgresClickStore {
	return &PostgresClickStore{pool: pool}
}

// RecordClick inserts the event and bumps the link counter in one transaction.
// A redelivered event (same ID) changes nothing.
func (p *PostgresClickStore) RecordClick(ctx context.Context, event *analytics.ClickEvent) error {
	insert := `
		INSERT INTO click_events (id, url_id, organization_id, ip_address, user_agent, referrer,
		                          country, city, device_type, browser, os, clicked_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	increment := `UPDATE urls SET click_count = click_count + 1 WHERE id = $1`

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insert,
			event.ID,
			event.LinkID,
			event.OrganizationID,
			event.ClientIP,
			event.UserAgent,
			event.Referrer,
			event.Country,
			event.City,
			event.DeviceType,
			event.Browser,
			event.OS,
			event.ClickedAt,
		)
		if err != nil || tag.RowsAffected() == 0 {
			return err
		}

		_, err = tx.Exec(ctx, increment, event.LinkID)

		return err
	})
}

func (p *PostgresClickStore) Totals(ctx context.Context, orgID uuid.UUID, since time.Time) (analytics.Totals, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT ip_address)
		FROM click_events
		WHERE organization_id = $1 AND clicked_at >= $2
	`

	var totals analytics.Totals
	err := p.pool.QueryRow(ctx, query, orgID, since).Scan(&totals.TotalClicks, &totals.UniqueVisitors)

	return totals, err
}

func (p *PostgresClickStore) ClicksByDate(ctx context.Context, orgID uuid.UUID, since time.Time) ([]analytics.DateCount, error) {
	query := `
		SELECT TO_CHAR((clicked_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM click_events
		WHERE organization_id = $1 AND clicked_at >= $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := p.pool.Query(ctx, query, orgID, since)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DateCount, error) {
		var dc analytics.DateCount
		err := row.Scan(&dc.Date, &dc.Clicks)

		return dc, err
	})
}

func (p *PostgresClickStore) TopCountries(ctx context.Context, orgID uuid.UUID, since time.Time, limit int) ([]analytics.LabelCount, error) {
	query := `
		SELECT country, COUNT(*) AS clicks
		FROM click_events
		WHERE organization_id = $1 AND clicked_at >= $2
		GROUP BY country
		ORDER BY clicks DESC, country ASC
		LIMIT $3
	`

	return p.labelCounts(ctx, query, orgID, since, limit)
}

func (p *PostgresClickStore) TopReferrers(ctx context.Context, orgID uuid.UUID, since time.Time, limit int) ([]analytics.LabelCount, error) {
	query := `
		SELECT COALESCE(NULLIF(TRIM(referrer), ''), 'Direct') AS source, COUNT(*) AS clicks
		FROM click_events
		WHERE organization_id = $1 AND clicked_at >= $2
		GROUP BY source
		ORDER BY clicks DESC, source ASC
		LIMIT $3
	`

	return p.labelCounts(ctx, query, orgID, since, limit)
}

func (p *PostgresClickStore) TopURLs(ctx context.Context, orgID uuid.UUID, since time.Time, limit int) ([]analytics.URLCount, error) {
	query := `
		SELECT u.id, u.short_code, u.original_url, COUNT(c.id) AS clicks
		FROM click_events c
		JOIN urls u ON u.id = c.url_id
		WHERE c.organization_id = $1 AND c.clicked_at >= $2
		GROUP BY u.id, u.short_code, u.original_url
		ORDER BY clicks DESC, u.short_code ASC
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, orgID, since, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.URLCount, error) {
		var uc analytics.URLCount
		err := row.Scan(&uc.ID, &uc.ShortCode, &uc.OriginalURL, &uc.Clicks)

		return uc, err
	})
}

func (p *PostgresClickStore) labelCounts(
	ctx context.Context, query string, orgID uuid.UUID, since time.Time, limit int,
) ([]analytics.LabelCount, error) {
	rows, err := p.pool.Query(ctx, query, orgID, since, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.LabelCount, error) {
		var lc analytics.LabelCount
		err := row.Scan(&lc.Label, &lc.Clicks)

		return lc, err
	})
}
