package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClickStore persists click events.
type ClickStore interface {
	// RecordClick inserts the event and increments the link's click counter together.
	// Replaying an event with an already stored ID is a no-op.
	RecordClick(ctx context.Context, event *ClickEvent) error
}

// Totals are the raw overview numbers for a window.
type Totals struct {
	TotalClicks    int64
	UniqueVisitors int64
}

// DateCount is the number of clicks on one calendar date (UTC).
type DateCount struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// LabelCount is a grouped click count.
type LabelCount struct {
	Label  string
	Clicks int64
}

// URLCount is the number of clicks on one link.
type URLCount struct {
	ID          uuid.UUID `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	Clicks      int64     `json:"clicks"`
}

// QueryStore reads recorded click events for one organization since a given instant.
type QueryStore interface {
	Totals(ctx context.Context, orgID uuid.UUID, since time.Time) (Totals, error)
	ClicksByDate(ctx context.Context, orgID uuid.UUID, since time.Time) ([]DateCount, error)
	TopCountries(ctx context.Context, orgID uuid.UUID, since time.Time, limit int) ([]LabelCount, error)
	TopReferrers(ctx context.Context, orgID uuid.UUID, since time.Time, limit int) ([]LabelCount, error)
	TopURLs(ctx context.Context, orgID uuid.UUID, since time.Time, limit int) ([]URLCount, error)
}
