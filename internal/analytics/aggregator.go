package analytics

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWindowDays    = 30
	MaxWindowDays        = 365
	DefaultCountryLimit  = 5
	DefaultReferrerLimit = 5
	DefaultURLLimit      = 10

	// DirectReferrer labels visits without a referrer.
	DirectReferrer = "Direct"
	noCountry      = "N/A"
)

// Window selects the period and list sizes of a summary.
type Window struct {
	Days          int
	CountryLimit  int
	ReferrerLimit int
	URLLimit      int
}

func (w Window) withDefaults() Window {
	if w.Days <= 0 {
		w.Days = DefaultWindowDays
	}

	w.Days = min(w.Days, MaxWindowDays)

	if w.CountryLimit <= 0 {
		w.CountryLimit = DefaultCountryLimit
	}

	if w.ReferrerLimit <= 0 {
		w.ReferrerLimit = DefaultReferrerLimit
	}

	if w.URLLimit <= 0 {
		w.URLLimit = DefaultURLLimit
	}

	return w
}

// Overview holds the headline numbers of a summary.
type Overview struct {
	TotalClicks     int64   `json:"total_clicks"`
	UniqueVisitors  int64   `json:"unique_visitors"`
	TopCountry      string  `json:"top_country"`
	AvgClicksPerDay float64 `json:"avg_clicks_per_day"`
}

// CountryCount is a row of the top countries list.
type CountryCount struct {
	Country string `json:"country"`
	Clicks  int64  `json:"clicks"`
}

// ReferrerCount is a row of the top referrers list.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Clicks   int64  `json:"clicks"`
}

// Summary is the analytics rollup for an organization and window.
// ClicksByDate is sparse: dates without clicks are omitted.
type Summary struct {
	Overview     Overview        `json:"overview"`
	ClicksByDate []DateCount     `json:"clicksByDate"`
	TopCountries []CountryCount  `json:"topCountries"`
	TopReferrers []ReferrerCount `json:"topReferrers"`
	TopURLs      []URLCount      `json:"topUrls"`
}

// Aggregator rolls up recorded click events.
type Aggregator struct {
	store QueryStore
	now   func() time.Time
}

// NewAggregator creates a new aggregator.
func NewAggregator(store QueryStore) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// WithClock overrides the aggregator's time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now

	return a
}

// Since returns the start of the window: midnight UTC, days before today.
func (a *Aggregator) Since(days int) time.Time {
	today := a.now().UTC().Truncate(24 * time.Hour)

	return today.AddDate(0, 0, -days)
}

// Summarize builds the summary for orgID. Ties in the top lists are ordered alphabetically.
func (a *Aggregator) Summarize(ctx context.Context, orgID uuid.UUID, window Window) (*Summary, error) {
	window = window.withDefaults()
	since := a.Since(window.Days)

	var (
		totals    Totals
		byDate    []DateCount
		countries []LabelCount
		referrers []LabelCount
		urls      []URLCount
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		totals, err = a.store.Totals(ctx, orgID, since)
		return err
	})
	g.Go(func() (err error) {
		byDate, err = a.store.ClicksByDate(ctx, orgID, since)
		return err
	})
	g.Go(func() (err error) {
		// The overview's top country needs at least one row even when the caller asks for none.
		countries, err = a.store.TopCountries(ctx, orgID, since, max(window.CountryLimit, 1))
		return err
	})
	g.Go(func() (err error) {
		referrers, err = a.store.TopReferrers(ctx, orgID, since, window.ReferrerLimit)
		return err
	})
	g.Go(func() (err error) {
		urls, err = a.store.TopURLs(ctx, orgID, since, window.URLLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	countries = rank(countries, window.CountryLimit)
	referrers = rank(normalizeReferrers(referrers), window.ReferrerLimit)

	slices.SortStableFunc(urls, func(a, b URLCount) int {
		return cmp.Or(cmp.Compare(b.Clicks, a.Clicks), strings.Compare(a.ShortCode, b.ShortCode))
	})

	summary := &Summary{
		Overview: Overview{
			TotalClicks:     totals.TotalClicks,
			UniqueVisitors:  totals.UniqueVisitors,
			TopCountry:      noCountry,
			AvgClicksPerDay: float64(totals.TotalClicks) / float64(window.Days),
		},
		ClicksByDate: nonNil(byDate),
		TopCountries: make([]CountryCount, 0, len(countries)),
		TopReferrers: make([]ReferrerCount, 0, len(referrers)),
		TopURLs:      nonNil(urls),
	}

	if len(countries) > 0 {
		summary.Overview.TopCountry = countries[0].Label
	}

	for _, c := range countries {
		summary.TopCountries = append(summary.TopCountries, CountryCount{Country: c.Label, Clicks: c.Clicks})
	}

	for _, r := range referrers {
		summary.TopReferrers = append(summary.TopReferrers, ReferrerCount{Referrer: r.Label, Clicks: r.Clicks})
	}

	return summary, nil
}

// normalizeReferrers folds empty referrers into DirectReferrer.
func normalizeReferrers(rows []LabelCount) []LabelCount {
	merged := make([]LabelCount, 0, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		label := strings.TrimSpace(row.Label)
		if label == "" {
			label = DirectReferrer
		}

		if i, ok := index[label]; ok {
			merged[i].Clicks += row.Clicks
			continue
		}

		index[label] = len(merged)
		merged = append(merged, LabelCount{Label: label, Clicks: row.Clicks})
	}

	return merged
}

func rank(rows []LabelCount, limit int) []LabelCount {
	slices.SortStableFunc(rows, func(a, b LabelCount) int {
		return cmp.Or(cmp.Compare(b.Clicks, a.Clicks), strings.Compare(a.Label, b.Label))
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}

	return rows
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
