package store

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/shortener"
)

const dateLayout = "2006-01-02"

// MemoryClickStore implements analytics.ClickStore and analytics.QueryStore.
type MemoryClickStore struct {
	m *MemoryStore
}

var (
	_ analytics.ClickStore = (*MemoryClickStore)(nil)
	_ analytics.QueryStore = (*MemoryClickStore)(nil)
)

func (s *MemoryClickStore) RecordClick(_ context.Context, event *analytics.ClickEvent) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, seen := s.m.clicks[event.ID]; seen {
		return nil
	}

	link, ok := s.m.links[event.LinkID]
	if !ok {
		return shortener.ErrNotFound
	}

	e := *event
	s.m.clicks[e.ID] = &e
	link.ClickCount++

	return nil
}

// Count returns the number of stored click events.
func (s *MemoryClickStore) Count() int {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	return len(s.m.clicks)
}

func (s *MemoryClickStore) Totals(_ context.Context, orgID uuid.UUID, since time.Time) (analytics.Totals, error) {
	var totals analytics.Totals

	visitors := map[string]struct{}{}

	s.each(orgID, since, func(e *analytics.ClickEvent) {
		totals.TotalClicks++
		visitors[e.ClientIP] = struct{}{}
	})

	totals.UniqueVisitors = int64(len(visitors))

	return totals, nil
}

func (s *MemoryClickStore) ClicksByDate(_ context.Context, orgID uuid.UUID, since time.Time) ([]analytics.DateCount, error) {
	counts := s.group(orgID, since, func(e *analytics.ClickEvent) string {
		return e.ClickedAt.UTC().Format(dateLayout)
	})

	out := make([]analytics.DateCount, 0, len(counts))
	for date, clicks := range counts {
		out = append(out, analytics.DateCount{Date: date, Clicks: clicks})
	}

	slices.SortFunc(out, func(a, b analytics.DateCount) int {
		return cmp.Compare(a.Date, b.Date)
	})

	return out, nil
}

func (s *MemoryClickStore) TopCountries(_ context.Context, orgID uuid.UUID, since time.Time, limit int) ([]analytics.LabelCount, error) {
	return top(s.group(orgID, since, func(e *analytics.ClickEvent) string { return e.Country }), limit), nil
}

func (s *MemoryClickStore) TopReferrers(_ context.Context, orgID uuid.UUID, since time.Time, limit int) ([]analytics.LabelCount, error) {
	return top(s.group(orgID, since, func(e *analytics.ClickEvent) string { return e.Referrer }), limit), nil
}

func (s *MemoryClickStore) TopURLs(_ context.Context, orgID uuid.UUID, since time.Time, limit int) ([]analytics.URLCount, error) {
	counts := map[uuid.UUID]int64{}

	s.each(orgID, since, func(e *analytics.ClickEvent) {
		counts[e.LinkID]++
	})

	s.m.mu.RLock()
	out := make([]analytics.URLCount, 0, len(counts))

	for id, clicks := range counts {
		link, ok := s.m.links[id]
		if !ok {
			continue
		}

		out = append(out, analytics.URLCount{
			ID:          id,
			ShortCode:   string(link.Code),
			OriginalURL: link.OriginalURL,
			Clicks:      clicks,
		})
	}
	s.m.mu.RUnlock()

	slices.SortFunc(out, func(a, b analytics.URLCount) int {
		return cmp.Or(cmp.Compare(b.Clicks, a.Clicks), cmp.Compare(a.ShortCode, b.ShortCode))
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (s *MemoryClickStore) each(orgID uuid.UUID, since time.Time, fn func(e *analytics.ClickEvent)) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, e := range s.m.clicks {
		if e.OrganizationID == orgID && !e.ClickedAt.Before(since) {
			fn(e)
		}
	}
}

func (s *MemoryClickStore) group(orgID uuid.UUID, since time.Time, key func(e *analytics.ClickEvent) string) map[string]int64 {
	counts := map[string]int64{}

	s.each(orgID, since, func(e *analytics.ClickEvent) {
		counts[key(e)]++
	})

	return counts
}

func top(counts map[string]int64, limit int) []analytics.LabelCount {
	out := make([]analytics.LabelCount, 0, len(counts))
	for label, clicks := range counts {
		out = append(out, analytics.LabelCount{Label: label, Clicks: clicks})
	}

	slices.SortFunc(out, func(a, b analytics.LabelCount) int {
		return cmp.Or(cmp.Compare(b.Clicks, a.Clicks), cmp.Compare(a.Label, b.Label))
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}
