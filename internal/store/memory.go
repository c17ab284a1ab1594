package store

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/domains"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/tenant"
)

// MemoryStore keeps organizations, links, domains and clicks in process memory.
// It mirrors the Postgres stores for tests and local development; each repository
// is a view over the same state so cross-table operations stay consistent.
type MemoryStore struct {
	mu      sync.RWMutex
	orgs    map[uuid.UUID]*tenant.Organization
	links   map[uuid.UUID]*shortener.Link
	domains map[uuid.UUID]*domains.Domain
	clicks  map[uuid.UUID]*analytics.ClickEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:    make(map[uuid.UUID]*tenant.Organization),
		links:   make(map[uuid.UUID]*shortener.Link),
		domains: make(map[uuid.UUID]*domains.Domain),
		clicks:  make(map[uuid.UUID]*analytics.ClickEvent),
	}
}

// Organizations returns the organization repository view.
func (m *MemoryStore) Organizations() *MemoryOrganizationStore {
	return &MemoryOrganizationStore{m: m}
}

// Links returns the short link repository view.
func (m *MemoryStore) Links() *MemoryLinkStore {
	return &MemoryLinkStore{m: m}
}

// Domains returns the domain repository view.
func (m *MemoryStore) Domains() *MemoryDomainStore {
	return &MemoryDomainStore{m: m}
}

// Clicks returns the click event store view.
func (m *MemoryStore) Clicks() *MemoryClickStore {
	return &MemoryClickStore{m: m}
}

// MemoryOrganizationStore implements tenant.Store.
type MemoryOrganizationStore struct {
	m *MemoryStore
}

var _ tenant.Store = (*MemoryOrganizationStore)(nil)

// Add stores a copy of org, replacing any organization with the same ID.
func (s *MemoryOrganizationStore) Add(org *tenant.Organization) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	o := *org
	s.m.orgs[o.ID] = &o
}

// Get returns a copy of the stored organization.
func (s *MemoryOrganizationStore) Get(id uuid.UUID) (*tenant.Organization, bool) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	org, ok := s.m.orgs[id]
	if !ok {
		return nil, false
	}

	o := *org

	return &o, true
}

func (s *MemoryOrganizationStore) FindByAPIKey(_ context.Context, apiKey string) (*tenant.Organization, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, org := range s.m.orgs {
		if org.APIKey == apiKey {
			o := *org

			return &o, nil
		}
	}

	return nil, tenant.ErrNotFound
}

func (s *MemoryOrganizationStore) ReserveURL(_ context.Context, orgID uuid.UUID) (*tenant.Organization, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.m.reserveLocked(orgID)
}

// lockedReserver reserves quota while the caller already holds the store lock.
type lockedReserver struct {
	m *MemoryStore
}

func (r lockedReserver) ReserveURL(_ context.Context, orgID uuid.UUID) (*tenant.Organization, error) {
	return r.m.reserveLocked(orgID)
}

func (m *MemoryStore) reserveLocked(orgID uuid.UUID) (*tenant.Organization, error) {
	org, ok := m.orgs[orgID]
	if !ok {
		return nil, tenant.ErrNotFound
	}

	if !org.Unlimited() && org.MonthlyURLsUsed >= org.MonthlyURLLimit {
		return nil, tenant.ErrLimitExceeded
	}

	org.MonthlyURLsUsed++
	o := *org

	return &o, nil
}

// MemoryLinkStore implements shortener.Repository.
type MemoryLinkStore struct {
	m *MemoryStore
}

var _ shortener.Repository = (*MemoryLinkStore)(nil)

func (s *MemoryLinkStore) CodeExists(_ context.Context, orgID uuid.UUID, code shortener.Code) (bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, link := range s.m.links {
		if link.OrganizationID == orgID && link.Code == code {
			return true, nil
		}
	}

	return false, nil
}

func (s *MemoryLinkStore) FindByCode(_ context.Context, code shortener.Code, orgID *uuid.UUID) (*shortener.Link, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var found *shortener.Link

	for _, link := range s.m.links {
		if link.Code != code || (orgID != nil && link.OrganizationID != *orgID) {
			continue
		}

		if found == nil || olderThan(link, found) {
			found = link
		}
	}

	if found == nil {
		return nil, shortener.ErrNotFound
	}

	l := *found

	return &l, nil
}

// olderThan orders links by creation time, then ID, like the SQL lookup.
func olderThan(a, b *shortener.Link) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}

	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func (s *MemoryLinkStore) Create(_ context.Context, link *shortener.Link) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.insertLocked(link)
}

// CreateReserved holds the store lock across the quota reservation and the
// insert, and restores the organization's usage when reserve fails.
func (s *MemoryLinkStore) CreateReserved(ctx context.Context, link *shortener.Link, reserve shortener.ReserveFunc) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.codeTakenLocked(link) {
		return shortener.ErrCodeConflict
	}

	org, ok := s.m.orgs[link.OrganizationID]

	var used int64
	if ok {
		used = org.MonthlyURLsUsed
	}

	if err := reserve(ctx, lockedReserver{m: s.m}); err != nil {
		if ok {
			org.MonthlyURLsUsed = used
		}

		return err
	}

	return s.insertLocked(link)
}

func (s *MemoryLinkStore) codeTakenLocked(link *shortener.Link) bool {
	for _, existing := range s.m.links {
		if existing.OrganizationID == link.OrganizationID && existing.Code == link.Code {
			return true
		}
	}

	return false
}

func (s *MemoryLinkStore) insertLocked(link *shortener.Link) error {
	if s.codeTakenLocked(link) {
		return shortener.ErrCodeConflict
	}

	l := *link
	s.m.links[l.ID] = &l

	return nil
}

func (s *MemoryLinkStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var n int64

	for _, link := range s.m.links {
		if link.Active && link.Expired(now) {
			link.Active = false
			n++
		}
	}

	return n, nil
}
