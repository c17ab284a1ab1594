package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/domains"
)

// MemoryDomainStore implements domains.Repository.
type MemoryDomainStore struct {
	m *MemoryStore
}

var _ domains.Repository = (*MemoryDomainStore)(nil)

func (s *MemoryDomainStore) Create(_ context.Context, domain *domains.Domain) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, existing := range s.m.domains {
		if existing.OrganizationID == domain.OrganizationID && existing.Hostname == domain.Hostname {
			return domains.ErrDomainExists
		}
	}

	d := *domain
	s.m.domains[d.ID] = &d

	return nil
}

func (s *MemoryDomainStore) Get(_ context.Context, orgID, id uuid.UUID) (*domains.Domain, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	d, err := s.owned(orgID, id)
	if err != nil {
		return nil, err
	}

	out := *d

	return &out, nil
}

func (s *MemoryDomainStore) FindByHostname(_ context.Context, orgID uuid.UUID, hostname string) (*domains.Domain, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, d := range s.m.domains {
		if d.OrganizationID == orgID && d.Hostname == hostname {
			out := *d

			return &out, nil
		}
	}

	return nil, domains.ErrNotFound
}

func (s *MemoryDomainStore) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]domains.Domain, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := make([]domains.Domain, 0)

	for _, d := range s.m.domains {
		if d.OrganizationID == orgID {
			out = append(out, *d)
		}
	}

	slices.SortFunc(out, func(a, b domains.Domain) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out, nil
}

func (s *MemoryDomainStore) FindVerifiedByHostname(_ context.Context, hostname string) (*domains.Domain, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var found *domains.Domain

	for _, d := range s.m.domains {
		if d.Hostname != hostname || !d.Usable() {
			continue
		}

		if found == nil || d.VerifiedAt.Before(*found.VerifiedAt) {
			found = d
		}
	}

	if found == nil {
		return nil, domains.ErrNotFound
	}

	out := *found

	return &out, nil
}

func (s *MemoryDomainStore) CountClaims(_ context.Context, hostname string, orgID uuid.UUID) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var n int64

	for _, d := range s.m.domains {
		if d.Hostname == hostname && d.OrganizationID != orgID {
			n++
		}
	}

	return n, nil
}

func (s *MemoryDomainStore) SetVerificationCode(_ context.Context, orgID, id uuid.UUID, code string) (*domains.Domain, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	d, err := s.owned(orgID, id)
	if err != nil {
		return nil, err
	}

	d.VerificationCode = code
	out := *d

	return &out, nil
}

func (s *MemoryDomainStore) RecordAttempt(_ context.Context, id uuid.UUID, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	d, ok := s.m.domains[id]
	if !ok {
		return domains.ErrNotFound
	}

	d.Attempts++
	d.LastAttemptAt = &at

	return nil
}

func (s *MemoryDomainStore) MarkVerified(_ context.Context, id uuid.UUID, method domains.Method, at time.Time) (*domains.Domain, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	d, ok := s.m.domains[id]
	if !ok {
		return nil, domains.ErrNotFound
	}

	for _, other := range s.m.domains {
		if other.ID != d.ID && other.Hostname == d.Hostname && other.Usable() {
			return nil, domains.ErrDomainExists
		}
	}

	d.VerifiedAt = &at
	d.Active = true
	d.Method = method
	out := *d

	return &out, nil
}

func (s *MemoryDomainStore) CountLinks(_ context.Context, orgID, id uuid.UUID) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var n int64

	for _, link := range s.m.links {
		if link.OrganizationID == orgID && link.DomainID != nil && *link.DomainID == id {
			n++
		}
	}

	return n, nil
}

func (s *MemoryDomainStore) Delete(_ context.Context, orgID, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, err := s.owned(orgID, id); err != nil {
		return err
	}

	delete(s.m.domains, id)

	return nil
}

func (s *MemoryDomainStore) owned(orgID, id uuid.UUID) (*domains.Domain, error) {
	d, ok := s.m.domains[id]
	if !ok || d.OrganizationID != orgID {
		return nil, domains.ErrNotFound
	}

	return d, nil
}
