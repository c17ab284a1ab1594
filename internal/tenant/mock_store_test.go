package tenant_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/tenant"
)

var errMock = errors.New("mock error")

type mockStore struct {
	mu   sync.Mutex
	orgs map[uuid.UUID]*tenant.Organization
	err  error
}

func newMockStore(orgs ...*tenant.Organization) *mockStore {
	s := &mockStore{orgs: make(map[uuid.UUID]*tenant.Organization)}
	for _, org := range orgs {
		o := *org
		s.orgs[o.ID] = &o
	}

	return s
}

func (s *mockStore) FindByAPIKey(_ context.Context, apiKey string) (*tenant.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	for _, org := range s.orgs {
		if org.APIKey == apiKey {
			o := *org

			return &o, nil
		}
	}

	return nil, tenant.ErrNotFound
}

func (s *mockStore) ReserveURL(_ context.Context, orgID uuid.UUID) (*tenant.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	org, ok := s.orgs[orgID]
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

func (s *mockStore) used(orgID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orgs[orgID].MonthlyURLsUsed
}
