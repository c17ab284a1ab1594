package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/domains"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/serroba/shortlinks/internal/tenant"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errMock = errors.New("mock error")

const (
	testURL       = "https://example.com/very/long/path"
	testAPIKey    = "sk_test_acme"
	testServerIP  = "203.0.113.10"
	defaultDomain = "localhost:8888"
)

// stubDNS answers lookups from fixed tables. Missing entries fail.
type stubDNS struct {
	a     map[string][]string
	cname map[string][]string
	txt   map[string][]string
}

func lookup(table map[string][]string, host string) ([]string, error) {
	if records, ok := table[host]; ok {
		return records, nil
	}

	return nil, errMock
}

func (s *stubDNS) LookupIPv4(_ context.Context, host string) ([]string, error) {
	return lookup(s.a, host)
}

func (s *stubDNS) LookupCNAME(_ context.Context, host string) ([]string, error) {
	return lookup(s.cname, host)
}

func (s *stubDNS) LookupTXT(_ context.Context, host string) ([]string, error) {
	return lookup(s.txt, host)
}

type stubGeo struct{}

func (stubGeo) Locate(_ context.Context, _ string) analytics.Location {
	return analytics.Location{Country: "Chile", City: "Santiago"}
}

// failingClickStore rejects every click.
type failingClickStore struct{}

func (failingClickStore) RecordClick(_ context.Context, _ *analytics.ClickEvent) error {
	return errMock
}

// failingResolver simulates an unreachable link store.
type failingResolver struct{}

func (failingResolver) Resolve(_ context.Context, _ shortener.Code, _ *uuid.UUID) (*shortener.Resolution, error) {
	return nil, errMock
}

// testEnv wires the handlers against in-memory stores.
type testEnv struct {
	db       *store.MemoryStore
	org      *tenant.Organization
	dns      *stubDNS
	recorder *analytics.Recorder
	links    *handlers.LinkHandler
	domains  *handlers.DomainHandler
	stats    *handlers.AnalyticsHandler
}

type envOption func(*envConfig)

type envConfig struct {
	sink     func(db *store.MemoryStore) analytics.Sink
	resolver handlers.LinkResolver
	limit    int64
	status   tenant.Status
}

func withSink(sink func(db *store.MemoryStore) analytics.Sink) envOption {
	return func(c *envConfig) { c.sink = sink }
}

func withResolver(r handlers.LinkResolver) envOption {
	return func(c *envConfig) { c.resolver = r }
}

func withQuota(limit int64) envOption {
	return func(c *envConfig) { c.limit = limit }
}

func withStatus(status tenant.Status) envOption {
	return func(c *envConfig) { c.status = status }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{
		sink:   func(db *store.MemoryStore) analytics.Sink { return analytics.StoreSink(db.Clicks()) },
		limit:  100,
		status: tenant.StatusActive,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := store.NewMemoryStore()
	org := &tenant.Organization{
		ID:              uuid.New(),
		Name:            "Acme",
		Slug:            "acme",
		APIKey:          testAPIKey,
		Tier:            tenant.TierPro,
		Status:          cfg.status,
		MonthlyURLLimit: cfg.limit,
		CreatedAt:       time.Now().UTC(),
	}
	db.Organizations().Add(org)

	dns := &stubDNS{
		a:     map[string][]string{},
		cname: map[string][]string{},
		txt:   map[string][]string{},
	}

	domainSvc, err := domains.NewService(db.Domains(),
		domains.NewVerifier(dns, testServerIP, "cname.shortlinks.test", time.Second), zap.NewNop())
	require.NoError(t, err)

	gen, err := shortener.NewNanoidGenerator(db.Links())
	require.NoError(t, err)

	authn := tenant.NewAuthenticator(db.Organizations())
	linkSvc := shortener.NewService(db.Links(), gen, tenant.NewGate(db.Organizations()), domainSvc,
		defaultDomain, zap.NewNop())

	var resolver handlers.LinkResolver = shortener.NewResolver(db.Links())
	if cfg.resolver != nil {
		resolver = cfg.resolver
	}

	recorder := analytics.NewRecorder(cfg.sink(db), stubGeo{}, time.Second, zap.NewNop())
	t.Cleanup(func() { _ = recorder.Shutdown() })

	return &testEnv{
		db:       db,
		org:      org,
		dns:      dns,
		recorder: recorder,
		links:    handlers.NewLinkHandler(authn, linkSvc, resolver, domainSvc, recorder, defaultDomain, zap.NewNop()),
		domains:  handlers.NewDomainHandler(authn, domainSvc, zap.NewNop()),
		stats:    handlers.NewAnalyticsHandler(authn, analytics.NewAggregator(db.Clicks()), zap.NewNop()),
	}
}

func auth(key string) handlers.AuthHeaders {
	return handlers.AuthHeaders{APIKey: key}
}

func requireAPIError(t *testing.T, err error, status int, code string) *handlers.APIError {
	t.Helper()

	var apiErr *handlers.APIError

	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.GetStatus())
	require.Equal(t, code, apiErr.Code)

	return apiErr
}

// verifiedDomain registers hostname for the org and verifies it through an A record.
func (e *testEnv) verifiedDomain(t *testing.T, hostname string) *domains.Domain {
	t.Helper()

	ctx := context.Background()

	req := &handlers.CreateDomainRequest{AuthHeaders: auth(testAPIKey)}
	req.Body.Domain = hostname

	created, err := e.domains.CreateDomain(ctx, req)
	require.NoError(t, err)

	e.dns.a[hostname] = []string{testServerIP}

	resp, err := e.domains.VerifyDomain(ctx, &handlers.DomainRequest{AuthHeaders: auth(testAPIKey), ID: created.Body.Data.ID})
	require.NoError(t, err)
	require.True(t, resp.Body.Success)

	d, err := e.db.Domains().Get(ctx, e.org.ID, uuid.MustParse(created.Body.Data.ID))
	require.NoError(t, err)

	return d
}
