package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/serroba/shortlinks/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest(key, url, code string) *handlers.CreateShortURLRequest {
	req := &handlers.CreateShortURLRequest{AuthHeaders: auth(key)}
	req.Body.URL = url
	req.Body.CustomCode = code

	return req
}

func hostContext(host string) context.Context {
	return analytics.ContextWithClientMeta(context.Background(), analytics.ClientMeta{
		ClientIP:  "198.51.100.4",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0",
		Host:      host,
	})
}

func TestCreateShortURL(t *testing.T) {
	ctx := context.Background()

	t.Run("creates short url with custom code", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.links.CreateShortURL(ctx, createRequest(testAPIKey, testURL, "promo1"))

		require.NoError(t, err)
		assert.True(t, resp.Body.Success)
		assert.Equal(t, "promo1", resp.Body.Data.ShortCode)
		assert.Equal(t, "http://localhost:8888/promo1", resp.Body.Data.ShortURL)
		assert.Equal(t, resp.Body.Data.ShortURL, resp.Location)
		assert.Equal(t, defaultDomain, resp.Body.Data.Domain)
		assert.Equal(t, testURL, resp.Body.Data.OriginalURL)
		assert.Zero(t, resp.Body.Data.ClickCount)
		assert.Nil(t, resp.Body.Data.ExpiresAt)

		org, _ := env.db.Organizations().Get(env.org.ID)
		assert.Equal(t, int64(1), org.MonthlyURLsUsed)
	})

	t.Run("generates a six character code", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.links.CreateShortURL(ctx, createRequest(testAPIKey, testURL, ""))

		require.NoError(t, err)
		assert.Len(t, resp.Body.Data.ShortCode, shortener.DefaultCodeLength)
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		env := newTestEnv(t)

		req := createRequest("", testURL, "")
		req.Authorization = "Bearer " + testAPIKey

		_, err := env.links.CreateShortURL(ctx, req)

		require.NoError(t, err)
	})

	t.Run("serves link from verified custom domain", func(t *testing.T) {
		env := newTestEnv(t)
		env.verifiedDomain(t, "go.acme.com")

		req := createRequest(testAPIKey, testURL, "launch")
		req.Body.Domain = "Go.Acme.com"

		resp, err := env.links.CreateShortURL(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "https://go.acme.com/launch", resp.Body.Data.ShortURL)
		assert.Equal(t, "go.acme.com", resp.Body.Data.Domain)
	})

	t.Run("stores expiry", func(t *testing.T) {
		env := newTestEnv(t)

		req := createRequest(testAPIKey, testURL, "")
		req.Body.ExpiresAt = time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

		resp, err := env.links.CreateShortURL(ctx, req)

		require.NoError(t, err)
		require.NotNil(t, resp.Body.Data.ExpiresAt)
	})

	errorCases := []struct {
		name   string
		opts   []envOption
		req    func() *handlers.CreateShortURLRequest
		status int
		code   string
	}{
		{
			name:   "missing api key",
			req:    func() *handlers.CreateShortURLRequest { return createRequest("", testURL, "") },
			status: http.StatusUnauthorized,
			code:   handlers.CodeMissingAPIKey,
		},
		{
			name:   "invalid api key",
			req:    func() *handlers.CreateShortURLRequest { return createRequest("sk_wrong", testURL, "") },
			status: http.StatusUnauthorized,
			code:   handlers.CodeInvalidAPIKey,
		},
		{
			name:   "inactive subscription",
			opts:   []envOption{withStatus(tenant.StatusSuspended)},
			req:    func() *handlers.CreateShortURLRequest { return createRequest(testAPIKey, testURL, "") },
			status: http.StatusForbidden,
			code:   handlers.CodeSubscriptionInactive,
		},
		{
			name:   "trial subscription",
			opts:   []envOption{withStatus(tenant.StatusTrial)},
			req:    func() *handlers.CreateShortURLRequest { return createRequest(testAPIKey, testURL, "") },
			status: http.StatusForbidden,
			code:   handlers.CodeSubscriptionInactive,
		},
		{
			name:   "missing url",
			req:    func() *handlers.CreateShortURLRequest { return createRequest(testAPIKey, "", "") },
			status: http.StatusBadRequest,
			code:   handlers.CodeMissingURL,
		},
		{
			name:   "invalid url",
			req:    func() *handlers.CreateShortURLRequest { return createRequest(testAPIKey, "ftp://example.com", "") },
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidURL,
		},
		{
			name:   "invalid custom code",
			req:    func() *handlers.CreateShortURLRequest { return createRequest(testAPIKey, testURL, "a!") },
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidCustomCode,
		},
		{
			name:   "reserved custom code",
			req:    func() *handlers.CreateShortURLRequest { return createRequest(testAPIKey, testURL, "health") },
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidCustomCode,
		},
		{
			name: "past expiry",
			req: func() *handlers.CreateShortURLRequest {
				req := createRequest(testAPIKey, testURL, "")
				req.Body.ExpiresAt = "2001-01-01T00:00:00Z"

				return req
			},
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidExpiry,
		},
		{
			name: "unverified domain",
			req: func() *handlers.CreateShortURLRequest {
				req := createRequest(testAPIKey, testURL, "")
				req.Body.Domain = "unknown.example.org"

				return req
			},
			status: http.StatusBadRequest,
			code:   handlers.CodeInvalidDomain,
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.opts...)

			resp, err := env.links.CreateShortURL(ctx, tc.req())

			assert.Nil(t, resp)
			requireAPIError(t, err, tc.status, tc.code)
		})
	}

	t.Run("rejects duplicate custom code", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.links.CreateShortURL(ctx, createRequest(testAPIKey, testURL, "promo1"))
		require.NoError(t, err)

		_, err = env.links.CreateShortURL(ctx, createRequest(testAPIKey, "https://example.com/other", "promo1"))

		requireAPIError(t, err, http.StatusConflict, handlers.CodeCodeExists)
	})

	t.Run("enforces monthly limit", func(t *testing.T) {
		env := newTestEnv(t, withQuota(2))

		for range 2 {
			_, err := env.links.CreateShortURL(ctx, createRequest(testAPIKey, testURL, ""))
			require.NoError(t, err)
		}

		_, err := env.links.CreateShortURL(ctx, createRequest(testAPIKey, testURL, ""))

		apiErr := requireAPIError(t, err, http.StatusForbidden, handlers.CodeLimitExceeded)
		assert.Contains(t, apiErr.Message, "2")
	})
}

func TestLookupShortURL(t *testing.T) {
	ctx := context.Background()

	t.Run("returns link of the organization", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.links.CreateShortURL(ctx, createRequest(testAPIKey, testURL, "promo1"))
		require.NoError(t, err)

		resp, err := env.links.LookupShortURL(ctx, &handlers.LookupRequest{AuthHeaders: auth(testAPIKey), Code: "promo1"})

		require.NoError(t, err)
		assert.True(t, resp.Body.Success)
		assert.Equal(t, "promo1", resp.Body.Data.ShortCode)
		assert.Equal(t, testURL, resp.Body.Data.OriginalURL)
	})

	t.Run("missing code", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.links.LookupShortURL(ctx, &handlers.LookupRequest{AuthHeaders: auth(testAPIKey)})

		requireAPIError(t, err, http.StatusBadRequest, handlers.CodeMissingCode)
	})

	t.Run("unknown code", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.links.LookupShortURL(ctx, &handlers.LookupRequest{AuthHeaders: auth(testAPIKey), Code: "nope"})

		requireAPIError(t, err, http.StatusNotFound, handlers.CodeURLNotFound)
	})

	t.Run("does not expose other organizations' links", func(t *testing.T) {
		env := newTestEnv(t)

		other := &tenant.Organization{ID: uuid.New(), APIKey: "sk_other", Status: tenant.StatusActive}
		env.db.Organizations().Add(other)

		_, err := env.links.CreateShortURL(ctx, createRequest("sk_other", testURL, "theirs"))
		require.NoError(t, err)

		_, err = env.links.LookupShortURL(ctx, &handlers.LookupRequest{AuthHeaders: auth(testAPIKey), Code: "theirs"})

		requireAPIError(t, err, http.StatusNotFound, handlers.CodeURLNotFound)
	})
}

func insertLink(t *testing.T, db *store.MemoryStore, link shortener.Link) {
	t.Helper()

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	require.NoError(t, db.Links().Create(context.Background(), &link))
}

func TestTrackClick(t *testing.T) {
	ctx := hostContext(defaultDomain)

	t.Run("returns url and records click", func(t *testing.T) {
		env := newTestEnv(t)
		insertLink(t, env.db, shortener.Link{OrganizationID: env.org.ID, Code: "promo1", OriginalURL: testURL, Active: true})

		resp, err := env.links.TrackClick(ctx, &handlers.CodeRequest{Code: "promo1"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.True(t, resp.Body.Success)
		assert.Equal(t, testURL, resp.Body.URL)

		require.NoError(t, env.recorder.Shutdown())
		assert.Equal(t, 1, env.db.Clicks().Count())
	})

	t.Run("expired link is gone", func(t *testing.T) {
		env := newTestEnv(t)
		past := time.Now().Add(-time.Second)
		insertLink(t, env.db, shortener.Link{
			OrganizationID: env.org.ID, Code: "old", OriginalURL: testURL, Active: true, ExpiresAt: &past,
		})

		resp, err := env.links.TrackClick(ctx, &handlers.CodeRequest{Code: "old"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusGone, resp.Status)
		assert.False(t, resp.Body.Success)
		assert.Equal(t, "expired", resp.Body.Error)

		require.NoError(t, env.recorder.Shutdown())
		assert.Zero(t, env.db.Clicks().Count())
	})

	t.Run("inactive link is gone", func(t *testing.T) {
		env := newTestEnv(t)
		insertLink(t, env.db, shortener.Link{OrganizationID: env.org.ID, Code: "off", OriginalURL: testURL})

		resp, err := env.links.TrackClick(ctx, &handlers.CodeRequest{Code: "off"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusGone, resp.Status)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.links.TrackClick(ctx, &handlers.CodeRequest{Code: "missing"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "not found", resp.Body.Error)
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		env := newTestEnv(t, withResolver(failingResolver{}))

		_, err := env.links.TrackClick(ctx, &handlers.CodeRequest{Code: "promo1"})

		requireAPIError(t, err, http.StatusInternalServerError, handlers.CodeServerError)
	})
}

func TestRedirectToURL(t *testing.T) {
	ctx := hostContext(defaultDomain)

	t.Run("redirects to original url", func(t *testing.T) {
		env := newTestEnv(t)
		insertLink(t, env.db, shortener.Link{OrganizationID: env.org.ID, Code: "abc123", OriginalURL: testURL, Active: true})

		resp, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "abc123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, testURL, resp.Location)
	})

	t.Run("redirect is idempotent", func(t *testing.T) {
		env := newTestEnv(t)
		insertLink(t, env.db, shortener.Link{OrganizationID: env.org.ID, Code: "abc123", OriginalURL: testURL, Active: true})

		first, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "abc123"})
		require.NoError(t, err)

		second, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "abc123"})
		require.NoError(t, err)

		assert.Equal(t, first.Location, second.Location)

		require.NoError(t, env.recorder.Shutdown())
		assert.Equal(t, 2, env.db.Clicks().Count())
	})

	t.Run("redirects even when clicks cannot be stored", func(t *testing.T) {
		env := newTestEnv(t, withSink(func(_ *store.MemoryStore) analytics.Sink {
			return analytics.StoreSink(failingClickStore{})
		}))
		insertLink(t, env.db, shortener.Link{OrganizationID: env.org.ID, Code: "abc123", OriginalURL: testURL, Active: true})

		resp, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "abc123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, testURL, resp.Location)
	})

	t.Run("renders not found page", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "<script>"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Contains(t, resp.ContentType, "text/html")
		assert.Contains(t, string(resp.Body), "Link not found")
		assert.NotContains(t, string(resp.Body), "<script>")
	})

	t.Run("renders expired page", func(t *testing.T) {
		env := newTestEnv(t)
		past := time.Now().Add(-time.Minute)
		insertLink(t, env.db, shortener.Link{
			OrganizationID: env.org.ID, Code: "old", OriginalURL: testURL, Active: true, ExpiresAt: &past,
		})

		resp, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "old"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusGone, resp.Status)
		assert.Contains(t, string(resp.Body), "Link expired")
	})

	t.Run("renders error page when store fails", func(t *testing.T) {
		env := newTestEnv(t, withResolver(failingResolver{}))

		resp, err := env.links.RedirectToURL(ctx, &handlers.CodeRequest{Code: "abc123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Contains(t, string(resp.Body), "Something went wrong")
	})

	t.Run("custom domain scopes lookup to its organization", func(t *testing.T) {
		env := newTestEnv(t)
		env.verifiedDomain(t, "go.acme.com")

		other := uuid.New()
		insertLink(t, env.db, shortener.Link{
			OrganizationID: other, Code: "promo1", OriginalURL: "https://other.example.com",
			Active: true, CreatedAt: time.Now().Add(-time.Hour).UTC(),
		})
		insertLink(t, env.db, shortener.Link{OrganizationID: env.org.ID, Code: "promo1", OriginalURL: testURL, Active: true})

		platform, err := env.links.RedirectToURL(hostContext(defaultDomain), &handlers.CodeRequest{Code: "promo1"})
		require.NoError(t, err)
		assert.Equal(t, "https://other.example.com", platform.Location, "unscoped lookup resolves the oldest link")

		custom, err := env.links.RedirectToURL(hostContext("go.acme.com"), &handlers.CodeRequest{Code: "promo1"})
		require.NoError(t, err)
		assert.Equal(t, testURL, custom.Location)
	})
}
