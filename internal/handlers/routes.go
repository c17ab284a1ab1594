package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

var shortenLimit = map[string]any{
	ratelimit.MetadataKey: ratelimit.EndpointConfig{
		Scope: ratelimit.ScopeShorten,
		KeyBy: ratelimit.KeyByAPIKey,
	},
}

// Redirects are high-traffic reads, limited per client.
var redirectLimit = map[string]any{
	ratelimit.MetadataKey: ratelimit.EndpointConfig{
		Limits: []ratelimit.LimitConfig{
			{Window: time.Minute, Max: 1000},
		},
	},
}

// Each verification performs several DNS lookups.
var verifyLimit = map[string]any{
	ratelimit.MetadataKey: ratelimit.EndpointConfig{
		KeyBy: ratelimit.KeyByAPIKey,
		Limits: []ratelimit.LimitConfig{
			{Window: time.Minute, Max: 10},
		},
	},
}

// RegisterRoutes registers the short link routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, links *LinkHandler) {
	// The v1 path is the public alias of /shorten.
	for _, route := range []struct{ path, suffix string }{
		{path: "/shorten"},
		{path: "/api/v1/shorten", suffix: "-v1"},
	} {
		huma.Register(api, huma.Operation{
			OperationID:   "create-short-url" + route.suffix,
			Method:        http.MethodPost,
			Path:          route.path,
			Summary:       "Create short URL",
			Description:   "Creates a short URL for the organization owning the API key.",
			Tags:          []string{"URLs"},
			DefaultStatus: http.StatusCreated,
			Metadata:      shortenLimit,
		}, links.CreateShortURL)

		huma.Register(api, huma.Operation{
			OperationID: "lookup-short-url" + route.suffix,
			Method:      http.MethodGet,
			Path:        route.path,
			Summary:     "Look up short URL",
			Description: "Returns one of the organization's short URLs by code.",
			Tags:        []string{"URLs"},
		}, links.LookupShortURL)
	}

	huma.Register(api, huma.Operation{
		OperationID: "track-click",
		Method:      http.MethodPost,
		Path:        "/track/{code}",
		Summary:     "Track click",
		Description: "Resolves the short code for a client-side redirect and records the click.",
		Tags:        []string{"URLs"},
		Metadata:    redirectLimit,
	}, links.TrackClick)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Metadata:    redirectLimit,
	}, links.RedirectToURL)
}

// RegisterDomainRoutes registers custom domain management routes.
func RegisterDomainRoutes(api huma.API, h *DomainHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-domains",
		Method:      http.MethodGet,
		Path:        "/domains",
		Summary:     "List custom domains",
		Tags:        []string{"Domains"},
	}, h.ListDomains)

	huma.Register(api, huma.Operation{
		OperationID:   "create-domain",
		Method:        http.MethodPost,
		Path:          "/domains",
		Summary:       "Register custom domain",
		Description:   "Registers a hostname for the organization. It must be verified before use.",
		Tags:          []string{"Domains"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateDomain)

	huma.Register(api, huma.Operation{
		OperationID: "verify-domain",
		Method:      http.MethodPost,
		Path:        "/domains/{id}/verify",
		Summary:     "Verify custom domain",
		Description: "Checks DNS for an A record, a CNAME or the TXT challenge.",
		Tags:        []string{"Domains"},
		Metadata:    verifyLimit,
	}, h.VerifyDomain)

	huma.Register(api, huma.Operation{
		OperationID: "generate-domain-txt",
		Method:      http.MethodPost,
		Path:        "/domains/{id}/generate-txt",
		Summary:     "Generate TXT challenge",
		Tags:        []string{"Domains"},
	}, h.GenerateTXT)

	huma.Register(api, huma.Operation{
		OperationID: "delete-domain",
		Method:      http.MethodDelete,
		Path:        "/domains/{id}",
		Summary:     "Delete custom domain",
		Description: "Deletes a domain that no short URL references.",
		Tags:        []string{"Domains"},
	}, h.DeleteDomain)
}

// RegisterAnalyticsRoutes registers the analytics summary route.
func RegisterAnalyticsRoutes(api huma.API, h *AnalyticsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-analytics",
		Method:      http.MethodGet,
		Path:        "/analytics",
		Summary:     "Click analytics",
		Description: "Summarizes the organization's clicks over the last days.",
		Tags:        []string{"Analytics"},
	}, h.GetAnalytics)
}
