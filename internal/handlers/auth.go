package handlers

import (
	"context"

	"github.com/serroba/shortlinks/internal/tenant"
)

// AuthHeaders carries the API key of a request. Either header may be used.
type AuthHeaders struct {
	APIKey        string `doc:"Organization API key"       header:"x-api-key"`
	Authorization string `doc:"Bearer <api key>"           header:"Authorization"`
}

// Key returns the API key presented by the request, or an empty string.
func (a AuthHeaders) Key() string {
	return tenant.APIKeyFromHeaders(a.APIKey, a.Authorization)
}

// Authenticator resolves API keys to organizations.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*tenant.Organization, error)
	AuthenticateActive(ctx context.Context, apiKey string) (*tenant.Organization, error)
}
