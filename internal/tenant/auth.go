package tenant

import (
	"context"
	"errors"
	"strings"
)

// APIKeyFromHeaders returns the key from x-api-key, falling back to a bearer token.
func APIKeyFromHeaders(xAPIKey, authorization string) string {
	if key := strings.TrimSpace(xAPIKey); key != "" {
		return key
	}

	if token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

// Authenticator resolves API keys to organizations.
type Authenticator struct {
	store Store
}

// NewAuthenticator creates a new authenticator.
func NewAuthenticator(store Store) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate returns the organization owning apiKey regardless of its subscription state.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (*Organization, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	org, err := a.store.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}

		return nil, err
	}

	return org, nil
}

// AuthenticateActive is Authenticate plus a subscription check.
func (a *Authenticator) AuthenticateActive(ctx context.Context, apiKey string) (*Organization, error) {
	org, err := a.Authenticate(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if !org.Active() {
		return nil, ErrSubscriptionInactive
	}

	return org, nil
}
