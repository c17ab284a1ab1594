package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Reserver consumes monthly link quota.
type Reserver interface {
	// ReserveURL atomically increments monthly_urls_used when the organization is
	// unlimited or below its limit, and returns the updated organization.
	// Returns ErrLimitExceeded when the conditional increment matched no row.
	ReserveURL(ctx context.Context, orgID uuid.UUID) (*Organization, error)
}

// Store defines the organization storage operations used by the core.
type Store interface {
	Reserver

	// FindByAPIKey returns ErrNotFound when no organization owns the key.
	FindByAPIKey(ctx context.Context, apiKey string) (*Organization, error)
}
