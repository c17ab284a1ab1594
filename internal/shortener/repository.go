package shortener

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/tenant"
)

// ReserveFunc consumes quota for a link being inserted, through a reserver
// that shares the insert's transaction.
type ReserveFunc func(ctx context.Context, orgs tenant.Reserver) error

// Finder looks up links by code. A nil orgID performs an unscoped lookup,
// which returns the oldest link carrying the code.
// Returns ErrNotFound if no link matches. Inactive and expired links are returned as-is.
type Finder interface {
	FindByCode(ctx context.Context, code Code, orgID *uuid.UUID) (*Link, error)
}

// Repository defines the storage operations for short links.
type Repository interface {
	CodeChecker
	Finder

	// Create inserts a new link. Returns ErrCodeConflict if the code is taken in the organization.
	Create(ctx context.Context, link *Link) error

	// CreateReserved inserts link and runs reserve as one unit: when either fails
	// neither the link nor the quota change is kept.
	CreateReserved(ctx context.Context, link *Link, reserve ReserveFunc) error

	// DeactivateExpired flips active links whose expiry has passed to inactive
	// and returns how many rows changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
