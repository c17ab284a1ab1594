package shortener

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resolution is a link that may be followed.
type Resolution struct {
	URL            string
	LinkID         uuid.UUID
	OrganizationID uuid.UUID
	Code           Code
}

// Resolver maps short codes to live destinations.
type Resolver struct {
	finder Finder
	now    func() time.Time
}

// NewResolver creates a new resolver reading from finder.
func NewResolver(finder Finder) *Resolver {
	return &Resolver{
		finder: finder,
		now:    time.Now,
	}
}

// WithClock overrides the resolver's time source.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now

	return r
}

// Resolve returns the destination for code, optionally scoped to an organization.
// It fails with ErrNotFound, ErrExpired or ErrInactive. Expiry is checked before the
// active flag because the expiry sweep may already have deactivated the link.
func (r *Resolver) Resolve(ctx context.Context, code Code, orgID *uuid.UUID) (*Resolution, error) {
	link, err := r.finder.FindByCode(ctx, code, orgID)
	if err != nil {
		return nil, err
	}

	if link.Expired(r.now()) {
		return nil, ErrExpired
	}

	if !link.Active {
		return nil, ErrInactive
	}

	return &Resolution{
		URL:            link.OriginalURL,
		LinkID:         link.ID,
		OrganizationID: link.OrganizationID,
		Code:           link.Code,
	}, nil
}
