package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Code represents a short link code.
type Code string

// Link represents a short link owned by an organization.
type Link struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	OriginalURL    string
	Code           Code
	DomainID       *uuid.UUID // nil means the platform default domain
	Domain         string     // hostname of DomainID, empty for the default domain
	ExpiresAt      *time.Time // nil means the link never expires
	Active         bool
	ClickCount     int64
	CreatedAt      time.Time
}

// Expired reports whether the link has an expiry at or before now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}
