package domains

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the storage operations for custom domains.
// Lookups scoped by organization return ErrNotFound for domains owned by someone else.
type Repository interface {
	// Create returns ErrDomainExists if the organization already owns the hostname.
	Create(ctx context.Context, domain *Domain) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*Domain, error)
	FindByHostname(ctx context.Context, orgID uuid.UUID, hostname string) (*Domain, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Domain, error)

	// FindVerifiedByHostname returns the verified domain with the hostname across organizations.
	FindVerifiedByHostname(ctx context.Context, hostname string) (*Domain, error)

	// CountClaims counts registrations of the hostname by organizations other than orgID.
	CountClaims(ctx context.Context, hostname string, orgID uuid.UUID) (int64, error)

	SetVerificationCode(ctx context.Context, orgID, id uuid.UUID, code string) (*Domain, error)
	RecordAttempt(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkVerified returns ErrDomainExists if another organization already verified the hostname.
	MarkVerified(ctx context.Context, id uuid.UUID, method Method, at time.Time) (*Domain, error)

	CountLinks(ctx context.Context, orgID, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
