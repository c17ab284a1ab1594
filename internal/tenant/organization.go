package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tier is the subscription plan of an organization.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Status is the subscription state of an organization.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Organization is the tenant boundary.
type Organization struct {
	ID              uuid.UUID
	Name            string
	Slug            string
	APIKey          string
	Tier            Tier
	Status          Status
	MonthlyURLLimit int64 // zero or negative means unlimited
	MonthlyURLsUsed int64
	CreatedAt       time.Time
}

// Active reports whether the subscription allows creating links. Trial organizations
// must be activated first.
func (o *Organization) Active() bool {
	return o.Status == StatusActive
}

// Unlimited reports whether the organization has no monthly cap.
func (o *Organization) Unlimited() bool {
	return o.MonthlyURLLimit <= 0
}
