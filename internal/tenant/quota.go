package tenant

import (
	"context"
	"errors"
	"fmt"
)

// Gate enforces per-organization monthly link creation limits.
type Gate struct {
	store Reserver
}

// NewGate creates a new quota gate.
func NewGate(store Reserver) *Gate {
	return &Gate{store: store}
}

// Within returns a gate that reserves through r, typically a store bound to the
// transaction that also inserts the link.
func (g *Gate) Within(r Reserver) *Gate {
	return &Gate{store: r}
}

// Check is a read-only test against the organization snapshot, used to fail fast
// before any work is done. It does not reserve anything.
func (g *Gate) Check(org *Organization) error {
	if org.Unlimited() {
		return nil
	}

	if org.MonthlyURLsUsed >= org.MonthlyURLLimit {
		return &LimitExceededError{Limit: org.MonthlyURLLimit}
	}

	return nil
}

// CheckAndReserve consumes one unit of the organization's monthly quota.
// The check and the increment are a single conditional write in the store, so
// concurrent creations cannot jointly overshoot the limit.
func (g *Gate) CheckAndReserve(ctx context.Context, org *Organization) error {
	updated, err := g.store.ReserveURL(ctx, org.ID)
	if err != nil {
		if errors.Is(err, ErrLimitExceeded) {
			return &LimitExceededError{Limit: org.MonthlyURLLimit}
		}

		return fmt.Errorf("reserve url quota: %w", err)
	}

	org.MonthlyURLsUsed = updated.MonthlyURLsUsed
	org.MonthlyURLLimit = updated.MonthlyURLLimit

	return nil
}
