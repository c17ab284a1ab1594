package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the first limit a request ran into.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

func (e *LimitExceeded) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// PolicyLimiter counts requests per client in fixed windows and compares them to a Policy.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow counts the request in every policy limit of scopes. Scopes the policy does not
// mention are unlimited. Counting stops at the first exceeded limit.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		exceeded, err := l.count(ctx, clientKey, scope, l.policy.Limits[scope])
		if err != nil || exceeded != nil {
			return false, exceeded, err
		}
	}

	return true, nil, nil
}

// AllowCustom counts the request against limits that replace the policy for one endpoint.
func (l *PolicyLimiter) AllowCustom(
	ctx context.Context,
	clientKey string,
	scope Scope,
	limits []LimitConfig,
) (bool, *LimitExceeded, error) {
	exceeded, err := l.count(ctx, clientKey, scope, limits)
	if err != nil || exceeded != nil {
		return false, exceeded, err
	}

	return true, nil, nil
}

func (l *PolicyLimiter) count(ctx context.Context, clientKey string, scope Scope, limits []LimitConfig) (*LimitExceeded, error) {
	for _, limit := range limits {
		// client:scope:window, so each window of a scope has its own counter
		key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

		n, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", scope, err)
		}

		if n > limit.Max {
			return &LimitExceeded{Scope: scope, Config: limit, Count: n}, nil
		}
	}

	return nil, nil
}
