package ratelimit

import "context"

// Limiter decides whether a client may proceed.
type Limiter interface {
	// Allow records the request in the policy limits of scopes and reports whether all still hold.
	// The LimitExceeded return value describes the first limit hit, nil when allowed.
	Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error)

	// AllowCustom is Allow for limits configured on a single endpoint.
	AllowCustom(ctx context.Context, clientKey string, scope Scope, limits []LimitConfig) (bool, *LimitExceeded, error)
}

var _ Limiter = (*PolicyLimiter)(nil)
