package ratelimit

import "time"

// DefaultShortenMax and DefaultShortenWindow bound link creation per API key.
const (
	DefaultShortenMax    = 100
	DefaultShortenWindow = time.Hour
)

// LimitConfig allows at most Max requests per fixed Window.
type LimitConfig struct {
	Max    int64
	Window time.Duration
}

// Policy maps scopes to the limits enforced for them. Scopes without limits are unrestricted.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// NewPolicy creates a policy that only limits link creation.
func NewPolicy(shortenMax int64, shortenWindow time.Duration) *Policy {
	if shortenMax <= 0 {
		shortenMax = DefaultShortenMax
	}

	if shortenWindow <= 0 {
		shortenWindow = DefaultShortenWindow
	}

	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeShorten: {{Max: shortenMax, Window: shortenWindow}},
		},
	}
}

// With adds limits for scope and returns the policy.
func (p *Policy) With(scope Scope, limits ...LimitConfig) *Policy {
	p.Limits[scope] = append(p.Limits[scope], limits...)

	return p
}
