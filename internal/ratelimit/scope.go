package ratelimit

import "github.com/danielgtaylor/huma/v2"

// Scope names a group of operations that share rate limit counters.
type Scope string

const (
	// ScopeGlobal is counted for every limited request.
	ScopeGlobal Scope = "global"
	// ScopeShorten covers link creation.
	ScopeShorten Scope = "shorten"
)

// CustomScope is the scope under which per-endpoint limits of path are counted.
func CustomScope(path string) Scope {
	return Scope("custom:" + path)
}

// KeyBy selects how requests are grouped into rate limit buckets.
type KeyBy int

const (
	// KeyByClient groups requests by client IP and User-Agent.
	KeyByClient KeyBy = iota
	// KeyByAPIKey groups requests by API key, falling back to the client when none is sent.
	KeyByAPIKey
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig is attached to huma operations under MetadataKey.
type EndpointConfig struct {
	// Scope adds a policy scope on top of ScopeGlobal. Ignored when Limits is set.
	Scope Scope

	// Limits replaces the policy for this endpoint.
	Limits []LimitConfig

	// Disabled skips rate limiting entirely.
	Disabled bool

	// KeyBy selects the bucket key; the zero value keys by client.
	KeyBy KeyBy
}

// ScopeResolver determines which policy scopes apply to a request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// OperationScopeResolver reads scopes from operation metadata.
// Operations without a configured scope are only counted in ScopeGlobal.
type OperationScopeResolver struct{}

// NewOperationScopeResolver creates a new operation-aware scope resolver.
func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{}
}

func (r *OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	if cfg := GetEndpointConfig(ctx); cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return []Scope{ScopeGlobal}
}

// GetEndpointConfig returns the EndpointConfig of the current operation, or nil.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
