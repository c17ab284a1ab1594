package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/tenant"
	"go.uber.org/zap"
)

// bucketKey groups requests for rate limiting. Keys are hashed so raw API keys never reach the store.
func bucketKey(ctx huma.Context, by ratelimit.KeyBy) string {
	if by == ratelimit.KeyByAPIKey {
		if key := tenant.APIKeyFromHeaders(ctx.Header("x-api-key"), ctx.Header("Authorization")); key != "" {
			return "key:" + digest(key)
		}
	}

	return "client:" + digest(ClientIP(ctx)+"|"+ctx.Header("User-Agent"))
}

func digest(s string) string {
	hash := sha256.Sum256([]byte(s))

	return hex.EncodeToString(hash[:])
}

// PolicyRateLimiter returns a huma middleware enforcing the limiter's policy.
//
// Operations may carry a ratelimit.EndpointConfig under ratelimit.MetadataKey to
// disable limiting, add a policy scope, replace the policy with their own limits
// (counted per route template, so "/{code}" shares one counter per bucket) or
// bucket by API key instead of by client.
func PolicyRateLimiter(
	api huma.API,
	limiter ratelimit.Limiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil {
			cfg = &ratelimit.EndpointConfig{}
		}

		if cfg.Disabled {
			next(ctx)

			return
		}

		path := operationPath(ctx)
		key := bucketKey(ctx, cfg.KeyBy)

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		if len(cfg.Limits) > 0 {
			allowed, exceeded, err = limiter.AllowCustom(ctx.Context(), key, ratelimit.CustomScope(path), cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		switch {
		case err != nil:
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)
		case !allowed:
			rejectRequest(api, ctx, exceeded, path, logger)
		default:
			next(ctx)
		}
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

// rejectRequest answers 429 with a Retry-After of one window.
func rejectRequest(
	api huma.API,
	ctx huma.Context,
	exceeded *ratelimit.LimitExceeded,
	path string,
	logger *zap.Logger,
) {
	if exceeded != nil {
		logger.Warn("rate limit exceeded",
			zap.String("path", path),
			zap.String("method", ctx.Method()),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("client_ip", ClientIP(ctx)),
		)
		ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.Config.Window.Seconds())))
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "Too many requests, please try again later")
}
