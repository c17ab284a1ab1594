package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/analytics"
)

// RequestMeta is a middleware that adds client IP, user-agent, referrer and host to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := analytics.ClientMeta{
			ClientIP:  ClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			Host:      ctx.Host(),
		}

		newCtx := analytics.ContextWithClientMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}
