package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	healthy        = "healthy"
	unhealthy      = "unhealthy"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts pgxpool.Pool to Checker interface.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new Postgres health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Ping checks Postgres connectivity.
func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler handles health check operations.
type Handler struct {
	redis    Checker
	postgres Checker
}

// NewHandler creates a new health handler.
func NewHandler(redis, postgres Checker) *Handler {
	return &Handler{redis: redis, postgres: postgres}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status   string `json:"status"`
		Redis    string `json:"redis"`
		Postgres string `json:"postgres"`
	}
}

// Check probes Redis and Postgres in parallel under one deadline.
// A failing dependency reports the service as degraded; the status code stays 200.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	resp := &Response{}

	var g errgroup.Group

	g.Go(func() error {
		resp.Body.Redis = probe(ctx, h.redis)

		return nil
	})
	g.Go(func() error {
		resp.Body.Postgres = probe(ctx, h.postgres)

		return nil
	})

	_ = g.Wait()

	resp.Body.Status = statusOK
	if resp.Body.Redis != healthy || resp.Body.Postgres != healthy {
		resp.Body.Status = statusDegraded
	}

	return resp, nil
}

func probe(ctx context.Context, c Checker) string {
	if err := c.Ping(ctx); err != nil {
		return unhealthy
	}

	return healthy
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
